package geo

import (
	"math"
	"testing"
)

func TestNamedProfileGlobalGeodetic(t *testing.T) {
	p, ok := NamedProfile("global-geodetic")
	if !ok {
		t.Fatal("expected global-geodetic to resolve")
	}
	tx, ty := p.NumTiles(0)
	if tx != 2 || ty != 1 {
		t.Errorf("unexpected LOD0 grid: %d x %d", tx, ty)
	}
}

func TestProfileNumTilesDoublesPerLOD(t *testing.T) {
	p, _ := NamedProfile("global-geodetic")
	tx, ty := p.NumTiles(3)
	if tx != 16 || ty != 8 {
		t.Errorf("NumTiles(3) = %d,%d want 16,8", tx, ty)
	}
}

func TestProfileTileExtentCoversRoot(t *testing.T) {
	p, _ := NamedProfile("global-geodetic")
	e := p.TileExtent(0, 0, 0)
	if e.Xmin() != -180 || e.Xmax() != 0 || e.South != -90 || e.North() != 90 {
		t.Errorf("unexpected tile 0,0,0 extent: %+v", e)
	}
	e2 := p.TileExtent(0, 1, 0)
	if e2.Xmin() != 0 || e2.Xmax() != 180 {
		t.Errorf("unexpected tile 0,1,0 extent: %+v", e2)
	}
}

func TestProfileTileDimensionsHalveEachLOD(t *testing.T) {
	p, _ := NamedProfile("global-geodetic")
	w0, h0 := p.TileDimensions(0)
	w1, h1 := p.TileDimensions(1)
	if math.Abs(w0/2-w1) > 1e-9 || math.Abs(h0/2-h1) > 1e-9 {
		t.Errorf("tile dims did not halve: (%v,%v) -> (%v,%v)", w0, h0, w1, h1)
	}
}

func TestProfileLevelOfDetailForHorizResolution(t *testing.T) {
	p, _ := NamedProfile("global-geodetic")
	lod := p.LevelOfDetailForHorizResolution(180.0/256.0, 256)
	if lod != 0 {
		t.Errorf("expected lod 0, got %d", lod)
	}
}

func TestProfileGetRootKeys(t *testing.T) {
	p, _ := NamedProfile("global-geodetic")
	keys := p.GetRootKeys()
	if len(keys) != 2 {
		t.Fatalf("expected 2 root keys, got %d", len(keys))
	}
}

func TestProfileEquivalentByWellKnownName(t *testing.T) {
	a, _ := NamedProfile("global-geodetic")
	b, _ := NamedProfile("global-geodetic")
	if !a.Equivalent(b) {
		t.Error("expected equivalence")
	}
	m, _ := NamedProfile("spherical-mercator")
	if a.Equivalent(m) {
		t.Error("did not expect geodetic/mercator equivalence")
	}
}

func TestProfileEquivalentComparesWideAndHighSeparately(t *testing.T) {
	base, _ := NamedProfile("global-geodetic")
	wideSwapped := NewProfile(base.SRS(), base.RootExtent, base.NumTilesHighAtLOD0, base.NumTilesWideAtLOD0)
	if base.NumTilesWideAtLOD0 == base.NumTilesHighAtLOD0 {
		t.Fatal("test profile needs distinct wide/high counts to be meaningful")
	}
	if base.Equivalent(wideSwapped) {
		t.Error("expected profiles with swapped wide/high tile counts not to be equivalent")
	}
}

func TestProfileGetEquivalentLODShortcut(t *testing.T) {
	geo, _ := NamedProfile("global-geodetic")
	merc, _ := NamedProfile("spherical-mercator")
	if got := geo.GetEquivalentLOD(merc, 5); got != 5 {
		t.Errorf("expected shortcut to pass through rhsLOD, got %d", got)
	}
}
