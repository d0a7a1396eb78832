package geo

import (
	"math"
	"testing"

	"github.com/pelicanmapping/rocky-terrain/internal/srs"
)

func TestExtentClampSnapsNearIntegerEdges(t *testing.T) {
	e := New(srs.Geodetic, -180.0000001, -90.0000002, 179.9999999, 89.9999998)
	if e.West != -180 || e.South != -90 {
		t.Errorf("clamp did not snap: west=%v south=%v", e.West, e.South)
	}
}

func TestExtentClampHardBounds(t *testing.T) {
	e := Extent{SRS: srs.Geodetic, West: -200, South: -100, Width: 500, Height: 300}
	e.clamp()
	if e.Width > 360 {
		t.Errorf("width not clamped: %v", e.Width)
	}
	if e.Height > 180 {
		t.Errorf("height not clamped: %v", e.Height)
	}
	if e.South < -90 {
		t.Errorf("south not clamped: %v", e.South)
	}
}

func TestExtentNormalizeX(t *testing.T) {
	e := New(srs.Geodetic, 0, -10, 10, 10)
	tests := []struct {
		in, want float64
	}{
		{180, -180},
		{-180, -180},
		{190, -170},
		{-190, 170},
		{0, 0},
		{179.999999995, -180},
	}
	for _, tt := range tests {
		got := e.normalizeX(tt.in)
		if math.Abs(got-tt.want) > 1e-6 {
			t.Errorf("normalizeX(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestExtentCrossesAntimeridian(t *testing.T) {
	e := New(srs.Geodetic, 170, -10, 190, 10) // east normalizes to -170 < west 170
	if !e.CrossesAntimeridian() {
		t.Error("expected antimeridian crossing")
	}
	w, east, ok := e.SplitAcrossAntimeridian()
	if !ok {
		t.Fatal("expected split ok")
	}
	if w.West != 170 || w.East() != 180 {
		// normalizeX(180) snaps to -180, so compare via Xmax
		if w.Xmax() != 180 {
			t.Errorf("west piece wrong: %+v", w)
		}
	}
	if east.West != -180 {
		t.Errorf("east piece west wrong: %+v", east)
	}
}

func TestExtentContainsBasic(t *testing.T) {
	e := New(srs.Geodetic, -10, -10, 10, 10)
	if !e.Contains(0, 0, srs.SRS{}) {
		t.Error("expected (0,0) contained")
	}
	if e.Contains(50, 50, srs.SRS{}) {
		t.Error("did not expect (50,50) contained")
	}
	if !e.Contains(-10, -10, srs.SRS{}) {
		t.Error("expected SW corner contained")
	}
	if !e.Contains(10, 10, srs.SRS{}) {
		t.Error("expected NE corner contained")
	}
}

func TestExtentContainsAntimeridian(t *testing.T) {
	e := New(srs.Geodetic, 170, -10, 190, 10)
	if !e.Contains(175, 0, srs.SRS{}) {
		t.Error("expected 175E contained")
	}
	if !e.Contains(-175, 0, srs.SRS{}) {
		t.Error("expected 175W (across meridian) contained")
	}
	if e.Contains(0, 0, srs.SRS{}) {
		t.Error("did not expect 0,0 contained")
	}
}

func TestExtentIntersects(t *testing.T) {
	a := New(srs.Geodetic, -10, -10, 10, 10)
	b := New(srs.Geodetic, 5, 5, 20, 20)
	c := New(srs.Geodetic, 50, 50, 60, 60)
	if !a.Intersects(b) {
		t.Error("expected a,b to intersect")
	}
	if a.Intersects(c) {
		t.Error("did not expect a,c to intersect")
	}
}

func TestExtentExpandToInclude(t *testing.T) {
	e := New(srs.Geodetic, -10, -10, 10, 10)
	e2 := e.ExpandToInclude(20, 20)
	if e2.Xmax() < 20 || e2.North() < 20 {
		t.Errorf("expand did not grow enough: %+v", e2)
	}
}

func TestExtentExpandToIncludeAcrossAntimeridianNeverShrinks(t *testing.T) {
	e := New(srs.Geodetic, 160, -10, 170, 10) // west=160 width=10
	e2 := e.ExpandToInclude(-170, 0)
	if e2.Width < e.Width {
		t.Errorf("expand shrank the extent: %v -> %v", e.Width, e2.Width)
	}
	if !e2.Valid() {
		t.Errorf("expected valid result, got %+v", e2)
	}
}

func TestExtentIntersectionSameSRS(t *testing.T) {
	a := New(srs.Geodetic, -10, -10, 10, 10)
	b := New(srs.Geodetic, 0, 0, 20, 20)
	i := a.IntersectionSameSRS(b)
	if !i.Valid() {
		t.Fatal("expected valid intersection")
	}
	if i.West != 0 || i.South != 0 {
		t.Errorf("unexpected intersection origin: %+v", i)
	}
}

func TestExtentCreateScaleBias(t *testing.T) {
	parent := New(srs.Geodetic, -180, -90, 180, 90)
	child := New(srs.Geodetic, -180, 0, 0, 90) // NW quadrant
	sb := child.CreateScaleBias(parent)
	if math.Abs(sb.ScaleX-0.5) > 1e-9 || math.Abs(sb.ScaleY-0.5) > 1e-9 {
		t.Errorf("unexpected scale: %+v", sb)
	}
	if math.Abs(sb.BiasX-0.0) > 1e-9 || math.Abs(sb.BiasY-0.5) > 1e-9 {
		t.Errorf("unexpected bias: %+v", sb)
	}
}

func TestExtentCreateWorldBoundingSphereGeocentric(t *testing.T) {
	e := New(srs.Geodetic, -10, -10, 10, 10)
	bs, err := e.CreateWorldBoundingSphere(0, 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bs.Radius <= 0 {
		t.Errorf("expected positive radius, got %v", bs.Radius)
	}
}
