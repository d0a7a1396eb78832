package geo

import "testing"

func TestTileKeyChildQuadrants(t *testing.T) {
	p, _ := NamedProfile("global-geodetic")
	k := TileKey{LOD: 2, X: 3, Y: 5, Profile: p}
	children := k.CreateChildKeys()
	for i, c := range children {
		if c.Quadrant() != i {
			t.Errorf("child %d has quadrant %d", i, c.Quadrant())
		}
		if c.LOD != k.LOD+1 {
			t.Errorf("child LOD = %d, want %d", c.LOD, k.LOD+1)
		}
		if parent := c.CreateParentKey(); parent.X != k.X || parent.Y != k.Y || parent.LOD != k.LOD {
			t.Errorf("child %d's parent = %+v, want %+v", i, parent, k)
		}
	}
}

func TestTileKeyParentOfRootIsInvalid(t *testing.T) {
	p, _ := NamedProfile("global-geodetic")
	root := TileKey{LOD: 0, X: 0, Y: 0, Profile: p}
	if parent := root.CreateParentKey(); parent.Valid() {
		t.Errorf("expected invalid parent of root, got %+v", parent)
	}
}

func TestTileKeyCreateAncestorKey(t *testing.T) {
	p, _ := NamedProfile("global-geodetic")
	k := TileKey{LOD: 4, X: 12, Y: 3, Profile: p}
	anc := k.CreateAncestorKey(2)
	if anc.LOD != 2 {
		t.Errorf("ancestor LOD = %d, want 2", anc.LOD)
	}
	if anc.X != k.X>>2 || anc.Y != k.Y>>2 {
		t.Errorf("ancestor coords = %d,%d want %d,%d", anc.X, anc.Y, k.X>>2, k.Y>>2)
	}
}

func TestTileKeyCreateAncestorKeyAboveSelfIsInvalid(t *testing.T) {
	p, _ := NamedProfile("global-geodetic")
	k := TileKey{LOD: 1, X: 0, Y: 0, Profile: p}
	if anc := k.CreateAncestorKey(3); anc.Valid() {
		t.Errorf("expected invalid, got %+v", anc)
	}
}

func TestTileKeyStringFormat(t *testing.T) {
	p, _ := NamedProfile("global-geodetic")
	k := TileKey{LOD: 5, X: 1, Y: 2, Profile: p}
	if got, want := k.String(), "5/1/2"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
