package geometry

import "testing"

func TestGetBuildsGridTopology(t *testing.T) {
	m := Get(Key{Subdivision: 4, HasSkirt: false})
	if got, want := len(m.Vertices), 5*5; got != want {
		t.Errorf("vertex count = %d, want %d", got, want)
	}
	if got, want := len(m.Indices), 4*4*6; got != want {
		t.Errorf("index count = %d, want %d", got, want)
	}
	for _, idx := range m.Indices {
		if int(idx) >= len(m.Vertices) {
			t.Fatalf("index %d out of range (have %d vertices)", idx, len(m.Vertices))
		}
	}
}

func TestGetCachesByKey(t *testing.T) {
	a := Get(Key{Subdivision: 8})
	b := Get(Key{Subdivision: 8})
	if a != b {
		t.Error("expected the same Mesh pointer for an identical key")
	}
	c := Get(Key{Subdivision: 16})
	if a == c {
		t.Error("expected distinct meshes for distinct keys")
	}
}

func TestGetWithSkirtAddsBorderGeometry(t *testing.T) {
	flat := Get(Key{Subdivision: 4, HasSkirt: false})
	skirted := Get(Key{Subdivision: 4, HasSkirt: true})
	if len(skirted.Vertices) <= len(flat.Vertices) {
		t.Error("expected skirted mesh to have more vertices than flat mesh")
	}
	for _, idx := range skirted.Indices {
		if int(idx) >= len(skirted.Vertices) {
			t.Fatalf("skirt index %d out of range (have %d vertices)", idx, len(skirted.Vertices))
		}
	}
}

func TestSubdivisionZeroTreatedAsOne(t *testing.T) {
	m := Get(Key{Subdivision: 0})
	if len(m.Vertices) != 4 {
		t.Errorf("expected a single quad (4 vertices) for Subdivision=0, got %d", len(m.Vertices))
	}
}
