package geo

import "fmt"

// TileKey addresses a single tile in a quadtree: level of detail plus column
// and row within that level's grid, relative to a Profile. The zero value is
// not a valid key; use InvalidTileKey or check Valid().
type TileKey struct {
	LOD     uint32
	X, Y    uint32
	Profile Profile
}

// InvalidTileKey is the canonical invalid key sentinel (LOD is a tombstone
// value, matching the original's use of an out-of-range unsigned LOD).
var InvalidTileKey = TileKey{LOD: ^uint32(0)}

// Valid reports whether the key addresses a real tile in its profile.
func (k TileKey) Valid() bool {
	return k.LOD != InvalidTileKey.LOD && k.Profile.Valid()
}

// Extent returns the geographic extent this key addresses.
func (k TileKey) Extent() Extent {
	return k.Profile.TileExtent(k.LOD, k.X, k.Y)
}

// Quadrant returns this tile's index within its parent's 2x2 child grid:
// bit 0 is the low bit of X, bit 1 is the low bit of Y. This is the same
// (x&1)|((y&1)<<1) scheme the pager uses to select a child's quarter of the
// parent's data.
func (k TileKey) Quadrant() int {
	return int(k.X&1) | int((k.Y&1)<<1)
}

// CreateChildKey returns the child of k at the given quadrant (0..3).
func (k TileKey) CreateChildKey(quadrant int) TileKey {
	return TileKey{
		LOD:     k.LOD + 1,
		X:       2*k.X + uint32(quadrant&1),
		Y:       2*k.Y + uint32((quadrant>>1)&1),
		Profile: k.Profile,
	}
}

// CreateChildKeys returns all four children of k, in quadrant order.
func (k TileKey) CreateChildKeys() [4]TileKey {
	return [4]TileKey{
		k.CreateChildKey(0), k.CreateChildKey(1), k.CreateChildKey(2), k.CreateChildKey(3),
	}
}

// CreateParentKey returns k's parent, or InvalidTileKey if k is already at
// LOD 0.
func (k TileKey) CreateParentKey() TileKey {
	if k.LOD == 0 {
		return InvalidTileKey
	}
	return TileKey{LOD: k.LOD - 1, X: k.X / 2, Y: k.Y / 2, Profile: k.Profile}
}

// CreateAncestorKey walks up from k to the given LOD (which must be <=
// k.LOD), or InvalidTileKey if lod exceeds k.LOD.
func (k TileKey) CreateAncestorKey(lod uint32) TileKey {
	if lod > k.LOD {
		return InvalidTileKey
	}
	out := k
	for out.LOD > lod {
		out = out.CreateParentKey()
	}
	return out
}

// MapResolution estimates the size, in profile SRS units, of one tile at
// this key's LOD.
func (k TileKey) MapResolution() (width, height float64) {
	return k.Profile.TileDimensions(k.LOD)
}

func (k TileKey) String() string {
	if !k.Valid() {
		return "INVALID"
	}
	return fmt.Sprintf("%d/%d/%d", k.LOD, k.X, k.Y)
}

// Equal reports key equality: same LOD/X/Y and equivalent profiles.
func (k TileKey) Equal(rhs TileKey) bool {
	return k.LOD == rhs.LOD && k.X == rhs.X && k.Y == rhs.Y && k.Profile.Equivalent(rhs.Profile)
}
