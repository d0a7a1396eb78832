package geo

import (
	"math"

	"github.com/pelicanmapping/rocky-terrain/internal/srs"
)

// Profile defines a tiling scheme: an SRS, a root extent, and the number of
// tiles spanning that extent at LOD 0. Ported from
// original_source/src/rocky/Profile.cpp.
type Profile struct {
	WellKnownName     string
	RootExtent        Extent
	NumTilesWideAtLOD0 uint32
	NumTilesHighAtLOD0 uint32
}

const (
	mercMinX = -20037508.34278925
	mercMinY = -20037508.34278925
	mercMaxX = 20037508.34278925
	mercMaxY = 20037508.34278925
)

// GlobalGeodetic is the well-known 2x1 lat/lon tiling profile.
var GlobalGeodetic = Profile{
	WellKnownName:      "global-geodetic",
	RootExtent:         New(srs.Geodetic, -180.0, -90.0, 180.0, 90.0),
	NumTilesWideAtLOD0: 2,
	NumTilesHighAtLOD0: 1,
}

// SphericalMercatorProfile is the well-known 1x1 Web Mercator tiling profile.
var SphericalMercatorProfile = Profile{
	WellKnownName:      "spherical-mercator",
	RootExtent:         New(srs.SphericalMercator, mercMinX, mercMinY, mercMaxX, mercMaxY),
	NumTilesWideAtLOD0: 1,
	NumTilesHighAtLOD0: 1,
}

// NamedProfile resolves a well-known profile name ("global-geodetic" or
// "spherical-mercator"). ok is false for unrecognized names.
func NamedProfile(name string) (Profile, bool) {
	switch name {
	case "global-geodetic":
		return GlobalGeodetic, true
	case "spherical-mercator":
		return SphericalMercatorProfile, true
	default:
		return Profile{}, false
	}
}

// NewProfile builds a custom profile from an SRS, root extent, and LOD0 tile
// count.
func NewProfile(s srs.SRS, bounds Extent, tilesWide, tilesHigh uint32) Profile {
	bounds.SRS = s
	return Profile{RootExtent: bounds, NumTilesWideAtLOD0: tilesWide, NumTilesHighAtLOD0: tilesHigh}
}

// Valid reports whether the profile has a usable root extent.
func (p Profile) Valid() bool {
	return p.RootExtent.Valid() && p.RootExtent.Width > 0 && p.RootExtent.Height > 0
}

// SRS returns the profile's spatial reference.
func (p Profile) SRS() srs.SRS { return p.RootExtent.SRS }

// Equivalent reports profile equality by well-known name, falling back to
// extent + LOD0 tile count comparison.
func (p Profile) Equivalent(rhs Profile) bool {
	if !p.Valid() || !rhs.Valid() {
		return false
	}
	if p.WellKnownName != "" && p.WellKnownName == rhs.WellKnownName {
		return true
	}
	return p.RootExtent == rhs.RootExtent &&
		p.NumTilesWideAtLOD0 == rhs.NumTilesWideAtLOD0 &&
		p.NumTilesHighAtLOD0 == rhs.NumTilesHighAtLOD0
}

// NumTiles returns the tile grid dimensions at lod.
func (p Profile) NumTiles(lod uint32) (wide, high uint32) {
	factor := uint32(1) << lod
	return p.NumTilesWideAtLOD0 * factor, p.NumTilesHighAtLOD0 * factor
}

// TileDimensions returns the width/height (in the profile's SRS units) of a
// single tile at lod.
func (p Profile) TileDimensions(lod uint32) (width, height float64) {
	width = p.RootExtent.Width / float64(p.NumTilesWideAtLOD0)
	height = p.RootExtent.Height / float64(p.NumTilesHighAtLOD0)
	factor := float64(uint32(1) << lod)
	return width / factor, height / factor
}

// TileExtent returns the extent of the tile at (lod,x,y). Tile row 0 is at
// the north edge of the profile's extent.
func (p Profile) TileExtent(lod, x, y uint32) Extent {
	w, h := p.TileDimensions(lod)
	xmin := p.RootExtent.Xmin() + w*float64(x)
	ymax := p.RootExtent.Ymax() - h*float64(y)
	return New(p.SRS(), xmin, ymax-h, xmin+w, ymax)
}

// LevelOfDetailForHorizResolution returns the LOD whose tiles, rendered at
// tileSize pixels wide, would most closely match resolution (profile units
// per pixel), without exceeding it. Matches the original's "while tileRes >
// resolution, go deeper" loop, capped at 23 for degenerate input.
func (p Profile) LevelOfDetailForHorizResolution(resolution float64, tileSize int) uint32 {
	if tileSize <= 0 || resolution <= 0.0 {
		return 23
	}
	tileRes := (p.RootExtent.Width / float64(p.NumTilesWideAtLOD0)) / float64(tileSize)
	var level uint32
	for tileRes > resolution {
		level++
		tileRes *= 0.5
	}
	return level
}

// LevelOfDetailForTileHeight returns the LOD whose tile height is closest to
// the given target height (profile units), searching outward from LOD 0.
func (p Profile) LevelOfDetailForTileHeight(targetHeight float64) uint32 {
	var currLOD, destLOD uint32
	delta := math.MaxFloat64
	for {
		prevDelta := delta
		_, h := p.TileDimensions(currLOD)
		delta = math.Abs(h - targetHeight)
		if delta < prevDelta {
			destLOD = currLOD
		} else {
			break
		}
		currLOD++
	}
	return destLOD
}

// ClampAndTransformExtent reprojects input into this profile's SRS and
// intersects it with the profile's root extent. clamped reports whether the
// result differs from the unclamped input.
func (p Profile) ClampAndTransformExtent(input Extent) (result Extent, clamped bool, err error) {
	if !input.Valid() {
		return Invalid, false, nil
	}

	if input.Width >= 360.0 && input.Height >= 180.0 && input.isGeodetic() {
		return p.RootExtent, !p.isWholeEarth(), nil
	}

	inMySRS, err := input.Transform(p.SRS())
	if err == nil && inMySRS.Valid() {
		intersection := inMySRS.IntersectionSameSRS(p.RootExtent)
		return intersection, intersection != inMySRS, nil
	}

	// Plan B: fall back to geodetic intersection.
	geoSRS := srsGeodeticOf(p.SRS())
	gcsInput := input
	if input.SRS.Classification != srs.Geodetic {
		gcsInput, err = input.Transform(geoSRS)
		if err != nil || !gcsInput.Valid() {
			return Invalid, false, err
		}
	}

	myGeoExtent, gerr := p.RootExtent.Transform(geoSRS)
	if gerr != nil {
		myGeoExtent = p.RootExtent
	}
	if !gcsInput.Intersects(myGeoExtent) {
		return Invalid, false, nil
	}

	clampF := func(v, lo, hi float64) float64 {
		if v < lo {
			return lo
		}
		if v > hi {
			return hi
		}
		return v
	}
	clampedGCS := New(gcsInput.SRS,
		clampF(gcsInput.Xmin(), myGeoExtent.Xmin(), myGeoExtent.Xmax()),
		clampF(gcsInput.Ymin(), myGeoExtent.Ymin(), myGeoExtent.Ymax()),
		clampF(gcsInput.Xmax(), myGeoExtent.Xmin(), myGeoExtent.Xmax()),
		clampF(gcsInput.Ymax(), myGeoExtent.Ymin(), myGeoExtent.Ymax()))

	if clampedGCS.SRS.Equivalent(p.SRS()) {
		return clampedGCS, clampedGCS != gcsInput, nil
	}
	result, err = clampedGCS.Transform(p.SRS())
	return result, clampedGCS != gcsInput, err
}

func (p Profile) isWholeEarth() bool {
	return p.RootExtent.isGeodetic() && p.RootExtent.Width >= 360.0 && p.RootExtent.Height >= 180.0
}

// GetEquivalentLOD finds the LOD in this profile whose tile height best
// matches rhsProfile's tile height at rhsLOD, with a shortcut for the
// geodetic<->mercator pairing (those line up 1:1 by convention).
func (p Profile) GetEquivalentLOD(rhsProfile Profile, rhsLOD uint32) uint32 {
	if !rhsProfile.Valid() {
		return rhsLOD
	}
	if p.Equivalent(rhsProfile) {
		return rhsLOD
	}
	if (rhsProfile.Equivalent(SphericalMercatorProfile) && p.Equivalent(GlobalGeodetic)) ||
		(rhsProfile.Equivalent(GlobalGeodetic) && p.Equivalent(SphericalMercatorProfile)) {
		return rhsLOD
	}

	_, rhsHeight := rhsProfile.TileDimensions(rhsLOD)
	if rhsHeight == 0 {
		return rhsLOD
	}
	return p.LevelOfDetailForTileHeight(rhsHeight)
}

// GetRootKeys returns the TileKeys for every tile at LOD 0.
func (p Profile) GetRootKeys() []TileKey {
	return p.GetAllKeysAtLOD(0)
}

// GetAllKeysAtLOD returns the TileKeys for every tile at the given LOD.
func (p Profile) GetAllKeysAtLOD(lod uint32) []TileKey {
	tx, ty := p.NumTiles(lod)
	keys := make([]TileKey, 0, tx*ty)
	for c := uint32(0); c < tx; c++ {
		for r := uint32(0); r < ty; r++ {
			keys = append(keys, TileKey{LOD: lod, X: c, Y: r, Profile: p})
		}
	}
	return keys
}
