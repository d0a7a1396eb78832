package srs

// Geoid supplies the height offset between a reference ellipsoid and an
// equipotential gravitational surface, for converting between HAE
// (height-above-ellipsoid) and MSL (mean-sea-level) elevations. Ported from
// original_source/src/rocky/Geoid.h. Full geoid-grid sampling is outside the
// terrain core's scope (spec.md's geodesic-computation Non-goal); ZeroGeoid
// is the only implementation shipped here, leaving room for a real EGM96/
// EGM2008 grid without overreaching.
type Geoid interface {
	// HeightAt returns the geoid height offset (meters) at the given
	// geodetic coordinate.
	HeightAt(latDeg, lonDeg float64) float64
}

// ZeroGeoid is a no-op geoid: HAE and MSL are treated as identical.
type ZeroGeoid struct{}

func (ZeroGeoid) HeightAt(latDeg, lonDeg float64) float64 { return 0 }

// VerticalDatum names a vertical reference frame and, for geoid-based
// datums, the Geoid used to convert between HAE and MSL.
type VerticalDatum struct {
	Name  string
	Geoid Geoid
}

// Ellipsoidal is the datum used when Z is already height-above-ellipsoid.
var Ellipsoidal = VerticalDatum{Name: "ellipsoidal", Geoid: ZeroGeoid{}}

// MSL2HAE converts a mean-sea-level height to height-above-ellipsoid.
func (d VerticalDatum) MSL2HAE(latDeg, lonDeg, msl float64) float64 {
	if d.Geoid == nil {
		return msl
	}
	return msl + d.Geoid.HeightAt(latDeg, lonDeg)
}

// HAE2MSL converts a height-above-ellipsoid value to mean-sea-level.
func (d VerticalDatum) HAE2MSL(latDeg, lonDeg, hae float64) float64 {
	if d.Geoid == nil {
		return hae
	}
	return hae - d.Geoid.HeightAt(latDeg, lonDeg)
}

// IsEquivalentTo reports whether two vertical datums are the same by name.
func (d VerticalDatum) IsEquivalentTo(other VerticalDatum) bool {
	return d.Name == other.Name
}
