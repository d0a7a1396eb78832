// Package srs implements spatial references, ellipsoids, and vertical
// datums: the coordinate-system layer the geospatial tile pyramid sits on.
// Ported from original_source/src/rocky/VerticalDatum.{h,cpp} and the SRS
// handle described in spec.md §3.
package srs

import (
	"fmt"
	"math"
)

// Classification distinguishes the three coordinate-system families the
// core cares about.
type Classification int

const (
	Geodetic    Classification = iota // lat/lon on an ellipsoid
	Projected                         // e.g. Web Mercator, Swiss LV95
	Geocentric                        // ECEF Cartesian
)

// Ellipsoid models a reference ellipsoid by semi-major axis and flattening,
// and converts between geographic (lat,lon,height) and geocentric ECEF.
type Ellipsoid struct {
	Name          string
	SemiMajorAxis float64 // meters
	Flattening    float64
}

// WGS84 is the standard geodetic reference ellipsoid.
var WGS84 = Ellipsoid{Name: "WGS84", SemiMajorAxis: 6378137.0, Flattening: 1.0 / 298.257223563}

// eccentricitySquared returns e^2 for this ellipsoid.
func (e Ellipsoid) eccentricitySquared() float64 {
	return e.Flattening * (2.0 - e.Flattening)
}

// GeographicToGeocentric converts (lat,lon,height) in degrees/meters to ECEF
// (x,y,z) in meters.
func (e Ellipsoid) GeographicToGeocentric(latDeg, lonDeg, height float64) (x, y, z float64) {
	lat := latDeg * math.Pi / 180.0
	lon := lonDeg * math.Pi / 180.0
	sinLat, cosLat := math.Sin(lat), math.Cos(lat)
	sinLon, cosLon := math.Sin(lon), math.Cos(lon)

	n := e.SemiMajorAxis / math.Sqrt(1.0-e.eccentricitySquared()*sinLat*sinLat)

	x = (n + height) * cosLat * cosLon
	y = (n + height) * cosLat * sinLon
	z = (n*(1.0-e.eccentricitySquared()) + height) * sinLat
	return
}

// GeocentricToGeographic converts ECEF (x,y,z) in meters to (lat,lon,height)
// in degrees/meters using Bowring's iterative method.
func (e Ellipsoid) GeocentricToGeographic(x, y, z float64) (latDeg, lonDeg, height float64) {
	a := e.SemiMajorAxis
	e2 := e.eccentricitySquared()
	p := math.Hypot(x, y)

	lon := math.Atan2(y, x)

	lat := math.Atan2(z, p*(1.0-e2))
	for i := 0; i < 6; i++ {
		sinLat := math.Sin(lat)
		n := a / math.Sqrt(1.0-e2*sinLat*sinLat)
		h := p/math.Cos(lat) - n
		lat = math.Atan2(z, p*(1.0-e2*n/(n+h)))
	}

	sinLat := math.Sin(lat)
	n := a / math.Sqrt(1.0-e2*sinLat*sinLat)
	height = p/math.Cos(lat) - n

	latDeg = lat * 180.0 / math.Pi
	lonDeg = lon * 180.0 / math.Pi
	return
}

// SRS is an immutable, cheaply-copyable handle to a spatial reference.
type SRS struct {
	Name           string
	Classification Classification
	Ellipsoid      Ellipsoid
	VerticalDatum  string // datum name, compared for vertical equivalence only
}

// Geodetic is the standard WGS84 geographic SRS.
var Geodetic = SRS{Name: "wgs84", Classification: srsGeodetic(), Ellipsoid: WGS84}

// SphericalMercator is the standard Web Mercator projected SRS.
var SphericalMercator = SRS{Name: "spherical-mercator", Classification: Projected, Ellipsoid: WGS84}

// ECEF is the geocentric SRS used for world-space rendering math.
var ECEF = SRS{Name: "geocentric", Classification: Geocentric, Ellipsoid: WGS84}

func srsGeodetic() Classification { return Geodetic }

// HorizontallyEquivalent reports whether two SRSs describe the same
// horizontal coordinate system, ignoring any difference in vertical datum.
func (s SRS) HorizontallyEquivalent(other SRS) bool {
	return s.Name == other.Name &&
		s.Classification == other.Classification &&
		s.Ellipsoid.SemiMajorAxis == other.Ellipsoid.SemiMajorAxis &&
		s.Ellipsoid.Flattening == other.Ellipsoid.Flattening
}

// Equivalent reports full equivalence, including vertical datum.
func (s SRS) Equivalent(other SRS) bool {
	return s.HorizontallyEquivalent(other) && s.VerticalDatum == other.VerticalDatum
}

// Transform is a pure function mapping a point in one SRS to a point in
// another. Transforms never mutate shared state.
type Transform func(x, y, z float64) (float64, float64, float64)

// To returns a Transform from s to target. Two SRSs of the same
// Classification get the identity transform (coordinates pass through
// unchanged, even between two different projected SRSs). Geodetic
// (x=lon, y=lat, z=height) and Geocentric (ECEF) convert through the
// ellipsoid. Every other pair, including any pair with exactly one Projected
// SRS, returns an error: there is no projection math in this package.
func (s SRS) To(target SRS) (Transform, error) {
	switch {
	case s.Classification == target.Classification:
		return func(x, y, z float64) (float64, float64, float64) { return x, y, z }, nil

	case s.Classification == Geodetic && target.Classification == Geocentric:
		return func(lon, lat, h float64) (float64, float64, float64) {
			x, y, z := target.Ellipsoid.GeographicToGeocentric(lat, lon, h)
			return x, y, z
		}, nil

	case s.Classification == Geocentric && target.Classification == Geodetic:
		return func(x, y, z float64) (float64, float64, float64) {
			lat, lon, h := s.Ellipsoid.GeocentricToGeographic(x, y, z)
			return lon, lat, h
		}, nil

	default:
		return nil, fmt.Errorf("srs: no direct transform from %s to %s", s.Name, target.Name)
	}
}
