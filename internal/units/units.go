// Package units provides the small set of linear/angular unit conversions
// the terrain core needs (ellipsoid radii in meters, extents in degrees or
// meters). Ported from rocky's Units.h, trimmed to the linear and angular
// families the core actually touches.
package units

import "math"

// Type classifies a Unit as linear or angular.
type Type int

const (
	Linear Type = iota
	Angular
)

// Unit is a named conversion factor relative to its family's base unit
// (meters for Linear, radians for Angular).
type Unit struct {
	Name     string
	Type     Type
	ToBase   float64 // multiply a value in this unit by ToBase to get the base unit
	FromBase float64 // multiply a base-unit value by FromBase to get this unit (1/ToBase)
}

func newLinear(name string, toMeters float64) Unit {
	return Unit{Name: name, Type: Linear, ToBase: toMeters, FromBase: 1.0 / toMeters}
}

func newAngular(name string, toRadians float64) Unit {
	return Unit{Name: name, Type: Angular, ToBase: toRadians, FromBase: 1.0 / toRadians}
}

var (
	Meters      = newLinear("meters", 1.0)
	Kilometers  = newLinear("kilometers", 1000.0)
	Feet        = newLinear("feet", 0.3048)
	Miles       = newLinear("miles", 1609.344)
	Yards       = newLinear("yards", 0.9144)
	NauticalMi  = newLinear("nautical_miles", 1852.0)
	Centimeters = newLinear("centimeters", 0.01)

	Radians = newAngular("radians", 1.0)
	Degrees = newAngular("degrees", math.Pi/180.0)
)

// Convert converts a value from one unit to another. Converting across
// families (linear <-> angular) returns the input unchanged since there is
// no meaningful conversion factor; callers that need that distinction
// should check CanConvert first.
func Convert(value float64, from, to Unit) float64 {
	if from.Type != to.Type {
		return value
	}
	return value * from.ToBase * to.FromBase
}

// CanConvert reports whether from and to belong to the same unit family.
func CanConvert(from, to Unit) bool {
	return from.Type == to.Type
}
