// Package geo implements GeoExtent, Profile, and TileKey: the quadtree
// addressing and extent math the tile pyramid is built on. Ported from
// original_source/src/rocky/GeoExtent.{h,cpp} and Profile.{h,cpp}, in the
// hand-rolled math.Package style of the teacher's internal/coord package.
package geo

import (
	"fmt"
	"math"

	"github.com/pelicanmapping/rocky-terrain/internal/srs"
)

const (
	clampEpsilon    = 1e-6
	normalizeEpsilon = 1e-8
)

// Extent is an axis-aligned, SRS-aware bounding box. West/South/Width/Height
// fully determine it; East/North are derived. Width may span up to 360
// degrees in geodetic SRSs, and west/east may wrap the antimeridian.
type Extent struct {
	SRS    srs.SRS
	West   float64
	South  float64
	Width  float64
	Height float64
}

// Invalid is the canonical invalid extent (negative size sentinel).
var Invalid = Extent{Width: -1, Height: -1}

// New constructs a valid extent from SW/NE corners.
func New(s srs.SRS, west, south, east, north float64) Extent {
	e := Extent{SRS: s, West: west, South: south, Width: east - west, Height: north - south}
	e.clamp()
	return e
}

func (e Extent) isGeodetic() bool { return e.SRS.Classification == srs.Geodetic }

// Valid reports whether the extent has non-negative size.
func (e Extent) Valid() bool {
	return e.Width >= 0.0 && e.Height >= 0.0
}

// normalizeX brings a geodetic longitude into [-180, 180), snapping values
// within normalizeEpsilon of +/-180 to exactly -180.
func (e Extent) normalizeX(x float64) float64 {
	if !e.isGeodetic() {
		return x
	}
	if math.Abs(x-(-180)) < normalizeEpsilon || math.Abs(x-180) < normalizeEpsilon {
		return -180.0
	}
	for x < -180.0 {
		x += 360.0
	}
	for x >= 180.0 {
		x -= 360.0
	}
	return x
}

// West/East/South/North corners, East normalized for the geodetic frame.
func (e Extent) East() float64  { return e.normalizeX(e.West + e.Width) }
func (e Extent) North() float64 { return e.South + e.Height }

// Raw (unnormalized) bounds.
func (e Extent) Xmin() float64 { return e.West }
func (e Extent) Xmax() float64 { return e.West + e.Width }
func (e Extent) Ymin() float64 { return e.South }
func (e Extent) Ymax() float64 { return e.South + e.Height }

// Centroid returns the extent's center point, in the extent's own SRS.
func (e Extent) Centroid() (x, y float64) {
	return e.normalizeX(e.West + 0.5*e.Width), e.South + 0.5*e.Height
}

// CrossesAntimeridian reports whether a geodetic extent wraps the +/-180
// meridian (its normalized east edge lies west of its west edge).
func (e Extent) CrossesAntimeridian() bool {
	return e.isGeodetic() && e.East() < e.West
}

// SplitAcrossAntimeridian splits an antimeridian-crossing extent into a
// western and an eastern piece. Returns ok=false if the extent does not
// cross the antimeridian.
func (e Extent) SplitAcrossAntimeridian() (west, east Extent, ok bool) {
	if !e.CrossesAntimeridian() {
		return Extent{}, Extent{}, false
	}
	west = New(e.SRS, e.West, e.South, 180.0, e.North())
	east = New(e.SRS, -180.0, e.South, e.East(), e.North())
	return west, east, true
}

// clamp snaps near-integer edges to integers (epsilon 1e-6) and, for
// geodetic extents, clamps width to [0,360] and height to [0,180].
func (e *Extent) clamp() {
	snap := func(v float64) float64 {
		if math.Abs(v-math.Floor(v)) < clampEpsilon {
			return math.Floor(v)
		}
		if math.Abs(v-math.Ceil(v)) < clampEpsilon {
			return math.Ceil(v)
		}
		return v
	}
	e.West = snap(e.West)
	e.South = snap(e.South)
	e.Width = snap(e.Width)
	e.Height = snap(e.Height)

	if !e.isGeodetic() {
		return
	}

	if e.Width < 0 {
		e.Width = 0
	} else if e.Width > 360 {
		e.Width = 360
	}

	if e.South < -90.0 {
		e.Height -= (-90.0) - e.South
		e.South = -90.0
	} else if e.South+e.Height > 90.0 {
		e.Height -= (e.South + e.Height) - 90.0
	}

	if e.Height < 0 {
		e.Height = 0
	} else if e.Height > 180 {
		e.Height = 180
	}
}

// Contains reports whether (x,y), given in xySRS (or this extent's SRS if
// xySRS is the zero value), falls within the extent — including the
// antimeridian-wrap "a"/"b" interval test from the original implementation.
func (e Extent) Contains(x, y float64, xySRS srs.SRS) bool {
	if !e.Valid() {
		return false
	}

	if xySRS != (srs.SRS{}) && !xySRS.Equivalent(e.SRS) {
		t, err := xySRS.To(e.SRS)
		if err != nil {
			return false
		}
		tx, ty, _ := t(x, y, 0)
		return e.Contains(tx, ty, srs.SRS{})
	}

	south, north := e.South, e.North()
	if math.Abs(south-y) < clampEpsilon {
		y = south
	}
	if math.Abs(north-y) < clampEpsilon {
		y = north
	}
	if y < south || y > north {
		return false
	}

	west, east := e.West, e.East()
	x = e.normalizeX(x)
	if math.Abs(west-x) < clampEpsilon {
		x = west
	}
	if math.Abs(east-x) < clampEpsilon {
		x = east
	}

	a0, a1 := west, west+e.Width
	b0, b1 := east-e.Width, east
	return (a0 <= x && x <= a1) || (b0 <= x && x <= b1)
}

// ContainsExtent reports whether this extent fully contains rhs.
func (e Extent) ContainsExtent(rhs Extent) bool {
	if !e.Valid() || !rhs.Valid() {
		return false
	}
	cx, cy := rhs.Centroid()
	return e.Contains(rhs.West, rhs.South, rhs.SRS) &&
		e.Contains(rhs.East(), rhs.North(), rhs.SRS) &&
		e.Contains(cx, cy, rhs.SRS)
}

func overlaps(a0, a1, b0, b1 float64) bool {
	return !(a1 <= b0 || a0 >= b1)
}

// Intersects reports whether e and rhs overlap, reprojecting through the
// geodetic SRS when the two extents are not horizontally equivalent and
// handling antimeridian wrap via the "a"/"b" interval trick.
func (e Extent) Intersects(rhs Extent) bool {
	if !e.Valid() || !rhs.Valid() {
		return false
	}

	if !e.SRS.HorizontallyEquivalent(rhs.SRS) {
		eg, err1 := e.Transform(srsGeodeticOf(e.SRS))
		rg, err2 := rhs.Transform(srsGeodeticOf(e.SRS))
		if err1 != nil || err2 != nil {
			return false
		}
		return eg.Intersects(rg)
	}

	if e.South >= rhs.North() || e.North() <= rhs.South {
		return false
	}

	if !e.isGeodetic() {
		return !(e.West >= rhs.East() || e.East() <= rhs.West)
	}

	a0, a1 := e.East()-e.Width, e.East()
	b0, b1 := e.West, e.West+e.Width
	c0, c1 := rhs.East()-rhs.Width, rhs.East()
	d0, d1 := rhs.West, rhs.West+rhs.Width

	return overlaps(a0, a1, c0, c1) || overlaps(a0, a1, d0, d1) ||
		overlaps(b0, b1, c0, c1) || overlaps(b0, b1, d0, d1)
}

func srsGeodeticOf(s srs.SRS) srs.SRS {
	if s.Classification == srs.Geodetic {
		return s
	}
	return srs.Geodetic
}

// ExpandToInclude returns a copy of the extent grown to include point (x,y)
// (the receiver is not modified), choosing whichever of the direct or antimeridian-wrap
// expansion produces the smaller resulting width.
func (e Extent) ExpandToInclude(x, y float64) Extent {
	x = e.normalizeX(x)

	if !e.Valid() {
		return New(e.SRS, x, y, x, y)
	}

	cx, cy := e.Centroid()
	containsX := e.Contains(x, cy, srs.SRS{})
	containsY := e.Contains(cx, y, srs.SRS{})

	out := e

	if !containsY {
		if y < e.South {
			out.Height += e.South - y
			out.South = y
		} else if y > e.North() {
			out.Height = y - out.South
		}
	}

	if !containsX {
		if e.isGeodetic() {
			currentEast := e.East()
			newWestDirect := math.Min(e.West, x)
			newEastDirect := math.Max(currentEast, x)
			widthDirect := newEastDirect - newWestDirect

			if widthDirect > 180.0 {
				var widthWrap, newWestWrap float64
				if x < e.West {
					widthWrap = (180.0 - e.West) + (x - (-180.0))
					newWestWrap = e.West
				} else {
					widthWrap = (180.0 - x) + (currentEast - (-180.0))
					newWestWrap = x
				}
				if widthWrap < widthDirect {
					out.West = newWestWrap
					out.Width = widthWrap
				} else {
					out.West = newWestDirect
					out.Width = widthDirect
				}
			} else {
				out.West = newWestDirect
				out.Width = widthDirect
			}
		} else {
			if x < e.West {
				out.Width += e.West - x
				out.West = x
			} else if x > e.Xmax() {
				out.Width = x - out.West
			}
		}
	}

	if !containsX || !containsY {
		out.clamp()
	}
	return out
}

// ExpandToIncludeExtent grows e to include rhs, by expanding to include
// rhs's four corners and centroid (handles antimeridian wrap correctly).
func (e Extent) ExpandToIncludeExtent(rhs Extent) (Extent, error) {
	if !rhs.Valid() {
		return e, nil
	}
	if e.SRS == (srs.SRS{}) {
		return rhs, nil
	}
	if !rhs.SRS.HorizontallyEquivalent(e.SRS) {
		t, err := rhs.Transform(e.SRS)
		if err != nil {
			return e, err
		}
		return e.ExpandToIncludeExtent(t)
	}
	if !e.Valid() {
		return rhs, nil
	}

	out := e
	out = out.ExpandToInclude(rhs.West, rhs.South)
	out = out.ExpandToInclude(rhs.East(), rhs.South)
	out = out.ExpandToInclude(rhs.East(), rhs.North())
	out = out.ExpandToInclude(rhs.West, rhs.North())
	cx, cy := rhs.Centroid()
	out = out.ExpandToInclude(cx, cy)
	return out, nil
}

// IntersectionSameSRS intersects e with rhs, assuming (without checking)
// that both share an SRS.
func (e Extent) IntersectionSameSRS(rhs Extent) Extent {
	if !e.Valid() || !rhs.Valid() || !e.Intersects(rhs) {
		return Invalid
	}
	if e.Ymin() > rhs.Ymax() || e.Ymax() < rhs.Ymin() {
		return Invalid
	}

	result := e

	if e.isGeodetic() {
		switch {
		case e.Width == 360.0:
			result.West, result.Width = rhs.West, rhs.Width
		case rhs.Width == 360.0:
			result.West, result.Width = e.West, e.Width
		case e.West < e.East() && rhs.West < rhs.East():
			result.West = math.Max(e.West, rhs.West)
			result.Width = math.Min(e.East(), rhs.East()) - result.West
		default:
			lhsWest, rhsWest := e.West, rhs.West
			if math.Abs(e.West-rhs.West) >= 180.0 {
				if e.West < rhs.West {
					lhsWest += 360.0
				} else {
					rhsWest += 360.0
				}
			}
			newWest := math.Max(lhsWest, rhsWest)
			result.West = e.normalizeX(newWest)
			result.Width = math.Min(lhsWest+e.Width, rhsWest+rhs.Width) - newWest
		}
	} else {
		result.West = math.Max(e.Xmin(), rhs.Xmin())
		result.Width = math.Min(e.Xmax(), rhs.Xmax()) - result.West
	}

	result.South = math.Max(e.South, rhs.South)
	result.Height = math.Min(e.North(), rhs.North()) - result.South
	result.clamp()
	return result
}

// Transform reprojects the extent into target, by corner + edge-midpoint
// sampling to build a minimum bounding rectangle in the target SRS.
func (e Extent) Transform(target srs.SRS) (Extent, error) {
	if e.SRS.Equivalent(target) {
		return e, nil
	}
	t, err := e.SRS.To(target)
	if err != nil {
		return Invalid, err
	}

	samples := [][2]float64{
		{e.Xmin(), e.Ymin()}, {e.Xmax(), e.Ymin()}, {e.Xmax(), e.Ymax()}, {e.Xmin(), e.Ymax()},
		{(e.Xmin() + e.Xmax()) / 2, e.Ymin()}, {(e.Xmin() + e.Xmax()) / 2, e.Ymax()},
		{e.Xmin(), (e.Ymin() + e.Ymax()) / 2}, {e.Xmax(), (e.Ymin() + e.Ymax()) / 2},
	}

	out := Extent{SRS: target, Width: -1, Height: -1}
	for _, s := range samples {
		x, y, _ := t(s[0], s[1], 0)
		out = out.ExpandToInclude(x, y)
	}
	return out, nil
}

// ScaleBiasMatrix holds the per-axis scale and bias (u' = u*Scale + Bias)
// that map [0,1]^2 parametric coordinates of one extent onto the sub-region
// it occupies in another extent's [0,1]^2; see CreateScaleBias.
type ScaleBiasMatrix struct {
	ScaleX, ScaleY float64
	BiasX, BiasY   float64
}

// Identity is the neutral scale/bias (no sub-region restriction).
var Identity = ScaleBiasMatrix{ScaleX: 1, ScaleY: 1}

// CreateScaleBias computes the matrix that maps parametric coordinates from
// rhs into the sub-region of rhs occupied by e. Callers must ensure e and
// rhs share an SRS and are both valid; this does not check.
func (e Extent) CreateScaleBias(rhs Extent) ScaleBiasMatrix {
	return ScaleBiasMatrix{
		ScaleX: e.Width / rhs.Width,
		ScaleY: e.Height / rhs.Height,
		BiasX:  (e.West - rhs.West) / rhs.Width,
		BiasY:  (e.South - rhs.South) / rhs.Height,
	}
}

// Point3 is a minimal 3-vector used for world-space bounding sphere math.
type Point3 struct{ X, Y, Z float64 }

// BoundingSphere is a world-space bounding sphere (center + radius, meters).
type BoundingSphere struct {
	Center Point3
	Radius float64
}

// CreateWorldBoundingSphere samples a 7x7 grid over the extent at minElev
// and maxElev, transforms the samples to ECEF, and bounds them by the
// center of their axis-aligned box with the max sample distance as radius.
func (e Extent) CreateWorldBoundingSphere(minElev, maxElev float64) (BoundingSphere, error) {
	if e.SRS.Classification == srs.Projected {
		// Projected worlds: treat X/Y as already world-planar; bound directly.
		cx := (e.Xmin() + e.Xmax()) / 2
		cy := (e.Ymin() + e.Ymax()) / 2
		cz := (minElev + maxElev) / 2
		dx, dy, dz := e.Xmax()-cx, e.Ymax()-cy, maxElev-cz
		return BoundingSphere{Center: Point3{cx, cy, cz}, Radius: math.Sqrt(dx*dx + dy*dy + dz*dz)}, nil
	}

	toECEF, err := e.SRS.To(srs.ECEF)
	if err != nil {
		return BoundingSphere{}, fmt.Errorf("geo: cannot bound extent in %s: %w", e.SRS.Name, err)
	}

	const samples = 7
	xStep := e.Width / float64(samples-1)
	yStep := e.Height / float64(samples-1)

	var pts []Point3
	for c := 0; c < samples; c++ {
		x := e.Xmin() + float64(c)*xStep
		for r := 0; r < samples; r++ {
			y := e.Ymin() + float64(r)*yStep
			px, py, pz := toECEF(x, y, minElev)
			pts = append(pts, Point3{px, py, pz})
			px, py, pz = toECEF(x, y, maxElev)
			pts = append(pts, Point3{px, py, pz})
		}
	}

	minP, maxP := pts[0], pts[0]
	for _, p := range pts {
		minP = Point3{math.Min(minP.X, p.X), math.Min(minP.Y, p.Y), math.Min(minP.Z, p.Z)}
		maxP = Point3{math.Max(maxP.X, p.X), math.Max(maxP.Y, p.Y), math.Max(maxP.Z, p.Z)}
	}
	center := Point3{(minP.X + maxP.X) / 2, (minP.Y + maxP.Y) / 2, (minP.Z + maxP.Z) / 2}

	maxR2 := 0.0
	for _, p := range pts {
		dx, dy, dz := p.X-center.X, p.Y-center.Y, p.Z-center.Z
		r2 := dx*dx + dy*dy + dz*dz
		if r2 > maxR2 {
			maxR2 = r2
		}
	}

	return BoundingSphere{Center: center, Radius: math.Sqrt(maxR2)}, nil
}

func (e Extent) String() string {
	if !e.Valid() {
		return "INVALID"
	}
	return fmt.Sprintf("SW=%.9f,%.9f NE=%.9f,%.9f SRS=%s", e.West, e.South, e.East(), e.North(), e.SRS.Name)
}
