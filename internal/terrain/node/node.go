// Package node implements the per-tile scene graph node: SurfaceNode's
// world-space bound/corner cache and horizon test, and TerrainTileNode/
// QuadGroup's async load-slot state machine. Grounded on
// original_source/src/rocky/vsg/engine/{SurfaceNode.h,TerrainTileNode.cpp}.
// There is no GPU scene graph here (no VSG equivalent in this module), so
// QuadGroup is a plain Go tree node attached via internal/runtime.Adder.
package node

import (
	"sync"

	"github.com/pelicanmapping/rocky-terrain/internal/geo"
	"github.com/pelicanmapping/rocky-terrain/internal/raster"
	"github.com/pelicanmapping/rocky-terrain/internal/srs"
)

// quadrantScaleBias gives each child's scale/bias into its parent's unit
// square, indexed by TileKey.Quadrant(). Matches the scaleBias[4] table in
// TerrainTileNode.cpp exactly: quadrant 0 is the upper-left quarter (bias
// 0,0.5), 1 upper-right (0.5,0.5), 2 lower-left (0,0), 3 lower-right (0.5,0).
var quadrantScaleBias = [4]geo.ScaleBiasMatrix{
	{ScaleX: 0.5, ScaleY: 0.5, BiasX: 0, BiasY: 0.5},
	{ScaleX: 0.5, ScaleY: 0.5, BiasX: 0.5, BiasY: 0.5},
	{ScaleX: 0.5, ScaleY: 0.5, BiasX: 0, BiasY: 0},
	{ScaleX: 0.5, ScaleY: 0.5, BiasX: 0.5, BiasY: 0},
}

// QuadrantScaleBias returns the scale/bias matrix mapping a parent's unit
// square down into the given child quadrant (0..3).
func QuadrantScaleBias(quadrant int) geo.ScaleBiasMatrix {
	return quadrantScaleBias[quadrant&3]
}

// Horizon implements a conservative sphere-tangent horizon test: a point P
// on a sphere of radius R is visible from eye E iff dot(P,E) >= R*R. Derived
// from cos(angle(OP,OE)) >= R/|E|, using |P|=R. Grounded on SurfaceNode.h's
// use of a "horizon" state object during isVisible. Using the ellipsoid's
// semi-major axis as a single sphere radius, and applying the test to
// elevation-displaced corner points (|P|>=R, not exactly on the sphere), is
// a deliberate simplification of the original's two-radius formula: it can
// only make the test stricter (cull a visible point late), never miss an
// occluded one early.
type Horizon struct {
	Radius float64
	Eye    geo.Point3
}

// NewHorizon builds a Horizon for ellipsoid e with the given eye point.
func NewHorizon(e srs.Ellipsoid, eye geo.Point3) Horizon {
	return Horizon{Radius: e.SemiMajorAxis, Eye: eye}
}

// IsVisible reports whether p is above this horizon as seen from Eye.
func (h Horizon) IsVisible(p geo.Point3) bool {
	dot := p.X*h.Eye.X + p.Y*h.Eye.Y + p.Z*h.Eye.Z
	return dot >= h.Radius*h.Radius
}

// cornerGridSize is the N in the NxN geodetic grid SurfaceNode samples (at
// min and max elevation) into its 2*N*N world-space corner cache, matching
// the 18-point (3x3 x 2 levels) cache described in SurfaceNode.h.
const cornerGridSize = 3

// SurfaceNode caches the world-space geometry a tile's bounds/visibility
// tests need, recomputed whenever its elevation channel changes. Grounded
// on SurfaceNode.h's worldBoundingSphere/_worldPoints/_elevationRaster
// fields.
type SurfaceNode struct {
	Key    geo.TileKey
	Bound  geo.BoundingSphere
	Corners [2 * cornerGridSize * cornerGridSize]geo.Point3

	ElevationRaster raster.GeoHeightfield
	ElevationMatrix geo.ScaleBiasMatrix
}

// NewSurfaceNode builds a SurfaceNode for key with no elevation data yet
// (flat at elevation 0); call SetElevation once a TileModel resolves.
func NewSurfaceNode(key geo.TileKey) *SurfaceNode {
	n := &SurfaceNode{Key: key}
	n.recompute(0, 0)
	return n
}

// SetElevation attaches an elevation raster/matrix and recomputes the
// node's bound and corner cache from the heightfield's actual min/max.
func (n *SurfaceNode) SetElevation(ghf raster.GeoHeightfield, matrix geo.ScaleBiasMatrix) {
	n.ElevationRaster = ghf
	n.ElevationMatrix = matrix
	minElev, maxElev := elevationRange(ghf.Heightfield)
	n.recompute(minElev, maxElev)
}

func (n *SurfaceNode) recompute(minElev, maxElev float64) {
	extent := n.Key.Extent()
	if bound, err := extent.CreateWorldBoundingSphere(minElev, maxElev); err == nil {
		n.Bound = bound
	}
	n.Corners = sampleCorners(extent, minElev, maxElev)
}

// outerCornerIndices are the four maxElev grid corners within Corners
// (row/col in {0, cornerGridSize-1}), matching SurfaceNode::isVisible's use
// of _worldPoints[0..3] for the horizon pass.
var outerCornerIndices = [4]int{
	cornerIndex(0, 0),
	cornerIndex(0, cornerGridSize-1),
	cornerIndex(cornerGridSize-1, 0),
	cornerIndex(cornerGridSize-1, cornerGridSize-1),
}

func cornerIndex(row, col int) int {
	return (row*cornerGridSize+col)*2 + 1 // +1 selects the maxElev sample
}

// IsVisible reports whether n clears h's horizon test, grounded on
// SurfaceNode::isVisible's horizon pass: visible iff any of the four outer
// corner points is above the horizon. A nil horizon always passes, matching
// the original's behavior when no horizon is bound to the traversal state.
func (n *SurfaceNode) IsVisible(h *Horizon) bool {
	if h == nil {
		return true
	}
	for _, idx := range outerCornerIndices {
		if h.IsVisible(n.Corners[idx]) {
			return true
		}
	}
	return false
}

// sampleCorners reprojects a cornerGridSize x cornerGridSize geodetic grid
// over extent, at both minElev and maxElev, into world-space (ECEF) points.
// Falls back to the raw (lon,lat,h) triples if extent's SRS has no direct
// transform to ECEF (e.g. a projected profile, where X/Y are already
// treated as world-planar by CreateWorldBoundingSphere).
func sampleCorners(extent geo.Extent, minElev, maxElev float64) [2 * cornerGridSize * cornerGridSize]geo.Point3 {
	var out [2 * cornerGridSize * cornerGridSize]geo.Point3

	toWorld, err := extent.SRS.To(srs.ECEF)
	identity := err != nil

	i := 0
	xStep := extent.Width / float64(cornerGridSize-1)
	yStep := extent.Height / float64(cornerGridSize-1)
	for row := 0; row < cornerGridSize; row++ {
		y := extent.Ymin() + float64(row)*yStep
		for col := 0; col < cornerGridSize; col++ {
			x := extent.Xmin() + float64(col)*xStep
			for _, elev := range [2]float64{minElev, maxElev} {
				var px, py, pz float64
				if identity {
					px, py, pz = x, y, elev
				} else {
					px, py, pz = toWorld(x, y, elev)
				}
				out[i] = geo.Point3{X: px, Y: py, Z: pz}
				i++
			}
		}
	}
	return out
}

// elevationRange scans hf for its valid min/max values; if hf is nil or has
// no valid samples, both are 0 (a flat tile).
func elevationRange(hf *raster.Heightfield) (min, max float64) {
	if hf == nil {
		return 0, 0
	}
	first := true
	for _, v := range hf.Values {
		if raster.IsNoData(float64(v)) {
			continue
		}
		fv := float64(v)
		if first {
			min, max = fv, fv
			first = false
			continue
		}
		if fv < min {
			min = fv
		}
		if fv > max {
			max = fv
		}
	}
	return min, max
}

// SlotState is the async loading state of one TerrainTileNode data slot
// (color/elevation load, subtile build). Grounded on TerrainTilePager.h's
// per-tile queue membership, generalized into an explicit per-slot enum
// since this module unifies color+elevation into one TileModel factory
// instead of the original's five separate queues (see the pager.Pager doc).
type SlotState int

const (
	SlotEmpty SlotState = iota
	SlotWorking
	SlotAvailable
	SlotCanceled
)

// Slot holds one async data product (a TileModel, a set of child nodes,
// ...) along with its loading state. Zero value is an empty, not-yet-
// requested slot.
type Slot[T any] struct {
	mu    sync.Mutex
	state SlotState
	value T
	err   error
}

// State returns the slot's current state.
func (s *Slot[T]) State() SlotState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Begin transitions an Empty slot to Working; returns false if the slot was
// not Empty (already working, available, or canceled).
func (s *Slot[T]) Begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != SlotEmpty {
		return false
	}
	s.state = SlotWorking
	return true
}

// Resolve transitions a Working slot to Available (or, on error, back to
// Empty so a future ping can retry).
func (s *Slot[T]) Resolve(value T, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != SlotWorking {
		return
	}
	if err != nil {
		s.err = err
		s.state = SlotEmpty
		return
	}
	s.value = value
	s.state = SlotAvailable
}

// Cancel marks the slot canceled; a subsequent ping may reset it to Empty
// via Reset to retry.
func (s *Slot[T]) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == SlotWorking || s.state == SlotEmpty {
		s.state = SlotCanceled
	}
}

// Reset returns a canceled or available slot to Empty, so it can be
// requested again (e.g. after a policy change evicts its value).
func (s *Slot[T]) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = SlotEmpty
	var zero T
	s.value = zero
	s.err = nil
}

// Value returns the slot's current value and whether it is Available.
func (s *Slot[T]) Value() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value, s.state == SlotAvailable
}

// TerrainTileNode is one quadtree tile's scene-graph presence: its surface
// geometry/bound cache, its data/merge/subtile load slots, and its attached
// children once subdivided. Grounded on TerrainTileNode.cpp/.h.
type TerrainTileNode struct {
	Key     geo.TileKey
	Surface *SurfaceNode

	DataLoad     Slot[any] // resolves to a *model.TileModel
	SubtilesLoad Slot[*QuadGroup]

	mu       sync.RWMutex
	revision uint64
	children *QuadGroup
	lastTouched uint64 // tracker sentinel; pager stamps this each ping
}

// NewTerrainTileNode constructs a node for key with a fresh flat surface.
func NewTerrainTileNode(key geo.TileKey) *TerrainTileNode {
	return &TerrainTileNode{Key: key, Surface: NewSurfaceNode(key)}
}

// Revision returns the data revision this node's current model was built
// from, used by the pager to detect a Map change that requires a reload.
func (n *TerrainTileNode) Revision() uint64 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.revision
}

// SetRevision records the data revision backing the node's current model.
func (n *TerrainTileNode) SetRevision(rev uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.revision = rev
}

// Children returns the attached QuadGroup, or nil if this node has not
// subdivided.
func (n *TerrainTileNode) Children() *QuadGroup {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.children
}

// AddChild attaches child as this node's QuadGroup, implementing
// runtime.Adder so CompileAndAddChild can resolve directly into a node.
func (n *TerrainTileNode) AddChild(child any) {
	qg, ok := child.(*QuadGroup)
	if !ok {
		return
	}
	n.mu.Lock()
	n.children = qg
	n.mu.Unlock()
}

// ClearChildren detaches this node's QuadGroup (if any), so record
// traversal falls back to drawing the node's own surface. Called when any
// one of the four children is flushed from the pager's registry, per
// spec's "parent's subtile slot is cleared" eviction rule.
func (n *TerrainTileNode) ClearChildren() {
	n.mu.Lock()
	n.children = nil
	n.mu.Unlock()
	n.SubtilesLoad.Reset()
}

// Touch stamps the node with the tracker's current sentinel frame number,
// per the Tracker/SentryTracker scheme TerrainTilePager.h uses to find the
// least-recently-used node for eviction.
func (n *TerrainTileNode) Touch(frame uint64) {
	n.mu.Lock()
	n.lastTouched = frame
	n.mu.Unlock()
}

// LastTouched returns the frame number this node was last pinged.
func (n *TerrainTileNode) LastTouched() uint64 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.lastTouched
}

// QuadGroup holds the four children produced when a TerrainTileNode
// subdivides, indexed by TileKey.Quadrant(). Grounded on TerrainTileNode's
// subtile array; a plain struct stands in for the original's vsg::Group.
type QuadGroup struct {
	Parent   *TerrainTileNode
	Children [4]*TerrainTileNode
}

// NewQuadGroup builds the four child nodes of parent.
func NewQuadGroup(parent *TerrainTileNode) *QuadGroup {
	qg := &QuadGroup{Parent: parent}
	for q := 0; q < 4; q++ {
		qg.Children[q] = NewTerrainTileNode(parent.Key.CreateChildKey(q))
	}
	return qg
}

// AddChild is a no-op satisfying runtime.Adder for symmetry; QuadGroup's
// children are fixed at construction (CreateChildKey for all 4 quadrants),
// unlike TerrainTileNode which gains its QuadGroup asynchronously.
func (qg *QuadGroup) AddChild(any) {}
