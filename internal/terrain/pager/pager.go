// Package pager implements TerrainTilePager: the tile registry, per-tile
// last-ping frame stamps, per-frame queue drain, record-time ping protocol,
// and subdivision criterion that together form the terrain engine's LOD
// scheduler. Tiles are not kept in last-use order; each flush scans every
// registered tile's frame stamp. Grounded on
// original_source/src/rocky/vsg/engine/TerrainTilePager.{h,cpp}. Reports
// queue depth, load/merge/eviction counts, and per-tile load-failure/
// eviction events to internal/metrics and internal/obslog — this is the
// component the ambient observability stack actually exists to watch.
package pager

import (
	"context"
	"math"
	"sync"
	"sync/atomic"

	"github.com/pelicanmapping/rocky-terrain/internal/geo"
	"github.com/pelicanmapping/rocky-terrain/internal/layer"
	"github.com/pelicanmapping/rocky-terrain/internal/metrics"
	"github.com/pelicanmapping/rocky-terrain/internal/obslog"
	"github.com/pelicanmapping/rocky-terrain/internal/runtime"
	"github.com/pelicanmapping/rocky-terrain/internal/terrain/model"
	"github.com/pelicanmapping/rocky-terrain/internal/terrain/node"
)

// flushAfterFrames is how many consecutive un-pinged frames a tile
// tolerates before it is dropped, per spec.md §4.4 ("not pinged for at
// least two consecutive frames").
const flushAfterFrames = 2

// Settings tunes the pager's subdivision criterion. Ported from the
// original's TerrainSettings.
type Settings struct {
	ScreenSpaceError float64 // additional SSE budget added to TilePixelSize
	TilePixelSize    float64 // nominal on-screen size of one tile, in pixels
}

// DefaultSettings mirrors the original's TerrainSettings defaults (256px
// tiles, 0.25 pixel of extra screen-space error budget).
var DefaultSettings = Settings{ScreenSpaceError: 0.25, TilePixelSize: 256}

// RenderModel is a tile's merged, render-ready data: a TileModel composed
// with its surface bound already recomputed from the model's elevation.
// Stands in for the original's TerrainTileRenderModel.
type RenderModel struct {
	Key      geo.TileKey
	Model    *model.TileModel
	Revision uint64
}

type entry struct {
	node        *node.TerrainTileNode
	parent      *node.TerrainTileNode
	doNotExpire bool
	merge       node.Slot[*RenderModel]
	needsUpdate atomic.Bool

	// dataCancel/subtilesCancel abort this tile's in-flight DataLoad/
	// SubtilesLoad factory calls; set when the corresponding queue drain
	// dispatches the job, cleared (and invoked) on eviction. Guarded by
	// Pager.mu, not a separate lock, since every read/write site already
	// holds it.
	dataCancel     context.CancelFunc
	subtilesCancel context.CancelFunc
}

// RecordContext carries the per-frame, per-view state Ping and the
// subdivision criterion need: the current frame number, the eye position
// (for distance/horizon tests), and the viewport height in pixels. Stands
// in for the original's (vsg::RecordTraversal, vsg::FrameStamp) pair,
// since this module has no GPU scene graph to traverse.
type RecordContext struct {
	Frame          uint64
	Eye            geo.Point3
	ViewportHeight float64
	Horizon        *node.Horizon // nil disables horizon culling
}

// Pager owns the tile registry and the four load/merge/update queues
// (spec.md's "five queues" distills to four distinct ones once elevation
// is folded into the model package's single-fetch TileModel factory; see
// internal/terrain/model and the node package's Slot doc comment).
type Pager struct {
	mu    sync.Mutex
	tiles map[geo.TileKey]*entry

	loadSubtiles []geo.TileKey
	loadData     []geo.TileKey
	mergeData    []geo.TileKey
	updateData   []geo.TileKey
	queuedSet    map[geo.TileKey]struct{} // dedups across all four queues within a frame

	rt       *runtime.Runtime
	factory  *model.Factory
	mapRef   *layer.Map
	settings Settings
	log      obslog.Logger
}

// New constructs an empty pager bound to rt (job dispatch), factory (tile
// data composition), and m (the active layer stack).
func New(rt *runtime.Runtime, factory *model.Factory, m *layer.Map, settings Settings) *Pager {
	return &Pager{
		tiles:     map[geo.TileKey]*entry{},
		queuedSet: map[geo.TileKey]struct{}{},
		rt:        rt,
		factory:   factory,
		mapRef:    m,
		settings:  settings,
		log:       obslog.For("pager"),
	}
}

// Size returns the number of tiles currently in the registry.
func (p *Pager) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.tiles)
}

// GetTile returns the registered node for key, or nil if not present.
func (p *Pager) GetTile(key geo.TileKey) *node.TerrainTileNode {
	p.mu.Lock()
	defer p.mu.Unlock()
	if e, ok := p.tiles[key]; ok {
		return e.node
	}
	return nil
}

// CreateTile registers and returns a new tile node for key, with parent as
// its registry parent (nil for a root key). doNotExpire keeps a tile (and,
// transitively, its self-pings) alive regardless of use — set for root
// keys, matching the original's root-tile handling.
func (p *Pager) CreateTile(key geo.TileKey, parent *node.TerrainTileNode, doNotExpire bool) *node.TerrainTileNode {
	p.mu.Lock()
	defer p.mu.Unlock()
	if e, ok := p.tiles[key]; ok {
		return e.node
	}
	n := node.NewTerrainTileNode(key)
	p.tiles[key] = &entry{node: n, parent: parent, doNotExpire: doNotExpire}
	return n
}

// ReleaseAll empties the registry, dropping every tile.
func (p *Pager) ReleaseAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tiles = map[geo.TileKey]*entry{}
	p.loadSubtiles, p.loadData, p.mergeData, p.updateData = nil, nil, nil, nil
	p.queuedSet = map[geo.TileKey]struct{}{}
}

func (p *Pager) enqueueLocked(q *[]geo.TileKey, key geo.TileKey) {
	if _, queued := p.queuedSet[key]; queued {
		return
	}
	p.queuedSet[key] = struct{}{}
	*q = append(*q, key)
}

// Ping is the record-time entry point: a tile observes itself as alive
// (refreshing its tracker token) and, depending on its current load state
// and its parent's, enqueues itself onto zero or more of the four queues
// for the next Update call. Grounded on TerrainTilePager.h's documented
// ping() ordering.
func (p *Pager) Ping(key geo.TileKey, ctx RecordContext) {
	p.mu.Lock()
	e, ok := p.tiles[key]
	if !ok {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	if !e.node.Surface.IsVisible(ctx.Horizon) {
		return
	}
	e.node.Touch(ctx.Frame)

	parentHasData := e.parent != nil && p.tileHasMergedData(e.parent.Key)

	p.mu.Lock()
	defer p.mu.Unlock()

	if parentHasData && e.node.DataLoad.State() == node.SlotEmpty {
		p.enqueueLocked(&p.loadData, key)
	}

	tm, tmOK := dataLoadValue(e.node)
	if tmOK && tm.HasElevation() && p.shouldSubdivide(e.node, ctx) && e.node.SubtilesLoad.State() == node.SlotEmpty {
		p.enqueueLocked(&p.loadSubtiles, key)
	}
	if tmOK && e.merge.State() == node.SlotEmpty {
		p.enqueueLocked(&p.mergeData, key)
	}
	if e.needsUpdate.Load() {
		p.enqueueLocked(&p.updateData, key)
	}
	// A doNotExpire tile's self-ping is just the Touch call above; it
	// needs no extra queue entry to stay resident.
}

func (p *Pager) tileHasMergedData(key geo.TileKey) bool {
	p.mu.Lock()
	e, ok := p.tiles[key]
	p.mu.Unlock()
	if !ok {
		return false
	}
	_, ready := e.merge.Value()
	return ready
}

func dataLoadValue(n *node.TerrainTileNode) (*model.TileModel, bool) {
	v, ok := n.DataLoad.Value()
	if !ok {
		return nil, false
	}
	tm, ok := v.(*model.TileModel)
	return tm, ok
}

// shouldSubdivide implements spec.md §4.4: subdivide iff d > 0 and
// bound.radius > d * (pixelSize + sse) / viewportHeight, where d is the
// eye's distance to the tile's bounding sphere surface. Independent of
// projection; purely screen-space-size driven.
func (p *Pager) shouldSubdivide(n *node.TerrainTileNode, ctx RecordContext) bool {
	if ctx.ViewportHeight <= 0 {
		return false
	}
	d := distanceToBound(ctx.Eye, n.Surface.Bound)
	if d <= 0 {
		return false
	}
	return n.Surface.Bound.Radius > d*(p.settings.TilePixelSize+p.settings.ScreenSpaceError)/ctx.ViewportHeight
}

func distanceToBound(eye geo.Point3, b geo.BoundingSphere) float64 {
	dx, dy, dz := eye.X-b.Center.X, eye.Y-b.Center.Y, eye.Z-b.Center.Z
	centerDist := math.Sqrt(dx*dx + dy*dy + dz*dz)
	return centerDist - b.Radius
}

// Update drains the four queues accumulated since the last call and
// flushes tiles that have gone un-pinged for flushAfterFrames frames.
// Grounded on TerrainTilePager.h's update(fs, io, terrain).
func (p *Pager) Update(ctx context.Context, frame uint64) {
	p.mu.Lock()
	loadSubtiles := p.loadSubtiles
	loadData := p.loadData
	mergeData := p.mergeData
	updateData := p.updateData
	p.loadSubtiles, p.loadData, p.mergeData, p.updateData = nil, nil, nil, nil
	p.queuedSet = map[geo.TileKey]struct{}{}
	p.mu.Unlock()

	metrics.QueueDepth.WithLabelValues("loadSubtiles").Set(float64(len(loadSubtiles)))
	metrics.QueueDepth.WithLabelValues("loadData").Set(float64(len(loadData)))
	metrics.QueueDepth.WithLabelValues("mergeData").Set(float64(len(mergeData)))
	metrics.QueueDepth.WithLabelValues("updateData").Set(float64(len(updateData)))

	for _, key := range updateData {
		p.drainUpdateData(key)
	}
	for _, key := range loadSubtiles {
		p.drainLoadSubtiles(ctx, key)
	}
	for _, key := range loadData {
		p.drainLoadData(ctx, key)
	}
	for _, key := range mergeData {
		p.drainMergeData(key)
	}

	// Runs at most one pending scene-graph edit (e.g. a loadSubtiles add-
	// child op queued above once its worker-pool build completes), per
	// Runtime's per-frame cap.
	p.rt.Update()

	p.flush(frame)
}

func (p *Pager) drainUpdateData(key geo.TileKey) {
	p.mu.Lock()
	e, ok := p.tiles[key]
	p.mu.Unlock()
	if !ok {
		return
	}
	e.needsUpdate.Store(false)
}

// drainLoadSubtiles starts an async job building the tile's 4-child quad
// group; the children are registered immediately (so later pings can find
// them) but the parent's SubtilesLoad/QuadGroup attachment only resolves
// once the scene-graph-edit op runs via Runtime.Dispatch.
func (p *Pager) drainLoadSubtiles(ctx context.Context, key geo.TileKey) {
	p.mu.Lock()
	e, ok := p.tiles[key]
	p.mu.Unlock()
	if !ok || !e.node.SubtilesLoad.Begin() {
		return
	}

	subCtx, cancel := context.WithCancel(ctx)
	p.mu.Lock()
	e.subtilesCancel = cancel
	p.mu.Unlock()

	p.rt.Go(func() error {
		qg := node.NewQuadGroup(e.node)

		p.mu.Lock()
		for _, child := range qg.Children {
			if _, exists := p.tiles[child.Key]; !exists {
				p.tiles[child.Key] = &entry{node: child, parent: e.node}
			}
		}
		p.mu.Unlock()

		if subCtx.Err() != nil {
			// Evicted (or its parent collapsed) while the build ran; drop
			// the result instead of spending the per-frame edit budget on
			// a quad group nothing will ping again.
			return nil
		}

		p.rt.Dispatch(func() {
			if subCtx.Err() != nil {
				return
			}
			e.node.AddChild(qg)
			e.node.SubtilesLoad.Resolve(qg, nil)
		}, nil)
		return nil
	})
}

// drainLoadData starts an async job fetching the tile's TileModel via the
// factory. Unlike loadSubtiles' child attachment, resolving DataLoad is not
// a scene-graph structural edit — Slot[T] is already safe to resolve from
// the worker goroutine directly — so this does not go through Runtime's
// one-edit-per-frame Dispatch/Update cap, only through the worker pool via
// Runtime.Go.
func (p *Pager) drainLoadData(ctx context.Context, key geo.TileKey) {
	p.mu.Lock()
	e, ok := p.tiles[key]
	p.mu.Unlock()
	if !ok || !e.node.DataLoad.Begin() {
		return
	}

	loadCtx, cancel := context.WithCancel(ctx)
	p.mu.Lock()
	e.dataCancel = cancel
	p.mu.Unlock()

	p.rt.Go(func() error {
		manifest := model.Manifest{IncludeElevation: true}
		res := p.factory.CreateTileModel(loadCtx, p.mapRef, key, manifest)

		if res.Failed() {
			metrics.TilesLoadFailed.Inc()
			p.log.Warn().Stringer("key", key).Err(res.Status).Msg("tile load failed")
			e.node.DataLoad.Resolve(nil, res.Status)
			return nil
		}
		metrics.TilesLoaded.Inc()
		tm := res.Value
		e.node.DataLoad.Resolve(&tm, nil)
		p.rt.RequestFrame()
		return nil
	})
}

// drainMergeData converts a ready TileModel into a RenderModel, recomputes
// the tile's surface bound from its elevation channel, and marks the merge
// available — at most once per tile per frame, since Slot.Begin refuses a
// second concurrent merge (spec.md's backpressure rule).
func (p *Pager) drainMergeData(key geo.TileKey) {
	p.mu.Lock()
	e, ok := p.tiles[key]
	p.mu.Unlock()
	if !ok {
		return
	}
	tm, tmOK := dataLoadValue(e.node)
	if !tmOK || !e.merge.Begin() {
		return
	}

	if tm.Elevation != nil {
		e.node.Surface.SetElevation(tm.Elevation.Heightfield, tm.Elevation.Matrix)
	}
	e.merge.Resolve(&RenderModel{Key: key, Model: tm, Revision: tm.Revision}, nil)
	metrics.TilesMerged.Inc()
	p.rt.RequestFrame()
}

// flush drops every tile not pinged for flushAfterFrames frames and not
// doNotExpire, clearing the dropped tile's parent's subtile attachment so
// the parent resumes drawing its own surface.
func (p *Pager) flush(frame uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for key, e := range p.tiles {
		if e.doNotExpire {
			continue
		}
		if frame < flushAfterFrames {
			continue
		}
		if e.node.LastTouched() > frame-flushAfterFrames {
			continue
		}
		delete(p.tiles, key)
		metrics.TilesEvicted.Inc()
		p.log.Debug().Stringer("key", key).Msg("tile evicted")
		p.unloadTileLocked(e)
		if e.parent != nil {
			p.clearChildrenLocked(e.parent)
		}
	}
	metrics.RegisteredTiles.Set(float64(len(p.tiles)))
}

// unloadTileLocked implements the original's unloadSubtiles for a single
// dropped tile: abort its in-flight DataLoad/SubtilesLoad futures instead
// of letting the worker goroutine run to completion against a node nobody
// pings anymore, and release any already-resolved TileModel. Caller must
// hold p.mu.
func (p *Pager) unloadTileLocked(e *entry) {
	if e.dataCancel != nil {
		e.dataCancel()
		e.dataCancel = nil
	}
	e.node.DataLoad.Cancel()
	if tm, ok := dataLoadValue(e.node); ok && tm != nil {
		tm.Release()
	}
	if e.subtilesCancel != nil {
		e.subtilesCancel()
		e.subtilesCancel = nil
	}
	e.node.SubtilesLoad.Cancel()
}

// clearChildrenLocked detaches parent's QuadGroup (so record traversal
// falls back to the parent's own surface) and, if parent is still
// mid-subdivide, cancels that in-flight build rather than leaving it to
// resolve into a QuadGroup no child entry survives to receive. Caller must
// hold p.mu.
func (p *Pager) clearChildrenLocked(parent *node.TerrainTileNode) {
	if pe, ok := p.tiles[parent.Key]; ok {
		if pe.subtilesCancel != nil {
			pe.subtilesCancel()
			pe.subtilesCancel = nil
		}
		pe.node.SubtilesLoad.Cancel()
	}
	parent.ClearChildren()
}

