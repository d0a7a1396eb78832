// Package metrics exposes the pager/runtime's ambient Prometheus
// instrumentation: tile load/merge/eviction counters and live queue-depth
// gauges. Grounded on the corpus's standard prometheus/client_golang idiom
// (package-level collectors registered once via promauto against the
// default registry) — see SPEC_FULL.md §2's AMBIENT STACK for the pack
// manifests this is grounded on (mohammed-shakir/h3-spatial-cache,
// tomtom215/cartographus).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "rocky"
const subsystem = "terrain"

// TilesLoaded counts successful TileModel fetches; failed fetches are
// counted by TilesLoadFailed instead.
var TilesLoaded = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: subsystem,
	Name:      "tiles_loaded_total",
	Help:      "Total number of tile data loads completed by the pager.",
})

// TilesLoadFailed counts TileModel fetches that failed (status.Failed()).
var TilesLoadFailed = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: subsystem,
	Name:      "tiles_load_failed_total",
	Help:      "Total number of tile data loads that failed.",
})

// TilesMerged counts tile render models merged into the scene graph.
var TilesMerged = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: subsystem,
	Name:      "tiles_merged_total",
	Help:      "Total number of tile render models merged by the pager.",
})

// TilesEvicted counts tiles dropped by the pager's flush pass.
var TilesEvicted = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: subsystem,
	Name:      "tiles_evicted_total",
	Help:      "Total number of tiles dropped by the pager's flush pass.",
})

// QueueDepth reports how many tile keys were drained from a given pager
// queue ("loadSubtiles", "loadData", "mergeData", "updateData") on the
// most recent Update call.
var QueueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: namespace,
	Subsystem: subsystem,
	Name:      "queue_depth",
	Help:      "Number of tile keys drained from a pager queue on the last Update call.",
}, []string{"queue"})

// RegisteredTiles reports the pager's live tile-registry size.
var RegisteredTiles = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: namespace,
	Subsystem: subsystem,
	Name:      "registered_tiles",
	Help:      "Current number of tiles in the pager's registry.",
})

// WorkerPoolPending reports the runtime's priority update queue depth
// (pending scene-graph edits awaiting their once-per-frame slot).
var WorkerPoolPending = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: namespace,
	Subsystem: subsystem,
	Name:      "runtime_pending_ops",
	Help:      "Number of operations pending on the runtime's priority update queue.",
})
