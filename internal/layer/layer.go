// Package layer implements the data-source abstraction the terrain core
// pages tiles through: Layer's open/close lifecycle and revisioning, the
// TileLayer/ImageLayer/ElevationLayer capability interfaces, and Map as
// an ordered, change-notifying stack of layers. Ported from
// original_source/src/rocky/Layer.{h,cpp} and Map.cpp.
package layer

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/pelicanmapping/rocky-terrain/internal/status"
)

var uidCounter atomic.Uint64

// UID is a process-unique layer identifier. Assigned from a simple atomic
// counter (stable, sortable by creation order) rather than a full UUID,
// which spec.md §4.7 reserves for user-facing layer identity (Name/GUID).
type UID uint64

func nextUID() UID { return UID(uidCounter.Add(1)) }

// Base implements the common Layer state machine: open/close lifecycle
// under an exclusive lock, revisioning, and status tracking. Concrete
// layers embed Base and implement openImplementation/closeImplementation.
type Base struct {
	mu sync.RWMutex

	uid         UID
	guid        string
	name        string
	attribution string
	status      status.Status
	revision    uint64
	isOpen      bool
	openAuto    bool

	openImplementation  func(ctx context.Context) status.Status
	closeImplementation func()
}

// NewBase constructs a closed layer with a fresh UID and GUID.
func NewBase(name string) Base {
	return Base{
		uid:      nextUID(),
		guid:     uuid.NewString(),
		name:     name,
		status:   status.OKStatus,
		openAuto: true,
	}
}

func (b *Base) UID() UID       { return b.uid }
func (b *Base) GUID() string   { return b.guid }
func (b *Base) Name() string   { return b.name }
func (b *Base) SetName(n string) { b.mu.Lock(); b.name = n; b.mu.Unlock() }

func (b *Base) Attribution() string        { return b.attribution }
func (b *Base) SetAttribution(a string)    { b.mu.Lock(); b.attribution = a; b.mu.Unlock() }
func (b *Base) OpenAutomatically() bool    { return b.openAuto }
func (b *Base) SetOpenAutomatically(v bool) { b.mu.Lock(); b.openAuto = v; b.mu.Unlock() }

// Status returns the layer's current status under a read lock.
func (b *Base) Status() status.Status {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.status
}

// Revision returns the current revision number.
func (b *Base) Revision() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.revision
}

// Dirty bumps the revision, invalidating any cached data keyed on it.
func (b *Base) Dirty() {
	b.mu.Lock()
	b.revision++
	b.mu.Unlock()
}

// IsOpen reports whether the layer is currently open.
func (b *Base) IsOpen() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.isOpen
}

// Open is idempotent: a no-op if already open. On a closed layer it takes
// the exclusive state lock, runs openImplementation, and sets status
// accordingly. Mirrors spec.md §4.7's lifecycle contract exactly.
func (b *Base) Open(ctx context.Context) status.Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.isOpen {
		return status.OKStatus
	}
	if b.openImplementation == nil {
		b.isOpen = true
		b.status = status.OKStatus
		return b.status
	}
	s := b.openImplementation(ctx)
	b.status = s
	b.isOpen = s.Ok()
	return s
}

// Close mirrors Open: a no-op if already closed.
func (b *Base) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.isOpen {
		return
	}
	if b.closeImplementation != nil {
		b.closeImplementation()
	}
	b.isOpen = false
}

// SetOpenImplementation installs the hook Open invokes on a closed layer.
// Concrete drivers call this once during construction.
func (b *Base) SetOpenImplementation(fn func(ctx context.Context) status.Status) {
	b.openImplementation = fn
}

// SetCloseImplementation installs the hook Close invokes on an open layer.
func (b *Base) SetCloseImplementation(fn func()) {
	b.closeImplementation = fn
}

// RequireOpen returns ResourceUnavailable if the layer is not open,
// otherwise OKStatus. Every tile-data query calls this first, per the
// "fail fast" rule in spec.md §4.7/§7.
func (b *Base) RequireOpen() status.Status {
	if !b.IsOpen() {
		return status.Errorf(status.ResourceUnavailable, "layer %q is not open", b.name)
	}
	return status.OKStatus
}
