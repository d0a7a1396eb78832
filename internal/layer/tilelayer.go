package layer

import (
	"context"

	"github.com/pelicanmapping/rocky-terrain/internal/geo"
	"github.com/pelicanmapping/rocky-terrain/internal/raster"
	"github.com/pelicanmapping/rocky-terrain/internal/status"
)

// Layer is the capability every map layer provides: identity, lifecycle,
// and revisioning. Concrete drivers satisfy wider interfaces below by
// embedding Base and adding a data-source method.
type Layer interface {
	UID() UID
	Name() string
	Attribution() string
	Status() status.Status
	IsOpen() bool
	Revision() uint64
	Dirty()
	Open(ctx context.Context) status.Status
	Close()
}

// TileLayer is a Layer whose data is addressed by TileKey against a fixed
// Profile.
type TileLayer interface {
	Layer
	Profile() geo.Profile
	MinLevel() uint32
	MaxLevel() uint32
}

// ImageLayer produces color imagery per tile.
type ImageLayer interface {
	TileLayer
	CreateImage(ctx context.Context, key geo.TileKey) status.Result[raster.GeoImage]
}

// ElevationLayer produces elevation grids per tile.
type ElevationLayer interface {
	TileLayer
	CreateHeightfield(ctx context.Context, key geo.TileKey) status.Result[raster.GeoHeightfield]
}

// TileLayerBase embeds Base and adds the fixed Profile/level-range state
// shared by every concrete TileLayer driver.
type TileLayerBase struct {
	Base
	profile  geo.Profile
	minLevel uint32
	maxLevel uint32
}

// NewTileLayerBase constructs a closed tile layer with the given profile
// and level range.
func NewTileLayerBase(name string, profile geo.Profile, minLevel, maxLevel uint32) TileLayerBase {
	return TileLayerBase{Base: NewBase(name), profile: profile, minLevel: minLevel, maxLevel: maxLevel}
}

func (t *TileLayerBase) Profile() geo.Profile { return t.profile }
func (t *TileLayerBase) MinLevel() uint32     { return t.minLevel }
func (t *TileLayerBase) MaxLevel() uint32     { return t.maxLevel }

// SetProfile updates the layer's profile, e.g. once the backing store's
// metadata has been read during Open.
func (t *TileLayerBase) SetProfile(p geo.Profile) { t.profile = p }

// SetLevelRange updates the layer's valid LOD range.
func (t *TileLayerBase) SetLevelRange(minLevel, maxLevel uint32) {
	t.minLevel, t.maxLevel = minLevel, maxLevel
}

// InLevelRange reports whether key's LOD falls within [MinLevel,MaxLevel].
func (t *TileLayerBase) InLevelRange(key geo.TileKey) bool {
	return key.LOD >= t.minLevel && key.LOD <= t.maxLevel
}
