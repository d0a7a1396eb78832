package mbtiles

import (
	"context"
	"image/color"
	"math"

	"github.com/pelicanmapping/rocky-terrain/internal/encode"
	"github.com/pelicanmapping/rocky-terrain/internal/geo"
	"github.com/pelicanmapping/rocky-terrain/internal/layer"
	"github.com/pelicanmapping/rocky-terrain/internal/raster"
	"github.com/pelicanmapping/rocky-terrain/internal/status"
)

// ElevationLayer serves Terrarium-encoded elevation from an MBTiles SQLite
// file: tiles store PNG-encoded RGB where each pixel's RGB triple decodes
// to a float elevation via the teacher's own encode.TerrariumToElevation.
type ElevationLayer struct {
	layer.TileLayerBase
	path  string
	store *store
}

// NewElevationLayer constructs a closed ElevationLayer over the MBTiles
// file at path.
func NewElevationLayer(name, path string) *ElevationLayer {
	l := &ElevationLayer{path: path}
	l.TileLayerBase = layer.NewTileLayerBase(name, geo.Profile{}, 0, 23)
	l.SetOpenImplementation(l.doOpen)
	l.SetCloseImplementation(l.doClose)
	return l
}

func (l *ElevationLayer) doOpen(ctx context.Context) status.Status {
	s, err := openStore(l.path)
	if err != nil {
		return status.Errorf(status.ResourceUnavailable, "%v", err)
	}
	l.store = s
	l.SetProfile(s.profile)
	return status.OKStatus
}

func (l *ElevationLayer) doClose() {
	if l.store != nil {
		l.store.close()
		l.store = nil
	}
}

// CreateHeightfield fetches and decodes the elevation tile at key.
func (l *ElevationLayer) CreateHeightfield(ctx context.Context, key geo.TileKey) status.Result[raster.GeoHeightfield] {
	if s := l.RequireOpen(); s.Failed() {
		return status.Fail[raster.GeoHeightfield](s)
	}
	if !l.InLevelRange(key) {
		return status.Fail[raster.GeoHeightfield](status.Error(status.ResourceUnavailable))
	}

	blob, err := l.store.readTileBlob(ctx, key)
	if err != nil {
		return status.Fail[raster.GeoHeightfield](sqlFailureStatus(err))
	}

	decoded, err := l.store.decodeImage(blob)
	if err != nil {
		return status.Fail[raster.GeoHeightfield](status.Errorf(status.GeneralError, "mbtiles: decoding elevation tile: %v", err))
	}

	bounds := decoded.Bounds()
	hf := raster.NewHeightfield(bounds.Dx(), bounds.Dy())
	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			r, g, b, a := decoded.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			elev := encode.TerrariumToElevation(color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: uint8(a >> 8)})
			if math.IsNaN(elev) {
				hf.SetHeightAt(x, y, raster.NoDataValue)
			} else {
				hf.SetHeightAt(x, y, float32(elev))
			}
		}
	}

	return status.Ok(raster.GeoHeightfield{Heightfield: hf, Extent: key.Extent()})
}
