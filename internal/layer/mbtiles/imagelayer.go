package mbtiles

import (
	"context"

	"github.com/pelicanmapping/rocky-terrain/internal/geo"
	"github.com/pelicanmapping/rocky-terrain/internal/layer"
	"github.com/pelicanmapping/rocky-terrain/internal/raster"
	"github.com/pelicanmapping/rocky-terrain/internal/status"
)

// ImageLayer serves color imagery from an MBTiles SQLite file.
type ImageLayer struct {
	layer.TileLayerBase
	path  string
	store *store
}

// NewImageLayer constructs a closed ImageLayer over the MBTiles file at
// path. The file is not opened until Open is called.
func NewImageLayer(name, path string) *ImageLayer {
	l := &ImageLayer{path: path}
	l.TileLayerBase = layer.NewTileLayerBase(name, geo.Profile{}, 0, 23)
	l.SetOpenImplementation(l.doOpen)
	l.SetCloseImplementation(l.doClose)
	return l
}

func (l *ImageLayer) doOpen(ctx context.Context) status.Status {
	s, err := openStore(l.path)
	if err != nil {
		return status.Errorf(status.ResourceUnavailable, "%v", err)
	}
	l.store = s
	l.SetProfile(s.profile)
	return status.OKStatus
}

func (l *ImageLayer) doClose() {
	if l.store != nil {
		l.store.close()
		l.store = nil
	}
}

// CreateImage fetches and decodes the tile at key. Returns ResourceUnavailable
// (not an error) when the tile is simply absent from the store, so the pager
// falls back to the parent tile per spec.md §6's data-source contract.
func (l *ImageLayer) CreateImage(ctx context.Context, key geo.TileKey) status.Result[raster.GeoImage] {
	if s := l.RequireOpen(); s.Failed() {
		return status.Fail[raster.GeoImage](s)
	}
	if !l.InLevelRange(key) {
		return status.Fail[raster.GeoImage](status.Error(status.ResourceUnavailable))
	}

	blob, err := l.store.readTileBlob(ctx, key)
	if err != nil {
		return status.Fail[raster.GeoImage](sqlFailureStatus(err))
	}

	decoded, err := l.store.decodeImage(blob)
	if err != nil {
		return status.Fail[raster.GeoImage](status.Errorf(status.GeneralError, "mbtiles: decoding tile image: %v", err))
	}

	bounds := decoded.Bounds()
	img := raster.NewImage(raster.R8G8B8A8, bounds.Dx(), bounds.Dy())
	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			r, g, b, a := decoded.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			img.Set(x, y, [4]float64{float64(r) / 65535.0, float64(g) / 65535.0, float64(b) / 65535.0, float64(a) / 65535.0})
		}
	}

	return status.Ok(raster.GeoImage{Image: img, Extent: key.Extent()})
}
