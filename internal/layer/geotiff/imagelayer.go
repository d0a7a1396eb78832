package geotiff

import (
	"context"

	"github.com/pelicanmapping/rocky-terrain/internal/cog"
	"github.com/pelicanmapping/rocky-terrain/internal/geo"
	"github.com/pelicanmapping/rocky-terrain/internal/layer"
	"github.com/pelicanmapping/rocky-terrain/internal/raster"
	"github.com/pelicanmapping/rocky-terrain/internal/status"
)

// ImageLayer serves color imagery directly out of a single GeoTIFF/COG
// file, reprojection-free: the file is assumed already in the layer's
// profile SRS (global-geodetic, in practice — the only profile a raw
// lat/lon GeoTIFF lines up with pixel-for-pixel). Reads go through a
// shared cog.TileCache, since a tile pager's adjacent LODs routinely
// request overlapping windows of the same underlying source tiles.
type ImageLayer struct {
	layer.TileLayerBase
	path   string
	reader *cog.CachedReader
}

// tileCacheSize bounds the number of decoded source tiles an ImageLayer
// keeps resident; a handful of LOD levels' worth of 256px tiles.
const tileCacheSize = 256

// NewImageLayer constructs a closed ImageLayer over the GeoTIFF file at
// path. The file is not mapped until Open is called.
func NewImageLayer(name, path string) *ImageLayer {
	l := &ImageLayer{path: path}
	l.TileLayerBase = layer.NewTileLayerBase(name, geo.GlobalGeodetic, 0, 23)
	l.SetOpenImplementation(l.doOpen)
	l.SetCloseImplementation(l.doClose)
	return l
}

func (l *ImageLayer) doOpen(ctx context.Context) status.Status {
	r, err := cog.Open(l.path)
	if err != nil {
		return status.Errorf(status.ResourceUnavailable, "%v", err)
	}
	l.reader = cog.NewCachedReader(r, cog.NewTileCache(tileCacheSize))
	return status.OKStatus
}

func (l *ImageLayer) doClose() {
	if l.reader != nil {
		l.reader.Close()
		l.reader = nil
	}
}

// CreateImage resamples the GeoTIFF's pixel data covering key's extent into
// a tileSize x tileSize image. Returns ResourceUnavailable (not an error)
// when key's extent falls entirely outside the file's coverage, so the
// pager falls back to the parent tile per the data-source contract.
func (l *ImageLayer) CreateImage(ctx context.Context, key geo.TileKey) status.Result[raster.GeoImage] {
	if s := l.RequireOpen(); s.Failed() {
		return status.Fail[raster.GeoImage](s)
	}
	if !l.InLevelRange(key) {
		return status.Fail[raster.GeoImage](status.Error(status.ResourceUnavailable))
	}

	win, ok := resolveWindow(l.reader, key.Extent())
	if !ok {
		return status.Fail[raster.GeoImage](status.Error(status.ResourceUnavailable))
	}

	region, err := l.reader.ReadRegionCached(win.level, win.x, win.y, win.w, win.h)
	if err != nil {
		return status.Fail[raster.GeoImage](status.Errorf(status.GeneralError, "geotiff: reading region: %v", err))
	}

	img := raster.NewImage(raster.R8G8B8A8, tileSize, tileSize)
	for row := 0; row < tileSize; row++ {
		for col := 0; col < tileSize; col++ {
			sx, sy := destToSource(col, row, tileSize, win)
			r, g, b, a := region.At(sx-win.x, sy-win.y).RGBA()
			img.Set(col, row, [4]float64{float64(r) / 65535.0, float64(g) / 65535.0, float64(b) / 65535.0, float64(a) / 65535.0})
		}
	}

	return status.Ok(raster.GeoImage{Image: img, Extent: key.Extent()})
}
