package geotiff

import (
	"context"

	"github.com/pelicanmapping/rocky-terrain/internal/cog"
	"github.com/pelicanmapping/rocky-terrain/internal/geo"
	"github.com/pelicanmapping/rocky-terrain/internal/layer"
	"github.com/pelicanmapping/rocky-terrain/internal/raster"
	"github.com/pelicanmapping/rocky-terrain/internal/status"
)

// ElevationLayer serves single-band float elevation directly out of a
// GeoTIFF/COG file, keyed by TileKey instead of pixel/overview coordinates.
type ElevationLayer struct {
	layer.TileLayerBase
	path   string
	reader *cog.Reader
}

// NewElevationLayer constructs a closed ElevationLayer over the GeoTIFF
// file at path.
func NewElevationLayer(name, path string) *ElevationLayer {
	l := &ElevationLayer{path: path}
	l.TileLayerBase = layer.NewTileLayerBase(name, geo.GlobalGeodetic, 0, 23)
	l.SetOpenImplementation(l.doOpen)
	l.SetCloseImplementation(l.doClose)
	return l
}

func (l *ElevationLayer) doOpen(ctx context.Context) status.Status {
	r, err := cog.Open(l.path)
	if err != nil {
		return status.Errorf(status.ResourceUnavailable, "%v", err)
	}
	if !r.IsFloat() {
		r.Close()
		return status.Errorf(status.ConfigurationError, "geotiff: %s is not a float-sampled raster", l.path)
	}
	l.reader = r
	return status.OKStatus
}

func (l *ElevationLayer) doClose() {
	if l.reader != nil {
		l.reader.Close()
		l.reader = nil
	}
}

// CreateHeightfield resamples the GeoTIFF's float pixel data covering key's
// extent into a tileSize x tileSize heightfield.
func (l *ElevationLayer) CreateHeightfield(ctx context.Context, key geo.TileKey) status.Result[raster.GeoHeightfield] {
	if s := l.RequireOpen(); s.Failed() {
		return status.Fail[raster.GeoHeightfield](s)
	}
	if !l.InLevelRange(key) {
		return status.Fail[raster.GeoHeightfield](status.Error(status.ResourceUnavailable))
	}

	win, ok := resolveWindow(l.reader, key.Extent())
	if !ok {
		return status.Fail[raster.GeoHeightfield](status.Error(status.ResourceUnavailable))
	}

	region, err := readFloatRegion(l.reader, win.level, win.x, win.y, win.w, win.h)
	if err != nil {
		return status.Fail[raster.GeoHeightfield](status.Errorf(status.GeneralError, "geotiff: reading elevation region: %v", err))
	}

	hf := raster.NewHeightfield(tileSize, tileSize)
	for row := 0; row < tileSize; row++ {
		for col := 0; col < tileSize; col++ {
			sx, sy := destToSource(col, row, tileSize, win)
			hf.SetHeightAt(col, row, region[(sy-win.y)*win.w+(sx-win.x)])
		}
	}

	return status.Ok(raster.GeoHeightfield{Heightfield: hf, Extent: key.Extent()})
}
