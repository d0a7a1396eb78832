// Package geotiff adapts internal/cog's COG/GeoTIFF reader into the
// terrain core's ImageLayer/ElevationLayer driver interfaces: a raw
// GeoTIFF (or Cloud-Optimized GeoTIFF) file on disk, addressed by TileKey
// instead of by pixel/overview coordinates. Grounded on
// internal/layer/mbtiles's open/close/CreateImage shape, with the pixel
// addressing itself ported from the teacher's tile/generator.go and
// tile/resample.go window-over-COG-overview approach.
package geotiff

import (
	"image"
	"math"

	"github.com/pelicanmapping/rocky-terrain/internal/cog"
	"github.com/pelicanmapping/rocky-terrain/internal/geo"
	"github.com/pelicanmapping/rocky-terrain/internal/raster"
)

// tileSize is the fixed pixel dimension of every tile this driver produces,
// independent of the source file's own internal tile layout — ReadRegion
// (and readFloatRegion) stitch across however many source tiles a
// requested window spans.
const tileSize = 256

// source is the subset of *cog.Reader a driver needs, pulled out as an
// interface so the window/resampling math can be unit tested without a
// real memory-mapped GeoTIFF file backing it.
type source interface {
	GeoInfo() cog.GeoInfo
	OverviewForZoom(outputPixelSizeCRS float64) int
	IFDPixelSize(level int) float64
	IFDWidth(level int) int
	IFDHeight(level int) int
	IFDTileSize(level int) [2]int
	ReadRegion(level, startX, startY, width, height int) (*image.RGBA, error)
	ReadFloatTile(level, col, row int) ([]float32, int, int, error)
}

// window is the source pixel rectangle, at a chosen overview level, that a
// TileKey's geographic extent maps onto.
type window struct {
	level      int
	x, y, w, h int
}

// resolveWindow picks the overview level whose pixel size best matches the
// tile's own resolution (so sampling neither needlessly reads full-res data
// for a coarse tile nor upsamples blurrily past an overview's detail), then
// maps ext onto that level's pixel grid, clipped to the raster's bounds. ok
// is false when ext doesn't intersect the raster at all.
func resolveWindow(s source, ext geo.Extent) (window, bool) {
	target := ext.Width / float64(tileSize)
	level := s.OverviewForZoom(target)

	info := s.GeoInfo()
	psx := s.IFDPixelSize(level)
	scale := 1.0
	if info.PixelSizeX != 0 {
		scale = psx / info.PixelSizeX
	}
	psy := info.PixelSizeY * scale

	return windowFor(info.OriginX, info.OriginY, psx, psy, s.IFDWidth(level), s.IFDHeight(level), level, ext)
}

// windowFor is resolveWindow's pure geometry, split out for testing without
// a source implementation.
func windowFor(originX, originY, pixelSizeX, pixelSizeY float64, levelW, levelH, level int, ext geo.Extent) (window, bool) {
	if pixelSizeX <= 0 || pixelSizeY <= 0 || levelW <= 0 || levelH <= 0 {
		return window{}, false
	}

	fx0 := (ext.Xmin() - originX) / pixelSizeX
	fx1 := (ext.Xmax() - originX) / pixelSizeX
	fy0 := (originY - ext.Ymax()) / pixelSizeY
	fy1 := (originY - ext.Ymin()) / pixelSizeY

	x0, x1 := clampSpan(fx0, fx1, levelW)
	y0, y1 := clampSpan(fy0, fy1, levelH)
	if x1 <= x0 || y1 <= y0 {
		return window{}, false
	}

	return window{level: level, x: x0, y: y0, w: x1 - x0, h: y1 - y0}, true
}

func clampSpan(lo, hi float64, size int) (int, int) {
	a := clampInt(int(math.Floor(lo)), 0, size)
	b := clampInt(int(math.Ceil(hi)), 0, size)
	return a, b
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// destToSource maps a destination pixel column/row in [0,tileSize) onto a
// nearest source pixel within win, for the window's own w x h span.
func destToSource(col, row, size int, win window) (int, int) {
	sx := win.x + (col*win.w)/size
	sy := win.y + (row*win.h)/size
	return clampInt(sx, win.x, win.x+win.w-1), clampInt(sy, win.y, win.y+win.h-1)
}

// readFloatRegion assembles a width x height float32 window at (startX,
// startY) on level, stitching across however many of the source's native
// tiles the window spans — the float-data equivalent of *cog.Reader's own
// ReadRegion (which only decodes to image.RGBA).
func readFloatRegion(s source, level, startX, startY, width, height int) ([]float32, error) {
	tw, th := s.IFDTileSize(level)[0], s.IFDTileSize(level)[1]
	if tw <= 0 || th <= 0 {
		tw, th = width, height
	}

	dst := make([]float32, width*height)
	for i := range dst {
		dst[i] = raster.NoDataValue
	}

	colStart, colEnd := startX/tw, (startX+width-1)/tw
	rowStart, rowEnd := startY/th, (startY+height-1)/th

	for row := rowStart; row <= rowEnd; row++ {
		for col := colStart; col <= colEnd; col++ {
			tile, tw2, th2, err := s.ReadFloatTile(level, col, row)
			if err != nil {
				return nil, err
			}
			if tile == nil {
				continue
			}

			tileMinX, tileMinY := col*tw, row*th
			srcMinX := maxInt(startX, tileMinX) - tileMinX
			srcMinY := maxInt(startY, tileMinY) - tileMinY
			srcMaxX := minInt(startX+width, tileMinX+tw2) - tileMinX
			srcMaxY := minInt(startY+height, tileMinY+th2) - tileMinY
			dstMinX := maxInt(startX, tileMinX) - startX
			dstMinY := maxInt(startY, tileMinY) - startY

			for y := srcMinY; y < srcMaxY; y++ {
				for x := srcMinX; x < srcMaxX; x++ {
					dst[(dstMinY+(y-srcMinY))*width+(dstMinX+(x-srcMinX))] = tile[y*tw2+x]
				}
			}
		}
	}
	return dst, nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
