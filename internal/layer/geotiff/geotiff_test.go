package geotiff

import (
	"image"
	"testing"

	"github.com/pelicanmapping/rocky-terrain/internal/cog"
	"github.com/pelicanmapping/rocky-terrain/internal/geo"
	"github.com/pelicanmapping/rocky-terrain/internal/raster"
	"github.com/pelicanmapping/rocky-terrain/internal/srs"
)

func TestWindowForMapsExtentOntoPixelGrid(t *testing.T) {
	// A 360x180 degree raster at 1 degree/pixel, origin at the NW corner.
	win, ok := windowFor(-180, 90, 1.0, 1.0, 360, 180, 0, geo.New(srs.Geodetic, 10, 20, 20, 30))
	if !ok {
		t.Fatalf("expected intersection")
	}
	if win.x != 190 || win.y != 60 || win.w != 10 || win.h != 10 {
		t.Errorf("window = %+v, want x=190 y=60 w=10 h=10", win)
	}
}

func TestWindowForClipsToRasterBounds(t *testing.T) {
	win, ok := windowFor(-180, 90, 1.0, 1.0, 360, 180, 0, geo.New(srs.Geodetic, -185, 85, -170, 95))
	if !ok {
		t.Fatalf("expected partial intersection")
	}
	if win.x != 0 || win.w != 10 {
		t.Errorf("window = %+v, want clipped to x=0 w=10", win)
	}
}

func TestWindowForReportsNoIntersection(t *testing.T) {
	_, ok := windowFor(-180, 90, 1.0, 1.0, 360, 180, 0, geo.New(srs.Geodetic, 200, 20, 210, 30))
	if ok {
		t.Errorf("expected no intersection outside raster bounds")
	}
}

func TestDestToSourceMapsIntoWindowSpan(t *testing.T) {
	win := window{level: 0, x: 100, y: 50, w: 20, h: 20}

	sx, sy := destToSource(0, 0, 10, win)
	if sx != 100 || sy != 50 {
		t.Errorf("corner mapped to (%d,%d), want (100,50)", sx, sy)
	}

	sx, sy = destToSource(9, 9, 10, win)
	if sx != 118 || sy != 118 {
		t.Errorf("far corner mapped to (%d,%d), want (118,118)", sx, sy)
	}
}

// fakeSource is a minimal source implementation backing readFloatRegion
// tests with synthetic tiles, avoiding the need to parse a real GeoTIFF.
type fakeSource struct {
	tileW, tileH int
	tiles        map[[2]int][]float32
}

func (f *fakeSource) GeoInfo() cog.GeoInfo                        { return cog.GeoInfo{} }
func (f *fakeSource) OverviewForZoom(float64) int                  { return 0 }
func (f *fakeSource) IFDPixelSize(int) float64                     { return 1 }
func (f *fakeSource) IFDWidth(int) int                             { return 0 }
func (f *fakeSource) IFDHeight(int) int                            { return 0 }
func (f *fakeSource) IFDTileSize(int) [2]int                       { return [2]int{f.tileW, f.tileH} }
func (f *fakeSource) ReadRegion(int, int, int, int, int) (*image.RGBA, error) { return nil, nil }
func (f *fakeSource) ReadFloatTile(level, col, row int) ([]float32, int, int, error) {
	t, ok := f.tiles[[2]int{col, row}]
	if !ok {
		return nil, 0, 0, nil
	}
	return t, f.tileW, f.tileH, nil
}

func TestReadFloatRegionStitchesAcrossTiles(t *testing.T) {
	mk := func(v float32) []float32 {
		t := make([]float32, 4)
		for i := range t {
			t[i] = v
		}
		return t
	}
	fs := &fakeSource{
		tileW: 2, tileH: 2,
		tiles: map[[2]int][]float32{
			{0, 0}: mk(1),
			{1, 0}: mk(2),
			{0, 1}: mk(3),
			{1, 1}: mk(4),
		},
	}

	// Window spans the 2x2 boundary between all four tiles: columns [1,3), rows [1,3).
	got, err := readFloatRegion(fs, 0, 1, 1, 2, 2)
	if err != nil {
		t.Fatalf("readFloatRegion: %v", err)
	}
	want := []float32{1, 2, 3, 4}
	for i, w := range want {
		if got[i] != w {
			t.Errorf("pixel %d = %v, want %v (full got=%v)", i, got[i], w, got)
		}
	}
}

func TestReadFloatRegionFillsGapsWithNoData(t *testing.T) {
	fs := &fakeSource{tileW: 2, tileH: 2, tiles: map[[2]int][]float32{}}

	got, err := readFloatRegion(fs, 0, 0, 0, 2, 2)
	if err != nil {
		t.Fatalf("readFloatRegion: %v", err)
	}
	for i, v := range got {
		if v != raster.NoDataValue {
			t.Errorf("pixel %d = %v, want NoDataValue (missing tile)", i, v)
		}
	}
}
