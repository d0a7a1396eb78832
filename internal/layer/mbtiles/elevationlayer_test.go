package mbtiles

import (
	"context"
	"image/color"
	"math"
	"testing"

	"github.com/pelicanmapping/rocky-terrain/internal/encode"
	"github.com/pelicanmapping/rocky-terrain/internal/geo"
	"github.com/pelicanmapping/rocky-terrain/internal/raster"
)

func TestElevationLayerCreateHeightfieldRoundTrips(t *testing.T) {
	c := encode.ElevationToTerrarium(1234.5)
	path := createTestMBTiles(t, map[[3]uint32]color.RGBA{
		{0, 0, 0}: c,
	})

	l := NewElevationLayer("test-elev", path)
	defer l.Close()
	if s := l.Open(context.Background()); s.Failed() {
		t.Fatalf("open failed: %v", s)
	}

	key := geo.TileKey{LOD: 0, X: 0, Y: 0, Profile: l.Profile()}
	result := l.CreateHeightfield(context.Background(), key)
	if result.Failed() {
		t.Fatalf("CreateHeightfield failed: %v", result.Status)
	}

	got := result.Value.Heightfield.HeightAt(0, 0)
	if math.Abs(float64(got)-1234.5) > 1.0 {
		t.Errorf("HeightAt(0,0) = %v, want ~1234.5", got)
	}
}

func TestElevationLayerNoDataPixelBecomesNoDataValue(t *testing.T) {
	path := createTestMBTiles(t, map[[3]uint32]color.RGBA{
		{0, 0, 0}: {R: 0, G: 0, B: 0, A: 0},
	})

	l := NewElevationLayer("test-elev-nodata", path)
	defer l.Close()
	if s := l.Open(context.Background()); s.Failed() {
		t.Fatalf("open failed: %v", s)
	}

	key := geo.TileKey{LOD: 0, X: 0, Y: 0, Profile: l.Profile()}
	result := l.CreateHeightfield(context.Background(), key)
	if result.Failed() {
		t.Fatalf("CreateHeightfield failed: %v", result.Status)
	}
	// A fully transparent pixel decodes to NaN in TerrariumToElevation,
	// which CreateHeightfield maps to raster.NoDataValue.
	got := result.Value.Heightfield.HeightAt(0, 0)
	if !raster.IsNoData(float64(got)) {
		t.Errorf("HeightAt(0,0) = %v, want NoDataValue", got)
	}
}
