package raster

import (
	"math"
	"testing"
)

func TestImageSampleUVNearest(t *testing.T) {
	img := NewImage(R8, 2, 2)
	img.Set(0, 0, [4]float64{0.1})
	img.Set(1, 0, [4]float64{0.9})
	got := img.SampleUV(0.9, 1.0, SamplingNearest)
	if math.Abs(got[0]-0.9) > 1.0/255 {
		t.Errorf("nearest sample = %v, want ~0.9", got[0])
	}
}

// TestImageSampleUVBilinearSubstitutesNoDataCorners covers the deterministic
// no-data substitution rule: a nodata-flagged corner (alpha 0) is replaced
// by the first valid corner in scan order (a,b,c,d) and interpolated with
// the original weights, not renormalized over whichever corners are valid.
func TestImageSampleUVBilinearSubstitutesNoDataCorners(t *testing.T) {
	img := NewImage(R8G8B8A8, 2, 2)
	img.Set(0, 0, [4]float64{1, 0, 0, 1}) // a
	img.Set(1, 0, [4]float64{0, 0, 0, 0}) // b: nodata
	img.Set(0, 1, [4]float64{0, 1, 0, 1}) // c
	img.Set(1, 1, [4]float64{0, 0, 0, 0}) // d: nodata

	got := img.SampleUV(0.5, 0.5, SamplingBilinear)
	want := [4]float64{0.75, 0.25, 0, 1.0}
	for c := range want {
		if math.Abs(got[c]-want[c]) > 1e-9 {
			t.Errorf("channel %d = %v, want %v (full got=%v)", c, got[c], want[c], got)
		}
	}
}

func TestDownsampleCombinesFourQuadrants(t *testing.T) {
	mk := func(v float64) *Image {
		img := NewImage(R8, 2, 2)
		for y := 0; y < 2; y++ {
			for x := 0; x < 2; x++ {
				img.Set(x, y, [4]float64{v})
			}
		}
		return img
	}
	quads := [4]*Image{mk(0.1), mk(0.3), mk(0.5), mk(0.7)}
	out := Downsample(R8, 4, SamplingAverage, quads)

	if out.Width != 4 || out.Height != 4 {
		t.Fatalf("unexpected output size: %dx%d", out.Width, out.Height)
	}
	if got := out.At(0, 0)[0]; math.Abs(got-0.1) > 1.0/255 {
		t.Errorf("top-left quadrant = %v, want ~0.1", got)
	}
	if got := out.At(3, 3)[0]; math.Abs(got-0.7) > 1.0/255 {
		t.Errorf("bottom-right quadrant = %v, want ~0.7", got)
	}
}

func TestDownsampleHandlesNilQuadrant(t *testing.T) {
	mk := func(v float64) *Image {
		img := NewImage(R8, 2, 2)
		img.Set(0, 0, [4]float64{v})
		img.Set(1, 0, [4]float64{v})
		img.Set(0, 1, [4]float64{v})
		img.Set(1, 1, [4]float64{v})
		return img
	}
	out := Downsample(R8, 4, SamplingAverage, [4]*Image{mk(0.5), nil, nil, nil})
	if out.Width != 4 {
		t.Fatalf("unexpected size")
	}
	if got := out.At(3, 3)[0]; got != 0 {
		t.Errorf("expected zero fill for nil quadrant, got %v", got)
	}
}
