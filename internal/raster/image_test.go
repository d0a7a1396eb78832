package raster

import (
	"math"
	"testing"
)

func TestImageR8G8B8A8RoundTrip(t *testing.T) {
	img := NewImage(R8G8B8A8, 4, 4)
	img.Set(1, 2, [4]float64{1.0, 0.5, 0.0, 1.0})
	got := img.At(1, 2)
	if math.Abs(got[0]-1.0) > 1.0/255 || math.Abs(got[1]-0.5) > 1.0/255 || got[2] != 0 || got[3] != 1.0 {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestImageR32FRoundTrip(t *testing.T) {
	img := NewImage(R32F, 2, 2)
	img.Set(0, 0, [4]float64{1234.5})
	got := img.At(0, 0)
	if math.Abs(float64(float32(got[0]))-1234.5) > 1e-3 {
		t.Errorf("R32F round trip = %v, want 1234.5", got[0])
	}
}

func TestImageOutOfBoundsIsZeroValueNoPanic(t *testing.T) {
	img := NewImage(R8, 2, 2)
	got := img.At(5, 5)
	if got != ([4]float64{}) {
		t.Errorf("expected zero value for oob read, got %+v", got)
	}
	img.Set(-1, -1, [4]float64{1}) // must not panic
}

func TestImageChannelCounts(t *testing.T) {
	tests := []struct {
		f    PixelFormat
		want int
	}{
		{R8, 1}, {R8G8, 2}, {R8G8B8, 3}, {R8G8B8A8, 4}, {R16, 1}, {R32F, 1}, {R64F, 1},
	}
	for _, tt := range tests {
		if got := tt.f.Channels(); got != tt.want {
			t.Errorf("%v.Channels() = %d, want %d", tt.f, got, tt.want)
		}
	}
}

func TestImageCloneIsIndependent(t *testing.T) {
	img := NewImage(R8, 2, 2)
	img.Set(0, 0, [4]float64{0.5})
	clone := img.Clone()
	clone.Set(0, 0, [4]float64{0})
	if img.At(0, 0)[0] == clone.At(0, 0)[0] {
		t.Error("clone shares storage with original")
	}
}
