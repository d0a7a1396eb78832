package raster

import (
	"math"
	"testing"
)

func TestHeightfieldSetGet(t *testing.T) {
	hf := NewHeightfield(4, 4)
	hf.SetHeightAt(1, 1, 100.0)
	if got := hf.HeightAt(1, 1); got != 100.0 {
		t.Errorf("HeightAt = %v, want 100.0", got)
	}
}

func TestHeightfieldDefaultsToNoData(t *testing.T) {
	hf := NewHeightfield(2, 2)
	if hf.HeightAt(0, 0) != NoDataValue {
		t.Errorf("expected NoDataValue default, got %v", hf.HeightAt(0, 0))
	}
}

func TestHeightfieldBilinearInterpolation(t *testing.T) {
	hf := NewHeightfield(2, 2)
	hf.SetHeightAt(0, 0, 0)
	hf.SetHeightAt(1, 0, 100)
	hf.SetHeightAt(0, 1, 0)
	hf.SetHeightAt(1, 1, 100)

	// u=0.5 -> midway in X; v=1 -> row 0 (top, since v=0 is bottom/south).
	got := hf.HeightAtUV(0.5, 1.0, SamplingBilinear)
	if math.Abs(float64(got)-50.0) > 1e-3 {
		t.Errorf("bilinear mid = %v, want 50", got)
	}
}

// TestHeightfieldBilinearSubstitutesNoDataCorners covers the deterministic
// no-data substitution rule: an invalid corner is replaced by the first
// valid corner in scan order (a,b,c,d) and the result is interpolated with
// the original, un-renormalized weights — not averaged over whichever
// corners happen to be valid.
func TestHeightfieldBilinearSubstitutesNoDataCorners(t *testing.T) {
	hf := NewHeightfield(2, 2)
	hf.SetHeightAt(0, 0, 10) // a
	hf.SetHeightAt(1, 0, 20) // b
	hf.SetHeightAt(0, 1, NoDataValue) // c
	hf.SetHeightAt(1, 1, NoDataValue) // d

	got := hf.HeightAtUV(0.5, 0.5, SamplingBilinear)
	if math.Abs(float64(got)-12.5) > 1e-3 {
		t.Errorf("bilinear with substituted no-data corners = %v, want 12.5", got)
	}
}

func TestHeightfieldAllNoDataReturnsNoData(t *testing.T) {
	hf := NewHeightfield(2, 2)
	got := hf.HeightAtUV(0.5, 0.5, SamplingBilinear)
	if got != NoDataValue {
		t.Errorf("expected NoDataValue, got %v", got)
	}
}

func TestHeightfieldNearest(t *testing.T) {
	hf := NewHeightfield(2, 2)
	hf.SetHeightAt(0, 0, 1)
	hf.SetHeightAt(1, 0, 2)
	hf.SetHeightAt(0, 1, 3)
	hf.SetHeightAt(1, 1, 4)

	got := hf.HeightAtUV(0.9, 0.9, SamplingNearest)
	if got != 2 { // u near 1 -> col 1, v near 1 -> row 0 (top)
		t.Errorf("nearest = %v, want 2", got)
	}
}
