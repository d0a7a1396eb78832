// Package raster implements typed tile imagery and elevation grids, with
// no-data-aware sampling. Generalized from the teacher's RGBA-only
// internal/tile/resample.go and downsample.go to the full set of pixel
// formats spec.md's Image/Heightfield model requires.
package raster

import "fmt"

// PixelFormat identifies a pixel's channel layout and storage type.
type PixelFormat int

const (
	R8 PixelFormat = iota
	R8G8
	R8G8B8
	R8G8B8A8
	R16
	R32F
	R64F
)

// Channels returns the number of channels in the format.
func (f PixelFormat) Channels() int {
	switch f {
	case R8, R16, R32F, R64F:
		return 1
	case R8G8:
		return 2
	case R8G8B8:
		return 3
	case R8G8B8A8:
		return 4
	default:
		return 0
	}
}

// BytesPerChannel returns the storage size of a single channel.
func (f PixelFormat) BytesPerChannel() int {
	switch f {
	case R8, R8G8, R8G8B8, R8G8B8A8:
		return 1
	case R16:
		return 2
	case R32F:
		return 4
	case R64F:
		return 8
	default:
		return 0
	}
}

// BytesPerPixel returns the total storage size of one pixel.
func (f PixelFormat) BytesPerPixel() int {
	return f.Channels() * f.BytesPerChannel()
}

// Float reports whether the format stores floating-point samples.
func (f PixelFormat) Float() bool {
	return f == R32F || f == R64F
}

func (f PixelFormat) String() string {
	switch f {
	case R8:
		return "R8"
	case R8G8:
		return "R8G8"
	case R8G8B8:
		return "R8G8B8"
	case R8G8B8A8:
		return "R8G8B8A8"
	case R16:
		return "R16"
	case R32F:
		return "R32F"
	case R64F:
		return "R64F"
	default:
		return fmt.Sprintf("PixelFormat(%d)", int(f))
	}
}
