package raster

// Sampling selects the interpolation strategy used when reading a raster at
// non-integer coordinates.
type Sampling int

const (
	SamplingNearest Sampling = iota
	SamplingBilinear
	SamplingTriangulate
	SamplingAverage
)

// isNoDataPixel reports whether a sampled color pixel should be treated as
// missing data: alpha 0 for formats with an alpha channel, matching the
// teacher's "p.A == 0 means nodata" convention in downsampleQuadrantBilinear.
func isNoDataPixel(format PixelFormat, v [4]float64) bool {
	return format == R8G8B8A8 && v[3] == 0
}

// SampleUV reads img at normalized parametric coordinates (u,v) in
// [0,1]x[0,1] (u=0 west, v=0 south), using mode. A nodata-flagged corner
// (alpha==0) is replaced by the first valid corner in scan order (a,b,c,d)
// before interpolation, per the deterministic corner-substitution rule —
// not renormalized weights over whichever corners happen to be valid.
func (img *Image) SampleUV(u, v float64, mode Sampling) [4]float64 {
	if img.Width == 0 || img.Height == 0 {
		return [4]float64{}
	}
	fx := u * float64(img.Width-1)
	fy := (1.0 - v) * float64(img.Height-1)

	if mode == SamplingNearest {
		x := clampInt(int(fx+0.5), 0, img.Width-1)
		y := clampInt(int(fy+0.5), 0, img.Height-1)
		return img.At(x, y)
	}

	x0, y0 := int(fx), int(fy)
	x1, y1 := clampInt(x0+1, 0, img.Width-1), clampInt(y0+1, 0, img.Height-1)
	x0, y0 = clampInt(x0, 0, img.Width-1), clampInt(y0, 0, img.Height-1)
	dx, dy := fx-float64(x0), fy-float64(y0)

	pixels := [4][4]float64{img.At(x0, y0), img.At(x1, y0), img.At(x0, y1), img.At(x1, y1)}
	if !substituteNoDataPixels(img.Format, pixels[:]) {
		return [4]float64{}
	}

	weights := [4]float64{(1 - dx) * (1 - dy), dx * (1 - dy), (1 - dx) * dy, dx * dy}
	var out [4]float64
	for i, p := range pixels {
		for c := 0; c < 4; c++ {
			out[c] += p[c] * weights[i]
		}
	}
	return out
}

// substituteNoDataPixels applies the same deterministic scan-order
// substitution as raster.substituteNoData, but for whole pixels gated by
// isNoDataPixel instead of a single no-data sentinel value. Reports false
// only when every pixel is nodata-flagged.
func substituteNoDataPixels(format PixelFormat, pixels [][4]float64) bool {
	first := -1
	for i, p := range pixels {
		if !isNoDataPixel(format, p) {
			first = i
			break
		}
	}
	if first == -1 {
		return false
	}
	for i, p := range pixels {
		if isNoDataPixel(format, p) {
			pixels[i] = pixels[first]
		}
	}
	return true
}

// Downsample produces a tile-sized image by combining up to 4 quadrant
// source images (topLeft, topRight, bottomLeft, bottomRight — any may be
// nil), each contributing one quarter of the output. Ported from the
// quadrant-compositing shape of downsampleTile/downsampleQuadrant,
// generalized across PixelFormat instead of hard-coded RGBA.
func Downsample(format PixelFormat, tileSize int, mode Sampling, quadrants [4]*Image) *Image {
	dst := NewImage(format, tileSize, tileSize)
	half := tileSize / 2

	offsets := [4][2]int{{0, 0}, {half, 0}, {0, half}, {half, half}}
	for i, src := range quadrants {
		if src == nil {
			continue
		}
		downsampleQuadrant(dst, src, offsets[i][0], offsets[i][1], half, mode)
	}
	return dst
}

func downsampleQuadrant(dst, src *Image, dstOffX, dstOffY, half int, mode Sampling) {
	for dy := 0; dy < half; dy++ {
		for dx := 0; dx < half; dx++ {
			sx, sy := dx*2, dy*2
			var v [4]float64
			switch mode {
			case SamplingNearest:
				v = srcPixelClamped(src, sx, sy)
			default:
				v = averageBlock(src, sx, sy)
			}
			dst.Set(dstOffX+dx, dstOffY+dy, v)
		}
	}
}

func srcPixelClamped(img *Image, x, y int) [4]float64 {
	x = clampInt(x, 0, img.Width-1)
	y = clampInt(y, 0, img.Height-1)
	return img.At(x, y)
}

// averageBlock averages the 2x2 source block at (x,y), excluding
// nodata-flagged pixels (alpha==0) from the color channels, matching
// downsampleQuadrantBilinear's nodata-exclusion rule.
func averageBlock(img *Image, x, y int) [4]float64 {
	p00 := srcPixelClamped(img, x, y)
	p10 := srcPixelClamped(img, x+1, y)
	p01 := srcPixelClamped(img, x, y+1)
	p11 := srcPixelClamped(img, x+1, y+1)
	pixels := [4][4]float64{p00, p10, p01, p11}

	var out [4]float64
	var count float64
	for _, p := range pixels {
		if isNoDataPixel(img.Format, p) {
			continue
		}
		for c := 0; c < 3; c++ {
			out[c] += p[c]
		}
		out[3] += p[3]
		count++
	}
	if count == 0 {
		return [4]float64{}
	}
	for c := 0; c < 4; c++ {
		out[c] /= count
	}
	return out
}
