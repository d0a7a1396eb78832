package raster

import "github.com/pelicanmapping/rocky-terrain/internal/geo"

// GeoImage pairs an Image with the geographic extent it covers.
type GeoImage struct {
	Image  *Image
	Extent geo.Extent
}

// GeoHeightfield pairs a Heightfield with the geographic extent it covers.
type GeoHeightfield struct {
	Heightfield *Heightfield
	Extent      geo.Extent
}

// uv converts a geographic (x,y) coordinate into this extent's normalized
// parametric coordinates, clamping to [0,1].
func uv(e geo.Extent, x, y float64) (u, v float64) {
	if e.Width > 0 {
		u = (x - e.Xmin()) / e.Width
	}
	if e.Height > 0 {
		v = (y - e.Ymin()) / e.Height
	}
	return clampUnit(u), clampUnit(v)
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ReadValue samples the image at geographic coordinate (x,y).
func (gi GeoImage) ReadValue(x, y float64, mode Sampling) [4]float64 {
	u, v := uv(gi.Extent, x, y)
	return gi.Image.SampleUV(u, v, mode)
}

// HeightAt samples the heightfield at geographic coordinate (x,y).
func (ghf GeoHeightfield) HeightAt(x, y float64, mode Sampling) float32 {
	u, v := uv(ghf.Extent, x, y)
	return ghf.Heightfield.HeightAtUV(u, v, mode)
}

