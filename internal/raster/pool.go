package raster

import "sync"

// poolKey identifies an image pool by format and dimensions, generalizing
// the teacher's rgbaPoolKey{w,h} to also key on PixelFormat.
type poolKey struct {
	format PixelFormat
	w, h   int
}

// imagePools maps poolKey -> *sync.Pool of *Image. sync.Map keeps the hot
// path lock-free; in practice only a handful of distinct (format, tile
// size) combinations exist per running pager.
var imagePools sync.Map

// GetImage returns a zeroed *Image from the pool, or allocates a new one.
func GetImage(format PixelFormat, w, h int) *Image {
	key := poolKey{format, w, h}
	if p, ok := imagePools.Load(key); ok {
		if v := p.(*sync.Pool).Get(); v != nil {
			img := v.(*Image)
			clear(img.Pix)
			return img
		}
	}
	return NewImage(format, w, h)
}

// PutImage returns an *Image to the pool for reuse. Nil images are ignored.
func PutImage(img *Image) {
	if img == nil {
		return
	}
	key := poolKey{img.Format, img.Width, img.Height}
	p, _ := imagePools.LoadOrStore(key, &sync.Pool{})
	p.(*sync.Pool).Put(img)
}
