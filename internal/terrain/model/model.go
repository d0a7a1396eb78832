// Package model implements the TerrainTileModelFactory: compositing a
// TileKey against the active layer stack of a Map into a TileModel (color,
// elevation, normal). Grounded on original_source/src/rocky's
// TerrainTileModelFactory.cpp and the ancestor-fallback behavior described
// around GeoHeightfield::heightAtUV and GeoImage's scale/bias usage.
package model

import (
	"context"
	"math"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/pelicanmapping/rocky-terrain/internal/geo"
	"github.com/pelicanmapping/rocky-terrain/internal/layer"
	"github.com/pelicanmapping/rocky-terrain/internal/raster"
	"github.com/pelicanmapping/rocky-terrain/internal/status"
)

// metersPerDegree approximates the WGS84 equatorial scale, used only to
// size the normal map's finite-difference step. It is not a substitute for
// a real ENU reprojection; see deriveNormalMap.
const metersPerDegree = 111320.0

// ColorLayer is one ImageLayer's contribution to a TileModel.
type ColorLayer struct {
	LayerUID layer.UID
	Name     string
	Image    raster.GeoImage
	Matrix   geo.ScaleBiasMatrix
}

// ElevationChannel is the single elevation contribution to a TileModel.
type ElevationChannel struct {
	Heightfield raster.GeoHeightfield
	Matrix      geo.ScaleBiasMatrix
	KeyUsed     geo.TileKey
}

// NormalMapChannel holds a normal map derived from ElevationChannel, using
// the same scale/bias matrix (it shares the elevation channel's source key).
type NormalMapChannel struct {
	Image  *raster.Image
	Matrix geo.ScaleBiasMatrix
}

// TileModel is the factory's output: everything a TerrainTileRenderModel
// needs to be built for key. Any channel may be nil/empty when no layer
// (or ancestor of one) had data — the caller inherits that channel from
// the parent tile's render model instead of failing the whole key.
type TileModel struct {
	Key         geo.TileKey
	ColorLayers []ColorLayer
	Color       *ColorLayer
	Elevation   *ElevationChannel
	NormalMap   *NormalMapChannel
	Revision    uint64
}

// HasColor reports whether any color layer resolved data (directly or via
// ancestor fallback).
func (m TileModel) HasColor() bool { return len(m.ColorLayers) > 0 }

// Release returns pool-backed scratch buffers this TileModel allocated back
// to internal/raster's image pool, mirroring the teacher's rgbaPool
// recycling of per-tile RGBA buffers across loads. A single-layer composite
// reuses its source layer's image verbatim (see compositeColor) and must
// not be pooled; only the synthesized multi-layer blend and the derived
// normal map are ever released.
func (m TileModel) Release() {
	if m.Color != nil && m.Color.Name == compositeLayerName && len(m.ColorLayers) > 1 {
		raster.PutImage(m.Color.Image.Image)
	}
	if m.NormalMap != nil {
		raster.PutImage(m.NormalMap.Image)
	}
}

// compositeLayerName is recorded on TileModel.Color when more than one
// ColorLayer contributed — no single open layer owns the combined result.
const compositeLayerName = "composite"

// compositeColor alpha-overs layers in order (first layer on the bottom, as
// per spec's "alpha-over by layer order") into a single Identity-matrix
// ColorLayer sized to the first layer's resolution. A single contributing
// layer is returned unchanged except for the synthetic name, since there is
// nothing to blend.
func compositeColor(layers []ColorLayer) *ColorLayer {
	if len(layers) == 0 {
		return nil
	}
	if len(layers) == 1 {
		out := layers[0]
		out.Name = compositeLayerName
		out.Matrix = geo.Identity
		return &out
	}

	w, h := layers[0].Image.Image.Width, layers[0].Image.Image.Height
	if w < 1 || h < 1 {
		w, h = 1, 1
	}
	dst := raster.GetImage(raster.R8G8B8A8, w, h)
	for row := 0; row < h; row++ {
		v := 1.0 - (float64(row)+0.5)/float64(h)
		for col := 0; col < w; col++ {
			u := (float64(col) + 0.5) / float64(w)
			dst.Set(col, row, blendLayers(layers, u, v))
		}
	}

	return &ColorLayer{
		Name:   compositeLayerName,
		Image:  raster.GeoImage{Image: dst, Extent: layers[0].Image.Extent},
		Matrix: geo.Identity,
	}
}

// blendLayers samples every layer at tile-parametric (u,v) — remapped
// through each layer's own scale/bias into that layer's source frame — and
// alpha-overs them bottom to top.
func blendLayers(layers []ColorLayer, u, v float64) [4]float64 {
	var out [4]float64
	for _, l := range layers {
		su := u*l.Matrix.ScaleX + l.Matrix.BiasX
		sv := v*l.Matrix.ScaleY + l.Matrix.BiasY
		src := l.Image.Image.SampleUV(su, sv, raster.SamplingBilinear)
		srcA := src[3]
		for c := 0; c < 3; c++ {
			out[c] = src[c]*srcA + out[c]*(1-srcA)
		}
		out[3] = srcA + out[3]*(1-srcA)
	}
	return out
}

// HasElevation reports whether the elevation channel resolved.
func (m TileModel) HasElevation() bool { return m.Elevation != nil }

// Manifest filters which layers a CreateTileModel call considers. A nil
// ColorLayerUIDs means "all open image layers in the map".
type Manifest struct {
	ColorLayerUIDs   []layer.UID
	IncludeElevation bool
}

func containsUID(ids []layer.UID, uid layer.UID) bool {
	for _, id := range ids {
		if id == uid {
			return true
		}
	}
	return false
}

type imageCacheKey struct {
	uid layer.UID
	key geo.TileKey
}

type heightfieldCacheKey struct {
	uid layer.UID
	key geo.TileKey
}

// Factory builds TileModels, memoizing the ancestor walk per (layer, key)
// in a bounded LRU so that sibling tiles pinging the same missing LOD don't
// each re-issue the same upstream fetch.
type Factory struct {
	imageCache       *lru.Cache[imageCacheKey, status.Result[raster.GeoImage]]
	heightfieldCache *lru.Cache[heightfieldCacheKey, status.Result[raster.GeoHeightfield]]
}

// NewFactory constructs a Factory whose ancestor caches each hold up to
// cacheSize entries per raster kind.
func NewFactory(cacheSize int) *Factory {
	ic, _ := lru.New[imageCacheKey, status.Result[raster.GeoImage]](cacheSize)
	hc, _ := lru.New[heightfieldCacheKey, status.Result[raster.GeoHeightfield]](cacheSize)
	return &Factory{imageCache: ic, heightfieldCache: hc}
}

// CreateTileModel composites key against m's active layers per manifest.
// Per spec, a layer with no data at key walks up ancestor keys until one
// returns data or the profile root is reached; if none do, the channel is
// simply omitted. Every resolved ColorLayer is also alpha-over combined,
// first layer on the bottom, into TileModel.Color — the single raster a
// renderer actually binds. Only OperationCanceled aborts the whole call
// early.
func (f *Factory) CreateTileModel(ctx context.Context, m *layer.Map, key geo.TileKey, manifest Manifest) status.Result[TileModel] {
	tm := TileModel{Key: key, Revision: m.Revision()}

	for _, il := range m.ImageLayers() {
		if manifest.ColorLayerUIDs != nil && !containsUID(manifest.ColorLayerUIDs, il.UID()) {
			continue
		}
		if !il.IsOpen() {
			continue
		}
		gi, foundKey, s := f.fetchImage(ctx, il, key)
		if s.Kind == status.OperationCanceled {
			return status.Fail[TileModel](s)
		}
		if s.Failed() {
			continue
		}
		matrix := geo.Identity
		if !foundKey.Equal(key) {
			matrix = key.Extent().CreateScaleBias(foundKey.Extent())
		}
		tm.ColorLayers = append(tm.ColorLayers, ColorLayer{
			LayerUID: il.UID(), Name: il.Name(), Image: gi, Matrix: matrix,
		})
	}

	tm.Color = compositeColor(tm.ColorLayers)

	if manifest.IncludeElevation {
		for _, el := range m.ElevationLayers() {
			if !el.IsOpen() {
				continue
			}
			ghf, foundKey, s := f.fetchHeightfield(ctx, el, key)
			if s.Kind == status.OperationCanceled {
				return status.Fail[TileModel](s)
			}
			if s.Failed() {
				continue
			}
			matrix := geo.Identity
			if !foundKey.Equal(key) {
				matrix = key.Extent().CreateScaleBias(foundKey.Extent())
			}
			tm.Elevation = &ElevationChannel{Heightfield: ghf, Matrix: matrix, KeyUsed: foundKey}
			tm.NormalMap = deriveNormalMap(ghf, matrix)
			break // spec.md §3: a single elevation path per tile
		}
	}

	return status.Ok(tm)
}

// fetchImage resolves an ImageLayer's data for key, walking ancestor keys
// on ResourceUnavailable. Every level visited is memoized (success and
// failure alike) so repeated walks along the same ancestor chain collapse
// to a cache hit.
func (f *Factory) fetchImage(ctx context.Context, il layer.ImageLayer, origKey geo.TileKey) (raster.GeoImage, geo.TileKey, status.Status) {
	k := origKey
	for {
		select {
		case <-ctx.Done():
			return raster.GeoImage{}, k, status.Error(status.OperationCanceled)
		default:
		}

		ck := imageCacheKey{il.UID(), k}
		result, ok := f.imageCache.Get(ck)
		if !ok {
			result = il.CreateImage(ctx, k)
			f.imageCache.Add(ck, result)
		}
		if result.Ok() {
			return result.Value, k, status.OKStatus
		}
		if result.Status.Kind != status.ResourceUnavailable {
			return raster.GeoImage{}, k, result.Status
		}
		if k.LOD == 0 {
			return raster.GeoImage{}, k, result.Status
		}
		k = k.CreateParentKey()
	}
}

func (f *Factory) fetchHeightfield(ctx context.Context, el layer.ElevationLayer, origKey geo.TileKey) (raster.GeoHeightfield, geo.TileKey, status.Status) {
	k := origKey
	for {
		select {
		case <-ctx.Done():
			return raster.GeoHeightfield{}, k, status.Error(status.OperationCanceled)
		default:
		}

		ck := heightfieldCacheKey{el.UID(), k}
		result, ok := f.heightfieldCache.Get(ck)
		if !ok {
			result = el.CreateHeightfield(ctx, k)
			f.heightfieldCache.Add(ck, result)
		}
		if result.Ok() {
			return result.Value, k, status.OKStatus
		}
		if result.Status.Kind != status.ResourceUnavailable {
			return raster.GeoHeightfield{}, k, result.Status
		}
		if k.LOD == 0 {
			return raster.GeoHeightfield{}, k, result.Status
		}
		k = k.CreateParentKey()
	}
}

// deriveNormalMap finite-differences the heightfield into a tangent-space
// normal map (RGB, n*0.5+0.5 packed). The horizontal step is approximated
// in meters via metersPerDegree·cos(lat) rather than a full ENU
// reprojection — adequate for shading at terrain-tile scale, and far
// cheaper than transforming every sample through the SRS.
func deriveNormalMap(ghf raster.GeoHeightfield, matrix geo.ScaleBiasMatrix) *NormalMapChannel {
	hf := ghf.Heightfield
	w, h := hf.Width, hf.Height
	if w < 2 || h < 2 {
		return nil
	}

	_, centroidLat := ghf.Extent.Centroid()
	cosLat := math.Cos(centroidLat * math.Pi / 180.0)
	if cosLat < 0.01 {
		cosLat = 0.01
	}
	dx := (ghf.Extent.Width / float64(w-1)) * metersPerDegree * cosLat
	dy := (ghf.Extent.Height / float64(h-1)) * metersPerDegree

	img := raster.GetImage(raster.R8G8B8, w, h)
	heightOrNeighbor := func(col, row int, fallback float32) float32 {
		v := hf.HeightAt(col, row)
		if raster.IsNoData(float64(v)) {
			return fallback
		}
		return v
	}

	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			center := hf.HeightAt(col, row)
			if raster.IsNoData(float64(center)) {
				img.Set(col, row, [4]float64{0.5, 0.5, 1.0, 0})
				continue
			}

			left := heightOrNeighbor(clampCol(col-1, w), row, center)
			right := heightOrNeighbor(clampCol(col+1, w), row, center)
			down := heightOrNeighbor(col, clampCol(row-1, h), center)
			up := heightOrNeighbor(col, clampCol(row+1, h), center)

			dzdx := float64(right-left) / (2 * dx)
			dzdy := float64(up-down) / (2 * dy)

			nx, ny, nz := -dzdx, -dzdy, 1.0
			n := math.Sqrt(nx*nx + ny*ny + nz*nz)
			if n > 0 {
				nx, ny, nz = nx/n, ny/n, nz/n
			}
			img.Set(col, row, [4]float64{nx*0.5 + 0.5, ny*0.5 + 0.5, nz*0.5 + 0.5, 0})
		}
	}

	return &NormalMapChannel{Image: img, Matrix: matrix}
}

func clampCol(v, size int) int {
	if v < 0 {
		return 0
	}
	if v >= size {
		return size - 1
	}
	return v
}
