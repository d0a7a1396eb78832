// Package state implements TerrainState: the per-tile GPU descriptor
// binding model built from a terrain tile's render model. There is no GPU
// here — no VSG, no Vulkan — so "binding" means assembling the data a
// renderer would upload (sampler specs, texture images, the per-tile
// uniform block) rather than issuing any driver calls. Grounded on
// original_source/src/rocky/vsg/engine/TerrainState.cpp.
package state

import (
	"github.com/pelicanmapping/rocky-terrain/internal/geo"
	"github.com/pelicanmapping/rocky-terrain/internal/raster"
	"github.com/pelicanmapping/rocky-terrain/internal/runtime"
	"github.com/pelicanmapping/rocky-terrain/internal/terrain/model"
	"github.com/pelicanmapping/rocky-terrain/internal/terrain/node"
)

// Binding indices, set 0. Set 1 is reserved for view-dependent lights and
// viewport data the original composes in via PipelineUtils — out of scope
// here since there's no view-dependent state without a GPU pipeline.
const (
	ElevationBinding  = 10
	ColorBinding      = 11
	NormalBinding     = 12
	TileBufferBinding = 13
)

// FilterMode mirrors a GPU sampler's min/mag filter.
type FilterMode int

const (
	FilterNearest FilterMode = iota
	FilterLinear
)

// AddressMode mirrors a GPU sampler's wrap behavior. Every sampler in this
// model clamps, so this exists for documentation parity with
// TerrainState.cpp's explicit VK_SAMPLER_ADDRESS_MODE_CLAMP_TO_EDGE rather
// than to express a real choice.
type AddressMode int

const (
	AddressClampToEdge AddressMode = iota
)

// SamplerSpec is the data a renderer would hand to its sampler-object
// cache; it carries no driver handle because there is no driver.
type SamplerSpec struct {
	MinFilter, MagFilter FilterMode
	Mipmap               bool
	MaxLod               float64
	AddressMode          AddressMode
	Anisotropy           float64
}

// Sampler specs, one shared instance per channel across every tile —
// matches TerrainState.cpp's createDefaultDescriptors building exactly one
// vsg::Sampler per channel and sharing it across all tiles' descriptor
// sets.
var (
	ColorSampler = SamplerSpec{
		MinFilter: FilterLinear, MagFilter: FilterLinear,
		Mipmap: true, MaxLod: 5,
		AddressMode: AddressClampToEdge, Anisotropy: 4,
	}
	ElevationSampler = SamplerSpec{
		MinFilter: FilterLinear, MagFilter: FilterLinear,
		MaxLod: 16, AddressMode: AddressClampToEdge,
	}
	NormalSampler = SamplerSpec{
		MinFilter: FilterLinear, MagFilter: FilterLinear,
		MaxLod: 16, AddressMode: AddressClampToEdge,
	}
)

// ColorTexture is the color channel's binding: name, image, and the
// scale/bias matrix locating the tile within that image.
type ColorTexture struct {
	Name   string
	Image  *raster.Image
	Matrix geo.ScaleBiasMatrix
}

// ElevationTexture is the elevation channel's binding.
type ElevationTexture struct {
	Name        string
	Heightfield *raster.Heightfield
	Matrix      geo.ScaleBiasMatrix
}

// NormalTexture is the normal-map channel's binding.
type NormalTexture struct {
	Name   string
	Image  *raster.Image
	Matrix geo.ScaleBiasMatrix
}

// Mat4 is a column-major 4x4 matrix, used only for the per-tile model
// matrix — the rest of this module expresses scale/bias as
// geo.ScaleBiasMatrix, which has no room for a general translation/rotation.
type Mat4 [16]float64

// IdentityMat4 is the zero-translation, unit-scale model matrix.
var IdentityMat4 = Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 1, 0,
	0, 0, 0, 1,
}

// TranslationMat4 builds a pure-translation model matrix centered at p,
// mirroring SurfaceNode's role as a vsg::MatrixTransform whose matrix
// recenters tile geometry at its own bounding sphere center for
// single-precision rendering.
func TranslationMat4(p geo.Point3) Mat4 {
	m := IdentityMat4
	m[12], m[13], m[14] = p.X, p.Y, p.Z
	return m
}

// TileUniforms is the per-tile uniform buffer TerrainState.cpp assembles
// at TILE_BUFFER_BINDING.
type TileUniforms struct {
	ElevationMatrix geo.ScaleBiasMatrix
	ColorMatrix     geo.ScaleBiasMatrix
	NormalMatrix    geo.ScaleBiasMatrix
	ModelMatrix     Mat4
}

// DescriptorSet is everything bound under set 0 for one tile: three sampled
// images plus the uniform block. Any channel may be the State's default
// placeholder when the tile's render model lacks that channel.
type DescriptorSet struct {
	Elevation ElevationTexture
	Color     ColorTexture
	Normal    NormalTexture
	Uniforms  TileUniforms
}

// defaultColorImage, defaultElevation, and defaultNormal are the 1x1
// placeholders TerrainState.cpp builds once in createDefaultDescriptors:
// opaque orange, zero elevation, and a straight-up tangent-space normal —
// so every tile has a valid descriptor set even before any layer resolves.
func defaultColorImage() *raster.Image {
	img := raster.NewImage(raster.R8G8B8A8, 1, 1)
	img.Set(0, 0, [4]float64{1, 0.647, 0, 1}) // orange
	return img
}

func defaultElevationHeightfield() *raster.Heightfield {
	hf := raster.NewHeightfield(1, 1)
	hf.SetHeightAt(0, 0, 0)
	return hf
}

func defaultNormalImage() *raster.Image {
	img := raster.NewImage(raster.R8G8B8, 1, 1)
	img.Set(0, 0, [4]float64{0.5, 0.5, 1, 0})
	return img
}

// State owns the shared sampler specs and the default descriptor set every
// tile starts from, matching TerrainState's one-time
// createDefaultDescriptors setup.
type State struct {
	Defaults DescriptorSet
}

// New builds a State with its default (placeholder) descriptor set.
func New() *State {
	return &State{
		Defaults: DescriptorSet{
			Elevation: ElevationTexture{Name: "elevation_tex", Heightfield: defaultElevationHeightfield(), Matrix: geo.Identity},
			Color:     ColorTexture{Name: "color_tex", Image: defaultColorImage(), Matrix: geo.Identity},
			Normal:    NormalTexture{Name: "normal_tex", Image: defaultNormalImage(), Matrix: geo.Identity},
			Uniforms:  TileUniforms{ModelMatrix: IdentityMat4},
		},
	}
}

// Bind assembles a tile's DescriptorSet from its resolved render model and
// surface, falling back to s.Defaults per channel when the model has no
// data for it — TerrainState.cpp's updateTerrainTileDescriptors only
// replaces the channels renderModel actually supplies, leaving the rest of
// the previous (often still-default) descriptor untouched.
func (s *State) Bind(tm *model.TileModel, surface *node.SurfaceNode) DescriptorSet {
	ds := s.Defaults

	if tm != nil && tm.Color != nil {
		ds.Color = ColorTexture{
			Name:   tm.Color.Name,
			Image:  tm.Color.Image.Image,
			Matrix: tm.Color.Matrix,
		}
	}
	if tm != nil && tm.Elevation != nil {
		ds.Elevation = ElevationTexture{
			Name:        "elevation_tex",
			Heightfield: tm.Elevation.Heightfield.Heightfield,
			Matrix:      tm.Elevation.Matrix,
		}
	}
	if tm != nil && tm.NormalMap != nil {
		ds.Normal = NormalTexture{
			Name:   "normal_tex",
			Image:  tm.NormalMap.Image,
			Matrix: tm.NormalMap.Matrix,
		}
	}

	ds.Uniforms = TileUniforms{
		ElevationMatrix: ds.Elevation.Matrix,
		ColorMatrix:     ds.Color.Matrix,
		NormalMatrix:    ds.Normal.Matrix,
		ModelMatrix:     IdentityMat4,
	}
	if surface != nil {
		ds.Uniforms.ModelMatrix = TranslationMat4(surface.Bound.Center)
	}

	return ds
}

// Rebind replaces tile's bound DescriptorSet with one built from tm and
// surface, pushing the old set onto rt's deferred-disposal ring instead of
// dropping it immediately — spec.md §4.5's "queued for deferred
// destruction... because another frame in flight may still reference it".
func (s *State) Rebind(rt *runtime.Runtime, old DescriptorSet, tm *model.TileModel, surface *node.SurfaceNode) DescriptorSet {
	next := s.Bind(tm, surface)
	rt.DeferredUnref(old)
	return next
}
