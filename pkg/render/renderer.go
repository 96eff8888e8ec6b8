package render

import (
	"image/color"

	"github.com/taigrr/turntable/pkg/scene"
	"golang.org/x/image/draw"
)

// Options configures a Renderer.
type Options struct {
	// Transparent clears to fully transparent pixels instead of ClearColor.
	Transparent bool
	// Antialias renders at twice the resolution and filters down.
	Antialias bool
	// ClearColor is used when Transparent is false.
	ClearColor color.RGBA
}

const supersample = 2

// Renderer draws a scene through a camera into its output surface.
type Renderer struct {
	opts    Options
	width   int
	height  int
	surface *Framebuffer // what hosts present
	work    *Framebuffer // rasterization target; equals surface without antialiasing
	raster  *Rasterizer
	camera  *Camera
	frames  uint64
	resizes int
}

// NewRenderer creates a renderer with a zero-sized surface. Call SetSize
// before rendering.
func NewRenderer(opts Options) *Renderer {
	r := &Renderer{opts: opts}
	r.allocate(0, 0)
	return r
}

// Options returns the renderer configuration.
func (r *Renderer) Options() Options {
	return r.opts
}

// SetSize resizes the output surface to width×height pixels.
func (r *Renderer) SetSize(width, height int) {
	r.resizes++
	if width == r.width && height == r.height {
		return
	}
	r.allocate(width, height)
}

func (r *Renderer) allocate(width, height int) {
	r.width, r.height = width, height
	r.surface = NewFramebuffer(width, height)
	if r.opts.Antialias {
		r.work = NewFramebuffer(width*supersample, height*supersample)
	} else {
		r.work = r.surface
	}
	r.raster = nil
}

// Size returns the output surface size.
func (r *Renderer) Size() (width, height int) {
	return r.width, r.height
}

// Surface returns the output framebuffer. The pointer changes when the
// size changes.
func (r *Renderer) Surface() *Framebuffer {
	return r.surface
}

// Frames returns how many times Render has run.
func (r *Renderer) Frames() uint64 {
	return r.frames
}

// Resizes returns how many times SetSize has been called.
func (r *Renderer) Resizes() int {
	return r.resizes
}

// TrianglesDrawn reports how many triangles survived culling in the last frame.
func (r *Renderer) TrianglesDrawn() int {
	if r.raster == nil {
		return 0
	}
	return r.raster.TrianglesDrawn
}

// Render draws s as seen by cam. The output depends only on the scene and
// camera state; an empty scene produces a cleared surface.
func (r *Renderer) Render(s *scene.Scene, cam *Camera) {
	r.frames++
	if r.raster == nil || r.camera != cam {
		r.raster = NewRasterizer(cam, r.work)
		r.camera = cam
	}

	bg := r.opts.ClearColor
	if r.opts.Transparent {
		bg = color.RGBA{}
	}
	r.work.Clear(bg)
	r.raster.ClearDepth()

	if model := s.Model(); model != nil {
		lighting := NewLighting(s.Lights())
		model.TraverseDrawables(func(n *scene.Node) {
			r.raster.DrawMesh(n.Geometry, n.WorldMatrix(), n.Material, lighting)
		})
	}

	if r.work != r.surface && r.width > 0 && r.height > 0 {
		draw.BiLinear.Scale(r.surface.Image(), r.surface.Image().Bounds(), r.work.Image(), r.work.Image().Bounds(), draw.Src, nil)
	}
}
