package render

import (
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/taigrr/turntable/pkg/math3d"
	"github.com/taigrr/turntable/pkg/models"
	"github.com/taigrr/turntable/pkg/scene"
)

// rgb is a linear-light colour.
type rgb struct{ R, G, B float64 }

func (a rgb) add(b rgb) rgb { return rgb{a.R + b.R, a.G + b.G, a.B + b.B} }

func (a rgb) mul(b rgb) rgb { return rgb{a.R * b.R, a.G * b.G, a.B * b.B} }

func (a rgb) scale(s float64) rgb { return rgb{a.R * s, a.G * s, a.B * s} }

const linearLUTSize = 4096

var (
	srgbToLinear [256]float64
	linearToSRGB [linearLUTSize + 1]uint8
)

func init() {
	for i := range srgbToLinear {
		v := float64(i) / 255
		srgbToLinear[i], _, _ = colorful.Color{R: v, G: v, B: v}.LinearRgb()
	}
	for i := range linearToSRGB {
		v := float64(i) / linearLUTSize
		r, _, _ := colorful.LinearRgb(v, v, v).RGB255()
		linearToSRGB[i] = r
	}
}

// decode converts a stored 8-bit colour to linear light.
func decode(c color.RGBA, space models.ColorSpace) rgb {
	if space == models.ColorSpaceSRGB {
		return rgb{srgbToLinear[c.R], srgbToLinear[c.G], srgbToLinear[c.B]}
	}
	return rgb{float64(c.R) / 255, float64(c.G) / 255, float64(c.B) / 255}
}

// encode converts linear light to an opaque sRGB pixel, clamping overexposure.
func encode(c rgb) color.RGBA {
	q := func(v float64) uint8 {
		if v <= 0 {
			return 0
		}
		if v >= 1 {
			return 255
		}
		return linearToSRGB[int(v*linearLUTSize+0.5)]
	}
	return color.RGBA{q(c.R), q(c.G), q(c.B), 255}
}

type directional struct {
	dir      math3d.Vec3
	radiance rgb
}

// Lighting is the scene's light set reduced to what the rasterizer needs.
type Lighting struct {
	ambient     rgb
	directional []directional
}

// NewLighting collects ambient and directional contributions from lights.
// Light colours are treated as sRGB, the way colour pickers specify them.
func NewLighting(lights []scene.Light) Lighting {
	var l Lighting
	for _, light := range lights {
		c := decode(light.Color, models.ColorSpaceSRGB).scale(light.Intensity)
		switch light.Kind {
		case scene.AmbientLight:
			l.ambient = l.ambient.add(c)
		case scene.DirectionalLight:
			l.directional = append(l.directional, directional{dir: light.Direction(), radiance: c})
		}
	}
	return l
}

// irradiance returns the light reaching a surface with normal n, with the
// diffuse term scaled by kd.
func (l Lighting) irradiance(n math3d.Vec3, kd float64) rgb {
	out := l.ambient
	for _, d := range l.directional {
		if ndl := n.Dot(d.dir); ndl > 0 {
			out = out.add(d.radiance.scale(ndl * kd))
		}
	}
	return out
}

// diffuseFactor approximates how much light a standard material scatters
// diffusely: metals reflect almost nothing diffusely, rough dielectrics
// scatter everything.
func diffuseFactor(m *models.Material) float64 {
	if m == nil {
		return 1
	}
	return (1 - m.Metalness) * (0.5 + 0.5*m.Roughness)
}
