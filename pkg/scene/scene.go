package scene

import (
	"errors"
	"image/color"

	"github.com/taigrr/turntable/pkg/math3d"
)

// ErrModelAttached is returned when a second model is attached to a scene.
var ErrModelAttached = errors.New("scene already has a model")

// LightKind selects how a light contributes to shading.
type LightKind int

const (
	// AmbientLight lights every surface equally.
	AmbientLight LightKind = iota
	// DirectionalLight shines from Position towards the origin.
	DirectionalLight
)

// Light is a fixed light source.
type Light struct {
	Kind      LightKind
	Color     color.RGBA
	Intensity float64
	Position  math3d.Vec3
}

// NewAmbientLight creates an ambient light.
func NewAmbientLight(c color.RGBA, intensity float64) Light {
	return Light{Kind: AmbientLight, Color: c, Intensity: intensity}
}

// NewDirectionalLight creates a directional light positioned at pos.
func NewDirectionalLight(c color.RGBA, intensity float64, pos math3d.Vec3) Light {
	return Light{Kind: DirectionalLight, Color: c, Intensity: intensity, Position: pos}
}

// Direction returns the unit vector pointing from the surface towards the
// light. It is zero for ambient lights.
func (l Light) Direction() math3d.Vec3 {
	if l.Kind != DirectionalLight {
		return math3d.Zero3()
	}
	return l.Position.Normalize()
}

// Scene owns the lights and at most one model.
type Scene struct {
	lights []Light
	model  *Node
}

// New creates an empty scene.
func New() *Scene {
	return &Scene{}
}

// AddLight appends a light.
func (s *Scene) AddLight(l Light) {
	s.lights = append(s.lights, l)
}

// Lights returns the scene lights in insertion order.
func (s *Scene) Lights() []Light {
	return s.lights
}

// Attach places model into the scene. The slot is written once; later
// calls return ErrModelAttached and leave the scene unchanged.
func (s *Scene) Attach(model *Node) error {
	if s.model != nil {
		return ErrModelAttached
	}
	s.model = model
	return nil
}

// Model returns the attached model, or nil while none is attached.
func (s *Scene) Model() *Node {
	return s.model
}
