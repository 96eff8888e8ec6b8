package render

import (
	"math"

	"github.com/taigrr/turntable/pkg/math3d"
)

// Camera is a perspective camera looking at a fixed target.
//
// Changing FOV, aspect ratio or clip planes does not take effect until
// UpdateProjectionMatrix is called, so a resize can update several
// parameters and pay for one recomputation.
type Camera struct {
	Position math3d.Vec3
	Target   math3d.Vec3
	Up       math3d.Vec3

	FOV         float64 // Vertical field of view in radians
	AspectRatio float64 // Width / Height
	Near        float64
	Far         float64

	projMatrix    math3d.Mat4
	projUpdates   int
	viewMatrix    math3d.Mat4
	viewDirty     bool
	viewProj      math3d.Mat4
	viewProjDirty bool
}

// NewPerspectiveCamera creates a camera at the origin looking down -Z.
// fovDegrees is the vertical field of view.
func NewPerspectiveCamera(fovDegrees, aspect, near, far float64) *Camera {
	c := &Camera{
		Target:      math3d.V3(0, 0, -1),
		Up:          math3d.Up(),
		FOV:         fovDegrees * math.Pi / 180,
		AspectRatio: aspect,
		Near:        near,
		Far:         far,
		viewDirty:   true,
	}
	c.UpdateProjectionMatrix()
	return c
}

// SetPosition moves the camera.
func (c *Camera) SetPosition(pos math3d.Vec3) {
	c.Position = pos
	c.viewDirty = true
}

// LookAt points the camera at target.
func (c *Camera) LookAt(target math3d.Vec3) {
	c.Target = target
	c.viewDirty = true
}

// SetAspectRatio records a new aspect ratio. Call UpdateProjectionMatrix
// afterwards.
func (c *Camera) SetAspectRatio(aspect float64) {
	c.AspectRatio = aspect
}

// UpdateProjectionMatrix recomputes the projection from FOV, aspect ratio and
// clip planes.
func (c *Camera) UpdateProjectionMatrix() {
	c.projMatrix = math3d.Perspective(c.FOV, c.AspectRatio, c.Near, c.Far)
	c.projUpdates++
	c.viewProjDirty = true
}

// ProjectionUpdates returns how many times the projection was recomputed.
func (c *Camera) ProjectionUpdates() int {
	return c.projUpdates
}

// ProjectionMatrix returns the projection as of the last UpdateProjectionMatrix.
func (c *Camera) ProjectionMatrix() math3d.Mat4 {
	return c.projMatrix
}

// ViewMatrix returns the world-to-camera transform.
func (c *Camera) ViewMatrix() math3d.Mat4 {
	if c.viewDirty {
		c.viewMatrix = math3d.LookAt(c.Position, c.Target, c.Up)
		c.viewDirty = false
		c.viewProjDirty = true
	}
	return c.viewMatrix
}

// ViewProjectionMatrix returns projection * view.
func (c *Camera) ViewProjectionMatrix() math3d.Mat4 {
	view := c.ViewMatrix()
	if c.viewProjDirty {
		c.viewProj = c.projMatrix.Mul(view)
		c.viewProjDirty = false
	}
	return c.viewProj
}

// WorldToScreen projects a world point onto a screen of the given size.
// visible is false when the point is behind the camera or outside the frustum.
func (c *Camera) WorldToScreen(worldPos math3d.Vec3, screenWidth, screenHeight int) (x, y, depth float64, visible bool) {
	clipPos := c.ViewProjectionMatrix().MulVec4(math3d.V4FromV3(worldPos, 1))
	if clipPos.W <= 0 {
		return 0, 0, 0, false
	}

	ndc := clipPos.PerspectiveDivide()
	if ndc.X < -1 || ndc.X > 1 || ndc.Y < -1 || ndc.Y > 1 || ndc.Z < -1 || ndc.Z > 1 {
		return 0, 0, 0, false
	}

	x = (ndc.X + 1) * 0.5 * float64(screenWidth)
	y = (1 - ndc.Y) * 0.5 * float64(screenHeight)
	return x, y, ndc.Z, true
}
