package render

import (
	"image/color"
	"math"
	"testing"

	"github.com/taigrr/turntable/pkg/math3d"
	"github.com/taigrr/turntable/pkg/models"
	"github.com/taigrr/turntable/pkg/scene"
)

// mockMesh implements MeshRenderer for testing.
type mockMesh struct {
	pos   []math3d.Vec3
	faces [][3]int
}

func (m *mockMesh) TriangleCount() int   { return len(m.faces) }
func (m *mockMesh) GetFace(i int) [3]int { return m.faces[i] }
func (m *mockMesh) GetVertex(i int) (pos, normal math3d.Vec3, uv math3d.Vec2) {
	return m.pos[i], math3d.V3(0, 0, 1), math3d.V2(0.5, 0.5)
}

// frontQuad is a 4x4 quad at z=0 facing +Z, stored clockwise.
func frontQuad() *mockMesh {
	return &mockMesh{
		pos: []math3d.Vec3{
			math3d.V3(-2, -2, 0), math3d.V3(2, -2, 0), math3d.V3(2, 2, 0), math3d.V3(-2, 2, 0),
		},
		faces: [][3]int{{0, 2, 1}, {0, 3, 2}},
	}
}

func createTestRasterizer(width, height int) (*Rasterizer, *Framebuffer) {
	fb := NewFramebuffer(width, height)
	camera := NewPerspectiveCamera(60, float64(width)/float64(height), 0.1, 100)
	camera.SetPosition(math3d.V3(0, 0, 10))
	camera.LookAt(math3d.Zero3())
	return NewRasterizer(camera, fb), fb
}

func fullLight() Lighting {
	return NewLighting([]scene.Light{scene.NewAmbientLight(color.RGBA{255, 255, 255, 255}, 1)})
}

func TestBarycentric(t *testing.T) {
	tests := []struct {
		name     string
		px, py   float64
		expected math3d.Vec3
	}{
		{"vertex 0", 0, 0, math3d.V3(1, 0, 0)},
		{"vertex 1", 1, 0, math3d.V3(0, 1, 0)},
		{"vertex 2", 0, 1, math3d.V3(0, 0, 1)},
		{"centroid", 1.0 / 3, 1.0 / 3, math3d.V3(1.0/3, 1.0/3, 1.0/3)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			bc := barycentric(0, 0, 1, 0, 0, 1, tc.px, tc.py)
			if !bc.ApproxEqual(tc.expected, 0.001) {
				t.Errorf("barycentric(%v, %v) = %v, want %v", tc.px, tc.py, bc, tc.expected)
			}
		})
	}

	t.Run("outside triangle", func(t *testing.T) {
		bc := barycentric(0, 0, 1, 0, 0, 1, -1, -1)
		if bc.X >= 0 && bc.Y >= 0 && bc.Z >= 0 {
			t.Error("point outside triangle should have negative barycentric coordinate")
		}
	})
}

func TestDrawMeshFillsCenter(t *testing.T) {
	r, fb := createTestRasterizer(40, 40)
	fb.Clear(color.RGBA{})
	r.ClearDepth()

	r.DrawMesh(frontQuad(), math3d.Identity(), nil, fullLight())

	if got := fb.GetPixel(20, 20); got != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("center pixel = %v, want white", got)
	}
	if got := fb.GetPixel(0, 0); got.A != 0 {
		t.Errorf("corner pixel = %v, want untouched", got)
	}
	if r.TrianglesDrawn != 2 {
		t.Errorf("TrianglesDrawn = %d, want 2", r.TrianglesDrawn)
	}
}

func TestBackfaceCulling(t *testing.T) {
	r, fb := createTestRasterizer(40, 40)
	fb.Clear(color.RGBA{})

	back := frontQuad()
	back.faces = [][3]int{{0, 1, 2}, {0, 2, 3}}
	r.DrawMesh(back, math3d.Identity(), nil, fullLight())
	if got := fb.GetPixel(20, 20); got.A != 0 {
		t.Errorf("back face drawn: %v", got)
	}

	r.DisableBackfaceCulling = true
	r.DrawMesh(back, math3d.Identity(), nil, fullLight())
	if got := fb.GetPixel(20, 20); got.A == 0 {
		t.Error("back face should draw with culling disabled")
	}
}

func TestDepthTestKeepsNearest(t *testing.T) {
	r, fb := createTestRasterizer(40, 40)
	fb.Clear(color.RGBA{})
	r.ClearDepth()

	red := &models.Material{Color: color.RGBA{255, 0, 0, 255}}
	blue := &models.Material{Color: color.RGBA{0, 0, 255, 255}}

	r.DrawMesh(frontQuad(), math3d.Translate(math3d.V3(0, 0, 1)), red, fullLight())
	r.DrawMesh(frontQuad(), math3d.Identity(), blue, fullLight())

	if got := fb.GetPixel(20, 20); got.R != 255 || got.B != 0 {
		t.Errorf("center = %v, want nearer red quad", got)
	}
}

func TestDirectionalLightFalloff(t *testing.T) {
	white := color.RGBA{255, 255, 255, 255}
	facing := NewLighting([]scene.Light{scene.NewDirectionalLight(white, 1, math3d.V3(0, 0, 5))})
	grazing := NewLighting([]scene.Light{scene.NewDirectionalLight(white, 1, math3d.V3(5, 0, 0))})

	n := math3d.V3(0, 0, 1)
	if got := facing.irradiance(n, 1); math.Abs(got.R-1) > 1e-9 {
		t.Errorf("facing irradiance = %v, want 1", got.R)
	}
	if got := grazing.irradiance(n, 1); got.R != 0 {
		t.Errorf("perpendicular light irradiance = %v, want 0", got.R)
	}
}

func TestSRGBRoundTrip(t *testing.T) {
	for _, v := range []uint8{0, 1, 64, 128, 200, 255} {
		lin := decode(color.RGBA{v, v, v, 255}, models.ColorSpaceSRGB)
		if got := encode(lin); got.R != v {
			t.Errorf("round trip %d -> %v -> %d", v, lin.R, got.R)
		}
	}
	// Overexposure clamps.
	if got := encode(rgb{2, -1, 0.5}); got.R != 255 || got.G != 0 {
		t.Errorf("encode clamp = %v", got)
	}
}
