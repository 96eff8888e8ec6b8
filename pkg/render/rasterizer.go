package render

import (
	"math"

	"github.com/taigrr/turntable/pkg/math3d"
	"github.com/taigrr/turntable/pkg/models"
)

// Vertex is a world-space vertex ready for rasterization.
type Vertex struct {
	Position math3d.Vec3
	Normal   math3d.Vec3
	UV       math3d.Vec2
}

// Triangle is a world-space triangle, wound clockwise when front facing.
type Triangle struct {
	V [3]Vertex
}

// MeshRenderer is the geometry the rasterizer can draw. models.Mesh
// implements it; tests use lightweight fakes.
type MeshRenderer interface {
	TriangleCount() int
	GetVertex(i int) (pos, normal math3d.Vec3, uv math3d.Vec2)
	GetFace(i int) [3]int
}

// Rasterizer draws lit, textured triangles into a framebuffer with a depth
// buffer.
type Rasterizer struct {
	camera                 *Camera
	fb                     *Framebuffer
	zbuffer                []float64
	DisableBackfaceCulling bool
	TrianglesDrawn         int // Triangles that survived culling since the last ClearDepth
}

// NewRasterizer creates a rasterizer drawing into fb through camera.
func NewRasterizer(camera *Camera, fb *Framebuffer) *Rasterizer {
	r := &Rasterizer{camera: camera, fb: fb}
	r.Resize()
	return r
}

// Resize reallocates the depth buffer to match the framebuffer.
func (r *Rasterizer) Resize() {
	r.zbuffer = make([]float64, r.fb.Width*r.fb.Height)
	r.ClearDepth()
}

// ClearDepth resets the depth buffer (call before each frame).
func (r *Rasterizer) ClearDepth() {
	r.TrianglesDrawn = 0
	n := len(r.zbuffer)
	if n == 0 {
		return
	}
	r.zbuffer[0] = math.MaxFloat64
	for i := 1; i < n; i *= 2 {
		copy(r.zbuffer[i:], r.zbuffer[:i])
	}
}

// DrawMesh transforms mesh by transform and draws it with mat under light.
func (r *Rasterizer) DrawMesh(mesh MeshRenderer, transform math3d.Mat4, mat *models.Material, light Lighting) {
	for i := range mesh.TriangleCount() {
		face := mesh.GetFace(i)
		var tri Triangle
		for k := range 3 {
			p, n, uv := mesh.GetVertex(face[k])
			tri.V[k] = Vertex{
				Position: transform.MulVec3(p),
				Normal:   transform.MulVec3Dir(n).Normalize(),
				UV:       uv,
			}
		}
		r.DrawTriangle(tri, mat, light)
	}
}

// screenVertex holds a vertex transformed to screen space.
type screenVertex struct {
	X, Y, Z    float64
	InvW       float64
	UV         math3d.Vec2
	Irradiance rgb
}

// DrawTriangle rasterizes one triangle with Gouraud lighting and
// perspective-correct texturing. Triangles crossing the camera plane are
// dropped.
func (r *Rasterizer) DrawTriangle(tri Triangle, mat *models.Material, light Lighting) {
	viewProj := r.camera.ViewProjectionMatrix()
	kd := diffuseFactor(mat)
	w, h := float64(r.fb.Width), float64(r.fb.Height)

	var sv [3]screenVertex
	for i, v := range tri.V {
		clip := viewProj.MulVec4(math3d.V4FromV3(v.Position, 1))
		if clip.W <= 0 {
			return
		}
		ndc := clip.PerspectiveDivide()
		sv[i] = screenVertex{
			X:          (ndc.X + 1) * 0.5 * w,
			Y:          (1 - ndc.Y) * 0.5 * h,
			Z:          ndc.Z,
			InvW:       1 / clip.W,
			UV:         v.UV,
			Irradiance: light.irradiance(v.Normal, kd),
		}
	}

	edge1 := math3d.V2(sv[1].X-sv[0].X, sv[1].Y-sv[0].Y)
	edge2 := math3d.V2(sv[2].X-sv[0].X, sv[2].Y-sv[0].Y)
	area := edge1.Cross(edge2)
	if area == 0 || (area < 0 && !r.DisableBackfaceCulling) {
		return
	}
	r.TrianglesDrawn++

	base := rgb{1, 1, 1}
	var tex *models.Texture
	if mat != nil {
		base = decode(mat.Color, models.ColorSpaceSRGB)
		tex = mat.Map
	}

	minX := int(math.Max(0, math.Floor(min3(sv[0].X, sv[1].X, sv[2].X))))
	maxX := int(math.Min(w-1, math.Ceil(max3(sv[0].X, sv[1].X, sv[2].X))))
	minY := int(math.Max(0, math.Floor(min3(sv[0].Y, sv[1].Y, sv[2].Y))))
	maxY := int(math.Min(h-1, math.Ceil(max3(sv[0].Y, sv[1].Y, sv[2].Y))))

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			bc := barycentric(sv[0].X, sv[0].Y, sv[1].X, sv[1].Y, sv[2].X, sv[2].Y, float64(x)+0.5, float64(y)+0.5)
			if bc.X < 0 || bc.Y < 0 || bc.Z < 0 {
				continue
			}

			z := bc.X*sv[0].Z + bc.Y*sv[1].Z + bc.Z*sv[2].Z
			idx := y*r.fb.Width + x
			if z >= r.zbuffer[idx] {
				continue
			}

			// Perspective-correct weights
			w0, w1, w2 := bc.X*sv[0].InvW, bc.Y*sv[1].InvW, bc.Z*sv[2].InvW
			sum := w0 + w1 + w2
			w0, w1, w2 = w0/sum, w1/sum, w2/sum

			albedo := base
			if tex != nil {
				u := w0*sv[0].UV.X + w1*sv[1].UV.X + w2*sv[2].UV.X
				v := w0*sv[0].UV.Y + w1*sv[1].UV.Y + w2*sv[2].UV.Y
				albedo = albedo.mul(decode(tex.Sample(u, v), tex.ColorSpace))
			}
			irr := sv[0].Irradiance.scale(w0).add(sv[1].Irradiance.scale(w1)).add(sv[2].Irradiance.scale(w2))

			r.zbuffer[idx] = z
			r.fb.SetPixel(x, y, encode(albedo.mul(irr)))
		}
	}
}

// barycentric calculates barycentric coordinates for point (px, py) in triangle.
func barycentric(x0, y0, x1, y1, x2, y2, px, py float64) math3d.Vec3 {
	v0x, v0y := x2-x0, y2-y0
	v1x, v1y := x1-x0, y1-y0
	v2x, v2y := px-x0, py-y0

	dot00 := v0x*v0x + v0y*v0y
	dot01 := v0x*v1x + v0y*v1y
	dot02 := v0x*v2x + v0y*v2y
	dot11 := v1x*v1x + v1y*v1y
	dot12 := v1x*v2x + v1y*v2y

	invDenom := 1.0 / (dot00*dot11 - dot01*dot01)
	u := (dot11*dot02 - dot01*dot12) * invDenom
	v := (dot00*dot12 - dot01*dot02) * invDenom

	return math3d.V3(1-u-v, v, u)
}

func min3(a, b, c float64) float64 {
	return math.Min(a, math.Min(b, c))
}

func max3(a, b, c float64) float64 {
	return math.Max(a, math.Max(b, c))
}
