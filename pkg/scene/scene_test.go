package scene

import (
	"errors"
	"image/color"
	"math"
	"testing"

	"github.com/taigrr/turntable/pkg/math3d"
	"github.com/taigrr/turntable/pkg/models"
)

func cube(name string, min, max math3d.Vec3) *models.Mesh {
	m := models.NewMesh(name)
	m.Vertices = []models.MeshVertex{{Position: min}, {Position: max}, {Position: math3d.V3(min.X, max.Y, min.Z)}}
	m.Faces = []models.Face{{V: [3]int{0, 1, 2}}}
	m.CalculateBounds()
	return m
}

func TestTraverseVisitsDepthFirst(t *testing.T) {
	root := NewGroup("root")
	a := NewGroup("a")
	b := NewMesh(cube("b", math3d.Zero3(), math3d.One3()), nil)
	c := NewMesh(cube("c", math3d.Zero3(), math3d.One3()), nil)
	root.Add(a)
	a.Add(b)
	root.Add(c)

	var order []string
	root.Traverse(func(n *Node) { order = append(order, n.Name) })
	want := []string{"root", "a", "b", "c"}
	if len(order) != len(want) {
		t.Fatalf("visited %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("visited %v, want %v", order, want)
		}
	}

	var drawables []string
	root.TraverseDrawables(func(n *Node) { drawables = append(drawables, n.Name) })
	if len(drawables) != 2 || drawables[0] != "b" || drawables[1] != "c" {
		t.Errorf("drawables = %v, want [b c]", drawables)
	}
	if root.Drawable() || a.Drawable() {
		t.Error("groups must not be drawable")
	}
	if got := root.TriangleCount(); got != 2 {
		t.Errorf("TriangleCount = %d, want 2", got)
	}
}

func TestAddReparents(t *testing.T) {
	a, b := NewGroup("a"), NewGroup("b")
	child := NewGroup("child")
	a.Add(child)
	b.Add(child)
	if len(a.Children()) != 0 {
		t.Error("child should be removed from old parent")
	}
	if child.Parent() != b {
		t.Error("child should point at new parent")
	}
}

func TestBoundingBoxUsesWorldTransform(t *testing.T) {
	root := NewGroup("root")
	root.Position = math3d.V3(10, 0, 0)
	child := NewMesh(cube("m", math3d.V3(-1, -1, -1), math3d.V3(1, 1, 1)), nil)
	child.Scale = math3d.V3(2, 2, 2)
	root.Add(child)

	box := root.BoundingBox()
	if !box.Min.ApproxEqual(math3d.V3(8, -2, -2), 1e-9) || !box.Max.ApproxEqual(math3d.V3(12, 2, 2), 1e-9) {
		t.Errorf("BoundingBox = %+v", box)
	}
}

func TestBoundingBoxEmptyWithoutGeometry(t *testing.T) {
	if !NewGroup("g").BoundingBox().IsEmpty() {
		t.Error("group without drawables should have an empty box")
	}
}

func TestWorldMatrixRotation(t *testing.T) {
	n := NewGroup("n")
	n.Rotation.Y = math.Pi / 2
	got := n.WorldMatrix().MulVec3(math3d.V3(1, 0, 0))
	if !got.ApproxEqual(math3d.V3(0, 0, -1), 1e-9) {
		t.Errorf("rotated point = %v, want (0,0,-1)", got)
	}
}

func TestAttachIsWriteOnce(t *testing.T) {
	s := New()
	if s.Model() != nil {
		t.Fatal("new scene should have no model")
	}
	first := NewGroup("first")
	if err := s.Attach(first); err != nil {
		t.Fatalf("first Attach: %v", err)
	}
	if err := s.Attach(NewGroup("second")); !errors.Is(err, ErrModelAttached) {
		t.Errorf("second Attach err = %v, want ErrModelAttached", err)
	}
	if s.Model() != first {
		t.Error("second Attach must not replace the model")
	}
}

func TestLights(t *testing.T) {
	s := New()
	white := color.RGBA{255, 255, 255, 255}
	s.AddLight(NewAmbientLight(white, 0.7))
	s.AddLight(NewDirectionalLight(white, 1.2, math3d.V3(0, 10, 0)))

	lights := s.Lights()
	if len(lights) != 2 {
		t.Fatalf("got %d lights", len(lights))
	}
	if lights[0].Direction() != math3d.Zero3() {
		t.Error("ambient light has no direction")
	}
	if lights[1].Direction() != math3d.V3(0, 1, 0) {
		t.Errorf("directional Direction = %v", lights[1].Direction())
	}
}
