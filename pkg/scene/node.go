// Package scene holds the node tree, lights and model slot that the renderer
// draws.
package scene

import (
	"github.com/taigrr/turntable/pkg/math3d"
	"github.com/taigrr/turntable/pkg/models"
)

// Node is an element of the scene tree. A node is drawable when it carries
// geometry; group nodes only contribute their transform.
type Node struct {
	Name string

	Position math3d.Vec3
	Rotation math3d.Vec3 // Euler angles in radians, applied X then Y then Z
	Scale    math3d.Vec3

	Geometry *models.Mesh
	Material *models.Material

	parent   *Node
	children []*Node
}

// NewGroup creates an empty, non-drawable node.
func NewGroup(name string) *Node {
	return &Node{Name: name, Scale: math3d.One3()}
}

// NewMesh creates a drawable node.
func NewMesh(geometry *models.Mesh, material *models.Material) *Node {
	n := NewGroup(geometry.Name)
	n.Geometry = geometry
	n.Material = material
	return n
}

// Add attaches child under n, detaching it from any previous parent.
func (n *Node) Add(child *Node) {
	if child.parent != nil {
		child.parent.remove(child)
	}
	child.parent = n
	n.children = append(n.children, child)
}

func (n *Node) remove(child *Node) {
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			child.parent = nil
			return
		}
	}
}

// Children returns the direct children of n.
func (n *Node) Children() []*Node {
	return n.children
}

// Parent returns the parent node, or nil for a root.
func (n *Node) Parent() *Node {
	return n.parent
}

// Drawable reports whether n has geometry to rasterize.
func (n *Node) Drawable() bool {
	return n.Geometry != nil
}

// Traverse calls fn for n and every descendant, depth first, parents before
// children.
func (n *Node) Traverse(fn func(*Node)) {
	fn(n)
	for _, c := range n.children {
		c.Traverse(fn)
	}
}

// TraverseDrawables calls fn for every drawable node in the subtree.
func (n *Node) TraverseDrawables(fn func(*Node)) {
	n.Traverse(func(c *Node) {
		if c.Drawable() {
			fn(c)
		}
	})
}

// LocalMatrix returns the node's transform relative to its parent.
func (n *Node) LocalMatrix() math3d.Mat4 {
	return math3d.Compose(n.Position, n.Rotation, n.Scale)
}

// WorldMatrix returns the node's transform relative to the tree root.
func (n *Node) WorldMatrix() math3d.Mat4 {
	m := n.LocalMatrix()
	for p := n.parent; p != nil; p = p.parent {
		m = p.LocalMatrix().Mul(m)
	}
	return m
}

// BoundingBox returns the world-space axis-aligned box enclosing every vertex
// of every drawable node in the subtree. The box is empty when there is no
// geometry.
func (n *Node) BoundingBox() math3d.Box3 {
	box := math3d.EmptyBox3()
	n.TraverseDrawables(func(c *Node) {
		world := c.WorldMatrix()
		for _, v := range c.Geometry.Vertices {
			box = box.ExpandByPoint(world.MulVec3(v.Position))
		}
	})
	return box
}

// TriangleCount sums the triangles of every drawable node in the subtree.
func (n *Node) TriangleCount() int {
	total := 0
	n.TraverseDrawables(func(c *Node) {
		total += c.Geometry.TriangleCount()
	})
	return total
}
