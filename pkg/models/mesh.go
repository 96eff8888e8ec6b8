// Package models provides the geometry, material and texture types loaded
// from model and image files.
package models

import (
	"github.com/taigrr/turntable/pkg/math3d"
)

// Mesh is an indexed triangle list.
type Mesh struct {
	Name string
	// MaterialName is the material the source file asked for (OBJ usemtl,
	// glTF material name). Informational only.
	MaterialName string
	Vertices     []MeshVertex
	Faces        []Face
	Bounds       math3d.Box3
}

// MeshVertex holds all vertex attributes.
type MeshVertex struct {
	Position math3d.Vec3
	Normal   math3d.Vec3
	UV       math3d.Vec2
}

// Face is a triangle referencing three entries of Mesh.Vertices.
type Face struct {
	V [3]int
}

// NewMesh creates an empty mesh.
func NewMesh(name string) *Mesh {
	return &Mesh{
		Name:   name,
		Bounds: math3d.EmptyBox3(),
	}
}

// CalculateBounds recomputes the local-space bounding box.
func (m *Mesh) CalculateBounds() {
	m.Bounds = math3d.EmptyBox3()
	for _, v := range m.Vertices {
		m.Bounds = m.Bounds.ExpandByPoint(v.Position)
	}
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Faces)
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices)
}

// HasNormals reports whether any vertex carries a non-zero normal.
func (m *Mesh) HasNormals() bool {
	for _, v := range m.Vertices {
		if v.Normal.Len() > 0.001 {
			return true
		}
	}
	return false
}

// CalculateSmoothNormals averages face normals into per-vertex normals.
// Faces are weighted by area since the cross products are not normalized.
func (m *Mesh) CalculateSmoothNormals() {
	for i := range m.Vertices {
		m.Vertices[i].Normal = math3d.Zero3()
	}

	for _, f := range m.Faces {
		v0 := m.Vertices[f.V[0]].Position
		v1 := m.Vertices[f.V[1]].Position
		v2 := m.Vertices[f.V[2]].Position

		// Faces are stored clockwise, so the outward normal is e2 x e1.
		normal := v2.Sub(v0).Cross(v1.Sub(v0))

		for _, idx := range f.V {
			m.Vertices[idx].Normal = m.Vertices[idx].Normal.Add(normal)
		}
	}

	for i := range m.Vertices {
		m.Vertices[i].Normal = m.Vertices[i].Normal.Normalize()
	}
}

// GetVertex returns the position, normal, and UV for vertex i.
// Implements render.MeshRenderer.
func (m *Mesh) GetVertex(i int) (pos, normal math3d.Vec3, uv math3d.Vec2) {
	v := m.Vertices[i]
	return v.Position, v.Normal, v.UV
}

// GetFace returns the vertex indices for face i.
// Implements render.MeshRenderer.
func (m *Mesh) GetFace(i int) [3]int {
	return m.Faces[i].V
}
