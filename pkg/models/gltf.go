package models

import (
	"fmt"
	"io"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/taigrr/turntable/pkg/math3d"
)

// ParseGLTF decodes a binary (.glb) or JSON (.gltf with embedded buffers)
// document and returns one mesh per glTF mesh. Non-triangle primitives are
// skipped.
func ParseGLTF(r io.Reader, name string) ([]*Mesh, error) {
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(r).Decode(doc); err != nil {
		return nil, fmt.Errorf("decode gltf: %w", err)
	}

	var out []*Mesh
	for i, m := range doc.Meshes {
		meshName := m.Name
		if meshName == "" {
			meshName = fmt.Sprintf("%s#%d", name, i)
		}
		mesh := NewMesh(meshName)

		for _, prim := range m.Primitives {
			if err := appendPrimitive(doc, prim, mesh); err != nil {
				return nil, fmt.Errorf("process mesh %q: %w", meshName, err)
			}
		}
		if len(mesh.Faces) == 0 {
			continue
		}
		if !mesh.HasNormals() {
			mesh.CalculateSmoothNormals()
		}
		mesh.CalculateBounds()
		out = append(out, mesh)
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("gltf %q contains no triangle meshes", name)
	}
	return out, nil
}

func appendPrimitive(doc *gltf.Document, prim *gltf.Primitive, mesh *Mesh) error {
	if prim.Mode != gltf.PrimitiveTriangles && prim.Mode != 0 {
		// Skip lines and points
		return nil
	}

	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return nil
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return fmt.Errorf("read positions: %w", err)
	}

	var normals [][3]float32
	if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
		if normals, err = modeler.ReadNormal(doc, doc.Accessors[idx], nil); err != nil {
			return fmt.Errorf("read normals: %w", err)
		}
	}

	var uvs [][2]float32
	if idx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		if uvs, err = modeler.ReadTextureCoord(doc, doc.Accessors[idx], nil); err != nil {
			return fmt.Errorf("read uvs: %w", err)
		}
	}

	if prim.Material != nil && *prim.Material < len(doc.Materials) {
		mesh.MaterialName = doc.Materials[*prim.Material].Name
	}

	base := len(mesh.Vertices)
	for i, p := range positions {
		v := MeshVertex{Position: math3d.V3(float64(p[0]), float64(p[1]), float64(p[2]))}
		if i < len(normals) {
			n := normals[i]
			v.Normal = math3d.V3(float64(n[0]), float64(n[1]), float64(n[2]))
		}
		if i < len(uvs) {
			// glTF puts V=0 at the top of the image.
			v.UV = math3d.V2(float64(uvs[i][0]), 1-float64(uvs[i][1]))
		}
		mesh.Vertices = append(mesh.Vertices, v)
	}

	var indices []uint32
	if prim.Indices != nil {
		if indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil); err != nil {
			return fmt.Errorf("read indices: %w", err)
		}
	} else {
		indices = make([]uint32, len(positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}

	// glTF winds counter-clockwise; store clockwise like the OBJ parser.
	for i := 0; i+2 < len(indices); i += 3 {
		a, b, c := int(indices[i]), int(indices[i+1]), int(indices[i+2])
		if a >= len(positions) || b >= len(positions) || c >= len(positions) {
			return fmt.Errorf("index out of range at triangle %d", i/3)
		}
		mesh.Faces = append(mesh.Faces, Face{V: [3]int{base + a, base + c, base + b}})
	}
	return nil
}
