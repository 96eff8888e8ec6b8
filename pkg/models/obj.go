package models

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/taigrr/turntable/pkg/math3d"
)

// objCorner is one v/vt/vn reference of a face, already resolved to 0-based
// indices (-1 when absent).
type objCorner struct {
	v, vt, vn int
}

type objParser struct {
	name      string
	positions []math3d.Vec3
	uvs       []math3d.Vec2
	normals   []math3d.Vec3

	meshes  []*Mesh
	current *Mesh
	lookup  map[objCorner]int
	line    int
}

// ParseOBJ reads Wavefront OBJ text and returns one mesh per object or group.
// Polygons are triangulated as fans. Meshes without faces are dropped.
func ParseOBJ(r io.Reader, name string) ([]*Mesh, error) {
	p := &objParser{name: name}
	p.startMesh(name)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for sc.Scan() {
		p.line++
		if err := p.parseLine(sc.Text()); err != nil {
			return nil, fmt.Errorf("obj line %d: %w", p.line, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read obj: %w", err)
	}

	var out []*Mesh
	for _, m := range p.meshes {
		if len(m.Faces) == 0 {
			continue
		}
		if !m.HasNormals() {
			m.CalculateSmoothNormals()
		}
		m.CalculateBounds()
		out = append(out, m)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("obj %q contains no faces", name)
	}
	return out, nil
}

func (p *objParser) startMesh(name string) {
	// Reuse an empty mesh so leading "o"/"g" lines do not leave blanks behind.
	if p.current != nil && len(p.current.Faces) == 0 {
		p.current.Name = name
		return
	}
	p.current = NewMesh(name)
	p.lookup = make(map[objCorner]int)
	p.meshes = append(p.meshes, p.current)
}

func (p *objParser) parseLine(line string) error {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	switch fields[0] {
	case "v":
		v, err := parseFloats(fields[1:], 3)
		if err != nil {
			return fmt.Errorf("vertex: %w", err)
		}
		p.positions = append(p.positions, math3d.V3(v[0], v[1], v[2]))
	case "vt":
		v, err := parseFloats(fields[1:], 2)
		if err != nil {
			return fmt.Errorf("texcoord: %w", err)
		}
		p.uvs = append(p.uvs, math3d.V2(v[0], v[1]))
	case "vn":
		v, err := parseFloats(fields[1:], 3)
		if err != nil {
			return fmt.Errorf("normal: %w", err)
		}
		p.normals = append(p.normals, math3d.V3(v[0], v[1], v[2]).Normalize())
	case "f":
		return p.parseFace(fields[1:])
	case "o", "g":
		name := p.name
		if len(fields) > 1 {
			name = strings.Join(fields[1:], " ")
		}
		p.startMesh(name)
	case "usemtl":
		if len(fields) > 1 {
			p.current.MaterialName = fields[1]
		}
	}
	// mtllib, s, l, p and unknown statements are ignored.
	return nil
}

func (p *objParser) parseFace(fields []string) error {
	if len(fields) < 3 {
		return fmt.Errorf("face needs at least 3 vertices, got %d", len(fields))
	}

	idx := make([]int, len(fields))
	for i, f := range fields {
		c, err := p.parseCorner(f)
		if err != nil {
			return err
		}
		idx[i] = p.vertexFor(c)
	}

	// OBJ is counter-clockwise; faces are stored clockwise to match the
	// rasterizer's screen-space culling.
	for i := 1; i+1 < len(idx); i++ {
		p.current.Faces = append(p.current.Faces, Face{V: [3]int{idx[0], idx[i+1], idx[i]}})
	}
	return nil
}

func (p *objParser) parseCorner(s string) (objCorner, error) {
	parts := strings.Split(s, "/")
	c := objCorner{v: -1, vt: -1, vn: -1}

	var err error
	if c.v, err = resolveIndex(parts[0], len(p.positions)); err != nil {
		return c, fmt.Errorf("face vertex %q: %w", s, err)
	}
	if len(parts) > 1 && parts[1] != "" {
		if c.vt, err = resolveIndex(parts[1], len(p.uvs)); err != nil {
			return c, fmt.Errorf("face texcoord %q: %w", s, err)
		}
	}
	if len(parts) > 2 && parts[2] != "" {
		if c.vn, err = resolveIndex(parts[2], len(p.normals)); err != nil {
			return c, fmt.Errorf("face normal %q: %w", s, err)
		}
	}
	return c, nil
}

func (p *objParser) vertexFor(c objCorner) int {
	if i, ok := p.lookup[c]; ok {
		return i
	}
	v := MeshVertex{Position: p.positions[c.v]}
	if c.vt >= 0 {
		v.UV = p.uvs[c.vt]
	}
	if c.vn >= 0 {
		v.Normal = p.normals[c.vn]
	}
	i := len(p.current.Vertices)
	p.current.Vertices = append(p.current.Vertices, v)
	p.lookup[c] = i
	return i
}

// resolveIndex converts a 1-based (or negative, relative) OBJ index into a
// 0-based index into a list of length n.
func resolveIndex(s string, n int) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return -1, err
	}
	switch {
	case i > 0 && i <= n:
		return i - 1, nil
	case i < 0 && -i <= n:
		return n + i, nil
	}
	return -1, fmt.Errorf("index %d out of range (have %d)", i, n)
}

func parseFloats(fields []string, n int) ([]float64, error) {
	if len(fields) < n {
		return nil, fmt.Errorf("need %d components, got %d", n, len(fields))
	}
	out := make([]float64, n)
	for i := range n {
		f, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}
