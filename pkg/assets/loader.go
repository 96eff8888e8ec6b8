package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/taigrr/turntable/pkg/models"
	"github.com/taigrr/turntable/pkg/scene"
)

// ErrUnsupported is returned for geometry files with an unknown extension.
var ErrUnsupported = errors.New("assets: unsupported format")

// Loader reads textures and geometry from a Source.
type Loader struct {
	src Source
	log *slog.Logger
}

// NewLoader creates a loader. A nil logger discards output.
func NewLoader(src Source, log *slog.Logger) *Loader {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Loader{src: src, log: log}
}

// LoadTexture fetches and decodes an image. The texture is returned with
// the default (linear) colour space; callers tag it as they need.
func (l *Loader) LoadTexture(ctx context.Context, name string) (*models.Texture, error) {
	rc, err := l.src.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("load texture: %w", err)
	}
	defer rc.Close()

	tex, err := models.DecodeTexture(rc)
	if err != nil {
		return nil, fmt.Errorf("load texture %s: %w", name, err)
	}
	l.log.Debug("texture loaded", "name", name, "width", tex.Width, "height", tex.Height)
	return tex, nil
}

// LoadGeometry fetches a model file and returns a group node holding one
// drawable child per mesh. Drawables have no material.
func (l *Loader) LoadGeometry(ctx context.Context, name string) (*scene.Node, error) {
	parse, err := parserFor(name)
	if err != nil {
		return nil, err
	}

	rc, err := l.src.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("load geometry: %w", err)
	}
	defer rc.Close()

	meshes, err := parse(rc, name)
	if err != nil {
		return nil, fmt.Errorf("load geometry %s: %w", name, err)
	}

	root := scene.NewGroup(name)
	for _, m := range meshes {
		root.Add(scene.NewMesh(m, nil))
	}
	l.log.Debug("geometry loaded", "name", name, "meshes", len(meshes), "triangles", root.TriangleCount())
	return root, nil
}

type parseFunc func(r io.Reader, name string) ([]*models.Mesh, error)

func parserFor(name string) (parseFunc, error) {
	switch ext := strings.ToLower(path.Ext(name)); ext {
	case ".obj":
		return models.ParseOBJ, nil
	case ".gltf", ".glb":
		return models.ParseGLTF, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, ext)
	}
}
