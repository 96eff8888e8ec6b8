package viewer

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/taigrr/turntable/pkg/math3d"
	"github.com/taigrr/turntable/pkg/models"
	"github.com/taigrr/turntable/pkg/scene"
	"github.com/taigrr/turntable/pkg/scroll"
)

// Model placement and animation.
const (
	modelScale   = 15
	modelOffsetY = -2.5

	targetRotation = 0.2 * math.Pi
	scrubLag       = 1500 * time.Millisecond
)

// Status is the state of the model pipeline.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusReady
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	default:
		return "idle"
	}
}

type loadStage int

const (
	stageTexture loadStage = iota
	stageGeometry
)

type loadResult struct {
	stage    loadStage
	texture  *models.Texture
	geometry *scene.Node
	err      error
}

// LoadModel starts the texture load. When it succeeds, Frame builds the
// material and starts the geometry load; the geometry is placed and
// attached by a later Frame. Loads are attempted once and are cancelled only
// through ctx.
func (v *Viewer) LoadModel(ctx context.Context) {
	if v.status != StatusIdle {
		return
	}
	v.status = StatusLoading
	v.loadCtx = ctx
	v.log.Info("loading texture", "name", v.opts.Texture)

	go func() {
		tex, err := v.loader.LoadTexture(ctx, v.opts.Texture)
		v.deliver(ctx, loadResult{stage: stageTexture, texture: tex, err: err})
	}()
}

func (v *Viewer) loadGeometry() {
	ctx := v.loadCtx
	v.log.Info("loading geometry", "name", v.opts.Geometry)
	go func() {
		node, err := v.loader.LoadGeometry(ctx, v.opts.Geometry)
		if err == nil && node == nil {
			err = errors.New("loader returned no geometry")
		}
		v.deliver(ctx, loadResult{stage: stageGeometry, geometry: node, err: err})
	}()
}

func (v *Viewer) deliver(ctx context.Context, r loadResult) {
	select {
	case v.results <- r:
	case <-ctx.Done():
	}
}

func (v *Viewer) drainResults() {
	for {
		select {
		case r := <-v.results:
			v.handleResult(r)
		default:
			return
		}
	}
}

func (v *Viewer) handleResult(r loadResult) {
	switch r.stage {
	case stageTexture:
		if r.err != nil {
			v.fail("texture load failed", r.err)
			return
		}
		r.texture.ColorSpace = models.ColorSpaceSRGB
		v.material = models.NewStandardMaterial(r.texture, materialMetalness, materialRoughness)
		v.log.Info("texture loaded", "name", v.opts.Texture, "width", r.texture.Width, "height", r.texture.Height)
		v.loadGeometry()

	case stageGeometry:
		if r.err != nil {
			v.fail("geometry load failed", r.err)
			return
		}
		if err := v.Place(r.geometry); err != nil {
			v.fail("model placement failed", err)
			return
		}
		v.status = StatusReady
		v.hud.SetTriangles(r.geometry.TriangleCount())
		v.log.Info("model ready", "name", v.opts.Geometry, "triangles", r.geometry.TriangleCount())
	}
}

func (v *Viewer) fail(msg string, err error) {
	v.status = StatusFailed
	v.log.Error(msg, "err", err)
}

// Place assigns the shared material to every drawable in node, centers the
// hierarchy on the origin and wraps it in a pivot that carries the fixed
// scale and vertical offset. The pivot is attached to the scene as the model
// and the model-ready signal fires.
//
// Rotating the pivot turns the model about its own center.
func (v *Viewer) Place(node *scene.Node) error {
	AssignMaterial(node, v.material)
	center(node)

	pivot := scene.NewGroup(node.Name)
	pivot.Add(node)
	pivot.Scale = math3d.V3(modelScale, modelScale, modelScale)
	pivot.Position = math3d.V3(0, modelOffsetY, 0)

	if err := v.scene.Attach(pivot); err != nil {
		return err
	}
	v.model = pivot
	close(v.ready)
	return nil
}

// AssignMaterial sets mat on every drawable node under and including root,
// replacing whatever material the file carried.
func AssignMaterial(root *scene.Node, mat *models.Material) {
	if root.Drawable() {
		root.Material = mat
	}
	for _, child := range root.Children() {
		AssignMaterial(child, mat)
	}
}

// center moves node so that its world bounding box is centered on the
// origin.
func center(node *scene.Node) {
	box := node.BoundingBox()
	if box.IsEmpty() {
		return
	}
	node.Position = node.Position.Sub(box.Center())
}

func (v *Viewer) modelReady() bool {
	select {
	case <-v.ready:
		return true
	default:
		return false
	}
}

// bindScroll ties the model's rotation about Y to the content region.
func (v *Viewer) bindScroll() error {
	model := v.scene.Model()
	if model == nil {
		return errors.New("no model attached")
	}
	b, err := v.animator.Register(scroll.Tween{
		Apply: func(angle float64) { model.Rotation.Y = angle },
		From:  model.Rotation.Y,
		To:    targetRotation,
		Ease:  scroll.EaseNone,
	}, scroll.Trigger{
		Region: ContentRegion,
		Start:  "top top",
		End:    "bottom bottom",
		Scrub:  scrubLag,
	})
	if err != nil {
		return err
	}
	v.binding = b
	return nil
}

// Model returns the attached model pivot, nil until the pipeline succeeds.
func (v *Viewer) Model() *scene.Node { return v.model }

