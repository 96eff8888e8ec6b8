// Package viewer wires a host container, a scene and a scroll-driven
// turntable animation into a single frame loop.
//
// All viewer state is owned by the goroutine that calls Frame. Asset loads
// run elsewhere and hand their results back as messages that Frame
// consumes, so the model slot is written exactly once, on that goroutine.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"time"

	"github.com/taigrr/turntable/pkg/display"
	"github.com/taigrr/turntable/pkg/math3d"
	"github.com/taigrr/turntable/pkg/models"
	"github.com/taigrr/turntable/pkg/render"
	"github.com/taigrr/turntable/pkg/scene"
	"github.com/taigrr/turntable/pkg/scroll"
)

var (
	// ErrNoContainer means the host has no container with the configured ID.
	ErrNoContainer = errors.New("viewer: container not found")
	// ErrZeroWidth means the container reported a width of zero.
	ErrZeroWidth = errors.New("viewer: container has zero width")
	// ErrNotSetUp is returned by Frame before a successful Setup.
	ErrNotSetUp = errors.New("viewer: not set up")
)

// ContentRegion is the page region whose scroll progress drives the model.
const ContentRegion = "content"

// Fixed scene parameters.
const (
	cameraFOV  = 75
	cameraNear = 0.1
	cameraFar  = 1000
	cameraZ    = 25

	ambientIntensity     = 0.7
	directionalIntensity = 1.2

	materialMetalness = 0.1
	materialRoughness = 0.8
)

var (
	white            = color.RGBA{255, 255, 255, 255}
	directionalLight = math3d.V3(5, 10, 7.5)
)

// pageStep is the share of the viewport a page up/down press scrolls.
const pageStep = 0.9

// AssetLoader fetches the texture and geometry the viewer displays.
// *assets.Loader implements it.
type AssetLoader interface {
	LoadTexture(ctx context.Context, name string) (*models.Texture, error)
	LoadGeometry(ctx context.Context, name string) (*scene.Node, error)
}

// Options configures a Viewer.
type Options struct {
	// ContainerID names the host container to render into.
	ContainerID string
	Texture     string
	Geometry    string
	FPS         int
	// PageScreens is the virtual page height in viewport heights.
	PageScreens float64
	// LineStep is the share of the viewport one wheel notch scrolls.
	LineStep float64
	// HUD shows the overlay from the start.
	HUD bool
	// SnapshotPath, when set, writes a PNG once the model pipeline finishes
	// and stops the loop.
	SnapshotPath string
	Logger       *slog.Logger
}

// Viewer renders one textured model whose rotation follows the scroll
// position of a virtual page.
type Viewer struct {
	host   display.Host
	loader AssetLoader
	opts   Options
	log    *slog.Logger

	container display.Container
	camera    *render.Camera
	renderer  *render.Renderer
	scene     *scene.Scene
	page      *scroll.Page
	animator  *scroll.Animator

	loadCtx  context.Context
	results  chan loadResult
	status   Status
	material *models.Material
	model    *scene.Node
	ready    chan struct{}
	binding  *scroll.Binding

	hud     *HUD
	showHUD bool
}

// New creates a viewer. Nothing is constructed until Setup.
func New(host display.Host, loader AssetLoader, opts Options) *Viewer {
	if opts.ContainerID == "" {
		opts.ContainerID = "container"
	}
	if opts.FPS <= 0 {
		opts.FPS = 60
	}
	if opts.PageScreens < 1 {
		opts.PageScreens = 3
	}
	if opts.LineStep <= 0 {
		opts.LineStep = 0.1
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Viewer{
		host:    host,
		loader:  loader,
		opts:    opts,
		log:     log,
		results: make(chan loadResult, 2),
		ready:   make(chan struct{}),
		showHUD: opts.HUD,
	}
}

// Setup checks the container and builds the camera, renderer, lights and
// scroll page. On error nothing is constructed.
func (v *Viewer) Setup() error {
	c, ok := v.host.Container(v.opts.ContainerID)
	if !ok {
		v.log.Error("container not found", "id", v.opts.ContainerID)
		return ErrNoContainer
	}
	w, h := c.ClientSize()
	if w == 0 {
		v.log.Error("container has zero width", "id", v.opts.ContainerID, "height", h)
		return ErrZeroWidth
	}
	v.container = c

	v.camera = render.NewPerspectiveCamera(cameraFOV, aspect(w, h), cameraNear, cameraFar)
	v.camera.SetPosition(math3d.V3(0, 0, cameraZ))
	v.camera.LookAt(math3d.Zero3())

	v.renderer = render.NewRenderer(render.Options{Transparent: true, Antialias: true})
	v.renderer.SetSize(w, h)
	c.Attach(v.renderer)

	v.scene = scene.New()
	v.scene.AddLight(scene.NewAmbientLight(white, ambientIntensity))
	v.scene.AddLight(scene.NewDirectionalLight(white, directionalIntensity, directionalLight))

	pageHeight := float64(h) * v.opts.PageScreens
	v.page = scroll.NewPage(pageHeight, float64(h))
	v.page.AddRegion(scroll.Region{ID: ContentRegion, Height: pageHeight})
	v.animator = scroll.NewAnimator(v.page, v.opts.FPS)

	v.hud = NewHUD(v.opts.Geometry)
	v.log.Info("viewer ready", "width", w, "height", h)
	return nil
}

// aspect returns width/height, treating a zero height as one pixel.
func aspect(w, h int) float64 {
	return float64(w) / float64(max(h, 1))
}

// Resize matches the camera, renderer and page to the container's current
// size. Calling it again without a size change recomputes the same values.
func (v *Viewer) Resize() {
	w, h := v.container.ClientSize()

	v.camera.SetAspectRatio(aspect(w, h))
	v.camera.UpdateProjectionMatrix()
	v.renderer.SetSize(w, h)

	// Keep the reader at the same relative position on the page.
	frac := 0.0
	if m := v.page.MaxOffset(); m > 0 {
		frac = v.page.Offset() / m
	}
	pageHeight := float64(h) * v.opts.PageScreens
	v.page.SetHeight(pageHeight)
	v.page.SetViewport(float64(h))
	v.page.AddRegion(scroll.Region{ID: ContentRegion, Height: pageHeight})
	v.page.ScrollTo(frac * v.page.MaxOffset())

	v.log.Debug("resized", "width", w, "height", h)
}

// Run sets up the viewer, starts loading the model and hands the frame loop
// to the host. It returns when the host's scheduler stops.
func (v *Viewer) Run(ctx context.Context) error {
	if err := v.Setup(); err != nil {
		return err
	}
	v.LoadModel(ctx)
	if err := v.host.Run(ctx, v.Frame); err != nil {
		return fmt.Errorf("frame loop: %w", err)
	}
	return nil
}

// Frame handles queued events and load results, advances the scroll
// animation and redraws. Hosts call it once per tick.
func (v *Viewer) Frame(now time.Time) error {
	if v.renderer == nil {
		return ErrNotSetUp
	}
	if err := v.drainEvents(); err != nil {
		return err
	}
	v.drainResults()
	if v.binding == nil && v.modelReady() {
		if err := v.bindScroll(); err != nil {
			v.log.Error("scroll binding failed", "err", err)
		}
	}

	v.animator.Update()
	v.renderer.Render(v.scene, v.camera)

	v.hud.Tick(now)
	if v.showHUD {
		v.container.SetOverlay(v.hud.Lines(v.container.Columns(), v.status, v.scrollProgress(), v.renderer.TrianglesDrawn()))
	} else {
		v.container.SetOverlay(nil)
	}

	if v.opts.SnapshotPath != "" && v.status != StatusLoading {
		if err := v.Snapshot(v.opts.SnapshotPath); err != nil {
			return err
		}
		return display.ErrStop
	}
	return nil
}

func (v *Viewer) drainEvents() error {
	for {
		select {
		case ev := <-v.host.Events():
			if err := v.handleEvent(ev); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

func (v *Viewer) handleEvent(ev display.Event) error {
	switch ev := ev.(type) {
	case display.ResizeEvent:
		v.Resize()
	case display.ScrollEvent:
		viewport := v.page.Viewport()
		v.page.ScrollBy(ev.Lines*v.opts.LineStep*viewport + ev.Pages*pageStep*viewport)
	case display.JumpEvent:
		if ev.End {
			v.page.ScrollTo(v.page.MaxOffset())
		} else {
			v.page.ScrollTo(0)
		}
	case display.ToggleHUDEvent:
		v.showHUD = !v.showHUD
	case display.QuitEvent:
		return display.ErrStop
	}
	return nil
}

// scrollProgress is the displayed progress of the rotation, zero until the
// model is bound.
func (v *Viewer) scrollProgress() float64 {
	if v.binding != nil {
		return v.binding.Progress()
	}
	return 0
}

// Snapshot writes the current frame as a PNG.
func (v *Viewer) Snapshot(path string) error {
	if err := v.renderer.Surface().SavePNG(path); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	v.log.Info("snapshot written", "path", path, "status", v.status)
	return nil
}

// Camera returns the camera, nil before Setup.
func (v *Viewer) Camera() *render.Camera { return v.camera }

// Renderer returns the renderer, nil before Setup.
func (v *Viewer) Renderer() *render.Renderer { return v.renderer }

// Scene returns the scene, nil before Setup.
func (v *Viewer) Scene() *scene.Scene { return v.scene }

// Page returns the virtual scroll page, nil before Setup.
func (v *Viewer) Page() *scroll.Page { return v.page }

// Material returns the shared model material once the texture has loaded.
func (v *Viewer) Material() *models.Material { return v.material }

// Binding returns the scroll binding once the model is attached.
func (v *Viewer) Binding() *scroll.Binding { return v.binding }

// Status reports the model pipeline state.
func (v *Viewer) Status() Status { return v.status }

// HUDVisible reports whether the overlay is shown.
func (v *Viewer) HUDVisible() bool { return v.showHUD }
