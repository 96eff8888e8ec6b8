package viewer

import (
	"bytes"
	"context"
	"errors"
	"image/color"
	"image/png"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/taigrr/turntable/pkg/display"
	"github.com/taigrr/turntable/pkg/math3d"
	"github.com/taigrr/turntable/pkg/models"
	"github.com/taigrr/turntable/pkg/scene"
)

// fakeLoader records which loads were started. A non-nil gate holds the
// geometry load until it is closed.
type fakeLoader struct {
	mu      sync.Mutex
	calls   []string
	texErr  error
	geomErr error
	gate    chan struct{}
}

func (f *fakeLoader) record(name string) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()
}

func (f *fakeLoader) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

func (f *fakeLoader) LoadTexture(ctx context.Context, name string) (*models.Texture, error) {
	f.record("texture:" + name)
	if f.texErr != nil {
		return nil, f.texErr
	}
	return models.NewCheckerTexture(4, 4, 2, color.RGBA{200, 200, 200, 255}, color.RGBA{90, 90, 90, 255}), nil
}

func (f *fakeLoader) LoadGeometry(ctx context.Context, name string) (*scene.Node, error) {
	f.record("geometry:" + name)
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.geomErr != nil {
		return nil, f.geomErr
	}
	return offsetModel(), nil
}

func triangle(name string, a, b, c math3d.Vec3) *scene.Node {
	m := models.NewMesh(name)
	for _, p := range []math3d.Vec3{a, b, c} {
		m.Vertices = append(m.Vertices, models.MeshVertex{Position: p, Normal: math3d.V3(0, 0, 1)})
	}
	m.Faces = []models.Face{{V: [3]int{0, 2, 1}}}
	m.CalculateBounds()
	return scene.NewMesh(m, &models.Material{Name: "embedded"})
}

// offsetModel spans (10,20,30)-(12,24,36), centered on (11,22,33).
func offsetModel() *scene.Node {
	root := scene.NewGroup("statue.obj")
	root.Add(triangle("base", math3d.V3(10, 20, 30), math3d.V3(12, 20, 30), math3d.V3(10, 24, 30)))
	inner := scene.NewGroup("detail")
	inner.Add(triangle("top", math3d.V3(10, 20, 36), math3d.V3(12, 24, 36), math3d.V3(11, 22, 33)))
	root.Add(inner)
	return root
}

func newTestViewer(t *testing.T, host *display.Headless, loader AssetLoader) (*Viewer, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	v := New(host, loader, Options{
		Texture:  "statue.png",
		Geometry: "statue.obj",
		Logger:   slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug})),
	})
	return v, &logs
}

// pump runs frames until cond holds.
func pump(t *testing.T, v *Viewer, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for condition")
		}
		if err := v.Frame(time.Now()); err != nil {
			t.Fatalf("Frame: %v", err)
		}
		time.Sleep(time.Millisecond)
	}
}

func loadedViewer(t *testing.T) (*Viewer, *display.Headless) {
	t.Helper()
	host := display.NewHeadless("container", 64, 32, 60)
	v, _ := newTestViewer(t, host, &fakeLoader{})
	if err := v.Setup(); err != nil {
		t.Fatal(err)
	}
	v.LoadModel(t.Context())
	pump(t, v, func() bool { return v.Binding() != nil })
	return v, host
}

func TestSetupAbortsWithoutContainer(t *testing.T) {
	tests := []struct {
		name    string
		host    *display.Headless
		wantErr error
		wantLog string
	}{
		{"missing", display.NewHeadless("", 64, 32, 60), ErrNoContainer, "container not found"},
		{"zero width", display.NewHeadless("container", 0, 32, 60), ErrZeroWidth, "zero width"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v, logs := newTestViewer(t, tc.host, &fakeLoader{})
			if err := v.Setup(); !errors.Is(err, tc.wantErr) {
				t.Fatalf("Setup = %v, want %v", err, tc.wantErr)
			}
			if v.Camera() != nil || v.Renderer() != nil || v.Scene() != nil {
				t.Error("setup constructed scene objects")
			}
			if !strings.Contains(logs.String(), tc.wantLog) {
				t.Errorf("log %q does not mention %q", logs.String(), tc.wantLog)
			}
			if tc.host.Attached() != nil {
				t.Error("surface attached to container")
			}
			if err := v.Frame(time.Now()); !errors.Is(err, ErrNotSetUp) {
				t.Errorf("Frame = %v, want ErrNotSetUp", err)
			}
		})
	}
}

func TestSetupMatchesContainer(t *testing.T) {
	host := display.NewHeadless("container", 160, 90, 60)
	v, _ := newTestViewer(t, host, &fakeLoader{})
	if err := v.Setup(); err != nil {
		t.Fatal(err)
	}

	cam := v.Camera()
	if want := 160.0 / 90.0; math.Abs(cam.AspectRatio-want) > 1e-12 {
		t.Errorf("aspect = %v, want %v", cam.AspectRatio, want)
	}
	if math.Abs(cam.FOV-75*math.Pi/180) > 1e-12 || cam.Near != 0.1 || cam.Far != 1000 {
		t.Errorf("camera = fov %v near %v far %v", cam.FOV, cam.Near, cam.Far)
	}
	if cam.Position != math3d.V3(0, 0, 25) {
		t.Errorf("camera position = %v", cam.Position)
	}

	fb := v.Renderer().Surface()
	if fb.Width != 160 || fb.Height != 90 {
		t.Errorf("surface = %dx%d, want 160x90", fb.Width, fb.Height)
	}
	opts := v.Renderer().Options()
	if !opts.Transparent || !opts.Antialias {
		t.Errorf("renderer options = %+v", opts)
	}
	if host.Attached() == nil {
		t.Error("renderer not attached to container")
	}

	lights := v.Scene().Lights()
	if len(lights) != 2 {
		t.Fatalf("lights = %d, want 2", len(lights))
	}
	if lights[0].Kind != scene.AmbientLight || lights[0].Intensity != 0.7 {
		t.Errorf("ambient = %+v", lights[0])
	}
	if lights[1].Kind != scene.DirectionalLight || lights[1].Intensity != 1.2 || lights[1].Position != math3d.V3(5, 10, 7.5) {
		t.Errorf("directional = %+v", lights[1])
	}
	if v.Scene().Model() != nil {
		t.Error("model attached before load")
	}
}

func TestTextureFailureNeverStartsGeometry(t *testing.T) {
	host := display.NewHeadless("container", 64, 32, 60)
	loader := &fakeLoader{texErr: errors.New("404")}
	v, logs := newTestViewer(t, host, loader)
	if err := v.Setup(); err != nil {
		t.Fatal(err)
	}
	v.LoadModel(t.Context())
	pump(t, v, func() bool { return v.Status() == StatusFailed })

	for range 10 {
		if err := v.Frame(time.Now()); err != nil {
			t.Fatalf("Frame after failure: %v", err)
		}
	}
	if got := loader.Calls(); !slices.Equal(got, []string{"texture:statue.png"}) {
		t.Errorf("calls = %v, want texture only", got)
	}
	if v.Material() != nil || v.Scene().Model() != nil || v.Binding() != nil {
		t.Error("model pipeline continued after texture failure")
	}
	if !strings.Contains(logs.String(), "texture load failed") {
		t.Errorf("missing diagnostic in %q", logs.String())
	}
	if v.Renderer().Frames() == 0 {
		t.Error("render loop stopped")
	}
}

func TestGeometryFailureLeavesEmptyScene(t *testing.T) {
	host := display.NewHeadless("container", 64, 32, 60)
	v, logs := newTestViewer(t, host, &fakeLoader{geomErr: errors.New("parse error")})
	if err := v.Setup(); err != nil {
		t.Fatal(err)
	}
	v.LoadModel(t.Context())
	pump(t, v, func() bool { return v.Status() == StatusFailed })

	if v.Scene().Model() != nil || v.Binding() != nil {
		t.Error("model attached after geometry failure")
	}
	if !strings.Contains(logs.String(), "geometry load failed") {
		t.Errorf("missing diagnostic in %q", logs.String())
	}
}

func TestMaterialAssignedAfterTexture(t *testing.T) {
	host := display.NewHeadless("container", 64, 32, 60)
	loader := &fakeLoader{gate: make(chan struct{})}
	v, _ := newTestViewer(t, host, loader)
	if err := v.Setup(); err != nil {
		t.Fatal(err)
	}
	v.LoadModel(t.Context())

	pump(t, v, func() bool { return len(loader.Calls()) == 2 })
	if got := loader.Calls(); !slices.Equal(got, []string{"texture:statue.png", "geometry:statue.obj"}) {
		t.Fatalf("calls = %v", got)
	}
	mat := v.Material()
	if mat == nil {
		t.Fatal("material missing once geometry load started")
	}
	if mat.Map == nil || mat.Map.ColorSpace != models.ColorSpaceSRGB {
		t.Errorf("texture not tagged sRGB: %+v", mat.Map)
	}
	if mat.Metalness != 0.1 || mat.Roughness != 0.8 {
		t.Errorf("material = metal %v rough %v", mat.Metalness, mat.Roughness)
	}

	close(loader.gate)
	pump(t, v, func() bool { return v.Status() == StatusReady })

	count := 0
	v.Model().TraverseDrawables(func(n *scene.Node) {
		count++
		if n.Material != mat {
			t.Errorf("node %q has material %v, want the shared one", n.Name, n.Material)
		}
	})
	if count != 2 {
		t.Errorf("drawables = %d, want 2", count)
	}
}

func TestBindingWaitsForAttach(t *testing.T) {
	host := display.NewHeadless("container", 64, 32, 60)
	loader := &fakeLoader{gate: make(chan struct{})}
	v, _ := newTestViewer(t, host, loader)
	if err := v.Setup(); err != nil {
		t.Fatal(err)
	}
	v.LoadModel(t.Context())

	pump(t, v, func() bool { return len(loader.Calls()) == 2 })
	for range 5 {
		if err := v.Frame(time.Now()); err != nil {
			t.Fatal(err)
		}
		if v.Binding() != nil {
			t.Fatal("binding registered before the model was attached")
		}
	}

	close(loader.gate)
	pump(t, v, func() bool { return v.Binding() != nil })
	if v.Scene().Model() == nil || v.Scene().Model() != v.Model() {
		t.Error("binding registered without the model in the scene")
	}
}

func TestCenterMovesBoundsToOrigin(t *testing.T) {
	node := offsetModel()
	center(node)
	if c := node.BoundingBox().Center(); !c.ApproxEqual(math3d.Zero3(), 1e-9) {
		t.Errorf("center after translation = %v, want origin", c)
	}
}

func TestPlaceScalesAndOffsets(t *testing.T) {
	v, _ := loadedViewer(t)

	model := v.Model()
	if model.Scale != math3d.V3(15, 15, 15) {
		t.Errorf("scale = %v", model.Scale)
	}
	box := model.BoundingBox()
	if c := box.Center(); !c.ApproxEqual(math3d.V3(0, -2.5, 0), 1e-9) {
		t.Errorf("placed center = %v, want (0,-2.5,0)", c)
	}
	if s := box.Size(); !s.ApproxEqual(math3d.V3(30, 60, 90), 1e-9) {
		t.Errorf("placed size = %v, want 15x the loaded size", s)
	}

	if err := v.Place(offsetModel()); !errors.Is(err, scene.ErrModelAttached) {
		t.Errorf("second Place = %v, want ErrModelAttached", err)
	}
}

func TestResizeUpdatesCameraAndSurface(t *testing.T) {
	v, host := loadedViewer(t)

	model := v.Model()
	rot := model.Rotation
	camPos := v.Camera().Position
	lights := slices.Clone(v.Scene().Lights())
	updates := v.Camera().ProjectionUpdates()

	host.SetSize(200, 40)
	if err := v.Frame(time.Now()); err != nil {
		t.Fatal(err)
	}
	if got := v.Camera().AspectRatio; got != 5 {
		t.Errorf("aspect = %v, want 5", got)
	}
	if fb := v.Renderer().Surface(); fb.Width != 200 || fb.Height != 40 {
		t.Errorf("surface = %dx%d, want 200x40", fb.Width, fb.Height)
	}
	if v.Camera().ProjectionUpdates() != updates+1 {
		t.Errorf("projection updates = %d, want %d", v.Camera().ProjectionUpdates(), updates+1)
	}

	if v.Scene().Model() != model || model.Rotation != rot || v.Camera().Position != camPos {
		t.Error("resize changed scene state")
	}
	if !slices.Equal(v.Scene().Lights(), lights) {
		t.Error("resize changed lights")
	}

	// Same size again: same results.
	host.SetSize(200, 40)
	if err := v.Frame(time.Now()); err != nil {
		t.Fatal(err)
	}
	if v.Camera().AspectRatio != 5 || v.Renderer().Surface().Width != 200 {
		t.Error("repeated resize changed the result")
	}
}

func TestScrollDrivesRotation(t *testing.T) {
	v, host := loadedViewer(t)
	model := v.Model()
	if model.Rotation.Y != 0 {
		t.Fatalf("initial rotation = %v", model.Rotation.Y)
	}

	host.Send(display.JumpEvent{End: true})
	if err := v.Frame(time.Now()); err != nil {
		t.Fatal(err)
	}
	first := model.Rotation.Y
	if first <= 0 || first >= 0.1*math.Pi {
		t.Errorf("rotation after one frame = %v, want a lagged step", first)
	}

	for range 60 * 10 {
		if err := v.Frame(time.Now()); err != nil {
			t.Fatal(err)
		}
	}
	if got := model.Rotation.Y; math.Abs(got-0.2*math.Pi) > 1e-9 {
		t.Errorf("rotation = %v, want %v", got, 0.2*math.Pi)
	}
	if v.Binding().Progress() != 1 {
		t.Errorf("progress = %v, want 1", v.Binding().Progress())
	}
}

func TestScrollEventsMovePage(t *testing.T) {
	v, host := loadedViewer(t)
	page := v.Page()

	host.Send(display.ScrollEvent{Lines: 2})
	if err := v.Frame(time.Now()); err != nil {
		t.Fatal(err)
	}
	if want := 2 * 0.1 * 32.0; math.Abs(page.Offset()-want) > 1e-9 {
		t.Errorf("offset = %v, want %v", page.Offset(), want)
	}

	host.Send(display.ScrollEvent{Pages: -5})
	if err := v.Frame(time.Now()); err != nil {
		t.Fatal(err)
	}
	if page.Offset() != 0 {
		t.Errorf("offset = %v, want clamped to 0", page.Offset())
	}
}

func TestEventsToggleHUDAndQuit(t *testing.T) {
	v, host := loadedViewer(t)

	host.Send(display.ToggleHUDEvent{})
	if err := v.Frame(time.Now()); err != nil {
		t.Fatal(err)
	}
	lines := host.Overlay()
	if len(lines) != 2 || !strings.Contains(lines[0], "statue.obj") || !strings.Contains(lines[1], "ready") {
		t.Errorf("overlay = %q", lines)
	}

	host.Send(display.ToggleHUDEvent{})
	if err := v.Frame(time.Now()); err != nil {
		t.Fatal(err)
	}
	if host.Overlay() != nil {
		t.Errorf("overlay still shown: %q", host.Overlay())
	}

	host.Send(display.QuitEvent{})
	if err := v.Frame(time.Now()); !errors.Is(err, display.ErrStop) {
		t.Errorf("Frame = %v, want ErrStop", err)
	}
}

func TestRunWritesSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.png")
	host := display.NewHeadless("container", 48, 24, 200)
	v := New(host, &fakeLoader{}, Options{
		Geometry:     "statue.obj",
		SnapshotPath: path,
		Logger:       slog.New(slog.DiscardHandler),
	})

	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()
	if err := v.Run(ctx); err != nil {
		t.Fatalf("Run = %v", err)
	}
	if v.Status() != StatusReady {
		t.Fatalf("status = %v", v.Status())
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 48 || b.Dy() != 24 {
		t.Errorf("snapshot size = %v", b)
	}
}
