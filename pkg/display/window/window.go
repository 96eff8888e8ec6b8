// Package window hosts the viewer in a desktop window using ebiten. The
// window is transparent where the framebuffer is transparent.
package window

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/taigrr/turntable/pkg/display"
)

// debugGlyphWidth is the advance of ebitenutil's debug font.
const debugGlyphWidth = 6

// Options configures the window.
type Options struct {
	Title  string
	Width  int // Window size in screen pixels
	Height int
	// PixelScale is how many screen pixels each framebuffer pixel covers.
	PixelScale int
	FPS        int
}

// Window is a display.Host backed by an ebiten window.
type Window struct {
	id     string
	opts   Options
	events chan display.Event

	mu      sync.Mutex
	width   int // framebuffer pixels
	height  int
	surface display.Surface
	overlay []string
}

// New creates a window host. Nothing is shown until Run.
func New(id string, opts Options) *Window {
	opts.PixelScale = max(opts.PixelScale, 1)
	opts.FPS = max(opts.FPS, 1)
	return &Window{
		id:     id,
		opts:   opts,
		events: make(chan display.Event, 64),
		width:  opts.Width / opts.PixelScale,
		height: opts.Height / opts.PixelScale,
	}
}

// Container implements display.Host.
func (w *Window) Container(id string) (display.Container, bool) {
	if id != w.id {
		return nil, false
	}
	return container{w}, true
}

// Events implements display.Host.
func (w *Window) Events() <-chan display.Event {
	return w.events
}

// Close implements display.Host.
func (w *Window) Close() error {
	return nil
}

// Run opens the window and blocks until it closes, ctx is done or frame
// fails. It must be called from the main goroutine.
func (w *Window) Run(ctx context.Context, frame display.FrameFunc) error {
	ebiten.SetWindowTitle(w.opts.Title)
	ebiten.SetWindowSize(w.opts.Width, w.opts.Height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(w.opts.FPS)

	g := &game{
		w:        w,
		ctx:      ctx,
		frame:    frame,
		interval: time.Second / time.Duration(w.opts.FPS),
	}
	return ebiten.RunGameWithOptions(g, &ebiten.RunGameOptions{ScreenTransparent: true})
}

func (w *Window) send(ev display.Event) {
	select {
	case w.events <- ev:
	default:
	}
}

type game struct {
	w        *Window
	ctx      context.Context
	frame    display.FrameFunc
	interval time.Duration
	last     time.Time
	img      *ebiten.Image
}

func (g *game) Update() error {
	if g.ctx.Err() != nil {
		return ebiten.Termination
	}

	now := time.Now()
	// ebiten catches up on missed ticks with back-to-back updates; drop them.
	if !g.last.IsZero() && now.Sub(g.last) < g.interval/2 {
		return nil
	}
	g.last = now

	g.poll()
	if err := g.frame(now); err != nil {
		if errors.Is(err, display.ErrStop) {
			return ebiten.Termination
		}
		return err
	}
	return nil
}

func (g *game) poll() {
	w := g.w
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyEscape), inpututil.IsKeyJustPressed(ebiten.KeyQ):
		w.send(display.QuitEvent{})
	case inpututil.IsKeyJustPressed(ebiten.KeySlash):
		w.send(display.ToggleHUDEvent{})
	case inpututil.IsKeyJustPressed(ebiten.KeyArrowUp):
		w.send(display.ScrollEvent{Lines: -1})
	case inpututil.IsKeyJustPressed(ebiten.KeyArrowDown):
		w.send(display.ScrollEvent{Lines: 1})
	case inpututil.IsKeyJustPressed(ebiten.KeyPageUp):
		w.send(display.ScrollEvent{Pages: -1})
	case inpututil.IsKeyJustPressed(ebiten.KeyPageDown), inpututil.IsKeyJustPressed(ebiten.KeySpace):
		w.send(display.ScrollEvent{Pages: 1})
	case inpututil.IsKeyJustPressed(ebiten.KeyHome), inpututil.IsKeyJustPressed(ebiten.KeyR):
		w.send(display.JumpEvent{})
	case inpututil.IsKeyJustPressed(ebiten.KeyEnd):
		w.send(display.JumpEvent{End: true})
	}
	if _, dy := ebiten.Wheel(); dy != 0 {
		w.send(display.ScrollEvent{Lines: -dy})
	}
}

func (g *game) Draw(screen *ebiten.Image) {
	g.w.mu.Lock()
	surface, overlay := g.w.surface, g.w.overlay
	g.w.mu.Unlock()

	if surface == nil {
		return
	}
	fb := surface.Surface()
	if fb.Width == 0 || fb.Height == 0 {
		return
	}
	if g.img == nil || g.img.Bounds().Dx() != fb.Width || g.img.Bounds().Dy() != fb.Height {
		if g.img != nil {
			g.img.Deallocate()
		}
		g.img = ebiten.NewImage(fb.Width, fb.Height)
	}
	g.img.WritePixels(fb.Image().Pix)
	screen.DrawImage(g.img, nil)

	if len(overlay) > 0 {
		ebitenutil.DebugPrint(screen, strings.Join(overlay, "\n"))
	}
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	w := g.w
	width := max(outsideWidth/w.opts.PixelScale, 1)
	height := max(outsideHeight/w.opts.PixelScale, 1)

	w.mu.Lock()
	changed := width != w.width || height != w.height
	w.width, w.height = width, height
	w.mu.Unlock()

	if changed {
		w.send(display.ResizeEvent{})
	}
	return width, height
}

type container struct {
	w *Window
}

func (c container) ClientSize() (int, int) {
	c.w.mu.Lock()
	defer c.w.mu.Unlock()
	return c.w.width, c.w.height
}

func (c container) Attach(s display.Surface) {
	c.w.mu.Lock()
	c.w.surface = s
	c.w.mu.Unlock()
}

// Columns counts debug-font glyphs across the framebuffer.
func (c container) Columns() int {
	w, _ := c.ClientSize()
	return w / debugGlyphWidth
}

func (c container) SetOverlay(lines []string) {
	c.w.mu.Lock()
	c.w.overlay = lines
	c.w.mu.Unlock()
}
