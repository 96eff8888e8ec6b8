// Package terminal hosts the viewer in a terminal, drawing the framebuffer
// as half-block cells with ultraviolet.
package terminal

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"os"
	"sync"
	"time"

	uv "github.com/charmbracelet/ultraviolet"
	"github.com/mattn/go-runewidth"
	"golang.org/x/sync/errgroup"

	"github.com/taigrr/turntable/pkg/display"
)

const (
	mouseOn  = "\x1b[?1000h\x1b[?1006h" // button tracking, SGR encoding
	mouseOff = "\x1b[?1000l\x1b[?1006l"
)

var (
	overlayFg = color.RGBA{235, 235, 235, 255}
	overlayBg = color.RGBA{0, 0, 0, 255}
)

// Terminal is a display.Host backed by the controlling terminal. Its single
// container covers the whole screen; each cell holds two pixel rows.
type Terminal struct {
	display.TickerScheduler

	id     string
	term   *uv.Terminal
	events chan display.Event

	mu      sync.Mutex
	cols    int
	rows    int
	resized bool
	surface display.Surface
	overlay []string
}

// New takes over the terminal: alternate screen, hidden cursor, mouse
// reporting. Call Close to restore it.
func New(id string, fps int) (*Terminal, error) {
	term := uv.DefaultTerminal()

	cols, rows, err := term.GetSize()
	if err != nil {
		return nil, fmt.Errorf("get terminal size: %w", err)
	}
	if err := term.Start(); err != nil {
		return nil, fmt.Errorf("start terminal: %w", err)
	}

	term.EnterAltScreen()
	term.HideCursor()
	term.Resize(cols, rows)
	fmt.Fprint(os.Stdout, mouseOn)

	return &Terminal{
		TickerScheduler: display.NewTickerScheduler(fps),
		id:              id,
		term:            term,
		events:          make(chan display.Event, 64),
		cols:            cols,
		rows:            rows,
	}, nil
}

// Container implements display.Host.
func (t *Terminal) Container(id string) (display.Container, bool) {
	if id != t.id {
		return nil, false
	}
	return container{t}, true
}

// Events implements display.Host.
func (t *Terminal) Events() <-chan display.Event {
	return t.events
}

// Run pumps terminal input on one goroutine and runs frames on another.
// Every frame is followed by a redraw of the attached surface.
func (t *Terminal) Run(ctx context.Context, frame display.FrameFunc) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return t.pump(ctx)
	})
	g.Go(func() error {
		defer cancel()
		return t.TickerScheduler.Run(ctx, func(now time.Time) error {
			if err := frame(now); err != nil {
				return err
			}
			return t.present()
		})
	})
	return g.Wait()
}

func (t *Terminal) pump(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-t.term.Events():
			if !ok {
				return nil
			}
			out := t.translate(ev)
			if out == nil {
				continue
			}
			select {
			case t.events <- out:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

func (t *Terminal) translate(ev uv.Event) display.Event {
	switch ev := ev.(type) {
	case uv.WindowSizeEvent:
		t.mu.Lock()
		t.cols, t.rows, t.resized = ev.Width, ev.Height, true
		t.mu.Unlock()
		return display.ResizeEvent{}

	case uv.KeyPressEvent:
		switch {
		case ev.MatchString("ctrl+c", "escape", "q"):
			return display.QuitEvent{}
		case ev.MatchString("?", "shift+/"):
			return display.ToggleHUDEvent{}
		case ev.MatchString("up", "k"):
			return display.ScrollEvent{Lines: -1}
		case ev.MatchString("down", "j"):
			return display.ScrollEvent{Lines: 1}
		case ev.MatchString("pgup", "b"):
			return display.ScrollEvent{Pages: -1}
		case ev.MatchString("pgdown", "space"):
			return display.ScrollEvent{Pages: 1}
		case ev.MatchString("home", "g", "r"):
			return display.JumpEvent{}
		case ev.MatchString("end", "G"):
			return display.JumpEvent{End: true}
		}

	case uv.MouseWheelEvent:
		switch ev.Button {
		case uv.MouseWheelUp:
			return display.ScrollEvent{Lines: -1}
		case uv.MouseWheelDown:
			return display.ScrollEvent{Lines: 1}
		}
	}
	return nil
}

func (t *Terminal) present() error {
	t.mu.Lock()
	cols, rows, resized := t.cols, t.rows, t.resized
	t.resized = false
	surface, overlay := t.surface, t.overlay
	t.mu.Unlock()

	if resized {
		t.term.Erase()
		t.term.Resize(cols, rows)
	}
	if surface == nil {
		return nil
	}

	area := image.Rect(0, 0, cols, rows)
	surface.Surface().Draw(t.term, area)
	for i, line := range overlay {
		if i >= rows {
			break
		}
		drawText(t.term, i, cols, line)
	}

	if err := t.term.Display(); err != nil {
		return fmt.Errorf("display: %w", err)
	}
	return nil
}

// drawText writes line at the start of row, padded with background cells
// to the full width.
func drawText(scr uv.Screen, row, cols int, line string) {
	style := uv.Style{Fg: overlayFg, Bg: overlayBg}
	x := 0
	for _, r := range line {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			continue
		}
		if x+w > cols {
			break
		}
		scr.SetCell(x, row, &uv.Cell{Content: string(r), Width: w, Style: style})
		x += w
	}
	for ; x < cols; x++ {
		scr.SetCell(x, row, &uv.Cell{Content: " ", Width: 1, Style: style})
	}
}

// Close restores the terminal.
func (t *Terminal) Close() error {
	fmt.Fprint(os.Stdout, mouseOff)
	t.term.ExitAltScreen()
	t.term.ShowCursor()
	if err := t.term.Shutdown(context.Background()); err != nil {
		return fmt.Errorf("shutdown terminal: %w", err)
	}
	return nil
}

type container struct {
	t *Terminal
}

// ClientSize reports cols × 2·rows pixels.
func (c container) ClientSize() (int, int) {
	c.t.mu.Lock()
	defer c.t.mu.Unlock()
	return c.t.cols, c.t.rows * 2
}

func (c container) Attach(s display.Surface) {
	c.t.mu.Lock()
	c.t.surface = s
	c.t.mu.Unlock()
}

func (c container) Columns() int {
	c.t.mu.Lock()
	defer c.t.mu.Unlock()
	return c.t.cols
}

func (c container) SetOverlay(lines []string) {
	c.t.mu.Lock()
	c.t.overlay = lines
	c.t.mu.Unlock()
}
