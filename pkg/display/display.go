// Package display defines the surfaces the viewer draws into and the
// schedulers that drive its frame loop. Concrete hosts live in the terminal
// and window subpackages; Headless serves tests and snapshots.
package display

import (
	"context"
	"errors"
	"time"

	"github.com/taigrr/turntable/pkg/render"
)

// ErrStop may be returned by a FrameFunc to end Run without error.
var ErrStop = errors.New("display: stop")

// FrameFunc is called once per scheduler tick.
type FrameFunc func(now time.Time) error

// Scheduler invokes a FrameFunc repeatedly until ctx is done or the frame
// returns an error. Ticks that arrive while a frame is still running are
// dropped.
type Scheduler interface {
	Run(ctx context.Context, frame FrameFunc) error
}

// Surface is something that owns a framebuffer, such as *render.Renderer.
type Surface interface {
	Surface() *render.Framebuffer
}

// Container is the region of a host the viewer renders into.
type Container interface {
	// ClientSize returns the drawable area in framebuffer pixels.
	ClientSize() (width, height int)
	// Attach makes the container present s after every frame.
	Attach(s Surface)
	// SetOverlay replaces the text lines drawn over the surface. Nil hides
	// the overlay.
	SetOverlay(lines []string)
	// Columns is how many overlay characters fit across the container.
	Columns() int
}

// Host is a platform the viewer runs on.
type Host interface {
	Scheduler
	// Container looks up a container by ID.
	Container(id string) (Container, bool)
	// Events delivers input and resize notifications. It is read only from
	// inside FrameFunc.
	Events() <-chan Event
	Close() error
}

// Event is a host notification.
type Event interface {
	event()
}

// ResizeEvent reports that a container's client size may have changed.
type ResizeEvent struct{}

// ScrollEvent moves the page. Lines counts wheel notches or arrow presses,
// Pages counts page up/down presses. Positive values scroll down.
type ScrollEvent struct {
	Lines float64
	Pages float64
}

// JumpEvent scrolls to the top of the page, or to the bottom when End is set.
type JumpEvent struct {
	End bool
}

// ToggleHUDEvent shows or hides the overlay.
type ToggleHUDEvent struct{}

// QuitEvent asks the viewer to stop.
type QuitEvent struct{}

func (ResizeEvent) event()    {}
func (ScrollEvent) event()    {}
func (JumpEvent) event()      {}
func (ToggleHUDEvent) event() {}
func (QuitEvent) event()      {}
