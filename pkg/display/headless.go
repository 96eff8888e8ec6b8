package display

import (
	"context"
	"sync"
	"time"
)

// Headless is an off-screen host with a single container of a fixed size.
// It presents nothing; callers read the attached surface directly.
type Headless struct {
	TickerScheduler

	id     string
	events chan Event

	mu        sync.Mutex
	width     int
	height    int
	surface   Surface
	overlay   []string
	presented int
}

// NewHeadless creates a headless host whose container is named id. An empty
// id yields a host with no containers.
func NewHeadless(id string, width, height, fps int) *Headless {
	return &Headless{
		TickerScheduler: NewTickerScheduler(fps),
		id:              id,
		events:          make(chan Event, 64),
		width:           width,
		height:          height,
	}
}

// Container implements Host.
func (h *Headless) Container(id string) (Container, bool) {
	if h.id == "" || id != h.id {
		return nil, false
	}
	return headlessContainer{h}, true
}

// Events implements Host.
func (h *Headless) Events() <-chan Event {
	return h.events
}

// Send queues an event as if the platform had produced it. It blocks when
// the queue is full.
func (h *Headless) Send(ev Event) {
	h.events <- ev
}

// SetSize changes the container size and queues a ResizeEvent.
func (h *Headless) SetSize(width, height int) {
	h.mu.Lock()
	h.width, h.height = width, height
	h.mu.Unlock()
	h.Send(ResizeEvent{})
}

// Run implements Scheduler, counting a presentation after every frame.
func (h *Headless) Run(ctx context.Context, frame FrameFunc) error {
	return h.TickerScheduler.Run(ctx, func(now time.Time) error {
		if err := frame(now); err != nil {
			return err
		}
		h.mu.Lock()
		if h.surface != nil {
			h.presented++
		}
		h.mu.Unlock()
		return nil
	})
}

// Presented returns how many frames were presented.
func (h *Headless) Presented() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.presented
}

// Overlay returns the overlay lines last set on the container.
func (h *Headless) Overlay() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.overlay
}

// Attached returns the surface attached to the container, if any.
func (h *Headless) Attached() Surface {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.surface
}

// Close implements Host.
func (h *Headless) Close() error {
	return nil
}

type headlessContainer struct {
	h *Headless
}

func (c headlessContainer) ClientSize() (int, int) {
	c.h.mu.Lock()
	defer c.h.mu.Unlock()
	return c.h.width, c.h.height
}

func (c headlessContainer) Attach(s Surface) {
	c.h.mu.Lock()
	c.h.surface = s
	c.h.mu.Unlock()
}

func (c headlessContainer) Columns() int {
	w, _ := c.ClientSize()
	return w
}

func (c headlessContainer) SetOverlay(lines []string) {
	c.h.mu.Lock()
	c.h.overlay = lines
	c.h.mu.Unlock()
}
