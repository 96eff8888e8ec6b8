package scroll

import (
	"errors"
	"math"

	"github.com/charmbracelet/harmonica"
)

// ErrUnknownRegion is returned when a trigger names a region the page does
// not have.
var ErrUnknownRegion = errors.New("scroll: unknown region")

// settle is the distance below which a scrubbed binding snaps to its target.
const settle = 1e-4

// Binding is a tween registered against a trigger.
type Binding struct {
	tween   Tween
	trigger resolvedTrigger
	snap    bool
	spring  harmonica.Spring

	progress float64 // displayed
	velocity float64
}

// Progress returns the displayed (smoothed) progress in [0, 1].
func (b *Binding) Progress() float64 {
	return b.progress
}

// Value returns the tween value for the displayed progress.
func (b *Binding) Value() float64 {
	return b.tween.At(b.progress)
}

func (b *Binding) step(target float64) {
	if b.snap {
		b.progress, b.velocity = target, 0
		return
	}
	b.progress, b.velocity = b.spring.Update(b.progress, b.velocity, target)
	if math.Abs(b.progress-target) < settle && math.Abs(b.velocity) < settle {
		b.progress, b.velocity = target, 0
	}
	b.progress = clamp(b.progress, 0, 1)
}

func (b *Binding) apply() {
	if b.tween.Apply != nil {
		b.tween.Apply(b.Value())
	}
}

// Animator advances every registered binding once per frame.
type Animator struct {
	page     *Page
	fps      int
	bindings []*Binding
}

// NewAnimator creates an animator for page, updated fps times per second.
func NewAnimator(page *Page, fps int) *Animator {
	return &Animator{page: page, fps: max(fps, 1)}
}

// Register binds tw to tr. The tween is applied immediately at the
// trigger's current progress.
func (a *Animator) Register(tw Tween, tr Trigger) (*Binding, error) {
	rt, err := tr.resolve(a.page)
	if err != nil {
		return nil, err
	}
	b := &Binding{
		tween:   tw,
		trigger: rt,
		snap:    tr.Scrub <= 0,
	}
	if !b.snap {
		// Critically damped: no overshoot, settles in roughly the scrub time.
		b.spring = harmonica.NewSpring(harmonica.FPS(a.fps), 4/tr.Scrub.Seconds(), 1.0)
	}
	b.progress = rt.progress(a.page)
	b.apply()
	a.bindings = append(a.bindings, b)
	return b, nil
}

// Bindings returns the number of registered bindings.
func (a *Animator) Bindings() int {
	return len(a.bindings)
}

// Update moves every binding one frame toward its trigger progress and
// applies its tween.
func (a *Animator) Update() {
	for _, b := range a.bindings {
		b.step(b.trigger.progress(a.page))
		b.apply()
	}
}
