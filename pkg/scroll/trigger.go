package scroll

import (
	"fmt"
	"strings"
	"time"
)

// Edge names a line across an element or the viewport.
type Edge int

const (
	EdgeTop Edge = iota
	EdgeCenter
	EdgeBottom
)

func (e Edge) fraction() float64 {
	switch e {
	case EdgeCenter:
		return 0.5
	case EdgeBottom:
		return 1
	default:
		return 0
	}
}

func parseEdge(s string) (Edge, error) {
	switch s {
	case "top":
		return EdgeTop, nil
	case "center":
		return EdgeCenter, nil
	case "bottom":
		return EdgeBottom, nil
	}
	return 0, fmt.Errorf("unknown edge %q", s)
}

// Position marks the scroll offset at which an element edge meets a
// viewport edge, e.g. "top top" or "bottom bottom".
type Position struct {
	Element  Edge
	Viewport Edge
}

// ParsePosition parses "<element edge> <viewport edge>". A single word uses
// the same edge for both.
func ParsePosition(s string) (Position, error) {
	fields := strings.Fields(s)
	switch len(fields) {
	case 1:
		fields = append(fields, fields[0])
	case 2:
	default:
		return Position{}, fmt.Errorf("position %q: want \"<element> <viewport>\"", s)
	}
	el, err := parseEdge(fields[0])
	if err != nil {
		return Position{}, fmt.Errorf("position %q: %w", s, err)
	}
	vp, err := parseEdge(fields[1])
	if err != nil {
		return Position{}, fmt.Errorf("position %q: %w", s, err)
	}
	return Position{Element: el, Viewport: vp}, nil
}

// offset returns the scroll offset at which the position is reached.
func (pos Position) offset(r Region, viewport float64) float64 {
	return r.Top + pos.Element.fraction()*r.Height - pos.Viewport.fraction()*viewport
}

// Trigger describes the scroll range over which a tween plays.
type Trigger struct {
	// Region is the ID of the page region being watched.
	Region string
	// Start and End are positions such as "top top".
	Start string
	End   string
	// Scrub is how long the displayed progress takes to catch up with the
	// scroll position. Zero follows the scroll position exactly.
	Scrub time.Duration
}

type resolvedTrigger struct {
	region     string
	start, end Position
}

func (t Trigger) resolve(p *Page) (resolvedTrigger, error) {
	if _, ok := p.Region(t.Region); !ok {
		return resolvedTrigger{}, fmt.Errorf("%w: %q", ErrUnknownRegion, t.Region)
	}
	start, err := ParsePosition(t.Start)
	if err != nil {
		return resolvedTrigger{}, fmt.Errorf("trigger start: %w", err)
	}
	end, err := ParsePosition(t.End)
	if err != nil {
		return resolvedTrigger{}, fmt.Errorf("trigger end: %w", err)
	}
	return resolvedTrigger{region: t.Region, start: start, end: end}, nil
}

// Progress reports how far the page has scrolled through the trigger range,
// in [0, 1].
func (t Trigger) Progress(p *Page) (float64, error) {
	rt, err := t.resolve(p)
	if err != nil {
		return 0, err
	}
	return rt.progress(p), nil
}

func (rt resolvedTrigger) progress(p *Page) float64 {
	r, ok := p.Region(rt.region)
	if !ok {
		return 0
	}
	start := rt.start.offset(r, p.Viewport())
	end := rt.end.offset(r, p.Viewport())
	if end <= start {
		if p.Offset() >= start {
			return 1
		}
		return 0
	}
	return clamp((p.Offset()-start)/(end-start), 0, 1)
}
