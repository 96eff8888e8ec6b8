// Package scroll models a scrollable virtual page and drives tweens from the
// scroll position, in the manner of scroll-linked page animations: a
// Trigger watches a named Region of the page and reports how far the
// viewport has travelled through it, and an Animator scrubs Tweens toward
// that progress with a spring.
package scroll

import "math"

// Region is a named block of the page, in page units from the top.
type Region struct {
	ID     string
	Top    float64
	Height float64
}

// Bottom returns the page coordinate of the region's lower edge.
func (r Region) Bottom() float64 {
	return r.Top + r.Height
}

// Page is a virtual document taller than its viewport.
type Page struct {
	height   float64
	viewport float64
	offset   float64
	regions  map[string]Region
}

// NewPage creates a page of the given document and viewport heights,
// scrolled to the top.
func NewPage(height, viewport float64) *Page {
	return &Page{
		height:   height,
		viewport: viewport,
		regions:  make(map[string]Region),
	}
}

// AddRegion registers or replaces a region.
func (p *Page) AddRegion(r Region) {
	p.regions[r.ID] = r
}

// Region looks up a region by ID.
func (p *Page) Region(id string) (Region, bool) {
	r, ok := p.regions[id]
	return r, ok
}

// Height returns the document height.
func (p *Page) Height() float64 { return p.height }

// Viewport returns the viewport height.
func (p *Page) Viewport() float64 { return p.viewport }

// Offset returns the current scroll offset.
func (p *Page) Offset() float64 { return p.offset }

// MaxOffset is the largest reachable scroll offset.
func (p *Page) MaxOffset() float64 {
	return math.Max(0, p.height-p.viewport)
}

// SetViewport changes the viewport height and re-clamps the offset.
func (p *Page) SetViewport(h float64) {
	p.viewport = math.Max(0, h)
	p.ScrollTo(p.offset)
}

// SetHeight changes the document height and re-clamps the offset.
func (p *Page) SetHeight(h float64) {
	p.height = math.Max(0, h)
	p.ScrollTo(p.offset)
}

// ScrollTo moves to offset y, clamped to [0, MaxOffset].
func (p *Page) ScrollTo(y float64) {
	p.offset = clamp(y, 0, p.MaxOffset())
}

// ScrollBy moves the offset by dy. Positive values scroll down.
func (p *Page) ScrollBy(dy float64) {
	p.ScrollTo(p.offset + dy)
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
