package viewer

import (
	"fmt"
	"strings"
	"time"
)

// HUD tracks frame rate and formats the overlay lines.
type HUD struct {
	name      string
	triangles int
	fps       float64
	fpsFrames int
	fpsTime   time.Time
}

// NewHUD creates a HUD for the named model.
func NewHUD(name string) *HUD {
	return &HUD{name: name}
}

// SetTriangles records the model's triangle count.
func (h *HUD) SetTriangles(n int) {
	h.triangles = n
}

// Tick counts one frame and refreshes the FPS figure once a second.
func (h *HUD) Tick(now time.Time) {
	if h.fpsTime.IsZero() {
		h.fpsTime = now
	}
	h.fpsFrames++
	elapsed := now.Sub(h.fpsTime)
	if elapsed >= time.Second {
		h.fps = float64(h.fpsFrames) / elapsed.Seconds()
		h.fpsFrames = 0
		h.fpsTime = now
	}
}

// FPS returns the last measured frame rate.
func (h *HUD) FPS() float64 {
	return h.fps
}

// Lines formats the overlay: frame rate, model name and size on top, then
// pipeline status and scroll progress. width is in columns.
func (h *HUD) Lines(width int, status Status, progress float64, drawn int) []string {
	top := spread(width,
		fmt.Sprintf("%.0f FPS", h.fps),
		h.name,
		fmt.Sprintf("%d tris (%d drawn)", h.triangles, drawn),
	)
	bottom := spread(width,
		status.String(),
		fmt.Sprintf("scroll %3.0f%%", progress*100),
		"? hide",
	)
	return []string{top, bottom}
}

// spread lays out left, middle and right within width, falling back to
// single spaces when there is no room.
func spread(width int, left, middle, right string) string {
	used := len([]rune(left)) + len([]rune(middle)) + len([]rune(right))
	gap := width - used
	if gap < 2 {
		return strings.Join([]string{left, middle, right}, " ")
	}
	lgap := gap / 2
	return left + strings.Repeat(" ", lgap) + middle + strings.Repeat(" ", gap-lgap) + right
}
