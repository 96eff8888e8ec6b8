package viewer

import (
	"strings"
	"testing"
	"time"
)

func TestHUDTick(t *testing.T) {
	h := NewHUD("model.obj")
	start := time.Unix(0, 0)
	for i := range 31 {
		h.Tick(start.Add(time.Duration(i) * time.Second / 30))
	}
	if h.FPS() < 29 || h.FPS() > 31 {
		t.Errorf("FPS = %v, want ~30", h.FPS())
	}
}

func TestHUDLines(t *testing.T) {
	h := NewHUD("model.obj")
	h.SetTriangles(1234)

	lines := h.Lines(80, StatusLoading, 0.5, 1000)
	if len(lines) != 2 {
		t.Fatalf("lines = %d", len(lines))
	}
	for i, l := range lines {
		if n := len([]rune(l)); n != 80 {
			t.Errorf("line %d width = %d, want 80", i, n)
		}
	}
	if !strings.Contains(lines[0], "1234 tris") || !strings.HasPrefix(lines[1], "loading") || !strings.Contains(lines[1], "50%") {
		t.Errorf("lines = %q", lines)
	}

	narrow := h.Lines(10, StatusFailed, 0, 0)
	if !strings.HasPrefix(narrow[1], "failed ") {
		t.Errorf("narrow = %q", narrow)
	}
}
