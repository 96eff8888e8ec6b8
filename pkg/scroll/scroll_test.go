package scroll

import (
	"errors"
	"math"
	"testing"
	"time"
)

func contentPage() *Page {
	p := NewPage(300, 100)
	p.AddRegion(Region{ID: "content", Top: 0, Height: 300})
	return p
}

func TestPageClampsOffset(t *testing.T) {
	p := contentPage()
	p.ScrollBy(-10)
	if p.Offset() != 0 {
		t.Errorf("offset = %v, want 0", p.Offset())
	}
	p.ScrollBy(1000)
	if p.Offset() != 200 {
		t.Errorf("offset = %v, want 200", p.Offset())
	}
	p.SetViewport(250)
	if p.Offset() != 50 {
		t.Errorf("offset after viewport grow = %v, want 50", p.Offset())
	}
	p.SetViewport(400)
	if p.Offset() != 0 || p.MaxOffset() != 0 {
		t.Errorf("viewport taller than page: offset %v max %v", p.Offset(), p.MaxOffset())
	}
}

func TestParsePosition(t *testing.T) {
	tests := []struct {
		in      string
		want    Position
		wantErr bool
	}{
		{"top top", Position{EdgeTop, EdgeTop}, false},
		{"bottom bottom", Position{EdgeBottom, EdgeBottom}, false},
		{"center  top", Position{EdgeCenter, EdgeTop}, false},
		{"center", Position{EdgeCenter, EdgeCenter}, false},
		{"", Position{}, true},
		{"top middle", Position{}, true},
		{"top top top", Position{}, true},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParsePosition(tc.in)
			if (err != nil) != tc.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tc.wantErr)
			}
			if got != tc.want {
				t.Errorf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestTriggerProgress(t *testing.T) {
	p := contentPage()
	tr := Trigger{Region: "content", Start: "top top", End: "bottom bottom"}

	for _, tc := range []struct {
		offset, want float64
	}{
		{0, 0},
		{50, 0.25},
		{100, 0.5},
		{200, 1},
	} {
		p.ScrollTo(tc.offset)
		got, err := tr.Progress(p)
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(got-tc.want) > 1e-12 {
			t.Errorf("offset %v: progress = %v, want %v", tc.offset, got, tc.want)
		}
	}
}

func TestTriggerProgressEmptyRange(t *testing.T) {
	p := NewPage(100, 100)
	p.AddRegion(Region{ID: "content", Height: 100})
	tr := Trigger{Region: "content", Start: "top top", End: "bottom bottom"}
	got, err := tr.Progress(p)
	if err != nil {
		t.Fatal(err)
	}
	if got != 1 {
		t.Errorf("progress = %v, want 1 once the whole region fits", got)
	}
}

func TestRegisterUnknownRegion(t *testing.T) {
	a := NewAnimator(contentPage(), 60)
	_, err := a.Register(Tween{}, Trigger{Region: "missing", Start: "top top", End: "bottom bottom"})
	if !errors.Is(err, ErrUnknownRegion) {
		t.Fatalf("err = %v, want ErrUnknownRegion", err)
	}
	if a.Bindings() != 0 {
		t.Errorf("Bindings = %d after failed register", a.Bindings())
	}
}

func TestTweenEase(t *testing.T) {
	tw := Tween{From: 1, To: 3}
	if got := tw.At(0.5); got != 2 {
		t.Errorf("At(0.5) = %v, want 2", got)
	}
	tw.Ease = func(t float64) float64 { return t * t }
	if got := tw.At(0.5); got != 1.5 {
		t.Errorf("eased At(0.5) = %v, want 1.5", got)
	}
}

func TestScrubZeroFollowsExactly(t *testing.T) {
	p := contentPage()
	a := NewAnimator(p, 60)
	var value float64
	b, err := a.Register(Tween{Apply: func(v float64) { value = v }, To: 10, Ease: EaseNone},
		Trigger{Region: "content", Start: "top top", End: "bottom bottom"})
	if err != nil {
		t.Fatal(err)
	}

	p.ScrollTo(100)
	a.Update()
	if b.Progress() != 0.5 || value != 5 {
		t.Errorf("progress %v value %v, want 0.5 and 5", b.Progress(), value)
	}
}

func TestScrubConvergesWithoutOvershoot(t *testing.T) {
	p := contentPage()
	a := NewAnimator(p, 60)
	target := 0.2 * math.Pi
	var value float64
	b, err := a.Register(Tween{Apply: func(v float64) { value = v }, From: 0, To: target, Ease: EaseNone},
		Trigger{Region: "content", Start: "top top", End: "bottom bottom", Scrub: 1500 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	if value != 0 {
		t.Fatalf("initial value = %v, want 0", value)
	}

	p.ScrollTo(200)
	prev := 0.0
	for i := range 60 * 10 {
		a.Update()
		if b.Progress() < prev {
			t.Fatalf("frame %d: progress went backwards %v -> %v", i, prev, b.Progress())
		}
		if b.Progress() > 1 {
			t.Fatalf("frame %d: overshoot %v", i, b.Progress())
		}
		prev = b.Progress()
	}
	if b.Progress() != 1 {
		t.Errorf("progress after 10s = %v, want 1", b.Progress())
	}
	if math.Abs(value-target) > 1e-12 {
		t.Errorf("value = %v, want %v", value, target)
	}
}

func TestScrubLags(t *testing.T) {
	p := contentPage()
	a := NewAnimator(p, 60)
	b, _ := a.Register(Tween{To: 1}, Trigger{Region: "content", Start: "top top", End: "bottom bottom", Scrub: 1500 * time.Millisecond})

	p.ScrollTo(200)
	a.Update()
	if b.Progress() <= 0 || b.Progress() >= 0.5 {
		t.Errorf("progress after one frame = %v, want a small step", b.Progress())
	}
}

func TestRegisterAppliesCurrentProgress(t *testing.T) {
	p := contentPage()
	p.ScrollTo(100)
	a := NewAnimator(p, 60)
	var value float64
	_, err := a.Register(Tween{Apply: func(v float64) { value = v }, To: 4},
		Trigger{Region: "content", Start: "top top", End: "bottom bottom", Scrub: time.Second})
	if err != nil {
		t.Fatal(err)
	}
	if value != 2 {
		t.Errorf("value = %v, want 2", value)
	}
}
