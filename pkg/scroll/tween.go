package scroll

// Ease maps linear progress in [0, 1] to eased progress.
type Ease func(t float64) float64

// EaseNone is the identity ease.
func EaseNone(t float64) float64 { return t }

// Tween interpolates one scalar property between two values.
type Tween struct {
	// Apply writes the interpolated value to the animated property.
	Apply func(v float64)
	From  float64
	To    float64
	// Ease defaults to EaseNone.
	Ease Ease
}

// At returns the tween value at progress t.
func (tw Tween) At(t float64) float64 {
	ease := tw.Ease
	if ease == nil {
		ease = EaseNone
	}
	return tw.From + (tw.To-tw.From)*ease(t)
}
