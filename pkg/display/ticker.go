package display

import (
	"context"
	"errors"
	"time"
)

// TickerScheduler runs frames at a fixed rate on the calling goroutine.
// time.Ticker drops ticks for slow receivers, so a long frame delays the
// next one instead of queueing a burst.
type TickerScheduler struct {
	Interval time.Duration
}

// NewTickerScheduler returns a scheduler running fps frames per second.
func NewTickerScheduler(fps int) TickerScheduler {
	return TickerScheduler{Interval: time.Second / time.Duration(max(fps, 1))}
}

// Run implements Scheduler.
func (s TickerScheduler) Run(ctx context.Context, frame FrameFunc) error {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			if err := frame(now); err != nil {
				if errors.Is(err, ErrStop) {
					return nil
				}
				return err
			}
		}
	}
}
