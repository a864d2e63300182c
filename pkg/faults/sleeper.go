package faults

import (
	"context"
	"time"
)

// Sleeper suspends the calling request for a duration.
type Sleeper interface {
	// Sleep waits for d or until ctx is done, whichever comes first.
	Sleep(ctx context.Context, d time.Duration)
}

// TimerSleeper waits on a timer in the calling goroutine, so only the
// request that triggered the fault is suspended.
type TimerSleeper struct{}

// Sleep implements Sleeper.
func (TimerSleeper) Sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
