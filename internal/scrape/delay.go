// internal/scrape/delay.go
package scrape

import (
	"context"
	"math/rand"
	"time"
)

// DelayPolicy throttles requests between listings and pages. It is injected
// so tests can run without sleeping.
type DelayPolicy interface {
	Wait(ctx context.Context)
}

// RandomDelay sleeps a uniformly random duration in [Min, Max], the
// politeness jitter used against the live site.
type RandomDelay struct {
	Min time.Duration
	Max time.Duration
}

func (d RandomDelay) Wait(ctx context.Context) {
	delay := d.Min
	if d.Max > d.Min {
		delay += time.Duration(rand.Int63n(int64(d.Max - d.Min)))
	}
	sleep(ctx, delay)
}

// NoDelay skips throttling entirely.
type NoDelay struct{}

func (NoDelay) Wait(context.Context) {}

// sleep blocks for d or until ctx is cancelled.
func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
