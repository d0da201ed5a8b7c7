// internal/scrape/delay_test.go
package scrape

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRandomDelayStaysWithinBounds(t *testing.T) {
	d := RandomDelay{Min: 10 * time.Millisecond, Max: 30 * time.Millisecond}

	start := time.Now()
	d.Wait(context.Background())
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, 10*time.Millisecond)
	assert.Less(t, elapsed, 500*time.Millisecond)
}

func TestRandomDelayHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := RandomDelay{Min: 10 * time.Second, Max: 20 * time.Second}
	start := time.Now()
	d.Wait(ctx)

	assert.Less(t, time.Since(start), time.Second)
}

func TestNoDelayReturnsImmediately(t *testing.T) {
	start := time.Now()
	NoDelay{}.Wait(context.Background())
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}
