package app

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

func TestStoppedCountdownReleasesItsTicker(t *testing.T) {
	clock := clockwork.NewFakeClock()
	var ticks atomic.Int32
	tick := func(*countdown) bool {
		ticks.Add(1)
		return true
	}

	first := startCountdown(clock, time.Second, tick)
	first.stop()
	second := startCountdown(clock, time.Second, tick)
	defer second.stop()

	// Only the second ticker may still be registered with the clock.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, clock.BlockUntilContext(ctx, 2), context.DeadlineExceeded)

	clock.Advance(time.Second)
	require.Eventually(t, func() bool { return ticks.Load() == 1 }, 2*time.Second, time.Millisecond)
	require.Never(t, func() bool { return ticks.Load() > 1 }, 50*time.Millisecond, 5*time.Millisecond)
}

func TestCountdownStopIsIdempotent(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := startCountdown(clock, time.Second, func(*countdown) bool { return true })

	c.stop()
	c.stop()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, clock.BlockUntilContext(ctx, 1), context.DeadlineExceeded)
}
