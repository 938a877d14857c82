package app

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
)

// countdown drives the per-question timer of one session. The pointer itself is
// the identity token: a session only honours ticks from the countdown it currently holds.
type countdown struct {
	cancel context.CancelFunc
	ticker clockwork.Ticker
}

// startCountdown creates the ticker synchronously and calls tick on every
// interval until tick returns false or the countdown is stopped.
func startCountdown(clock clockwork.Clock, interval time.Duration, tick func(*countdown) bool) *countdown {
	ctx, cancel := context.WithCancel(context.Background())
	ticker := clock.NewTicker(interval)
	c := &countdown{cancel: cancel, ticker: ticker}

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.Chan():
				if !tick(c) {
					return
				}
			}
		}
	}()
	return c
}

// stop releases the ticker before returning and is safe to call more than once.
// A tick already waiting on the session lock is discarded by the identity check.
func (c *countdown) stop() {
	c.cancel()
	c.ticker.Stop()
}
