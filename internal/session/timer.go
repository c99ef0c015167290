package session

import (
	"time"
)

// Ticker abstracts the one-second clock so tests can drive ticks by hand.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type realTicker struct {
	t *time.Ticker
}

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

func newRealTicker(d time.Duration) Ticker {
	return realTicker{t: time.NewTicker(d)}
}

// countdown owns the per-session wall clock. It decrements once per tick
// and fires at most once, no matter how many ticks arrive afterwards.
type countdown struct {
	remaining int
	fired     bool
}

func newCountdown(d time.Duration) *countdown {
	return &countdown{remaining: int(d / time.Second)}
}

// tick consumes one second. It returns true exactly once, on the tick
// that exhausts the countdown.
func (c *countdown) tick() bool {
	if c.fired {
		return false
	}

	if c.remaining > 0 {
		c.remaining--
	}
	if c.remaining == 0 {
		c.fired = true
		return true
	}

	return false
}

func (c *countdown) left() int { return c.remaining }
