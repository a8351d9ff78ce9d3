package session

import (
	"context"
	"sync"
	"time"
)

// Ticker is the part of time.Ticker the timer needs.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Clock creates tickers and reports the current time.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
}

type realClock struct{}

type realTicker struct {
	t *time.Ticker
}

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

func (realClock) Now() time.Time { return time.Now() }

func (realClock) NewTicker(d time.Duration) Ticker {
	return realTicker{t: time.NewTicker(d)}
}

// SystemClock is the wall clock.
var SystemClock Clock = realClock{}

// Countdown is the pure state of a test timer. Remaining never increases,
// the warning fires once when Remaining reaches warnAt and expiry fires once
// at zero.
type Countdown struct {
	remaining int
	warnAt    int
	warned    bool
	expired   bool
}

type TickResult struct {
	Remaining int
	Warn      bool
	Expired   bool
}

func NewCountdown(seconds, warnAt int) *Countdown {
	if seconds < 0 {
		seconds = 0
	}
	return &Countdown{remaining: seconds, warnAt: warnAt}
}

func (c *Countdown) Remaining() int { return c.remaining }

func (c *Countdown) Expired() bool { return c.expired }

// Tick advances the countdown by one second. Ticks after expiry are no-ops.
func (c *Countdown) Tick() TickResult {
	if c.expired {
		return TickResult{Remaining: 0}
	}
	if c.remaining > 0 {
		c.remaining--
	}
	res := TickResult{Remaining: c.remaining}
	if c.remaining == c.warnAt && !c.warned {
		c.warned = true
		res.Warn = true
	}
	if c.remaining == 0 {
		c.expired = true
		res.Expired = true
	}
	return res
}

// Timer runs a once-per-second callback in its own goroutine until stopped
// or until the callback returns false. A Timer can be started only once.
type Timer struct {
	clock Clock

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewTimer(clock Clock) *Timer {
	if clock == nil {
		clock = SystemClock
	}
	return &Timer{clock: clock, done: make(chan struct{})}
}

func (t *Timer) Start(parent context.Context, onTick func() bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.started {
		return ErrTimerStarted
	}
	t.started = true

	ctx, cancel := context.WithCancel(parent)
	t.cancel = cancel
	ticker := t.clock.NewTicker(time.Second)

	go func() {
		defer close(t.done)
		defer ticker.Stop()
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C():
				// a tick racing with Stop must not reach the session
				if ctx.Err() != nil {
					return
				}
				if !onTick() {
					return
				}
			}
		}
	}()
	return nil
}

// Stop cancels the timer. It does not wait for the goroutine, so it is safe
// to call from inside the tick callback; use Done to wait.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.started {
		t.started = true
		close(t.done)
		return
	}
	if t.cancel != nil {
		t.cancel()
	}
}

// Done is closed once the timer goroutine has exited, or once Stop has been
// called on a timer that never started.
func (t *Timer) Done() <-chan struct{} {
	return t.done
}
