package trader

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrCountdownRunning is returned by Start while a previous countdown has not
// expired or been stopped.
var ErrCountdownRunning = errors.New("countdown already running")

// Countdown decrements a tick counter once per interval and fires a callback
// exactly once when it reaches zero. Only one countdown runs at a time.
type Countdown struct {
	mu        sync.Mutex
	clock     Clock
	interval  time.Duration
	logger    *zap.Logger
	remaining int
	stop      chan struct{} // non-nil while running
	onTick    func(remaining int)
}

// NewCountdown creates an idle countdown.
func NewCountdown(clock Clock, interval time.Duration, logger *zap.Logger) *Countdown {
	return &Countdown{
		clock:    clock,
		interval: interval,
		logger:   logger.Named("countdown"),
	}
}

// OnTick registers a hook called after every decrement, including the last.
func (c *Countdown) OnTick(fn func(remaining int)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onTick = fn
}

// Start begins counting down from ticks. onExpire runs on the countdown's
// goroutine, with no countdown lock held.
func (c *Countdown) Start(ticks int, onExpire func()) error {
	if ticks <= 0 {
		return fmt.Errorf("countdown ticks must be positive, got %d", ticks)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stop != nil {
		return ErrCountdownRunning
	}

	stop := make(chan struct{})
	c.stop = stop
	c.remaining = ticks
	ticker := c.clock.NewTicker(c.interval)
	go c.run(ticker, stop, onExpire)

	c.logger.Debug("Countdown started", zap.Int("ticks", ticks), zap.Duration("interval", c.interval))
	return nil
}

func (c *Countdown) run(ticker Ticker, stop chan struct{}, onExpire func()) {
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C():
			c.mu.Lock()
			if c.stop != stop {
				// Stopped while this tick was in flight.
				c.mu.Unlock()
				return
			}
			c.remaining--
			remaining := c.remaining
			expired := remaining <= 0
			if expired {
				c.stop = nil
			}
			onTick := c.onTick
			c.mu.Unlock()

			if onTick != nil {
				onTick(remaining)
			}
			if expired {
				c.logger.Debug("Countdown expired")
				onExpire()
				return
			}
		}
	}
}

// Remaining returns the ticks left, zero when idle.
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Running reports whether a countdown is in progress.
func (c *Countdown) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stop != nil
}

// Stop abandons the running countdown without firing its callback.
func (c *Countdown) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stop == nil {
		return
	}
	close(c.stop)
	c.stop = nil
	c.remaining = 0
	c.logger.Debug("Countdown stopped")
}
