package trader

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"demo-options-trader/internal/models"
	"github.com/stretchr/testify/require"
)

// fakeClock hands out tickers that only fire when the test calls Tick.
type fakeClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*fakeTicker
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) NewTicker(time.Duration) Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTicker{ch: make(chan time.Time)}
	c.tickers = append(c.tickers, t)
	return t
}

// Tick advances the clock by one second and delivers it to the newest live
// ticker. It returns once the countdown goroutine has received the tick.
func (c *fakeClock) Tick(t *testing.T) {
	t.Helper()
	c.mu.Lock()
	c.now = c.now.Add(time.Second)
	now := c.now
	var target *fakeTicker
	for i := len(c.tickers) - 1; i >= 0; i-- {
		if !c.tickers[i].stopped.Load() {
			target = c.tickers[i]
			break
		}
	}
	c.mu.Unlock()

	require.NotNil(t, target, "no running ticker")
	select {
	case target.ch <- now:
	case <-time.After(2 * time.Second):
		t.Fatal("tick was not received")
	}
}

type fakeTicker struct {
	ch      chan time.Time
	stopped atomic.Bool
}

func (f *fakeTicker) C() <-chan time.Time { return f.ch }
func (f *fakeTicker) Stop()               { f.stopped.Store(true) }

// sequence replays fixed draws, cycling when exhausted.
type sequence struct {
	mu    sync.Mutex
	draws []float64
	i     int
}

func (s *sequence) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.draws[s.i%len(s.draws)]
	s.i++
	return v
}

// recorder collects notifications and lets tests wait for a given event.
type recorder struct {
	mu    sync.Mutex
	notes []models.Notification
	ch    chan models.Notification
}

func newRecorder() *recorder {
	return &recorder{ch: make(chan models.Notification, 64)}
}

func (r *recorder) Notify(n models.Notification) {
	r.mu.Lock()
	r.notes = append(r.notes, n)
	r.mu.Unlock()
	r.ch <- n
}

func (r *recorder) all() []models.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Notification, len(r.notes))
	copy(out, r.notes)
	return out
}

func (r *recorder) events() []models.Event {
	var out []models.Event
	for _, n := range r.all() {
		out = append(out, n.Event)
	}
	return out
}

// waitFor blocks until a notification for event arrives and returns it.
func (r *recorder) waitFor(t *testing.T, event models.Event) models.Notification {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case n := <-r.ch:
			if n.Event == event {
				return n
			}
		case <-timeout:
			t.Fatalf("no %s notification received", event)
			return models.Notification{}
		}
	}
}
