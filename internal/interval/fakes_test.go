package interval

import (
	"context"
	"errors"
	"io"
	"log"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*fakeTicker
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 11, 20, 18, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

func (c *fakeClock) NewTicker(time.Duration) Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTicker{ch: make(chan time.Time)}
	c.tickers = append(c.tickers, t)
	return t
}

// active returns the most recent ticker that has not been stopped.
func (c *fakeClock) active() *fakeTicker {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.tickers) - 1; i >= 0; i-- {
		if !c.tickers[i].isStopped() {
			return c.tickers[i]
		}
	}
	return nil
}

func (c *fakeClock) tickerCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tickers)
}

type fakeTicker struct {
	ch      chan time.Time
	mu      sync.Mutex
	stopped bool
}

func (t *fakeTicker) C() <-chan time.Time { return t.ch }

func (t *fakeTicker) Stop() {
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
}

func (t *fakeTicker) isStopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

type recordingAnalytics struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingAnalytics) Capture(_ context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingAnalytics) named(name string) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, e := range r.events {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

type recordingBadges struct {
	mu     sync.Mutex
	totals []int
}

func (r *recordingBadges) OnWorkoutCompleted(_ context.Context, totalRestSeconds int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.totals = append(r.totals, totalRestSeconds)
	return nil
}

func (r *recordingBadges) calls() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.totals...)
}

type recordingLive struct {
	mu      sync.Mutex
	calls   []string
	updates []LiveStatus
}

func (r *recordingLive) Start(_ context.Context, totalSets int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "start")
	return nil
}

func (r *recordingLive) Update(_ context.Context, status LiveStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "update")
	r.updates = append(r.updates, status)
	return nil
}

func (r *recordingLive) End(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "end")
	return nil
}

func (r *recordingLive) snapshot() ([]string, []LiveStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...), append([]LiveStatus(nil), r.updates...)
}

type failingAnalytics struct{}

func (failingAnalytics) Capture(context.Context, Event) error {
	return errors.New("posthog unreachable")
}

type panickingBadges struct{}

func (panickingBadges) OnWorkoutCompleted(context.Context, int) error {
	panic("badge store corrupted")
}

// withSchedule replaces schedule generation with a fixed schedule.
func withSchedule(schedule ...int) Option {
	return func(e *Engine) {
		e.generate = func(*rand.Rand, Settings) ([]int, error) {
			return append([]int(nil), schedule...), nil
		}
	}
}

type harness struct {
	t         *testing.T
	engine    *Engine
	clock     *fakeClock
	analytics *recordingAnalytics
	badges    *recordingBadges
	live      *recordingLive
}

func newHarness(t *testing.T, settings Settings, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		t:         t,
		clock:     newFakeClock(),
		analytics: &recordingAnalytics{},
		badges:    &recordingBadges{},
		live:      &recordingLive{},
	}
	all := []Option{
		WithClock(h.clock),
		WithRand(rand.New(rand.NewSource(42))),
		WithAnalytics(h.analytics),
		WithBadges(h.badges),
		WithLiveStatus(h.live),
	}
	all = append(all, opts...)

	engine, err := New(settings, log.New(io.Discard, "", 0), all...)
	require.NoError(t, err)
	h.engine = engine
	t.Cleanup(engine.Shutdown)
	return h
}

// tick advances the clock by d, delivers one tick and waits for the engine
// to finish handling it.
func (h *harness) tick(d time.Duration) State {
	h.t.Helper()
	now := h.clock.Advance(d)
	ticker := h.clock.active()
	require.NotNil(h.t, ticker, "no active ticker")
	select {
	case ticker.ch <- now:
	case <-time.After(time.Second):
		h.t.Fatal("engine did not accept tick")
	}
	return h.engine.State()
}

// flush shuts the engine down so every queued collaborator call has run.
func (h *harness) flush() {
	h.engine.Shutdown()
}
