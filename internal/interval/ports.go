package interval

import "context"

// Analytics event names emitted by the engine.
const (
	EventTimerStarted   = "timer_started"
	EventTimerPaused    = "timer_paused"
	EventTimerReset     = "timer_reset"
	EventTimerCompleted = "timer_completed"
)

// Event is a single analytics capture.
type Event struct {
	Name       string
	Properties map[string]any
}

// AnalyticsSink receives lifecycle events.
type AnalyticsSink interface {
	Capture(ctx context.Context, event Event) error
}

// BadgeTracker is told about every completed workout.
type BadgeTracker interface {
	OnWorkoutCompleted(ctx context.Context, totalRestSeconds int) error
}

// LiveStatus is one snapshot pushed to an ambient surface.
type LiveStatus struct {
	SessionID              string `json:"session_id"`
	TotalSets              int    `json:"total_sets"`
	CurrentSet             int    `json:"current_set"`
	RemainingSeconds       int    `json:"remaining_seconds"`
	CurrentSetTotalSeconds int    `json:"current_set_total_seconds"`
	NextSetSeconds         *int   `json:"next_set_seconds,omitempty"`
}

// SetsRemaining is the number of sets after the current one.
func (s LiveStatus) SetsRemaining() int {
	if n := s.TotalSets - s.CurrentSet; n > 0 {
		return n
	}
	return 0
}

// Progress is the fraction of the current set that has elapsed, in [0, 1].
func (s LiveStatus) Progress() float64 {
	if s.CurrentSetTotalSeconds <= 0 {
		return 0
	}
	p := 1 - float64(s.RemainingSeconds)/float64(s.CurrentSetTotalSeconds)
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}

// LiveStatusPublisher mirrors session progress onto an ambient surface.
// Update without a prior Start is a no-op and End may be called repeatedly.
type LiveStatusPublisher interface {
	Start(ctx context.Context, totalSets int) error
	Update(ctx context.Context, status LiveStatus) error
	End(ctx context.Context) error
}

// EntitlementGate decides whether the caller may start the timer. The engine
// never consults it.
type EntitlementGate interface {
	HasAccess(ctx context.Context) bool
}

type nopAnalytics struct{}

func (nopAnalytics) Capture(context.Context, Event) error { return nil }

type nopBadges struct{}

func (nopBadges) OnWorkoutCompleted(context.Context, int) error { return nil }

type nopLiveStatus struct{}

func (nopLiveStatus) Start(context.Context, int) error         { return nil }
func (nopLiveStatus) Update(context.Context, LiveStatus) error { return nil }
func (nopLiveStatus) End(context.Context) error                { return nil }
