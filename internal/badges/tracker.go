package badges

import (
	"context"
	"fmt"
	"log"
	"slices"
	"sync"
	"time"

	"github.com/lowaak/compprep/compprep-app/internal/events"
)

const dayLayout = "2006-01-02"

// Tracker counts completed workouts and daily streaks and awards badges.
// It satisfies interval.BadgeTracker.
type Tracker struct {
	mu       sync.Mutex
	store    Store
	progress Progress
	now      func() time.Time
	logger   *log.Logger
	awarded  *events.CallbackEvent[Badge]
}

type TrackerOption func(*Tracker)

// WithNow overrides the time source used for streaks.
func WithNow(now func() time.Time) TrackerOption {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

func NewTracker(store Store, logger *log.Logger, opts ...TrackerOption) (*Tracker, error) {
	if store == nil {
		panic("Tracker: store cannot be nil")
	}
	if logger == nil {
		panic("Tracker: logger cannot be nil")
	}

	progress, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load badge progress: %w", err)
	}

	t := &Tracker{
		store:    store,
		progress: progress,
		now:      time.Now,
		logger:   logger,
		awarded:  events.NewCallbackEvent[Badge](false),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// OnWorkoutCompleted records a finished workout, updates the streak and
// awards any badges newly earned.
func (t *Tracker) OnWorkoutCompleted(_ context.Context, totalRestSeconds int) error {
	t.mu.Lock()
	t.progress.WorkoutCount++
	t.updateStreak()

	var earned []Badge
	award := func(name string) {
		if b, ok := t.awardIfNeeded(name); ok {
			earned = append(earned, b)
		}
	}

	if t.progress.WorkoutCount == 1 {
		award(FirstTimer)
	}
	for _, th := range workoutThresholds {
		if t.progress.WorkoutCount >= th.count {
			award(th.badge)
		}
	}
	if totalRestSeconds < speedDemonAt {
		award(SpeedDemon)
	}
	for _, th := range streakThresholds {
		if t.progress.StreakCount >= th.days {
			award(th.badge)
		}
	}

	snapshot := cloneProgress(t.progress)
	t.mu.Unlock()

	t.logger.Printf("Badges: workout %d recorded (streak %d days, %ds rest)",
		snapshot.WorkoutCount, snapshot.StreakCount, totalRestSeconds)

	err := t.store.Save(snapshot)
	for _, b := range earned {
		t.logger.Printf("Badges: awarded %q", b.Name)
		t.awarded.Notify(b)
	}
	if err != nil {
		return fmt.Errorf("save badge progress: %w", err)
	}
	return nil
}

// updateStreak extends the streak on consecutive days and restarts it after
// a gap. Must be called with mu held.
func (t *Tracker) updateStreak() {
	now := t.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	last, err := time.ParseInLocation(dayLayout, t.progress.LastUsedDay, now.Location())
	switch {
	case t.progress.LastUsedDay == "" || err != nil:
		t.progress.StreakCount = 1
	default:
		days := daysBetween(last, today)
		switch {
		case days == 0:
			return
		case days == 1:
			t.progress.StreakCount++
		default:
			t.progress.StreakCount = 1
		}
	}
	t.progress.LastUsedDay = today.Format(dayLayout)
}

// daysBetween counts calendar days from a to b, both at local midnight.
func daysBetween(a, b time.Time) int {
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}

// awardIfNeeded must be called with mu held.
func (t *Tracker) awardIfNeeded(name string) (Badge, bool) {
	if slices.Contains(t.progress.Collected, name) {
		return Badge{}, false
	}
	b, ok := Lookup(name)
	if !ok {
		return Badge{}, false
	}
	t.progress.Collected = append(t.progress.Collected, name)
	return b, true
}

func (t *Tracker) HasBadge(name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Contains(t.progress.Collected, name)
}

// Collected returns earned badges in display order.
func (t *Tracker) Collected() []Badge {
	return t.filter(true)
}

// Locked returns badges not yet earned, in display order.
func (t *Tracker) Locked() []Badge {
	return t.filter(false)
}

func (t *Tracker) filter(collected bool) []Badge {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Badge, 0, len(All))
	for _, b := range All {
		if slices.Contains(t.progress.Collected, b.Name) == collected {
			out = append(out, b)
		}
	}
	return out
}

func (t *Tracker) Progress() Progress {
	t.mu.Lock()
	defer t.mu.Unlock()
	return cloneProgress(t.progress)
}

// ListenToAwards registers fn for newly awarded badges and returns a func
// that unregisters it.
func (t *Tracker) ListenToAwards(fn func(Badge)) func() {
	return t.awarded.Listen(fn)
}
