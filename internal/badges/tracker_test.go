package badges

import (
	"context"
	"errors"
	"io"
	"log"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDay struct {
	now time.Time
}

func newFakeDay() *fakeDay {
	return &fakeDay{now: time.Date(2025, 11, 24, 9, 0, 0, 0, time.Local)}
}

func (d *fakeDay) Now() time.Time { return d.now }

func (d *fakeDay) addDays(n int) { d.now = d.now.AddDate(0, 0, n) }

func (d *fakeDay) setHour(h int) {
	d.now = time.Date(d.now.Year(), d.now.Month(), d.now.Day(), h, 0, 0, 0, d.now.Location())
}

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func names(badges []Badge) []string {
	var out []string
	for _, b := range badges {
		out = append(out, b.Name)
	}
	return out
}

func newTestTracker(t *testing.T, store Store, day *fakeDay) *Tracker {
	t.Helper()
	tracker, err := NewTracker(store, discardLogger(), WithNow(day.Now))
	require.NoError(t, err)
	return tracker
}

func TestTracker_FirstWorkout(t *testing.T) {
	day := newFakeDay()
	tracker := newTestTracker(t, NewMemoryStore(), day)

	var awarded []string
	unregister := tracker.ListenToAwards(func(b Badge) { awarded = append(awarded, b.Name) })
	defer unregister()

	require.NoError(t, tracker.OnWorkoutCompleted(context.Background(), 600))

	assert.Equal(t, []string{FirstTimer}, awarded)
	assert.True(t, tracker.HasBadge(FirstTimer))
	assert.Equal(t, Progress{
		WorkoutCount: 1,
		StreakCount:  1,
		LastUsedDay:  "2025-11-24",
		Collected:    []string{FirstTimer},
	}, tracker.Progress())
}

func TestTracker_SpeedDemon(t *testing.T) {
	day := newFakeDay()
	tracker := newTestTracker(t, NewMemoryStore(), day)

	require.NoError(t, tracker.OnWorkoutCompleted(context.Background(), 120))
	assert.False(t, tracker.HasBadge(SpeedDemon))

	require.NoError(t, tracker.OnWorkoutCompleted(context.Background(), 119))
	assert.True(t, tracker.HasBadge(SpeedDemon))
}

func TestTracker_WorkoutThresholds(t *testing.T) {
	day := newFakeDay()
	tracker := newTestTracker(t, NewMemoryStore(), day)

	counts := map[int][]string{}
	unregister := tracker.ListenToAwards(func(b Badge) {
		n := tracker.Progress().WorkoutCount
		counts[n] = append(counts[n], b.Name)
	})
	defer unregister()

	for i := 0; i < 100; i++ {
		require.NoError(t, tracker.OnWorkoutCompleted(context.Background(), 600))
	}

	assert.Equal(t, map[int][]string{
		1:   {FirstTimer},
		5:   {Workouts5},
		10:  {Workouts10, YearStrong},
		25:  {Workouts25},
		50:  {Workouts50},
		100: {Workouts100},
	}, counts)
	assert.Equal(t, 1, tracker.Progress().StreakCount, "all on the same day")
}

func TestTracker_Streaks(t *testing.T) {
	day := newFakeDay()
	tracker := newTestTracker(t, NewMemoryStore(), day)
	ctx := context.Background()

	for i := 0; i < 13; i++ {
		require.NoError(t, tracker.OnWorkoutCompleted(ctx, 600))
		day.addDays(1)
	}
	assert.Equal(t, 13, tracker.Progress().StreakCount)
	assert.False(t, tracker.HasBadge(WeekStreak))

	// Late at night on day 14 still counts as consecutive.
	day.setHour(23)
	require.NoError(t, tracker.OnWorkoutCompleted(ctx, 600))
	assert.True(t, tracker.HasBadge(WeekStreak))

	// A second workout the same day leaves the streak alone.
	require.NoError(t, tracker.OnWorkoutCompleted(ctx, 600))
	assert.Equal(t, 14, tracker.Progress().StreakCount)

	// Skipping a day restarts it.
	day.addDays(2)
	day.setHour(6)
	require.NoError(t, tracker.OnWorkoutCompleted(ctx, 600))
	assert.Equal(t, 1, tracker.Progress().StreakCount)
	assert.True(t, tracker.HasBadge(WeekStreak), "badges are kept")
}

func TestTracker_MonthStreak(t *testing.T) {
	day := newFakeDay()
	tracker := newTestTracker(t, NewMemoryStore(), day)

	for i := 0; i < 28; i++ {
		require.NoError(t, tracker.OnWorkoutCompleted(context.Background(), 600))
		day.addDays(1)
	}

	assert.True(t, tracker.HasBadge(MonthStreak))
	assert.False(t, tracker.HasBadge(Consistency))
}

func TestTracker_AwardsAreIdempotent(t *testing.T) {
	day := newFakeDay()
	tracker := newTestTracker(t, NewMemoryStore(), day)

	calls := 0
	unregister := tracker.ListenToAwards(func(b Badge) {
		if b.Name == SpeedDemon {
			calls++
		}
	})
	defer unregister()

	for i := 0; i < 3; i++ {
		require.NoError(t, tracker.OnWorkoutCompleted(context.Background(), 30))
	}

	assert.Equal(t, 1, calls)
	assert.Len(t, tracker.Progress().Collected, 2)
}

func TestTracker_CollectedAndLocked(t *testing.T) {
	day := newFakeDay()
	tracker := newTestTracker(t, NewMemoryStore(), day)
	require.NoError(t, tracker.OnWorkoutCompleted(context.Background(), 60))

	assert.Equal(t, []string{SpeedDemon, FirstTimer}, names(tracker.Collected()))
	assert.Len(t, tracker.Locked(), len(All)-2)
	assert.NotContains(t, names(tracker.Locked()), FirstTimer)
}

func TestTracker_PersistsAcrossRestarts(t *testing.T) {
	day := newFakeDay()
	store := NewFileStore(filepath.Join(t.TempDir(), "badges", "badges.yaml"))

	first := newTestTracker(t, store, day)
	require.NoError(t, first.OnWorkoutCompleted(context.Background(), 600))

	day.addDays(1)
	second := newTestTracker(t, store, day)
	assert.True(t, second.HasBadge(FirstTimer))

	require.NoError(t, second.OnWorkoutCompleted(context.Background(), 600))
	assert.Equal(t, 2, second.Progress().WorkoutCount)
	assert.Equal(t, 2, second.Progress().StreakCount)
}

type brokenStore struct {
	loadErr error
	saveErr error
}

func (s brokenStore) Load() (Progress, error) { return Progress{}, s.loadErr }
func (s brokenStore) Save(Progress) error     { return s.saveErr }

func TestTracker_StoreErrors(t *testing.T) {
	_, err := NewTracker(brokenStore{loadErr: errors.New("disk gone")}, discardLogger())
	assert.Error(t, err)

	saveErr := errors.New("read-only")
	tracker, err := NewTracker(brokenStore{saveErr: saveErr}, discardLogger())
	require.NoError(t, err)

	awarded := 0
	tracker.ListenToAwards(func(Badge) { awarded++ })

	err = tracker.OnWorkoutCompleted(context.Background(), 600)
	assert.ErrorIs(t, err, saveErr)
	assert.Equal(t, 1, awarded, "awards still announced when saving fails")
	assert.Equal(t, 1, tracker.Progress().WorkoutCount)
}

func TestFileStore_MissingFileIsEmpty(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "none.yaml"))

	p, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, Progress{}, p)
}

func TestLookup(t *testing.T) {
	b, ok := Lookup(WeekStreak)
	require.True(t, ok)
	assert.Equal(t, "You used the app for 14 days straight!", b.Description)

	_, ok = Lookup("High Roller")
	assert.False(t, ok)
}
