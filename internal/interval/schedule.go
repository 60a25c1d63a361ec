package interval

import (
	"errors"
	"fmt"
	"math/rand"
)

var (
	ErrInvalidSets      = errors.New("total sets must be at least 1")
	ErrInvalidRestRange = errors.New("rest range must satisfy 0 <= min <= max")
)

// Default settings match the stock CompPrep workout.
const (
	DefaultTotalSets      = 5
	DefaultMinRestMinutes = 1
	DefaultMaxRestMinutes = 8
)

// Settings is the externally configured workout shape. Rest bounds are in
// whole minutes.
type Settings struct {
	TotalSets      int `json:"total_sets" yaml:"total_sets"`
	MinRestMinutes int `json:"min_rest_minutes" yaml:"min_rest_minutes"`
	MaxRestMinutes int `json:"max_rest_minutes" yaml:"max_rest_minutes"`
}

func DefaultSettings() Settings {
	return Settings{
		TotalSets:      DefaultTotalSets,
		MinRestMinutes: DefaultMinRestMinutes,
		MaxRestMinutes: DefaultMaxRestMinutes,
	}
}

// Validate reports the first problem with s, wrapping one of the sentinel errors.
func (s Settings) Validate() error {
	if s.TotalSets < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidSets, s.TotalSets)
	}
	if s.MinRestMinutes < 0 || s.MinRestMinutes > s.MaxRestMinutes {
		return fmt.Errorf("%w: got %d..%d minutes", ErrInvalidRestRange, s.MinRestMinutes, s.MaxRestMinutes)
	}
	return nil
}

func (s Settings) minRestSeconds() int { return s.MinRestMinutes * 60 }
func (s Settings) maxRestSeconds() int { return s.MaxRestMinutes * 60 }

// GenerateSchedule draws one rest duration per set, in seconds. Each entry is
// a whole number of minutes drawn uniformly from the inclusive rest range.
func GenerateSchedule(rng *rand.Rand, s Settings) ([]int, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	schedule := make([]int, s.TotalSets)
	span := s.MaxRestMinutes - s.MinRestMinutes + 1
	for i := range schedule {
		schedule[i] = (s.MinRestMinutes + rng.Intn(span)) * 60
	}
	return schedule, nil
}

// restAt returns the rest duration of the 1-based set, or false when set is
// outside the schedule.
func restAt(schedule []int, set int) (int, bool) {
	if set < 1 || set > len(schedule) {
		return 0, false
	}
	return schedule[set-1], true
}

func scheduleTotal(schedule []int) int {
	total := 0
	for _, s := range schedule {
		total += s
	}
	return total
}
