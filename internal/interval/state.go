package interval

import (
	"fmt"
	"time"
)

// Status is the coarse lifecycle position of a session.
type Status int

const (
	StatusIdle Status = iota
	StatusRunning
	StatusPaused
	StatusCompleted
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "Idle"
	case StatusRunning:
		return "Running"
	case StatusPaused:
		return "Paused"
	case StatusCompleted:
		return "Completed"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// State is an immutable snapshot of the engine's session.
type State struct {
	Status         Status
	SessionID      string
	Settings       Settings
	TotalSets      int
	MinRestSeconds int
	MaxRestSeconds int
	Schedule       []int

	CurrentSet       int
	RemainingSeconds int
	Suspended        bool
	SuspendedAt      time.Time

	// Derived
	CurrentSetSeconds int
	NextSetSeconds    *int
	SetsRemaining     int
	TotalRestSeconds  int
}

func (s State) IsRunning() bool   { return s.Status == StatusRunning }
func (s State) IsCompleted() bool { return s.Status == StatusCompleted }

// LiveStatus converts the snapshot into what live-status publishers receive.
func (s State) LiveStatus() LiveStatus {
	remaining := s.RemainingSeconds
	if remaining < 0 {
		remaining = 0
	}
	return LiveStatus{
		SessionID:              s.SessionID,
		TotalSets:              s.TotalSets,
		CurrentSet:             s.CurrentSet,
		RemainingSeconds:       remaining,
		CurrentSetTotalSeconds: s.CurrentSetSeconds,
		NextSetSeconds:         s.NextSetSeconds,
	}
}

// FormatClock renders seconds as m:ss. Negative values render as 0:00.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
