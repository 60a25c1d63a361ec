package livestatus

import (
	"fmt"

	"github.com/lowaak/compprep/compprep-app/internal/interval"
)

// Snapshot is the rendered form of a live status, as served over HTTP.
type Snapshot struct {
	Active                 bool    `json:"active"`
	SessionID              string  `json:"session_id,omitempty"`
	TotalSets              int     `json:"total_sets"`
	CurrentSet             int     `json:"current_set"`
	RemainingSeconds       int     `json:"remaining_seconds"`
	CurrentSetTotalSeconds int     `json:"current_set_total_seconds"`
	NextSetSeconds         *int    `json:"next_set_seconds,omitempty"`
	SetsRemaining          int     `json:"sets_remaining"`
	Progress               float64 `json:"progress"`

	Headline  string `json:"headline"`
	Remaining string `json:"remaining"`
	Footer    string `json:"footer"`
	UpNext    string `json:"up_next,omitempty"`
}

func inactiveSnapshot() Snapshot {
	return Snapshot{Headline: "No workout in progress"}
}

// NewSnapshot renders status the way the lock-screen activity does:
// "Set 2 of 5", "1:30", "3 sets remaining" or "Final set!".
func NewSnapshot(status interval.LiveStatus) Snapshot {
	s := Snapshot{
		Active:                 true,
		SessionID:              status.SessionID,
		TotalSets:              status.TotalSets,
		CurrentSet:             status.CurrentSet,
		RemainingSeconds:       status.RemainingSeconds,
		CurrentSetTotalSeconds: status.CurrentSetTotalSeconds,
		NextSetSeconds:         status.NextSetSeconds,
		SetsRemaining:          status.SetsRemaining(),
		Progress:               status.Progress(),
		Headline:               fmt.Sprintf("Set %d of %d", status.CurrentSet, status.TotalSets),
		Remaining:              interval.FormatClock(status.RemainingSeconds),
	}

	switch s.SetsRemaining {
	case 0:
		s.Footer = "Final set!"
	case 1:
		s.Footer = "1 set remaining"
	default:
		s.Footer = fmt.Sprintf("%d sets remaining", s.SetsRemaining)
	}
	if status.NextSetSeconds != nil {
		s.UpNext = "Up Next: " + interval.FormatClock(*status.NextSetSeconds)
	}
	return s
}
