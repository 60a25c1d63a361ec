package livestatus

import (
	"sync"

	"github.com/lowaak/compprep/compprep-app/internal/interval"
)

// activity tracks the start/update/end lifecycle shared by every publisher.
// Updates before start are dropped and end may be called any number of times.
type activity struct {
	mu        sync.Mutex
	active    bool
	totalSets int
	last      interval.LiveStatus
	hasLast   bool
}

// start returns false if the activity was already running.
func (a *activity) start(totalSets int) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	wasActive := a.active
	a.active = true
	a.totalSets = totalSets
	a.hasLast = false
	return !wasActive
}

// update returns the status to publish, or false when not started.
func (a *activity) update(status interval.LiveStatus) (interval.LiveStatus, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.active {
		return status, false
	}
	if status.TotalSets == 0 {
		status.TotalSets = a.totalSets
	}
	a.last = status
	a.hasLast = true
	return status, true
}

// end returns false if there was nothing to end.
func (a *activity) end() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	wasActive := a.active
	a.active = false
	a.hasLast = false
	return wasActive
}

func (a *activity) current() (interval.LiveStatus, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last, a.active && a.hasLast
}
