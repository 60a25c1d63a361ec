package events

import "sync"

// listenerSet is the registry shared by ChannelEvent and CallbackEvent.
// L is the listener type (a send-only channel or a callback).
type listenerSet[T any, L any] struct {
	mu        sync.RWMutex
	listeners map[uint64]L
	nextID    uint64
	replay    bool
	last      T
	notified  bool
}

func newListenerSet[T any, L any](replay bool) *listenerSet[T, L] {
	return &listenerSet[T, L]{
		listeners: make(map[uint64]L),
		replay:    replay,
	}
}

// add registers a listener and returns its id plus the value to replay, if any.
func (s *listenerSet[T, L]) add(listener L) (uint64, T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = listener
	return id, s.last, s.replay && s.notified
}

func (s *listenerSet[T, L]) remove(id uint64) {
	s.mu.Lock()
	delete(s.listeners, id)
	s.mu.Unlock()
}

// record stores value as the last event and returns a snapshot of the
// listeners, so callers can deliver outside the lock.
func (s *listenerSet[T, L]) record(value T) []L {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = value
	s.notified = true
	out := make([]L, 0, len(s.listeners))
	for _, l := range s.listeners {
		out = append(out, l)
	}
	return out
}

func (s *listenerSet[T, L]) lastValue() (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last, s.notified
}

func (s *listenerSet[T, L]) count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.listeners)
}
