package events

// ChannelEvent provides pub/sub behavior using channels.
// T is the type of the value sent to channels.
type ChannelEvent[T any] struct {
	set *listenerSet[T, chan<- T]
}

// NewChannelEvent creates a new ChannelEvent instance
// replayLast: if true, new listeners immediately receive the last notified
// value (when there is one)
func NewChannelEvent[T any](replayLast bool) *ChannelEvent[T] {
	return &ChannelEvent[T]{set: newListenerSet[T, chan<- T](replayLast)}
}

// Listen registers a channel to receive values when Notify is invoked.
// Returns a deregistration function; calling it more than once is harmless.
func (e *ChannelEvent[T]) Listen(ch chan<- T) func() {
	if ch == nil {
		panic("channel cannot be nil")
	}

	id, last, replay := e.set.add(ch)
	if replay {
		trySend(ch, last)
	}

	return func() { e.set.remove(id) }
}

// Notify sends value to every registered channel. Sends never block: a
// listener whose channel is full misses this value.
func (e *ChannelEvent[T]) Notify(value T) {
	for _, ch := range e.set.record(value) {
		trySend(ch, value)
	}
}

// Last returns the most recent notified value and whether Notify was ever called.
func (e *ChannelEvent[T]) Last() (T, bool) {
	return e.set.lastValue()
}

// ListenerCount returns the current number of registered listeners
func (e *ChannelEvent[T]) ListenerCount() int {
	return e.set.count()
}

func trySend[T any](ch chan<- T, value T) bool {
	select {
	case ch <- value:
		return true
	default:
		return false
	}
}
