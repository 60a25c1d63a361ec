package events

// CallbackEvent provides pub/sub behavior with type-safe callbacks.
// Callbacks run on the notifying goroutine, outside any internal lock.
type CallbackEvent[T any] struct {
	set *listenerSet[T, func(T)]
}

// NewCallbackEvent creates a new CallbackEvent instance
// replayLast: if true, a new listener is called right away with the last
// notified value (when there is one)
func NewCallbackEvent[T any](replayLast bool) *CallbackEvent[T] {
	return &CallbackEvent[T]{set: newListenerSet[T, func(T)](replayLast)}
}

// Listen registers a callback and returns its deregistration function.
func (e *CallbackEvent[T]) Listen(callback func(T)) func() {
	if callback == nil {
		panic("callback cannot be nil")
	}

	id, last, replay := e.set.add(callback)
	if replay {
		callback(last)
	}

	return func() { e.set.remove(id) }
}

// Notify calls every registered callback with value
func (e *CallbackEvent[T]) Notify(value T) {
	for _, callback := range e.set.record(value) {
		callback(value)
	}
}

// Last returns the most recent notified value and whether Notify was ever called.
func (e *CallbackEvent[T]) Last() (T, bool) {
	return e.set.lastValue()
}

// ListenerCount returns the current number of registered listeners
func (e *CallbackEvent[T]) ListenerCount() int {
	return e.set.count()
}
