package events

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallbackEvent_Listen_Notify_Basic(t *testing.T) {
	event := NewCallbackEvent[string](false)

	var mu sync.Mutex
	received := make([]string, 0)
	unregister := event.Listen(func(value string) {
		mu.Lock()
		received = append(received, value)
		mu.Unlock()
	})
	assert.Equal(t, 1, event.ListenerCount())

	event.Notify("First Timer")
	event.Notify("Speed Demon")

	mu.Lock()
	assert.Equal(t, []string{"First Timer", "Speed Demon"}, received)
	mu.Unlock()

	unregister()
	event.Notify("5 Workouts")

	mu.Lock()
	assert.Len(t, received, 2)
	mu.Unlock()
}

func TestCallbackEvent_ReplayLast(t *testing.T) {
	event := NewCallbackEvent[int](true)

	calls := 0
	unregister := event.Listen(func(int) { calls++ })
	assert.Equal(t, 0, calls, "nothing to replay before the first Notify")
	unregister()

	event.Notify(12)

	var got int
	unregister = event.Listen(func(v int) { got = v })
	defer unregister()
	assert.Equal(t, 12, got)

	last, ok := event.Last()
	require.True(t, ok)
	assert.Equal(t, 12, last)
}

func TestCallbackEvent_Listen_NilCallback(t *testing.T) {
	event := NewCallbackEvent[string](false)

	assert.Panics(t, func() {
		event.Listen(nil)
	})
}

func TestCallbackEvent_UnregisterDuringNotify(t *testing.T) {
	event := NewCallbackEvent[int](false)

	var unregister func()
	calls := 0
	unregister = event.Listen(func(int) {
		calls++
		unregister()
	})

	assert.NotPanics(t, func() { event.Notify(1) })
	event.Notify(2)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, event.ListenerCount())
}

func TestCallbackEvent_ConcurrentAccess(t *testing.T) {
	event := NewCallbackEvent[int](false)

	var mu sync.Mutex
	total := 0
	for i := 0; i < 4; i++ {
		unregister := event.Listen(func(v int) {
			mu.Lock()
			total += v
			mu.Unlock()
		})
		defer unregister()
	}

	var wg sync.WaitGroup
	for i := 1; i <= 10; i++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			event.Notify(v)
		}(i)
	}
	wg.Wait()

	mu.Lock()
	assert.Equal(t, 4*55, total)
	mu.Unlock()
}
