package interval

import (
	"context"
	"log"
	"sync"

	"github.com/lowaak/compprep/compprep-app/internal/go_func_utils"
)

type dispatchJob struct {
	name string
	fn   func(ctx context.Context) error
}

// dispatcher runs collaborator calls one at a time, in submission order, off
// the engine goroutine. The queue is unbounded so the engine never blocks on
// a slow collaborator.
type dispatcher struct {
	logger *log.Logger
	ctx    context.Context

	mu     sync.Mutex
	queue  []dispatchJob
	closed bool

	signal   chan struct{}
	doneChan chan struct{}
	wg       sync.WaitGroup
}

func newDispatcher(logger *log.Logger) *dispatcher {
	d := &dispatcher{
		logger:   logger,
		ctx:      context.Background(),
		signal:   make(chan struct{}, 1),
		doneChan: make(chan struct{}),
	}
	d.wg.Add(1)
	go_func_utils.SafeGo(logger, d.run)
	return d
}

func (d *dispatcher) enqueue(name string, fn func(ctx context.Context) error) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.logger.Printf("Dispatcher: dropping %s after shutdown", name)
		return
	}
	d.queue = append(d.queue, dispatchJob{name: name, fn: fn})
	d.mu.Unlock()

	select {
	case d.signal <- struct{}{}:
	default:
	}
}

func (d *dispatcher) run() {
	defer d.wg.Done()
	for {
		select {
		case <-d.signal:
			d.drain()
		case <-d.doneChan:
			d.drain()
			return
		}
	}
}

func (d *dispatcher) drain() {
	for {
		d.mu.Lock()
		if len(d.queue) == 0 {
			d.mu.Unlock()
			return
		}
		job := d.queue[0]
		d.queue[0] = dispatchJob{}
		d.queue = d.queue[1:]
		d.mu.Unlock()

		_ = go_func_utils.SafeCall(d.logger, "Dispatcher: "+job.name, func() error {
			return job.fn(d.ctx)
		})
	}
}

// shutdown runs whatever is still queued and stops the worker.
func (d *dispatcher) shutdown() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.mu.Unlock()

	close(d.doneChan)
	d.wg.Wait()
}
