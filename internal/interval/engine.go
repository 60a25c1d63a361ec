package interval

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lowaak/compprep/compprep-app/internal/events"
	"github.com/lowaak/compprep/compprep-app/internal/go_func_utils"
)

var (
	ErrEngineStopped = errors.New("interval engine has been shut down")
	ErrNotIdle       = errors.New("settings can only change while no session exists")
)

// engineCommand represents commands sent to the engine goroutine
type engineCommand int

const (
	cmdStart engineCommand = iota
	cmdPause
	cmdReset
	cmdSuspend
	cmdResume
	cmdAdvance
	cmdConfigure
	cmdState
)

type commandRequest struct {
	cmd      engineCommand
	start    startOptions
	elapsed  int
	settings Settings
	reply    chan commandReply
}

type commandReply struct {
	state State
	err   error
}

type startOptions struct {
	trackAnalytics bool
	withCountdown  bool
}

// StartOption adjusts a single Start call.
type StartOption func(*startOptions)

// WithoutAnalytics suppresses the timer_started event.
func WithoutAnalytics() StartOption {
	return func(o *startOptions) { o.trackAnalytics = false }
}

// WithCountdown marks the start as following a lead-in countdown.
func WithCountdown() StartOption {
	return func(o *startOptions) { o.withCountdown = true }
}

// Option configures an Engine at construction.
type Option func(*Engine)

func WithClock(c Clock) Option {
	return func(e *Engine) {
		if c != nil {
			e.clock = c
		}
	}
}

// WithRand sets the source used to draw rest durations.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) {
		if r != nil {
			e.rng = r
		}
	}
}

// WithTickInterval sets how often the engine wakes to consume elapsed time.
// Each wake consumes only whole seconds, so intervals below a second are fine.
func WithTickInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.tickInterval = d
		}
	}
}

func WithAnalytics(a AnalyticsSink) Option {
	return func(e *Engine) {
		if a != nil {
			e.analytics = a
		}
	}
}

func WithBadges(b BadgeTracker) Option {
	return func(e *Engine) {
		if b != nil {
			e.badges = b
		}
	}
}

func WithLiveStatus(p LiveStatusPublisher) Option {
	return func(e *Engine) {
		if p != nil {
			e.live = p
		}
	}
}

type session struct {
	id          string
	schedule    []int
	currentSet  int
	remaining   int
	running     bool
	completed   bool
	suspendedAt time.Time
}

// Engine owns the rest-interval schedule of one workout session. All session
// state lives on a single goroutine; every public method is a command sent to
// it and returns the resulting State once the command has been applied.
type Engine struct {
	clock        Clock
	rng          *rand.Rand
	generate     func(rng *rand.Rand, s Settings) ([]int, error)
	tickInterval time.Duration
	logger       *log.Logger

	analytics  AnalyticsSink
	badges     BadgeTracker
	live       LiveStatusPublisher
	dispatcher *dispatcher
	stateEvent *events.ChannelEvent[State]

	// Owned by the engine goroutine
	settings Settings
	sess     session
	ticker   Ticker
	lastTick time.Time

	// Goroutine management
	cmdChan      chan commandRequest
	doneChan     chan struct{} // Closed to signal shutdown
	wg           sync.WaitGroup
	shutdownOnce sync.Once
}

// New validates settings and starts the engine goroutine.
func New(settings Settings, logger *log.Logger, opts ...Option) (*Engine, error) {
	if logger == nil {
		panic("Engine: logger cannot be nil")
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("new interval engine: %w", err)
	}

	e := &Engine{
		clock:        SystemClock(),
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
		generate:     GenerateSchedule,
		tickInterval: time.Second,
		logger:       logger,
		analytics:    nopAnalytics{},
		badges:       nopBadges{},
		live:         nopLiveStatus{},
		stateEvent:   events.NewChannelEvent[State](true),
		settings:     settings,
		sess:         session{currentSet: 1},
		cmdChan:      make(chan commandRequest),
		doneChan:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.dispatcher = newDispatcher(logger)
	e.stateEvent.Notify(e.buildState())

	e.wg.Add(1)
	go_func_utils.SafeGo(logger, e.runLoop)

	return e, nil
}

// Start begins a session, or resumes a paused one with its schedule intact.
// It is a no-op while running or once completed.
func (e *Engine) Start(opts ...StartOption) State {
	so := startOptions{trackAnalytics: true}
	for _, opt := range opts {
		opt(&so)
	}
	return e.exec(commandRequest{cmd: cmdStart, start: so}).state
}

// Pause stops ticking. No tick is applied after Pause returns.
func (e *Engine) Pause() State {
	return e.exec(commandRequest{cmd: cmdPause}).state
}

// Reset discards the session and returns to the pre-start state.
func (e *Engine) Reset() State {
	return e.exec(commandRequest{cmd: cmdReset}).state
}

// OnSuspend records when the host went to the background.
func (e *Engine) OnSuspend() State {
	return e.exec(commandRequest{cmd: cmdSuspend}).state
}

// OnResume folds the time spent in the background into the countdown.
func (e *Engine) OnResume() State {
	return e.exec(commandRequest{cmd: cmdResume}).state
}

// AdvanceBy reconciles elapsed seconds in one step, rolling through as many
// sets as the gap covers.
func (e *Engine) AdvanceBy(elapsed int) State {
	return e.exec(commandRequest{cmd: cmdAdvance, elapsed: elapsed}).state
}

// Configure replaces the settings used for the next schedule. It fails
// unless the engine is idle.
func (e *Engine) Configure(settings Settings) (State, error) {
	reply := e.exec(commandRequest{cmd: cmdConfigure, settings: settings})
	return reply.state, reply.err
}

func (e *Engine) State() State {
	return e.exec(commandRequest{cmd: cmdState}).state
}

// ListenToState registers ch for state snapshots. The latest snapshot is
// delivered immediately. Sends never block; a full channel misses updates.
func (e *Engine) ListenToState(ch chan<- State) func() {
	return e.stateEvent.Listen(ch)
}

// Shutdown stops the engine goroutine and flushes pending collaborator calls.
// Safe to call multiple times - only the first call has effect
func (e *Engine) Shutdown() {
	e.shutdownOnce.Do(func() {
		e.logger.Printf("Engine: Shutting down")
		close(e.doneChan)
		e.wg.Wait()
		if len(e.sess.schedule) > 0 {
			e.dispatcher.enqueue("live status end", e.live.End)
		}
		e.dispatcher.shutdown()
		e.logger.Printf("Engine: Shutdown complete")
	})
}

func (e *Engine) exec(req commandRequest) commandReply {
	req.reply = make(chan commandReply, 1)
	select {
	case e.cmdChan <- req:
	case <-e.doneChan:
		last, _ := e.stateEvent.Last()
		return commandReply{state: last, err: ErrEngineStopped}
	}
	return <-req.reply
}

// --- Engine goroutine ---

func (e *Engine) runLoop() {
	defer e.wg.Done()

	for {
		var tickC <-chan time.Time
		if e.ticker != nil {
			tickC = e.ticker.C()
		}

		select {
		case <-e.doneChan:
			e.stopTicker()
			e.logger.Printf("Engine: Goroutine exiting")
			return

		case req := <-e.cmdChan:
			err := e.handleCommand(req)
			state := e.buildState()
			if req.cmd != cmdState {
				e.stateEvent.Notify(state)
			}
			req.reply <- commandReply{state: state, err: err}

		case <-tickC:
			if e.handleTick(e.clock.Now()) {
				e.stateEvent.Notify(e.buildState())
			}
		}
	}
}

func (e *Engine) handleCommand(req commandRequest) error {
	switch req.cmd {
	case cmdStart:
		e.start(req.start)
	case cmdPause:
		e.pause()
	case cmdReset:
		e.reset()
	case cmdSuspend:
		e.suspend()
	case cmdResume:
		e.resume()
	case cmdAdvance:
		if req.elapsed < 0 {
			e.logger.Printf("Engine: Ignoring negative advance of %ds", req.elapsed)
			return nil
		}
		e.advanceBy(req.elapsed)
	case cmdConfigure:
		return e.configure(req.settings)
	}
	return nil
}

func (e *Engine) start(opts startOptions) {
	s := &e.sess
	if s.completed {
		e.logger.Printf("Engine: Session complete - reset before starting again")
		return
	}
	if s.running {
		e.logger.Printf("Engine: Timer already running")
		return
	}

	if len(s.schedule) == 0 {
		schedule, err := e.generate(e.rng, e.settings)
		if err == nil && len(schedule) == 0 {
			err = errors.New("empty schedule")
		}
		if err != nil {
			e.logger.Printf("Engine: Cannot generate schedule: %v", err)
			return
		}
		first, _ := restAt(schedule, 1)
		*s = session{
			id:         uuid.NewString(),
			schedule:   schedule,
			currentSet: 1,
			remaining:  first,
		}
		e.logger.Printf("Engine: New session %s with %d sets, rest %v", s.id, len(schedule), schedule)
	}

	e.stopTicker()
	s.running = true
	s.suspendedAt = time.Time{}
	e.lastTick = e.clock.Now()

	if opts.trackAnalytics {
		e.capture(EventTimerStarted, map[string]any{
			"sets":           e.settings.TotalSets,
			"min_rest_min":   e.settings.MinRestMinutes,
			"max_rest_min":   e.settings.MaxRestMinutes,
			"with_countdown": opts.withCountdown,
		})
	}

	totalSets := len(s.schedule)
	e.dispatcher.enqueue("live status start", func(ctx context.Context) error {
		return e.live.Start(ctx, totalSets)
	})
	e.publishLive()

	e.ticker = e.clock.NewTicker(e.tickInterval)
	e.logger.Printf("Engine: Timer started on set %d (%s left)", s.currentSet, FormatClock(s.remaining))
}

func (e *Engine) pause() {
	s := &e.sess
	e.stopTicker()
	if !s.running {
		return
	}
	s.running = false
	s.suspendedAt = time.Time{}

	e.capture(EventTimerPaused, map[string]any{
		"current_set":       s.currentSet,
		"seconds_remaining": s.remaining,
	})
	e.logger.Printf("Engine: Timer paused on set %d (%s left)", s.currentSet, FormatClock(s.remaining))
}

func (e *Engine) reset() {
	e.stopTicker()
	if len(e.sess.schedule) > 0 {
		e.capture(EventTimerReset, map[string]any{"current_set": e.sess.currentSet})
	}
	e.sess = session{currentSet: 1}
	e.dispatcher.enqueue("live status end", e.live.End)
	e.logger.Printf("Engine: Timer reset")
}

func (e *Engine) suspend() {
	s := &e.sess
	if !s.running || !s.suspendedAt.IsZero() {
		return
	}
	s.suspendedAt = e.clock.Now()
	e.logger.Printf("Engine: Suspended on set %d", s.currentSet)
}

func (e *Engine) resume() {
	s := &e.sess
	if s.suspendedAt.IsZero() {
		return
	}
	elapsed := int(e.clock.Now().Sub(s.suspendedAt) / time.Second)
	if elapsed < 0 {
		elapsed = 0
	}
	s.suspendedAt = time.Time{}
	e.lastTick = e.lastTick.Add(time.Duration(elapsed) * time.Second)

	e.logger.Printf("Engine: Resumed after %ds in background", elapsed)
	e.advanceBy(elapsed)
	if s.running {
		e.publishLive()
	}
}

// advanceBy subtracts elapsed from the countdown once and then rolls whole
// sets forward, carrying the overshoot into each next set. The loop runs at
// most once per remaining set. Landing on the final set with nothing left
// completes the session.
func (e *Engine) advanceBy(elapsed int) {
	s := &e.sess
	if !s.running || elapsed <= 0 {
		return
	}

	totalSets := len(s.schedule)
	s.remaining -= elapsed
	for s.remaining < 0 && s.currentSet < totalSets {
		overshoot := -s.remaining
		s.currentSet++
		rest, ok := restAt(s.schedule, s.currentSet)
		if !ok {
			e.logger.Printf("Engine: Set %d outside schedule of %d", s.currentSet, totalSets)
			break
		}
		s.remaining = rest - overshoot
	}

	if s.currentSet >= totalSets && s.remaining <= 0 {
		e.complete()
		return
	}
	e.publishLive()
}

// handleTick consumes the whole seconds elapsed since the last consumed
// instant. It reports whether the session changed.
func (e *Engine) handleTick(now time.Time) bool {
	s := &e.sess
	if !s.running || !s.suspendedAt.IsZero() {
		return false
	}

	units := int(now.Sub(e.lastTick) / time.Second)
	if units <= 0 {
		return false
	}
	e.lastTick = e.lastTick.Add(time.Duration(units) * time.Second)

	for i := 0; i < units && s.running; i++ {
		e.step()
	}
	if s.running {
		e.publishLive()
	}
	return true
}

// step applies one second of countdown.
func (e *Engine) step() {
	s := &e.sess
	s.remaining--
	if s.remaining > 0 {
		return
	}

	if s.currentSet >= len(s.schedule) {
		e.complete()
		return
	}

	next, ok := restAt(s.schedule, s.currentSet+1)
	if !ok {
		e.logger.Printf("Engine: Set %d outside schedule of %d", s.currentSet+1, len(s.schedule))
		return
	}
	s.currentSet++
	s.remaining = next
	e.logger.Printf("Engine: Moved to set %d (%s rest)", s.currentSet, FormatClock(next))
}

func (e *Engine) complete() {
	s := &e.sess
	e.stopTicker()
	s.running = false
	s.completed = true
	s.suspendedAt = time.Time{}
	if s.remaining < 0 {
		s.remaining = 0
	}

	totalRest := scheduleTotal(s.schedule)
	totalSets := len(s.schedule)
	e.logger.Printf("Engine: Session %s complete - %d sets, %s total rest", s.id, totalSets, FormatClock(totalRest))

	e.dispatcher.enqueue("badges workout completed", func(ctx context.Context) error {
		return e.badges.OnWorkoutCompleted(ctx, totalRest)
	})
	e.capture(EventTimerCompleted, map[string]any{"total_sets": totalSets})
	e.dispatcher.enqueue("live status end", e.live.End)
}

func (e *Engine) configure(settings Settings) error {
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("configure: %w", err)
	}
	if len(e.sess.schedule) > 0 {
		return ErrNotIdle
	}
	e.settings = settings
	e.logger.Printf("Engine: Settings now %d sets, %d-%d min rest",
		settings.TotalSets, settings.MinRestMinutes, settings.MaxRestMinutes)
	return nil
}

func (e *Engine) stopTicker() {
	if e.ticker != nil {
		e.ticker.Stop()
		e.ticker = nil
	}
}

func (e *Engine) capture(name string, props map[string]any) {
	props["session_id"] = e.sess.id
	event := Event{Name: name, Properties: props}
	e.dispatcher.enqueue("analytics "+name, func(ctx context.Context) error {
		return e.analytics.Capture(ctx, event)
	})
}

func (e *Engine) publishLive() {
	status := e.buildState().LiveStatus()
	e.dispatcher.enqueue("live status update", func(ctx context.Context) error {
		return e.live.Update(ctx, status)
	})
}

// buildState snapshots the session. Only called on the engine goroutine.
func (e *Engine) buildState() State {
	s := e.sess
	state := State{
		SessionID:        s.id,
		Settings:         e.settings,
		TotalSets:        e.settings.TotalSets,
		MinRestSeconds:   e.settings.minRestSeconds(),
		MaxRestSeconds:   e.settings.maxRestSeconds(),
		CurrentSet:       s.currentSet,
		RemainingSeconds: s.remaining,
		Suspended:        !s.suspendedAt.IsZero(),
		SuspendedAt:      s.suspendedAt,
	}

	switch {
	case s.completed:
		state.Status = StatusCompleted
	case s.running:
		state.Status = StatusRunning
	case len(s.schedule) > 0:
		state.Status = StatusPaused
	default:
		state.Status = StatusIdle
	}

	if len(s.schedule) == 0 {
		state.SetsRemaining = state.TotalSets - 1
		return state
	}

	state.Schedule = append([]int(nil), s.schedule...)
	state.TotalSets = len(s.schedule)
	state.CurrentSetSeconds, _ = restAt(s.schedule, s.currentSet)
	if next, ok := restAt(s.schedule, s.currentSet+1); ok {
		state.NextSetSeconds = &next
	}
	state.SetsRemaining = state.TotalSets - s.currentSet
	state.TotalRestSeconds = scheduleTotal(s.schedule)
	return state
}
