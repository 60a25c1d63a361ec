package trainer

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/lowaak/compprep/compprep-app/internal/analytics"
	"github.com/lowaak/compprep/compprep-app/internal/badges"
	"github.com/lowaak/compprep/compprep-app/internal/go_func_utils"
	"github.com/lowaak/compprep/compprep-app/internal/interval"
)

// TimerEngine is the part of interval.Engine the dashboard drives
type TimerEngine interface {
	Start(opts ...interval.StartOption) interval.State
	Pause() interval.State
	Reset() interval.State
	OnSuspend() interval.State
	OnResume() interval.State
	Configure(settings interval.Settings) (interval.State, error)
	State() interval.State
	ListenToState(ch chan<- interval.State) func()
}

// BadgeSource provides the badge collection shown on the badges screen
type BadgeSource interface {
	Collected() []badges.Badge
	Locked() []badges.Badge
	ListenToAwards(fn func(badges.Badge)) func()
}

// ControllerOption configures optional UIController behaviour
type ControllerOption func(*UIController)

// WithLeadIn sets the "get ready" countdown before a fresh session; 0 disables it
func WithLeadIn(seconds int) ControllerOption {
	return func(c *UIController) {
		if seconds >= 0 {
			c.leadIn = seconds
		}
	}
}

// WithCountdownStep sets how long one lead-in second lasts
func WithCountdownStep(d time.Duration) ControllerOption {
	return func(c *UIController) {
		if d > 0 {
			c.countdownStep = d
		}
	}
}

// UIController handles UI events and coordinates with the UIModel
type UIController struct {
	model         *UIModel
	engine        TimerEngine
	badges        BadgeSource
	gate          interval.EntitlementGate
	analytics     interval.AnalyticsSink
	leadIn        int
	countdownStep time.Duration
	logger        *log.Logger

	countdownMu     sync.Mutex
	countdownCancel context.CancelFunc
	unregisterAward func()

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewUIController creates a new UIController with the given dependencies
func NewUIController(
	model *UIModel,
	engine TimerEngine,
	badgeSource BadgeSource,
	gate interval.EntitlementGate,
	sink interval.AnalyticsSink,
	logger *log.Logger,
	opts ...ControllerOption,
) *UIController {
	if model == nil {
		panic("UIController: model cannot be nil")
	}
	if engine == nil {
		panic("UIController: engine cannot be nil")
	}
	if badgeSource == nil {
		panic("UIController: badgeSource cannot be nil")
	}
	if gate == nil {
		panic("UIController: gate cannot be nil")
	}
	if sink == nil {
		panic("UIController: analytics cannot be nil")
	}
	if logger == nil {
		panic("UIController: logger cannot be nil")
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &UIController{
		model:         model,
		engine:        engine,
		badges:        badgeSource,
		gate:          gate,
		analytics:     sink,
		leadIn:        DefaultLeadInSeconds,
		countdownStep: defaultCountdownStep,
		logger:        logger,
		ctx:           ctx,
		cancel:        cancel,
	}
	for _, opt := range opts {
		opt(c)
	}

	model.loadSettings(engine.State().Settings)
	c.refreshBadgeBoard()
	c.unregisterAward = badgeSource.ListenToAwards(c.onBadgeAwarded)

	c.wg.Add(1)
	go_func_utils.SafeGo(logger, func() { c.listenToTimerState() })

	return c
}

func (c *UIController) listenToTimerState() {
	defer c.wg.Done()

	ch := make(chan interval.State, 16)
	unregister := c.engine.ListenToState(ch)
	defer unregister()

	for {
		select {
		case <-c.ctx.Done():
			return
		case state, ok := <-ch:
			if !ok {
				return
			}
			c.model.SetTimerState(state)
		}
	}
}

// ToggleTimer starts, pauses or resumes the timer. A fresh session begins
// with the lead-in countdown; pressing again during the countdown cancels it.
func (c *UIController) ToggleTimer() {
	if c.cancelCountdown() {
		c.logger.Println("UIController: Lead-in cancelled")
		return
	}

	state := c.engine.State()
	switch state.Status {
	case interval.StatusRunning:
		c.engine.Pause()
	case interval.StatusCompleted:
		c.model.SetNotice("Workout complete. Press r to start a new one.")
	default:
		if !c.checkAccess() {
			return
		}
		c.model.SetNotice("")
		if state.Status == interval.StatusIdle && c.leadIn > 0 {
			c.startCountdown()
			return
		}
		c.engine.Start()
	}
}

// ResetTimer abandons the session, including a pending lead-in
func (c *UIController) ResetTimer() {
	c.cancelCountdown()
	c.engine.Reset()
	c.model.SetNotice("")
}

// EnterBackground tells the engine the host stopped running
func (c *UIController) EnterBackground() {
	c.logger.Println("UIController: Entering background")
	c.engine.OnSuspend()
}

// EnterForeground tells the engine the host is running again
func (c *UIController) EnterForeground() {
	c.logger.Println("UIController: Entering foreground")
	c.engine.OnResume()
}

// AdjustSetting changes one settings field by delta. Settings can only be
// changed while no session exists.
func (c *UIController) AdjustSetting(field SettingField, delta int) {
	state := c.engine.State()
	if state.Status != interval.StatusIdle || c.countdownActive() {
		c.model.SetNotice("Reset the timer to change settings")
		return
	}

	next := adjustSettings(state.Settings, field, delta)
	if next == state.Settings {
		return
	}
	if _, err := c.engine.Configure(next); err != nil {
		c.logger.Printf("UIController: Configure failed: %v", err)
		c.model.SetNotice(fmt.Sprintf("Cannot apply settings: %v", err))
		return
	}
	c.logger.Printf("UIController: Settings %d sets, %d-%d min rest", next.TotalSets, next.MinRestMinutes, next.MaxRestMinutes)
	c.model.SetSettings(next)
}

// SelectNextField moves the settings cursor down, wrapping around
func (c *UIController) SelectNextField() {
	c.moveField(1)
}

// SelectPrevField moves the settings cursor up, wrapping around
func (c *UIController) SelectPrevField() {
	c.moveField(-1)
}

func (c *UIController) moveField(step int) {
	current := c.model.GetUIState().SelectedField
	n := len(AllSettingFields)
	idx := 0
	for i, f := range AllSettingFields {
		if f == current {
			idx = i
			break
		}
	}
	c.model.SetSelectedField(AllSettingFields[((idx+step)%n+n)%n])
}

// OnModeChange handles mode switching
func (c *UIController) OnModeChange(mode UIMode) {
	c.model.SetMode(mode)
}

// OnEscapeKey handles the escape key press
func (c *UIController) OnEscapeKey() {
	c.model.RequestCloseApplication()
}

// Shutdown stops all goroutines and waits for them to finish
func (c *UIController) Shutdown() {
	c.logger.Println("UIController: Shutting down")
	c.cancelCountdown()
	c.unregisterAward()
	c.cancel()
	c.wg.Wait()
	c.logger.Println("UIController: Shutdown complete")
}

func (c *UIController) checkAccess() bool {
	if c.gate.HasAccess(c.ctx) {
		return true
	}
	c.logger.Println("UIController: Rest timer requires Pro")
	c.capture(analytics.EventProFeatureAttempted, map[string]any{"feature_name": ProFeatureRestTimer})
	c.model.SetNotice("The rest timer is a Pro feature. Run with --pro to unlock it.")
	return false
}

func (c *UIController) onBadgeAwarded(badge badges.Badge) {
	c.logger.Printf("UIController: Badge earned: %s", badge.Name)
	c.capture(analytics.EventBadgeEarned, map[string]any{"badge_name": badge.Name})
	c.refreshBadgeBoard()
	c.model.SetNotice(fmt.Sprintf("%s Badge earned: %s", badge.Icon, badge.Name))
}

func (c *UIController) refreshBadgeBoard() {
	c.model.SetBadgeBoard(BadgeBoardState{
		Collected: c.badges.Collected(),
		Locked:    c.badges.Locked(),
	})
}

func (c *UIController) capture(name string, props map[string]any) {
	if err := c.analytics.Capture(c.ctx, interval.Event{Name: name, Properties: props}); err != nil {
		c.logger.Printf("UIController: analytics %s failed: %v", name, err)
	}
}

func (c *UIController) startCountdown() {
	c.countdownMu.Lock()
	if c.countdownCancel != nil {
		c.countdownMu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(c.ctx)
	c.countdownCancel = cancel
	c.countdownMu.Unlock()

	c.logger.Printf("UIController: Lead-in %ds", c.leadIn)
	c.model.SetCountdown(CountdownState{Active: true, Remaining: c.leadIn})

	c.wg.Add(1)
	go_func_utils.SafeGo(c.logger, func() { c.runCountdown(ctx) })
}

func (c *UIController) runCountdown(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.countdownStep)
	defer ticker.Stop()

	remaining := c.leadIn
	for remaining > 0 {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			remaining--
			if remaining > 0 {
				c.model.SetCountdown(CountdownState{Active: true, Remaining: remaining})
			}
		}
	}

	if !c.finishCountdown(ctx) {
		return
	}
	c.engine.Start(interval.WithCountdown())
	c.model.SetCountdown(CountdownState{})
}

// finishCountdown claims the countdown for starting the engine. It reports
// false when the countdown was cancelled first.
func (c *UIController) finishCountdown(ctx context.Context) bool {
	c.countdownMu.Lock()
	defer c.countdownMu.Unlock()
	if ctx.Err() != nil {
		return false
	}
	c.countdownCancel()
	c.countdownCancel = nil
	return true
}

func (c *UIController) cancelCountdown() bool {
	c.countdownMu.Lock()
	cancel := c.countdownCancel
	c.countdownCancel = nil
	c.countdownMu.Unlock()

	if cancel == nil {
		return false
	}
	cancel()
	c.model.SetCountdown(CountdownState{})
	return true
}

func (c *UIController) countdownActive() bool {
	c.countdownMu.Lock()
	defer c.countdownMu.Unlock()
	return c.countdownCancel != nil
}

// adjustSettings applies delta to one field, clamped to the settings screen
// bounds, and keeps min rest <= max rest by dragging the other bound along.
func adjustSettings(s interval.Settings, field SettingField, delta int) interval.Settings {
	switch field {
	case SettingSets:
		s.TotalSets = clamp(s.TotalSets+delta, MinSets, MaxSets)
	case SettingMinRest:
		s.MinRestMinutes = clamp(s.MinRestMinutes+delta, MinRestMinutes, MaxRestMinutes)
		if s.MinRestMinutes > s.MaxRestMinutes {
			s.MaxRestMinutes = s.MinRestMinutes
		}
	case SettingMaxRest:
		s.MaxRestMinutes = clamp(s.MaxRestMinutes+delta, MinRestMinutes, MaxRestMinutes)
		if s.MaxRestMinutes < s.MinRestMinutes {
			s.MinRestMinutes = s.MaxRestMinutes
		}
	}
	return s
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
