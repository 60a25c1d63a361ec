package trainer

import (
	"context"
	"log"
	"sync"

	"github.com/lowaak/compprep/compprep-app/internal/events"
	"github.com/lowaak/compprep/compprep-app/internal/go_func_utils"
	"github.com/lowaak/compprep/compprep-app/internal/interval"
)

// UIState holds the current state of the UI that views need to render
type UIState struct {
	Mode          UIMode
	SelectedField SettingField
}

type UIModel struct {
	logEvent              *events.ChannelEvent[string]
	closeApplicationEvent *events.ChannelEvent[struct{}]
	uiStateEvent          *events.ChannelEvent[UIState]
	uiState               UIState
	timerStateEvent       *events.ChannelEvent[interval.State]
	timerState            interval.State
	countdownEvent        *events.ChannelEvent[CountdownState]
	countdown             CountdownState
	settingsEvent         *events.ChannelEvent[interval.Settings]
	settings              interval.Settings
	badgeBoardEvent       *events.ChannelEvent[BadgeBoardState]
	badgeBoard            BadgeBoardState
	noticeEvent           *events.ChannelEvent[string]
	notice                string
	persistence           *uiModelPersistence
	logLines              []string
	logMu                 sync.RWMutex
	mu                    sync.RWMutex
	ctx                   context.Context
	cancel                context.CancelFunc
	wg                    sync.WaitGroup
	logger                *log.Logger
}

const maxLogLines = 1000

// NewUIModel creates the dashboard model. UI state is persisted under
// stateDir (~/.compprep when empty).
func NewUIModel(logger *log.Logger, uiLogChan <-chan string, stateDir string) *UIModel {
	if logger == nil {
		panic("UIModel: logger cannot be nil")
	}
	if uiLogChan == nil {
		panic("UIModel: uiLogChan cannot be nil")
	}
	ctx, cancel := context.WithCancel(context.Background())
	model := &UIModel{
		logEvent:              events.NewChannelEvent[string](false),
		closeApplicationEvent: events.NewChannelEvent[struct{}](true),
		uiStateEvent:          events.NewChannelEvent[UIState](true),
		uiState:               UIState{Mode: UIModeTimer, SelectedField: SettingSets},
		timerStateEvent:       events.NewChannelEvent[interval.State](true),
		countdownEvent:        events.NewChannelEvent[CountdownState](true),
		settingsEvent:         events.NewChannelEvent[interval.Settings](true),
		settings:              interval.DefaultSettings(),
		badgeBoardEvent:       events.NewChannelEvent[BadgeBoardState](true),
		noticeEvent:           events.NewChannelEvent[string](true),
		persistence:           newUIModelPersistence(stateDir, logger),
		logLines:              make([]string, 0, maxLogLines),
		ctx:                   ctx,
		cancel:                cancel,
		logger:                logger,
	}
	if mode, ok := model.persistence.getLastMode(); ok {
		model.uiState.Mode = mode
	}

	// Read from the UI log channel and populate logLines
	model.wg.Add(1)
	go_func_utils.SafeGo(model.logger, func() { model.readFromLogChannel(ctx, uiLogChan) })

	return model
}

// Shutdown stops all goroutines and waits for them to finish
func (m *UIModel) Shutdown() {
	m.logger.Println("UIModel: Shutting down")
	m.cancel()
	m.wg.Wait()
	m.logger.Println("UIModel: Shutdown complete")
}

// ListenToLog registers a channel to receive log messages
// Returns a deregistration function that can be called to remove the listener
func (m *UIModel) ListenToLog(ch chan<- string) func() {
	return m.logEvent.Listen(ch)
}

// ListenToCloseApplication registers a channel to receive close application signals
// Returns a deregistration function that can be called to remove the listener
func (m *UIModel) ListenToCloseApplication(ch chan<- struct{}) func() {
	return m.closeApplicationEvent.Listen(ch)
}

// RequestCloseApplication signals that the application should close
func (m *UIModel) RequestCloseApplication() {
	m.closeApplicationEvent.Notify(struct{}{})
}

// ListenToUIState registers a channel to receive UI state changes
// Returns a deregistration function that can be called to remove the listener
func (m *UIModel) ListenToUIState(ch chan<- UIState) func() {
	return m.uiStateEvent.Listen(ch)
}

// GetUIState returns the current UI state
func (m *UIModel) GetUIState() UIState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.uiState
}

// SetMode updates the current UI mode and notifies listeners
func (m *UIModel) SetMode(mode UIMode) {
	m.mu.Lock()
	if m.uiState.Mode == mode {
		m.mu.Unlock()
		return
	}
	m.uiState.Mode = mode
	state := m.uiState
	m.persistence.setLastMode(mode)
	m.mu.Unlock()

	m.uiStateEvent.Notify(state)
}

// SetSelectedField moves the settings cursor and notifies listeners
func (m *UIModel) SetSelectedField(field SettingField) {
	m.mu.Lock()
	if m.uiState.SelectedField == field {
		m.mu.Unlock()
		return
	}
	m.uiState.SelectedField = field
	state := m.uiState
	m.mu.Unlock()

	m.uiStateEvent.Notify(state)
}

// ListenToTimerState registers a channel to receive engine state snapshots
func (m *UIModel) ListenToTimerState(ch chan<- interval.State) func() {
	return m.timerStateEvent.Listen(ch)
}

// GetTimerState returns the latest engine state
func (m *UIModel) GetTimerState() interval.State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.timerState
}

// SetTimerState stores the latest engine state and notifies listeners
func (m *UIModel) SetTimerState(state interval.State) {
	m.mu.Lock()
	m.timerState = state
	m.mu.Unlock()

	m.timerStateEvent.Notify(state)
}

// ListenToCountdown registers a channel to receive lead-in countdown updates
func (m *UIModel) ListenToCountdown(ch chan<- CountdownState) func() {
	return m.countdownEvent.Listen(ch)
}

// GetCountdown returns the lead-in countdown state
func (m *UIModel) GetCountdown() CountdownState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.countdown
}

// SetCountdown updates the lead-in countdown and notifies listeners
func (m *UIModel) SetCountdown(state CountdownState) {
	m.mu.Lock()
	if m.countdown == state {
		m.mu.Unlock()
		return
	}
	m.countdown = state
	m.mu.Unlock()

	m.countdownEvent.Notify(state)
}

// ListenToSettings registers a channel to receive applied settings
func (m *UIModel) ListenToSettings(ch chan<- interval.Settings) func() {
	return m.settingsEvent.Listen(ch)
}

// GetSettings returns the settings the next session will use
func (m *UIModel) GetSettings() interval.Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings
}

// SetSettings records applied settings, persists them and notifies listeners
func (m *UIModel) SetSettings(settings interval.Settings) {
	m.mu.Lock()
	if m.settings == settings {
		m.mu.Unlock()
		return
	}
	m.settings = settings
	m.persistence.setSettings(settings)
	m.mu.Unlock()

	m.settingsEvent.Notify(settings)
}

// loadSettings records the engine's settings at startup without persisting them
func (m *UIModel) loadSettings(settings interval.Settings) {
	m.mu.Lock()
	m.settings = settings
	m.mu.Unlock()

	m.settingsEvent.Notify(settings)
}

// SavedSettings returns the settings persisted by an earlier run
func (m *UIModel) SavedSettings() (interval.Settings, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.persistence.getSettings()
}

// ListenToBadgeBoard registers a channel to receive badge board updates
func (m *UIModel) ListenToBadgeBoard(ch chan<- BadgeBoardState) func() {
	return m.badgeBoardEvent.Listen(ch)
}

// GetBadgeBoard returns the current badge board
func (m *UIModel) GetBadgeBoard() BadgeBoardState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.badgeBoard
}

// SetBadgeBoard replaces the badge board and notifies listeners
func (m *UIModel) SetBadgeBoard(board BadgeBoardState) {
	m.mu.Lock()
	m.badgeBoard = board
	m.mu.Unlock()

	m.badgeBoardEvent.Notify(board)
}

// ListenToNotice registers a channel to receive one-line notices
func (m *UIModel) ListenToNotice(ch chan<- string) func() {
	return m.noticeEvent.Listen(ch)
}

// GetNotice returns the last notice shown to the user
func (m *UIModel) GetNotice() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.notice
}

// SetNotice shows a one-line message on the timer screen; "" clears it
func (m *UIModel) SetNotice(notice string) {
	m.mu.Lock()
	m.notice = notice
	m.mu.Unlock()

	m.noticeEvent.Notify(notice)
}

// readFromLogChannel reads log lines from the channel and populates logLines
func (m *UIModel) readFromLogChannel(ctx context.Context, logChan <-chan string) {
	defer m.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-logChan:
			if !ok {
				return
			}

			m.logMu.Lock()
			m.logLines = append(m.logLines, line)
			if len(m.logLines) > maxLogLines {
				m.logLines = m.logLines[len(m.logLines)-maxLogLines:]
			}
			m.logMu.Unlock()

			m.logEvent.Notify(line)
		}
	}
}

// GetLogTail returns the last n lines of logs
func (m *UIModel) GetLogTail(n int) []string {
	m.logMu.RLock()
	defer m.logMu.RUnlock()

	if n <= 0 {
		return []string{}
	}
	if n >= len(m.logLines) {
		result := make([]string, len(m.logLines))
		copy(result, m.logLines)
		return result
	}
	result := make([]string, n)
	copy(result, m.logLines[len(m.logLines)-n:])
	return result
}
