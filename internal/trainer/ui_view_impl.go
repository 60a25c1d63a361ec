package trainer

import "github.com/lowaak/compprep/compprep-app/internal/interval"

// UIViewImpl defines the interface for framework-specific UI implementations
type UIViewImpl interface {
	// Initialize is called after construction to set up framework-specific widgets
	// controller is used to handle UI events
	Initialize(controller *UIController)

	// SetupKeyboardHandlers sets up keyboard event handlers
	// controller is used to handle keyboard events
	SetupKeyboardHandlers(controller *UIController)

	// Run starts the UI framework and blocks until it exits
	Run() error

	// Stop stops the UI framework
	Stop()

	// Draw refreshes/redraws the UI
	Draw() error

	// --- Mode Management ---

	// SetMode switches the UI to the specified mode
	SetMode(mode UIMode)

	// GetCurrentMode returns the currently active UI mode
	GetCurrentMode() UIMode

	// --- Log View (shared across modes) ---

	// GetLogViewHeight returns the visible height of the log view
	GetLogViewHeight() int

	// ClearLogView clears the log view
	ClearLogView()

	// WriteLogLine writes a line to the log view
	WriteLogLine(line string) error

	// --- Timer Mode ---

	// UpdateTimerState renders the latest engine snapshot
	UpdateTimerState(state interval.State)

	// UpdateCountdown renders the lead-in countdown
	UpdateCountdown(state CountdownState)

	// ShowNotice shows a one-line message; "" clears it
	ShowNotice(notice string)

	// --- Settings Mode ---

	// UpdateSettings renders the settings the next session will use
	UpdateSettings(settings interval.Settings, selected SettingField)

	// --- Badges Mode ---

	// UpdateBadgeBoard renders collected and locked badges
	UpdateBadgeBoard(board BadgeBoardState)
}
