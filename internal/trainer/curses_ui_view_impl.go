package trainer

import (
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/lowaak/compprep/compprep-app/internal/interval"
	"github.com/lowaak/compprep/compprep-app/internal/livestatus"
)

// Page names for tview.Pages
const (
	pageTimer    = "timer"
	pageSettings = "settings"
	pageBadges   = "badges"
)

const progressBarWidth = 30

// CursesUIViewImpl implements UIViewImpl using tview (curses-based terminal UI)
type CursesUIViewImpl struct {
	logger      *log.Logger
	app         *tview.Application
	model       *UIModel
	currentMode UIMode

	// Root container that holds all pages
	pages *tview.Pages

	// Shared components (visible in all modes)
	logView  *tview.TextView
	mainFlex *tview.Flex // Main layout: mode content on left, logs on right

	// Timer mode components
	timerFlex       *tview.Flex
	timerPanel      *tview.TextView
	noticeText      *tview.TextView
	timerTabWidgets []*tview.Box

	// Settings mode components
	settingsFlex       *tview.Flex
	settingsPanel      *tview.TextView
	settingsTabWidgets []*tview.Box

	// Badges mode components
	badgesFlex       *tview.Flex
	badgesPanel      *tview.TextView
	badgesTabWidgets []*tview.Box

	// Last rendered timer inputs, combined into one panel
	mu         sync.Mutex
	timerState interval.State
	countdown  CountdownState
}

func NewCursesUIView(logger *log.Logger, app *tview.Application, model *UIModel) *CursesUIViewImpl {
	return &CursesUIViewImpl{
		logger:      logger,
		app:         app,
		model:       model,
		currentMode: UIModeTimer,
	}
}

// Initialize sets up the tview widgets
func (ui *CursesUIViewImpl) Initialize(controller *UIController) {
	// Create shared log view
	// Note: Don't use SetChangedFunc with app.Draw() - it can cause hangs during shutdown
	// when the app has been stopped but log messages are still being written.
	// The BaseUIView's event listeners already call Draw() after updating content.
	ui.logView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(false)
	ui.logView.SetBorder(true).SetTitle(" Logs ")

	// Create pages container for mode switching
	ui.pages = tview.NewPages()

	ui.initTimerMode()
	ui.initSettingsMode()
	ui.initBadgesMode()

	ui.pages.AddPage(pageTimer, ui.timerFlex, true, true)
	ui.pages.AddPage(pageSettings, ui.settingsFlex, true, false)
	ui.pages.AddPage(pageBadges, ui.badgesFlex, true, false)

	// Create main layout: pages on left, logs on right
	ui.mainFlex = tview.NewFlex().
		AddItem(ui.pages, 0, 1, true).
		AddItem(ui.logView, 0, 1, false)

	ui.setFocusForCurrentMode()
}

func newInstructions(text string) *tview.TextView {
	instructions := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	instructions.SetText(text + "\n[yellow]1[white] Timer  |  [yellow]2[white] Settings  |  [yellow]3[white] Badges  |  [yellow]Esc[white] Quit")
	return instructions
}

// initTimerMode sets up the rest timer screen
func (ui *CursesUIViewImpl) initTimerMode() {
	instructions := newInstructions("[yellow]Space[white] Start/Pause  |  [yellow]R[white] Reset  |  [yellow]B[white]/[yellow]F[white] Background/Foreground  |  [yellow]Ctrl-Z[white] Suspend")

	ui.timerPanel = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	ui.timerPanel.SetBorder(true).SetTitle(" Rest Timer ")
	ui.timerPanel.SetText(formatTimerPanel(interval.State{Settings: ui.model.GetSettings()}, CountdownState{}))

	ui.noticeText = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)

	ui.timerTabWidgets = append(ui.timerTabWidgets, ui.timerPanel.Box)

	ui.timerFlex = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(instructions, 2, 0, false).
		AddItem(ui.timerPanel, 0, 1, true).
		AddItem(ui.noticeText, 1, 0, false)
}

// initSettingsMode sets up the settings screen
func (ui *CursesUIViewImpl) initSettingsMode() {
	instructions := newInstructions("[yellow]Up[white]/[yellow]Down[white] Select  |  [yellow]Left[white]/[yellow]Right[white] or [yellow]-[white]/[yellow]+[white] Adjust")

	ui.settingsPanel = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	ui.settingsPanel.SetBorder(true).SetTitle(" Settings ")
	ui.settingsPanel.SetText(formatSettingsPanel(ui.model.GetSettings(), ui.model.GetUIState().SelectedField))

	ui.settingsTabWidgets = append(ui.settingsTabWidgets, ui.settingsPanel.Box)

	ui.settingsFlex = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(instructions, 2, 0, false).
		AddItem(ui.settingsPanel, 0, 1, true)
}

// initBadgesMode sets up the badges screen
func (ui *CursesUIViewImpl) initBadgesMode() {
	instructions := newInstructions("Complete workouts to collect badges")

	ui.badgesPanel = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft).
		SetScrollable(true)
	ui.badgesPanel.SetBorder(true).SetTitle(" Badges ")
	ui.badgesPanel.SetText(formatBadgesPanel(ui.model.GetBadgeBoard()))

	ui.badgesTabWidgets = append(ui.badgesTabWidgets, ui.badgesPanel.Box)

	ui.badgesFlex = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(instructions, 2, 0, false).
		AddItem(ui.badgesPanel, 0, 1, true)
}

// SetMode switches the UI to the specified mode
func (ui *CursesUIViewImpl) SetMode(mode UIMode) {
	if ui.currentMode == mode {
		return
	}

	ui.currentMode = mode

	switch mode {
	case UIModeTimer:
		ui.pages.SwitchToPage(pageTimer)
	case UIModeSettings:
		ui.pages.SwitchToPage(pageSettings)
	case UIModeBadges:
		ui.pages.SwitchToPage(pageBadges)
	}

	ui.setFocusForCurrentMode()
}

// GetCurrentMode returns the currently active UI mode
func (ui *CursesUIViewImpl) GetCurrentMode() UIMode {
	return ui.currentMode
}

// setFocusForCurrentMode sets focus to the first widget in the current mode
func (ui *CursesUIViewImpl) setFocusForCurrentMode() {
	widgets := ui.getTabWidgetsForCurrentMode()
	if len(widgets) > 0 {
		ui.app.SetFocus(widgets[0])
	}
}

// getTabWidgetsForCurrentMode returns the tab widgets for the current mode
func (ui *CursesUIViewImpl) getTabWidgetsForCurrentMode() []*tview.Box {
	switch ui.currentMode {
	case UIModeTimer:
		return ui.timerTabWidgets
	case UIModeSettings:
		return ui.settingsTabWidgets
	case UIModeBadges:
		return ui.badgesTabWidgets
	default:
		return nil
	}
}

// nextMode returns the mode after current in AllUIModes order
func nextMode(current UIMode) UIMode {
	for i, info := range AllUIModes {
		if info.Mode == current {
			return AllUIModes[(i+1)%len(AllUIModes)].Mode
		}
	}
	return AllUIModes[0].Mode
}

// SetupKeyboardHandlers sets up global keyboard shortcuts
func (ui *CursesUIViewImpl) SetupKeyboardHandlers(controller *UIController) {
	ui.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		// Number keys for mode switching (1-9)
		if event.Key() == tcell.KeyRune {
			if mode, ok := GetUIModeByKey(event.Rune()); ok {
				// Delegate to controller - it will update the model, which will notify us
				controller.OnModeChange(mode)
				return nil
			}
		}

		switch event.Key() {
		case tcell.KeyTab:
			controller.OnModeChange(nextMode(ui.currentMode))
			return nil
		case tcell.KeyEscape:
			controller.OnEscapeKey()
			return nil
		case tcell.KeyCtrlZ:
			ui.suspendToShell(controller)
			return nil
		}

		// Timer controls work from every screen
		if event.Key() == tcell.KeyRune {
			switch event.Rune() {
			case ' ':
				controller.ToggleTimer()
				return nil
			case 'r', 'R':
				controller.ResetTimer()
				return nil
			case 'b', 'B':
				controller.EnterBackground()
				return nil
			case 'f', 'F':
				controller.EnterForeground()
				return nil
			}
		}

		if ui.currentMode == UIModeSettings {
			selected := ui.model.GetUIState().SelectedField
			switch {
			case event.Key() == tcell.KeyUp || (event.Key() == tcell.KeyRune && event.Rune() == 'k'):
				controller.SelectPrevField()
				return nil
			case event.Key() == tcell.KeyDown || (event.Key() == tcell.KeyRune && event.Rune() == 'j'):
				controller.SelectNextField()
				return nil
			case event.Key() == tcell.KeyRight || (event.Key() == tcell.KeyRune && (event.Rune() == '+' || event.Rune() == '=')):
				controller.AdjustSetting(selected, 1)
				return nil
			case event.Key() == tcell.KeyLeft || (event.Key() == tcell.KeyRune && event.Rune() == '-'):
				controller.AdjustSetting(selected, -1)
				return nil
			}
		}

		return event
	})
}

// suspendToShell leaves the terminal UI and stops the process like a shell
// job. The engine is told the host went to the background for the duration.
func (ui *CursesUIViewImpl) suspendToShell(controller *UIController) {
	if !canSuspendProcess {
		ui.logger.Println("UI: Suspend is not supported on this platform")
		return
	}
	controller.EnterBackground()
	ui.app.Suspend(func() {
		if err := suspendProcess(); err != nil {
			ui.logger.Printf("UI: Suspend failed: %v", err)
		}
	})
	controller.EnterForeground()
}

// GetLogViewHeight returns the visible height of the log view
func (ui *CursesUIViewImpl) GetLogViewHeight() int {
	_, _, _, height := ui.logView.GetInnerRect()
	return height
}

// ClearLogView clears the log view
func (ui *CursesUIViewImpl) ClearLogView() {
	ui.logView.Clear()
}

// WriteLogLine writes a line to the log view
func (ui *CursesUIViewImpl) WriteLogLine(line string) error {
	_, err := fmt.Fprintln(ui.logView, tview.Escape(line))
	return err
}

// Draw refreshes/redraws the UI
func (ui *CursesUIViewImpl) Draw() error {
	ui.app.Draw()
	return nil
}

// Run starts the UI and blocks until it exits
func (ui *CursesUIViewImpl) Run() error {
	// SetRoot must be called before setting focus, otherwise focus may be reset
	ui.app.SetRoot(ui.mainFlex, true)
	ui.setFocusForCurrentMode()
	return ui.app.Run()
}

// Stop stops the UI framework
func (ui *CursesUIViewImpl) Stop() {
	ui.app.Stop()
}

// UpdateTimerState renders the latest engine snapshot
func (ui *CursesUIViewImpl) UpdateTimerState(state interval.State) {
	ui.mu.Lock()
	ui.timerState = state
	countdown := ui.countdown
	ui.mu.Unlock()

	ui.timerPanel.SetText(formatTimerPanel(state, countdown))
}

// UpdateCountdown renders the lead-in countdown over the timer panel
func (ui *CursesUIViewImpl) UpdateCountdown(countdown CountdownState) {
	ui.mu.Lock()
	ui.countdown = countdown
	state := ui.timerState
	ui.mu.Unlock()

	ui.timerPanel.SetText(formatTimerPanel(state, countdown))
}

// ShowNotice shows a one-line message under the timer
func (ui *CursesUIViewImpl) ShowNotice(notice string) {
	if notice == "" {
		ui.noticeText.Clear()
		return
	}
	ui.noticeText.SetText("[yellow]" + tview.Escape(notice) + "[white]")
}

// UpdateSettings renders the settings screen
func (ui *CursesUIViewImpl) UpdateSettings(settings interval.Settings, selected SettingField) {
	ui.settingsPanel.SetText(formatSettingsPanel(settings, selected))

	// The idle timer screen previews the workout shape
	ui.mu.Lock()
	state := ui.timerState
	countdown := ui.countdown
	ui.mu.Unlock()
	if state.Status == interval.StatusIdle {
		state.Settings = settings
		ui.timerPanel.SetText(formatTimerPanel(state, countdown))
	}
}

// UpdateBadgeBoard renders the badges screen
func (ui *CursesUIViewImpl) UpdateBadgeBoard(board BadgeBoardState) {
	ui.badgesPanel.SetText(formatBadgesPanel(board))
}

// formatTimerPanel renders the timer screen for a state, with the lead-in
// countdown taking over while it runs
func formatTimerPanel(state interval.State, countdown CountdownState) string {
	if countdown.Active {
		return fmt.Sprintf("\n\n[yellow]Get ready[white]\n\n[::b]%d[::-]\n", countdown.Remaining)
	}

	var text string
	switch state.Status {
	case interval.StatusIdle:
		s := state.Settings
		text = "\n[gray]Ready[white]\n\n"
		text += fmt.Sprintf("%d sets  |  %d-%d min rest\n\n", s.TotalSets, s.MinRestMinutes, s.MaxRestMinutes)
		text += "[gray]Press[white] [yellow]Space[white] [gray]to start[white]\n"

	case interval.StatusCompleted:
		text = "\n[green]Workout complete![white]\n\n"
		text += fmt.Sprintf("%d sets  |  %s total rest\n\n", state.TotalSets, interval.FormatClock(state.TotalRestSeconds))
		text += "[gray]Press[white] [yellow]R[white] [gray]to start over[white]\n"

	default:
		snap := livestatus.NewSnapshot(state.LiveStatus())
		text = "\n[yellow]" + snap.Headline + "[white]"
		if state.Status == interval.StatusPaused {
			text += " [gray](PAUSED)[white]"
		}
		if state.Suspended {
			text += " [gray](BACKGROUND)[white]"
		}
		text += "\n\n"
		text += fmt.Sprintf("[::b]%s[::-]\n\n", snap.Remaining)
		text += progressBar(snap.Progress, progressBarWidth) + "\n\n"
		if snap.UpNext != "" {
			text += "[gray]" + snap.UpNext + "[white]\n"
		}
		if snap.SetsRemaining == 0 {
			text += "[green]" + snap.Footer + "[white]\n"
		} else {
			text += snap.Footer + "\n"
		}
	}
	return text
}

func progressBar(fraction float64, width int) string {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	filled := int(fraction*float64(width) + 0.5)
	return "[green]" + strings.Repeat("█", filled) + "[gray]" + strings.Repeat("░", width-filled) + "[white]"
}

func formatSettingsPanel(settings interval.Settings, selected SettingField) string {
	text := "\n"
	for _, field := range AllSettingFields {
		var value string
		switch field {
		case SettingSets:
			value = fmt.Sprintf("%d", settings.TotalSets)
		case SettingMinRest:
			value = fmt.Sprintf("%d min", settings.MinRestMinutes)
		case SettingMaxRest:
			value = fmt.Sprintf("%d min", settings.MaxRestMinutes)
		}
		if field == selected {
			text += fmt.Sprintf("  [black:yellow] %-9s %8s [-:-]\n", field, value)
		} else {
			text += fmt.Sprintf("   %-9s %8s\n", field, value)
		}
	}
	text += fmt.Sprintf("\n  [gray]Sets %d-%d, rest %d-%d minutes. Changes apply to the next workout.[white]\n",
		MinSets, MaxSets, MinRestMinutes, MaxRestMinutes)
	return text
}

func formatBadgesPanel(board BadgeBoardState) string {
	text := fmt.Sprintf("\n  [yellow]Collected[white] (%d)\n", len(board.Collected))
	if len(board.Collected) == 0 {
		text += "  [gray]None yet[white]\n"
	}
	for _, b := range board.Collected {
		text += fmt.Sprintf("  %s [green]%s[white]\n    [gray]%s[white]\n", b.Icon, b.Name, b.Description)
	}

	text += fmt.Sprintf("\n  [yellow]Locked[white] (%d)\n", len(board.Locked))
	for _, b := range board.Locked {
		text += fmt.Sprintf("  [gray]%s %s[white]\n    [gray]%s[white]\n", b.Icon, b.Name, b.Description)
	}
	return text
}
