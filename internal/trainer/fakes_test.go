package trainer

import (
	"context"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lowaak/compprep/compprep-app/internal/badges"
	"github.com/lowaak/compprep/compprep-app/internal/entitlement"
	"github.com/lowaak/compprep/compprep-app/internal/interval"
)

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

type recordingAnalytics struct {
	mu     sync.Mutex
	events []interval.Event
}

func (r *recordingAnalytics) Capture(_ context.Context, e interval.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recordingAnalytics) named(name string) []interval.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []interval.Event
	for _, e := range r.events {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

type harness struct {
	t          *testing.T
	stateDir   string
	engine     *interval.Engine
	tracker    *badges.Tracker
	gate       *entitlement.StaticGate
	sink       *recordingAnalytics
	model      *UIModel
	controller *UIController
}

// newHarness wires the controller to a real engine whose ticker never fires
// during a test; time is moved with engine.AdvanceBy.
func newHarness(t *testing.T, settings interval.Settings, opts ...ControllerOption) *harness {
	t.Helper()
	logger := discardLogger()

	tracker, err := badges.NewTracker(badges.NewMemoryStore(), logger)
	require.NoError(t, err)

	sink := &recordingAnalytics{}
	engine, err := interval.New(settings, logger,
		interval.WithTickInterval(time.Hour),
		interval.WithAnalytics(sink),
		interval.WithBadges(tracker),
	)
	require.NoError(t, err)

	stateDir := t.TempDir()
	model := NewUIModel(logger, make(chan string), stateDir)
	gate := entitlement.NewStaticGate(true)
	controller := NewUIController(model, engine, tracker, gate, sink, logger, opts...)

	t.Cleanup(func() {
		controller.Shutdown()
		engine.Shutdown()
		model.Shutdown()
	})

	return &harness{
		t:          t,
		stateDir:   stateDir,
		engine:     engine,
		tracker:    tracker,
		gate:       gate,
		sink:       sink,
		model:      model,
		controller: controller,
	}
}

func (h *harness) eventuallyModelStatus(status interval.Status) {
	h.t.Helper()
	require.Eventually(h.t, func() bool {
		return h.model.GetTimerState().Status == status
	}, time.Second, 5*time.Millisecond)
}

type viewRecord struct {
	mode       UIMode
	timerState interval.State
	countdown  CountdownState
	notice     string
	settings   interval.Settings
	selected   SettingField
	board      BadgeBoardState
	logLines   []string
	draws      int
	stopped    bool
}

type fakeView struct {
	mu  sync.Mutex
	rec viewRecord
}

func (v *fakeView) Initialize(*UIController)            {}
func (v *fakeView) SetupKeyboardHandlers(*UIController) {}
func (v *fakeView) Run() error                          { return nil }
func (v *fakeView) GetLogViewHeight() int               { return 3 }

func (v *fakeView) update(fn func(r *viewRecord)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fn(&v.rec)
}

func (v *fakeView) Stop()       { v.update(func(r *viewRecord) { r.stopped = true }) }
func (v *fakeView) Draw() error { v.update(func(r *viewRecord) { r.draws++ }); return nil }

func (v *fakeView) SetMode(mode UIMode) { v.update(func(r *viewRecord) { r.mode = mode }) }

func (v *fakeView) GetCurrentMode() UIMode { return v.record().mode }

func (v *fakeView) ClearLogView() { v.update(func(r *viewRecord) { r.logLines = nil }) }

func (v *fakeView) WriteLogLine(line string) error {
	v.update(func(r *viewRecord) { r.logLines = append(r.logLines, line) })
	return nil
}

func (v *fakeView) UpdateTimerState(state interval.State) {
	v.update(func(r *viewRecord) { r.timerState = state })
}

func (v *fakeView) UpdateCountdown(state CountdownState) {
	v.update(func(r *viewRecord) { r.countdown = state })
}

func (v *fakeView) ShowNotice(notice string) {
	v.update(func(r *viewRecord) { r.notice = notice })
}

func (v *fakeView) UpdateSettings(settings interval.Settings, selected SettingField) {
	v.update(func(r *viewRecord) {
		r.settings = settings
		r.selected = selected
	})
}

func (v *fakeView) UpdateBadgeBoard(board BadgeBoardState) {
	v.update(func(r *viewRecord) { r.board = board })
}

func (v *fakeView) record() viewRecord {
	v.mu.Lock()
	defer v.mu.Unlock()
	rec := v.rec
	rec.logLines = append([]string(nil), v.rec.logLines...)
	return rec
}
