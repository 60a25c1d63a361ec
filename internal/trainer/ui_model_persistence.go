package trainer

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"

	"github.com/lowaak/compprep/compprep-app/internal/interval"
)

const uiStateFileName = "ui_state.json"

type uiModelPersistenceData struct {
	Settings *interval.Settings `json:"settings,omitempty"`
	LastMode *UIMode            `json:"last_mode,omitempty"`
}

type uiModelPersistence struct {
	filePath string
	data     uiModelPersistenceData
	logger   *log.Logger
}

// newUIModelPersistence loads ui_state.json from stateDir. An empty stateDir
// means ~/.compprep.
func newUIModelPersistence(stateDir string, logger *log.Logger) *uiModelPersistence {
	if stateDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			homeDir = "."
		}
		stateDir = filepath.Join(homeDir, ".compprep")
	}
	p := &uiModelPersistence{
		filePath: filepath.Join(stateDir, uiStateFileName),
		logger:   logger,
	}
	p.load()
	return p
}

func (p *uiModelPersistence) getSettings() (interval.Settings, bool) {
	if p.data.Settings == nil {
		return interval.Settings{}, false
	}
	s := *p.data.Settings
	if err := s.Validate(); err != nil {
		p.logger.Printf("UIModelPersistence: ignoring saved settings: %v", err)
		return interval.Settings{}, false
	}
	return s, true
}

func (p *uiModelPersistence) setSettings(s interval.Settings) {
	p.logger.Printf("UIModelPersistence: setSettings %+v", s)
	p.data.Settings = &s
	p.save()
}

func (p *uiModelPersistence) getLastMode() (UIMode, bool) {
	if p.data.LastMode == nil {
		return 0, false
	}
	if _, ok := GetUIModeInfo(*p.data.LastMode); !ok {
		return 0, false
	}
	return *p.data.LastMode, true
}

func (p *uiModelPersistence) setLastMode(mode UIMode) {
	p.data.LastMode = &mode
	p.save()
}

func (p *uiModelPersistence) load() {
	p.data = uiModelPersistenceData{}
	raw, err := os.ReadFile(p.filePath)
	if err != nil {
		p.logger.Printf("UIModelPersistence: load %s (no existing file)", p.filePath)
		return
	}
	if err := json.Unmarshal(raw, &p.data); err != nil {
		p.logger.Printf("UIModelPersistence: load %s failed to parse: %v", p.filePath, err)
		p.data = uiModelPersistenceData{}
		return
	}
	p.logger.Printf("UIModelPersistence: load %s -> settings=%v", p.filePath, p.data.Settings != nil)
}

func (p *uiModelPersistence) save() {
	if err := os.MkdirAll(filepath.Dir(p.filePath), 0755); err != nil {
		p.logger.Printf("UIModelPersistence: save mkdir failed: %v", err)
		return
	}
	raw, err := json.MarshalIndent(p.data, "", "  ")
	if err != nil {
		p.logger.Printf("UIModelPersistence: save marshal failed: %v", err)
		return
	}
	if err := os.WriteFile(p.filePath, raw, 0644); err != nil {
		p.logger.Printf("UIModelPersistence: save %s failed: %v", p.filePath, err)
		return
	}
	p.logger.Printf("UIModelPersistence: save %s", p.filePath)
}
