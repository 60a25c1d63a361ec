package badges

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// Progress is everything the tracker persists.
type Progress struct {
	WorkoutCount int      `yaml:"workout_count"`
	StreakCount  int      `yaml:"streak_count"`
	LastUsedDay  string   `yaml:"last_used_day,omitempty"` // YYYY-MM-DD, local time
	Collected    []string `yaml:"collected,omitempty"`
}

// Store loads and saves badge progress.
type Store interface {
	Load() (Progress, error)
	Save(Progress) error
}

type MemoryStore struct {
	mu       sync.Mutex
	progress Progress
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load() (Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneProgress(s.progress), nil
}

func (s *MemoryStore) Save(p Progress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress = cloneProgress(p)
	return nil
}

// FileStore keeps progress in a YAML file. A missing file loads as empty
// progress.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load() (Progress, error) {
	var p Progress
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return p, nil
		}
		return p, fmt.Errorf("read badge file: %w", err)
	}
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return Progress{}, fmt.Errorf("parse badge yaml: %w", err)
	}
	return p, nil
}

func (s *FileStore) Save(p Progress) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create badge directory: %w", err)
	}
	serialized, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal badge yaml: %w", err)
	}
	if err := os.WriteFile(s.path, serialized, 0o644); err != nil {
		return fmt.Errorf("write badge file: %w", err)
	}
	return nil
}

func cloneProgress(p Progress) Progress {
	p.Collected = append([]string(nil), p.Collected...)
	return p
}
