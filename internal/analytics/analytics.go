package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/lowaak/compprep/compprep-app/internal/interval"
)

// Events captured outside the interval engine.
const (
	EventProFeatureAttempted = "pro_feature_attempted_without_access"
	EventBadgeEarned         = "badge_earned"
)

// LogSink writes every event to the application log.
type LogSink struct {
	logger *log.Logger
}

func NewLogSink(logger *log.Logger) *LogSink {
	if logger == nil {
		panic("LogSink: logger cannot be nil")
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Capture(_ context.Context, event interval.Event) error {
	s.logger.Printf("Analytics: %s %s", event.Name, formatProperties(event.Properties))
	return nil
}

func formatProperties(props map[string]any) string {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, props[k]))
	}
	return "{" + strings.Join(parts, " ") + "}"
}

// record is one line of the JSON lines file.
type record struct {
	Event      string         `json:"event"`
	DistinctID string         `json:"distinct_id"`
	Timestamp  time.Time      `json:"timestamp"`
	Properties map[string]any `json:"properties,omitempty"`
}

// FileSink appends events as JSON lines to a size-rotated file.
type FileSink struct {
	mu         sync.Mutex
	out        io.WriteCloser
	distinctID string
	now        func() time.Time
}

// NewFileSink opens path through lumberjack. distinctID identifies this
// install; a random one is generated when empty.
func NewFileSink(path, distinctID string) *FileSink {
	return newFileSink(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    5,
		MaxBackups: 2,
	}, distinctID)
}

func newFileSink(out io.WriteCloser, distinctID string) *FileSink {
	if distinctID == "" {
		distinctID = uuid.NewString()
	}
	return &FileSink{out: out, distinctID: distinctID, now: time.Now}
}

func (s *FileSink) DistinctID() string { return s.distinctID }

// LoadDistinctID returns the install ID stored at path, creating one the
// first time or when the stored value is not a UUID.
func LoadDistinctID(path string) (string, error) {
	if raw, err := os.ReadFile(path); err == nil {
		if id, err := uuid.Parse(strings.TrimSpace(string(raw))); err == nil {
			return id.String(), nil
		}
	}

	id := uuid.NewString()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("analytics: create id dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(id+"\n"), 0644); err != nil {
		return "", fmt.Errorf("analytics: write id: %w", err)
	}
	return id, nil
}

func (s *FileSink) Capture(_ context.Context, event interval.Event) error {
	raw, err := json.Marshal(record{
		Event:      event.Name,
		DistinctID: s.distinctID,
		Timestamp:  s.now().UTC(),
		Properties: event.Properties,
	})
	if err != nil {
		return fmt.Errorf("analytics: encode %s: %w", event.Name, err)
	}
	raw = append(raw, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.out.Write(raw); err != nil {
		return fmt.Errorf("analytics: write %s: %w", event.Name, err)
	}
	return nil
}

func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.out.Close()
}

// Fanout delivers each event to every sink and joins their errors.
type Fanout []interval.AnalyticsSink

func (f Fanout) Capture(ctx context.Context, event interval.Event) error {
	var errs []error
	for _, sink := range f {
		if err := sink.Capture(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
