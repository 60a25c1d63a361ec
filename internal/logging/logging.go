package logging

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Stderr as Options.File sends log output to standard error instead of a file.
const Stderr = "stderr"

type Options struct {
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
	// Tail, when set, receives every line without its trailing newline.
	// Lines are dropped if the channel is full.
	Tail chan<- string
}

// New builds the application logger. The returned closer flushes and closes
// the underlying file.
func New(opts Options) (*log.Logger, io.Closer, error) {
	var (
		out    io.Writer
		closer io.Closer = nopCloser{}
	)

	if opts.File == Stderr {
		out = os.Stderr
	} else {
		if opts.File == "" {
			return nil, nil, fmt.Errorf("logging: file path is required")
		}
		if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
			return nil, nil, fmt.Errorf("logging: create log dir: %w", err)
		}
		lj := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   opts.Compress,
		}
		out = lj
		closer = lj
	}

	if opts.Tail != nil {
		out = io.MultiWriter(out, &tailWriter{ch: opts.Tail})
	}

	return log.New(out, "", log.LstdFlags|log.Lmicroseconds), closer, nil
}

// tailWriter forwards complete lines to a channel without blocking.
type tailWriter struct {
	mu  sync.Mutex
	buf bytes.Buffer
	ch  chan<- string
}

func (w *tailWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf.Write(p)
	for {
		line, err := w.buf.ReadString('\n')
		if err != nil {
			// incomplete line, keep it for the next write
			w.buf.Reset()
			w.buf.WriteString(line)
			break
		}
		select {
		case w.ch <- line[:len(line)-1]:
		default:
		}
	}
	return len(p), nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
