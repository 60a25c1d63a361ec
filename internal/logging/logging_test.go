package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WritesToRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "compprep.log")

	logger, closer, err := New(Options{File: path, MaxSizeMB: 1})
	require.NoError(t, err)
	logger.Printf("Engine: Timer started on set %d", 1)
	require.NoError(t, closer.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Engine: Timer started on set 1")
}

func TestNew_TailsLines(t *testing.T) {
	tail := make(chan string, 4)

	logger, closer, err := New(Options{File: Stderr, Tail: tail})
	require.NoError(t, err)
	defer closer.Close()

	logger.Printf("first")
	logger.Printf("second")

	line := <-tail
	assert.True(t, strings.HasSuffix(line, "first"), line)
	line = <-tail
	assert.True(t, strings.HasSuffix(line, "second"), line)
}

func TestNew_RequiresFile(t *testing.T) {
	_, _, err := New(Options{})
	assert.Error(t, err)
}

func TestTailWriter_SplitsAndDropsWhenFull(t *testing.T) {
	ch := make(chan string, 1)
	w := &tailWriter{ch: ch}

	n, err := w.Write([]byte("a\nb"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, "a", <-ch)

	_, _ = w.Write([]byte("c\nd\n"))
	assert.Equal(t, "bc", <-ch)
	assert.Len(t, ch, 0, "second line dropped while channel was full")
}
