package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lowaak/compprep/compprep-app/internal/interval"
)

// isolate points HOME at a temp dir so no real config file is picked up.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	home := isolate(t)

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, interval.DefaultSettings(), cfg.Timer.Settings)
	assert.False(t, cfg.Timer.Explicit)
	assert.Equal(t, time.Second, cfg.Timer.TickInterval)
	assert.Equal(t, 5, cfg.Timer.LeadInSeconds)
	assert.True(t, cfg.Pro)
	assert.Empty(t, cfg.Live.Addr)
	assert.False(t, cfg.Live.BLE)
	assert.Equal(t, "CompPrep", cfg.Live.BLEName)
	assert.Empty(t, cfg.ConfigFile)

	stateDir := filepath.Join(home, ".compprep")
	assert.Equal(t, stateDir, cfg.StateDir)
	assert.Equal(t, filepath.Join(stateDir, "compprep.log"), cfg.Log.File)
	assert.Equal(t, filepath.Join(stateDir, "analytics.jsonl"), cfg.AnalyticsFile)
	assert.Equal(t, filepath.Join(stateDir, "badges.yaml"), cfg.BadgesFile)
	assert.Equal(t, 10, cfg.Log.MaxSizeMB)
}

func TestLoad_Flags(t *testing.T) {
	isolate(t)

	cfg, err := Load([]string{
		"--sets", "3",
		"--min-rest", "2",
		"--max-rest", "4",
		"--tick-interval", "250ms",
		"--lead-in", "0",
		"--live-addr", ":8787",
		"--ble",
		"--pro=false",
		"--state-dir", "/tmp/compprep-test",
	})
	require.NoError(t, err)

	assert.Equal(t, interval.Settings{TotalSets: 3, MinRestMinutes: 2, MaxRestMinutes: 4}, cfg.Timer.Settings)
	assert.True(t, cfg.Timer.Explicit)
	assert.Equal(t, 250*time.Millisecond, cfg.Timer.TickInterval)
	assert.Equal(t, 0, cfg.Timer.LeadInSeconds)
	assert.Equal(t, ":8787", cfg.Live.Addr)
	assert.True(t, cfg.Live.BLE)
	assert.False(t, cfg.Pro)
	assert.Equal(t, "/tmp/compprep-test/badges.yaml", cfg.BadgesFile)
}

func TestLoad_ConfigFileAndPrecedence(t *testing.T) {
	isolate(t)
	path := writeConfig(t, t.TempDir(), `
timer:
  sets: 8
  min_rest_minutes: 2
  max_rest_minutes: 6
log:
  file: stderr
  compress: true
live:
  addr: ":9000"
`)

	cfg, err := Load([]string{"--config", path})
	require.NoError(t, err)
	assert.Equal(t, path, cfg.ConfigFile)
	assert.Equal(t, interval.Settings{TotalSets: 8, MinRestMinutes: 2, MaxRestMinutes: 6}, cfg.Timer.Settings)
	assert.True(t, cfg.Timer.Explicit)
	assert.Equal(t, "stderr", cfg.Log.File)
	assert.True(t, cfg.Log.Compress)
	assert.Equal(t, ":9000", cfg.Live.Addr)

	t.Setenv("COMPPREP_TIMER_SETS", "6")
	cfg, err = Load([]string{"--config", path})
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.Timer.Settings.TotalSets)

	cfg, err = Load([]string{"--config", path, "--sets", "2"})
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Timer.Settings.TotalSets)
}

func TestLoad_DefaultConfigFileInStateDir(t *testing.T) {
	home := isolate(t)
	dir := filepath.Join(home, ".compprep")
	require.NoError(t, os.MkdirAll(dir, 0755))
	path := writeConfig(t, dir, "timer:\n  lead_in_seconds: 3\n")

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, path, cfg.ConfigFile)
	assert.Equal(t, 3, cfg.Timer.LeadInSeconds)
	assert.False(t, cfg.Timer.Explicit)
}

func TestLoad_EnvMarksSettingsExplicit(t *testing.T) {
	isolate(t)
	t.Setenv("COMPPREP_TIMER_MAX_REST_MINUTES", "10")

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Timer.Settings.MaxRestMinutes)
	assert.True(t, cfg.Timer.Explicit)
}

func TestLoad_MissingExplicitConfigFile(t *testing.T) {
	isolate(t)

	_, err := Load([]string{"--config", filepath.Join(t.TempDir(), "nope.yaml")})
	assert.Error(t, err)
}

func TestLoad_RejectsInvalidTimerSettings(t *testing.T) {
	isolate(t)

	_, err := Load([]string{"--sets", "0"})
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.ErrorIs(t, err, interval.ErrInvalidSets)

	_, err = Load([]string{"--min-rest", "9", "--max-rest", "3"})
	assert.ErrorIs(t, err, interval.ErrInvalidRestRange)

	_, err = Load([]string{"--tick-interval", "0s"})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoad_UnknownFlag(t *testing.T) {
	isolate(t)

	_, err := Load([]string{"--bogus"})
	assert.Error(t, err)
}
