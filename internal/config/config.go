package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/lowaak/compprep/compprep-app/internal/interval"
)

const (
	envPrefix      = "COMPPREP"
	stateDirName   = ".compprep"
	configFileName = "config.yaml"
)

// Keys as they appear in the config file. Env vars use the upper-cased key
// with dots replaced by underscores, e.g. COMPPREP_TIMER_SETS.
const (
	KeyTimerSets         = "timer.sets"
	KeyTimerMinRest      = "timer.min_rest_minutes"
	KeyTimerMaxRest      = "timer.max_rest_minutes"
	KeyTimerTickInterval = "timer.tick_interval"
	KeyTimerLeadIn       = "timer.lead_in_seconds"
	KeyLogFile           = "log.file"
	KeyLogMaxSizeMB      = "log.max_size_mb"
	KeyLogMaxBackups     = "log.max_backups"
	KeyLogMaxAgeDays     = "log.max_age_days"
	KeyLogCompress       = "log.compress"
	KeyLiveAddr          = "live.addr"
	KeyLiveBLE           = "live.ble"
	KeyLiveBLEName       = "live.ble_name"
	KeyAnalyticsFile     = "analytics.file"
	KeyBadgesFile        = "badges.file"
	KeyStateDir          = "state.dir"
	KeyPro               = "pro"
)

var timerSettingKeys = []string{KeyTimerSets, KeyTimerMinRest, KeyTimerMaxRest}

var ErrInvalidConfig = errors.New("invalid configuration")

type TimerConfig struct {
	Settings      interval.Settings
	TickInterval  time.Duration
	LeadInSeconds int
	// Explicit is set when the workout shape came from a flag, env var or
	// config file rather than defaults. Explicit settings win over the ones
	// saved by the dashboard.
	Explicit bool
}

type LogConfig struct {
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type LiveConfig struct {
	Addr    string
	BLE     bool
	BLEName string
}

type Config struct {
	Timer         TimerConfig
	Log           LogConfig
	Live          LiveConfig
	AnalyticsFile string
	BadgesFile    string
	StateDir      string
	Pro           bool

	// ConfigFile is the file that was read, empty if none.
	ConfigFile string
}

// Load layers defaults, the YAML config file, COMPPREP_* env vars and
// command line flags, in increasing order of precedence.
func Load(args []string) (*Config, error) {
	fs := pflag.NewFlagSet("compprep", pflag.ContinueOnError)
	fs.Int("sets", interval.DefaultTotalSets, "number of sets in a workout")
	fs.Int("min-rest", interval.DefaultMinRestMinutes, "minimum rest between sets, in minutes")
	fs.Int("max-rest", interval.DefaultMaxRestMinutes, "maximum rest between sets, in minutes")
	fs.Duration("tick-interval", time.Second, "how often the timer wakes to count down")
	fs.Int("lead-in", 5, "lead-in countdown before the first set, in seconds (0 disables)")
	fs.String("config", "", "config file (default ~/.compprep/config.yaml)")
	fs.String("log-file", "", "log file, or \"stderr\" (default <state-dir>/compprep.log)")
	fs.String("live-addr", "", "address for the live status HTTP server, e.g. :8787 (empty disables)")
	fs.Bool("ble", false, "advertise live status over Bluetooth LE")
	fs.String("ble-name", "CompPrep", "local name used in BLE advertisements")
	fs.String("analytics-file", "", "JSON lines analytics log (default <state-dir>/analytics.jsonl)")
	fs.String("badges-file", "", "badge progress file (default <state-dir>/badges.yaml)")
	fs.String("state-dir", "", "directory for saved state (default ~/.compprep)")
	fs.Bool("pro", true, "unlock pro features such as the rest timer")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)

	bindings := map[string]string{
		KeyTimerSets:         "sets",
		KeyTimerMinRest:      "min-rest",
		KeyTimerMaxRest:      "max-rest",
		KeyTimerTickInterval: "tick-interval",
		KeyTimerLeadIn:       "lead-in",
		KeyLogFile:           "log-file",
		KeyLiveAddr:          "live-addr",
		KeyLiveBLE:           "ble",
		KeyLiveBLEName:       "ble-name",
		KeyAnalyticsFile:     "analytics-file",
		KeyBadgesFile:        "badges-file",
		KeyStateDir:          "state-dir",
		KeyPro:               "pro",
	}
	for key, flag := range bindings {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configFile, _ := fs.GetString("config")
	explicitFile := configFile != ""
	if !explicitFile {
		configFile = defaultConfigPath()
	}
	cfgRead := ""
	if configFile != "" {
		if _, err := os.Stat(configFile); err == nil || explicitFile {
			v.SetConfigFile(configFile)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", configFile, err)
			}
			cfgRead = configFile
		}
	}

	cfg := &Config{
		Timer: TimerConfig{
			Settings: interval.Settings{
				TotalSets:      v.GetInt(KeyTimerSets),
				MinRestMinutes: v.GetInt(KeyTimerMinRest),
				MaxRestMinutes: v.GetInt(KeyTimerMaxRest),
			},
			TickInterval:  v.GetDuration(KeyTimerTickInterval),
			LeadInSeconds: v.GetInt(KeyTimerLeadIn),
			Explicit:      timerSettingsExplicit(fs, v),
		},
		Log: LogConfig{
			File:       v.GetString(KeyLogFile),
			MaxSizeMB:  v.GetInt(KeyLogMaxSizeMB),
			MaxBackups: v.GetInt(KeyLogMaxBackups),
			MaxAgeDays: v.GetInt(KeyLogMaxAgeDays),
			Compress:   v.GetBool(KeyLogCompress),
		},
		Live: LiveConfig{
			Addr:    v.GetString(KeyLiveAddr),
			BLE:     v.GetBool(KeyLiveBLE),
			BLEName: v.GetString(KeyLiveBLEName),
		},
		AnalyticsFile: v.GetString(KeyAnalyticsFile),
		BadgesFile:    v.GetString(KeyBadgesFile),
		StateDir:      v.GetString(KeyStateDir),
		Pro:           v.GetBool(KeyPro),
		ConfigFile:    cfgRead,
	}
	cfg.fillPaths()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail later at startup.
func (c *Config) Validate() error {
	if err := c.Timer.Settings.Validate(); err != nil {
		return fmt.Errorf("%w: timer: %w", ErrInvalidConfig, err)
	}
	if c.Timer.TickInterval <= 0 {
		return fmt.Errorf("%w: timer.tick_interval must be positive, got %v", ErrInvalidConfig, c.Timer.TickInterval)
	}
	if c.Timer.LeadInSeconds < 0 {
		return fmt.Errorf("%w: timer.lead_in_seconds must not be negative, got %d", ErrInvalidConfig, c.Timer.LeadInSeconds)
	}
	if c.Live.BLE && c.Live.BLEName == "" {
		return fmt.Errorf("%w: live.ble_name is required when live.ble is enabled", ErrInvalidConfig)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyTimerSets, interval.DefaultTotalSets)
	v.SetDefault(KeyTimerMinRest, interval.DefaultMinRestMinutes)
	v.SetDefault(KeyTimerMaxRest, interval.DefaultMaxRestMinutes)
	v.SetDefault(KeyTimerTickInterval, time.Second)
	v.SetDefault(KeyTimerLeadIn, 5)
	v.SetDefault(KeyLogMaxSizeMB, 10)
	v.SetDefault(KeyLogMaxBackups, 3)
	v.SetDefault(KeyLogMaxAgeDays, 28)
	v.SetDefault(KeyLogCompress, false)
	v.SetDefault(KeyLiveBLEName, "CompPrep")
	v.SetDefault(KeyPro, true)
}

func (c *Config) fillPaths() {
	if c.StateDir == "" {
		c.StateDir = defaultStateDir()
	}
	if c.Log.File == "" {
		c.Log.File = filepath.Join(c.StateDir, "compprep.log")
	}
	if c.AnalyticsFile == "" {
		c.AnalyticsFile = filepath.Join(c.StateDir, "analytics.jsonl")
	}
	if c.BadgesFile == "" {
		c.BadgesFile = filepath.Join(c.StateDir, "badges.yaml")
	}
}

func timerSettingsExplicit(fs *pflag.FlagSet, v *viper.Viper) bool {
	for _, flag := range []string{"sets", "min-rest", "max-rest"} {
		if fs.Changed(flag) {
			return true
		}
	}
	for _, key := range timerSettingKeys {
		if v.InConfig(key) {
			return true
		}
		env := envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if _, ok := os.LookupEnv(env); ok {
			return true
		}
	}
	return false
}

func defaultStateDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return filepath.Join(homeDir, stateDirName)
}

func defaultConfigPath() string {
	return filepath.Join(defaultStateDir(), configFileName)
}
