// Package config resolves cadence settings from the environment, a .env
// file, the YAML config file and built-in defaults, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/julianstephens/cadence/internal/constants"
	"github.com/julianstephens/cadence/internal/lifecycle"
	"github.com/julianstephens/cadence/internal/utils"
)

const DefaultLogLevel = "warn"

type Config struct {
	// Database is a SQLite path, a *.json path or a PostgreSQL connection
	// string.
	Database      string  `yaml:"database"`
	LogLevel      string  `yaml:"log_level"`
	Timezone      string  `yaml:"timezone"`
	SweepSchedule string  `yaml:"sweep_schedule"`
	Scoring       Scoring `yaml:"scoring"`

	// Dir is the directory the config file was read from.
	Dir string `yaml:"-"`
}

// Scoring overrides the transition point values. Zero fields keep the
// defaults.
type Scoring struct {
	CompletionReward int         `yaml:"completion_reward"`
	PriorityRewards  map[int]int `yaml:"priority_rewards"`
	NotDonePenalty   int         `yaml:"not_done_penalty"`
	PostponePenalty  int         `yaml:"postpone_penalty"`
}

// Dir returns the config directory: $CADENCE_CONFIG_DIR or the default.
func Dir() string {
	return utils.ExpandPath(coalesce(os.Getenv(constants.EnvConfigDir), constants.DefaultConfigDir))
}

// Load reads .env from the working directory, then the config file in dir,
// and overlays the environment. A missing file is not an error.
func Load(dir string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	var fromFile Config
	path := filepath.Join(dir, constants.ConfigFileName)
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &fromFile); err != nil {
			return Config{}, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return Config{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	cfg := Config{
		Database:      coalesce(os.Getenv(constants.EnvDB), fromFile.Database, filepath.Join(dir, filepath.Base(constants.DefaultDBPath))),
		LogLevel:      coalesce(os.Getenv(constants.EnvLogLevel), fromFile.LogLevel, DefaultLogLevel),
		Timezone:      coalesce(fromFile.Timezone, "Local"),
		SweepSchedule: coalesce(fromFile.SweepSchedule, constants.DefaultSweepSpec),
		Scoring:       fromFile.Scoring,
		Dir:           dir,
	}
	cfg.Database = utils.ExpandPath(cfg.Database)

	if _, err := utils.LoadLocation(cfg.Timezone); err != nil {
		return Config{}, fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}
	return cfg, nil
}

// Save writes cfg to the config file in cfg.Dir.
func Save(cfg Config) error {
	if err := os.MkdirAll(cfg.Dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}
	return os.WriteFile(filepath.Join(cfg.Dir, constants.ConfigFileName), data, 0600)
}

// Location returns the configured timezone.
func (c Config) Location() *time.Location {
	loc, err := utils.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// LifecycleScoring converts the file values into engine scoring.
func (c Config) LifecycleScoring() lifecycle.Scoring {
	s := lifecycle.DefaultScoring()
	if c.Scoring.CompletionReward != 0 {
		s.DefaultReward = c.Scoring.CompletionReward
	}
	for p, r := range c.Scoring.PriorityRewards {
		s.CompletionReward[p] = r
	}
	if c.Scoring.NotDonePenalty != 0 {
		s.NotDonePenalty = -abs(c.Scoring.NotDonePenalty)
	}
	if c.Scoring.PostponePenalty != 0 {
		s.PostponePenalty = -abs(c.Scoring.PostponePenalty)
	}
	return s
}

func coalesce(args ...string) string {
	for _, s := range args {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
