package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// NOTE: This file provides the configuration model and full YAML-based
// load/save behavior, including first-run config creation and 0600
// permissions.

// ICSConfig describes a single programme source (the wedding-day schedule,
// rehearsals, ...), either a subscription URL or a local .ics file.
type ICSConfig struct {
	// Location is the ICS endpoint URL or a filesystem path.
	Location string `yaml:"location" json:"location"`
	// ID is an internal identifier used for de-dup and logging.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label shown on the page.
	Name string `yaml:"name" json:"name"`
}

// EventConfig identifies the wedding itself.
type EventConfig struct {
	// Title is the page headline, e.g. "Dana & Jisoo".
	Title string `yaml:"title" json:"title"`
	// Venue is shown under the headline.
	Venue string `yaml:"venue" json:"venue"`
	// Date is the wedding moment in "2006-01-02T15:04:05" form,
	// interpreted in the configured timezone. If empty, the earliest
	// programme occurrence is used instead.
	Date string `yaml:"date" json:"date"`
}

// AudioConfig configures the background-music session. Volume and loop are
// fixed configuration, not runtime state.
type AudioConfig struct {
	// Source is the audio file path or URL handed to the player.
	Source string `yaml:"source" json:"source"`
	// Player is the external player binary ("ffplay" by default).
	Player string `yaml:"player" json:"player"`
	// Volume is the playback volume in [0, 1].
	Volume float64 `yaml:"volume" json:"volume"`
}

// Config is the top-level application configuration.
type Config struct {
	// Timezone is the IANA timezone used as the canonical display zone
	// (e.g. "Asia/Seoul").
	Timezone string `yaml:"timezone" json:"timezone"`

	// Event is the wedding being announced.
	Event EventConfig `yaml:"event" json:"event"`

	// Audio configures background music. An empty Source disables music.
	Audio AudioConfig `yaml:"audio" json:"audio"`

	// Programme is the list of subscribed programme sources.
	Programme []ICSConfig `yaml:"programme" json:"programme"`

	// Refresh is a cron-style schedule (robfig/cron syntax, @every
	// accepted) for the shell's periodic repaint and auto-scroll step.
	Refresh string `yaml:"refresh" json:"refresh"`

	// ScrollRows is how many rows one auto-scroll step advances.
	ScrollRows int `yaml:"scroll_rows" json:"scroll_rows"`

	// CacheDir is where fetched programme bodies are cached.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Timezone: "Asia/Seoul",
		Event: EventConfig{
			Title: "Our Wedding",
		},
		Audio: AudioConfig{
			Player: "ffplay",
			Volume: 0.2,
		},
		Programme:  []ICSConfig{},
		Refresh:    "@every 2s",
		ScrollRows: 4,
		CacheDir:   "./var/ics-cache",
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Timezone == "" {
		c.Timezone = "Asia/Seoul"
	}
	if c.Event.Title == "" {
		c.Event.Title = "Our Wedding"
	}
	if c.Audio.Player == "" {
		c.Audio.Player = "ffplay"
	}
	if c.Audio.Volume <= 0 || c.Audio.Volume > 1 {
		c.Audio.Volume = 0.2
	}
	if c.Programme == nil {
		c.Programme = []ICSConfig{}
	}
	if c.Refresh == "" {
		c.Refresh = "@every 2s"
	}
	if c.ScrollRows <= 0 {
		c.ScrollRows = 4
	}
	if c.CacheDir == "" {
		c.CacheDir = "./var/ics-cache"
	}
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Deadline parses Event.Date in the configured timezone. ok is false when
// no explicit date is configured (the caller falls back to the programme).
func (c *Config) Deadline() (deadline time.Time, ok bool, err error) {
	if c.Event.Date == "" {
		return time.Time{}, false, nil
	}
	loc, err := c.Location()
	if err != nil {
		return time.Time{}, false, err
	}
	t, err := time.ParseInLocation("2006-01-02T15:04:05", c.Event.Date, loc)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("invalid event date %q: %w", c.Event.Date, err)
	}
	return t, true, nil
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	// Atomic write: write to temp file in same directory then rename.
	tmp, err := os.CreateTemp(dir, ".wedpage-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}

	// Flush and close before chmod/rename.
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	// Set permissions to 0600 on temp file before rename.
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	// Rename over the target path.
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}

	return nil
}

// Save is a convenience method on Config that delegates to the
// package-level Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
