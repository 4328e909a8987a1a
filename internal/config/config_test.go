package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNormalizeDefaults(t *testing.T) {
	var cfg Config
	cfg.Normalize()

	if cfg.Timezone != "Asia/Seoul" {
		t.Fatalf("timezone = %q", cfg.Timezone)
	}
	if cfg.Audio.Player != "ffplay" {
		t.Fatalf("player = %q", cfg.Audio.Player)
	}
	if cfg.Audio.Volume != 0.2 {
		t.Fatalf("volume = %v", cfg.Audio.Volume)
	}
	if cfg.ScrollRows != 4 {
		t.Fatalf("scroll_rows = %d", cfg.ScrollRows)
	}
	if cfg.Programme == nil {
		t.Fatal("programme not initialized")
	}
}

func TestNormalizeClampsVolume(t *testing.T) {
	cfg := Config{Audio: AudioConfig{Volume: 3.5}}
	cfg.Normalize()
	if cfg.Audio.Volume != 0.2 {
		t.Fatalf("out-of-range volume normalized to %v, want 0.2", cfg.Audio.Volume)
	}
}

func TestLoadCreatesDefaultOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Timezone != "Asia/Seoul" {
		t.Fatalf("default timezone = %q", cfg.Timezone)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("config file not created: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("config perms = %o, want 600", perm)
	}
}

func TestLoadSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := DefaultConfig()
	cfg.Event = EventConfig{
		Title: "Dana & Jisoo",
		Venue: "Seongsu Chapel",
		Date:  "2026-10-24T13:00:00",
	}
	cfg.Audio.Source = "music/first-dance.mp3"
	cfg.Programme = []ICSConfig{{Location: "wedding.ics", ID: "main", Name: "Wedding"}}

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Event.Title != "Dana & Jisoo" || loaded.Event.Date != "2026-10-24T13:00:00" {
		t.Fatalf("event round-tripped as %+v", loaded.Event)
	}
	if len(loaded.Programme) != 1 || loaded.Programme[0].ID != "main" {
		t.Fatalf("programme round-tripped as %+v", loaded.Programme)
	}
}

func TestDeadline(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Timezone = "UTC"
	cfg.Event.Date = "2026-10-24T13:00:00"

	deadline, ok, err := cfg.Deadline()
	if err != nil || !ok {
		t.Fatalf("Deadline: ok=%v err=%v", ok, err)
	}
	want := time.Date(2026, time.October, 24, 13, 0, 0, 0, time.UTC)
	if !deadline.Equal(want) {
		t.Fatalf("deadline = %v, want %v", deadline, want)
	}
}

func TestDeadlineUnset(t *testing.T) {
	cfg := DefaultConfig()
	if _, ok, err := cfg.Deadline(); ok || err != nil {
		t.Fatalf("unset date: ok=%v err=%v, want false/nil", ok, err)
	}
}

func TestDeadlineInvalid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Event.Date = "next saturday"
	if _, _, err := cfg.Deadline(); err == nil {
		t.Fatal("invalid date accepted")
	}
}

func TestLoadEmptyPath(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Fatal("empty path accepted")
	}
}
