// Package audio owns the page's single looping background-music session.
//
// Playback start can be refused by the host environment (no player binary,
// no output device, autoplay policy in a browser host). That is an expected
// condition, not an error: the controller logs a warning, records that
// nothing is playing, and the page carries on without music.
package audio

import (
	"errors"
	"sync"

	"wedpage/internal/signal"

	appLog "wedpage/internal/log"
)

// ErrPlaybackRejected is returned by Player.Play when the host refuses to
// start playback. Controllers treat it (and any other Play error) as
// non-fatal.
var ErrPlaybackRejected = errors.New("audio: playback rejected by host")

// Player abstracts how we actually produce sound. This allows a silent
// implementation for tests and headless runs and an external-binary
// implementation for real use.
type Player interface {
	// Load prepares the given source for playback.
	Load(source string) error
	// SetLoop configures whether playback restarts at the end.
	SetLoop(loop bool)
	// SetVolume sets playback volume in [0, 1].
	SetVolume(v float64)
	// Play starts or resumes playback. May return ErrPlaybackRejected.
	Play() error
	// Pause suspends playback, keeping the session loaded.
	Pause()
	// Close releases the session. Idempotent.
	Close()
}

// PlayerFactory constructs a fresh Player. Construction itself may fail
// (missing binary, unusable output device); the controller degrades to
// "music unavailable" in that case.
type PlayerFactory func() (Player, error)

// Controller owns at most one audio session at a time and exposes its
// playing flag as a signal for the rendering shell.
type Controller struct {
	newPlayer PlayerFactory
	source    string
	volume    float64

	mu      sync.Mutex
	player  Player
	playing *signal.Signal[bool]
}

// NewController constructs a Controller for the given source. Volume is
// fixed configuration; it is applied once when the session is created and
// never mutated afterwards.
func NewController(factory PlayerFactory, source string, volume float64) *Controller {
	return &Controller{
		newPlayer: factory,
		source:    source,
		volume:    volume,
		playing:   signal.New(false),
	}
}

// Playing exposes the isPlaying flag for subscription by the shell.
func (c *Controller) Playing() *signal.Signal[bool] { return c.playing }

// IsPlaying reports whether music is currently playing.
func (c *Controller) IsPlaying() bool { return c.playing.Get() }

// Start creates the looping session and attempts playback immediately.
//
// Every failure path is absorbed here: a factory or Load error means the
// page simply has no music, and a Play rejection leaves a loaded session
// behind so a later Toggle can retry at the user's request. Start never
// returns an error and never panics.
func (c *Controller) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.player != nil {
		// Already started; at most one session may exist.
		return
	}
	if c.newPlayer == nil || c.source == "" {
		appLog.Warn("music unavailable", "reason", "no player configured")
		return
	}

	p, err := c.newPlayer()
	if err != nil {
		appLog.Warn("music unavailable", "reason", err)
		return
	}

	if err := p.Load(c.source); err != nil {
		appLog.Warn("music unavailable", "reason", err, "source", c.source)
		p.Close()
		return
	}
	p.SetLoop(true)
	p.SetVolume(c.volume)
	c.player = p

	if err := p.Play(); err != nil {
		// Expected under host autoplay policy; user can Toggle later.
		appLog.Warn("playback start rejected", "reason", err, "source", c.source)
		c.playing.Set(false)
		return
	}
	c.playing.Set(true)
}

// Toggle pauses playback if playing, otherwise attempts to play. A rejected
// play attempt leaves the flag false; nothing is propagated.
func (c *Controller) Toggle() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.player == nil {
		appLog.Debug("toggle ignored, no audio session")
		return
	}

	if c.playing.Get() {
		c.player.Pause()
		c.playing.Set(false)
		return
	}

	if err := c.player.Play(); err != nil {
		appLog.Warn("playback start rejected", "reason", err)
		c.playing.Set(false)
		return
	}
	c.playing.Set(true)
}

// Stop pauses playback and releases the session handle. Safe to call when
// Start never ran or Stop already ran.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.player == nil {
		return
	}
	c.player.Pause()
	c.player.Close()
	c.player = nil
	c.playing.Set(false)
}
