// Package page coordinates the wedding page lifecycle: the countdown
// timer, the reveal observer, the background-music controller, and the
// RSVP modal. The three concerns are independent; they share nothing but
// attach/detach.
package page

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"wedpage/internal/audio"
	"wedpage/internal/countdown"
	"wedpage/internal/modal"
	"wedpage/internal/reveal"
	"wedpage/internal/signal"

	appLog "wedpage/internal/log"
)

// Options configures a page Controller. Everything the controller owns is
// constructed from explicit handles here; there is no ambient global state.
type Options struct {
	// Deadline is the wedding moment the countdown measures against.
	Deadline time.Time

	// Clock drives the countdown. Nil means the real wall clock.
	Clock clockwork.Clock

	// PlayerFactory constructs the audio session. Nil disables music.
	PlayerFactory audio.PlayerFactory
	// AudioSource is the music file/URL. Empty disables music.
	AudioSource string
	// AudioVolume is the fixed playback volume in [0, 1].
	AudioVolume float64

	// WatcherFactory supplies the visibility-observation primitive used
	// by the reveal observer.
	WatcherFactory reveal.WatcherFactory
}

// Controller multiplexes the page's three independent concerns onto one
// lifecycle. The composition shell invokes Attach once the page mounts,
// ElementsChanged whenever the renderable section set changes, and Detach
// on unmount.
type Controller struct {
	deadline time.Time

	remaining *signal.Signal[countdown.Remaining]
	timer     *countdown.Timer
	observer  *reveal.Observer
	music     *audio.Controller
	rsvpModal *modal.Modal
	rsvps     *modal.Book

	mu       sync.Mutex
	attached bool
}

// New constructs a detached Controller.
func New(opts Options) *Controller {
	remaining := signal.New(countdown.Remaining{})

	return &Controller{
		deadline:  opts.Deadline,
		remaining: remaining,
		timer:     countdown.NewTimer(opts.Clock, remaining.Set),
		observer:  reveal.NewObserver(opts.WatcherFactory),
		music:     audio.NewController(opts.PlayerFactory, opts.AudioSource, opts.AudioVolume),
		rsvpModal: modal.New(),
		rsvps:     modal.NewBook(),
	}
}

// Remaining exposes the countdown signal for the rendering shell.
func (c *Controller) Remaining() *signal.Signal[countdown.Remaining] { return c.remaining }

// CountdownState reports the countdown lifecycle state.
func (c *Controller) CountdownState() countdown.State { return c.timer.State() }

// Music returns the audio controller (for the music toggle control).
func (c *Controller) Music() *audio.Controller { return c.music }

// Modal returns the RSVP modal state.
func (c *Controller) Modal() *modal.Modal { return c.rsvpModal }

// RSVPs returns the in-memory guest book the modal submits into.
func (c *Controller) RSVPs() *modal.Book { return c.rsvps }

// Attach starts the countdown and the music session. The reveal observer
// attaches separately, via ElementsChanged, once the shell knows its
// section set. Attaching twice is logged and ignored.
func (c *Controller) Attach(ctx context.Context) {
	c.mu.Lock()
	if c.attached {
		c.mu.Unlock()
		appLog.Debug("page already attached")
		return
	}
	c.attached = true
	c.mu.Unlock()

	if err := c.timer.Start(ctx, c.deadline); err != nil {
		// Only possible if a previous Detach was skipped; not fatal.
		appLog.Warn("countdown start skipped", "reason", err)
	}
	c.music.Start()

	appLog.Info("page attached", "deadline", c.deadline.Format(time.RFC3339))
}

// ElementsChanged re-subscribes the reveal observer to the current section
// set. The shell calls this after every re-render that adds or removes
// sections, including the initial one.
func (c *Controller) ElementsChanged(targets []*reveal.Target) {
	c.observer.SetTargets(targets)
}

// Detach releases the timer, the visibility watch, and the audio session.
// It is safe to call without a prior Attach, and calling it again after a
// previous Detach is a no-op; teardown never panics regardless of what has
// or has not started.
func (c *Controller) Detach() {
	c.mu.Lock()
	wasAttached := c.attached
	c.attached = false
	c.mu.Unlock()

	c.timer.Stop()
	c.observer.Teardown()
	c.music.Stop()
	c.rsvpModal.Close()

	if wasAttached {
		appLog.Info("page detached")
	}
}
