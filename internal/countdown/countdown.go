// Package countdown produces once-per-second remaining-time updates against
// a fixed deadline (the wedding moment).
package countdown

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	appLog "wedpage/internal/log"
)

// Remaining is the day/hour/minute/second split of the time left until the
// deadline. All fields are non-negative; once the deadline has passed every
// field is zero.
type Remaining struct {
	Days    int
	Hours   int
	Minutes int
	Seconds int
}

// IsZero reports whether every field is zero.
func (r Remaining) IsZero() bool {
	return r.Days == 0 && r.Hours == 0 && r.Minutes == 0 && r.Seconds == 0
}

// State describes the timer lifecycle.
type State int

const (
	// StateIdle means Start has not been called (or Stop returned the
	// timer to rest).
	StateIdle State = iota
	// StateRunning means the timer is emitting updates every second.
	StateRunning
	// StateExpired means the deadline has passed; the final all-zero
	// update has been emitted and no further ticks will occur.
	StateExpired
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// split converts a non-negative duration into its Remaining fields.
// Sub-second precision is floored away.
func split(d time.Duration) Remaining {
	secs := int64(d / time.Second)
	return Remaining{
		Days:    int(secs / 86400),
		Hours:   int(secs % 86400 / 3600),
		Minutes: int(secs % 3600 / 60),
		Seconds: int(secs % 60),
	}
}

// Timer recomputes Remaining once per second and hands each value to the
// emit callback. The first value is computed immediately on Start, without
// waiting for the first tick.
//
// The remaining value is always derived from (deadline, clock.Now()) at the
// moment of the tick; no stale copy is carried between ticks.
type Timer struct {
	clock clockwork.Clock
	emit  func(Remaining)

	mu       sync.Mutex
	state    State
	deadline time.Time
	running  bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewTimer constructs a Timer. A nil clock falls back to the real wall
// clock; a nil emit callback discards updates.
func NewTimer(clock clockwork.Clock, emit func(Remaining)) *Timer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if emit == nil {
		emit = func(Remaining) {}
	}
	return &Timer{
		clock: clock,
		emit:  emit,
	}
}

// Start begins emitting updates against the given deadline. It returns an
// error if the timer is already running.
func (t *Timer) Start(ctx context.Context, deadline time.Time) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		return errors.New("countdown timer already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	t.deadline = deadline
	t.cancel = cancel
	t.running = true
	t.state = StateRunning

	t.wg.Add(1)
	go t.loop(runCtx)
	return nil
}

// Stop halts updates and releases the underlying ticker. Safe to call when
// the timer was never started, already expired, or already stopped.
func (t *Timer) Stop() {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return
	}
	cancel := t.cancel
	t.running = false
	t.cancel = nil
	if t.state == StateRunning {
		t.state = StateIdle
	}
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	t.wg.Wait()
}

// State returns the current lifecycle state.
func (t *Timer) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Timer) loop(ctx context.Context) {
	defer t.wg.Done()

	// Emit immediately; the page must not show an empty countdown for the
	// first second after attach.
	if t.tick() {
		return
	}

	ticker := t.clock.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if t.tick() {
				return
			}
		}
	}
}

// tick computes and emits the current Remaining. It returns true once the
// deadline has passed, after emitting the final all-zero value; the loop
// then exits permanently.
//
// NOTE: the clamp is strictly delta < 0. A tick landing exactly on the
// deadline still reports the (all-zero) computed split and keeps the timer
// running until the next tick.
func (t *Timer) tick() bool {
	t.mu.Lock()
	deadline := t.deadline
	t.mu.Unlock()

	delta := deadline.Sub(t.clock.Now())
	if delta < 0 {
		t.mu.Lock()
		t.state = StateExpired
		t.mu.Unlock()

		t.emit(Remaining{})
		appLog.Info("countdown expired", "deadline", deadline.Format(time.RFC3339))
		return true
	}

	t.emit(split(delta))
	return false
}
