// Package reveal marks page sections as activated the first time enough of
// them scrolls into view.
package reveal

import (
	"sync"

	appLog "wedpage/internal/log"
)

const (
	// VisibilityThreshold is the fraction of an element's area that must
	// be inside the viewport for it to count as revealed.
	VisibilityThreshold = 0.15

	// RootMarginRows is the viewport inset applied before intersection is
	// computed. Fixed at zero: the viewport is used as-is.
	RootMarginRows = 0
)

// Element is a renderable piece of the page that can be watched for
// visibility and permanently marked once revealed.
type Element interface {
	// Key identifies the element within one target set.
	Key() string
	// MarkRevealed applies the persistent visual marker. Called at most
	// once per element by this package.
	MarkRevealed()
}

// Watcher abstracts how we obtain visibility information. This allows a
// simulated terminal viewport in production and a scripted implementation
// in tests; a browser host would back it with its native observer.
//
// Implementations report a ratio in [0, 1] through the callback supplied at
// construction, once on Observe and again whenever the element's visible
// fraction changes. Disconnect releases everything and stops callbacks.
type Watcher interface {
	Observe(el Element)
	Unobserve(el Element)
	Disconnect()
}

// WatcherFactory constructs a Watcher that reports changes crossing the
// given threshold to onChange.
type WatcherFactory func(threshold float64, onChange func(el Element, ratio float64)) Watcher

// Target pairs an Element with its one-way activation flag.
type Target struct {
	el Element

	mu        sync.Mutex
	activated bool
}

// NewTarget wraps an element in an unactivated target.
func NewTarget(el Element) *Target {
	return &Target{el: el}
}

// Element returns the wrapped element.
func (t *Target) Element() Element { return t.el }

// Activated reports whether the target has been revealed.
func (t *Target) Activated() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.activated
}

// activate flips the flag and applies the visual marker exactly once.
// The transition is one-way: later invisibility never reverts it.
func (t *Target) activate() {
	t.mu.Lock()
	if t.activated {
		t.mu.Unlock()
		return
	}
	t.activated = true
	t.mu.Unlock()

	t.el.MarkRevealed()
}

// Observer owns one visibility watch over a dynamic set of targets.
//
// The target set changes as the page re-renders; SetTargets must be called
// with the full current set each time, and the observer re-subscribes from
// scratch (elements added after the initial attach are observed too).
type Observer struct {
	newWatcher WatcherFactory

	mu      sync.Mutex
	watcher Watcher
	targets map[string]*Target
}

// NewObserver constructs an Observer using the given watcher factory.
func NewObserver(factory WatcherFactory) *Observer {
	return &Observer{newWatcher: factory}
}

// SetTargets replaces the observed target set. Any previous watch is
// disconnected and a fresh one is registered for every target, already
// activated ones included (re-observing them is harmless; activation is
// one-way).
func (o *Observer) SetTargets(targets []*Target) {
	o.mu.Lock()

	if o.watcher != nil {
		o.watcher.Disconnect()
		o.watcher = nil
	}

	byKey := make(map[string]*Target, len(targets))
	for _, t := range targets {
		if t == nil || t.el == nil {
			continue
		}
		byKey[t.el.Key()] = t
	}
	o.targets = byKey

	if o.newWatcher == nil || len(byKey) == 0 {
		o.mu.Unlock()
		return
	}

	w := o.newWatcher(VisibilityThreshold, o.onVisibility)
	o.watcher = w
	o.mu.Unlock()

	// Observe outside the lock: watches report the initial ratio
	// synchronously, and that callback takes o.mu again.
	for _, t := range byKey {
		w.Observe(t.el)
	}

	appLog.Debug("reveal observer subscribed", "targets", len(byKey))
}

// onVisibility is the watch callback. It has no return value; its only
// externally observable effect is activating the matching target.
func (o *Observer) onVisibility(el Element, ratio float64) {
	if el == nil || ratio < VisibilityThreshold {
		return
	}

	o.mu.Lock()
	t := o.targets[el.Key()]
	o.mu.Unlock()

	if t != nil {
		t.activate()
	}
}

// Teardown releases the visibility watch. Safe to call multiple times and
// when SetTargets was never called.
func (o *Observer) Teardown() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.watcher != nil {
		o.watcher.Disconnect()
		o.watcher = nil
	}
	o.targets = nil
}
