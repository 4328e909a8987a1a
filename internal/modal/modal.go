// Package modal holds the RSVP modal state: a visibility flag toggled only
// by explicit user action, and the in-memory guest book the modal submits
// into.
package modal

import "wedpage/internal/signal"

// Modal is the RSVP dialog's visibility state.
type Modal struct {
	visible *signal.Signal[bool]
}

// New constructs a hidden modal.
func New() *Modal {
	return &Modal{visible: signal.New(false)}
}

// Open makes the modal visible.
func (m *Modal) Open() { m.visible.Set(true) }

// Close hides the modal.
func (m *Modal) Close() { m.visible.Set(false) }

// IsOpen reports current visibility.
func (m *Modal) IsOpen() bool { return m.visible.Get() }

// Visible exposes the visibility signal for the rendering shell.
func (m *Modal) Visible() *signal.Signal[bool] { return m.visible }
