package modal

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// RSVPStatus represents the attendance confirmation status.
type RSVPStatus string

const (
	RSVPAccepted RSVPStatus = "accepted"
	RSVPDeclined RSVPStatus = "declined"
)

// Entry is a single RSVP submitted through the modal. Entries live in
// memory only; nothing is written to disk or sent anywhere.
type Entry struct {
	ID        uuid.UUID
	Name      string
	PartySize int
	Status    RSVPStatus
	Note      string
	CreatedAt time.Time
}

// Book collects RSVP entries for the lifetime of the page.
type Book struct {
	mu      sync.Mutex
	entries []Entry
}

// NewBook constructs an empty guest book.
func NewBook() *Book {
	return &Book{}
}

// Add validates and records an RSVP, returning the stored entry.
func (b *Book) Add(name string, partySize int, status RSVPStatus, note string) (Entry, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Entry{}, errors.New("rsvp: name is required")
	}
	if partySize < 1 {
		partySize = 1
	}
	switch status {
	case RSVPAccepted, RSVPDeclined:
	default:
		return Entry{}, errors.New("rsvp: status must be accepted or declined")
	}

	e := Entry{
		ID:        uuid.New(),
		Name:      name,
		PartySize: partySize,
		Status:    status,
		Note:      strings.TrimSpace(note),
		CreatedAt: time.Now(),
	}

	b.mu.Lock()
	b.entries = append(b.entries, e)
	b.mu.Unlock()
	return e, nil
}

// Entries returns a copy of all entries in submission order.
func (b *Book) Entries() []Entry {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Entry, len(b.entries))
	copy(out, b.entries)
	return out
}

// Attending returns the total number of confirmed guests, party sizes
// included.
func (b *Book) Attending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	total := 0
	for _, e := range b.entries {
		if e.Status == RSVPAccepted {
			total += e.PartySize
		}
	}
	return total
}
