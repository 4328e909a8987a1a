package shell

import "sync"

// Section is one renderable block of the page (hero, story, programme,
// RSVP). It is the shell's reveal.Element: until revealed it renders as a
// placeholder, and MarkRevealed permanently switches it to its content.
type Section struct {
	key   string
	title string

	mu       sync.Mutex
	lines    []string
	revealed bool
	// Layout in page rows, reassigned by the shell on every relayout.
	top    int
	height int
}

// NewSection creates an unrevealed section.
func NewSection(key, title string, lines []string) *Section {
	return &Section{
		key:   key,
		title: title,
		lines: lines,
		// +2 rows for the title and the trailing blank line.
		height: len(lines) + 2,
	}
}

// Key implements reveal.Element.
func (s *Section) Key() string { return s.key }

// MarkRevealed implements reveal.Element: the persistent visual marker.
// One-way; there is no way to unmark.
func (s *Section) MarkRevealed() {
	s.mu.Lock()
	s.revealed = true
	s.mu.Unlock()
}

// Revealed reports whether the section has been revealed.
func (s *Section) Revealed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revealed
}

// Bounds implements Bounded.
func (s *Section) Bounds() (top, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.top, s.height
}

// Title returns the section heading.
func (s *Section) Title() string { return s.title }

// Lines returns the section body.
func (s *Section) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lines
}

// SetLines replaces the section body (e.g. the programme table once ICS
// sources have loaded). Layout height is not recomputed; the shell assigns
// layout when it (re)builds the target set.
func (s *Section) SetLines(lines []string) {
	s.mu.Lock()
	s.lines = lines
	s.mu.Unlock()
}

// layout places sections one after another starting at the given row,
// returning the total page height.
func layout(sections []*Section, startRow int) int {
	row := startRow
	for _, s := range sections {
		s.mu.Lock()
		s.top = row
		s.height = len(s.lines) + 2
		row += s.height
		s.mu.Unlock()
	}
	return row
}
