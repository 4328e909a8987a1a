// Package shell is the composition shell: it owns the page sections,
// simulates a scrolling viewport over them, invokes the controller's
// lifecycle hooks, and renders the live page state to a terminal.
//
// It plays the role a browser and its component framework would play for
// the page controller; the controller itself knows nothing about rendering.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"wedpage/internal/countdown"
	"wedpage/internal/modal"
	"wedpage/internal/model"
	"wedpage/internal/page"
	"wedpage/internal/reveal"
)

// Options configures a Shell.
type Options struct {
	// Title / Venue / DeadlineLabel fill the hero section.
	Title         string
	Venue         string
	DeadlineLabel string

	// Occurrences is the wedding programme shown in its own section.
	Occurrences []model.Occurrence

	// Out receives rendered frames (stdout in the binary).
	Out io.Writer
	// Styled enables ANSI colors and screen clearing.
	Styled bool

	// ViewportRows is the simulated viewport height.
	ViewportRows int
	// ScrollRows is how many rows one AutoScroll step advances.
	ScrollRows int
}

// Shell wires a page.Controller to a terminal.
type Shell struct {
	opts Options

	vp       *Viewport
	sections []*Section

	ctrl *page.Controller

	renderMu sync.Mutex
	cancels  []func()
}

// New builds the section set and the viewport. The caller constructs the
// page controller with this shell's Viewport().NewWatcher as its
// visibility primitive, then calls Mount.
func New(opts Options) *Shell {
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	if opts.ViewportRows <= 0 {
		opts.ViewportRows = 12
	}
	if opts.ScrollRows <= 0 {
		opts.ScrollRows = 4
	}

	s := &Shell{opts: opts}
	s.sections = s.buildSections()
	pageEnd := layout(s.sections, 0)
	s.vp = NewViewport(opts.ViewportRows, pageEnd)
	return s
}

// Viewport exposes the simulated viewport (the visibility primitive).
func (s *Shell) Viewport() *Viewport { return s.vp }

func (s *Shell) buildSections() []*Section {
	hero := NewSection("hero", s.opts.Title, []string{
		s.opts.Venue,
		s.opts.DeadlineLabel,
		"We would love to celebrate with you.",
	})

	story := NewSection("story", "Our story", []string{
		"It started with a borrowed umbrella and a missed bus.",
		"Eight years later, we are still walking home together.",
	})

	programme := NewSection("programme", "Programme", programmeLines(s.opts.Occurrences))

	rsvp := NewSection("rsvp", "RSVP", []string{
		"Press r to open the RSVP form.",
		"Kindly respond before the big day.",
	})

	return []*Section{hero, story, programme, rsvp}
}

// programmeLines renders the occurrence list as a small table.
func programmeLines(occs []model.Occurrence) []string {
	if len(occs) == 0 {
		return []string{"Programme to be announced."}
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"When", "What", "Where"})
	for _, o := range occs {
		when := o.Start.Format("Mon Jan 2 15:04")
		if o.AllDay {
			when = o.Start.Format("Mon Jan 2") + " (all day)"
		}
		t.AppendRow(table.Row{when, o.Summary, o.Location})
	}
	return strings.Split(t.Render(), "\n")
}

// Mount attaches the controller and registers the section set as the
// observer's targets. Signal subscriptions keep the terminal repainting on
// every countdown tick, music toggle, and modal change.
func (s *Shell) Mount(ctx context.Context, ctrl *page.Controller) {
	s.ctrl = ctrl
	s.ctrl.Attach(ctx)
	s.publishTargets()

	s.cancels = append(s.cancels,
		s.ctrl.Remaining().Subscribe(func(countdown.Remaining) { s.Render() }),
		s.ctrl.Music().Playing().Subscribe(func(bool) { s.Render() }),
		s.ctrl.Modal().Visible().Subscribe(func(bool) { s.Render() }),
	)

	s.Render()
}

// publishTargets hands the current section set to the controller. Called
// on mount and whenever the section set changes.
func (s *Shell) publishTargets() {
	if s.ctrl == nil {
		return
	}
	targets := make([]*reveal.Target, 0, len(s.sections))
	for _, sec := range s.sections {
		targets = append(targets, reveal.NewTarget(sec))
	}
	s.ctrl.ElementsChanged(targets)
}

// SetProgramme replaces the programme section body once ICS sources have
// loaded, then re-publishes the target set (the layout changed, so the
// observer must re-subscribe).
func (s *Shell) SetProgramme(occs []model.Occurrence) {
	for _, sec := range s.sections {
		if sec.Key() == "programme" {
			sec.SetLines(programmeLines(occs))
		}
	}
	s.vp.Resize(layout(s.sections, 0))

	s.publishTargets()
	s.Render()
}

// AutoScroll advances the viewport one step (wrapping to the top at the
// end, so an unattended display keeps cycling) and repaints.
func (s *Shell) AutoScroll() {
	if s.vp.AtEnd() {
		s.vp.ScrollToTop()
	} else {
		s.vp.Scroll(s.opts.ScrollRows)
	}
	s.Render()
}

// ToggleMusic flips background-music playback. No-op before Mount.
func (s *Shell) ToggleMusic() {
	if s.ctrl == nil {
		return
	}
	s.ctrl.Music().Toggle()
}

// OpenRSVP / CloseRSVP drive the modal from user input. No-ops before Mount.
func (s *Shell) OpenRSVP() {
	if s.ctrl == nil {
		return
	}
	s.ctrl.Modal().Open()
}

func (s *Shell) CloseRSVP() {
	if s.ctrl == nil {
		return
	}
	s.ctrl.Modal().Close()
}

// SubmitRSVP records an entry and closes the modal on success.
func (s *Shell) SubmitRSVP(name string, party int, status modal.RSVPStatus, note string) error {
	if s.ctrl == nil {
		return errors.New("shell not mounted")
	}
	if _, err := s.ctrl.RSVPs().Add(name, party, status, note); err != nil {
		return err
	}
	s.ctrl.Modal().Close()
	return nil
}

// Unmount cancels subscriptions and detaches the controller. Idempotent
// and safe before Mount.
func (s *Shell) Unmount() {
	for _, cancel := range s.cancels {
		cancel()
	}
	s.cancels = nil
	if s.ctrl != nil {
		s.ctrl.Detach()
	}
}

// Render paints one frame: countdown banner, the viewport window over the
// sections, and the footer (music, RSVP count, modal overlay).
func (s *Shell) Render() {
	if s.ctrl == nil {
		// Nothing to paint before Mount.
		return
	}

	s.renderMu.Lock()
	defer s.renderMu.Unlock()

	var b strings.Builder

	if s.opts.Styled {
		// Clear screen and home the cursor between frames.
		b.WriteString("\033[2J\033[H")
	}

	b.WriteString(s.banner())
	b.WriteString("\n\n")

	offset := s.vp.Offset()
	end := offset + s.opts.ViewportRows
	for _, sec := range s.sections {
		top, height := sec.Bounds()
		if top+height <= offset || top >= end {
			continue
		}
		b.WriteString(s.renderSection(sec))
	}

	b.WriteString("\n")
	b.WriteString(s.footer())
	b.WriteString("\n")

	if s.ctrl.Modal().IsOpen() {
		b.WriteString(s.modalOverlay())
	}

	fmt.Fprint(s.opts.Out, b.String())
}

func (s *Shell) banner() string {
	r := s.ctrl.Remaining().Get()

	var line string
	if s.ctrl.CountdownState() == countdown.StateExpired {
		line = fmt.Sprintf("%s — today is the day!", s.opts.Title)
	} else {
		line = fmt.Sprintf("%s — D-%d %02d:%02d:%02d",
			s.opts.Title, r.Days, r.Hours, r.Minutes, r.Seconds)
	}

	if s.opts.Styled {
		return text.Colors{text.FgHiMagenta, text.Bold}.Sprint(line)
	}
	return line
}

func (s *Shell) renderSection(sec *Section) string {
	var b strings.Builder

	title := sec.Title()
	if s.opts.Styled {
		title = text.Colors{text.FgHiCyan, text.Bold}.Sprint(title)
	}
	b.WriteString(title)
	b.WriteString("\n")

	if !sec.Revealed() {
		// Not yet scrolled into view far enough; placeholder only.
		b.WriteString("  · · ·\n\n")
		return b.String()
	}

	for _, line := range sec.Lines() {
		b.WriteString("  ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return b.String()
}

func (s *Shell) footer() string {
	music := "music: off"
	if s.ctrl.Music().IsPlaying() {
		music = "music: ♪ playing"
	}

	attending := s.ctrl.RSVPs().Attending()
	line := fmt.Sprintf("[%s]  [rsvp: %d attending]  [row %d]", music, attending, s.vp.Offset())
	if s.opts.Styled {
		return text.FgHiBlack.Sprint(line)
	}
	return line
}

func (s *Shell) modalOverlay() string {
	t := table.NewWriter()
	t.SetStyle(table.StyleDouble)
	t.AppendHeader(table.Row{"RSVP"})
	t.AppendRow(table.Row{"name, party size, accepted/declined"})
	t.AppendRow(table.Row{"(esc closes)"})
	return t.Render() + "\n"
}
