package shell

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"wedpage/internal/audio"
	"wedpage/internal/modal"
	"wedpage/internal/model"
	"wedpage/internal/page"
)

// frameBuffer collects rendered frames. Render may run from signal
// callbacks on other goroutines, so access is serialized.
type frameBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (f *frameBuffer) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.b.Write(p)
}

func (f *frameBuffer) String() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.b.String()
}

func (f *frameBuffer) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.b.Reset()
}

func testOccurrences() []model.Occurrence {
	return []model.Occurrence{
		{
			UID:      "ceremony",
			Summary:  "Ceremony",
			Location: "Seongsu Chapel",
			Start:    time.Date(2026, time.October, 24, 13, 0, 0, 0, time.UTC),
			End:      time.Date(2026, time.October, 24, 14, 0, 0, 0, time.UTC),
		},
	}
}

// newMountedShell builds a full shell + controller pair rendering into out,
// with a fake clock two days before the wedding.
func newMountedShell(t *testing.T, out *frameBuffer) (*Shell, *page.Controller) {
	t.Helper()

	fc := clockwork.NewFakeClockAt(time.Date(2026, time.October, 22, 13, 0, 0, 0, time.UTC))

	sh := New(Options{
		Title:         "Dana & Jisoo",
		Venue:         "Seongsu Chapel",
		DeadlineLabel: "Saturday, October 24th 2026",
		Occurrences:   testOccurrences(),
		Out:           out,
		ViewportRows:  8,
		ScrollRows:    4,
	})

	ctrl := page.New(page.Options{
		Deadline:       fc.Now().Add(48 * time.Hour),
		Clock:          fc,
		PlayerFactory:  audio.NewSilentFactory(),
		AudioSource:    "music.mp3",
		AudioVolume:    0.2,
		WatcherFactory: sh.Viewport().NewWatcher,
	})

	sh.Mount(context.Background(), ctrl)
	t.Cleanup(sh.Unmount)
	return sh, ctrl
}

func waitForRender(t *testing.T, out *frameBuffer, sh *Shell, substr string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		sh.Render()
		if strings.Contains(out.String(), substr) {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("rendered output never contained %q; last frame:\n%s", substr, out.String())
}

func TestMountRendersCountdownBanner(t *testing.T) {
	var out frameBuffer
	sh, _ := newMountedShell(t, &out)

	waitForRender(t, &out, sh, "D-2 00:00:00")
	if !strings.Contains(out.String(), "Dana & Jisoo") {
		t.Fatal("banner missing couple names")
	}
}

func TestHeroRevealedBelowFoldHidden(t *testing.T) {
	var out frameBuffer
	sh, _ := newMountedShell(t, &out)

	// The hero starts inside the 8-row viewport; RSVP does not.
	var hero, rsvp *Section
	for _, sec := range sh.sections {
		switch sec.Key() {
		case "hero":
			hero = sec
		case "rsvp":
			rsvp = sec
		}
	}

	if !hero.Revealed() {
		t.Fatal("hero not revealed on mount")
	}
	if rsvp.Revealed() {
		t.Fatal("rsvp section revealed while below the fold")
	}
}

func TestAutoScrollRevealsEverything(t *testing.T) {
	var out frameBuffer
	sh, _ := newMountedShell(t, &out)

	for i := 0; i < 20; i++ {
		sh.AutoScroll()
	}

	for _, sec := range sh.sections {
		if !sec.Revealed() {
			t.Fatalf("section %q never revealed after full scroll", sec.Key())
		}
	}
}

func TestProgrammeSectionListsOccurrences(t *testing.T) {
	var out frameBuffer
	sh, _ := newMountedShell(t, &out)

	for i := 0; i < 20; i++ {
		sh.AutoScroll()
	}
	out.Reset()
	sh.Viewport().ScrollToTop()
	for i := 0; i < 20; i++ {
		sh.AutoScroll()
	}

	if !strings.Contains(out.String(), "Ceremony") || !strings.Contains(out.String(), "Seongsu Chapel") {
		t.Fatalf("programme section missing occurrence; output:\n%s", out.String())
	}
}

func TestSetProgrammeRepublishesTargets(t *testing.T) {
	var out frameBuffer
	sh, _ := newMountedShell(t, &out)

	next := append(testOccurrences(), model.Occurrence{
		UID:      "reception",
		Summary:  "Reception",
		Location: "Garden Hall",
		Start:    time.Date(2026, time.October, 24, 15, 0, 0, 0, time.UTC),
		End:      time.Date(2026, time.October, 24, 18, 0, 0, 0, time.UTC),
	})
	sh.SetProgramme(next)

	for i := 0; i < 30; i++ {
		sh.AutoScroll()
	}
	if !strings.Contains(out.String(), "Reception") {
		t.Fatalf("updated programme not rendered; output:\n%s", out.String())
	}
}

func TestRSVPFlow(t *testing.T) {
	var out frameBuffer
	sh, ctrl := newMountedShell(t, &out)

	sh.OpenRSVP()
	if !ctrl.Modal().IsOpen() {
		t.Fatal("modal not open")
	}

	if err := sh.SubmitRSVP("Mina", 2, modal.RSVPAccepted, ""); err != nil {
		t.Fatalf("SubmitRSVP: %v", err)
	}
	if ctrl.Modal().IsOpen() {
		t.Fatal("modal still open after submit")
	}

	out.Reset()
	sh.Render()
	if !strings.Contains(out.String(), "rsvp: 2 attending") {
		t.Fatalf("footer missing rsvp count; output:\n%s", out.String())
	}
}

func TestMusicToggleReflectedInFooter(t *testing.T) {
	var out frameBuffer
	sh, ctrl := newMountedShell(t, &out)

	if !ctrl.Music().IsPlaying() {
		t.Fatal("music not playing after mount")
	}
	out.Reset()
	sh.Render()
	if !strings.Contains(out.String(), "music: ♪ playing") {
		t.Fatal("footer missing playing state")
	}

	sh.ToggleMusic()
	out.Reset()
	sh.Render()
	if !strings.Contains(out.String(), "music: off") {
		t.Fatal("footer missing muted state")
	}
}

func TestUnmountBeforeMount(t *testing.T) {
	sh := New(Options{})
	sh.Unmount()
}

func TestUnmountedShellIsInert(t *testing.T) {
	var out frameBuffer
	sh := New(Options{Out: &out})

	// None of these may panic before Mount.
	sh.Render()
	sh.AutoScroll()
	sh.ToggleMusic()
	sh.OpenRSVP()
	sh.CloseRSVP()
	sh.SetProgramme(testOccurrences())

	if err := sh.SubmitRSVP("Mina", 1, modal.RSVPAccepted, ""); err == nil {
		t.Fatal("SubmitRSVP before Mount did not fail")
	}
	if out.String() != "" {
		t.Fatalf("unmounted shell painted a frame:\n%s", out.String())
	}
}

func TestConcurrentRelayoutAndRender(t *testing.T) {
	var out frameBuffer
	sh, _ := newMountedShell(t, &out)

	// A programme refresh racing the scheduled repaint must not trip the
	// race detector or corrupt the layout.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			sh.SetProgramme(testOccurrences())
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			sh.AutoScroll()
		}
	}()
	wg.Wait()
}
