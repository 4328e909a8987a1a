package shell

import (
	"testing"

	"wedpage/internal/reveal"
)

type ratioRecorder struct {
	byKey map[string][]float64
}

func newRatioRecorder() *ratioRecorder {
	return &ratioRecorder{byKey: make(map[string][]float64)}
}

func (r *ratioRecorder) onChange(el reveal.Element, ratio float64) {
	r.byKey[el.Key()] = append(r.byKey[el.Key()], ratio)
}

func (r *ratioRecorder) last(key string) (float64, bool) {
	rs := r.byKey[key]
	if len(rs) == 0 {
		return 0, false
	}
	return rs[len(rs)-1], true
}

func sectionAt(key string, top, height int) *Section {
	s := NewSection(key, key, nil)
	s.top = top
	s.height = height
	return s
}

func TestRatioComputation(t *testing.T) {
	vp := NewViewport(10, 100)

	cases := []struct {
		name        string
		top, height int
		want        float64
	}{
		{"fully visible", 0, 5, 1.0},
		{"half below fold", 5, 10, 0.5},
		{"entirely below", 10, 5, 0.0},
		{"taller than viewport", 0, 40, 0.25},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := newRatioRecorder()
			w := vp.NewWatcher(0.15, rec.onChange)
			defer w.Disconnect()

			w.Observe(sectionAt(tc.name, tc.top, tc.height))
			got, ok := rec.last(tc.name)
			if !ok {
				t.Fatal("no initial report on Observe")
			}
			if got != tc.want {
				t.Fatalf("ratio = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestScrollReportsChanges(t *testing.T) {
	vp := NewViewport(10, 100)
	rec := newRatioRecorder()
	w := vp.NewWatcher(0.15, rec.onChange)
	defer w.Disconnect()

	below := sectionAt("below", 20, 10)
	w.Observe(below)
	if got, _ := rec.last("below"); got != 0 {
		t.Fatalf("initial ratio = %v, want 0", got)
	}

	vp.Scroll(15) // window [15, 25): rows 20..25 of the section visible
	if got, _ := rec.last("below"); got != 0.5 {
		t.Fatalf("ratio after scroll = %v, want 0.5", got)
	}

	// No movement, no reports.
	n := len(rec.byKey["below"])
	vp.Scroll(0)
	if len(rec.byKey["below"]) != n {
		t.Fatal("unchanged ratio was re-reported")
	}
}

func TestScrollClamping(t *testing.T) {
	vp := NewViewport(10, 30)

	vp.Scroll(-5)
	if vp.Offset() != 0 {
		t.Fatalf("offset = %d after scrolling above top, want 0", vp.Offset())
	}

	vp.Scroll(1000)
	if vp.Offset() != 20 {
		t.Fatalf("offset = %d after over-scroll, want 20", vp.Offset())
	}
	if !vp.AtEnd() {
		t.Fatal("AtEnd() = false at the bottom")
	}

	vp.ScrollToTop()
	if vp.Offset() != 0 {
		t.Fatalf("offset = %d after ScrollToTop, want 0", vp.Offset())
	}
}

func TestDisconnectStopsReports(t *testing.T) {
	vp := NewViewport(10, 100)
	rec := newRatioRecorder()
	w := vp.NewWatcher(0.15, rec.onChange)

	sec := sectionAt("s", 20, 10)
	w.Observe(sec)
	w.Disconnect()

	n := len(rec.byKey["s"])
	vp.Scroll(15)
	if len(rec.byKey["s"]) != n {
		t.Fatal("disconnected watch still reporting")
	}

	// Disconnect again and observe-after-disconnect must be inert.
	w.Disconnect()
	w.Observe(sectionAt("late", 0, 5))
	vp.Scroll(1)
}

func TestViewportDrivesRevealObserver(t *testing.T) {
	vp := NewViewport(10, 100)
	obs := reveal.NewObserver(vp.NewWatcher)
	defer obs.Teardown()

	visible := NewSection("hero", "Hero", []string{"a", "b"})
	hidden := NewSection("rsvp", "RSVP", []string{"c", "d"})
	layout([]*Section{visible, hidden}, 0)
	hidden.top = 50 // push well below the fold

	tVisible := reveal.NewTarget(visible)
	tHidden := reveal.NewTarget(hidden)
	obs.SetTargets([]*reveal.Target{tVisible, tHidden})

	// Initial observation reveals what is already in view.
	if !tVisible.Activated() || !visible.Revealed() {
		t.Fatal("in-view section not revealed on subscribe")
	}
	if tHidden.Activated() {
		t.Fatal("below-fold section revealed prematurely")
	}

	// Scroll until ≥15% of the hidden section is inside the window.
	vp.Scroll(41) // window [41, 51): row 50 visible = 1/4 of height 4
	if !tHidden.Activated() || !hidden.Revealed() {
		t.Fatal("section not revealed after scrolling into view")
	}

	// Scrolling away must not unreveal.
	vp.ScrollToTop()
	if !hidden.Revealed() {
		t.Fatal("reveal reverted after scrolling away")
	}
}
