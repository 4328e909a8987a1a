package shell

import (
	"sync"

	"wedpage/internal/reveal"
)

// Bounded is implemented by elements that occupy a row range in the page
// layout. The viewport needs it to compute intersection ratios.
type Bounded interface {
	// Bounds returns the element's first row and its height in rows.
	Bounds() (top, height int)
}

// Viewport simulates the browser viewport over the page's row layout: a
// window of `height` rows starting at `offset`, moved by Scroll. It is the
// shell's implementation of the visibility-observation primitive; watches
// created from it feed the reveal observer.
type Viewport struct {
	mu      sync.Mutex
	height  int
	offset  int
	pageEnd int
	watches []*watch
}

// NewViewport creates a viewport of the given height positioned at row 0.
// pageEnd bounds scrolling (the total page height in rows).
func NewViewport(height, pageEnd int) *Viewport {
	if height < 1 {
		height = 1
	}
	if pageEnd < height {
		pageEnd = height
	}
	return &Viewport{height: height, pageEnd: pageEnd}
}

// Offset returns the current scroll position.
func (v *Viewport) Offset() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.offset
}

// AtEnd reports whether the viewport has scrolled to the bottom.
func (v *Viewport) AtEnd() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.offset+v.height >= v.pageEnd
}

// ScrollToTop returns the viewport to row 0 and reports new ratios.
func (v *Viewport) ScrollToTop() {
	v.mu.Lock()
	delta := -v.offset
	v.mu.Unlock()
	v.Scroll(delta)
}

// Resize updates the total page height after a relayout, clamping the
// current offset if the page shrank.
func (v *Viewport) Resize(pageEnd int) {
	v.mu.Lock()
	if pageEnd < v.height {
		pageEnd = v.height
	}
	v.pageEnd = pageEnd
	v.mu.Unlock()
	// Re-clamp and re-report.
	v.Scroll(0)
}

// Scroll moves the viewport by delta rows (negative scrolls up), clamped to
// the page, and reports new intersection ratios to every watch.
func (v *Viewport) Scroll(delta int) {
	v.mu.Lock()
	next := v.offset + delta
	if max := v.pageEnd - v.height; next > max {
		next = max
	}
	if next < 0 {
		next = 0
	}
	v.offset = next
	watches := append([]*watch(nil), v.watches...)
	v.mu.Unlock()

	for _, w := range watches {
		w.recompute()
	}
}

// NewWatcher is a reveal.WatcherFactory bound to this viewport.
func (v *Viewport) NewWatcher(threshold float64, onChange func(reveal.Element, float64)) reveal.Watcher {
	w := &watch{
		vp:        v,
		threshold: threshold,
		onChange:  onChange,
		elements:  make(map[string]watchedElement),
	}

	v.mu.Lock()
	v.watches = append(v.watches, w)
	v.mu.Unlock()
	return w
}

// ratioLocked computes the fraction of [top, top+height) inside the
// viewport window. Caller holds v.mu.
func (v *Viewport) ratioLocked(top, height int) float64 {
	if height <= 0 {
		return 0
	}
	lo := top
	if v.offset > lo {
		lo = v.offset
	}
	hi := top + height
	if end := v.offset + v.height; end < hi {
		hi = end
	}
	if hi <= lo {
		return 0
	}
	return float64(hi-lo) / float64(height)
}

type watchedElement struct {
	el        reveal.Element
	top       int
	height    int
	lastRatio float64
}

// watch is one registered visibility watch. Callbacks fire on Observe
// (initial state) and whenever a Scroll changes an element's ratio.
type watch struct {
	vp        *Viewport
	threshold float64
	onChange  func(reveal.Element, float64)

	mu           sync.Mutex
	elements     map[string]watchedElement
	disconnected bool
}

func (w *watch) Observe(el reveal.Element) {
	b, ok := el.(Bounded)
	if !ok {
		// Elements without layout can never intersect.
		return
	}
	top, height := b.Bounds()

	w.vp.mu.Lock()
	ratio := w.vp.ratioLocked(top, height)
	w.vp.mu.Unlock()

	w.mu.Lock()
	if w.disconnected {
		w.mu.Unlock()
		return
	}
	w.elements[el.Key()] = watchedElement{el: el, top: top, height: height, lastRatio: ratio}
	w.mu.Unlock()

	// Initial report, mirroring host observers that fire once on
	// registration with the current state.
	w.onChange(el, ratio)
}

func (w *watch) Unobserve(el reveal.Element) {
	w.mu.Lock()
	delete(w.elements, el.Key())
	w.mu.Unlock()
}

func (w *watch) Disconnect() {
	w.mu.Lock()
	w.disconnected = true
	w.elements = make(map[string]watchedElement)
	w.mu.Unlock()

	w.vp.mu.Lock()
	for i, other := range w.vp.watches {
		if other == w {
			w.vp.watches = append(w.vp.watches[:i], w.vp.watches[i+1:]...)
			break
		}
	}
	w.vp.mu.Unlock()
}

// recompute refreshes every element's ratio after a scroll and reports
// the ones that changed.
func (w *watch) recompute() {
	w.mu.Lock()
	if w.disconnected {
		w.mu.Unlock()
		return
	}

	type report struct {
		el    reveal.Element
		ratio float64
	}
	var reports []report

	w.vp.mu.Lock()
	for key, we := range w.elements {
		ratio := w.vp.ratioLocked(we.top, we.height)
		if ratio != we.lastRatio {
			we.lastRatio = ratio
			w.elements[key] = we
			reports = append(reports, report{el: we.el, ratio: ratio})
		}
	}
	w.vp.mu.Unlock()
	w.mu.Unlock()

	for _, r := range reports {
		w.onChange(r.el, r.ratio)
	}
}
