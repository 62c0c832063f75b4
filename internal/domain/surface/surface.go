package surface

import (
	"sync"
	"time"
)

// Status is a point-in-time view of both surfaces.
type Status struct {
	Busy          bool      `json:"busy"`
	BusySince     time.Time `json:"busy_since,omitempty"`
	SelectorOpen  bool      `json:"selector_open"`
	SelectorOpens int       `json:"selector_opens"`
}

// Spinner is a reference-counted busy indicator. It stays visible until every
// Show has been matched by a Hide.
type Spinner struct {
	mu     sync.Mutex
	depth  int
	since  time.Time
	now    func() time.Time
	notify func()
}

// NewSpinner creates a hidden spinner.
func NewSpinner() *Spinner {
	return &Spinner{now: time.Now}
}

// Show raises the indicator.
func (s *Spinner) Show() {
	s.mu.Lock()
	s.depth++
	first := s.depth == 1
	if first {
		s.since = s.now()
	}
	s.mu.Unlock()
	if first {
		s.changed()
	}
}

// Hide lowers the indicator. Extra calls are ignored.
func (s *Spinner) Hide() {
	s.mu.Lock()
	if s.depth == 0 {
		s.mu.Unlock()
		return
	}
	s.depth--
	last := s.depth == 0
	if last {
		s.since = time.Time{}
	}
	s.mu.Unlock()
	if last {
		s.changed()
	}
}

// Visible reports whether the indicator is shown and since when.
func (s *Spinner) Visible() (bool, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.depth > 0, s.since
}

// OnChange sets a callback run when the indicator appears or disappears.
func (s *Spinner) OnChange(fn func()) {
	s.mu.Lock()
	s.notify = fn
	s.mu.Unlock()
}

func (s *Spinner) changed() {
	s.mu.Lock()
	fn := s.notify
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Selector tracks whether the selection surface is open.
type Selector struct {
	mu     sync.Mutex
	open   bool
	opens  int
	notify func()
}

// NewSelector creates a closed selector.
func NewSelector() *Selector {
	return &Selector{}
}

// Open shows the selection surface.
func (s *Selector) Open() {
	s.mu.Lock()
	s.open = true
	s.opens++
	fn := s.notify
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Close hides the selection surface.
func (s *Selector) Close() {
	s.mu.Lock()
	was := s.open
	s.open = false
	fn := s.notify
	s.mu.Unlock()
	if was && fn != nil {
		fn()
	}
}

// IsOpen reports whether the surface is open and how many times it was opened.
func (s *Selector) IsOpen() (bool, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open, s.opens
}

// OnChange sets a callback run after every Open and every effective Close.
func (s *Selector) OnChange(fn func()) {
	s.mu.Lock()
	s.notify = fn
	s.mu.Unlock()
}

// Snapshot combines both surfaces.
func Snapshot(spinner *Spinner, selector *Selector) Status {
	var st Status
	st.Busy, st.BusySince = spinner.Visible()
	st.SelectorOpen, st.SelectorOpens = selector.IsOpen()
	return st
}
