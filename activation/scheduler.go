package activation

import (
	"sync"
	"time"
)

// Scheduler owns delayed callbacks keyed by annotation instance id. At most
// one callback is pending per key: scheduling again replaces the previous
// one, Cancel for an unknown key is a no-op.
type Scheduler interface {
	Schedule(key string, delay time.Duration, fn func())
	Cancel(key string)
	CancelAll()
}

// TimerScheduler is the wall-clock Scheduler. Callbacks are funneled through
// the dispatch function so they run on the same goroutine that delivers
// scroll and intersection events; with a nil dispatch callbacks run inline on
// the timer goroutine, which is only safe when nothing else touches the
// machines.
type TimerScheduler struct {
	mu       sync.Mutex
	dispatch func(func())
	timers   map[string]*time.Timer
}

func NewTimerScheduler(dispatch func(func())) *TimerScheduler {
	if dispatch == nil {
		dispatch = func(fn func()) { fn() }
	}
	return &TimerScheduler{
		dispatch: dispatch,
		timers:   make(map[string]*time.Timer),
	}
}

func (s *TimerScheduler) Schedule(key string, delay time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[key]; ok {
		t.Stop()
	}

	var t *time.Timer
	t = time.AfterFunc(delay, func() {
		s.mu.Lock()
		// A replaced or cancelled timer may still fire, make sure only the
		// current one gets through.
		current := s.timers[key] == t
		if current {
			delete(s.timers, key)
		}
		s.mu.Unlock()
		if current {
			s.dispatch(fn)
		}
	})
	s.timers[key] = t
}

func (s *TimerScheduler) Cancel(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[key]; ok {
		t.Stop()
		delete(s.timers, key)
	}
}

func (s *TimerScheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, t := range s.timers {
		t.Stop()
		delete(s.timers, key)
	}
}

// ManualScheduler is a deterministic Scheduler for tests and for the
// simulated activation trace: nothing fires until Fire or FireAll is called.
type ManualScheduler struct {
	pending map[string]manualEntry
	order   []string
}

type manualEntry struct {
	delay time.Duration
	fn    func()
}

func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{pending: make(map[string]manualEntry)}
}

func (s *ManualScheduler) Schedule(key string, delay time.Duration, fn func()) {
	if _, ok := s.pending[key]; !ok {
		s.order = append(s.order, key)
	}
	s.pending[key] = manualEntry{delay: delay, fn: fn}
}

func (s *ManualScheduler) Cancel(key string) {
	delete(s.pending, key)
}

func (s *ManualScheduler) CancelAll() {
	s.pending = make(map[string]manualEntry)
	s.order = s.order[:0]
}

// Pending reports whether a callback is scheduled for key.
func (s *ManualScheduler) Pending(key string) bool {
	_, ok := s.pending[key]
	return ok
}

// Delay returns the delay the pending callback for key was scheduled with,
// zero when nothing is pending.
func (s *ManualScheduler) Delay(key string) time.Duration {
	return s.pending[key].delay
}

// Fire runs and removes the pending callback for key. It reports whether
// anything was pending.
func (s *ManualScheduler) Fire(key string) bool {
	e, ok := s.pending[key]
	if !ok {
		return false
	}
	delete(s.pending, key)
	e.fn()
	return true
}

// FireAll runs all pending callbacks in scheduling order.
func (s *ManualScheduler) FireAll() {
	keys := s.order
	s.order = nil
	for _, key := range keys {
		s.Fire(key)
	}
}
