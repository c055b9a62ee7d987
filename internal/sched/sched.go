package sched

import (
	"sync"
	"time"
)

// Scheduler runs delayed continuations tied to a session lifetime.
// CancelAll invalidates every continuation armed before it; a timer that
// fires after cancellation is a no-op. Non-timer async work can take the
// current generation with Gen and check LiveAt on re-entry.
type Scheduler struct {
	mu     sync.Mutex
	gen    uint64
	timers []*time.Timer
}

func New() *Scheduler { return &Scheduler{} }

// After schedules fn to run once after d, unless CancelAll runs first.
func (s *Scheduler) After(d time.Duration, fn func()) {
	s.mu.Lock()
	gen := s.gen
	t := time.AfterFunc(d, func() {
		if s.LiveAt(gen) {
			fn()
		}
	})
	s.timers = append(s.timers, t)
	s.mu.Unlock()
}

// CancelAll stops pending timers and invalidates outstanding generations.
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	s.gen++
	for _, t := range s.timers {
		t.Stop()
	}
	s.timers = nil
	s.mu.Unlock()
}

// Gen returns the current generation.
func (s *Scheduler) Gen() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// LiveAt reports whether work armed at gen should still run.
func (s *Scheduler) LiveAt(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen == gen
}
