package sched

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestAfterFires(t *testing.T) {
	s := New()
	fired := make(chan struct{})
	s.After(5*time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("continuation never ran")
	}
}

func TestCancelAllPreventsPending(t *testing.T) {
	s := New()
	var ran atomic.Int32
	s.After(20*time.Millisecond, func() { ran.Add(1) })
	s.CancelAll()

	time.Sleep(60 * time.Millisecond)
	if ran.Load() != 0 {
		t.Fatal("cancelled continuation still ran")
	}
}

func TestCancelAllInvalidatesGeneration(t *testing.T) {
	s := New()
	gen := s.Gen()
	if !s.LiveAt(gen) {
		t.Fatal("current generation should be live")
	}
	s.CancelAll()
	if s.LiveAt(gen) {
		t.Fatal("old generation should be dead after cancel")
	}
}

func TestAfterSurvivesUnrelatedArms(t *testing.T) {
	s := New()
	fired := make(chan struct{})
	s.After(5*time.Millisecond, func() { close(fired) })
	s.After(5*time.Millisecond, func() {})

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("continuation never ran")
	}
}
