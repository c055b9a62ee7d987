package sessions

import (
	"testing"
	"time"
)

func TestCreateAndGet(t *testing.T) {
	s := NewStore()
	sess := &Session{ID: "s1", CreatedAt: time.Now(), Status: "created"}
	if err := s.Create(sess); err != nil {
		t.Fatalf("create: %v", err)
	}
	got := s.Get("s1")
	if got == nil || got.Status != "created" {
		t.Fatalf("get returned %+v", got)
	}
	if s.Get("missing") != nil {
		t.Fatalf("expected nil for unknown id")
	}
}

func TestCreateDuplicateFails(t *testing.T) {
	s := NewStore()
	sess := &Session{ID: "s1", CreatedAt: time.Now(), Status: "created"}
	if err := s.Create(sess); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.Create(&Session{ID: "s1"}); err != ErrExists {
		t.Fatalf("expected ErrExists, got %v", err)
	}
}

func TestSetStatus(t *testing.T) {
	s := NewStore()
	if err := s.Create(&Session{ID: "s1", Status: "created"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	s.SetStatus("s1", "connected")
	if got := s.Get("s1").Status; got != "connected" {
		t.Fatalf("status = %q, want connected", got)
	}
	s.SetStatus("missing", "connected") // no-op, must not panic
}

func TestListIDs(t *testing.T) {
	s := NewStore()
	for _, id := range []string{"a", "b", "c"} {
		if err := s.Create(&Session{ID: id}); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}
	if got := len(s.ListIDs()); got != 3 {
		t.Fatalf("ListIDs len = %d, want 3", got)
	}
}
