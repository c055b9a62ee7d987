package events

import (
	"sync"
	"time"

	"billbuddy/pos/internal/types"
)

// Store keeps a per-session event log for voice-session debugging: every
// transcript, transition, command, and notice lands here.
type Store struct {
	mu     sync.RWMutex
	bySess map[string][]types.Event
}

func NewStore() *Store {
	return &Store{bySess: make(map[string][]types.Event)}
}

func (s *Store) Append(sessionID, typ string, payload map[string]any) types.Event {
	evt := types.Event{Type: typ, Ts: time.Now().UTC(), Payload: payload}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bySess[sessionID] = append(s.bySess[sessionID], evt)
	// Cap total events per session to avoid unbounded growth
	const maxEvents = 200
	if l := len(s.bySess[sessionID]); l > maxEvents {
		keep := maxEvents - 1
		dropped := l - keep
		s.bySess[sessionID] = append([]types.Event(nil), s.bySess[sessionID][l-keep:]...)
		warn := types.Event{Type: "events_truncated", Ts: time.Now().UTC(), Payload: map[string]any{"session_id": sessionID, "dropped": dropped, "kept": keep}}
		s.bySess[sessionID] = append(s.bySess[sessionID], warn)
	}
	return evt
}

func (s *Store) List(sessionID string) []types.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src := s.bySess[sessionID]
	out := make([]types.Event, len(src))
	copy(out, src)
	return out
}
