package assistantws

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	ws "nhooyr.io/websocket"

	"billbuddy/pos/internal/assistant"
	"billbuddy/pos/internal/auth"
	"billbuddy/pos/internal/config"
	"billbuddy/pos/internal/events"
	"billbuddy/pos/internal/sessions"
)

// RunnerFactory builds the assistant runner for a freshly connected
// session, wired to that session's websocket client.
type RunnerFactory func(sessionID string, client *Client) *assistant.Runner

type Server struct {
	cfg      config.Config
	sessions *sessions.Store
	events   *events.Store
	reg      *Registry
	factory  RunnerFactory

	mu      sync.Mutex
	runners map[string]*assistant.Runner
}

func NewServer(cfg config.Config, st *sessions.Store, ev *events.Store, reg *Registry, factory RunnerFactory) *Server {
	return &Server{
		cfg:      cfg,
		sessions: st,
		events:   ev,
		reg:      reg,
		factory:  factory,
		runners:  make(map[string]*assistant.Runner),
	}
}

// CloseSession tears down the runner for a session, if any. Used by both
// the disconnect path and the explicit close endpoint.
func (s *Server) CloseSession(sessionID string) {
	s.mu.Lock()
	r := s.runners[sessionID]
	delete(s.runners, sessionID)
	s.mu.Unlock()
	if r != nil {
		r.Close()
	}
	s.sessions.SetStatus(sessionID, "closed")
}

func (s *Server) runnerFor(sessionID string) *assistant.Runner {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.runners[sessionID]
	if r == nil {
		r = s.factory(sessionID, NewClient(s.reg, sessionID))
		s.runners[sessionID] = r
	}
	return r
}

func (s *Server) HandleAssistantWS(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sessionID := q.Get("session_id")
	if sessionID == "" {
		http.Error(w, "missing session_id", http.StatusBadRequest)
		return
	}
	if s.sessions.Get(sessionID) == nil {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}
	// Bearer token; browsers can't set the header on a websocket, so the
	// query parameter is accepted as a fallback.
	token := q.Get("token")
	if authz := r.Header.Get("Authorization"); strings.HasPrefix(authz, "Bearer ") {
		token = strings.TrimPrefix(authz, "Bearer ")
	}
	if s.cfg.Session.TokenSecret == "" {
		http.Error(w, "assistant auth not configured", http.StatusUnauthorized)
		return
	}
	if _, _, err := auth.ValidateSessionToken(s.cfg.Session.TokenSecret, token, sessionID, time.Now(), s.cfg.Session.TokenSkewSecs); err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	c, err := ws.Accept(w, r, nil)
	if err != nil {
		log.Printf("[ws] accept: %v", err)
		return
	}
	if s.reg.Replace(sessionID, c) {
		s.events.Append(sessionID, "client_replaced", nil)
	}
	s.events.Append(sessionID, "client_connected", nil)
	s.sessions.SetStatus(sessionID, "connected")

	runner := s.runnerFor(sessionID)

	ctx := r.Context()
	for {
		typ, data, err := c.Read(ctx)
		if err != nil {
			break
		}
		if typ != ws.MessageText && typ != ws.MessageBinary {
			continue
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			s.events.Append(sessionID, "client_msg_invalid", map[string]any{"error": err.Error()})
			continue
		}
		s.dispatch(sessionID, runner, msg)
	}
	_ = c.Close(ws.StatusNormalClosure, "done")
	s.reg.Remove(sessionID)
	s.events.Append(sessionID, "client_disconnected", nil)
	s.CloseSession(sessionID)
}

func (s *Server) dispatch(sessionID string, runner *assistant.Runner, msg Message) {
	switch msg.Type {
	case "transcript_final":
		runner.HandleFinalTranscript(msg.Text)
	case "transcript_interim":
		runner.HandleInterimTranscript(msg.Text)
	case "start_sale":
		// explicit start from the UI, no trigger phrase needed
		runner.StartSale()
	case "speech_unavailable":
		// surfaced once; the assistant cannot run in voice mode here
		s.events.Append(sessionID, "speech_unavailable", nil)
	case "client_closed":
		s.CloseSession(sessionID)
	default:
		s.events.Append(sessionID, "client_msg_unknown", map[string]any{"type": msg.Type})
	}
}
