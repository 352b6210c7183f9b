// Package server exposes the round engine over HTTP: sessions are created
// and acted on via a JSON API, and every state change is streamed to
// WebSocket subscribers. A loaded value table, when available, annotates
// each observation with the learner's greedy advice.
package server

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/kurav/Blackjack-RL/engine"
	"github.com/kurav/Blackjack-RL/engine/agent"
)

// Server hosts play sessions. Each session owns its own engine; the server
// only guards the registry.
type Server struct {
	log     *logrus.Logger
	rules   engine.Rules
	advisor *agent.QLearner // optional, nil when no table is loaded

	mu       sync.Mutex
	sessions map[uuid.UUID]*session
}

// New creates a server. rules configures the table for standard sessions;
// the reverse variant is selected per game. advisor may be nil.
func New(log *logrus.Logger, rules engine.Rules, advisor *agent.QLearner) *Server {
	return &Server{
		log:      log,
		rules:    rules,
		advisor:  advisor,
		sessions: make(map[uuid.UUID]*session),
	}
}

// Handler returns the chi router for the API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/api/health", s.handleHealth)
	r.Post("/api/games", s.handleCreateGame)
	r.Get("/api/games/{id}", s.handleGetGame)
	r.Post("/api/games/{id}/action", s.handleAction)
	r.Post("/api/games/{id}/reset", s.handleReset)
	r.Get("/api/games/{id}/ws", s.handleWebSocket)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

type createGameRequest struct {
	Variant string  `json:"variant"` // "standard" (default) or "reverse"
	Seed    *uint64 `json:"seed,omitempty"`
}

type createGameResponse struct {
	ID    uuid.UUID  `json:"id"`
	State *GameState `json:"state"`
}

func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if r.Body != nil {
		// An empty body means a default standard game.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	rules := s.rules
	switch req.Variant {
	case "", "standard":
		rules.DealerPlaysFirst = false
	case "reverse":
		rules.DealerPlaysFirst = true
	default:
		writeError(w, http.StatusBadRequest, "unknown variant %q", req.Variant)
		return
	}

	seed := rand.Uint64()
	if req.Seed != nil {
		seed = *req.Seed
	}

	sess := newSession(rules, seed)
	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{
		"game":    sess.id,
		"variant": rules.Variant(),
	}).Info("game created")

	sess.mu.Lock()
	state := sess.state(s.advisor)
	sess.mu.Unlock()
	writeJSON(w, http.StatusCreated, createGameResponse{ID: sess.id, State: state})
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	sess.mu.Lock()
	state := sess.state(s.advisor)
	sess.mu.Unlock()
	writeJSON(w, http.StatusOK, state)
}

type actionRequest struct {
	Action string `json:"action"`
}

type actionResponse struct {
	State    *GameState `json:"state"`
	Reward   float64    `json:"reward"`
	Terminal bool       `json:"terminal"`
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}

	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	action, ok := engine.ParseAction(req.Action)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown action %q", req.Action)
		return
	}

	sess.mu.Lock()
	if sess.terminal {
		sess.mu.Unlock()
		writeError(w, http.StatusConflict, "round is already settled; reset the game")
		return
	}
	obs, reward, done, err := sess.round.Step(action)
	if err != nil {
		sess.mu.Unlock()
		// Illegal double/split per the engine's fault path.
		writeError(w, http.StatusConflict, "%s", err.Error())
		return
	}
	sess.lastObs = obs
	sess.totalReward += reward
	sess.terminal = done
	state := sess.state(s.advisor)
	sess.mu.Unlock()

	eventType := EventActionTaken
	if done {
		eventType = EventRoundSettled
	}
	s.publish(r, sess, Event{
		Type:     eventType,
		GameID:   sess.id,
		Action:   action.String(),
		State:    state,
		Reward:   reward,
		Terminal: done,
		Outcomes: state.Outcomes,
	})

	writeJSON(w, http.StatusOK, actionResponse{State: state, Reward: reward, Terminal: done})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}

	sess.mu.Lock()
	sess.lastObs = sess.round.Reset()
	sess.totalReward = 0
	sess.terminal = false
	state := sess.state(s.advisor)
	sess.mu.Unlock()

	s.publish(r, sess, Event{Type: EventRoundStarted, GameID: sess.id, State: state})
	writeJSON(w, http.StatusOK, state)
}

// handleWebSocket subscribes the caller to session events. The connection
// is read-drained so pings and client closes are noticed.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}

	c, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("websocket accept failed")
		return
	}
	sess.subscribe(c)
	defer func() {
		sess.unsubscribe(c)
		_ = c.CloseNow()
	}()

	ctx := r.Context()
	for {
		if _, _, err := c.Read(ctx); err != nil {
			return
		}
	}
}

// publish serializes an event and fans it out to the session's
// subscribers.
func (s *Server) publish(r *http.Request, sess *session, ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		s.log.WithError(err).Error("marshal event")
		return
	}
	sess.broadcast(r.Context(), payload)
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*session, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid game id")
		return nil, false
	}
	s.mu.Lock()
	sess, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "game not found")
		return nil, false
	}
	return sess, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, format string, args ...any) {
	writeJSON(w, status, map[string]string{"error": fmt.Sprintf(format, args...)})
}
