package server

import (
	"context"
	"sync"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/kurav/Blackjack-RL/engine"
	"github.com/kurav/Blackjack-RL/engine/agent"
)

// EventType labels the round events streamed to WebSocket subscribers.
type EventType string

const (
	EventRoundStarted EventType = "round_started"
	EventActionTaken  EventType = "action_taken"
	EventRoundSettled EventType = "round_settled"
)

// Event is the JSON payload broadcast after every state change.
type Event struct {
	Type     EventType  `json:"type"`
	GameID   uuid.UUID  `json:"game_id"`
	Action   string     `json:"action,omitempty"`
	State    *GameState `json:"state"`
	Reward   float64    `json:"reward"`
	Terminal bool       `json:"terminal"`
	Outcomes []string   `json:"outcomes,omitempty"`
}

// GameState is the externally visible view of a session, shaped from the
// engine observation plus settlement data once terminal.
type GameState struct {
	Variant     string        `json:"variant"`
	Player      []engine.Rank `json:"player,omitempty"`
	DealerUp    engine.Rank   `json:"dealer_up,omitempty"`
	DealerCards []engine.Rank `json:"dealer_cards,omitempty"`
	DealerValue int           `json:"dealer_value,omitempty"`
	UsableAce   bool          `json:"usable_ace"`
	CanDouble   bool          `json:"can_double"`
	CanSplit    bool          `json:"can_split"`
	TotalReward float64       `json:"total_reward"`
	Terminal    bool          `json:"terminal"`
	Outcomes    []string      `json:"outcomes,omitempty"`
	Advice      string        `json:"advice,omitempty"`
}

// session owns one round engine and its subscribers. All access goes
// through mu: the engine itself is single-owner state.
type session struct {
	mu sync.Mutex

	id          uuid.UUID
	round       *engine.Round
	lastObs     engine.Observation
	totalReward float64
	terminal    bool

	subscribers map[*websocket.Conn]struct{}
}

func newSession(rules engine.Rules, seed uint64) *session {
	s := &session{
		id:          uuid.New(),
		round:       engine.NewRound(rules, seed),
		subscribers: make(map[*websocket.Conn]struct{}),
	}
	s.lastObs = s.round.Reset()
	return s
}

// state builds the public view. Callers must hold mu.
func (s *session) state(advisor *agent.QLearner) *GameState {
	gs := &GameState{
		Variant:     s.round.Rules().Variant(),
		TotalReward: s.totalReward,
		Terminal:    s.terminal,
	}
	if s.terminal {
		gs.Outcomes = outcomeStrings(s.round.Outcomes())
		gs.DealerCards = s.round.DealerHand()
		gs.DealerValue = s.round.DealerValue()
		return gs
	}

	obs := s.lastObs
	gs.Player = obs.Player
	gs.UsableAce = obs.UsableAce
	gs.CanDouble = obs.CanDouble
	gs.CanSplit = obs.CanSplit
	if obs.DealerResolved {
		gs.DealerCards = obs.DealerCards
		gs.DealerValue = obs.DealerValue
	} else {
		gs.DealerUp = obs.DealerUp
	}
	if advisor != nil {
		// Greedy is the read-only path: the advisor is shared across every
		// session, and Act would mutate its table and random source.
		gs.Advice = advisor.Greedy(agent.KeyFor(obs)).String()
	}
	return gs
}

// subscribe registers a WebSocket connection for event broadcast.
func (s *session) subscribe(c *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers[c] = struct{}{}
}

// unsubscribe removes a connection.
func (s *session) unsubscribe(c *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subscribers, c)
}

// broadcast sends an event to every subscriber. Dead connections are
// dropped silently; the reader goroutine handles their close.
func (s *session) broadcast(ctx context.Context, payload []byte) {
	s.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(s.subscribers))
	for c := range s.subscribers {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		if err := c.Write(ctx, websocket.MessageText, payload); err != nil {
			s.unsubscribe(c)
		}
	}
}

func outcomeStrings(outcomes []engine.Outcome) []string {
	out := make([]string, len(outcomes))
	for i, o := range outcomes {
		out[i] = o.String()
	}
	return out
}
