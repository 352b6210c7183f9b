// Package agent implements the learning side of the blackjack environment:
// state discretization, a tabular epsilon-greedy Q-learner restricted to
// hit/stand, a uniform-random baseline, and a binary snapshot codec for the
// learned value table.
package agent

import "github.com/kurav/Blackjack-RL/engine"

// Agent consumes observations, emits actions, and (for learners) updates
// value estimates from transitions. Observe receives the per-step reward as
// returned by the environment; next is the zero observation when terminal.
type Agent interface {
	Act(obs engine.Observation) engine.Action
	Observe(obs engine.Observation, action engine.Action, reward float64, next engine.Observation, terminal bool)
}
