package agent

import (
	"math/rand/v2"

	"github.com/kurav/Blackjack-RL/engine"
)

// NumLearnerActions is the size of the learner's action space. Double and
// split are deliberately outside the learner's repertoire: restricting the
// table to hit/stand keeps the discretized space small, and the classic
// (total, dealer, ace) key cannot represent the two-card context those
// actions depend on.
const NumLearnerActions = 2

// learnerActions fixes the action order. Greedy ties resolve to the earlier
// entry, so hit wins an exact tie.
var learnerActions = [NumLearnerActions]engine.Action{engine.ActionHit, engine.ActionStand}

// learnerActionIndex maps an action into the table row, or -1 for actions
// outside the learner's space.
func learnerActionIndex(a engine.Action) int {
	switch a {
	case engine.ActionHit:
		return 0
	case engine.ActionStand:
		return 1
	}
	return -1
}

// QLearner is a tabular one-step Q-learner over discretized blackjack
// states. It is not safe for concurrent use; run one learner per worker and
// merge tables explicitly if training in parallel.
type QLearner struct {
	Alpha   float64 // learning rate
	Gamma   float64 // discount
	Epsilon float64 // exploration probability

	table map[StateKey]*[NumLearnerActions]float64
	rng   *rand.Rand
}

// NewQLearner creates a learner with an empty table and an owned random
// source, so runs are reproducible per seed.
func NewQLearner(alpha, gamma, epsilon float64, seed uint64) *QLearner {
	return &QLearner{
		Alpha:   alpha,
		Gamma:   gamma,
		Epsilon: epsilon,
		table:   make(map[StateKey]*[NumLearnerActions]float64),
		rng:     rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// row returns the action-value row for key, inserting a zeroed row on first
// sight. Unseen states therefore materialize lazily with 0.0 estimates.
func (q *QLearner) row(key StateKey) *[NumLearnerActions]float64 {
	if r, ok := q.table[key]; ok {
		return r
	}
	r := &[NumLearnerActions]float64{}
	q.table[key] = r
	return r
}

// greedy returns the learner action with the highest estimate for key.
// Exact ties go to hit (index 0, first in action order).
func (q *QLearner) greedy(key StateKey) engine.Action {
	r := q.row(key)
	best := 0
	for i := 1; i < NumLearnerActions; i++ {
		if r[i] > r[best] {
			best = i
		}
	}
	return learnerActions[best]
}

// Act picks epsilon-greedily between hit and stand for the discretized
// current state.
func (q *QLearner) Act(obs engine.Observation) engine.Action {
	if q.rng.Float64() < q.Epsilon {
		return learnerActions[q.rng.IntN(NumLearnerActions)]
	}
	return q.greedy(KeyFor(obs))
}

// Greedy returns the best action for key without touching the table or the
// random source: unseen keys read as zero estimates and exact ties go to
// hit, matching Act with epsilon 0. Because it never materializes a row,
// concurrent callers are safe on a table that is no longer being trained,
// so a loaded table can advise many sessions at once.
func (q *QLearner) Greedy(key StateKey) engine.Action {
	best := 0
	if r, ok := q.table[key]; ok {
		for i := 1; i < NumLearnerActions; i++ {
			if r[i] > r[best] {
				best = i
			}
		}
	}
	return learnerActions[best]
}

// Observe applies the one-step bootstrapped update:
//
//	target = reward                                   (terminal)
//	target = reward + gamma * max_a' Q(next, a')      (otherwise)
//	Q(s,a) += alpha * (target - Q(s,a))
//
// Transitions for actions outside the learner's space are ignored.
func (q *QLearner) Observe(obs engine.Observation, action engine.Action, reward float64, next engine.Observation, terminal bool) {
	idx := learnerActionIndex(action)
	if idx < 0 {
		return
	}

	target := reward
	if !terminal {
		nr := q.row(KeyFor(next))
		best := nr[0]
		for i := 1; i < NumLearnerActions; i++ {
			if nr[i] > best {
				best = nr[i]
			}
		}
		target = reward + q.Gamma*best
	}

	r := q.row(KeyFor(obs))
	r[idx] += q.Alpha * (target - r[idx])
}

// Estimate returns the current value estimate for a state/action pair
// without materializing the row.
func (q *QLearner) Estimate(key StateKey, action engine.Action) float64 {
	idx := learnerActionIndex(action)
	if idx < 0 {
		return 0
	}
	if r, ok := q.table[key]; ok {
		return r[idx]
	}
	return 0
}

// States returns the number of state keys visited so far.
func (q *QLearner) States() int { return len(q.table) }
