package agent

import (
	"math/rand/v2"

	"github.com/kurav/Blackjack-RL/engine"
)

// RandomAgent picks uniformly among the currently legal actions. It keeps
// the full four-action repertoire (unlike the learner), so it doubles as a
// generator of diverse trajectories. Observe is a no-op.
type RandomAgent struct {
	rng *rand.Rand
}

// NewRandomAgent creates a random agent with an owned, seedable source.
func NewRandomAgent(seed uint64) *RandomAgent {
	return &RandomAgent{rng: rand.New(rand.NewPCG(seed, seed^0xda3e39cb94b95bdb))}
}

// Act returns a uniform choice among hit, stand, and — when the observation
// reports them legal — double and split.
func (a *RandomAgent) Act(obs engine.Observation) engine.Action {
	legal := []engine.Action{engine.ActionHit, engine.ActionStand}
	if obs.CanDouble {
		legal = append(legal, engine.ActionDouble)
	}
	if obs.CanSplit {
		legal = append(legal, engine.ActionSplit)
	}
	return legal[a.rng.IntN(len(legal))]
}

// Observe learns nothing.
func (a *RandomAgent) Observe(engine.Observation, engine.Action, float64, engine.Observation, bool) {
}
