package agent

import "github.com/kurav/Blackjack-RL/engine"

// StateKey is the compact discretized state used to index the value table.
//
// DealerRef has a different domain per variant: the dealer up-card's value
// (1-10) in standard rounds, and the dealer's settled total (17-26, i.e.
// possibly above 21) in reverse rounds. The two domains barely overlap, so
// tables learned on one variant do not silently alias the other.
type StateKey struct {
	PlayerTotal int
	DealerRef   int
	UsableAce   bool
}

// KeyFor discretizes an observation. It is a pure function of the
// observation and must be applied identically at act and observe time so
// transitions line up.
func KeyFor(obs engine.Observation) StateKey {
	total := 0
	hasAce := false
	for _, c := range obs.Player {
		total += c.Value()
		if c == "A" {
			hasAce = true
		}
	}
	if hasAce && total+10 <= 21 {
		total += 10
	}

	ref := 0
	if obs.DealerResolved {
		ref = obs.DealerValue
	} else {
		ref = obs.DealerUp.Value()
	}

	return StateKey{
		PlayerTotal: total,
		DealerRef:   ref,
		UsableAce:   obs.UsableAce,
	}
}
