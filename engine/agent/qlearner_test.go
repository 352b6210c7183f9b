package agent

import (
	"math"
	"sync"
	"testing"

	"github.com/kurav/Blackjack-RL/engine"
)

func stdObs(player []engine.Rank, dealerUp engine.Rank) engine.Observation {
	h := engine.NewHand(player...)
	return engine.Observation{
		Player:    player,
		DealerUp:  dealerUp,
		UsableAce: h.UsableAce(),
	}
}

// TestObserveTerminalUpdate verifies the terminal target is the raw reward.
func TestObserveTerminalUpdate(t *testing.T) {
	q := NewQLearner(0.1, 0.99, 0, 1)
	obs := stdObs([]engine.Rank{"10", "9"}, "6")

	q.Observe(obs, engine.ActionStand, 1.0, engine.Observation{}, true)

	key := KeyFor(obs)
	want := 0.1 * 1.0 // old 0 + alpha*(reward - 0)
	if got := q.Estimate(key, engine.ActionStand); got != want {
		t.Errorf("stand estimate = %v, want %v", got, want)
	}
	if got := q.Estimate(key, engine.ActionHit); got != 0 {
		t.Errorf("hit estimate = %v, want untouched 0", got)
	}
}

// TestObserveBootstrappedUpdate verifies the non-terminal target bootstraps
// from the best next-state estimate.
func TestObserveBootstrappedUpdate(t *testing.T) {
	q := NewQLearner(0.5, 0.9, 0, 1)
	obs := stdObs([]engine.Rank{"5", "6"}, "9")
	next := stdObs([]engine.Rank{"5", "6", "4"}, "9")

	// Seed the next state with a known best value.
	q.Observe(next, engine.ActionStand, 1.0, engine.Observation{}, true) // stand = 0.5

	q.Observe(obs, engine.ActionHit, 0.0, next, false)

	// target = 0 + 0.9*0.5 = 0.45; estimate = 0 + 0.5*(0.45-0) = 0.225
	want := 0.225
	if got := q.Estimate(KeyFor(obs), engine.ActionHit); math.Abs(got-want) > 1e-12 {
		t.Errorf("hit estimate = %v, want %v", got, want)
	}
}

// TestGreedyTieBreak verifies exact ties resolve to hit, the first action
// in the fixed order.
func TestGreedyTieBreak(t *testing.T) {
	q := NewQLearner(0.1, 0.99, 0, 1)
	obs := stdObs([]engine.Rank{"10", "6"}, "9")

	// Untouched state: both estimates 0.0, an exact tie.
	if got := q.Act(obs); got != engine.ActionHit {
		t.Errorf("tie broke to %s, want hit", got)
	}

	// Push stand above hit; greedy must follow.
	q.Observe(obs, engine.ActionStand, 1.0, engine.Observation{}, true)
	if got := q.Act(obs); got != engine.ActionStand {
		t.Errorf("greedy chose %s with stand ahead, want stand", got)
	}

	// And hit above stand.
	q2 := NewQLearner(0.1, 0.99, 0, 1)
	q2.Observe(obs, engine.ActionHit, 1.0, engine.Observation{}, true)
	if got := q2.Act(obs); got != engine.ActionHit {
		t.Errorf("greedy chose %s with hit ahead, want hit", got)
	}
}

// TestActEpsilonZeroIsDeterministic verifies a greedy-only learner never
// explores.
func TestActEpsilonZeroIsDeterministic(t *testing.T) {
	q := NewQLearner(0.1, 0.99, 0, 7)
	obs := stdObs([]engine.Rank{"10", "6"}, "9")
	q.Observe(obs, engine.ActionStand, 1.0, engine.Observation{}, true)

	for i := 0; i < 50; i++ {
		if got := q.Act(obs); got != engine.ActionStand {
			t.Fatalf("call %d: Act() = %s, want stand every time", i, got)
		}
	}
}

// TestActEpsilonOneExploresBothActions verifies full exploration samples
// both actions.
func TestActEpsilonOneExploresBothActions(t *testing.T) {
	q := NewQLearner(0.1, 0.99, 1.0, 7)
	obs := stdObs([]engine.Rank{"10", "6"}, "9")

	seen := map[engine.Action]bool{}
	for i := 0; i < 100; i++ {
		seen[q.Act(obs)] = true
	}
	if !seen[engine.ActionHit] || !seen[engine.ActionStand] {
		t.Errorf("100 fully-random acts produced only %v", seen)
	}
	if seen[engine.ActionDouble] || seen[engine.ActionSplit] {
		t.Error("learner emitted an action outside its hit/stand space")
	}
}

// TestObserveIgnoresForeignActions verifies transitions for double/split do
// not touch the table.
func TestObserveIgnoresForeignActions(t *testing.T) {
	q := NewQLearner(0.1, 0.99, 0, 1)
	obs := stdObs([]engine.Rank{"8", "8"}, "6")

	q.Observe(obs, engine.ActionSplit, 1.0, engine.Observation{}, true)
	q.Observe(obs, engine.ActionDouble, 1.0, engine.Observation{}, true)

	if q.States() != 0 {
		t.Errorf("table has %d states after foreign-action observes, want 0", q.States())
	}
}

// TestLazyRowMaterialization verifies unseen keys report 0.0 without being
// inserted, and materialize once updated.
func TestLazyRowMaterialization(t *testing.T) {
	q := NewQLearner(0.1, 0.99, 0, 1)
	key := StateKey{PlayerTotal: 12, DealerRef: 4}

	if got := q.Estimate(key, engine.ActionHit); got != 0 {
		t.Errorf("unseen estimate = %v, want 0", got)
	}
	if q.States() != 0 {
		t.Error("Estimate materialized a row")
	}

	obs := stdObs([]engine.Rank{"10", "2"}, "4")
	q.Observe(obs, engine.ActionHit, 0.5, engine.Observation{}, true)
	if q.States() != 1 {
		t.Errorf("States() = %d after one update, want 1", q.States())
	}
}

// TestGreedyMatchesActWithoutMutation verifies Greedy agrees with an
// epsilon-0 Act on trained and untouched states while leaving the table
// alone.
func TestGreedyMatchesActWithoutMutation(t *testing.T) {
	q := NewQLearner(0.1, 0.99, 0, 1)
	obs := stdObs([]engine.Rank{"10", "6"}, "9")
	key := KeyFor(obs)

	if got := q.Greedy(key); got != engine.ActionHit {
		t.Errorf("untrained tie broke to %s, want hit", got)
	}
	if q.States() != 0 {
		t.Errorf("Greedy materialized %d rows on an empty table", q.States())
	}

	q.Observe(obs, engine.ActionStand, 1.0, engine.Observation{}, true)
	if got, want := q.Greedy(key), q.Act(obs); got != want {
		t.Errorf("Greedy = %s, Act(epsilon 0) = %s; they must agree", got, want)
	}
	if q.States() != 1 {
		t.Errorf("States() = %d, want 1 (Greedy must not insert)", q.States())
	}
}

// TestGreedyConcurrentReaders drives a restored table from many goroutines
// at once, the way a shared advisor serves simultaneous sessions. Greedy
// must stay read-only so this cannot corrupt the table.
func TestGreedyConcurrentReaders(t *testing.T) {
	q := trainedForConcurrency(t)
	before := q.States()

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for total := 4; total <= 21; total++ {
				for ref := 1; ref <= 10; ref++ {
					key := StateKey{PlayerTotal: total, DealerRef: ref, UsableAce: w%2 == 0}
					if got := q.Greedy(key); got != engine.ActionHit && got != engine.ActionStand {
						t.Errorf("Greedy(%+v) = %s, outside the learner space", key, got)
						return
					}
				}
			}
		}(w)
	}
	wg.Wait()

	if q.States() != before {
		t.Errorf("States() went %d -> %d under concurrent Greedy calls", before, q.States())
	}
}

func trainedForConcurrency(t *testing.T) *QLearner {
	t.Helper()
	q := NewQLearner(0.1, 0.99, 0.2, 11)
	r := engine.NewRound(engine.DefaultRules(), 11)
	for ep := 0; ep < 200; ep++ {
		obs := r.Reset()
		done := false
		for !done {
			a := q.Act(obs)
			next, reward, d, err := r.Step(a)
			if err != nil {
				t.Fatalf("episode %d: %v", ep, err)
			}
			q.Observe(obs, a, reward, next, d)
			obs, done = next, d
		}
	}
	return q
}

// TestQLearnerTrainsOnRealRounds runs a short seeded training session end
// to end and sanity-checks the table grows.
func TestQLearnerTrainsOnRealRounds(t *testing.T) {
	q := NewQLearner(0.1, 0.99, 0.2, 42)
	r := engine.NewRound(engine.DefaultRules(), 42)

	for ep := 0; ep < 500; ep++ {
		obs := r.Reset()
		done := false
		for !done {
			a := q.Act(obs)
			next, reward, d, err := r.Step(a)
			if err != nil {
				t.Fatalf("episode %d: %v", ep, err)
			}
			q.Observe(obs, a, reward, next, d)
			obs, done = next, d
		}
	}

	if q.States() < 50 {
		t.Errorf("only %d states visited after 500 episodes", q.States())
	}
}
