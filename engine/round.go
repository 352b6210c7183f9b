// Package engine implements the blackjack round state machine: shoe, hands,
// dealer policy, action resolution and settlement.
//
// The engine is deterministic given a seed and fully synchronous; one Round
// owns its Shoe and hands exclusively, and a Step call is atomic with
// respect to round state. For parallel training, create one Round per
// worker rather than sharing a Round across goroutines.
package engine

import "fmt"

// Round orchestrates a single round of blackjack against the dealer. The
// same machine drives both variants: with Rules.DealerPlaysFirst the dealer
// hand is resolved during Reset and every observation carries the settled
// dealer total; otherwise the dealer plays after the player finishes.
//
// The hand list starts at one and grows only through splits, preserving
// left-to-right play order. bets and earlyLoss run parallel to hands.
type Round struct {
	rules Rules
	shoe  *Shoe

	dealer    *Hand
	hands     []*Hand
	bets      []float64
	earlyLoss []bool // hands finalized by a hit bust, excluded from settlement
	current   int
	outcomes  []Outcome
	done      bool
}

// NewRound creates a round engine with a freshly built shoe. Call Reset to
// deal the first round.
func NewRound(rules Rules, seed uint64) *Round {
	return &Round{
		rules: rules,
		shoe:  NewShoe(rules.NumDecks, rules.ReshuffleThreshold, seed),
	}
}

// Rules returns the table settings this round was built with.
func (r *Round) Rules() Rules { return r.rules }

// Reset discards all round state, deals two cards to the player and two to
// the dealer, and returns the observation for hand 0. In the reverse
// variant the dealer hand is played to completion before returning.
func (r *Round) Reset() Observation {
	r.dealer = NewHand()
	r.hands = []*Hand{NewHand()}
	r.bets = []float64{1.0}
	r.earlyLoss = []bool{false}
	r.current = 0
	r.outcomes = nil
	r.done = false

	for i := 0; i < 2; i++ {
		r.hands[0].Add(r.shoe.Draw())
		r.dealer.Add(r.shoe.Draw())
	}

	if r.rules.DealerPlaysFirst {
		r.dealerPlay()
	}

	return r.observe()
}

// observe builds the observation for the hand at the cursor.
func (r *Round) observe() Observation {
	h := r.hands[r.current]
	obs := Observation{
		Player:    h.Cards(),
		UsableAce: h.UsableAce(),
		CanDouble: h.Len() == 2,
		CanSplit:  h.CanSplit(),
	}
	if r.rules.DealerPlaysFirst {
		obs.DealerResolved = true
		obs.DealerCards = r.dealer.Cards()
		obs.DealerValue = r.dealer.Value()
	} else {
		obs.DealerUp = r.dealer.cards[0]
	}
	return obs
}

// Step resolves one action for the hand at the cursor. The returned reward
// belongs to this transition only; the observation is the zero value once
// terminal is true.
//
// Illegal actions — Double off a two-card hand, Split off a non-pair, or
// any action after the round settled — are programming errors and return an
// error without touching round state.
func (r *Round) Step(a Action) (Observation, float64, bool, error) {
	if r.done {
		return Observation{}, 0, true, fmt.Errorf("round is already settled")
	}

	h := r.hands[r.current]

	switch a {
	case ActionHit:
		h.Add(r.shoe.Draw())
		if h.IsBust() {
			obs, reward, done := r.finalizeBust()
			return obs, reward, done, nil
		}
		return r.observe(), 0, false, nil

	case ActionStand:
		obs, reward, done := r.nextOrDealer()
		return obs, reward, done, nil

	case ActionDouble:
		if h.Len() != 2 {
			return Observation{}, 0, false, fmt.Errorf("double is only legal on a two-card hand (hand %d has %d cards)", r.current, h.Len())
		}
		r.bets[r.current] *= 2
		h.Add(r.shoe.Draw())
		obs, reward, done := r.nextOrDealer()
		return obs, reward, done, nil

	case ActionSplit:
		if !h.CanSplit() {
			return Observation{}, 0, false, fmt.Errorf("split is only legal on a two-card pair (hand %d holds %v)", r.current, h.Cards())
		}
		split := h.Split()
		r.hands = insertHand(r.hands, r.current+1, split)
		r.bets = insertFloat(r.bets, r.current+1, r.bets[r.current])
		r.earlyLoss = insertBool(r.earlyLoss, r.current+1, false)
		h.Add(r.shoe.Draw())
		split.Add(r.shoe.Draw())
		// The cursor stays put: the player acts on the first split hand next.
		return r.observe(), 0, false, nil
	}

	return Observation{}, 0, false, fmt.Errorf("unhandled action %d", a)
}

// finalizeBust resolves a hand that busted on a hit. The loss is logged and
// its -bet reward is delivered on this very transition; later hands (if
// any) continue from a fresh observation.
func (r *Round) finalizeBust() (Observation, float64, bool) {
	reward := -r.bets[r.current]
	r.outcomes = append(r.outcomes, OutcomeLoss)
	r.earlyLoss[r.current] = true
	r.current++
	if r.current < len(r.hands) {
		return r.observe(), reward, false
	}
	r.done = true
	return Observation{}, reward, true
}

// nextOrDealer advances past a stood (or doubled) hand. A bust reached this
// way is not paid here; it settles with everything else once the dealer is
// resolved.
func (r *Round) nextOrDealer() (Observation, float64, bool) {
	r.current++
	if r.current < len(r.hands) {
		return r.observe(), 0, false
	}
	return r.settle()
}

// dealerPlay runs the dealer stopping rule: draw while the total is below
// 17, or exactly a soft 17 when the table hits soft 17.
func (r *Round) dealerPlay() {
	for {
		v := r.dealer.Value()
		if v < 17 || (r.rules.DealerHitsSoft17 && v == 17 && r.dealer.UsableAce()) {
			r.dealer.Add(r.shoe.Draw())
			continue
		}
		return
	}
}

// settle resolves the dealer (standard variant only; the reverse dealer is
// already final) and scores every hand not finalized by an early bust.
// Outcomes are appended in play order and the returned reward is the sum of
// the per-hand rewards not already delivered by finalizeBust.
func (r *Round) settle() (Observation, float64, bool) {
	if !r.rules.DealerPlaysFirst {
		r.dealerPlay()
	}

	d := r.dealer.Value()
	dealerBust := d > 21

	total := 0.0
	for i, h := range r.hands {
		if r.earlyLoss[i] {
			continue
		}
		hv := h.Value()
		bet := r.bets[i]
		switch {
		case h.IsNatural():
			r.outcomes = append(r.outcomes, OutcomeBlackjack)
			total += bet * r.rules.NaturalPayout
		case hv > 21:
			r.outcomes = append(r.outcomes, OutcomeLoss)
			total -= bet
		case dealerBust || hv > d:
			r.outcomes = append(r.outcomes, OutcomeWin)
			total += bet
		case hv < d:
			r.outcomes = append(r.outcomes, OutcomeLoss)
			total -= bet
		default:
			r.outcomes = append(r.outcomes, OutcomePush)
			total += 0
		}
	}

	r.done = true
	return Observation{}, total, true
}

// IsTerminal reports whether the round has settled.
func (r *Round) IsTerminal() bool { return r.done }

// Outcomes returns the per-hand outcome log in resolution order. It is only
// complete once the round is terminal.
func (r *Round) Outcomes() []Outcome {
	out := make([]Outcome, len(r.outcomes))
	copy(out, r.outcomes)
	return out
}

// DealerHand returns a copy of the dealer's cards.
func (r *Round) DealerHand() []Rank { return r.dealer.Cards() }

// DealerValue returns the dealer's current total.
func (r *Round) DealerValue() int { return r.dealer.Value() }

// Hands returns copies of the player hands in play order.
func (r *Round) Hands() [][]Rank {
	out := make([][]Rank, len(r.hands))
	for i, h := range r.hands {
		out[i] = h.Cards()
	}
	return out
}

// Bets returns a copy of the per-hand bet multipliers.
func (r *Round) Bets() []float64 {
	out := make([]float64, len(r.bets))
	copy(out, r.bets)
	return out
}

func insertHand(s []*Hand, i int, v *Hand) []*Hand {
	s = append(s, nil)
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}

func insertFloat(s []float64, i int, v float64) []float64 {
	s = append(s, 0)
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}

func insertBool(s []bool, i int, v bool) []bool {
	s = append(s, false)
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}
