package engine

// Rank is a card rank: "A", "2".."10", "J", "Q", or "K". Suits never affect
// blackjack settlement or split eligibility, so they are not modeled.
type Rank string

// The thirteen ranks in a standard deck, in deal order for shoe builds.
var Ranks = [13]Rank{"A", "2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K"}

// Value returns the numeric value of the rank. Aces count low (1); the
// single-ace soft promotion lives in Hand.Value, not here.
func (r Rank) Value() int {
	switch r {
	case "A":
		return 1
	case "2":
		return 2
	case "3":
		return 3
	case "4":
		return 4
	case "5":
		return 5
	case "6":
		return 6
	case "7":
		return 7
	case "8":
		return 8
	case "9":
		return 9
	default: // "10", "J", "Q", "K"
		return 10
	}
}

// Action is one of the four player moves.
type Action uint8

const (
	ActionHit    Action = iota // draw another card
	ActionStand                // stop drawing
	ActionDouble               // double the bet, draw exactly one card, then stand
	ActionSplit                // split a pair into two hands
)

// String returns the lowercase action name.
func (a Action) String() string {
	switch a {
	case ActionHit:
		return "hit"
	case ActionStand:
		return "stand"
	case ActionDouble:
		return "double"
	case ActionSplit:
		return "split"
	}
	return "unknown"
}

// ParseAction converts a lowercase action name back into an Action.
func ParseAction(s string) (Action, bool) {
	switch s {
	case "hit":
		return ActionHit, true
	case "stand":
		return ActionStand, true
	case "double":
		return ActionDouble, true
	case "split":
		return ActionSplit, true
	}
	return 0, false
}

// Outcome is the settled result of a single player hand.
type Outcome uint8

const (
	OutcomeBlackjack Outcome = iota // two-card 21, paid at the natural multiplier
	OutcomeWin
	OutcomeLoss
	OutcomePush
)

// String returns the lowercase outcome tag.
func (o Outcome) String() string {
	switch o {
	case OutcomeBlackjack:
		return "blackjack"
	case OutcomeWin:
		return "win"
	case OutcomeLoss:
		return "loss"
	case OutcomePush:
		return "push"
	}
	return "unknown"
}

// Observation is the snapshot of visible state handed to an agent before it
// picks an action. Exactly one of the dealer views is populated:
//
//   - standard rounds expose only DealerUp (the dealer's first card);
//   - reverse rounds set DealerResolved and expose the dealer's full hand
//     and settled value, which may exceed 21 when the dealer busts.
//
// The zero Observation is returned once a round is terminal.
type Observation struct {
	Player         []Rank
	DealerUp       Rank
	DealerCards    []Rank
	DealerValue    int
	DealerResolved bool
	UsableAce      bool
	CanDouble      bool
	CanSplit       bool
}
