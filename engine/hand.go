package engine

// Hand is an ordered, append-only sequence of ranks belonging to the dealer
// or one player position.
type Hand struct {
	cards []Rank
}

// NewHand creates a hand holding the given cards.
func NewHand(cards ...Rank) *Hand {
	h := &Hand{cards: make([]Rank, len(cards))}
	copy(h.cards, cards)
	return h
}

// Add appends one card.
func (h *Hand) Add(c Rank) { h.cards = append(h.cards, c) }

// Cards returns a copy of the cards in deal order.
func (h *Hand) Cards() []Rank {
	out := make([]Rank, len(h.cards))
	copy(out, h.cards)
	return out
}

// Len returns the number of cards held.
func (h *Hand) Len() int { return len(h.cards) }

// rawTotal is the hard total with every ace counted as 1.
func (h *Hand) rawTotal() int {
	total := 0
	for _, c := range h.cards {
		total += c.Value()
	}
	return total
}

// hasAce reports whether the hand contains at least one ace.
func (h *Hand) hasAce() bool {
	for _, c := range h.cards {
		if c == "A" {
			return true
		}
	}
	return false
}

// Value returns the hand total. If the hand holds an ace and promoting
// exactly one of them to 11 does not bust, the promoted (soft) total is
// returned; otherwise the hard total.
func (h *Hand) Value() int {
	total := h.rawTotal()
	if h.hasAce() && total+10 <= 21 {
		return total + 10
	}
	return total
}

// UsableAce reports whether the soft promotion is in effect, i.e. Value
// differs from the hard total.
func (h *Hand) UsableAce() bool {
	return h.hasAce() && h.Value() != h.rawTotal()
}

// IsBust reports whether the hand total exceeds 21.
func (h *Hand) IsBust() bool { return h.Value() > 21 }

// IsNatural reports a two-card 21 (a blackjack).
func (h *Hand) IsNatural() bool { return len(h.cards) == 2 && h.Value() == 21 }

// CanSplit reports whether the hand is exactly two cards of identical rank.
// A ten and a jack are both worth 10 but do not form a splittable pair.
func (h *Hand) CanSplit() bool {
	return len(h.cards) == 2 && h.cards[0] == h.cards[1]
}

// Split transfers the second card of a splittable pair into a new hand.
// The caller is responsible for checking CanSplit first.
func (h *Hand) Split() *Hand {
	moved := h.cards[len(h.cards)-1]
	h.cards = h.cards[:len(h.cards)-1]
	return NewHand(moved)
}
