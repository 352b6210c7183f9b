package engine

// Shoe owns the draw pile for one or more decks and rebuilds itself whenever
// the pile runs low. A rebuild can happen mid-round; that intentionally
// breaks pure card-counting strategies.
type Shoe struct {
	numDecks           int
	reshuffleThreshold int
	cards              []Rank
	rng                uint64
}

// NewShoe builds a freshly shuffled shoe. Seed 0 is corrected to 1 because
// the xorshift generator cannot leave the zero state.
func NewShoe(numDecks, reshuffleThreshold int, seed uint64) *Shoe {
	if numDecks < 1 {
		numDecks = 1
	}
	if seed == 0 {
		seed = 1
	}
	s := &Shoe{
		numDecks:           numDecks,
		reshuffleThreshold: reshuffleThreshold,
		rng:                seed,
	}
	s.rebuild()
	return s
}

// xorshift64 — inline, no interface.
func (s *Shoe) nextRand() uint64 {
	x := s.rng
	x ^= x << 13
	x ^= x >> 7
	x ^= x << 17
	s.rng = x
	return x
}

// randN returns a random number in [0, n).
func (s *Shoe) randN(n uint64) uint64 {
	return s.nextRand() % n
}

// rebuild concatenates numDecks full 52-card rank sets and shuffles them
// with Fisher-Yates. The pile size is exactly 52 × numDecks afterwards.
func (s *Shoe) rebuild() {
	s.cards = make([]Rank, 0, 52*s.numDecks)
	for d := 0; d < s.numDecks; d++ {
		for suit := 0; suit < 4; suit++ {
			s.cards = append(s.cards, Ranks[:]...)
		}
	}
	for i := len(s.cards) - 1; i > 0; i-- {
		j := int(s.randN(uint64(i + 1)))
		s.cards[i], s.cards[j] = s.cards[j], s.cards[i]
	}
}

// Draw removes and returns the next card. It never fails: when fewer than
// reshuffleThreshold cards remain the shoe is rebuilt first.
func (s *Shoe) Draw() Rank {
	if len(s.cards) < s.reshuffleThreshold || len(s.cards) == 0 {
		s.rebuild()
	}
	c := s.cards[0]
	s.cards = s.cards[1:]
	return c
}

// Remaining returns the number of undrawn cards.
func (s *Shoe) Remaining() int { return len(s.cards) }
