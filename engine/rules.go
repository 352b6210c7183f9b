package engine

// Rules holds the configurable table settings for a round.
type Rules struct {
	NaturalPayout      float64 // multiplier for a two-card 21 (default 1.5)
	DealerHitsSoft17   bool    // dealer draws on a soft 17 when true
	NumDecks           int     // decks combined into the shoe
	ReshuffleThreshold int     // shoe rebuilds before a draw below this depth
	DealerPlaysFirst   bool    // reverse variant: dealer resolves before the player acts
}

// DefaultRules returns the standard single-deck table.
func DefaultRules() Rules {
	return Rules{
		NaturalPayout:      1.5,
		DealerHitsSoft17:   false,
		NumDecks:           1,
		ReshuffleThreshold: 15,
	}
}

// ReverseRules returns the standard table with the dealer playing first.
func ReverseRules() Rules {
	r := DefaultRules()
	r.DealerPlaysFirst = true
	return r
}

// Variant returns "reverse" or "standard" for reporting and persistence.
func (r Rules) Variant() string {
	if r.DealerPlaysFirst {
		return "reverse"
	}
	return "standard"
}
