package cards

// Outcome is the result of comparing an attacking card with a defending card.
type Outcome int

const (
	Lose Outcome = iota - 1
	Equal
	Win
)

func (o Outcome) String() string {
	switch o {
	case Win:
		return "WIN"
	case Lose:
		return "LOSE"
	default:
		return "EQUAL"
	}
}

// Compare decides whether attacker beats defender.
// Different suits follow the cycle Rock > Scissors > Paper > Rock. Within a
// suit the higher value wins, except that an Ace always beats a King.
func Compare(attacker, defender Card) Outcome {
	if attacker.Suit != defender.Suit {
		if attacker.Suit.Dominates(defender.Suit) {
			return Win
		}
		return Lose
	}

	switch {
	case attacker.Value == Ace && defender.Value == King:
		return Win
	case attacker.Value == King && defender.Value == Ace:
		return Lose
	case attacker.Value > defender.Value:
		return Win
	case attacker.Value < defender.Value:
		return Lose
	default:
		return Equal
	}
}

// Beats is shorthand for Compare(attacker, defender) == Win.
func Beats(attacker, defender Card) bool {
	return Compare(attacker, defender) == Win
}

// IsSymbolicLoop reports whether at least three cards covering all three suits are present.
func IsSymbolicLoop(set []Card) bool {
	if len(set) < 3 {
		return false
	}
	seen := make(map[Suit]bool, len(Suits))
	for _, c := range set {
		seen[c.Suit] = true
	}
	return len(seen) == len(Suits)
}

// IsNumericLoop reports whether the set holds an Ace and a King of the same
// suit plus at least one other card.
func IsNumericLoop(set []Card) bool {
	_, ok := NumericLoopSuit(set)
	return ok
}

// NumericLoopSuit returns the suit whose Ace and King form a numeric loop.
func NumericLoopSuit(set []Card) (Suit, bool) {
	if len(set) < 3 {
		return 0, false
	}
	for _, s := range Suits {
		hasAce, hasKing := false, false
		for _, c := range set {
			if c.Suit != s {
				continue
			}
			switch c.Value {
			case Ace:
				hasAce = true
			case King:
				hasKing = true
			}
		}
		if hasAce && hasKing {
			return s, true
		}
	}
	return 0, false
}
