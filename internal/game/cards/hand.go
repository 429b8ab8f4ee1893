package cards

// Hand holds the cards a player has not placed yet. Order is kept only so the
// setup roll can take a deterministic "first card".
type Hand struct {
	cards []Card
}

// NewHand copies the given cards into a hand.
func NewHand(set []Card) *Hand {
	return &Hand{cards: append([]Card(nil), set...)}
}

// Len returns the number of cards in the hand.
func (h *Hand) Len() int {
	if h == nil {
		return 0
	}
	return len(h.cards)
}

// Empty reports whether no cards remain.
func (h *Hand) Empty() bool {
	return h.Len() == 0
}

// Contains reports whether c is in the hand.
func (h *Hand) Contains(c Card) bool {
	if h == nil {
		return false
	}
	for _, held := range h.cards {
		if held == c {
			return true
		}
	}
	return false
}

// Remove takes c out of the hand, reporting whether it was present.
func (h *Hand) Remove(c Card) bool {
	for i, held := range h.cards {
		if held == c {
			h.cards = append(h.cards[:i], h.cards[i+1:]...)
			return true
		}
	}
	return false
}

// First returns the first card in deal order.
func (h *Hand) First() (Card, bool) {
	if h.Len() == 0 {
		return Card{}, false
	}
	return h.cards[0], true
}

// Cards returns a copy of the held cards.
func (h *Hand) Cards() []Card {
	if h == nil {
		return nil
	}
	return append([]Card(nil), h.cards...)
}

// Points sums the point values of the held cards.
func (h *Hand) Points() int {
	total := 0
	for _, c := range h.cards {
		total += c.Points()
	}
	return total
}
