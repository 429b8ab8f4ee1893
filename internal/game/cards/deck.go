package cards

import (
	"errors"
	"fmt"
)

// DeckSize is the number of cards in a full deck.
const DeckSize = 39

// ErrDeckExhausted is returned when a draw asks for more cards than remain.
var ErrDeckExhausted = errors.New("deck exhausted")

// Shuffler is the randomness a deck needs; *rand.Rand satisfies it.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

// Deck is the 39-card set drawn sequentially without replacement.
type Deck struct {
	cards []Card
	next  int
}

// NewDeck returns an ordered, undrawn deck.
func NewDeck() *Deck {
	d := &Deck{cards: make([]Card, 0, DeckSize)}
	for _, s := range Suits {
		for v := MinValue; v <= MaxValue; v++ {
			d.cards = append(d.cards, Card{Suit: s, Value: v})
		}
	}
	return d
}

// Shuffle permutes the undrawn portion of the deck.
func (d *Deck) Shuffle(rng Shuffler) {
	rest := d.cards[d.next:]
	rng.Shuffle(len(rest), func(i, j int) { rest[i], rest[j] = rest[j], rest[i] })
}

// Draw removes the next n cards from the deck.
func (d *Deck) Draw(n int) ([]Card, error) {
	if n < 0 {
		return nil, fmt.Errorf("cannot draw %d cards", n)
	}
	if n > d.Remaining() {
		return nil, fmt.Errorf("draw %d of %d: %w", n, d.Remaining(), ErrDeckExhausted)
	}
	out := make([]Card, n)
	copy(out, d.cards[d.next:d.next+n])
	d.next += n
	return out, nil
}

// Remaining returns how many cards are still undrawn.
func (d *Deck) Remaining() int {
	return len(d.cards) - d.next
}
