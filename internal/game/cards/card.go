package cards

import (
	"fmt"
	"strconv"
	"strings"
)

// Suit is one of the three card suits.
type Suit int

const (
	Rock     Suit = iota // Pietra
	Scissors             // Forbici
	Paper                // Carta
)

// Suits lists every suit in canonical order.
var Suits = []Suit{Rock, Scissors, Paper}

var suitNames = map[Suit]string{
	Rock:     "ROCK",
	Scissors: "SCISSORS",
	Paper:    "PAPER",
}

// suitLetters are the single-letter codes used in move notation.
var suitLetters = map[Suit]string{
	Rock:     "P",
	Scissors: "F",
	Paper:    "C",
}

func (s Suit) String() string {
	if name, ok := suitNames[s]; ok {
		return name
	}
	return fmt.Sprintf("SUIT_%d", int(s))
}

// Letter returns the notation letter for the suit (P, F or C).
func (s Suit) Letter() string {
	return suitLetters[s]
}

// Valid reports whether s is one of the three suits.
func (s Suit) Valid() bool {
	_, ok := suitNames[s]
	return ok
}

// beats maps each suit to the suit it dominates.
var beats = map[Suit]Suit{
	Rock:     Scissors,
	Scissors: Paper,
	Paper:    Rock,
}

// Dominates reports whether s beats other in the suit cycle.
func (s Suit) Dominates(other Suit) bool {
	return beats[s] == other && s != other
}

// ParseSuit accepts notation letters, Italian names and English names, case-insensitive.
func ParseSuit(text string) (Suit, error) {
	switch strings.ToUpper(strings.TrimSpace(text)) {
	case "P", "PIETRA", "ROCK":
		return Rock, nil
	case "F", "FORBICI", "SCISSORS":
		return Scissors, nil
	case "C", "CARTA", "PAPER":
		return Paper, nil
	}
	return 0, fmt.Errorf("unknown suit %q", text)
}

// Card values with special meaning.
const (
	Ace   = 1
	Jack  = 11
	Queen = 12
	King  = 13

	MinValue = Ace
	MaxValue = King
)

// Card is an immutable (suit, value) pair.
type Card struct {
	Suit  Suit `json:"suit"`
	Value int  `json:"value"`
}

// New returns a card, validating the suit and value range.
func New(suit Suit, value int) (Card, error) {
	c := Card{Suit: suit, Value: value}
	if !c.Valid() {
		return Card{}, fmt.Errorf("invalid card %s/%d", suit, value)
	}
	return c, nil
}

// Valid reports whether the card belongs to the 39-card set.
func (c Card) Valid() bool {
	return c.Suit.Valid() && c.Value >= MinValue && c.Value <= MaxValue
}

// Points is the scoring value of the card; face cards count 11, 12 and 13.
func (c Card) Points() int {
	return c.Value
}

// String renders the card as suit letter plus numeric value, e.g. "P5" or "C13".
func (c Card) String() string {
	return c.Suit.Letter() + strconv.Itoa(c.Value)
}

// MarshalText encodes the suit as its notation letter.
func (s Suit) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("cannot encode %s", s)
	}
	return []byte(s.Letter()), nil
}

// UnmarshalText decodes any form accepted by ParseSuit.
func (s *Suit) UnmarshalText(text []byte) error {
	parsed, err := ParseSuit(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
