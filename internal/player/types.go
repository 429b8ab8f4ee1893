package player

import (
	"errors"

	"github.com/skemino/skemino-server-go/internal/game/board"
	"github.com/skemino/skemino-server-go/internal/game/cards"
	"github.com/skemino/skemino-server-go/internal/game/rules"
)

// ErrNoMove is returned when no card in hand has a legal destination.
var ErrNoMove = errors.New("no legal move")

// LegalMoves returns the legal destinations of a card for the player to move.
type LegalMoves func(card cards.Card) []board.Coord

type Player interface {
	Name() string
	ChooseMove(color board.Color, hand []cards.Card, legal LegalMoves) (rules.Move, error)
}

type PlayerFactory func() Player
