package rules

import (
	"github.com/skemino/skemino-server-go/internal/game/board"
	"github.com/skemino/skemino-server-go/internal/game/cards"
)

type fakeState struct {
	turn   board.Color
	status Status
	hands  map[board.Color]*cards.Hand
}

func newFakeState(turn board.Color, white, black []cards.Card) *fakeState {
	return &fakeState{
		turn:   turn,
		status: StatusActive,
		hands: map[board.Color]*cards.Hand{
			board.White: cards.NewHand(white),
			board.Black: cards.NewHand(black),
		},
	}
}

func (s *fakeState) CurrentTurn() board.Color            { return s.turn }
func (s *fakeState) Status() Status                      { return s.status }
func (s *fakeState) Hand(player board.Color) *cards.Hand { return s.hands[player] }

func at(text string) board.Coord {
	return board.MustParseCoord(text)
}

func rock(v int) cards.Card     { return cards.Card{Suit: cards.Rock, Value: v} }
func scissors(v int) cards.Card { return cards.Card{Suit: cards.Scissors, Value: v} }
func paper(v int) cards.Card    { return cards.Card{Suit: cards.Paper, Value: v} }

func place(b *board.Board, cell string, c cards.Card, owner board.Color) {
	if _, err := b.Place(at(cell), c, owner); err != nil {
		panic(err)
	}
}
