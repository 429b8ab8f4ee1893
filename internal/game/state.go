package game

import (
	"time"

	"github.com/skemino/skemino-server-go/internal/game/board"
	"github.com/skemino/skemino-server-go/internal/game/cards"
	"github.com/skemino/skemino-server-go/internal/game/rules"
)

// EndReason says how a finished game was decided.
type EndReason string

const (
	EndReasonNone        EndReason = ""
	EndReasonRules       EndReason = "rules"
	EndReasonTimeout     EndReason = "timeout"
	EndReasonResignation EndReason = "resignation"
	EndReasonDrawAgreed  EndReason = "draw_agreed"
	EndReasonAborted     EndReason = "aborted"
)

// Dice is the one-time roll that places the opening card.
type Dice struct {
	Number int         `json:"number"` // 1..6, the rank
	Letter string      `json:"letter"` // a..f, the file
	Color  board.Color `json:"color"`
}

// Cell returns the cell the roll points at.
func (d Dice) Cell() board.Coord {
	if len(d.Letter) != 1 {
		return board.Coord{File: -1, Rank: -1}
	}
	return board.C(d.Letter[0], d.Number)
}

// PlayerState is one side's hand and clock.
type PlayerState struct {
	Hand      *cards.Hand
	Remaining time.Duration
}

// GameState is the full state of one game. Values returned by the engine are
// copies; mutate a game only through Engine methods.
type GameState struct {
	ID               string
	Board            *board.Board
	Players          map[board.Color]*PlayerState
	Turn             board.Color
	TurnNumber       int
	Status           rules.Status
	Moves            []rules.Move
	Winner           board.Color
	VictoryCondition rules.VictoryCondition
	EndReason        EndReason
	Dice             *Dice
	DrawOffer        board.Color
	StartedAt        time.Time
	EndedAt          time.Time
}

// Hand returns player's hand.
func (s *GameState) Hand(player board.Color) *cards.Hand {
	if p, ok := s.Players[player]; ok {
		return p.Hand
	}
	return nil
}

// Remaining returns each player's clock.
func (s *GameState) Remaining() map[board.Color]time.Duration {
	out := make(map[board.Color]time.Duration, len(s.Players))
	for c, p := range s.Players {
		out[c] = p.Remaining
	}
	return out
}

// LastMove returns the most recent move, if any.
func (s *GameState) LastMove() (rules.Move, bool) {
	if len(s.Moves) == 0 {
		return rules.Move{}, false
	}
	return s.Moves[len(s.Moves)-1], true
}

// Clone returns a deep copy.
func (s *GameState) Clone() *GameState {
	cp := *s
	cp.Board = s.Board.Clone()
	cp.Players = make(map[board.Color]*PlayerState, len(s.Players))
	for c, p := range s.Players {
		cp.Players[c] = &PlayerState{Hand: cards.NewHand(p.Hand.Cards()), Remaining: p.Remaining}
	}
	cp.Moves = append([]rules.Move(nil), s.Moves...)
	if s.Dice != nil {
		d := *s.Dice
		cp.Dice = &d
	}
	return &cp
}

// turnView adapts GameState to rules.TurnState.
type turnView struct {
	*GameState
}

func (v turnView) CurrentTurn() board.Color { return v.GameState.Turn }
func (v turnView) Status() rules.Status     { return v.GameState.Status }
