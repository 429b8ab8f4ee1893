package rules

import (
	"time"

	"github.com/skemino/skemino-server-go/internal/game/board"
)

// Scoring holds the flat bonuses added per vertex held.
type Scoring struct {
	VertexBonus    int
	ExclusiveBonus int
}

// DefaultScoring is 10 per vertex, 20 when exclusive.
var DefaultScoring = Scoring{VertexBonus: 10, ExclusiveBonus: 20}

// BoardScore sums the points of every card player owns on the board plus the
// vertex bonuses.
func BoardScore(b *board.Board, player board.Color, scoring Scoring) int {
	score := 0
	for _, c := range b.CellsOwnedBy(player) {
		card, _, _ := b.CardAt(c)
		score += card.Points()
	}
	for _, v := range board.Vertices {
		control := CheckVertexControl(b, v, player)
		switch {
		case control.IsExclusive:
			score += scoring.ExclusiveBonus
		case control.IsControlled:
			score += scoring.VertexBonus
		}
	}
	return score
}

// Scores is the board score of both players.
type Scores struct {
	White int `json:"white"`
	Black int `json:"black"`
}

// Leader returns the player with the higher score, or None on a tie.
func (s Scores) Leader() board.Color {
	switch {
	case s.White > s.Black:
		return board.White
	case s.Black > s.White:
		return board.Black
	default:
		return board.None
	}
}

// Of returns the score of player.
func (s Scores) Of(player board.Color) int {
	if player == board.Black {
		return s.Black
	}
	return s.White
}

// CalculateScores computes both board scores.
func CalculateScores(b *board.Board, scoring Scoring) Scores {
	return Scores{
		White: BoardScore(b, board.White, scoring),
		Black: BoardScore(b, board.Black, scoring),
	}
}

// VictoryContext is everything the checker looks at after a move was applied.
type VictoryContext struct {
	Board   *board.Board
	Hands   Hands
	Move    Move
	Scoring Scoring
	// Remaining is each player's clock after the move.
	Remaining map[board.Color]time.Duration
}

// Verdict is the result of a victory check. Winner None with Ended set is a draw.
type Verdict struct {
	Ended     bool
	Condition VictoryCondition
	Winner    board.Color
	Scores    Scores
}

type victoryCheck struct {
	condition VictoryCondition
	check     func(ctx VictoryContext) (board.Color, bool)
}

// victoryOrder is evaluated top to bottom; the first match ends the game.
var victoryOrder = []victoryCheck{
	{VictoryVertex, checkVertexVictory},
	{VictoryReverser, checkReverserVictory},
	{VictorySaturation, checkSaturation},
	{VictoryExhaustion, checkExhaustion},
}

// VictoryOrder returns the conditions in evaluation order.
func VictoryOrder() []VictoryCondition {
	out := make([]VictoryCondition, len(victoryOrder))
	for i, vc := range victoryOrder {
		out[i] = vc.condition
	}
	return out
}

// CheckVictory runs the victory conditions in priority order.
func CheckVictory(ctx VictoryContext) Verdict {
	scores := CalculateScores(ctx.Board, ctx.Scoring)
	for _, vc := range victoryOrder {
		if winner, ok := vc.check(ctx); ok {
			return Verdict{Ended: true, Condition: vc.condition, Winner: winner, Scores: scores}
		}
	}
	return Verdict{Scores: scores}
}

func checkVertexVictory(ctx VictoryContext) (board.Color, bool) {
	mover := ctx.Move.Player
	if !CheckVertexControl(ctx.Board, ctx.Move.To, mover).IsControlled {
		return board.None, false
	}
	if !ctx.Hands.Hand(mover).Empty() {
		return board.None, false
	}
	return mover, true
}

func checkReverserVictory(ctx VictoryContext) (board.Color, bool) {
	mv := ctx.Move
	if !mv.To.IsVertex() || mv.Captured == nil || len(mv.ReverserCaptures) == 0 {
		return board.None, false
	}
	return mv.Player, true
}

// NextPlayer returns who moves after mover: the opponent, or mover again
// when the opponent has no cards left.
func NextPlayer(hands Hands, mover board.Color) board.Color {
	return NextPlayerByCount(mover, hands.Hand(mover).Len(), hands.Hand(mover.Opponent()).Len())
}

// NextPlayerByCount is NextPlayer given only how many cards each side holds.
func NextPlayerByCount(mover board.Color, moverLeft, opponentLeft int) board.Color {
	if opponentLeft == 0 && moverLeft > 0 {
		return mover
	}
	return mover.Opponent()
}

// checkSaturation ends the game when the next player holds cards but none of
// them can be placed anywhere.
func checkSaturation(ctx VictoryContext) (board.Color, bool) {
	next := NextPlayer(ctx.Hands, ctx.Move.Player)
	if ctx.Hands.Hand(next).Empty() {
		return board.None, false
	}
	if HasAnyMove(ctx.Board, ctx.Hands, next) {
		return board.None, false
	}
	return CalculateScores(ctx.Board, ctx.Scoring).Leader(), true
}

func (ctx VictoryContext) timedOut(player board.Color) bool {
	left, ok := ctx.Remaining[player]
	return ok && left <= 0
}

func checkExhaustion(ctx VictoryContext) (board.Color, bool) {
	whiteOut, blackOut := ctx.timedOut(board.White), ctx.timedOut(board.Black)
	switch {
	case whiteOut && !blackOut:
		return board.Black, true
	case blackOut && !whiteOut:
		return board.White, true
	case whiteOut && blackOut:
		return CalculateScores(ctx.Board, ctx.Scoring).Leader(), true
	}
	if ctx.Hands.Hand(board.White).Empty() && ctx.Hands.Hand(board.Black).Empty() {
		return CalculateScores(ctx.Board, ctx.Scoring).Leader(), true
	}
	return board.None, false
}
