package game

import (
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/skemino/skemino-server-go/internal/game/board"
	"github.com/skemino/skemino-server-go/internal/game/cards"
	"github.com/skemino/skemino-server-go/internal/game/notation"
	"github.com/skemino/skemino-server-go/internal/game/rules"
	"github.com/skemino/skemino-server-go/internal/game/watchers"
	"github.com/skemino/skemino-server-go/internal/player"
)

var testTime = time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

func fixedClock() time.Time { return testTime }

func rock(v int) cards.Card     { return cards.Card{Suit: cards.Rock, Value: v} }
func scissors(v int) cards.Card { return cards.Card{Suit: cards.Scissors, Value: v} }
func paper(v int) cards.Card    { return cards.Card{Suit: cards.Paper, Value: v} }

func at(text string) board.Coord { return board.MustParseCoord(text) }

func cell(text string, c cards.Card, owner board.Color) CellSnapshot {
	return CellSnapshot{Cell: at(text), Card: &c, Owner: owner}
}

// loadEngine builds an active game with the given position and hands.
func loadEngine(t *testing.T, turn board.Color, cells []CellSnapshot, white, black []cards.Card) *Engine {
	t.Helper()
	snap := &Snapshot{
		Version: snapshotVersion,
		GameID:  "test-game",
		Status:  rules.StatusActive,
		Turn:    turn,
		Cells:   cells,
		Players: []PlayerSnapshot{
			{Color: board.White, Hand: white, Remaining: DefaultInitialTime},
			{Color: board.Black, Hand: black, Remaining: DefaultInitialTime},
		},
	}
	e, err := LoadEngine(snap, Options{Logger: zaptest.NewLogger(t), Clock: fixedClock})
	require.NoError(t, err)
	return e
}

func seededEngine(t *testing.T, seed uint64) *Engine {
	t.Helper()
	e, err := NewEngine(Options{
		GameID: "seeded",
		Rand:   rand.New(rand.NewPCG(seed, seed+1)),
		Clock:  fixedClock,
		Logger: zaptest.NewLogger(t),
	})
	require.NoError(t, err)
	return e
}

func TestNewEngineDealsDisjointHands(t *testing.T) {
	e := seededEngine(t, 1)
	state := e.GetGameState()

	assert.Equal(t, rules.StatusWaiting, state.Status)
	assert.Equal(t, DefaultHandSize, state.Hand(board.White).Len())
	assert.Equal(t, DefaultHandSize, state.Hand(board.Black).Len())

	seen := make(map[cards.Card]bool)
	for _, color := range board.Colors {
		for _, c := range state.Hand(color).Cards() {
			require.False(t, seen[c], "card %s dealt twice", c)
			seen[c] = true
		}
		assert.Equal(t, DefaultInitialTime, state.Players[color].Remaining)
	}
	assert.Len(t, seen, 2*DefaultHandSize)
}

func TestNewEngineRejectsBadHandSize(t *testing.T) {
	_, err := NewEngine(Options{HandSize: 20})
	assert.Error(t, err)
	_, err = NewEngine(Options{HandSize: -1})
	assert.Error(t, err)
}

func TestSetupInitialPosition(t *testing.T) {
	e := seededEngine(t, 7)
	before := e.GetGameState()

	mv, err := e.SetupInitialPosition()
	require.NoError(t, err)

	state := e.GetGameState()
	require.NotNil(t, state.Dice)
	assert.True(t, mv.Setup)
	assert.Equal(t, 0, mv.Turn)
	assert.Equal(t, state.Dice.Color, mv.Player)
	assert.Equal(t, state.Dice.Cell(), mv.To)
	assert.True(t, mv.To.InBounds())

	first, _ := before.Hand(mv.Player).First()
	assert.Equal(t, first, mv.Card, "the rolled colour opens with its first card")

	placed, owner, ok := state.Board.CardAt(mv.To)
	require.True(t, ok)
	assert.Equal(t, mv.Card, placed)
	assert.Equal(t, mv.Player, owner)
	assert.Equal(t, DefaultHandSize-1, state.Hand(mv.Player).Len())

	assert.Equal(t, rules.StatusActive, state.Status)
	assert.Equal(t, mv.Player, state.Turn)
	assert.Equal(t, testTime, state.StartedAt)
	require.Len(t, state.Moves, 1)

	_, err = e.SetupInitialPosition()
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestSetupIsReproducible(t *testing.T) {
	a, b := seededEngine(t, 99), seededEngine(t, 99)
	mvA, err := a.SetupInitialPosition()
	require.NoError(t, err)
	mvB, err := b.SetupInitialPosition()
	require.NoError(t, err)

	assert.Equal(t, mvA.Card, mvB.Card)
	assert.Equal(t, mvA.To, mvB.To)
	assert.Equal(t, a.GetGameState().Hand(board.White).Cards(), b.GetGameState().Hand(board.White).Cards())
}

func TestScenarioFirstPlacementOnEmptyBoard(t *testing.T) {
	e := loadEngine(t, board.White, nil, []cards.Card{paper(4), rock(2)}, []cards.Card{scissors(6)})

	mv := rules.Move{Player: board.White, Card: paper(4), To: at("d3")}
	result := e.ValidateMove(mv)
	require.True(t, result.Valid)

	res, err := e.ApplyMove(mv)
	require.NoError(t, err)
	assert.False(t, res.Move.IsCapture)
	assert.Nil(t, res.Move.Captured)
	assert.Equal(t, 1, res.Move.Turn)

	state := e.GetGameState()
	assert.Equal(t, 1, state.Board.OccupiedCount())
	c, owner, ok := state.Board.CardAt(at("d3"))
	require.True(t, ok)
	assert.Equal(t, paper(4), c)
	assert.Equal(t, board.White, owner)
	assert.Equal(t, board.Black, state.Turn)
	assert.False(t, state.Hand(board.White).Contains(paper(4)))
}

func TestScenarioNonAdjacentPlacementRejected(t *testing.T) {
	e := loadEngine(t, board.Black,
		[]CellSnapshot{cell("d3", rock(5), board.White)},
		[]cards.Card{paper(1)}, []cards.Card{scissors(3)})

	mv := rules.Move{Player: board.Black, Card: scissors(3), To: at("a1")}
	result := e.ValidateMove(mv)
	assert.False(t, result.Valid)
	assert.Equal(t, rules.ReasonAdjacency, result.Reason)

	_, err := e.ApplyMove(mv)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIllegalMove))
	var illegal *IllegalMoveError
	require.ErrorAs(t, err, &illegal)
	assert.Equal(t, rules.ReasonAdjacency, illegal.Result.Reason)

	state := e.GetGameState()
	assert.Equal(t, 1, state.Board.OccupiedCount(), "rejected move leaves the board alone")
	assert.True(t, state.Hand(board.Black).Contains(scissors(3)))
	assert.Equal(t, board.Black, state.Turn)
	assert.Empty(t, state.Moves)
}

func TestScenarioCapture(t *testing.T) {
	e := loadEngine(t, board.White,
		[]CellSnapshot{
			cell("d3", paper(2), board.White),
			cell("d4", scissors(3), board.Black),
		},
		[]cards.Card{rock(5), rock(9)}, []cards.Card{paper(8)})

	res, err := e.ApplyMove(rules.Move{Player: board.White, Card: rock(5), To: at("d4")})
	require.NoError(t, err)
	assert.True(t, res.Move.IsCapture)
	require.NotNil(t, res.Move.Captured)
	assert.Equal(t, scissors(3), *res.Move.Captured)

	c, owner, _ := e.GetGameState().Board.CardAt(at("d4"))
	assert.Equal(t, rock(5), c)
	assert.Equal(t, board.White, owner)
	assert.Equal(t, "P5:d4*", notation.Format(res.Move))

	analytics := e.Analytics()
	assert.Equal(t, map[string]int{"white": 1}, analytics[watchers.CapturesKey])
}

func TestScenarioVertexVictory(t *testing.T) {
	e := loadEngine(t, board.White,
		[]CellSnapshot{cell("a2", scissors(2), board.Black)},
		[]cards.Card{rock(5)}, []cards.Card{paper(6)})

	res, err := e.ApplyMove(rules.Move{Player: board.White, Card: rock(5), To: at("a1")})
	require.NoError(t, err)
	assert.True(t, res.Move.IsVertexControl)
	assert.True(t, res.Verdict.Ended)

	state := e.GetGameState()
	assert.Equal(t, rules.StatusCompleted, state.Status)
	assert.Equal(t, board.White, state.Winner)
	assert.Equal(t, rules.VictoryVertex, state.VictoryCondition)
	assert.Equal(t, EndReasonRules, state.EndReason)
	assert.Equal(t, testTime, state.EndedAt)
}

func TestCompletedGameIsImmutable(t *testing.T) {
	e := loadEngine(t, board.White,
		[]CellSnapshot{cell("a2", scissors(2), board.Black)},
		[]cards.Card{rock(5)}, []cards.Card{paper(6)})
	_, err := e.ApplyMove(rules.Move{Player: board.White, Card: rock(5), To: at("a1")})
	require.NoError(t, err)
	before := e.Snapshot()

	_, err = e.ApplyMove(rules.Move{Player: board.Black, Card: paper(6), To: at("b1")})
	assert.ErrorIs(t, err, ErrGameOver)
	assert.ErrorIs(t, e.Resign(board.Black), ErrGameOver)
	_, err = e.OfferDraw(board.Black)
	assert.ErrorIs(t, err, ErrGameOver)
	assert.ErrorIs(t, e.UpdatePlayerTime(board.Black, time.Second), ErrInvalidTransition)
	assert.ErrorIs(t, e.Pause(), ErrInvalidTransition)
	assert.ErrorIs(t, e.Abort(), ErrGameOver)
	assert.Empty(t, e.GetValidMoves())

	assert.Equal(t, before, e.Snapshot())
}

func TestLoopCreatesHole(t *testing.T) {
	e := loadEngine(t, board.White,
		[]CellSnapshot{
			cell("c2", rock(2), board.White),
			cell("c4", paper(9), board.Black),
			cell("b3", scissors(8), board.White),
			cell("d4", rock(5), board.Black),
			cell("d2", scissors(3), board.White),
		},
		[]cards.Card{paper(7), paper(1)}, []cards.Card{scissors(11)})

	var seen []rules.EventType
	e.Events().Subscribe(func(ev rules.Event) { seen = append(seen, ev.Type) })

	res, err := e.ApplyMove(rules.Move{Player: board.White, Card: paper(7), To: at("d3")})
	require.NoError(t, err)
	assert.True(t, res.Move.IsLoopTrigger)
	assert.Equal(t, rules.LoopSymbolic, res.Move.LoopType)
	assert.Equal(t, []board.Coord{at("c3")}, res.Move.Holes)
	assert.True(t, e.GetGameState().Board.IsHole(at("c3")))

	assert.Equal(t, []rules.EventType{
		rules.EventCardPlaced,
		rules.EventLoopFormed,
		rules.EventHoleCreated,
		rules.EventTurnChanged,
	}, seen)

	loops := e.Analytics()[watchers.LoopsKey].(map[string]int)
	assert.Equal(t, 1, loops["symbolic"])
	assert.Equal(t, 1, loops["holes"])

	result := e.ValidateMove(rules.Move{Player: board.Black, Card: scissors(11), To: at("c3")})
	assert.Equal(t, rules.ReasonHole, result.Reason)
}

func TestCheckFlag(t *testing.T) {
	e := loadEngine(t, board.White,
		[]CellSnapshot{cell("c1", paper(3), board.Black)},
		[]cards.Card{rock(4), scissors(6)}, []cards.Card{rock(10), paper(11), paper(12)})

	res, err := e.ApplyMove(rules.Move{Player: board.White, Card: rock(4), To: at("b1")})
	require.NoError(t, err)
	assert.True(t, res.Move.IsCheck, "last card can reach a1")
	assert.Equal(t, "P4:b1+", notation.Format(res.Move))

	res, err = e.ApplyMove(rules.Move{Player: board.Black, Card: rock(10), To: at("d1")})
	require.NoError(t, err)
	assert.False(t, res.Move.IsCheck, "black still holds two cards")
}

func TestReverserMove(t *testing.T) {
	e := loadEngine(t, board.White,
		[]CellSnapshot{
			cell("a1", scissors(4), board.Black),
			cell("a2", scissors(9), board.Black),
			cell("b1", scissors(2), board.White),
		},
		[]cards.Card{rock(3), rock(8)}, []cards.Card{paper(5)})

	res, err := e.ApplyMove(rules.Move{Player: board.White, Card: rock(3), To: at("a1")})
	require.NoError(t, err)
	assert.Equal(t, []board.Coord{at("a2")}, res.Move.ReverserCaptures)
	assert.Equal(t, 2, res.Move.CaptureCount())

	state := e.GetGameState()
	assert.Equal(t, board.White, state.Board.Owner(at("a2")))
	assert.Equal(t, board.White, state.Board.Owner(at("b1")), "own neighbour stays put")
	assert.Equal(t, rules.StatusCompleted, state.Status)
	assert.Equal(t, rules.VictoryReverser, state.VictoryCondition)
	assert.Equal(t, board.White, state.Winner)
}

func TestTurnStaysWhenOpponentIsOut(t *testing.T) {
	e := loadEngine(t, board.White,
		[]CellSnapshot{cell("c3", rock(1), board.Black)},
		[]cards.Card{paper(2), paper(3)}, nil)

	_, err := e.ApplyMove(rules.Move{Player: board.White, Card: paper(2), To: at("c4")})
	require.NoError(t, err)
	assert.Equal(t, board.White, e.GetGameState().Turn)
}

func TestUpdatePlayerTimeTimeout(t *testing.T) {
	e := loadEngine(t, board.White, nil, []cards.Card{rock(1)}, []cards.Card{paper(1)})

	require.NoError(t, e.UpdatePlayerTime(board.White, 4*time.Minute))
	assert.Equal(t, 6*time.Minute, e.GetGameState().Players[board.White].Remaining)
	assert.Equal(t, rules.StatusActive, e.Status())

	assert.Error(t, e.UpdatePlayerTime(board.White, -time.Second))

	require.NoError(t, e.UpdatePlayerTime(board.White, 7*time.Minute))
	state := e.GetGameState()
	assert.Equal(t, time.Duration(0), state.Players[board.White].Remaining)
	assert.Equal(t, rules.StatusCompleted, state.Status)
	assert.Equal(t, board.Black, state.Winner)
	assert.Equal(t, rules.VictoryExhaustion, state.VictoryCondition)
	assert.Equal(t, EndReasonTimeout, state.EndReason)
}

func TestResign(t *testing.T) {
	e := loadEngine(t, board.White, nil, []cards.Card{rock(1)}, []cards.Card{paper(1)})
	require.NoError(t, e.Resign(board.White))

	state := e.GetGameState()
	assert.Equal(t, rules.StatusCompleted, state.Status)
	assert.Equal(t, board.Black, state.Winner)
	assert.Equal(t, rules.VictoryNone, state.VictoryCondition)
	assert.Equal(t, EndReasonResignation, state.EndReason)
}

func TestDrawOffer(t *testing.T) {
	e := loadEngine(t, board.White, nil, []cards.Card{rock(1), rock(2)}, []cards.Card{paper(1)})

	agreed, err := e.OfferDraw(board.White)
	require.NoError(t, err)
	assert.False(t, agreed)
	assert.Equal(t, board.White, e.GetGameState().DrawOffer)

	// Offering twice does not accept your own offer.
	agreed, err = e.OfferDraw(board.White)
	require.NoError(t, err)
	assert.False(t, agreed)

	// A move withdraws the offer.
	_, err = e.ApplyMove(rules.Move{Player: board.White, Card: rock(1), To: at("c3")})
	require.NoError(t, err)
	assert.Equal(t, board.None, e.GetGameState().DrawOffer)

	agreed, err = e.OfferDraw(board.Black)
	require.NoError(t, err)
	assert.False(t, agreed)
	agreed, err = e.OfferDraw(board.White)
	require.NoError(t, err)
	assert.True(t, agreed)

	state := e.GetGameState()
	assert.Equal(t, rules.StatusCompleted, state.Status)
	assert.Equal(t, board.None, state.Winner)
	assert.Equal(t, EndReasonDrawAgreed, state.EndReason)
}

func TestPauseResume(t *testing.T) {
	e := loadEngine(t, board.White, nil, []cards.Card{rock(1)}, []cards.Card{paper(1)})

	require.NoError(t, e.Pause())
	assert.ErrorIs(t, e.Pause(), ErrInvalidTransition)

	_, err := e.ApplyMove(rules.Move{Player: board.White, Card: rock(1), To: at("c3")})
	var illegal *IllegalMoveError
	require.ErrorAs(t, err, &illegal)
	assert.Equal(t, rules.ReasonStatus, illegal.Result.Reason)
	assert.ErrorIs(t, e.UpdatePlayerTime(board.White, time.Second), ErrInvalidTransition)

	require.NoError(t, e.Resume())
	assert.ErrorIs(t, e.Resume(), ErrInvalidTransition)
	_, err = e.ApplyMove(rules.Move{Player: board.White, Card: rock(1), To: at("c3")})
	assert.NoError(t, err)
}

func TestAbort(t *testing.T) {
	e := seededEngine(t, 3)
	require.NoError(t, e.Abort())

	state := e.GetGameState()
	assert.Equal(t, rules.StatusAborted, state.Status)
	assert.Equal(t, EndReasonAborted, state.EndReason)
	_, err := e.SetupInitialPosition()
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestGetGameStateIsACopy(t *testing.T) {
	e := loadEngine(t, board.White, nil, []cards.Card{rock(1)}, []cards.Card{paper(1)})

	state := e.GetGameState()
	state.Hand(board.White).Remove(rock(1))
	_, err := state.Board.Place(at("a1"), rock(13), board.Black)
	require.NoError(t, err)

	fresh := e.GetGameState()
	assert.True(t, fresh.Hand(board.White).Contains(rock(1)))
	assert.True(t, fresh.Board.IsEmpty())
}

func TestGetValidMoves(t *testing.T) {
	e := loadEngine(t, board.Black,
		[]CellSnapshot{
			cell("a1", rock(5), board.White),
			cell("a2", rock(7), board.White),
		},
		nil, []cards.Card{scissors(3), paper(2)})

	// Only paper can take the rocks; both cards reach the empty neighbours.
	assert.ElementsMatch(t,
		[]board.Coord{at("a1"), at("a2"), at("a3"), at("b1"), at("b2")},
		e.GetValidMoves())
	assert.ElementsMatch(t,
		[]board.Coord{at("a3"), at("b1"), at("b2")},
		e.ValidMovesForCard(scissors(3)))
}

func TestNotificationHandler(t *testing.T) {
	e := loadEngine(t, board.White, nil, []cards.Card{rock(1), rock(2)}, []cards.Card{paper(1)})

	var got []GameNotification
	e.SetNotificationHandler(func(n GameNotification) { got = append(got, n) })

	_, err := e.ApplyMove(rules.Move{Player: board.White, Card: rock(1), To: at("e5")})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, rules.EventCardPlaced, got[0].Type)
	assert.Equal(t, "white", got[0].Player)
	assert.Equal(t, "e5", got[0].Data["cell"])
	assert.Equal(t, rules.EventTurnChanged, got[1].Type)
	assert.Equal(t, "black", got[1].Player)
}

func TestSelfPlayFinishes(t *testing.T) {
	for seed := uint64(1); seed <= 20; seed++ {
		e := seededEngine(t, seed)
		_, err := e.SetupInitialPosition()
		require.NoError(t, err)

		bots := map[board.Color]player.Player{
			board.White: player.NewSeededRandomBot("white", seed),
			board.Black: player.NewSeededRandomBot("black", seed+100),
		}
		for ply := 0; e.Status() == rules.StatusActive; ply++ {
			require.Less(t, ply, 2*DefaultHandSize, "game did not end")
			state := e.GetGameState()
			mv, err := bots[state.Turn].ChooseMove(state.Turn, state.Hand(state.Turn).Cards(), e.ValidMovesForCard)
			require.NoError(t, err, "seed %d: player to move has no move", seed)
			_, err = e.ApplyMove(mv)
			require.NoError(t, err)
		}

		state := e.GetGameState()
		assert.Equal(t, rules.StatusCompleted, state.Status)
		assert.NotEqual(t, rules.VictoryNone, state.VictoryCondition)

		captured := 0
		for _, mv := range state.Moves {
			if mv.Captured != nil {
				captured++
			}
		}
		total := state.Board.OccupiedCount() + captured +
			state.Hand(board.White).Len() + state.Hand(board.Black).Len()
		assert.Equal(t, 2*DefaultHandSize, total, "seed %d: cards are neither created nor lost", seed)
	}
}
