package game

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/skemino/skemino-server-go/internal/game/board"
	"github.com/skemino/skemino-server-go/internal/game/cards"
	"github.com/skemino/skemino-server-go/internal/game/rules"
	"github.com/skemino/skemino-server-go/internal/game/watchers"
)

const (
	// DefaultHandSize is the number of cards dealt to each player.
	DefaultHandSize = 19
	// DefaultInitialTime is each player's clock at the start of a game.
	DefaultInitialTime = 10 * time.Minute
)

// Random is the engine's source of randomness: the deal shuffle and the
// opening dice. *rand.Rand satisfies it.
type Random interface {
	IntN(n int) int
	Shuffle(n int, swap func(i, j int))
}

// Options configures a new engine. Zero values pick the defaults.
type Options struct {
	GameID      string
	HandSize    int
	InitialTime time.Duration
	Scoring     rules.Scoring
	Rand        Random
	Clock       func() time.Time
	Logger      *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.GameID == "" {
		o.GameID = uuid.NewString()
	}
	if o.HandSize == 0 {
		o.HandSize = DefaultHandSize
	}
	if o.InitialTime == 0 {
		o.InitialTime = DefaultInitialTime
	}
	if o.Scoring == (rules.Scoring{}) {
		o.Scoring = rules.DefaultScoring
	}
	if o.Rand == nil {
		seed := uint64(time.Now().UnixNano())
		o.Rand = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// GameNotification is relayed to an installed NotificationHandler for every
// rules event.
type GameNotification struct {
	Type      rules.EventType
	GameID    string
	Player    string
	Timestamp time.Time
	Data      map[string]interface{}
}

// NotificationHandler receives game notifications, typically a session layer
// forwarding them to clients.
type NotificationHandler func(notification GameNotification)

// MoveResult is what ApplyMove produced.
type MoveResult struct {
	Move    rules.Move
	Verdict rules.Verdict
	State   *GameState
}

// Engine runs a single game. It performs no locking of game state; callers
// serialize access (see Manager).
type Engine struct {
	logger  *zap.Logger
	rng     Random
	clock   func() time.Time
	scoring rules.Scoring

	state    *GameState
	events   *rules.EventBus
	watchers *rules.WatcherRegistry

	handlerMu           sync.RWMutex
	notificationHandler NotificationHandler
}

// NewEngine deals a new game. Both hands come from a single shuffle of one
// deck, so they never share a card.
func NewEngine(opts Options) (*Engine, error) {
	opts = opts.withDefaults()
	if opts.HandSize < 1 || 2*opts.HandSize > cards.DeckSize {
		return nil, fmt.Errorf("hand size %d out of range 1..%d", opts.HandSize, cards.DeckSize/2)
	}
	if opts.InitialTime < 0 {
		return nil, fmt.Errorf("initial time %s must be positive", opts.InitialTime)
	}

	deck := cards.NewDeck()
	deck.Shuffle(opts.Rand)
	players := make(map[board.Color]*PlayerState, 2)
	for _, color := range board.Colors {
		dealt, err := deck.Draw(opts.HandSize)
		if err != nil {
			return nil, fmt.Errorf("failed to deal %s: %w", color, err)
		}
		players[color] = &PlayerState{Hand: cards.NewHand(dealt), Remaining: opts.InitialTime}
	}

	e := newEngine(opts)
	e.state = &GameState{
		ID:      opts.GameID,
		Board:   board.New(),
		Players: players,
		Status:  rules.StatusWaiting,
	}
	e.logger.Debug("dealt game",
		zap.String("game_id", opts.GameID),
		zap.Int("hand_size", opts.HandSize),
		zap.Int("deck_remaining", deck.Remaining()),
	)
	return e, nil
}

// LoadEngine restores an engine from a snapshot.
func LoadEngine(snap *Snapshot, opts Options) (*Engine, error) {
	opts.GameID = snap.GameID
	e := newEngine(opts.withDefaults())
	if err := e.LoadGameState(snap); err != nil {
		return nil, err
	}
	return e, nil
}

func newEngine(opts Options) *Engine {
	e := &Engine{
		logger:   opts.Logger,
		rng:      opts.Rand,
		clock:    opts.Clock,
		scoring:  opts.Scoring,
		events:   rules.NewEventBus(),
		watchers: rules.NewWatcherRegistry(),
	}
	e.watchers.AddWatcher(watchers.NewCapturesWatcher())
	e.watchers.AddWatcher(watchers.NewLoopsWatcher())
	e.watchers.AddWatcher(watchers.NewVertexWatcher())
	return e
}

// ID returns the game ID.
func (e *Engine) ID() string {
	return e.state.ID
}

// Events returns the engine's event bus.
func (e *Engine) Events() *rules.EventBus {
	return e.events
}

// Watchers returns the watcher registry fed by every event.
func (e *Engine) Watchers() *rules.WatcherRegistry {
	return e.watchers
}

// SetNotificationHandler installs handler for every subsequent event.
func (e *Engine) SetNotificationHandler(handler NotificationHandler) {
	e.handlerMu.Lock()
	defer e.handlerMu.Unlock()
	e.notificationHandler = handler
}

// Status returns the current lifecycle status.
func (e *Engine) Status() rules.Status {
	return e.state.Status
}

// GetGameState returns a copy of the current state.
func (e *Engine) GetGameState() *GameState {
	return e.state.Clone()
}

// Snapshot returns the plain-data form of the current state.
func (e *Engine) Snapshot() *Snapshot {
	return NewSnapshot(e.state, e.clock())
}

// LoadGameState replaces the engine's state with snap. On error the current
// state is kept.
func (e *Engine) LoadGameState(snap *Snapshot) error {
	state, err := snap.State()
	if err != nil {
		return fmt.Errorf("failed to load game state: %w", err)
	}
	e.state = state
	e.watchers.ResetWatchers()
	e.logger.Info("loaded game state",
		zap.String("game_id", state.ID),
		zap.String("status", state.Status.String()),
		zap.Int("moves", len(state.Moves)),
	)
	return nil
}

// SetupInitialPosition rolls the opening dice, places the rolled colour's
// first card on the rolled cell without any rule check and starts the game
// with that colour to move.
func (e *Engine) SetupInitialPosition() (rules.Move, error) {
	s := e.state
	if s.Status != rules.StatusWaiting {
		return rules.Move{}, fmt.Errorf("%w: setup requires status waiting, got %s", ErrInvalidTransition, s.Status)
	}

	dice := Dice{
		Number: e.rng.IntN(board.Size) + 1,
		Letter: string(rune('a' + e.rng.IntN(board.Size))),
		Color:  board.Colors[e.rng.IntN(len(board.Colors))],
	}
	to := dice.Cell()
	hand := s.Hand(dice.Color)
	card, ok := hand.First()
	if !ok {
		return rules.Move{}, fmt.Errorf("%s has no card to open with", dice.Color)
	}
	hand.Remove(card)
	if _, err := s.Board.Place(to, card, dice.Color); err != nil {
		return rules.Move{}, fmt.Errorf("failed to place opening card: %w", err)
	}

	now := e.clock()
	mv := rules.Move{
		ID:              uuid.NewString(),
		Turn:            0,
		Player:          dice.Color,
		Card:            card,
		To:              to,
		Setup:           true,
		IsVertexControl: rules.CheckVertexControl(s.Board, to, dice.Color).IsControlled,
		Timestamp:       now,
	}
	s.Moves = append(s.Moves, mv)
	s.Dice = &dice
	s.Turn = dice.Color
	s.Status = rules.StatusActive
	s.StartedAt = now

	e.logger.Info("game started",
		zap.String("game_id", s.ID),
		zap.String("cell", to.String()),
		zap.String("card", card.String()),
		zap.String("first_player", dice.Color.String()),
	)

	started := e.newEvent(rules.EventGameStarted, dice.Color)
	started.Cell = to.String()
	started.Card = card.String()
	started.Metadata["dice"] = fmt.Sprintf("%s%d", dice.Letter, dice.Number)
	e.publish(started)
	e.publishPlacement(mv)
	e.publishTurn()
	return mv, nil
}

// ValidateMove checks mv against the current state without changing it.
func (e *Engine) ValidateMove(mv rules.Move) rules.ValidationResult {
	return rules.Validate(e.state.Board, turnView{e.state}, mv)
}

// ApplyMove validates and plays mv. A move that fails validation returns an
// *IllegalMoveError and leaves the state untouched.
func (e *Engine) ApplyMove(mv rules.Move) (MoveResult, error) {
	s := e.state
	if s.Status.Terminal() {
		return MoveResult{}, fmt.Errorf("%w: %s", ErrGameOver, s.Status)
	}
	result := e.ValidateMove(mv)
	if !result.Valid {
		e.logger.Debug("rejected move",
			zap.String("game_id", s.ID),
			zap.String("player", mv.Player.String()),
			zap.String("card", mv.Card.String()),
			zap.String("cell", mv.To.String()),
			zap.String("reason", string(result.Reason)),
		)
		return MoveResult{}, &IllegalMoveError{Move: mv, Result: result}
	}

	mover := mv.Player
	s.Hand(mover).Remove(mv.Card)
	captured, err := s.Board.Place(mv.To, mv.Card, mover)
	if err != nil {
		// Validation already ruled out bounds and holes.
		return MoveResult{}, fmt.Errorf("failed to place validated move: %w", err)
	}
	for _, c := range result.ReverserCaptures {
		if err := s.Board.SetOwner(c, mover); err != nil {
			return MoveResult{}, fmt.Errorf("failed to flip %s: %w", c, err)
		}
	}

	s.TurnNumber++
	played := rules.Move{
		ID:               uuid.NewString(),
		Turn:             s.TurnNumber,
		Player:           mover,
		Card:             mv.Card,
		To:               mv.To,
		Captured:         captured,
		ReverserCaptures: append([]board.Coord(nil), result.ReverserCaptures...),
		IsCapture:        captured != nil,
		IsVertexControl:  rules.CheckVertexControl(s.Board, mv.To, mover).IsControlled,
		ThinkTime:        mv.ThinkTime,
		Timestamp:        e.clock(),
	}
	if loop, ok := rules.DetectLoop(s.Board, mv.To); ok {
		played.IsLoopTrigger = true
		played.LoopType = loop.Type
		for _, c := range rules.EnclosedCells(s.Board, loop) {
			if err := s.Board.MarkHole(c); err != nil {
				return MoveResult{}, fmt.Errorf("failed to mark hole %s: %w", c, err)
			}
			played.Holes = append(played.Holes, c)
		}
	}
	played.IsCheck = e.threatensVertexWin(mover)

	s.Moves = append(s.Moves, played)
	s.DrawOffer = board.None
	e.publishPlacement(played)

	verdict := rules.CheckVictory(rules.VictoryContext{
		Board:     s.Board,
		Hands:     s,
		Move:      played,
		Scoring:   e.scoring,
		Remaining: s.Remaining(),
	})
	if verdict.Ended {
		e.finish(verdict.Winner, verdict.Condition, EndReasonRules)
	} else {
		e.advanceTurn(mover)
	}

	return MoveResult{Move: played, Verdict: verdict, State: s.Clone()}, nil
}

// threatensVertexWin reports whether player is down to one card that can be
// placed on a vertex.
func (e *Engine) threatensVertexWin(player board.Color) bool {
	hand := e.state.Hand(player)
	last, ok := hand.First()
	if !ok || hand.Len() != 1 {
		return false
	}
	for _, c := range rules.ValidMovesForCard(e.state.Board, e.state, last, player) {
		if c.IsVertex() {
			return true
		}
	}
	return false
}

// advanceTurn passes the turn to the opponent, unless the opponent has no
// cards left and mover still does.
func (e *Engine) advanceTurn(mover board.Color) {
	e.state.Turn = rules.NextPlayer(e.state, mover)
	e.publishTurn()
}

func (e *Engine) finish(winner board.Color, condition rules.VictoryCondition, reason EndReason) {
	s := e.state
	s.Status = rules.StatusCompleted
	if reason == EndReasonAborted {
		s.Status = rules.StatusAborted
	}
	s.Winner = winner
	s.VictoryCondition = condition
	s.EndReason = reason
	s.DrawOffer = board.None
	s.EndedAt = e.clock()

	scores := rules.CalculateScores(s.Board, e.scoring)
	e.logger.Info("game ended",
		zap.String("game_id", s.ID),
		zap.String("status", s.Status.String()),
		zap.String("winner", winner.String()),
		zap.String("victory_condition", string(condition)),
		zap.String("end_reason", string(reason)),
		zap.Int("white_score", scores.White),
		zap.Int("black_score", scores.Black),
	)

	ended := e.newEvent(rules.EventGameEnded, winner)
	ended.Data = string(condition)
	ended.Metadata["end_reason"] = string(reason)
	ended.Metadata["status"] = s.Status.String()
	e.publish(ended)
}

// GetValidMoves returns every destination available to the player to move
// across their whole hand.
func (e *Engine) GetValidMoves() []board.Coord {
	s := e.state
	if s.Status != rules.StatusActive {
		return nil
	}
	return rules.ValidMoves(s.Board, s, s.Turn)
}

// ValidMovesForCard returns the legal destinations of card for the player to move.
func (e *Engine) ValidMovesForCard(card cards.Card) []board.Coord {
	s := e.state
	if s.Status != rules.StatusActive {
		return nil
	}
	return rules.ValidMovesForCard(s.Board, s, card, s.Turn)
}

// UpdatePlayerTime charges elapsed against player's clock. A clock reaching
// zero ends the game on time with the opponent winning.
func (e *Engine) UpdatePlayerTime(player board.Color, elapsed time.Duration) error {
	s := e.state
	if s.Status != rules.StatusActive {
		return fmt.Errorf("%w: clocks only run in an active game, got %s", ErrInvalidTransition, s.Status)
	}
	p, ok := s.Players[player]
	if !ok {
		return fmt.Errorf("unknown player %s", player)
	}
	if elapsed < 0 {
		return fmt.Errorf("elapsed time %s is negative", elapsed)
	}
	p.Remaining -= elapsed
	if p.Remaining < 0 {
		p.Remaining = 0
	}

	updated := e.newEvent(rules.EventTimeUpdated, player)
	updated.Amount = int(p.Remaining.Milliseconds())
	e.publish(updated)

	if p.Remaining == 0 {
		e.logger.Info("player ran out of time",
			zap.String("game_id", s.ID),
			zap.String("player", player.String()),
		)
		e.finish(player.Opponent(), rules.VictoryExhaustion, EndReasonTimeout)
	}
	return nil
}

// Resign ends the game with player's opponent as winner.
func (e *Engine) Resign(player board.Color) error {
	s := e.state
	if s.Status.Terminal() {
		return fmt.Errorf("%w: %s", ErrGameOver, s.Status)
	}
	if s.Status == rules.StatusWaiting {
		return fmt.Errorf("%w: cannot resign before setup", ErrInvalidTransition)
	}
	if _, ok := s.Players[player]; !ok {
		return fmt.Errorf("unknown player %s", player)
	}
	e.logger.Info("player resigned",
		zap.String("game_id", s.ID),
		zap.String("player", player.String()),
	)
	e.finish(player.Opponent(), rules.VictoryNone, EndReasonResignation)
	return nil
}

// OfferDraw records a draw offer from player. If the opponent already has an
// offer pending the game ends drawn and OfferDraw reports true.
func (e *Engine) OfferDraw(player board.Color) (bool, error) {
	s := e.state
	if s.Status.Terminal() {
		return false, fmt.Errorf("%w: %s", ErrGameOver, s.Status)
	}
	if s.Status == rules.StatusWaiting {
		return false, fmt.Errorf("%w: cannot offer a draw before setup", ErrInvalidTransition)
	}
	if _, ok := s.Players[player]; !ok {
		return false, fmt.Errorf("unknown player %s", player)
	}
	if s.DrawOffer == player.Opponent() {
		e.logger.Info("draw agreed", zap.String("game_id", s.ID))
		e.finish(board.None, rules.VictoryNone, EndReasonDrawAgreed)
		return true, nil
	}
	s.DrawOffer = player
	e.publish(e.newEvent(rules.EventDrawOffered, player))
	return false, nil
}

// Pause suspends an active game.
func (e *Engine) Pause() error {
	s := e.state
	if s.Status != rules.StatusActive {
		return fmt.Errorf("%w: cannot pause a %s game", ErrInvalidTransition, s.Status)
	}
	s.Status = rules.StatusPaused
	e.logger.Info("game paused", zap.String("game_id", s.ID))
	e.publish(e.newEvent(rules.EventGamePaused, board.None))
	return nil
}

// Resume continues a paused game.
func (e *Engine) Resume() error {
	s := e.state
	if s.Status != rules.StatusPaused {
		return fmt.Errorf("%w: cannot resume a %s game", ErrInvalidTransition, s.Status)
	}
	s.Status = rules.StatusActive
	e.logger.Info("game resumed", zap.String("game_id", s.ID))
	e.publish(e.newEvent(rules.EventGameResumed, board.None))
	return nil
}

// Abort terminates an unfinished game without a result.
func (e *Engine) Abort() error {
	if e.state.Status.Terminal() {
		return fmt.Errorf("%w: %s", ErrGameOver, e.state.Status)
	}
	e.finish(board.None, rules.VictoryNone, EndReasonAborted)
	return nil
}

// CalculateScores returns the current board score of both players.
func (e *Engine) CalculateScores() rules.Scores {
	return rules.CalculateScores(e.state.Board, e.scoring)
}

// Analytics summarises the game so far from the registered watchers.
func (e *Engine) Analytics() map[string]interface{} {
	s := e.state
	out := map[string]interface{}{
		"game_id":     s.ID,
		"status":      s.Status.String(),
		"turn_number": s.TurnNumber,
		"moves":       len(s.Moves),
		"holes":       len(s.Board.Holes()),
		"scores":      e.CalculateScores(),
	}
	for _, key := range e.watchers.Keys() {
		if r, ok := e.watchers.GetWatcher(key).(watchers.Reporter); ok {
			out[key] = r.Report()
		}
	}
	return out
}

func (e *Engine) publishPlacement(mv rules.Move) {
	placed := e.newEvent(rules.EventCardPlaced, mv.Player)
	placed.Cell = mv.To.String()
	placed.Card = mv.Card.String()
	placed.Amount = mv.Turn
	if mv.Setup {
		placed.Metadata["setup"] = "true"
	}
	e.publish(placed)

	if n := mv.CaptureCount(); n > 0 {
		captured := e.newEvent(rules.EventCardCaptured, mv.Player)
		captured.Cell = mv.To.String()
		if mv.Captured != nil {
			captured.Card = mv.Captured.String()
		}
		captured.Amount = n
		if len(mv.ReverserCaptures) > 0 {
			captured.Metadata["reverser"] = "true"
		}
		e.publish(captured)
	}
	if mv.IsVertexControl {
		vertex := e.newEvent(rules.EventVertexControlled, mv.Player)
		vertex.Cell = mv.To.String()
		if rules.CheckVertexControl(e.state.Board, mv.To, mv.Player).IsExclusive {
			vertex.Metadata["exclusive"] = "true"
		}
		e.publish(vertex)
	}
	if mv.IsLoopTrigger {
		loop := e.newEvent(rules.EventLoopFormed, mv.Player)
		loop.Cell = mv.To.String()
		loop.Data = string(mv.LoopType)
		e.publish(loop)
	}
	for _, h := range mv.Holes {
		hole := e.newEvent(rules.EventHoleCreated, mv.Player)
		hole.Cell = h.String()
		e.publish(hole)
	}
}

func (e *Engine) publishTurn() {
	turn := e.newEvent(rules.EventTurnChanged, e.state.Turn)
	turn.Amount = e.state.TurnNumber + 1
	e.publish(turn)
}

func (e *Engine) newEvent(eventType rules.EventType, player board.Color) rules.Event {
	event := rules.NewEvent(eventType, e.state.ID, "")
	if player != board.None {
		event.Player = player.String()
	}
	event.Time = e.clock()
	return event
}

// publish fans an event out to the bus, the watchers and the notification
// handler, in that order.
func (e *Engine) publish(event rules.Event) {
	e.events.Publish(event)
	e.watchers.NotifyWatchers(event)

	e.handlerMu.RLock()
	handler := e.notificationHandler
	e.handlerMu.RUnlock()
	if handler == nil {
		return
	}
	data := make(map[string]interface{}, len(event.Metadata)+4)
	for k, v := range event.Metadata {
		data[k] = v
	}
	if event.Cell != "" {
		data["cell"] = event.Cell
	}
	if event.Card != "" {
		data["card"] = event.Card
	}
	if event.Data != "" {
		data["data"] = event.Data
	}
	if event.Amount != 0 {
		data["amount"] = event.Amount
	}
	handler(GameNotification{
		Type:      event.Type,
		GameID:    event.GameID,
		Player:    event.Player,
		Timestamp: event.Time,
		Data:      data,
	})
}
