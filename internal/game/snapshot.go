package game

import (
	"fmt"
	"time"

	"github.com/skemino/skemino-server-go/internal/game/board"
	"github.com/skemino/skemino-server-go/internal/game/cards"
	"github.com/skemino/skemino-server-go/internal/game/rules"
)

// CellSnapshot is one non-empty cell.
type CellSnapshot struct {
	Cell  board.Coord `json:"cell"`
	Card  *cards.Card `json:"card,omitempty"`
	Owner board.Color `json:"owner"`
	Hole  bool        `json:"hole,omitempty"`
}

// PlayerSnapshot is one side's hand and clock.
type PlayerSnapshot struct {
	Color     board.Color   `json:"color"`
	Hand      []cards.Card  `json:"hand"`
	Remaining time.Duration `json:"remaining"`
}

// Snapshot is the plain-data form of a GameState, used for persistence,
// replays and network transfer.
type Snapshot struct {
	Version          int                    `json:"version"`
	GameID           string                 `json:"game_id"`
	Status           rules.Status           `json:"status"`
	Turn             board.Color            `json:"turn"`
	TurnNumber       int                    `json:"turn_number"`
	Cells            []CellSnapshot         `json:"cells"`
	Players          []PlayerSnapshot       `json:"players"`
	Moves            []rules.Move           `json:"moves"`
	Winner           board.Color            `json:"winner"`
	VictoryCondition rules.VictoryCondition `json:"victory_condition,omitempty"`
	EndReason        EndReason              `json:"end_reason,omitempty"`
	Dice             *Dice                  `json:"dice,omitempty"`
	DrawOffer        board.Color            `json:"draw_offer"`
	StartedAt        time.Time              `json:"started_at"`
	EndedAt          time.Time              `json:"ended_at"`
	Timestamp        time.Time              `json:"timestamp"`
}

const snapshotVersion = 1

// NewSnapshot converts a state into plain data.
func NewSnapshot(s *GameState, at time.Time) *Snapshot {
	snap := &Snapshot{
		Version:          snapshotVersion,
		GameID:           s.ID,
		Status:           s.Status,
		Turn:             s.Turn,
		TurnNumber:       s.TurnNumber,
		Moves:            append([]rules.Move(nil), s.Moves...),
		Winner:           s.Winner,
		VictoryCondition: s.VictoryCondition,
		EndReason:        s.EndReason,
		DrawOffer:        s.DrawOffer,
		StartedAt:        s.StartedAt,
		EndedAt:          s.EndedAt,
		Timestamp:        at,
	}
	for _, c := range board.All() {
		cell := s.Board.At(c)
		switch {
		case cell.Hole:
			snap.Cells = append(snap.Cells, CellSnapshot{Cell: c, Hole: true})
		case cell.Occupied:
			card := cell.Card
			snap.Cells = append(snap.Cells, CellSnapshot{Cell: c, Card: &card, Owner: cell.Owner})
		}
	}
	for _, color := range board.Colors {
		p, ok := s.Players[color]
		if !ok {
			continue
		}
		snap.Players = append(snap.Players, PlayerSnapshot{
			Color:     color,
			Hand:      p.Hand.Cards(),
			Remaining: p.Remaining,
		})
	}
	if s.Dice != nil {
		d := *s.Dice
		snap.Dice = &d
	}
	return snap
}

// State rebuilds a GameState, checking that the snapshot is consistent.
func (snap *Snapshot) State() (*GameState, error) {
	if snap.Version != snapshotVersion {
		return nil, fmt.Errorf("%w: unsupported snapshot version %d", ErrInvalidState, snap.Version)
	}
	if snap.GameID == "" {
		return nil, fmt.Errorf("%w: missing game id", ErrInvalidState)
	}
	if _, err := rules.ParseStatus(snap.Status.String()); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}

	seen := make(map[cards.Card]string)
	claim := func(c cards.Card, where string) error {
		if !c.Valid() {
			return fmt.Errorf("%w: invalid card %s in %s", ErrInvalidState, c, where)
		}
		if prev, dup := seen[c]; dup {
			return fmt.Errorf("%w: card %s in both %s and %s", ErrInvalidState, c, prev, where)
		}
		seen[c] = where
		return nil
	}

	b := board.New()
	for _, cs := range snap.Cells {
		if !cs.Cell.InBounds() {
			return nil, fmt.Errorf("%w: cell %v out of bounds", ErrInvalidState, cs.Cell)
		}
		if b.IsHole(cs.Cell) || b.IsOccupied(cs.Cell) {
			return nil, fmt.Errorf("%w: cell %s listed twice", ErrInvalidState, cs.Cell)
		}
		if cs.Hole {
			if cs.Card != nil {
				return nil, fmt.Errorf("%w: hole %s holds a card", ErrInvalidState, cs.Cell)
			}
			if err := b.MarkHole(cs.Cell); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
			}
			continue
		}
		if cs.Card == nil {
			return nil, fmt.Errorf("%w: cell %s has neither card nor hole", ErrInvalidState, cs.Cell)
		}
		if cs.Owner != board.White && cs.Owner != board.Black {
			return nil, fmt.Errorf("%w: card at %s has no owner", ErrInvalidState, cs.Cell)
		}
		if err := claim(*cs.Card, cs.Cell.String()); err != nil {
			return nil, err
		}
		if _, err := b.Place(cs.Cell, *cs.Card, cs.Owner); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
		}
	}

	players := make(map[board.Color]*PlayerState, 2)
	for _, ps := range snap.Players {
		if ps.Color != board.White && ps.Color != board.Black {
			return nil, fmt.Errorf("%w: player colour %s", ErrInvalidState, ps.Color)
		}
		if _, dup := players[ps.Color]; dup {
			return nil, fmt.Errorf("%w: player %s listed twice", ErrInvalidState, ps.Color)
		}
		for _, c := range ps.Hand {
			if err := claim(c, ps.Color.String()+" hand"); err != nil {
				return nil, err
			}
		}
		if ps.Remaining < 0 {
			return nil, fmt.Errorf("%w: negative clock for %s", ErrInvalidState, ps.Color)
		}
		players[ps.Color] = &PlayerState{Hand: cards.NewHand(ps.Hand), Remaining: ps.Remaining}
	}
	if len(players) != 2 {
		return nil, fmt.Errorf("%w: expected 2 players, got %d", ErrInvalidState, len(players))
	}
	if snap.Status == rules.StatusActive && snap.Turn != board.White && snap.Turn != board.Black {
		return nil, fmt.Errorf("%w: active game without a player to move", ErrInvalidState)
	}

	state := &GameState{
		ID:               snap.GameID,
		Board:            b,
		Players:          players,
		Turn:             snap.Turn,
		TurnNumber:       snap.TurnNumber,
		Status:           snap.Status,
		Moves:            append([]rules.Move(nil), snap.Moves...),
		Winner:           snap.Winner,
		VictoryCondition: snap.VictoryCondition,
		EndReason:        snap.EndReason,
		DrawOffer:        snap.DrawOffer,
		StartedAt:        snap.StartedAt,
		EndedAt:          snap.EndedAt,
	}
	if snap.Dice != nil {
		d := *snap.Dice
		state.Dice = &d
	}
	return state, nil
}
