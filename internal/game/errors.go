package game

import (
	"errors"
	"fmt"

	"github.com/skemino/skemino-server-go/internal/game/rules"
)

var (
	// ErrGameNotFound is returned by the manager for unknown game IDs.
	ErrGameNotFound = errors.New("game not found")
	// ErrGameExists is returned when registering a duplicate game ID.
	ErrGameExists = errors.New("game already exists")
	// ErrGameOver is returned for any mutation after the game finished.
	ErrGameOver = errors.New("game is over")
	// ErrInvalidTransition is returned for lifecycle calls in the wrong status.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrIllegalMove is returned by ApplyMove for a move that fails validation.
	ErrIllegalMove = errors.New("illegal move")
	// ErrInvalidState is returned by LoadGameState for inconsistent snapshots.
	ErrInvalidState = errors.New("invalid game state")
)

// IllegalMoveError carries the validation result of a rejected ApplyMove.
type IllegalMoveError struct {
	Move   rules.Move
	Result rules.ValidationResult
}

func (e *IllegalMoveError) Error() string {
	return fmt.Sprintf("illegal move %s to %s by %s: %s",
		e.Move.Card, e.Move.To, e.Move.Player, e.Result.Reason)
}

// Is makes errors.Is(err, ErrIllegalMove) match.
func (e *IllegalMoveError) Is(target error) bool {
	return target == ErrIllegalMove
}
