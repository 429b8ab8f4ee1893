package rules

import (
	"github.com/skemino/skemino-server-go/internal/game/board"
	"github.com/skemino/skemino-server-go/internal/game/cards"
)

// Reason names the first check a move failed.
type Reason string

const (
	ReasonNone          Reason = ""
	ReasonTurn          Reason = "turn"
	ReasonStatus        Reason = "status"
	ReasonCardNotInHand Reason = "card_not_in_hand"
	ReasonOutOfBounds   Reason = "out_of_bounds"
	ReasonHole          Reason = "hole"
	ReasonAdjacency     Reason = "adjacency"
	ReasonCapture       Reason = "capture"
	ReasonReverser      Reason = "reverser"
)

var reasonMessages = map[Reason]string{
	ReasonTurn:          "It is not your turn",
	ReasonStatus:        "Game is not active",
	ReasonCardNotInHand: "Card is not in your hand",
	ReasonOutOfBounds:   "Destination is off the board",
	ReasonHole:          "Destination is a hole",
	ReasonAdjacency:     "Destination must be next to a placed card",
	ReasonCapture:       "Card does not beat the occupying card",
	ReasonReverser:      "Card does not beat every card around the controlled vertex",
}

// Message is a human-readable description of the reason.
func (r Reason) Message() string {
	return reasonMessages[r]
}

// ValidationResult is the outcome of validating a move. When Valid is true it
// also describes what the placement will do so the caller need not recompute it.
type ValidationResult struct {
	Valid   bool
	Reason  Reason
	Details map[string]string

	// Captured is the card on the destination that will be taken.
	Captured *cards.Card
	// Reverser is set when the destination is a vertex controlled by the opponent.
	Reverser bool
	// ReverserCaptures are the opponent cells around the vertex taken along with it.
	ReverserCaptures []board.Coord
}

func reject(reason Reason, details map[string]string) ValidationResult {
	return ValidationResult{Valid: false, Reason: reason, Details: details}
}

// Validate runs every legality check in order and stops at the first failure.
// It never mutates the board or the state.
func Validate(b *board.Board, state TurnState, mv Move) ValidationResult {
	if mv.Player != state.CurrentTurn() {
		return reject(ReasonTurn, map[string]string{
			"player":       mv.Player.String(),
			"current_turn": state.CurrentTurn().String(),
		})
	}
	if state.Status() != StatusActive {
		return reject(ReasonStatus, map[string]string{"status": state.Status().String()})
	}
	return CheckPlacement(b, state, mv.Player, mv.Card, mv.To)
}

// CheckPlacement runs the placement checks only (hand, bounds, hole, adjacency,
// capture, reverser). Turn and status are not consulted, so it can be asked
// about a player who is not on move.
func CheckPlacement(b *board.Board, hands Hands, player board.Color, card cards.Card, to board.Coord) ValidationResult {
	if !hands.Hand(player).Contains(card) {
		return reject(ReasonCardNotInHand, map[string]string{"card": card.String()})
	}
	if !to.InBounds() {
		return reject(ReasonOutOfBounds, map[string]string{"cell": to.String()})
	}
	if b.IsHole(to) {
		return reject(ReasonHole, map[string]string{"cell": to.String()})
	}
	if !b.IsEmpty() && !b.HasOccupiedNeighbor(to) {
		return reject(ReasonAdjacency, map[string]string{"cell": to.String()})
	}

	result := ValidationResult{Valid: true}

	defender, owner, occupied := b.CardAt(to)
	if !occupied {
		return result
	}
	if outcome := cards.Compare(card, defender); outcome != cards.Win {
		return reject(ReasonCapture, map[string]string{
			"card":     card.String(),
			"defender": defender.String(),
			"outcome":  outcome.String(),
		})
	}
	captured := defender
	result.Captured = &captured

	opponent := player.Opponent()
	if to.IsVertex() && owner == opponent {
		targets, blocker, ok := reverserTargets(b, card, to, opponent)
		if !ok {
			return reject(ReasonReverser, map[string]string{
				"card":    card.String(),
				"vertex":  to.String(),
				"blocker": blocker.String(),
			})
		}
		result.Reverser = true
		result.ReverserCaptures = targets
	}
	return result
}

// reverserTargets checks that card beats every occupied cell adjacent to the
// vertex, whoever owns it, and returns the opponent cells among them. On
// failure it returns the first cell that holds.
func reverserTargets(b *board.Board, card cards.Card, vertex board.Coord, opponent board.Color) ([]board.Coord, board.Coord, bool) {
	var targets []board.Coord
	for _, n := range b.OccupiedNeighbors(vertex) {
		neighbour, owner, _ := b.CardAt(n)
		if !cards.Beats(card, neighbour) {
			return nil, n, false
		}
		if owner == opponent {
			targets = append(targets, n)
		}
	}
	return targets, board.Coord{}, true
}

// ValidMovesForCard lists every cell where card could legally land for player.
func ValidMovesForCard(b *board.Board, hands Hands, card cards.Card, player board.Color) []board.Coord {
	var out []board.Coord
	for _, c := range board.All() {
		if CheckPlacement(b, hands, player, card, c).Valid {
			out = append(out, c)
		}
	}
	return out
}

// ValidMoves is the union of destinations over the player's whole hand.
func ValidMoves(b *board.Board, hands Hands, player board.Color) []board.Coord {
	hand := hands.Hand(player).Cards()
	var out []board.Coord
	for _, c := range board.All() {
		for _, card := range hand {
			if CheckPlacement(b, hands, player, card, c).Valid {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// HasAnyMove reports whether player can place any card at all.
func HasAnyMove(b *board.Board, hands Hands, player board.Color) bool {
	for _, card := range hands.Hand(player).Cards() {
		for _, c := range board.All() {
			if CheckPlacement(b, hands, player, card, c).Valid {
				return true
			}
		}
	}
	return false
}
