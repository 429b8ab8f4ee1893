package rules

import (
	"github.com/skemino/skemino-server-go/internal/game/board"
	"github.com/skemino/skemino-server-go/internal/game/cards"
)

// Loop is a formation triggered by a placement.
type Loop struct {
	Type  LoopType
	Cells []board.Coord
}

// DetectLoop inspects the card just placed at `at` and its occupied
// orthogonal neighbours. At least two neighbour cards are needed. Symbolic
// loops are checked before numeric ones and at most one is reported.
func DetectLoop(b *board.Board, at board.Coord) (Loop, bool) {
	placed, _, ok := b.CardAt(at)
	if !ok {
		return Loop{}, false
	}
	neighbours := b.OccupiedNeighbors(at)
	if len(neighbours) < 2 {
		return Loop{}, false
	}

	combined := make([]cards.Card, 0, len(neighbours)+1)
	for _, n := range neighbours {
		c, _, _ := b.CardAt(n)
		combined = append(combined, c)
	}
	combined = append(combined, placed)

	if cards.IsSymbolicLoop(combined) {
		return Loop{Type: LoopSymbolic, Cells: connectedGroup(at, neighbours)}, true
	}

	suit, ok := cards.NumericLoopSuit(combined)
	if !ok {
		return Loop{}, false
	}
	return Loop{Type: LoopNumeric, Cells: numericCells(b, at, placed, neighbours, suit)}, true
}

// connectedGroup walks the placement and its neighbour cells breadth-first,
// moving only between cells of the group that share an edge.
func connectedGroup(at board.Coord, neighbours []board.Coord) []board.Coord {
	member := map[board.Coord]bool{at: true}
	for _, n := range neighbours {
		member[n] = true
	}

	visited := map[board.Coord]bool{at: true}
	queue := []board.Coord{at}
	var group []board.Coord
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		group = append(group, current)
		for _, next := range current.Neighbors() {
			if member[next] && !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}
	return group
}

func isAceOrKing(c cards.Card, suit cards.Suit) bool {
	return c.Suit == suit && (c.Value == cards.Ace || c.Value == cards.King)
}

// numericCells returns the placement plus the neighbours holding the Ace and
// King of suit and one further card completing the loop.
func numericCells(b *board.Board, at board.Coord, placed cards.Card, neighbours []board.Coord, suit cards.Suit) []board.Coord {
	cells := []board.Coord{at}
	needExtra := isAceOrKing(placed, suit)
	var extra []board.Coord
	for _, n := range neighbours {
		c, _, _ := b.CardAt(n)
		if isAceOrKing(c, suit) {
			cells = append(cells, n)
			continue
		}
		extra = append(extra, n)
	}
	if needExtra && len(extra) > 0 {
		cells = append(cells, extra[0])
	}
	return cells
}

// EnclosedCells finds the empty regions sealed off by a loop. A region is a
// 4-connected group of empty cells; it is enclosed when none of its cells is
// on the board edge, every cell bordering it is occupied or a hole, and at
// least one bordering cell belongs to the loop.
func EnclosedCells(b *board.Board, loop Loop) []board.Coord {
	inLoop := make(map[board.Coord]bool, len(loop.Cells))
	for _, c := range loop.Cells {
		inLoop[c] = true
	}

	visited := make(map[board.Coord]bool)
	var enclosed []board.Coord
	for _, start := range b.EmptyCells() {
		if visited[start] {
			continue
		}
		region, sealed, touchesLoop := floodEmpty(b, start, visited, inLoop)
		if sealed && touchesLoop {
			enclosed = append(enclosed, region...)
		}
	}
	return enclosed
}

func floodEmpty(b *board.Board, start board.Coord, visited, inLoop map[board.Coord]bool) ([]board.Coord, bool, bool) {
	visited[start] = true
	queue := []board.Coord{start}
	var region []board.Coord
	sealed, touchesLoop := true, false
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		region = append(region, current)
		if current.OnEdge() {
			sealed = false
		}
		for _, next := range current.Neighbors() {
			switch {
			case b.IsOccupied(next):
				if inLoop[next] {
					touchesLoop = true
				}
			case b.IsHole(next):
			case !visited[next]:
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}
	return region, sealed, touchesLoop
}
