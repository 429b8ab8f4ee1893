package rules

import (
	"github.com/skemino/skemino-server-go/internal/game/board"
)

// VertexControl describes a player's hold on a cell.
type VertexControl struct {
	IsControlled bool
	IsExclusive  bool
}

// CheckVertexControl reports whether player occupies vertex c and, if so,
// also holds that quadrant's center. Exclusive implies controlled.
func CheckVertexControl(b *board.Board, c board.Coord, player board.Color) VertexControl {
	if !c.IsVertex() || player == board.None {
		return VertexControl{}
	}
	owner, exclusive := b.VertexController(c)
	if owner != player {
		return VertexControl{}
	}
	return VertexControl{IsControlled: true, IsExclusive: exclusive}
}

// ControlledVertices counts the vertices held by player.
func ControlledVertices(b *board.Board, player board.Color) int {
	n := 0
	for _, v := range board.Vertices {
		if CheckVertexControl(b, v, player).IsControlled {
			n++
		}
	}
	return n
}

// QuadrantControl summarises one quadrant.
type QuadrantControl struct {
	Quadrant   int
	Vertex     board.Coord
	Center     board.Coord
	Controller board.Color
	Exclusive  bool
	CenterHeld board.Color
}

// QuadrantSummary returns the control state of quadrants 1..4 in order.
func QuadrantSummary(b *board.Board) [4]QuadrantControl {
	var out [4]QuadrantControl
	for q := 1; q <= 4; q++ {
		v, center := board.QuadrantVertex(q), board.QuadrantCenter(q)
		owner, exclusive := b.VertexController(v)
		out[q-1] = QuadrantControl{
			Quadrant:   q,
			Vertex:     v,
			Center:     center,
			Controller: owner,
			Exclusive:  exclusive,
			CenterHeld: b.Owner(center),
		}
	}
	return out
}

// Strategic weights for VertexValue. Used for evaluation only.
const (
	vertexBaseValue     = 10
	vertexCenterValue   = 5
	vertexNeighborValue = 2
)

// VertexValue scores a vertex for position evaluation: a base value, a bonus
// when its quadrant center is occupied and a bonus per occupied neighbour.
// Non-vertex cells score zero.
func VertexValue(b *board.Board, c board.Coord) int {
	if !c.IsVertex() {
		return 0
	}
	value := vertexBaseValue
	if b.IsOccupied(board.QuadrantCenter(c.Quadrant())) {
		value += vertexCenterValue
	}
	value += vertexNeighborValue * len(b.OccupiedNeighbors(c))
	return value
}
