package board

import (
	"errors"
	"fmt"

	"github.com/skemino/skemino-server-go/internal/game/cards"
)

var (
	// ErrOutOfBounds is returned for coordinates outside the grid.
	ErrOutOfBounds = errors.New("cell out of bounds")
	// ErrHole is returned when placing on a hole.
	ErrHole = errors.New("cell is a hole")
	// ErrOccupied is returned when marking an occupied cell as a hole.
	ErrOccupied = errors.New("cell is occupied")
	// ErrEmpty is returned when an operation needs a card that is not there.
	ErrEmpty = errors.New("cell is empty")
)

type cell struct {
	card     cards.Card
	occupied bool
	owner    Color
	hole     bool
}

// Cell is a read-only view of one board cell.
type Cell struct {
	Coord    Coord
	Card     cards.Card
	Occupied bool
	Owner    Color
	Hole     bool
	Vertex   bool
	Quadrant int
}

// Board is the 6x6 grid. A cell with a card always has an owner and a hole
// never holds a card. The zero value is not usable; call New.
type Board struct {
	cells    [Size][Size]cell
	occupied int
}

// New returns an empty board.
func New() *Board {
	return &Board{}
}

// Clone returns an independent copy of the board.
func (b *Board) Clone() *Board {
	cp := *b
	return &cp
}

func (b *Board) at(c Coord) *cell {
	return &b.cells[c.File][c.Rank]
}

// At returns a view of the cell at c. Out-of-bounds coordinates yield a zero view.
func (b *Board) At(c Coord) Cell {
	if !c.InBounds() {
		return Cell{Coord: c}
	}
	raw := b.at(c)
	return Cell{
		Coord:    c,
		Card:     raw.card,
		Occupied: raw.occupied,
		Owner:    raw.owner,
		Hole:     raw.hole,
		Vertex:   c.IsVertex(),
		Quadrant: c.Quadrant(),
	}
}

// Place puts card at c for owner, returning the card it replaced, if any.
// No rules are checked here beyond bounds and holes.
func (b *Board) Place(c Coord, card cards.Card, owner Color) (*cards.Card, error) {
	if !c.InBounds() {
		return nil, fmt.Errorf("place at %s: %w", c, ErrOutOfBounds)
	}
	if owner == None {
		return nil, fmt.Errorf("place at %s: card needs an owner", c)
	}
	raw := b.at(c)
	if raw.hole {
		return nil, fmt.Errorf("place at %s: %w", c, ErrHole)
	}

	var captured *cards.Card
	if raw.occupied {
		prev := raw.card
		captured = &prev
	} else {
		b.occupied++
	}
	raw.card = card
	raw.occupied = true
	raw.owner = owner
	return captured, nil
}

// Remove clears the card at c and returns it.
func (b *Board) Remove(c Coord) (cards.Card, bool) {
	if !c.InBounds() {
		return cards.Card{}, false
	}
	raw := b.at(c)
	if !raw.occupied {
		return cards.Card{}, false
	}
	removed := raw.card
	*raw = cell{hole: raw.hole}
	b.occupied--
	return removed, true
}

// SetOwner transfers an occupied cell to owner.
func (b *Board) SetOwner(c Coord, owner Color) error {
	if !c.InBounds() {
		return fmt.Errorf("set owner at %s: %w", c, ErrOutOfBounds)
	}
	raw := b.at(c)
	if !raw.occupied {
		return fmt.Errorf("set owner at %s: %w", c, ErrEmpty)
	}
	if owner == None {
		return fmt.Errorf("set owner at %s: card needs an owner", c)
	}
	raw.owner = owner
	return nil
}

// MarkHole makes an empty cell permanently unplayable.
func (b *Board) MarkHole(c Coord) error {
	if !c.InBounds() {
		return fmt.Errorf("mark hole at %s: %w", c, ErrOutOfBounds)
	}
	raw := b.at(c)
	if raw.occupied {
		return fmt.Errorf("mark hole at %s: %w", c, ErrOccupied)
	}
	raw.hole = true
	return nil
}

// CardAt returns the card and owner at c.
func (b *Board) CardAt(c Coord) (cards.Card, Color, bool) {
	if !c.InBounds() {
		return cards.Card{}, None, false
	}
	raw := b.at(c)
	return raw.card, raw.owner, raw.occupied
}

// IsOccupied reports whether a card sits at c.
func (b *Board) IsOccupied(c Coord) bool {
	return c.InBounds() && b.at(c).occupied
}

// Owner returns the owner of c, or None.
func (b *Board) Owner(c Coord) Color {
	if !c.InBounds() {
		return None
	}
	return b.at(c).owner
}

// IsHole reports whether c is a hole.
func (b *Board) IsHole(c Coord) bool {
	return c.InBounds() && b.at(c).hole
}

// OccupiedCount returns the number of cells holding a card.
func (b *Board) OccupiedCount() int {
	return b.occupied
}

// IsEmpty reports whether no card has been placed.
func (b *Board) IsEmpty() bool {
	return b.occupied == 0
}

// OccupiedNeighbors returns the orthogonal neighbours of c that hold a card.
func (b *Board) OccupiedNeighbors(c Coord) []Coord {
	var out []Coord
	for _, n := range c.Neighbors() {
		if b.at(n).occupied {
			out = append(out, n)
		}
	}
	return out
}

// HasOccupiedNeighbor reports whether any orthogonal neighbour of c holds a card.
func (b *Board) HasOccupiedNeighbor(c Coord) bool {
	for _, n := range c.Neighbors() {
		if b.at(n).occupied {
			return true
		}
	}
	return false
}

// EmptyCells lists cells with no card and no hole.
func (b *Board) EmptyCells() []Coord {
	var out []Coord
	for _, c := range All() {
		raw := b.at(c)
		if !raw.occupied && !raw.hole {
			out = append(out, c)
		}
	}
	return out
}

// OccupiedCells lists cells holding a card.
func (b *Board) OccupiedCells() []Coord {
	var out []Coord
	for _, c := range All() {
		if b.at(c).occupied {
			out = append(out, c)
		}
	}
	return out
}

// Holes lists every hole on the board.
func (b *Board) Holes() []Coord {
	var out []Coord
	for _, c := range All() {
		if b.at(c).hole {
			out = append(out, c)
		}
	}
	return out
}

// CellsOwnedBy lists the cells currently owned by color.
func (b *Board) CellsOwnedBy(color Color) []Coord {
	var out []Coord
	for _, c := range All() {
		raw := b.at(c)
		if raw.occupied && raw.owner == color {
			out = append(out, c)
		}
	}
	return out
}

// VertexController returns who holds vertex v and whether that control is
// exclusive. Exclusivity is derived from the quadrant center's owner.
func (b *Board) VertexController(v Coord) (Color, bool) {
	if !v.IsVertex() {
		return None, false
	}
	owner := b.Owner(v)
	if owner == None {
		return None, false
	}
	center := QuadrantCenter(v.Quadrant())
	return owner, b.Owner(center) == owner
}
