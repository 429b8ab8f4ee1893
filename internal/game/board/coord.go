package board

import (
	"fmt"
	"strings"
)

// Size is the width and height of the board.
const Size = 6

// Coord addresses a cell by zero-based file (a..f) and rank (1..6).
type Coord struct {
	File int8
	Rank int8
}

// Vertices are the four corner cells a1, f1, a6, f6 (quadrants 1..4).
var Vertices = [4]Coord{{0, 0}, {5, 0}, {0, 5}, {5, 5}}

// QuadrantCenters are b2, e2, b5, e5 (quadrants 1..4).
var QuadrantCenters = [4]Coord{{1, 1}, {4, 1}, {1, 4}, {4, 4}}

// C builds a coordinate from a file letter and a one-based rank, e.g. C('d', 3).
func C(file byte, rank int) Coord {
	return Coord{File: int8(file - 'a'), Rank: int8(rank - 1)}
}

// ParseCoord parses the two-character form used at the boundary, e.g. "d3".
func ParseCoord(text string) (Coord, error) {
	s := strings.ToLower(strings.TrimSpace(text))
	if len(s) != 2 {
		return Coord{}, fmt.Errorf("invalid cell %q", text)
	}
	c := Coord{File: int8(s[0]) - 'a', Rank: int8(s[1]) - '1'}
	if !c.InBounds() {
		return Coord{}, fmt.Errorf("cell %q is off the board", text)
	}
	return c, nil
}

// MustParseCoord is ParseCoord for literals known to be valid.
func MustParseCoord(text string) Coord {
	c, err := ParseCoord(text)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Coord) String() string {
	if !c.InBounds() {
		return fmt.Sprintf("(%d,%d)", c.File, c.Rank)
	}
	return string([]byte{byte('a' + c.File), byte('1' + c.Rank)})
}

// InBounds reports whether the coordinate lies on the 6x6 grid.
func (c Coord) InBounds() bool {
	return c.File >= 0 && c.File < Size && c.Rank >= 0 && c.Rank < Size
}

// OnEdge reports whether the cell touches the border of the board.
func (c Coord) OnEdge() bool {
	return c.File == 0 || c.Rank == 0 || c.File == Size-1 || c.Rank == Size-1
}

var directions = [4][2]int8{{0, 1}, {1, 0}, {0, -1}, {-1, 0}}

// Neighbors returns the orthogonal neighbours inside the grid; there is no wraparound.
func (c Coord) Neighbors() []Coord {
	out := make([]Coord, 0, 4)
	for _, d := range directions {
		n := Coord{File: c.File + d[0], Rank: c.Rank + d[1]}
		if n.InBounds() {
			out = append(out, n)
		}
	}
	return out
}

// Adjacent reports whether c and other share an edge.
func (c Coord) Adjacent(other Coord) bool {
	df, dr := c.File-other.File, c.Rank-other.Rank
	return (df == 0 && (dr == 1 || dr == -1)) || (dr == 0 && (df == 1 || df == -1))
}

// Quadrant returns 1..4: files a-c/d-f split 1|2 on ranks 1-3 and 3|4 on ranks 4-6.
func (c Coord) Quadrant() int {
	q := 1
	if c.File >= Size/2 {
		q++
	}
	if c.Rank >= Size/2 {
		q += 2
	}
	return q
}

// IsVertex reports whether c is one of the four corners.
func (c Coord) IsVertex() bool {
	for _, v := range Vertices {
		if v == c {
			return true
		}
	}
	return false
}

// IsQuadrantCenter reports whether c is b2, e2, b5 or e5.
func (c Coord) IsQuadrantCenter() bool {
	for _, q := range QuadrantCenters {
		if q == c {
			return true
		}
	}
	return false
}

// QuadrantVertex returns the vertex of quadrant q (1..4).
func QuadrantVertex(q int) Coord {
	return Vertices[q-1]
}

// QuadrantCenter returns the center cell of quadrant q (1..4).
func QuadrantCenter(q int) Coord {
	return QuadrantCenters[q-1]
}

// All returns every cell, rank-major from a1 to f6.
func All() []Coord {
	out := make([]Coord, 0, Size*Size)
	for r := int8(0); r < Size; r++ {
		for f := int8(0); f < Size; f++ {
			out = append(out, Coord{File: f, Rank: r})
		}
	}
	return out
}

// MarshalText encodes the cell in its "d3" form.
func (c Coord) MarshalText() ([]byte, error) {
	if !c.InBounds() {
		return nil, fmt.Errorf("cannot encode off-board cell %s", c)
	}
	return []byte(c.String()), nil
}

// UnmarshalText decodes the "d3" form.
func (c *Coord) UnmarshalText(text []byte) error {
	parsed, err := ParseCoord(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
