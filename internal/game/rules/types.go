package rules

import (
	"fmt"
	"time"

	"github.com/skemino/skemino-server-go/internal/game/board"
	"github.com/skemino/skemino-server-go/internal/game/cards"
)

// Status is the lifecycle state of a game.
type Status int

const (
	StatusWaiting Status = iota
	StatusActive
	StatusPaused
	StatusCompleted
	StatusAborted
)

var statusNames = map[Status]string{
	StatusWaiting:   "waiting",
	StatusActive:    "active",
	StatusPaused:    "paused",
	StatusCompleted: "completed",
	StatusAborted:   "aborted",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status_%d", int(s))
}

// ParseStatus is the inverse of Status.String.
func ParseStatus(text string) (Status, error) {
	for s, name := range statusNames {
		if name == text {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown status %q", text)
}

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusAborted
}

// VictoryCondition names how a game was won under the rules.
type VictoryCondition string

const (
	VictoryNone VictoryCondition = ""
	// ERA1: last card placed on a vertex the mover controls.
	VictoryVertex VictoryCondition = "ERA1"
	// ERA2: the next player has no legal placement.
	VictorySaturation VictoryCondition = "ERA2"
	// ERA3: both hands empty or a clock ran out.
	VictoryExhaustion VictoryCondition = "ERA3"
	// ERA4: a reverser capture on a controlled vertex.
	VictoryReverser VictoryCondition = "ERA4"
)

// LoopType classifies a loop formed by a placement.
type LoopType string

const (
	LoopNone     LoopType = ""
	LoopSymbolic LoopType = "symbolic"
	LoopNumeric  LoopType = "numeric"
)

// Move is one placement. Moves are recorded once and never modified.
type Move struct {
	ID     string      `json:"id,omitempty"`
	Turn   int         `json:"turn"`
	Player board.Color `json:"player"`
	Card   cards.Card  `json:"card"`
	To     board.Coord `json:"to"`

	// Setup marks the unconditional opening placement chosen by the dice.
	Setup bool `json:"setup,omitempty"`

	Captured         *cards.Card   `json:"captured,omitempty"`
	ReverserCaptures []board.Coord `json:"reverser_captures,omitempty"`
	Holes            []board.Coord `json:"holes,omitempty"`
	LoopType         LoopType      `json:"loop_type,omitempty"`

	IsCapture       bool `json:"is_capture,omitempty"`
	IsVertexControl bool `json:"is_vertex_control,omitempty"`
	IsLoopTrigger   bool `json:"is_loop_trigger,omitempty"`
	IsCheck         bool `json:"is_check,omitempty"`

	ThinkTime time.Duration `json:"think_time,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// CaptureCount is the number of opponent cells taken by the move.
func (m Move) CaptureCount() int {
	n := len(m.ReverserCaptures)
	if m.Captured != nil {
		n++
	}
	return n
}

// Hands gives read access to both players' hands.
type Hands interface {
	Hand(player board.Color) *cards.Hand
}

// TurnState is what the validator needs from the game beyond the board.
type TurnState interface {
	Hands
	CurrentTurn() board.Color
	Status() Status
}

// MarshalText encodes the status by name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a status name.
func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
