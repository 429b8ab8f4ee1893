package watchers

import (
	"github.com/skemino/skemino-server-go/internal/game/rules"
)

// Watcher keys.
const (
	CapturesKey = "captures"
	LoopsKey    = "loops"
	VertexKey   = "vertices"
)

// Reporter is implemented by watchers that can summarise what they saw.
type Reporter interface {
	Report() map[string]int
}

// CapturesWatcher counts cards captured by each player.
type CapturesWatcher struct {
	captures map[string]int // player -> cards taken
	reverser map[string]int // player -> reverser moves
}

// NewCapturesWatcher creates a new captures watcher.
func NewCapturesWatcher() *CapturesWatcher {
	w := &CapturesWatcher{}
	w.Reset()
	return w
}

// Key implements rules.Watcher.
func (w *CapturesWatcher) Key() string { return CapturesKey }

// Watch implements rules.Watcher.
func (w *CapturesWatcher) Watch(event rules.Event) {
	if event.Type != rules.EventCardCaptured || event.Player == "" {
		return
	}
	w.captures[event.Player] += event.Amount
	if event.Metadata["reverser"] == "true" {
		w.reverser[event.Player]++
	}
}

// Reset clears the watcher's state.
func (w *CapturesWatcher) Reset() {
	w.captures = make(map[string]int)
	w.reverser = make(map[string]int)
}

// Captures returns the number of cards player has captured.
func (w *CapturesWatcher) Captures(player string) int {
	return w.captures[player]
}

// ReverserMoves returns how many reverser moves player made.
func (w *CapturesWatcher) ReverserMoves(player string) int {
	return w.reverser[player]
}

// Report implements Reporter.
func (w *CapturesWatcher) Report() map[string]int {
	out := make(map[string]int, len(w.captures)+len(w.reverser))
	for p, n := range w.captures {
		out[p] = n
	}
	for p, n := range w.reverser {
		out[p+"_reverser"] = n
	}
	return out
}

// LoopsWatcher counts loops by type and the holes they left behind.
type LoopsWatcher struct {
	loops map[rules.LoopType]int
	holes int
}

// NewLoopsWatcher creates a new loops watcher.
func NewLoopsWatcher() *LoopsWatcher {
	w := &LoopsWatcher{}
	w.Reset()
	return w
}

// Key implements rules.Watcher.
func (w *LoopsWatcher) Key() string { return LoopsKey }

// Watch implements rules.Watcher.
func (w *LoopsWatcher) Watch(event rules.Event) {
	switch event.Type {
	case rules.EventLoopFormed:
		w.loops[rules.LoopType(event.Data)]++
	case rules.EventHoleCreated:
		w.holes++
	}
}

// Reset clears the watcher's state.
func (w *LoopsWatcher) Reset() {
	w.loops = make(map[rules.LoopType]int)
	w.holes = 0
}

// Loops returns the number of loops of type t formed so far.
func (w *LoopsWatcher) Loops(t rules.LoopType) int {
	return w.loops[t]
}

// Holes returns the number of holes created.
func (w *LoopsWatcher) Holes() int {
	return w.holes
}

// Report implements Reporter.
func (w *LoopsWatcher) Report() map[string]int {
	return map[string]int{
		string(rules.LoopSymbolic): w.loops[rules.LoopSymbolic],
		string(rules.LoopNumeric):  w.loops[rules.LoopNumeric],
		"holes":                    w.holes,
	}
}

// VertexWatcher tracks who took each vertex and how often vertices changed hands.
type VertexWatcher struct {
	holder    map[string]string // vertex -> player
	takeovers map[string]int    // player -> vertex placements
	exclusive map[string]int    // player -> exclusive vertex placements
}

// NewVertexWatcher creates a new vertex watcher.
func NewVertexWatcher() *VertexWatcher {
	w := &VertexWatcher{}
	w.Reset()
	return w
}

// Key implements rules.Watcher.
func (w *VertexWatcher) Key() string { return VertexKey }

// Watch implements rules.Watcher.
func (w *VertexWatcher) Watch(event rules.Event) {
	if event.Type != rules.EventVertexControlled || event.Player == "" {
		return
	}
	w.holder[event.Cell] = event.Player
	w.takeovers[event.Player]++
	if event.Metadata["exclusive"] == "true" {
		w.exclusive[event.Player]++
	}
}

// Reset clears the watcher's state.
func (w *VertexWatcher) Reset() {
	w.holder = make(map[string]string)
	w.takeovers = make(map[string]int)
	w.exclusive = make(map[string]int)
}

// Holder returns the player that last placed on vertex, or "".
func (w *VertexWatcher) Holder(vertex string) string {
	return w.holder[vertex]
}

// Takeovers returns how many times player placed a card on a vertex.
func (w *VertexWatcher) Takeovers(player string) int {
	return w.takeovers[player]
}

// ExclusiveTakeovers returns how many of those placements were exclusive.
func (w *VertexWatcher) ExclusiveTakeovers(player string) int {
	return w.exclusive[player]
}

// Report implements Reporter.
func (w *VertexWatcher) Report() map[string]int {
	out := make(map[string]int, len(w.takeovers)*2)
	for p, n := range w.takeovers {
		out[p] = n
	}
	for p, n := range w.exclusive {
		out[p+"_exclusive"] = n
	}
	return out
}
