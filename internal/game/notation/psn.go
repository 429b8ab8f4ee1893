// Package notation formats and parses moves in PSN, the compact move notation
// SUIT VALUE ":" CELL followed by optional markers and the think time:
//
//	C4:d3        Carta 4 placed on d3
//	PK:a1*#      Pietra King captures on a1 and takes the vertex
//	F7:c4@+/12.5 Forbici 7 on c4, triggers a loop, threatens, 12.5s thought
//
// Markers always appear in the order * (capture), # (vertex control),
// @ (loop trigger), + (check).
package notation

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/skemino/skemino-server-go/internal/game/board"
	"github.com/skemino/skemino-server-go/internal/game/cards"
	"github.com/skemino/skemino-server-go/internal/game/rules"
)

const (
	markCapture = '*'
	markVertex  = '#'
	markLoop    = '@'
	markCheck   = '+'
)

var valueAliases = map[int]string{
	cards.Jack:  "J",
	cards.Queen: "Q",
	cards.King:  "K",
}

// FormatValue renders a card value, using J, Q and K for face cards.
func FormatValue(value int) string {
	if alias, ok := valueAliases[value]; ok {
		return alias
	}
	return strconv.Itoa(value)
}

// ParseValue accepts 1..13 as digits, or A, J, Q, K.
func ParseValue(text string) (int, error) {
	switch strings.ToUpper(text) {
	case "A":
		return cards.Ace, nil
	case "J":
		return cards.Jack, nil
	case "Q":
		return cards.Queen, nil
	case "K":
		return cards.King, nil
	}
	v, err := strconv.Atoi(text)
	if err != nil || v < cards.MinValue || v > cards.MaxValue {
		return 0, fmt.Errorf("invalid card value %q", text)
	}
	return v, nil
}

// FormatCard renders a card as suit letter plus value, e.g. "PK".
func FormatCard(c cards.Card) string {
	return c.Suit.Letter() + FormatValue(c.Value)
}

// ParseCard parses the FormatCard form.
func ParseCard(text string) (cards.Card, error) {
	if len(text) < 2 {
		return cards.Card{}, fmt.Errorf("invalid card %q", text)
	}
	suit, err := cards.ParseSuit(text[:1])
	if err != nil {
		return cards.Card{}, err
	}
	value, err := ParseValue(text[1:])
	if err != nil {
		return cards.Card{}, err
	}
	return cards.Card{Suit: suit, Value: value}, nil
}

// Format renders a move in PSN.
func Format(mv rules.Move) string {
	var sb strings.Builder
	sb.WriteString(FormatCard(mv.Card))
	sb.WriteByte(':')
	sb.WriteString(mv.To.String())
	if mv.IsCapture {
		sb.WriteByte(markCapture)
	}
	if mv.IsVertexControl {
		sb.WriteByte(markVertex)
	}
	if mv.IsLoopTrigger {
		sb.WriteByte(markLoop)
	}
	if mv.IsCheck {
		sb.WriteByte(markCheck)
	}
	if mv.ThinkTime > 0 {
		sb.WriteByte('/')
		sb.WriteString(strconv.FormatFloat(mv.ThinkTime.Seconds(), 'f', -1, 64))
	}
	return sb.String()
}

// Parse reads a single PSN move. Only the fields carried by the notation are
// set: card, destination, the four markers and the think time.
func Parse(text string) (rules.Move, error) {
	var mv rules.Move
	s := strings.TrimSpace(text)

	if i := strings.IndexByte(s, '/'); i >= 0 {
		secs, err := strconv.ParseFloat(s[i+1:], 64)
		if err != nil || secs < 0 {
			return rules.Move{}, fmt.Errorf("invalid think time in %q", text)
		}
		mv.ThinkTime = time.Duration(math.Round(secs * float64(time.Second)))
		s = s[:i]
	}

	cardText, rest, ok := strings.Cut(s, ":")
	if !ok {
		return rules.Move{}, fmt.Errorf("missing ':' in %q", text)
	}
	card, err := ParseCard(cardText)
	if err != nil {
		return rules.Move{}, fmt.Errorf("parse %q: %w", text, err)
	}
	mv.Card = card

	if len(rest) < 2 {
		return rules.Move{}, fmt.Errorf("missing cell in %q", text)
	}
	to, err := board.ParseCoord(rest[:2])
	if err != nil {
		return rules.Move{}, fmt.Errorf("parse %q: %w", text, err)
	}
	mv.To = to

	if err := parseMarkers(rest[2:], &mv); err != nil {
		return rules.Move{}, fmt.Errorf("parse %q: %w", text, err)
	}
	return mv, nil
}

func parseMarkers(markers string, mv *rules.Move) error {
	last := -1
	for _, r := range markers {
		var rank int
		switch r {
		case markCapture:
			rank, mv.IsCapture = 0, true
		case markVertex:
			rank, mv.IsVertexControl = 1, true
		case markLoop:
			rank, mv.IsLoopTrigger = 2, true
		case markCheck:
			rank, mv.IsCheck = 3, true
		default:
			return fmt.Errorf("unknown marker %q", r)
		}
		if rank <= last {
			return fmt.Errorf("marker %q out of order", r)
		}
		last = rank
	}
	return nil
}

// FormatMoves joins moves with single spaces.
func FormatMoves(moves []rules.Move) string {
	parts := make([]string, len(moves))
	for i, mv := range moves {
		parts[i] = Format(mv)
	}
	return strings.Join(parts, " ")
}

// ParseMoves parses a game record as the engine writes it: the setup
// placement by first at turn 0, then regular turns from 1 with first on move.
// Turns are handed over like the engine does, so a side whose opponent has
// run out of cards moves again; handSize is the number of cards each side
// was dealt.
func ParseMoves(text string, first board.Color, handSize int) ([]rules.Move, error) {
	if first != board.White && first != board.Black {
		return nil, fmt.Errorf("invalid first player %s", first)
	}
	if handSize < 1 {
		return nil, fmt.Errorf("invalid hand size %d", handSize)
	}

	fields := strings.Fields(text)
	moves := make([]rules.Move, 0, len(fields))
	left := map[board.Color]int{board.White: handSize, board.Black: handSize}
	player := first
	for i, f := range fields {
		mv, err := Parse(f)
		if err != nil {
			return nil, fmt.Errorf("move %d: %w", i+1, err)
		}
		if left[player] == 0 {
			return nil, fmt.Errorf("move %d: %s has no cards left", i+1, player)
		}
		mv.Turn = i
		mv.Player = player
		mv.Setup = i == 0
		left[player]--
		// The rolled colour also takes the first regular turn.
		if i > 0 {
			player = rules.NextPlayerByCount(player, left[player], left[player.Opponent()])
		}
		moves = append(moves, mv)
	}
	return moves, nil
}
