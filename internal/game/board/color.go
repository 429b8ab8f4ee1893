package board

import (
	"fmt"
	"strings"
)

// Color identifies a player or the absence of one.
type Color int

const (
	None Color = iota
	White
	Black
)

// Colors lists both players, White first.
var Colors = []Color{White, Black}

func (c Color) String() string {
	switch c {
	case White:
		return "white"
	case Black:
		return "black"
	default:
		return "none"
	}
}

// Opponent returns the other player; None maps to None.
func (c Color) Opponent() Color {
	switch c {
	case White:
		return Black
	case Black:
		return White
	default:
		return None
	}
}

// ParseColor accepts "white"/"black" (any case) and "" or "none".
func ParseColor(text string) (Color, error) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "white", "w":
		return White, nil
	case "black", "b":
		return Black, nil
	case "", "none":
		return None, nil
	}
	return None, fmt.Errorf("unknown color %q", text)
}

// MarshalText encodes the color by name.
func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText decodes a color name.
func (c *Color) UnmarshalText(text []byte) error {
	parsed, err := ParseColor(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
