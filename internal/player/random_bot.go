package player

import (
	"math/rand/v2"
	"strconv"

	"github.com/skemino/skemino-server-go/internal/game/board"
	"github.com/skemino/skemino-server-go/internal/game/cards"
	"github.com/skemino/skemino-server-go/internal/game/rules"
)

type RandomBot struct {
	BotName string
	Rand    *rand.Rand
}

func (b *RandomBot) intN(n int) int {
	if b.Rand == nil {
		return rand.IntN(n)
	}
	return b.Rand.IntN(n)
}

func (b *RandomBot) Name() string {
	if b.BotName == "" {
		b.BotName = "RandomBot_" + strconv.Itoa(b.intN(100))
	}
	return b.BotName
}

// ChooseMove picks uniformly among every legal (card, cell) pair.
func (b *RandomBot) ChooseMove(color board.Color, hand []cards.Card, legal LegalMoves) (rules.Move, error) {
	type option struct {
		card cards.Card
		to   board.Coord
	}
	var options []option
	for _, c := range hand {
		for _, to := range legal(c) {
			options = append(options, option{card: c, to: to})
		}
	}
	if len(options) == 0 {
		return rules.Move{}, ErrNoMove
	}
	pick := options[b.intN(len(options))]
	return rules.Move{Player: color, Card: pick.card, To: pick.to}, nil
}

func NewRandomBot() Player {
	return &RandomBot{}
}

// NewSeededRandomBot returns a bot whose choices are reproducible.
func NewSeededRandomBot(name string, seed uint64) Player {
	return &RandomBot{BotName: name, Rand: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}
