package bot

import (
	"fmt"
	"math/rand"
)

type BotLevel int

const (
	BotLevelRandom BotLevel = iota
)

// NewBrain creates a bot strategy for the specified level.
func NewBrain(level BotLevel, rng *rand.Rand) (Brain, error) {
	switch level {
	case BotLevelRandom:
		return NewRandomBot(rng), nil
	default:
		return nil, fmt.Errorf("unknown bot level: %d", level)
	}
}
