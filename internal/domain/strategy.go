package domain

import "time"

// Strategy parameterizes one candidate-generation pass.
type Strategy struct {
	RequireAdjacency bool
	MaxTables        int
}

// StrategyConfig bounds the whole allocation attempt. It is always passed
// explicitly; the engine carries no ambient strategy state.
type StrategyConfig struct {
	// MaxTables caps combination size across the ladder.
	MaxTables int
	// MaxSlack, when positive, prunes plans whose combined capacity exceeds
	// party size by more than this. Zero leaves slack uncapped.
	MaxSlack int
	// HoldTTL is how long a created hold blocks its tables before lazy expiry.
	HoldTTL time.Duration
	// MaxPlansPerSlack and MaxCombinationEvaluations bound the combination
	// search; zero falls back to the defaults below.
	MaxPlansPerSlack          int
	MaxCombinationEvaluations int
}

const (
	DefaultMaxTables                 = 3
	DefaultHoldTTL                   = 180 * time.Second
	DefaultMaxPlansPerSlack          = 50
	DefaultMaxCombinationEvaluations = 500
)

func DefaultStrategyConfig() StrategyConfig {
	return StrategyConfig{
		MaxTables:                 DefaultMaxTables,
		HoldTTL:                   DefaultHoldTTL,
		MaxPlansPerSlack:          DefaultMaxPlansPerSlack,
		MaxCombinationEvaluations: DefaultMaxCombinationEvaluations,
	}
}

func (c StrategyConfig) withDefaults() StrategyConfig {
	if c.MaxTables <= 0 {
		c.MaxTables = DefaultMaxTables
	}
	if c.HoldTTL <= 0 {
		c.HoldTTL = DefaultHoldTTL
	}
	if c.MaxPlansPerSlack <= 0 {
		c.MaxPlansPerSlack = DefaultMaxPlansPerSlack
	}
	if c.MaxCombinationEvaluations <= 0 {
		c.MaxCombinationEvaluations = DefaultMaxCombinationEvaluations
	}
	return c
}

// Ladder returns the ordered strategy list, strictest first: adjacency
// required with growing table counts, then the same counts with adjacency
// relaxed. Preferring connected seating before splitting guests across
// disconnected tables.
func (c StrategyConfig) Ladder() []Strategy {
	c = c.withDefaults()
	ladder := make([]Strategy, 0, 2*c.MaxTables)
	for _, require := range []bool{true, false} {
		for n := 1; n <= c.MaxTables; n++ {
			ladder = append(ladder, Strategy{RequireAdjacency: require, MaxTables: n})
		}
	}
	return ladder
}
