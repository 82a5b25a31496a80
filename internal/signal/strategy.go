package signal

import "SignalBatch/internal/domain/models"

// DefaultStrategyID is used when a submission names no strategy.
const DefaultStrategyID = "default"

// strategies maps strategy ids to their weighting profiles. Thresholds
// live here, not in the aggregator, so strategies decide what counts as
// actionable.
var strategies = map[string]WeightProfile{
	DefaultStrategyID: {
		Name:          DefaultStrategyID,
		Weights:       map[string]float64{},
		CategoryBias:  map[models.Category]float64{},
		BuyThreshold:  25,
		SellThreshold: -25,
	},
	"momentum": {
		Name: "momentum",
		Weights: map[string]float64{
			"rsi":  1.5,
			"macd": 1.25,
		},
		CategoryBias: map[models.Category]float64{
			models.CategoryMomentum:   1.5,
			models.CategoryTrend:      1.2,
			models.CategoryVolatility: 0.8,
		},
		BuyThreshold:  20,
		SellThreshold: -20,
	},
	"conservative": {
		Name: "conservative",
		CategoryBias: map[models.Category]float64{
			models.CategoryVolatility: 1.3,
			models.CategoryVolume:     1.2,
		},
		BuyThreshold:  40,
		SellThreshold: -40,
	},
}

// ProfileFor resolves a strategy id, falling back to the default profile
// for unknown or empty ids.
func ProfileFor(strategyID string) WeightProfile {
	if p, ok := strategies[strategyID]; ok {
		return p
	}
	return strategies[DefaultStrategyID]
}

// KnownStrategy reports whether the id names a registered strategy.
func KnownStrategy(strategyID string) bool {
	_, ok := strategies[strategyID]
	return ok
}

// StrategyIDs lists the registered strategy ids.
func StrategyIDs() []string {
	out := make([]string, 0, len(strategies))
	for id := range strategies {
		out = append(out, id)
	}
	return out
}
