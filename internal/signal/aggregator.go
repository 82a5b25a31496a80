// Package signal combines weighted indicator results into a bounded score
// and a buy/sell/hold verdict. Aggregation is a pure function of its
// inputs: identical results and profile always reproduce the identical
// verdict, which backtesting depends on.
package signal

import (
	"math"

	"SignalBatch/internal/domain/models"
)

// WeightProfile drives aggregation: per-indicator weights, per-category
// bias multipliers, and the thresholds that map a score to a label.
type WeightProfile struct {
	Name          string
	Weights       map[string]float64
	CategoryBias  map[models.Category]float64
	BuyThreshold  float64
	SellThreshold float64
}

func (p WeightProfile) weight(name string) float64 {
	if w, ok := p.Weights[name]; ok {
		return w
	}
	return 1
}

func (p WeightProfile) bias(cat models.Category) float64 {
	if b, ok := p.CategoryBias[cat]; ok {
		return b
	}
	return 1
}

// Aggregate folds indicator results into a verdict for one ticker.
// Errored indicators are excluded from both numerator and denominator:
// a failed computation must not dilute confidence in the ones that
// worked. The score is normalized to [-100, 100]. The verdict carries no
// timestamp; the caller stamps it when recording.
func Aggregate(ticker models.Ticker, results []models.IndicatorResult, profile WeightProfile) models.Verdict {
	var num, denom float64
	for _, r := range results {
		if r.Failed() {
			continue
		}
		w := profile.weight(r.Name)
		b := profile.bias(r.Category)
		num += float64(r.Vote) * r.Confidence * b * w
		denom += math.Abs(w) * b
	}

	score := 0.0
	if denom > 0 {
		score = num / denom * 100
	}
	if score > 100 {
		score = 100
	} else if score < -100 {
		score = -100
	}

	return models.Verdict{
		Ticker:     ticker,
		Symbol:     ticker.Symbol(),
		Score:      score,
		Signal:     labelFor(score, profile),
		Indicators: results,
	}
}

func labelFor(score float64, profile WeightProfile) models.Signal {
	switch {
	case score >= profile.BuyThreshold:
		return models.SignalBuy
	case score <= profile.SellThreshold:
		return models.SignalSell
	}
	return models.SignalHold
}
