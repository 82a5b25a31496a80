package indicator

import (
	"math"

	"github.com/markcheno/go-talib"

	"SignalBatch/internal/domain/models"
)

// RSI thresholds.
const (
	rsiOversold   = 30.0
	rsiOverbought = 70.0
)

// RSI is a bounded 0-100 momentum oscillator. The vote flips at the fixed
// oversold/overbought thresholds; confidence grows with the distance past
// the crossed threshold. Inside the neutral band confidence scales with
// the distance from the band's center instead of dropping to zero, so a
// 68 reads as "nearly overbought" rather than "no information".
type RSI struct {
	period int
}

// NewRSI builds an RSI capability; period defaults to 14 when non-positive.
func NewRSI(period int) *RSI {
	if period <= 0 {
		period = 14
	}
	return &RSI{period: period}
}

func (r *RSI) Name() string              { return "rsi" }
func (r *RSI) Category() models.Category { return models.CategoryMomentum }

func (r *RSI) Compute(series models.PriceSeries) (float64, error) {
	closes := series.Closes()
	if len(closes) < r.period+1 {
		return 0, ErrInsufficientData
	}
	return last(talib.Rsi(closes, r.period)), nil
}

func (r *RSI) Vote(value float64, _ models.PriceSeries) int {
	switch {
	case value <= rsiOversold:
		return models.VoteBuy
	case value >= rsiOverbought:
		return models.VoteSell
	}
	return models.VoteNeutral
}

func (r *RSI) Confidence(value float64, _ models.PriceSeries) float64 {
	switch {
	case value <= rsiOversold:
		return clamp01(0.5 + (rsiOversold-value)/rsiOversold)
	case value >= rsiOverbought:
		return clamp01(0.5 + (value-rsiOverbought)/(100-rsiOverbought))
	}
	// Neutral band: distance from midpoint, capped below the floor an
	// actual threshold cross would carry.
	return clamp01(math.Abs(value-50) / (rsiOverbought - 50) * 0.5)
}
