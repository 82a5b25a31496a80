package indicator

import (
	"math"

	"github.com/markcheno/go-talib"

	"SignalBatch/internal/domain/models"
)

// ATRRegime is a non-directional volatility gauge. It never votes; its
// confidence says how "normal" the current volatility regime looks, and
// is penalized both when volatility dries up (stale, gappy pricing) and
// when it spikes (indicator readings unreliable).
type ATRRegime struct {
	period   int
	lookback int
}

// NewATRRegime builds the regime gauge; defaults to a 14-bar ATR compared
// against a 50-bar baseline.
func NewATRRegime(period, lookback int) *ATRRegime {
	if period <= 0 {
		period = 14
	}
	if lookback <= 0 {
		lookback = 50
	}
	return &ATRRegime{period: period, lookback: lookback}
}

func (a *ATRRegime) Name() string              { return "atr_regime" }
func (a *ATRRegime) Category() models.Category { return models.CategoryVolatility }

// Compute returns the ratio of the current normalized ATR to its trailing
// baseline: 1.0 means volatility sits exactly at its recent norm.
func (a *ATRRegime) Compute(series models.PriceSeries) (float64, error) {
	highs, lows, closes := series.Highs(), series.Lows(), series.Closes()
	if len(closes) < a.period+a.lookback {
		return 0, ErrInsufficientData
	}

	atr := talib.Atr(highs, lows, closes, a.period)

	// Normalize each ATR value by its close so the baseline is price-level
	// independent, then average the trailing window.
	start := len(atr) - a.lookback
	var sum float64
	var n int
	for i := start; i < len(atr); i++ {
		if closes[i] > 0 && isFinite(atr[i]) {
			sum += atr[i] / closes[i]
			n++
		}
	}
	if n == 0 || sum <= 0 {
		return 0, ErrInsufficientData
	}
	baseline := sum / float64(n)

	current := last(atr) / series.LastClose()
	if !isFinite(current) || current <= 0 {
		return 0, ErrInsufficientData
	}
	return current / baseline, nil
}

// Vote is always neutral: volatility magnitude carries no direction.
func (a *ATRRegime) Vote(_ float64, _ models.PriceSeries) int { return models.VoteNeutral }

// Confidence peaks at ratio 1 and decays symmetrically in log space, so a
// halving and a doubling of volatility are penalized equally.
func (a *ATRRegime) Confidence(ratio float64, _ models.PriceSeries) float64 {
	if ratio <= 0 {
		return 0
	}
	return clamp01(1 - math.Abs(math.Log2(ratio)))
}
