package indicator

import (
	"math"

	"github.com/markcheno/go-talib"

	"SignalBatch/internal/domain/models"
)

// Bollinger votes on price piercing the band envelope: a close under the
// lower band reads oversold (buy), over the upper band overbought (sell).
// Outside the bands confidence comes from penetration depth relative to
// the band half-width; inside, from proximity to the middle band.
type Bollinger struct {
	period int
	nDev   float64
}

// NewBollinger builds a Bollinger band capability; defaults are the
// classic 20-bar window and 2 standard deviations.
func NewBollinger(period int, nDev float64) *Bollinger {
	if period <= 0 {
		period = 20
	}
	if nDev <= 0 {
		nDev = 2
	}
	return &Bollinger{period: period, nDev: nDev}
}

func (b *Bollinger) Name() string              { return "bollinger" }
func (b *Bollinger) Category() models.Category { return models.CategoryVolatility }

// Compute returns %B: 0 at the lower band, 1 at the upper, outside [0,1]
// when price pierces the envelope.
func (b *Bollinger) Compute(series models.PriceSeries) (float64, error) {
	closes := series.Closes()
	if len(closes) < b.period {
		return 0, ErrInsufficientData
	}
	upper, _, lower := talib.BBands(closes, b.period, b.nDev, b.nDev, talib.SMA)
	up, lo := last(upper), last(lower)
	width := up - lo
	if !isFinite(width) || width <= 0 {
		// Flat window: every close identical, no meaningful envelope.
		return 0.5, nil
	}
	return (series.LastClose() - lo) / width, nil
}

func (b *Bollinger) Vote(pctB float64, _ models.PriceSeries) int {
	switch {
	case pctB < 0:
		return models.VoteBuy
	case pctB > 1:
		return models.VoteSell
	}
	return models.VoteNeutral
}

func (b *Bollinger) Confidence(pctB float64, _ models.PriceSeries) float64 {
	// In %B units the band half-width is 0.5.
	switch {
	case pctB < 0:
		return clamp01(0.5 + -pctB/0.5*0.5)
	case pctB > 1:
		return clamp01(0.5 + (pctB-1)/0.5*0.5)
	}
	// Inside the envelope: most confident near the centerline, where mean
	// reversion has already played out.
	return clamp01(1 - math.Abs(pctB-0.5)/0.5)
}
