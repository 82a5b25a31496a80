package indicator

import (
	"math"

	"github.com/markcheno/go-talib"

	"SignalBatch/internal/domain/models"
)

// MACDTrend votes on the sign of the MACD histogram (the macd/signal
// separation) and blends two terms into confidence: ADX as the
// trend-strength magnitude and the normalized line separation as the
// directional term.
type MACDTrend struct {
	fast      int
	slow      int
	signal    int
	adxPeriod int
}

// NewMACDTrend builds a trend capability with the classic 12/26/9 periods
// and a 14-bar ADX when given non-positive values.
func NewMACDTrend(fast, slow, signal, adxPeriod int) *MACDTrend {
	if fast <= 0 {
		fast = 12
	}
	if slow <= 0 {
		slow = 26
	}
	if signal <= 0 {
		signal = 9
	}
	if adxPeriod <= 0 {
		adxPeriod = 14
	}
	return &MACDTrend{fast: fast, slow: slow, signal: signal, adxPeriod: adxPeriod}
}

func (m *MACDTrend) Name() string              { return "macd" }
func (m *MACDTrend) Category() models.Category { return models.CategoryTrend }

// Compute returns the latest MACD histogram value (macd line minus signal
// line); its sign is the directional difference the vote keys off.
func (m *MACDTrend) Compute(series models.PriceSeries) (float64, error) {
	closes := series.Closes()
	if len(closes) < m.slow+m.signal {
		return 0, ErrInsufficientData
	}
	_, _, hist := talib.Macd(closes, m.fast, m.slow, m.signal)
	return last(hist), nil
}

func (m *MACDTrend) Vote(value float64, _ models.PriceSeries) int {
	switch {
	case value > 0:
		return models.VoteBuy
	case value < 0:
		return models.VoteSell
	}
	return models.VoteNeutral
}

func (m *MACDTrend) Confidence(value float64, series models.PriceSeries) float64 {
	highs, lows, closes := series.Highs(), series.Lows(), series.Closes()

	// Trend-strength magnitude: ADX reads 0-100, values past 50 are
	// already a very strong trend.
	strength := 0.0
	if len(closes) > 2*m.adxPeriod {
		adx := last(talib.Adx(highs, lows, closes, m.adxPeriod))
		if isFinite(adx) {
			strength = clamp01(adx / 50)
		}
	}

	// Directional separation: histogram relative to price level, scaled so
	// a separation of 1% of price saturates the term.
	separation := 0.0
	if px := series.LastClose(); px > 0 {
		separation = clamp01(math.Abs(value) / (px * 0.01))
	}

	return clamp01(0.5*strength + 0.5*separation)
}
