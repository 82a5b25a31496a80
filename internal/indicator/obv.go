package indicator

import (
	"math"

	"github.com/markcheno/go-talib"

	"SignalBatch/internal/domain/models"
)

// Divergence between flow and price is informative, not noise, so it
// keeps a reduced but non-zero confidence.
const obvDivergenceConfidence = 0.3

// OBVFlow is a volume-flow confirmation signal: it only votes when the
// direction of cumulative on-balance volume agrees with the direction of
// price over the same window.
type OBVFlow struct {
	window int
}

// NewOBVFlow builds the flow capability; the direction window defaults to
// 10 bars.
func NewOBVFlow(window int) *OBVFlow {
	if window <= 0 {
		window = 10
	}
	return &OBVFlow{window: window}
}

func (o *OBVFlow) Name() string              { return "obv" }
func (o *OBVFlow) Category() models.Category { return models.CategoryVolume }

// Compute returns the OBV change over the direction window, normalized by
// the window's average volume so values are comparable across tickers.
func (o *OBVFlow) Compute(series models.PriceSeries) (float64, error) {
	closes, volumes := series.Closes(), series.Volumes()
	if len(closes) < o.window+1 {
		return 0, ErrInsufficientData
	}

	obv := talib.Obv(closes, volumes)
	delta := last(obv) - obv[len(obv)-1-o.window]

	var avgVol float64
	for _, v := range volumes[len(volumes)-o.window:] {
		avgVol += v
	}
	avgVol /= float64(o.window)
	if avgVol <= 0 || !isFinite(avgVol) {
		return 0, ErrInsufficientData
	}
	return delta / avgVol, nil
}

func (o *OBVFlow) Vote(flow float64, series models.PriceSeries) int {
	priceDir := o.priceDirection(series)
	flowDir := sign(flow)
	if flowDir != 0 && flowDir == priceDir {
		return flowDir
	}
	return models.VoteNeutral
}

// Confidence is asymmetric: flow confirming price scales with flow
// magnitude; flow fighting price settles at a fixed reduced level.
func (o *OBVFlow) Confidence(flow float64, series models.PriceSeries) float64 {
	if sign(flow) == o.priceDirection(series) && sign(flow) != 0 {
		// A window's worth of net flow (|delta| == window*avgVol) saturates.
		return clamp01(0.5 + 0.5*math.Abs(flow)/float64(o.window))
	}
	return obvDivergenceConfidence
}

func (o *OBVFlow) priceDirection(series models.PriceSeries) int {
	closes := series.Closes()
	if len(closes) < o.window+1 {
		return 0
	}
	return sign(closes[len(closes)-1] - closes[len(closes)-1-o.window])
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
