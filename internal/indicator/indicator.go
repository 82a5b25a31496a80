// Package indicator holds the pluggable technical-signal capabilities and
// their registry. Raw indicator math is delegated to go-talib; votes and
// confidences are layered on top of the raw values.
package indicator

import (
	"errors"
	"fmt"
	"math"

	"SignalBatch/internal/domain/models"
)

// ErrInsufficientData is returned when a price window is too short for an
// indicator's lookback.
var ErrInsufficientData = errors.New("insufficient price history")

// Capability is one pluggable signal computation. Category is carried as
// data so aggregation bias stays a lookup table rather than a type
// hierarchy.
type Capability interface {
	Name() string
	Category() models.Category

	// Compute derives the indicator's raw value from a price window.
	Compute(series models.PriceSeries) (float64, error)

	// Vote maps a computed value to a directional vote (-1, 0, +1).
	Vote(value float64, series models.PriceSeries) int

	// Confidence maps a computed value to [0,1].
	Confidence(value float64, series models.PriceSeries) float64
}

// Evaluate runs one capability inside the indicator error boundary: any
// error or panic becomes a neutral zero-confidence result with the message
// attached, so a broken indicator can never abort a ticker's analysis.
func Evaluate(cap Capability, series models.PriceSeries) (res models.IndicatorResult) {
	res = models.IndicatorResult{
		Name:     cap.Name(),
		Category: cap.Category(),
		Vote:     models.VoteNeutral,
	}

	defer func() {
		if r := recover(); r != nil {
			res.Value = 0
			res.Vote = models.VoteNeutral
			res.Confidence = 0
			res.Err = fmt.Sprintf("indicator panic: %v", r)
		}
	}()

	value, err := cap.Compute(series)
	if err != nil {
		res.Err = err.Error()
		return res
	}
	if !isFinite(value) {
		res.Err = "non-finite indicator value"
		return res
	}

	res.Value = value
	res.Vote = cap.Vote(value, series)
	res.Confidence = clamp01(cap.Confidence(value, series))
	return res
}

// EvaluateAll runs every capability over the same window, preserving order.
func EvaluateAll(caps []Capability, series models.PriceSeries) []models.IndicatorResult {
	out := make([]models.IndicatorResult, 0, len(caps))
	for _, c := range caps {
		out = append(out, Evaluate(c, series))
	}
	return out
}

func clamp01(v float64) float64 {
	if !isFinite(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// last returns the final element of a series, or NaN when empty.
func last(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	return xs[len(xs)-1]
}
