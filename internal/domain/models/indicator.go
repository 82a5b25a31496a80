package models

// Category tags an indicator with the kind of evidence it contributes.
// Carried as data so category bias is a lookup, not a type hierarchy.
type Category string

const (
	CategoryMomentum   Category = "momentum"
	CategoryTrend      Category = "trend"
	CategoryVolatility Category = "volatility"
	CategoryVolume     Category = "volume"
)

// Directional votes.
const (
	VoteSell    = -1
	VoteNeutral = 0
	VoteBuy     = 1
)

// IndicatorResult is the outcome of one indicator over one price window.
// A failed computation still yields a result: neutral vote, zero
// confidence, and Err set, so downstream aggregation never sees a panic.
type IndicatorResult struct {
	Name       string   `json:"name"`
	Category   Category `json:"category"`
	Value      float64  `json:"value"`
	Vote       int      `json:"vote"`       // -1, 0, +1
	Confidence float64  `json:"confidence"` // [0,1]
	Err        string   `json:"error,omitempty"`
}

// Failed reports whether the indicator errored instead of producing a
// usable value.
func (r IndicatorResult) Failed() bool { return r.Err != "" }
