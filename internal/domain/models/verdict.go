package models

import "time"

// Signal labels produced by aggregation.
type Signal string

const (
	SignalBuy  Signal = "BUY"
	SignalSell Signal = "SELL"
	SignalHold Signal = "HOLD"
)

// Verdict is the aggregated decision for one ticker: a bounded numeric
// score, its discrete label, and the indicator results that produced it.
type Verdict struct {
	Ticker     Ticker            `json:"-"`
	Symbol     string            `json:"symbol"`
	Score      float64           `json:"score"` // [-100, 100]
	Signal     Signal            `json:"signal"`
	Indicators []IndicatorResult `json:"indicators"`
	Timestamp  time.Time         `json:"timestamp"`
}

// VerdictRecord is one row of verdict history as read back from the
// sink, without the per-indicator breakdown.
type VerdictRecord struct {
	Timestamp time.Time `json:"timestamp"`
	JobID     string    `json:"job_id"`
	Symbol    string    `json:"symbol"`
	Score     float64   `json:"score"`
	Signal    Signal    `json:"signal"`
}
