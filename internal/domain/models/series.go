package models

import "time"

// Candle represents a single OHLCV bar.
type Candle struct {
	Bucket time.Time `json:"t"`
	Open   float64   `json:"o"`
	High   float64   `json:"h"`
	Low    float64   `json:"l"`
	Close  float64   `json:"c"`
	Volume float64   `json:"v"`
}

// PriceSeries is an ordered window of OHLCV bars for one instrument,
// oldest first. The analysis core consumes it but does not own it; the
// market-data collaborator decides how bars are produced.
type PriceSeries struct {
	Ticker  Ticker
	Candles []Candle
}

// Len returns the number of bars.
func (s PriceSeries) Len() int { return len(s.Candles) }

// Closes extracts closing prices in order.
func (s PriceSeries) Closes() []float64 {
	out := make([]float64, len(s.Candles))
	for i, c := range s.Candles {
		out[i] = c.Close
	}
	return out
}

// Highs extracts high prices in order.
func (s PriceSeries) Highs() []float64 {
	out := make([]float64, len(s.Candles))
	for i, c := range s.Candles {
		out[i] = c.High
	}
	return out
}

// Lows extracts low prices in order.
func (s PriceSeries) Lows() []float64 {
	out := make([]float64, len(s.Candles))
	for i, c := range s.Candles {
		out[i] = c.Low
	}
	return out
}

// Volumes extracts volumes in order.
func (s PriceSeries) Volumes() []float64 {
	out := make([]float64, len(s.Candles))
	for i, c := range s.Candles {
		out[i] = c.Volume
	}
	return out
}

// LastClose returns the most recent closing price, or 0 for an empty series.
func (s PriceSeries) LastClose() float64 {
	if len(s.Candles) == 0 {
		return 0
	}
	return s.Candles[len(s.Candles)-1].Close
}
