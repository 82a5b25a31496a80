package models

import (
	"fmt"
	"strings"
)

// MaxTickerLen is the longest symbol accepted after normalization.
const MaxTickerLen = 20

// Ticker is a validated, normalized instrument symbol. Two tickers are
// equal iff their normalized symbols match, which makes Ticker usable as
// a map key for set semantics.
type Ticker struct {
	symbol string
}

// InvalidTickerError reports a symbol that failed validation, naming the
// offending input.
type InvalidTickerError struct {
	Raw    string
	Reason string
}

func (e *InvalidTickerError) Error() string {
	return fmt.Sprintf("invalid ticker %q: %s", e.Raw, e.Reason)
}

// NewTicker normalizes and validates a raw symbol: whitespace trimmed,
// uppercased, 1-20 chars, alphanumeric plus '.' and '-'.
func NewTicker(raw string) (Ticker, error) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return Ticker{}, &InvalidTickerError{Raw: raw, Reason: "empty symbol"}
	}
	if len(s) > MaxTickerLen {
		return Ticker{}, &InvalidTickerError{Raw: raw, Reason: fmt.Sprintf("longer than %d characters", MaxTickerLen)}
	}
	for _, r := range s {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') && r != '.' && r != '-' {
			return Ticker{}, &InvalidTickerError{Raw: raw, Reason: fmt.Sprintf("disallowed character %q", r)}
		}
	}
	return Ticker{symbol: s}, nil
}

// Symbol returns the normalized symbol.
func (t Ticker) Symbol() string { return t.symbol }

func (t Ticker) String() string { return t.symbol }

// IsZero reports whether the ticker was never constructed through NewTicker.
func (t Ticker) IsZero() bool { return t.symbol == "" }

// ParseTickers normalizes a list of raw symbols into an ordered unique set.
// First occurrence wins; later duplicates (after normalization) are dropped
// silently so "aapl, AAPL" folds into one entry.
func ParseTickers(raw []string) ([]Ticker, error) {
	out := make([]Ticker, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, r := range raw {
		t, err := NewTicker(r)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[t.Symbol()]; dup {
			continue
		}
		seen[t.Symbol()] = struct{}{}
		out = append(out, t)
	}
	return out, nil
}

// Symbols returns the normalized symbols in order.
func Symbols(ts []Ticker) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.Symbol()
	}
	return out
}
