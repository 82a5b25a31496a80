package models

import (
	"errors"
	"testing"
)

func TestNewTickerNormalizes(t *testing.T) {
	tk, err := NewTicker("  aapl ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tk.Symbol() != "AAPL" {
		t.Fatalf("expected AAPL, got %q", tk.Symbol())
	}
}

func TestNewTickerAllowsDotAndDash(t *testing.T) {
	for _, raw := range []string{"BRK.B", "brk-b", "MSFT", "7203.T"} {
		if _, err := NewTicker(raw); err != nil {
			t.Fatalf("expected %q to be valid: %v", raw, err)
		}
	}
}

func TestNewTickerRejects(t *testing.T) {
	cases := []string{"", "   ", "AA PL", "AAPL$", "ABCDEFGHIJKLMNOPQRSTU"}
	for _, raw := range cases {
		_, err := NewTicker(raw)
		if err == nil {
			t.Fatalf("expected %q to be rejected", raw)
		}
		var terr *InvalidTickerError
		if !errors.As(err, &terr) {
			t.Fatalf("expected InvalidTickerError for %q, got %T", raw, err)
		}
	}
}

func TestParseTickersDedupKeepsOrder(t *testing.T) {
	got, err := ParseTickers([]string{"msft", "AAPL", "aapl", " MSFT ", "goog"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"MSFT", "AAPL", "GOOG"}
	if len(got) != len(want) {
		t.Fatalf("expected %d tickers, got %d", len(want), len(got))
	}
	for i, w := range want {
		if got[i].Symbol() != w {
			t.Fatalf("position %d: expected %s, got %s", i, w, got[i].Symbol())
		}
	}
}

func TestParseTickersFailsOnFirstInvalid(t *testing.T) {
	if _, err := ParseTickers([]string{"AAPL", "!!"}); err == nil {
		t.Fatal("expected error for invalid symbol")
	}
}
