package models

import "testing"

func mustTickers(t *testing.T, raw ...string) []Ticker {
	t.Helper()
	ts, err := ParseTickers(raw)
	if err != nil {
		t.Fatalf("parse tickers: %v", err)
	}
	return ts
}

func TestFingerprintIgnoresOrderAndCase(t *testing.T) {
	a := TickerFingerprint(mustTickers(t, "AAPL", "MSFT", "GOOG"))
	b := TickerFingerprint(mustTickers(t, "goog", "msft", "aapl"))
	if a != b {
		t.Fatalf("expected identical fingerprints, got %s vs %s", a, b)
	}
}

func TestFingerprintDistinguishesSets(t *testing.T) {
	a := TickerFingerprint(mustTickers(t, "AAPL", "MSFT"))
	b := TickerFingerprint(mustTickers(t, "AAPL", "MSFT", "GOOG"))
	if a == b {
		t.Fatal("different ticker sets must not collide")
	}
}

func TestFingerprintIsHexSHA256(t *testing.T) {
	fp := TickerFingerprint(mustTickers(t, "AAPL"))
	if len(fp) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(fp))
	}
	for _, r := range fp {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			t.Fatalf("unexpected character %q in fingerprint", r)
		}
	}
}
