package models

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// TickerFingerprint digests a canonicalized serialization of a ticker set:
// normalized symbols, sorted, newline-joined, SHA-256, hex. Submission
// order never changes the fingerprint. The digest stays 64 hex chars no
// matter how large the batch is, which keeps the secondary index key small
// where the raw serialization of thousands of symbols would not be.
func TickerFingerprint(tickers []Ticker) string {
	symbols := Symbols(tickers)
	sort.Strings(symbols)
	sum := sha256.Sum256([]byte(strings.Join(symbols, "\n")))
	return hex.EncodeToString(sum[:])
}
