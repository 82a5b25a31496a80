package indicator

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"SignalBatch/internal/domain/models"
)

func testSeries(t *testing.T, bars int) models.PriceSeries {
	t.Helper()
	tk, err := models.NewTicker("TEST")
	if err != nil {
		t.Fatalf("ticker: %v", err)
	}

	candles := make([]models.Candle, bars)
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	price := 100.0
	for i := 0; i < bars; i++ {
		// Gentle cycle so momentum indicators see structure.
		price *= 1 + 0.01*math.Sin(float64(i)/9)
		candles[i] = models.Candle{
			Bucket: day,
			Open:   price * 0.995,
			High:   price * 1.01,
			Low:    price * 0.99,
			Close:  price,
			Volume: 1e6 + 1e5*math.Sin(float64(i)/5),
		}
		day = day.AddDate(0, 0, 1)
	}
	return models.PriceSeries{Ticker: tk, Candles: candles}
}

// fakeCap lets tests drive the Evaluate error boundary directly.
type fakeCap struct {
	name       string
	compute    func() (float64, error)
	vote       int
	confidence float64
}

func (f *fakeCap) Name() string                                  { return f.name }
func (f *fakeCap) Category() models.Category                     { return models.CategoryMomentum }
func (f *fakeCap) Compute(models.PriceSeries) (float64, error)   { return f.compute() }
func (f *fakeCap) Vote(float64, models.PriceSeries) int          { return f.vote }
func (f *fakeCap) Confidence(float64, models.PriceSeries) float64 { return f.confidence }

func TestEvaluateRecoversPanic(t *testing.T) {
	cap := &fakeCap{name: "boom", compute: func() (float64, error) { panic("index out of range") }}
	res := Evaluate(cap, testSeries(t, 10))

	if !res.Failed() {
		t.Fatal("expected failed result")
	}
	if !strings.Contains(res.Err, "panic") {
		t.Fatalf("expected panic message, got %q", res.Err)
	}
	if res.Vote != models.VoteNeutral || res.Confidence != 0 {
		t.Fatalf("panic must yield neutral zero-confidence result, got vote=%d conf=%v", res.Vote, res.Confidence)
	}
}

func TestEvaluateReportsComputeError(t *testing.T) {
	cap := &fakeCap{name: "short", compute: func() (float64, error) { return 0, ErrInsufficientData }}
	res := Evaluate(cap, testSeries(t, 3))
	if !res.Failed() {
		t.Fatal("expected failed result")
	}
	if res.Err != ErrInsufficientData.Error() {
		t.Fatalf("unexpected error text %q", res.Err)
	}
}

func TestEvaluateRejectsNonFinite(t *testing.T) {
	for _, v := range []float64{math.NaN(), math.Inf(1)} {
		v := v
		cap := &fakeCap{name: "nan", compute: func() (float64, error) { return v, nil }}
		res := Evaluate(cap, testSeries(t, 10))
		if !res.Failed() {
			t.Fatalf("expected %v to be rejected", v)
		}
	}
}

func TestEvaluateClampsConfidence(t *testing.T) {
	cap := &fakeCap{name: "hot", compute: func() (float64, error) { return 1, nil }, vote: models.VoteBuy, confidence: 3.5}
	res := Evaluate(cap, testSeries(t, 10))
	if res.Confidence != 1 {
		t.Fatalf("expected clamp to 1, got %v", res.Confidence)
	}
}

func TestBuiltinsProduceBoundedResults(t *testing.T) {
	series := testSeries(t, 200)
	results := EvaluateAll(allBuiltins(t), series)

	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %d", len(results))
	}
	for _, r := range results {
		if r.Failed() {
			t.Fatalf("indicator %s failed on a 200-bar series: %s", r.Name, r.Err)
		}
		if r.Vote < models.VoteSell || r.Vote > models.VoteBuy {
			t.Fatalf("indicator %s vote out of range: %d", r.Name, r.Vote)
		}
		if r.Confidence < 0 || r.Confidence > 1 {
			t.Fatalf("indicator %s confidence out of range: %v", r.Name, r.Confidence)
		}
	}
}

func allBuiltins(t *testing.T) []Capability {
	t.Helper()
	caps, err := DefaultRegistry().Select(nil)
	if err != nil {
		t.Fatalf("select all: %v", err)
	}
	return caps
}

func TestBuiltinsFailShortSeries(t *testing.T) {
	series := testSeries(t, 5)
	for _, r := range EvaluateAll(allBuiltins(t), series) {
		if !r.Failed() {
			t.Fatalf("indicator %s should fail on 5 bars", r.Name)
		}
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	a := &fakeCap{name: "dup", compute: func() (float64, error) { return 0, nil }}
	b := &fakeCap{name: "dup", compute: func() (float64, error) { return 0, nil }}
	if _, err := NewRegistry(a, b); err == nil {
		t.Fatal("expected duplicate registration error")
	}
}

func TestRegistrySelect(t *testing.T) {
	r := DefaultRegistry()

	caps, err := r.Select([]string{"rsi", "macd"})
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(caps) != 2 || caps[0].Name() != "rsi" || caps[1].Name() != "macd" {
		t.Fatalf("unexpected selection: %v", caps)
	}

	_, err = r.Select([]string{"rsi", "astrology"})
	if !errors.Is(err, models.ErrUnknownIndicator) {
		t.Fatalf("expected ErrUnknownIndicator, got %v", err)
	}

	all, err := r.Select(nil)
	if err != nil || len(all) != 5 {
		t.Fatalf("empty selection should return all 5, got %d (%v)", len(all), err)
	}
}
