package marketdata

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand"
	"time"

	"SignalBatch/internal/domain/models"
	domainrepo "SignalBatch/internal/domain/repository"
)

// DemoProvider synthesizes deterministic daily candles so the pipeline
// can run without a market-data subscription. The series for a symbol is
// a function of the symbol alone: repeated runs produce identical bars
// and therefore identical verdicts.
type DemoProvider struct{}

var _ domainrepo.MarketData = (*DemoProvider)(nil)

func NewDemoProvider() *DemoProvider {
	return &DemoProvider{}
}

func (p *DemoProvider) GetCandles(_ context.Context, ticker models.Ticker, bars int) (models.PriceSeries, error) {
	seed := symbolSeed(ticker.Symbol())
	rng := rand.New(rand.NewSource(seed))

	// Anchor prices in a plausible range and walk with mild drift. The
	// sine term adds a slow cycle so momentum indicators see structure
	// instead of pure noise.
	price := 20 + rng.Float64()*480
	drift := (rng.Float64() - 0.48) * 0.002
	baseVol := 1e5 + rng.Float64()*9e5

	// Fixed anchor keeps bucket timestamps stable across runs.
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	candles := make([]models.Candle, bars)
	for i := 0; i < bars; i++ {
		cycle := math.Sin(float64(i)/18) * 0.004
		ret := drift + cycle + rng.NormFloat64()*0.015

		open := price
		price *= 1 + ret
		if price < 1 {
			price = 1
		}

		high := math.Max(open, price) * (1 + rng.Float64()*0.01)
		low := math.Min(open, price) * (1 - rng.Float64()*0.01)
		volume := baseVol * (0.5 + rng.Float64())

		candles[i] = models.Candle{
			Bucket: day,
			Open:   open,
			High:   high,
			Low:    low,
			Close:  price,
			Volume: volume,
		}
		day = day.AddDate(0, 0, 1)
	}

	return models.PriceSeries{Ticker: ticker, Candles: candles}, nil
}

func symbolSeed(symbol string) int64 {
	h := fnv.New64a()
	h.Write([]byte(symbol))
	return int64(h.Sum64())
}
