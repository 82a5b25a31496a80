package marketdata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"SignalBatch/internal/domain/models"
	domainrepo "SignalBatch/internal/domain/repository"
	"SignalBatch/pkg/cache"
	"SignalBatch/pkg/logger"
)

// CachedProvider wraps a MarketData provider with a read-through cache.
// Daily bars only move once a session, so a short TTL takes most of the
// load off the upstream API when jobs share tickers.
type CachedProvider struct {
	logger   *logger.Logger
	upstream domainrepo.MarketData
	cache    cache.Service
	ttl      time.Duration
}

var _ domainrepo.MarketData = (*CachedProvider)(nil)

// CachedOption configures CachedProvider.
type CachedOption func(*CachedProvider)

// WithCandleTTL overrides the cache TTL.
func WithCandleTTL(ttl time.Duration) CachedOption {
	return func(p *CachedProvider) {
		p.ttl = ttl
	}
}

// NewCachedProvider wraps upstream with the given cache service.
func NewCachedProvider(lgr *logger.Logger, upstream domainrepo.MarketData, c cache.Service, opts ...CachedOption) *CachedProvider {
	p := &CachedProvider{
		logger:   lgr,
		upstream: upstream,
		cache:    c,
		ttl:      15 * time.Minute,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type cachedSeries struct {
	Symbol  string          `json:"symbol"`
	Candles []models.Candle `json:"candles"`
}

func (p *CachedProvider) GetCandles(ctx context.Context, ticker models.Ticker, bars int) (models.PriceSeries, error) {
	key := cache.GenerateKeyWithParams("candles", ticker.Symbol(), bars)

	var hit cachedSeries
	err := p.cache.Get(ctx, key, &hit)
	if err == nil {
		return models.PriceSeries{Ticker: ticker, Candles: hit.Candles}, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		p.logger.Warn("candle cache read failed",
			logger.String("symbol", ticker.Symbol()),
			logger.Error(err))
	}

	series, err := p.upstream.GetCandles(ctx, ticker, bars)
	if err != nil {
		return models.PriceSeries{}, err
	}

	if err := p.cache.Set(ctx, key, cachedSeries{
		Symbol:  ticker.Symbol(),
		Candles: series.Candles,
	}, p.ttl); err != nil {
		p.logger.Warn("candle cache write failed",
			logger.String("symbol", ticker.Symbol()),
			logger.Error(fmt.Errorf("set %s: %w", key, err)))
	}

	return series, nil
}
