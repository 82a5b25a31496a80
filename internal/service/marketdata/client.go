package marketdata

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"SignalBatch/internal/domain/models"
	domainrepo "SignalBatch/internal/domain/repository"
	pkghttp "SignalBatch/pkg/http"
)

// Client fetches daily candles from a Finnhub-compatible REST API.
type Client struct {
	http    *pkghttp.Client
	baseURL string
	apiKey  string
}

var _ domainrepo.MarketData = (*Client)(nil)

// NewClient creates a candle provider over the given REST endpoint.
func NewClient(httpClient *pkghttp.Client, baseURL, apiKey string) *Client {
	return &Client{
		http:    httpClient,
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

// candleResponse mirrors the provider's column-oriented candle payload.
type candleResponse struct {
	Status  string    `json:"s"`
	Times   []int64   `json:"t"`
	Opens   []float64 `json:"o"`
	Highs   []float64 `json:"h"`
	Lows    []float64 `json:"l"`
	Closes  []float64 `json:"c"`
	Volumes []float64 `json:"v"`
}

func (c *Client) GetCandles(ctx context.Context, ticker models.Ticker, bars int) (models.PriceSeries, error) {
	now := time.Now().UTC()
	// Daily resolution; over-fetch in calendar days to cover weekends and
	// holidays, then trim to the requested bar count.
	from := now.AddDate(0, 0, -(bars*7/5 + 10))

	var resp candleResponse
	err := c.http.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method: pkghttp.MethodGet,
		URL:    fmt.Sprintf("%s/stock/candle", c.baseURL),
		QueryParams: map[string][]string{
			"symbol":     {ticker.Symbol()},
			"resolution": {"D"},
			"from":       {strconv.FormatInt(from.Unix(), 10)},
			"to":         {strconv.FormatInt(now.Unix(), 10)},
			"token":      {c.apiKey},
		},
	}, &resp)
	if err != nil {
		return models.PriceSeries{}, fmt.Errorf("fetch candles %s: %w", ticker.Symbol(), err)
	}

	if resp.Status != "ok" {
		return models.PriceSeries{}, fmt.Errorf("no candle data for %s (status %q)", ticker.Symbol(), resp.Status)
	}

	n := len(resp.Times)
	if len(resp.Closes) != n || len(resp.Opens) != n || len(resp.Highs) != n ||
		len(resp.Lows) != n || len(resp.Volumes) != n {
		return models.PriceSeries{}, fmt.Errorf("ragged candle columns for %s", ticker.Symbol())
	}

	if n > bars {
		resp.Times = resp.Times[n-bars:]
		resp.Opens = resp.Opens[n-bars:]
		resp.Highs = resp.Highs[n-bars:]
		resp.Lows = resp.Lows[n-bars:]
		resp.Closes = resp.Closes[n-bars:]
		resp.Volumes = resp.Volumes[n-bars:]
		n = bars
	}

	candles := make([]models.Candle, n)
	for i := 0; i < n; i++ {
		candles[i] = models.Candle{
			Bucket: time.Unix(resp.Times[i], 0).UTC(),
			Open:   resp.Opens[i],
			High:   resp.Highs[i],
			Low:    resp.Lows[i],
			Close:  resp.Closes[i],
			Volume: resp.Volumes[i],
		}
	}

	return models.PriceSeries{Ticker: ticker, Candles: candles}, nil
}
