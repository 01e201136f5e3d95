package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"GridOptimizer/internal/model"
)

// RESTFetcher reads candles from an exchange adapter exposing
// GET {base}/api/v1/klines?symbol=&interval=&limit= as a JSON array of bars.
type RESTFetcher struct {
	BaseURL string
	APIKey  string
	http    *httpClient
}

// NewRESTFetcher creates a fetcher with optional proxy support.
func NewRESTFetcher(baseURL, apiKey, proxyURL string, requestsPerSec int) *RESTFetcher {
	return &RESTFetcher{
		BaseURL: baseURL,
		APIKey:  apiKey,
		http:    newHTTPClient(proxyURL, requestsPerSec),
	}
}

func (f *RESTFetcher) Name() string { return "rest" }

type restBar struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
}

func (f *RESTFetcher) FetchCandles(ctx context.Context, symbol, interval string, limit int) ([]model.Candle, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", interval)
	q.Set("limit", fmt.Sprint(limit))
	endpoint := f.BaseURL + "/api/v1/klines?" + q.Encode()

	header := http.Header{}
	if f.APIKey != "" {
		header.Set("Authorization", "Bearer "+f.APIKey)
	}
	body, err := f.http.get(ctx, endpoint, header)
	if err != nil {
		return nil, fmt.Errorf("fetch klines: %w", err)
	}
	var bars []restBar
	if err := json.Unmarshal(body, &bars); err != nil {
		return nil, fmt.Errorf("decode klines: %w", err)
	}
	candles := make([]model.Candle, len(bars))
	for i, b := range bars {
		candles[i] = model.Candle{Timestamp: b.Timestamp, Open: b.Open, High: b.High, Low: b.Low, Close: b.Close}
	}
	return candles, nil
}
