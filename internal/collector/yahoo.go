package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"GridOptimizer/internal/model"
)

// YahooFetcher implements Fetcher using the Yahoo Finance chart API.
type YahooFetcher struct {
	BaseURL   string
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker
	http      *httpClient
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(proxyURL string, requestsPerSec int) *YahooFetcher {
	return &YahooFetcher{
		BaseURL: "https://query1.finance.yahoo.com",
		SymbolMap: map[string]string{
			"BTCUSDT": "BTC-USD",
			"ETHUSDT": "ETH-USD",
			"SPX500":  "^GSPC",
		},
		http: newHTTPClient(proxyURL, requestsPerSec),
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open  []*float64 `json:"open"`
					High  []*float64 `json:"high"`
					Low   []*float64 `json:"low"`
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// yahooRange picks the smallest chart range covering limit bars of interval.
func yahooRange(interval string, limit int) string {
	switch interval {
	case "1h", "60m":
		switch {
		case limit <= 7*7:
			return "7d"
		case limit <= 30*7:
			return "1mo"
		case limit <= 90*7:
			return "3mo"
		}
		return "2y"
	case "1wk":
		switch {
		case limit <= 26:
			return "6mo"
		case limit <= 52:
			return "1y"
		case limit <= 260:
			return "5y"
		}
		return "max"
	default:
		switch {
		case limit <= 20:
			return "1mo"
		case limit <= 60:
			return "3mo"
		case limit <= 250:
			return "1y"
		case limit <= 500:
			return "2y"
		}
		return "10y"
	}
}

func (f *YahooFetcher) FetchCandles(ctx context.Context, symbol, interval string, limit int) ([]model.Candle, error) {
	if interval == "" {
		interval = "1d"
	}
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=%s&range=%s",
		f.BaseURL, url.PathEscape(f.yahooSymbol(symbol)), url.QueryEscape(interval), yahooRange(interval, limit))

	header := http.Header{}
	header.Set("User-Agent", "Mozilla/5.0")
	body, err := f.http.get(ctx, u, header)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 ||
		len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo: no data returned")
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	n := min(len(result.Timestamp), len(quote.Open), len(quote.High), len(quote.Low), len(quote.Close))
	candles := make([]model.Candle, 0, n)
	for i, ts := range result.Timestamp[:n] {
		if quote.Open[i] == nil || quote.High[i] == nil || quote.Low[i] == nil || quote.Close[i] == nil {
			continue // null bars (holidays, halted sessions)
		}
		candles = append(candles, model.Candle{
			Timestamp: ts * 1000,
			Open:      *quote.Open[i],
			High:      *quote.High[i],
			Low:       *quote.Low[i],
			Close:     *quote.Close[i],
		})
	}
	if limit > 0 && len(candles) > limit {
		candles = candles[len(candles)-limit:]
	}
	return candles, nil
}
