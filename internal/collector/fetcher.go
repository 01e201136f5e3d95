package collector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"GridOptimizer/internal/model"
)

// Fetcher supplies raw candles for a symbol. Implementations need not sort or
// de-duplicate; Collector does that.
type Fetcher interface {
	FetchCandles(ctx context.Context, symbol, interval string, limit int) ([]model.Candle, error)
	Name() string
}

// StatusError is a non-200 response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d, body: %s", e.StatusCode, e.Body)
}

// httpClient wraps http.Client with a request rate limit and exponential retry.
// Client errors (4xx other than 429) are not retried.
type httpClient struct {
	client     *http.Client
	limiter    *rate.Limiter
	maxElapsed time.Duration
	initial    time.Duration
}

func newHTTPClient(proxyURL string, requestsPerSec int) *httpClient {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if requestsPerSec <= 0 {
		requestsPerSec = 5
	}
	return &httpClient{
		client:     &http.Client{Timeout: 30 * time.Second, Transport: transport},
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSec), requestsPerSec),
		maxElapsed: 30 * time.Second,
	}
}

func (c *httpClient) get(ctx context.Context, endpoint string, header http.Header) ([]byte, error) {
	var body []byte
	operation := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		for k, v := range header {
			req.Header[k] = v
		}
		resp, err := c.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if resp.StatusCode != http.StatusOK {
			serr := &StatusError{StatusCode: resp.StatusCode, Body: string(b)}
			if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				return backoff.Permanent(serr)
			}
			return serr
		}
		body = b
		return nil
	}

	strategy := backoff.NewExponentialBackOff()
	strategy.MaxElapsedTime = c.maxElapsed
	if c.initial > 0 {
		strategy.InitialInterval = c.initial
	}
	if err := backoff.Retry(operation, backoff.WithContext(strategy, ctx)); err != nil {
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			return nil, perm.Err
		}
		return nil, err
	}
	return body, nil
}
