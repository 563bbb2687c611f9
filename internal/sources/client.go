// Package sources provides best-effort clients for external market and news feeds.
package sources

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/rewired-gh/mandipulse/internal/models"
)

var (
	// ErrUnavailable means a source could not be reached or answered non-2xx.
	ErrUnavailable = errors.New("source unavailable")
	// ErrMalformedPayload means a source answered with an unexpected shape.
	ErrMalformedPayload = errors.New("malformed payload")
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// RecordSource is one external provider of priced records.
type RecordSource interface {
	Name() string
	FetchRecords(ctx context.Context) ([]models.PricedRecord, error)
}

// ClientConfig tunes the shared HTTP client.
type ClientConfig struct {
	Timeout    time.Duration
	MaxRetries int
}

func newClient(cfg ClientConfig) *resty.Client {
	c := resty.New()
	if cfg.Timeout > 0 {
		c.SetTimeout(cfg.Timeout)
	}
	c.SetRetryCount(cfg.MaxRetries)
	c.SetRetryWaitTime(500 * time.Millisecond)
	c.AddRetryCondition(func(r *resty.Response, err error) bool {
		return err != nil || r.StatusCode() >= 500
	})
	c.SetHeader("Accept", "application/json")
	c.SetHeader("User-Agent", userAgent)
	return c
}

// get performs a GET and returns the body of a 2xx response.
func get(ctx context.Context, c *resty.Client, url string, query map[string]string) ([]byte, error) {
	req := c.R().SetContext(ctx)
	if len(query) > 0 {
		req.SetQueryParams(query)
	}
	resp, err := req.Get(url)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode())
	}
	return resp.Body(), nil
}
