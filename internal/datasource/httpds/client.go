// Package httpds downloads survey exports over HTTP(S).
//
// Transient failures (transport errors, 5xx, 429) are retried with
// exponential backoff. Context cancellation is honored during requests and
// backoff waits.
package httpds

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"tableconverter/internal/datasource"
	"tableconverter/internal/errors"
	"tableconverter/internal/logger"
)

// Config configures the download client.
//
// Zero values are given defaults:
//   - Timeout:        30s
//   - InitialBackoff: 200ms
//   - MaxBackoff:     5s
type Config struct {
	Timeout time.Duration

	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int

	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	// InsecureSkipVerify disables TLS certificate checks. Survey servers on
	// internal networks often run with self-signed certificates.
	InsecureSkipVerify bool

	// Headers are sent with every request (e.g. an API token).
	Headers http.Header

	// Transport overrides the default transport. Tests use it.
	Transport http.RoundTripper
}

// Client wraps an http.Client with retry and backoff.
type Client struct {
	httpClient     *http.Client
	maxRetries     int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	headers        http.Header
	log            *zap.SugaredLogger
}

// NewClient builds a Client, applying defaults for zero values.
func NewClient(cfg Config, log *zap.SugaredLogger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 200 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 5 * time.Second
	}

	transport := cfg.Transport
	if transport == nil {
		transport = &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec // explicitly configurable
			},
		}
	}

	return &Client{
		httpClient:     &http.Client{Timeout: cfg.Timeout, Transport: transport},
		maxRetries:     cfg.MaxRetries,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		headers:        cfg.Headers.Clone(),
		log:            logger.OrNop(log),
	}
}

// Get fetches url and returns the response body on a 2xx status. Non-2xx
// statuses that are not retryable fail immediately. The caller closes the
// returned body.
func (c *Client) Get(ctx context.Context, url string) (io.ReadCloser, error) {
	if url == "" {
		return nil, errors.Configurationf("httpds: url must not be empty")
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			wait := backoffDuration(c.initialBackoff, attempt-1, c.maxBackoff)
			c.log.Warnw("retrying export download",
				"url", url, "attempt", attempt, "backoff", wait, logger.FieldError, lastErr)
			if err := sleepWithContext(ctx, wait); err != nil {
				return nil, err
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, errors.WrapConfiguration(err, "httpds: build request")
		}
		for k, vs := range c.headers {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			continue
		}
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp.Body, nil
		}
		_ = resp.Body.Close()

		lastErr = fmt.Errorf("status %d from GET %s", resp.StatusCode, url)
		if !isRetryableStatus(resp.StatusCode) {
			break
		}
	}
	return nil, errors.WrapData(lastErr, "httpds: download export")
}

// Source adapts a Client and URL to datasource.Source.
type Source struct {
	client *Client
	url    string
}

// NewSource returns a Source that downloads url with client.
func NewSource(client *Client, url string) *Source {
	return &Source{client: client, url: url}
}

var _ datasource.Source = (*Source)(nil)

// Open downloads the export.
func (s *Source) Open(ctx context.Context) (io.ReadCloser, error) {
	return s.client.Get(ctx, s.url)
}

// isRetryableStatus treats 5xx and 429 as transient.
func isRetryableStatus(code int) bool {
	if code == http.StatusTooManyRequests {
		return true
	}
	return code >= 500 && code <= 599
}

// backoffDuration returns initial * 2^retry, clamped to max.
func backoffDuration(initial time.Duration, retry int, max time.Duration) time.Duration {
	if retry <= 0 {
		return min(initial, max)
	}
	d := initial << retry
	if d <= 0 || d > max {
		return max
	}
	return d
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
