// Package httpretry wraps an HTTP client with bounded retries for idempotent
// requests against flaky upstreams.
package httpretry

import (
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"time"

	"github.com/agentdrop/admin-console/internal/pkg/logger"
)

// HTTPDoer executes HTTP requests. *http.Client and *RetryClient satisfy it.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Options tune the retry schedule.
type Options struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// RetryClient retries GET and HEAD requests on network errors and 429/5xx
// responses, with capped exponential backoff and jitter. Other methods get a
// single attempt.
type RetryClient struct {
	client HTTPDoer
	opts   Options
}

// NewRetryClient wraps client. A nil client gets a 30s-timeout http.Client.
func NewRetryClient(client HTTPDoer, opts Options) *RetryClient {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = 500 * time.Millisecond
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = 10 * time.Second
	}
	return &RetryClient{client: client, opts: opts}
}

// Do executes req. The last response is returned as-is so callers can read
// the status and body.
func (rc *RetryClient) Do(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		return rc.client.Do(req)
	}

	var lastErr error
	for attempt := 0; attempt <= rc.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := rc.delay(attempt)
			logger.Warn("httpretry: retrying", "attempt", attempt, "host", req.URL.Host, "path", req.URL.Path, "wait", delay.String())
			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
			case <-req.Context().Done():
				timer.Stop()
				if lastErr != nil {
					return nil, lastErr
				}
				return nil, req.Context().Err()
			}
		}

		resp, err := rc.client.Do(req)
		if err != nil {
			if req.Context().Err() != nil {
				return nil, err
			}
			lastErr = err
			continue
		}
		if !retryable(resp.StatusCode) || attempt == rc.opts.MaxRetries {
			return resp, nil
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		lastErr = fmt.Errorf("httpretry: retryable status %d", resp.StatusCode)
	}
	return nil, lastErr
}

// RoundTrip lets a RetryClient serve as the Transport of an *http.Client
// handed to libraries that do not accept an HTTPDoer. The wrapped client
// must not use rc as its own transport.
func (rc *RetryClient) RoundTrip(req *http.Request) (*http.Response, error) {
	return rc.Do(req)
}

// delay is a full-jitter backoff: random(0, min(max, base*2^(attempt-1))),
// floored at a tenth of the base delay.
func (rc *RetryClient) delay(attempt int) time.Duration {
	exp := float64(rc.opts.BaseDelay) * math.Pow(2, float64(attempt-1))
	if exp > float64(rc.opts.MaxDelay) {
		exp = float64(rc.opts.MaxDelay)
	}
	d := time.Duration(rand.Float64() * exp)
	if floor := rc.opts.BaseDelay / 10; d < floor {
		d = floor
	}
	return d
}

func retryable(status int) bool {
	switch status {
	case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}
