package providers

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/air-quality-aggregation/internal/airquality"
)

// BackoffConfig controls exponential backoff behaviour.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// HTTPClientConfig bundles HTTP client and resilience settings.
type HTTPClientConfig struct {
	Client  *http.Client
	Backoff BackoffConfig
}

var (
	errNotFound      = errors.New("not found")
	errRateLimited   = errors.New("rate limited")
	errServerError   = errors.New("server error")
	errUnexpected    = errors.New("unexpected status code")
	errNoHTTPClient  = errors.New("http client not configured")
	errInvalidConfig = errors.New("invalid backoff configuration")
)

func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})
}

func defaultHTTPConfig(client *http.Client) HTTPClientConfig {
	return HTTPClientConfig{
		Client: client,
		Backoff: BackoffConfig{
			MaxRetries:      3,
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     5 * time.Second,
		},
	}
}

// doRequestWithResilience executes the HTTP request with retries, exponential
// backoff, and a circuit breaker, and maps every failure mode into the typed
// taxonomy for src. A 404 is permanent (ErrNotFound) and never retried; rate
// limiting, 5xx, transport errors, open circuits and context timeouts all
// surface as ErrUpstream once retries are exhausted.
func doRequestWithResilience(
	ctx context.Context,
	cfg HTTPClientConfig,
	cb *gobreaker.CircuitBreaker,
	src airquality.Source,
	buildRequest func() (*http.Request, error),
) (*http.Response, error) {
	if cfg.Client == nil {
		return nil, airquality.Fail(src, airquality.ErrUpstream, errNoHTTPClient)
	}
	if cfg.Backoff.MaxRetries < 0 || cfg.Backoff.InitialInterval <= 0 {
		return nil, airquality.Fail(src, airquality.ErrUpstream, errInvalidConfig)
	}

	var attempt int
	var lastErr error

	for {
		if ctx.Err() != nil {
			return nil, airquality.Fail(src, airquality.ErrUpstream, ctx.Err())
		}

		req, err := buildRequest()
		if err != nil {
			return nil, airquality.Fail(src, airquality.ErrUpstream, err)
		}

		// Ensure the request obeys context cancellation.
		req = req.WithContext(ctx)

		result, err := cb.Execute(func() (interface{}, error) {
			resp, execErr := cfg.Client.Do(req)
			if execErr != nil {
				return nil, execErr
			}

			switch {
			case resp.StatusCode == http.StatusNotFound:
				resp.Body.Close()
				return nil, errNotFound
			case resp.StatusCode == http.StatusTooManyRequests:
				resp.Body.Close()
				return nil, errRateLimited
			case resp.StatusCode >= 500:
				resp.Body.Close()
				return nil, errServerError
			case resp.StatusCode < 200 || resp.StatusCode >= 300:
				resp.Body.Close()
				return nil, fmt.Errorf("%w: %d", errUnexpected, resp.StatusCode)
			}

			return resp, nil
		})

		if err == nil {
			resp, ok := result.(*http.Response)
			if !ok {
				return nil, airquality.Fail(src, airquality.ErrUpstream, fmt.Errorf("unexpected result type from circuit breaker"))
			}
			return resp, nil
		}

		// Permanent failures propagate immediately.
		if errors.Is(err, errNotFound) {
			return nil, airquality.Fail(src, airquality.ErrNotFound, nil)
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, airquality.Fail(src, airquality.ErrUpstream, err)
		}

		lastErr = err
		if attempt >= cfg.Backoff.MaxRetries {
			return nil, airquality.Fail(src, airquality.ErrUpstream, lastErr)
		}

		// Backoff with exponential delay.
		delay := cfg.Backoff.InitialInterval * time.Duration(math.Pow(2, float64(attempt)))
		if delay > cfg.Backoff.MaxInterval && cfg.Backoff.MaxInterval > 0 {
			delay = cfg.Backoff.MaxInterval
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, airquality.Fail(src, airquality.ErrUpstream, ctx.Err())
		case <-timer.C:
			// continue to next attempt
		}

		attempt++
	}
}
