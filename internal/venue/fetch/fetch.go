// Package fetch implements L6: HTTP clients that retrieve raw order-book
// payloads for the L5 parsers, with retry/backoff and a per-venue
// circuit breaker so a persistently failing venue stops being hammered
// mid-cycle.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/sawpanic/shadow-engine/internal/retry"
	"github.com/sawpanic/shadow-engine/internal/transport"
)

const (
	maxRetries  = 3
	backoffBase = 1 * time.Second
	backoffCap  = 5 * time.Second
)

// Fetcher retrieves a raw JSON order-book payload over HTTP, retrying
// transient failures (429, 5xx, timeout, connection error) up to
// maxRetries times with exponential backoff capped at 5s.
type Fetcher struct {
	client    transport.Client
	breaker   *gobreaker.CircuitBreaker
	userAgent string
	timeout   time.Duration
	log       zerolog.Logger
}

// Config configures a Fetcher for one venue.
type Config struct {
	UserAgent      string
	RequestTimeout time.Duration // default 5s per §5
	Client         transport.Client
	Logger         zerolog.Logger
}

func NewFetcher(venueName string, cfg Config) *Fetcher {
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 5 * time.Second
	}
	if cfg.Client == nil {
		cfg.Client = transport.New(nil)
	}
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "venue-fetch:" + venueName,
		MaxRequests: 1,
		Interval:    0,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return &Fetcher{
		client:    cfg.Client,
		breaker:   breaker,
		userAgent: cfg.UserAgent,
		timeout:   cfg.RequestTimeout,
		log:       cfg.Logger,
	}
}

// ErrBookUnavailable signals a non-200 response or retry exhaustion; the
// book fetchers in this package map any FetchJSON error to
// venue.FailBookUnavailable.
var ErrBookUnavailable = errors.New("book unavailable")

// FetchJSON issues a GET request to url, retrying transient errors, and
// decodes the response body as a generic JSON value suitable for the L5
// parsers. It never returns a partially-decoded payload: on any failure
// the returned value is nil and err wraps ErrBookUnavailable.
func (f *Fetcher) FetchJSON(ctx context.Context, url string) (interface{}, error) {
	raw, err := f.breaker.Execute(func() (interface{}, error) {
		return f.fetchWithRetry(ctx, url)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: circuit open: %v", ErrBookUnavailable, err)
		}
		return nil, err
	}
	return raw, nil
}

func (f *Fetcher) fetchWithRetry(ctx context.Context, url string) (interface{}, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			d := retry.Backoff(backoffBase, backoffCap, attempt-1, 0)
			f.log.Debug().Int("attempt", attempt).Dur("backoff", d).Msg("retrying book fetch")
			select {
			case <-time.After(d):
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", ErrBookUnavailable, ctx.Err())
			}
		}

		body, status, err := f.doOnce(ctx, url)
		if err != nil {
			lastErr = err
			if isRetryableErr(err) {
				continue
			}
			return nil, fmt.Errorf("%w: %v", ErrBookUnavailable, err)
		}
		if status == http.StatusTooManyRequests || status >= 500 {
			lastErr = fmt.Errorf("http %d", status)
			continue
		}
		if status != http.StatusOK {
			return nil, fmt.Errorf("%w: http %d", ErrBookUnavailable, status)
		}

		var decoded interface{}
		if err := json.Unmarshal(body, &decoded); err != nil {
			return nil, fmt.Errorf("%w: decode: %v", ErrBookUnavailable, err)
		}
		return decoded, nil
	}
	return nil, fmt.Errorf("%w: exhausted retries: %v", ErrBookUnavailable, lastErr)
}

func (f *Fetcher) doOnce(ctx context.Context, url string) ([]byte, int, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, err
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	buf := make([]byte, 0, 4096)
	tmp := make([]byte, 4096)
	for {
		n, readErr := resp.Body.Read(tmp)
		if n > 0 {
			buf = append(buf, tmp[:n]...)
		}
		if readErr != nil {
			break
		}
	}
	return buf, resp.StatusCode, nil
}

func isRetryableErr(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
