// Package readiness implements L9: probing a CLOB token's liveness
// endpoint and caching the result per the exhaustive status/reason
// mapping in §4.4.
package readiness

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/sawpanic/shadow-engine/internal/metrics"
	"github.com/sawpanic/shadow-engine/internal/reason"
	"github.com/sawpanic/shadow-engine/internal/transport"
)

const maxRetries = 3

// Prober probes a token's liveness endpoint, retrying transient
// failures, and caches the outcome.
type Prober struct {
	client    transport.Client
	cache     *Cache
	userAgent string
	bearer    string
	timeout   time.Duration
	log       zerolog.Logger
	metrics   *metrics.Metrics
}

// SetMetrics wires the optional probe-cache-hit-ratio recorder (§3).
func (p *Prober) SetMetrics(m *metrics.Metrics) { p.metrics = m }

// SetCacheBackend wires an optional distributed cache backend (e.g.
// Redis) behind this Prober's process-local cache (§3 DOMAIN STACK).
func (p *Prober) SetCacheBackend(b Backend) { p.cache.SetBackend(b) }

type Config struct {
	UserAgent string
	Bearer    string
	Timeout   time.Duration
}

func NewProber(client transport.Client, cfg Config, log zerolog.Logger) *Prober {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Prober{client: client, cache: NewCache(), userAgent: cfg.UserAgent, bearer: cfg.Bearer, timeout: timeout, log: log}
}

// Probe returns the readiness of token, using the cache when fresh and
// otherwise issuing HTTP requests with retry.
func (p *Prober) Probe(ctx context.Context, livenessURL, token string) Result {
	if r, ok := p.cache.Get(token); ok {
		p.metrics.IncProbeCacheLookup(true)
		return r
	}
	p.metrics.IncProbeCacheLookup(false)

	r := p.probeNetwork(ctx, livenessURL)
	p.cache.Put(token, r)
	p.logProbe(token, r)
	return r
}

type livenessPayload struct {
	Mid *string `json:"mid"`
}

func (p *Prober) probeNetwork(ctx context.Context, url string) Result {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(backoff(attempt - 1))
		}

		result, retryable := p.doOnce(ctx, url)
		if !retryable {
			return result
		}
		if attempt == maxRetries {
			return result
		}
	}
	return Result{Status: RetryableError, Reason: reason.ClobUnknownError}
}

// doOnce issues a single probe request and maps the outcome per the
// §4.4 table. The second return value reports whether the caller
// should retry (only set for genuinely transient outcomes).
func (p *Prober) doOnce(ctx context.Context, url string) (Result, bool) {
	reqCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return Result{Status: RetryableError, Reason: reason.ClobUnknownError}, false
	}
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}
	if p.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+p.bearer)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return Result{Status: RetryableError, Reason: reason.ClobTimeout}, true
		}
		return Result{Status: RetryableError, Reason: reason.ClobUnknownError}, true
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	switch {
	case resp.StatusCode == http.StatusOK:
		var payload livenessPayload
		if json.Unmarshal(body, &payload) == nil && payload.Mid != nil {
			return Result{Status: Ready, Reason: reason.ProbeOK}, false
		}
		return Result{Status: NotReady, Reason: reason.ClobInvalidPayload}, false

	case resp.StatusCode == http.StatusNotFound:
		if strings.Contains(strings.ToLower(string(body)), "no orderbook exists") {
			return Result{Status: NotReady, Reason: reason.ClobNoOrderbook}, false
		}
		return Result{Status: NotReady, Reason: reason.NotFoundUnknown}, false

	case resp.StatusCode == http.StatusBadRequest:
		return Result{Status: NotReady, Reason: reason.InvalidTokenID}, false

	case resp.StatusCode == http.StatusTooManyRequests:
		return Result{Status: RetryableError, Reason: reason.ClobRateLimited}, true

	case resp.StatusCode >= 500:
		return Result{Status: RetryableError, Reason: reason.Clob5xx}, true

	default:
		return Result{Status: RetryableError, Reason: reason.ClobUnknownError}, false
	}
}

// backoff computes min(2.0, 0.25*2^attempt) seconds plus up to 10%
// jitter, per §4.4.
func backoff(attempt int) time.Duration {
	secs := math.Min(2.0, 0.25*math.Pow(2, float64(attempt)))
	d := time.Duration(secs * float64(time.Second))
	jitter := time.Duration(rand.Float64() * 0.10 * float64(d))
	return d + jitter
}

func isTimeout(err error) bool {
	type timeouter interface{ Timeout() bool }
	te, ok := err.(timeouter)
	return ok && te.Timeout()
}

// logProbe emits a single-line summary naming only the last 6 chars of
// token, never the URL (§4.4).
func (p *Prober) logProbe(token string, r Result) {
	suffix := token
	if len(suffix) > 6 {
		suffix = suffix[len(suffix)-6:]
	}
	p.log.Info().
		Str("token_suffix", suffix).
		Str("status", string(r.Status)).
		Str("reason", r.Reason.String()).
		Msg(fmt.Sprintf("probe %s", r.Status))
}
