package readiness

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/shadow-engine/internal/reason"
)

type funcClient struct {
	do func(req *http.Request) (*http.Response, error)
}

func (f funcClient) Do(req *http.Request) (*http.Response, error) { return f.do(req) }

func resp(status int, body string) *http.Response {
	return &http.Response{StatusCode: status, Body: io.NopCloser(strings.NewReader(body)), Header: make(http.Header)}
}

func TestProbe_ReadyWithMid(t *testing.T) {
	calls := 0
	client := funcClient{do: func(req *http.Request) (*http.Response, error) {
		calls++
		return resp(200, `{"mid":"0.5"}`), nil
	}}
	p := NewProber(client, Config{}, zerolog.Nop())

	r := p.Probe(context.Background(), "http://x/book/tok1", "tok1")
	require.Equal(t, Ready, r.Status)
	require.Equal(t, reason.ProbeOK, r.Reason)
	require.Equal(t, 1, calls)

	r2 := p.Probe(context.Background(), "http://x/book/tok1", "tok1")
	require.Equal(t, Ready, r2.Status)
	require.Equal(t, 1, calls, "second probe within TTL must not make a network call")
}

func TestProbe_200WithoutMid(t *testing.T) {
	client := funcClient{do: func(req *http.Request) (*http.Response, error) {
		return resp(200, `{}`), nil
	}}
	p := NewProber(client, Config{}, zerolog.Nop())
	r := p.Probe(context.Background(), "http://x", "tok2")
	require.Equal(t, NotReady, r.Status)
	require.Equal(t, reason.ClobInvalidPayload, r.Reason)
}

func TestProbe_404NoOrderbook(t *testing.T) {
	client := funcClient{do: func(req *http.Request) (*http.Response, error) {
		return resp(404, `No orderbook exists for this token`), nil
	}}
	p := NewProber(client, Config{}, zerolog.Nop())
	r := p.Probe(context.Background(), "http://x", "tok3")
	require.Equal(t, NotReady, r.Status)
	require.Equal(t, reason.ClobNoOrderbook, r.Reason)
}

func TestProbe_404Other(t *testing.T) {
	client := funcClient{do: func(req *http.Request) (*http.Response, error) {
		return resp(404, `not found`), nil
	}}
	p := NewProber(client, Config{}, zerolog.Nop())
	r := p.Probe(context.Background(), "http://x", "tok4")
	require.Equal(t, reason.NotFoundUnknown, r.Reason)
}

func TestProbe_400InvalidToken(t *testing.T) {
	client := funcClient{do: func(req *http.Request) (*http.Response, error) {
		return resp(400, ``), nil
	}}
	p := NewProber(client, Config{}, zerolog.Nop())
	r := p.Probe(context.Background(), "http://x", "tok5")
	require.Equal(t, reason.InvalidTokenID, r.Reason)
}

func TestProbe_429RetriesThenRateLimited(t *testing.T) {
	calls := 0
	client := funcClient{do: func(req *http.Request) (*http.Response, error) {
		calls++
		return resp(429, ``), nil
	}}
	p := NewProber(client, Config{}, zerolog.Nop())
	r := p.Probe(context.Background(), "http://x", "ratelimited-token")
	require.Equal(t, RetryableError, r.Status)
	require.Equal(t, reason.ClobRateLimited, r.Reason)
	require.Equal(t, maxRetries+1, calls, "exactly max_retries+1 HTTP calls (§8 Retry bound)")
}

func TestProbe_5xxRetriesThenFails(t *testing.T) {
	calls := 0
	client := funcClient{do: func(req *http.Request) (*http.Response, error) {
		calls++
		return resp(503, ``), nil
	}}
	p := NewProber(client, Config{}, zerolog.Nop())
	r := p.Probe(context.Background(), "http://x", "tok6")
	require.Equal(t, reason.Clob5xx, r.Reason)
	require.Equal(t, maxRetries+1, calls)
}

func TestCache_TTLExpiry(t *testing.T) {
	c := NewCache()
	fakeNow := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return fakeNow }

	c.Put("tok", Result{Status: RetryableError, Reason: reason.ClobRateLimited})
	_, ok := c.Get("tok")
	require.True(t, ok)

	fakeNow = fakeNow.Add(31 * time.Second)
	_, ok = c.Get("tok")
	require.False(t, ok, "RETRYABLE entries expire after 30s")
}

func TestCache_NoOrderbookTTL(t *testing.T) {
	c := NewCache()
	fakeNow := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return fakeNow }

	c.Put("tok", Result{Status: NotReady, Reason: reason.ClobNoOrderbook})
	fakeNow = fakeNow.Add(299 * time.Second)
	_, ok := c.Get("tok")
	require.True(t, ok)
	fakeNow = fakeNow.Add(2 * time.Second)
	_, ok = c.Get("tok")
	require.False(t, ok)
}
