package feed

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type funcClient struct {
	do func(req *http.Request) (*http.Response, error)
}

func (f funcClient) Do(req *http.Request) (*http.Response, error) { return f.do(req) }

func jsonResp(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

func TestCoinbaseFetch_Success(t *testing.T) {
	client := funcClient{do: func(req *http.Request) (*http.Response, error) {
		require.True(t, strings.Contains(req.URL.Path, "BTC-USD"))
		return jsonResp(200, `{"bid":"100.0","ask":"102.0"}`), nil
	}}
	a := NewCoinbaseAdapter(client, "", "test-agent", zerolog.Nop())
	q, ok := a.Fetch(context.Background(), "BTC/USD")
	require.True(t, ok)
	require.Equal(t, 101.0, q.Mid)
	require.Equal(t, q.VenueTSMs, q.LocalTSMs)
}

func TestCoinbaseFetch_GeoBlocked(t *testing.T) {
	client := funcClient{do: func(req *http.Request) (*http.Response, error) {
		return jsonResp(451, ``), nil
	}}
	a := NewCoinbaseAdapter(client, "", "test-agent", zerolog.Nop())
	_, ok := a.Fetch(context.Background(), "BTC/USD")
	require.False(t, ok)
}

func TestGeminiNativeSymbol(t *testing.T) {
	a := NewGeminiAdapter(nil, "", "test-agent", zerolog.Nop())
	sym, ok := a.NativeSymbol("BTC/USD")
	require.True(t, ok)
	require.Equal(t, "btcusd", sym)
}

func TestBinanceFetch_UsesServerTimeForVenueTS(t *testing.T) {
	calls := 0
	client := funcClient{do: func(req *http.Request) (*http.Response, error) {
		calls++
		if strings.Contains(req.URL.Path, "/time") {
			return jsonResp(200, `{"serverTime":1234567890123}`), nil
		}
		return jsonResp(200, `{"bidPrice":"50.0","askPrice":"51.0"}`), nil
	}}
	a := NewBinanceAdapter(client, "", "test-agent", zerolog.Nop())
	q, ok := a.Fetch(context.Background(), "BTC/USD")
	require.True(t, ok)
	require.Equal(t, 50.5, q.Mid)
	require.Equal(t, int64(1234567890123), q.VenueTSMs)
	require.NotEqual(t, q.VenueTSMs, q.LocalTSMs)
}

func TestBinanceFetch_RetriesThenFails(t *testing.T) {
	calls := 0
	client := funcClient{do: func(req *http.Request) (*http.Response, error) {
		calls++
		return jsonResp(500, ``), nil
	}}
	a := NewBinanceAdapter(client, "", "test-agent", zerolog.Nop())
	_, ok := a.Fetch(context.Background(), "BTC/USD")
	require.False(t, ok)
	require.Equal(t, binanceMaxRetries+1, calls)
}

func TestBinanceFetch_GeoBlockNotRetried(t *testing.T) {
	calls := 0
	client := funcClient{do: func(req *http.Request) (*http.Response, error) {
		calls++
		return jsonResp(451, ``), nil
	}}
	a := NewBinanceAdapter(client, "", "test-agent", zerolog.Nop())
	_, ok := a.Fetch(context.Background(), "BTC/USD")
	require.False(t, ok)
	require.Equal(t, 1, calls)
}

func TestRouter_FallsThroughToNextAdapter(t *testing.T) {
	failing := funcClient{do: func(req *http.Request) (*http.Response, error) {
		return jsonResp(500, ``), nil
	}}
	succeeding := funcClient{do: func(req *http.Request) (*http.Response, error) {
		return jsonResp(200, `{"bid":"10.0","ask":"12.0"}`), nil
	}}
	cb := NewCoinbaseAdapter(failing, "", "ua", zerolog.Nop())
	gm := NewGeminiAdapter(succeeding, "", "ua", zerolog.Nop())
	bn := NewBinanceAdapter(failing, "", "ua", zerolog.Nop())

	r := DefaultRouter(cb, gm, bn, zerolog.Nop())
	q, tag, ok := r.Route(context.Background(), "BTC/USD")
	require.True(t, ok)
	require.Equal(t, Gemini, tag)
	require.Equal(t, 11.0, q.Mid)
}

func TestRouter_RouteOrdered_HonorsSourceOrder(t *testing.T) {
	succeeding := funcClient{do: func(req *http.Request) (*http.Response, error) {
		return jsonResp(200, `{"bid":"10.0","ask":"12.0","bidPrice":"10.0","askPrice":"12.0","serverTime":1}`), nil
	}}
	cb := NewCoinbaseAdapter(succeeding, "", "ua", zerolog.Nop())
	gm := NewGeminiAdapter(succeeding, "", "ua", zerolog.Nop())
	bn := NewBinanceAdapter(succeeding, "", "ua", zerolog.Nop())

	r := DefaultRouter(cb, gm, bn, zerolog.Nop())

	// a gemini-primary source tries gemini first even though coinbase
	// also succeeds.
	_, tag, ok := r.RouteOrdered(context.Background(), "BTC/USD", []Tag{Gemini, Coinbase, Binance})
	require.True(t, ok)
	require.Equal(t, Gemini, tag)
}

func TestRouter_RouteOrdered_NoFallbackMeansOnlyPrimary(t *testing.T) {
	failing := funcClient{do: func(req *http.Request) (*http.Response, error) {
		return jsonResp(500, ``), nil
	}}
	succeeding := funcClient{do: func(req *http.Request) (*http.Response, error) {
		return jsonResp(200, `{"bid":"10.0","ask":"12.0"}`), nil
	}}
	cb := NewCoinbaseAdapter(succeeding, "", "ua", zerolog.Nop())
	gm := NewGeminiAdapter(succeeding, "", "ua", zerolog.Nop())
	bn := NewBinanceAdapter(failing, "", "ua", zerolog.Nop())

	r := DefaultRouter(cb, gm, bn, zerolog.Nop())

	// binance sources have no allowed fallbacks: a binance failure is a
	// miss even with healthy peers.
	_, _, ok := r.RouteOrdered(context.Background(), "BTC/USDT", []Tag{Binance})
	require.False(t, ok)
}

func TestRouter_AllFail(t *testing.T) {
	failing := funcClient{do: func(req *http.Request) (*http.Response, error) {
		return jsonResp(500, ``), nil
	}}
	cb := NewCoinbaseAdapter(failing, "", "ua", zerolog.Nop())
	gm := NewGeminiAdapter(failing, "", "ua", zerolog.Nop())
	bn := NewBinanceAdapter(failing, "", "ua", zerolog.Nop())

	r := DefaultRouter(cb, gm, bn, zerolog.Nop())
	_, _, ok := r.Route(context.Background(), "BTC/USD")
	require.False(t, ok)
}
