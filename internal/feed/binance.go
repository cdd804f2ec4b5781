package feed

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/sawpanic/shadow-engine/internal/retry"
	"github.com/sawpanic/shadow-engine/internal/transport"
)

const (
	binanceMaxRetries  = 3
	binanceBackoffBase = 500 * time.Millisecond
	binanceBackoffCap  = 4 * time.Second
)

// BinanceAdapter fetches best bid/ask plus server time, retrying
// transient failures 3x with exponential backoff (0.5s x 2^attempt),
// per §4.3.
type BinanceAdapter struct {
	client    transport.Client
	baseURL   string
	userAgent string
	log       zerolog.Logger
}

func NewBinanceAdapter(client transport.Client, baseURL, userAgent string, log zerolog.Logger) *BinanceAdapter {
	if baseURL == "" {
		baseURL = "https://api.binance.com"
	}
	return &BinanceAdapter{client: client, baseURL: baseURL, userAgent: userAgent, log: log}
}

func (a *BinanceAdapter) Tag() Tag { return Binance }

func (a *BinanceAdapter) NativeSymbol(pair string) (string, bool) {
	base, quote, ok := splitPair(pair)
	if !ok {
		return "", false
	}
	return strings.ToUpper(base) + strings.ToUpper(quote), true
}

type binanceBookTicker struct {
	BidPrice string `json:"bidPrice"`
	AskPrice string `json:"askPrice"`
}

type binanceServerTime struct {
	ServerTime int64 `json:"serverTime"`
}

func (a *BinanceAdapter) Fetch(ctx context.Context, pair string) (Quote, bool) {
	sym, ok := a.NativeSymbol(pair)
	if !ok {
		return Quote{}, false
	}

	var out binanceBookTicker
	ok = a.retryGet(ctx, a.baseURL+"/api/v3/ticker/bookTicker?symbol="+sym, &out)
	if !ok {
		return Quote{}, false
	}

	bid, err1 := strconv.ParseFloat(out.BidPrice, 64)
	ask, err2 := strconv.ParseFloat(out.AskPrice, 64)
	if err1 != nil || err2 != nil {
		return Quote{}, false
	}

	local := nowMs()
	venueTS := local

	var st binanceServerTime
	if a.retryGet(ctx, a.baseURL+"/api/v3/time", &st) && st.ServerTime > 0 {
		venueTS = st.ServerTime
	}

	return Quote{Mid: (bid + ask) / 2, VenueTSMs: venueTS, LocalTSMs: local}, true
}

// retryGet issues a GET with the binance-specific retry/backoff policy.
// A 451 (geo-block) is recognized distinctly and never retried.
func (a *BinanceAdapter) retryGet(ctx context.Context, url string, out interface{}) bool {
	for attempt := 0; attempt <= binanceMaxRetries; attempt++ {
		if attempt > 0 {
			d := retry.Backoff(binanceBackoffBase, binanceBackoffCap, attempt-1, 0)
			select {
			case <-time.After(d):
			case <-ctx.Done():
				return false
			}
		}

		status, err := getJSON(ctx, a.client, url, a.userAgent, out)
		if status == geoBlockStatus {
			a.log.Warn().Str("venue", "binance").Msg("geo-blocked (451)")
			return false
		}
		if err == nil {
			return true
		}
		a.log.Debug().Err(err).Int("attempt", attempt).Str("venue", "binance").Msg("fetch failed, retrying")
	}
	return false
}
