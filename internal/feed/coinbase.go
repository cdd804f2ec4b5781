package feed

import (
	"context"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/sawpanic/shadow-engine/internal/transport"
)

// CoinbaseAdapter fetches best bid/ask from Coinbase's public ticker
// endpoint. No retry: a single failed attempt simply yields ok=false for
// this cycle, and the router falls through to the next venue (§4.3).
type CoinbaseAdapter struct {
	client    transport.Client
	baseURL   string
	userAgent string
	log       zerolog.Logger
}

func NewCoinbaseAdapter(client transport.Client, baseURL, userAgent string, log zerolog.Logger) *CoinbaseAdapter {
	if baseURL == "" {
		baseURL = "https://api.exchange.coinbase.com"
	}
	return &CoinbaseAdapter{client: client, baseURL: baseURL, userAgent: userAgent, log: log}
}

func (a *CoinbaseAdapter) Tag() Tag { return Coinbase }

func (a *CoinbaseAdapter) NativeSymbol(pair string) (string, bool) {
	base, quote, ok := splitPair(pair)
	if !ok {
		return "", false
	}
	return strings.ToUpper(base) + "-" + strings.ToUpper(quote), true
}

type coinbaseTicker struct {
	Bid string `json:"bid"`
	Ask string `json:"ask"`
}

func (a *CoinbaseAdapter) Fetch(ctx context.Context, pair string) (Quote, bool) {
	sym, ok := a.NativeSymbol(pair)
	if !ok {
		return Quote{}, false
	}
	url := a.baseURL + "/products/" + sym + "/ticker"

	var out coinbaseTicker
	status, err := getJSON(ctx, a.client, url, a.userAgent, &out)
	if status == geoBlockStatus {
		a.log.Warn().Str("venue", "coinbase").Msg("geo-blocked (451)")
		return Quote{}, false
	}
	if err != nil {
		a.log.Debug().Err(err).Str("venue", "coinbase").Msg("fetch failed")
		return Quote{}, false
	}

	bid, err1 := strconv.ParseFloat(out.Bid, 64)
	ask, err2 := strconv.ParseFloat(out.Ask, 64)
	if err1 != nil || err2 != nil {
		return Quote{}, false
	}
	ts := nowMs()
	return Quote{Mid: (bid + ask) / 2, VenueTSMs: ts, LocalTSMs: ts}, true
}

func splitPair(pair string) (base, quote string, ok bool) {
	parts := strings.SplitN(pair, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}
