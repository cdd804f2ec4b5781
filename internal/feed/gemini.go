package feed

import (
	"context"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/sawpanic/shadow-engine/internal/transport"
)

// GeminiAdapter fetches best bid/ask from Gemini's public ticker
// endpoint. Same no-retry contract as CoinbaseAdapter.
type GeminiAdapter struct {
	client    transport.Client
	baseURL   string
	userAgent string
	log       zerolog.Logger
}

func NewGeminiAdapter(client transport.Client, baseURL, userAgent string, log zerolog.Logger) *GeminiAdapter {
	if baseURL == "" {
		baseURL = "https://api.gemini.com"
	}
	return &GeminiAdapter{client: client, baseURL: baseURL, userAgent: userAgent, log: log}
}

func (a *GeminiAdapter) Tag() Tag { return Gemini }

func (a *GeminiAdapter) NativeSymbol(pair string) (string, bool) {
	base, quote, ok := splitPair(pair)
	if !ok {
		return "", false
	}
	return strings.ToLower(base) + strings.ToLower(quote), true
}

type geminiTicker struct {
	Bid string `json:"bid"`
	Ask string `json:"ask"`
}

func (a *GeminiAdapter) Fetch(ctx context.Context, pair string) (Quote, bool) {
	sym, ok := a.NativeSymbol(pair)
	if !ok {
		return Quote{}, false
	}
	url := a.baseURL + "/v1/pubticker/" + sym

	var out geminiTicker
	status, err := getJSON(ctx, a.client, url, a.userAgent, &out)
	if status == geoBlockStatus {
		a.log.Warn().Str("venue", "gemini").Msg("geo-blocked (451)")
		return Quote{}, false
	}
	if err != nil {
		a.log.Debug().Err(err).Str("venue", "gemini").Msg("fetch failed")
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
