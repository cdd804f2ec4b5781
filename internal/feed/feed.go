// Package feed implements L3 (official spot-price adapters) and L4 (the
// priority router over them). Every adapter returns a Quote or nothing;
// none of them ever escalate an error to the caller (§7 propagation
// policy).
package feed

import "context"

// Tag names one of the three official feed venues.
type Tag string

const (
	Coinbase Tag = "coinbase"
	Gemini   Tag = "gemini"
	Binance  Tag = "binance"
)

// Quote is the normalized result of a successful spot-price fetch.
type Quote struct {
	Mid       float64
	VenueTSMs int64
	LocalTSMs int64
}

// Adapter is the per-venue spot-price client contract.
type Adapter interface {
	Tag() Tag
	// NativeSymbol maps a canonical BASE/QUOTE pair (e.g. "BTC/USD") to
	// this venue's symbol spelling, or ok=false if unsupported.
	NativeSymbol(pair string) (symbol string, ok bool)
	// Fetch returns a Quote, or ok=false if the adapter could not
	// produce one (geo-block, network error, bad payload) — it never
	// returns an error to the caller.
	Fetch(ctx context.Context, pair string) (q Quote, ok bool)
}
