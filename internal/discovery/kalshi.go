package discovery

import "fmt"

const defaultKalshiBase = "https://trading-api.kalshi.com"

// KalshiOrderbookURL builds the centralized venue's combined orderbook
// endpoint for a market ticker. Kalshi has no markets-index endpoint
// wired here (see DESIGN.md): a ticker is always supplied directly by
// the caller, so this package exports only the per-ticker URL builders,
// not a Discoverer.
func KalshiOrderbookURL(base, ticker string) string {
	if base == "" {
		base = defaultKalshiBase
	}
	return fmt.Sprintf("%s/trade-api/v2/markets/%s/orderbook", base, ticker)
}

// KalshiMarketURL builds the market-metadata endpoint for a ticker. The
// runner does not call it: a Kalshi market's close time comes only from
// --market-end-ts.
func KalshiMarketURL(base, ticker string) string {
	if base == "" {
		base = defaultKalshiBase
	}
	return fmt.Sprintf("%s/trade-api/v2/markets/%s", base, ticker)
}
