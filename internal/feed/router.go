package feed

import (
	"context"

	"github.com/rs/zerolog"
)

// Router tries each adapter in priority order (coinbase, gemini, binance)
// for a canonical pair and returns the first successful Quote, per §4.3/§4.4.
type Router struct {
	adapters []Adapter
	log      zerolog.Logger
}

// SupportedPairs lists the canonical BASE/QUOTE pairs the router resolves.
var SupportedPairs = []string{"BTC/USD", "BTC/USDT", "ETH/USD", "ETH/USDT"}

func NewRouter(log zerolog.Logger, adapters ...Adapter) *Router {
	return &Router{adapters: adapters, log: log}
}

// DefaultRouter builds the router with the three official adapters in
// their mandated priority order: coinbase, then gemini, then binance.
func DefaultRouter(cb *CoinbaseAdapter, gm *GeminiAdapter, bn *BinanceAdapter, log zerolog.Logger) *Router {
	return NewRouter(log, cb, gm, bn)
}

// Route fetches a Quote for pair, trying adapters in order until one
// succeeds. It returns the venue tag of whichever adapter produced it.
func (r *Router) Route(ctx context.Context, pair string) (Quote, Tag, bool) {
	return r.routeOver(ctx, pair, r.adapters)
}

// RouteOrdered tries only the venues in order (a resolution source's
// primary plus its allowed fallbacks, §4.6), first success wins. An
// empty order falls back to the router's own priority.
func (r *Router) RouteOrdered(ctx context.Context, pair string, order []Tag) (Quote, Tag, bool) {
	if len(order) == 0 {
		return r.Route(ctx, pair)
	}
	adapters := make([]Adapter, 0, len(order))
	for _, tag := range order {
		if a := r.byTag(tag); a != nil {
			adapters = append(adapters, a)
		}
	}
	return r.routeOver(ctx, pair, adapters)
}

func (r *Router) byTag(tag Tag) Adapter {
	for _, a := range r.adapters {
		if a.Tag() == tag {
			return a
		}
	}
	return nil
}

func (r *Router) routeOver(ctx context.Context, pair string, adapters []Adapter) (Quote, Tag, bool) {
	for _, a := range adapters {
		if _, ok := a.NativeSymbol(pair); !ok {
			continue
		}
		q, ok := a.Fetch(ctx, pair)
		if !ok {
			r.log.Debug().Str("venue", string(a.Tag())).Str("pair", pair).Msg("feed adapter miss, falling through")
			continue
		}
		return q, a.Tag(), true
	}
	return Quote{}, "", false
}
