package parse

import (
	"sort"

	"github.com/sawpanic/shadow-engine/internal/venue"
)

// Thresholds configures step 6 of §4.2. Depth is judged either on summed
// quantity (the CLOB venue) or summed notional (the cents venue).
type Thresholds struct {
	DepthQtyMin      float64 // PM_DEPTH_QTY_MIN
	DepthNotionalMin float64 // KALSHI_DEPTH_NOTIONAL_MIN
	SpreadMax        float64 // PM_SPREAD_MAX / KALSHI_SPREAD_MAX
	UseNotional      bool    // true: judge depth by notional (cents venue)
}

// detectScale implements §4.2 step 3 for the cents venue: all prices
// ≤1 -> scale 1, all >1 and ≤100 -> scale 100; a mix of ≤1 and >1, or
// anything beyond 100, is ambiguous. An empty price list is ambiguous
// too — there is nothing to infer a scale from.
func detectScale(prices []float64) (scale float64, ok bool) {
	if len(prices) == 0 {
		return 0, false
	}
	sawLEOne, sawAbove1 := false, false
	for _, p := range prices {
		if p > 100 {
			return 0, false
		}
		if p > 1 {
			sawAbove1 = true
		} else {
			sawLEOne = true
		}
	}
	if sawLEOne && sawAbove1 {
		return 0, false
	}
	if sawAbove1 {
		return 100, true
	}
	return 1, true
}

func sidePrices(all ...[]Level) []float64 {
	var out []float64
	for _, levels := range all {
		for _, l := range levels {
			out = append(out, l.Price)
		}
	}
	return out
}

func divideScale(levels []Level, scale float64) []Level {
	if scale == 1 || len(levels) == 0 {
		return levels
	}
	out := make([]Level, len(levels))
	for i, l := range levels {
		out[i] = Level{Price: l.Price / scale, Qty: l.Qty}
	}
	return out
}

// deriveComplement implements §4.2 step 4: if a side is empty but the
// token's logical complement (the other outcome's opposing side) is
// present, derive it as scale-price preserving qty. Operates at the
// raw price scale; a complement price beyond the scale cannot invert
// and is ambiguous.
func deriveComplement(thisSide []Level, otherSide []Level, scale float64) ([]Level, bool) {
	if len(thisSide) > 0 || len(otherSide) == 0 {
		return thisSide, true
	}
	derived := make([]Level, len(otherSide))
	for i, l := range otherSide {
		if l.Price > scale {
			return nil, false
		}
		derived[i] = Level{Price: scale - l.Price, Qty: l.Qty}
	}
	return derived, true
}

// sortAndBest sorts bids descending / asks ascending and returns the
// best of each, or nil if the side is empty.
func sortAndBest(bids, asks []Level) (sortedBids, sortedAsks []Level, bestBid, bestAsk *float64) {
	sortedBids = append([]Level(nil), bids...)
	sortedAsks = append([]Level(nil), asks...)
	sort.Slice(sortedBids, func(i, j int) bool { return sortedBids[i].Price > sortedBids[j].Price })
	sort.Slice(sortedAsks, func(i, j int) bool { return sortedAsks[i].Price < sortedAsks[j].Price })
	if len(sortedBids) > 0 {
		p := sortedBids[0].Price
		bestBid = &p
	}
	if len(sortedAsks) > 0 {
		p := sortedAsks[0].Price
		bestAsk = &p
	}
	return
}

func sumQty(levels []Level) float64 {
	var total float64
	for _, l := range levels {
		total += l.Qty
	}
	return total
}

func sumNotional(levels []Level) float64 {
	var total float64
	for _, l := range levels {
		total += l.Price * l.Qty
	}
	return total
}

// finalize applies §4.2 steps 5-6 to a scaled, complement-derived side
// pair and produces the canonical venue.Book.
func finalize(venueName string, ts int64, bids, asks []Level, th Thresholds) venue.Book {
	sortedBids, sortedAsks, bestBid, bestAsk := sortAndBest(bids, asks)

	if bestBid == nil || bestAsk == nil {
		return venue.Book{Venue: venueName, TS: ts, Status: venue.StatusNoTrade, FailReason: venue.FailNoBBO}
	}
	if *bestBid >= *bestAsk {
		// crossed book: fail-closed, never trade a crossed market.
		return venue.Book{Venue: venueName, TS: ts, Status: venue.StatusNoTrade, FailReason: venue.FailParseAmbiguous}
	}

	depthQty := sumQty(sortedBids) + sumQty(sortedAsks)
	depthNotional := sumNotional(sortedBids) + sumNotional(sortedAsks)

	thin := depthQty < th.DepthQtyMin
	if th.UseNotional {
		thin = depthNotional < th.DepthNotionalMin
	}
	if thin {
		return venue.Book{Venue: venueName, TS: ts, Status: venue.StatusNoTrade, FailReason: venue.FailDepthBelowThreshold}
	}

	if *bestAsk-*bestBid > th.SpreadMax {
		return venue.Book{Venue: venueName, TS: ts, Status: venue.StatusNoTrade, FailReason: venue.FailSpreadWide}
	}

	notional := depthNotional
	return venue.Book{
		Venue:                 venueName,
		TS:                    ts,
		BestBid:               bestBid,
		BestAsk:               bestAsk,
		DepthQtyTotal:         depthQty,
		DepthNotionalTotalUSD: &notional,
		Status:                venue.StatusOK,
		FailReason:            venue.FailNone,
	}
}

func ambiguous(venueName string, ts int64) venue.Book {
	return venue.Book{Venue: venueName, TS: ts, Status: venue.StatusNoTrade, FailReason: venue.FailParseAmbiguous}
}
