package parse

import "github.com/sawpanic/shadow-engine/internal/venue"

// ParseCLOBBook parses the decentralized CLOB venue's raw order book
// for one token. raw is expected to be a JSON object with "bids"/"asks"
// array fields. This venue quotes probabilities in [0,1] only — any
// price above 1.0 is malformed, with no scale to infer.
//
// This never panics: any shape or invariant violation yields a
// NO_TRADE book with the matching FailReason.
func ParseCLOBBook(raw interface{}, venueName string, ts int64, th Thresholds) venue.Book {
	obj, ok := raw.(map[string]interface{})
	if !ok {
		return ambiguous(venueName, ts)
	}

	bids, ok := parseSide(obj["bids"])
	if !ok {
		return ambiguous(venueName, ts)
	}
	asks, ok := parseSide(obj["asks"])
	if !ok {
		return ambiguous(venueName, ts)
	}

	for _, p := range sidePrices(bids, asks) {
		if p > 1.0 {
			return ambiguous(venueName, ts)
		}
	}

	th.UseNotional = false
	return finalize(venueName, ts, bids, asks, th)
}
