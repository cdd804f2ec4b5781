package parse

import "github.com/sawpanic/shadow-engine/internal/venue"

// ParseCentsBook parses one token's raw book (YES or NO) from the
// centralized cents venue, with the other token's book as complementRaw. The venue quotes either whole cents (1-99) or plain
// probabilities depending on the endpoint, so the scale is inferred
// from the token's own price magnitudes (§4.2 step 3): all ≤1 means
// scale 1, all in (1,100] means scale 100, and a mix — or anything
// over 100 — is ambiguous. When the token's own sides are empty the
// complement's prices drive the inference instead. Missing sides are
// derived from the complement token's book at the raw scale (§4.2 step 4)
// before dividing. Depth thresholds for this venue are notional (USD),
// not qty.
func ParseCentsBook(raw interface{}, complementRaw interface{}, venueName string, ts int64, th Thresholds) venue.Book {
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

	var compBids, compAsks []Level
	if complementRaw != nil {
		cobj, ok := complementRaw.(map[string]interface{})
		if !ok {
			return ambiguous(venueName, ts)
		}
		compBids, ok = parseSide(cobj["bids"])
		if !ok {
			return ambiguous(venueName, ts)
		}
		compAsks, ok = parseSide(cobj["asks"])
		if !ok {
			return ambiguous(venueName, ts)
		}
	}

	scalePrices := sidePrices(bids, asks)
	if len(scalePrices) == 0 {
		scalePrices = sidePrices(compBids, compAsks)
	}
	scale, ok := detectScale(scalePrices)
	if !ok {
		return ambiguous(venueName, ts)
	}

	// This token's asks derive from the complement's bids and its bids
	// from the complement's asks, still at the raw scale.
	asks, ok = deriveComplement(asks, compBids, scale)
	if !ok {
		return ambiguous(venueName, ts)
	}
	bids, ok = deriveComplement(bids, compAsks, scale)
	if !ok {
		return ambiguous(venueName, ts)
	}

	bids = divideScale(bids, scale)
	asks = divideScale(asks, scale)

	th.UseNotional = true
	return finalize(venueName, ts, bids, asks, th)
}
