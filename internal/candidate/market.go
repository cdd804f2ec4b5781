// Package candidate implements L10: discover markets from a venue
// index, filter for eligibility, rank, and probe until one with a live
// order book is found.
package candidate

import (
	"encoding/json"
	"strings"
	"time"
)

// Market is the raw metadata shape returned by the discovery endpoint.
// Outcomes and ClobTokenIDs may each arrive as a JSON-encoded string or
// a native JSON array (§4.5 step 3); RawOutcomes/RawClobTokenIDs hold
// whichever form was sent.
type Market struct {
	ID              string          `json:"id"`
	Slug            string          `json:"slug"`
	EnableOrderBook bool            `json:"enableOrderBook"`
	AcceptingOrders bool            `json:"acceptingOrders"`
	Closed          bool            `json:"closed"`
	Restricted      bool            `json:"restricted"`
	EndDateISO      string          `json:"endDateIso"`
	Liquidity       float64         `json:"liquidity"`
	Volume24h       float64         `json:"volume24hr"`
	RawOutcomes     json.RawMessage `json:"outcomes"`
	RawClobTokenIDs json.RawMessage `json:"clobTokenIds"`
}

// Outcomes decodes RawOutcomes, which may be either a JSON array of
// strings or a JSON string containing an encoded array.
func (m Market) Outcomes() ([]string, bool) {
	return decodeStringList(m.RawOutcomes)
}

// ClobTokenIDs decodes RawClobTokenIDs the same way; each element must
// be representable as a string (string-or-int per §4.5 step 3).
func (m Market) ClobTokenIDs() ([]string, bool) {
	return decodeStringOrIntList(m.RawClobTokenIDs)
}

func decodeStringList(raw json.RawMessage) ([]string, bool) {
	if len(raw) == 0 {
		return nil, false
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, true
	}

	var encoded string
	if err := json.Unmarshal(raw, &encoded); err == nil {
		var inner []string
		if err := json.Unmarshal([]byte(encoded), &inner); err == nil {
			return inner, true
		}
	}
	return nil, false
}

func decodeStringOrIntList(raw json.RawMessage) ([]string, bool) {
	if len(raw) == 0 {
		return nil, false
	}

	if list, ok := decodeRawArrayOfScalars(raw); ok {
		return list, true
	}

	var encoded string
	if err := json.Unmarshal(raw, &encoded); err == nil {
		if list, ok := decodeRawArrayOfScalars([]byte(encoded)); ok {
			return list, true
		}
	}
	return nil, false
}

func decodeRawArrayOfScalars(raw json.RawMessage) ([]string, bool) {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, false
	}
	out := make([]string, 0, len(elems))
	for _, e := range elems {
		var s string
		if err := json.Unmarshal(e, &s); err == nil {
			out = append(out, s)
			continue
		}
		var n json.Number
		if err := json.Unmarshal(e, &n); err == nil {
			out = append(out, n.String())
			continue
		}
		return nil, false
	}
	return out, true
}

// hasYesNo reports whether outcomes contains exactly two entries whose
// lowercased forms are {"yes","no"} in some order.
func hasYesNo(outcomes []string) bool {
	if len(outcomes) != 2 {
		return false
	}
	a, b := strings.ToLower(outcomes[0]), strings.ToLower(outcomes[1])
	return (a == "yes" && b == "no") || (a == "no" && b == "yes")
}

// yesIndex returns the index of the "yes" outcome.
func yesIndex(outcomes []string) int {
	if strings.EqualFold(outcomes[0], "yes") {
		return 0
	}
	return 1
}

func minHoursToExpiry() time.Duration { return 24 * time.Hour }
