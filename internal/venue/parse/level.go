// Package parse implements the fail-closed raw-to-canonical order-book
// parsers for both venues (L5). Parsers never panic and never return an
// error; any ambiguity collapses to venue.Book{Status: NO_TRADE,
// FailReason: PARSE_AMBIGUOUS}.
package parse

import (
	"math"
	"strconv"
)

// Level is one bid or ask entry after shape normalization, still in the
// venue's raw price scale (pre scale-division).
type Level struct {
	Price float64
	Qty   float64
}

// shape distinguishes the two accepted level encodings within one side.
type shape int

const (
	shapeUnknown shape = iota
	shapePair          // [price, qty]
	shapeObject        // {price, size|qty|quantity}
)

// parseSide converts one side's raw levels (a JSON array) into []Level.
// Returns ok=false on any shape violation, non-finite/negative value, or
// disagreeing duplicate qty fields — the caller folds that into
// PARSE_AMBIGUOUS for the whole book.
func parseSide(raw interface{}) ([]Level, bool) {
	if raw == nil {
		return nil, true // absent side is valid (handled by BBO/complement logic)
	}
	items, ok := raw.([]interface{})
	if !ok {
		return nil, false
	}
	if len(items) == 0 {
		return []Level{}, true
	}

	levels := make([]Level, 0, len(items))
	sideShape := shapeUnknown

	for _, item := range items {
		lvl, itemShape, ok := parseLevel(item)
		if !ok {
			return nil, false
		}
		if sideShape == shapeUnknown {
			sideShape = itemShape
		} else if sideShape != itemShape {
			return nil, false // mixed shapes within one side
		}
		if !validLevel(lvl) {
			return nil, false
		}
		levels = append(levels, lvl)
	}
	return levels, true
}

func validLevel(l Level) bool {
	if math.IsNaN(l.Price) || math.IsInf(l.Price, 0) || l.Price < 0 {
		return false
	}
	if math.IsNaN(l.Qty) || math.IsInf(l.Qty, 0) || l.Qty < 0 {
		return false
	}
	return true
}

func parseLevel(item interface{}) (Level, shape, bool) {
	switch v := item.(type) {
	case []interface{}:
		if len(v) != 2 {
			return Level{}, shapeUnknown, false
		}
		price, ok := asFloat(v[0])
		if !ok {
			return Level{}, shapeUnknown, false
		}
		qty, ok := asFloat(v[1])
		if !ok {
			return Level{}, shapeUnknown, false
		}
		return Level{Price: price, Qty: qty}, shapePair, true

	case map[string]interface{}:
		price, ok := asFloat(v["price"])
		if !ok {
			return Level{}, shapeUnknown, false
		}
		qty, ok, agree := qtyFromObject(v)
		if !ok || !agree {
			return Level{}, shapeUnknown, false
		}
		return Level{Price: price, Qty: qty}, shapeObject, true

	default:
		return Level{}, shapeUnknown, false
	}
}

// qtyFromObject reads size|qty|quantity. If more than one key is present
// they must agree on value, per the spec's "duplicate qty fields with
// disagreeing values" rule.
func qtyFromObject(v map[string]interface{}) (qty float64, ok bool, agree bool) {
	var found bool
	for _, key := range []string{"size", "qty", "quantity"} {
		raw, present := v[key]
		if !present {
			continue
		}
		f, ok := asFloat(raw)
		if !ok {
			return 0, false, false
		}
		if !found {
			qty = f
			found = true
		} else if f != qty {
			return 0, true, false // present, parseable, but disagreeing
		}
	}
	if !found {
		return 0, false, false
	}
	return qty, true, true
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		return parseFloatStrict(n)
	default:
		return 0, false
	}
}

func parseFloatStrict(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
