// Package venue holds the canonical order-book contract shared by every
// venue adapter. The two parsers that populate it from raw, untrusted
// payloads (CLOB plain probability and cents-scaled) live in
// internal/venue/parse.
package venue

import (
	"math"

	"github.com/sawpanic/shadow-engine/internal/reason"
)

// Status is the coarse book health after parsing.
type Status string

const (
	StatusOK      Status = "OK"
	StatusNoTrade Status = "NO_TRADE"
)

// Book is the canonical, immutable order-book record every adapter in
// internal/venue/parse produces. Once constructed it is never mutated.
type Book struct {
	Venue                 string
	TS                    int64 // seconds
	BestBid               *float64
	BestAsk               *float64
	DepthQtyTotal         float64
	DepthNotionalTotalUSD *float64
	Status                Status
	FailReason            BookFailReason
}

// BookFailReason is the closed set of non-OK book states (§3).
type BookFailReason string

const (
	FailNone                BookFailReason = ""
	FailNoBBO               BookFailReason = "NO_BBO"
	FailDepthBelowThreshold BookFailReason = "DEPTH_BELOW_THRESHOLD"
	FailSpreadWide          BookFailReason = "SPREAD_WIDE"
	FailBookUnavailable     BookFailReason = "BOOK_UNAVAILABLE"
	FailParseAmbiguous      BookFailReason = "PARSE_AMBIGUOUS"
)

// OK reports whether the book satisfies the status=OK invariant from §3:
// both sides present, finite, crossed-free, and bid strictly below ask.
func (b Book) OK() bool {
	if b.Status != StatusOK {
		return false
	}
	if b.FailReason != FailNone {
		return false
	}
	if b.BestBid == nil || b.BestAsk == nil {
		return false
	}
	bid, ask := *b.BestBid, *b.BestAsk
	if math.IsNaN(bid) || math.IsNaN(ask) || math.IsInf(bid, 0) || math.IsInf(ask, 0) {
		return false
	}
	return bid < ask
}

// Unavailable builds a NO_TRADE book for a fetch failure (L6), carrying
// no bid/ask/depth.
func Unavailable(venueName string, ts int64) Book {
	return Book{Venue: venueName, TS: ts, Status: StatusNoTrade, FailReason: FailBookUnavailable}
}

// AgeMillis returns how stale this book is relative to nowMs (book.TS is
// in seconds, not milliseconds).
func (b Book) AgeMillis(nowMs int64) int64 {
	return nowMs - b.TS*1000
}

// SubReason maps a BookFailReason to the matching reason.SubReason,
// used when the strategy layer (L12) reports THIN_BOOK with a sub-reason.
func (f BookFailReason) SubReason() reason.SubReason {
	switch f {
	case FailNoBBO:
		return reason.NoBBO
	case FailDepthBelowThreshold:
		return reason.DepthBelowThreshold
	case FailSpreadWide:
		return reason.SpreadWide
	default:
		return reason.NoSubReason
	}
}
