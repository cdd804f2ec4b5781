// Package resolution implements L7 (resolution-source resolution from
// free-text market rules) and L8 (per-cycle eligibility admission).
package resolution

import (
	"regexp"
	"strings"

	"github.com/sawpanic/shadow-engine/internal/feed"
)

// Source is the frozen result of parsing a market's rules text: which
// official feed venue it references, the normalized BASE/QUOTE symbol,
// and the fallback order to try if the primary venue fails.
type Source struct {
	Venue    feed.Tag
	Symbol   string
	Fallback []feed.Tag
}

const unknownVenue feed.Tag = "unknown"

// fallbacks encodes the allowed fallback order per primary venue (§4.6).
var fallbacks = map[feed.Tag][]feed.Tag{
	feed.Coinbase: {feed.Gemini, feed.Binance},
	feed.Gemini:   {feed.Coinbase, feed.Binance},
	feed.Binance:  {},
}

// Per-venue spot patterns, e.g. "Resolved by the Coinbase BTC/USD spot
// price". Coinbase and Gemini tolerate a slash, hyphen, or bare space
// between base and quote; Binance requires the slash form.
var (
	coinbaseSpotPattern = regexp.MustCompile(`(?i)\bCoinbase\s+([A-Z0-9]{2,10})\s*[/-]?\s*([A-Z0-9]{2,10})\b`)
	geminiSpotPattern   = regexp.MustCompile(`(?i)\bGemini\s+([A-Z0-9]{2,10})\s*[/-]?\s*([A-Z0-9]{2,10})\b`)
	binanceSpotPattern  = regexp.MustCompile(`(?i)\bBinance\s+([A-Z0-9]{2,10})\s*/\s*([A-Z0-9]{2,10})\b`)
)

// venueProbes fixes the resolution priority: each pattern is searched
// in turn and the first venue with any match anywhere in the text wins,
// regardless of where the venues appear relative to each other (§4.6
// "first match wins" is venue order, not text order).
var venueProbes = []struct {
	pattern *regexp.Regexp
	venue   feed.Tag
}{
	{coinbaseSpotPattern, feed.Coinbase},
	{geminiSpotPattern, feed.Gemini},
	{binanceSpotPattern, feed.Binance},
}

// Resolve parses free-text market rules into a Source. On no match, it
// returns a Source with Venue=unknown and an empty Symbol; CheckEligibility
// reports that as FEED_ROUTING_UNKNOWN and CheckCLOBEligibility as
// RESOLUTION_SOURCE_UNKNOWN (§4.6).
func Resolve(rulesText string) Source {
	for _, probe := range venueProbes {
		m := probe.pattern.FindStringSubmatch(rulesText)
		if m == nil {
			continue
		}
		return Source{
			Venue:    probe.venue,
			Symbol:   strings.ToUpper(m[1]) + "/" + strings.ToUpper(m[2]),
			Fallback: fallbacks[probe.venue],
		}
	}
	return Source{Venue: unknownVenue}
}

// Known reports whether s resolved to one of the three official venues.
func (s Source) Known() bool {
	return s.Venue == feed.Coinbase || s.Venue == feed.Gemini || s.Venue == feed.Binance
}
