package resolution

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sawpanic/shadow-engine/internal/feed"
	"github.com/sawpanic/shadow-engine/internal/reason"
)

func TestResolve_Match(t *testing.T) {
	s := Resolve("This market resolves per Coinbase BTC/USD spot price at close.")
	require.Equal(t, feed.Coinbase, s.Venue)
	require.Equal(t, "BTC/USD", s.Symbol)
	require.Equal(t, []feed.Tag{feed.Gemini, feed.Binance}, s.Fallback)
}

func TestResolve_Binance(t *testing.T) {
	s := Resolve("Resolved using Binance ETH/USDT last trade price.")
	require.Equal(t, feed.Binance, s.Venue)
	require.Equal(t, "ETH/USDT", s.Symbol)
	require.Empty(t, s.Fallback)
}

func TestResolve_BinanceRequiresSlash(t *testing.T) {
	s := Resolve("Resolved using Binance ETH-USDT last trade price.")
	require.False(t, s.Known(), "the binance pattern only accepts the slash form")
}

func TestResolve_GeminiHyphenSeparator(t *testing.T) {
	s := Resolve("Resolved by the Gemini ETH-USD auction price.")
	require.Equal(t, feed.Gemini, s.Venue)
	require.Equal(t, "ETH/USD", s.Symbol)
}

func TestResolve_VenuePriorityBeatsTextOrder(t *testing.T) {
	// binance appears first in the sentence, but coinbase wins: venue
	// priority is fixed, not positional.
	s := Resolve("Uses Binance BTC/USDT as reference unless the Coinbase BTC/USD price is available.")
	require.Equal(t, feed.Coinbase, s.Venue)
	require.Equal(t, "BTC/USD", s.Symbol)
	require.Equal(t, []feed.Tag{feed.Gemini, feed.Binance}, s.Fallback)
}

func TestResolve_NoMatch(t *testing.T) {
	s := Resolve("Resolved by a committee vote.")
	require.False(t, s.Known())
}

func TestCheckEligibility_Eligible(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	res := CheckEligibility(EligibilityInput{
		RulesText:    "Coinbase BTC/USD",
		CloseTimeISO: now.Add(48 * time.Hour).Format(time.RFC3339),
		HasCloseTime: true,
		Now:          now,
	})
	require.True(t, res.Eligible)
}

func TestCheckEligibility_FeedRoutingUnknown(t *testing.T) {
	res := CheckEligibility(EligibilityInput{RulesText: "no venue mentioned", HasCloseTime: true, CloseTimeISO: time.Now().Format(time.RFC3339)})
	require.False(t, res.Eligible)
	require.Equal(t, reason.FeedRoutingUnknown, res.Reason)
}

func TestCheckEligibility_MissingCloseTime(t *testing.T) {
	res := CheckEligibility(EligibilityInput{RulesText: "Gemini BTC/USD", HasCloseTime: false})
	require.False(t, res.Eligible)
	require.Equal(t, reason.MissingCloseTime, res.Reason)
}

func TestCheckEligibility_BadDateFormat(t *testing.T) {
	res := CheckEligibility(EligibilityInput{RulesText: "Gemini BTC/USD", HasCloseTime: true, CloseTimeISO: "not-a-date"})
	require.False(t, res.Eligible)
	require.Equal(t, reason.MissingCloseTime, res.Reason)
}

func TestCheckEligibility_MarketClosed(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	res := CheckEligibility(EligibilityInput{
		RulesText:    "Coinbase BTC/USD",
		CloseTimeISO: now.Add(2 * time.Second).Format(time.RFC3339),
		HasCloseTime: true,
		Now:          now,
	})
	require.False(t, res.Eligible)
	require.Equal(t, reason.MarketClosed, res.Reason)
}

func TestCheckCLOBEligibility_Eligible(t *testing.T) {
	res := CheckCLOBEligibility("Binance ETH/USDT")
	require.True(t, res.Eligible)
}

func TestCheckCLOBEligibility_ResolutionSourceUnknown(t *testing.T) {
	res := CheckCLOBEligibility("resolved by a committee vote")
	require.False(t, res.Eligible)
	require.Equal(t, reason.ResolutionSourceUnknown, res.Reason)
}

func TestCheckCLOBEligibility_IgnoresCloseTime(t *testing.T) {
	res := CheckCLOBEligibility("Coinbase BTC/USD")
	require.True(t, res.Eligible, "the decentralized-venue check never gates on close_time")
}

func TestCheckEligibility_BufferBoundaryStrict(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	res := CheckEligibility(EligibilityInput{
		RulesText:    "Coinbase BTC/USD",
		CloseTimeISO: now.Add(DefaultCloseBuffer).Format(time.RFC3339),
		HasCloseTime: true,
		Now:          now,
	})
	require.False(t, res.Eligible, "now == close_time - buffer must fail the strict inequality")
}
