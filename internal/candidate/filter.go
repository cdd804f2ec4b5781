package candidate

import (
	"time"

	"github.com/sawpanic/shadow-engine/internal/reason"
)

// Eligible runs the §4.5 step-2 metadata + time-window admission check
// for a single market. now is injected for testability.
func Eligible(m Market, now time.Time) (bool, reason.Code) {
	if !m.EnableOrderBook {
		return false, reason.OrderbookDisabled
	}
	if !m.AcceptingOrders {
		return false, reason.NotAcceptingOrders
	}
	if m.Closed {
		return false, reason.MarketFilteredOut
	}
	if m.Restricted {
		return false, reason.Restricted
	}
	if m.EndDateISO == "" {
		return false, reason.NoEndDate
	}

	end, err := time.Parse(time.RFC3339, m.EndDateISO)
	if err != nil {
		return false, reason.BadDateFormat
	}
	if end.Sub(now) < minHoursToExpiry() {
		return false, reason.ExpiringSoon
	}
	return true, reason.Unknown
}

// Tokens is the extracted two-outcome token pair for an eligible market.
type Tokens struct {
	YesTokenID string
	NoTokenID  string
}

// ExtractTokens runs §4.5 step 3: both outcomes and clobTokenIds must
// decode, have equal length, contain exactly 2 entries with
// case-insensitive yes/no membership, and token IDs must each be
// string-or-int.
func ExtractTokens(m Market) (Tokens, bool, reason.Code) {
	outcomes, ok := m.Outcomes()
	if !ok {
		return Tokens{}, false, reason.GammaParseError
	}
	tokens, ok := m.ClobTokenIDs()
	if !ok {
		return Tokens{}, false, reason.MissingClobTokenIDs
	}
	if len(outcomes) != len(tokens) {
		return Tokens{}, false, reason.OutcomeTokenLengthMismatch
	}
	if !hasYesNo(outcomes) {
		return Tokens{}, false, reason.UnsupportedOutcomesShape
	}

	yi := yesIndex(outcomes)
	ni := 1 - yi
	return Tokens{YesTokenID: tokens[yi], NoTokenID: tokens[ni]}, true, reason.Unknown
}
