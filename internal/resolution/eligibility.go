package resolution

import (
	"time"

	"github.com/sawpanic/shadow-engine/internal/reason"
)

// DefaultCloseBuffer is the strict admission buffer before close_time
// (§4.6): a market is eligible only while now < close_time - buffer.
const DefaultCloseBuffer = 5 * time.Second

// EligibilityInput is the per-cycle input for the centralized-venue
// admission check.
type EligibilityInput struct {
	RulesText     string
	CloseTimeISO  string
	HasCloseTime  bool
	Now           time.Time
	CloseBuffer   time.Duration
}

// EligibilityResult names whether the market may be evaluated this
// cycle, and if not, why.
type EligibilityResult struct {
	Eligible bool
	Reason   reason.Code
	Source   Source
}

// CheckEligibility runs the L8 admission gate: resolvable rules text,
// a known venue, a parseable close_time, and a non-closed window.
func CheckEligibility(in EligibilityInput) EligibilityResult {
	src := Resolve(in.RulesText)
	if !src.Known() {
		return EligibilityResult{Eligible: false, Reason: reason.FeedRoutingUnknown, Source: src}
	}

	if !in.HasCloseTime {
		return EligibilityResult{Eligible: false, Reason: reason.MissingCloseTime, Source: src}
	}

	closeTime, err := time.Parse(time.RFC3339, in.CloseTimeISO)
	if err != nil {
		return EligibilityResult{Eligible: false, Reason: reason.MissingCloseTime, Source: src}
	}

	buffer := in.CloseBuffer
	if buffer <= 0 {
		buffer = DefaultCloseBuffer
	}

	if !in.Now.Before(closeTime.Add(-buffer)) {
		return EligibilityResult{Eligible: false, Reason: reason.MarketClosed, Source: src}
	}

	return EligibilityResult{Eligible: true, Reason: reason.Unknown, Source: src}
}

// CheckCLOBEligibility runs the decentralized-venue admission gate: it
// only validates that the market's rules text resolves to a known
// official feed, since close-time/closed-market gating for this venue
// already happens at candidate selection (§4.5 market filter) and in
// the strategy's own end-time gates (§4.8). Unlike CheckEligibility this
// never checks close_time.
func CheckCLOBEligibility(rulesText string) EligibilityResult {
	src := Resolve(rulesText)
	if !src.Known() {
		return EligibilityResult{Eligible: false, Reason: reason.ResolutionSourceUnknown, Source: src}
	}
	return EligibilityResult{Eligible: true, Reason: reason.Unknown, Source: src}
}
