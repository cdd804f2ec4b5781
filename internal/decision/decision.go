// Package decision holds the Decision record produced once per cycle
// by L12 and rewritten by L13; it is never mutated after being
// returned to the caller.
package decision

import "github.com/sawpanic/shadow-engine/internal/reason"

type Action string

const (
	NoTrade       Action = "NO_TRADE"
	WouldEnter    Action = "WOULD_ENTER"
	WouldExit     Action = "WOULD_EXIT"
	CancelReplace Action = "CANCEL_REPLACE"
	PlaceOrder    Action = "PLACE_ORDER"
)

type Side string

const (
	SideNone Side = ""
	SideYes  Side = "YES"
	SideNo   Side = "NO"
)

// Decision is the outcome of one strategy evaluation.
type Decision struct {
	Action              Action
	Reason              reason.Code
	SubReason           reason.SubReason
	Side                Side
	Price               float64
	Size                float64
	ImpliedYes          float64
	ImpliedNo           float64
	FairUpProb          float64
	HasFairUpProb       bool
	EdgeYes             float64
	EdgeNo              float64
	EdgeGrossBps        float64
	EdgeNetBps          float64
	SpreadBps           float64
	DepthTotal          float64
	Regime              string
	FilterReason        string
	MicrostructureFlags []string
	ParamsHash          string
	CancelAll           bool
}

// NoTradeWith builds a minimal NO_TRADE decision carrying only a reason,
// the common shape returned by every early strategy gate.
func NoTradeWith(r reason.Code) Decision {
	return Decision{Action: NoTrade, Reason: r}
}
