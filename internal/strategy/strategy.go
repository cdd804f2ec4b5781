// Package strategy implements L12: the stale-edge evaluator. Each
// cycle runs a fixed, ordered gate chain (§4.8); the first failing
// gate wins and the rest are skipped.
package strategy

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/sawpanic/shadow-engine/internal/decision"
	"github.com/sawpanic/shadow-engine/internal/model"
	"github.com/sawpanic/shadow-engine/internal/reason"
	"github.com/sawpanic/shadow-engine/internal/venue"
)

// Params holds the configurable knobs for one evaluation. Fees and
// taxes are expressed as plain fractions (e.g. 0.0005 == 5bps).
type Params struct {
	TimeToEndCutoffSec int64   `yaml:"time_to_end_cutoff_sec"`
	OfficialStaleSec   int64   `yaml:"official_stale_sec"`
	BookStaleSec       int64   `yaml:"book_stale_sec"`
	SpreadMax          float64 `yaml:"spread_max"`
	FeesEst            float64 `yaml:"fees_est"`
	SpreadBuffer       float64 `yaml:"spread_buffer"`
	ModelErrorTax      float64 `yaml:"model_error_tax"`
	MinTradeUSD        float64 `yaml:"min_trade_usd"`
	FeedStaleAbortSec  int64   `yaml:"feed_stale_abort_sec"`
	MarketID           string  `yaml:"market_id"`
}

// Input is everything a single evaluation needs: current time, market
// end, the official feed's last reading, both token books, and the
// model to update.
type Input struct {
	NowMs            int64
	MarketEndTS      int64 // seconds
	HasOfficial      bool
	OfficialMid      float64
	OfficialTSMs     int64
	YesBook          venue.Book
	NoBook           venue.Book
	Model            *model.RollingReturns
	StartMs          int64
	LastOfficialOKMs int64
}

// Evaluate runs the ordered gate chain and returns a Decision.
func Evaluate(in Input, p Params) decision.Decision {
	nowSec := in.NowMs / 1000

	if feedStaleAbort(in, p) {
		return decision.NoTradeWith(reason.FeedStaleAbort)
	}

	if nowSec >= in.MarketEndTS {
		d := decision.NoTradeWith(reason.EndTimeAnomaly)
		d.Action = decision.CancelReplace
		d.CancelAll = true
		return d
	}

	if in.MarketEndTS-nowSec < p.TimeToEndCutoffSec {
		return decision.NoTradeWith(reason.TimeToEndCutoff)
	}

	if !in.HasOfficial {
		return decision.NoTradeWith(reason.OfficialFeedMissing)
	}

	if in.NowMs-in.OfficialTSMs > p.OfficialStaleSec*1000 {
		return decision.NoTradeWith(reason.StaleFeed)
	}

	if bookIsStale(in, p) {
		return decision.NoTradeWith(reason.StaleBook)
	}

	if in.YesBook.FailReason == venue.FailBookUnavailable && in.NoBook.FailReason == venue.FailBookUnavailable {
		return decision.NoTradeWith(reason.BookDataMissing)
	}

	if d, bad := thinnessGate(in.YesBook, in.NoBook); bad {
		return d
	}

	in.Model.Update(in.OfficialTSMs, in.OfficialMid)
	fair, ok := in.Model.FairUpProb()
	if !ok {
		return decision.NoTradeWith(reason.ModelWarmup)
	}

	impliedYes, hasYes := impliedPrice(in.YesBook)
	impliedNo, hasNo := impliedPrice(in.NoBook)
	if !hasYes || !hasNo {
		return decision.NoTradeWith(reason.BookIncomplete)
	}

	edgeYes := fair - impliedYes
	edgeNo := (1 - fair) - impliedNo
	edgeMin := p.FeesEst + p.SpreadBuffer + p.ModelErrorTax

	bestEdge := edgeYes
	bestSpread := sideSpread(in.YesBook)
	if edgeNo > edgeYes {
		bestEdge = edgeNo
		bestSpread = sideSpread(in.NoBook)
	}

	d := decision.Decision{
		Reason:        reason.EdgeTooSmall,
		ImpliedYes:    impliedYes,
		ImpliedNo:     impliedNo,
		FairUpProb:    fair,
		HasFairUpProb: true,
		EdgeYes:       edgeYes,
		EdgeNo:        edgeNo,
		EdgeGrossBps:  bestEdge * 10000,
		EdgeNetBps:    (bestEdge - edgeMin) * 10000,
		SpreadBps:     bestSpread * 10000,
		DepthTotal:    in.YesBook.DepthQtyTotal + in.NoBook.DepthQtyTotal,
		Action:        decision.NoTrade,
	}

	yesSpreadOK := sideSpread(in.YesBook) <= p.SpreadMax
	noSpreadOK := sideSpread(in.NoBook) <= p.SpreadMax

	switch {
	case edgeYes >= edgeNo && edgeYes > edgeMin && yesSpreadOK:
		d.Side = decision.SideYes
		d.Price = impliedYes
		d.Reason = reason.EdgeOK
		d.EdgeGrossBps = edgeYes * 10000
		d.EdgeNetBps = (edgeYes - edgeMin) * 10000
		d.SpreadBps = sideSpread(in.YesBook) * 10000
	case edgeNo > edgeMin && noSpreadOK:
		d.Side = decision.SideNo
		d.Price = impliedNo
		d.Reason = reason.EdgeOK
		d.EdgeGrossBps = edgeNo * 10000
		d.EdgeNetBps = (edgeNo - edgeMin) * 10000
		d.SpreadBps = sideSpread(in.NoBook) * 10000
	}

	if d.Reason != reason.EdgeOK {
		return d
	}

	d.Action = decision.PlaceOrder
	d.Size = p.MinTradeUSD
	d.ParamsHash = paramsHash(p.MarketID, d.Side, d.Price, d.Size)
	return d
}

func feedStaleAbort(in Input, p Params) bool {
	if p.FeedStaleAbortSec <= 0 {
		return false
	}
	last := in.LastOfficialOKMs
	if last == 0 {
		last = in.StartMs
	}
	return in.NowMs-last > p.FeedStaleAbortSec*1000
}

func bookIsStale(in Input, p Params) bool {
	nowSec := in.NowMs / 1000
	for _, b := range []venue.Book{in.YesBook, in.NoBook} {
		if b.TS == 0 {
			continue
		}
		if nowSec-b.TS > p.BookStaleSec {
			return true
		}
	}
	return false
}

// thinnessGate implements §4.8 step 6's four ordered checks across both
// token books.
func thinnessGate(yes, no venue.Book) (decision.Decision, bool) {
	yesMissing := bookMissing(yes)
	noMissing := bookMissing(no)

	if yesMissing && noMissing {
		d := decision.NoTradeWith(reason.ThinBook)
		d.SubReason = reason.NoBBO
		return d, true
	}
	if yesMissing || noMissing {
		d := decision.NoTradeWith(reason.ThinBook)
		d.SubReason = reason.OneSided
		return d, true
	}
	if yes.FailReason == venue.FailDepthBelowThreshold || no.FailReason == venue.FailDepthBelowThreshold {
		d := decision.NoTradeWith(reason.ThinBook)
		d.SubReason = reason.DepthBelowThreshold
		return d, true
	}
	if yes.FailReason == venue.FailSpreadWide || no.FailReason == venue.FailSpreadWide {
		d := decision.NoTradeWith(reason.ThinBook)
		d.SubReason = reason.SpreadWide
		return d, true
	}
	return decision.Decision{}, false
}

// bookMissing reports whether a book carries no usable BBO at all. A
// canonical NO_TRADE book drops its bid/ask regardless of why, so a
// depth- or spread-failed book must not be mistaken for an absent one:
// those keep their own sub-reason in the checks that follow.
func bookMissing(b venue.Book) bool {
	if b.FailReason == venue.FailDepthBelowThreshold || b.FailReason == venue.FailSpreadWide {
		return false
	}
	return b.BestBid == nil && b.BestAsk == nil
}

// impliedPrice returns the ask price, falling back to bid, per §4.8 step 8.
func impliedPrice(b venue.Book) (float64, bool) {
	if b.BestAsk != nil {
		return *b.BestAsk, true
	}
	if b.BestBid != nil {
		return *b.BestBid, true
	}
	return 0, false
}

func sideSpread(b venue.Book) float64 {
	if b.BestBid == nil || b.BestAsk == nil {
		return 0
	}
	return *b.BestAsk - *b.BestBid
}

// paramsHash is sha256("market:side:price:size") with price at 6dp and
// size at 4dp, per §4.8 step 10.
func paramsHash(marketID string, side decision.Side, price, size float64) string {
	s := fmt.Sprintf("%s:%s:%.6f:%.4f", marketID, side, price, size)
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
