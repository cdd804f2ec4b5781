package strategy

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sawpanic/shadow-engine/internal/decision"
	"github.com/sawpanic/shadow-engine/internal/model"
	"github.com/sawpanic/shadow-engine/internal/reason"
	"github.com/sawpanic/shadow-engine/internal/venue"
)

func f(v float64) *float64 { return &v }

func okBook(venueName string, bid, ask, qty float64) venue.Book {
	return venue.Book{Venue: venueName, TS: 1_700_000_000, BestBid: f(bid), BestAsk: f(ask), DepthQtyTotal: qty, Status: venue.StatusOK}
}

func basicParams() Params {
	return Params{
		TimeToEndCutoffSec: 60,
		OfficialStaleSec:   30,
		BookStaleSec:       30,
		SpreadMax:          0.1,
		FeesEst:            0.001,
		SpreadBuffer:       0.001,
		ModelErrorTax:      0.001,
		MinTradeUSD:        10,
		MarketID:           "m1",
	}
}

func baseInput() Input {
	return Input{
		NowMs:        1_700_000_000_000,
		MarketEndTS:  1_700_000_000 + 3600,
		HasOfficial:  true,
		OfficialMid:  0.5,
		OfficialTSMs: 1_700_000_000_000,
		YesBook:      okBook("clob", 0.45, 0.50, 200),
		NoBook:       okBook("clob", 0.48, 0.53, 200),
		Model:        model.New(model.Config{HorizonMs: 1000, WarmupSamples: 0}),
	}
}

func TestEvaluate_EndTimeAnomaly(t *testing.T) {
	in := baseInput()
	in.MarketEndTS = in.NowMs/1000 - 1
	d := Evaluate(in, basicParams())
	require.Equal(t, reason.EndTimeAnomaly, d.Reason)
	require.Equal(t, decision.CancelReplace, d.Action)
	require.True(t, d.CancelAll)
}

func TestEvaluate_TimeToEndCutoff(t *testing.T) {
	in := baseInput()
	in.MarketEndTS = in.NowMs/1000 + 10
	d := Evaluate(in, basicParams())
	require.Equal(t, reason.TimeToEndCutoff, d.Reason)
}

func TestEvaluate_OfficialFeedMissing(t *testing.T) {
	in := baseInput()
	in.HasOfficial = false
	d := Evaluate(in, basicParams())
	require.Equal(t, reason.OfficialFeedMissing, d.Reason)
}

func TestEvaluate_StaleFeed(t *testing.T) {
	in := baseInput()
	in.OfficialTSMs = in.NowMs - 60_000
	d := Evaluate(in, basicParams())
	require.Equal(t, reason.StaleFeed, d.Reason)
}

func TestEvaluate_StaleBook(t *testing.T) {
	in := baseInput()
	in.YesBook.TS = in.NowMs/1000 - 60
	d := Evaluate(in, basicParams())
	require.Equal(t, reason.StaleBook, d.Reason)
}

func TestEvaluate_ThinBook_NoBBO(t *testing.T) {
	in := baseInput()
	in.YesBook = venue.Book{Venue: "clob", TS: in.NowMs / 1000, Status: venue.StatusNoTrade, FailReason: venue.FailNoBBO}
	in.NoBook = venue.Book{Venue: "clob", TS: in.NowMs / 1000, Status: venue.StatusNoTrade, FailReason: venue.FailNoBBO}
	d := Evaluate(in, basicParams())
	require.Equal(t, reason.ThinBook, d.Reason)
	require.Equal(t, reason.NoBBO, d.SubReason)
}

func TestEvaluate_ThinBook_OneSided(t *testing.T) {
	in := baseInput()
	in.NoBook = venue.Book{Venue: "clob", TS: in.NowMs / 1000, Status: venue.StatusNoTrade, FailReason: venue.FailNoBBO}
	d := Evaluate(in, basicParams())
	require.Equal(t, reason.ThinBook, d.Reason)
	require.Equal(t, reason.OneSided, d.SubReason)
}

func TestEvaluate_ThinBook_DepthBelowThreshold(t *testing.T) {
	in := baseInput()
	in.YesBook.FailReason = venue.FailDepthBelowThreshold
	d := Evaluate(in, basicParams())
	require.Equal(t, reason.ThinBook, d.Reason)
	require.Equal(t, reason.DepthBelowThreshold, d.SubReason)
}

func TestEvaluate_ModelWarmup(t *testing.T) {
	in := baseInput()
	in.Model = model.New(model.Config{HorizonMs: 1000, WarmupSamples: 5})
	d := Evaluate(in, basicParams())
	require.Equal(t, reason.ModelWarmup, d.Reason)
}

func TestEvaluate_EmptyYesBook_ThinBookPrecedesBookIncomplete(t *testing.T) {
	in := baseInput()
	in.YesBook.BestAsk = nil
	in.YesBook.BestBid = nil
	in.YesBook.FailReason = venue.FailNone
	in.Model = model.New(model.Config{HorizonMs: 1000, WarmupSamples: 0})
	// NoBook stays intact but YesBook now has no bid/ask -> thinness gate
	// (ONE_SIDED) should fire first; this documents gate ordering.
	d := Evaluate(in, basicParams())
	require.Equal(t, reason.ThinBook, d.Reason)
}

func TestEvaluate_EdgeOK_PlacesOrder(t *testing.T) {
	in := baseInput()
	in.YesBook = okBook("clob", 0.30, 0.35, 200)
	in.NoBook = okBook("clob", 0.60, 0.65, 200)
	in.Model = model.New(model.Config{HorizonMs: 1000, WarmupSamples: 0})
	in.Model.Update(in.OfficialTSMs-2000, 0.5)

	d := Evaluate(in, basicParams())
	require.Equal(t, reason.EdgeOK, d.Reason)
	require.Equal(t, decision.PlaceOrder, d.Action)
	require.NotEmpty(t, d.ParamsHash)
}

func TestEvaluate_EdgeTooSmall(t *testing.T) {
	in := baseInput()
	in.YesBook = okBook("clob", 0.495, 0.505, 200)
	in.NoBook = okBook("clob", 0.495, 0.505, 200)
	in.Model = model.New(model.Config{HorizonMs: 1000, WarmupSamples: 0})
	in.Model.Update(in.OfficialTSMs-2000, 0.5)

	p := basicParams()
	p.FeesEst = 0.9 // push edge_min far above any attainable edge

	d := Evaluate(in, p)
	require.Equal(t, reason.EdgeTooSmall, d.Reason)
	require.Equal(t, decision.NoTrade, d.Action)
}

func TestEvaluate_BothBooksUnavailable_BookDataMissing(t *testing.T) {
	in := baseInput()
	in.YesBook = venue.Unavailable("clob", in.NowMs/1000)
	in.NoBook = venue.Unavailable("clob", in.NowMs/1000)
	d := Evaluate(in, basicParams())
	require.Equal(t, reason.BookDataMissing, d.Reason)
}

func TestEvaluate_ThinBook_DepthFailedParserBookKeepsSubReason(t *testing.T) {
	// a depth-failed canonical book drops its bid/ask; it must still
	// report DEPTH_BELOW_THRESHOLD, not NO_BBO.
	in := baseInput()
	in.YesBook = venue.Book{Venue: "clob", TS: in.NowMs / 1000, Status: venue.StatusNoTrade, FailReason: venue.FailDepthBelowThreshold}
	d := Evaluate(in, basicParams())
	require.Equal(t, reason.ThinBook, d.Reason)
	require.Equal(t, reason.DepthBelowThreshold, d.SubReason)
}

func TestEvaluate_EdgeOK_PopulatesBpsFields(t *testing.T) {
	in := baseInput()
	in.YesBook = okBook("clob", 0.30, 0.35, 200)
	in.NoBook = okBook("clob", 0.60, 0.65, 200)
	in.Model = model.New(model.Config{HorizonMs: 1000, WarmupSamples: 0})
	in.Model.Update(in.OfficialTSMs-2000, 0.5)

	d := Evaluate(in, basicParams())
	require.Equal(t, reason.EdgeOK, d.Reason)
	require.Greater(t, d.EdgeGrossBps, 0.0)
	require.Greater(t, d.EdgeNetBps, 0.0)
	require.Greater(t, d.SpreadBps, 0.0)
	require.Equal(t, d.Price, d.ImpliedNo, "price is the chosen side's implied price")
}

func TestEvaluate_FeedStaleAbort(t *testing.T) {
	in := baseInput()
	p := basicParams()
	p.FeedStaleAbortSec = 10
	in.StartMs = in.NowMs - 20_000
	in.LastOfficialOKMs = 0

	d := Evaluate(in, p)
	require.Equal(t, reason.FeedStaleAbort, d.Reason)
}
