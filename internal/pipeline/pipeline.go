// Package pipeline orchestrates one shadow-runner cycle end to end for a
// market already chosen by the caller (L10 selection, with L9 probes,
// runs once in cmd/shadow-runner): L8 checks eligibility (using L7) ->
// L4 fetches the official price (using L3) -> L6+L5 fetch the venue
// books -> L12 decides (using L11) -> L13 post-processes -> L14
// persists (§2).
package pipeline

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/sawpanic/shadow-engine/internal/artifact"
	"github.com/sawpanic/shadow-engine/internal/decision"
	"github.com/sawpanic/shadow-engine/internal/feed"
	"github.com/sawpanic/shadow-engine/internal/metrics"
	"github.com/sawpanic/shadow-engine/internal/model"
	"github.com/sawpanic/shadow-engine/internal/reason"
	"github.com/sawpanic/shadow-engine/internal/resolution"
	"github.com/sawpanic/shadow-engine/internal/risk"
	"github.com/sawpanic/shadow-engine/internal/strategy"
	"github.com/sawpanic/shadow-engine/internal/venue"
)

// VenueBookFetcher fetches and parses a single token's order book.
type VenueBookFetcher interface {
	FetchBook(ctx context.Context, tokenID string) venue.Book
}

// VenueKind names which of the two venues (§1) a Market belongs to,
// selecting which L8 eligibility check and journal venue tag RunCycle
// uses. The zero value behaves as VenuePolymarket, matching the CLI's
// default (§6).
type VenueKind string

const (
	VenuePolymarket VenueKind = "polymarket"
	VenueKalshi     VenueKind = "kalshi"
)

// Market is the minimal per-run market description; in single-market
// shadow-runner invocations (§6 CLI) this is fixed for the run.
type Market struct {
	ID          string
	VenueKind   VenueKind
	RulesText   string
	CloseTimeISO string
	HasCloseTime bool
	EndTS       int64 // seconds
	YesTokenID  string
	NoTokenID   string
}

// Config holds the knobs threaded from CLI/env into each cycle.
type Config struct {
	Strategy  strategy.Params
	CycleBudget time.Duration
	RunID     string
}

// Runner owns all per-process mutable state (§2 Ownership): the model
// window, the risk controller, and the feed router.
type Runner struct {
	market  Market
	router  *feed.Router
	books   VenueBookFetcher
	model   *model.RollingReturns
	risk    *risk.Controller
	store   *artifact.Store
	cfg     Config
	log     zerolog.Logger

	startMs          int64
	lastOfficialOKMs int64
	cycleCount       int64

	lastSuccessAt    string
	lastErrorAt      string
	lastError        string
	artifactsWritten int64
	build            artifact.Build
	metrics          *metrics.Metrics
}

// SetMetrics wires an optional Prometheus recorder (§3 DOMAIN STACK).
// Leaving it unset keeps RunCycle's behavior identical; metrics is
// ambient observability, never load-bearing for a decision.
func (r *Runner) SetMetrics(m *metrics.Metrics) { r.metrics = m }

func NewRunner(market Market, router *feed.Router, books VenueBookFetcher, mdl *model.RollingReturns, riskCtl *risk.Controller, store *artifact.Store, cfg Config, log zerolog.Logger) *Runner {
	return &Runner{
		market: market, router: router, books: books, model: mdl, risk: riskCtl,
		store: store, cfg: cfg, log: log, startMs: nowMs(),
		build: buildInfo(),
	}
}

// buildInfo reads the binary's Go version and vcs revision/modified flag for
// health.json's build field (§6, SPEC_FULL §5), generalizing the
// teacher's hardcoded version constant to actual build provenance.
func buildInfo() artifact.Build {
	b := artifact.Build{GoVersion: goVersion()}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return b
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			b.Revision = s.Value
		case "vcs.modified":
			b.Modified = s.Value == "true"
		}
	}
	return b
}

func goVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	return info.GoVersion
}

func nowMs() int64 { return time.Now().UnixMilli() }

// RunCycle executes one full decision cycle, writing artifacts, and
// returns the resulting Decision.
func (r *Runner) RunCycle(ctx context.Context) decision.Decision {
	cycleStart := time.Now()
	deadline := cycleStart.Add(r.cfg.CycleBudget)
	r.cycleCount++

	var elig resolution.EligibilityResult
	if r.market.VenueKind == VenueKalshi {
		elig = resolution.CheckEligibility(resolution.EligibilityInput{
			RulesText:    r.market.RulesText,
			CloseTimeISO: r.market.CloseTimeISO,
			HasCloseTime: r.market.HasCloseTime,
			Now:          time.Now(),
		})
	} else {
		elig = resolution.CheckCLOBEligibility(r.market.RulesText)
	}
	if !elig.Eligible {
		d := decision.NoTradeWith(elig.Reason)
		r.persist(d, cycleCtx{symbol: elig.Source.Symbol, start: cycleStart})
		return d
	}

	order := append([]feed.Tag{elig.Source.Venue}, elig.Source.Fallback...)
	quote, tag, ok := r.router.RouteOrdered(ctx, elig.Source.Symbol, order)
	nowMillis := nowMs()
	if ok {
		r.lastOfficialOKMs = nowMillis
	}

	yesBook := r.books.FetchBook(ctx, r.market.YesTokenID)
	noBook := r.books.FetchBook(ctx, r.market.NoTokenID)

	cctx := cycleCtx{
		quote:    &quote,
		hasQuote: ok,
		venueTag: string(tag),
		symbol:   elig.Source.Symbol,
		yesBook:  &yesBook,
		noBook:   &noBook,
		start:    cycleStart,
	}

	if r.cfg.CycleBudget > 0 && time.Now().After(deadline) {
		d := decision.NoTradeWith(reason.StrategyError)
		cctx.err = fmt.Errorf("cycle exceeded budget %s", r.cfg.CycleBudget)
		r.persist(d, cctx)
		return d
	}

	d := strategy.Evaluate(strategy.Input{
		NowMs:            nowMillis,
		MarketEndTS:      r.market.EndTS,
		HasOfficial:      ok,
		OfficialMid:      quote.Mid,
		OfficialTSMs:     quote.VenueTSMs,
		YesBook:          yesBook,
		NoBook:           noBook,
		Model:            r.model,
		StartMs:          r.startMs,
		LastOfficialOKMs: r.lastOfficialOKMs,
	}, r.cfg.Strategy)

	d = r.risk.Apply(d, r.market.ID)

	// The shadow runner relabels a successful PLACE_ORDER as WOULD_ENTER
	// at this boundary (§4.8 step 10): the engine never transmits orders.
	if d.Action == decision.PlaceOrder {
		d.Action = decision.WouldEnter
	}

	r.persist(d, cctx)
	return d
}

// cycleCtx bundles the per-cycle observations persist needs to fill
// every journal_v1 column; absent members leave their columns empty.
type cycleCtx struct {
	quote    *feed.Quote
	hasQuote bool
	venueTag string
	symbol   string
	yesBook  *venue.Book
	noBook   *venue.Book
	start    time.Time
	err      error
}

// persist writes the three artifact files. A cycle-internal failure in
// cctx.err flows into health.last_error without ever escalating to
// RunCycle's caller (§7 Propagation policy: L14 is the only component
// that returns an error, and that error is recorded, not propagated,
// by the pipeline itself).
func (r *Runner) persist(d decision.Decision, cctx cycleCtx) {
	cycleErr := cctx.err
	mid, ts := "", ""
	if cctx.hasQuote && cctx.quote != nil {
		mid = artifact.FormatFloat(cctx.quote.Mid, 6)
		ts = artifact.FormatFloat(float64(cctx.quote.VenueTSMs), 0)
	}
	nowStr := time.Now().UTC().Format(time.RFC3339)

	pmYesMid := 0.0
	if cctx.yesBook != nil && cctx.yesBook.BestBid != nil && cctx.yesBook.BestAsk != nil {
		pmYesMid = (*cctx.yesBook.BestBid + *cctx.yesBook.BestAsk) / 2
	}

	sum := artifact.NewSummary(
		nowStr,
		r.cfg.RunID, r.market.ID, string(d.Action), d.Reason.String(), string(d.SubReason),
		d.EdgeGrossBps, pmYesMid, d.FairUpProb, "", sanitizedErrString(cycleErr),
	)
	if err := r.store.WriteSummary(sum); err != nil {
		r.log.Warn().Err(err).Msg("summary write failed")
		cycleErr = err
	} else {
		r.artifactsWritten++
	}

	bookVenue := string(r.market.VenueKind)
	if bookVenue == "" {
		bookVenue = string(VenuePolymarket)
	}
	riskReason := ""
	if reason.CategoryOf(d.Reason) == reason.CategoryRisk {
		riskReason = d.Reason.String()
	}
	row := artifact.JournalRow{
		"ts_ms":          artifact.FormatFloat(float64(nowMs()), 0),
		"cycle_id":       artifact.FormatFloat(float64(r.cycleCount), 0),
		"venue":          bookVenue,
		"market_id":      r.market.ID,
		"symbol":         cctx.symbol,
		"official_venue": cctx.venueTag,
		"official_mid":   mid,
		"official_ts_ms": ts,
		"fair_up_prob":   artifact.FormatFloat(d.FairUpProb, 6),
		"implied_yes":    artifact.FormatFloat(d.ImpliedYes, 6),
		"implied_no":     artifact.FormatFloat(d.ImpliedNo, 6),
		"edge_yes":       artifact.FormatFloat(d.EdgeYes, 6),
		"edge_no":        artifact.FormatFloat(d.EdgeNo, 6),
		"edge_gross_bps": artifact.FormatFloat(d.EdgeGrossBps, 2),
		"edge_net_bps":   artifact.FormatFloat(d.EdgeNetBps, 2),
		"spread_bps":     artifact.FormatFloat(d.SpreadBps, 2),
		"depth_total":    artifact.FormatFloat(d.DepthTotal, 2),
		"market_class":   marketClass(cctx.symbol),
		"regime":         d.Regime,
		"action":         string(d.Action),
		"reason":         d.Reason.String(),
		"subreason":      string(d.SubReason),
		"risk_reason":    riskReason,
		"signal_side":    string(d.Side),
		"signal_price":   artifact.FormatFloat(d.Price, 6),
		"signal_size":    artifact.FormatFloat(d.Size, 4),
		"params_hash":    d.ParamsHash,
	}
	fillBookColumns(row, cctx.yesBook)
	schemaOK, err := r.store.AppendJournal(row)
	if err != nil {
		r.log.Warn().Err(err).Msg("journal append failed")
		cycleErr = err
		// a write failure surfaces via last_error, not schema_mismatch
		schemaOK = true
	} else {
		r.artifactsWritten++
	}

	if cycleErr != nil {
		r.lastErrorAt = nowStr
		r.lastError = cycleErr.Error()
	} else {
		r.lastSuccessAt = nowStr
	}

	h := artifact.NewHealth(
		nowStr, r.lastSuccessAt, r.lastErrorAt, r.lastError,
		time.Since(cctx.start).Milliseconds(), r.artifactsWritten, r.store.JournalRowCount(),
		r.build, int64(time.Since(time.UnixMilli(r.startMs)).Seconds()), !schemaOK,
	)
	if err := r.store.WriteHealth(h); err != nil {
		r.log.Warn().Err(err).Msg("health write failed")
	} else {
		r.artifactsWritten++
	}

	r.metrics.ObserveCycle(time.Since(cctx.start).Seconds())
	r.metrics.IncDecision(string(d.Action), d.Reason.String())
}

// fillBookColumns writes the PM book block from the YES-token book;
// absent books leave the columns empty.
func fillBookColumns(row artifact.JournalRow, b *venue.Book) {
	if b == nil {
		return
	}
	if b.BestBid != nil {
		row["pm_best_bid"] = artifact.FormatFloat(*b.BestBid, 6)
	}
	if b.BestAsk != nil {
		row["pm_best_ask"] = artifact.FormatFloat(*b.BestAsk, 6)
	}
	row["pm_depth_qty"] = artifact.FormatFloat(b.DepthQtyTotal, 2)
	if b.DepthNotionalTotalUSD != nil {
		row["pm_depth_notional_usd"] = artifact.FormatFloat(*b.DepthNotionalTotalUSD, 2)
	}
	row["pm_book_status"] = string(b.Status)
}

// marketClass buckets a market by the base asset of its resolution
// symbol ("BTC/USD" -> "BTC"), the one classification dimension the
// journal carries.
func marketClass(symbol string) string {
	base, _, found := strings.Cut(symbol, "/")
	if !found {
		return ""
	}
	return base
}

func sanitizedErrString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
