// Command shadow-runner drives one shadow-engine process: for the
// Polymarket venue it discovers and probes a CLOB candidate, for the
// Kalshi venue it fetches the given ticker directly, then evaluates the
// stale-edge strategy against an official spot-price feed once per
// cycle and journals the hypothetical decision — it never transmits an
// order (§1, §6).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/sawpanic/shadow-engine/internal/artifact"
	"github.com/sawpanic/shadow-engine/internal/cachebackend"
	"github.com/sawpanic/shadow-engine/internal/candidate"
	"github.com/sawpanic/shadow-engine/internal/discovery"
	"github.com/sawpanic/shadow-engine/internal/feed"
	"github.com/sawpanic/shadow-engine/internal/metrics"
	"github.com/sawpanic/shadow-engine/internal/model"
	"github.com/sawpanic/shadow-engine/internal/pipeline"
	"github.com/sawpanic/shadow-engine/internal/readiness"
	"github.com/sawpanic/shadow-engine/internal/risk"
	"github.com/sawpanic/shadow-engine/internal/strategy"
	"github.com/sawpanic/shadow-engine/internal/transport"
	"github.com/sawpanic/shadow-engine/internal/venue/fetch"
	"github.com/sawpanic/shadow-engine/internal/venue/parse"
)

const version = "v0.1.0"

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	// interactive runs get the console writer; piped/cron runs keep
	// plain JSON lines.
	if term.IsTerminal(int(os.Stderr.Fd())) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	rootCmd := &cobra.Command{
		Use:     "shadow-runner",
		Short:   "Shadow-mode stale-edge paper trader for Polymarket and Kalshi binary markets",
		Version: version,
		RunE:    runShadow,
	}

	f := rootCmd.Flags()
	f.Float64("minutes", 1, "total run duration in minutes")
	f.Float64("loop-interval-sec", 1.0, "seconds to sleep between cycles")
	f.String("venue", "polymarket", "venue to evaluate (kalshi|polymarket)")
	f.String("ticker", "", "human ticker, alias for --market-id")
	f.String("market-id", "", "market identifier (required unless --ticker given)")
	f.String("rules-text", "", "market rules text, used to resolve the official feed venue/symbol")
	f.Int64("market-end-ts", 0, "market end time, unix seconds")
	f.Float64("taker-fee-bps", 0, "taker fee in basis points")
	f.Float64("maker-fee-bps", 0, "maker fee in basis points")
	f.Bool("sim-costs", false, "accepted for compatibility; has no effect")
	f.String("output", "", "journal CSV output path override")
	f.Bool("signals", false, "accepted for compatibility; has no effect")
	f.Bool("once", false, "run exactly one cycle and exit")
	f.Bool("dump-config", false, "print the resolved configuration and exit")

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("shadow-runner failed")
		os.Exit(exitCodeFor(err))
	}
}

func exitCodeFor(err error) int {
	if _, ok := err.(*argError); ok {
		return 2
	}
	return 1
}

type argError struct{ msg string }

func (e *argError) Error() string { return e.msg }

func runShadow(cmd *cobra.Command, args []string) error {
	f := cmd.Flags()

	minutes, _ := f.GetFloat64("minutes")
	loopIntervalSec, _ := f.GetFloat64("loop-interval-sec")
	venueName, _ := f.GetString("venue")
	ticker, _ := f.GetString("ticker")
	marketID, _ := f.GetString("market-id")
	rulesText, _ := f.GetString("rules-text")
	marketEndTS, _ := f.GetInt64("market-end-ts")
	takerFeeBps, _ := f.GetFloat64("taker-fee-bps")
	makerFeeBps, _ := f.GetFloat64("maker-fee-bps")
	output, _ := f.GetString("output")
	once, _ := f.GetBool("once")
	dumpConfig, _ := f.GetBool("dump-config")

	if marketID == "" {
		marketID = ticker
	}
	if marketID == "" {
		marketID = os.Getenv("SHADOW_RUNNER_TICKER")
	}
	if marketID == "" {
		return &argError{"--market-id (or --ticker, or SHADOW_RUNNER_TICKER) is required"}
	}
	if venueName != "kalshi" && venueName != "polymarket" {
		return &argError{fmt.Sprintf("--venue must be kalshi or polymarket, got %q", venueName)}
	}

	once = resolveOnce(f, once)
	if output == "" {
		output = os.Getenv("SHADOW_RUNNER_OUTPUT")
	}

	envCfg, err := loadEnvConfig()
	if err != nil {
		return &argError{err.Error()}
	}

	params := strategy.Params{
		TimeToEndCutoffSec: envCfg.timeToEndCutoffSec,
		OfficialStaleSec:   envCfg.officialStaleSec,
		BookStaleSec:       envCfg.bookStaleSec,
		SpreadMax:          envCfg.spreadMax,
		FeesEst:            (takerFeeBps + makerFeeBps) / 10000.0,
		SpreadBuffer:       envCfg.spreadBuffer,
		ModelErrorTax:      envCfg.modelErrorTax,
		MinTradeUSD:        envCfg.minTradeUSD,
		FeedStaleAbortSec:  envCfg.feedStaleAbortSec,
		MarketID:           marketID,
	}

	if dumpConfig {
		dump := resolvedConfig{
			Venue:           venueName,
			MarketID:        marketID,
			Once:            once,
			Minutes:         minutes,
			LoopIntervalSec: loopIntervalSec,
			Output:          output,
			Strategy:        params,
			Risk:            riskRulesFromEnv(),
		}
		out, err := yaml.Marshal(dump)
		if err != nil {
			return err
		}
		fmt.Print(string(out))
		return nil
	}

	artifactsDir := os.Getenv("SHADOW_ARTIFACTS_DIR")
	if artifactsDir == "" {
		artifactsDir = artifact.DefaultArtifactsDir
	}
	maxJournalRows := 500
	if v := os.Getenv("SHADOW_JOURNAL_MAX_ROWS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			maxJournalRows = n
		}
	}
	// --output names the journal CSV path itself (§6); the JSON
	// artifacts stay in the artifacts dir regardless.
	store := artifact.NewStoreWithJournalPath(artifactsDir, output, maxJournalRows)

	m := metrics.New()
	runner, err := buildRunner(venueName, marketID, rulesText, marketEndTS, params, store, m)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if addr := os.Getenv("SHADOW_METRICS_ADDR"); addr != "" {
		srv := metrics.NewServer(addr, m, func() bool { return true })
		go func() {
			if err := srv.Serve(ctx); err != nil {
				log.Warn().Err(err).Msg("ops server stopped")
			}
		}()
	}

	deadline := time.Now().Add(time.Duration(minutes * float64(time.Minute)))
	interval := time.Duration(loopIntervalSec * float64(time.Second))

	for {
		d := runner.RunCycle(ctx)
		log.Info().Str("action", string(d.Action)).Str("reason", d.Reason.String()).Msg("cycle complete")

		if once {
			return nil
		}
		select {
		case <-ctx.Done():
			log.Info().Msg("received interrupt, exiting after current cycle")
			return nil
		default:
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			return nil
		}
		select {
		case <-time.After(interval):
		case <-ctx.Done():
			return nil
		}
	}
}

// buildRunner wires L1-L14 into one pipeline.Runner for a single fixed
// market (the §6 CLI evaluates one market per process). Wiring branches
// on venueName (§1 two venues, §4.2/§4.5 distinct parser/threshold
// paths): the decentralized CLOB venue discovers and probes a candidate
// via the Gamma API before fetching per-token books, while the
// centralized venue fetches one combined order-book payload for the
// ticker the caller already supplied (it has no markets-index endpoint
// wired here, see DESIGN.md).
func buildRunner(venueName, marketID, rulesText string, marketEndTS int64, params strategy.Params, store *artifact.Store, m *metrics.Metrics) (*pipeline.Runner, error) {
	var client transport.Client = transport.New(nil)
	if os.Getenv("POLYMARKET_FIXTURE_MODE") != "" {
		// fixture mode: every outbound call is served from canned
		// in-memory payloads, nothing touches the network (§6).
		client = transport.NewFixture()
	}
	lg := log.Logger

	cb := feed.NewCoinbaseAdapter(client, "", "shadow-runner/"+version, lg)
	gm := feed.NewGeminiAdapter(client, "", "shadow-runner/"+version, lg)
	bn := feed.NewBinanceAdapter(client, "", "shadow-runner/"+version, lg)
	router := feed.DefaultRouter(cb, gm, bn, lg)

	if venueName == "kalshi" {
		return buildKalshiRunner(marketID, rulesText, marketEndTS, params, store, m, client, router, lg)
	}
	return buildPolymarketRunner(marketID, rulesText, marketEndTS, params, store, m, client, router, lg)
}

func buildPolymarketRunner(marketID, rulesText string, marketEndTS int64, params strategy.Params, store *artifact.Store, m *metrics.Metrics, client transport.Client, router *feed.Router, lg zerolog.Logger) (*pipeline.Runner, error) {
	th := parse.Thresholds{
		DepthQtyMin: envFloat("PM_DEPTH_QTY_MIN", 100),
		SpreadMax:   envFloat("PM_SPREAD_MAX", 0.05),
		UseNotional: false,
	}

	clobBase := "" // discovery.OrderbookURL/LivenessURL default to clob.polymarket.com
	fetcher := fetch.NewFetcher("polymarket", fetch.Config{UserAgent: "shadow-runner/" + version, Client: client, Logger: lg})
	bookFetcher := fetch.NewBookFetcher(fetcher, func(token string) string {
		return discovery.OrderbookURL(clobBase, token)
	}, "polymarket", th)

	disc := discovery.NewGammaDiscoverer(client, "", "shadow-runner/"+version, lg)
	prober := readiness.NewProber(client, readiness.Config{UserAgent: "shadow-runner/" + version}, lg)
	prober.SetMetrics(m)
	if redisAddr := os.Getenv("SHADOW_READINESS_REDIS_ADDR"); redisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
		prober.SetCacheBackend(cachebackend.NewRedis(rdb, "", lg))
	}
	sel := candidate.NewSelector(disc, prober, func(token string) string {
		return discovery.LivenessURL(clobBase, token)
	}, 20)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	selection, reasonCode := sel.Select(ctx)
	if selection.YesTokenID == "" {
		// fatal eligibility/fetch error: exit nonzero (§6 exit codes).
		return nil, fmt.Errorf("candidate selection failed: %s", reasonCode)
	}

	params.MarketID = selection.Market.ID
	mkt := pipeline.Market{
		ID:           selection.Market.ID,
		VenueKind:    pipeline.VenuePolymarket,
		RulesText:    rulesText,
		CloseTimeISO: "",
		HasCloseTime: marketEndTS > 0,
		EndTS:        marketEndTS,
		YesTokenID:   selection.Tokens.YesTokenID,
		NoTokenID:    selection.Tokens.NoTokenID,
	}

	return finishRunner(mkt, router, bookFetcher, store, params, m, lg)
}

func buildKalshiRunner(marketID, rulesText string, marketEndTS int64, params strategy.Params, store *artifact.Store, m *metrics.Metrics, client transport.Client, router *feed.Router, lg zerolog.Logger) (*pipeline.Runner, error) {
	th := parse.Thresholds{
		DepthNotionalMin: envFloatAlias("KALSHI_DEPTH_NOTIONAL_MIN", "K_DEPTH_NOTIONAL_MIN", 100),
		SpreadMax:        envFloatAlias("KALSHI_SPREAD_MAX", "K_SPREAD_MAX", 0.05),
		UseNotional:      true,
	}
	params.SpreadMax = th.SpreadMax

	kalshiBase := os.Getenv("KALSHI_API_BASE")
	fetcher := fetch.NewFetcher("kalshi", fetch.Config{UserAgent: "shadow-runner/" + version, Client: client, Logger: lg})
	bookFetcher := fetch.NewKalshiBookFetcher(fetcher, func(ticker string) string {
		return discovery.KalshiOrderbookURL(kalshiBase, ticker)
	}, th)

	closeTimeISO := ""
	if marketEndTS > 0 {
		closeTimeISO = time.Unix(marketEndTS, 0).UTC().Format(time.RFC3339)
	}

	mkt := pipeline.Market{
		ID:           marketID,
		VenueKind:    pipeline.VenueKalshi,
		RulesText:    rulesText,
		CloseTimeISO: closeTimeISO,
		HasCloseTime: marketEndTS > 0,
		EndTS:        marketEndTS,
		YesTokenID:   fetch.KalshiYesToken(marketID),
		NoTokenID:    fetch.KalshiNoToken(marketID),
	}

	return finishRunner(mkt, router, bookFetcher, store, params, m, lg)
}

func finishRunner(mkt pipeline.Market, router *feed.Router, bookFetcher pipeline.VenueBookFetcher, store *artifact.Store, params strategy.Params, m *metrics.Metrics, lg zerolog.Logger) (*pipeline.Runner, error) {
	mdl := model.New(model.Config{
		HorizonMs:     envInt64("STALE_EDGE_MODEL_HORIZON_MS", 3600000),
		WarmupSamples: int(envInt64("STALE_EDGE_MODEL_WARMUP", 30)),
	})

	riskCtl := risk.NewController(riskRulesFromEnv())
	riskCtl.SetMetrics(m)

	cfg := pipeline.Config{Strategy: params, CycleBudget: 5 * time.Second, RunID: uuid.NewString()}
	runner := pipeline.NewRunner(mkt, router, bookFetcher, mdl, riskCtl, store, cfg, lg)
	runner.SetMetrics(m)
	return runner, nil
}

// resolvedConfig is the --dump-config shape: everything an operator
// needs to see which knobs are actually in effect after env overrides.
type resolvedConfig struct {
	Venue           string          `yaml:"venue"`
	MarketID        string          `yaml:"market_id"`
	Once            bool            `yaml:"once"`
	Minutes         float64         `yaml:"minutes"`
	LoopIntervalSec float64         `yaml:"loop_interval_sec"`
	Output          string          `yaml:"output,omitempty"`
	Strategy        strategy.Params `yaml:"strategy"`
	Risk            risk.Rules      `yaml:"risk"`
}

// riskRulesFromEnv reads the STALE_EDGE_* risk knobs (§6 Environment).
func riskRulesFromEnv() risk.Rules {
	return risk.Rules{
		MaxOrdersPerMin:         int(envInt64("STALE_EDGE_MAX_ORDERS_PER_MIN", 6)),
		MaxCancelReplacePerMin:  int(envInt64("STALE_EDGE_MAX_CANCEL_REPLACE_PER_MIN", 12)),
		PerMarketExposureCapUSD: envFloat("STALE_EDGE_PER_MARKET_EXPOSURE_CAP_USD", 100),
		TotalExposureCapUSD:     envFloat("STALE_EDGE_TOTAL_EXPOSURE_CAP_USD", 500),
		CooldownSec:             envInt64("STALE_EDGE_COOLDOWN_SEC", 30),
	}
}

// resolveOnce applies the "--once wins over SHADOW_ONCE" rule (§9 open
// question): the env var is only the default when the flag was not
// given at all, so an explicit --once=false beats SHADOW_ONCE=1.
func resolveOnce(f *pflag.FlagSet, flagValue bool) bool {
	if f.Changed("once") {
		return flagValue
	}
	return flagValue || envBool("SHADOW_ONCE")
}

func envBool(name string) bool {
	v := os.Getenv(name)
	return v == "1" || v == "true"
}

func envFloat(name string, def float64) float64 {
	if v := os.Getenv(name); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

// envFloatAlias reads primary, then its alias; loadEnvConfig has
// already rejected the case where both are set and disagree.
func envFloatAlias(primary, alias string, def float64) float64 {
	if v := os.Getenv(primary); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return envFloat(alias, def)
}

func envInt64(name string, def int64) int64 {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

type envConfig struct {
	timeToEndCutoffSec int64
	officialStaleSec   int64
	bookStaleSec       int64
	feedStaleAbortSec  int64
	spreadMax          float64
	spreadBuffer       float64
	modelErrorTax      float64
	minTradeUSD        float64
}

// loadEnvConfig reads the STALE_EDGE_* risk knobs and enforces the
// alias-conflict startup error for KALSHI_*/K_* pairs (§6 Environment).
func loadEnvConfig() (envConfig, error) {
	if err := checkAlias("KALSHI_DEPTH_NOTIONAL_MIN", "K_DEPTH_NOTIONAL_MIN"); err != nil {
		return envConfig{}, err
	}
	if err := checkAlias("KALSHI_SPREAD_MAX", "K_SPREAD_MAX"); err != nil {
		return envConfig{}, err
	}

	return envConfig{
		timeToEndCutoffSec: envInt64("STALE_EDGE_TIME_TO_END_CUTOFF_SEC", 60),
		officialStaleSec:   envInt64("STALE_EDGE_OFFICIAL_STALE_SEC", 10),
		bookStaleSec:       envInt64("STALE_EDGE_BOOK_STALE_SEC", 10),
		feedStaleAbortSec:  envInt64("STALE_EDGE_FEED_STALE_ABORT_SEC", 120),
		spreadMax:          envFloat("PM_SPREAD_MAX", 0.05),
		spreadBuffer:       envFloat("STALE_EDGE_SPREAD_BUFFER", 0.01),
		modelErrorTax:      envFloat("STALE_EDGE_MODEL_ERROR_TAX", 0.005),
		minTradeUSD:        envFloat("STALE_EDGE_MIN_TRADE_USD", 5.0),
	}, nil
}

// checkAlias errs if both primary and alias are set to differing values.
func checkAlias(primary, alias string) error {
	p, pOK := os.LookupEnv(primary)
	a, aOK := os.LookupEnv(alias)
	if pOK && aOK && p != a {
		return fmt.Errorf("conflicting env vars: %s=%q vs alias %s=%q", primary, p, alias, a)
	}
	return nil
}
