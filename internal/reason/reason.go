// Package reason defines the closed enumeration of decision and failure
// reasons emitted across the shadow engine. Every journal row, summary,
// and log line names its outcome with one of these codes — never a
// free-form string.
package reason

// Code is a closed sum type. Adding a member is additive; renaming or
// removing one breaks the journal_v1 schema contract.
type Code string

const (
	Unknown Code = ""

	// success
	EdgeOK Code = "EDGE_OK"

	// staleness
	StaleFeed           Code = "STALE_FEED"
	StaleBook           Code = "STALE_BOOK"
	OfficialFeedMissing Code = "OFFICIAL_FEED_MISSING"
	FeedStaleAbort      Code = "FEED_STALE_ABORT"
	BookDataMissing     Code = "BOOK_DATA_MISSING"

	// strategy
	EdgeTooSmall   Code = "EDGE_TOO_SMALL"
	BookIncomplete Code = "BOOK_INCOMPLETE"
	ModelWarmup    Code = "MODEL_WARMUP"
	ThinBook       Code = "THIN_BOOK"

	// risk
	RateLimit       Code = "RATE_LIMIT"
	CancelRateLimit Code = "CANCEL_RATE_LIMIT"
	ExposureCap     Code = "EXPOSURE_CAP"
	EndTimeAnomaly  Code = "END_TIME_ANOMALY"
	TimeToEndCutoff Code = "TIME_TO_END_CUTOFF"

	// admission
	ResolutionSourceUnknown Code = "RESOLUTION_SOURCE_UNKNOWN"
	FeedRoutingUnknown      Code = "FEED_ROUTING_UNKNOWN"
	MarketClosed            Code = "MARKET_CLOSED"
	MarketFilteredOut       Code = "MARKET_FILTERED_OUT"
	OrderbookDisabled       Code = "ORDERBOOK_DISABLED"
	NotAcceptingOrders      Code = "NOT_ACCEPTING_ORDERS"
	Restricted              Code = "RESTRICTED"
	NoEndDate               Code = "NO_END_DATE"
	ExpiringSoon            Code = "EXPIRING_SOON"
	BadDateFormat           Code = "BAD_DATE_FORMAT"
	MissingCloseTime        Code = "MISSING_CLOSE_TIME"

	// probe
	ProbeOK            Code = "OK"
	ClobNoOrderbook    Code = "CLOB_NO_ORDERBOOK"
	ClobRateLimited    Code = "CLOB_RATE_LIMITED"
	ClobTimeout        Code = "CLOB_TIMEOUT"
	Clob5xx            Code = "CLOB_5XX"
	ClobInvalidPayload Code = "CLOB_INVALID_PAYLOAD"
	ClobUnknownError   Code = "CLOB_UNKNOWN_ERROR"
	InvalidTokenID     Code = "INVALID_TOKEN_ID"
	NotFoundUnknown    Code = "NOT_FOUND_UNKNOWN"

	// parse
	GammaParseError            Code = "GAMMA_PARSE_ERROR"
	MissingClobTokenIDs        Code = "MISSING_CLOB_TOKEN_IDS"
	UnsupportedOutcomesShape   Code = "UNSUPPORTED_OUTCOMES_SHAPE"
	OutcomeTokenLengthMismatch Code = "OUTCOME_TOKEN_LENGTH_MISMATCH"

	// pipeline / internal
	NoReadyCandidates           Code = "NO_READY_CANDIDATES"
	ExhaustedProbesOrCandidates Code = "EXHAUSTED_PROBES_OR_CANDIDATES"
	StrategyError               Code = "STRATEGY_ERROR"
)

// SubReason is the closed set of THIN_BOOK sub-reasons (§3).
type SubReason string

const (
	NoSubReason         SubReason = ""
	NoBBO               SubReason = "NO_BBO"
	OneSided            SubReason = "ONE_SIDED"
	DepthBelowThreshold SubReason = "DEPTH_BELOW_THRESHOLD"
	SpreadWide          SubReason = "SPREAD_WIDE"
)

// all is the exhaustive membership set, used by Valid and by tests that
// assert every column value is a known reason.
var all = map[Code]struct{}{
	EdgeOK: {}, StaleFeed: {}, StaleBook: {}, OfficialFeedMissing: {}, FeedStaleAbort: {},
	BookDataMissing: {}, EdgeTooSmall: {}, BookIncomplete: {}, ModelWarmup: {}, ThinBook: {},
	RateLimit: {}, CancelRateLimit: {}, ExposureCap: {}, EndTimeAnomaly: {}, TimeToEndCutoff: {},
	ResolutionSourceUnknown: {}, FeedRoutingUnknown: {}, MarketClosed: {}, MarketFilteredOut: {},
	OrderbookDisabled: {}, NotAcceptingOrders: {}, Restricted: {}, NoEndDate: {}, ExpiringSoon: {},
	BadDateFormat: {}, MissingCloseTime: {}, ProbeOK: {}, ClobNoOrderbook: {}, ClobRateLimited: {},
	ClobTimeout: {}, Clob5xx: {}, ClobInvalidPayload: {}, ClobUnknownError: {}, InvalidTokenID: {},
	NotFoundUnknown: {}, GammaParseError: {}, MissingClobTokenIDs: {}, UnsupportedOutcomesShape: {},
	OutcomeTokenLengthMismatch: {}, NoReadyCandidates: {}, ExhaustedProbesOrCandidates: {},
	StrategyError: {},
}

// Valid reports whether c is a known, non-empty reason code.
func Valid(c Code) bool {
	_, ok := all[c]
	return ok
}

// String implements fmt.Stringer so reasons print their wire name directly.
func (c Code) String() string { return string(c) }

// Category buckets a code into the §7 error taxonomy, for metrics and logs.
type Category string

const (
	CategorySuccess   Category = "success"
	CategoryStaleness Category = "staleness"
	CategoryStrategy  Category = "strategy"
	CategoryRisk      Category = "risk"
	CategoryAdmission Category = "admission"
	CategoryProbe     Category = "probe"
	CategoryParse     Category = "parse"
	CategoryPipeline  Category = "pipeline"
	CategoryUnknown   Category = "unknown"
)

var categoryOf = map[Code]Category{
	EdgeOK:                      CategorySuccess,
	StaleFeed:                   CategoryStaleness,
	StaleBook:                   CategoryStaleness,
	OfficialFeedMissing:         CategoryStaleness,
	FeedStaleAbort:              CategoryStaleness,
	BookDataMissing:             CategoryStaleness,
	EdgeTooSmall:                CategoryStrategy,
	BookIncomplete:              CategoryStrategy,
	ModelWarmup:                 CategoryStrategy,
	ThinBook:                    CategoryStrategy,
	RateLimit:                   CategoryRisk,
	CancelRateLimit:             CategoryRisk,
	ExposureCap:                 CategoryRisk,
	EndTimeAnomaly:              CategoryRisk,
	TimeToEndCutoff:             CategoryRisk,
	ResolutionSourceUnknown:     CategoryAdmission,
	FeedRoutingUnknown:          CategoryAdmission,
	MarketClosed:                CategoryAdmission,
	MarketFilteredOut:           CategoryAdmission,
	OrderbookDisabled:           CategoryAdmission,
	NotAcceptingOrders:          CategoryAdmission,
	Restricted:                  CategoryAdmission,
	NoEndDate:                   CategoryAdmission,
	ExpiringSoon:                CategoryAdmission,
	BadDateFormat:               CategoryAdmission,
	MissingCloseTime:            CategoryAdmission,
	ProbeOK:                     CategoryProbe,
	ClobNoOrderbook:             CategoryProbe,
	ClobRateLimited:             CategoryProbe,
	ClobTimeout:                 CategoryProbe,
	Clob5xx:                     CategoryProbe,
	ClobInvalidPayload:          CategoryProbe,
	ClobUnknownError:            CategoryProbe,
	InvalidTokenID:              CategoryProbe,
	NotFoundUnknown:             CategoryProbe,
	GammaParseError:             CategoryParse,
	MissingClobTokenIDs:         CategoryParse,
	UnsupportedOutcomesShape:    CategoryParse,
	OutcomeTokenLengthMismatch:  CategoryParse,
	NoReadyCandidates:           CategoryPipeline,
	ExhaustedProbesOrCandidates: CategoryPipeline,
	StrategyError:               CategoryPipeline,
}

// CategoryOf returns the error-taxonomy bucket for c, or CategoryUnknown.
func CategoryOf(c Code) Category {
	if cat, ok := categoryOf[c]; ok {
		return cat
	}
	return CategoryUnknown
}
