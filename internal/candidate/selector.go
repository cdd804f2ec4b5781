package candidate

import (
	"context"
	"sort"
	"time"

	"github.com/sawpanic/shadow-engine/internal/readiness"
	"github.com/sawpanic/shadow-engine/internal/reason"
)

const (
	maxMarketsFetched = 100
	defaultMaxProbes  = 20
)

// Discoverer fetches raw market metadata from the venue index.
type Discoverer interface {
	Discover(ctx context.Context) ([]Market, error)
}

// Prober probes a single token's readiness.
type Prober interface {
	Probe(ctx context.Context, livenessURL, token string) readiness.Result
}

// LivenessURLFunc builds the liveness probe URL for a token.
type LivenessURLFunc func(tokenID string) string

// Selection is the chosen market and its extracted YES token.
type Selection struct {
	Market     Market
	Tokens     Tokens
	YesTokenID string
}

// Selector implements L10's discover -> filter -> rank -> probe -> pick
// pipeline.
type Selector struct {
	discoverer  Discoverer
	prober      Prober
	livenessURL LivenessURLFunc
	maxProbes   int
	now         func() time.Time
}

func NewSelector(d Discoverer, p Prober, livenessURL LivenessURLFunc, maxProbes int) *Selector {
	if maxProbes <= 0 {
		maxProbes = defaultMaxProbes
	}
	return &Selector{discoverer: d, prober: p, livenessURL: livenessURL, maxProbes: maxProbes, now: time.Now}
}

// Select runs the full pipeline and returns the first ready candidate.
func (s *Selector) Select(ctx context.Context) (Selection, reason.Code) {
	markets, err := s.discoverer.Discover(ctx)
	if err != nil || len(markets) == 0 {
		return Selection{}, reason.ExhaustedProbesOrCandidates
	}
	if len(markets) > maxMarketsFetched {
		markets = markets[:maxMarketsFetched]
	}

	now := s.now()
	type ranked struct {
		market Market
		tokens Tokens
	}
	var eligible []ranked
	for _, m := range markets {
		ok, _ := Eligible(m, now)
		if !ok {
			continue
		}
		tokens, ok, _ := ExtractTokens(m)
		if !ok {
			continue
		}
		eligible = append(eligible, ranked{market: m, tokens: tokens})
	}
	if len(eligible) == 0 {
		return Selection{}, reason.NoReadyCandidates
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		if eligible[i].market.Liquidity != eligible[j].market.Liquidity {
			return eligible[i].market.Liquidity > eligible[j].market.Liquidity
		}
		return eligible[i].market.Volume24h > eligible[j].market.Volume24h
	})

	probes := 0
	for _, cand := range eligible {
		if probes >= s.maxProbes {
			break
		}
		probes++
		url := s.livenessURL(cand.tokens.YesTokenID)
		r := s.prober.Probe(ctx, url, cand.tokens.YesTokenID)
		if r.Status == readiness.Ready {
			return Selection{Market: cand.market, Tokens: cand.tokens, YesTokenID: cand.tokens.YesTokenID}, reason.Unknown
		}
	}

	return Selection{}, reason.NoReadyCandidates
}
