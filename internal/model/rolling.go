// Package model implements L11: a sliding-window rolling-returns
// estimator of fair up-probability.
package model

const maxReturnsDefault = 1000

// sample is a single (ts_ms, price) observation.
type sample struct {
	tsMs  int64
	price float64
}

// RollingReturns holds a sliding price window and the returns derived
// from it. horizonMs controls how far back each return looks;
// warmupSamples gates when fair_up_prob becomes available.
type RollingReturns struct {
	horizonMs     int64
	warmupSamples int
	maxReturns    int

	prices  []sample
	returns []float64
}

type Config struct {
	HorizonMs     int64
	WarmupSamples int
	MaxReturns    int
}

func New(cfg Config) *RollingReturns {
	maxReturns := cfg.MaxReturns
	if maxReturns <= 0 {
		maxReturns = maxReturnsDefault
	}
	return &RollingReturns{
		horizonMs:     cfg.HorizonMs,
		warmupSamples: cfg.WarmupSamples,
		maxReturns:    maxReturns,
	}
}

// Update adds a new (ts, price) sample, computes the return over
// horizonMs if a sufficiently old sample exists, and prunes state per
// §4.7: retain up to max_returns returns, discard prices older than
// 2*horizon.
func (m *RollingReturns) Update(tsMs int64, price float64) {
	m.prices = append(m.prices, sample{tsMs: tsMs, price: price})

	if base, ok := m.findHorizonBase(tsMs); ok && base.price != 0 {
		ret := (price - base.price) / base.price
		m.returns = append(m.returns, ret)
		if len(m.returns) > m.maxReturns {
			m.returns = m.returns[len(m.returns)-m.maxReturns:]
		}
	}

	cutoff := tsMs - 2*m.horizonMs
	i := 0
	for i < len(m.prices) && m.prices[i].tsMs < cutoff {
		i++
	}
	m.prices = m.prices[i:]
}

// findHorizonBase locates the most recent sample with ts <= now - horizon.
func (m *RollingReturns) findHorizonBase(now int64) (sample, bool) {
	target := now - m.horizonMs
	var best sample
	found := false
	for _, s := range m.prices {
		if s.tsMs <= target {
			if !found || s.tsMs > best.tsMs {
				best = s
				found = true
			}
		}
	}
	return best, found
}

// FairUpProb returns the fraction of positive returns, or (0, false) if
// still in warmup.
func (m *RollingReturns) FairUpProb() (float64, bool) {
	if len(m.returns) == 0 || len(m.returns) < m.warmupSamples {
		return 0, false
	}
	positive := 0
	for _, r := range m.returns {
		if r > 0 {
			positive++
		}
	}
	return float64(positive) / float64(len(m.returns)), true
}

// ReturnCount reports the number of retained returns, for diagnostics.
func (m *RollingReturns) ReturnCount() int { return len(m.returns) }
