// Package risk implements L13: order/cancel rate limiting, exposure
// caps, and a post-trade cooldown, all applied as a final rewrite pass
// over the strategy's Decision (§4.9).
package risk

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/sawpanic/shadow-engine/internal/decision"
	"github.com/sawpanic/shadow-engine/internal/metrics"
	"github.com/sawpanic/shadow-engine/internal/reason"
)

// Rules is the rich RiskRules superset (§9 Open Questions: the minimal
// variant from the source is deprecated in favor of this one).
type Rules struct {
	MaxOrdersPerMin         int     `yaml:"max_orders_per_min"`
	MaxCancelReplacePerMin  int     `yaml:"max_cancel_replace_per_min"`
	PerMarketExposureCapUSD float64 `yaml:"per_market_exposure_cap_usd"`
	TotalExposureCapUSD     float64 `yaml:"total_exposure_cap_usd"`
	CooldownSec             int64   `yaml:"cooldown_sec"`
}

// Controller owns the per-process limiter/exposure/cooldown state. One
// Controller serves an entire shadow-runner process; it is not shared
// across processes (§5).
type Controller struct {
	mu sync.Mutex

	orders  *rate.Limiter
	cancels *rate.Limiter

	exposureByMarket map[string]float64
	totalExposure    float64
	lastTradeAt      map[string]time.Time

	rules Rules
	now   func() time.Time

	metrics *metrics.Metrics
}

// SetMetrics wires the optional risk-rejection counter (§3 DOMAIN STACK).
func (c *Controller) SetMetrics(m *metrics.Metrics) { c.metrics = m }

func NewController(rules Rules) *Controller {
	ordersPerSec := float64(rules.MaxOrdersPerMin) / 60.0
	cancelsPerSec := float64(rules.MaxCancelReplacePerMin) / 60.0

	return &Controller{
		orders:           rate.NewLimiter(rate.Limit(ordersPerSec), max1(rules.MaxOrdersPerMin)),
		cancels:          rate.NewLimiter(rate.Limit(cancelsPerSec), max1(rules.MaxCancelReplacePerMin)),
		exposureByMarket: make(map[string]float64),
		lastTradeAt:      make(map[string]time.Time),
		rules:            rules,
		now:              time.Now,
	}
}

func max1(n int) int {
	if n <= 0 {
		return 1
	}
	return n
}

// Apply rewrites d if it violates a rate limit, exposure cap, or the
// post-trade cooldown, preserving all prior edge/implied/fair fields.
func (c *Controller) Apply(d decision.Decision, marketID string) decision.Decision {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()

	switch d.Action {
	case decision.CancelReplace:
		if !c.cancels.AllowN(now, 1) {
			return c.rewrite(d, reason.CancelRateLimit)
		}
		return d

	case decision.PlaceOrder, decision.WouldEnter:
		if until, blocked := c.inCooldown(marketID, now); blocked {
			_ = until
			return c.rewrite(d, reason.RateLimit)
		}
		if !c.orders.AllowN(now, 1) {
			return c.rewrite(d, reason.RateLimit)
		}
		if c.exceedsExposure(marketID, d.Size) {
			return c.rewrite(d, reason.ExposureCap)
		}

		c.recordExposure(marketID, d.Size)
		c.lastTradeAt[marketID] = now
		return d

	default:
		return d
	}
}

func (c *Controller) inCooldown(marketID string, now time.Time) (time.Time, bool) {
	last, ok := c.lastTradeAt[marketID]
	if !ok {
		return time.Time{}, false
	}
	until := last.Add(time.Duration(c.rules.CooldownSec) * time.Second)
	return until, now.Before(until)
}

func (c *Controller) exceedsExposure(marketID string, size float64) bool {
	if c.rules.PerMarketExposureCapUSD > 0 && c.exposureByMarket[marketID]+size > c.rules.PerMarketExposureCapUSD {
		return true
	}
	if c.rules.TotalExposureCapUSD > 0 && c.totalExposure+size > c.rules.TotalExposureCapUSD {
		return true
	}
	return false
}

func (c *Controller) recordExposure(marketID string, size float64) {
	c.exposureByMarket[marketID] += size
	c.totalExposure += size
}

// rewrite demotes d to NO_TRADE with r, keeping every prior edge field.
func (c *Controller) rewrite(d decision.Decision, r reason.Code) decision.Decision {
	c.metrics.IncRiskRejection(r.String())
	d.Action = decision.NoTrade
	d.Reason = r
	d.CancelAll = false
	return d
}
