package strategy

import (
	"math"

	"kimchi-arb/internal/dto"
	"kimchi-arb/pkg/utils"
)

// trendPolicy shifts the entry/exit bands with a moving-average trend
// read off the reference-leg price. In an uptrend it enters deeper and
// exits quicker; in a downtrend the opposite. It also sizes up in
// strong trends and adds two premium-independent exits: a reference-leg
// stop loss and a cross below the moving average.
type trendPolicy struct {
	cfg      dto.StrategyConfig
	maPeriod int
}

func newTrendPolicy(cfg dto.StrategyConfig) *trendPolicy {
	period := cfg.MAPeriod
	if period <= 0 {
		period = 14
	}
	return &trendPolicy{cfg: cfg, maPeriod: period}
}

func (p *trendPolicy) Name() string { return dto.StrategyTrend }

// movingAverage returns the mean of the trailing window, or 0 with ok
// false while the history is still shorter than the period.
func (p *trendPolicy) movingAverage(prices []float64) (float64, bool) {
	if len(prices) < p.maPeriod {
		return 0, false
	}
	return utils.Mean(prices[len(prices)-p.maPeriod:]), true
}

// classify maps a price's distance from its moving average to a trend
// label and a strength in units of 2% distance, capped at 2.
func classify(price, ma float64) (string, float64) {
	pct := (price - ma) / ma
	switch {
	case pct > 0.02:
		return dto.TrendStrongUptrend, math.Min(pct/0.02, 2.0)
	case pct > 0:
		return dto.TrendUptrend, pct / 0.02
	case pct < -0.02:
		return dto.TrendStrongDowntrend, math.Min(-pct/0.02, 2.0)
	case pct < 0:
		return dto.TrendDowntrend, -pct / 0.02
	default:
		return dto.TrendNeutral, 0
	}
}

// thresholds returns the trend-adjusted entry/exit bands and the trend
// label for the current observation.
func (p *trendPolicy) thresholds(obs dto.MarketObservation, pctx *PositionContext) (entry, exit float64, trend string) {
	entry = p.cfg.EntryThreshold
	exit = p.cfg.ExitThreshold

	ma, ok := p.movingAverage(pctx.RefPrices)
	if !ok {
		return entry, exit, dto.TrendUnknown
	}

	trend, strength := classify(obs.RefPrice(), ma)
	switch trend {
	case dto.TrendStrongUptrend, dto.TrendUptrend:
		entry -= 0.5 * strength
		exit -= 0.25 * strength
	case dto.TrendStrongDowntrend, dto.TrendDowntrend:
		entry += 0.5 * strength
		exit += 0.25 * strength
	}

	entry = utils.Clamp(entry, -5.0, -0.5)
	exit = utils.Clamp(exit, 1.0, 5.0)
	return entry, exit, trend
}

func (p *trendPolicy) DecideEntry(obs dto.MarketObservation, pctx *PositionContext) Decision {
	premium := obs.Premium()
	entry, exit, trend := p.thresholds(obs, pctx)
	if premium >= entry {
		return hold(premium)
	}

	factor := 0.8
	if trend == dto.TrendStrongUptrend || trend == dto.TrendStrongDowntrend {
		factor = 1.5
	}

	return Decision{
		Action:         dto.ActionEntry,
		Premium:        premium,
		SizeFactor:     factor,
		EntryThreshold: entry,
		ExitThreshold:  exit,
		Trend:          trend,
	}
}

func (p *trendPolicy) ShouldExit(obs dto.MarketObservation, pos dto.Position, pctx *PositionContext) (bool, string) {
	_, exit, _ := p.thresholds(obs, pctx)
	if obs.Premium() > exit {
		return true, dto.ExitReasonPremium
	}

	if ma, ok := p.movingAverage(pctx.RefPrices); ok {
		entryRef := pos.EntryPriceA / pos.EntryFXRate
		if entryRef > ma && obs.RefPrice() < ma {
			return true, dto.ExitReasonMACross
		}
	}

	if p.cfg.StopLossPct > 0 {
		entryRef := pos.EntryPriceA / pos.EntryFXRate
		pnlPct := (obs.RefPrice() - entryRef) / entryRef * 100
		if pnlPct < -p.cfg.StopLossPct {
			return true, dto.ExitReasonStopLoss
		}
	}

	if p.cfg.TakeProfitPct > 0 {
		if obs.Premium()-pos.EntryPremium >= p.cfg.TakeProfitPct {
			return true, dto.ExitReasonTakeProfit
		}
	}

	return false, ""
}
