package strategy

import "kimchi-arb/internal/dto"

// thresholdPolicy is the single-band strategy: one all-or-nothing
// position, entered below the entry threshold and closed above the
// exit threshold.
type thresholdPolicy struct {
	cfg dto.StrategyConfig
}

func (p *thresholdPolicy) Name() string { return dto.StrategyThreshold }

func (p *thresholdPolicy) DecideEntry(obs dto.MarketObservation, pctx *PositionContext) Decision {
	premium := obs.Premium()
	if len(pctx.OpenPositions) > 0 {
		return hold(premium)
	}
	if premium < p.cfg.EntryThreshold {
		return Decision{
			Action:         dto.ActionEntry,
			Premium:        premium,
			SizeFactor:     1,
			EntryThreshold: p.cfg.EntryThreshold,
			ExitThreshold:  p.cfg.ExitThreshold,
		}
	}
	return hold(premium)
}

func (p *thresholdPolicy) ShouldExit(obs dto.MarketObservation, pos dto.Position, pctx *PositionContext) (bool, string) {
	if obs.Premium() > p.cfg.ExitThreshold {
		return true, dto.ExitReasonPremium
	}
	return bandExit(p.cfg, obs, pos)
}

// asymmetricPolicy uses the same independent entry/exit bands but keeps
// stacking entries while the premium stays below the entry threshold,
// up to the configured open-position limit. The bands need not straddle
// zero.
type asymmetricPolicy struct {
	cfg dto.StrategyConfig
}

func (p *asymmetricPolicy) Name() string { return dto.StrategyAsymmetric }

func (p *asymmetricPolicy) DecideEntry(obs dto.MarketObservation, pctx *PositionContext) Decision {
	premium := obs.Premium()
	if premium < p.cfg.EntryThreshold {
		return Decision{
			Action:         dto.ActionEntry,
			Premium:        premium,
			SizeFactor:     1,
			EntryThreshold: p.cfg.EntryThreshold,
			ExitThreshold:  p.cfg.ExitThreshold,
		}
	}
	return hold(premium)
}

func (p *asymmetricPolicy) ShouldExit(obs dto.MarketObservation, pos dto.Position, pctx *PositionContext) (bool, string) {
	if obs.Premium() > p.cfg.ExitThreshold {
		return true, dto.ExitReasonPremium
	}
	return bandExit(p.cfg, obs, pos)
}
