package strategy

import "kimchi-arb/internal/dto"

// scaledPolicy stages entries across a fixed ladder of premium levels
// instead of one threshold. Each level fires at most once per run; the
// deepest satisfied unused level wins when several qualify. A position
// entered at level L exits when the premium recovers to -L; the 0%
// level has no paired exit level and closes only via the stop-loss /
// take-profit band.
type scaledPolicy struct {
	cfg         dto.StrategyConfig
	entryLevels []float64
}

func newScaledPolicy(cfg dto.StrategyConfig) *scaledPolicy {
	levels := make([]float64, 0, 9)
	for l := 0.0; l >= -4.0; l -= 0.5 {
		levels = append(levels, l)
	}
	return &scaledPolicy{cfg: cfg, entryLevels: levels}
}

func (p *scaledPolicy) Name() string { return dto.StrategyScaled }

func (p *scaledPolicy) DecideEntry(obs dto.MarketObservation, pctx *PositionContext) Decision {
	premium := obs.Premium()

	fired := false
	var level float64
	for _, l := range p.entryLevels {
		if premium > l || pctx.UsedEntryLevels[l] {
			continue
		}
		if !fired || l < level {
			fired = true
			level = l
		}
	}
	if !fired {
		return hold(premium)
	}

	return Decision{
		Action:         dto.ActionEntry,
		Premium:        premium,
		Level:          level,
		SizeFactor:     1,
		EntryThreshold: level,
		ExitThreshold:  -level,
	}
}

func (p *scaledPolicy) ShouldExit(obs dto.MarketObservation, pos dto.Position, pctx *PositionContext) (bool, string) {
	if pos.EntryLevel <= -0.5 && obs.Premium() >= -pos.EntryLevel {
		return true, dto.ExitReasonPremium
	}
	return bandExit(p.cfg, obs, pos)
}
