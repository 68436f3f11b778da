package strategy

import (
	"fmt"

	"kimchi-arb/internal/dto"
)

// PositionContext is the read-only state a policy may consult when
// deciding. The simulator owns and maintains it; policies never mutate
// anything except UsedEntryLevels bookkeeping done by the ledger.
type PositionContext struct {
	OpenPositions   []dto.Position
	UsedEntryLevels map[float64]bool

	// Reference-leg price history in quote currency, oldest first.
	// Consumed by the trend variant for its moving average.
	RefPrices []float64
}

// Decision is the outcome of evaluating one observation.
type Decision struct {
	Action  string
	Premium float64

	// Level is the ladder level that fired, scaled variant only.
	Level float64

	// SizeFactor scales the base position size; 1 for neutral sizing.
	SizeFactor float64

	// Effective thresholds after any trend adjustment, for the record.
	EntryThreshold float64
	ExitThreshold  float64

	Trend  string
	Reason string
}

// SignalPolicy maps market observations to decisions. Implementations
// are pure: identical inputs produce identical outputs, and no state is
// carried between calls.
type SignalPolicy interface {
	Name() string

	// DecideEntry returns an ENTRY decision when the observation
	// qualifies for opening a position, HOLD otherwise.
	DecideEntry(obs dto.MarketObservation, pctx *PositionContext) Decision

	// ShouldExit evaluates one open position against the observation
	// and returns the exit reason when it should close this step.
	ShouldExit(obs dto.MarketObservation, pos dto.Position, pctx *PositionContext) (bool, string)
}

// NewSignalPolicy builds the variant selected by cfg.Strategy.
func NewSignalPolicy(cfg dto.StrategyConfig) (SignalPolicy, error) {
	switch cfg.Strategy {
	case dto.StrategyThreshold, "":
		return &thresholdPolicy{cfg: cfg}, nil
	case dto.StrategyAsymmetric:
		return &asymmetricPolicy{cfg: cfg}, nil
	case dto.StrategyScaled:
		return newScaledPolicy(cfg), nil
	case dto.StrategyTrend:
		return newTrendPolicy(cfg), nil
	default:
		return nil, fmt.Errorf("unknown strategy: %s", cfg.Strategy)
	}
}

func hold(premium float64) Decision {
	return Decision{Action: dto.ActionHold, Premium: premium, SizeFactor: 1}
}

// bandExit applies the stop-loss / take-profit band every variant
// checks independently of its premium signal. The band is measured on
// the premium move since entry, which tracks the hedged position's
// unrealized result.
func bandExit(cfg dto.StrategyConfig, obs dto.MarketObservation, pos dto.Position) (bool, string) {
	move := obs.Premium() - pos.EntryPremium
	if cfg.StopLossPct > 0 && move <= -cfg.StopLossPct {
		return true, dto.ExitReasonStopLoss
	}
	if cfg.TakeProfitPct > 0 && move >= cfg.TakeProfitPct {
		return true, dto.ExitReasonTakeProfit
	}
	return false, ""
}
