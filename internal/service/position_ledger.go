package service

import (
	"fmt"

	"kimchi-arb/internal/dto"
	"kimchi-arb/internal/strategy"
)

// sizingHeadroom leaves part of each leg's balance unspent so
// commission and slippage never push an order past the wallet.
const sizingHeadroom = 0.95

// PositionLedger tracks the open arbitrage positions of one run and
// enforces count, level and sizing constraints. Owned exclusively by a
// single run; never shared.
type PositionLedger struct {
	cfg            dto.StrategyConfig
	positions      []dto.Position
	usedLevels     map[float64]bool
	nextID         int
	initialCapital float64
}

func NewPositionLedger(cfg dto.StrategyConfig, initialCapital float64) *PositionLedger {
	return &PositionLedger{
		cfg:            cfg,
		usedLevels:     make(map[float64]bool),
		initialCapital: initialCapital,
	}
}

// OpenPositions returns the open set in insertion order. The slice is
// shared for reading; callers never mutate it.
func (l *PositionLedger) OpenPositions() []dto.Position {
	return l.positions
}

func (l *PositionLedger) UsedLevels() map[float64]bool {
	return l.usedLevels
}

// CanOpen checks count and level constraints, returning a rejection
// reason when the open set cannot take another position.
func (l *PositionLedger) CanOpen(decision strategy.Decision) (bool, string) {
	if len(l.positions) >= l.cfg.MaxOpenPositions {
		return false, dto.ReasonMaxPositionsReached
	}
	if l.cfg.Strategy == dto.StrategyScaled && l.usedLevels[decision.Level] {
		return false, dto.ReasonLevelAlreadyUsed
	}
	return true, ""
}

// SizeFor derives the position size in asset units: the configured
// notional (or the scaled capital portion) scaled by the decision's
// factor, capped by the per-position limit and by what each leg's
// balance can cover with headroom. Returns 0 when the result falls
// below the minimum viable order, which callers treat as a silent
// no-op.
func (l *PositionLedger) SizeFor(decision strategy.Decision, obs dto.MarketObservation, balances dto.Balances) float64 {
	refPrice := obs.RefPrice()
	if refPrice <= 0 {
		return 0
	}

	notional := l.cfg.MaxTradeAmount
	if l.cfg.Strategy == dto.StrategyScaled && l.cfg.PositionPortion > 0 {
		notional = l.initialCapital * l.cfg.PositionPortion
	}
	notional *= decision.SizeFactor
	if notional > l.cfg.MaxPositionSize {
		notional = l.cfg.MaxPositionSize
	}

	size := notional / refPrice

	maxByKRW := balances.KRW / obs.RateB * sizingHeadroom
	if size > maxByKRW {
		size = maxByKRW
	}

	quoteCapacity := balances.FreeQuote()
	if l.cfg.Leverage > 0 {
		quoteCapacity *= l.cfg.Leverage
	}
	maxByQuote := quoteCapacity / refPrice * sizingHeadroom
	if size > maxByQuote {
		size = maxByQuote
	}

	if size*refPrice < l.cfg.MinOrderSize || size <= 0 {
		return 0
	}
	return size
}

// Open appends the position and, for scaled runs, burns its entry
// level for the remainder of the run.
func (l *PositionLedger) Open(pos dto.Position) dto.Position {
	l.nextID++
	pos.ID = fmt.Sprintf("pos-%d", l.nextID)
	pos.Status = dto.PositionStatusOpen
	l.positions = append(l.positions, pos)
	if l.cfg.Strategy == dto.StrategyScaled {
		l.usedLevels[pos.EntryLevel] = true
	}
	return pos
}

// Close removes the position from the open set and returns it marked
// closed. The second return is false when the id is not open.
func (l *PositionLedger) Close(id string) (dto.Position, bool) {
	for i, pos := range l.positions {
		if pos.ID != id {
			continue
		}
		l.positions = append(l.positions[:i], l.positions[i+1:]...)
		pos.Status = dto.PositionStatusClosed
		return pos, true
	}
	return dto.Position{}, false
}
