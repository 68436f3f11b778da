package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kimchi-arb/internal/dto"
	"kimchi-arb/internal/strategy"
)

func TestPositionLedger_MaxOpenPositions(t *testing.T) {
	cfg := dto.DefaultStrategyConfig()
	cfg.MaxOpenPositions = 2
	ledger := NewPositionLedger(cfg, cfg.InitialBalanceQuote)

	decision := strategy.Decision{Action: dto.ActionEntry, SizeFactor: 1}

	ok, _ := ledger.CanOpen(decision)
	assert.True(t, ok)

	ledger.Open(dto.Position{Size: 100})
	ledger.Open(dto.Position{Size: 100})

	ok, reason := ledger.CanOpen(decision)
	assert.False(t, ok)
	assert.Equal(t, dto.ReasonMaxPositionsReached, reason)
}

func TestPositionLedger_ScaledLevelUsedOnce(t *testing.T) {
	cfg := dto.DefaultStrategyConfig()
	cfg.Strategy = dto.StrategyScaled
	ledger := NewPositionLedger(cfg, cfg.InitialBalanceQuote)

	decision := strategy.Decision{Action: dto.ActionEntry, Level: -1.0, SizeFactor: 1}

	ok, _ := ledger.CanOpen(decision)
	require.True(t, ok)

	ledger.Open(dto.Position{Size: 100, EntryLevel: -1.0})

	ok, reason := ledger.CanOpen(decision)
	assert.False(t, ok)
	assert.Equal(t, dto.ReasonLevelAlreadyUsed, reason)

	// The level stays burned even after the position closes.
	positions := ledger.OpenPositions()
	_, closed := ledger.Close(positions[0].ID)
	require.True(t, closed)
	ok, _ = ledger.CanOpen(decision)
	assert.False(t, ok)

	// Other levels remain available.
	ok, _ = ledger.CanOpen(strategy.Decision{Action: dto.ActionEntry, Level: -1.5, SizeFactor: 1})
	assert.True(t, ok)
}

func TestPositionLedger_SizeFor(t *testing.T) {
	obs := dto.MarketObservation{
		Timestamp: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		RateA:     1300,
		RateB:     1300,
		FXRate:    1300,
	}

	tests := []struct {
		name     string
		mutate   func(*dto.StrategyConfig)
		balances dto.Balances
		factor   float64
		want     float64
	}{
		{
			name:     "base notional",
			balances: dto.Balances{Quote: 10000, KRW: 13_000_000},
			factor:   1,
			want:     1000,
		},
		{
			name:     "capped by position size",
			mutate:   func(c *dto.StrategyConfig) { c.MaxPositionSize = 600 },
			balances: dto.Balances{Quote: 10000, KRW: 13_000_000},
			factor:   1,
			want:     600,
		},
		{
			name:     "size factor scales then caps",
			mutate:   func(c *dto.StrategyConfig) { c.MaxPositionSize = 5000 },
			balances: dto.Balances{Quote: 10000, KRW: 13_000_000},
			factor:   1.5,
			want:     1500,
		},
		{
			name:     "limited by KRW leg with headroom",
			balances: dto.Balances{Quote: 10000, KRW: 650_000},
			factor:   1,
			want:     475, // 650000/1300 * 0.95
		},
		{
			name:     "limited by quote leg with headroom",
			balances: dto.Balances{Quote: 400, KRW: 13_000_000},
			factor:   1,
			want:     380, // 400 * 0.95
		},
		{
			name:     "below minimum order is a no-op",
			mutate:   func(c *dto.StrategyConfig) { c.MinOrderSize = 500 },
			balances: dto.Balances{Quote: 400, KRW: 13_000_000},
			factor:   1,
			want:     0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := dto.DefaultStrategyConfig()
			cfg.MaxTradeAmount = 1000
			cfg.MaxPositionSize = 1000
			cfg.MinOrderSize = 100
			if tt.mutate != nil {
				tt.mutate(&cfg)
			}

			ledger := NewPositionLedger(cfg, cfg.InitialBalanceQuote)
			decision := strategy.Decision{Action: dto.ActionEntry, SizeFactor: tt.factor}
			size := ledger.SizeFor(decision, obs, tt.balances)
			assert.InDelta(t, tt.want, size, 1e-9)
		})
	}
}

func TestPositionLedger_ScaledSizeUsesCapitalPortion(t *testing.T) {
	cfg := dto.DefaultStrategyConfig()
	cfg.Strategy = dto.StrategyScaled
	cfg.PositionPortion = 0.1
	cfg.MaxPositionSize = 100_000
	ledger := NewPositionLedger(cfg, 20000)

	obs := dto.MarketObservation{RateA: 1300, RateB: 1300, FXRate: 1300}
	balances := dto.Balances{Quote: 100_000, KRW: 130_000_000}

	size := ledger.SizeFor(strategy.Decision{SizeFactor: 1}, obs, balances)
	assert.InDelta(t, 2000, size, 1e-9)
}

func TestPositionLedger_CloseUnknownID(t *testing.T) {
	cfg := dto.DefaultStrategyConfig()
	ledger := NewPositionLedger(cfg, cfg.InitialBalanceQuote)

	_, ok := ledger.Close("pos-99")
	assert.False(t, ok)
}
