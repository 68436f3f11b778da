package dto

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStrategyConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*StrategyConfig)
		wantErr bool
	}{
		{name: "defaults are valid", mutate: func(c *StrategyConfig) {}},
		{
			name:    "entry above exit",
			mutate:  func(c *StrategyConfig) { c.EntryThreshold = 3.0; c.ExitThreshold = 2.0 },
			wantErr: true,
		},
		{
			name:    "entry equal to exit",
			mutate:  func(c *StrategyConfig) { c.EntryThreshold = 2.0; c.ExitThreshold = 2.0 },
			wantErr: true,
		},
		{
			name:    "leverage without funding interval",
			mutate:  func(c *StrategyConfig) { c.Leverage = 5; c.FundingIntervalHours = 0 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultStrategyConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBacktestRequest_Validate(t *testing.T) {
	req := BacktestRequest{
		StartDate: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Config:    DefaultStrategyConfig(),
	}
	assert.Error(t, req.Validate())

	req.StartDate, req.EndDate = req.EndDate, req.StartDate
	assert.NoError(t, req.Validate())
}

func TestStrategyConfig_ApplyDefaults(t *testing.T) {
	var cfg StrategyConfig
	cfg.EntryThreshold = -1.0
	cfg.ApplyDefaults()

	assert.Equal(t, StrategyThreshold, cfg.Strategy)
	assert.Equal(t, 8.0, cfg.FundingIntervalHours)
	assert.Equal(t, 3, cfg.MaxOpenPositions)
	// Explicit values survive.
	assert.Equal(t, -1.0, cfg.EntryThreshold)
}

func TestSweepRange_Values(t *testing.T) {
	tests := []struct {
		name string
		r    SweepRange
		want []float64
	}{
		{name: "inclusive range", r: SweepRange{From: 1, To: 2, Step: 0.5}, want: []float64{1, 1.5, 2}},
		{name: "zero step pins from", r: SweepRange{From: 3, To: 9, Step: 0}, want: []float64{3}},
		{name: "inverted range pins from", r: SweepRange{From: 5, To: 1, Step: 1}, want: []float64{5}},
		{name: "single point", r: SweepRange{From: 2, To: 2, Step: 1}, want: []float64{2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.r.Values()
			require.Len(t, got, len(tt.want))
			for i := range tt.want {
				assert.InDelta(t, tt.want[i], got[i], 1e-9)
			}
		})
	}
}

func TestJSONFloat_Marshal(t *testing.T) {
	out, err := json.Marshal(JSONFloat(1.5))
	require.NoError(t, err)
	assert.Equal(t, "1.5", string(out))

	out, err = json.Marshal(JSONFloat(math.Inf(1)))
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))

	var f JSONFloat
	require.NoError(t, json.Unmarshal([]byte("null"), &f))
	assert.True(t, math.IsInf(float64(f), 1))
}

func TestMarketObservation_Premium(t *testing.T) {
	obs := MarketObservation{RateA: 1300, RateB: 1326, FXRate: 1300}
	assert.InDelta(t, 2.0, obs.Premium(), 1e-9)
	assert.InDelta(t, 1.0, obs.RefPrice(), 1e-9)
}
