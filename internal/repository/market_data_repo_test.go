package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kimchi-arb/config"
	"kimchi-arb/internal/dto"
	"kimchi-arb/pkg/logger"
)

type fakeUpbitRepo struct {
	candles []dto.UpbitCandle
	err     error
}

func (f *fakeUpbitRepo) GetCandles(ctx context.Context, market, timeframe string, to time.Time, count int) ([]dto.UpbitCandle, error) {
	return f.candles, f.err
}

func (f *fakeUpbitRepo) GetCandlesRange(ctx context.Context, market, timeframe string, start, end time.Time) ([]dto.UpbitCandle, error) {
	return f.candles, f.err
}

type fakeBinanceRepo struct {
	klines []dto.BinanceKlines
	err    error
}

func (f *fakeBinanceRepo) GetKlines(ctx context.Context, symbol, interval string, limit int, startTime, endTime int64) ([]dto.BinanceKlines, error) {
	return f.klines, f.err
}

func (f *fakeBinanceRepo) GetKlinesRange(ctx context.Context, symbol, interval string, start, end time.Time) ([]dto.BinanceKlines, error) {
	return f.klines, f.err
}

type fakeExchangeRateRepo struct {
	rate float64
}

func (f *fakeExchangeRateRepo) GetUSDKRW(ctx context.Context) float64 { return f.rate }
func (f *fakeExchangeRateRepo) Refresh(ctx context.Context) error     { return nil }

func newTestMarketDataRepo(upbit UpbitRepository, binance BinanceRepository, fx ExchangeRateRepository) MarketDataRepository {
	return NewMarketDataRepository(&config.Config{}, logger.NewNop(), upbit, binance, fx)
}

func TestMarketDataRepo_SyntheticMode(t *testing.T) {
	repo := newTestMarketDataRepo(&fakeUpbitRepo{}, &fakeBinanceRepo{}, &fakeExchangeRateRepo{rate: 1300})

	req := syntheticRequest(dto.PairUSDT, 5, 30)
	req.UseRealData = false

	obs, err := repo.GetObservations(context.Background(), req)
	require.NoError(t, err)
	assert.Len(t, obs, 30)
}

func TestMarketDataRepo_FailoverToSynthetic(t *testing.T) {
	repo := newTestMarketDataRepo(
		&fakeUpbitRepo{err: errors.New("rate limited")},
		&fakeBinanceRepo{err: errors.New("rate limited")},
		&fakeExchangeRateRepo{rate: 1300},
	)

	for _, pair := range []string{dto.PairUSDT, dto.PairBTC} {
		req := syntheticRequest(pair, 5, 10)
		req.UseRealData = true

		// A fetch failure degrades to synthetic data, never an error.
		obs, err := repo.GetObservations(context.Background(), req)
		require.NoError(t, err, pair)
		assert.NotEmpty(t, obs, pair)
	}
}

func TestMarketDataRepo_EmptyResultFailsOver(t *testing.T) {
	repo := newTestMarketDataRepo(&fakeUpbitRepo{}, &fakeBinanceRepo{}, &fakeExchangeRateRepo{rate: 1300})

	req := syntheticRequest(dto.PairUSDT, 5, 10)
	req.UseRealData = true

	obs, err := repo.GetObservations(context.Background(), req)
	require.NoError(t, err)
	assert.Len(t, obs, 10)
}

func TestMarketDataRepo_USDTFromCandles(t *testing.T) {
	candles := make([]dto.UpbitCandle, 20)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range candles {
		candles[i] = dto.UpbitCandle{
			Market:            "KRW-USDT",
			CandleDateTimeUTC: base.AddDate(0, 0, i).Format("2006-01-02T15:04:05"),
			TradePrice:        1310,
			CandleAccTradeVol: 2_000_000,
		}
	}

	repo := newTestMarketDataRepo(&fakeUpbitRepo{candles: candles}, &fakeBinanceRepo{}, &fakeExchangeRateRepo{rate: 1300})

	req := syntheticRequest(dto.PairUSDT, 5, 20)
	req.UseRealData = true

	obs, err := repo.GetObservations(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, obs, 20)

	for i, o := range obs {
		assert.Equal(t, 1310.0, o.RateB)
		assert.Equal(t, o.RateA, o.FXRate)
		if i%16 == 0 {
			assert.Less(t, o.Premium(), 0.0, "dislocation window at %d", i)
		}
	}
}

func TestMarketDataRepo_BTCJoinsOnHour(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	klines := []dto.BinanceKlines{
		{OpenTime: base.UnixMilli(), Close: 60000, Volume: 12},
		{OpenTime: base.Add(time.Hour).UnixMilli(), Close: 60500, Volume: 15},
		// No matching domestic candle for this hour.
		{OpenTime: base.Add(2 * time.Hour).UnixMilli(), Close: 61000, Volume: 9},
	}
	candles := []dto.UpbitCandle{
		{CandleDateTimeUTC: "2026-01-01T00:00:00", TradePrice: 80_000_000},
		{CandleDateTimeUTC: "2026-01-01T01:00:00", TradePrice: 80_600_000},
	}

	repo := newTestMarketDataRepo(&fakeUpbitRepo{candles: candles}, &fakeBinanceRepo{klines: klines}, &fakeExchangeRateRepo{rate: 1300})

	req := syntheticRequest(dto.PairBTC, 5, 1)
	req.UseRealData = true

	obs, err := repo.GetObservations(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, obs, 2)

	assert.Equal(t, 60000*1300.0, obs[0].RateA)
	assert.Equal(t, 80_000_000.0, obs[0].RateB)
	assert.Equal(t, 1300.0, obs[0].FXRate)
	assert.Equal(t, base.Add(time.Hour), obs[1].Timestamp)
}
