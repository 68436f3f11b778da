package repository

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"kimchi-arb/config"
	"kimchi-arb/internal/dto"
	"kimchi-arb/pkg/httpclient"
	"kimchi-arb/pkg/logger"
	"kimchi-arb/pkg/ratelimit"
)

type BinanceRepository interface {
	GetKlines(ctx context.Context, symbol, interval string, limit int, startTime, endTime int64) ([]dto.BinanceKlines, error)
	GetKlinesRange(ctx context.Context, symbol, interval string, start, end time.Time) ([]dto.BinanceKlines, error)
}

type binanceRepository struct {
	httpClient     httpclient.HTTPClient
	cfg            *config.Config
	logger         *logger.Logger
	requestLimiter *rate.Limiter
}

func NewBinanceRepository(cfg *config.Config, log *logger.Logger) BinanceRepository {
	return &binanceRepository{
		httpClient:     httpclient.New(cfg.Binance.BaseURL, cfg.Binance.Timeout),
		cfg:            cfg,
		logger:         log,
		requestLimiter: ratelimit.PerMinute(cfg.Binance.MaxRequestPerMinute),
	}
}

func (r *binanceRepository) GetKlines(ctx context.Context, symbol, interval string, limit int, startTime, endTime int64) ([]dto.BinanceKlines, error) {
	if err := r.requestLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint := "/api/v3/klines"
	queryParams := map[string]string{
		"symbol":   symbol,
		"interval": interval,
		"limit":    strconv.Itoa(limit),
	}
	if startTime > 0 {
		queryParams["startTime"] = strconv.FormatInt(startTime, 10)
	}
	if endTime > 0 {
		queryParams["endTime"] = strconv.FormatInt(endTime, 10)
	}

	var klines [][]interface{}
	resp, err := r.httpClient.Get(ctx, endpoint, queryParams, nil, &klines)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch klines from binance: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		r.logger.Error("Binance API returned Non-OK status for klines",
			logger.IntField("status_code", resp.StatusCode),
			logger.StringField("body", string(resp.Body)))
		return nil, fmt.Errorf("binance api returned status: %d", resp.StatusCode)
	}

	var result []dto.BinanceKlines
	for _, k := range klines {
		kline, ok := parseKline(k)
		if !ok {
			r.logger.Warn("skipping malformed kline row",
				logger.StringField("symbol", symbol))
			continue
		}
		result = append(result, kline)
	}

	return result, nil
}

// parseKline converts one raw kline row, rejecting rows that are short
// or carry unexpected field types.
func parseKline(k []interface{}) (dto.BinanceKlines, bool) {
	if len(k) < 9 {
		return dto.BinanceKlines{}, false
	}

	openTime, okOpenTime := k[0].(float64)
	closeTime, okCloseTime := k[6].(float64)
	trades, okTrades := k[8].(float64)
	open, okOpen := klineFloat(k[1])
	high, okHigh := klineFloat(k[2])
	low, okLow := klineFloat(k[3])
	closePrice, okClose := klineFloat(k[4])
	volume, okVolume := klineFloat(k[5])
	quoteAssetVolume, okQuote := klineFloat(k[7])
	if !okOpenTime || !okCloseTime || !okTrades ||
		!okOpen || !okHigh || !okLow || !okClose || !okVolume || !okQuote {
		return dto.BinanceKlines{}, false
	}

	return dto.BinanceKlines{
		OpenTime:         int64(openTime),
		Open:             open,
		High:             high,
		Low:              low,
		Close:            closePrice,
		Volume:           volume,
		CloseTime:        int64(closeTime),
		QuoteAssetVolume: quoteAssetVolume,
		NumberOfTrades:   int64(trades),
	}, true
}

// klineFloat parses one numeric-string kline field.
func klineFloat(v interface{}) (float64, bool) {
	s, ok := v.(string)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// GetKlinesRange pages forward through the klines endpoint until the
// requested window is covered, advancing startTime past the last open
// time of each batch. The per-request rate limiter provides the pause
// between pages.
func (r *binanceRepository) GetKlinesRange(ctx context.Context, symbol, interval string, start, end time.Time) ([]dto.BinanceKlines, error) {
	var all []dto.BinanceKlines
	cursor := start.UnixMilli()
	endMs := end.UnixMilli()

	for cursor < endMs {
		batch, err := r.GetKlines(ctx, symbol, interval, r.cfg.Binance.KlineLimit, cursor, endMs)
		if err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			break
		}

		all = append(all, batch...)
		cursor = batch[len(batch)-1].OpenTime + 1

		if len(batch) < r.cfg.Binance.KlineLimit {
			break
		}
	}

	return all, nil
}
