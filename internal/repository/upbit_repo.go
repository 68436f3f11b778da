package repository

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"kimchi-arb/config"
	"kimchi-arb/internal/dto"
	"kimchi-arb/pkg/httpclient"
	"kimchi-arb/pkg/logger"
	"kimchi-arb/pkg/ratelimit"
)

type UpbitRepository interface {
	GetCandles(ctx context.Context, market, timeframe string, to time.Time, count int) ([]dto.UpbitCandle, error)
	GetCandlesRange(ctx context.Context, market, timeframe string, start, end time.Time) ([]dto.UpbitCandle, error)
}

type upbitRepository struct {
	httpClient     httpclient.HTTPClient
	cfg            *config.Config
	logger         *logger.Logger
	requestLimiter *rate.Limiter
}

func NewUpbitRepository(cfg *config.Config, log *logger.Logger) UpbitRepository {
	return &upbitRepository{
		httpClient:     httpclient.New(cfg.Upbit.BaseURL, cfg.Upbit.Timeout),
		cfg:            cfg,
		logger:         log,
		requestLimiter: ratelimit.PerMinute(cfg.Upbit.MaxRequestPerMinute),
	}
}

func candleEndpoint(timeframe string) (string, error) {
	switch timeframe {
	case dto.TimeframeDaily:
		return "/v1/candles/days", nil
	case dto.TimeframeHourly:
		return "/v1/candles/minutes/60", nil
	default:
		return "", fmt.Errorf("unsupported timeframe: %s", timeframe)
	}
}

// GetCandles fetches up to count candles ending at to, newest first as
// the API returns them.
func (r *upbitRepository) GetCandles(ctx context.Context, market, timeframe string, to time.Time, count int) ([]dto.UpbitCandle, error) {
	if err := r.requestLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint, err := candleEndpoint(timeframe)
	if err != nil {
		return nil, err
	}

	queryParams := map[string]string{
		"market": market,
		"count":  strconv.Itoa(count),
	}
	if !to.IsZero() {
		queryParams["to"] = to.UTC().Format("2006-01-02T15:04:05Z")
	}

	var candles []dto.UpbitCandle
	resp, err := r.httpClient.Get(ctx, endpoint, queryParams, nil, &candles)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch candles from upbit: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		r.logger.Error("Upbit API returned Non-OK status for candles",
			logger.IntField("status_code", resp.StatusCode),
			logger.StringField("body", string(resp.Body)))
		return nil, fmt.Errorf("upbit api returned status: %d", resp.StatusCode)
	}

	return candles, nil
}

// GetCandlesRange pages backward from end using the to cursor until the
// window is covered, then returns the candles oldest first.
func (r *upbitRepository) GetCandlesRange(ctx context.Context, market, timeframe string, start, end time.Time) ([]dto.UpbitCandle, error) {
	var all []dto.UpbitCandle
	cursor := end

	for {
		batch, err := r.GetCandles(ctx, market, timeframe, cursor, r.cfg.Upbit.CandleLimit)
		if err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			break
		}

		reachedStart := false
		for _, c := range batch {
			ts, err := time.Parse("2006-01-02T15:04:05", c.CandleDateTimeUTC)
			if err != nil {
				continue
			}
			if ts.Before(start) {
				reachedStart = true
				continue
			}
			all = append(all, c)
		}

		oldest := batch[len(batch)-1]
		oldestTs, err := time.Parse("2006-01-02T15:04:05", oldest.CandleDateTimeUTC)
		if err != nil {
			break
		}
		if reachedStart || len(batch) < r.cfg.Upbit.CandleLimit {
			break
		}
		cursor = oldestTs
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].CandleDateTimeUTC < all[j].CandleDateTimeUTC
	})

	return all, nil
}
