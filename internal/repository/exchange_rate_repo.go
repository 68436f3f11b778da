package repository

import (
	"context"
	"fmt"
	"net/http"

	"kimchi-arb/config"
	"kimchi-arb/internal/dto"
	"kimchi-arb/pkg/cache"
	"kimchi-arb/pkg/common"
	"kimchi-arb/pkg/httpclient"
	"kimchi-arb/pkg/logger"
)

type ExchangeRateRepository interface {
	// GetUSDKRW returns the USD/KRW rate, cached for the configured
	// duration. A fetch failure degrades to the configured fallback
	// rate; it never returns an error to the caller.
	GetUSDKRW(ctx context.Context) float64

	// Refresh forces a fetch, bypassing the cache.
	Refresh(ctx context.Context) error
}

type exchangeRateRepository struct {
	httpClient httpclient.HTTPClient
	cfg        *config.Config
	logger     *logger.Logger
	cache      cache.Cache
}

func NewExchangeRateRepository(cfg *config.Config, log *logger.Logger, c cache.Cache) ExchangeRateRepository {
	return &exchangeRateRepository{
		httpClient: httpclient.New(cfg.ExchangeRate.BaseURL, cfg.ExchangeRate.Timeout),
		cfg:        cfg,
		logger:     log,
		cache:      c,
	}
}

func (r *exchangeRateRepository) GetUSDKRW(ctx context.Context) float64 {
	if rate, found := cache.GetTyped[float64](r.cache, common.KEY_USD_KRW_RATE); found {
		return rate
	}

	if err := r.Refresh(ctx); err != nil {
		r.logger.Warn("USD/KRW fetch failed, using fallback rate",
			logger.FloatField("fallback", r.cfg.ExchangeRate.FallbackUSDKRW),
			logger.ErrorField(err))
		return r.cfg.ExchangeRate.FallbackUSDKRW
	}

	rate, found := cache.GetTyped[float64](r.cache, common.KEY_USD_KRW_RATE)
	if !found {
		return r.cfg.ExchangeRate.FallbackUSDKRW
	}
	return rate
}

func (r *exchangeRateRepository) Refresh(ctx context.Context) error {
	var payload dto.ExchangeRateResponse
	resp, err := r.httpClient.Get(ctx, "/v4/latest/USD", nil, nil, &payload)
	if err != nil {
		return fmt.Errorf("failed to fetch exchange rate: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("exchange rate api returned status: %d", resp.StatusCode)
	}

	rate, ok := payload.Rates["KRW"]
	if !ok || rate <= 0 {
		return fmt.Errorf("exchange rate response missing KRW rate")
	}

	r.cache.Set(common.KEY_USD_KRW_RATE, rate, r.cfg.ExchangeRate.CacheDuration)
	r.logger.Debug("USD/KRW rate refreshed", logger.FloatField("rate", rate))
	return nil
}
