package repository

import (
	"kimchi-arb/config"
	"kimchi-arb/pkg/cache"
	"kimchi-arb/pkg/logger"
)

type Repository struct {
	UpbitRepo        UpbitRepository
	BinanceRepo      BinanceRepository
	ExchangeRateRepo ExchangeRateRepository
	MarketDataRepo   MarketDataRepository
}

func NewRepository(cfg *config.Config, log *logger.Logger, c cache.Cache) *Repository {
	upbit := NewUpbitRepository(cfg, log)
	binance := NewBinanceRepository(cfg, log)
	fx := NewExchangeRateRepository(cfg, log, c)

	return &Repository{
		UpbitRepo:        upbit,
		BinanceRepo:      binance,
		ExchangeRateRepo: fx,
		MarketDataRepo:   NewMarketDataRepository(cfg, log, upbit, binance, fx),
	}
}
