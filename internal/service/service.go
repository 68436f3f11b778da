package service

import (
	"kimchi-arb/config"
	"kimchi-arb/internal/repository"
	"kimchi-arb/pkg/logger"
)

type Service struct {
	BacktestService  BacktestService
	OptimizerService OptimizerService
	ExportService    ExportService
}

func NewService(cfg *config.Config, log *logger.Logger, repo *repository.Repository) *Service {
	backtestService := NewBacktestService(cfg, log, repo.MarketDataRepo)

	return &Service{
		BacktestService:  backtestService,
		OptimizerService: NewOptimizerService(cfg, log, backtestService),
		ExportService:    NewExportService(log),
	}
}
