package service

import (
	"encoding/json"
	"fmt"
	"os"

	"kimchi-arb/internal/dto"
	"kimchi-arb/pkg/logger"
	"kimchi-arb/pkg/utils"
)

// ExportService writes completed results to flat JSON files with
// ISO-8601 timestamps.
type ExportService interface {
	Export(result *dto.BacktestResult, path string) (string, error)
}

type exportService struct {
	log *logger.Logger
}

func NewExportService(log *logger.Logger) ExportService {
	return &exportService{log: log}
}

// Export writes the result to path, generating a timestamped filename
// when path is empty, and returns the path written.
func (s *exportService) Export(result *dto.BacktestResult, path string) (string, error) {
	if path == "" {
		path = utils.TimestampedFilename("backtest_results", "json")
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize result: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write result file: %w", err)
	}

	s.log.Info("exported backtest result",
		logger.StringField("path", path),
		logger.IntField("trades", len(result.Trades)))

	return path, nil
}
