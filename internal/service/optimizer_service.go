package service

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"kimchi-arb/config"
	"kimchi-arb/internal/contract"
	"kimchi-arb/internal/dto"
	"kimchi-arb/pkg/logger"
)

type OptimizerService interface {
	RunSweep(ctx context.Context, req dto.SweepRequest, cb *contract.Callbacks) (*dto.SweepResult, error)
}

type optimizerService struct {
	cfg      *config.Config
	log      *logger.Logger
	backtest BacktestService
}

func NewOptimizerService(cfg *config.Config, log *logger.Logger, backtest BacktestService) OptimizerService {
	return &optimizerService{
		cfg:      cfg,
		log:      log,
		backtest: backtest,
	}
}

type sweepParams struct {
	entryThreshold float64
	exitThreshold  float64
	maxTradeAmount float64
	stopLossPct    float64
}

// RunSweep grid-searches the requested parameter ranges, running each
// combination as an isolated backtest. Workers run combinations in
// parallel; cancellation is honored between runs, and combinations
// already finished keep their results.
func (s *optimizerService) RunSweep(ctx context.Context, req dto.SweepRequest, cb *contract.Callbacks) (*dto.SweepResult, error) {
	combos := s.combinations(req)
	if len(combos) == 0 {
		return nil, fmt.Errorf("sweep produced no valid parameter combinations")
	}

	s.log.Info("starting parameter sweep",
		logger.IntField("combinations", len(combos)),
		logger.IntField("max_concurrency", s.cfg.Sweep.MaxConcurrency))

	var (
		mu   sync.Mutex
		runs []dto.SweepRunResult
		done int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Sweep.MaxConcurrency)

	for _, combo := range combos {
		combo := combo
		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			runReq := req.Base
			runReq.Config.EntryThreshold = combo.entryThreshold
			runReq.Config.ExitThreshold = combo.exitThreshold
			runReq.Config.MaxTradeAmount = combo.maxTradeAmount
			runReq.Config.StopLossPct = combo.stopLossPct

			// Each run owns its own session; no callbacks are
			// forwarded into individual runs.
			result, err := s.backtest.Run(gctx, runReq, nil)
			if err != nil {
				return fmt.Errorf("sweep run failed (entry=%.2f exit=%.2f): %w",
					combo.entryThreshold, combo.exitThreshold, err)
			}

			mu.Lock()
			runs = append(runs, dto.SweepRunResult{
				Params: map[string]float64{
					"entry_threshold":  combo.entryThreshold,
					"exit_threshold":   combo.exitThreshold,
					"max_trade_amount": combo.maxTradeAmount,
					"stop_loss_pct":    combo.stopLossPct,
				},
				ReturnPct:   result.Summary.ReturnPct,
				MaxDrawdown: result.Summary.MaxDrawdown,
				SharpeRatio: result.Summary.SharpeRatio,
				WinRate:     result.Summary.WinRate,
				TotalTrades: result.Summary.TotalTrades,
			})
			done++
			completed := done
			mu.Unlock()

			cb.EmitProgress(completed, len(combos))
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	if err != nil && len(runs) == 0 {
		return nil, err
	}
	if err != nil {
		s.log.Warn("sweep finished with failed runs", logger.ErrorField(err))
	}

	result := &dto.SweepResult{Runs: runs}
	for i := range runs {
		if result.Best == nil || runs[i].ReturnPct > result.BestReturn {
			result.Best = &runs[i]
			result.BestReturn = runs[i].ReturnPct
		}
	}

	return result, nil
}

// combinations expands the grid, skipping combinations whose bands are
// not profitable-direction, and caps the total at the configured limit.
func (s *optimizerService) combinations(req dto.SweepRequest) []sweepParams {
	base := req.Base.Config
	base.ApplyDefaults()

	entries := orDefault(req.EntryThresholds, base.EntryThreshold)
	exits := orDefault(req.ExitThresholds, base.ExitThreshold)
	amounts := orDefault(req.MaxTradeAmounts, base.MaxTradeAmount)
	stops := orDefault(req.StopLosses, base.StopLossPct)

	var combos []sweepParams
	for _, entry := range entries {
		for _, exit := range exits {
			if entry >= exit {
				continue
			}
			for _, amount := range amounts {
				for _, stop := range stops {
					if len(combos) >= s.cfg.Sweep.MaxCombinations {
						return combos
					}
					combos = append(combos, sweepParams{
						entryThreshold: entry,
						exitThreshold:  exit,
						maxTradeAmount: amount,
						stopLossPct:    stop,
					})
				}
			}
		}
	}

	return combos
}

// orDefault expands an axis, substituting the base value only when
// the range was never set. An axis deliberately pinned at zero keeps
// its zero by carrying a positive step ({From: 0, To: 0, Step: 1}).
func orDefault(r dto.SweepRange, def float64) []float64 {
	if r == (dto.SweepRange{}) {
		return []float64{def}
	}
	return r.Values()
}
