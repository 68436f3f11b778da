package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"kimchi-arb/internal/contract"
	"kimchi-arb/internal/dto"
	"kimchi-arb/internal/repository"
	"kimchi-arb/internal/service"
	"kimchi-arb/pkg/logger"
)

var sweepFlags struct {
	entryFrom, entryTo, entryStep    float64
	exitFrom, exitTo, exitStep       float64
	amountFrom, amountTo, amountStep float64
	stopFrom, stopTo, stopStep       float64
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Grid-search strategy parameters over many backtests",
	Run:   runSweep,
}

func init() {
	f := sweepCmd.Flags()
	f.StringVar(&backtestFlags.pair, "pair", dto.PairUSDT, "trading pair: usdt or btc")
	f.StringVar(&backtestFlags.startDate, "start", "", "start date (YYYY-MM-DD)")
	f.StringVar(&backtestFlags.endDate, "end", "", "end date (YYYY-MM-DD)")
	f.StringVar(&backtestFlags.strategy, "strategy", dto.StrategyThreshold, "strategy to sweep")
	f.BoolVar(&backtestFlags.useRealData, "real", false, "fetch real exchange data instead of synthetic")
	f.Int64Var(&backtestFlags.seed, "seed", 0, "seed for synthetic data generation")

	f.Float64Var(&sweepFlags.entryFrom, "entry-from", -1.0, "entry threshold range start")
	f.Float64Var(&sweepFlags.entryTo, "entry-to", 0.5, "entry threshold range end")
	f.Float64Var(&sweepFlags.entryStep, "entry-step", 0.5, "entry threshold step")
	f.Float64Var(&sweepFlags.exitFrom, "exit-from", 1.0, "exit threshold range start")
	f.Float64Var(&sweepFlags.exitTo, "exit-to", 3.0, "exit threshold range end")
	f.Float64Var(&sweepFlags.exitStep, "exit-step", 0.5, "exit threshold step")
	f.Float64Var(&sweepFlags.amountFrom, "amount-from", 1000, "trade amount range start")
	f.Float64Var(&sweepFlags.amountTo, "amount-to", 1000, "trade amount range end")
	f.Float64Var(&sweepFlags.amountStep, "amount-step", 0, "trade amount step, 0 pins the range start")
	f.Float64Var(&sweepFlags.stopFrom, "stop-from", 2.0, "stop loss range start")
	f.Float64Var(&sweepFlags.stopTo, "stop-to", 2.0, "stop loss range end")
	f.Float64Var(&sweepFlags.stopStep, "stop-step", 0, "stop loss step, 0 pins the range start")
}

func runSweep(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appDep, err := NewAppDependency(ctx)
	if err != nil {
		log.Fatalf("Failed to create app dependency: %v", err)
	}
	defer appDep.Close()

	base, err := buildBacktestRequest()
	if err != nil {
		appDep.log.Fatal("Invalid arguments", logger.ErrorField(err))
	}

	repo := repository.NewRepository(appDep.cfg, appDep.log, appDep.cache)
	services := service.NewService(appDep.cfg, appDep.log, repo)

	req := dto.SweepRequest{
		Base:            base,
		EntryThresholds: dto.SweepRange{From: sweepFlags.entryFrom, To: sweepFlags.entryTo, Step: sweepFlags.entryStep},
		ExitThresholds:  dto.SweepRange{From: sweepFlags.exitFrom, To: sweepFlags.exitTo, Step: sweepFlags.exitStep},
		MaxTradeAmounts: dto.SweepRange{From: sweepFlags.amountFrom, To: sweepFlags.amountTo, Step: sweepFlags.amountStep},
		StopLosses:      dto.SweepRange{From: sweepFlags.stopFrom, To: sweepFlags.stopTo, Step: sweepFlags.stopStep},
	}

	cb := &contract.Callbacks{
		Log: appDep.log,
		OnProgress: func(completed, total int) {
			fmt.Printf("\rSweep progress: %d/%d", completed, total)
			if completed == total {
				fmt.Println()
			}
		},
	}

	result, err := services.OptimizerService.RunSweep(ctx, req, cb)
	if err != nil {
		appDep.log.Fatal("Sweep failed", logger.ErrorField(err))
	}

	fmt.Printf("Completed %d runs\n", len(result.Runs))
	if result.Best != nil {
		fmt.Printf("Best return: %.2f%% with entry=%.2f exit=%.2f amount=%.0f stop=%.2f (%d trades, %.1f%% win rate)\n",
			result.BestReturn,
			result.Best.Params["entry_threshold"],
			result.Best.Params["exit_threshold"],
			result.Best.Params["max_trade_amount"],
			result.Best.Params["stop_loss_pct"],
			result.Best.TotalTrades,
			result.Best.WinRate)
	}
}
