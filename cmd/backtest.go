package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"kimchi-arb/internal/contract"
	"kimchi-arb/internal/dto"
	"kimchi-arb/internal/repository"
	"kimchi-arb/internal/service"
	"kimchi-arb/pkg/logger"
)

var backtestFlags struct {
	pair        string
	startDate   string
	endDate     string
	strategy    string
	useRealData bool
	seed        int64

	entryThreshold float64
	exitThreshold  float64
	maxTradeAmount float64
	stopLossPct    float64
	takeProfitPct  float64
	leverage       float64
	output         string
}

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Run a single backtest",
	Run:   runBacktest,
}

func init() {
	f := backtestCmd.Flags()
	f.StringVar(&backtestFlags.pair, "pair", dto.PairUSDT, "trading pair: usdt or btc")
	f.StringVar(&backtestFlags.startDate, "start", "", "start date (YYYY-MM-DD)")
	f.StringVar(&backtestFlags.endDate, "end", "", "end date (YYYY-MM-DD)")
	f.StringVar(&backtestFlags.strategy, "strategy", dto.StrategyThreshold, "strategy: threshold, asymmetric, scaled or trend")
	f.BoolVar(&backtestFlags.useRealData, "real", false, "fetch real exchange data instead of synthetic")
	f.Int64Var(&backtestFlags.seed, "seed", 0, "seed for synthetic data generation")
	f.Float64Var(&backtestFlags.entryThreshold, "entry", 0.3, "entry premium threshold (%)")
	f.Float64Var(&backtestFlags.exitThreshold, "exit", 2.0, "exit premium threshold (%)")
	f.Float64Var(&backtestFlags.maxTradeAmount, "amount", 1000, "max trade amount in quote currency")
	f.Float64Var(&backtestFlags.stopLossPct, "stop-loss", 2.0, "stop loss (%)")
	f.Float64Var(&backtestFlags.takeProfitPct, "take-profit", 0, "take profit (%), 0 disables")
	f.Float64Var(&backtestFlags.leverage, "leverage", 0, "leverage on the short leg, 0 for spot")
	f.StringVarP(&backtestFlags.output, "output", "o", "", "export result JSON to this path")
}

func buildBacktestRequest() (dto.BacktestRequest, error) {
	start, err := time.Parse("2006-01-02", backtestFlags.startDate)
	if err != nil {
		return dto.BacktestRequest{}, fmt.Errorf("invalid start date: %w", err)
	}
	end, err := time.Parse("2006-01-02", backtestFlags.endDate)
	if err != nil {
		return dto.BacktestRequest{}, fmt.Errorf("invalid end date: %w", err)
	}

	cfg := dto.DefaultStrategyConfig()
	cfg.Strategy = backtestFlags.strategy
	cfg.EntryThreshold = backtestFlags.entryThreshold
	cfg.ExitThreshold = backtestFlags.exitThreshold
	cfg.MaxTradeAmount = backtestFlags.maxTradeAmount
	cfg.StopLossPct = backtestFlags.stopLossPct
	cfg.TakeProfitPct = backtestFlags.takeProfitPct
	cfg.Leverage = backtestFlags.leverage

	return dto.BacktestRequest{
		Pair:        backtestFlags.pair,
		StartDate:   start,
		EndDate:     end,
		UseRealData: backtestFlags.useRealData,
		Seed:        backtestFlags.seed,
		Config:      cfg,
	}, nil
}

func runBacktest(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appDep, err := NewAppDependency(ctx)
	if err != nil {
		log.Fatalf("Failed to create app dependency: %v", err)
	}
	defer appDep.Close()

	req, err := buildBacktestRequest()
	if err != nil {
		appDep.log.Fatal("Invalid arguments", logger.ErrorField(err))
	}

	repo := repository.NewRepository(appDep.cfg, appDep.log, appDep.cache)
	services := service.NewService(appDep.cfg, appDep.log, repo)

	cb := &contract.Callbacks{
		Log: appDep.log,
		OnProgress: func(completed, total int) {
			appDep.log.Debug("backtest progress",
				logger.IntField("completed", completed),
				logger.IntField("total", total))
		},
		OnTrade: appDep.notifier.SendTradeAlert,
	}

	result, err := services.BacktestService.Run(ctx, req, cb)
	if err != nil {
		appDep.log.Fatal("Backtest failed", logger.ErrorField(err))
	}

	printSummary(result)

	if backtestFlags.output != "" {
		path, err := services.ExportService.Export(result, backtestFlags.output)
		if err != nil {
			appDep.log.Fatal("Export failed", logger.ErrorField(err))
		}
		fmt.Printf("Results written to %s\n", path)
	}
}

func printSummary(result *dto.BacktestResult) {
	s := result.Summary
	fmt.Printf("Period:         %s -> %s (%d observations)\n",
		result.StartDate.Format("2006-01-02"), result.EndDate.Format("2006-01-02"), result.DataPoints)
	fmt.Printf("Initial:        %.2f\n", s.InitialBalance)
	fmt.Printf("Final:          %.2f\n", s.FinalBalance)
	fmt.Printf("Return:         %.2f%%\n", s.ReturnPct)
	fmt.Printf("Max drawdown:   %.2f%%\n", s.MaxDrawdown)
	fmt.Printf("Sharpe:         %.2f\n", s.SharpeRatio)
	fmt.Printf("Trades:         %d (%d won / %d lost, %.1f%% win rate)\n",
		s.TotalTrades, s.WinningTrades, s.LosingTrades, s.WinRate)
	fmt.Printf("Profit factor:  %.2f\n", float64(s.ProfitFactor))
	fmt.Printf("Open positions: %d\n", s.OpenPositions)
}
