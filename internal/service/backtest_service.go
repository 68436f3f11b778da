package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"kimchi-arb/config"
	"kimchi-arb/internal/contract"
	"kimchi-arb/internal/dto"
	"kimchi-arb/internal/repository"
	"kimchi-arb/internal/strategy"
	"kimchi-arb/pkg/logger"
	"kimchi-arb/pkg/utils"
)

type BacktestService interface {
	Run(ctx context.Context, req dto.BacktestRequest, cb *contract.Callbacks) (*dto.BacktestResult, error)
}

type backtestService struct {
	cfg            *config.Config
	log            *logger.Logger
	marketDataRepo repository.MarketDataRepository
	validate       *validator.Validate
	metrics        *MetricsEngine
}

func NewBacktestService(cfg *config.Config, log *logger.Logger, marketDataRepo repository.MarketDataRepository) BacktestService {
	return &backtestService{
		cfg:            cfg,
		log:            log,
		marketDataRepo: marketDataRepo,
		validate:       validator.New(),
		metrics:        NewMetricsEngine(),
	}
}

// Run executes one full simulation: fetch the observation series, walk
// it in timestamp order through the policy and the executor, then
// aggregate the history into a result. The run owns its ledger and
// balances exclusively; it is never re-entered concurrently.
func (s *backtestService) Run(ctx context.Context, req dto.BacktestRequest, cb *contract.Callbacks) (*dto.BacktestResult, error) {
	req.Config.ApplyDefaults()
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid backtest request: %w", err)
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid backtest request: %w", err)
	}

	policy, err := strategy.NewSignalPolicy(req.Config)
	if err != nil {
		return nil, err
	}

	observations, err := s.marketDataRepo.GetObservations(ctx, dto.MarketDataRequest{
		Pair:        req.Pair,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		UseRealData: req.UseRealData,
		Seed:        req.Seed,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load market data: %w", err)
	}
	if len(observations) == 0 {
		return nil, fmt.Errorf("no market data for %s between %s and %s",
			req.Pair, req.StartDate.Format("2006-01-02"), req.EndDate.Format("2006-01-02"))
	}

	s.log.Info("starting backtest",
		logger.StringField("strategy", policy.Name()),
		logger.StringField("pair", req.Pair),
		logger.IntField("observations", len(observations)))

	sess := newSession(req.Config, observations[0])
	result := sess.run(observations, policy, cb)
	result.StartDate = req.StartDate
	result.EndDate = req.EndDate

	summary, drawdowns := s.metrics.Compute(
		sess.equityCurve, sess.timestamps, sess.dailyReturns,
		sess.trades, sess.initialEquity, len(sess.ledger.OpenPositions()))
	result.Summary = summary
	result.DrawdownHistory = drawdowns

	s.log.Info("backtest completed",
		logger.FloatField("return_pct", summary.ReturnPct),
		logger.IntField("total_trades", summary.TotalTrades),
		logger.IntField("open_positions", summary.OpenPositions))

	return result, nil
}

// session is the mutable state of one run. Created per invocation,
// never shared, discarded when the run ends.
type session struct {
	cfg      dto.StrategyConfig
	ledger   *PositionLedger
	executor *TradeExecutor
	pctx     *strategy.PositionContext

	initialEquity float64
	trades        []dto.TradeRecord
	equityCurve   []float64
	timestamps    []time.Time
	dailyReturns  []float64
}

// newSession seeds the wallet. With no explicit KRW balance the quote
// capital is split in half and one half converted at the first
// observation's rate, mirroring how a live account would be funded on
// both venues.
func newSession(cfg dto.StrategyConfig, first dto.MarketObservation) *session {
	balances := dto.Balances{
		Quote: cfg.InitialBalanceQuote,
		KRW:   cfg.InitialBalanceKRW,
	}
	if cfg.InitialBalanceKRW == 0 {
		half := cfg.InitialBalanceQuote / 2
		balances.Quote = half
		balances.KRW = half * first.FXRate
	}

	ledger := NewPositionLedger(cfg, cfg.InitialBalanceQuote)

	return &session{
		cfg:           cfg,
		ledger:        ledger,
		executor:      NewTradeExecutor(cfg, balances, ledger),
		initialEquity: balances.Quote + balances.KRW/first.FXRate,
		pctx: &strategy.PositionContext{
			UsedEntryLevels: ledger.UsedLevels(),
		},
	}
}

func (s *session) record(rec dto.TradeRecord, cb *contract.Callbacks) {
	s.trades = append(s.trades, rec)
	cb.EmitTrade(rec)
}

func (s *session) run(observations []dto.MarketObservation, policy strategy.SignalPolicy, cb *contract.Callbacks) *dto.BacktestResult {
	total := len(observations)
	progressStep := total / 20
	if progressStep == 0 {
		progressStep = 1
	}

	var prevDayEquity float64
	for i, obs := range observations {
		s.pctx.OpenPositions = s.ledger.OpenPositions()
		s.pctx.RefPrices = append(s.pctx.RefPrices, obs.RefPrice())

		decision := policy.DecideEntry(obs, s.pctx)
		if decision.Action == dto.ActionEntry {
			if ok, reason := s.ledger.CanOpen(decision); !ok {
				s.record(s.executor.reject(obs.Timestamp, dto.ActionEntry, 0, obs, reason), cb)
			} else if size := s.ledger.SizeFor(decision, obs, s.executor.Balances()); size > 0 {
				// Below minimum order size is a silent no-op, not
				// a rejection.
				s.record(s.executor.ExecuteEntry(decision, obs, size), cb)
			}
		}

		// Open positions are re-evaluated every step in insertion
		// order, independent of the entry signal.
		for _, pos := range append([]dto.Position(nil), s.ledger.OpenPositions()...) {
			s.pctx.OpenPositions = s.ledger.OpenPositions()
			if exit, reason := policy.ShouldExit(obs, pos, s.pctx); exit {
				s.record(s.executor.ExecuteExit(pos, obs, reason), cb)
			}
		}

		equity := s.executor.Equity(obs)
		s.equityCurve = append(s.equityCurve, equity)
		s.timestamps = append(s.timestamps, obs.Timestamp)

		if i == 0 {
			prevDayEquity = equity
		} else if !utils.SameCalendarDay(obs.Timestamp, observations[i-1].Timestamp) {
			if prevDayEquity != 0 {
				s.dailyReturns = append(s.dailyReturns, (equity-prevDayEquity)/prevDayEquity)
			}
			prevDayEquity = equity
		}

		cb.EmitSnapshot(obs.Timestamp, equity)
		if (i+1)%progressStep == 0 || i == total-1 {
			cb.EmitProgress(i+1, total)
		}
	}

	return &dto.BacktestResult{
		Trades:       s.trades,
		DailyReturns: s.dailyReturns,
		EquityCurve:  s.equityCurve,
		DataPoints:   total,
	}
}
