package dto

import (
	"errors"
	"time"
)

// StrategyConfig is the flat parameter set for one simulation run.
// Immutable for the duration of the run.
type StrategyConfig struct {
	Strategy            string  `json:"strategy" validate:"omitempty,oneof=threshold asymmetric scaled trend"`
	InitialBalanceQuote float64 `json:"initial_balance_quote" validate:"gt=0"`
	InitialBalanceKRW   float64 `json:"initial_balance_krw" validate:"gte=0"`
	EntryThreshold      float64 `json:"entry_threshold"`
	ExitThreshold       float64 `json:"exit_threshold"`
	MaxTradeAmount      float64 `json:"max_trade_amount" validate:"gt=0"`
	MaxPositionSize     float64 `json:"max_position_size" validate:"gt=0"`
	MaxOpenPositions    int     `json:"max_open_positions" validate:"gte=1"`
	MinOrderSize        float64 `json:"min_order_size" validate:"gte=0"`
	CommissionRate      float64 `json:"commission_rate" validate:"gte=0,lt=1"`
	SlippageRate        float64 `json:"slippage_rate" validate:"gte=0,lt=1"`
	MaxTradesPerDay     int     `json:"max_trades_per_day" validate:"gte=1"`
	StopLossPct         float64 `json:"stop_loss_pct" validate:"gte=0"`
	TakeProfitPct       float64 `json:"take_profit_pct" validate:"gte=0"`
	CooldownSeconds     int     `json:"cooldown_seconds" validate:"gte=0"`

	// Leveraged variant: 0 disables margin trading on the short leg.
	Leverage             float64 `json:"leverage" validate:"gte=0"`
	FundingRate          float64 `json:"funding_rate" validate:"gte=0"`
	FundingIntervalHours float64 `json:"funding_interval_hours" validate:"gte=0"`

	// Scaled variant: fraction of initial capital committed per ladder
	// level.
	PositionPortion float64 `json:"position_portion" validate:"gte=0,lte=1"`

	// Trend variant: moving-average window in observations.
	MAPeriod int `json:"ma_period" validate:"gte=0"`
}

// Validate covers the cross-field invariants the struct tags cannot.
func (c StrategyConfig) Validate() error {
	if c.EntryThreshold >= c.ExitThreshold {
		return errors.New("entry threshold must be below exit threshold")
	}
	if c.Leverage > 0 && c.FundingIntervalHours <= 0 {
		return errors.New("funding interval must be positive when leverage is set")
	}
	return nil
}

// DefaultStrategyConfig mirrors the documented defaults of the original
// USDT/KRW arbitrage strategy.
func DefaultStrategyConfig() StrategyConfig {
	return StrategyConfig{
		Strategy:             StrategyThreshold,
		InitialBalanceQuote:  10000,
		EntryThreshold:       0.3,
		ExitThreshold:        2.0,
		MaxTradeAmount:       1000,
		MaxPositionSize:      1000,
		MaxOpenPositions:     3,
		MinOrderSize:         100,
		CommissionRate:       0.0025,
		SlippageRate:         0.001,
		MaxTradesPerDay:      10,
		StopLossPct:          2.0,
		TakeProfitPct:        0,
		CooldownSeconds:      0,
		FundingIntervalHours: 8,
		PositionPortion:      0.1,
		MAPeriod:             14,
	}
}

// ApplyDefaults fills zero-valued fields that have a documented
// default, leaving everything explicitly set untouched.
func (c *StrategyConfig) ApplyDefaults() {
	def := DefaultStrategyConfig()
	if c.Strategy == "" {
		c.Strategy = def.Strategy
	}
	if c.InitialBalanceQuote == 0 {
		c.InitialBalanceQuote = def.InitialBalanceQuote
	}
	if c.MaxTradeAmount == 0 {
		c.MaxTradeAmount = def.MaxTradeAmount
	}
	if c.MaxPositionSize == 0 {
		c.MaxPositionSize = def.MaxPositionSize
	}
	if c.MaxOpenPositions == 0 {
		c.MaxOpenPositions = def.MaxOpenPositions
	}
	if c.MaxTradesPerDay == 0 {
		c.MaxTradesPerDay = def.MaxTradesPerDay
	}
	if c.FundingIntervalHours == 0 {
		c.FundingIntervalHours = def.FundingIntervalHours
	}
	if c.PositionPortion == 0 {
		c.PositionPortion = def.PositionPortion
	}
	if c.MAPeriod == 0 {
		c.MAPeriod = def.MAPeriod
	}
}

// BacktestRequest is the external input of one run.
type BacktestRequest struct {
	Pair        string         `json:"pair" validate:"omitempty,oneof=usdt btc"`
	StartDate   time.Time      `json:"start_date" validate:"required"`
	EndDate     time.Time      `json:"end_date" validate:"required"`
	UseRealData bool           `json:"use_real_data"`
	Seed        int64          `json:"seed"`
	Config      StrategyConfig `json:"config"`
}

// Validate rejects malformed requests before any simulation work.
func (r BacktestRequest) Validate() error {
	if !r.StartDate.Before(r.EndDate) {
		return errors.New("start date must be before end date")
	}
	return r.Config.Validate()
}

// DrawdownPoint is one sample of the drawdown history.
type DrawdownPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Drawdown  float64   `json:"drawdown"`
}

// BacktestSummary aggregates one run's performance metrics.
type BacktestSummary struct {
	InitialBalance float64   `json:"initial_balance"`
	FinalBalance   float64   `json:"final_balance"`
	TotalReturn    float64   `json:"total_return"`
	ReturnPct      float64   `json:"return_percentage"`
	MaxDrawdown    float64   `json:"max_drawdown"`
	SharpeRatio    float64   `json:"sharpe_ratio"`
	WinRate        float64   `json:"win_rate"`
	ProfitFactor   JSONFloat `json:"profit_factor"`
	TotalTrades    int       `json:"total_trades"`
	WinningTrades  int       `json:"winning_trades"`
	LosingTrades   int       `json:"losing_trades"`
	AverageWin     float64   `json:"average_win"`
	AverageLoss    float64   `json:"average_loss"`
	OpenPositions  int       `json:"open_positions"`
}

// BacktestResult is the immutable output of one completed run.
type BacktestResult struct {
	Summary         BacktestSummary `json:"summary"`
	Trades          []TradeRecord   `json:"trades"`
	DailyReturns    []float64       `json:"daily_returns"`
	EquityCurve     []float64       `json:"equity_curve"`
	DrawdownHistory []DrawdownPoint `json:"drawdown_history"`
	StartDate       time.Time       `json:"start_date"`
	EndDate         time.Time       `json:"end_date"`
	DataPoints      int             `json:"data_points"`
}

// SweepRange describes one inclusive parameter grid axis.
type SweepRange struct {
	From float64 `json:"from"`
	To   float64 `json:"to"`
	Step float64 `json:"step" validate:"omitempty,gt=0"`
}

// Values expands the axis; a zero Step pins the axis to From.
func (r SweepRange) Values() []float64 {
	if r.Step <= 0 || r.To < r.From {
		return []float64{r.From}
	}
	var out []float64
	for v := r.From; v <= r.To+1e-9; v += r.Step {
		out = append(out, v)
	}
	return out
}

// SweepRequest is a grid search over strategy parameters.
type SweepRequest struct {
	Base            BacktestRequest `json:"base"`
	EntryThresholds SweepRange      `json:"entry_thresholds"`
	ExitThresholds  SweepRange      `json:"exit_thresholds"`
	MaxTradeAmounts SweepRange      `json:"max_trade_amounts"`
	StopLosses      SweepRange      `json:"stop_losses"`
}

// SweepRunResult is the condensed outcome of one grid point.
type SweepRunResult struct {
	Params      map[string]float64 `json:"params"`
	ReturnPct   float64            `json:"return_percentage"`
	MaxDrawdown float64            `json:"max_drawdown"`
	SharpeRatio float64            `json:"sharpe_ratio"`
	WinRate     float64            `json:"win_rate"`
	TotalTrades int                `json:"total_trades"`
}

// SweepResult is the outcome of a full parameter sweep.
type SweepResult struct {
	Best       *SweepRunResult  `json:"best"`
	BestReturn float64          `json:"best_return"`
	Runs       []SweepRunResult `json:"runs"`
}
