package service

import (
	"math"
	"time"

	"kimchi-arb/internal/dto"
	"kimchi-arb/pkg/utils"
)

// annualizationFactor scales daily return statistics to a yearly
// Sharpe ratio over 252 trading days.
var annualizationFactor = math.Sqrt(252)

// MetricsEngine aggregates a completed run's equity and trade history
// into performance metrics. Stateless; safe to share across runs.
type MetricsEngine struct{}

func NewMetricsEngine() *MetricsEngine {
	return &MetricsEngine{}
}

// Compute derives the summary and the drawdown history. With zero
// trades the trade-derived metrics are all zero while the
// balance-derived ones still come from the equity curve.
func (m *MetricsEngine) Compute(equityCurve []float64, timestamps []time.Time, dailyReturns []float64, trades []dto.TradeRecord, initialBalance float64, openPositions int) (dto.BacktestSummary, []dto.DrawdownPoint) {
	summary := dto.BacktestSummary{
		InitialBalance: initialBalance,
		ProfitFactor:   dto.JSONFloat(0),
		OpenPositions:  openPositions,
	}

	final := initialBalance
	if len(equityCurve) > 0 {
		final = equityCurve[len(equityCurve)-1]
	}
	summary.FinalBalance = final
	summary.TotalReturn = final - initialBalance
	if initialBalance != 0 {
		summary.ReturnPct = (final - initialBalance) / initialBalance * 100
	}

	maxDD, drawdowns := m.drawdown(equityCurve, timestamps)
	summary.MaxDrawdown = maxDD
	summary.SharpeRatio = m.sharpe(dailyReturns)

	m.tradeStats(&summary, trades)

	return summary, drawdowns
}

// drawdown walks the equity curve against its running peak.
func (m *MetricsEngine) drawdown(equityCurve []float64, timestamps []time.Time) (float64, []dto.DrawdownPoint) {
	var maxDD float64
	points := make([]dto.DrawdownPoint, 0, len(equityCurve))

	var peak float64
	for i, equity := range equityCurve {
		if equity > peak {
			peak = equity
		}
		var dd float64
		if peak > 0 {
			dd = (peak - equity) / peak * 100
		}
		if dd > maxDD {
			maxDD = dd
		}
		if i < len(timestamps) {
			points = append(points, dto.DrawdownPoint{Timestamp: timestamps[i], Drawdown: dd})
		}
	}

	return maxDD, points
}

func (m *MetricsEngine) sharpe(dailyReturns []float64) float64 {
	if len(dailyReturns) == 0 {
		return 0
	}
	std := utils.StdDev(dailyReturns)
	if std == 0 {
		return 0
	}
	return utils.Mean(dailyReturns) / std * annualizationFactor
}

// tradeStats counts successful trades only; rejected records stay in
// the audit trail but never touch the metrics. A trade wins iff its
// recorded profit_loss is positive, so entries (zero profit_loss) count
// toward the total without being wins or losses.
func (m *MetricsEngine) tradeStats(summary *dto.BacktestSummary, trades []dto.TradeRecord) {
	var grossProfit, grossLoss float64
	for _, t := range trades {
		if !t.Success {
			continue
		}
		summary.TotalTrades++
		switch {
		case t.ProfitLoss > 0:
			summary.WinningTrades++
			grossProfit += t.ProfitLoss
		case t.ProfitLoss < 0:
			summary.LosingTrades++
			grossLoss += -t.ProfitLoss
		}
	}

	if summary.TotalTrades > 0 {
		summary.WinRate = float64(summary.WinningTrades) / float64(summary.TotalTrades) * 100
	}
	if summary.WinningTrades > 0 {
		summary.AverageWin = grossProfit / float64(summary.WinningTrades)
	}
	if summary.LosingTrades > 0 {
		summary.AverageLoss = -grossLoss / float64(summary.LosingTrades)
	}

	switch {
	case grossLoss > 0:
		summary.ProfitFactor = dto.JSONFloat(grossProfit / grossLoss)
	case summary.WinningTrades > 0:
		summary.ProfitFactor = dto.JSONFloat(math.Inf(1))
	}
}
