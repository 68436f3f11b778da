package service

import (
	"time"

	"kimchi-arb/internal/dto"
	"kimchi-arb/internal/strategy"
	"kimchi-arb/pkg/utils"
)

// TradeExecutor applies decisions to the balances and the ledger. It
// owns the run's wallet and the daily-limit / cooldown bookkeeping;
// every mutation happens atomically, with rejections recorded as
// structured trade records rather than errors.
type TradeExecutor struct {
	cfg      dto.StrategyConfig
	balances dto.Balances
	ledger   *PositionLedger

	dailyCount   int
	lastTradeDay time.Time
	lastTradeAt  time.Time
}

func NewTradeExecutor(cfg dto.StrategyConfig, balances dto.Balances, ledger *PositionLedger) *TradeExecutor {
	return &TradeExecutor{
		cfg:      cfg,
		balances: balances,
		ledger:   ledger,
	}
}

func (e *TradeExecutor) Balances() dto.Balances {
	return e.balances
}

// Equity marks the wallet to market in quote currency at the given
// observation: free balances plus the asset leg, minus the open short
// liabilities. Spot shorts banked their proceeds at entry, so the full
// buy-back cost counts against them; leveraged shorts only carry the
// move since entry.
func (e *TradeExecutor) Equity(obs dto.MarketObservation) float64 {
	refPrice := obs.RefPrice()
	equity := e.balances.Quote + e.balances.KRW/obs.FXRate + e.balances.Asset*obs.RateB/obs.FXRate

	for _, pos := range e.ledger.OpenPositions() {
		short := pos.Size * refPrice
		if pos.Leveraged {
			short -= pos.EntryNotional
		}
		equity -= short
	}

	return equity
}

// gate runs the pre-trade checks shared by entries and exits: daily
// counter reset on calendar-day change, the daily trade cap, and the
// cooldown window. Returns a rejection reason or empty string.
func (e *TradeExecutor) gate(ts time.Time) string {
	if !utils.SameCalendarDay(ts, e.lastTradeDay) {
		e.dailyCount = 0
		e.lastTradeDay = utils.TruncateToDay(ts)
	}

	if e.dailyCount >= e.cfg.MaxTradesPerDay {
		return dto.ReasonDailyLimitExceeded
	}

	if e.cfg.CooldownSeconds > 0 && !e.lastTradeAt.IsZero() {
		if ts.Sub(e.lastTradeAt) < time.Duration(e.cfg.CooldownSeconds)*time.Second {
			return dto.ReasonCooldownActive
		}
	}

	return ""
}

func (e *TradeExecutor) commit(ts time.Time) {
	e.dailyCount++
	e.lastTradeAt = ts
}

func (e *TradeExecutor) reject(ts time.Time, action string, amount float64, obs dto.MarketObservation, reason string) dto.TradeRecord {
	return dto.TradeRecord{
		Timestamp:     ts,
		Action:        action,
		Amount:        amount,
		PriceA:        obs.RateA,
		PriceB:        obs.RateB,
		DifferencePct: obs.Premium(),
		Success:       false,
		Reason:        reason,
		BalanceAfter:  e.balances.AsMap(),
	}
}

// ExecuteEntry opens a position of the given size: buy the asset on the
// domestic exchange, short the same size on the reference exchange.
// Commission is charged in quote on the reference notional, slippage in
// KRW on the domestic leg.
func (e *TradeExecutor) ExecuteEntry(decision strategy.Decision, obs dto.MarketObservation, size float64) dto.TradeRecord {
	refPrice := obs.RefPrice()
	refNotional := size * refPrice

	if reason := e.gate(obs.Timestamp); reason != "" {
		return e.reject(obs.Timestamp, dto.ActionEntry, refNotional, obs, reason)
	}

	commission := refNotional * e.cfg.CommissionRate
	slippage := size * obs.RateB * e.cfg.SlippageRate
	domesticCost := size*obs.RateB + slippage

	leveraged := e.cfg.Leverage > 0
	var margin float64
	if leveraged {
		margin = refNotional / e.cfg.Leverage
	}

	if e.balances.KRW < domesticCost {
		return e.reject(obs.Timestamp, dto.ActionEntry, refNotional, obs, dto.ReasonInsufficientBalance)
	}
	required := refNotional
	if leveraged {
		required = margin + commission
	}
	if e.balances.FreeQuote() < required {
		return e.reject(obs.Timestamp, dto.ActionEntry, refNotional, obs, dto.ReasonInsufficientBalance)
	}

	// Both legs mutate together; all checks passed above.
	e.balances.KRW -= domesticCost
	e.balances.Asset += size
	if leveraged {
		e.balances.Quote -= commission
		e.balances.ReservedMargin += margin
	} else {
		e.balances.Quote += refNotional - commission
	}

	e.ledger.Open(dto.Position{
		EntryTime:       obs.Timestamp,
		EntryPremium:    decision.Premium,
		Size:            size,
		EntryPriceA:     obs.RateA,
		EntryPriceB:     obs.RateB,
		EntryFXRate:     obs.FXRate,
		EntryLevel:      decision.Level,
		EntryCostKRW:    domesticCost,
		EntryNotional:   refNotional,
		EntryCommission: commission,
		Margin:          margin,
		Leveraged:       leveraged,
	})

	e.commit(obs.Timestamp)

	reason := decision.Reason
	if reason == "" {
		reason = decision.Trend
	}

	return dto.TradeRecord{
		Timestamp:     obs.Timestamp,
		Action:        dto.ActionEntry,
		Amount:        refNotional,
		PriceA:        obs.RateA,
		PriceB:        obs.RateB,
		DifferencePct: decision.Premium,
		Success:       true,
		Reason:        reason,
		ProfitLoss:    0,
		BalanceAfter:  e.balances.AsMap(),
	}
}

// ExecuteExit closes an open position: sell the asset domestically, buy
// back the reference short. Funding income accrues on leveraged
// positions proportionally to holding duration and is added to the
// exit proceeds.
func (e *TradeExecutor) ExecuteExit(pos dto.Position, obs dto.MarketObservation, exitReason string) dto.TradeRecord {
	refPrice := obs.RefPrice()
	refNotional := pos.Size * refPrice

	if reason := e.gate(obs.Timestamp); reason != "" {
		return e.reject(obs.Timestamp, dto.ActionExit, refNotional, obs, reason)
	}

	commission := refNotional * e.cfg.CommissionRate
	slippage := pos.Size * obs.RateB * e.cfg.SlippageRate
	domesticProceeds := pos.Size*obs.RateB - slippage

	var funding float64
	if pos.Leveraged && e.cfg.FundingRate > 0 {
		elapsedHours := obs.Timestamp.Sub(pos.EntryTime).Hours()
		funding = pos.EntryNotional * e.cfg.FundingRate * elapsedHours / e.cfg.FundingIntervalHours
	}

	if pos.Leveraged {
		shortfall := refNotional - pos.EntryNotional + commission - funding
		if shortfall > 0 && e.balances.Quote+pos.Margin < shortfall {
			return e.reject(obs.Timestamp, dto.ActionExit, refNotional, obs, dto.ReasonInsufficientBalance)
		}
	} else if e.balances.Quote < refNotional+commission {
		return e.reject(obs.Timestamp, dto.ActionExit, refNotional, obs, dto.ReasonInsufficientBalance)
	}

	if _, ok := e.ledger.Close(pos.ID); !ok {
		return e.reject(obs.Timestamp, dto.ActionExit, refNotional, obs, "position not open")
	}

	e.balances.KRW += domesticProceeds
	e.balances.Asset -= pos.Size
	if pos.Leveraged {
		e.balances.ReservedMargin -= pos.Margin
		e.balances.Quote += pos.EntryNotional - refNotional - commission + funding
	} else {
		e.balances.Quote -= refNotional + commission
	}

	e.commit(obs.Timestamp)

	profitLoss := (domesticProceeds-pos.EntryCostKRW)/obs.FXRate +
		(pos.EntryNotional - refNotional) -
		commission - pos.EntryCommission + funding

	return dto.TradeRecord{
		Timestamp:     obs.Timestamp,
		Action:        dto.ActionExit,
		Amount:        refNotional,
		PriceA:        obs.RateA,
		PriceB:        obs.RateB,
		DifferencePct: obs.Premium(),
		Success:       true,
		Reason:        exitReason,
		ProfitLoss:    profitLoss,
		BalanceAfter:  e.balances.AsMap(),
	}
}
