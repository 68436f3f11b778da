package dto

import (
	"time"

	"kimchi-arb/pkg/common"
)

// Position is one open arbitrage position: long the asset on the target
// exchange, short the same size on the reference exchange. Owned
// exclusively by the position ledger for the duration of a run.
type Position struct {
	ID           string    `json:"id"`
	EntryTime    time.Time `json:"entry_time"`
	EntryPremium float64   `json:"entry_premium"`
	Size         float64   `json:"size"`
	EntryPriceA  float64   `json:"entry_price_a"`
	EntryPriceB  float64   `json:"entry_price_b"`
	EntryFXRate  float64   `json:"entry_fx_rate"`
	EntryLevel   float64   `json:"entry_level"`
	Status       string    `json:"status"`

	// Accounting captured at entry, used for realized P&L on exit.
	EntryCostKRW    float64 `json:"entry_cost_krw"`
	EntryNotional   float64 `json:"entry_notional"`
	EntryCommission float64 `json:"entry_commission"`
	Margin          float64 `json:"margin"`
	Leveraged       bool    `json:"leveraged"`
}

// TradeRecord is one row of the audit trail, append-only. Rejected
// executions are recorded with Success=false and a reason; they do not
// count toward trade totals.
type TradeRecord struct {
	Timestamp     time.Time          `json:"timestamp"`
	Action        string             `json:"action"`
	Amount        float64            `json:"amount"`
	PriceA        float64            `json:"price_a"`
	PriceB        float64            `json:"price_b"`
	DifferencePct float64            `json:"difference_pct"`
	Success       bool               `json:"success"`
	Reason        string             `json:"reason"`
	ProfitLoss    float64            `json:"profit_loss"`
	BalanceAfter  map[string]float64 `json:"balance_after"`
}

// Balances is the multi-currency wallet of one simulation run. Quote is
// the reference currency (USDT), Asset the traded coin. ReservedMargin
// is quote collateral locked by leveraged shorts; it stays inside Quote
// and only reduces the spendable amount.
type Balances struct {
	KRW            float64 `json:"krw"`
	Quote          float64 `json:"quote"`
	Asset          float64 `json:"asset"`
	ReservedMargin float64 `json:"reserved_margin"`
}

// FreeQuote is the quote balance not locked as margin.
func (b Balances) FreeQuote() float64 {
	return b.Quote - b.ReservedMargin
}

// AsMap flattens balances for trade records.
func (b Balances) AsMap() map[string]float64 {
	return map[string]float64{
		common.CURRENCY_KRW:   b.KRW,
		common.CURRENCY_QUOTE: b.Quote,
		common.CURRENCY_ASSET: b.Asset,
	}
}
