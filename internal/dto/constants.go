package dto

const (
	ActionEntry = "ENTRY"
	ActionExit  = "EXIT"
	ActionHold  = "HOLD"
)

const (
	StrategyThreshold  = "threshold"
	StrategyAsymmetric = "asymmetric"
	StrategyScaled     = "scaled"
	StrategyTrend      = "trend"
)

const (
	PairUSDT = "usdt"
	PairBTC  = "btc"
)

const (
	TimeframeDaily  = "1d"
	TimeframeHourly = "1h"
)

const (
	TrendStrongUptrend   = "strong_uptrend"
	TrendUptrend         = "uptrend"
	TrendNeutral         = "neutral"
	TrendDowntrend       = "downtrend"
	TrendStrongDowntrend = "strong_downtrend"
	TrendUnknown         = "unknown"
)

// Rejection reasons returned by the trade executor. These are expected
// conditions, not errors.
const (
	ReasonDailyLimitExceeded  = "daily trade limit exceeded"
	ReasonCooldownActive      = "cooldown active"
	ReasonInsufficientBalance = "insufficient balance"
	ReasonMaxPositionsReached = "max open positions reached"
	ReasonLevelAlreadyUsed    = "entry level already used"
)

// Exit reasons recorded on closing trades.
const (
	ExitReasonPremium    = "premium"
	ExitReasonStopLoss   = "stop_loss"
	ExitReasonTakeProfit = "take_profit"
	ExitReasonMACross    = "ma_cross"
)

const (
	PositionStatusOpen   = "open"
	PositionStatusClosed = "closed"
)
