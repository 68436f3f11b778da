package contract

import (
	"time"

	"kimchi-arb/internal/dto"
	"kimchi-arb/pkg/logger"
)

// ProgressFunc receives observation progress during a run. completed is
// the number of observations consumed so far out of total.
type ProgressFunc func(completed, total int)

// TradeAlertFunc receives every successful trade as it is recorded.
type TradeAlertFunc func(action string, amount, price float64, reason string)

// SnapshotFunc receives the equity after each processed observation.
type SnapshotFunc func(ts time.Time, equity float64)

// Callbacks bundles the optional hooks a caller can attach to a run.
// Any hook may be nil.
type Callbacks struct {
	Log        *logger.Logger
	OnProgress ProgressFunc
	OnTrade    TradeAlertFunc
	OnSnapshot SnapshotFunc
}

// EmitProgress invokes OnProgress, swallowing panics so a misbehaving
// observer cannot abort the run.
func (c *Callbacks) EmitProgress(completed, total int) {
	if c == nil || c.OnProgress == nil {
		return
	}
	defer c.recoverCallback("progress")
	c.OnProgress(completed, total)
}

func (c *Callbacks) EmitTrade(rec dto.TradeRecord) {
	if c == nil || c.OnTrade == nil || !rec.Success {
		return
	}
	defer c.recoverCallback("trade")
	c.OnTrade(rec.Action, rec.Amount, rec.PriceB, rec.Reason)
}

func (c *Callbacks) EmitSnapshot(ts time.Time, equity float64) {
	if c == nil || c.OnSnapshot == nil {
		return
	}
	defer c.recoverCallback("snapshot")
	c.OnSnapshot(ts, equity)
}

func (c *Callbacks) recoverCallback(name string) {
	r := recover()
	if r == nil {
		return
	}
	if c.Log != nil {
		c.Log.Warn("callback panicked",
			logger.StringField("callback", name),
			logger.Field("panic", r))
	}
}
