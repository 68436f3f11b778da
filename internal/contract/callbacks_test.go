package contract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"kimchi-arb/internal/dto"
	"kimchi-arb/pkg/logger"
)

func TestCallbacks_NilSafe(t *testing.T) {
	var cb *Callbacks

	assert.NotPanics(t, func() {
		cb.EmitProgress(1, 10)
		cb.EmitTrade(dto.TradeRecord{Success: true})
		cb.EmitSnapshot(time.Now(), 100)
	})

	empty := &Callbacks{}
	assert.NotPanics(t, func() {
		empty.EmitProgress(1, 10)
		empty.EmitTrade(dto.TradeRecord{Success: true})
	})
}

func TestCallbacks_PanicIsolated(t *testing.T) {
	cb := &Callbacks{
		Log:        logger.NewNop(),
		OnProgress: func(completed, total int) { panic("boom") },
		OnTrade:    func(action string, amount, price float64, reason string) { panic("boom") },
	}

	assert.NotPanics(t, func() {
		cb.EmitProgress(1, 10)
		cb.EmitTrade(dto.TradeRecord{Success: true, Action: dto.ActionEntry})
	})
}

func TestCallbacks_SkipsRejectedTrades(t *testing.T) {
	var calls int
	cb := &Callbacks{
		OnTrade: func(action string, amount, price float64, reason string) { calls++ },
	}

	cb.EmitTrade(dto.TradeRecord{Success: false, Reason: dto.ReasonCooldownActive})
	assert.Zero(t, calls)

	cb.EmitTrade(dto.TradeRecord{Success: true, Action: dto.ActionExit})
	assert.Equal(t, 1, calls)
}
