package risk

import (
	"go.uber.org/zap"
)

// Snapshot is a value copy of the ledger handed to the sizer, so sizing stays
// a pure function of its inputs.
type Snapshot struct {
	Current   float64
	HighWater float64
}

// Ledger tracks trading capital across trades and days. HighWater is the
// trailing equity high used for risk sizing: it only ever increases, so the
// risk budget does not shrink after temporary losses inside a profitable run.
type Ledger struct {
	current   float64
	highWater float64
	logger    *zap.Logger
}

func NewLedger(initialCapital float64, logger *zap.Logger) *Ledger {
	l := &Ledger{
		current:   initialCapital,
		highWater: initialCapital,
		logger:    logger,
	}
	logger.Info("Ledger initialized",
		zap.Float64("capital", l.current),
		zap.Float64("high_water", l.highWater))
	return l
}

// Update sets the current capital and raises the high-water mark when exceeded.
func (l *Ledger) Update(newCapital float64) {
	l.current = newCapital
	if l.current > l.highWater {
		l.highWater = l.current
		l.logger.Info("Capital updated, new trailing high",
			zap.Float64("capital", l.current),
			zap.Float64("high_water", l.highWater))
		return
	}
	l.logger.Info("Capital updated, trailing high unchanged",
		zap.Float64("capital", l.current),
		zap.Float64("high_water", l.highWater))
}

func (l *Ledger) Current() float64 { return l.current }

func (l *Ledger) HighWater() float64 { return l.highWater }

func (l *Ledger) Snapshot() Snapshot {
	return Snapshot{Current: l.current, HighWater: l.highWater}
}
