package data

import (
	"sync"

	"breakout-algo-trader/internal/model"
)

// TickCollector accumulates ticks for the bar currently forming. The buffer
// is owned, never shared: Drain swaps it out under the lock so resampling
// works on a private slice while new ticks land in a fresh one. Tick
// accumulation and bar construction are therefore mutually exclusive phases.
type TickCollector struct {
	mu    sync.Mutex
	token int64
	buf   []model.Tick
}

func NewTickCollector(instrumentToken int64) *TickCollector {
	return &TickCollector{token: instrumentToken}
}

// Append adds one tick, filtering out instruments we did not subscribe for.
func (tc *TickCollector) Append(t model.Tick) {
	if t.InstrumentToken != tc.token {
		return
	}
	tc.mu.Lock()
	tc.buf = append(tc.buf, t)
	tc.mu.Unlock()
}

// Drain returns the accumulated ticks and resets the buffer.
func (tc *TickCollector) Drain() []model.Tick {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	out := tc.buf
	tc.buf = nil
	return out
}

// Len reports the number of buffered ticks.
func (tc *TickCollector) Len() int {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return len(tc.buf)
}
