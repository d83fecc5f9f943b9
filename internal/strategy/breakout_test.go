package strategy

import (
	"testing"
	"time"

	"breakout-algo-trader/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStrategy() *OpeningRangeBreakout {
	return NewOpeningRangeBreakout(9, 15, 15*time.Minute, zap.NewNop())
}

// sessionBar returns a bar labelled n intervals after the session's first
// bar label (09:30 for a 09:15 open on 15m).
func sessionBar(n int, o, h, l, c float64) model.Bar {
	label := time.Date(2024, 9, 16, 9, 30, 0, 0, time.UTC)
	return model.Bar{
		Timestamp: label.Add(time.Duration(n) * 15 * time.Minute),
		Open:      o, High: h, Low: l, Close: c,
	}
}

func TestFirstBarCapturesOpeningRange(t *testing.T) {
	s := newTestStrategy()

	sig := s.ProcessBar(sessionBar(0, 22000, 22080, 21980, 22050))
	assert.Nil(t, sig, "the first bar itself never signals")
	assert.True(t, s.haveFirstBar)
	assert.Equal(t, 22080.0, s.firstBarHigh)
}

func TestCloseAboveFirstBarHighSignalsLong(t *testing.T) {
	s := newTestStrategy()
	s.ProcessBar(sessionBar(0, 22000, 22080, 21980, 22050))

	// Close at the level is not a breakout.
	assert.Nil(t, s.ProcessBar(sessionBar(1, 22050, 22085, 22020, 22080)))

	breakout := sessionBar(2, 22080, 22130, 22040, 22120)
	sig := s.ProcessBar(breakout)
	require.NotNil(t, sig)
	assert.Equal(t, model.SideBuy, sig.Side)
	assert.Equal(t, 22120.0, sig.EntryPrice, "entry at the breakout close")
	assert.Equal(t, 22040.0, sig.StopPrice, "stop at the breakout bar low")
	assert.Equal(t, breakout.Timestamp, sig.Timestamp)
}

func TestWickAboveHighDoesNotSignal(t *testing.T) {
	s := newTestStrategy()
	s.ProcessBar(sessionBar(0, 22000, 22080, 21980, 22050))

	// High pierces the level but the close is back below it.
	assert.Nil(t, s.ProcessBar(sessionBar(1, 22050, 22150, 22020, 22070)))
}

func TestNoSecondSignalWhileTradeActive(t *testing.T) {
	s := newTestStrategy()
	s.ProcessBar(sessionBar(0, 22000, 22080, 21980, 22050))
	require.NotNil(t, s.ProcessBar(sessionBar(1, 22060, 22130, 22040, 22120)))

	assert.Nil(t, s.ProcessBar(sessionBar(2, 22120, 22300, 22100, 22280)),
		"one position at a time")
}

func TestNotifyTradeClosedReArmsSameLevel(t *testing.T) {
	s := newTestStrategy()
	s.ProcessBar(sessionBar(0, 22000, 22080, 21980, 22050))
	require.NotNil(t, s.ProcessBar(sessionBar(1, 22060, 22130, 22040, 22120)))

	s.NotifyTradeClosed()

	sig := s.ProcessBar(sessionBar(3, 22090, 22160, 22070, 22150))
	require.NotNil(t, sig, "same opening range stays in force after a close")
	assert.Equal(t, 22150.0, sig.EntryPrice)
}

func TestResetForNewDayClearsRange(t *testing.T) {
	s := newTestStrategy()
	s.ProcessBar(sessionBar(0, 22000, 22080, 21980, 22050))

	s.ResetForNewDay()
	assert.False(t, s.haveFirstBar)

	// A bar that would have broken out yesterday is now just the new first bar.
	sig := s.ProcessBar(sessionBar(0, 22100, 22200, 22080, 22190))
	assert.Nil(t, sig)
	assert.Equal(t, 22200.0, s.firstBarHigh)
}

func TestBarBeforeSessionOpenResets(t *testing.T) {
	s := newTestStrategy()
	s.ProcessBar(sessionBar(0, 22000, 22080, 21980, 22050))
	require.True(t, s.haveFirstBar)

	pre := model.Bar{
		Timestamp: time.Date(2024, 9, 17, 9, 0, 0, 0, time.UTC),
		Open:      22100, High: 22110, Low: 22090, Close: 22105,
	}
	assert.Nil(t, s.ProcessBar(pre))
	assert.False(t, s.haveFirstBar, "pre-session bar implies a new day")
}

func TestLateStartSkipsOpeningRange(t *testing.T) {
	// Started mid-session: the exact first bar never arrives, so the day
	// yields no range and no signals.
	s := newTestStrategy()

	assert.Nil(t, s.ProcessBar(sessionBar(4, 22000, 22100, 21990, 22090)))
	assert.False(t, s.haveFirstBar)
	assert.Nil(t, s.ProcessBar(sessionBar(5, 22090, 22300, 22080, 22280)))
}

func TestMalformedBarIgnored(t *testing.T) {
	s := newTestStrategy()
	s.ProcessBar(sessionBar(0, 22000, 22080, 21980, 22050))

	bad := sessionBar(1, 22100, 22000, 22200, 22150) // high < low
	assert.Nil(t, s.ProcessBar(bad))
	assert.True(t, s.haveFirstBar, "malformed bars must not disturb state")
}
