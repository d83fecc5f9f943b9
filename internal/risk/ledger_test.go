package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestLedgerHighWaterOnlyIncreases(t *testing.T) {
	l := NewLedger(100000, zap.NewNop())

	l.Update(105000) // +5000 trade
	assert.Equal(t, 105000.0, l.Current())
	assert.Equal(t, 105000.0, l.HighWater())

	l.Update(102000) // -3000 trade
	assert.Equal(t, 102000.0, l.Current())
	assert.Equal(t, 105000.0, l.HighWater(), "trailing high must not decrease")

	l.Update(110000)
	assert.Equal(t, 110000.0, l.HighWater())
}

func TestLedgerHighWaterNeverBelowCurrent(t *testing.T) {
	l := NewLedger(50000, zap.NewNop())

	for _, c := range []float64{51000, 48000, 52000, 40000, 60000, 59999} {
		l.Update(c)
		assert.GreaterOrEqual(t, l.HighWater(), l.Current())
	}
}

func TestLedgerSnapshotIsValueCopy(t *testing.T) {
	l := NewLedger(100000, zap.NewNop())
	snap := l.Snapshot()

	l.Update(200000)
	assert.Equal(t, 100000.0, snap.Current)
	assert.Equal(t, 100000.0, snap.HighWater)
}
