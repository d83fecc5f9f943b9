package executor

import (
	"context"
	"testing"
	"time"

	"breakout-algo-trader/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestSim() *SimExecutor {
	return NewSimExecutor(&SimConfig{InitialCapital: 1_000_000}, zap.NewNop())
}

func TestSimFillsAtMarkedPrice(t *testing.T) {
	e := newTestSim()
	ctx := context.Background()
	now := time.Now()

	e.MarkPrice(22000, now)
	id, err := e.SubmitMarketOrder(ctx, model.SideBuy, 200)
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	assert.NoError(t, err, "order ids are uuids")

	fills := e.Fills()
	require.Len(t, fills, 1)
	assert.Equal(t, 22000.0, fills[0].Price)
	assert.Equal(t, model.SideBuy, fills[0].Side)
	assert.Equal(t, int64(200), fills[0].Quantity)
}

func TestSimRoundTripRealizesPnL(t *testing.T) {
	e := newTestSim()
	ctx := context.Background()
	now := time.Now()

	e.MarkPrice(22000, now)
	_, err := e.SubmitMarketOrder(ctx, model.SideBuy, 200)
	require.NoError(t, err)

	// Balance moves only when the position is closed.
	cap1, err := e.FetchAvailableCapital(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1_000_000.0, cap1)

	e.MarkPrice(22100, now.Add(15*time.Minute))
	_, err = e.SubmitMarketOrder(ctx, model.SideSell, 200)
	require.NoError(t, err)

	cap2, err := e.FetchAvailableCapital(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1_020_000.0, cap2, "(22100-22000) * 200")
}

func TestSimLosingRoundTrip(t *testing.T) {
	e := newTestSim()
	ctx := context.Background()
	now := time.Now()

	e.MarkPrice(22000, now)
	_, _ = e.SubmitMarketOrder(ctx, model.SideBuy, 200)
	e.MarkPrice(21950, now.Add(15*time.Minute))
	_, _ = e.SubmitMarketOrder(ctx, model.SideSell, 200)

	balance, err := e.FetchAvailableCapital(ctx)
	require.NoError(t, err)
	assert.Equal(t, 990_000.0, balance)
}

func TestSimOrderIDsUnique(t *testing.T) {
	e := newTestSim()
	ctx := context.Background()
	e.MarkPrice(100, time.Now())

	seen := map[string]bool{}
	for i := 0; i < 10; i++ {
		id, err := e.SubmitMarketOrder(ctx, model.SideBuy, 50)
		require.NoError(t, err)
		assert.False(t, seen[id])
		seen[id] = true
	}
}
