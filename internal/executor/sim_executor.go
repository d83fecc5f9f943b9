package executor

import (
	"context"
	"sync"
	"time"

	"breakout-algo-trader/internal/model"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SimConfig configures the paper venue.
type SimConfig struct {
	InitialCapital float64
}

// Fill is one acknowledged simulated order.
type Fill struct {
	OrderID  string
	Side     model.Side
	Quantity int64
	Price    float64
	Time     time.Time
}

// SimExecutor is the paper venue used by backtests. It fills every market
// order at the last marked price and tracks a cash balance so capital fetches
// stay consistent with the fills it produced.
type SimExecutor struct {
	mu sync.Mutex

	cfg       *SimConfig
	logger    *zap.Logger
	balance   float64
	lastPrice float64
	openQty   int64
	openPrice float64
	fills     []Fill
}

func NewSimExecutor(cfg *SimConfig, logger *zap.Logger) *SimExecutor {
	return &SimExecutor{
		cfg:     cfg,
		logger:  logger.With(zap.String("venue", "sim")),
		balance: cfg.InitialCapital,
	}
}

// MarkPrice sets the price the next order fills at. The backtest driver calls
// this before handing a bar to the controller.
func (e *SimExecutor) MarkPrice(price float64, ts time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastPrice = price
	_ = ts
}

func (e *SimExecutor) SubmitMarketOrder(ctx context.Context, side model.Side, quantity int64) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := uuid.NewString()
	fill := Fill{
		OrderID:  id,
		Side:     side,
		Quantity: quantity,
		Price:    e.lastPrice,
		Time:     time.Now(),
	}
	e.fills = append(e.fills, fill)

	switch side {
	case model.SideBuy:
		e.openQty += quantity
		e.openPrice = e.lastPrice
	case model.SideSell:
		if e.openQty > 0 {
			closed := quantity
			if closed > e.openQty {
				closed = e.openQty
			}
			e.balance += (e.lastPrice - e.openPrice) * float64(closed)
			e.openQty -= closed
		}
	}

	e.logger.Info("Sim order filled",
		zap.String("side", string(side)),
		zap.Int64("quantity", quantity),
		zap.Float64("price", fill.Price),
		zap.String("order_id", id))
	return id, nil
}

func (e *SimExecutor) FetchAvailableCapital(ctx context.Context) (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.balance, nil
}

// Fills returns a copy of the acknowledged orders.
func (e *SimExecutor) Fills() []Fill {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Fill, len(e.fills))
	copy(out, e.fills)
	return out
}
