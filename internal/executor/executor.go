package executor

import (
	"context"
	"fmt"

	"breakout-algo-trader/internal/model"
)

// Venue is the execution venue contract: a single synchronous call per order,
// no internal retry loop. Retries happen at the controller's pace (next bar),
// never in a tight loop here.
type Venue interface {
	// SubmitMarketOrder places a market order and returns the venue order id.
	SubmitMarketOrder(ctx context.Context, side model.Side, quantity int64) (string, error)

	// FetchAvailableCapital reports the capital usable for trading.
	FetchAvailableCapital(ctx context.Context) (float64, error)
}

// ErrorKind collapses the broker's failure taxonomy to the few cases the
// controller dispatches on.
type ErrorKind string

const (
	KindRejected ErrorKind = "rejected"
	KindNetwork  ErrorKind = "network"
	KindAuth     ErrorKind = "auth"
)

// ExecutionError is the single tagged error surfaced for any venue failure.
type ExecutionError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *ExecutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("execution %s failed (%s): %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("execution %s failed (%s)", e.Op, e.Kind)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

func execErr(kind ErrorKind, op string, err error) *ExecutionError {
	return &ExecutionError{Kind: kind, Op: op, Err: err}
}
