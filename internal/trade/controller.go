package trade

import (
	"context"
	"fmt"
	"time"

	"breakout-algo-trader/internal/executor"
	"breakout-algo-trader/internal/model"
	"breakout-algo-trader/internal/risk"
	"breakout-algo-trader/internal/state"
	"breakout-algo-trader/internal/strategy"
	"breakout-algo-trader/internal/telemetry"

	"go.uber.org/zap"
)

// Config holds the controller's lifecycle parameters.
type Config struct {
	RewardMultiple    float64 // target distance in R, e.g. 5
	MaxDailyDrawdownR float64 // negative R floor that halts entries, e.g. -2.5
}

// Controller owns the single active position and drives its full lifecycle:
// entry on a signal, per-bar stop/target/trailing management, exit, and the
// daily loss circuit breaker. All methods run on one goroutine; bars are fully
// resolved before the next one is considered.
type Controller struct {
	venue  executor.Venue
	ledger *risk.Ledger
	sizer  *risk.Sizer
	source strategy.Source
	sink   telemetry.Sink
	store  *state.Store // nil disables crash-recovery snapshots
	cfg    Config
	logger *zap.Logger

	position  *model.Position
	tslArmed  bool
	realizedR float64
	halted    bool

	closed []model.TradeRecord
}

func NewController(
	venue executor.Venue,
	ledger *risk.Ledger,
	sizer *risk.Sizer,
	source strategy.Source,
	sink telemetry.Sink,
	store *state.Store,
	cfg Config,
	logger *zap.Logger,
) *Controller {
	c := &Controller{
		venue:  venue,
		ledger: ledger,
		sizer:  sizer,
		source: source,
		sink:   sink,
		store:  store,
		cfg:    cfg,
		logger: logger.With(zap.String("component", "trade_controller")),
	}
	c.DayReset()
	return c
}

// OnBar processes one completed bar: manage the active position first, then
// look for a new entry only while flat and not halted. A panic inside one
// bar's processing is recovered so the loop continues with the next bar.
func (c *Controller) OnBar(ctx context.Context, bar model.Bar) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Recovered from panic while processing bar",
				zap.Any("panic", r), zap.Time("bar", bar.Timestamp))
		}
	}()

	if !bar.Valid() {
		c.logger.Warn("Dropping malformed bar", zap.Time("ts", bar.Timestamp))
		return
	}

	c.Manage(ctx, bar)

	if c.position == nil && !c.halted {
		if sig := c.source.ProcessBar(bar); sig != nil {
			c.Enter(ctx, *sig)
		}
	}
}

// Enter opens a new long position from a signal. Failures here are non-fatal:
// the opportunity is dropped, the signal source resets, and the controller
// stays flat.
func (c *Controller) Enter(ctx context.Context, sig model.Signal) {
	if c.position != nil {
		c.logger.Warn("Cannot enter a new trade, another is active")
		return
	}
	if c.halted {
		c.logger.Warn("Cannot enter new trade, daily loss limit reached",
			zap.Float64("limit_r", c.cfg.MaxDailyDrawdownR))
		return
	}
	if sig.Side != model.SideBuy {
		c.logger.Warn("Ignoring non-long signal", zap.String("side", string(sig.Side)))
		c.source.NotifyTradeClosed()
		return
	}

	quantity := c.sizer.Quantity(sig.EntryPrice, sig.StopPrice, c.ledger.Snapshot())
	if quantity == 0 {
		c.logger.Warn("Calculated quantity is 0, skipping trade")
		c.source.NotifyTradeClosed()
		return
	}

	orderID, err := c.venue.SubmitMarketOrder(ctx, model.SideBuy, quantity)
	if err != nil {
		c.logger.Error("Failed to place entry order", zap.Error(err))
		c.sink.Notify(fmt.Sprintf("ALERT: Failed to place entry order: %v", err))
		c.source.NotifyTradeClosed()
		return
	}
	c.logger.Info("Entry order placed", zap.String("order_id", orderID))

	riskPerUnit := sig.EntryPrice - sig.StopPrice
	targetPrice := sig.EntryPrice + riskPerUnit*c.cfg.RewardMultiple

	c.position = &model.Position{
		OrderID:     orderID,
		EntryPrice:  sig.EntryPrice,
		InitialStop: sig.StopPrice,
		CurrentStop: sig.StopPrice,
		TargetPrice: targetPrice,
		Quantity:    quantity,
		RiskPerUnit: riskPerUnit,
		OpenedAt:    sig.Timestamp,
	}
	c.tslArmed = false

	c.sink.Record(model.Event{
		Timestamp: sig.Timestamp,
		Action:    model.ActionEnter,
		Price:     sig.EntryPrice,
		Quantity:  quantity,
		Stop:      sig.StopPrice,
		Target:    targetPrice,
	})
	c.sink.Notify(fmt.Sprintf(
		"--- NEW TRADE INITIATED ---\nEntry: %.2f\nSL: %.2f\nTarget (%.0fR): %.2f\nQuantity: %d",
		sig.EntryPrice, sig.StopPrice, c.cfg.RewardMultiple, targetPrice, quantity))

	c.persist()
}

// Manage evaluates the active position against one bar, in strict order:
// stop hit first (exit at the stop, worst-case fill), then trailing-stop
// arming at the target, then the ratchet. A stop-hit exit takes precedence
// over arming or ratcheting in the same bar.
func (c *Controller) Manage(ctx context.Context, bar model.Bar) {
	if c.position == nil {
		return
	}

	// 1. Stop hit.
	if bar.Low <= c.position.CurrentStop {
		c.exitTrade(ctx, bar.Timestamp, c.position.CurrentStop, model.ExitStopHit)
		return
	}

	// 2. Target touched: arm the trailing stop, do not close.
	if !c.tslArmed && bar.High >= c.position.TargetPrice {
		c.tslArmed = true
		msg := fmt.Sprintf(
			"--- %.0fR TARGET HIT ---\nTrade is now in trailing SL mode. Target was %.2f",
			c.cfg.RewardMultiple, c.position.TargetPrice)
		c.logger.Info("Trailing stop armed", zap.Float64("target", c.position.TargetPrice))
		c.sink.Notify(msg)
		c.persist()
	}

	// 3. Ratchet: the stop trails the bar low and never decreases.
	if c.tslArmed && bar.Low > c.position.CurrentStop {
		c.position.CurrentStop = bar.Low
		c.logger.Info("Trailing stop updated", zap.Float64("new_sl", bar.Low))
		c.sink.Record(model.Event{
			Timestamp: bar.Timestamp,
			Action:    model.ActionTSLUpdate,
			Price:     bar.Low,
		})
		c.sink.Notify(fmt.Sprintf("--- TSL UPDATED ---\nNew SL is %.2f", bar.Low))
		c.persist()
	}
}

// HandleGapOpen runs once at the first bar of a new session. An open below
// the stop exits at the opening price, not the stop: a stop order cannot get
// a better fill than the open after an overnight gap through it.
func (c *Controller) HandleGapOpen(ctx context.Context, openPrice float64, ts time.Time) {
	if c.position == nil {
		return
	}
	if openPrice < c.position.CurrentStop {
		c.logger.Warn("Gap-down detected, market open below SL",
			zap.Float64("open", openPrice),
			zap.Float64("sl", c.position.CurrentStop))
		c.exitTrade(ctx, ts, openPrice, model.ExitGapDown)
	}
}

// exitTrade closes the full position. An acknowledgment failure deliberately
// leaves the position in place and fires a critical alert; the next bar
// re-evaluates the same exit condition. Losing track of an open market
// position is the worst failure mode, so here retry-until-success is correct.
func (c *Controller) exitTrade(ctx context.Context, ts time.Time, exitPrice float64, reason model.ExitReason) bool {
	if c.position == nil {
		return false
	}

	orderID, err := c.venue.SubmitMarketOrder(ctx, model.SideSell, c.position.Quantity)
	if err != nil {
		c.logger.Error("CRITICAL: failed to place exit order", zap.Error(err),
			zap.String("reason", string(reason)))
		c.sink.Notify(fmt.Sprintf(
			"CRITICAL ALERT: FAILED TO EXIT TRADE! REASON: %v. MANUAL INTERVENTION REQUIRED.", err))
		return false
	}
	c.logger.Info("Exit order placed",
		zap.String("order_id", orderID), zap.String("reason", string(reason)))

	pos := c.position
	pnl := (exitPrice - pos.EntryPrice) * float64(pos.Quantity)
	rMultiple := pnl / (pos.RiskPerUnit * float64(pos.Quantity))
	c.realizedR += rMultiple

	c.ledger.Update(c.ledger.Current() + pnl)
	telemetry.SetCapital(c.ledger.Current(), c.ledger.HighWater())
	telemetry.SetDailyR(c.realizedR)

	c.sink.Record(model.Event{
		Timestamp: ts,
		Action:    model.ActionExit,
		Price:     exitPrice,
		Quantity:  pos.Quantity,
		PnL:       pnl,
		Reason:    reason,
		RMultiple: rMultiple,
	})
	c.sink.Notify(fmt.Sprintf(
		"--- TRADE EXITED (%s) ---\nExit Price: %.2f\nPnL: %.2f (%.2fR)\nDaily PnL: %.2fR",
		reason, exitPrice, pnl, rMultiple, c.realizedR))

	c.closed = append(c.closed, model.TradeRecord{
		EntryTime:  pos.OpenedAt,
		ExitTime:   ts,
		EntryPrice: pos.EntryPrice,
		ExitPrice:  exitPrice,
		Quantity:   pos.Quantity,
		PnL:        pnl,
		RMultiple:  rMultiple,
		Reason:     reason,
	})

	c.position = nil
	c.tslArmed = false
	c.source.NotifyTradeClosed()

	if c.realizedR <= c.cfg.MaxDailyDrawdownR {
		c.halted = true
		telemetry.SetHalted(true)
		msg := fmt.Sprintf(
			"--- TRADING STOPPED ---\nDaily loss limit of %.1fR reached. No new trades will be taken today.",
			c.cfg.MaxDailyDrawdownR)
		c.logger.Warn("Daily drawdown floor breached",
			zap.Float64("realized_r", c.realizedR))
		c.sink.Notify(msg)
	}

	c.persist()
	return true
}

// DayReset clears the position and all daily flags. Only safe to call at a
// session boundary when no position should be open.
func (c *Controller) DayReset() {
	c.position = nil
	c.tslArmed = false
	c.realizedR = 0
	c.halted = false
	telemetry.SetDailyR(0)
	telemetry.SetHalted(false)
	if c.store != nil {
		if err := c.store.Clear(); err != nil {
			c.logger.Warn("Could not clear state snapshot", zap.Error(err))
		}
	}
	c.logger.Info("Controller state reset for the new day")
}

// RestoreSnapshot resumes a previously persisted position and day state.
func (c *Controller) RestoreSnapshot(snap *state.Snapshot) {
	if snap == nil {
		return
	}
	c.position = snap.Position
	c.tslArmed = snap.Daily.TSLArmed
	c.realizedR = snap.Daily.RealizedRPnL
	c.halted = snap.Daily.TradingHalted
	telemetry.SetDailyR(c.realizedR)
	telemetry.SetHalted(c.halted)
	if c.position != nil {
		c.logger.Info("Resumed open position from snapshot",
			zap.Float64("entry", c.position.EntryPrice),
			zap.Float64("current_sl", c.position.CurrentStop),
			zap.Int64("quantity", c.position.Quantity))
	}
}

func (c *Controller) persist() {
	if c.store == nil {
		return
	}
	snap := state.Snapshot{
		Position: c.position,
		Daily: state.DailyState{
			Day:           time.Now().Format("2006-01-02"),
			RealizedRPnL:  c.realizedR,
			TradingHalted: c.halted,
			TSLArmed:      c.tslArmed,
		},
	}
	if err := c.store.Save(snap); err != nil {
		c.logger.Warn("Could not persist state snapshot", zap.Error(err))
	}
}

// Active reports whether a position is currently open.
func (c *Controller) Active() bool { return c.position != nil }

// Halted reports whether the daily loss breaker has tripped.
func (c *Controller) Halted() bool { return c.halted }

// RealizedR returns the day's accumulated PnL in R multiples.
func (c *Controller) RealizedR() float64 { return c.realizedR }

// Position returns a copy of the active position, or nil when flat.
func (c *Controller) Position() *model.Position {
	if c.position == nil {
		return nil
	}
	p := *c.position
	return &p
}

// ClosedTrades returns the completed round trips since startup.
func (c *Controller) ClosedTrades() []model.TradeRecord {
	out := make([]model.TradeRecord, len(c.closed))
	copy(out, c.closed)
	return out
}

// TrailingArmed reports whether the trailing stop is active on the open position.
func (c *Controller) TrailingArmed() bool { return c.tslArmed }
