package strategy

import (
	"time"

	"breakout-algo-trader/internal/model"

	"go.uber.org/zap"
)

// Source is the signal source contract the trade controller consumes.
// Implementations are driven from the controller's single goroutine.
type Source interface {
	// ProcessBar inspects one completed bar and returns an entry candidate,
	// or nil when there is nothing to do.
	ProcessBar(bar model.Bar) *model.Signal

	// NotifyTradeClosed tells the source its last signal's trade is done,
	// so it may look for the next one.
	NotifyTradeClosed()

	// ResetForNewDay clears all session state at the day boundary.
	ResetForNewDay()
}

// OpeningRangeBreakout emits a long signal when a bar closes above the high
// of the first completed bar of the session. No indicators are involved; the
// opening range alone defines the breakout level.
type OpeningRangeBreakout struct {
	sessionOpenHour   int
	sessionOpenMinute int
	interval          time.Duration

	firstBarHigh float64
	haveFirstBar bool
	tradeActive  bool

	logger *zap.Logger
}

func NewOpeningRangeBreakout(openHour, openMinute int, interval time.Duration, logger *zap.Logger) *OpeningRangeBreakout {
	s := &OpeningRangeBreakout{
		sessionOpenHour:   openHour,
		sessionOpenMinute: openMinute,
		interval:          interval,
		logger:            logger.With(zap.String("strategy", "opening_range_breakout")),
	}
	s.ResetForNewDay()
	return s
}

// firstBarLabel is the right-edge timestamp of the session's first bar,
// e.g. 09:30 for a 09:15 open on a 15m timeframe.
func (s *OpeningRangeBreakout) firstBarLabel(day time.Time) time.Time {
	open := time.Date(day.Year(), day.Month(), day.Day(),
		s.sessionOpenHour, s.sessionOpenMinute, 0, 0, day.Location())
	return open.Add(s.interval)
}

func (s *OpeningRangeBreakout) ProcessBar(bar model.Bar) *model.Signal {
	if !bar.Valid() {
		s.logger.Warn("Dropping malformed bar", zap.Time("ts", bar.Timestamp))
		return nil
	}

	firstLabel := s.firstBarLabel(bar.Timestamp)

	// Pre-session bars mean the clock rolled over without an explicit reset.
	if bar.Timestamp.Before(firstLabel) {
		s.ResetForNewDay()
		return nil
	}

	// 1. Capture the opening range from the first completed session bar.
	if !s.haveFirstBar {
		if bar.Timestamp.Equal(firstLabel) {
			s.firstBarHigh = bar.High
			s.haveFirstBar = true
			s.logger.Info("First session bar captured",
				zap.Float64("high", s.firstBarHigh),
				zap.Time("ts", bar.Timestamp))
		}
		// Bars between reset and the official first bar are ignored.
		return nil
	}

	// 2. Breakout check while flat.
	if s.tradeActive {
		return nil
	}
	if bar.Close > s.firstBarHigh {
		s.logger.Info("Breakout detected",
			zap.Float64("close", bar.Close),
			zap.Float64("first_bar_high", s.firstBarHigh),
			zap.Time("ts", bar.Timestamp))

		s.tradeActive = true
		return &model.Signal{
			Side:       model.SideBuy,
			EntryPrice: bar.Close,
			StopPrice:  bar.Low,
			Timestamp:  bar.Timestamp,
		}
	}

	return nil
}

func (s *OpeningRangeBreakout) NotifyTradeClosed() {
	s.tradeActive = false
	s.logger.Info("Trade closed, watching for the next breakout")
}

func (s *OpeningRangeBreakout) ResetForNewDay() {
	s.firstBarHigh = 0
	s.haveFirstBar = false
	s.tradeActive = false
}
