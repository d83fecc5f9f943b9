package model

import "time"

// Tick is the smallest unit of market data (a traded price snapshot).
type Tick struct {
	InstrumentToken int64     // exchange instrument identifier
	Timestamp       time.Time // exchange timestamp
	Price           float64   // last traded price
}

// Bar is one aggregated OHLC candle on the trading timeframe.
// Timestamp labels the right edge of the interval (a 09:15-09:30 bar
// carries 09:30), matching how the feed resamples ticks.
type Bar struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
}

// Valid rejects malformed bars at the boundary instead of letting partial
// payloads propagate into the controller.
func (b Bar) Valid() bool {
	if b.Timestamp.IsZero() {
		return false
	}
	if b.Open <= 0 || b.High <= 0 || b.Low <= 0 || b.Close <= 0 {
		return false
	}
	return b.High >= b.Low
}
