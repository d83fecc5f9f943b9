package data

import (
	"time"

	"breakout-algo-trader/internal/model"
)

// BuildBar resamples one interval's ticks into a single OHLC bar labelled at
// the interval's right edge. Returns false when there is nothing to build.
func BuildBar(ticks []model.Tick, label time.Time) (model.Bar, bool) {
	if len(ticks) == 0 {
		return model.Bar{}, false
	}

	bar := model.Bar{
		Timestamp: label,
		Open:      ticks[0].Price,
		High:      ticks[0].Price,
		Low:       ticks[0].Price,
		Close:     ticks[len(ticks)-1].Price,
	}
	for _, t := range ticks[1:] {
		if t.Price > bar.High {
			bar.High = t.Price
		}
		if t.Price < bar.Low {
			bar.Low = t.Price
		}
	}

	if !bar.Valid() {
		return model.Bar{}, false
	}
	return bar, true
}
