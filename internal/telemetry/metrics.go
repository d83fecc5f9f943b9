// Prometheus metrics for observability.
//
// Exposed series:
//   - bot_entries_total                count of opened positions
//   - bot_exits_total{reason}          count of exits split by reason
//   - bot_tsl_updates_total            trailing-stop ratchet count
//   - bot_capital                      current capital (gauge)
//   - bot_high_water_capital           trailing equity high (gauge)
//   - bot_daily_r_pnl                  realized daily PnL in R (gauge)
//   - bot_trading_halted               1 when the daily loss breaker tripped
//
// Registered in init() and served by the /metrics handler started in main.
package telemetry

import (
	"breakout-algo-trader/internal/model"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	mtxEntries = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bot_entries_total",
		Help: "Positions opened",
	})

	mtxExits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bot_exits_total",
		Help: "Positions closed, split by exit reason",
	}, []string{"reason"})

	mtxTSLUpdates = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bot_tsl_updates_total",
		Help: "Trailing stop ratchets",
	})

	mtxCapital = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "bot_capital",
		Help: "Current capital",
	})

	mtxHighWater = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "bot_high_water_capital",
		Help: "Trailing equity high used for risk sizing",
	})

	mtxDailyR = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "bot_daily_r_pnl",
		Help: "Realized daily PnL in R multiples",
	})

	mtxHalted = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "bot_trading_halted",
		Help: "1 when the daily drawdown breaker has halted entries",
	})
)

func init() {
	prometheus.MustRegister(mtxEntries, mtxExits, mtxTSLUpdates)
	prometheus.MustRegister(mtxCapital, mtxHighWater, mtxDailyR, mtxHalted)
}

// Metrics is a Sink that projects lifecycle events onto prometheus series.
type Metrics struct{}

func NewMetrics() *Metrics { return &Metrics{} }

func (m *Metrics) Record(event model.Event) {
	switch event.Action {
	case model.ActionEnter:
		mtxEntries.Inc()
	case model.ActionTSLUpdate:
		mtxTSLUpdates.Inc()
	case model.ActionExit:
		mtxExits.WithLabelValues(string(event.Reason)).Inc()
	}
}

func (m *Metrics) Notify(message string) {}

// Gauge setters used by the controller after capital and daily-state changes.

func SetCapital(current, highWater float64) {
	mtxCapital.Set(current)
	mtxHighWater.Set(highWater)
}

func SetDailyR(r float64) { mtxDailyR.Set(r) }

func SetHalted(halted bool) {
	if halted {
		mtxHalted.Set(1)
		return
	}
	mtxHalted.Set(0)
}
