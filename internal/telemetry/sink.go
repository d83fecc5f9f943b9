package telemetry

import "breakout-algo-trader/internal/model"

// Sink records trade lifecycle events and delivers human-readable
// notifications. Both calls are best-effort: implementations swallow and log
// their own failures, never propagating them into the trading loop.
type Sink interface {
	Record(event model.Event)
	Notify(message string)
}

// Hub fans a single sink call out to several destinations (journal, telegram,
// metrics) synchronously, in registration order.
type Hub struct {
	sinks []Sink
}

func NewHub(sinks ...Sink) *Hub {
	return &Hub{sinks: sinks}
}

func (h *Hub) Record(event model.Event) {
	for _, s := range h.sinks {
		s.Record(event)
	}
}

func (h *Hub) Notify(message string) {
	for _, s := range h.sinks {
		s.Notify(message)
	}
}
