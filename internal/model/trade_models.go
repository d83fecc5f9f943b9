package model

import (
	"fmt"
	"time"
)

// Side is the transaction side sent to the execution venue.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// ExitReason tags why a position was closed.
type ExitReason string

const (
	ExitStopHit  ExitReason = "SL_HIT"
	ExitGapDown  ExitReason = "GAP_DOWN_EXIT"
	ExitDayClose ExitReason = "DAY_CLOSE"
)

// Action identifies the kind of lifecycle event written to the event sink.
type Action string

const (
	ActionEnter     Action = "ENTER"
	ActionTSLUpdate Action = "TSL_UPDATE"
	ActionExit      Action = "EXIT"
)

// Signal is an entry candidate produced by the signal source.
type Signal struct {
	Side       Side
	EntryPrice float64
	StopPrice  float64
	Timestamp  time.Time
}

func (s Signal) String() string {
	return fmt.Sprintf("SIGNAL [%s] entry=%.2f sl=%.2f @ %s",
		s.Side, s.EntryPrice, s.StopPrice, s.Timestamp.Format(time.RFC3339))
}

// Position is the single active trade. At most one exists system-wide and it
// is owned exclusively by the trade controller.
type Position struct {
	OrderID     string    `json:"order_id"`
	EntryPrice  float64   `json:"entry_price"`
	InitialStop float64   `json:"initial_stop"`
	CurrentStop float64   `json:"current_stop"` // ratchets upward only
	TargetPrice float64   `json:"target_price"`
	Quantity    int64     `json:"quantity"`
	RiskPerUnit float64   `json:"risk_per_unit"` // entry - initial stop, fixed at entry
	OpenedAt    time.Time `json:"opened_at"`
}

// Event is one state transition record handed to the event sink.
// Optional fields are zero when they do not apply to the action.
type Event struct {
	Timestamp time.Time
	Action    Action
	Price     float64
	Quantity  int64
	Stop      float64
	Target    float64
	PnL       float64
	RMultiple float64
	Reason    ExitReason
}

// TradeRecord is one completed round trip, kept for the terminal summary
// in backtests.
type TradeRecord struct {
	EntryTime  time.Time
	ExitTime   time.Time
	EntryPrice float64
	ExitPrice  float64
	Quantity   int64
	PnL        float64
	RMultiple  float64
	Reason     ExitReason
}
