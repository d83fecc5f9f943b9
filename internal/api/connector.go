package api

import (
	"encoding/json"
	"time"

	"breakout-algo-trader/internal/model"
	"breakout-algo-trader/internal/service"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// wsTickFrame is the JSON tick frame the market-data bridge pushes. The
// broker's native binary feed is decoded by the bridge; this process only
// consumes the normalized form.
type wsTickFrame struct {
	InstrumentToken int64   `json:"instrument_token"`
	LastPrice       float64 `json:"last_price"`
	Timestamp       int64   `json:"timestamp"` // milliseconds
}

type wsSubscribeMsg struct {
	Op     string  `json:"op"`
	Tokens []int64 `json:"tokens"`
}

// Connector maintains the websocket tick feed and publishes model.Tick values
// on a buffered channel. Slow consumers drop ticks rather than stall the read
// loop.
type Connector struct {
	wsConn     *websocket.Conn
	wsURL      string
	tokens     []int64
	tickerChan chan model.Tick
}

func NewConnector(wsURL string, tokens []int64) *Connector {
	service.Logger.Info("Connector initialized", zap.Int64s("tokens", tokens))
	return &Connector{
		wsURL:      wsURL,
		tokens:     tokens,
		tickerChan: make(chan model.Tick, 2048),
	}
}

// Start connects, subscribes, and runs the read loop. Connection loss is
// retried with a flat backoff; the subscription is replayed on reconnect.
func (c *Connector) Start() {
	for {
		service.Logger.Info("Connecting to tick feed", zap.String("url", c.wsURL))

		conn, _, err := websocket.DefaultDialer.Dial(c.wsURL, nil)
		if err != nil {
			service.Logger.Error("Failed to connect to tick feed, retrying", zap.Error(err))
			time.Sleep(5 * time.Second)
			continue
		}
		c.wsConn = conn

		sub := wsSubscribeMsg{Op: "subscribe", Tokens: c.tokens}
		if err := c.wsConn.WriteJSON(sub); err != nil {
			service.Logger.Error("Failed to send subscription", zap.Error(err))
			c.wsConn.Close()
			time.Sleep(5 * time.Second)
			continue
		}
		service.Logger.Info("Subscribed to tick stream")

		c.readLoop()
		c.wsConn.Close()
		time.Sleep(5 * time.Second)
	}
}

// readLoop pushes parsed ticks until the connection drops.
func (c *Connector) readLoop() {
	for {
		_, message, err := c.wsConn.ReadMessage()
		if err != nil {
			service.Logger.Error("Tick feed read error, reconnecting", zap.Error(err))
			return
		}

		var frame wsTickFrame
		if err := json.Unmarshal(message, &frame); err != nil {
			continue
		}
		if frame.InstrumentToken == 0 || frame.LastPrice <= 0 {
			continue
		}

		tick := model.Tick{
			InstrumentToken: frame.InstrumentToken,
			Timestamp:       time.UnixMilli(frame.Timestamp),
			Price:           frame.LastPrice,
		}

		select {
		case c.tickerChan <- tick:
		default:
			service.Logger.Warn("Tick channel full, dropping tick",
				zap.Int64("token", frame.InstrumentToken))
		}
	}
}

// TickChannel is consumed by the tick collector.
func (c *Connector) TickChannel() chan model.Tick {
	return c.tickerChan
}
