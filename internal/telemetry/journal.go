package telemetry

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"breakout-algo-trader/internal/model"

	"go.uber.org/zap"
)

var journalHeader = []string{
	"timestamp", "action", "price", "quantity", "sl", "target", "pnl", "reason", "risk_r",
}

// Journal appends lifecycle events to a CSV trade log. The header is written
// once when the file is created; rows are appended per event.
type Journal struct {
	mu     sync.Mutex
	path   string
	logger *zap.Logger
}

func NewJournal(path string, logger *zap.Logger) *Journal {
	j := &Journal{path: path, logger: logger.With(zap.String("sink", "journal"))}
	j.initFile()
	return j
}

func (j *Journal) initFile() {
	if _, err := os.Stat(j.path); err == nil {
		return
	}
	f, err := os.Create(j.path)
	if err != nil {
		j.logger.Error("Could not create trade log", zap.Error(err))
		return
	}
	defer f.Close()

	w := csv.NewWriter(f)
	_ = w.Write(journalHeader)
	w.Flush()
	j.logger.Info("Trade log created", zap.String("path", j.path))
}

func (j *Journal) Record(event model.Event) {
	j.mu.Lock()
	defer j.mu.Unlock()

	f, err := os.OpenFile(j.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		j.logger.Error("Could not open trade log", zap.Error(err))
		return
	}
	defer f.Close()

	row := []string{
		event.Timestamp.Format(time.RFC3339),
		string(event.Action),
		formatFloat(event.Price),
		strconv.FormatInt(event.Quantity, 10),
		formatFloat(event.Stop),
		formatFloat(event.Target),
		formatFloat(event.PnL),
		string(event.Reason),
		formatFloat(event.RMultiple),
	}

	w := csv.NewWriter(f)
	if err := w.Write(row); err != nil {
		j.logger.Error("Could not write trade log row", zap.Error(err))
		return
	}
	w.Flush()
	if err := w.Error(); err != nil {
		j.logger.Error("Trade log flush failed", zap.Error(err))
	}
}

// Notify is a no-op; the journal records structured events only.
func (j *Journal) Notify(message string) {}

func formatFloat(v float64) string {
	if v == 0 {
		return ""
	}
	return fmt.Sprintf("%.2f", v)
}
