package state

import (
	"encoding/json"
	"os"
	"time"

	"breakout-algo-trader/internal/model"

	"go.uber.org/zap"
)

// DailyState mirrors the controller's per-day flags so a restart resumes the
// same day instead of granting a fresh loss budget.
type DailyState struct {
	Day           string  `json:"day"` // YYYY-MM-DD in the session timezone
	RealizedRPnL  float64 `json:"realized_r_pnl"`
	TradingHalted bool    `json:"trading_halted"`
	TSLArmed      bool    `json:"tsl_armed"`
}

// Snapshot is everything needed to resume after a restart without re-entering
// an already-open position.
type Snapshot struct {
	Position *model.Position `json:"position,omitempty"`
	Daily    DailyState      `json:"daily"`
	SavedAt  time.Time       `json:"saved_at"`
}

// Store persists snapshots as a JSON file written atomically.
type Store struct {
	path   string
	logger *zap.Logger
}

func NewStore(path string, logger *zap.Logger) *Store {
	return &Store{path: path, logger: logger.With(zap.String("component", "state"))}
}

// Load returns the persisted snapshot, or nil when none exists.
func (s *Store) Load() (*Snapshot, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Info("No state file found, starting clean")
			return nil, nil
		}
		return nil, err
	}

	var snap Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		s.logger.Error("State file unreadable, starting fresh", zap.Error(err))
		return nil, nil
	}
	s.logger.Info("Loaded state snapshot", zap.String("path", s.path))
	return &snap, nil
}

// Save writes the snapshot atomically (tmp file + fsync + rename).
func (s *Store) Save(snap Snapshot) error {
	snap.SavedAt = time.Now()
	b, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(s.path, b, 0o600)
}

// Clear removes the state file once the position is closed and the day state
// carries nothing worth resuming.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
