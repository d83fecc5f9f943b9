package risk

import (
	"math"

	"go.uber.org/zap"
)

// Sizer converts an entry/stop pair and a capital snapshot into a lot-aligned
// quantity. Two independent ceilings apply: the risk budget is a fraction of
// high-water capital (rewards past profit), the allocation cap is a fraction
// of current capital (reflects present solvency).
type Sizer struct {
	RiskPerTradePct  float64 // e.g. 0.02 for 2%
	MaxAllocationPct float64 // e.g. 0.50 for 50%
	LotSize          int64

	logger *zap.Logger
}

func NewSizer(riskPct, maxAllocPct float64, lotSize int64, logger *zap.Logger) *Sizer {
	return &Sizer{
		RiskPerTradePct:  riskPct,
		MaxAllocationPct: maxAllocPct,
		LotSize:          lotSize,
		logger:           logger,
	}
}

// Quantity returns the tradable quantity for a long entry, floored to the lot
// size. An invalid price relationship or a sub-lot result yields 0.
func (s *Sizer) Quantity(entryPrice, stopPrice float64, snap Snapshot) int64 {
	if s.LotSize <= 0 {
		return 0
	}
	if entryPrice <= stopPrice {
		s.logger.Error("Entry price must exceed stop price for a long trade",
			zap.Float64("entry", entryPrice), zap.Float64("stop", stopPrice))
		return 0
	}

	riskBudget := snap.HighWater * s.RiskPerTradePct

	perUnitRisk := entryPrice - stopPrice
	if perUnitRisk <= 0 {
		return 0
	}

	qtyByRisk := riskBudget / perUnitRisk
	qtyByCapital := (snap.Current * s.MaxAllocationPct) / entryPrice

	rawQty := math.Min(qtyByRisk, qtyByCapital)
	lots := math.Floor(rawQty / float64(s.LotSize))
	quantity := int64(lots) * s.LotSize

	s.logger.Info("Quantity calculation",
		zap.Float64("capital_for_risk", snap.HighWater),
		zap.Float64("risk_budget", riskBudget),
		zap.Float64("per_unit_risk", perUnitRisk),
		zap.Float64("qty_by_risk", qtyByRisk),
		zap.Float64("qty_by_capital", qtyByCapital),
		zap.Int64("lot_size", s.LotSize),
		zap.Int64("quantity", quantity))

	return quantity
}
