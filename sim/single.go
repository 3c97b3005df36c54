package sim

import (
	"math"

	"github.com/rustyeddy/perpbt/market"
)

// RunSingleLeg folds one leveraged position over bars and returns one
// LegState per bar.
//
// Bar 0 opens the position with unit collateral and books the opening fee.
// Each later bar first settles the previous bar's fee (and, if a position
// was opened there, its funding) into collateral. Zero collateral is
// terminal: the bar and every bar after it are Liquidated with a realized
// PnL of -1. Otherwise the position accrues funding, any price move from
// entry counts as a loss, and a bar whose margin falls below the
// maintenance or stop-loss threshold books a closing fee so the next bar
// reopens at its close.
func RunSingleLeg(bars []market.Bar, cfg SingleConfig) ([]LegState, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	out := make([]LegState, len(bars))
	for i, b := range bars {
		if i == 0 {
			out[0] = singleInit(b, cfg)
			continue
		}
		out[i] = singleStep(out[i-1], b, cfg)
	}
	return out, nil
}

func singleInit(b market.Bar, cfg SingleConfig) LegState {
	return LegState{
		Kind:                 Init,
		Timestamp:            b.Timestamp,
		Price:                b.Close,
		Rate:                 b.FundingRate,
		Collateral:           1,
		Leverage:             cfg.Leverage,
		MaintenanceThreshold: threshold(1, cfg.Leverage, cfg.MaintenanceMarginRatio),
		StopLossThreshold:    threshold(1, cfg.Leverage, cfg.StopLossMarginRatio),
		FeeCharged:           -cfg.FeeRate * cfg.Leverage,
		Equity:               1,
	}
}

func singleStep(prev LegState, b market.Bar, cfg SingleConfig) LegState {
	// A position was opened on prev: either the initial one or the
	// reopening after a threshold breach.
	traded := prev.Kind == Init || prev.closing()

	newCollateral := prev.Collateral + prev.FeeCharged
	if traded {
		newCollateral += prev.FundingAccrued
	}

	s := LegState{
		Timestamp: b.Timestamp,
		Price:     b.Close,
		Rate:      b.FundingRate,
		Leverage:  cfg.Leverage,
	}

	if newCollateral == 0 {
		s.Kind = Liquidated
		s.RealizedPnL = -1
		return s
	}

	s.Kind = Accrue
	s.Equity = 1
	s.EntryPrice = prev.EntryPrice
	if traded {
		s.Kind = Trade
		s.EntryPrice = b.Close
	}

	s.Collateral = math.Max(newCollateral, 0)
	s.PositionSize = b.Close * s.Collateral * cfg.Leverage
	s.Change = safeDiv(b.Close-s.EntryPrice, s.EntryPrice)
	// Either side may be the one closed at the stop, so any move counts
	// against the position.
	s.ChangePnL = -abs(s.Change * cfg.Leverage)
	s.Funding = (s.Collateral - s.Change/2) * b.FundingRate * cfg.Leverage / 2

	s.FundingAccrued = s.Funding
	if !traded {
		s.FundingAccrued += prev.FundingAccrued
	}

	s.Margin = safeDiv(s.Collateral+s.ChangePnL+s.FundingAccrued, s.Collateral)
	s.MaintenanceThreshold = threshold(s.Collateral, cfg.Leverage, cfg.MaintenanceMarginRatio)
	s.StopLossThreshold = threshold(s.Collateral, cfg.Leverage, cfg.StopLossMarginRatio)
	s.IsLiquidated = s.Margin < s.MaintenanceThreshold
	s.IsStoppedOut = s.Margin < s.StopLossThreshold

	if s.closing() {
		s.FeeCharged = -cfg.FeeRate * cfg.Leverage
	}
	s.RealizedPnL = s.Collateral - 1 + s.FundingAccrued
	return s
}
