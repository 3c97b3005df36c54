package sim

import (
	"fmt"
	"math"

	"github.com/rustyeddy/perpbt/market"
)

// DualRun is the lock-step trajectory of a delta-neutral pair.
type DualRun struct {
	Long     []LegState
	Short    []LegState
	FinalPnL []float64 // Long[i].RealizedPnL + Short[i].RealizedPnL
}

// Len returns the number of bars in the run.
func (r DualRun) Len() int {
	return len(r.FinalPnL)
}

// RunDualLeg advances a long leg over long and a short leg over short, one
// bar at a time. The two sequences must cover the same timestamps and share
// a price series; see market.PairLegs.
//
// Bar 0 splits InitialCollateral evenly. Bar 1 opens both positions. On
// later bars, if either leg was stopped out on the previous bar, both legs
// are reopened after moving capital from the stronger leg to the weaker so
// that their margins match; otherwise both accrue PnL and funding.
func RunDualLeg(long, short []market.Bar, cfg DualConfig) (DualRun, error) {
	if err := cfg.Validate(); err != nil {
		return DualRun{}, err
	}
	if len(long) != len(short) {
		return DualRun{}, fmt.Errorf("%w: %d long bars, %d short bars", ErrLegMismatch, len(long), len(short))
	}
	for i := range long {
		if long[i].Timestamp != short[i].Timestamp {
			return DualRun{}, fmt.Errorf("%w: bar %d at %d vs %d", ErrLegMismatch, i, long[i].Timestamp, short[i].Timestamp)
		}
	}

	n := len(long)
	run := DualRun{
		Long:     make([]LegState, n),
		Short:    make([]LegState, n),
		FinalPnL: make([]float64, n),
	}

	for i := 0; i < n; i++ {
		switch {
		case i == 0:
			run.Long[0] = dualInit(long[0], cfg, Long)
			run.Short[0] = dualInit(short[0], cfg, Short)

		case i == 1:
			run.Long[1] = tradeStep(run.Long[0], long[1], cfg, 0)
			run.Short[1] = tradeStep(run.Short[0], short[1], cfg, 0)

		default:
			pl, ps := run.Long[i-1], run.Short[i-1]
			if pl.IsStoppedOut || ps.IsStoppedOut {
				avg := (pl.Margin + ps.Margin) / 2
				run.Long[i] = tradeStep(pl, long[i], cfg, avg-pl.Margin)
				run.Short[i] = tradeStep(ps, short[i], cfg, avg-ps.Margin)
			} else {
				run.Long[i] = accrueStep(pl, long[i], cfg)
				run.Short[i] = accrueStep(ps, short[i], cfg)
			}
		}
		run.FinalPnL[i] = run.Long[i].RealizedPnL + run.Short[i].RealizedPnL
	}
	return run, nil
}

func dualInit(b market.Bar, cfg DualConfig, dir Side) LegState {
	c := cfg.InitialCollateral / 2
	return LegState{
		Kind:       Init,
		Timestamp:  b.Timestamp,
		Price:      b.Close,
		Rate:       b.FundingRate,
		Collateral: c,
		Leverage:   cfg.Leverage,
		Direction:  dir,
		Margin:     c,
		Equity:     c,
	}
}

// tradeStep closes whatever prev held, applies injection, pays the fee on
// the new notional and reopens at the bar close.
func tradeStep(prev LegState, b market.Bar, cfg DualConfig, injection float64) LegState {
	newCollateral := prev.Collateral + prev.ChangePnL + prev.FundingAccrued + injection
	fee := newCollateral * cfg.Leverage * cfg.FeeRate

	s := LegState{
		Kind:       Trade,
		Timestamp:  b.Timestamp,
		Price:      b.Close,
		Rate:       b.FundingRate,
		Collateral: math.Max(newCollateral-fee, 0),
		Leverage:   prev.Leverage,
		Direction:  prev.Direction,
		EntryPrice: b.Close,
		FeeCharged: -fee,
		Injection:  injection,
		Equity:     prev.Equity + injection,
	}
	s.PositionSize = safeDiv(s.Collateral*prev.Leverage*float64(s.Direction), b.Close)
	s.Margin = s.Collateral
	s.StopLossThreshold = threshold(s.Collateral, cfg.Leverage, cfg.StopLossMarginRatio)
	s.IsStoppedOut = s.Margin < s.StopLossThreshold
	s.RealizedPnL = s.Margin - s.Equity
	return s
}

// accrueStep marks the open position to the bar close and accrues funding.
// PositionSize is signed, so a positive rate costs the long and pays the
// short.
func accrueStep(prev LegState, b market.Bar, cfg DualConfig) LegState {
	s := LegState{
		Kind:         Accrue,
		Timestamp:    b.Timestamp,
		Price:        b.Close,
		Rate:         b.FundingRate,
		Collateral:   prev.Collateral,
		Leverage:     prev.Leverage,
		Direction:    prev.Direction,
		EntryPrice:   prev.EntryPrice,
		PositionSize: prev.PositionSize,
		Equity:       prev.Equity,
	}
	s.Change = b.Close - s.EntryPrice
	s.ChangePnL = s.Change * s.PositionSize
	s.Funding = -b.FundingRate * s.PositionSize * b.Close
	s.FundingAccrued = prev.FundingAccrued + s.Funding
	s.Margin = s.Collateral + s.ChangePnL + s.FundingAccrued
	s.StopLossThreshold = threshold(s.Collateral, cfg.Leverage, cfg.StopLossMarginRatio)
	s.IsStoppedOut = s.Margin < s.StopLossThreshold
	s.RealizedPnL = s.Margin - s.Equity
	return s
}
