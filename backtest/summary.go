package backtest

import (
	"errors"
	"time"

	"github.com/rustyeddy/perpbt/market"
	"github.com/rustyeddy/perpbt/sim"
)

// Summary condenses a PnL trajectory into the numbers reported for a run.
type Summary struct {
	Bars        int
	Start       time.Time
	End         time.Time
	FinalPnL    float64
	MaxDrawdown float64
	Sharpe      float64
	SharpeOK    bool // false when the Sharpe ratio is not computable
	Trades      int
	Stops       int
	Fees        float64
	Liquidated  bool
	HoldPnL     float64
}

// Summarize computes the metrics of a PnL series.
func Summarize(pnl []float64, riskFree float64) (Summary, error) {
	s := Summary{
		Bars:        len(pnl),
		MaxDrawdown: MaxDrawdown(pnl),
	}
	if len(pnl) > 0 {
		s.FinalPnL = pnl[len(pnl)-1]
	}

	sharpe, err := SharpeRatio(pnl, riskFree)
	switch {
	case err == nil:
		s.Sharpe = sharpe
		s.SharpeOK = true
	case errors.Is(err, ErrNotComputable):
	default:
		return Summary{}, err
	}
	return s, nil
}

// SummarizeSingle summarizes a single-leg run over bars.
func SummarizeSingle(bars []market.Bar, states []sim.LegState, riskFree float64) (Summary, error) {
	s, err := Summarize(sim.RealizedPnL(states), riskFree)
	if err != nil {
		return Summary{}, err
	}
	s.Trades = sim.CountTrades(states)
	s.Stops = sim.CountStops(states)
	s.Fees = sim.TotalFees(states)
	s.Liquidated = sim.LiquidatedAt(states) >= 0
	fillPeriod(&s, bars)
	return s, nil
}

// SummarizeDual summarizes a delta-neutral run. Bars are the long leg's.
func SummarizeDual(bars []market.Bar, run sim.DualRun, riskFree float64) (Summary, error) {
	s, err := Summarize(run.FinalPnL, riskFree)
	if err != nil {
		return Summary{}, err
	}
	s.Trades = sim.CountTrades(run.Long)
	s.Stops = sim.CountStops(run.Long) + sim.CountStops(run.Short)
	s.Fees = sim.TotalFees(run.Long) + sim.TotalFees(run.Short)
	fillPeriod(&s, bars)
	return s, nil
}

func fillPeriod(s *Summary, bars []market.Bar) {
	if len(bars) == 0 {
		return
	}
	s.Start = bars[0].Time()
	s.End = bars[len(bars)-1].Time()
	if hold := HoldBaseline(bars); len(hold) > 0 {
		s.HoldPnL = hold[len(hold)-1]
	}
}
