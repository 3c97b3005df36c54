package journal

import (
	"testing"
	"time"

	"github.com/rustyeddy/perpbt/sim"
)

func sampleRun(t *testing.T, id string, created time.Time, sharpe *float64) RunRecord {
	t.Helper()
	return RunRecord{
		RunID:       id,
		Created:     created,
		Kind:        KindSingle,
		Exchange:    "drift",
		Market:      "SOL-PERP",
		Config:      []byte(`{"leverage":5}`),
		Start:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:         time.Date(2024, 1, 1, 2, 0, 0, 0, time.UTC),
		Bars:        3,
		FinalPnL:    0.0123,
		MaxDrawdown: 0.05,
		Sharpe:      sharpe,
		Trades:      1,
		Stops:       0,
		Fees:        0.005,
		HoldPnL:     -0.02,
	}
}

func sampleStates() []sim.LegState {
	return []sim.LegState{
		{Kind: sim.Init, Timestamp: 1704067200, Price: 100, Rate: 0.0001, Collateral: 0.995, Leverage: 5,
			EntryPrice: 100, PositionSize: 4.975, Margin: 0.995, FeeCharged: 0.005, Equity: 1, RealizedPnL: -0.005},
		{Kind: sim.Accrue, Timestamp: 1704070800, Price: 101, Rate: 0.0002, Collateral: 0.995, Leverage: 5,
			EntryPrice: 100, PositionSize: 4.975, Change: 0.01, ChangePnL: -0.04975, Funding: 0.000995,
			FundingAccrued: 0.000995, Margin: 0.946245, Equity: 1, RealizedPnL: -0.005},
		{Kind: sim.Liquidated, Timestamp: 1704074400, Price: 140, Rate: 0.0001, Leverage: 5, RealizedPnL: -1},
	}
}
