package sim

import "fmt"

// Side: +1 long, -1 short, 0 for the direction-agnostic single leg
type Side int8

const (
	Flat  Side = 0
	Long  Side = +1
	Short Side = -1
)

func (s Side) String() string {
	switch s {
	case Long:
		return "long"
	case Short:
		return "short"
	case Flat:
		return "flat"
	}
	return fmt.Sprintf("Side(%d)", int8(s))
}

// StepKind records which transition produced a LegState.
type StepKind uint8

const (
	// Init is bar 0: the position is opened and the opening fee booked.
	Init StepKind = iota
	// Accrue carries the position and accumulates funding.
	Accrue
	// Trade (re)opens the position at the bar close.
	Trade
	// Liquidated is the absorbing zero-collateral state of a single leg.
	Liquidated
)

func (k StepKind) String() string {
	switch k {
	case Init:
		return "init"
	case Accrue:
		return "accrue"
	case Trade:
		return "trade"
	case Liquidated:
		return "liquidated"
	}
	return fmt.Sprintf("StepKind(%d)", uint8(k))
}

// ParseStepKind is the inverse of StepKind.String.
func ParseStepKind(s string) (StepKind, error) {
	for k := Init; k <= Liquidated; k++ {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown step kind %q", s)
}

// LegState is the state of one leg after one bar. States are written once
// by the engine run that produced them and never modified afterwards.
type LegState struct {
	Kind      StepKind
	Timestamp int64
	Price     float64 // bar close
	Rate      float64 // bar funding rate

	Collateral   float64
	Leverage     float64
	Direction    Side
	EntryPrice   float64
	PositionSize float64

	Change         float64
	ChangePnL      float64
	Funding        float64
	FundingAccrued float64

	// Margin is a solvency ratio for a single leg and net equity for a
	// leg of a delta-neutral pair.
	Margin               float64
	MaintenanceThreshold float64
	StopLossThreshold    float64
	IsLiquidated         bool
	IsStoppedOut         bool

	// FeeCharged is negative on bars that book a fee and zero otherwise.
	FeeCharged float64

	// Dual-leg bookkeeping: capital moved into (or out of) the leg on this
	// bar, and the running total of capital the leg has been given.
	Injection float64
	Equity    float64

	RealizedPnL float64
}

// closing reports whether the state breached a threshold, which makes the
// following bar open a fresh position.
func (s LegState) closing() bool {
	return s.IsLiquidated || s.IsStoppedOut
}
