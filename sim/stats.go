package sim

// RealizedPnL extracts the realized PnL series of a leg.
func RealizedPnL(states []LegState) []float64 {
	out := make([]float64, len(states))
	for i, s := range states {
		out[i] = s.RealizedPnL
	}
	return out
}

// LiquidatedAt returns the index of the first Liquidated bar, or -1.
func LiquidatedAt(states []LegState) int {
	for i, s := range states {
		if s.Kind == Liquidated {
			return i
		}
	}
	return -1
}

// CountTrades counts bars that (re)opened a position, excluding the
// initial one.
func CountTrades(states []LegState) int {
	n := 0
	for _, s := range states {
		if s.Kind == Trade {
			n++
		}
	}
	return n
}

// CountStops counts bars on which a stop-loss or liquidation threshold was
// breached.
func CountStops(states []LegState) int {
	n := 0
	for _, s := range states {
		if s.closing() {
			n++
		}
	}
	return n
}

// TotalFees sums the (negative) fees booked over a run.
func TotalFees(states []LegState) float64 {
	var f float64
	for _, s := range states {
		f += s.FeeCharged
	}
	return f
}
