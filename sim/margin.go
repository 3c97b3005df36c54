package sim

// threshold is the margin level that triggers a close: collateral scaled by
// leverage and a margin ratio.
func threshold(collateral, leverage, ratio float64) float64 {
	return collateral * leverage * ratio
}

// safeDiv returns 0 instead of Inf/NaN when the denominator is zero.
func safeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
