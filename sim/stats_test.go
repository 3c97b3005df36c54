package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStats(t *testing.T) {
	states := []LegState{
		{Kind: Init, FeeCharged: -0.005, RealizedPnL: -0.005},
		{Kind: Accrue, RealizedPnL: 0.01},
		{Kind: Accrue, IsStoppedOut: true, RealizedPnL: -0.2},
		{Kind: Trade, FeeCharged: -0.004, RealizedPnL: -0.204},
		{Kind: Accrue, IsLiquidated: true, IsStoppedOut: true, RealizedPnL: -0.9},
		{Kind: Liquidated, RealizedPnL: -1},
		{Kind: Liquidated, RealizedPnL: -1},
	}

	assert.Equal(t, []float64{-0.005, 0.01, -0.2, -0.204, -0.9, -1, -1}, RealizedPnL(states))
	assert.Equal(t, 5, LiquidatedAt(states))
	assert.Equal(t, 1, CountTrades(states))
	assert.Equal(t, 2, CountStops(states))
	assert.InDelta(t, -0.009, TotalFees(states), 1e-12)

	assert.Equal(t, -1, LiquidatedAt(states[:5]))
}

func TestStepKindStrings(t *testing.T) {
	for k := Init; k <= Liquidated; k++ {
		got, err := ParseStepKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	_, err := ParseStepKind("closed")
	assert.Error(t, err)
	assert.Equal(t, "StepKind(9)", StepKind(9).String())
}

func TestSideString(t *testing.T) {
	assert.Equal(t, "long", Long.String())
	assert.Equal(t, "short", Short.String())
	assert.Equal(t, "flat", Flat.String())
	assert.Equal(t, "Side(3)", Side(3).String())
}
