package sim

import (
	"math/rand"
	"testing"

	"github.com/rustyeddy/perpbt/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bars(closes []float64, rates []float64) []market.Bar {
	out := make([]market.Bar, len(closes))
	for i, c := range closes {
		out[i] = market.Bar{
			Timestamp: int64(i) * 3600,
			Open:      c,
			High:      c,
			Low:       c,
			Close:     c,
		}
		if i < len(rates) {
			out[i].FundingRate = rates[i]
		}
	}
	return out
}

func randomBars(r *rand.Rand, n int) []market.Bar {
	closes := make([]float64, n)
	rates := make([]float64, n)
	p := 100.0
	for i := range closes {
		p *= 1 + r.NormFloat64()*0.03
		if p < 1 {
			p = 1
		}
		closes[i] = p
		rates[i] = r.NormFloat64() * 0.0005
	}
	return bars(closes, rates)
}

func TestSingleLegFlatPrice(t *testing.T) {
	states, err := RunSingleLeg(bars([]float64{100, 100, 100}, []float64{0, 0, 0}), DefaultSingleConfig(5))
	require.NoError(t, err)
	require.Len(t, states, 3)

	s0 := states[0]
	assert.Equal(t, Init, s0.Kind)
	assert.Equal(t, 1.0, s0.Collateral)
	assert.InDelta(t, -0.005, s0.FeeCharged, 1e-12)
	assert.InDelta(t, 0.25, s0.MaintenanceThreshold, 1e-12)
	assert.InDelta(t, 0.3125, s0.StopLossThreshold, 1e-12)
	assert.Zero(t, s0.RealizedPnL)

	s1 := states[1]
	assert.Equal(t, Trade, s1.Kind)
	assert.Equal(t, 100.0, s1.EntryPrice)
	assert.InDelta(t, 0.995, s1.Collateral, 1e-12)
	assert.Zero(t, s1.Change)
	assert.InDelta(t, 1.0, s1.Margin, 1e-12)
	assert.False(t, s1.IsLiquidated)
	assert.False(t, s1.IsStoppedOut)
	assert.Zero(t, s1.FeeCharged)
	assert.InDelta(t, -0.005, s1.RealizedPnL, 1e-12)
	assert.InDelta(t, 100*0.995*5, s1.PositionSize, 1e-9)

	s2 := states[2]
	assert.Equal(t, Accrue, s2.Kind)
	assert.Equal(t, 100.0, s2.EntryPrice)
	assert.InDelta(t, 0.995, s2.Collateral, 1e-12)
	assert.InDelta(t, 1.0, s2.Margin, 1e-12)
}

func TestSingleLegFundingAccrues(t *testing.T) {
	states, err := RunSingleLeg(bars([]float64{100, 100, 100}, []float64{0.001, 0.001, 0.001}), DefaultSingleConfig(5))
	require.NoError(t, err)

	perBar := 0.995 * 0.001 * 5 / 2
	assert.InDelta(t, perBar, states[1].Funding, 1e-12)
	assert.InDelta(t, perBar, states[1].FundingAccrued, 1e-12)
	assert.InDelta(t, 2*perBar, states[2].FundingAccrued, 1e-12)
	assert.InDelta(t, -0.005+2*perBar, states[2].RealizedPnL, 1e-12)
}

func TestSingleLegStopOutReopens(t *testing.T) {
	states, err := RunSingleLeg(bars([]float64{100, 100, 120, 120}, nil), DefaultSingleConfig(5))
	require.NoError(t, err)

	s2 := states[2]
	assert.Equal(t, Accrue, s2.Kind)
	assert.InDelta(t, 0.2, s2.Change, 1e-12)
	assert.InDelta(t, -1.0, s2.ChangePnL, 1e-12)
	assert.True(t, s2.IsLiquidated)
	assert.True(t, s2.IsStoppedOut)
	assert.InDelta(t, -0.005, s2.FeeCharged, 1e-12)

	s3 := states[3]
	assert.Equal(t, Trade, s3.Kind)
	assert.Equal(t, 120.0, s3.EntryPrice)
	assert.InDelta(t, 0.99, s3.Collateral, 1e-12)
	assert.InDelta(t, 1.0, s3.Margin, 1e-12)
	assert.InDelta(t, -0.01, s3.RealizedPnL, 1e-12)

	// price moves in either direction are treated as adverse
	down, err := RunSingleLeg(bars([]float64{100, 100, 80}, nil), DefaultSingleConfig(5))
	require.NoError(t, err)
	assert.InDelta(t, s2.ChangePnL, down[2].ChangePnL, 1e-12)
}

func TestSingleLegLiquidationIsAbsorbing(t *testing.T) {
	cfg := SingleConfig{Leverage: 2, FeeRate: 0.5, MaintenanceMarginRatio: 0.05, StopLossMarginRatio: 0.0625}
	states, err := RunSingleLeg(bars([]float64{100, 101, 99, 150, 100}, []float64{0.01, 0.01, 0.01, 0.01, 0.01}), cfg)
	require.NoError(t, err)

	assert.Equal(t, 1, LiquidatedAt(states))
	for i := 1; i < len(states); i++ {
		s := states[i]
		assert.Equal(t, Liquidated, s.Kind, "bar %d", i)
		assert.Equal(t, -1.0, s.RealizedPnL, "bar %d", i)
		assert.Zero(t, s.Collateral)
		assert.Zero(t, s.EntryPrice)
		assert.Zero(t, s.PositionSize)
		assert.Zero(t, s.Change)
		assert.Zero(t, s.ChangePnL)
		assert.Zero(t, s.Funding)
		assert.Zero(t, s.FundingAccrued)
		assert.Zero(t, s.Margin)
		assert.Zero(t, s.MaintenanceThreshold)
		assert.Zero(t, s.StopLossThreshold)
		assert.False(t, s.IsLiquidated)
		assert.False(t, s.IsStoppedOut)
		assert.Zero(t, s.FeeCharged)
	}
}

func TestSingleLegNegativeCollateralClamps(t *testing.T) {
	cfg := SingleConfig{Leverage: 4, FeeRate: 0.5}
	states, err := RunSingleLeg(bars([]float64{100, 100, 100}, nil), cfg)
	require.NoError(t, err)

	s1 := states[1]
	assert.Equal(t, Trade, s1.Kind)
	assert.Zero(t, s1.Collateral)
	assert.Zero(t, s1.Margin)
	assert.False(t, s1.IsLiquidated)
	assert.Equal(t, -1.0, s1.RealizedPnL)

	assert.Equal(t, Liquidated, states[2].Kind)
}

func TestSingleLegInvariants(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	in := randomBars(r, 500)

	for _, lev := range []float64{0, 1, 3, 5, 10, 20, 50} {
		states, err := RunSingleLeg(in, DefaultSingleConfig(lev))
		require.NoError(t, err)

		liq := LiquidatedAt(states)
		for i, s := range states {
			assert.GreaterOrEqual(t, s.Collateral, 0.0, "lev %v bar %d", lev, i)
			if liq >= 0 && i >= liq {
				assert.Equal(t, Liquidated, s.Kind, "lev %v bar %d", lev, i)
				assert.Equal(t, -1.0, s.RealizedPnL)
			}
			if i > 0 && lev > 0 {
				assert.Equal(t, s.FeeCharged != 0, s.IsLiquidated || s.IsStoppedOut, "lev %v bar %d", lev, i)
			}
		}
	}
}

func TestSingleLegIdempotent(t *testing.T) {
	in := randomBars(rand.New(rand.NewSource(11)), 200)
	a, err := RunSingleLeg(in, DefaultSingleConfig(10))
	require.NoError(t, err)
	b, err := RunSingleLeg(in, DefaultSingleConfig(10))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestSingleLegEmptyAndInvalid(t *testing.T) {
	states, err := RunSingleLeg(nil, DefaultSingleConfig(5))
	require.NoError(t, err)
	assert.Empty(t, states)

	_, err = RunSingleLeg(bars([]float64{1}, nil), DefaultSingleConfig(-1))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestSingleLegZeroEntryGuard(t *testing.T) {
	states, err := RunSingleLeg(bars([]float64{0, 0, 5}, nil), DefaultSingleConfig(5))
	require.NoError(t, err)
	assert.Zero(t, states[1].Change)
	assert.Zero(t, states[2].Change)
	assert.Equal(t, 0.0, states[2].EntryPrice)
}
