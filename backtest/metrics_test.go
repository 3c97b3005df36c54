package backtest

import (
	"math"
	"testing"

	"github.com/rustyeddy/perpbt/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaxDrawdown(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"empty", nil, 0},
		{"monotonic increasing", []float64{1, 2, 3, 4, 5}, 0},
		{"peak to trough", []float64{10, 4, 7, 2}, 8},
		{"recovery then deeper fall", []float64{0, 0.5, 0.1, 0.9, 0.2}, 0.7},
		{"negative pnl", []float64{-0.01, -0.02, -0.5, -1}, 0.99},
		{"infinite peak", []float64{math.Inf(1), 1, 2}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, MaxDrawdown(tt.values), 1e-12)
		})
	}
}

func TestDrawdowns(t *testing.T) {
	assert.Equal(t, []float64{0, 6, 3, 8}, Drawdowns([]float64{10, 4, 7, 2}))
}

func TestSharpeRatio(t *testing.T) {
	// mean 2.5, sample stddev sqrt(5/3)
	got, err := SharpeRatio([]float64{1, 2, 3, 4}, 0)
	require.NoError(t, err)
	assert.InDelta(t, 2.5/math.Sqrt(5.0/3.0), got, 1e-12)

	got, err = SharpeRatio([]float64{1, 2, 3, 4}, 0.5)
	require.NoError(t, err)
	assert.InDelta(t, 2.0/math.Sqrt(5.0/3.0), got, 1e-12)
}

func TestSharpeRatioNotComputable(t *testing.T) {
	for _, in := range [][]float64{nil, {1}, {0.3, 0.3, 0.3}} {
		_, err := SharpeRatio(in, 0)
		assert.ErrorIs(t, err, ErrNotComputable)
	}
}

func TestHoldBaseline(t *testing.T) {
	bars := []market.Bar{
		{Timestamp: 200, Close: 110},
		{Timestamp: 100, Close: 100},
		{Timestamp: 300, Close: 90},
	}
	got := HoldBaseline(bars)
	require.Len(t, got, 3)
	assert.InDelta(t, 0, got[0], 1e-12)
	assert.InDelta(t, 0.1, got[1], 1e-12)
	assert.InDelta(t, -0.1, got[2], 1e-12)

	// caller's slice order is preserved
	assert.Equal(t, int64(200), bars[0].Timestamp)
	assert.Nil(t, HoldBaseline(nil))
}
