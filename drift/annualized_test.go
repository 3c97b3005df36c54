package drift

import (
	"testing"

	"github.com/rustyeddy/perpbt/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnnualizedFundingRate(t *testing.T) {
	// 48 hourly points: the older 24 at 0.0002, the newer 24 at 0.0001.
	pts := make([]market.FundingPoint, 48)
	for i := range pts {
		pts[i] = market.FundingPoint{Timestamp: int64(i) * 3600, Rate: 0.0002}
		if i >= 24 {
			pts[i].Rate = 0.0001
		}
	}

	got, err := AnnualizedFundingRate(pts, 1)
	require.NoError(t, err)
	require.Len(t, got, len(Windows))

	byName := map[string]float64{}
	for _, w := range got {
		byName[w.Window] = w.Rate
	}

	assert.InDelta(t, 0.0001*24*365, byName["1h"], 1e-12)
	assert.InDelta(t, 0.0001*24*365, byName["24h"], 1e-12)
	assert.InDelta(t, 0.00015*24*365, byName["3d"], 1e-12)
	assert.InDelta(t, 0.00015*24*365, byName["all_time"], 1e-12)
	assert.Equal(t, "1h", got[0].Window)
	assert.Equal(t, "all_time", got[len(got)-1].Window)
}

func TestAnnualizedFundingRateInterval(t *testing.T) {
	pts := []market.FundingPoint{{Timestamp: 0, Rate: 0.0008}}
	got, err := AnnualizedFundingRate(pts, 8)
	require.NoError(t, err)
	assert.InDelta(t, 0.0008*3*365, got[0].Rate, 1e-12)
}

func TestAnnualizedFundingRateEmpty(t *testing.T) {
	_, err := AnnualizedFundingRate(nil, 1)
	assert.ErrorIs(t, err, ErrNoData)
}
