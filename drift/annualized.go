package drift

import (
	"context"

	"github.com/rustyeddy/perpbt/indicators"
	"github.com/rustyeddy/perpbt/market"
)

// Window is a named averaging window measured in funding observations.
type Window struct {
	Name  string
	Hours int // 0 means the whole history
}

// Windows are reported in this order.
var Windows = []Window{
	{"1h", 1},
	{"24h", 24},
	{"3d", 72},
	{"7d", 168},
	{"30d", 720},
	{"90d", 2160},
	{"120d", 2880},
	{"1y", 8760},
	{"all_time", 0},
}

type WindowRate struct {
	Window string
	Rate   float64
}

// AnnualizedFundingRate averages the most recent observations of each
// window and scales the mean to a yearly rate:
// mean * (24 / fundingInterval) * 365. points must be in ascending order.
func AnnualizedFundingRate(points []market.FundingPoint, fundingInterval float64) ([]WindowRate, error) {
	if len(points) == 0 {
		return nil, ErrNoData
	}
	if fundingInterval <= 0 {
		fundingInterval = 1
	}

	rates := make([]float64, len(points))
	for i, p := range points {
		rates[i] = p.Rate
	}
	periods := make([]int, len(Windows))
	for i, w := range Windows {
		periods[i] = w.Hours
	}
	means, err := indicators.MAs(rates, periods)
	if err != nil {
		return nil, err
	}

	out := make([]WindowRate, len(Windows))
	for i, w := range Windows {
		daily := means[i] * (24 / fundingInterval)
		out[i] = WindowRate{Window: w.Name, Rate: daily * 365}
	}
	return out, nil
}

// AnnualizedFundingRate loads the full funding history of symbol and
// annualizes it over every window.
func (f *Fetcher) AnnualizedFundingRate(ctx context.Context, symbol string) ([]WindowRate, error) {
	pts, err := f.FundingHistory(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return AnnualizedFundingRate(pts, f.FundingInterval)
}
