package backtest

import (
	"errors"
	"math"
	"sort"

	"github.com/rustyeddy/perpbt/market"
)

// ErrNotComputable is returned for inputs a metric is undefined on, such as
// a constant series for the Sharpe ratio.
var ErrNotComputable = errors.New("backtest: metric not computable")

// MaxDrawdown returns the largest fall from a running peak:
// max_i(max(values[0..i]) - values[i]). Infinite drawdowns count as 0 and an
// empty series has no drawdown.
func MaxDrawdown(values []float64) float64 {
	var (
		peak = math.Inf(-1)
		dd   float64
	)
	for _, v := range values {
		if v > peak {
			peak = v
		}
		d := peak - v
		if math.IsInf(d, 0) {
			d = 0
		}
		if d > dd {
			dd = d
		}
	}
	return dd
}

// Drawdowns returns the per-bar drawdown series used by MaxDrawdown.
func Drawdowns(values []float64) []float64 {
	out := make([]float64, len(values))
	peak := math.Inf(-1)
	for i, v := range values {
		if v > peak {
			peak = v
		}
		d := peak - v
		if math.IsInf(d, 0) {
			d = 0
		}
		out[i] = d
	}
	return out
}

// SharpeRatio returns mean(x)/stddev(x) for x = values - riskFree, using the
// sample standard deviation. It reports ErrNotComputable when fewer than
// two values are given or the series has zero variance.
func SharpeRatio(values []float64, riskFree float64) (float64, error) {
	if len(values) < 2 {
		return 0, ErrNotComputable
	}
	m := mean(values) - riskFree
	sd := math.Sqrt(variance(values))
	if sd == 0 || math.IsNaN(sd) {
		return 0, ErrNotComputable
	}
	return m / sd, nil
}

// HoldBaseline is the buy-and-hold return of the bars' close prices
// relative to the earliest bar. Bars are ordered by timestamp first; the
// input is not modified.
func HoldBaseline(bars []market.Bar) []float64 {
	if len(bars) == 0 {
		return nil
	}
	sorted := make([]market.Bar, len(bars))
	copy(sorted, bars)
	sortBars(sorted)

	first := sorted[0].Close
	out := make([]float64, len(sorted))
	for i, b := range sorted {
		out[i] = (b.Close - first) / first
	}
	return out
}

func sortBars(bars []market.Bar) {
	sort.SliceStable(bars, func(i, j int) bool {
		return bars[i].Timestamp < bars[j].Timestamp
	})
}

func mean(a []float64) float64 {
	if len(a) == 0 {
		return 0
	}
	s := 0.0
	for _, x := range a {
		s += x
	}
	return s / float64(len(a))
}

func variance(a []float64) float64 {
	if len(a) <= 1 {
		return 0
	}
	m := mean(a)
	s := 0.0
	for _, x := range a {
		d := x - m
		s += d * d
	}
	return s / float64(len(a)-1)
}
