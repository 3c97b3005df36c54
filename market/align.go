package market

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// DefaultTolerance is the widest distance between a funding timestamp and
// the price observation attached to it.
const DefaultTolerance = time.Hour

var (
	ErrEmptySeries = errors.New("market: empty series")
	ErrUnsorted    = errors.New("market: timestamps not strictly increasing")
	ErrNoOverlap   = errors.New("market: funding and price series do not overlap")
	ErrNoPrice     = errors.New("market: no price within tolerance of any funding observation")
)

// Align merges a funding-rate series and a price series into one bar
// sequence driven by the funding cadence.
//
// Both inputs must be non-empty and strictly ascending. They are first cut
// to their common time window; each funding observation then takes the
// nearest price within tol (ties go to the earlier price). Bars with no
// price in reach carry the previous bar's OHLC forward, and bars before the
// first matched price are dropped. A tol <= 0 selects DefaultTolerance.
func Align(funding []FundingPoint, prices []PricePoint, tol time.Duration) (*BarSet, error) {
	if len(funding) == 0 || len(prices) == 0 {
		return nil, ErrEmptySeries
	}
	if i := unsortedFunding(funding); i >= 0 {
		return nil, fmt.Errorf("funding[%d] ts=%d: %w", i, funding[i].Timestamp, ErrUnsorted)
	}
	if i := unsortedPrices(prices); i >= 0 {
		return nil, fmt.Errorf("prices[%d] ts=%d: %w", i, prices[i].Timestamp, ErrUnsorted)
	}
	if tol <= 0 {
		tol = DefaultTolerance
	}
	tolSec := int64(tol / time.Second)

	lo := max(funding[0].Timestamp, prices[0].Timestamp)
	hi := min(funding[len(funding)-1].Timestamp, prices[len(prices)-1].Timestamp)
	if lo > hi {
		return nil, fmt.Errorf("funding [%d,%d] prices [%d,%d]: %w",
			funding[0].Timestamp, funding[len(funding)-1].Timestamp,
			prices[0].Timestamp, prices[len(prices)-1].Timestamp, ErrNoOverlap)
	}

	funding = windowFunding(funding, lo, hi)
	prices = windowPrices(prices, lo, hi)

	bs := &BarSet{
		Bars:   make([]Bar, 0, len(funding)),
		Filled: make([]bool, 0, len(funding)),
	}

	priceTS := func(i int) int64 { return prices[i].Timestamp }

	var (
		last    PricePoint
		haveAny bool
		j       int // first price with ts >= current funding ts
	)

	for _, fp := range funding {
		for j < len(prices) && prices[j].Timestamp < fp.Timestamp {
			j++
		}

		k, ok := nearest(len(prices), priceTS, j, fp.Timestamp, tolSec)
		filled := false
		switch {
		case ok:
			last = prices[k]
			haveAny = true
		case haveAny:
			filled = true
		default:
			bs.Dropped++
			continue
		}

		bs.Bars = append(bs.Bars, Bar{
			Timestamp:   fp.Timestamp,
			Open:        last.Open,
			High:        last.High,
			Low:         last.Low,
			Close:       last.Close,
			FundingRate: fp.Rate,
		})
		bs.Filled = append(bs.Filled, filled)
	}

	if len(bs.Bars) == 0 {
		return nil, ErrNoPrice
	}
	return bs, nil
}

// nearest picks between index j-1 (backward) and j (forward) of a series
// whose timestamps are given by tsAt.
func nearest(n int, tsAt func(int) int64, j int, ts, tolSec int64) (int, bool) {
	best, bestDist := -1, int64(-1)
	if j > 0 {
		best, bestDist = j-1, ts-tsAt(j-1)
	}
	if j < n {
		if d := tsAt(j) - ts; best < 0 || d < bestDist {
			best, bestDist = j, d
		}
	}
	if best < 0 || bestDist > tolSec {
		return -1, false
	}
	return best, true
}

func windowFunding(in []FundingPoint, lo, hi int64) []FundingPoint {
	a := sort.Search(len(in), func(i int) bool { return in[i].Timestamp >= lo })
	b := sort.Search(len(in), func(i int) bool { return in[i].Timestamp > hi })
	return in[a:b]
}

func windowPrices(in []PricePoint, lo, hi int64) []PricePoint {
	a := sort.Search(len(in), func(i int) bool { return in[i].Timestamp >= lo })
	b := sort.Search(len(in), func(i int) bool { return in[i].Timestamp > hi })
	return in[a:b]
}

func unsortedFunding(in []FundingPoint) int {
	for i := 1; i < len(in); i++ {
		if in[i].Timestamp <= in[i-1].Timestamp {
			return i
		}
	}
	return -1
}

func unsortedPrices(in []PricePoint) int {
	for i := 1; i < len(in); i++ {
		if in[i].Timestamp <= in[i-1].Timestamp {
			return i
		}
	}
	return -1
}
