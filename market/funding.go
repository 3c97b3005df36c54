package market

import (
	"fmt"
	"time"
)

// NormalizeFunding multiplies every funding rate by toFreq/fromFreq so a
// venue's rates can be compared on another venue's funding period. The
// input is not modified.
func NormalizeFunding(bars []Bar, fromFreq, toFreq float64) ([]Bar, error) {
	if fromFreq <= 0 || toFreq <= 0 {
		return nil, fmt.Errorf("funding frequencies must be positive (from=%v to=%v)", fromFreq, toFreq)
	}
	k := toFreq / fromFreq
	out := make([]Bar, len(bars))
	for i, b := range bars {
		b.FundingRate *= k
		out[i] = b
	}
	return out, nil
}

// PairLegs prepares the two legs of a delta-neutral run. Each long bar is
// matched to the nearest short bar within tol; unmatched long bars are
// dropped. The short leg keeps its own funding rate, normalized to the long
// leg's funding period, but takes the long leg's OHLC so venue price
// divergence cannot show up as spread PnL.
func PairLegs(long, short []Bar, longFreq, shortFreq float64, tol time.Duration) ([]Bar, []Bar, error) {
	if len(long) == 0 || len(short) == 0 {
		return nil, nil, ErrEmptySeries
	}
	if tol <= 0 {
		tol = DefaultTolerance
	}
	short, err := NormalizeFunding(short, shortFreq, longFreq)
	if err != nil {
		return nil, nil, err
	}

	for i := 1; i < len(short); i++ {
		if short[i].Timestamp <= short[i-1].Timestamp {
			return nil, nil, fmt.Errorf("short[%d]: %w", i, ErrUnsorted)
		}
	}
	shortTS := func(i int) int64 { return short[i].Timestamp }

	tolSec := int64(tol / time.Second)
	outLong := make([]Bar, 0, len(long))
	outShort := make([]Bar, 0, len(long))

	j := 0
	for i, lb := range long {
		if i > 0 && lb.Timestamp <= long[i-1].Timestamp {
			return nil, nil, fmt.Errorf("long[%d]: %w", i, ErrUnsorted)
		}
		for j < len(short) && short[j].Timestamp < lb.Timestamp {
			j++
		}
		k, ok := nearest(len(short), shortTS, j, lb.Timestamp, tolSec)
		if !ok {
			continue
		}
		sb := lb
		sb.FundingRate = short[k].FundingRate
		outLong = append(outLong, lb)
		outShort = append(outShort, sb)
	}

	if len(outLong) == 0 {
		return nil, nil, ErrNoOverlap
	}
	return outLong, outShort, nil
}
