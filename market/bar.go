package market

import "time"

// Bar is one aligned observation: an OHLC price snapshot plus the funding
// rate that applied at Timestamp (unix seconds).
type Bar struct {
	Timestamp   int64
	Open        float64
	High        float64
	Low         float64
	Close       float64
	FundingRate float64
}

// Time returns the bar timestamp in UTC.
func (b Bar) Time() time.Time {
	return time.Unix(b.Timestamp, 0).UTC()
}

// FundingPoint is a single funding-rate observation.
type FundingPoint struct {
	Timestamp int64
	Rate      float64
}

// PricePoint is a single OHLC observation.
type PricePoint struct {
	Timestamp int64
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// Closes returns the close prices of bars in order.
func Closes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}
