package drift

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rustyeddy/perpbt/market"
	"github.com/shopspring/decimal"
)

const (
	// FundingRatePrecision is the fixed-point exponent of fundingRate.
	FundingRatePrecision = 9
	// PricePrecision is the fixed-point exponent of oraclePriceTwap.
	PricePrecision = 6
)

// FormatFunding converts funding-rate records into per-period rates,
// fundingRate/1e9 divided by oraclePriceTwap/1e6. Rows missing ts,
// fundingRate or a non-zero oraclePriceTwap are dropped. The result is
// sorted by timestamp.
func FormatFunding(recs []Record) ([]market.FundingPoint, error) {
	out := make([]market.FundingPoint, 0, len(recs))
	for i, r := range recs {
		ts, ok1 := field(r, "ts")
		fr, ok2 := field(r, "fundingRate")
		twap, ok3 := field(r, "oraclePriceTwap")
		if !ok1 || !ok2 || !ok3 {
			continue
		}

		sec, err := decimal.NewFromString(ts)
		if err != nil {
			return nil, fmt.Errorf("funding row %d: ts %q: %w", i, ts, err)
		}
		rate, err := decimal.NewFromString(fr)
		if err != nil {
			return nil, fmt.Errorf("funding row %d: fundingRate %q: %w", i, fr, err)
		}
		price, err := decimal.NewFromString(twap)
		if err != nil {
			return nil, fmt.Errorf("funding row %d: oraclePriceTwap %q: %w", i, twap, err)
		}
		if price.IsZero() {
			continue
		}

		v := rate.Shift(-FundingRatePrecision).Div(price.Shift(-PricePrecision))
		out = append(out, market.FundingPoint{
			Timestamp: sec.IntPart(),
			Rate:      v.InexactFloat64(),
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	return out, nil
}

// FormatOHLC converts candle records into price points. start is in
// milliseconds. An open/high/low/close that is empty or "undefined" falls
// back to the matching fill* column. Sorted by timestamp.
func FormatOHLC(recs []Record) ([]market.PricePoint, error) {
	out := make([]market.PricePoint, 0, len(recs))
	for i, r := range recs {
		start, ok := field(r, "start")
		if !ok {
			continue
		}
		ms, err := decimal.NewFromString(start)
		if err != nil {
			return nil, fmt.Errorf("candle row %d: start %q: %w", i, start, err)
		}

		var ohlc [4]float64
		for k, name := range [4]string{"open", "high", "low", "close"} {
			v, err := priceField(r, name)
			if err != nil {
				return nil, fmt.Errorf("candle row %d: %w", i, err)
			}
			ohlc[k] = v
		}

		p := market.PricePoint{
			Timestamp: ms.Div(decimal.NewFromInt(1000)).IntPart(),
			Open:      ohlc[0],
			High:      ohlc[1],
			Low:       ohlc[2],
			Close:     ohlc[3],
		}
		if vol, ok := field(r, "baseVolume"); ok {
			if d, err := decimal.NewFromString(vol); err == nil {
				p.Volume = d.InexactFloat64()
			}
		}
		out = append(out, p)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	return out, nil
}

func priceField(r Record, name string) (float64, error) {
	v, ok := field(r, name)
	src := name
	if !ok {
		fill := "fill" + strings.ToUpper(name[:1]) + name[1:]
		if v, ok = field(r, fill); !ok {
			return 0, fmt.Errorf("%s and %s missing", name, fill)
		}
		src = fill
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return 0, fmt.Errorf("%s %q: %w", src, v, err)
	}
	return d.InexactFloat64(), nil
}

// field returns a usable value; empty, "undefined", "null" and "NaN" count
// as missing.
func field(r Record, name string) (string, bool) {
	v := strings.TrimSpace(r[name])
	switch v {
	case "", "undefined", "null", "NaN", "nan":
		return "", false
	}
	return v, true
}
