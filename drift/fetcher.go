package drift

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rustyeddy/perpbt/market"
	"github.com/sirupsen/logrus"
)

// Exchange is the venue name recorded on bar sets built here.
const Exchange = "drift"

// DefaultMaxMonths bounds backward paging through funding history.
const DefaultMaxMonths = 120

var ErrNoData = errors.New("drift: no data")

// Fetcher pages monthly history through an optional on-disk cache.
type Fetcher struct {
	client *Client
	cache  *Cache
	log    *logrus.Logger

	// FundingInterval is the funding period in hours.
	FundingInterval float64
	MaxMonths       int

	now func() time.Time
}

// NewFetcher creates a fetcher. cache may be nil to always download.
func NewFetcher(client *Client, cache *Cache, log *logrus.Logger) *Fetcher {
	return &Fetcher{
		client:          client,
		cache:           cache,
		log:             orDiscard(log),
		FundingInterval: 1,
		MaxMonths:       DefaultMaxMonths,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// page returns one month of records. The current month is never served
// from cache. A month the bucket has no file for yields no records.
func (f *Fetcher) page(ctx context.Context, kind PageKind, symbol string, year, month int) ([]Record, error) {
	now := f.now()
	current := now.Year() == year && int(now.Month()) == month

	if f.cache != nil && !current {
		recs, ok, err := f.cache.Load(kind, symbol, year, month)
		if err != nil {
			return nil, err
		}
		if ok {
			return recs, nil
		}
	}

	var (
		recs []Record
		err  error
	)
	switch kind {
	case FundingPages:
		recs, err = f.client.FundingRates(ctx, symbol, year, month)
	case PricePages:
		recs, err = f.client.Candles(ctx, symbol, Hourly, year, month)
	default:
		return nil, fmt.Errorf("drift: unknown page kind %q", kind)
	}
	if isNoData(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if f.cache != nil && len(recs) > 0 {
		if err := f.cache.Store(kind, symbol, year, month, recs); err != nil {
			return nil, err
		}
	}
	return recs, nil
}

// FundingHistory pages backwards from the current month until a month has
// no data, and returns the formatted rates in ascending order.
func (f *Fetcher) FundingHistory(ctx context.Context, symbol string) ([]market.FundingPoint, error) {
	var all []Record
	cur := monthStart(f.now())
	for i := 0; f.MaxMonths <= 0 || i < f.MaxMonths; i++ {
		recs, err := f.page(ctx, FundingPages, symbol, cur.Year(), int(cur.Month()))
		if err != nil {
			return nil, err
		}
		if len(recs) == 0 {
			break
		}
		all = append(all, recs...)
		cur = cur.AddDate(0, -1, 0)
	}

	pts, err := FormatFunding(all)
	if err != nil {
		return nil, err
	}
	pts = dedupeFunding(pts)
	f.log.WithFields(logrus.Fields{"market": symbol, "points": len(pts)}).Info("funding history loaded")
	return pts, nil
}

// HourlyOHLC collects hourly candles for every month from end back to
// start, inclusive. Missing months are skipped.
func (f *Fetcher) HourlyOHLC(ctx context.Context, symbol string, start, end time.Time) ([]market.PricePoint, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("drift: end %s before start %s", end, start)
	}

	var all []Record
	first := monthStart(start.UTC())
	for cur := monthStart(end.UTC()); !cur.Before(first); cur = cur.AddDate(0, -1, 0) {
		recs, err := f.page(ctx, PricePages, symbol, cur.Year(), int(cur.Month()))
		if err != nil {
			return nil, err
		}
		all = append(all, recs...)
	}

	pts, err := FormatOHLC(all)
	if err != nil {
		return nil, err
	}
	pts = dedupePrices(pts)
	f.log.WithFields(logrus.Fields{"market": symbol, "points": len(pts)}).Info("hourly prices loaded")
	return pts, nil
}

// FetchBars loads the full funding history of symbol, the hourly prices
// over the same span, and aligns them.
func (f *Fetcher) FetchBars(ctx context.Context, symbol string) (*market.BarSet, error) {
	funding, err := f.FundingHistory(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if len(funding) == 0 {
		return nil, fmt.Errorf("%s funding: %w", symbol, ErrNoData)
	}

	start := time.Unix(funding[0].Timestamp, 0).UTC()
	end := time.Unix(funding[len(funding)-1].Timestamp, 0).UTC()
	prices, err := f.HourlyOHLC(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}
	if len(prices) == 0 {
		return nil, fmt.Errorf("%s prices: %w", symbol, ErrNoData)
	}

	bs, err := market.Align(funding, prices, market.DefaultTolerance)
	if err != nil {
		return nil, fmt.Errorf("align %s: %w", symbol, err)
	}
	bs.Exchange = Exchange
	bs.Market = symbol
	return bs, nil
}

// VolumePoint is the base volume of the daily candle nearest to now.
type VolumePoint struct {
	Market    string
	Timestamp int64 // milliseconds
	Volume    float64
}

// Volume24h reads the current month's daily candles and returns the one
// closest to now. It always goes to the network.
func (f *Fetcher) Volume24h(ctx context.Context, symbol string) (VolumePoint, error) {
	now := f.now()
	recs, err := f.client.Candles(ctx, symbol, Daily, now.Year(), int(now.Month()))
	if err != nil && !isNoData(err) {
		return VolumePoint{}, err
	}

	nowMs := now.UnixMilli()
	best := VolumePoint{Market: symbol}
	bestDiff := int64(math.MaxInt64)
	found := false
	for _, r := range recs {
		start, ok := field(r, "start")
		if !ok {
			continue
		}
		var ms int64
		if _, err := fmt.Sscanf(start, "%d", &ms); err != nil {
			continue
		}
		diff := nowMs - ms
		if diff < 0 {
			diff = -diff
		}
		if diff < bestDiff {
			bestDiff = diff
			best.Timestamp = ms
			best.Volume = 0
			if v, ok := field(r, "baseVolume"); ok {
				fmt.Sscanf(v, "%g", &best.Volume)
			}
			found = true
		}
	}
	if !found {
		return VolumePoint{}, fmt.Errorf("%s daily candles: %w", symbol, ErrNoData)
	}
	return best, nil
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// dedupeFunding keeps the last point of each timestamp in a sorted slice.
func dedupeFunding(in []market.FundingPoint) []market.FundingPoint {
	out := in[:0]
	for _, p := range in {
		if n := len(out); n > 0 && out[n-1].Timestamp == p.Timestamp {
			out[n-1] = p
			continue
		}
		out = append(out, p)
	}
	return out
}

func dedupePrices(in []market.PricePoint) []market.PricePoint {
	out := in[:0]
	for _, p := range in {
		if n := len(out); n > 0 && out[n-1].Timestamp == p.Timestamp {
			out[n-1] = p
			continue
		}
		out = append(out, p)
	}
	return out
}
