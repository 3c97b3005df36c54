// Package binance reads monthly kline dumps and converts them into Drift
// candle pages, to backfill months missing from the Drift history.
package binance

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rustyeddy/perpbt/drift"
	"github.com/shopspring/decimal"
)

// DriftSymbols maps the spot pairs that have known Drift gaps to their perp.
var DriftSymbols = map[string]string{
	"BNBUSDT": "BNB-PERP",
	"BTCUSDT": "BTC-PERP",
	"ETHUSDT": "ETH-PERP",
	"SOLUSDT": "SOL-PERP",
	"XRPUSDT": "XRP-PERP",
}

// Kline is one row of a kline array:
// [openTime, open, high, low, close, volume, closeTime, quoteVolume, ...].
type Kline struct {
	OpenTime    int64 // milliseconds
	Open        decimal.Decimal
	High        decimal.Decimal
	Low         decimal.Decimal
	Close       decimal.Decimal
	Volume      decimal.Decimal
	QuoteVolume decimal.Decimal
}

// Path is {dir}/binance/prices/{SYMBOL}/{SYMBOL}_{year}_{month}.json.
func Path(dir, symbol string, year, month int) string {
	return filepath.Join(dir, "binance", "prices", symbol, fmt.Sprintf("%s_%d_%d.json", symbol, year, month))
}

// ReadKlines decodes a JSON array of kline arrays. Numbers may be given as
// JSON numbers or strings.
func ReadKlines(r io.Reader) ([]Kline, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var rows [][]any
	if err := dec.Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode klines: %w", err)
	}

	out := make([]Kline, 0, len(rows))
	for i, row := range rows {
		if len(row) < 8 {
			return nil, fmt.Errorf("kline %d: %d fields, want at least 8", i, len(row))
		}
		var (
			k    Kline
			vals [7]decimal.Decimal
		)
		for j, col := range [7]int{0, 1, 2, 3, 4, 5, 7} {
			d, err := toDecimal(row[col])
			if err != nil {
				return nil, fmt.Errorf("kline %d field %d: %w", i, col, err)
			}
			vals[j] = d
		}
		k.OpenTime = vals[0].IntPart()
		k.Open, k.High, k.Low, k.Close = vals[1], vals[2], vals[3], vals[4]
		k.Volume, k.QuoteVolume = vals[5], vals[6]
		out = append(out, k)
	}
	return out, nil
}

func LoadKlines(dir, symbol string, year, month int) ([]Kline, error) {
	data, err := os.ReadFile(Path(dir, symbol, year, month))
	if err != nil {
		return nil, err
	}
	return ReadKlines(bytes.NewReader(data))
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch x := v.(type) {
	case json.Number:
		return decimal.NewFromString(x.String())
	case string:
		return decimal.NewFromString(x)
	}
	return decimal.Decimal{}, fmt.Errorf("unexpected value %v (%T)", v, v)
}

// ToDriftRecords converts klines into hourly Drift candle records.
func ToDriftRecords(ks []Kline) []drift.Record {
	out := make([]drift.Record, 0, len(ks))
	for _, k := range ks {
		start := strconv.FormatInt(k.OpenTime, 10)
		out = append(out, drift.Record{
			"start":       start,
			"open":        k.Open.String(),
			"close":       k.Close.String(),
			"high":        k.High.String(),
			"low":         k.Low.String(),
			"quoteVolume": k.QuoteVolume.String(),
			"baseVolume":  k.Volume.String(),
			"resolution":  string(drift.Hourly),
			"recordKey":   start,
		})
	}
	return out
}

// FillDriftPrices reads the kline dump of binanceSymbol for one month from
// dir and stores it as the Drift price page of driftSymbol in cache.
func FillDriftPrices(dir string, cache *drift.Cache, binanceSymbol, driftSymbol string, year, month int) ([]drift.Record, error) {
	ks, err := LoadKlines(dir, binanceSymbol, year, month)
	if err != nil {
		return nil, err
	}
	recs := ToDriftRecords(ks)
	if err := cache.Store(drift.PricePages, driftSymbol, year, month, recs); err != nil {
		return nil, err
	}
	return recs, nil
}
