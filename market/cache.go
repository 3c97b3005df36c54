package market

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const cacheTimeLayout = "2006-01-02 15:04:05"

var cacheHeader = []string{"datetime", "timestamp", "open", "high", "low", "close", "funding_rate"}

// CachePath returns the CSV cache location for an exchange/market pair.
func CachePath(dir, exchange, market string) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s.csv", exchange, market))
}

// SaveBarsCSV writes bars to path, creating parent directories.
func SaveBarsCSV(path string, bars []Bar) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := WriteBarsCSV(f, bars); err != nil {
		return err
	}
	return f.Close()
}

// WriteBarsCSV writes the cache header followed by one row per bar.
func WriteBarsCSV(w io.Writer, bars []Bar) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(cacheHeader); err != nil {
		return err
	}
	for _, b := range bars {
		err := cw.Write([]string{
			b.Time().Format(cacheTimeLayout),
			strconv.FormatInt(b.Timestamp, 10),
			ff(b.Open),
			ff(b.High),
			ff(b.Low),
			ff(b.Close),
			ff(b.FundingRate),
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// LoadBarsCSV reads a cache file written by SaveBarsCSV.
func LoadBarsCSV(path string) ([]Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadBarsCSV(f)
}

// ReadBarsCSV parses cache rows. Columns are located by header name so
// files with extra columns still load.
func ReadBarsCSV(r io.Reader) ([]Bar, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := map[string]int{}
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, name := range cacheHeader[1:] {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}

	var bars []Bar
	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		if len(row) < len(header) {
			return nil, fmt.Errorf("line %d: want %d columns, got %d", line, len(header), len(row))
		}

		var b Bar
		ts, err := strconv.ParseFloat(strings.TrimSpace(row[col["timestamp"]]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad timestamp: %w", line, err)
		}
		b.Timestamp = int64(ts)

		fields := []struct {
			name string
			dst  *float64
		}{
			{"open", &b.Open},
			{"high", &b.High},
			{"low", &b.Low},
			{"close", &b.Close},
			{"funding_rate", &b.FundingRate},
		}
		for _, fd := range fields {
			v, err := strconv.ParseFloat(strings.TrimSpace(row[col[fd.name]]), 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: bad %s: %w", line, fd.name, err)
			}
			*fd.dst = v
		}
		bars = append(bars, b)
	}
	return bars, nil
}

func ff(x float64) string {
	return strconv.FormatFloat(x, 'g', -1, 64)
}
