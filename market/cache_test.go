package market

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachePath(t *testing.T) {
	assert.Equal(t, filepath.Join("data", "drift_SOL-PERP.csv"), CachePath("data", "drift", "SOL-PERP"))
}

func TestSaveAndLoadBarsCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "drift_BTC-PERP.csv")
	bars := []Bar{
		{Timestamp: 1700000000, Open: 35000.5, High: 35100, Low: 34900.25, Close: 35050, FundingRate: 0.0000125},
		{Timestamp: 1700003600, Open: 35050, High: 35200, Low: 35000, Close: 35150.75, FundingRate: -0.00003},
	}

	require.NoError(t, SaveBarsCSV(path, bars))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	first := strings.SplitN(string(data), "\n", 3)
	assert.Equal(t, "datetime,timestamp,open,high,low,close,funding_rate", first[0])
	assert.True(t, strings.HasPrefix(first[1], "2023-11-14 22:13:20,1700000000,"))

	got, err := LoadBarsCSV(path)
	require.NoError(t, err)
	assert.Equal(t, bars, got)
}

func TestReadBarsCSVFloatTimestampsAndExtraColumns(t *testing.T) {
	in := "datetime,timestamp,open,high,low,close,funding_rate,volume\n" +
		"2024-01-01 00:00:00,1704067200.0,1,2,0.5,1.5,0.0001,42\n"
	got, err := ReadBarsCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(1704067200), got[0].Timestamp)
	assert.Equal(t, 1.5, got[0].Close)
}

func TestReadBarsCSVErrors(t *testing.T) {
	_, err := ReadBarsCSV(strings.NewReader("timestamp,open\n1,2\n"))
	assert.Error(t, err)

	_, err = ReadBarsCSV(strings.NewReader("datetime,timestamp,open,high,low,close,funding_rate\nx,abc,1,1,1,1,0\n"))
	assert.Error(t, err)
}
