package drift

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	t.Run("default url", func(t *testing.T) {
		c := NewClient("", 0, nil)
		assert.Equal(t, DefaultBaseURL, c.baseURL)
		assert.NotNil(t, c.httpClient)
		assert.NotNil(t, c.limiter)
	})

	t.Run("trailing slash trimmed", func(t *testing.T) {
		c := NewClient("http://example.test/", 2, nil)
		assert.Equal(t, "http://example.test", c.baseURL)
	})
}

func TestClientFundingRates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/market/SOL-PERP/funding-rates/2024/3", r.URL.Path)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ts,fundingRate,oraclePriceTwap\n1709254800,1000000,100000000\n1709258400,-2000000,100000000\n"))
	}))
	defer server.Close()

	c := NewClient(server.URL, 0, nil)
	recs, err := c.FundingRates(context.Background(), "SOL-PERP", 2024, 3)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "1709254800", recs[0]["ts"])
	assert.Equal(t, "-2000000", recs[1]["fundingRate"])
}

func TestClientCandlesPath(t *testing.T) {
	var got string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Path
		w.Write([]byte("start,open\n"))
	}))
	defer server.Close()

	c := NewClient(server.URL, 0, nil)
	recs, err := c.Candles(context.Background(), "BTC-PERP", Daily, 2023, 12)
	require.NoError(t, err)
	assert.Empty(t, recs)
	assert.Equal(t, "/market/BTC-PERP/candles/2023/12/resolution/D", got)
}

func TestClientStatusError(t *testing.T) {
	tests := []struct {
		name   string
		code   int
		noData bool
	}{
		{"not found", http.StatusNotFound, true},
		{"forbidden", http.StatusForbidden, true},
		{"server error", http.StatusInternalServerError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.code)
				w.Write([]byte("<Error/>"))
			}))
			defer server.Close()

			c := NewClient(server.URL, 0, nil)
			_, err := c.FundingRates(context.Background(), "SOL-PERP", 2020, 1)
			require.Error(t, err)

			var se *StatusError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tt.code, se.Code)
			assert.Equal(t, tt.noData, isNoData(err))
			assert.Contains(t, err.Error(), "status")
		})
	}
}

func TestClientContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ts\n1\n"))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient(server.URL, 1, nil)
	_, err := c.FundingRates(ctx, "SOL-PERP", 2024, 1)
	assert.Error(t, err)
}

func TestParseCSV(t *testing.T) {
	t.Run("empty body", func(t *testing.T) {
		recs, err := parseCSV(strings.NewReader(""))
		require.NoError(t, err)
		assert.Nil(t, recs)
	})

	t.Run("short and long rows", func(t *testing.T) {
		recs, err := parseCSV(strings.NewReader("a,b,c\n1,2\n4,5,6,7\n"))
		require.NoError(t, err)
		require.Len(t, recs, 2)
		assert.Equal(t, Record{"a": "1", "b": "2"}, recs[0])
		assert.Equal(t, Record{"a": "4", "b": "5", "c": "6"}, recs[1])
	})
}
