package drift

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the public Drift historical data bucket for the
	// main program.
	DefaultBaseURL = "https://drift-historical-data.s3.eu-west-1.amazonaws.com/program/dRiftyHA39MWEi3m9aunc5MzRF1JYuBsbn6VPcn33UH"

	// DefaultRequestsPerSecond throttles page downloads.
	DefaultRequestsPerSecond = 5
)

// Resolution is a candle resolution as used in the history paths.
type Resolution string

const (
	Hourly Resolution = "60"
	Daily  Resolution = "D"
)

// Record is one CSV row keyed by the header names.
type Record map[string]string

// StatusError is returned when the history bucket answers with a non-200
// status.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("drift: %s: status %d", e.URL, e.Code)
}

// NoData reports whether the status means the month has no published file.
func (e *StatusError) NoData() bool {
	return e.Code == http.StatusNotFound || e.Code == http.StatusForbidden
}

func isNoData(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.NoData()
}

// Client downloads raw monthly CSV pages.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	log        *logrus.Logger
}

// NewClient creates a client for baseURL (DefaultBaseURL when empty).
// rps <= 0 disables throttling. A nil logger discards output.
func NewClient(baseURL string, rps float64, log *logrus.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(limit, 1),
		log:     orDiscard(log),
	}
}

// FundingRates fetches the funding-rate page of one month.
func (c *Client) FundingRates(ctx context.Context, symbol string, year, month int) ([]Record, error) {
	return c.get(ctx, fmt.Sprintf("/market/%s/funding-rates/%d/%d", symbol, year, month))
}

// Candles fetches the candle page of one month at the given resolution.
func (c *Client) Candles(ctx context.Context, symbol string, res Resolution, year, month int) ([]Record, error) {
	return c.get(ctx, fmt.Sprintf("/market/%s/candles/%d/%d/resolution/%s", symbol, year, month, res))
}

func (c *Client) get(ctx context.Context, path string) ([]Record, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		c.log.WithFields(logrus.Fields{"url": url, "status": resp.StatusCode}).Debug("drift page unavailable")
		return nil, &StatusError{Code: resp.StatusCode, URL: url}
	}

	recs, err := parseCSV(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", url, err)
	}
	c.log.WithFields(logrus.Fields{"url": url, "rows": len(recs)}).Debug("drift page fetched")
	return recs, nil
}

// parseCSV turns a headed CSV body into records. Short rows keep only the
// columns they have.
func parseCSV(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var out []Record
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(row) == 1 && row[0] == "" {
			continue
		}
		rec := make(Record, len(header))
		for i, v := range row {
			if i >= len(header) {
				break
			}
			rec[header[i]] = v
		}
		out = append(out, rec)
	}
	return out, nil
}

func orDiscard(log *logrus.Logger) *logrus.Logger {
	if log != nil {
		return log
	}
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
