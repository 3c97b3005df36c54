package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rustyeddy/perpbt/drift"
	"github.com/rustyeddy/perpbt/market"
	"github.com/sirupsen/logrus"
)

func newFetcher() *drift.Fetcher {
	client := drift.NewClient(cfg.Data.BaseURL, cfg.Data.RequestsPerSecond, log)
	return drift.NewFetcher(client, drift.NewCache(cfg.Data.CacheDir, log), log)
}

// loadBars returns the aligned bars of symbol. barsPath, when set, is read
// as a bar CSV. Otherwise the exchange's CSV bar cache is used, and
// rebuilt from the exchange history when missing or when refresh is set.
func loadBars(ctx context.Context, barsPath, symbol string, refresh bool) ([]market.Bar, error) {
	if barsPath != "" {
		bars, err := market.LoadBarsCSV(barsPath)
		if err != nil {
			return nil, fmt.Errorf("load bars: %w", err)
		}
		log.WithFields(logrus.Fields{"path": barsPath, "bars": len(bars)}).Debug("bars loaded")
		return bars, nil
	}
	if symbol == "" {
		return nil, errors.New("no market given")
	}

	path := market.CachePath(cfg.Data.CacheDir, cfg.Data.Exchange, symbol)
	if !refresh {
		bars, err := market.LoadBarsCSV(path)
		if err == nil {
			log.WithFields(logrus.Fields{"path": path, "bars": len(bars)}).Debug("bar cache hit")
			return bars, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load bar cache: %w", err)
		}
	}

	bs, err := fetchBarSet(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if err := market.SaveBarsCSV(path, bs.Bars); err != nil {
		return nil, fmt.Errorf("save bar cache: %w", err)
	}
	return bs.Bars, nil
}

func fetchBarSet(ctx context.Context, symbol string) (*market.BarSet, error) {
	if cfg.Data.Exchange != drift.Exchange {
		return nil, fmt.Errorf("exchange %q: only %q history can be downloaded", cfg.Data.Exchange, drift.Exchange)
	}
	if !drift.DefaultMarkets().Has(symbol) {
		log.WithField("market", symbol).Warn("market not in the known market table")
	}

	bs, err := newFetcher().FetchBars(ctx, symbol)
	if err != nil {
		return nil, err
	}

	st := bs.Stats()
	log.WithFields(logrus.Fields{
		"market":      symbol,
		"bars":        st.Bars,
		"filled":      st.Filled,
		"dropped":     st.Dropped,
		"longest_gap": st.LongestGap,
	}).Info("bars aligned")
	return bs, nil
}
