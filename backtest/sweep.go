package backtest

import (
	"context"
	"fmt"
	"io"
	"runtime"

	"github.com/rustyeddy/perpbt/market"
	"github.com/rustyeddy/perpbt/sim"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// SweepOptions controls a leverage sweep.
type SweepOptions struct {
	// Workers bounds the number of concurrent runs; 0 uses GOMAXPROCS.
	Workers  int
	RiskFree float64
	Logger   *logrus.Logger
}

// SweepResult is one leverage's outcome.
type SweepResult struct {
	Config  sim.SingleConfig
	States  []sim.LegState
	Summary Summary
}

// Sweep runs one single-leg backtest per leverage concurrently over the
// same read-only bars. Results are returned in the order of leverages.
func Sweep(ctx context.Context, bars []market.Bar, base sim.SingleConfig, leverages []float64, opts SweepOptions) ([]SweepResult, error) {
	log := opts.Logger
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]SweepResult, len(leverages))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, lev := range leverages {
		i, lev := i, lev
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			cfg := base
			cfg.Leverage = lev

			states, err := sim.RunSingleLeg(bars, cfg)
			if err != nil {
				return fmt.Errorf("leverage %v: %w", lev, err)
			}
			sum, err := SummarizeSingle(bars, states, opts.RiskFree)
			if err != nil {
				return fmt.Errorf("leverage %v: %w", lev, err)
			}

			log.WithFields(logrus.Fields{
				"leverage":  lev,
				"final_pnl": sum.FinalPnL,
				"max_dd":    sum.MaxDrawdown,
				"stops":     sum.Stops,
			}).Debug("sweep run complete")

			results[i] = SweepResult{Config: cfg, States: states, Summary: sum}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Best returns the result with the highest final PnL, or false if rs is
// empty.
func Best(rs []SweepResult) (SweepResult, bool) {
	if len(rs) == 0 {
		return SweepResult{}, false
	}
	best := rs[0]
	for _, r := range rs[1:] {
		if r.Summary.FinalPnL > best.Summary.FinalPnL {
			best = r
		}
	}
	return best, true
}
