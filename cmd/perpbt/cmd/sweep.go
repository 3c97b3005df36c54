package cmd

import (
	"fmt"

	"github.com/rustyeddy/perpbt/backtest"
	"github.com/spf13/cobra"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep [market]",
	Short: "Run single-leg backtests over a range of leverages",
	Long: `Sweep runs one single-leg backtest per leverage concurrently over the
same bars and prints a comparison table.

Example:
  perpbt sweep SOL-PERP --leverages 1,2,5,10`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSweep,
}

var (
	sweepFlags     runFlags
	sweepLeverages []float64
	sweepWorkers   int
)

func init() {
	rootCmd.AddCommand(sweepCmd)
	sweepCmd.Flags().StringVarP(&sweepFlags.bars, "bars", "b", "", "bar CSV to use instead of the market cache")
	sweepCmd.Flags().BoolVar(&sweepFlags.refresh, "refresh", false, "download history even when a bar cache exists")
	sweepCmd.Flags().Float64Var(&sweepFlags.fee, "fee", -1, "fee rate (overrides config)")
	sweepCmd.Flags().Float64SliceVar(&sweepLeverages, "leverages", nil, "leverages to try (overrides config)")
	sweepCmd.Flags().IntVarP(&sweepWorkers, "workers", "w", 0, "concurrent runs (overrides config)")
}

func runSweep(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	symbol := argOr(args, cfg.Data.Market)

	bars, err := loadBars(ctx, sweepFlags.bars, symbol, sweepFlags.refresh)
	if err != nil {
		return err
	}

	levs := cfg.Sweep.Leverages
	if len(sweepLeverages) > 0 {
		levs = sweepLeverages
	}
	workers := cfg.Sweep.Workers
	if sweepWorkers > 0 {
		workers = sweepWorkers
	}

	rs, err := backtest.Sweep(ctx, bars, sweepFlags.applySingle(cfg.Single), levs, backtest.SweepOptions{
		Workers:  workers,
		RiskFree: cfg.Metrics.RiskFreeRate,
		Logger:   log,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Sweep %s (%d bars)\n\n", symbol, len(bars))
	backtest.PrintSweep(out, rs)
	if best, ok := backtest.Best(rs); ok {
		fmt.Fprintf(out, "\nBest leverage: %g (final pnl %.4f%%)\n", best.Config.Leverage, best.Summary.FinalPnL*100)
	}
	return nil
}
