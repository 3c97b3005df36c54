package cmd

import (
	"fmt"

	"github.com/rustyeddy/perpbt/backtest"
	"github.com/rustyeddy/perpbt/journal"
	"github.com/rustyeddy/perpbt/market"
	"github.com/rustyeddy/perpbt/pkg/id"
	"github.com/rustyeddy/perpbt/sim"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var dualCmd = &cobra.Command{
	Use:   "dual [long-market short-market]",
	Short: "Run a delta-neutral long/short funding backtest",
	Long: `Dual holds a long position on one market and a short position on
another, splitting the collateral between them. When either leg breaches
its stop-loss both legs are closed, collateral is rebalanced and both are
reopened on the next bar.

The short leg's funding rates are rescaled to the long leg's funding
frequency before the run.

Examples:
  perpbt dual SOL-PERP SOL-PERP --leverage 3
  perpbt dual --long-bars long.csv --short-bars short.csv`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 0 && len(args) != 2 {
			return fmt.Errorf("want 0 or 2 markets, got %d", len(args))
		}
		return nil
	},
	RunE: runDual,
}

var (
	dualFlags     runFlags
	dualShortBars string
)

func init() {
	rootCmd.AddCommand(dualCmd)
	addRunFlags(dualCmd, &dualFlags)
	dualCmd.Flags().StringVar(&dualShortBars, "short-bars", "", "bar CSV of the short leg")
	dualCmd.Flags().Lookup("bars").Usage = "bar CSV of the long leg"
	dualCmd.Flags().StringVar(&dualFlags.bars, "long-bars", "", "alias of --bars")
}

func runDual(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	longSym, shortSym := cfg.Data.LongMarket, cfg.Data.ShortMarket
	if len(args) == 2 {
		longSym, shortSym = args[0], args[1]
	}

	long, err := loadBars(ctx, dualFlags.bars, longSym, dualFlags.refresh)
	if err != nil {
		return fmt.Errorf("long leg: %w", err)
	}
	short, err := loadBars(ctx, dualShortBars, shortSym, dualFlags.refresh)
	if err != nil {
		return fmt.Errorf("short leg: %w", err)
	}

	dc := dualFlags.applyDual(cfg.Dual)
	long, short, err = market.PairLegs(long, short, dc.LongFundingFreq, dc.ShortFundingFreq, market.DefaultTolerance)
	if err != nil {
		return fmt.Errorf("pair legs: %w", err)
	}

	run, err := sim.RunDualLeg(long, short, dc)
	if err != nil {
		return fmt.Errorf("dual leg: %w", err)
	}
	sum, err := backtest.SummarizeDual(long, run, cfg.Metrics.RiskFreeRate)
	if err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"long":      longSym,
		"short":     shortSym,
		"leverage":  dc.Leverage,
		"bars":      run.Len(),
		"final_pnl": sum.FinalPnL,
	}).Info("dual-leg backtest complete")

	out := cmd.OutOrStdout()
	backtest.PrintSummary(out, fmt.Sprintf("DUAL long %s / short %s x%g", longSym, shortSym, dc.Leverage), sum)

	rec, err := journal.NewRunRecord(id.New(), journal.KindDual, dc, sum)
	if err != nil {
		return err
	}
	rec.Exchange = cfg.Data.Exchange
	rec.Market = longSym
	rec.ShortMarket = shortSym
	legs := []journal.Leg{
		{Name: "long", States: run.Long},
		{Name: "short", States: run.Short},
	}
	return record(ctx, out, rec, legs, dc.Leverage, dualFlags.org)
}
