package cmd

import (
	"fmt"

	"github.com/rustyeddy/perpbt/backtest"
	"github.com/rustyeddy/perpbt/journal"
	"github.com/rustyeddy/perpbt/pkg/id"
	"github.com/rustyeddy/perpbt/sim"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var singleCmd = &cobra.Command{
	Use:   "single [market]",
	Short: "Run a single-leg leveraged funding backtest",
	Long: `Single opens a leveraged position on bar 0 and carries it through the
history, collecting funding, closing out on a stop-loss breach and
reopening on the next bar, until collateral is exhausted.

Examples:
  perpbt single SOL-PERP --leverage 5
  perpbt single --bars data/drift_SOL-PERP.csv --leverage 3 --org runs/sol.org`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSingle,
}

// runFlags are shared by the backtest commands.
type runFlags struct {
	bars     string
	refresh  bool
	leverage float64
	fee      float64
	org      string
}

var singleFlags runFlags

func init() {
	rootCmd.AddCommand(singleCmd)
	addRunFlags(singleCmd, &singleFlags)
}

func addRunFlags(c *cobra.Command, f *runFlags) {
	c.Flags().StringVarP(&f.bars, "bars", "b", "", "bar CSV to use instead of the market cache")
	c.Flags().BoolVar(&f.refresh, "refresh", false, "download history even when a bar cache exists")
	c.Flags().Float64VarP(&f.leverage, "leverage", "l", 0, "leverage (overrides config)")
	c.Flags().Float64Var(&f.fee, "fee", -1, "fee rate (overrides config)")
	c.Flags().StringVar(&f.org, "org", "", "write an Org-mode run report to this path")
}

func (f runFlags) applySingle(c sim.SingleConfig) sim.SingleConfig {
	if f.leverage > 0 {
		c.Leverage = f.leverage
	}
	if f.fee >= 0 {
		c.FeeRate = f.fee
	}
	return c
}

func (f runFlags) applyDual(c sim.DualConfig) sim.DualConfig {
	if f.leverage > 0 {
		c.Leverage = f.leverage
	}
	if f.fee >= 0 {
		c.FeeRate = f.fee
	}
	return c
}

func argOr(args []string, def string) string {
	if len(args) > 0 {
		return args[0]
	}
	return def
}

func runSingle(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	symbol := argOr(args, cfg.Data.Market)

	bars, err := loadBars(ctx, singleFlags.bars, symbol, singleFlags.refresh)
	if err != nil {
		return err
	}

	sc := singleFlags.applySingle(cfg.Single)
	states, err := sim.RunSingleLeg(bars, sc)
	if err != nil {
		return fmt.Errorf("single leg: %w", err)
	}
	sum, err := backtest.SummarizeSingle(bars, states, cfg.Metrics.RiskFreeRate)
	if err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"market":    symbol,
		"leverage":  sc.Leverage,
		"bars":      len(bars),
		"final_pnl": sum.FinalPnL,
	}).Info("single-leg backtest complete")

	out := cmd.OutOrStdout()
	backtest.PrintSummary(out, fmt.Sprintf("SINGLE %s x%g", symbol, sc.Leverage), sum)

	rec, err := journal.NewRunRecord(id.New(), journal.KindSingle, sc, sum)
	if err != nil {
		return err
	}
	rec.Exchange = cfg.Data.Exchange
	rec.Market = symbol
	return record(ctx, out, rec, []journal.Leg{{Name: "single", States: states}}, sc.Leverage, singleFlags.org)
}
