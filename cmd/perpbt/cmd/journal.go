package cmd

import (
	"fmt"
	"time"

	"github.com/rustyeddy/perpbt/journal"
	"github.com/spf13/cobra"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query recorded backtest runs",
	Long: `Query and display backtest runs from the SQLite journal.

Subcommands:
  list  - List recent runs
  show  - Show one run as an Org-mode report
  legs  - Dump the per-bar states of one leg as CSV

Examples:
  perpbt journal list -n 20
  perpbt journal show 01HV5Z...
  perpbt journal legs 01HV5Z... short`,
}

var journalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs",
	Args:  cobra.NoArgs,
	RunE:  runJournalList,
}

var journalShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show a run as an Org-mode report",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalShow,
}

var journalLegsCmd = &cobra.Command{
	Use:   "legs <run-id> [leg]",
	Short: "Dump the states of a run leg",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runJournalLegs,
}

var (
	journalDBPath string
	journalLimit  int
)

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalListCmd)
	journalCmd.AddCommand(journalShowCmd)
	journalCmd.AddCommand(journalLegsCmd)

	journalCmd.PersistentFlags().StringVarP(&journalDBPath, "db", "d", "", "path to SQLite journal DB (defaults to journal.db_path)")
	journalListCmd.Flags().IntVarP(&journalLimit, "limit", "n", 20, "maximum runs to list (0 for all)")
}

func openSQLite() (*journal.SQLite, error) {
	path := journalDBPath
	if path == "" {
		path = cfg.Journal.DBPath
	}
	j, err := journal.NewSQLite(path, log)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return j, nil
}

func runJournalList(cmd *cobra.Command, args []string) error {
	j, err := openSQLite()
	if err != nil {
		return err
	}
	defer j.Close()

	runs, err := j.ListRuns(cmd.Context(), journalLimit)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-26s %-6s %-22s %-16s %6s %12s %5s\n", "run_id", "kind", "market", "created", "bars", "final_pnl%", "liq")
	for _, r := range runs {
		mkt := r.Market
		if r.ShortMarket != "" {
			mkt += "/" + r.ShortMarket
		}
		liq := "no"
		if r.Liquidated {
			liq = "yes"
		}
		fmt.Fprintf(out, "%-26s %-6s %-22s %-16s %6d %12.4f %5s\n",
			r.RunID, r.Kind, mkt, r.Created.Local().Format("2006-01-02 15:04"), r.Bars, r.FinalPnL*100, liq)
	}
	return nil
}

func runJournalShow(cmd *cobra.Command, args []string) error {
	j, err := openSQLite()
	if err != nil {
		return err
	}
	defer j.Close()

	rec, err := j.GetRun(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("get run: %w", err)
	}

	r := &journal.RunReport{RunRecord: rec}
	if states, err := j.ListLegStates(cmd.Context(), rec.RunID, firstLeg(rec)); err == nil && len(states) > 0 {
		r.Leverage = states[0].Leverage
	}
	return r.RenderOrg(cmd.OutOrStdout())
}

func runJournalLegs(cmd *cobra.Command, args []string) error {
	j, err := openSQLite()
	if err != nil {
		return err
	}
	defer j.Close()

	ctx := cmd.Context()
	leg := ""
	if len(args) == 2 {
		leg = args[1]
	} else {
		rec, err := j.GetRun(ctx, args[0])
		if err != nil {
			return fmt.Errorf("get run: %w", err)
		}
		leg = firstLeg(rec)
	}

	states, err := j.ListLegStates(ctx, args[0], leg)
	if err != nil {
		return fmt.Errorf("leg states: %w", err)
	}
	if len(states) == 0 {
		names, _ := j.LegNames(ctx, args[0])
		return fmt.Errorf("run %s has no leg %q (legs: %v)", args[0], leg, names)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "time,kind,price,funding_rate,collateral,margin,stop_loss_threshold,stopped_out,realized_pnl")
	for _, s := range states {
		fmt.Fprintf(out, "%s,%s,%g,%g,%g,%g,%g,%t,%g\n",
			time.Unix(s.Timestamp, 0).UTC().Format(time.RFC3339), s.Kind, s.Price, s.Rate,
			s.Collateral, s.Margin, s.StopLossThreshold, s.IsStoppedOut, s.RealizedPnL)
	}
	return nil
}

func firstLeg(rec journal.RunRecord) string {
	if rec.Kind == journal.KindDual {
		return "long"
	}
	return "single"
}
