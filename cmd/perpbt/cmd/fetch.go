package cmd

import (
	"fmt"
	"time"

	"github.com/rustyeddy/perpbt/binance"
	"github.com/rustyeddy/perpbt/drift"
	"github.com/rustyeddy/perpbt/market"
	"github.com/spf13/cobra"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [market...]",
	Short: "Download, align and cache hourly bars",
	Long: `Fetch downloads the full funding-rate history and hourly prices of each
market, aligns them into bars and writes the bar CSV cache.

Monthly pages are cached under <cache_dir>/drift; the current month is
always downloaded again.

Example:
  perpbt fetch SOL-PERP BTC-PERP`,
	RunE: runFetch,
}

var marketsCmd = &cobra.Command{
	Use:   "markets",
	Short: "List known perp markets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m := drift.DefaultMarkets()
		for _, sym := range m.ListMarkets() {
			base, _ := m.MarketBase(sym)
			fmt.Fprintf(cmd.OutOrStdout(), "%-14s %s\n", sym, base)
		}
		return nil
	},
}

var fundingCmd = &cobra.Command{
	Use:   "funding <market>",
	Short: "Show annualized average funding rates",
	Args:  cobra.ExactArgs(1),
	RunE:  runFunding,
}

var volumeCmd = &cobra.Command{
	Use:   "volume <market>",
	Short: "Show the latest daily base volume",
	Args:  cobra.ExactArgs(1),
	RunE:  runVolume,
}

var backfillCmd = &cobra.Command{
	Use:   "backfill <binance-symbol> <year> <month>",
	Short: "Fill a missing Drift price month from a Binance kline dump",
	Long: `Backfill converts <dir>/binance/prices/<SYMBOL>/<SYMBOL>_<year>_<month>.json
into the Drift hourly price page of the matching perp market.

Example:
  perpbt backfill BTCUSDT 2023 10`,
	Args: cobra.ExactArgs(3),
	RunE: runBackfill,
}

var (
	fetchNoRefresh   bool
	backfillDir      string
	backfillDriftSym string
)

func init() {
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(marketsCmd)
	rootCmd.AddCommand(fundingCmd)
	rootCmd.AddCommand(volumeCmd)
	rootCmd.AddCommand(backfillCmd)

	fetchCmd.Flags().BoolVar(&fetchNoRefresh, "no-refresh", false, "keep an existing bar cache")
	backfillCmd.Flags().StringVar(&backfillDir, "dir", "", "directory holding binance/prices (defaults to cache_dir)")
	backfillCmd.Flags().StringVar(&backfillDriftSym, "market", "", "target perp market (defaults to the known mapping)")
}

func runFetch(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		args = []string{cfg.Data.Market}
	}

	out := cmd.OutOrStdout()
	for _, sym := range args {
		bars, err := loadBars(cmd.Context(), "", sym, !fetchNoRefresh)
		if err != nil {
			return fmt.Errorf("%s: %w", sym, err)
		}
		path := market.CachePath(cfg.Data.CacheDir, cfg.Data.Exchange, sym)
		if len(bars) == 0 {
			fmt.Fprintf(out, "%s: no bars\n", sym)
			continue
		}
		fmt.Fprintf(out, "%s: %d bars %s .. %s -> %s\n", sym, len(bars),
			bars[0].Time().Format(time.RFC3339), bars[len(bars)-1].Time().Format(time.RFC3339), path)
	}
	return nil
}

func runFunding(cmd *cobra.Command, args []string) error {
	rates, err := newFetcher().AnnualizedFundingRate(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s annualized average funding rate\n", args[0])
	for _, r := range rates {
		fmt.Fprintf(out, "  %-9s %10.4f%%\n", r.Window, r.Rate*100)
	}
	return nil
}

func runVolume(cmd *cobra.Command, args []string) error {
	v, err := newFetcher().Volume24h(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s volume %g\n",
		v.Market, time.UnixMilli(v.Timestamp).UTC().Format("2006-01-02"), v.Volume)
	return nil
}

func runBackfill(cmd *cobra.Command, args []string) error {
	var year, month int
	if _, err := fmt.Sscanf(args[1]+" "+args[2], "%d %d", &year, &month); err != nil || month < 1 || month > 12 {
		return fmt.Errorf("year/month: %q %q", args[1], args[2])
	}

	sym := args[0]
	target := backfillDriftSym
	if target == "" {
		var ok bool
		if target, ok = binance.DriftSymbols[sym]; !ok {
			return fmt.Errorf("no perp market known for %s; pass --market", sym)
		}
	}
	dir := backfillDir
	if dir == "" {
		dir = cfg.Data.CacheDir
	}

	cache := drift.NewCache(cfg.Data.CacheDir, log)
	recs, err := binance.FillDriftPrices(dir, cache, sym, target, year, month)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ %d candles -> %s\n", len(recs), cache.Path(drift.PricePages, target, year, month))
	return nil
}
