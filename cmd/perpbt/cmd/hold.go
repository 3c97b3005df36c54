package cmd

import (
	"fmt"

	"github.com/rustyeddy/perpbt/backtest"
	"github.com/spf13/cobra"
)

var holdCmd = &cobra.Command{
	Use:   "hold [market]",
	Short: "Show the buy-and-hold baseline",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHold,
}

var holdFlags runFlags

func init() {
	rootCmd.AddCommand(holdCmd)
	holdCmd.Flags().StringVarP(&holdFlags.bars, "bars", "b", "", "bar CSV to use instead of the market cache")
	holdCmd.Flags().BoolVar(&holdFlags.refresh, "refresh", false, "download history even when a bar cache exists")
}

func runHold(cmd *cobra.Command, args []string) error {
	symbol := argOr(args, cfg.Data.Market)
	bars, err := loadBars(cmd.Context(), holdFlags.bars, symbol, holdFlags.refresh)
	if err != nil {
		return err
	}

	hold := backtest.HoldBaseline(bars)
	out := cmd.OutOrStdout()
	if len(hold) == 0 {
		fmt.Fprintf(out, "%s: no bars\n", symbol)
		return nil
	}
	fmt.Fprintf(out, "%s buy-and-hold over %d bars\n", symbol, len(hold))
	fmt.Fprintf(out, "  Final:        %.4f%%\n", hold[len(hold)-1]*100)
	fmt.Fprintf(out, "  Max Drawdown: %.4f%%\n", backtest.MaxDrawdown(hold)*100)
	return nil
}
