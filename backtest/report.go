package backtest

import (
	"fmt"
	"io"
	"time"
)

// PrintSummary writes a human-readable report of s.
func PrintSummary(w io.Writer, title string, s Summary) {
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintf(w, " %s\n", title)
	fmt.Fprintln(w, "==================================================")

	if !s.Start.IsZero() {
		fmt.Fprintf(w, "Start:         %s\n", s.Start.Format(time.RFC3339))
		fmt.Fprintf(w, "End:           %s\n", s.End.Format(time.RFC3339))
	}
	fmt.Fprintf(w, "Bars:          %d\n", s.Bars)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Performance")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Final PnL:     %.4f%%\n", s.FinalPnL*100)
	fmt.Fprintf(w, "Max Drawdown:  %.4f%%\n", s.MaxDrawdown*100)
	if s.SharpeOK {
		fmt.Fprintf(w, "Sharpe:        %.4f\n", s.Sharpe)
	} else {
		fmt.Fprintln(w, "Sharpe:        n/a")
	}
	fmt.Fprintf(w, "Hold PnL:      %.4f%%\n", s.HoldPnL*100)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Activity")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Trades:        %d\n", s.Trades)
	fmt.Fprintf(w, "Stops:         %d\n", s.Stops)
	fmt.Fprintf(w, "Fees:          %.6f\n", s.Fees)
	if s.Liquidated {
		fmt.Fprintln(w, "Liquidated:    yes")
	}
	fmt.Fprintln(w)
}

// PrintSweep writes one line per sweep result.
func PrintSweep(w io.Writer, rs []SweepResult) {
	fmt.Fprintf(w, "%-10s %12s %12s %10s %6s %5s\n", "leverage", "final_pnl%", "max_dd%", "sharpe", "stops", "liq")
	for _, r := range rs {
		sharpe := "n/a"
		if r.Summary.SharpeOK {
			sharpe = fmt.Sprintf("%.4f", r.Summary.Sharpe)
		}
		liq := "no"
		if r.Summary.Liquidated {
			liq = "yes"
		}
		fmt.Fprintf(w, "%-10g %12.4f %12.4f %10s %6d %5s\n",
			r.Config.Leverage, r.Summary.FinalPnL*100, r.Summary.MaxDrawdown*100, sharpe, r.Summary.Stops, liq)
	}
}
