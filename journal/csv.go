package journal

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rustyeddy/perpbt/sim"
)

var runsHeader = []string{
	"run_id", "created", "kind", "exchange", "market", "short_market", "start", "end", "bars",
	"final_pnl", "max_drawdown", "sharpe", "trades", "stops", "fees", "liquidated", "hold_pnl",
}

var legHeader = []string{
	"kind", "timestamp", "price", "funding_rate", "collateral", "leverage", "direction",
	"entry_price", "position_size", "change", "change_pnl", "funding", "funding_accrued",
	"margin", "maintenance_threshold", "stop_loss_threshold", "is_liquidated", "is_stopped_out",
	"fee_charged", "injection", "equity", "realized_pnl",
}

// CSVJournal appends run summaries to runs.csv in dir and writes each leg
// trajectory to {run_id}_{leg}.csv next to it.
type CSVJournal struct {
	dir  string
	runs *csv.Writer
	rf   *os.File
}

func NewCSV(dir string) (*CSVJournal, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	path := filepath.Join(dir, "runs.csv")
	_, statErr := os.Stat(path)
	fresh := os.IsNotExist(statErr)

	rf, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}

	rw := csv.NewWriter(rf)
	if fresh {
		if err := rw.Write(runsHeader); err != nil {
			rf.Close()
			return nil, err
		}
		rw.Flush()
		if err := rw.Error(); err != nil {
			rf.Close()
			return nil, err
		}
	}

	return &CSVJournal{dir: dir, runs: rw, rf: rf}, nil
}

func (j *CSVJournal) RecordRun(ctx context.Context, r RunRecord, legs []Leg) error {
	for _, leg := range legs {
		if err := ctx.Err(); err != nil {
			return err
		}
		path := filepath.Join(j.dir, fmt.Sprintf("%s_%s.csv", r.RunID, leg.Name))
		if err := writeLegCSV(path, leg.States); err != nil {
			return err
		}
	}

	sharpe := ""
	if r.Sharpe != nil {
		sharpe = f(*r.Sharpe)
	}
	err := j.runs.Write([]string{
		r.RunID,
		r.Created.Format(time.RFC3339),
		r.Kind,
		r.Exchange,
		r.Market,
		r.ShortMarket,
		r.Start.Format(time.RFC3339),
		r.End.Format(time.RFC3339),
		strconv.Itoa(r.Bars),
		f(r.FinalPnL),
		f(r.MaxDrawdown),
		sharpe,
		strconv.Itoa(r.Trades),
		strconv.Itoa(r.Stops),
		f(r.Fees),
		strconv.FormatBool(r.Liquidated),
		f(r.HoldPnL),
	})
	if err != nil {
		return err
	}
	j.runs.Flush()
	return j.runs.Error()
}

func (j *CSVJournal) Close() error {
	j.runs.Flush()
	if err := j.runs.Error(); err != nil {
		return err
	}
	return j.rf.Close()
}

// writeLegCSV writes a single trajectory with a header row.
func writeLegCSV(path string, states []sim.LegState) error {
	fh, err := os.Create(path)
	if err != nil {
		return err
	}
	defer fh.Close()

	w := csv.NewWriter(fh)
	if err := w.Write(legHeader); err != nil {
		return err
	}
	for _, s := range states {
		err := w.Write([]string{
			s.Kind.String(),
			strconv.FormatInt(s.Timestamp, 10),
			f(s.Price),
			f(s.Rate),
			f(s.Collateral),
			f(s.Leverage),
			strconv.Itoa(int(s.Direction)),
			f(s.EntryPrice),
			f(s.PositionSize),
			f(s.Change),
			f(s.ChangePnL),
			f(s.Funding),
			f(s.FundingAccrued),
			f(s.Margin),
			f(s.MaintenanceThreshold),
			f(s.StopLossThreshold),
			strconv.FormatBool(s.IsLiquidated),
			strconv.FormatBool(s.IsStoppedOut),
			f(s.FeeCharged),
			f(s.Injection),
			f(s.Equity),
			f(s.RealizedPnL),
		})
		if err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return fh.Close()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'g', -1, 64)
}
