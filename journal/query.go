package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rustyeddy/perpbt/sim"
)

const runColumns = `run_id, created, kind, exchange, market, short_market, config, start_time, end_time, bars,
	final_pnl, max_drawdown, sharpe, trades, stops, fees, liquidated, hold_pnl`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (RunRecord, error) {
	var (
		r      RunRecord
		config string
		sharpe sql.NullFloat64
	)
	err := row.Scan(
		&r.RunID, &r.Created, &r.Kind, &r.Exchange, &r.Market, &r.ShortMarket, &config, &r.Start, &r.End, &r.Bars,
		&r.FinalPnL, &r.MaxDrawdown, &sharpe, &r.Trades, &r.Stops, &r.Fees, &r.Liquidated, &r.HoldPnL,
	)
	if err != nil {
		return RunRecord{}, err
	}
	r.Config = []byte(config)
	if sharpe.Valid {
		v := sharpe.Float64
		r.Sharpe = &v
	}
	return r, nil
}

// GetRun returns a single run by ID.
func (j *SQLite) GetRun(ctx context.Context, runID string) (RunRecord, error) {
	row := j.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM backtest_runs WHERE run_id = ?`, runID)
	r, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return RunRecord{}, fmt.Errorf("run %q not found", runID)
		}
		return RunRecord{}, err
	}
	return r, nil
}

// ListRuns returns the most recent runs first, at most limit rows (all if
// limit <= 0).
func (j *SQLite) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	q := `SELECT ` + runColumns + ` FROM backtest_runs ORDER BY created DESC, run_id DESC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := j.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListLegStates returns the trajectory of one leg of a run in bar order.
func (j *SQLite) ListLegStates(ctx context.Context, runID, leg string) ([]sim.LegState, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT kind, ts, price, funding_rate, collateral, leverage, direction, entry_price, position_size,
		       change, change_pnl, funding, funding_accrued, margin, maintenance_threshold, stop_loss_threshold,
		       is_liquidated, is_stopped_out, fee_charged, injection, equity, realized_pnl
		FROM leg_states
		WHERE run_id = ? AND leg = ?
		ORDER BY idx ASC`, runID, leg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []sim.LegState
	for rows.Next() {
		var (
			s    sim.LegState
			kind string
			dir  int
		)
		if err := rows.Scan(
			&kind, &s.Timestamp, &s.Price, &s.Rate, &s.Collateral, &s.Leverage, &dir, &s.EntryPrice,
			&s.PositionSize, &s.Change, &s.ChangePnL, &s.Funding, &s.FundingAccrued, &s.Margin,
			&s.MaintenanceThreshold, &s.StopLossThreshold, &s.IsLiquidated, &s.IsStoppedOut,
			&s.FeeCharged, &s.Injection, &s.Equity, &s.RealizedPnL,
		); err != nil {
			return nil, err
		}
		if s.Kind, err = sim.ParseStepKind(kind); err != nil {
			return nil, err
		}
		s.Direction = sim.Side(dir)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// LegNames returns the names of the legs stored for a run.
func (j *SQLite) LegNames(ctx context.Context, runID string) ([]string, error) {
	rows, err := j.db.QueryContext(ctx, `SELECT DISTINCT leg FROM leg_states WHERE run_id = ? ORDER BY leg`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}
