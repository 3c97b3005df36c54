package journal

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

type SQLite struct {
	db  *sql.DB
	log *logrus.Logger
}

// NewSQLite opens (or creates) the journal database at path and applies
// the schema. A nil logger discards log output.
func NewSQLite(path string, log *logrus.Logger) (*SQLite, error) {
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db, log: log}, nil
}

// RecordRun stores the run row and every leg state in one transaction.
func (j *SQLite) RecordRun(ctx context.Context, r RunRecord, legs []Leg) error {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var sharpe sql.NullFloat64
	if r.Sharpe != nil {
		sharpe = sql.NullFloat64{Float64: *r.Sharpe, Valid: true}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO backtest_runs
		(run_id, created, kind, exchange, market, short_market, config, start_time, end_time, bars,
		 final_pnl, max_drawdown, sharpe, trades, stops, fees, liquidated, hold_pnl)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Created, r.Kind, r.Exchange, r.Market, r.ShortMarket, string(r.Config), r.Start, r.End, r.Bars,
		r.FinalPnL, r.MaxDrawdown, sharpe, r.Trades, r.Stops, r.Fees, r.Liquidated, r.HoldPnL,
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", r.RunID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO leg_states
		(run_id, leg, idx, kind, ts, price, funding_rate, collateral, leverage, direction, entry_price,
		 position_size, change, change_pnl, funding, funding_accrued, margin, maintenance_threshold,
		 stop_loss_threshold, is_liquidated, is_stopped_out, fee_charged, injection, equity, realized_pnl)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, leg := range legs {
		for i, s := range leg.States {
			_, err := stmt.ExecContext(ctx,
				r.RunID, leg.Name, i, s.Kind.String(), s.Timestamp, s.Price, s.Rate, s.Collateral,
				s.Leverage, int(s.Direction), s.EntryPrice, s.PositionSize, s.Change, s.ChangePnL,
				s.Funding, s.FundingAccrued, s.Margin, s.MaintenanceThreshold, s.StopLossThreshold,
				s.IsLiquidated, s.IsStoppedOut, s.FeeCharged, s.Injection, s.Equity, s.RealizedPnL,
			)
			if err != nil {
				return fmt.Errorf("insert %s state %d: %w", leg.Name, i, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	j.log.WithFields(logrus.Fields{
		"run_id": r.RunID,
		"kind":   r.Kind,
		"market": r.Market,
		"legs":   len(legs),
	}).Info("recorded backtest run")
	return nil
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
