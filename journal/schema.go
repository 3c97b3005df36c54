package journal

const Schema = `
CREATE TABLE IF NOT EXISTS backtest_runs (
	run_id TEXT PRIMARY KEY,
	created DATETIME NOT NULL,
	kind TEXT NOT NULL,
	exchange TEXT NOT NULL,
	market TEXT NOT NULL,
	short_market TEXT NOT NULL DEFAULT '',
	config TEXT NOT NULL,
	start_time DATETIME NOT NULL,
	end_time DATETIME NOT NULL,
	bars INTEGER NOT NULL,
	final_pnl REAL NOT NULL,
	max_drawdown REAL NOT NULL,
	sharpe REAL,
	trades INTEGER NOT NULL,
	stops INTEGER NOT NULL,
	fees REAL NOT NULL,
	liquidated BOOLEAN NOT NULL,
	hold_pnl REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS leg_states (
	run_id TEXT NOT NULL REFERENCES backtest_runs(run_id) ON DELETE CASCADE,
	leg TEXT NOT NULL,
	idx INTEGER NOT NULL,
	kind TEXT NOT NULL,
	ts INTEGER NOT NULL,
	price REAL NOT NULL,
	funding_rate REAL NOT NULL,
	collateral REAL NOT NULL,
	leverage REAL NOT NULL,
	direction INTEGER NOT NULL,
	entry_price REAL NOT NULL,
	position_size REAL NOT NULL,
	change REAL NOT NULL,
	change_pnl REAL NOT NULL,
	funding REAL NOT NULL,
	funding_accrued REAL NOT NULL,
	margin REAL NOT NULL,
	maintenance_threshold REAL NOT NULL,
	stop_loss_threshold REAL NOT NULL,
	is_liquidated BOOLEAN NOT NULL,
	is_stopped_out BOOLEAN NOT NULL,
	fee_charged REAL NOT NULL,
	injection REAL NOT NULL,
	equity REAL NOT NULL,
	realized_pnl REAL NOT NULL,
	PRIMARY KEY (run_id, leg, idx)
);

CREATE INDEX IF NOT EXISTS idx_runs_created ON backtest_runs(created);
`
