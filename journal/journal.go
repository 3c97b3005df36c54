package journal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rustyeddy/perpbt/backtest"
	"github.com/rustyeddy/perpbt/sim"
)

const (
	KindSingle = "single"
	KindDual   = "dual"
)

// RunRecord is one persisted backtest run and its summary metrics.
type RunRecord struct {
	RunID       string
	Created     time.Time
	Kind        string // KindSingle or KindDual
	Exchange    string
	Market      string
	ShortMarket string // dual runs only
	Config      []byte // engine config as JSON

	Start time.Time
	End   time.Time
	Bars  int

	FinalPnL    float64
	MaxDrawdown float64
	Sharpe      *float64 // nil when not computable
	Trades      int
	Stops       int
	Fees        float64
	Liquidated  bool
	HoldPnL     float64
}

// Leg is a named trajectory belonging to a run ("single", "long", "short").
type Leg struct {
	Name   string
	States []sim.LegState
}

type Journal interface {
	RecordRun(ctx context.Context, run RunRecord, legs []Leg) error
	Close() error
}

// NewRunRecord fills the metric fields of a record from a summary and
// marshals cfg as the run's config.
func NewRunRecord(runID, kind string, cfg any, s backtest.Summary) (RunRecord, error) {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return RunRecord{}, err
	}
	rec := RunRecord{
		RunID:       runID,
		Created:     time.Now().UTC(),
		Kind:        kind,
		Config:      raw,
		Start:       s.Start,
		End:         s.End,
		Bars:        s.Bars,
		FinalPnL:    s.FinalPnL,
		MaxDrawdown: s.MaxDrawdown,
		Trades:      s.Trades,
		Stops:       s.Stops,
		Fees:        s.Fees,
		Liquidated:  s.Liquidated,
		HoldPnL:     s.HoldPnL,
	}
	if s.SharpeOK {
		v := s.Sharpe
		rec.Sharpe = &v
	}
	return rec, nil
}
