package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rustyeddy/perpbt/journal"
)

// openJournal opens the configured run journal; nil when journaling is
// off.
func openJournal() (journal.Journal, error) {
	switch cfg.Journal.Type {
	case "sqlite":
		return journal.NewSQLite(cfg.Journal.DBPath, log)
	case "csv":
		return journal.NewCSV(cfg.Journal.CSVDir)
	case "none", "":
		return nil, nil
	}
	return nil, fmt.Errorf("journal type %q", cfg.Journal.Type)
}

// record stores the run in the journal, if any, and writes an Org report
// when orgPath is set.
func record(ctx context.Context, out io.Writer, rec journal.RunRecord, legs []journal.Leg, leverage float64, orgPath string) error {
	j, err := openJournal()
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	if j != nil {
		defer j.Close()
		if err := j.RecordRun(ctx, rec, legs); err != nil {
			return fmt.Errorf("record run: %w", err)
		}
		fmt.Fprintf(out, "Run %s recorded (%s)\n", rec.RunID, cfg.Journal.Type)
	}

	if orgPath != "" {
		if err := os.MkdirAll(filepath.Dir(orgPath), 0o755); err != nil {
			return err
		}
		r := &journal.RunReport{RunRecord: rec, Leverage: leverage, OrgPath: orgPath}
		if err := r.WriteOrg(); err != nil {
			return fmt.Errorf("write org: %w", err)
		}
		fmt.Fprintf(out, "Report written to %s\n", orgPath)
	}
	return nil
}
