package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rustyeddy/perpbt/config"
	"github.com/rustyeddy/perpbt/journal"
	"github.com/rustyeddy/perpbt/market"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests share the package-level command tree and must not run in
// parallel.

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	resetFlags(rootCmd)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

// resetFlags restores every flag of the tree to its default so values
// from an earlier Execute do not leak into the next one.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			sv.Replace(nil)
		} else {
			f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

type fixture struct {
	dir     string
	config  string
	bars    string
	db      string
	csvDir  string
	orgPath string
}

func newFixture(t *testing.T, journalType string) fixture {
	t.Helper()
	dir := t.TempDir()
	fx := fixture{
		dir:     dir,
		config:  filepath.Join(dir, "perpbt.yaml"),
		bars:    filepath.Join(dir, "bars.csv"),
		db:      filepath.Join(dir, "runs.sqlite"),
		csvDir:  filepath.Join(dir, "runs"),
		orgPath: filepath.Join(dir, "reports", "run.org"),
	}

	c := config.Default()
	c.Data.CacheDir = filepath.Join(dir, "data")
	c.Journal.Type = journalType
	c.Journal.DBPath = fx.db
	c.Journal.CSVDir = fx.csvDir
	require.NoError(t, c.SaveToFile(fx.config))

	closes := []float64{100, 101, 99, 102, 103, 101, 104, 105, 103, 106}
	bars := make([]market.Bar, len(closes))
	for i, cl := range closes {
		bars[i] = market.Bar{
			Timestamp:   1704067200 + int64(i)*3600,
			Open:        cl,
			High:        cl + 1,
			Low:         cl - 1,
			Close:       cl,
			FundingRate: 0.0001,
		}
	}
	require.NoError(t, market.SaveBarsCSV(fx.bars, bars))
	return fx
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "perpbt version "+version)
}

func TestMarkets(t *testing.T) {
	out, err := execute(t, "markets")
	require.NoError(t, err)
	assert.Contains(t, out, "SOL-PERP")
	assert.Contains(t, out, "1MPEPE-PERP")
}

func TestConfigInitValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")

	out, err := execute(t, "config", "init", "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Created default configuration")
	assert.FileExists(t, path)

	out, err = execute(t, "config", "validate", "-f", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration valid")
	assert.Contains(t, out, "Journal: sqlite")
}

func TestConfigValidateRejectsBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("single:\n  leverage: -1\n"), 0o644))

	_, err := execute(t, "config", "validate", "-f", path)
	assert.Error(t, err)
}

func TestBadLogLevel(t *testing.T) {
	fx := newFixture(t, "none")
	_, err := execute(t, "--config", fx.config, "--log-level", "loud", "hold", "--bars", fx.bars)
	assert.Error(t, err)
}

func TestLogLevelFromEnv(t *testing.T) {
	fx := newFixture(t, "none")
	t.Setenv("PERPBT_LOG_FORMAT", "xml")

	_, err := execute(t, "--config", fx.config, "--log-level", "info", "hold", "--bars", fx.bars)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xml")
}

func TestHold(t *testing.T) {
	fx := newFixture(t, "none")
	out, err := execute(t, "--config", fx.config, "--log-format", "text", "hold", "--bars", fx.bars)
	require.NoError(t, err)
	assert.Contains(t, out, "buy-and-hold over 10 bars")
	assert.Contains(t, out, "Final:        6.0000%")
}

func TestSingleRecordsToSQLite(t *testing.T) {
	fx := newFixture(t, "sqlite")

	out, err := execute(t, "--config", fx.config, "single", "SOL-PERP", "--bars", fx.bars, "--leverage", "2", "--org", fx.orgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "SINGLE SOL-PERP x2")
	assert.Contains(t, out, "recorded (sqlite)")
	assert.FileExists(t, fx.orgPath)

	j, err := journal.NewSQLite(fx.db, nil)
	require.NoError(t, err)
	runs, err := j.ListRuns(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	run := runs[0]
	require.NoError(t, j.Close())

	assert.Equal(t, journal.KindSingle, run.Kind)
	assert.Equal(t, "SOL-PERP", run.Market)
	assert.Equal(t, 10, run.Bars)

	out, err = execute(t, "--config", fx.config, "journal", "list")
	require.NoError(t, err)
	assert.Contains(t, out, run.RunID)

	out, err = execute(t, "--config", fx.config, "journal", "show", run.RunID)
	require.NoError(t, err)
	assert.Contains(t, out, ":RUN_ID:      "+run.RunID)
	assert.Contains(t, out, ":LEVERAGE:    2")

	out, err = execute(t, "--config", fx.config, "journal", "legs", run.RunID)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 11)
	assert.Contains(t, lines[1], ",init,")

	_, err = execute(t, "--config", fx.config, "journal", "legs", run.RunID, "short")
	assert.Error(t, err)
}

func TestDualRecordsToCSV(t *testing.T) {
	fx := newFixture(t, "csv")

	out, err := execute(t, "--config", fx.config, "dual", "SOL-PERP", "BTC-PERP",
		"--long-bars", fx.bars, "--short-bars", fx.bars, "--leverage", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "DUAL long SOL-PERP / short BTC-PERP x3")
	assert.Contains(t, out, "recorded (csv)")

	assert.FileExists(t, filepath.Join(fx.csvDir, "runs.csv"))
	matches, err := filepath.Glob(filepath.Join(fx.csvDir, "*_short.csv"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestSweep(t *testing.T) {
	fx := newFixture(t, "none")

	out, err := execute(t, "--config", fx.config, "sweep", "--bars", fx.bars, "--leverages", "1,2,4", "-w", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Sweep SOL-PERP (10 bars)")
	assert.Contains(t, out, "Best leverage:")
	for _, lev := range []string{"\n1 ", "\n2 ", "\n4 "} {
		assert.Contains(t, out, lev)
	}
}

func TestSingleMissingCacheOtherExchange(t *testing.T) {
	fx := newFixture(t, "none")
	c, err := config.LoadFromFile(fx.config)
	require.NoError(t, err)
	c.Data.Exchange = "binance"
	require.NoError(t, c.SaveToFile(fx.config))

	_, err = execute(t, "--config", fx.config, "single", "SOL-PERP")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only \"drift\"")
}

func TestSingleUsesBarCache(t *testing.T) {
	fx := newFixture(t, "none")
	c, err := config.LoadFromFile(fx.config)
	require.NoError(t, err)

	data, err := os.ReadFile(fx.bars)
	require.NoError(t, err)
	cache := market.CachePath(c.Data.CacheDir, c.Data.Exchange, "SOL-PERP")
	require.NoError(t, os.MkdirAll(filepath.Dir(cache), 0o755))
	require.NoError(t, os.WriteFile(cache, data, 0o644))

	out, err := execute(t, "--config", fx.config, "single", "SOL-PERP")
	require.NoError(t, err)
	assert.Contains(t, out, "Bars:          10")
}
