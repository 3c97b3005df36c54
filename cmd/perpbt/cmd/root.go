package cmd

import (
	"fmt"
	"strings"

	"github.com/rustyeddy/perpbt/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string

	// cfg and log are set up before every command runs.
	cfg *config.Config
	log = logrus.New()

	settings = viper.New()
)

var rootCmd = &cobra.Command{
	Use:   "perpbt",
	Short: "Backtest leveraged funding-rate strategies on perpetual futures",
	Long: `perpbt replays hourly perpetual-futures history to evaluate funding-rate
collection strategies.

It provides tools for:
  - Downloading and caching Drift funding and price history
  - Single-leg leveraged backtests with stop-loss and liquidation
  - Delta-neutral long/short backtests across two markets
  - Leverage sweeps, drawdown and Sharpe reporting
  - Journaling runs to SQLite or CSV`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentPreRunE = setup

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&cfgFile, "config", "c", "", "config file (YAML or JSON; defaults when empty)")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")
	pf.String("log-format", "text", "log format (text, json)")

	settings.BindPFlag("config", pf.Lookup("config"))
	settings.BindPFlag("log.level", pf.Lookup("log-level"))
	settings.BindPFlag("log.format", pf.Lookup("log-format"))

	settings.SetEnvPrefix("PERPBT")
	settings.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	settings.AutomaticEnv()
}

func setup(cmd *cobra.Command, args []string) error {
	if err := setupLogger(settings.GetString("log.level"), settings.GetString("log.format")); err != nil {
		return err
	}

	path := settings.GetString("config")
	if path == "" {
		cfg = config.Default()
		return nil
	}

	c, err := config.LoadFromFile(path)
	if err != nil {
		return err
	}
	cfg = c
	log.WithField("path", path).Debug("config loaded")
	return nil
}

func setupLogger(level, format string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	log.SetLevel(lvl)
	log.SetOutput(rootCmd.ErrOrStderr())

	switch format {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	case "text", "":
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("log format %q: want text or json", format)
	}
	return nil
}
