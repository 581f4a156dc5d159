// Package commands wires the curvelib CLI. Every subcommand reads a JSON
// request from stdin or a file and writes a JSON response to stdout, so the
// binary slots into pipelines the same way a pricing service endpoint would.
package commands

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/meenmo/curvelib/config"
)

var (
	configFile string
	logLevel   string

	cfg *config.Config
	log zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "curvelib",
	Short: "Discount curve construction, calibration and risk",
	Long: `curvelib calibrates discount curves from par swap quotes and prices
instrument sensitivities against them.

Two curve variants are built from the same quote snapshot:
  smooth     one log-linear curve over the whole strip
  composite  a flat-forward short end with policy-event turns, stitched
             to a smooth long end

Examples:
  curvelib build < request.json
  curvelib risk --input request.json
  curvelib version`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configFile)
		if err != nil {
			return err
		}
		if logLevel != "" {
			cfg.Log.Level = logLevel
		}
		log, err = newLogger(cfg.Log)
		return err
	},
}

// Execute runs the CLI. Called once from main.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func newLogger(lc config.LogConfig) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(lc.Level)
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("bad log level %q: %w", lc.Level, err)
	}
	var logger zerolog.Logger
	if lc.Format == "json" {
		logger = zerolog.New(os.Stderr)
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	return logger.Level(level).With().Timestamp().Logger(), nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (optional)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (trace|debug|info|warn|error)")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(riskCmd)
	rootCmd.AddCommand(versionCmd)
}

var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the curvelib version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "curvelib", version)
	},
}
