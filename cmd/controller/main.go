// Command controller runs the dispatch server: the inbound request
// endpoint, the Dispatcher, the simulated-time Clock, the binding
// Scheduler, and the Telemetry Demux, wired together by
// internal/lifecycle.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gutierrez-fleet/dispatchd/internal/config"
	"github.com/gutierrez-fleet/dispatchd/internal/lifecycle"
	"github.com/gutierrez-fleet/dispatchd/internal/logging"
)

var (
	flagFleetSize int
	flagLogLevel  string
	flagLogFormat string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "controller",
	Short: "dispatchd fleet dispatch controller",
	Long: `controller runs the dispatch server: it accepts client ride
requests over a named pipe, binds scheduled services to available
vehicles, and tracks vehicle telemetry over per-vehicle named pipes.`,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dispatch controller",
	RunE: func(cmd *cobra.Command, args []string) error {
		v := viper.New()
		if flagFleetSize > 0 {
			v.Set("fleet_size", flagFleetSize)
		}
		if flagLogLevel != "" {
			v.Set("log_level", flagLogLevel)
		}
		if flagLogFormat != "" {
			v.Set("log_format", flagLogFormat)
		}
		cfg := config.New(v)

		format := logging.JSON
		if cfg.LogFormat == "console" {
			format = logging.Console
		}
		logging.Init(logging.Config{Level: cfg.LogLevel, Format: format, Output: os.Stdout})

		ctl := lifecycle.New(cfg)
		return ctl.Run(context.Background())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntVar(&flagFleetSize, "nveiculos", 0, "fleet size (overrides NVEICULOS env var when > 0)")
	serveCmd.Flags().StringVar(&flagLogLevel, "log-level", "", "log level (debug, info, warn, error)")
	serveCmd.Flags().StringVar(&flagLogFormat, "log-format", "", "log format (json, console)")
}
