package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/fleetdash/fleetdash/internal/config"
	"github.com/fleetdash/fleetdash/internal/logging"
	"github.com/fleetdash/fleetdash/internal/paths"
	"github.com/fleetdash/fleetdash/internal/telemetry"
	"github.com/fleetdash/fleetdash/internal/version"
)

// skipTelemetry lists commands that handle their own telemetry or shouldn't be tracked
var skipTelemetry = map[string]bool{
	"mcp":        true, // long running, tool calls are not commands
	"tui":        true, // has own telemetry
	"completion": true, // shell completion
	"__complete": true, // internal completion
}

var (
	configFile  string
	serverFlag  string
	debugFlag   bool
	cfg         *config.Config
	closeLogger io.Closer
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "fleetdash",
	Short: "Terminal dashboard for a device fleet",
	Long: `Browse the users, roles, places, groups, devices, maps and firmware of a
fleet server from the terminal.

Tables load page by page as you scroll. The same data is available to
scripts through 'fleetdash list' and to AI agents through 'fleetdash mcp'.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := setup(cmd); err != nil {
			return err
		}

		// Track CLI command usage (skip commands with own telemetry or completion)
		name := cmd.Name()
		if skipTelemetry[name] {
			return nil
		}
		if parent := cmd.Parent(); parent != nil && parent.Name() == "completion" {
			return nil
		}
		telemetry.CLICommandStart(name)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		telemetry.CLICommandEnd()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// When called without subcommands, show overview
		return overviewCmd.RunE(cmd, args)
	},
}

// setup loads the config file, applies environment and flag overrides, and
// starts logging and telemetry.
func setup(cmd *cobra.Command) error {
	path := configFile
	if path == "" {
		path = paths.ConfigPath()
	}
	c, err := config.Load(path)
	if err != nil {
		return err
	}
	c.ApplyEnv(os.Getenv)
	if serverFlag != "" {
		c.Server = serverFlag
	}
	if debugFlag {
		c.Debug = true
	}
	if err := c.Validate(); err != nil {
		return err
	}
	cfg = c

	closer, err := logging.Init(paths.LogPath(), cfg.Debug)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	closeLogger = closer
	logging.Logger.Debug("command started", "command", cmd.CommandPath(), "server", cfg.ServerURL())

	telemetry.Init(telemetry.Settings{
		Enabled:  cfg.TelemetryEnabled(),
		Key:      cfg.TelemetryKey,
		Endpoint: cfg.TelemetryEndpoint,
	})
	return nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	err := RootCmd.Execute()

	telemetry.Flush()
	if closeLogger != nil {
		closeLogger.Close()
	}
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	// Set version for --version flag
	RootCmd.Version = version.Version

	// Don't show usage on errors - only show it when explicitly requested
	RootCmd.SilenceUsage = true

	RootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default $XDG_CONFIG_HOME/fleetdash/config.toml)")
	RootCmd.PersistentFlags().StringVarP(&serverFlag, "server", "s", "", "fleet server URL (overrides config and FLEETDASH_SERVER)")
	RootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "write debug messages to the log file")
}
