package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/fleetdash/fleetdash/internal/paths"
	"github.com/fleetdash/fleetdash/internal/tail"
)

var (
	logsNoFollow bool
	logsFromEnd  bool
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Follow the dashboard and demo server logs",
	Long: `Follow the fleetdash log and the demo server log in real-time.

Lines are prefixed with their source:
  [fleetdash] level=INFO msg="page loaded" resource=device rows=40
  [demo] level=INFO msg=request method=GET path=/api/devices

Missing log files are waited for, so 'fleetdash logs' can be started before
the demo server.

Example:
  fleetdash logs --from-end
  fleetdash logs --no-follow

Exit codes:
  0: Stopped by user (Ctrl+C)
  1: Error reading a log file`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sources := []tail.FileSource{
			{Path: paths.LogPath(), Prefix: "[fleetdash] "},
			{Path: paths.DemoLogPath(), Prefix: "[demo] "},
		}
		if logsNoFollow {
			return tail.Dump(sources, os.Stdout)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		return tail.Follow(ctx, sources, os.Stdout, logsFromEnd)
	},
}

func init() {
	logsCmd.Flags().BoolVar(&logsNoFollow, "no-follow", false, "print what is logged so far and exit")
	logsCmd.Flags().BoolVar(&logsFromEnd, "from-end", false, "only show lines written from now on")
	logsCmd.MarkFlagsMutuallyExclusive("no-follow", "from-end")
	RootCmd.AddCommand(logsCmd)
}
