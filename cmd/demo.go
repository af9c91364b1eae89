package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fleetdash/fleetdash/internal/demo"
	"github.com/fleetdash/fleetdash/internal/logging"
	"github.com/fleetdash/fleetdash/internal/paths"
)

var (
	demoAddr       string
	demoDetach     bool
	demoStop       bool
	demoAuth       bool
	demoLatency    time.Duration
	demoHostDevice bool
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Serve a seeded fleet for trying the dashboard",
	Long: `Start a local fleet server with generated users, roles, places, groups,
devices, maps and firmware.

With --detach the server runs in the background and logs to the demo log
(see 'fleetdash logs'). Stop it with --stop.

With --auth every request needs a token from 'fleetdash login'
(username and password are both "admin").

Example:
  fleetdash demo --detach --latency 300ms --host-device
  fleetdash --server http://localhost:8080 tui
  fleetdash demo --stop

Exit codes:
  0: Server stopped cleanly
  1: Error (address in use, demo already running)`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if demoStop {
			pid, err := demo.Stop()
			if err != nil {
				return err
			}
			fmt.Printf("Stopped demo server (pid %d)\n", pid)
			return nil
		}

		if demoDetach {
			pid, parent, release, err := demo.Detach()
			if err != nil {
				return err
			}
			if parent {
				fmt.Printf("Demo server started on %s (pid %d)\n", demoAddr, pid)
				return nil
			}
			defer release()
		}

		// Demo requests are logged apart from the dashboard's own log
		closer, err := logging.Init(paths.DemoLogPath(), cfg.Debug)
		if err != nil {
			return fmt.Errorf("failed to open demo log: %w", err)
		}
		defer closer.Close()

		srv, err := demo.New(demo.Options{
			RequireAuth: demoAuth,
			Latency:     demoLatency,
			HostDevice:  demoHostDevice,
		})
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if !demoDetach {
			fmt.Printf("Demo server listening on %s (Ctrl+C to stop)\n", demoAddr)
		}
		return srv.ListenAndServe(ctx, demoAddr)
	},
}

func init() {
	demoCmd.Flags().StringVar(&demoAddr, "addr", ":8080", "address to listen on")
	demoCmd.Flags().BoolVarP(&demoDetach, "detach", "d", false, "run in the background")
	demoCmd.Flags().BoolVar(&demoStop, "stop", false, "stop a detached demo server")
	demoCmd.Flags().BoolVar(&demoAuth, "auth", false, "require login")
	demoCmd.Flags().DurationVar(&demoLatency, "latency", 0, "delay every response, like a slow backend")
	demoCmd.Flags().BoolVar(&demoHostDevice, "host-device", false, "add a device reporting this machine's load")
	demoCmd.MarkFlagsMutuallyExclusive("detach", "stop")
	RootCmd.AddCommand(demoCmd)
}
