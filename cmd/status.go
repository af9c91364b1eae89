package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fleetdash/fleetdash/internal/demo"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server, session and demo state",
	Long: `Show which server is configured, whether it answers, and who you are
logged in as.

Exit codes:
  0: Server reachable
  1: Server unreachable`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		server := cfg.ServerURL()
		fmt.Printf("Server:  %s\n", server)

		switch sess, err := st.LoadSession(server); {
		case err != nil:
			return err
		case cfg.Token != "":
			fmt.Println("Session: token from environment")
		case sess != nil:
			fmt.Printf("Session: %s (since %s)\n", sess.Username, sess.CreatedAt.Local().Format("2006-01-02 15:04"))
		default:
			fmt.Println("Session: anonymous")
		}

		if pid := demo.RunningPID(); pid != 0 {
			fmt.Printf("Demo:    running (pid %d)\n", pid)
		}

		client, err := newAPIClient(st)
		if err != nil {
			return err
		}
		health, err := client.Ping(cmd.Context())
		if err != nil {
			fmt.Println("Status:  unreachable")
			return err
		}
		fmt.Printf("Status:  %s (version %s)\n", health.Status, health.Version)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(statusCmd)
}
