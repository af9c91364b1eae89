package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var overviewCmd = &cobra.Command{
	Use:   "overview",
	Short: "Show overview and common usage patterns",
	Long:  `Display an overview of fleetdash and common workflow patterns.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(`fleetdash - Terminal dashboard for a device fleet

BROWSE
  fleetdash tui                     Scroll through every collection
  fleetdash list <resource>         Print one page (--all for everything)
  fleetdash get <resource> <id>     Print one record as JSON
  fleetdash resources               Collections and orderable fields

SESSION
  fleetdash login                   Log in and remember the token
  fleetdash logout                  Forget the token
  fleetdash status                  Server, reachability and session

TRY IT
  fleetdash demo                    Serve seeded data on :8080
  fleetdash demo --detach           ... in the background
  fleetdash logs                    Follow client and demo logs

Resources: user, role, place, group, device, map, firmware.
Use 'fleetdash <command> --help' for details.`)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(overviewCmd)
}
