package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fleetdash/fleetdash/internal/api"
)

var resourcesCmd = &cobra.Command{
	Use:   "resources",
	Short: "List collections and their orderable fields",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, res := range api.Resources {
			fmt.Printf("%-9s %-11s order by: %s (default %s)\n",
				res, res.Path(), strings.Join(res.Orderable(), ", "), res.DefaultOrder())
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(resourcesCmd)
}
