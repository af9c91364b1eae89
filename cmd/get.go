package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fleetdash/fleetdash/internal/api"
)

var getCmd = &cobra.Command{
	Use:               "get <resource> <id>",
	Short:             "Show one record as JSON",
	ValidArgsFunction: completeResource,
	Long: `Fetch one record by id and print it as indented JSON.

Example:
  fleetdash get device 0b9c6c1e-2f7d-5a55-9a4e-3f1f3b1f5a6e

Exit codes:
  0: Success
  1: Error (unknown resource, record not found)`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := api.ParseResource(args[0])
		if err != nil {
			return err
		}
		client, err := connect()
		if err != nil {
			return err
		}

		rec, err := client.Get(cmd.Context(), res, args[1])
		if api.IsNotFound(err) {
			return fmt.Errorf("%s not found: %s", res, args[1])
		}
		if err != nil {
			return fmt.Errorf("failed to get %s: %w", res, err)
		}
		fmt.Println(rec.JSON())
		return nil
	},
}

func init() {
	RootCmd.AddCommand(getCmd)
}
