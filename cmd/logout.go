package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the saved session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		server := cfg.ServerURL()
		deleted, err := st.DeleteSession(server)
		if err != nil {
			return err
		}
		if !deleted {
			fmt.Printf("Not logged in to %s\n", server)
			return nil
		}
		fmt.Printf("Logged out of %s\n", server)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(logoutCmd)
}
