package cmd

import (
	"github.com/spf13/cobra"

	"github.com/fleetdash/fleetdash/internal/api"
	"github.com/fleetdash/fleetdash/internal/tui"
)

var tuiResource string

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive TUI",
	Long: `Launch a full-screen terminal dashboard with one tab per collection.

Each tab is an infinite table: the first page loads when the tab opens and
the next page loads as the cursor nears the bottom. The devices tab refreshes
its rows in place every refresh_interval.

KEYBINDINGS:

  Navigation:
    ↑/k ↓/j    Move cursor (pressing down on the last row loads more)
    pgup/pgdn  Page up/down
    g/G        First row / last loaded row
    1-7        Jump to tab
    tab        Next tab (shift+tab: previous)

  Data:
    o          Order by the next column
    s          Toggle ascending/descending
    R          Reload from the first page
    r          Retry after a failed load
    enter      Show the record as JSON
    c          Copy the record id

  Global:
    L          Log in
    ?          Show help overlay
    q          Quit

Example:
  fleetdash tui --resource device`,
	RunE: func(cmd *cobra.Command, args []string) error {
		start := api.User
		if tuiResource != "" {
			res, err := api.ParseResource(tuiResource)
			if err != nil {
				return err
			}
			start = res
		}

		scroll, err := cfg.ScrollConfig()
		if err != nil {
			return err
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		client, err := newAPIClient(st)
		if err != nil {
			return err
		}

		return tui.Start(tui.Options{
			Client:  client,
			Store:   st,
			Scroll:  scroll,
			Refresh: cfg.Refresh(),
			Start:   start,
		})
	},
}

func init() {
	tuiCmd.Flags().StringVarP(&tuiResource, "resource", "r", "", "tab to open first")
	tuiCmd.RegisterFlagCompletionFunc("resource", completeResourceNames)
	RootCmd.AddCommand(tuiCmd)
}
