package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/fleetdash/fleetdash/internal/api"
	"github.com/fleetdash/fleetdash/internal/tui"
)

var (
	listLimit   int
	listOffset  int
	listOrderBy string
	listSort    string
	listAll     bool
	listJSON    bool
)

var listCmd = &cobra.Command{
	Use:               "list <resource>",
	Short:             "List records of a collection",
	ValidArgsFunction: completeResource,
	Long: `List one page of a collection, or all of it with --all.

Resources: user, role, place, group, device, map, firmware (plural names
work too).

With --json, records are printed one JSON object per line, which streams
with --all instead of waiting for the last page.

Example:
  fleetdash list devices --order-by cpu --sort desc --limit 10
  fleetdash list firmware --all --json | jq .version

Exit codes:
  0: Success
  1: Error (unknown resource, server unreachable, not logged in)`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := api.ParseResource(args[0])
		if err != nil {
			return err
		}
		sort, err := api.ParseSort(listSort)
		if err != nil {
			return err
		}
		if listOrderBy == "" {
			listOrderBy = res.DefaultOrder()
		}
		limit := listLimit
		if limit <= 0 {
			limit = cfg.PageSize
		}

		client, err := connect()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		var records []api.Record
		emit := func(page api.Page) error {
			if listJSON {
				enc := json.NewEncoder(os.Stdout)
				for _, rec := range page.Items {
					if err := enc.Encode(rec); err != nil {
						return err
					}
				}
				return nil
			}
			records = append(records, page.Items...)
			return nil
		}

		total := -1
		if listAll {
			pager := api.Pager{Client: client, Resource: res, OrderBy: listOrderBy, Sort: sort}
			if err := pager.Each(ctx, limit, emit); err != nil {
				return fmt.Errorf("failed to list %s: %w", res.Plural(), err)
			}
		} else {
			page, err := client.List(ctx, res, api.Query{Limit: limit, Offset: listOffset, OrderBy: listOrderBy, Sort: sort})
			if err != nil {
				return fmt.Errorf("failed to list %s: %w", res.Plural(), err)
			}
			total = page.Total
			if err := emit(page); err != nil {
				return err
			}
		}

		if listJSON {
			return nil
		}
		if len(records) == 0 {
			fmt.Printf("No %s found\n", res.Plural())
			return nil
		}
		fmt.Println(renderRecords(res, records))
		if total > len(records) {
			fmt.Printf("%d-%d of %d\n", listOffset+1, listOffset+len(records), total)
		}
		return nil
	},
}

// renderRecords prints records as a table with the resource's columns
func renderRecords(res api.Resource, records []api.Record) string {
	cols := res.Columns()
	headers := make([]string, len(cols))
	for i, col := range cols {
		headers[i] = col.Title
	}

	rows := make([][]string, len(records))
	for i, rec := range records {
		row := make([]string, len(cols))
		for j, col := range cols {
			row[j] = tui.Sanitize(rec.String(col.Key))
		}
		rows[i] = row
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	return table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...).
		Render()
}

func init() {
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 0, "page size (default page_size from config)")
	listCmd.Flags().IntVar(&listOffset, "offset", 0, "records to skip")
	listCmd.Flags().StringVarP(&listOrderBy, "order-by", "o", "", "field to order by")
	listCmd.Flags().StringVar(&listSort, "sort", "asc", "asc or desc")
	listCmd.Flags().BoolVarP(&listAll, "all", "a", false, "page through the whole collection")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "print one JSON object per line")
	listCmd.MarkFlagsMutuallyExclusive("all", "offset")
	listCmd.RegisterFlagCompletionFunc("order-by", completeOrderBy)
	listCmd.RegisterFlagCompletionFunc("sort", completeSort)
	RootCmd.AddCommand(listCmd)
}
