package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/fleetdash/fleetdash/internal/api"
)

// completeResource completes the first argument with collection names
func completeResource(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return completeResourceNames(cmd, args, toComplete)
}

// completeResourceNames provides completion for resource names
func completeResourceNames(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	var completions []string
	for _, res := range api.Resources {
		if strings.HasPrefix(string(res), toComplete) {
			// Format: name\tdescription (tab-separated for description)
			completions = append(completions, string(res)+"\t"+res.Title())
		}
	}
	return completions, cobra.ShellCompDirectiveNoFileComp
}

// completeOrderBy completes --order-by with the fields of the chosen resource
func completeOrderBy(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	res, err := api.ParseResource(args[0])
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	var completions []string
	for _, field := range res.Orderable() {
		if strings.HasPrefix(field, toComplete) {
			completions = append(completions, field)
		}
	}
	return completions, cobra.ShellCompDirectiveNoFileComp
}

func completeSort(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return []string{string(api.Asc), string(api.Desc)}, cobra.ShellCompDirectiveNoFileComp
}
