package commands

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Lists the marketplaces this build can scrape.",
	Run: func(cmd *cobra.Command, args []string) {
		svc, cleanup := createService()
		defer cleanup()

		t := newTable()
		t.AppendHeader(table.Row{"Source"})
		for _, name := range svc.ListSources() {
			t.AppendRow(table.Row{name})
		}
		t.Render()
	},
}
