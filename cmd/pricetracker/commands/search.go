package commands

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Legendtss/price-tracker/lib/catalog"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	searchLimit *int
	searchOne   *bool
	searchJSON  *bool
)

func init() {
	searchLimit = searchCmd.Flags().IntP("limit", "l", catalog.PerSourceLimit,
		"Maximum number of products per source.")
	searchOne = searchCmd.Flags().Bool("one", false,
		"Show only the single cheapest relevant product per source.")
	searchJSON = searchCmd.Flags().Bool("json", false,
		"Print the raw result as JSON instead of a table.")
	rootCmd.AddCommand(searchCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Searches all marketplaces and prints a ranked price comparison.",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		query := strings.Join(args, " ")
		svc, cleanup := createService()
		defer cleanup()

		t1 := time.Now()
		var result *catalog.Result
		var err error
		if *searchOne {
			result, err = svc.SearchOne(cmd.Context(), query)
		} else {
			result, err = svc.Search(cmd.Context(), query, *searchLimit)
		}
		if err != nil {
			fatal("search failed", err)
		}
		slog.Debug("search time", "seconds", time.Since(t1).Seconds())

		if *searchJSON {
			printJSON(result)
			return
		}
		printResult(svc.ListSources(), result)
	},
}

func printResult(order []string, result *catalog.Result) {
	t := newTable()
	t.AppendHeader(table.Row{"Source", "Title", "Price", "Stock", "Link"})
	for _, source := range order {
		outcome, ok := result.Sources[source]
		if !ok {
			continue
		}
		if !outcome.Succeeded {
			t.AppendRow(table.Row{source, fmt.Sprintf("unavailable: %s", outcome.ErrorMessage)})
			continue
		}
		if len(outcome.Products) == 0 {
			t.AppendRow(table.Row{source, "no matching products"})
			continue
		}
		for _, p := range outcome.Products {
			t.AppendRow(table.Row{
				p.Source,
				truncate(p.Title, 60),
				formatPrice(p),
				stockLabel(p),
				p.DetailURL,
			})
		}
		t.AppendSeparator()
	}
	t.Render()

	fmt.Printf("\n%d products total\n", result.TotalResults)
	if result.LowestPrice != nil {
		fmt.Printf("lowest price: %s on %s (%s)\n",
			formatPrice(*result.LowestPrice),
			result.LowestPrice.Source,
			truncate(result.LowestPrice.Title, 60))
	}
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}

func formatPrice(p catalog.Product) string {
	return fmt.Sprintf("₹%s", commaGroup(p.Price))
}

// commaGroup renders a price with Indian digit grouping, so 1234567
// becomes 12,34,567.
func commaGroup(price float64) string {
	whole := fmt.Sprintf("%.0f", price)
	if len(whole) <= 3 {
		return whole
	}
	head, tail := whole[:len(whole)-3], whole[len(whole)-3:]
	grouped := tail
	for len(head) > 2 {
		grouped = head[len(head)-2:] + "," + grouped
		head = head[:len(head)-2]
	}
	return head + "," + grouped
}

func stockLabel(p catalog.Product) string {
	if p.InStock {
		return "in stock"
	}
	return "out of stock"
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
