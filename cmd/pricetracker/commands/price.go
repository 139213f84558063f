package commands

import (
	"github.com/Legendtss/price-tracker/lib/catalog"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	priceExpect *string
	priceJSON   *bool
)

func init() {
	priceExpect = priceCmd.Flags().String("expect", "",
		"A known product title, fails if the page no longer matches it.")
	priceJSON = priceCmd.Flags().Bool("json", false,
		"Print the product as JSON instead of a table.")
	rootCmd.AddCommand(priceCmd)
}

var priceCmd = &cobra.Command{
	Use:   "price <source> <product-url>",
	Short: "Fetches the current price and stock of a single product page.",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		source, detailURL := args[0], args[1]
		svc, cleanup := createService()
		defer cleanup()

		var product catalog.Product
		var err error
		if *priceExpect != "" {
			product, err = svc.RecheckPrice(cmd.Context(), source, detailURL, *priceExpect)
		} else {
			product, err = svc.GetProductDetails(cmd.Context(), source, detailURL)
		}
		if err != nil {
			fatal("failed to fetch product", err)
		}

		if *priceJSON {
			printJSON(product)
			return
		}
		t := newTable()
		t.AppendRow(table.Row{"Source", product.Source})
		t.AppendRow(table.Row{"Title", product.Title})
		t.AppendRow(table.Row{"Price", formatPrice(product)})
		t.AppendRow(table.Row{"Stock", stockLabel(product)})
		for _, spec := range product.Specs {
			t.AppendRow(table.Row{"Spec", truncate(spec, 80)})
		}
		t.Render()
	},
}
