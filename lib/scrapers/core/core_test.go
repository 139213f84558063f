package core

import (
	"context"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func doc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	d, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return d
}

func TestRunStrategiesStopsAtFirstMatch(t *testing.T) {
	d := doc(t, "<html></html>")
	ran := []string{}
	strategies := []Strategy{
		{Name: "empty", Extract: func(*goquery.Document) []Candidate {
			ran = append(ran, "empty")
			return nil
		}},
		{Name: "hit", Extract: func(*goquery.Document) []Candidate {
			ran = append(ran, "hit")
			return []Candidate{{Title: "x"}}
		}},
		{Name: "never", Extract: func(*goquery.Document) []Candidate {
			ran = append(ran, "never")
			return []Candidate{{Title: "y"}}
		}},
	}
	out := RunStrategies(context.Background(), "test", d, strategies)
	require.Len(t, out, 1)
	require.Equal(t, []string{"empty", "hit"}, ran)
}

func TestRunStrategiesAllMiss(t *testing.T) {
	d := doc(t, "<html></html>")
	out := RunStrategies(context.Background(), "test", d, []Strategy{
		{Name: "a", Extract: func(*goquery.Document) []Candidate { return nil }},
	})
	require.Empty(t, out)
}

func TestCandidateUsable(t *testing.T) {
	cases := []struct {
		name      string
		candidate Candidate
		usable    bool
	}{
		{
			name:      "complete",
			candidate: Candidate{Title: "Apple iPhone 15", RawPrice: "₹79,900", DetailURL: "https://x/p/1"},
			usable:    true,
		},
		{
			name:      "missing price",
			candidate: Candidate{Title: "Apple iPhone 15", DetailURL: "https://x/p/1"},
			usable:    false,
		},
		{
			name:      "missing url",
			candidate: Candidate{Title: "Apple iPhone 15", RawPrice: "₹79,900"},
			usable:    false,
		},
		{
			name:      "navigation chrome as title",
			candidate: Candidate{Title: "Shop now for great deals", RawPrice: "₹79,900", DetailURL: "https://x/p/1"},
			usable:    false,
		},
		{
			name:      "sponsored tile",
			candidate: Candidate{Title: "Sponsored results", RawPrice: "₹500", DetailURL: "https://x/p/2"},
			usable:    false,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			require.Equal(t, c.usable, c.candidate.Usable())
		})
	}
}

func TestInternalLimit(t *testing.T) {
	require.Equal(t, 15, InternalLimit(1))
	require.Equal(t, 15, InternalLimit(5))
	require.Equal(t, 30, InternalLimit(10))
}

func TestFinalizeDropsInvalidPrices(t *testing.T) {
	candidates := []Candidate{
		{Title: "Apple iPhone 15 (128GB) Black", RawPrice: "₹79,900", DetailURL: "https://x/p/1", InStock: true},
		{Title: "rating badge", RawPrice: "4", DetailURL: "https://x/p/2"},
		{Title: "Apple iPhone 15 (256GB) Blue", RawPrice: "₹89,900", DetailURL: "https://x/p/3", InStock: true},
	}
	products := Finalize(context.Background(), "amazon", candidates, 10)
	require.Len(t, products, 2)
	for _, p := range products {
		require.GreaterOrEqual(t, p.Price, 100.0)
		require.Equal(t, "amazon", p.Source)
		require.Equal(t, "INR", p.Currency)
	}
}

func TestFinalizeRespectsLimit(t *testing.T) {
	var candidates []Candidate
	for i := 0; i < 10; i++ {
		candidates = append(candidates, Candidate{
			Title: "Apple iPhone 15", RawPrice: "₹79,900", DetailURL: "https://x/p/1",
		})
	}
	require.Len(t, Finalize(context.Background(), "amazon", candidates, 3), 3)
}

func TestExtractStructured(t *testing.T) {
	html := `<html><head><script type="application/ld+json">
	{
		"@type": "ItemList",
		"itemListElement": [
			{"item": {"@type": "Product", "name": "Apple iPhone 15 (128GB) Black",
				"url": "/apple-iphone-15/p/itm1", "image": "https://img/1.jpg",
				"offers": {"price": "79900", "availability": "https://schema.org/InStock"}}},
			{"item": {"@type": "Product", "name": "Sold out phone",
				"url": "/p/itm2",
				"offers": {"price": 49999, "availability": "https://schema.org/OutOfStock"}}},
			{"item": {"@type": "Thing", "name": "not a product"}}
		]
	}
	</script></head></html>`
	out := ExtractStructured(doc(t, html), "https://www.example.in")
	require.Len(t, out, 2)
	require.Equal(t, "Apple iPhone 15 (128GB) Black", out[0].Title)
	require.Equal(t, "79900", out[0].RawPrice)
	require.Equal(t, "https://www.example.in/apple-iphone-15/p/itm1", out[0].DetailURL)
	require.True(t, out[0].InStock)
	require.False(t, out[1].InStock)
}

func TestAbsoluteURL(t *testing.T) {
	require.Equal(t, "https://x.in/p/1", AbsoluteURL("https://x.in", "/p/1"))
	require.Equal(t, "https://y.in/p/2", AbsoluteURL("https://x.in", "https://y.in/p/2"))
	require.Equal(t, "", AbsoluteURL("https://x.in", "  "))
}
