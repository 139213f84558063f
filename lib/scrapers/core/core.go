// Package core carries the pieces every marketplace scraper shares:
// the candidate record, the ordered extraction-strategy runner, title
// denylisting and price finalization.
package core

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/Legendtss/price-tracker/lib/catalog"
	"github.com/Legendtss/price-tracker/lib/money"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("pricetracker.lib.scrapers.core")

// Candidate is an unvalidated extraction result from one listing card.
// It only lives until price normalization.
type Candidate struct {
	Title     string
	RawPrice  string
	DetailURL string
	ImageURL  string
	InStock   bool
	Specs     []string
}

// Strategy is one independent way of pulling candidates out of a page.
// Strategies are pure so each can be tested against a fixed fixture.
type Strategy struct {
	Name    string
	Extract func(doc *goquery.Document) []Candidate
}

// RunStrategies tries strategies in priority order until one yields a
// non-empty result. Markup no longer matching any strategy is "zero
// candidates", logged for operators, never an error.
func RunStrategies(ctx context.Context, source string, doc *goquery.Document, strategies []Strategy) []Candidate {
	ctx, span := tracer.Start(ctx, "RunStrategies", trace.WithAttributes(
		attribute.String("source", source),
	))
	defer span.End()

	for _, strategy := range strategies {
		candidates := strategy.Extract(doc)
		if len(candidates) == 0 {
			continue
		}
		span.SetAttributes(
			attribute.String("strategy", strategy.Name),
			attribute.Int("candidates", len(candidates)),
		)
		slog.DebugContext(ctx, "extraction strategy matched",
			"source", source, "strategy", strategy.Name, "candidates", len(candidates))
		return candidates
	}

	slog.WarnContext(ctx, "no extraction strategy matched, markup may have changed",
		"source", source)
	return nil
}

// navigation chrome and ad blocks that must never be mistaken for a
// product title
var titleDenylist = []string{
	"shop now", "view all", "see more", "see all", "sign in",
	"sponsored", "advertisement", "add to cart", "buy now",
	"explore more", "top deals", "best sellers", "today's deals",
	"check each product page",
}

// Usable reports whether a candidate carries everything a canonical
// record needs. Incomplete cards are skipped silently, one broken tile
// should not fail the source.
func (c Candidate) Usable() bool {
	title := strings.ToLower(strings.TrimSpace(c.Title))
	if title == "" || strings.TrimSpace(c.RawPrice) == "" || strings.TrimSpace(c.DetailURL) == "" {
		return false
	}
	for _, deny := range titleDenylist {
		if strings.HasPrefix(title, deny) {
			return false
		}
	}
	return true
}

// InternalLimit is how many candidates a source gathers before
// downstream filtering. The first listed items are frequently sponsored
// or off-topic, so sources over-fetch and let filtering pick the best.
func InternalLimit(requested int) int {
	limit := requested * 3
	if limit < 15 {
		limit = 15
	}
	return limit
}

// Finalize validates candidates into canonical products: price
// normalization either yields a valid product or the candidate vanishes.
func Finalize(ctx context.Context, source string, candidates []Candidate, max int) []catalog.Product {
	var products []catalog.Product
	for _, c := range candidates {
		if len(products) >= max {
			break
		}
		if !c.Usable() {
			slog.DebugContext(ctx, "skipping incomplete candidate",
				"source", source, "title", c.Title)
			continue
		}
		price, ok := money.Normalize(c.RawPrice)
		if !ok {
			slog.DebugContext(ctx, "dropping candidate with invalid price",
				"source", source, "title", c.Title, "raw_price", c.RawPrice)
			continue
		}
		products = append(products, catalog.Product{
			Source:    source,
			Title:     strings.TrimSpace(c.Title),
			Price:     price,
			Currency:  money.Currency,
			DetailURL: c.DetailURL,
			ImageURL:  c.ImageURL,
			InStock:   c.InStock,
			Specs:     c.Specs,
		})
	}
	return products
}

// AbsoluteURL resolves a scraped href against the source's base url.
func AbsoluteURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return baseURL.ResolveReference(ref).String()
}
