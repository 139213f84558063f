// Package croma scrapes croma.com search results and product pages.
// Croma renders listings client-side, so the heavy transport does most
// of the real fetching here.
package croma

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Legendtss/price-tracker/lib/catalog"
	"github.com/Legendtss/price-tracker/lib/htmlutil"
	"github.com/Legendtss/price-tracker/lib/money"
	"github.com/Legendtss/price-tracker/lib/scrapers/core"
	"github.com/Legendtss/price-tracker/lib/transport"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("pricetracker.lib.scrapers.croma")

const (
	Source         = "croma"
	defaultBaseURL = "https://www.croma.com"

	defaultMinListingBytes = 10000
)

type Client struct {
	fetcher  transport.Fetcher
	baseURL  string
	minBytes int
}

type ClientOptions struct {
	Fetcher         transport.Fetcher
	BaseURL         string
	MinListingBytes int
}

func NewClient(opts ClientOptions) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.MinListingBytes == 0 {
		opts.MinListingBytes = defaultMinListingBytes
	}
	return &Client{
		fetcher:  opts.Fetcher,
		baseURL:  opts.BaseURL,
		minBytes: opts.MinListingBytes,
	}
}

func (c *Client) Source() string { return Source }

func (c *Client) searchURL(query string) string {
	params := url.Values{}
	params.Set("q", query+":relevance")
	params.Set("text", query)
	return c.baseURL + "/searchB?" + params.Encode()
}

func (c *Client) Search(ctx context.Context, query string, max int) ([]catalog.Product, error) {
	ctx, span := tracer.Start(ctx, "croma:Search", trace.WithAttributes(
		attribute.String("query", query),
	))
	defer span.End()

	content, blocked, err := core.FetchListing(
		ctx, c.fetcher, c.searchURL(query),
		transport.FetchOptions{
			WaitSelector: "li.product-item",
			Settle:       4 * time.Second,
		},
		c.minBytes,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return nil, fmt.Errorf("croma search: %w: %w", catalog.ErrSourceUnavailable, err)
	}
	if blocked {
		return nil, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("croma search: parse page: %w", err)
	}

	candidates := core.RunStrategies(ctx, Source, doc, []core.Strategy{
		{Name: "structured", Extract: c.extractStructured},
		{Name: "result-cards", Extract: c.extractResultCards},
		{Name: "detail-anchors", Extract: c.extractDetailAnchors},
	})
	return core.Finalize(ctx, Source, candidates, core.InternalLimit(max)), nil
}

func (c *Client) extractStructured(doc *goquery.Document) []core.Candidate {
	return core.ExtractStructured(doc, c.baseURL)
}

func (c *Client) extractResultCards(doc *goquery.Document) []core.Candidate {
	var candidates []core.Candidate
	doc.Find("li.product-item").Each(func(_ int, sel *goquery.Selection) {
		link := sel.Find("h3.product-title a")
		price := strings.TrimSpace(sel.Find("span.new-price").First().Text())
		if price == "" {
			price = strings.TrimSpace(sel.Find("span.amount").First().Text())
		}
		candidates = append(candidates, core.Candidate{
			Title:     strings.TrimSpace(link.Text()),
			RawPrice:  price,
			DetailURL: core.AbsoluteURL(c.baseURL, link.AttrOr("href", "")),
			ImageURL:  sel.Find("img").First().AttrOr("data-src", sel.Find("img").First().AttrOr("src", "")),
			InStock:   !strings.Contains(strings.ToLower(sel.Text()), "out of stock"),
		})
	})
	return candidates
}

func (c *Client) extractDetailAnchors(doc *goquery.Document) []core.Candidate {
	var candidates []core.Candidate
	seen := map[string]struct{}{}
	for _, node := range doc.Find(`a[href*="/p/"]`).Nodes {
		href := htmlutil.Href(node)
		detailURL := core.AbsoluteURL(c.baseURL, href)
		if _, dup := seen[detailURL]; dup {
			continue
		}
		title := htmlutil.CleanText(htmlutil.GetText(node))
		_, priceToken := htmlutil.AncestorWithPrice(node, 6)
		if title == "" || priceToken == "" {
			continue
		}
		seen[detailURL] = struct{}{}
		candidates = append(candidates, core.Candidate{
			Title:     title,
			RawPrice:  priceToken,
			DetailURL: detailURL,
			InStock:   true,
		})
	}
	return candidates
}

func (c *Client) GetProductDetails(ctx context.Context, detailURL string) (catalog.Product, error) {
	ctx, span := tracer.Start(ctx, "croma:GetProductDetails", trace.WithAttributes(
		attribute.String("url", detailURL),
	))
	defer span.End()

	content, err := c.fetcher.Fetch(ctx, detailURL, transport.FetchOptions{
		WaitSelector: "h1.pd-title",
		Settle:       4 * time.Second,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return catalog.Product{}, fmt.Errorf("croma product: %w: %w", catalog.ErrSourceUnavailable, err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return catalog.Product{}, fmt.Errorf("croma product: parse page: %w", err)
	}
	return c.parseProductPage(doc, detailURL)
}

func (c *Client) parseProductPage(doc *goquery.Document, detailURL string) (catalog.Product, error) {
	title := strings.TrimSpace(doc.Find("h1.pd-title").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}
	priceText := strings.TrimSpace(doc.Find("span.amount").First().Text())

	if title == "" || priceText == "" {
		for _, c := range core.ExtractStructured(doc, detailURL) {
			if title == "" {
				title = c.Title
			}
			if priceText == "" {
				priceText = c.RawPrice
			}
			break
		}
	}

	if title == "" {
		return catalog.Product{}, fmt.Errorf("croma product: no title at %s", detailURL)
	}
	price, ok := money.Normalize(priceText)
	if !ok {
		return catalog.Product{}, fmt.Errorf("croma product: no valid price at %s", detailURL)
	}

	var specs []string
	doc.Find("ul.prod-specifications li, div.cp-keyfeature li").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if text := htmlutil.CleanText(sel.Text()); text != "" {
			specs = append(specs, text)
		}
		return len(specs) < 5
	})

	return catalog.Product{
		Source:    Source,
		Title:     title,
		Price:     price,
		Currency:  money.Currency,
		DetailURL: detailURL,
		ImageURL:  doc.Find("img.pd-image").First().AttrOr("src", ""),
		InStock:   !strings.Contains(strings.ToLower(doc.Find("div.pdp-stock").Text()), "out of stock"),
		Specs:     specs,
	}, nil
}
