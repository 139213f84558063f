// Package flipkart scrapes flipkart.com search results and product pages.
package flipkart

import (
	"context"
	"fmt"
	"net/url"
	"strings"

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

var tracer = otel.Tracer("pricetracker.lib.scrapers.flipkart")

const (
	Source         = "flipkart"
	defaultBaseURL = "https://www.flipkart.com"

	defaultMinListingBytes = 15000
)

// flipkart churns through obfuscated class names on every redesign, so
// each selector list carries the last few generations
var (
	titleSelectors = []string{"div.KzDlHZ", "div._4rR01T", "a.s1Q9rs", "a.wjcEIp"}
	priceSelectors = []string{"div.Nx9bqj", "div._30jeq3"}
	imageSelectors = []string{"img.DByuf4", "img._396cs4"}
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
	params.Set("q", query)
	return c.baseURL + "/search?" + params.Encode()
}

func (c *Client) Search(ctx context.Context, query string, max int) ([]catalog.Product, error) {
	ctx, span := tracer.Start(ctx, "flipkart:Search", trace.WithAttributes(
		attribute.String("query", query),
	))
	defer span.End()

	content, blocked, err := core.FetchListing(
		ctx, c.fetcher, c.searchURL(query),
		transport.FetchOptions{WaitSelector: `div[data-id]`},
		c.minBytes,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return nil, fmt.Errorf("flipkart search: %w: %w", catalog.ErrSourceUnavailable, err)
	}
	if blocked {
		return nil, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("flipkart search: parse page: %w", err)
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
	doc.Find("div[data-id]").Each(func(_ int, sel *goquery.Selection) {
		title := firstText(sel, titleSelectors)
		if title == "" {
			// list-view cards keep the name in the link's title attr
			title = strings.TrimSpace(sel.Find(`a[title]`).AttrOr("title", ""))
		}
		href := sel.Find(`a[href*="/p/"]`).AttrOr("href", "")
		candidates = append(candidates, core.Candidate{
			Title:     title,
			RawPrice:  firstText(sel, priceSelectors),
			DetailURL: core.AbsoluteURL(c.baseURL, href),
			ImageURL:  firstAttr(sel, imageSelectors, "src"),
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
	ctx, span := tracer.Start(ctx, "flipkart:GetProductDetails", trace.WithAttributes(
		attribute.String("url", detailURL),
	))
	defer span.End()

	content, err := c.fetcher.Fetch(ctx, detailURL, transport.FetchOptions{
		WaitSelector: "h1",
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return catalog.Product{}, fmt.Errorf("flipkart product: %w: %w", catalog.ErrSourceUnavailable, err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return catalog.Product{}, fmt.Errorf("flipkart product: parse page: %w", err)
	}
	return c.parseProductPage(doc, detailURL)
}

func (c *Client) parseProductPage(doc *goquery.Document, detailURL string) (catalog.Product, error) {
	title := strings.TrimSpace(doc.Find("h1 span").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}
	priceText := firstText(doc.Selection, priceSelectors)

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
		return catalog.Product{}, fmt.Errorf("flipkart product: no title at %s", detailURL)
	}
	price, ok := money.Normalize(priceText)
	if !ok {
		return catalog.Product{}, fmt.Errorf("flipkart product: no valid price at %s", detailURL)
	}

	var specs []string
	doc.Find("li._21Ahn-, li.rgWa7D").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
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
		ImageURL:  firstAttr(doc.Selection, imageSelectors, "src"),
		InStock:   !strings.Contains(strings.ToLower(doc.Text()), "out of stock"),
		Specs:     specs,
	}, nil
}

func firstText(sel *goquery.Selection, selectors []string) string {
	for _, s := range selectors {
		if text := strings.TrimSpace(sel.Find(s).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

func firstAttr(sel *goquery.Selection, selectors []string, attr string) string {
	for _, s := range selectors {
		if v := sel.Find(s).First().AttrOr(attr, ""); v != "" {
			return v
		}
	}
	return ""
}
