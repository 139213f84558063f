// Package amazon scrapes amazon.in search results and product pages.
package amazon

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/Legendtss/price-tracker/lib/catalog"
	"github.com/Legendtss/price-tracker/lib/htmlutil"
	"github.com/Legendtss/price-tracker/lib/money"
	"github.com/Legendtss/price-tracker/lib/relevance"
	"github.com/Legendtss/price-tracker/lib/scrapers/core"
	"github.com/Legendtss/price-tracker/lib/transport"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("pricetracker.lib.scrapers.amazon")

const (
	Source         = "amazon"
	defaultBaseURL = "https://www.amazon.in"

	// a real result page is hundreds of KB, anything under this is a
	// captcha interstitial or an empty shell
	defaultMinListingBytes = 20000
)

type Client struct {
	fetcher  transport.Fetcher
	baseURL  string
	minBytes int
}

type ClientOptions struct {
	Fetcher transport.Fetcher
	// BaseURL overrides the marketplace origin, used by tests.
	BaseURL string
	// MinListingBytes overrides the bot-block threshold, used by tests.
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
	params.Set("k", query)
	// electronics-looking queries get a department filter: it pushes
	// third-party accessory spam much further down the results
	if relevance.LooksElectronic(query) {
		params.Set("i", "electronics")
	}
	return c.baseURL + "/s?" + params.Encode()
}

func (c *Client) Search(ctx context.Context, query string, max int) ([]catalog.Product, error) {
	ctx, span := tracer.Start(ctx, "amazon:Search", trace.WithAttributes(
		attribute.String("query", query),
	))
	defer span.End()

	content, blocked, err := core.FetchListing(
		ctx, c.fetcher, c.searchURL(query),
		transport.FetchOptions{WaitSelector: "div.s-main-slot"},
		c.minBytes,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return nil, fmt.Errorf("amazon search: %w: %w", catalog.ErrSourceUnavailable, err)
	}
	if blocked {
		return nil, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("amazon search: parse page: %w", err)
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

// primary strategy: the search-result cards amazon renders today
func (c *Client) extractResultCards(doc *goquery.Document) []core.Candidate {
	var candidates []core.Candidate
	doc.Find("div.s-main-slot div[data-component-type='s-search-result']").Each(func(_ int, sel *goquery.Selection) {
		title := strings.TrimSpace(sel.Find("h2 span").First().Text())
		price := strings.TrimSpace(sel.Find("span.a-price span.a-offscreen").First().Text())
		if price == "" {
			price = strings.TrimSpace(sel.Find("span.a-price-whole").First().Text())
		}
		href := sel.Find("h2 a").AttrOr("href", "")
		if href == "" {
			href = sel.Find("a.a-link-normal").AttrOr("href", "")
		}
		unavailable := strings.Contains(
			strings.ToLower(sel.Text()), "currently unavailable",
		)
		candidates = append(candidates, core.Candidate{
			Title:     title,
			RawPrice:  price,
			DetailURL: core.AbsoluteURL(c.baseURL, href),
			ImageURL:  sel.Find("img.s-image").AttrOr("src", ""),
			InStock:   !unavailable,
		})
	})
	return candidates
}

// last-resort strategy: find detail links, then walk up until a price
// token appears in an ancestor card
func (c *Client) extractDetailAnchors(doc *goquery.Document) []core.Candidate {
	var candidates []core.Candidate
	seen := map[string]struct{}{}
	for _, node := range doc.Find(`a[href*="/dp/"]`).Nodes {
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
	ctx, span := tracer.Start(ctx, "amazon:GetProductDetails", trace.WithAttributes(
		attribute.String("url", detailURL),
	))
	defer span.End()

	content, err := c.fetcher.Fetch(ctx, detailURL, transport.FetchOptions{
		WaitSelector: "#productTitle",
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return catalog.Product{}, fmt.Errorf("amazon product: %w: %w", catalog.ErrSourceUnavailable, err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return catalog.Product{}, fmt.Errorf("amazon product: parse page: %w", err)
	}
	return c.parseProductPage(doc, detailURL)
}

func (c *Client) parseProductPage(doc *goquery.Document, detailURL string) (catalog.Product, error) {
	title := strings.TrimSpace(doc.Find("#productTitle").First().Text())
	priceText := firstNonEmpty(
		strings.TrimSpace(doc.Find("span.a-price span.a-offscreen").First().Text()),
		strings.TrimSpace(doc.Find("span#priceblock_ourprice").First().Text()),
		strings.TrimSpace(doc.Find("span#priceblock_dealprice").First().Text()),
	)

	// product pages usually carry schema.org data too, prefer selectors
	// but let structured data fill the gaps
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
		return catalog.Product{}, fmt.Errorf("amazon product: no title at %s", detailURL)
	}
	price, ok := money.Normalize(priceText)
	if !ok {
		return catalog.Product{}, fmt.Errorf("amazon product: no valid price at %s", detailURL)
	}

	availability := strings.ToLower(strings.TrimSpace(doc.Find("#availability span").First().Text()))
	var specs []string
	doc.Find("#feature-bullets li span").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
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
		ImageURL:  doc.Find("img#landingImage").AttrOr("src", ""),
		InStock:   !strings.Contains(availability, "unavailable"),
		Specs:     specs,
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
