package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// MinValidPrice is the floor below which a parsed amount is never treated
// as a real selling price. Short numeric fragments scraped from the wrong
// page element (rating counts, offer badges) land under this line.
const MinValidPrice = 100

// PerSourceLimit is the maximum number of products retained per source
// after filtering.
const PerSourceLimit = 5

var ErrSourceUnavailable = errors.New("source unavailable")

// Product is a validated, schema-normalized record that is safe to rank
// and display. Price is a whole-rupee decimal and is always >= MinValidPrice,
// normalization either produces a valid Product or nothing.
type Product struct {
	Source    string   `json:"source"`
	Title     string   `json:"title"`
	Price     float64  `json:"price"`
	Currency  string   `json:"currency"`
	DetailURL string   `json:"detailUrl"`
	ImageURL  string   `json:"imageUrl,omitempty"`
	InStock   bool     `json:"inStock"`
	Specs     []string `json:"specs,omitempty"`
}

// SourceOutcome is the per-source result of one aggregated query.
// Failures are data, not errors, once captured at the pipeline boundary.
type SourceOutcome struct {
	Source       string        `json:"source"`
	Succeeded    bool          `json:"succeeded"`
	Products     []Product     `json:"products"`
	ErrorMessage string        `json:"errorMessage,omitempty"`
	Elapsed      time.Duration `json:"-"`
}

// MarshalJSON reports elapsed time in whole milliseconds, durations in
// nanoseconds mean nothing to the consumers of this payload.
func (o SourceOutcome) MarshalJSON() ([]byte, error) {
	type alias SourceOutcome
	return json.Marshal(struct {
		alias
		Count     int   `json:"count"`
		ElapsedMs int64 `json:"elapsedMs"`
	}{alias(o), len(o.Products), o.Elapsed.Milliseconds()})
}

// Result is the final ranked comparison set for one query. It is built
// once and never mutated afterwards.
type Result struct {
	Query        string                   `json:"query"`
	Sources      map[string]SourceOutcome `json:"perSource"`
	TotalResults int                      `json:"totalResultCount"`
	LowestPrice  *Product                 `json:"globalLowestPrice,omitempty"`
}

// SourceExtractor is implemented once per marketplace.
type SourceExtractor interface {
	Source() string
	// Search returns validated products for the query. Implementations
	// over-fetch beyond max, the first listed items are frequently
	// sponsored or off-topic, and leave the final per-source bound to
	// the aggregation pipeline.
	Search(ctx context.Context, query string, max int) ([]Product, error)
	// GetProductDetails re-fetches a single product page, used by
	// external collaborators for periodic price re-checks.
	GetProductDetails(ctx context.Context, detailURL string) (Product, error)
}
