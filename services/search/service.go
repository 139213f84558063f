// Package search is the aggregation pipeline: it fans a query out to
// every configured marketplace, collects per-source outcomes including
// failures, and reduces the candidates to a small ranked comparison set.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Legendtss/price-tracker/lib/catalog"
	"github.com/Legendtss/price-tracker/lib/relevance"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("pricetracker.services.search")

var (
	ErrNoSources     = errors.New("no sources configured")
	ErrUnknownSource = errors.New("unknown source")
	ErrEmptyQuery    = errors.New("query is required")
	// ErrProductDrift means a re-fetched product page no longer
	// resembles the tracked product.
	ErrProductDrift = errors.New("product page drifted to a different product")
)

type Service struct {
	extractors []catalog.SourceExtractor
	byName     map[string]catalog.SourceExtractor
}

type Options struct {
	Extractors []catalog.SourceExtractor
	// AllowedSources restricts the service to a subset of the
	// registered extractors. Empty means all of them.
	AllowedSources []string
}

func New(opts Options) (*Service, error) {
	registered := map[string]catalog.SourceExtractor{}
	for _, ex := range opts.Extractors {
		registered[ex.Source()] = ex
	}

	var extractors []catalog.SourceExtractor
	if len(opts.AllowedSources) == 0 {
		extractors = opts.Extractors
	} else {
		for _, name := range opts.AllowedSources {
			ex, ok := registered[name]
			if !ok {
				return nil, fmt.Errorf("%w: %q", ErrUnknownSource, name)
			}
			extractors = append(extractors, ex)
		}
	}
	if len(extractors) == 0 {
		return nil, ErrNoSources
	}

	byName := map[string]catalog.SourceExtractor{}
	for _, ex := range extractors {
		byName[ex.Source()] = ex
	}
	return &Service{extractors: extractors, byName: byName}, nil
}

// ListSources returns the allowed sources in registration order.
func (s *Service) ListSources() []string {
	names := make([]string, len(s.extractors))
	for i, ex := range s.extractors {
		names[i] = ex.Source()
	}
	return names
}

// Search runs the full pipeline and keeps up to limit (capped at
// catalog.PerSourceLimit) products per source.
func (s *Service) Search(ctx context.Context, query string, limit int) (*catalog.Result, error) {
	return s.run(ctx, query, limit, false)
}

// SearchOne is the strict comparison view: at most one product per
// source, the cheapest relevant one.
func (s *Service) SearchOne(ctx context.Context, query string) (*catalog.Result, error) {
	return s.run(ctx, query, catalog.PerSourceLimit, true)
}

// SearchSource runs the pipeline for a single marketplace.
func (s *Service) SearchSource(ctx context.Context, source, query string, limit int) ([]catalog.Product, error) {
	ex, ok := s.byName[source]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, source)
	}
	if query == "" {
		return nil, ErrEmptyQuery
	}
	k := perSourceLimit(limit)
	products, err := ex.Search(ctx, query, k)
	if err != nil {
		return nil, err
	}
	return filterProducts(query, products, k), nil
}

// GetProductDetails re-fetches one product's current state, used by
// persistence collaborators for periodic price re-checks.
func (s *Service) GetProductDetails(ctx context.Context, source, detailURL string) (catalog.Product, error) {
	ex, ok := s.byName[source]
	if !ok {
		return catalog.Product{}, fmt.Errorf("%w: %q", ErrUnknownSource, source)
	}
	return ex.GetProductDetails(ctx, detailURL)
}

// RecheckPrice is GetProductDetails with a drift guard: expired
// listings redirect to category pages or replacement models, and a
// price from the wrong page must never update a tracked product.
func (s *Service) RecheckPrice(ctx context.Context, source, detailURL, expectedTitle string) (catalog.Product, error) {
	product, err := s.GetProductDetails(ctx, source, detailURL)
	if err != nil {
		return catalog.Product{}, err
	}
	if relevance.TitleDrifted(expectedTitle, product.Title) {
		return catalog.Product{}, fmt.Errorf(
			"%w: tracked %q, got %q", ErrProductDrift, expectedTitle, product.Title,
		)
	}
	return product, nil
}

func perSourceLimit(limit int) int {
	if limit <= 0 || limit > catalog.PerSourceLimit {
		return catalog.PerSourceLimit
	}
	return limit
}

func (s *Service) run(ctx context.Context, query string, limit int, strict bool) (*catalog.Result, error) {
	if query == "" {
		return nil, ErrEmptyQuery
	}

	ctx, span := tracer.Start(ctx, "Search", trace.WithAttributes(
		attribute.String("query", query),
		attribute.Bool("strict", strict),
	))
	defer span.End()

	k := perSourceLimit(limit)

	// settle-all fan-out: one slow or failing source never blocks or
	// cancels the others, and every outcome is collected
	outcomes := make([]catalog.SourceOutcome, len(s.extractors))
	var wg sync.WaitGroup
	for i, ex := range s.extractors {
		wg.Add(1)
		go func(i int, ex catalog.SourceExtractor) {
			defer wg.Done()
			outcomes[i] = collect(ctx, ex, query, k)
		}(i, ex)
	}
	wg.Wait()

	result := &catalog.Result{
		Query:   query,
		Sources: make(map[string]catalog.SourceOutcome, len(outcomes)),
	}
	var lowest *catalog.Product
	for _, outcome := range outcomes {
		outcome.Products = filterProducts(query, outcome.Products, k)
		if strict {
			outcome.Products = collapseToBest(query, outcome.Products)
		}
		// retention is score-ranked, presentation is price-sorted so
		// output is stable regardless of completion order
		sort.SliceStable(outcome.Products, func(i, j int) bool {
			return outcome.Products[i].Price < outcome.Products[j].Price
		})
		// counts come from the final retained set, upstream numbers
		// are not trusted
		result.TotalResults += len(outcome.Products)
		for i := range outcome.Products {
			p := outcome.Products[i]
			if lowest == nil || p.Price < lowest.Price {
				lowest = &p
			}
		}
		result.Sources[outcome.Source] = outcome
	}
	result.LowestPrice = lowest

	span.SetAttributes(attribute.Int("total_results", result.TotalResults))
	return result, nil
}

func collect(ctx context.Context, ex catalog.SourceExtractor, query string, limit int) catalog.SourceOutcome {
	start := time.Now()
	products, err := ex.Search(ctx, query, limit)
	elapsed := time.Since(start)

	if err != nil {
		slog.WarnContext(ctx, "source failed",
			"source", ex.Source(), "err", err, "elapsed", elapsed)
		span := trace.SpanFromContext(ctx)
		span.RecordError(err)
		span.SetStatus(codes.Error, "source failed")
		return catalog.SourceOutcome{
			Source:       ex.Source(),
			Succeeded:    false,
			ErrorMessage: err.Error(),
			Elapsed:      elapsed,
		}
	}
	return catalog.SourceOutcome{
		Source:    ex.Source(),
		Succeeded: true,
		Products:  products,
		Elapsed:   elapsed,
	}
}

// filterProducts applies the per-source reduction: price validity,
// dedup, relevance, rank, bound.
func filterProducts(query string, products []catalog.Product, k int) []catalog.Product {
	var valid []catalog.Product
	for _, p := range products {
		if p.Price >= catalog.MinValidPrice {
			valid = append(valid, p)
		}
	}

	deduped := relevance.Dedup(valid)

	type scored struct {
		product catalog.Product
		score   float64
	}
	var relevant []scored
	for _, p := range deduped {
		if score := relevance.Score(query, p.Title); score > 0 {
			relevant = append(relevant, scored{product: p, score: score})
		}
	}

	sort.SliceStable(relevant, func(i, j int) bool {
		if relevant[i].score != relevant[j].score {
			return relevant[i].score > relevant[j].score
		}
		return relevant[i].product.Price < relevant[j].product.Price
	})

	if len(relevant) > k {
		relevant = relevant[:k]
	}
	out := make([]catalog.Product, 0, len(relevant))
	for _, r := range relevant {
		out = append(out, r.product)
	}
	return out
}

// collapseToBest picks the single best product for the strict
// comparison view: lowest price first, best score breaking ties.
func collapseToBest(query string, products []catalog.Product) []catalog.Product {
	if len(products) <= 1 {
		return products
	}
	best := products[0]
	bestScore := relevance.Score(query, best.Title)
	for _, p := range products[1:] {
		score := relevance.Score(query, p.Title)
		if p.Price < best.Price || (p.Price == best.Price && score > bestScore) {
			best = p
			bestScore = score
		}
	}
	return []catalog.Product{best}
}
