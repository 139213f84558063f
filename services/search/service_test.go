package search

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Legendtss/price-tracker/lib/catalog"

	"github.com/stretchr/testify/require"
)

type fakeExtractor struct {
	source   string
	products []catalog.Product
	err      error
	delay    time.Duration
	detail   catalog.Product
}

var _ catalog.SourceExtractor = (*fakeExtractor)(nil)

func (f *fakeExtractor) Source() string { return f.source }

func (f *fakeExtractor) Search(ctx context.Context, query string, max int) ([]catalog.Product, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.products, nil
}

func (f *fakeExtractor) GetProductDetails(ctx context.Context, detailURL string) (catalog.Product, error) {
	if f.err != nil {
		return catalog.Product{}, f.err
	}
	return f.detail, nil
}

func product(source, title string, price float64) catalog.Product {
	return catalog.Product{
		Source:    source,
		Title:     title,
		Price:     price,
		Currency:  "INR",
		DetailURL: fmt.Sprintf("https://%s.example/%d", source, int(price)),
		InStock:   true,
	}
}

func TestNewRejectsEmptyAndUnknown(t *testing.T) {
	_, err := New(Options{})
	require.ErrorIs(t, err, ErrNoSources)

	_, err = New(Options{
		Extractors:     []catalog.SourceExtractor{&fakeExtractor{source: "amazon"}},
		AllowedSources: []string{"amazon", "snapdeal"},
	})
	require.ErrorIs(t, err, ErrUnknownSource)
}

func TestSearchIsolatesSourceFailures(t *testing.T) {
	svc, err := New(Options{Extractors: []catalog.SourceExtractor{
		&fakeExtractor{source: "amazon", products: []catalog.Product{
			product("amazon", "Apple iPhone 15 (128GB) Black", 79900),
		}},
		&fakeExtractor{source: "flipkart", err: errors.New("blocked by anti-bot")},
		&fakeExtractor{source: "croma", products: []catalog.Product{
			product("croma", "Apple iPhone 15 128GB Blue", 78990),
		}},
	}})
	require.NoError(t, err)

	result, err := svc.Search(context.Background(), "iPhone 15", 5)
	require.NoError(t, err)

	require.True(t, result.Sources["amazon"].Succeeded)
	require.True(t, result.Sources["croma"].Succeeded)

	failed := result.Sources["flipkart"]
	require.False(t, failed.Succeeded)
	require.Contains(t, failed.ErrorMessage, "anti-bot")
	require.Empty(t, failed.Products)

	require.Equal(t, 2, result.TotalResults)
	require.NotNil(t, result.LowestPrice)
	require.Equal(t, "croma", result.LowestPrice.Source)
	require.Equal(t, float64(78990), result.LowestPrice.Price)
}

func TestSearchAllSourcesFail(t *testing.T) {
	svc, err := New(Options{Extractors: []catalog.SourceExtractor{
		&fakeExtractor{source: "amazon", err: errors.New("timeout")},
		&fakeExtractor{source: "flipkart", err: errors.New("timeout")},
	}})
	require.NoError(t, err)

	result, err := svc.Search(context.Background(), "iPhone 15", 5)
	require.NoError(t, err)
	require.Equal(t, 0, result.TotalResults)
	require.Nil(t, result.LowestPrice)
	require.Len(t, result.Sources, 2)
	for _, outcome := range result.Sources {
		require.False(t, outcome.Succeeded)
	}
}

func TestSearchDistinguishesEmptyFromFailed(t *testing.T) {
	svc, err := New(Options{Extractors: []catalog.SourceExtractor{
		&fakeExtractor{source: "amazon"},
	}})
	require.NoError(t, err)

	result, err := svc.Search(context.Background(), "iPhone 15", 5)
	require.NoError(t, err)

	outcome := result.Sources["amazon"]
	require.True(t, outcome.Succeeded)
	require.Empty(t, outcome.Products)
	require.Empty(t, outcome.ErrorMessage)
}

func TestSearchBoundsPerSource(t *testing.T) {
	var many []catalog.Product
	for i := 0; i < 12; i++ {
		many = append(many, product("amazon",
			fmt.Sprintf("Apple iPhone 15 (128GB) variant %d", i),
			70000+float64(i*1000)))
	}
	svc, err := New(Options{Extractors: []catalog.SourceExtractor{
		&fakeExtractor{source: "amazon", products: many},
	}})
	require.NoError(t, err)

	result, err := svc.Search(context.Background(), "iPhone 15", 50)
	require.NoError(t, err)
	require.LessOrEqual(t, len(result.Sources["amazon"].Products), catalog.PerSourceLimit)
}

func TestSearchFiltersInvalidPricesAndIrrelevant(t *testing.T) {
	svc, err := New(Options{Extractors: []catalog.SourceExtractor{
		&fakeExtractor{source: "amazon", products: []catalog.Product{
			product("amazon", "Apple iPhone 15 (128GB) Black", 79900),
			product("amazon", "Apple iPhone 15 glitch", 1),
			product("amazon", "iPhone 15 Pro Max Silicone Case", 1999),
		}},
	}})
	require.NoError(t, err)

	result, err := svc.Search(context.Background(), "iPhone 15", 5)
	require.NoError(t, err)

	products := result.Sources["amazon"].Products
	require.Len(t, products, 1)
	require.Equal(t, "Apple iPhone 15 (128GB) Black", products[0].Title)
}

func TestSearchOnePicksCheapestPerSource(t *testing.T) {
	svc, err := New(Options{Extractors: []catalog.SourceExtractor{
		&fakeExtractor{source: "amazon", products: []catalog.Product{
			product("amazon", "Apple iPhone 15 (128GB) Black", 79900),
			product("amazon", "Apple iPhone 15 (128GB) Blue", 78490),
		}},
		&fakeExtractor{source: "croma", products: []catalog.Product{
			product("croma", "Apple iPhone 15 128GB Green", 78990),
		}},
	}})
	require.NoError(t, err)

	result, err := svc.SearchOne(context.Background(), "iPhone 15")
	require.NoError(t, err)

	for name, outcome := range result.Sources {
		require.LessOrEqual(t, len(outcome.Products), 1, "source %s", name)
	}
	require.Equal(t, float64(78490), result.Sources["amazon"].Products[0].Price)
	require.Equal(t, "amazon", result.LowestPrice.Source)
}

func TestSearchRunsSourcesConcurrently(t *testing.T) {
	delay := 150 * time.Millisecond
	var extractors []catalog.SourceExtractor
	for _, name := range []string{"amazon", "flipkart", "croma"} {
		extractors = append(extractors, &fakeExtractor{
			source: name,
			delay:  delay,
			products: []catalog.Product{
				product(name, "Apple iPhone 15 (128GB) Black", 79900),
			},
		})
	}
	svc, err := New(Options{Extractors: extractors})
	require.NoError(t, err)

	start := time.Now()
	_, err = svc.Search(context.Background(), "iPhone 15", 5)
	require.NoError(t, err)

	// settled in roughly one delay, not three
	require.Less(t, time.Since(start), 3*delay)
}

func TestSearchEmptyQuery(t *testing.T) {
	svc, err := New(Options{Extractors: []catalog.SourceExtractor{
		&fakeExtractor{source: "amazon"},
	}})
	require.NoError(t, err)

	_, err = svc.Search(context.Background(), "", 5)
	require.ErrorIs(t, err, ErrEmptyQuery)
}

func TestSearchSource(t *testing.T) {
	svc, err := New(Options{Extractors: []catalog.SourceExtractor{
		&fakeExtractor{source: "amazon", products: []catalog.Product{
			product("amazon", "Apple iPhone 15 (128GB) Black", 79900),
		}},
	}})
	require.NoError(t, err)

	products, err := svc.SearchSource(context.Background(), "amazon", "iPhone 15", 5)
	require.NoError(t, err)
	require.Len(t, products, 1)

	_, err = svc.SearchSource(context.Background(), "snapdeal", "iPhone 15", 5)
	require.ErrorIs(t, err, ErrUnknownSource)
}

func TestListSourcesKeepsRegistrationOrder(t *testing.T) {
	svc, err := New(Options{Extractors: []catalog.SourceExtractor{
		&fakeExtractor{source: "amazon"},
		&fakeExtractor{source: "flipkart"},
		&fakeExtractor{source: "croma"},
	}})
	require.NoError(t, err)
	require.Equal(t, []string{"amazon", "flipkart", "croma"}, svc.ListSources())

	allowed, err := New(Options{
		Extractors: []catalog.SourceExtractor{
			&fakeExtractor{source: "amazon"},
			&fakeExtractor{source: "flipkart"},
		},
		AllowedSources: []string{"flipkart"},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"flipkart"}, allowed.ListSources())
}

func TestRecheckPriceGuardsDrift(t *testing.T) {
	svc, err := New(Options{Extractors: []catalog.SourceExtractor{
		&fakeExtractor{
			source: "amazon",
			detail: product("amazon", "Apple iPhone 15 (128GB) Black", 74900),
		},
		&fakeExtractor{
			source: "flipkart",
			detail: product("flipkart", "Samsung Galaxy S24 Ultra 5G", 121999),
		},
	}})
	require.NoError(t, err)

	updated, err := svc.RecheckPrice(context.Background(),
		"amazon", "https://amazon.example/dp/x", "Apple iPhone 15 (128GB) Black")
	require.NoError(t, err)
	require.Equal(t, float64(74900), updated.Price)

	_, err = svc.RecheckPrice(context.Background(),
		"flipkart", "https://flipkart.example/p/x", "Apple iPhone 15 (128GB) Black")
	require.ErrorIs(t, err, ErrProductDrift)
}
