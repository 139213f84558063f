package relevance

import (
	"github.com/Legendtss/price-tracker/lib/catalog"
	"github.com/Legendtss/price-tracker/lib/textutil"
)

// SameProduct reports whether two listings from the same marketplace
// describe the same underlying product. Differing color or storage
// variants are distinct products, a 256GB phone is not a duplicate of
// the 128GB one.
func SameProduct(a, b catalog.Product) bool {
	if titleSimilarity(a.Title, b.Title) < 0.7 {
		return false
	}
	if av, aok := BrandOf(a.Title); aok {
		if bv, bok := BrandOf(b.Title); bok && av != bv {
			return false
		}
	}
	if av, aok := ColorOf(a.Title); aok {
		if bv, bok := ColorOf(b.Title); bok && av != bv {
			return false
		}
	}
	if av, aok := StorageOf(a.Title); aok {
		if bv, bok := StorageOf(b.Title); bok && av != bv {
			return false
		}
	}
	if av, aok := ModelTokenOf(a.Title); aok {
		if bv, bok := ModelTokenOf(b.Title); bok && av != bv {
			return false
		}
	}
	return true
}

// token-overlap ratio over words longer than 2 characters
func titleSimilarity(a, b string) float64 {
	aTokens := significantTokens(a)
	bTokens := significantTokens(b)
	if len(aTokens) == 0 || len(bTokens) == 0 {
		return 0
	}
	shared := 0
	for tok := range aTokens {
		if _, ok := bTokens[tok]; ok {
			shared++
		}
	}
	larger := len(aTokens)
	if len(bTokens) > larger {
		larger = len(bTokens)
	}
	return float64(shared) / float64(larger)
}

func significantTokens(s string) map[string]struct{} {
	out := map[string]struct{}{}
	for _, tok := range textutil.Tokenize(s) {
		if len(tok) > 2 {
			out[tok] = struct{}{}
		}
	}
	return out
}

// Dedup collapses duplicate listings, keeping the cheaper of each pair.
// Running it on an already-deduplicated list is a no-op.
func Dedup(products []catalog.Product) []catalog.Product {
	var kept []catalog.Product
	for _, p := range products {
		dup := -1
		for i, k := range kept {
			if SameProduct(k, p) {
				dup = i
				break
			}
		}
		if dup < 0 {
			kept = append(kept, p)
			continue
		}
		if p.Price < kept[dup].Price {
			kept[dup] = p
		}
	}
	return kept
}
