// Package relevance decides whether a scraped listing actually answers
// the user's query, and whether two listings from one marketplace are
// the same underlying product.
package relevance

import (
	"regexp"
	"strings"

	"github.com/Legendtss/price-tracker/lib/textutil"
)

type queryProfile struct {
	tokens  []string
	brands  []string // canonical brand names implied by the query
	numeric []string
	colors  []string
}

func profileQuery(query string) queryProfile {
	p := queryProfile{tokens: textutil.Tokenize(query)}
	seenBrand := map[string]struct{}{}
	for _, tok := range p.tokens {
		if brand, ok := brandOfToken(tok); ok {
			if _, dup := seenBrand[brand]; !dup {
				p.brands = append(p.brands, brand)
				seenBrand[brand] = struct{}{}
			}
			continue
		}
		if textutil.HasDigit(tok) {
			p.numeric = append(p.numeric, tok)
			continue
		}
		if _, ok := colorTokens[tok]; ok {
			p.colors = append(p.colors, tok)
		}
	}
	return p
}

func brandOfToken(tok string) (string, bool) {
	for brand, aliases := range brandAliases {
		for _, alias := range aliases {
			if tok == alias {
				return brand, true
			}
		}
	}
	return "", false
}

// aliasInTitle reports whether an alias occurs in the title, as a token
// or as a substring. Short aliases ("mi", "hp", "lg") only count as
// whole tokens, substring matching would light them up inside unrelated
// words.
func aliasInTitle(alias string, titleNorm string, titleTokens map[string]struct{}) bool {
	if _, ok := titleTokens[alias]; ok {
		return true
	}
	if len(alias) < 4 {
		return false
	}
	return strings.Contains(titleNorm, alias)
}

func brandInTitle(brand string, titleNorm string, titleTokens map[string]struct{}) bool {
	for _, alias := range brandAliases[brand] {
		if aliasInTitle(alias, titleNorm, titleTokens) {
			return true
		}
	}
	return false
}

// LooksElectronic reports whether a query is about consumer electronics,
// either through an electronics keyword or a known brand.
func LooksElectronic(query string) bool {
	p := profileQuery(query)
	if len(p.brands) > 0 {
		return true
	}
	for _, tok := range p.tokens {
		for _, kw := range electronicsKeywords {
			if tok == kw {
				return true
			}
		}
	}
	return false
}

func matchesAny(titleNorm string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(titleNorm, kw) {
			return true
		}
	}
	return false
}

// Score rates how well a listing title answers the query. Anything <= 0
// is a rejection.
func Score(query, title string) float64 {
	p := profileQuery(query)
	if len(p.tokens) == 0 {
		return 0
	}

	titleNorm := textutil.Normalize(title)
	titleTokens := map[string]struct{}{}
	for _, tok := range textutil.Tokenize(title) {
		titleTokens[tok] = struct{}{}
	}

	// a query naming a brand must never surface another brand's listing
	for _, brand := range p.brands {
		if !brandInTitle(brand, titleNorm, titleTokens) {
			return 0
		}
	}

	// model numbers and capacities match verbatim or not at all
	for _, num := range p.numeric {
		if !aliasInTitle(num, titleNorm, titleTokens) && !strings.Contains(titleNorm, num) {
			return 0
		}
	}

	// brand and model number must appear together at least once,
	// "apple ... unrelated ... 15" is not an iphone 15 listing
	if len(p.brands) > 0 && len(p.numeric) > 0 && !contiguousBrandNumber(p, titleNorm) {
		return 0
	}

	if LooksElectronic(query) {
		if matchesAny(titleNorm, accessoryKeywords) || matchesAny(titleNorm, apparelKeywords) {
			return 0
		}
	}

	matched := 0
	colorMatched := 0
	for _, tok := range p.tokens {
		if !aliasInTitle(tok, titleNorm, titleTokens) && !strings.Contains(titleNorm, tok) {
			continue
		}
		matched++
		if _, ok := colorTokens[tok]; ok {
			colorMatched++
		}
	}

	overlap := float64(matched) / float64(len(p.tokens))
	switch {
	case len(p.tokens) <= 2:
		if matched != len(p.tokens) {
			return 0
		}
	case len(p.tokens) <= 3:
		if overlap < 0.5 {
			return 0
		}
	default:
		if overlap < 0.4 {
			return 0
		}
	}

	score := float64(matched)
	if strings.Contains(titleNorm, textutil.Normalize(query)) {
		score += 5
	}
	score += 1.5 * float64(colorMatched)
	score += 3 * overlap
	if len(p.brands) > 0 {
		score += 2
	}
	if len(p.numeric) > 0 {
		score += 2
	}
	return score
}

func contiguousBrandNumber(p queryProfile, titleNorm string) bool {
	for _, brand := range p.brands {
		for _, alias := range brandAliases[brand] {
			for _, num := range p.numeric {
				if strings.Contains(titleNorm, alias+" "+num) ||
					strings.Contains(titleNorm, alias+num) {
					return true
				}
			}
		}
	}
	return false
}

var storageRegex = regexp.MustCompile(`(\d+)\s?(gb|tb)`)

// BrandOf extracts the canonical brand a title belongs to, if any.
func BrandOf(title string) (string, bool) {
	titleNorm := textutil.Normalize(title)
	titleTokens := map[string]struct{}{}
	for _, tok := range textutil.Tokenize(title) {
		titleTokens[tok] = struct{}{}
	}
	for brand := range brandAliases {
		if brandInTitle(brand, titleNorm, titleTokens) {
			return brand, true
		}
	}
	return "", false
}

// ColorOf extracts the first color token in a title, if any.
func ColorOf(title string) (string, bool) {
	for _, tok := range textutil.Tokenize(title) {
		if _, ok := colorTokens[tok]; ok {
			return tok, true
		}
	}
	return "", false
}

// StorageOf extracts a storage/capacity marker such as "128gb", if any.
func StorageOf(title string) (string, bool) {
	m := storageRegex.FindStringSubmatch(textutil.Normalize(title))
	if m == nil {
		return "", false
	}
	return m[1] + m[2], true
}

// ModelTokenOf extracts a coarse model token, the first digit-bearing
// token that is not a storage marker.
func ModelTokenOf(title string) (string, bool) {
	for _, tok := range textutil.Tokenize(title) {
		if !textutil.HasDigit(tok) {
			continue
		}
		if storageRegex.MatchString(tok) {
			continue
		}
		return tok, true
	}
	return "", false
}
