// Package money parses the wildly different shapes marketplace price text
// arrives in: symbol-prefixed ("₹79,900"), separately-split whole/fraction
// DOM nodes already joined into one string, or pre-cleaned numeric text.
package money

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/Legendtss/price-tracker/lib/catalog"
)

const Currency = "INR"

// matches a currency marker followed by digits with optional separators,
// e.g. "₹79,900", "Rs. 1,499.00", "INR 2999"
var symbolPriceRegex = regexp.MustCompile(`(?:₹|Rs\.?|INR)\s*([0-9][0-9,]*(?:\.[0-9]+)?)`)

var currencyJunkRegex = regexp.MustCompile(`[₹,\s]|Rs\.?|INR`)

// a trailing dot followed by exactly three digits is a thousands
// separator in the target locale, not a decimal point
var thousandDotRegex = regexp.MustCompile(`\.([0-9]{3})$`)

// Normalize parses heterogeneous price text into a validated amount.
// It returns false for anything that is not a plausible selling price:
// non-numeric text, non-finite values and amounts under the
// catalog.MinValidPrice floor. A "parse the first number you see"
// approach is unsafe here, rating counts and offer badges parse as
// numbers too, hence the hard floor.
func Normalize(text string) (float64, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, false
	}

	// prefer symbol-anchored matches; when a card shows both a selling
	// price and a struck-through list price, the selling price is the
	// lower of the two. Sub-floor fragments ("Save ₹99", "₹49
	// delivery") are badges, not prices, and never poison the result.
	matches := symbolPriceRegex.FindAllStringSubmatch(text, -1)
	if len(matches) > 0 {
		lowest := math.Inf(1)
		for _, m := range matches {
			v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
			if err != nil || v < catalog.MinValidPrice {
				continue
			}
			if v < lowest {
				lowest = v
			}
		}
		return validate(lowest)
	}

	cleaned := currencyJunkRegex.ReplaceAllString(text, "")
	cleaned = thousandDotRegex.ReplaceAllString(cleaned, "$1")
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return validate(v)
}

func validate(v float64) (float64, bool) {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	if v <= 0 || v < catalog.MinValidPrice {
		return 0, false
	}
	return v, true
}
