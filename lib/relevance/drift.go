package relevance

import (
	"github.com/antzucaro/matchr"

	"github.com/Legendtss/price-tracker/lib/textutil"
)

// driftThreshold is the JaroWinkler similarity under which a re-fetched
// product page is considered to have drifted to a different product.
// Expired listings redirect to category pages or replacement models.
const driftThreshold = 0.55

// TitleDrifted reports whether a re-fetched title no longer resembles
// the one the caller originally tracked.
func TitleDrifted(expected, got string) bool {
	if expected == "" {
		return false
	}
	return matchr.JaroWinkler(textutil.Normalize(expected), textutil.Normalize(got), false) < driftThreshold
}
