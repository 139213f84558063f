package textutil

import (
	"regexp"
	"strings"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)
var nonAlnumRegex = regexp.MustCompile(`[^a-z0-9 ]+`)

var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "new": {},
	"buy": {}, "online": {}, "best": {}, "price": {}, "india": {},
	"latest": {}, "official": {}, "original": {},
}

// Normalize lowercases, strips non-alphanumerics and collapses inner
// whitespace. The output is the canonical form every matcher works on.
func Normalize(s string) string {
	s = strings.ToLower(s)
	s = nonAlnumRegex.ReplaceAllString(s, " ")
	s = whitespaceRegex.ReplaceAllString(s, " ")
	return strings.Trim(s, " ")
}

// Tokenize splits a normalized string into tokens, dropping single
// character tokens and stop words.
func Tokenize(s string) []string {
	var tokens []string
	for _, tok := range strings.Split(Normalize(s), " ") {
		if len(tok) <= 1 {
			continue
		}
		if _, stop := stopWords[tok]; stop {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// NormalizeName squashes a name down to a whitespace-free lowercase form
// for containment checks.
func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.Trim(name, " \n\t")
	name = whitespaceRegex.ReplaceAllString(name, "")
	return name
}

// MatchName reports whether any matcher substring occurs in the
// normalized name.
func MatchName(name string, matchers []string) bool {
	name = NormalizeName(name)
	for _, m := range matchers {
		if strings.Contains(name, m) {
			return true
		}
	}
	return false
}

// HasDigit reports whether the token carries at least one digit.
func HasDigit(tok string) bool {
	for _, c := range tok {
		if c >= '0' && c <= '9' {
			return true
		}
	}
	return false
}
