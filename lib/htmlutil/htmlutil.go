package htmlutil

import (
	"bytes"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

var innerWhitespace = regexp.MustCompile(`\s\s+`)

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

func CleanText(s string) string {
	s = removeNonPrintable(s)
	s = strings.Trim(s, " \t\n")
	return innerWhitespace.ReplaceAllString(s, " ")
}

// Href returns the node's href attribute, empty when absent.
func Href(node *html.Node) string {
	for _, a := range node.Attr {
		if a.Key == "href" {
			return a.Val
		}
	}
	return ""
}

// PriceTokenRegex matches a price-looking fragment inside arbitrary
// listing-card text.
var PriceTokenRegex = regexp.MustCompile(`(?:₹|Rs\.?|INR)\s*[0-9][0-9,]*(?:\.[0-9]+)?`)

// AncestorWithPrice walks up from a node until it reaches an ancestor
// whose text carries a price-looking token, the way a listing card wraps
// both the product link and its price. maxDepth bounds the walk so a
// match against the whole page body never counts.
func AncestorWithPrice(node *html.Node, maxDepth int) (*html.Node, string) {
	current := node.Parent
	for depth := 0; current != nil && depth < maxDepth; depth++ {
		text := GetText(current)
		if token := PriceTokenRegex.FindString(text); token != "" {
			return current, token
		}
		current = current.Parent
	}
	return nil, ""
}
