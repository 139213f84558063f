package core

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// subset of schema.org shapes the marketplaces inline in
// <script type="application/ld+json"> blocks
type ldProduct struct {
	Type  string   `json:"@type"`
	Name  string   `json:"name"`
	URL   string   `json:"url"`
	Image ldImage  `json:"image"`
	Offer *ldOffer `json:"offers"`
}

type ldOffer struct {
	Price        ldPrice `json:"price"`
	Availability string  `json:"availability"`
}

// ldPrice tolerates both a JSON number and a quoted string, sites use
// either.
type ldPrice string

func (p *ldPrice) UnmarshalJSON(data []byte) error {
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		*p = ldPrice(asString)
		return nil
	}
	var asNumber json.Number
	if err := json.Unmarshal(data, &asNumber); err == nil {
		*p = ldPrice(asNumber.String())
	}
	return nil
}

type ldItemList struct {
	Type     string `json:"@type"`
	Elements []struct {
		Item ldProduct `json:"item"`
	} `json:"itemListElement"`
}

// ldImage tolerates both a bare string and an array of urls.
type ldImage struct {
	URL string
}

func (i *ldImage) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		i.URL = single
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err == nil && len(many) > 0 {
		i.URL = many[0]
	}
	// unknown shapes are not worth failing extraction over
	return nil
}

// ExtractStructured pulls candidates out of embedded schema.org JSON.
// This is the most reliable strategy: inline data survives markup
// redesigns that break every CSS selector.
func ExtractStructured(doc *goquery.Document, baseURL string) []Candidate {
	var candidates []Candidate
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sel *goquery.Selection) {
		raw := strings.TrimSpace(sel.Text())
		if raw == "" {
			return
		}

		var list ldItemList
		if err := json.Unmarshal([]byte(raw), &list); err == nil && strings.EqualFold(list.Type, "ItemList") {
			for _, el := range list.Elements {
				if c, ok := candidateFromLD(el.Item, baseURL); ok {
					candidates = append(candidates, c)
				}
			}
			return
		}

		var product ldProduct
		if err := json.Unmarshal([]byte(raw), &product); err == nil {
			if c, ok := candidateFromLD(product, baseURL); ok {
				candidates = append(candidates, c)
			}
		}
	})
	return candidates
}

func candidateFromLD(p ldProduct, baseURL string) (Candidate, bool) {
	if !strings.EqualFold(p.Type, "Product") || p.Name == "" || p.Offer == nil {
		return Candidate{}, false
	}
	price := string(p.Offer.Price)
	if price == "" {
		return Candidate{}, false
	}
	return Candidate{
		Title:     p.Name,
		RawPrice:  price,
		DetailURL: AbsoluteURL(baseURL, p.URL),
		ImageURL:  p.Image.URL,
		InStock:   !strings.Contains(strings.ToLower(p.Offer.Availability), "outofstock"),
	}, true
}
