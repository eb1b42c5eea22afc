package scraper

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"chiayu/coursetrendworker/helpers"
	"chiayu/coursetrendworker/pkg/errors"
)

// ParseListingCards extracts structural signals from a listing page's raw
// markup: for every item card it finds the category label, an
// already-rendered count, and a crowdfunding flag, keyed by normalized
// detail path. Nesting depth between a marker and its card is not fixed, so
// each marker walks upward through its ancestors (bounded) until one
// containing a detail-page link is found.
func ParseListingCards(html string, m CardMarkers) (map[string]CardSignal, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, errors.NewParsing("", "listing page markup", err)
	}

	signals := make(map[string]CardSignal)

	fundingPaths := findFundingPaths(doc, m)

	if m.CategoryClass != "" {
		parseCategoryCards(doc, m, signals)
	}

	if m.CardCountRe != nil {
		parseLinkCards(doc, m, fundingPaths, signals)
	}

	return signals, nil
}

// findFundingPaths collects normalized paths of cards carrying the funding
// marker attribute.
func findFundingPaths(doc *goquery.Document, m CardMarkers) map[string]bool {
	paths := make(map[string]bool)
	if m.FundingAttr == "" {
		return paths
	}

	selector := fmt.Sprintf("[%s='%s']", m.FundingAttr, m.FundingValue)
	doc.Find(selector).Each(func(_ int, marker *goquery.Selection) {
		card := cardAncestor(marker, m)
		if card == nil {
			return
		}
		link := itemLink(card, m)
		if link == nil {
			return
		}
		if href, ok := link.Attr("href"); ok {
			paths[helpers.NormalizeItemPath(href, m.PathSuffix)] = true
		}
	})
	return paths
}

// parseCategoryCards handles platforms whose cards carry a type/category
// marker element plus an optional rendered count element.
func parseCategoryCards(doc *goquery.Document, m CardMarkers, signals map[string]CardSignal) {
	selector := fmt.Sprintf("[class*='%s']", m.CategoryClass)
	doc.Find(selector).Each(func(_ int, marker *goquery.Selection) {
		card := cardAncestor(marker, m)
		if card == nil {
			return
		}
		link := itemLink(card, m)
		if link == nil {
			return
		}
		href, ok := link.Attr("href")
		if !ok {
			return
		}
		path := helpers.NormalizeItemPath(href, m.PathSuffix)

		signal := CardSignal{Category: strings.TrimSpace(marker.Text())}

		if m.CountClass != "" {
			countSel := card.Find(fmt.Sprintf("[class*='%s']", m.CountClass)).First()
			if countSel.Length() > 0 {
				if n, err := helpers.ParseCount(firstNumber(countSel.Text())); err == nil {
					signal.Students = &n
				}
			}
		}

		signals[path] = signal
	})
}

// parseLinkCards handles platforms whose cards are identified by their
// detail links directly: the count is read from the link's own text and
// the funding flag from the pre-collected funding path set.
func parseLinkCards(doc *goquery.Document, m CardMarkers, fundingPaths map[string]bool, signals map[string]CardSignal) {
	doc.Find(fmt.Sprintf("a[href*='%s']", m.ItemPath)).Each(func(_ int, link *goquery.Selection) {
		href, ok := link.Attr("href")
		if !ok || !m.ItemPathRe.MatchString(href) {
			return
		}
		path := helpers.NormalizeItemPath(href, m.PathSuffix)
		if path == "" {
			return
		}
		if _, seen := signals[path]; seen {
			return
		}

		signal := CardSignal{IsFunding: fundingPaths[path]}

		// Funding cards only show a percent-funded figure on the listing;
		// their real count must come from the detail page.
		if !signal.IsFunding {
			if match := m.CardCountRe.FindStringSubmatch(link.Text()); match != nil {
				if n, err := helpers.ParseCount(match[1]); err == nil {
					signal.Students = &n
				}
			}
		}

		signals[path] = signal
	})
}

// cardAncestor walks upward from a marker through at most m.AncestorDepth
// ancestors and returns the first one containing a detail-page link.
func cardAncestor(marker *goquery.Selection, m CardMarkers) *goquery.Selection {
	ancestor := marker.Parent()
	for depth := 0; depth < m.AncestorDepth; depth++ {
		if ancestor.Length() == 0 {
			return nil
		}
		if itemLink(ancestor, m) != nil {
			return ancestor
		}
		ancestor = ancestor.Parent()
	}
	return nil
}

// itemLink returns the first anchor under s whose href is a detail-page
// link, or nil.
func itemLink(s *goquery.Selection, m CardMarkers) *goquery.Selection {
	var found *goquery.Selection
	s.Find(fmt.Sprintf("a[href*='%s']", m.ItemPath)).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, ok := a.Attr("href")
		if ok && m.ItemPathRe.MatchString(href) {
			found = a
			return false
		}
		return true
	})
	return found
}

// firstNumber returns the first digit run (with separators) in s.
func firstNumber(s string) string {
	start := -1
	for i, r := range s {
		if r >= '0' && r <= '9' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 && r != ',' && r != '，' {
			return s[start:i]
		}
	}
	if start >= 0 {
		return s[start:]
	}
	return ""
}
