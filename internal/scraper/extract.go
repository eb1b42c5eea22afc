package scraper

import (
	"regexp"

	"chiayu/coursetrendworker/helpers"
)

// ExtractCount pulls a count out of free-text page content using an ordered
// pattern list. Patterns are tried in declared order and the first one that
// both matches and parses to an integer wins; a match whose captured digits
// fail to parse counts as a miss and the next pattern is tried.
func ExtractCount(body string, patterns []*regexp.Regexp) (int, bool) {
	for _, pattern := range patterns {
		m := pattern.FindStringSubmatch(body)
		if m == nil || len(m) < 2 {
			continue
		}
		n, err := helpers.ParseCount(m[1])
		if err != nil {
			continue
		}
		return n, true
	}
	return 0, false
}
