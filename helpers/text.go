package helpers

import (
	"errors"
	"strconv"
	"strings"
	"unicode"
)

// ParseCount converts a rendered count such as "3,210" or "５，９７９" into an
// integer, stripping ASCII and full-width thousand separators first.
func ParseCount(s string) (int, error) {
	cleaned := strings.NewReplacer(",", "", "，", "").Replace(strings.TrimSpace(s))
	if cleaned == "" {
		return 0, errors.New("empty count")
	}
	return strconv.Atoi(cleaned)
}

// HasHan reports whether the text contains at least one Han character.
// Used to filter hallucinated extraction results on platforms whose course
// titles are written in Traditional Chinese.
func HasHan(text string) bool {
	for _, r := range text {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}

// NormalizeItemPath strips the query string, a trailing slash, and an
// optional known suffix segment (e.g. "/about") so that variant links to the
// same item resolve to a single key.
func NormalizeItemPath(rawPath string, stripSuffix string) string {
	path := rawPath
	if idx := strings.IndexAny(path, "?#"); idx >= 0 {
		path = path[:idx]
	}
	path = strings.TrimRight(path, "/")
	if stripSuffix != "" && strings.HasSuffix(path, stripSuffix) {
		path = strings.TrimSuffix(path, stripSuffix)
	}
	return path
}

// GetSplitPart splits target by separate and returns the part at index.
func GetSplitPart(target string, separate string, index int) (string, error) {
	parts := strings.Split(target, separate)
	if index >= len(parts) {
		return "", errors.New("index out of range")
	}
	return parts[index], nil
}
