package scraper

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractCount(t *testing.T) {
	patterns := []*regexp.Regexp{
		regexp.MustCompile(`(\d+)\s*位同學`),
		regexp.MustCompile(`(?s)當前購買數.{0,100}?(\d+)`),
	}

	n, ok := ExtractCount("這堂課已有 7380 位同學加入", patterns)
	assert.True(t, ok)
	assert.Equal(t, 7380, n)

	// Markup between anchor phrase and digits, within the bounded window
	n, ok = ExtractCount("當前購買數</span>\n<strong>\n  312</strong>", patterns)
	assert.True(t, ok)
	assert.Equal(t, 312, n)

	_, ok = ExtractCount("這頁沒有任何數字資訊", patterns)
	assert.False(t, ok)
}

// Pattern order is a correctness contract: the first matching pattern wins
// even when a later pattern would match a different number.
func TestExtractCountPatternOrder(t *testing.T) {
	patterns := []*regexp.Regexp{
		regexp.MustCompile(`(\d+)\s*位同學`),
		regexp.MustCompile(`(\d+)\s*人預購`),
	}

	body := "999 人預購 … 147 位同學"
	n, ok := ExtractCount(body, patterns)
	assert.True(t, ok)
	assert.Equal(t, 147, n)

	// Reversed declaration flips the result
	reversed := []*regexp.Regexp{patterns[1], patterns[0]}
	n, ok = ExtractCount(body, reversed)
	assert.True(t, ok)
	assert.Equal(t, 999, n)
}

func TestExtractCountThousandSeparators(t *testing.T) {
	patterns := []*regexp.Regexp{regexp.MustCompile(`([\d,]+)\s*人學習`)}

	n, ok := ExtractCount("已有 5,979 人學習", patterns)
	assert.True(t, ok)
	assert.Equal(t, 5979, n)
}

func TestExtractCountParseFailureFallsThrough(t *testing.T) {
	// First pattern matches but captures nothing parseable; the second
	// pattern must still be tried.
	patterns := []*regexp.Regexp{
		regexp.MustCompile(`學員：([,]+)`),
		regexp.MustCompile(`(\d+)\s*位同學`),
	}

	n, ok := ExtractCount("學員：,,, 而且有 42 位同學", patterns)
	assert.True(t, ok)
	assert.Equal(t, 42, n)
}

func TestExtractCountBoundedWindow(t *testing.T) {
	patterns := []*regexp.Regexp{regexp.MustCompile(`(?s)當前購買數.{0,100}?(\d+)`)}

	// Digits beyond the lookahead window must not be matched
	far := "當前購買數" + strings.Repeat("x", 200) + "888"
	_, ok := ExtractCount(far, patterns)
	assert.False(t, ok)
}
