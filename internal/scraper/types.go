package scraper

import (
	"regexp"
	"time"
)

// FetchAttempt is one step of the detail-page fetch escalation sequence.
type FetchAttempt struct {
	// Stealth routes the fetch through the extraction service's stealth
	// proxy pool
	Stealth bool
	// WaitFor is the settle delay before the page is read
	WaitFor time.Duration
}

// CardMarkers describes the platform-specific structural signatures the
// Listing Card Parser looks for in listing-page markup.
type CardMarkers struct {
	// CategoryClass is a class substring on the element labeling a card's
	// type (e.g. 課程/服務/工作坊). Empty disables category extraction.
	CategoryClass string
	// CourseLabel is the category label that identifies a real course;
	// a known different label drops the item.
	CourseLabel string
	// CountClass is a class substring on the element holding an
	// already-rendered count inside the same card.
	CountClass string
	// FundingAttr / FundingValue identify the attribute flagging a card as
	// a crowdfunding/pre-sale item. Empty attr disables funding detection.
	FundingAttr  string
	FundingValue string
	// ItemPath is the detail-page path segment card links must contain.
	ItemPath string
	// ItemPathRe validates a candidate href as a detail-page link.
	ItemPathRe *regexp.Regexp
	// PathSuffix is a known suffix segment stripped during path
	// normalization (e.g. "/about").
	PathSuffix string
	// CardCountRe extracts a rendered count from a card link's own text.
	CardCountRe *regexp.Regexp
	// AncestorDepth bounds the upward walk from a marker to its card.
	AncestorDepth int
}

// CardSignal is what the Listing Card Parser learned about one item from
// the listing page's markup alone.
type CardSignal struct {
	// Category is the card's type label, empty when the page exposes none
	Category string
	// Students is the already-rendered count, nil when absent
	Students *int
	// IsFunding marks crowdfunding/pre-sale cards
	IsFunding bool
}

// PlatformConfig is the immutable per-platform scraping configuration.
type PlatformConfig struct {
	Name       string
	ListURLs   []string
	MaxCourses int

	// ListPrompt instructs the LLM-assisted structured extraction on
	// listing pages
	ListPrompt string
	// ListWaitFor is the settle delay on listing pages
	ListWaitFor time.Duration

	// ExpectChinese enables the hallucination filter: extracted names
	// containing no Han character are dropped
	ExpectChinese bool

	// PathSegment must appear in a course URL ("" disables the check)
	PathSegment string
	// URLBlocklist drops items whose URL contains any of these segments
	URLBlocklist []string

	// StudentPatterns is the ordered pattern list for detail pages;
	// the first match that parses wins
	StudentPatterns []*regexp.Regexp
	// FundingPatterns is the narrowed list used for pre-sale courses,
	// whose pages also show an unrelated percent-funded figure
	FundingPatterns []*regexp.Regexp

	Markers CardMarkers

	// Attempts is the detail-page fetch escalation sequence
	Attempts []FetchAttempt
	// MinBodyLength is the suspect threshold: a shorter rendered body is
	// treated as blocked/incomplete
	MinBodyLength int
}
