package scraper

import (
	"context"
	"errors"
	"regexp"
	"time"

	"chiayu/coursetrendworker/services/firecrawl"
)

// scripted is one canned response in a mock client's per-URL queue.
type scripted struct {
	res *firecrawl.ScrapeResult
	err error
}

// mockScrapeClient replays scripted responses per URL, in order, and
// records every request it saw.
type mockScrapeClient struct {
	script map[string][]scripted
	calls  []firecrawl.ScrapeRequest
}

func newMockScrapeClient() *mockScrapeClient {
	return &mockScrapeClient{script: make(map[string][]scripted)}
}

func (m *mockScrapeClient) on(url string, res *firecrawl.ScrapeResult, err error) {
	m.script[url] = append(m.script[url], scripted{res: res, err: err})
}

func (m *mockScrapeClient) Scrape(_ context.Context, req firecrawl.ScrapeRequest) (*firecrawl.ScrapeResult, error) {
	m.calls = append(m.calls, req)
	queue := m.script[req.URL]
	if len(queue) == 0 {
		return nil, errors.New("no scripted response for " + req.URL)
	}
	next := queue[0]
	m.script[req.URL] = queue[1:]
	return next.res, next.err
}

// memoryCache is an in-memory stand-in for the block cache.
type memoryCache struct {
	values map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{values: make(map[string][]byte)}
}

func (m *memoryCache) Get(key string) ([]byte, error) {
	if val, ok := m.values[key]; ok {
		return val, nil
	}
	return nil, errors.New("cache miss")
}

func (m *memoryCache) Set(key string, value []byte, _ time.Duration) error {
	m.values[key] = value
	return nil
}

func (m *memoryCache) Delete(key string) error {
	delete(m.values, key)
	return nil
}

// testPlatform is a small platform definition with controllable thresholds.
func testPlatform(name string, listURLs []string, maxCourses int) PlatformConfig {
	return PlatformConfig{
		Name:          name,
		ListURLs:      listURLs,
		MaxCourses:    maxCourses,
		ListPrompt:    "extract the courses on this page",
		ListWaitFor:   time.Second,
		ExpectChinese: true,
		PathSegment:   "/courses/",
		URLBlocklist:  []string{"/services/", "/campaigns/"},
		StudentPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(\d+)\s*位同學`),
			regexp.MustCompile(`([\d,]+)\s*人學習`),
		},
		FundingPatterns: []*regexp.Regexp{
			regexp.MustCompile(`([\d,]+)\s*人預購`),
		},
		Markers: CardMarkers{
			CategoryClass: "gkOCkQ",
			CourseLabel:   "課程",
			CountClass:    "dvCJUj",
			ItemPath:      "/courses/",
			ItemPathRe:    regexp.MustCompile(`/courses/\w`),
			AncestorDepth: 12,
		},
		Attempts: []FetchAttempt{
			{Stealth: true, WaitFor: 5 * time.Second},
			{Stealth: false, WaitFor: 15 * time.Second},
		},
		MinBodyLength: 20,
	}
}
