package scraper

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"chiayu/coursetrendworker/models"
	"chiayu/coursetrendworker/pkg/errors"
	"chiayu/coursetrendworker/services/firecrawl"
)

func pad(body string) string {
	// Long enough to clear the suspect threshold of testPlatform
	return body + strings.Repeat(" 內容", 20)
}

func TestUpdateKnownCountSkipsFetch(t *testing.T) {
	p := testPlatform("hahow", nil, 10)
	known := 3210
	roster := models.Roster{"hahow": {
		{CourseName: "插畫課", Teacher: "老師A", URL: "https://hahow.in/courses/abc", Students: &known},
	}}

	client := newMockScrapeClient()
	u := &Updater{Client: client}
	rows := u.Update(context.Background(), []PlatformConfig{p}, roster)

	assert.Len(t, rows, 1)
	assert.Empty(t, client.calls, "listing-known counts must not trigger a detail fetch")
	assert.Equal(t, 3210, *rows[0].Students)
	assert.Equal(t, 1, rows[0].Rank)
	assert.Equal(t, "hahow", rows[0].Platform)
}

func TestUpdateAttemptEscalation(t *testing.T) {
	p := testPlatform("hahow", nil, 10)
	roster := models.Roster{"hahow": {
		{CourseName: "預購課", URL: "https://hahow.in/courses/xyz"},
	}}

	client := newMockScrapeClient()
	// First attempt renders fully but no pattern matches; the second one
	// finds the count.
	client.on("https://hahow.in/courses/xyz", &firecrawl.ScrapeResult{Markdown: pad("尚無學生資訊")}, nil)
	client.on("https://hahow.in/courses/xyz", &firecrawl.ScrapeResult{Markdown: pad("已有 147 位同學")}, nil)

	u := &Updater{Client: client}
	rows := u.Update(context.Background(), []PlatformConfig{p}, roster)

	assert.Len(t, rows, 1)
	assert.Equal(t, 147, *rows[0].Students)

	// Parameters escalate between attempts
	assert.Len(t, client.calls, 2)
	assert.True(t, client.calls[0].Stealth)
	assert.Equal(t, 5*time.Second, client.calls[0].WaitFor)
	assert.False(t, client.calls[1].Stealth)
	assert.Equal(t, 15*time.Second, client.calls[1].WaitFor)
}

func TestUpdateSuspectBodySkipsExtraction(t *testing.T) {
	p := testPlatform("hahow", nil, 10)
	roster := models.Roster{"hahow": {
		{CourseName: "課程", URL: "https://hahow.in/courses/short"},
	}}

	client := newMockScrapeClient()
	// The first body is under the threshold and even contains a matching
	// number; extraction must not run on it.
	client.on("https://hahow.in/courses/short", &firecrawl.ScrapeResult{Markdown: "1 位同學"}, nil)
	client.on("https://hahow.in/courses/short", &firecrawl.ScrapeResult{Markdown: pad("7380 位同學")}, nil)

	u := &Updater{Client: client}
	rows := u.Update(context.Background(), []PlatformConfig{p}, roster)

	assert.Equal(t, 7380, *rows[0].Students)
}

func TestUpdateSuspectFinalAttemptStillExtracts(t *testing.T) {
	p := testPlatform("hahow", nil, 10)
	roster := models.Roster{"hahow": {
		{CourseName: "課程", URL: "https://hahow.in/courses/short"},
	}}

	client := newMockScrapeClient()
	client.on("https://hahow.in/courses/short", &firecrawl.ScrapeResult{Markdown: "x"}, nil)
	// Final attempt is short too, but there is no further escalation, so
	// extraction runs anyway.
	client.on("https://hahow.in/courses/short", &firecrawl.ScrapeResult{Markdown: "42 位同學"}, nil)

	u := &Updater{Client: client}
	rows := u.Update(context.Background(), []PlatformConfig{p}, roster)

	assert.Equal(t, 42, *rows[0].Students)
}

func TestUpdateFetchErrorAbortsAttempts(t *testing.T) {
	p := testPlatform("hahow", nil, 10)
	roster := models.Roster{"hahow": {
		{CourseName: "課程", URL: "https://hahow.in/courses/err"},
	}}

	client := newMockScrapeClient()
	client.on("https://hahow.in/courses/err", nil, errors.NewNetwork("hahow", "timeout", nil))
	client.on("https://hahow.in/courses/err", &firecrawl.ScrapeResult{Markdown: pad("147 位同學")}, nil)

	u := &Updater{Client: client}
	rows := u.Update(context.Background(), []PlatformConfig{p}, roster)

	// A thrown error never retries past it; the row still exists with a
	// null count.
	assert.Len(t, rows, 1)
	assert.Nil(t, rows[0].Students)
	assert.Len(t, client.calls, 1)
}

func TestUpdateFundingUsesNarrowedPatterns(t *testing.T) {
	p := testPlatform("pressplay", nil, 10)
	roster := models.Roster{"pressplay": {
		{CourseName: "集資課", URL: "https://www.pressplay.cc/project/f1", IsFunding: true},
	}}

	// The page shows both an unrelated learning figure and the pre-order
	// count; only the narrowed pattern may match.
	body := pad("熱門內容 9,999 人學習 … 本專案 1,280 人預購 達標 128%")

	client := newMockScrapeClient()
	client.on("https://www.pressplay.cc/project/f1", &firecrawl.ScrapeResult{Markdown: body}, nil)

	u := &Updater{Client: client}
	rows := u.Update(context.Background(), []PlatformConfig{p}, roster)

	assert.Equal(t, 1280, *rows[0].Students)
}

func TestUpdateInvalidURL(t *testing.T) {
	p := testPlatform("hahow", nil, 10)
	roster := models.Roster{"hahow": {
		{CourseName: "壞連結課程", URL: "not-a-url"},
	}}

	client := newMockScrapeClient()
	u := &Updater{Client: client}
	rows := u.Update(context.Background(), []PlatformConfig{p}, roster)

	assert.Len(t, rows, 1)
	assert.Nil(t, rows[0].Students)
	assert.Empty(t, client.calls)
}

func TestUpdateRankFollowsRosterOrder(t *testing.T) {
	p := testPlatform("hahow", nil, 10)
	one, two := 1, 2
	roster := models.Roster{"hahow": {
		{CourseName: "第一名", URL: "https://hahow.in/courses/a", Students: &one},
		{CourseName: "第二名", URL: "https://hahow.in/courses/b", Students: &two},
	}}

	u := &Updater{Client: newMockScrapeClient()}
	rows := u.Update(context.Background(), []PlatformConfig{p}, roster)

	assert.Len(t, rows, 2)
	assert.Equal(t, 1, rows[0].Rank)
	assert.Equal(t, "第一名", rows[0].CourseName)
	assert.Equal(t, 2, rows[1].Rank)
	assert.Equal(t, "第二名", rows[1].CourseName)

	// One run, one timestamp
	assert.Equal(t, rows[0].ScrapedAt, rows[1].ScrapedAt)
}
