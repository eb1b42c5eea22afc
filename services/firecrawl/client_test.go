package firecrawl

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"chiayu/coursetrendworker/pkg/errors"
)

func TestScrape(t *testing.T) {
	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/scrape", r.URL.Path)
		assert.Equal(t, "Bearer fc-test", r.Header.Get("Authorization"))

		raw, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(raw, &gotBody))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"success": true,
			"data": {
				"markdown": "# Page\n147 位同學",
				"html": "<html><body>card</body></html>",
				"json": {"courses": []}
			}
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "fc-test")
	result, err := client.Scrape(context.Background(), ScrapeRequest{
		URL:      "https://hahow.in/courses?page=1",
		Markdown: true,
		HTML:     true,
		Extract:  &ExtractSpec{Prompt: "extract courses", Schema: json.RawMessage(`{"type":"object"}`)},
		WaitFor:  8 * time.Second,
		Stealth:  true,
	})

	assert.NoError(t, err)
	assert.Contains(t, result.Markdown, "147 位同學")
	assert.Contains(t, result.HTML, "card")
	assert.JSONEq(t, `{"courses": []}`, string(result.JSON))

	// Wire format checks
	assert.Equal(t, "https://hahow.in/courses?page=1", gotBody["url"])
	assert.Equal(t, float64(8000), gotBody["waitFor"])
	assert.Equal(t, "stealth", gotBody["proxy"])
	formats, ok := gotBody["formats"].([]interface{})
	assert.True(t, ok)
	assert.Len(t, formats, 3)
}

func TestScrapeNoStealthOmitsProxy(t *testing.T) {
	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		json.Unmarshal(raw, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success": true, "data": {"markdown": "ok"}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "fc-test")
	_, err := client.Scrape(context.Background(), ScrapeRequest{URL: "https://example.com", Markdown: true})
	assert.NoError(t, err)
	_, hasProxy := gotBody["proxy"]
	assert.False(t, hasProxy)
}

func TestScrapeRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"success": false, "error": "rate limit exceeded"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "fc-test")
	_, err := client.Scrape(context.Background(), ScrapeRequest{URL: "https://example.com", Markdown: true})
	assert.Error(t, err)
	assert.True(t, errors.IsRateLimit(err))
}

func TestScrapeServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success": false, "error": "render timeout"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "fc-test")
	_, err := client.Scrape(context.Background(), ScrapeRequest{URL: "https://example.com", Markdown: true})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "render timeout")
}
