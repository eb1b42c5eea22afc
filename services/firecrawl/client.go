package firecrawl

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"chiayu/coursetrendworker/pkg/errors"
)

// ExtractSpec describes an LLM-assisted structured extraction: a JSON schema
// for the desired output plus a natural-language instruction. The result is
// untrusted and must be re-validated by the caller.
type ExtractSpec struct {
	Prompt string
	Schema json.RawMessage
}

// ScrapeRequest describes a single scrape call to the extraction service.
type ScrapeRequest struct {
	URL      string
	Markdown bool
	HTML     bool
	Extract  *ExtractSpec

	// WaitFor is the settle delay: how long the service waits for the page
	// to render before reading it.
	WaitFor time.Duration

	// Stealth routes the fetch through the service's stealth proxy pool.
	Stealth bool
}

// ScrapeResult holds the requested representations of the fetched page.
// Absent representations are empty.
type ScrapeResult struct {
	Markdown string
	HTML     string
	JSON     json.RawMessage
}

// Client is the extraction-service interface used by the orchestrators.
type Client interface {
	Scrape(ctx context.Context, req ScrapeRequest) (*ScrapeResult, error)
}

// HTTPClient talks to a hosted Firecrawl-compatible scrape API.
type HTTPClient struct {
	rc *resty.Client
}

// NewClient creates a client for the scrape API at baseURL.
func NewClient(baseURL, apiKey string) *HTTPClient {
	rc := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(90 * time.Second)
	return &HTTPClient{rc: rc}
}

type jsonFormat struct {
	Type   string          `json:"type"`
	Prompt string          `json:"prompt"`
	Schema json.RawMessage `json:"schema,omitempty"`
}

type scrapeEnvelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Data    struct {
		Markdown string          `json:"markdown"`
		HTML     string          `json:"html"`
		JSON     json.RawMessage `json:"json"`
	} `json:"data"`
}

// Scrape fetches a URL in the requested representations. A 429 response maps
// to a rate-limit error so callers can apply a platform cooldown.
func (c *HTTPClient) Scrape(ctx context.Context, req ScrapeRequest) (*ScrapeResult, error) {
	formats := make([]interface{}, 0, 3)
	if req.HTML {
		formats = append(formats, "html")
	}
	if req.Markdown {
		formats = append(formats, "markdown")
	}
	if req.Extract != nil {
		formats = append(formats, jsonFormat{
			Type:   "json",
			Prompt: req.Extract.Prompt,
			Schema: req.Extract.Schema,
		})
	}

	body := map[string]interface{}{
		"url":     req.URL,
		"formats": formats,
	}
	if req.WaitFor > 0 {
		body["waitFor"] = req.WaitFor.Milliseconds()
	}
	if req.Stealth {
		body["proxy"] = "stealth"
	}

	var envelope scrapeEnvelope
	resp, err := c.rc.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&envelope).
		SetError(&envelope).
		Post("/v2/scrape")
	if err != nil {
		return nil, errors.NewNetwork("", fmt.Sprintf("scrape %s", req.URL), err)
	}

	if resp.StatusCode() == http.StatusTooManyRequests {
		return nil, errors.NewRateLimit("", 0)
	}
	if resp.IsError() {
		return nil, errors.NewNetwork("",
			fmt.Sprintf("scrape %s: status %d: %s", req.URL, resp.StatusCode(), envelope.Error), nil)
	}
	if !envelope.Success {
		return nil, errors.NewNetwork("",
			fmt.Sprintf("scrape %s: service error: %s", req.URL, envelope.Error), nil)
	}

	return &ScrapeResult{
		Markdown: envelope.Data.Markdown,
		HTML:     envelope.Data.HTML,
		JSON:     envelope.Data.JSON,
	}, nil
}
