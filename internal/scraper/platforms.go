package scraper

import (
	"encoding/json"
	"regexp"
	"time"
)

// courseListSchema is the JSON schema handed to the structured-extraction
// call on listing pages.
var courseListSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"courses": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"course_name": {"type": "string"},
					"teacher": {"type": "string"},
					"price": {"type": "number"},
					"url": {"type": "string"}
				},
				"required": ["course_name", "url"]
			}
		}
	},
	"required": ["courses"]
}`)

// Platforms returns the configuration for every tracked platform.
// Order matters: it is the processing order of every run.
func Platforms() []PlatformConfig {
	return []PlatformConfig{
		{
			Name: "hahow",
			ListURLs: []string{
				"https://hahow.in/courses?page=1&sort=TRENDING",
				"https://hahow.in/courses?page=2&sort=TRENDING",
				"https://hahow.in/courses?page=3&sort=TRENDING",
			},
			MaxCourses: 50,
			ListPrompt: "This page shows Hahow trending courses written in Traditional Chinese. " +
				"The page may have a '近期熱門' (recently trending) featured section at the top — SKIP IT. " +
				"Only extract courses from the '全部結果' (all results) section. " +
				"IMPORTANT: Each listing on Hahow is labeled as either '課程' (course), '服務' (service), or '工作坊' (workshop). " +
				"Only extract items labeled as '課程'. SKIP any item labeled '服務', '工作坊', or any label other than '課程'. " +
				"IMPORTANT: Only extract courses that actually appear on this page. " +
				"Do NOT invent or guess any course names. " +
				"If you cannot find any courses in the content, return an empty list. " +
				"For each course extract: " +
				"course_name (the exact Traditional Chinese title), " +
				"teacher (instructor name in Chinese), " +
				"price (NTD as plain number, 0 if free), " +
				"url (full absolute URL, e.g. https://hahow.in/courses/slug).",
			ListWaitFor:   8 * time.Second,
			ExpectChinese: true,
			PathSegment:   "/courses/",
			URLBlocklist:  []string{"/services/", "/campaigns/"},
			StudentPatterns: []*regexp.Regexp{
				// regular course pages render "147 位同學"
				regexp.MustCompile(`(\d+)\s*位同學`),
				// pre-order pages show a purchase counter; the bounded window
				// keeps the match near the anchor phrase
				regexp.MustCompile(`(?s)當前購買數.{0,100}?(\d+)`),
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
			MinBodyLength: 1500,
		},
		{
			Name: "pressplay",
			ListURLs: []string{
				"https://www.pressplay.cc/project",
				"https://www.pressplay.cc/project?page=2",
				"https://www.pressplay.cc/project?page=3",
			},
			MaxCourses: 50,
			ListPrompt: "This is the PressPlay project listing page in Traditional Chinese. " +
				"IMPORTANT: Only extract projects that actually appear on this page. " +
				"Do NOT invent or guess any project names. " +
				"If you cannot find any projects in the content, return an empty list. " +
				"For each project extract: " +
				"course_name (the exact project title in Chinese), " +
				"teacher (creator name), " +
				"price (lowest subscription price in NTD as plain number, 0 if free), " +
				"url (full absolute URL to that project's detail page).",
			ListWaitFor:   8 * time.Second,
			ExpectChinese: true,
			URLBlocklist:  []string{"/services/", "/campaigns/"},
			StudentPatterns: []*regexp.Regexp{
				regexp.MustCompile(`([\d,]+)\s*人學習`),
				regexp.MustCompile(`([\d,]+)\s*人預購`),
			},
			FundingPatterns: []*regexp.Regexp{
				// funding pages also show a percent-funded figure that the
				// generic pattern would pick up
				regexp.MustCompile(`([\d,]+)\s*人預購`),
			},
			Markers: CardMarkers{
				FundingAttr:   "data-type",
				FundingValue:  "funding",
				ItemPath:      "/project/",
				ItemPathRe:    regexp.MustCompile(`/project/`),
				PathSuffix:    "/about",
				CardCountRe:   regexp.MustCompile(`([\d,]+)\s*人學習`),
				AncestorDepth: 8,
			},
			Attempts: []FetchAttempt{
				{Stealth: true, WaitFor: 5 * time.Second},
				{Stealth: false, WaitFor: 15 * time.Second},
			},
			MinBodyLength: 1500,
		},
	}
}

// PlatformsByName indexes a platform list by identifier.
func PlatformsByName(platforms []PlatformConfig) map[string]PlatformConfig {
	byName := make(map[string]PlatformConfig, len(platforms))
	for _, p := range platforms {
		byName[p.Name] = p
	}
	return byName
}
