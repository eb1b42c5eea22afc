package scraper

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"chiayu/coursetrendworker/helpers"
	"chiayu/coursetrendworker/logger"
	"chiayu/coursetrendworker/models"
	"chiayu/coursetrendworker/pkg/errors"
	"chiayu/coursetrendworker/services/cache"
	"chiayu/coursetrendworker/services/firecrawl"
)

// Discoverer rebuilds the course roster from the platforms' listing pages.
type Discoverer struct {
	Client    firecrawl.Client
	Cache     cache.CacheService
	BlockTime time.Duration
}

// extractedCourse is the untrusted shape the structured extraction returns.
type extractedCourse struct {
	CourseName string   `json:"course_name"`
	Teacher    string   `json:"teacher"`
	Price      *float64 `json:"price"`
	URL        string   `json:"url"`
}

type courseListPage struct {
	Courses []extractedCourse `json:"courses"`
}

// Discover fetches every platform's listing pages and returns the new
// roster. A failed page is skipped; a platform that yields no courses is
// omitted. The caller decides whether an entirely empty roster is fatal.
func (d *Discoverer) Discover(ctx context.Context, platforms []PlatformConfig) models.Roster {
	roster := make(models.Roster)

	for _, p := range platforms {
		courses := d.discoverPlatform(ctx, p)
		if len(courses) > 0 {
			roster[p.Name] = courses
		}
	}

	return roster
}

func (d *Discoverer) discoverPlatform(ctx context.Context, p PlatformConfig) []models.CourseListing {
	log := logger.ForPlatform(p.Name)

	if cache.PlatformBlocked(d.Cache, p.Name) {
		log.Warn().Msg("Platform is in rate-limit cooldown, skipping discovery")
		return nil
	}

	seen := make(map[string]bool)
	var all []models.CourseListing

	for _, pageURL := range p.ListURLs {
		if len(all) >= p.MaxCourses {
			break
		}

		log.Info().Str("url", pageURL).Msg("Fetching listing page")
		res, err := d.Client.Scrape(ctx, firecrawl.ScrapeRequest{
			URL:      pageURL,
			Markdown: true,
			HTML:     true,
			Extract: &firecrawl.ExtractSpec{
				Prompt: p.ListPrompt,
				Schema: courseListSchema,
			},
			WaitFor: p.ListWaitFor,
			Stealth: true,
		})
		if err != nil {
			if errors.IsRateLimit(err) {
				cache.BlockPlatform(d.Cache, p.Name, d.BlockTime)
				log.Warn().Err(err).Msg("Rate limited, aborting platform discovery")
				break
			}
			log.Warn().Err(err).Str("url", pageURL).Msg("Listing page fetch failed")
			continue
		}

		if res.Markdown == "" {
			log.Warn().Str("url", pageURL).Msg("Empty markdown body")
		}

		var page courseListPage
		if len(res.JSON) == 0 || json.Unmarshal(res.JSON, &page) != nil {
			log.Warn().Str("url", pageURL).Msg("No structured extraction result")
			continue
		}

		courses := d.filterPage(p, page.Courses, res.HTML, log)

		added := 0
		for _, c := range courses {
			if c.URL == "" || seen[c.URL] {
				continue
			}
			seen[c.URL] = true
			all = append(all, c)
			added++
		}
		log.Info().
			Int("page_new", added).
			Int("total", len(all)).
			Msg("Listing page processed")
	}

	if len(all) > p.MaxCourses {
		all = all[:p.MaxCourses]
	}
	log.Info().Int("courses", len(all)).Msg("Platform discovery finished")
	return all
}

// filterPage applies the hallucination filter, the URL category filter and
// the structural cross-check to one page's extraction result, in that order.
func (d *Discoverer) filterPage(p PlatformConfig, extracted []extractedCourse, html string, log *logger.Logger) []models.CourseListing {
	// Hallucination filter: names without the expected script are invented
	hallucinated := 0
	kept := extracted[:0]
	for _, c := range extracted {
		if p.ExpectChinese && !helpers.HasHan(c.CourseName) {
			hallucinated++
			continue
		}
		kept = append(kept, c)
	}
	if hallucinated > 0 {
		log.Warn().Int("count", hallucinated).Msg("Filtered hallucinated items")
	}

	// Category filter on the URL shape
	nonCourse := 0
	courses := make([]models.CourseListing, 0, len(kept))
	for _, c := range kept {
		if !courseURL(p, c.URL) {
			nonCourse++
			continue
		}
		courses = append(courses, models.CourseListing{
			CourseName: c.CourseName,
			Teacher:    c.Teacher,
			Price:      c.Price,
			URL:        strings.TrimSpace(c.URL),
		})
	}
	if nonCourse > 0 {
		log.Warn().Int("count", nonCourse).Msg("Filtered non-course items")
	}

	// Structural cross-check against the parsed listing markup. The
	// structural category signal overrides the extraction output.
	if html == "" {
		log.Warn().Msg("Empty HTML body, skipping structural cross-check")
		return courses
	}
	if p.Markers.CategoryClass == "" && p.Markers.CardCountRe == nil {
		return courses
	}

	cards, err := ParseListingCards(html, p.Markers)
	if err != nil {
		log.Warn().Err(err).Msg("Listing markup parse failed, skipping structural cross-check")
		return courses
	}

	withCount := 0
	for _, sig := range cards {
		if sig.Students != nil {
			withCount++
		}
	}
	log.Debug().
		Int("cards", len(cards)).
		Int("with_count", withCount).
		Msg("Listing markup parsed")

	checked := courses[:0]
	for _, c := range courses {
		sig, ok := lookupSignal(cards, c.URL, p.Markers.PathSuffix)
		if !ok {
			checked = append(checked, c)
			continue
		}
		if p.Markers.CategoryClass != "" && sig.Category != "" && sig.Category != p.Markers.CourseLabel {
			log.Info().
				Str("category", sig.Category).
				Str("course", c.CourseName).
				Msg("Dropping non-course item by structural category")
			continue
		}
		c.Students = sig.Students
		c.IsFunding = sig.IsFunding
		checked = append(checked, c)
	}
	return checked
}

// courseURL reports whether a URL passes the platform's path-membership
// test and its blocklist.
func courseURL(p PlatformConfig, rawURL string) bool {
	if rawURL == "" {
		return false
	}
	if p.PathSegment != "" && !strings.Contains(rawURL, p.PathSegment) {
		return false
	}
	for _, blocked := range p.URLBlocklist {
		if strings.Contains(rawURL, blocked) {
			return false
		}
	}
	return true
}

// lookupSignal resolves a course URL to its card signal by normalized path.
func lookupSignal(cards map[string]CardSignal, rawURL string, pathSuffix string) (CardSignal, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return CardSignal{}, false
	}
	sig, ok := cards[helpers.NormalizeItemPath(u.Path, pathSuffix)]
	return sig, ok
}
