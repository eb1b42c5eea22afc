package scraper

import (
	"context"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"chiayu/coursetrendworker/logger"
	"chiayu/coursetrendworker/models"
	"chiayu/coursetrendworker/pkg/errors"
	"chiayu/coursetrendworker/services/cache"
	"chiayu/coursetrendworker/services/firecrawl"
)

// Updater refreshes the current count for every course in the cached
// roster and emits one snapshot row per course.
type Updater struct {
	Client    firecrawl.Client
	Cache     cache.CacheService
	BlockTime time.Duration
}

// Update produces one snapshot row per listed course. Counts already known
// from discovery are used as-is; everything else goes through the bounded
// fetch-attempt sequence. A failed extraction records a null count, never
// an error.
func (u *Updater) Update(ctx context.Context, platforms []PlatformConfig, roster models.Roster) []models.SnapshotRow {
	var rows []models.SnapshotRow
	scrapedAt := time.Now()

	for _, p := range platforms {
		courses := roster[p.Name]
		if len(courses) == 0 {
			continue
		}
		log := logger.ForPlatform(p.Name)
		log.Info().Int("courses", len(courses)).Msg("Updating student counts")

		for i, course := range courses {
			rank := i + 1
			row := models.SnapshotRow{
				Platform:   p.Name,
				Rank:       rank,
				CourseName: course.CourseName,
				Teacher:    course.Teacher,
				Price:      course.Price,
				CourseURL:  strings.TrimSpace(course.URL),
				ScrapedAt:  scrapedAt,
			}

			switch {
			case course.Students != nil:
				// Known from the listing page, no detail fetch needed
				row.Students = course.Students
				log.Debug().
					Int("rank", rank).
					Str("course", course.CourseName).
					Int("students", *course.Students).
					Msg("Count known from listing")
			case row.CourseURL == "" || !strings.HasPrefix(row.CourseURL, "http"):
				log.Warn().
					Int("rank", rank).
					Str("course", course.CourseName).
					Msg("Invalid course URL, recording null count")
			default:
				row.Students = u.fetchCount(ctx, p, course, log)
			}

			rows = append(rows, row)
		}
	}

	return rows
}

// fetchCount runs the escalating attempt sequence against a course's
// detail page. Returns nil when every attempt missed or a fetch failed.
func (u *Updater) fetchCount(ctx context.Context, p PlatformConfig, course models.CourseListing, log *logger.Logger) *int {
	patterns := u.patternsFor(p, course)

	for attempt, plan := range p.Attempts {
		if cache.PlatformBlocked(u.Cache, p.Name) {
			log.Warn().Str("course", course.CourseName).Msg("Platform is in rate-limit cooldown, recording null count")
			return nil
		}

		res, err := u.Client.Scrape(ctx, firecrawl.ScrapeRequest{
			URL:      course.URL,
			Markdown: true,
			WaitFor:  plan.WaitFor,
			Stealth:  plan.Stealth,
		})
		if err != nil {
			// A thrown fetch error aborts the remaining attempts
			if errors.IsRateLimit(err) {
				cache.BlockPlatform(u.Cache, p.Name, u.BlockTime)
			}
			log.Warn().
				Err(err).
				Int("attempt", attempt+1).
				Str("course", course.CourseName).
				Msg("Detail page fetch failed")
			return nil
		}

		body := res.Markdown
		lastAttempt := attempt == len(p.Attempts)-1

		// A body under the threshold is suspect (likely blocked or
		// half-rendered); escalate instead of extracting from it.
		if utf8.RuneCountInString(body) < p.MinBodyLength && !lastAttempt {
			log.Debug().
				Int("attempt", attempt+1).
				Int("length", utf8.RuneCountInString(body)).
				Str("course", course.CourseName).
				Msg("Suspect body, escalating fetch parameters")
			continue
		}

		if n, ok := ExtractCount(body, patterns); ok {
			log.Debug().
				Str("course", course.CourseName).
				Int("students", n).
				Msg("Count extracted")
			return &n
		}

		if !lastAttempt {
			log.Debug().
				Int("attempt", attempt+1).
				Str("course", course.CourseName).
				Msg("No pattern matched, escalating fetch parameters")
		}
	}

	log.Info().Str("course", course.CourseName).Msg("Count not found, recording null")
	return nil
}

// patternsFor picks the pattern list for a course. Pre-sale courses use the
// narrowed funding list so the generic phrase cannot match the unrelated
// percent-funded figure on the same page.
func (u *Updater) patternsFor(p PlatformConfig, course models.CourseListing) []*regexp.Regexp {
	if course.IsFunding && len(p.FundingPatterns) > 0 {
		return p.FundingPatterns
	}
	return p.StudentPatterns
}
