// Package growth derives per-course growth metrics from the raw snapshot
// history. It owns no state: every query recomputes from the rows it is
// handed.
package growth

import (
	"sort"
	"time"

	"chiayu/coursetrendworker/models"
)

// Record is the derived growth row for one (platform, course) pair.
// Pointer fields are null when the underlying window cannot support the
// metric (single observation, unknown baseline, zero-day span).
type Record struct {
	Platform       string   `json:"platform"`
	CourseName     string   `json:"course_name"`
	Teacher        string   `json:"teacher"`
	LatestStudents *int     `json:"latest_students"`
	LatestPrice    *float64 `json:"latest_price"`
	LatestRank     int      `json:"latest_rank"`
	StudentDiff    *int     `json:"student_diff"`
	GrowthRate     *float64 `json:"growth_rate"`
	GrowthSpeed    *float64 `json:"growth_speed"`
	DaysElapsed    *int     `json:"days_elapsed"`
	ScrapeCount    int      `json:"scrape_count"`
	CourseURL      string   `json:"course_url"`
}

type groupKey struct {
	platform string
	course   string
}

// DailyBuckets reduces a course's snapshots to one row per calendar date,
// keeping the last row of each date. Multiple same-day scrapes never count
// as separate growth samples. Input order does not matter; output is
// sorted by date ascending.
func DailyBuckets(rows []models.SnapshotRow) []models.SnapshotRow {
	sorted := make([]models.SnapshotRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ScrapedAt.Before(sorted[j].ScrapedAt)
	})

	byDate := make(map[string]models.SnapshotRow)
	var dates []string
	for _, row := range sorted {
		key := dateKey(row.ScrapedAt)
		if _, seen := byDate[key]; !seen {
			dates = append(dates, key)
		}
		// Later timestamp wins within a date
		byDate[key] = row
	}

	buckets := make([]models.SnapshotRow, 0, len(dates))
	for _, key := range dates {
		buckets = append(buckets, byDate[key])
	}
	return buckets
}

// Compute groups the snapshot set by (platform, course_name), buckets each
// group to daily observations and derives one Record per group. Group
// order follows first appearance in the input.
func Compute(rows []models.SnapshotRow) []Record {
	groups := make(map[groupKey][]models.SnapshotRow)
	var order []groupKey
	for _, row := range rows {
		key := groupKey{platform: row.Platform, course: row.CourseName}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], row)
	}

	records := make([]Record, 0, len(order))
	for _, key := range order {
		records = append(records, computeOne(groups[key]))
	}
	return records
}

func computeOne(rows []models.SnapshotRow) Record {
	buckets := DailyBuckets(rows)
	first := buckets[0]
	last := buckets[len(buckets)-1]

	rec := Record{
		Platform:       last.Platform,
		CourseName:     last.CourseName,
		Teacher:        last.Teacher,
		LatestStudents: last.Students,
		LatestPrice:    last.Price,
		LatestRank:     last.Rank,
		ScrapeCount:    len(buckets),
		CourseURL:      last.CourseURL,
	}

	dayDiff := calendarDays(first.ScrapedAt, last.ScrapedAt)
	if dayDiff >= 1 {
		rec.DaysElapsed = &dayDiff
	}

	if first.Students == nil || last.Students == nil {
		return rec
	}

	diff := *last.Students - *first.Students
	rec.StudentDiff = &diff

	// A non-positive baseline makes the percentage meaningless
	if *first.Students > 0 {
		rate := float64(diff) / float64(*first.Students) * 100
		rec.GrowthRate = &rate
	}

	// A single-day window never yields a speed: null, not zero
	if dayDiff >= 1 {
		speed := float64(diff) / float64(dayDiff)
		rec.GrowthSpeed = &speed
	}

	return rec
}

// FastestGrowing filters records to growth_rate >= threshold and sorts
// them by growth_speed descending, nulls last. limit <= 0 returns all
// qualifying records.
func FastestGrowing(records []Record, threshold float64, limit int) []Record {
	var out []Record
	for _, rec := range records {
		if rec.GrowthRate != nil && *rec.GrowthRate >= threshold {
			out = append(out, rec)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].GrowthSpeed, out[j].GrowthSpeed
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a > *b
		}
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// calendarDays is the whole-day difference between two timestamps' dates,
// ignoring the time of day.
func calendarDays(first, last time.Time) int {
	f := time.Date(first.Year(), first.Month(), first.Day(), 0, 0, 0, 0, time.UTC)
	l := time.Date(last.Year(), last.Month(), last.Day(), 0, 0, 0, 0, time.UTC)
	return int(l.Sub(f).Hours() / 24)
}
