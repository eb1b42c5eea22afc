package models

import "time"

// CourseListing is a course discovered on a listing page. Students is nil
// when the listing page did not expose a count and the detail page must be
// fetched. IsFunding marks crowdfunding/pre-sale items whose count semantics
// differ (backers, not enrolled students).
type CourseListing struct {
	CourseName string   `json:"course_name"`
	Teacher    string   `json:"teacher"`
	Price      *float64 `json:"price"`
	URL        string   `json:"url"`
	Students   *int     `json:"students"`
	IsFunding  bool     `json:"is_funding,omitempty"`
}

// Roster maps a platform identifier to its cached course list, in discovery
// encounter order. The position in the slice becomes the snapshot rank.
type Roster map[string][]CourseListing

// SnapshotRow is one persisted observation of a course. Students is nil when
// extraction failed this run; a nil count is meaningful ("unknown"), never
// zero.
type SnapshotRow struct {
	ID         int64     `json:"id,omitempty"`
	Platform   string    `json:"platform"`
	Rank       int       `json:"rank"`
	CourseName string    `json:"course_name"`
	Teacher    string    `json:"teacher"`
	Price      *float64  `json:"price"`
	Students   *int      `json:"students"`
	CourseURL  string    `json:"course_url"`
	ScrapedAt  time.Time `json:"scraped_at"`
}
