package store

import "chiayu/coursetrendworker/models"

// RowStore is the append-only snapshot store. The core only ever appends
// rows or deletes them by id.
type RowStore interface {
	// Insert appends a batch of snapshot rows
	Insert(rows []models.SnapshotRow) error

	// All returns every snapshot row ordered by scraped_at ascending
	All() ([]models.SnapshotRow, error)

	// Delete removes rows by id
	Delete(ids []int64) error

	// IDsWithNullStudents returns ids of rows whose student count is null
	IDsWithNullStudents() ([]int64, error)

	// IDsWithURLContaining returns ids of rows whose course URL contains
	// the given fragment (e.g. a blocklisted path segment)
	IDsWithURLContaining(fragment string) ([]int64, error)

	// Close closes the underlying connection
	Close() error
}
