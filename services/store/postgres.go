package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"chiayu/coursetrendworker/models"
)

// PostgresStore persists snapshot rows to PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection, runs the schema migration, and
// returns a ready-to-use store.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	ps := &PostgresStore{db: db}
	if err := ps.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return ps, nil
}

func (ps *PostgresStore) migrate() error {
	_, err := ps.db.Exec(`
		CREATE TABLE IF NOT EXISTS course_scrapes (
			id          BIGSERIAL PRIMARY KEY,
			platform    VARCHAR(50)  NOT NULL,
			rank        INTEGER      NOT NULL,
			course_name TEXT         NOT NULL,
			teacher     TEXT         NOT NULL DEFAULT '',
			price       NUMERIC(10,2),
			students    INTEGER,
			course_url  TEXT         NOT NULL,
			scraped_at  TIMESTAMPTZ  NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_course_scrapes_platform   ON course_scrapes(platform);
		CREATE INDEX IF NOT EXISTS idx_course_scrapes_scraped_at ON course_scrapes(scraped_at);
	`)
	return err
}

// Insert batch-inserts snapshot rows.
func (ps *PostgresStore) Insert(rows []models.SnapshotRow) error {
	if len(rows) == 0 {
		return nil
	}

	const batchSize = 50
	for i := 0; i < len(rows); i += batchSize {
		end := i + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		if err := ps.insertBatch(rows[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (ps *PostgresStore) insertBatch(batch []models.SnapshotRow) error {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*8)

	for idx, r := range batch {
		base := idx * 8
		valueStrings = append(valueStrings,
			fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
				base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8))
		valueArgs = append(valueArgs,
			r.Platform, r.Rank, r.CourseName, r.Teacher, r.Price, r.Students, r.CourseURL, r.ScrapedAt)
	}

	query := fmt.Sprintf(`
		INSERT INTO course_scrapes (platform, rank, course_name, teacher, price, students, course_url, scraped_at)
		VALUES %s
	`, strings.Join(valueStrings, ","))

	_, err := ps.db.Exec(query, valueArgs...)
	if err != nil {
		return fmt.Errorf("postgres: insert batch: %w", err)
	}
	return nil
}

// All retrieves every stored snapshot ordered by scraped_at ascending,
// the input of the growth engine.
func (ps *PostgresStore) All() ([]models.SnapshotRow, error) {
	rows, err := ps.db.Query(`
		SELECT id, platform, rank, course_name, teacher, price, students, course_url, scraped_at
		FROM course_scrapes
		ORDER BY scraped_at
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: select all: %w", err)
	}
	defer rows.Close()

	var result []models.SnapshotRow
	for rows.Next() {
		var r models.SnapshotRow
		var price sql.NullFloat64
		var students sql.NullInt64
		if err := rows.Scan(
			&r.ID, &r.Platform, &r.Rank, &r.CourseName, &r.Teacher,
			&price, &students, &r.CourseURL, &r.ScrapedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		if price.Valid {
			v := price.Float64
			r.Price = &v
		}
		if students.Valid {
			v := int(students.Int64)
			r.Students = &v
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// Delete removes rows by id.
func (ps *PostgresStore) Delete(ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := ps.db.Exec(`DELETE FROM course_scrapes WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("postgres: delete: %w", err)
	}
	return nil
}

// IDsWithNullStudents returns ids of rows with a null student count.
func (ps *PostgresStore) IDsWithNullStudents() ([]int64, error) {
	return ps.queryIDs(`SELECT id FROM course_scrapes WHERE students IS NULL`)
}

// IDsWithURLContaining returns ids of rows whose URL contains fragment.
func (ps *PostgresStore) IDsWithURLContaining(fragment string) ([]int64, error) {
	return ps.queryIDs(`SELECT id FROM course_scrapes WHERE course_url LIKE '%' || $1 || '%'`, fragment)
}

func (ps *PostgresStore) queryIDs(query string, args ...interface{}) ([]int64, error) {
	rows, err := ps.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: select ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("postgres: scan id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Close closes the database connection.
func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}
