package worker

import (
	"context"
	"encoding/json"

	"chiayu/coursetrendworker/internal/scraper"
	"chiayu/coursetrendworker/logger"
	"chiayu/coursetrendworker/models"
	"chiayu/coursetrendworker/pkg/errors"
	"chiayu/coursetrendworker/services/publisher"
	"chiayu/coursetrendworker/services/store"
)

// Worker runs one batch pass: resolve a roster, refresh every course's
// count, persist the snapshot batch and publish it downstream.
type Worker struct {
	discoverer *scraper.Discoverer
	updater    *scraper.Updater
	platforms  []scraper.PlatformConfig
	store      store.RowStore
	publisher  publisher.Publisher
	rosterPath string
	logger     *logger.Logger
}

// NewWorker creates a new worker. publisher may be nil when no downstream
// stream is configured.
func NewWorker(
	discoverer *scraper.Discoverer,
	updater *scraper.Updater,
	platforms []scraper.PlatformConfig,
	rowStore store.RowStore,
	pub publisher.Publisher,
	rosterPath string,
) *Worker {
	return &Worker{
		discoverer: discoverer,
		updater:    updater,
		platforms:  platforms,
		store:      rowStore,
		publisher:  pub,
		rosterPath: rosterPath,
		logger:     logger.ForWorker(),
	}
}

// Run executes one batch. discover forces a roster rebuild; otherwise the
// cached roster is reused, falling back to discovery when the cache is
// missing or unreadable. Returns a fatal error when no roster could be
// obtained or the run produced zero rows.
func (w *Worker) Run(ctx context.Context, discover bool) error {
	roster, err := w.resolveRoster(ctx, discover)
	if err != nil {
		return err
	}

	rows := w.updater.Update(ctx, w.platforms, roster)
	if len(rows) == 0 {
		return errors.NewExtraction("worker", "update run produced zero snapshot rows", nil)
	}

	if err := w.store.Insert(rows); err != nil {
		return err
	}
	w.logger.Info().Int("rows", len(rows)).Msg("Snapshot batch persisted")

	w.publish(rows)
	return nil
}

// resolveRoster loads the cached roster or rebuilds it from the listing
// pages. A rebuilt roster replaces the cache file in full.
func (w *Worker) resolveRoster(ctx context.Context, discover bool) (models.Roster, error) {
	if !discover && scraper.RosterExists(w.rosterPath) {
		roster, err := scraper.LoadRoster(w.rosterPath)
		if err == nil {
			w.logger.Info().Str("path", w.rosterPath).Int("platforms", len(roster)).Msg("Using cached roster")
			return roster, nil
		}
		w.logger.Warn().Err(err).Str("path", w.rosterPath).Msg("Cached roster unreadable, rediscovering")
	}

	roster := w.discoverer.Discover(ctx, w.platforms)
	if rosterCourses(roster) == 0 {
		return nil, errors.NewExtraction("worker", "discovery produced an empty roster", nil)
	}

	if err := scraper.SaveRoster(w.rosterPath, roster); err != nil {
		// The run can still proceed on the in-memory roster
		w.logger.Warn().Err(err).Str("path", w.rosterPath).Msg("Failed to persist roster cache")
	}
	return roster, nil
}

// publish sends one JSON batch per platform. Publish failures are logged
// and never fail the run; the rows are already persisted.
func (w *Worker) publish(rows []models.SnapshotRow) {
	if w.publisher == nil {
		return
	}

	byPlatform := make(map[string][]models.SnapshotRow)
	for _, row := range rows {
		byPlatform[row.Platform] = append(byPlatform[row.Platform], row)
	}

	for platform, batch := range byPlatform {
		payload, err := json.Marshal(batch)
		if err != nil {
			logger.LogError(platform, err, "failed to encode snapshot batch")
			continue
		}
		if err := w.publisher.Publish(platform, payload); err != nil {
			logger.LogError(platform, err, "failed to publish snapshot batch")
		}
	}

	if err := w.publisher.TrimStreams(); err != nil {
		logger.LogError("publisher", err, "failed to trim streams")
	}
}

// PruneNullCounts deletes snapshot rows whose student count is null.
// Returns the number of rows removed.
func (w *Worker) PruneNullCounts() (int, error) {
	ids, err := w.store.IDsWithNullStudents()
	if err != nil {
		return 0, err
	}
	return w.prune(ids)
}

// PruneURLFragment deletes snapshot rows whose course URL contains the
// given fragment, e.g. a path segment later added to a platform blocklist.
func (w *Worker) PruneURLFragment(fragment string) (int, error) {
	ids, err := w.store.IDsWithURLContaining(fragment)
	if err != nil {
		return 0, err
	}
	return w.prune(ids)
}

func (w *Worker) prune(ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	if err := w.store.Delete(ids); err != nil {
		return 0, err
	}
	w.logger.Info().Int("rows", len(ids)).Msg("Pruned snapshot rows")
	return len(ids), nil
}

func rosterCourses(roster models.Roster) int {
	total := 0
	for _, courses := range roster {
		total += len(courses)
	}
	return total
}
