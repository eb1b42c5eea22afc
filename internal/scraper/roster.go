package scraper

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"chiayu/coursetrendworker/models"
)

// LoadRoster reads the cached roster file.
func LoadRoster(path string) (models.Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("roster: read %s: %w", path, err)
	}
	var roster models.Roster
	if err := json.Unmarshal(data, &roster); err != nil {
		return nil, fmt.Errorf("roster: parse %s: %w", path, err)
	}
	return roster, nil
}

// SaveRoster replaces the roster cache file in full. Update runs read this
// file until the next discovery overwrites it.
func SaveRoster(path string, roster models.Roster) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("roster: mkdir: %w", err)
	}
	data, err := json.MarshalIndent(roster, "", "  ")
	if err != nil {
		return fmt.Errorf("roster: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("roster: write %s: %w", path, err)
	}
	return nil
}

// RosterExists reports whether a roster cache file is present.
func RosterExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
