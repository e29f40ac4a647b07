package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/earny00/steam-hidden-gem-hunter/models"
)

// DateLayout is the snapshot date format; same-day checks are a string
// compare against it.
const DateLayout = "2006-01-02"

// SnapshotStore persists one day-scoped JSON snapshot per region so a
// same-day rerun can skip the network scan entirely.
type SnapshotStore struct {
	dir string
}

func NewSnapshotStore(dir string) *SnapshotStore {
	return &SnapshotStore{dir: dir}
}

func (s *SnapshotStore) path(region string) string {
	return filepath.Join(s.dir, fmt.Sprintf("today_games_%s.json", region))
}

// Load returns the region's snapshot only when it was taken today and
// holds at least one candidate. A missing, unreadable, corrupt or stale
// file is a cache miss, never an error.
func (s *SnapshotStore) Load(region, today string) *models.Snapshot {
	data, err := os.ReadFile(s.path(region))
	if err != nil {
		return nil
	}

	var snap models.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil
	}

	if snap.Date != today || len(snap.Games) == 0 {
		return nil
	}
	return &snap
}

// Save overwrites the region's snapshot unconditionally. A write failure
// only costs a rescan on the next run, so it propagates to the boundary.
func (s *SnapshotStore) Save(region, today string, games []models.Candidate) error {
	snap := models.Snapshot{
		Date:   today,
		Games:  games,
		Region: region,
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	return os.WriteFile(s.path(region), data, 0644)
}

// Invalidate drops the region's snapshot, forcing the next run to rescan.
func (s *SnapshotStore) Invalidate(region string) error {
	err := os.Remove(s.path(region))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
