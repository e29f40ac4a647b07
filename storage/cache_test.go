package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/earny00/steam-hidden-gem-hunter/models"
)

func sampleGames() []models.Candidate {
	release := time.Date(2025, time.November, 10, 0, 0, 0, 0, time.UTC)
	return []models.Candidate{
		{
			Title:            "Starlight Cartographer",
			AppID:            "3100001",
			ReleaseDate:      release,
			DaysSinceRelease: 10,
			ReviewCount:      342,
			RatingPercent:    88,
			PriceAmount:      15000,
			PriceDisplay:     "₩ 15,000",
			Description:      "Chart an archipelago.",
			Tags:             "Indie, Adventure",
			Screenshots:      []string{"https://cdn.test/ss_1.jpg"},
		},
		{
			Title:        "Neon Tidepool",
			AppID:        "3100002",
			ReleaseDate:  release,
			ReviewCount:  51,
			PriceAmount:  8500,
			PriceDisplay: "₩ 8,500",
		},
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	store := NewSnapshotStore(t.TempDir())
	games := sampleGames()

	if err := store.Save("kr", "2025-11-20", games); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	snap := store.Load("kr", "2025-11-20")
	if snap == nil {
		t.Fatalf("expected a same-day hit")
	}
	if snap.Region != "kr" || snap.Date != "2025-11-20" {
		t.Fatalf("unexpected envelope: region=%q date=%q", snap.Region, snap.Date)
	}
	if len(snap.Games) != len(games) {
		t.Fatalf("expected %d games, got %d", len(games), len(snap.Games))
	}
	for i := range games {
		got, want := snap.Games[i], games[i]
		if got.AppID != want.AppID || got.Title != want.Title {
			t.Fatalf("game %d: got %s/%s, want %s/%s", i, got.AppID, got.Title, want.AppID, want.Title)
		}
		if !got.ReleaseDate.Equal(want.ReleaseDate) {
			t.Fatalf("game %d: release date drifted: %v vs %v", i, got.ReleaseDate, want.ReleaseDate)
		}
		if got.PriceAmount != want.PriceAmount || got.PriceDisplay != want.PriceDisplay {
			t.Fatalf("game %d: price mismatch: %v/%q", i, got.PriceAmount, got.PriceDisplay)
		}
	}
}

func TestSnapshotRegionsAreIndependent(t *testing.T) {
	store := NewSnapshotStore(t.TempDir())

	if err := store.Save("kr", "2025-11-20", sampleGames()); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if snap := store.Load("us", "2025-11-20"); snap != nil {
		t.Fatalf("expected a miss for the unsaved region")
	}
}

func TestSnapshotStaleDateIsAMiss(t *testing.T) {
	store := NewSnapshotStore(t.TempDir())

	if err := store.Save("kr", "2025-11-19", sampleGames()); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if snap := store.Load("kr", "2025-11-20"); snap != nil {
		t.Fatalf("yesterday's snapshot must not be served")
	}
}

func TestSnapshotCorruptFileIsAMiss(t *testing.T) {
	dir := t.TempDir()
	store := NewSnapshotStore(dir)

	path := filepath.Join(dir, "today_games_kr.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	if snap := store.Load("kr", "2025-11-20"); snap != nil {
		t.Fatalf("corrupt snapshot must be a miss")
	}
}

func TestSnapshotEmptyGamesIsAMiss(t *testing.T) {
	store := NewSnapshotStore(t.TempDir())

	if err := store.Save("kr", "2025-11-20", nil); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if snap := store.Load("kr", "2025-11-20"); snap != nil {
		t.Fatalf("empty snapshot must be a miss")
	}
}

func TestSnapshotInvalidate(t *testing.T) {
	store := NewSnapshotStore(t.TempDir())

	if err := store.Save("kr", "2025-11-20", sampleGames()); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := store.Invalidate("kr"); err != nil {
		t.Fatalf("invalidate failed: %v", err)
	}
	if snap := store.Load("kr", "2025-11-20"); snap != nil {
		t.Fatalf("expected a miss after invalidation")
	}

	// Dropping a snapshot that never existed is not an error.
	if err := store.Invalidate("jp"); err != nil {
		t.Fatalf("invalidate of a missing snapshot failed: %v", err)
	}
}

func TestSnapshotSaveFailurePropagates(t *testing.T) {
	store := NewSnapshotStore(filepath.Join(t.TempDir(), "missing", "nested"))

	if err := store.Save("kr", "2025-11-20", sampleGames()); err == nil {
		t.Fatalf("expected an error writing into a missing directory")
	}
}
