package scraper

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/earny00/steam-hidden-gem-hunter/config"
	"github.com/earny00/steam-hidden-gem-hunter/models"
)

func loadFixture(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join("testdata", name)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read fixture %s: %v", name, err)
	}
	return string(data)
}

// fakeFetcher records lookups and serves canned details.
type fakeFetcher struct {
	calls    []string
	degraded bool
}

func (f *fakeFetcher) FetchDetails(ctx context.Context, appID string) models.Details {
	f.calls = append(f.calls, appID)
	if f.degraded {
		return models.Details{
			Description: "no description",
			Tags:        "uncategorized",
			Degraded:    true,
		}
	}
	return models.Details{
		Description: "details for " + appID,
		Tags:        "Indie, Adventure",
		Screenshots: []string{"https://cdn.test/" + appID + "/ss_1.jpg"},
	}
}

func testFilters() config.Filters {
	return config.Filters{
		FreshnessWindowDays: 35,
		ReviewMin:           10,
		ReviewMax:           2000,
		TargetCount:         20,
		MaxPages:            20,
		PageSize:            25,
	}
}

func testRegion() *config.Region {
	return &config.Region{Code: "kr", Name: "Korea (KRW)", Symbol: "₩"}
}

var fixtureToday = time.Date(2025, time.November, 20, 9, 0, 0, 0, time.UTC)

func TestExtractPage_Filters(t *testing.T) {
	fetcher := &fakeFetcher{}
	e := NewExtractor(testRegion(), testFilters(), fetcher, 0)

	candidates, rows, err := e.ExtractPage(context.Background(), loadFixture(t, "search_results.html"), PageState{
		Today:  fixtureToday,
		Target: 20,
	})
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if rows != 15 {
		t.Fatalf("expected 15 rows, got %d", rows)
	}

	wantApps := []string{"3100001", "3100002", "3100003", "3100006", "3100014", "3100015"}
	if len(candidates) != len(wantApps) {
		t.Fatalf("expected %d candidates, got %d", len(wantApps), len(candidates))
	}
	for i, want := range wantApps {
		if candidates[i].AppID != want {
			t.Fatalf("candidate %d: expected app %s, got %s", i, want, candidates[i].AppID)
		}
	}

	first := candidates[0]
	if first.Title != "Starlight Cartographer" {
		t.Fatalf("unexpected title %q", first.Title)
	}
	if first.ReviewCount != 342 || first.RatingPercent != 88 {
		t.Fatalf("expected 342 reviews at 88%%, got %d at %d%%", first.ReviewCount, first.RatingPercent)
	}
	if first.DaysSinceRelease != 10 {
		t.Fatalf("expected 10 days since release, got %d", first.DaysSinceRelease)
	}
	if first.PriceAmount != 15000 || first.PriceDisplay != "₩ 15,000" {
		t.Fatalf("unexpected price %v / %q", first.PriceAmount, first.PriceDisplay)
	}
	if first.Description != "details for 3100001" || first.Tags != "Indie, Adventure" {
		t.Fatalf("enrichment not applied: %q / %q", first.Description, first.Tags)
	}

	// Boundary rows survive at both ends of both bands.
	if candidates[2].ReviewCount != 10 {
		t.Fatalf("expected lower review bound 10, got %d", candidates[2].ReviewCount)
	}
	if candidates[5].ReviewCount != 2000 {
		t.Fatalf("expected upper review bound 2000, got %d", candidates[5].ReviewCount)
	}
	if candidates[3].DaysSinceRelease != 35 {
		t.Fatalf("expected freshness bound 35 days, got %d", candidates[3].DaysSinceRelease)
	}

	// Missing rating defaults to 0, not a rejection.
	if candidates[4].AppID != "3100014" || candidates[4].RatingPercent != 0 {
		t.Fatalf("expected app 3100014 with rating 0, got %s with %d", candidates[4].AppID, candidates[4].RatingPercent)
	}
}

func TestExtractPage_DiscountPriceTakesPrecedence(t *testing.T) {
	fetcher := &fakeFetcher{}
	e := NewExtractor(testRegion(), testFilters(), fetcher, 0)

	candidates, _, err := e.ExtractPage(context.Background(), loadFixture(t, "search_results.html"), PageState{
		Today:  fixtureToday,
		Target: 20,
	})
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}

	discounted := candidates[1]
	if discounted.PriceAmount != 8500 {
		t.Fatalf("expected discounted amount 8500, got %v", discounted.PriceAmount)
	}
	if discounted.PriceDisplay != "₩ 8,500" {
		t.Fatalf("expected discounted display, got %q", discounted.PriceDisplay)
	}
}

func TestExtractPage_Thumbnails(t *testing.T) {
	fetcher := &fakeFetcher{}
	e := NewExtractor(testRegion(), testFilters(), fetcher, 0)

	candidates, _, err := e.ExtractPage(context.Background(), loadFixture(t, "search_results.html"), PageState{
		Today:  fixtureToday,
		Target: 20,
	})
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}

	// srcset entry beats the plain src attribute.
	want := "https://shared.akamai.steamstatic.com/store_item_assets/steam/apps/3100002/capsule_231x87.jpg"
	if candidates[1].ThumbnailURL != want {
		t.Fatalf("expected srcset thumbnail, got %q", candidates[1].ThumbnailURL)
	}

	// A junk src falls back to the derived header asset.
	if candidates[2].ThumbnailURL != HeaderImageURL("3100003") {
		t.Fatalf("expected header fallback, got %q", candidates[2].ThumbnailURL)
	}

	for _, c := range candidates {
		if c.HeaderImageURL != HeaderImageURL(c.AppID) {
			t.Fatalf("header image not derived from app id: %q", c.HeaderImageURL)
		}
	}
}

func TestExtractPage_TargetCap(t *testing.T) {
	fetcher := &fakeFetcher{}
	e := NewExtractor(testRegion(), testFilters(), fetcher, 0)

	candidates, _, err := e.ExtractPage(context.Background(), loadFixture(t, "search_results.html"), PageState{
		Today:  fixtureToday,
		Target: 2,
	})
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates at target cap, got %d", len(candidates))
	}

	// Already-accumulated count from earlier pages counts against the cap.
	candidates, _, err = e.ExtractPage(context.Background(), loadFixture(t, "search_results.html"), PageState{
		Today:     fixtureToday,
		Collected: 5,
		Target:    6,
	})
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate with 5 collected, got %d", len(candidates))
	}
}

func TestExtractPage_DegradedDetailsKeepRow(t *testing.T) {
	fetcher := &fakeFetcher{degraded: true}
	e := NewExtractor(testRegion(), testFilters(), fetcher, 0)

	candidates, _, err := e.ExtractPage(context.Background(), loadFixture(t, "search_results.html"), PageState{
		Today:  fixtureToday,
		Target: 20,
	})
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if len(candidates) != 6 {
		t.Fatalf("expected 6 candidates despite degraded details, got %d", len(candidates))
	}
	for _, c := range candidates {
		if c.Description != "no description" || c.Tags != "uncategorized" {
			t.Fatalf("expected fallback detail values, got %q / %q", c.Description, c.Tags)
		}
		if len(c.Screenshots) != 0 {
			t.Fatalf("expected no screenshots on degraded details")
		}
	}
}

func TestExtractPage_EmptyFragment(t *testing.T) {
	fetcher := &fakeFetcher{}
	e := NewExtractor(testRegion(), testFilters(), fetcher, 0)

	candidates, rows, err := e.ExtractPage(context.Background(), "<div></div>", PageState{
		Today:  fixtureToday,
		Target: 20,
	})
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if rows != 0 || len(candidates) != 0 {
		t.Fatalf("expected no rows and no candidates, got %d/%d", rows, len(candidates))
	}
}
