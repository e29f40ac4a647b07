package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/earny00/steam-hidden-gem-hunter/config"
	"github.com/earny00/steam-hidden-gem-hunter/httputil"
	"github.com/earny00/steam-hidden-gem-hunter/models"
	"github.com/earny00/steam-hidden-gem-hunter/storage"
	"github.com/google/uuid"
)

const defaultSearchURL = "https://store.steampowered.com/search/results/"

const userAgent = "Mozilla/5.0"

// Orchestrator drives the paginated discovery scan for a region: fetch a
// page, extract survivors, pace, repeat until the target count, the page
// limit or the end of the result set. Scans are best-effort; a failed
// page ends the scan with whatever was accumulated.
type Orchestrator struct {
	cfg     *config.Config
	clients *httputil.Clients
	cache   *storage.SnapshotStore

	store   *storage.SQLiteStore   // run history, optional
	archive *storage.PostgresStore // durable archive, optional

	searchURL  string
	detailsURL string
	now        func() time.Time
}

func NewOrchestrator(cfg *config.Config, clients *httputil.Clients, cache *storage.SnapshotStore) *Orchestrator {
	return &Orchestrator{
		cfg:        cfg,
		clients:    clients,
		cache:      cache,
		searchURL:  defaultSearchURL,
		detailsURL: defaultDetailsURL,
		now:        time.Now,
	}
}

// SetStores injects the optional operational and archive stores.
func (o *Orchestrator) SetStores(store *storage.SQLiteStore, archive *storage.PostgresStore) {
	o.store = store
	o.archive = archive
}

// LoadOrDiscover returns today's snapshot for the region when one exists,
// otherwise runs a fresh scan and persists the result. The bool reports
// whether the cache was hit.
func (o *Orchestrator) LoadOrDiscover(ctx context.Context, regionCode string) ([]models.Candidate, bool, error) {
	today := o.now().Format(storage.DateLayout)

	if snap := o.cache.Load(regionCode, today); snap != nil {
		o.log(nil, models.LogLevelInfo, fmt.Sprintf("cache hit: %d candidates from %s", len(snap.Games), snap.Date), regionCode)
		return snap.Games, true, nil
	}

	candidates, err := o.Discover(ctx, regionCode)
	if err != nil {
		return nil, false, err
	}

	if len(candidates) > 0 {
		if err := o.cache.Save(regionCode, today, candidates); err != nil {
			return candidates, false, fmt.Errorf("save snapshot: %w", err)
		}
	}

	return candidates, false, nil
}

// Discover runs one full scan for the region. It returns fewer than the
// target count when the result set runs dry or a page fails; that is an
// incomplete discovery, not an error.
func (o *Orchestrator) Discover(ctx context.Context, regionCode string) ([]models.Candidate, error) {
	region, ok := o.cfg.Region(regionCode)
	if !ok {
		return nil, fmt.Errorf("unknown region: %s", regionCode)
	}

	today := o.now()
	filters := o.cfg.Filters

	run := o.startRun(regionCode)
	archiveRun := o.startArchiveRun(ctx, regionCode, today)

	fetcher := NewDetailFetcher(o.clients.Details, regionCode)
	fetcher.baseURL = o.detailsURL
	extractor := NewExtractor(region, filters, fetcher, o.cfg.Pacing.DetailDelay)

	o.log(runID(run), models.LogLevelInfo, fmt.Sprintf("starting scan (%s)", region.Name), regionCode)

	var candidates []models.Candidate
	for page := 0; page < filters.MaxPages && len(candidates) < filters.TargetCount; page++ {
		if ctx.Err() != nil {
			break
		}

		resultsHTML, err := o.fetchSearchPage(ctx, regionCode, page)
		if err != nil {
			o.log(runID(run), models.LogLevelError, fmt.Sprintf("page %d: %v, keeping partial results", page, err), regionCode)
			if run != nil {
				run.ErrorsCount++
				run.Status = models.RunStatusFailed
			}
			break
		}
		if run != nil {
			run.PagesFetched++
		}

		found, rows, err := extractor.ExtractPage(ctx, resultsHTML, PageState{
			Today:     today,
			Collected: len(candidates),
			Target:    filters.TargetCount,
		})
		if err != nil {
			o.log(runID(run), models.LogLevelError, fmt.Sprintf("page %d: %v, keeping partial results", page, err), regionCode)
			if run != nil {
				run.ErrorsCount++
				run.Status = models.RunStatusFailed
			}
			break
		}
		if rows == 0 {
			o.log(runID(run), models.LogLevelInfo, fmt.Sprintf("page %d empty, end of results", page), regionCode)
			break
		}

		candidates = append(candidates, found...)
		o.log(runID(run), models.LogLevelInfo,
			fmt.Sprintf("page %d: %d rows, %d kept (total %d)", page, rows, len(found), len(candidates)), regionCode)

		time.Sleep(o.cfg.Pacing.PageDelay)
	}

	o.finishRun(run, len(candidates))
	o.finishArchiveRun(ctx, archiveRun, regionCode, today, candidates)

	return candidates, nil
}

func (o *Orchestrator) fetchSearchPage(ctx context.Context, regionCode string, page int) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.searchURL, nil)
	if err != nil {
		return "", err
	}

	q := req.URL.Query()
	q.Set("query", "")
	q.Set("start", strconv.Itoa(page*o.cfg.Filters.PageSize))
	q.Set("count", strconv.Itoa(o.cfg.Filters.PageSize))
	q.Set("dynamic_data", "")
	q.Set("sort_by", "Released_DESC")
	q.Set("category1", "998")
	q.Set("infinite", "1")
	q.Set("cc", regionCode)
	req.URL.RawQuery = q.Encode()

	req.Header.Set("User-Agent", userAgent)
	// Language plus age-gate bypass, same cookies the store UI sets.
	req.AddCookie(&http.Cookie{Name: "Steam_Language", Value: "korean"})
	req.AddCookie(&http.Cookie{Name: "birthtime", Value: "0"})
	req.AddCookie(&http.Cookie{Name: "lastagecheckage", Value: "1-January-1990"})

	resp, err := o.clients.Search.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("search status %d", resp.StatusCode)
	}

	var payload struct {
		ResultsHTML string `json:"results_html"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode search response: %w", err)
	}

	return payload.ResultsHTML, nil
}

func (o *Orchestrator) startRun(regionCode string) *models.ScanRun {
	if o.store == nil {
		return nil
	}

	run := &models.ScanRun{
		Region:    regionCode,
		StartedAt: time.Now(),
		Status:    models.RunStatusRunning,
	}
	id, err := o.store.CreateRun(run)
	if err != nil {
		log.Printf("warning: failed to create run record: %v", err)
		return nil
	}
	run.ID = id
	return run
}

func (o *Orchestrator) finishRun(run *models.ScanRun, found int) {
	if run == nil {
		return
	}

	now := time.Now()
	run.FinishedAt = &now
	run.CandidatesFound = found
	if run.Status == models.RunStatusRunning {
		run.Status = models.RunStatusCompleted
	}
	if err := o.store.UpdateRun(run); err != nil {
		log.Printf("warning: failed to update run record: %v", err)
	}
}

func (o *Orchestrator) startArchiveRun(ctx context.Context, regionCode string, today time.Time) *models.ArchiveRun {
	if o.archive == nil {
		return nil
	}

	run := &models.ArchiveRun{
		ID:        uuid.New(),
		Region:    regionCode,
		ScanDate:  today.Format(storage.DateLayout),
		StartedAt: time.Now(),
		Status:    models.RunStatusRunning,
	}
	if err := o.archive.CreateScanRun(ctx, run); err != nil {
		log.Printf("warning: failed to create archive run: %v", err)
		return nil
	}
	return run
}

func (o *Orchestrator) finishArchiveRun(ctx context.Context, run *models.ArchiveRun, regionCode string, today time.Time, candidates []models.Candidate) {
	if run == nil {
		return
	}

	if err := o.archive.ArchiveCandidates(ctx, run.ID, regionCode, today.Format(storage.DateLayout), candidates); err != nil {
		log.Printf("warning: failed to archive candidates: %v", err)
	}

	now := time.Now()
	run.FinishedAt = &now
	run.Status = models.RunStatusCompleted
	run.CandidatesFound = len(candidates)
	if err := o.archive.UpdateScanRun(ctx, run); err != nil {
		log.Printf("warning: failed to update archive run: %v", err)
	}
}

func (o *Orchestrator) log(id *int64, level models.LogLevel, message, regionCode string) {
	log.Printf("[%s] %s: %s", level, regionCode, message)
	if o.store != nil {
		o.store.Log(id, level, message, regionCode)
	}
}

func runID(run *models.ScanRun) *int64 {
	if run == nil {
		return nil
	}
	return &run.ID
}
