package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/earny00/steam-hidden-gem-hunter/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore is the optional durable archive. The daily snapshot file
// answers "what did we find today"; the archive keeps every scan's
// candidates across days for later analysis. This pipeline only writes it.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.MaxConns = 5
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	store := &PostgresStore{pool: pool}
	if err := store.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return store, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS scan_runs (
		id UUID PRIMARY KEY,
		region TEXT NOT NULL,
		scan_date DATE NOT NULL,
		started_at TIMESTAMPTZ NOT NULL,
		finished_at TIMESTAMPTZ,
		status TEXT NOT NULL,
		candidates_found INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS candidates (
		run_id UUID NOT NULL REFERENCES scan_runs(id),
		app_id TEXT NOT NULL,
		scan_date DATE NOT NULL,
		region TEXT NOT NULL,
		title TEXT NOT NULL,
		release_date DATE,
		days_since_release INTEGER,
		reviews INTEGER,
		rating INTEGER,
		price_val NUMERIC,
		price_str TEXT,
		thumb TEXT,
		header_img TEXT,
		full_desc TEXT,
		tags TEXT,
		screenshots TEXT[],
		PRIMARY KEY (app_id, scan_date, region)
	);
	`

	_, err := s.pool.Exec(ctx, schema)
	return err
}

func (s *PostgresStore) CreateScanRun(ctx context.Context, run *models.ArchiveRun) error {
	query := `
		INSERT INTO scan_runs (id, region, scan_date, started_at, status, candidates_found)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := s.pool.Exec(ctx, query,
		run.ID, run.Region, run.ScanDate, run.StartedAt, run.Status, run.CandidatesFound,
	)
	return err
}

func (s *PostgresStore) UpdateScanRun(ctx context.Context, run *models.ArchiveRun) error {
	query := `
		UPDATE scan_runs
		SET finished_at = $1, status = $2, candidates_found = $3
		WHERE id = $4`

	_, err := s.pool.Exec(ctx, query, run.FinishedAt, run.Status, run.CandidatesFound, run.ID)
	return err
}

// ArchiveCandidates upserts a scan's candidates keyed by app, day and
// region, so re-running a scan for the same day refreshes rather than
// duplicates.
func (s *PostgresStore) ArchiveCandidates(ctx context.Context, runID uuid.UUID, region, scanDate string, candidates []models.Candidate) error {
	query := `
		INSERT INTO candidates (
			run_id, app_id, scan_date, region, title, release_date,
			days_since_release, reviews, rating, price_val, price_str,
			thumb, header_img, full_desc, tags, screenshots
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (app_id, scan_date, region) DO UPDATE SET
			run_id = EXCLUDED.run_id,
			reviews = EXCLUDED.reviews,
			rating = EXCLUDED.rating,
			price_val = EXCLUDED.price_val,
			price_str = EXCLUDED.price_str,
			full_desc = EXCLUDED.full_desc,
			tags = EXCLUDED.tags,
			screenshots = EXCLUDED.screenshots`

	for _, c := range candidates {
		_, err := s.pool.Exec(ctx, query,
			runID, c.AppID, scanDate, region, c.Title, c.ReleaseDate,
			c.DaysSinceRelease, c.ReviewCount, c.RatingPercent, c.PriceAmount, c.PriceDisplay,
			c.ThumbnailURL, c.HeaderImageURL, c.Description, c.Tags, c.Screenshots,
		)
		if err != nil {
			return fmt.Errorf("archive %s: %w", c.AppID, err)
		}
	}
	return nil
}
