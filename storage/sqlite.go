package storage

import (
	"database/sql"
	"time"

	"github.com/earny00/steam-hidden-gem-hunter/models"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore keeps the local operational record of scans: one row per
// run plus a log trail. It never holds candidate data; the snapshot file
// stays authoritative for that.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS scan_runs (
		id INTEGER PRIMARY KEY,
		region TEXT,
		started_at DATETIME,
		finished_at DATETIME,
		status TEXT,
		pages_fetched INTEGER DEFAULT 0,
		candidates_found INTEGER DEFAULT 0,
		errors_count INTEGER DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS scan_logs (
		id INTEGER PRIMARY KEY,
		run_id INTEGER,
		timestamp DATETIME,
		level TEXT,
		message TEXT,
		region TEXT
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) CreateRun(run *models.ScanRun) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO scan_runs (region, started_at, status) VALUES (?, ?, ?)`,
		run.Region, run.StartedAt, run.Status,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *SQLiteStore) UpdateRun(run *models.ScanRun) error {
	_, err := s.db.Exec(
		`UPDATE scan_runs
		 SET finished_at = ?, status = ?, pages_fetched = ?, candidates_found = ?, errors_count = ?
		 WHERE id = ?`,
		run.FinishedAt, run.Status, run.PagesFetched, run.CandidatesFound, run.ErrorsCount, run.ID,
	)
	return err
}

// Log appends a scan log line. Logging failures are swallowed; losing a
// log row must never fail a scan.
func (s *SQLiteStore) Log(runID *int64, level models.LogLevel, message, region string) {
	s.db.Exec(
		`INSERT INTO scan_logs (run_id, timestamp, level, message, region) VALUES (?, ?, ?, ?, ?)`,
		runID, time.Now(), level, message, region,
	)
}

func (s *SQLiteStore) RecentRuns(region string, limit int) ([]models.ScanRun, error) {
	rows, err := s.db.Query(
		`SELECT id, region, started_at, finished_at, status, pages_fetched, candidates_found, errors_count
		 FROM scan_runs WHERE region = ? ORDER BY started_at DESC LIMIT ?`,
		region, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []models.ScanRun
	for rows.Next() {
		var run models.ScanRun
		if err := rows.Scan(
			&run.ID, &run.Region, &run.StartedAt, &run.FinishedAt,
			&run.Status, &run.PagesFetched, &run.CandidatesFound, &run.ErrorsCount,
		); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
