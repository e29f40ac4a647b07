package models

import (
	"time"

	"github.com/google/uuid"
)

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCached    RunStatus = "cached"
)

// ScanRun is one discovery scan recorded in the operational store.
type ScanRun struct {
	ID              int64      `json:"id" db:"id"`
	Region          string     `json:"region" db:"region"`
	StartedAt       time.Time  `json:"started_at" db:"started_at"`
	FinishedAt      *time.Time `json:"finished_at" db:"finished_at"`
	Status          RunStatus  `json:"status" db:"status"`
	PagesFetched    int        `json:"pages_fetched" db:"pages_fetched"`
	CandidatesFound int        `json:"candidates_found" db:"candidates_found"`
	ErrorsCount     int        `json:"errors_count" db:"errors_count"`
}

// ArchiveRun is the durable record of a scan in the Postgres archive.
type ArchiveRun struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	Region          string     `json:"region" db:"region"`
	ScanDate        string     `json:"scan_date" db:"scan_date"`
	StartedAt       time.Time  `json:"started_at" db:"started_at"`
	FinishedAt      *time.Time `json:"finished_at" db:"finished_at"`
	Status          RunStatus  `json:"status" db:"status"`
	CandidatesFound int        `json:"candidates_found" db:"candidates_found"`
}
