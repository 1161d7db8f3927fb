package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// timeLayout is the fixed-width timestamp format used for the feedback
// ledger and the learning watermarks. Fixed width keeps lexicographic
// ordering equal to chronological ordering, so SQL string comparisons
// between recorded_at and last_run are exact down to the nanosecond.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store wraps the local SQLite database holding jobs, profiles, the feedback
// ledger, feedback embeddings and the per-profile learning watermarks.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open opens (and if needed creates) the database at path and applies the
// schema. WAL mode keeps reads cheap while the learning engine writes.
func Open(path string, logger *zap.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	s := &Store{db: db, logger: logger}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Debug("database opened", zap.String("path", path))
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS jobs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		external_ref TEXT,
		title TEXT NOT NULL DEFAULT '',
		company TEXT NOT NULL DEFAULT '',
		location TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		url TEXT NOT NULL DEFAULT '',
		source TEXT NOT NULL DEFAULT '',
		base_score REAL,
		fit_score REAL,
		why_base TEXT NOT NULL DEFAULT '',
		embedding TEXT,
		date_posted TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_jobs_external_ref
		ON jobs(external_ref) WHERE external_ref IS NOT NULL AND external_ref != ''`,
	`CREATE TABLE IF NOT EXISTS profiles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		summary TEXT NOT NULL DEFAULT '',
		skills TEXT NOT NULL DEFAULT '',
		region TEXT NOT NULL DEFAULT '',
		embedding TEXT,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS feedback (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		job_key TEXT NOT NULL,
		profile_id INTEGER NOT NULL REFERENCES profiles(id),
		signal INTEGER,
		comment TEXT NOT NULL DEFAULT '',
		score_at_time REAL,
		recorded_at TEXT NOT NULL,
		UNIQUE(job_key, profile_id)
	)`,
	`CREATE TABLE IF NOT EXISTS feedback_embeddings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		profile_id INTEGER NOT NULL REFERENCES profiles(id),
		job_key TEXT NOT NULL,
		embedding TEXT NOT NULL,
		signal INTEGER NOT NULL DEFAULT 0,
		title TEXT NOT NULL DEFAULT '',
		company TEXT NOT NULL DEFAULT '',
		updated_at TEXT NOT NULL,
		UNIQUE(profile_id, job_key)
	)`,
	`CREATE TABLE IF NOT EXISTS learning_state (
		profile_id INTEGER PRIMARY KEY REFERENCES profiles(id),
		last_run TEXT NOT NULL
	)`,
}

func (s *Store) migrate() error {
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// encodeVector stores vectors as JSON arrays, the same representation the
// profile and job embedding columns use.
func encodeVector(vec []float64) (string, error) {
	data, err := json.Marshal(vec)
	if err != nil {
		return "", fmt.Errorf("encode vector: %w", err)
	}
	return string(data), nil
}

func decodeVector(raw string) ([]float64, error) {
	if raw == "" {
		return nil, nil
	}
	var vec []float64
	if err := json.Unmarshal([]byte(raw), &vec); err != nil {
		return nil, fmt.Errorf("decode vector: %w", err)
	}
	return vec, nil
}
