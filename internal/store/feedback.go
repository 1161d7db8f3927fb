package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Signal is the tri-state judgment of a feedback event.
type Signal int

const (
	SignalNone    Signal = 0
	SignalLike    Signal = 1
	SignalDislike Signal = -1
)

// FeedbackEntry is the current authoritative judgment of one profile on one
// job. There is at most one entry per (job, profile) pair.
type FeedbackEntry struct {
	JobKey      string
	ProfileID   int64
	Signal      Signal
	Comment     string
	ScoreAtTime float64
	RecordedAt  time.Time
}

// RecordFeedback stores or merges a feedback event. A later event for the
// same (job, profile) pair updates the existing entry: a non-none signal
// wins over the previous one, a non-empty comment wins over the previous
// one, and score and timestamp are always overwritten.
func (s *Store) RecordFeedback(jobKey string, profileID int64, signal Signal, comment string, scoreAtTime float64) error {
	jobKey = strings.TrimSpace(jobKey)
	if jobKey == "" {
		return fmt.Errorf("job key is required")
	}

	now := time.Now().UTC().Format(timeLayout)
	newSignal := signalToNull(signal)

	_, err := s.db.Exec(`
		INSERT INTO feedback (job_key, profile_id, signal, comment, score_at_time, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(job_key, profile_id) DO UPDATE SET
			signal        = COALESCE(excluded.signal, feedback.signal),
			comment       = CASE WHEN excluded.comment != '' THEN excluded.comment ELSE feedback.comment END,
			score_at_time = excluded.score_at_time,
			recorded_at   = excluded.recorded_at`,
		jobKey, profileID, newSignal, strings.TrimSpace(comment), scoreAtTime, now,
	)
	if err != nil {
		return fmt.Errorf("record feedback for job %q: %w", jobKey, err)
	}

	s.logger.Debug("feedback recorded",
		zap.String("job_key", jobKey),
		zap.Int64("profile_id", profileID),
		zap.Int("signal", int(signal)),
	)
	return nil
}

// Feedback returns the current entry for (jobKey, profileID), or nil.
func (s *Store) Feedback(jobKey string, profileID int64) (*FeedbackEntry, error) {
	var entry FeedbackEntry
	var signal sql.NullInt64
	var score sql.NullFloat64
	var recordedAt string

	err := s.db.QueryRow(
		`SELECT job_key, profile_id, signal, comment, score_at_time, recorded_at
		 FROM feedback WHERE job_key = ? AND profile_id = ?`,
		jobKey, profileID,
	).Scan(&entry.JobKey, &entry.ProfileID, &signal, &entry.Comment, &score, &recordedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("feedback for job %q: %w", jobKey, err)
	}

	if signal.Valid {
		entry.Signal = Signal(signal.Int64)
	}
	entry.ScoreAtTime = score.Float64
	entry.RecordedAt, _ = time.Parse(timeLayout, recordedAt)
	return &entry, nil
}

// Event is a qualifying feedback event joined to the job's description
// embedding. JobVector is nil when the job has no embedding yet; the
// learning engine skips such events.
type Event struct {
	JobKey    string
	Signal    Signal
	Comment   string
	JobVector []float64
}

// EventsSince returns the profile's feedback entries newer than the
// watermark that carry a non-none signal or a non-empty comment. The job
// key may reference either the internal row id or the external reference,
// so the join matches both shapes. Timestamps use a fixed-width layout, so
// the string comparison below is chronological down to the nanosecond.
func (s *Store) EventsSince(profileID int64, since time.Time) ([]Event, error) {
	rows, err := s.db.Query(`
		SELECT f.job_key, f.signal, f.comment, COALESCE(j.embedding, '')
		FROM feedback f
		LEFT JOIN jobs j ON (
			f.job_key = CAST(j.id AS TEXT)
			OR LOWER(TRIM(f.job_key)) = LOWER(TRIM(COALESCE(j.external_ref, '')))
		)
		WHERE f.profile_id = ?
		  AND f.recorded_at > ?
		  AND (f.signal IS NOT NULL OR TRIM(f.comment) != '')`,
		profileID, since.UTC().Format(timeLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("events since %s: %w", since, err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var ev Event
		var signal sql.NullInt64
		var rawEmbedding string
		if err := rows.Scan(&ev.JobKey, &signal, &ev.Comment, &rawEmbedding); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if signal.Valid {
			ev.Signal = Signal(signal.Int64)
		}
		if vec, err := decodeVector(rawEmbedding); err == nil {
			ev.JobVector = vec
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// FeedbackEmbedding pairs a stored feedback vector with its signal. These
// are what the fit score predictor aggregates over.
type FeedbackEmbedding struct {
	ProfileID int64
	JobKey    string
	Vector    []float64
	Signal    Signal
	Title     string
	Company   string
}

// UpsertFeedbackEmbedding stores the embedding captured with a feedback
// event, replacing any previous one for the same (profile, job) pair.
func (s *Store) UpsertFeedbackEmbedding(fe *FeedbackEmbedding) error {
	raw, err := encodeVector(fe.Vector)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
		INSERT INTO feedback_embeddings (profile_id, job_key, embedding, signal, title, company, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(profile_id, job_key) DO UPDATE SET
			embedding  = excluded.embedding,
			signal     = excluded.signal,
			title      = excluded.title,
			company    = excluded.company,
			updated_at = excluded.updated_at`,
		fe.ProfileID, fe.JobKey, raw, int(fe.Signal), fe.Title, fe.Company,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upsert feedback embedding for job %q: %w", fe.JobKey, err)
	}
	return nil
}

// FeedbackEmbeddings returns every stored feedback embedding. Malformed
// vectors are skipped rather than failing the whole read.
func (s *Store) FeedbackEmbeddings() ([]*FeedbackEmbedding, error) {
	rows, err := s.db.Query(
		`SELECT profile_id, job_key, embedding, signal, title, company FROM feedback_embeddings`,
	)
	if err != nil {
		return nil, fmt.Errorf("list feedback embeddings: %w", err)
	}
	defer rows.Close()

	var all []*FeedbackEmbedding
	for rows.Next() {
		var fe FeedbackEmbedding
		var raw string
		var signal int
		if err := rows.Scan(&fe.ProfileID, &fe.JobKey, &raw, &signal, &fe.Title, &fe.Company); err != nil {
			return nil, fmt.Errorf("scan feedback embedding: %w", err)
		}
		vec, err := decodeVector(raw)
		if err != nil || len(vec) == 0 {
			s.logger.Warn("skipping malformed feedback embedding", zap.String("job_key", fe.JobKey))
			continue
		}
		fe.Vector = vec
		fe.Signal = Signal(signal)
		all = append(all, &fe)
	}
	return all, rows.Err()
}

func signalToNull(signal Signal) sql.NullInt64 {
	if signal == SignalNone {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(signal), Valid: true}
}
