package store

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// Job is a stored posting. ExternalRef is the job board's identifier and may
// be empty; deduplication then falls back to (title, company, location).
type Job struct {
	ID          int64
	ExternalRef string
	Title       string
	Company     string
	Location    string
	Description string
	URL         string
	Source      string
	BaseScore   float64
	FitScore    float64
	WhyBase     string
	Embedding   []float64
	DatePosted  string
}

// Key returns the identifier the feedback ledger uses for this job: the
// external reference when present, otherwise the internal row id as text.
func (j *Job) Key() string {
	if j.ExternalRef != "" {
		return j.ExternalRef
	}
	return strconv.FormatInt(j.ID, 10)
}

// UpsertJob inserts the job or merges it into the existing row. Existing
// non-empty fields are never blanked out by an empty incoming value.
func (s *Store) UpsertJob(job *Job) (int64, error) {
	var id int64
	err := sql.ErrNoRows

	if job.ExternalRef != "" {
		err = s.db.QueryRow(`SELECT id FROM jobs WHERE external_ref = ?`, job.ExternalRef).Scan(&id)
	}
	if err == sql.ErrNoRows {
		err = s.db.QueryRow(
			`SELECT id FROM jobs WHERE title = ? AND company = ? AND location = ?`,
			job.Title, job.Company, job.Location,
		).Scan(&id)
	}
	if err != nil && err != sql.ErrNoRows {
		return 0, fmt.Errorf("look up job: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)

	if err == sql.ErrNoRows {
		res, err := s.db.Exec(`
			INSERT INTO jobs (external_ref, title, company, location, description, url, source, date_posted, created_at, updated_at)
			VALUES (NULLIF(?, ''), ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			job.ExternalRef, job.Title, job.Company, job.Location,
			job.Description, job.URL, job.Source, job.DatePosted, now, now,
		)
		if err != nil {
			return 0, fmt.Errorf("insert job: %w", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("insert job id: %w", err)
		}
		job.ID = id
		return id, nil
	}

	_, err = s.db.Exec(`
		UPDATE jobs SET
			external_ref = COALESCE(NULLIF(?, ''), external_ref),
			title        = CASE WHEN ? != '' THEN ? ELSE title END,
			company      = CASE WHEN ? != '' THEN ? ELSE company END,
			location     = CASE WHEN ? != '' THEN ? ELSE location END,
			description  = CASE WHEN ? != '' THEN ? ELSE description END,
			url          = CASE WHEN ? != '' THEN ? ELSE url END,
			source       = CASE WHEN ? != '' THEN ? ELSE source END,
			date_posted  = COALESCE(NULLIF(?, ''), date_posted),
			updated_at   = ?
		WHERE id = ?`,
		job.ExternalRef,
		job.Title, job.Title,
		job.Company, job.Company,
		job.Location, job.Location,
		job.Description, job.Description,
		job.URL, job.URL,
		job.Source, job.Source,
		job.DatePosted,
		now, id,
	)
	if err != nil {
		return 0, fmt.Errorf("update job: %w", err)
	}

	job.ID = id
	return id, nil
}

// UpdateScores persists a recomputed base and fit score with its rationale.
func (s *Store) UpdateScores(jobID int64, base, fit float64, whyBase string) error {
	_, err := s.db.Exec(
		`UPDATE jobs SET base_score = ?, fit_score = ?, why_base = ? WHERE id = ?`,
		base, fit, whyBase, jobID,
	)
	if err != nil {
		return fmt.Errorf("update job scores: %w", err)
	}
	return nil
}

// SetJobEmbedding stores the description embedding for a job.
func (s *Store) SetJobEmbedding(jobID int64, vec []float64) error {
	raw, err := encodeVector(vec)
	if err != nil {
		return err
	}
	if _, err := s.db.Exec(`UPDATE jobs SET embedding = ? WHERE id = ?`, raw, jobID); err != nil {
		return fmt.Errorf("set job embedding: %w", err)
	}
	return nil
}

const jobColumns = `id, COALESCE(external_ref, ''), title, company, location, description,
	url, source, COALESCE(base_score, 0), COALESCE(fit_score, 0), why_base,
	COALESCE(embedding, ''), COALESCE(date_posted, '')`

func scanJob(row interface{ Scan(...any) error }) (*Job, error) {
	var job Job
	var rawEmbedding string
	err := row.Scan(
		&job.ID, &job.ExternalRef, &job.Title, &job.Company, &job.Location,
		&job.Description, &job.URL, &job.Source, &job.BaseScore, &job.FitScore,
		&job.WhyBase, &rawEmbedding, &job.DatePosted,
	)
	if err != nil {
		return nil, err
	}
	job.Embedding, err = decodeVector(rawEmbedding)
	if err != nil {
		// A malformed embedding should not make the whole job unreadable.
		job.Embedding = nil
	}
	return &job, nil
}

// JobByKey resolves a job by external reference or by internal row id.
func (s *Store) JobByKey(key string) (*Job, error) {
	row := s.db.QueryRow(
		`SELECT `+jobColumns+` FROM jobs WHERE external_ref = ? OR CAST(id AS TEXT) = ? LIMIT 1`,
		key, key,
	)
	job, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("job by key %q: %w", key, err)
	}
	return job, nil
}

// Jobs returns all stored jobs ranked by fit score, best first.
func (s *Store) Jobs() ([]*Job, error) {
	rows, err := s.db.Query(
		`SELECT ` + jobColumns + ` FROM jobs ORDER BY COALESCE(fit_score, 0) DESC, id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}

	s.logger.Debug("loaded jobs", zap.Int("count", len(jobs)))
	return jobs, nil
}
