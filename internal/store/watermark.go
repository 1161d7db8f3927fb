package store

import (
	"database/sql"
	"fmt"
	"time"
)

// LastRun returns the profile's learning watermark: the timestamp of the
// last processed feedback batch. Profiles that never learned get the Unix
// epoch so their whole history qualifies.
func (s *Store) LastRun(profileID int64) (time.Time, error) {
	var raw string
	err := s.db.QueryRow(`SELECT last_run FROM learning_state WHERE profile_id = ?`, profileID).Scan(&raw)
	if err == sql.ErrNoRows {
		return time.Unix(0, 0).UTC(), nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("last run for profile %d: %w", profileID, err)
	}

	t, err := time.Parse(timeLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse last run %q: %w", raw, err)
	}
	return t, nil
}

// AdvanceLastRun moves the profile's watermark forward, but only when it
// still matches expected. A false return means another update advanced it
// first and the caller should re-read before retrying.
func (s *Store) AdvanceLastRun(profileID int64, expected, now time.Time) (bool, error) {
	current, err := s.LastRun(profileID)
	if err != nil {
		return false, err
	}
	if !current.Equal(expected) {
		return false, nil
	}

	_, err = s.db.Exec(`
		INSERT INTO learning_state (profile_id, last_run) VALUES (?, ?)
		ON CONFLICT(profile_id) DO UPDATE SET last_run = excluded.last_run`,
		profileID, now.UTC().Format(timeLayout),
	)
	if err != nil {
		return false, fmt.Errorf("advance last run for profile %d: %w", profileID, err)
	}
	return true, nil
}
