package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Profile is a target persona jobs are matched against. Embedding is nil
// until the learning engine (or cold-start seeding) writes one.
type Profile struct {
	ID      int64
	Name    string
	Summary string
	Skills  string
	Region  string
}

// CreateProfile inserts a new profile and returns its id. Names are unique.
func (s *Store) CreateProfile(p *Profile) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO profiles (name, summary, skills, region, created_at) VALUES (?, ?, ?, ?, ?)`,
		p.Name, p.Summary, p.Skills, p.Region, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("create profile %q: %w", p.Name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create profile id: %w", err)
	}
	p.ID = id
	return id, nil
}

// ProfileByName returns the named profile, or nil when it does not exist.
func (s *Store) ProfileByName(name string) (*Profile, error) {
	var p Profile
	err := s.db.QueryRow(
		`SELECT id, name, summary, skills, region FROM profiles WHERE name = ?`, name,
	).Scan(&p.ID, &p.Name, &p.Summary, &p.Skills, &p.Region)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("profile %q: %w", name, err)
	}
	return &p, nil
}

// ProfileByID returns the profile with the given id, or nil when absent.
func (s *Store) ProfileByID(id int64) (*Profile, error) {
	var p Profile
	err := s.db.QueryRow(
		`SELECT id, name, summary, skills, region FROM profiles WHERE id = ?`, id,
	).Scan(&p.ID, &p.Name, &p.Summary, &p.Skills, &p.Region)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("profile %d: %w", id, err)
	}
	return &p, nil
}

// Profiles lists all profiles.
func (s *Store) Profiles() ([]*Profile, error) {
	rows, err := s.db.Query(`SELECT id, name, summary, skills, region FROM profiles ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*Profile
	for rows.Next() {
		var p Profile
		if err := rows.Scan(&p.ID, &p.Name, &p.Summary, &p.Skills, &p.Region); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		profiles = append(profiles, &p)
	}
	return profiles, rows.Err()
}

// ProfileVector returns the profile's preference embedding, or nil when the
// profile has none yet (cold start).
func (s *Store) ProfileVector(profileID int64) ([]float64, error) {
	var raw sql.NullString
	err := s.db.QueryRow(`SELECT embedding FROM profiles WHERE id = ?`, profileID).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("profile %d vector: %w", profileID, err)
	}
	if !raw.Valid {
		return nil, nil
	}
	return decodeVector(raw.String)
}

// SetProfileVector persists the profile's preference embedding.
func (s *Store) SetProfileVector(profileID int64, vec []float64) error {
	raw, err := encodeVector(vec)
	if err != nil {
		return err
	}
	res, err := s.db.Exec(`UPDATE profiles SET embedding = ? WHERE id = ?`, raw, profileID)
	if err != nil {
		return fmt.Errorf("set profile %d vector: %w", profileID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("profile %d does not exist", profileID)
	}
	return nil
}
