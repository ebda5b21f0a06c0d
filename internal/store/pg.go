package store

import (
	"database/sql"
	"encoding/json"
	"errors"

	"rentalintel/internal/types"
)

func (s *Store) ensureSchema() error {
	if s == nil || s.db == nil {
		return nil
	}
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.Exec(`
CREATE TABLE IF NOT EXISTS run_reports (
  run_id TEXT PRIMARY KEY,
  generated_at TIMESTAMP WITH TIME ZONE NOT NULL,
  report JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_run_reports_generated_at ON run_reports (generated_at DESC);
`)
	})
	return s.schemaErr
}

func (s *Store) putDB(r types.Report) error {
	if err := s.ensureSchema(); err != nil {
		return err
	}
	b, err := json.Marshal(r)
	if err != nil {
		return err
	}
	// no ON CONFLICT update: reports are append-only
	res, err := s.db.Exec(`
INSERT INTO run_reports (run_id, generated_at, report)
VALUES ($1, $2, $3)
ON CONFLICT (run_id) DO NOTHING`, r.RunID, r.GeneratedAt, b)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrDuplicateRun
	}
	return nil
}

func (s *Store) getDB(runID string) (types.Report, error) {
	if err := s.ensureSchema(); err != nil {
		return types.Report{}, err
	}
	var b []byte
	err := s.db.QueryRow(`SELECT report FROM run_reports WHERE run_id = $1`, runID).Scan(&b)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Report{}, ErrNotFound
	}
	if err != nil {
		return types.Report{}, err
	}
	var r types.Report
	if err := json.Unmarshal(b, &r); err != nil {
		return types.Report{}, err
	}
	return r, nil
}

func (s *Store) listDB() ([]string, error) {
	if err := s.ensureSchema(); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(`SELECT run_id FROM run_reports ORDER BY generated_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
