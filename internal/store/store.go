// Package store persists run reports. Reports are append-only: a run id is
// written once and never updated. The store keeps a file backend for local
// runs and a Postgres backend selected by DSN, with an LRU cache in front
// of report reads.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "github.com/jackc/pgx/v5/stdlib"

	"rentalintel/internal/types"
)

// ErrDuplicateRun means a report for that run id already exists.
var ErrDuplicateRun = errors.New("store: report already exists for run")

// ErrNotFound means no report exists for that run id.
var ErrNotFound = errors.New("store: report not found")

type Store struct {
	dir string
	db  *sql.DB

	schemaOnce sync.Once
	schemaErr  error

	cache *lru.Cache[string, types.Report]
}

// New returns a file-backed store writing one JSON file per run under dir.
func New(dir string) *Store {
	cache, _ := lru.New[string, types.Report](256)
	return &Store{dir: dir, cache: cache}
}

// NewPostgres returns a Postgres-backed store.
func NewPostgres(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	cache, err := lru.New[string, types.Report](256)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, cache: cache}, nil
}

// NewFromEnv picks Postgres when REPORT_STORE_PG_DSN is set and reachable,
// otherwise a file store under dir.
func NewFromEnv(dir string) *Store {
	dsn := strings.TrimSpace(os.Getenv("REPORT_STORE_PG_DSN"))
	if dsn == "" {
		return New(dir)
	}
	s, err := NewPostgres(dsn)
	if err != nil {
		return New(dir)
	}
	return s
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Put appends one report. Writing the same run id twice is an error:
// reports are historical artifacts, never overwritten.
func (s *Store) Put(r types.Report) error {
	if s == nil {
		return nil
	}
	if strings.TrimSpace(r.RunID) == "" {
		return errors.New("store: empty run id")
	}
	var err error
	if s.db != nil {
		err = s.putDB(r)
	} else {
		err = s.putFile(r)
	}
	if err == nil && s.cache != nil {
		s.cache.Add(r.RunID, r)
	}
	return err
}

// Get returns the report of one run.
func (s *Store) Get(runID string) (types.Report, error) {
	if s == nil {
		return types.Report{}, ErrNotFound
	}
	if s.cache != nil {
		if r, ok := s.cache.Get(runID); ok {
			return r, nil
		}
	}
	var r types.Report
	var err error
	if s.db != nil {
		r, err = s.getDB(runID)
	} else {
		r, err = s.getFile(runID)
	}
	if err == nil && s.cache != nil {
		s.cache.Add(runID, r)
	}
	return r, err
}

// ListRunIDs returns all stored run ids, newest first by generation time.
func (s *Store) ListRunIDs() ([]string, error) {
	if s == nil {
		return nil, nil
	}
	if s.db != nil {
		return s.listDB()
	}
	return s.listFile()
}

// ---- file backend ----

func (s *Store) reportPath(runID string) string {
	return filepath.Join(s.dir, runID+".json")
}

func (s *Store) putFile(r types.Report) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	path := s.reportPath(r.RunID)
	if _, err := os.Stat(path); err == nil {
		return ErrDuplicateRun
	}
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

func (s *Store) getFile(runID string) (types.Report, error) {
	b, err := os.ReadFile(s.reportPath(runID))
	if err != nil {
		if os.IsNotExist(err) {
			return types.Report{}, ErrNotFound
		}
		return types.Report{}, err
	}
	var r types.Report
	if err := json.Unmarshal(b, &r); err != nil {
		return types.Report{}, err
	}
	return r, nil
}

func (s *Store) listFile() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	type row struct {
		id string
		at string
	}
	rows := make([]row, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		id := strings.TrimSuffix(name, ".json")
		r, err := s.getFile(id)
		if err != nil {
			continue
		}
		rows = append(rows, row{id: id, at: r.GeneratedAt.Format("2006-01-02T15:04:05.000000000")})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].at > rows[j].at })
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.id
	}
	return out, nil
}
