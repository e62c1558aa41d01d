package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/user/rowview/internal/logger"
	"github.com/user/rowview/internal/model"
)

// Store keeps datasets in JSONL files and answers reads from the SQLite
// cache, rebuilding it when a file changes.
type Store struct {
	dataDir string
	jsonl   *JSONLStore
	cache   *SQLiteCache
	log     logger.Logger

	// mu serializes rebuilds and file writes.
	mu sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) { s.log = l }
}

// NewStore creates a new storage instance. A relative dbPath is resolved
// against dataDir.
func NewStore(ctx context.Context, dataDir, dbPath string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	if !filepath.IsAbs(dbPath) {
		dbPath = filepath.Join(dataDir, dbPath)
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	cache, err := NewSQLiteCache(ctx, dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite cache: %w", err)
	}

	s := &Store{
		dataDir: dataDir,
		jsonl:   NewJSONLStore(dataDir),
		cache:   cache,
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close releases resources.
func (s *Store) Close() error {
	return s.cache.Close()
}

// DataDir returns the directory holding the dataset files.
func (s *Store) DataDir() string {
	return s.dataDir
}

// JSONL returns the underlying file store.
func (s *Store) JSONL() *JSONLStore {
	return s.jsonl
}

// Cache returns the underlying SQLite cache.
func (s *Store) Cache() *SQLiteCache {
	return s.cache
}

// Rebuild re-imports the dataset file into the cache.
func (s *Store) Rebuild(ctx context.Context, d model.Dataset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.rebuildLocked(ctx, d, nil)
	return err
}

// Sync rebuilds the cache only if the dataset file changed since the last
// build. It reports whether a rebuild happened.
func (s *Store) Sync(ctx context.Context, d model.Dataset) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.jsonl.readFile(d)
	if err != nil {
		return false, err
	}
	state, found, err := s.cache.SyncState(ctx, d)
	if err != nil {
		return false, err
	}
	if found && state.Fingerprint == model.Fingerprint(data) {
		return false, nil
	}
	if _, err := s.rebuildLocked(ctx, d, data); err != nil {
		return false, err
	}
	return true, nil
}

// rebuildLocked loads data (or the current file when nil) into the cache
// and returns the row count.
func (s *Store) rebuildLocked(ctx context.Context, d model.Dataset, data []byte) (int, error) {
	if data == nil {
		var err error
		if data, err = s.jsonl.readFile(d); err != nil {
			return 0, err
		}
	}
	fp := model.Fingerprint(data)
	start := time.Now()

	var n int
	var err error
	switch d {
	case model.Customers:
		n, err = rebuildFrom(ctx, data, fp, s.cache.RebuildCustomers)
	case model.Employees:
		n, err = rebuildFrom(ctx, data, fp, s.cache.RebuildEmployees)
	default:
		return 0, fmt.Errorf("%w: %s", model.ErrDatasetNotFound, d)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to rebuild %s: %w", d, err)
	}

	s.log.Debug("cache rebuilt", "dataset", d, "rows", n, "fingerprint", fp, "took", time.Since(start))
	return n, nil
}

func rebuildFrom[T model.Identified](ctx context.Context, data []byte, fp string, write func(context.Context, []T, string) error) (int, error) {
	rows, err := Decode[T](bytes.NewReader(data))
	if err != nil {
		return 0, err
	}
	if err := model.CheckUniqueIDs(rows); err != nil {
		return 0, err
	}
	if err := write(ctx, rows, fp); err != nil {
		return 0, err
	}
	return len(rows), nil
}

// Import validates records read from r, writes them as the dataset file and
// rebuilds the cache. It returns the number of records imported.
func (s *Store) Import(ctx context.Context, d model.Dataset, r io.Reader) (int, error) {
	switch d {
	case model.Customers:
		return importRecords(ctx, s, d, r, model.ValidateCustomer)
	case model.Employees:
		return importRecords(ctx, s, d, r, model.ValidateEmployee)
	default:
		return 0, fmt.Errorf("%w: %s", model.ErrDatasetNotFound, d)
	}
}

func importRecords[T model.Identified](ctx context.Context, s *Store, d model.Dataset, r io.Reader, validate func(T) error) (int, error) {
	records, err := Decode[T](r)
	if err != nil {
		return 0, err
	}
	for i, rec := range records {
		if err := validate(rec); err != nil {
			return 0, fmt.Errorf("record %d: %w", i+1, err)
		}
	}
	if err := model.CheckUniqueIDs(records); err != nil {
		return 0, err
	}
	return s.replace(ctx, d, func() error { return WriteAll(s.jsonl, d, records) })
}

// Seed writes the built-in demo records for a dataset. An existing file is
// only replaced when overwrite is set.
func (s *Store) Seed(ctx context.Context, d model.Dataset, overwrite bool) (int, error) {
	if s.jsonl.Exists(d) && !overwrite {
		return 0, fmt.Errorf("%w: %s", model.ErrDatasetExists, d)
	}
	switch d {
	case model.Customers:
		return s.replace(ctx, d, func() error { return WriteAll(s.jsonl, d, SeedCustomers()) })
	case model.Employees:
		return s.replace(ctx, d, func() error { return WriteAll(s.jsonl, d, SeedEmployees()) })
	default:
		return 0, fmt.Errorf("%w: %s", model.ErrDatasetNotFound, d)
	}
}

func (s *Store) replace(ctx context.Context, d model.Dataset, write func() error) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := write(); err != nil {
		return 0, err
	}
	n, err := s.rebuildLocked(ctx, d, nil)
	if err != nil {
		return 0, err
	}
	s.log.Info("dataset written", "dataset", d, "records", n)
	return n, nil
}

// DatasetStatus describes a dataset file and its cache.
type DatasetStatus struct {
	Dataset  model.Dataset `json:"dataset"`
	File     string        `json:"file"`
	Exists   bool          `json:"exists"`
	Rows     int           `json:"rows"`
	Stale    bool          `json:"stale"`
	SyncedAt *time.Time    `json:"synced_at,omitempty"`
}

// Status reports every known dataset.
func (s *Store) Status(ctx context.Context) ([]DatasetStatus, error) {
	var out []DatasetStatus
	for _, d := range model.Datasets() {
		data, err := s.jsonl.readFile(d)
		if err != nil {
			return nil, err
		}
		state, found, err := s.cache.SyncState(ctx, d)
		if err != nil {
			return nil, err
		}

		st := DatasetStatus{
			Dataset: d,
			File:    s.jsonl.Path(d),
			Exists:  s.jsonl.Exists(d),
			Rows:    state.Rows,
			Stale:   !found || state.Fingerprint != model.Fingerprint(data),
		}
		if found {
			syncedAt := state.SyncedAt
			st.SyncedAt = &syncedAt
		}
		out = append(out, st)
	}
	return out, nil
}
