package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"

	"github.com/user/rowview/internal/dataview"
	"github.com/user/rowview/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// goose keeps its base FS and dialect in package state.
var gooseInitMu sync.Mutex

// SyncState records which file content the cache was last built from.
type SyncState struct {
	Dataset     model.Dataset
	Fingerprint string
	Rows        int
	SyncedAt    time.Time
}

// SQLiteCache provides SQLite-based caching for fast queries.
type SQLiteCache struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteCache opens the cache database and applies migrations.
func NewSQLiteCache(ctx context.Context, dbPath string) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	cache := &SQLiteCache{db: db, dbPath: dbPath}
	if err := cache.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return cache, nil
}

func (c *SQLiteCache) migrate(ctx context.Context) error {
	gooseInitMu.Lock()
	defer func() {
		goose.SetBaseFS(nil)
		gooseInitMu.Unlock()
	}()
	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, c.db, "migrations"); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (c *SQLiteCache) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Path returns the database file path.
func (c *SQLiteCache) Path() string {
	return c.dbPath
}

type rowScanner interface {
	Scan(dest ...any) error
}

// table maps a record type onto its cache table.
type table[T any] struct {
	dataset    model.Dataset
	columns    []string
	searchable []string
	values     func(T) []any
	scan       func(rowScanner) (T, error)
}

var customersTable = table[model.Customer]{
	dataset:    model.Customers,
	columns:    []string{"id", "name", "email"},
	searchable: searchableKeys(model.CustomerColumns()),
	values: func(c model.Customer) []any {
		return []any{c.ID, c.Name, c.Email}
	},
	scan: func(r rowScanner) (model.Customer, error) {
		var c model.Customer
		err := r.Scan(&c.ID, &c.Name, &c.Email)
		return c, err
	},
}

var employeesTable = table[model.Employee]{
	dataset:    model.Employees,
	columns:    []string{"id", "name", "department", "email", "picture"},
	searchable: searchableKeys(model.EmployeeColumns()),
	values: func(e model.Employee) []any {
		return []any{e.ID, e.Name, e.Department, e.Email, e.Picture}
	},
	scan: func(r rowScanner) (model.Employee, error) {
		var e model.Employee
		err := r.Scan(&e.ID, &e.Name, &e.Department, &e.Email, &e.Picture)
		return e, err
	},
}

// searchableKeys returns the keys of the searchable columns. Column keys
// double as SQL column names.
func searchableKeys[T any](cols []dataview.Column[T]) []string {
	var keys []string
	for _, c := range cols {
		if c.Searchable {
			keys = append(keys, c.Key)
		}
	}
	return keys
}

// RebuildCustomers replaces the cached customers in one transaction.
func (c *SQLiteCache) RebuildCustomers(ctx context.Context, rows []model.Customer, fingerprint string) error {
	return rebuild(ctx, c.db, customersTable, rows, fingerprint)
}

// RebuildEmployees replaces the cached employees in one transaction.
func (c *SQLiteCache) RebuildEmployees(ctx context.Context, rows []model.Employee, fingerprint string) error {
	return rebuild(ctx, c.db, employeesTable, rows, fingerprint)
}

// ListCustomers returns every cached customer in file order.
func (c *SQLiteCache) ListCustomers(ctx context.Context) ([]model.Customer, error) {
	return query(ctx, c.db, customersTable, "")
}

// FilterCustomers returns customers whose name or email contains q.
func (c *SQLiteCache) FilterCustomers(ctx context.Context, q string) ([]model.Customer, error) {
	return query(ctx, c.db, customersTable, q)
}

// ListEmployees returns every cached employee in file order.
func (c *SQLiteCache) ListEmployees(ctx context.Context) ([]model.Employee, error) {
	return query(ctx, c.db, employeesTable, "")
}

// FilterEmployees returns employees whose name, department or email
// contains q.
func (c *SQLiteCache) FilterEmployees(ctx context.Context, q string) ([]model.Employee, error) {
	return query(ctx, c.db, employeesTable, q)
}

// SyncState returns the recorded sync state of a dataset. found is false
// if the dataset was never built.
func (c *SQLiteCache) SyncState(ctx context.Context, d model.Dataset) (state SyncState, found bool, err error) {
	stmt, args, err := sq.Select("fingerprint", "row_count", "synced_at").
		From("dataset_sync").
		Where(sq.Eq{"dataset": string(d)}).
		ToSql()
	if err != nil {
		return SyncState{}, false, fmt.Errorf("failed to build query: %w", err)
	}

	var syncedAt string
	state.Dataset = d
	err = c.db.QueryRowContext(ctx, stmt, args...).Scan(&state.Fingerprint, &state.Rows, &syncedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return SyncState{Dataset: d}, false, nil
	}
	if err != nil {
		return SyncState{}, false, fmt.Errorf("failed to read sync state: %w", err)
	}

	state.SyncedAt, err = time.Parse(time.RFC3339Nano, syncedAt)
	if err != nil {
		return SyncState{}, false, fmt.Errorf("failed to parse sync time: %w", err)
	}
	return state, true, nil
}

func rebuild[T any](ctx context.Context, db *sql.DB, t table[T], rows []T, fingerprint string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, args, err := sq.Delete(string(t.dataset)).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete: %w", err)
	}
	if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("failed to clear %s: %w", t.dataset, err)
	}

	placeholders := make([]any, len(t.columns)+1)
	insertSQL, _, err := sq.Insert(string(t.dataset)).
		Columns(append([]string{"position"}, t.columns...)...).
		Values(placeholders...).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert: %w", err)
	}
	insert, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer insert.Close()

	for i, row := range rows {
		values := append([]any{i}, t.values(row)...)
		if _, err := insert.ExecContext(ctx, values...); err != nil {
			return fmt.Errorf("failed to insert %s row %d: %w", t.dataset, i+1, err)
		}
	}

	stmt, args, err = sq.Replace("dataset_sync").
		Columns("dataset", "fingerprint", "row_count", "synced_at").
		Values(string(t.dataset), fingerprint, len(rows), time.Now().UTC().Format(time.RFC3339Nano)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build sync update: %w", err)
	}
	if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("failed to record sync state: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s rebuild: %w", t.dataset, err)
	}
	return nil
}

func query[T any](ctx context.Context, db *sql.DB, t table[T], q string) ([]T, error) {
	builder := sq.Select(t.columns...).From(string(t.dataset)).OrderBy("position")
	if q != "" {
		builder = builder.Where(likeAny(t.searchable, q))
	}

	stmt, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", t.dataset, err)
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		rec, err := t.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", t.dataset, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s rows: %w", t.dataset, err)
	}
	return out, nil
}

// likeAny matches q literally as a substring of any of columns.
func likeAny(columns []string, q string) sq.Or {
	pattern := "%" + escapeLike(q) + "%"
	or := make(sq.Or, 0, len(columns))
	for _, col := range columns {
		or = append(or, sq.Expr(col+` LIKE ? ESCAPE '\'`, pattern))
	}
	return or
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
