package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/modplast83/MPBF-S-sub000/internal/database"
	"github.com/modplast83/MPBF-S-sub000/internal/models"
)

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

// Store is the data-access layer for every ERP entity. A Store returned by
// WithTx runs all of its statements inside that transaction.
type Store struct {
	db *sql.DB
	q  querier
}

// New wraps an open database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db, q: db}
}

// DB exposes the underlying handle for backup and health checks.
func (s *Store) DB() *sql.DB {
	return s.db
}

// WithTx runs fn inside a single transaction. The transaction commits when
// fn returns nil and rolls back otherwise. Nested calls reuse the outer
// transaction.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Store) error) error {
	if _, ok := s.q.(*sql.Tx); ok {
		return fn(s)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&Store{db: s.db, q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

var identPattern = regexp.MustCompile(`^[a-z_]+$`)

var validTables = func() map[string]bool {
	m := make(map[string]bool, len(database.Tables))
	for _, t := range database.Tables {
		m[t] = true
	}
	return m
}()

// checkTable guards the few queries that interpolate a table name.
func checkTable(table string) error {
	if !identPattern.MatchString(table) || !validTables[table] {
		return fmt.Errorf("invalid table name %q", table)
	}
	return nil
}

// Exists reports whether a row with the given primary key exists in table.
func (s *Store) Exists(ctx context.Context, table string, id any) (bool, error) {
	if err := checkTable(table); err != nil {
		return false, err
	}
	var one int
	err := s.q.QueryRowContext(ctx, "SELECT 1 FROM "+table+" WHERE id = ?", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Count returns the number of rows in table whose column equals value.
func (s *Store) Count(ctx context.Context, table, column string, value any) (int, error) {
	if err := checkTable(table); err != nil {
		return 0, err
	}
	if !identPattern.MatchString(column) {
		return 0, fmt.Errorf("invalid column name %q", column)
	}
	var n int
	err := s.q.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table+" WHERE "+column+" = ?", value).Scan(&n)
	return n, err
}

func (s *Store) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	res, err := s.q.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	return res, nil
}

func (s *Store) insert(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := s.exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// execOne runs a statement that must touch exactly one row.
func (s *Store) execOne(ctx context.Context, query string, args ...any) error {
	res, err := s.exec(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) deleteByID(ctx context.Context, table string, id any) error {
	if err := checkTable(table); err != nil {
		return err
	}
	return s.execOne(ctx, "DELETE FROM "+table+" WHERE id = ?", id)
}

func queryList[T any](ctx context.Context, q querier, scan func(scanner) (T, error), query string, args ...any) ([]T, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func queryOne[T any](ctx context.Context, q querier, scan func(scanner) (T, error), query string, args ...any) (T, error) {
	v, err := scan(q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		var zero T
		return zero, ErrNotFound
	}
	return v, err
}

func now() string {
	return time.Now().Format(models.TimeLayout)
}

func today() string {
	return time.Now().Format(models.DateLayout)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// EncodeList stores a string list as JSON text; nil becomes [].
func EncodeList(v []string) string {
	if v == nil {
		v = []string{}
	}
	b, _ := json.Marshal(v)
	return string(b)
}

// DecodeList reads EncodeList output. Empty and malformed text, which
// older rows carry, decode to an empty list.
func DecodeList(s string) []string {
	out := []string{}
	if s == "" {
		return out
	}
	_ = json.Unmarshal([]byte(s), &out)
	return out
}

func nullString(p *string) sql.NullString {
	if p == nil || *p == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

func nullInt(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}

func intPtr(ni sql.NullInt64) *int64 {
	if !ni.Valid {
		return nil
	}
	return &ni.Int64
}
