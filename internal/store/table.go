// Package store implements point-in-time reads over append-only version
// tables. Each entity kind is a Schema describing its payload columns; a
// Table binds a Schema to a DBTX and answers "latest version" and
// "version as of T" queries for one id or for every id.
//
// Versions of an id are ordered both by version number and by updated_at
// (models.Meta.Next keeps updated_at from decreasing), so the highest
// version is the most recent one and the highest version with
// updated_at ≤ T is the state as of T.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/cinepos/internal/common"
	"github.com/dmitrijs2005/cinepos/internal/dbx"
	"github.com/dmitrijs2005/cinepos/internal/models"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Schema maps an entity type onto a version table.
type Schema[T any] struct {
	// Table is the SQL table name.
	Table string

	// Columns lists the payload columns that follow the common
	// id, version, created_at, updated_at and deleted columns.
	Columns []string

	// Meta exposes the version bookkeeping embedded in the entity.
	Meta func(*T) *models.Meta

	// Values returns the payload values in Columns order.
	Values func(*T) []any

	// Targets returns scan destinations for the payload in Columns order.
	// It may return intermediate holders; Finish then copies them into
	// the entity.
	Targets func(*T) []any

	// Finish, when set, runs after every successful scan.
	Finish func(*T) error
}

// Table answers version queries for one Schema over a DBTX.
type Table[T any] struct {
	db     dbx.DBTX
	schema Schema[T]

	insertQ    string
	latestQ    string
	asOfQ      string
	allQ       string
	allAsOfQ   string
	countQ     string
	countAsOfQ string
	dialect    dbx.Dialect
}

var metaColumns = []string{"id", "version", "created_at", "updated_at", "deleted"}

// NewTable binds schema to db, rebinding placeholders for dialect.
func NewTable[T any](db dbx.DBTX, d dbx.Dialect, schema Schema[T]) *Table[T] {
	cols := append(append([]string{}, metaColumns...), schema.Columns...)

	qualified := make([]string, len(cols))
	for i, c := range cols {
		qualified[i] = "v." + c
	}
	selectList := strings.Join(qualified, ", ")

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	name := schema.Table

	t := &Table[T]{
		db:      db,
		schema:  schema,
		dialect: d,
	}

	t.insertQ = dbx.Rebind(d, fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)", name, strings.Join(cols, ", "), placeholders))
	t.latestQ = dbx.Rebind(d, fmt.Sprintf(
		"SELECT %s FROM %s v WHERE v.id = ? ORDER BY v.version DESC LIMIT 1", selectList, name))
	t.asOfQ = dbx.Rebind(d, fmt.Sprintf(
		"SELECT %s FROM %s v WHERE v.id = ? AND v.updated_at <= ? ORDER BY v.version DESC LIMIT 1", selectList, name))
	t.allQ = fmt.Sprintf(
		"SELECT %s FROM %s v WHERE v.version = (SELECT MAX(i.version) FROM %s i WHERE i.id = v.id)",
		selectList, name, name)
	t.allAsOfQ = fmt.Sprintf(
		"SELECT %s FROM %s v WHERE v.version = (SELECT MAX(i.version) FROM %s i WHERE i.id = v.id AND i.updated_at <= ?)",
		selectList, name, name)
	t.countQ = dbx.Rebind(d, fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE id = ?", name))
	t.countAsOfQ = dbx.Rebind(d, fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE id = ? AND updated_at <= ?", name))

	return t
}

// Insert stores e as a new version. The version number in e's Meta must not
// exist yet for its id; a clash means another writer got there first and is
// reported as common.ErrConcurrentModification.
func (t *Table[T]) Insert(ctx context.Context, e *T) error {
	m := t.schema.Meta(e)
	args := []any{m.ID, m.Version, encodeTime(m.CreatedAt), encodeTime(m.UpdatedAt), encodeBool(m.Deleted)}
	args = append(args, t.schema.Values(e)...)

	if _, err := t.db.ExecContext(ctx, t.insertQ, args...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%s %s version %d: %w", t.schema.Table, m.ID, m.Version, common.ErrConcurrentModification)
		}
		return fmt.Errorf("insert %s %s: %w: %v", t.schema.Table, m.ID, common.ErrStorage, err)
	}
	return nil
}

// Latest returns the newest version of id, deleted or not.
func (t *Table[T]) Latest(ctx context.Context, id string) (*T, error) {
	return t.one(ctx, id, t.latestQ, id)
}

// AsOf returns the newest version of id written at or before at.
func (t *Table[T]) AsOf(ctx context.Context, id string, at time.Time) (*T, error) {
	return t.one(ctx, id, t.asOfQ, id, encodeTime(at))
}

// LatestAll returns the newest version of every id, ordered by id.
// where, if not empty, is an extra condition on the version rows using
// the "v." alias, e.g. "v.sale_id = ?".
func (t *Table[T]) LatestAll(ctx context.Context, where string, args ...any) ([]T, error) {
	return t.many(ctx, t.allQ, where, args)
}

// AllAsOf returns, for every id, the newest version written at or before at.
// Ids created after at are absent. where works as in LatestAll.
func (t *Table[T]) AllAsOf(ctx context.Context, at time.Time, where string, args ...any) ([]T, error) {
	return t.many(ctx, t.allAsOfQ, where, append([]any{encodeTime(at)}, args...))
}

// Count returns how many versions of id exist.
func (t *Table[T]) Count(ctx context.Context, id string) (int64, error) {
	return t.count(ctx, t.countQ, id)
}

// CountAsOf returns how many versions of id were written at or before at.
func (t *Table[T]) CountAsOf(ctx context.Context, id string, at time.Time) (int64, error) {
	return t.count(ctx, t.countAsOfQ, id, encodeTime(at))
}

func (t *Table[T]) count(ctx context.Context, q string, args ...any) (int64, error) {
	var n int64
	if err := t.db.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w: %v", t.schema.Table, common.ErrStorage, err)
	}
	return n, nil
}

func (t *Table[T]) one(ctx context.Context, id, q string, args ...any) (*T, error) {
	row := t.db.QueryRowContext(ctx, q, args...)
	e, err := t.scan(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s %s: %w", t.schema.Table, id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("load %s %s: %w: %v", t.schema.Table, id, common.ErrStorage, err)
	}
	return e, nil
}

func (t *Table[T]) many(ctx context.Context, base, where string, args []any) ([]T, error) {
	q := base
	if where != "" {
		q += " AND " + where
	}
	q = dbx.Rebind(t.dialect, q+" ORDER BY v.id")

	rows, err := t.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w: %v", t.schema.Table, common.ErrStorage, err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		e, err := t.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w: %v", t.schema.Table, common.ErrStorage, err)
		}
		out = append(out, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list %s: %w: %v", t.schema.Table, common.ErrStorage, err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (t *Table[T]) scan(s scanner) (*T, error) {
	var (
		e                T
		created, updated int64
		deleted          int64
	)
	m := t.schema.Meta(&e)
	dest := []any{&m.ID, &m.Version, &created, &updated, &deleted}
	dest = append(dest, t.schema.Targets(&e)...)

	if err := s.Scan(dest...); err != nil {
		return nil, err
	}

	m.CreatedAt = decodeTime(created)
	m.UpdatedAt = decodeTime(updated)
	m.Deleted = deleted != 0

	if t.schema.Finish != nil {
		if err := t.schema.Finish(&e); err != nil {
			return nil, err
		}
	}
	return &e, nil
}

func encodeTime(t time.Time) int64 {
	return t.UnixNano()
}

func decodeTime(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

func encodeBool(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func isUniqueViolation(err error) bool {
	var le *sqlite.Error
	if errors.As(err, &le) {
		code := le.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY || code == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	var pe *pgconn.PgError
	if errors.As(err, &pe) {
		return pe.Code == "23505"
	}
	return false
}
