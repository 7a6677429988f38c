// Package sqlrepo is a storage.Repository over database/sql. The mysql,
// sqlite, mssql and oracle backends are thin wrappers that pick a Dialect
// and build a DSN.
package sqlrepo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"tableconverter/internal/errors"
	"tableconverter/internal/storage"
)

// Repository runs single-row statements against a *sql.DB. Every statement
// is its own unit of work.
type Repository struct {
	db *sql.DB
	d  Dialect
}

var (
	_ storage.Repository        = (*Repository)(nil)
	_ storage.StatementRenderer = (*Repository)(nil)
)

// New wraps an open handle.
func New(db *sql.DB, d Dialect) *Repository {
	return &Repository{db: db, d: d}
}

// Open opens dsn with the dialect's driver and pings it. maxOpen <= 0 leaves
// the pool unbounded.
func Open(ctx context.Context, d Dialect, dsn string, maxOpen int) (*Repository, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.Configurationf("%s: DSN must not be empty", d.Name)
	}
	db, err := sql.Open(d.Driver, dsn)
	if err != nil {
		return nil, errors.WrapConfiguration(err, "%s: open", d.Name)
	}
	if maxOpen > 0 {
		db.SetMaxOpenConns(maxOpen)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, errors.WrapSink(err, "%s: ping", d.Name)
	}
	return New(db, d), nil
}

// DB exposes the handle, for setup statements in tests and tools.
func (r *Repository) DB() *sql.DB { return r.db }

// Dialect returns the repository's dialect.
func (r *Repository) Dialect() Dialect { return r.d }

// Insert writes one row. Empty values are bound as NULL.
func (r *Repository) Insert(ctx context.Context, table string, columns, values []string) error {
	if len(columns) != len(values) {
		return errors.Sinkf("%s: insert into %s: %d columns but %d values", r.d.Name, table, len(columns), len(values))
	}
	q := r.insertSQL(table, columns)
	if _, err := r.db.ExecContext(ctx, q, storage.NullIfEmpty(values)...); err != nil {
		return errors.WithDetail(errors.WrapSink(err, "%s: insert into %s", r.d.Name, table), q)
	}
	return nil
}

func (r *Repository) insertSQL(table string, columns []string) string {
	cols := make([]string, len(columns))
	ph := make([]string, len(columns))
	for i, c := range columns {
		cols[i] = r.d.Ident(c)
		ph[i] = r.d.Placeholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		r.d.Qualified(table), strings.Join(cols, ", "), strings.Join(ph, ", "))
}

// Exists reports whether some row of table has column = value.
func (r *Repository) Exists(ctx context.Context, table, column, value string) (bool, error) {
	q := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s = %s",
		r.d.Qualified(table), r.d.Ident(column), r.d.Placeholder(1))
	var n int64
	if err := r.db.QueryRowContext(ctx, q, value).Scan(&n); err != nil {
		return false, errors.WrapSink(err, "%s: count %s.%s", r.d.Name, table, column)
	}
	return n > 0, nil
}

// AnswerCodes lists the answer options of question qid in language.
func (r *Repository) AnswerCodes(ctx context.Context, table string, qid int, language string) ([]storage.AnswerCode, error) {
	q := fmt.Sprintf("SELECT %s, %s FROM %s WHERE %s = %s AND LOWER(%s) = LOWER(%s)",
		r.d.Ident("answer"), r.d.Ident("code"), r.d.Qualified(table),
		r.d.Ident("qid"), r.d.Placeholder(1),
		r.d.Ident("language"), r.d.Placeholder(2))

	rows, err := r.db.QueryContext(ctx, q, qid, language)
	if err != nil {
		return nil, errors.WrapSink(err, "%s: query %s", r.d.Name, table)
	}
	defer rows.Close()

	var out []storage.AnswerCode
	for rows.Next() {
		var answer, code sql.NullString
		if err := rows.Scan(&answer, &code); err != nil {
			return nil, errors.WrapSink(err, "%s: scan %s", r.d.Name, table)
		}
		out = append(out, storage.AnswerCode{Answer: answer.String, Code: code.String})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WrapSink(err, "%s: read %s", r.d.Name, table)
	}
	return out, nil
}

// Exec runs a statement outside the row path (session setup, fixtures).
func (r *Repository) Exec(ctx context.Context, stmt string) error {
	if strings.TrimSpace(stmt) == "" {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, stmt); err != nil {
		return errors.WrapSink(err, "%s: exec", r.d.Name)
	}
	return nil
}

// RenderInsert prints the INSERT Insert would run with values inlined.
func (r *Repository) RenderInsert(table string, columns, values []string) string {
	return storage.RenderInsertWith(table, columns, values, r.d.Ident, r.d.Literal)
}

// Close closes the pool.
func (r *Repository) Close() { _ = r.db.Close() }
