// Package postgres registers the "postgres" storage kind on a pgx v5 pool.
package postgres

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"tableconverter/internal/errors"
	"tableconverter/internal/storage"
)

const defaultPort = 5432

// pool is the part of *pgxpool.Pool the repository uses.
type pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// Repository is a Postgres-backed storage.Repository.
type Repository struct {
	pool pool
}

var (
	_ storage.Repository        = (*Repository)(nil)
	_ storage.StatementRenderer = (*Repository)(nil)
)

// newPool is a test hook that points to pgxpool.NewWithConfig by default.
var newPool = func(ctx context.Context, cfg *pgxpool.Config) (pool, error) {
	return pgxpool.NewWithConfig(ctx, cfg)
}

func init() {
	storage.Register("postgres", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		return NewRepository(ctx, cfg)
	})
}

// NewRepository builds a pool for cfg and pings it.
func NewRepository(ctx context.Context, cfg storage.Config) (*Repository, error) {
	dsn, err := DSN(cfg)
	if err != nil {
		return nil, err
	}
	pc, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, errors.WrapConfiguration(err, "postgres: parse dsn")
	}
	if cfg.MaxOpenConns > 0 {
		pc.MaxConns = int32(cfg.MaxOpenConns)
	}
	p, err := newPool(ctx, pc)
	if err != nil {
		return nil, errors.WrapSink(err, "postgres: connect")
	}
	if pinger, ok := p.(interface{ Ping(context.Context) error }); ok {
		if err := pinger.Ping(ctx); err != nil {
			p.Close()
			return nil, errors.WrapSink(err, "postgres: ping")
		}
	}
	return &Repository{pool: p}, nil
}

// DSN returns cfg.DSN, or a postgres:// URL built from the components.
func DSN(cfg storage.Config) (string, error) {
	if cfg.DSN != "" {
		return cfg.DSN, nil
	}
	if cfg.Host == "" {
		return "", errors.Configurationf("postgres: storage.host or storage.dsn is required")
	}
	port := cfg.Port
	if port == 0 {
		port = defaultPort
	}
	q := url.Values{}
	for k, v := range cfg.Params {
		q.Set(k, v)
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(port)),
		Path:     "/" + cfg.Database,
		RawQuery: q.Encode(),
	}
	return u.String(), nil
}

// Insert writes one row; empty values become NULL.
func (r *Repository) Insert(ctx context.Context, table string, columns, values []string) error {
	if len(columns) != len(values) {
		return errors.Sinkf("postgres: insert into %s: %d columns but %d values", table, len(columns), len(values))
	}
	q := insertSQL(table, columns)
	if _, err := r.pool.Exec(ctx, q, storage.NullIfEmpty(values)...); err != nil {
		return errors.WithDetail(errors.WrapSink(pgDetail(err), "postgres: insert into %s", table), q)
	}
	return nil
}

func insertSQL(table string, columns []string) string {
	ph := make([]string, len(columns))
	for i := range columns {
		ph[i] = "$" + strconv.Itoa(i+1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		pgFQN(table), strings.Join(mapIdent(columns), ", "), strings.Join(ph, ", "))
}

// Exists reports whether some row of table has column = value. The column
// is compared as text so timestamp columns match the canonical string form.
func (r *Repository) Exists(ctx context.Context, table, column, value string) (bool, error) {
	q := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s::text = $1", pgFQN(table), pgIdent(column))
	var n int64
	if err := r.pool.QueryRow(ctx, q, value).Scan(&n); err != nil {
		return false, errors.WrapSink(pgDetail(err), "postgres: count %s.%s", table, column)
	}
	return n > 0, nil
}

// AnswerCodes lists the answer options of question qid in language.
func (r *Repository) AnswerCodes(ctx context.Context, table string, qid int, language string) ([]storage.AnswerCode, error) {
	q := fmt.Sprintf(`SELECT "answer", "code" FROM %s WHERE "qid" = $1 AND LOWER("language") = LOWER($2)`, pgFQN(table))
	rows, err := r.pool.Query(ctx, q, qid, language)
	if err != nil {
		return nil, errors.WrapSink(pgDetail(err), "postgres: query %s", table)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (storage.AnswerCode, error) {
		var answer, code *string
		if err := row.Scan(&answer, &code); err != nil {
			return storage.AnswerCode{}, err
		}
		return storage.AnswerCode{Answer: derefStr(answer), Code: derefStr(code)}, nil
	})
	if err != nil {
		return nil, errors.WrapSink(pgDetail(err), "postgres: read %s", table)
	}
	return out, nil
}

// RenderInsert prints the INSERT with values inlined.
func (r *Repository) RenderInsert(table string, columns, values []string) string {
	return storage.RenderInsertWith(table, columns, values, pgIdent, storage.QuoteLiteral)
}

// Close closes the pool.
func (r *Repository) Close() { r.pool.Close() }

// pgDetail folds the server's detail text into the message.
func pgDetail(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Detail != "" {
		return errors.Wrapf(err, "%s (%s)", pgErr.Detail, pgErr.SQLState())
	}
	return err
}

// pgIdent safely quotes a single identifier segment for Postgres.
func pgIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

// pgFQN quotes a possibly schema-qualified name like "public.survey_1".
func pgFQN(name string) string { return storage.QuoteQualified(name, pgIdent) }

func mapIdent(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = pgIdent(c)
	}
	return out
}

func derefStr(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
