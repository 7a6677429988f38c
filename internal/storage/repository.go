// Package storage defines the destination a conversion writes to and a small
// factory that maps a configured kind ("mysql", "postgres", ...) to a
// backend.
//
// Backends register themselves from init(); import storage/all to link every
// built-in backend into a binary.
package storage

import (
	"context"
	"sort"
	"strings"
	"sync"

	"tableconverter/internal/errors"
)

// AnswerCode is one answer option of a survey question: the label shown to
// respondents and the code stored in response tables.
type AnswerCode struct {
	Answer string
	Code   string
}

// Repository is the destination of a conversion run.
//
// Every call is its own unit of work; there is no transaction spanning rows.
type Repository interface {
	// Insert writes one row. values align with columns; an empty string is
	// written as NULL.
	Insert(ctx context.Context, table string, columns, values []string) error

	// Exists reports whether table holds a row whose column equals value.
	Exists(ctx context.Context, table, column, value string) (bool, error)

	// AnswerCodes lists the answer options of question qid in language. The
	// language comparison ignores case.
	AnswerCodes(ctx context.Context, table string, qid int, language string) ([]AnswerCode, error)

	Close()
}

// StatementRenderer is implemented by repositories that can print the exact
// INSERT they would run, with values inlined as escaped literals. DryRun
// uses it; repositories without it fall back to RenderInsert.
type StatementRenderer interface {
	RenderInsert(table string, columns, values []string) string
}

// Config selects and configures a backend.
type Config struct {
	Kind string

	// DSN is passed to the driver as is. When empty, backends that support
	// it build one from the fields below.
	DSN string

	Host     string
	Port     int
	User     string
	Password string
	Database string
	Params   map[string]string

	// SQLMode sets the session sql_mode (mysql only).
	SQLMode string

	MaxOpenConns int
}

// Factory opens a Repository for cfg.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register installs the factory for kind, replacing any previous one.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[kind] = f
}

// New opens a Repository of cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	mu.RLock()
	f, ok := factories[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return nil, errors.WithHintf(
			errors.Configurationf("unsupported storage.kind=%s", cfg.Kind),
			"available kinds: %s", strings.Join(ListKinds(), ", "))
	}
	return f(ctx, cfg)
}

// ListKinds returns the registered kinds, sorted. The slice is a copy.
func ListKinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// RenderInsert prints an INSERT with ANSI double-quoted identifiers and
// single-quoted literals. Empty values render as NULL.
func RenderInsert(table string, columns, values []string) string {
	return RenderInsertWith(table, columns, values, QuoteANSI, QuoteLiteral)
}

// RenderInsertWith prints an INSERT using the given identifier and literal
// quoting functions. Empty values render as NULL.
func RenderInsertWith(table string, columns, values []string, ident func(string) string, literal func(string) string) string {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(QuoteQualified(table, ident))
	b.WriteString(" (")
	for i, c := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(ident(c))
	}
	b.WriteString(") VALUES (")
	for i, v := range values {
		if i > 0 {
			b.WriteString(", ")
		}
		if v == "" {
			b.WriteString("NULL")
		} else {
			b.WriteString(literal(v))
		}
	}
	b.WriteString(")")
	return b.String()
}

// QuoteANSI quotes an identifier with double quotes.
func QuoteANSI(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// QuoteQualified quotes each dot-separated part of a possibly
// schema-qualified name.
func QuoteQualified(name string, ident func(string) string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = ident(p)
	}
	return strings.Join(parts, ".")
}

// QuoteLiteral renders s as a single-quoted SQL string literal.
func QuoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// NullIfEmpty converts row values for a driver: "" becomes nil (NULL).
func NullIfEmpty(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		if v != "" {
			out[i] = v
		}
	}
	return out
}
