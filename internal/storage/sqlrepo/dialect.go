package sqlrepo

import (
	"strconv"
	"strings"

	"tableconverter/internal/storage"
)

// Dialect captures the SQL differences between database/sql backends that
// matter to the repository: bind parameters, identifier quoting and string
// literals for rendered statements.
type Dialect struct {
	// Name is the storage kind, e.g. "mysql".
	Name string
	// Driver is the database/sql driver name.
	Driver string
	// Placeholder returns the bind parameter for the n-th argument (1-based).
	Placeholder func(n int) string
	// Ident quotes a single identifier.
	Ident func(string) string
	// Literal renders a string as a literal.
	Literal func(string) string
}

// Qualified quotes a possibly schema-qualified table name.
func (d Dialect) Qualified(name string) string { return storage.QuoteQualified(name, d.Ident) }

func question(int) string { return "?" }

// MySQL speaks to MySQL and MariaDB through go-sql-driver/mysql.
var MySQL = Dialect{
	Name:        "mysql",
	Driver:      "mysql",
	Placeholder: question,
	Ident:       func(s string) string { return "`" + strings.ReplaceAll(s, "`", "``") + "`" },
	Literal: func(s string) string {
		// Backslash is an escape character under the default sql_mode.
		s = strings.ReplaceAll(s, `\`, `\\`)
		return "'" + strings.ReplaceAll(s, "'", "''") + "'"
	},
}

// SQLite uses modernc.org/sqlite.
var SQLite = Dialect{
	Name:        "sqlite",
	Driver:      "sqlite",
	Placeholder: question,
	Ident:       storage.QuoteANSI,
	Literal:     storage.QuoteLiteral,
}

// MSSQL uses microsoft/go-mssqldb.
var MSSQL = Dialect{
	Name:        "mssql",
	Driver:      "sqlserver",
	Placeholder: func(n int) string { return "@p" + strconv.Itoa(n) },
	Ident:       func(s string) string { return "[" + strings.ReplaceAll(s, "]", "]]") + "]" },
	Literal:     func(s string) string { return "N" + storage.QuoteLiteral(s) },
}

// Oracle uses sijms/go-ora.
var Oracle = Dialect{
	Name:        "oracle",
	Driver:      "oracle",
	Placeholder: func(n int) string { return ":" + strconv.Itoa(n) },
	Ident:       storage.QuoteANSI,
	Literal:     storage.QuoteLiteral,
}
