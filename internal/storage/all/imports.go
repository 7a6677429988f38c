// Package all links every built-in storage backend into a binary. Import it
// for its side effects:
//
//	import _ "tableconverter/internal/storage/all"
//
// after which storage.New accepts the kinds "mysql", "postgres", "sqlite",
// "mssql" and "oracle".
package all

import (
	_ "tableconverter/internal/storage/mssql"
	_ "tableconverter/internal/storage/mysql"
	_ "tableconverter/internal/storage/oracle"
	_ "tableconverter/internal/storage/postgres"
	_ "tableconverter/internal/storage/sqlite"
)
