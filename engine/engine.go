package engine

import (
	"database/sql"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite" // register pure-Go SQLite driver
)

// Open registers the vector functions and opens a SQLite database using the
// modernc.org/sqlite driver.
//
// For file-based databases, pass a path like "./space.sqlite". For in-memory
// databases, pass ":memory:". An in-memory database lives only as long as its
// single connection, so callers using ":memory:" should SetMaxOpenConns(1).
func Open(dsn string) (*sql.DB, error) {
	if err := RegisterVectorFunctions(); err != nil {
		return nil, err
	}
	return sql.Open("sqlite", dsn)
}

var uriEscaper = strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23")

// OpenReadOnly opens the SQLite file at path with mode=ro, so no statement
// run through the handle can create or change anything in it.
func OpenReadOnly(path string) (*sql.DB, error) {
	if err := RegisterVectorFunctions(); err != nil {
		return nil, err
	}
	return sql.Open("sqlite", "file:"+uriEscaper.Replace(filepath.ToSlash(path))+"?mode=ro")
}
