// Package sqlite implements the repository interfaces on SQLite through the
// pure Go modernc.org/sqlite driver.
//
// Tables:
//   - users            accounts (GitHub or the local bootstrap admin)
//   - user_attributes  per-user key/value slots; the locale preference
//                      lives under key "user_locale"
//   - site_options     site-wide settings such as the default locale
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB implements every repository interface over one connection pool.
type DB struct {
	conn *sql.DB
}

// New opens the database at dbPath and brings its schema up to date.
// ":memory:" gives a private in-memory database.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Each connection to :memory: is its own database.
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}
	return db, nil
}

// dsn appends the connection pragmas. The driver applies them to every
// pooled connection, not only the first one:
//   - foreign_keys: user_attributes relies on ON DELETE CASCADE
//   - journal_mode=WAL: page renders keep reading while a save writes
//   - busy_timeout: concurrent writers wait instead of failing at once
func dsn(dbPath string) string {
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	return dbPath + sep + "_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
}

// Close closes the connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}
