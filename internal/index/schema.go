// Package index keeps an in-memory SQLite index of article text for
// search, with optional FTS5 full-text search.
package index

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS articles (
	issue      TEXT NOT NULL,
	category   TEXT NOT NULL,
	file       TEXT NOT NULL,
	position   INTEGER NOT NULL DEFAULT 0,
	title      TEXT NOT NULL DEFAULT '',
	author     TEXT NOT NULL DEFAULT '',
	body       TEXT NOT NULL DEFAULT '',
	checksum   TEXT NOT NULL DEFAULT '',
	indexed_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (issue, category, file)
);

CREATE INDEX IF NOT EXISTS idx_articles_issue ON articles(issue);
`

// DB wraps a sql.DB with index-specific operations.
type DB struct {
	conn *sql.DB
}

// Open creates a private in-memory database and applies the schema.
// Nothing is written to disk; the index is rebuilt from content at boot.
func Open() (*DB, error) {
	dsn := fmt.Sprintf("file:babilon-%s?mode=memory&cache=shared&_busy_timeout=5000", uuid.NewString())
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("index: open db: %w", err)
	}
	// The database lives as long as one connection holds it.
	conn.SetMaxOpenConns(1)
	conn.SetConnMaxLifetime(0)
	conn.SetConnMaxIdleTime(0)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: ping: %w", err)
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply core schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply fts schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection and drops the data.
func (db *DB) Close() error {
	return db.conn.Close()
}
