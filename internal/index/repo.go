package index

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ArticleRow is one indexed article.
type ArticleRow struct {
	Issue    string
	Category string
	File     string
	// Position is the article's place within its category listing.
	Position  int
	Title     string
	Author    string
	Checksum  string
	IndexedAt time.Time
}

// Key identifies a row across syncs.
func (r ArticleRow) Key() string {
	return key(r.Issue, r.Category, r.File)
}

func key(issue, category, file string) string {
	return issue + "/" + category + "/" + file
}

// SearchResult represents one search hit.
type SearchResult struct {
	Issue    string `json:"issue"`
	Category string `json:"category"`
	File     string `json:"file"`
	Position int    `json:"index"`
	Title    string `json:"title"`
	Author   string `json:"author,omitempty"`
	Snippet  string `json:"snippet"`
}

// ArticleIndex is what consumers of the index depend on.
type ArticleIndex interface {
	Search(query string, limit int) ([]SearchResult, error)
	Count() (int, error)
}

var _ ArticleIndex = (*DB)(nil)

// Upsert inserts or replaces an article and its FTS entry within a
// transaction.
func (db *DB) Upsert(r ArticleRow, body string) error {
	if r.IndexedAt.IsZero() {
		r.IndexedAt = time.Now()
	}
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		INSERT INTO articles (issue, category, file, position, title, author, body, checksum, indexed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(issue, category, file) DO UPDATE SET
			position   = excluded.position,
			title      = excluded.title,
			author     = excluded.author,
			body       = excluded.body,
			checksum   = excluded.checksum,
			indexed_at = excluded.indexed_at
	`, r.Issue, r.Category, r.File, r.Position, r.Title, r.Author, body, r.Checksum, r.IndexedAt)
	if err != nil {
		return fmt.Errorf("index: upsert article: %w", err)
	}

	if err := ftsUpsert(tx, r, body); err != nil {
		return err
	}
	return tx.Commit()
}

// Delete removes an article and its FTS entry.
func (db *DB) Delete(issue, category, file string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, issue, category, file)
	if _, err := tx.Exec(`DELETE FROM articles WHERE issue = ? AND category = ? AND file = ?`,
		issue, category, file); err != nil {
		return fmt.Errorf("index: delete article: %w", err)
	}
	return tx.Commit()
}

// Checksums returns the stored checksum of every row by Key.
func (db *DB) Checksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT issue, category, file, checksum FROM articles`)
	if err != nil {
		return nil, fmt.Errorf("index: checksums: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var issue, category, file, cs string
		if err := rows.Scan(&issue, &category, &file, &cs); err != nil {
			return nil, err
		}
		out[key(issue, category, file)] = cs
	}
	return out, rows.Err()
}

// Get returns one row, or nil when it is not indexed.
func (db *DB) Get(issue, category, file string) (*ArticleRow, error) {
	r := ArticleRow{Issue: issue, Category: category, File: file}
	err := db.conn.QueryRow(`
		SELECT position, title, author, checksum, indexed_at
		FROM articles WHERE issue = ? AND category = ? AND file = ?
	`, issue, category, file).Scan(&r.Position, &r.Title, &r.Author, &r.Checksum, &r.IndexedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("index: get article: %w", err)
	}
	return &r, nil
}

// Count returns the number of indexed articles.
func (db *DB) Count() (int, error) {
	var n int
	if err := db.conn.QueryRow(`SELECT count(*) FROM articles`).Scan(&n); err != nil {
		return 0, fmt.Errorf("index: count: %w", err)
	}
	return n, nil
}
