//go:build !sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
	"strings"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; search uses LIKE on the articles table.
	return nil
}

func ftsUpsert(_ *sql.Tx, _ ArticleRow, _ string) error { return nil }

func ftsDelete(_ *sql.Tx, _, _, _ string) {}

// Search performs a LIKE-based search (fallback when FTS5 is not compiled in).
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	like := "%" + query + "%"
	rows, err := db.conn.Query(`
		SELECT issue, category, file, position, title, author, substr(body, 1, 200)
		FROM articles
		WHERE title LIKE ? OR author LIKE ? OR body LIKE ?
		ORDER BY issue, category, position
		LIMIT ?
	`, like, like, like, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.Issue, &r.Category, &r.File, &r.Position, &r.Title, &r.Author, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
