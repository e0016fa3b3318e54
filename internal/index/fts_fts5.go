//go:build sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
	"strings"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS articles_fts USING fts5(
			issue UNINDEXED,
			category UNINDEXED,
			file UNINDEXED,
			title,
			author,
			body,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, r ArticleRow, body string) error {
	ftsDelete(tx, r.Issue, r.Category, r.File)
	_, err := tx.Exec(`INSERT INTO articles_fts (issue, category, file, title, author, body) VALUES (?, ?, ?, ?, ?, ?)`,
		r.Issue, r.Category, r.File, r.Title, r.Author, body)
	if err != nil {
		return fmt.Errorf("index: upsert fts: %w", err)
	}
	return nil
}

func ftsDelete(tx *sql.Tx, issue, category, file string) {
	_, _ = tx.Exec(`DELETE FROM articles_fts WHERE issue = ? AND category = ? AND file = ?`, issue, category, file)
}

// ftsQuery quotes every term so user input cannot use FTS5 syntax.
func ftsQuery(q string) string {
	terms := strings.Fields(q)
	for i, t := range terms {
		terms[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
	}
	return strings.Join(terms, " ")
}

// Search performs an FTS5 full-text search and returns matching results with snippets.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	q := ftsQuery(query)
	if q == "" {
		return nil, nil
	}
	rows, err := db.conn.Query(`
		SELECT a.issue, a.category, a.file, a.position, a.title, a.author,
		       snippet(articles_fts, 5, '<b>', '</b>', '...', 32)
		FROM articles_fts f
		JOIN articles a ON a.issue = f.issue AND a.category = f.category AND a.file = f.file
		WHERE articles_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, q, limit)
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
