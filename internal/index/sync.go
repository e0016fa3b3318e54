package index

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/starford/babilon/internal/category"
	"github.com/starford/babilon/internal/checksum"
	"github.com/starford/babilon/internal/gateway"
	"github.com/starford/babilon/internal/issues"
	"github.com/starford/babilon/internal/models"
)

// BodyFetcher reads article text.
type BodyFetcher interface {
	FetchBody(ctx context.Context, slug, file string) (body, source string, err error)
}

// Syncer brings the index in line with the content tree.
type Syncer struct {
	db     *DB
	gw     gateway.Gateway
	bodies BodyFetcher
	store  *issues.Store
	logger *slog.Logger
	limit  int

	mu sync.Mutex // one sync at a time
}

// NewSyncer creates a syncer fetching at most limit documents at once.
func NewSyncer(db *DB, gw gateway.Gateway, bodies BodyFetcher, store *issues.Store, logger *slog.Logger, limit int) *Syncer {
	if limit <= 0 {
		limit = 4
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{db: db, gw: gw, bodies: bodies, store: store, logger: logger, limit: limit}
}

// Stats summarises one sync.
type Stats struct {
	Indexed   int
	Unchanged int
	Removed   int
}

// Sync walks every issue of the store:
//   - new/changed articles are fetched and upserted
//   - articles no longer listed are deleted from the index
//
// Metadata is read past the store's cache so edits are seen. Unreadable
// metadata leaves the issue without articles; unreadable bodies are
// indexed empty.
func (s *Syncer) Sync(ctx context.Context) (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var st Stats
	checksums, err := s.db.Checksums()
	if err != nil {
		return st, err
	}

	var (
		mu   sync.Mutex
		seen = make(map[string]struct{})
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.limit)

	for _, is := range s.store.Issues() {
		var meta models.IssueMeta
		if err := s.gw.FetchJSON(gCtx, gateway.MetaPath(is.Slug), &meta); err != nil {
			if gCtx.Err() != nil {
				break
			}
			s.logger.Warn("sync: meta unavailable", slog.String("slug", is.Slug), slog.String("error", err.Error()))
			continue
		}

		positions := make(map[string]int)
		for _, e := range category.All(&meta) {
			row := ArticleRow{
				Issue:    is.Slug,
				Category: e.Category,
				File:     e.Article.File,
				Position: positions[e.Category],
				Title:    e.Article.Title,
				Author:   s.store.ResolveAuthorName(e.Article.AuthorRef()),
			}
			positions[e.Category]++
			if row.File == "" {
				continue
			}

			mu.Lock()
			seen[row.Key()] = struct{}{}
			mu.Unlock()

			g.Go(func() error {
				body, _, err := s.bodies.FetchBody(gCtx, row.Issue, row.File)
				if err != nil {
					if gCtx.Err() != nil {
						return gCtx.Err()
					}
					s.logger.Warn("sync: body unavailable", slog.String("path", row.Key()), slog.String("error", err.Error()))
				}
				row.Checksum = checksum.Text(strings.Join([]string{row.Title, row.Author, body}, "\x00") +
					fmt.Sprintf("\x00%d", row.Position))

				mu.Lock()
				same := checksums[row.Key()] == row.Checksum
				if same {
					st.Unchanged++
				}
				mu.Unlock()
				if same {
					return nil
				}

				if err := s.db.Upsert(row, body); err != nil {
					s.logger.Warn("sync: index failed", slog.String("path", row.Key()), slog.String("error", err.Error()))
					return nil
				}
				mu.Lock()
				st.Indexed++
				mu.Unlock()
				s.logger.Debug("sync: indexed", slog.String("path", row.Key()))
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return st, fmt.Errorf("index: sync: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return st, fmt.Errorf("index: sync: %w", err)
	}

	// Remove stale entries.
	rows, err := s.listKeys()
	if err != nil {
		return st, err
	}
	for _, r := range rows {
		if _, ok := seen[r.Key()]; ok {
			continue
		}
		if err := s.db.Delete(r.Issue, r.Category, r.File); err != nil {
			s.logger.Warn("sync: delete failed", slog.String("path", r.Key()), slog.String("error", err.Error()))
			continue
		}
		st.Removed++
		s.logger.Debug("sync: removed stale", slog.String("path", r.Key()))
	}

	s.logger.Info("search index synced",
		slog.Int("indexed", st.Indexed),
		slog.Int("unchanged", st.Unchanged),
		slog.Int("removed", st.Removed))
	return st, nil
}

func (s *Syncer) listKeys() ([]ArticleRow, error) {
	rows, err := s.db.conn.Query(`SELECT issue, category, file FROM articles`)
	if err != nil {
		return nil, fmt.Errorf("index: list keys: %w", err)
	}
	defer rows.Close()
	var out []ArticleRow
	for rows.Next() {
		var r ArticleRow
		if err := rows.Scan(&r.Issue, &r.Category, &r.File); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
