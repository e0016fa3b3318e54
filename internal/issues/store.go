// Package issues holds the loaded site index, the per-issue metadata
// cache and the active/latest issue pointers.
package issues

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/starford/babilon/internal/apperr"
	"github.com/starford/babilon/internal/gateway"
	"github.com/starford/babilon/internal/models"
)

// catalog is the state shared by every fork of a Store: what was loaded
// from the content tree. It is written at boot and by Forget.
type catalog struct {
	mu      sync.RWMutex
	index   *models.SiteIndex
	latest  string
	authors []models.Author
	meta    map[string]*models.IssueMeta // nil value: fetch failed
	group   singleflight.Group
}

// Store gives one reader its view of the content: the shared catalog
// plus its own active issue.
type Store struct {
	gw     gateway.Gateway
	logger *slog.Logger
	cat    *catalog

	mu     sync.RWMutex
	active string
}

// NewStore creates an empty store. Call LoadIndex before anything else.
func NewStore(gw gateway.Gateway, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		gw:     gw,
		logger: logger,
		cat:    &catalog{meta: make(map[string]*models.IssueMeta)},
	}
}

// Fork returns a store sharing this one's catalog with the active issue
// reset to the latest.
func (s *Store) Fork() *Store {
	return &Store{
		gw:     s.gw,
		logger: s.logger,
		cat:    s.cat,
		active: s.LatestSlug(),
	}
}

// LoadIndex fetches content/index.json and picks the last issue as the
// latest and active one. Any failure wraps apperr.ErrIndexLoad.
func (s *Store) LoadIndex(ctx context.Context) (*models.SiteIndex, error) {
	var idx models.SiteIndex
	if err := s.gw.FetchJSON(ctx, gateway.IndexPath, &idx); err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrIndexLoad, err)
	}
	if err := idx.Validate(); err != nil {
		return nil, fmt.Errorf("%w: index: %w", apperr.ErrIndexLoad, err)
	}

	latest := ""
	if n := len(idx.Issues); n > 0 {
		latest = idx.Issues[n-1].Slug
	}

	s.cat.mu.Lock()
	s.cat.index = &idx
	s.cat.latest = latest
	s.cat.mu.Unlock()

	s.mu.Lock()
	s.active = latest
	s.mu.Unlock()

	s.logger.Info("site index loaded",
		slog.Int("issues", len(idx.Issues)),
		slog.String("latest", latest))
	return &idx, nil
}

// Loaded reports whether LoadIndex has succeeded.
func (s *Store) Loaded() bool {
	s.cat.mu.RLock()
	defer s.cat.mu.RUnlock()
	return s.cat.index != nil
}

// Index returns the loaded site index, or nil before LoadIndex.
func (s *Store) Index() *models.SiteIndex {
	s.cat.mu.RLock()
	defer s.cat.mu.RUnlock()
	return s.cat.index
}

// Issues returns the issues oldest to newest.
func (s *Store) Issues() []models.IssueSummary {
	idx := s.Index()
	if idx == nil {
		return nil
	}
	return idx.Issues
}

// LatestSlug is the last issue of the index, fixed at load time. It is
// empty when the index lists no issues.
func (s *Store) LatestSlug() string {
	s.cat.mu.RLock()
	defer s.cat.mu.RUnlock()
	return s.cat.latest
}

// ActiveSlug returns the issue the reader is looking at.
func (s *Store) ActiveSlug() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// SetActiveIssue switches the active issue. Unknown slugs are rejected
// and leave the active issue unchanged.
func (s *Store) SetActiveIssue(slug string) error {
	if _, ok := s.Index().Issue(slug); !ok {
		return fmt.Errorf("issue %q: %w", slug, apperr.ErrNotFound)
	}
	s.mu.Lock()
	s.active = slug
	s.mu.Unlock()
	return nil
}

// Issue returns the index entry for slug.
func (s *Store) Issue(slug string) (models.IssueSummary, bool) {
	return s.Index().Issue(slug)
}

// IssueMeta returns the metadata of slug, fetching it on first use. A
// failed fetch is logged and remembered as nil so the same slug is not
// requested again. Concurrent first calls share one fetch, which runs to
// completion even if the caller that started it goes away; a caller whose
// own ctx ends while waiting gets nil.
func (s *Store) IssueMeta(ctx context.Context, slug string) *models.IssueMeta {
	if slug == "" {
		return nil
	}
	if m, ok := s.cachedMeta(slug); ok {
		return m
	}

	fetchCtx := context.WithoutCancel(ctx)
	ch := s.cat.group.DoChan(slug, func() (any, error) {
		if m, ok := s.cachedMeta(slug); ok {
			return m, nil
		}
		var meta models.IssueMeta
		if err := s.gw.FetchJSON(fetchCtx, gateway.MetaPath(slug), &meta); err != nil {
			s.logger.Warn("issue meta unavailable",
				slog.String("slug", slug),
				slog.String("error", fmt.Errorf("%w: %w", apperr.ErrIssueMetaLoad, err).Error()))
			s.storeMeta(slug, nil)
			return (*models.IssueMeta)(nil), nil
		}
		s.storeMeta(slug, &meta)
		return &meta, nil
	})

	select {
	case res := <-ch:
		m, _ := res.Val.(*models.IssueMeta)
		return m
	case <-ctx.Done():
		return nil
	}
}

// Forget drops the cached metadata of slug so the next IssueMeta call
// fetches it again.
func (s *Store) Forget(slug string) {
	s.cat.mu.Lock()
	delete(s.cat.meta, slug)
	s.cat.mu.Unlock()
}

func (s *Store) cachedMeta(slug string) (*models.IssueMeta, bool) {
	s.cat.mu.RLock()
	defer s.cat.mu.RUnlock()
	m, ok := s.cat.meta[slug]
	return m, ok
}

func (s *Store) storeMeta(slug string, m *models.IssueMeta) {
	s.cat.mu.Lock()
	s.cat.meta[slug] = m
	s.cat.mu.Unlock()
}

// LoadAuthors prefers a non-empty author list from content.json and
// falls back to the index. Missing files are not an error.
func (s *Store) LoadAuthors(ctx context.Context) []models.Author {
	var authors []models.Author
	for _, path := range gateway.ContentCandidates {
		var doc struct {
			Authors []models.Author `json:"authors"`
		}
		if err := s.gw.FetchJSON(ctx, path, &doc); err != nil {
			if !errors.Is(err, apperr.ErrNotFound) {
				s.logger.Debug("content.json candidate unusable",
					slog.String("path", path),
					slog.String("error", err.Error()))
			}
			continue
		}
		if len(doc.Authors) > 0 {
			authors = doc.Authors
			break
		}
	}
	if authors == nil {
		if idx := s.Index(); idx != nil {
			authors = idx.Authors
		}
	}

	s.cat.mu.Lock()
	s.cat.authors = authors
	s.cat.mu.Unlock()
	return authors
}

// Authors returns the list set by LoadAuthors.
func (s *Store) Authors() ([]models.Author, error) {
	s.cat.mu.RLock()
	defer s.cat.mu.RUnlock()
	if len(s.cat.authors) == 0 {
		return nil, fmt.Errorf("authors: %w", apperr.ErrSectionMissing)
	}
	return s.cat.authors, nil
}

// ResolveAuthorName turns an article's author reference into display
// text: ids map to the author's full name, inline names pass through.
func (s *Store) ResolveAuthorName(ref models.AuthorRef) string {
	if ref.ID == "" {
		return ref.Name
	}
	s.cat.mu.RLock()
	defer s.cat.mu.RUnlock()
	for _, a := range s.cat.authors {
		if a.ID == ref.ID {
			return a.FullName
		}
	}
	return ""
}

// Support returns the support section of the index.
func (s *Store) Support() (*models.SupportInfo, error) {
	idx := s.Index()
	if idx == nil || idx.Support.Empty() {
		return nil, fmt.Errorf("support: %w", apperr.ErrSectionMissing)
	}
	return idx.Support, nil
}
