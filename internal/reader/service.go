// Package reader ties the content store, navigator, slideshow and
// article renderer into per-visitor reading sessions.
package reader

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/starford/babilon/internal/apperr"
	"github.com/starford/babilon/internal/article"
	"github.com/starford/babilon/internal/category"
	"github.com/starford/babilon/internal/gateway"
	"github.com/starford/babilon/internal/issues"
	"github.com/starford/babilon/internal/markup"
	"github.com/starford/babilon/internal/models"
	"github.com/starford/babilon/internal/navigator"
	"github.com/starford/babilon/internal/slideshow"
)

// Options tune a Service.
type Options struct {
	SlideStart slideshow.Start
	// SessionTTL is how long an idle session is kept. Zero keeps
	// sessions forever.
	SessionTTL time.Duration
	// MaxSessions caps the live sessions. Starting one past the cap
	// drops the least recently used. Zero means no cap.
	MaxSessions int
}

// Service owns the shared content and the live sessions.
type Service struct {
	store    *issues.Store
	articles *article.Renderer
	markup   *markup.Renderer
	logger   *slog.Logger
	opts     Options
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewService builds a service over a store that has loaded (or failed
// to load) its index.
func NewService(store *issues.Store, articles *article.Renderer, mr *markup.Renderer, logger *slog.Logger, opts Options) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if mr == nil {
		mr = markup.New()
	}
	return &Service{
		store:    store,
		articles: articles,
		markup:   mr,
		logger:   logger,
		opts:     opts,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Ready reports apperr.ErrIndexLoad until the site index is loaded.
func (s *Service) Ready() error {
	if !s.store.Loaded() {
		return apperr.ErrIndexLoad
	}
	return nil
}

// Store exposes the shared content store.
func (s *Service) Store() *issues.Store { return s.store }

// NewSession starts a reading session on the main page of the latest
// issue.
func (s *Service) NewSession() (*Session, error) {
	if err := s.Ready(); err != nil {
		return nil, err
	}
	store := s.store.Fork()
	sess := &Session{
		ID:     uuid.NewString(),
		svc:    s,
		nav:    navigator.New(),
		store:  store,
		slides: slideshow.New(store.Issues(), s.opts.SlideStart),
	}
	sess.touch(s.now())

	s.mu.Lock()
	if s.opts.MaxSessions > 0 && len(s.sessions) >= s.opts.MaxSessions {
		s.evictOldestLocked()
	}
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	s.logger.Debug("session started", slog.String("session", sess.ID))
	return sess, nil
}

// Session returns a live session and marks it used.
func (s *Service) Session(id string) (*Session, bool) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	s.mu.Unlock()
	if ok {
		sess.touch(s.now())
	}
	return sess, ok
}

// Acquire returns the session id names, starting a new one when it is
// unknown or expired. created reports the latter.
func (s *Service) Acquire(id string) (sess *Session, created bool, err error) {
	if id != "" {
		if sess, ok := s.Session(id); ok {
			return sess, false, nil
		}
	}
	sess, err = s.NewSession()
	if err != nil {
		return nil, false, err
	}
	return sess, true, nil
}

// SessionCount returns the number of live sessions.
func (s *Service) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Service) evictOldestLocked() {
	var (
		oldestID string
		oldest   time.Time
	)
	for id, sess := range s.sessions {
		if seen := sess.lastSeen(); oldestID == "" || seen.Before(oldest) {
			oldestID, oldest = id, seen
		}
	}
	delete(s.sessions, oldestID)
	s.logger.Debug("session evicted", slog.String("session", oldestID))
}

// Sweep drops sessions idle for longer than the TTL and returns how many
// were removed.
func (s *Service) Sweep() int {
	if s.opts.SessionTTL <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.opts.SessionTTL)

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, sess := range s.sessions {
		if sess.lastSeen().Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// RunJanitor sweeps idle sessions until ctx is done.
func (s *Service) RunJanitor(ctx context.Context, every time.Duration) {
	if s.opts.SessionTTL <= 0 {
		return
	}
	if every <= 0 {
		every = s.opts.SessionTTL / 2
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				s.logger.Info("expired sessions removed", slog.Int("count", n))
			}
		}
	}
}

// Reload refetches the site index and the author list. Sessions keep
// their active issue; new sessions see the reloaded index.
func (s *Service) Reload(ctx context.Context) error {
	if _, err := s.store.LoadIndex(ctx); err != nil {
		s.logger.Warn("site index reload failed", slog.String("error", err.Error()))
		return err
	}
	s.store.LoadAuthors(ctx)
	return nil
}

// ContentChanged refreshes whatever a changed content file feeds: the
// site index and authors, or the cached metadata of one issue.
func (s *Service) ContentChanged(ctx context.Context, path string) {
	if path == gateway.IndexPath || slices.Contains(gateway.ContentCandidates, path) {
		_ = s.Reload(ctx)
		return
	}
	rest, ok := strings.CutPrefix(path, "content/issues/")
	if !ok {
		return
	}
	slug, file, ok := strings.Cut(rest, "/")
	if ok && file == "meta.json" {
		s.store.Forget(slug)
		s.logger.Debug("issue meta invalidated", slog.String("slug", slug))
	}
}

// Site is the public shape of the loaded index.
type Site struct {
	Issues      []models.IssueSummary `json:"issues"`
	LatestIssue string                `json:"latestIssueSlug"`
	Categories  []CategoryLink        `json:"categories"`
}

// CategoryLink is one entry of the category menu.
type CategoryLink struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// Menu lists the fixed category menu.
var Menu = []CategoryLink{
	{Key: "fikcja", Label: "Fikcja"},
	{Key: "realia", Label: "Realia"},
	{Key: "poezja", Label: "Poezja"},
}

// Site returns the loaded index.
func (s *Service) Site() (Site, error) {
	if err := s.Ready(); err != nil {
		return Site{}, err
	}
	return Site{
		Issues:      s.store.Issues(),
		LatestIssue: s.store.LatestSlug(),
		Categories:  Menu,
	}, nil
}

// Authors returns the author list for the authors page.
func (s *Service) Authors() ([]models.Author, error) {
	authors, err := s.store.Authors()
	if err != nil {
		return nil, err
	}
	return authors, nil
}

// Support returns the rendered support section.
func (s *Service) Support() (markup.Support, error) {
	info, err := s.store.Support()
	if err != nil {
		return markup.Support{}, err
	}
	return s.markup.Support(info), nil
}

func (s *Service) articleFor(meta *models.IssueMeta, cat string, index int) (models.ArticleSummary, error) {
	list := category.Resolve(meta, cat)
	if index < 0 || index >= len(list) {
		return models.ArticleSummary{}, fmt.Errorf("article %d in %q: %w", index, cat, apperr.ErrNotFound)
	}
	return list[index], nil
}
