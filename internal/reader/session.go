package reader

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/starford/babilon/internal/apperr"
	"github.com/starford/babilon/internal/article"
	"github.com/starford/babilon/internal/category"
	"github.com/starford/babilon/internal/issues"
	"github.com/starford/babilon/internal/markup"
	"github.com/starford/babilon/internal/models"
	"github.com/starford/babilon/internal/navigator"
	"github.com/starford/babilon/internal/slideshow"
)

const defaultIssueTitle = "Numer"

// Session is one visitor's reading state.
type Session struct {
	ID string

	svc    *Service
	nav    *navigator.Navigator
	store  *issues.Store
	slides *slideshow.Controller
	seen   atomic.Int64
}

func (s *Session) touch(t time.Time) { s.seen.Store(t.UnixNano()) }

func (s *Session) lastSeen() time.Time { return time.Unix(0, s.seen.Load()) }

// State is the navigation state of a session.
type State struct {
	Page        navigator.PageID   `json:"currentPageId"`
	History     []navigator.PageID `json:"history"`
	ActiveIssue string             `json:"activeIssueSlug"`
	LatestIssue string             `json:"latestIssueSlug"`
	Slide       int                `json:"slide"`
}

// State returns a snapshot.
func (s *Session) State() State {
	nav := s.nav.State()
	return State{
		Page:        nav.Current,
		History:     nav.History,
		ActiveIssue: s.store.ActiveSlug(),
		LatestIssue: s.store.LatestSlug(),
		Slide:       s.slides.Current(),
	}
}

// Show activates a page by id ("page-authors" or "authors").
func (s *Session) Show(page string) (State, error) {
	id, err := navigator.ParsePage(page)
	if err != nil {
		return s.State(), err
	}
	if err := s.nav.Show(id); err != nil {
		return s.State(), err
	}
	return s.State(), nil
}

// Back returns to the previous page, or main.
func (s *Session) Back() State {
	s.nav.Back()
	return s.State()
}

// OpenIssue makes slug the active issue and shows its main page.
func (s *Session) OpenIssue(slug string) error {
	if err := s.store.SetActiveIssue(slug); err != nil {
		return err
	}
	return s.nav.Show(navigator.PageMain)
}

// IssueHeader is the main page header.
type IssueHeader struct {
	Slug     string `json:"slug"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
	Date     string `json:"date,omitempty"`
}

// MainHeader describes the active issue.
func (s *Session) MainHeader() IssueHeader {
	slug := s.issueSlug("")
	is, _ := s.store.Issue(slug)
	title := is.Title
	if title == "" {
		title = defaultIssueTitle
	}
	return IssueHeader{Slug: slug, Title: title, Subtitle: is.Subtitle, Date: is.Date}
}

// Teaser is one entry of a category listing.
type Teaser struct {
	Index int    `json:"index"`
	Title string `json:"title"`
	// Author is the resolved display name, if any.
	Author      string `json:"author,omitempty"`
	Image       string `json:"image,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
	Text        string `json:"text"`
}

// CategoryView is the category page.
type CategoryView struct {
	Issue    string   `json:"issue"`
	Category string   `json:"category"`
	Label    string   `json:"label"`
	Header   string   `json:"header"`
	Teasers  []Teaser `json:"teasers"`
	// Stale is set when the session navigated elsewhere while the
	// listing was loading; the category page was then not shown.
	Stale bool `json:"stale,omitempty"`
}

// ShowCategory lists cat for slugOverride, or for the active issue when
// no override is given, and shows the category page.
func (s *Session) ShowCategory(ctx context.Context, cat, slugOverride string) (CategoryView, error) {
	ticket := s.nav.Begin()
	slug := s.issueSlug(slugOverride)
	if slugOverride != "" {
		if _, ok := s.store.Issue(slug); !ok {
			return CategoryView{}, fmt.Errorf("issue %q: %w", slug, apperr.ErrNotFound)
		}
	}

	meta := s.store.IssueMeta(ctx, slug)
	items := category.Resolve(meta, cat)

	label := category.Label(cat)
	view := CategoryView{
		Issue:    slug,
		Category: category.Canonical(cat),
		Label:    label,
		Header:   label + " — " + s.issueTitle(slug),
		Teasers:  make([]Teaser, 0, len(items)),
	}
	for i, a := range items {
		view.Teasers = append(view.Teasers, s.teaser(i, a))
	}

	view.Stale = s.settle(ticket, navigator.PageCategory)
	return view, nil
}

func (s *Session) teaser(i int, a models.ArticleSummary) Teaser {
	author := s.store.ResolveAuthorName(a.AuthorRef())
	t := Teaser{Index: i, Title: a.Title, Author: author, Image: a.TeaserImage, Text: a.Title}
	if author != "" {
		t.Text = a.Title + " — " + author
	}
	if t.Image == "" {
		t.Placeholder = markup.TeaserPlaceholder
	}
	return t
}

// ArticleView is the article page.
type ArticleView struct {
	article.Rendered
	Issue    string `json:"issue"`
	Category string `json:"category,omitempty"`
	Stale    bool   `json:"stale,omitempty"`
}

// OpenArticle renders a and shows the article page. slug must name a
// known issue.
func (s *Session) OpenArticle(ctx context.Context, slug string, a models.ArticleSummary) (ArticleView, error) {
	ticket := s.nav.Begin()
	if _, ok := s.store.Issue(slug); !ok {
		return ArticleView{}, fmt.Errorf("issue %q: %w", slug, apperr.ErrNotFound)
	}
	return s.openArticle(ctx, ticket, slug, a), nil
}

// OpenListed opens the article at index of a category listing.
func (s *Session) OpenListed(ctx context.Context, slug, cat string, index int) (ArticleView, error) {
	ticket := s.nav.Begin()
	slug = s.issueSlug(slug)
	if _, ok := s.store.Issue(slug); !ok {
		return ArticleView{}, fmt.Errorf("issue %q: %w", slug, apperr.ErrNotFound)
	}
	a, err := s.svc.articleFor(s.store.IssueMeta(ctx, slug), cat, index)
	if err != nil {
		return ArticleView{}, err
	}
	view := s.openArticle(ctx, ticket, slug, a)
	view.Category = category.Canonical(cat)
	return view, nil
}

func (s *Session) openArticle(ctx context.Context, ticket uint64, slug string, a models.ArticleSummary) ArticleView {
	r := s.svc.articles.Open(ctx, slug, a)
	r.Author = s.store.ResolveAuthorName(a.AuthorRef())
	view := ArticleView{Rendered: r, Issue: slug}
	view.Stale = s.settle(ticket, navigator.PageArticle)
	return view
}

// settle shows page unless the session moved on, and reports staleness.
func (s *Session) settle(ticket uint64, page navigator.PageID) bool {
	err := s.nav.ShowIf(ticket, page)
	if errors.Is(err, apperr.ErrStale) {
		s.svc.logger.Debug("stale result discarded")
		return true
	}
	return false
}

// SlideView is the archive carousel.
type SlideView struct {
	Slides  []slideshow.Slide `json:"slides"`
	Current int               `json:"current"`
}

// Slideshow returns all slides and the active index.
func (s *Session) Slideshow() SlideView {
	return SlideView{Slides: s.slides.Slides(), Current: s.slides.Current()}
}

// ChangeSlide steps the carousel by delta.
func (s *Session) ChangeSlide(delta int) SlideView {
	s.slides.Step(delta)
	return s.Slideshow()
}

// GoToSlide jumps to slide index, wrapped into range.
func (s *Session) GoToSlide(index int) SlideView {
	s.slides.GoTo(index)
	return s.Slideshow()
}

// SelectSlide opens the issue of slide index.
func (s *Session) SelectSlide(index int) (State, error) {
	if _, err := s.slides.Select(index, s); err != nil {
		return s.State(), err
	}
	return s.State(), nil
}

func (s *Session) issueSlug(override string) string {
	if override != "" {
		return override
	}
	if a := s.store.ActiveSlug(); a != "" {
		return a
	}
	return s.store.LatestSlug()
}

func (s *Session) issueTitle(slug string) string {
	if is, ok := s.store.Issue(slug); ok && is.Title != "" {
		return is.Title
	}
	return slug
}
