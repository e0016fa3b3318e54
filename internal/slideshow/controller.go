// Package slideshow keeps the archive carousel: one slide per issue and
// an active index that wraps at both ends.
package slideshow

import (
	"fmt"
	"sync"

	"github.com/starford/babilon/internal/apperr"
	"github.com/starford/babilon/internal/gateway"
	"github.com/starford/babilon/internal/models"
)

// Start picks the slide that is active when the slideshow is built.
type Start string

const (
	StartLatest Start = "latest"
	StartFirst  Start = "first"
)

// Slide describes one issue cover.
type Slide struct {
	Slug       string `json:"slug"`
	Title      string `json:"title"`
	Subtitle   string `json:"subtitle,omitempty"`
	Date       string `json:"date,omitempty"`
	Cover      string `json:"cover"`
	CoverTitle string `json:"coverTitle"`
}

// Activator opens an issue when its cover is selected.
type Activator interface {
	OpenIssue(slug string) error
}

// Controller is safe for concurrent use.
type Controller struct {
	mu      sync.Mutex
	slides  []Slide
	current int
}

// New builds a slide per issue, in index order.
func New(issues []models.IssueSummary, start Start) *Controller {
	slides := make([]Slide, 0, len(issues))
	for _, is := range issues {
		title := is.Title
		if title == "" {
			title = is.Slug
		}
		slides = append(slides, Slide{
			Slug:       is.Slug,
			Title:      is.Title,
			Subtitle:   is.Subtitle,
			Date:       is.Date,
			Cover:      gateway.CoverPath(is.Slug),
			CoverTitle: "OKŁADKA — " + title,
		})
	}
	c := &Controller{slides: slides}
	if start != StartFirst && len(slides) > 0 {
		c.current = len(slides) - 1
	}
	return c
}

// GoTo activates index i, wrapped into range. It returns the new index.
// An empty slideshow stays at 0.
func (c *Controller) GoTo(i int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.goTo(i)
}

func (c *Controller) goTo(i int) int {
	n := len(c.slides)
	if n == 0 {
		return 0
	}
	c.current = ((i % n) + n) % n
	return c.current
}

// Step moves by delta slides, wrapping at both ends.
func (c *Controller) Step(delta int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.goTo(c.current + delta)
}

// Current returns the active index.
func (c *Controller) Current() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Slides returns the slides. The slice must not be modified.
func (c *Controller) Slides() []Slide {
	return c.slides
}

// Select activates slide i and opens its issue through a.
func (c *Controller) Select(i int, a Activator) (Slide, error) {
	c.mu.Lock()
	if len(c.slides) == 0 {
		c.mu.Unlock()
		return Slide{}, fmt.Errorf("slide %d: %w", i, apperr.ErrNotFound)
	}
	s := c.slides[c.goTo(i)]
	c.mu.Unlock()

	if err := a.OpenIssue(s.Slug); err != nil {
		return s, fmt.Errorf("open issue %q: %w", s.Slug, err)
	}
	return s, nil
}
