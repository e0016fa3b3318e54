// Package article loads an article body and shapes it for display.
package article

import (
	"context"
	"fmt"
	"html/template"
	"iter"
	"log/slog"
	"regexp"
	"slices"
	"strings"

	"github.com/starford/babilon/internal/apperr"
	"github.com/starford/babilon/internal/gateway"
	"github.com/starford/babilon/internal/markup"
	"github.com/starford/babilon/internal/models"
)

var blankLine = regexp.MustCompile(`\n[ \t]*\n`)

// Rendered is an article ready for display.
type Rendered struct {
	Slug        string         `json:"slug"`
	Title       string         `json:"title"`
	Author      string         `json:"author,omitempty"`
	Header      *markup.Figure `json:"header,omitempty"`
	HeaderHTML  template.HTML  `json:"headerHtml"`
	Paragraphs  []string       `json:"paragraphs"`
	BodyHTML    template.HTML  `json:"bodyHtml"`
	BodyMissing bool           `json:"bodyMissing,omitempty"`
	// Source is the path the body was read from.
	Source string `json:"source,omitempty"`
}

// Renderer is safe for concurrent use.
type Renderer struct {
	gw     gateway.Gateway
	markup *markup.Renderer
	logger *slog.Logger
}

// NewRenderer creates a renderer reading bodies through gw.
func NewRenderer(gw gateway.Gateway, mr *markup.Renderer, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	if mr == nil {
		mr = markup.New()
	}
	return &Renderer{gw: gw, markup: mr, logger: logger}
}

// Open fetches the body of a at its canonical path below slug, then at
// a.File alone. When both fail the article still renders, with an empty
// body placeholder.
func (r *Renderer) Open(ctx context.Context, slug string, a models.ArticleSummary) Rendered {
	out := Rendered{
		Slug:   slug,
		Title:  a.Title,
		Header: HeaderFigure(a),
	}
	out.HeaderHTML = r.markup.Header(out.Header)

	body, source, err := r.FetchBody(ctx, slug, a.File)
	if err != nil {
		r.logger.Warn("article body unavailable",
			slog.String("slug", slug),
			slog.String("file", a.File),
			slog.String("error", err.Error()))
		out.BodyMissing = true
	}
	out.Source = source
	out.Paragraphs = slices.Collect(Paragraphs(body))
	if out.Paragraphs == nil {
		out.Paragraphs = []string{}
	}
	out.BodyHTML = r.markup.Body(out.Paragraphs)
	return out
}

// FetchBody reads the text of file at its canonical path below slug,
// falling back to file alone. It returns the body and the path it came
// from.
func (r *Renderer) FetchBody(ctx context.Context, slug, file string) (string, string, error) {
	if file == "" {
		return "", "", fmt.Errorf("%w: no file", apperr.ErrArticleBodyLoad)
	}
	primary := gateway.ArticlePath(slug, file)
	body, err := r.gw.FetchText(ctx, primary)
	if err == nil {
		return body, primary, nil
	}
	r.logger.Debug("article fallback",
		slog.String("path", primary),
		slog.String("error", err.Error()))

	fallback := models.CleanAssetPath(file)
	body, ferr := r.gw.FetchText(ctx, fallback)
	if ferr != nil {
		return "", "", fmt.Errorf("%w: %w", apperr.ErrArticleBodyLoad, ferr)
	}
	return body, fallback, nil
}

// HeaderFigure picks the header image of a: headerImage, then mainImage,
// then teaserImage. It returns nil when the article has none.
func HeaderFigure(a models.ArticleSummary) *markup.Figure {
	src := ""
	for _, s := range []string{a.HeaderImage, a.MainImage, a.TeaserImage} {
		if s != "" {
			src = s
			break
		}
	}
	if src == "" {
		return nil
	}
	alt := a.HeaderAlt
	if alt == "" {
		alt = a.Title
	}
	return &markup.Figure{Src: src, Alt: alt, Caption: a.HeaderAlt}
}

// Paragraphs splits body on blank lines, or on single newlines when the
// text has no blank line. Fragments are trimmed and empty ones dropped.
func Paragraphs(body string) iter.Seq[string] {
	return func(yield func(string) bool) {
		text := strings.ReplaceAll(body, "\r\n", "\n")
		var parts []string
		if blankLine.MatchString(text) {
			parts = blankLine.Split(text, -1)
		} else {
			parts = strings.Split(text, "\n")
		}
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			if !yield(p) {
				return
			}
		}
	}
}
