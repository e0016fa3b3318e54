// Package markup turns article text and support copy into sanitized HTML
// fragments.
package markup

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/starford/babilon/internal/models"
)

const (
	// HeaderPlaceholder stands in for an article without any image.
	HeaderPlaceholder = "GRAFIKA (DO TEKSTU)"
	// EmptyBody is shown when an article has no text.
	EmptyBody = "(brak treści)"
	// TeaserPlaceholder marks a teaser without an image.
	TeaserPlaceholder = "OKŁADKA"

	defaultButtonText = "WSPARCIE"
)

var (
	figureTmpl = template.Must(template.New("figure").Parse(
		`<figure class="article-figure"><img src="{{.Src}}" alt="{{.Alt}}" loading="lazy">` +
			`{{with .Caption}}<figcaption>{{.}}</figcaption>{{end}}</figure>`))
	placeholderTmpl = template.Must(template.New("placeholder").Parse(
		`<div class="support-hero">{{.}}</div>`))
	supportTmpl = template.Must(template.New("support").Parse(
		`{{range $i, $l := .}}{{if $i}}<br/>{{end}}{{$l}}{{end}}`))
	goalsTmpl = template.Must(template.New("goals").Parse(
		`<ul>{{range .}}<li>{{.}}</li>{{end}}</ul>`))
)

// Figure is an article header image.
type Figure struct {
	Src     string
	Alt     string
	Caption string
}

// Renderer is safe for concurrent use.
type Renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

// New returns a renderer with inline Markdown and a UGC sanitizer.
// Article text is prose, not a Markdown document: the only block is the
// paragraph, so leading "- ", "1. ", "# " or "* * *" stay literal.
func New() *Renderer {
	policy := bluemonday.UGCPolicy()
	policy.AllowElements("figure", "figcaption")
	policy.AllowAttrs("class").OnElements("figure", "figcaption", "div", "p")
	policy.AllowAttrs("loading").OnElements("img")
	policy.RequireNoFollowOnLinks(true)

	return &Renderer{
		md: goldmark.New(
			goldmark.WithParser(parser.NewParser(
				parser.WithBlockParsers(util.Prioritized(parser.NewParagraphParser(), 100)),
				parser.WithInlineParsers(parser.DefaultInlineParsers()...),
			)),
			goldmark.WithExtensions(extension.Strikethrough, extension.Linkify),
			goldmark.WithRendererOptions(gmhtml.WithHardWraps()),
		),
		policy: policy,
	}
}

// Paragraph renders one paragraph of article text.
func (r *Renderer) Paragraph(text string) template.HTML {
	return r.markdown(text, true)
}

// Inline renders text without the enclosing paragraph element.
func (r *Renderer) Inline(text string) template.HTML {
	return r.markdown(text, false)
}

func (r *Renderer) markdown(text string, wrap bool) template.HTML {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(text), &buf); err != nil {
		return template.HTML("<p>" + template.HTMLEscapeString(text) + "</p>")
	}
	out := strings.TrimSpace(r.policy.Sanitize(buf.String()))
	if !wrap {
		out = strings.TrimSuffix(strings.TrimPrefix(out, "<p>"), "</p>")
	}
	return template.HTML(out)
}

// Body renders paragraphs, or the empty-body placeholder when there are
// none.
func (r *Renderer) Body(paragraphs []string) template.HTML {
	if len(paragraphs) == 0 {
		return template.HTML("<p>" + EmptyBody + "</p>")
	}
	var b strings.Builder
	for _, p := range paragraphs {
		b.WriteString(string(r.Paragraph(p)))
	}
	return template.HTML(b.String())
}

// Header renders an article header figure, or the placeholder block
// when f is nil.
func (r *Renderer) Header(f *Figure) template.HTML {
	var buf bytes.Buffer
	var err error
	if f == nil {
		err = placeholderTmpl.Execute(&buf, HeaderPlaceholder)
	} else {
		err = figureTmpl.Execute(&buf, f)
	}
	if err != nil {
		return ""
	}
	return template.HTML(r.policy.Sanitize(buf.String()))
}

// Support is the rendered support section.
type Support struct {
	Title      string        `json:"title,omitempty"`
	CopyHTML   template.HTML `json:"copyHtml"`
	ButtonText string        `json:"buttonText"`
	Link       string        `json:"link,omitempty"`
	Goals      []string      `json:"goals,omitempty"`
}

// Support renders the copy block and button of the support page.
func (r *Renderer) Support(s *models.SupportInfo) Support {
	if s == nil {
		s = &models.SupportInfo{}
	}
	var lines []template.HTML
	if s.Title != "" {
		lines = append(lines, template.HTML("<strong>"+template.HTMLEscapeString(s.Title)+"</strong>"))
	}
	if s.Description != "" {
		lines = append(lines, r.Inline(s.Description))
	}
	if s.AdditionalInfo != "" {
		lines = append(lines, r.Inline(s.AdditionalInfo))
	}
	if len(s.Goals) > 0 {
		var goals bytes.Buffer
		if err := goalsTmpl.Execute(&goals, s.Goals); err == nil {
			lines = append(lines, template.HTML(goals.String()))
		}
	}

	var copyBuf bytes.Buffer
	_ = supportTmpl.Execute(&copyBuf, lines)

	return Support{
		Title:      s.Title,
		CopyHTML:   template.HTML(r.policy.Sanitize(copyBuf.String())),
		ButtonText: r.ButtonText(s.ButtonText),
		Link:       s.PaypalLink,
		Goals:      s.Goals,
	}
}

// ButtonText upper-cases the support button label, defaulting to
// "WSPARCIE".
func (r *Renderer) ButtonText(text string) string {
	if strings.TrimSpace(text) == "" {
		return defaultButtonText
	}
	// Casers keep state and must not be shared between goroutines.
	return cases.Upper(language.Polish).String(text)
}
