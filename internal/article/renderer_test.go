package article

import (
	"context"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/babilon/internal/gateway"
	"github.com/starford/babilon/internal/markup"
	"github.com/starford/babilon/internal/models"
	"github.com/starford/babilon/internal/testutil"
)

func TestParagraphs(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"blank lines", "a\n\nb\n\n\nc", []string{"a", "b", "c"}},
		{"blank lines keep inner newlines", "a1\na2\n\nb", []string{"a1\na2", "b"}},
		{"single newlines", "a\nb\nc", []string{"a", "b", "c"}},
		{"crlf", "a\r\n\r\nb", []string{"a", "b"}},
		{"whitespace-only blank line", "a\n  \nb", []string{"a", "b"}},
		{"trims", "  a  \n\n\tb\t", []string{"a", "b"}},
		{"empty", "", nil},
		{"only newlines", "\n\n\n", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := slices.Collect(Paragraphs(tt.in))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}
}

func TestParagraphs_StopsEarly(t *testing.T) {
	n := 0
	for range Paragraphs("a\n\nb\n\nc") {
		n++
		if n == 2 {
			break
		}
	}
	if n != 2 {
		t.Errorf("n = %d", n)
	}
}

func TestHeaderFigure(t *testing.T) {
	tests := []struct {
		name string
		in   models.ArticleSummary
		want *markup.Figure
	}{
		{"none", models.ArticleSummary{Title: "T"}, nil},
		{"header wins", models.ArticleSummary{Title: "T", HeaderImage: "h.jpg", MainImage: "m.jpg", TeaserImage: "t.jpg"},
			&markup.Figure{Src: "h.jpg", Alt: "T"}},
		{"main before teaser", models.ArticleSummary{Title: "T", MainImage: "m.jpg", TeaserImage: "t.jpg"},
			&markup.Figure{Src: "m.jpg", Alt: "T"}},
		{"teaser", models.ArticleSummary{Title: "T", TeaserImage: "t.jpg"},
			&markup.Figure{Src: "t.jpg", Alt: "T"}},
		{"alt and caption", models.ArticleSummary{Title: "T", HeaderImage: "h.jpg", HeaderAlt: "Opis"},
			&markup.Figure{Src: "h.jpg", Alt: "Opis", Caption: "Opis"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, HeaderFigure(tt.in)); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}
}

func TestOpen_CanonicalPath(t *testing.T) {
	gw := testutil.NewGateway(t, testutil.SampleSite())
	r := NewRenderer(gw, nil, nil)

	got := r.Open(context.Background(), "issue-2", models.ArticleSummary{
		Title: "Rzeka", File: "rzeka.txt", HeaderImage: "img/rzeka.jpg", HeaderAlt: "Rzeka nocą",
	})
	if got.BodyMissing {
		t.Fatal("body reported missing")
	}
	if diff := cmp.Diff([]string{"Rzeka płynie.", "Noc zapada."}, got.Paragraphs); diff != "" {
		t.Errorf("paragraphs (-want +got):\n%s", diff)
	}
	if got.Source != gateway.ArticlePath("issue-2", "rzeka.txt") {
		t.Errorf("source = %q", got.Source)
	}
	if !strings.Contains(string(got.HeaderHTML), "img/rzeka.jpg") {
		t.Errorf("header = %q", got.HeaderHTML)
	}
	if gw.Calls("rzeka.txt") != 0 {
		t.Error("fallback fetched although canonical path worked")
	}
}

func TestOpen_FallbackToBareFile(t *testing.T) {
	gw := testutil.NewGateway(t, testutil.SampleSite())
	r := NewRenderer(gw, nil, nil)

	got := r.Open(context.Background(), "issue-2", models.ArticleSummary{Title: "Las", File: "demo/las.txt"})
	if got.BodyMissing {
		t.Fatal("fallback body reported missing")
	}
	if diff := cmp.Diff([]string{"Las szumi."}, got.Paragraphs); diff != "" {
		t.Errorf("paragraphs (-want +got):\n%s", diff)
	}
	if got.Source != "demo/las.txt" {
		t.Errorf("source = %q", got.Source)
	}
	if gw.Calls(gateway.ArticlePath("issue-2", "demo/las.txt")) != 1 {
		t.Error("canonical path not tried first")
	}
}

func TestOpen_BothFetchesFail(t *testing.T) {
	r := NewRenderer(testutil.NewGateway(t, testutil.SampleSite()), nil, nil)

	got := r.Open(context.Background(), "issue-2", models.ArticleSummary{Title: "Zguba", File: "missing.txt"})
	if !got.BodyMissing {
		t.Error("expected BodyMissing")
	}
	if got.Title != "Zguba" {
		t.Errorf("title = %q", got.Title)
	}
	if len(got.Paragraphs) != 0 {
		t.Errorf("paragraphs = %v", got.Paragraphs)
	}
	if !strings.Contains(string(got.BodyHTML), markup.EmptyBody) {
		t.Errorf("body = %q", got.BodyHTML)
	}
	if !strings.Contains(string(got.HeaderHTML), markup.HeaderPlaceholder) {
		t.Errorf("header = %q", got.HeaderHTML)
	}
}

func TestOpen_EmptyBody(t *testing.T) {
	r := NewRenderer(testutil.NewGateway(t, testutil.SampleSite()), nil, nil)
	got := r.Open(context.Background(), "issue-2", models.ArticleSummary{Title: "Reportaż", File: "reportaz.txt"})
	if got.BodyMissing {
		t.Error("an empty file is not a missing body")
	}
	if !strings.Contains(string(got.BodyHTML), markup.EmptyBody) {
		t.Errorf("body = %q", got.BodyHTML)
	}
}
