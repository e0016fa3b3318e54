package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/babilon/internal/article"
	"github.com/starford/babilon/internal/index"
	"github.com/starford/babilon/internal/issues"
	"github.com/starford/babilon/internal/markup"
	"github.com/starford/babilon/internal/testutil"
)

type fakeIndex struct{ results []index.SearchResult }

func (f fakeIndex) Search(string, int) ([]index.SearchResult, error) { return f.results, nil }
func (f fakeIndex) Count() (int, error)                               { return len(f.results), nil }

func testServer(t *testing.T, search index.ArticleIndex) *Server {
	t.Helper()
	gw := testutil.NewGateway(t, testutil.SampleSite())
	store := issues.NewStore(gw, nil)
	if _, err := store.LoadIndex(context.Background()); err != nil {
		t.Fatal(err)
	}
	store.LoadAuthors(context.Background())
	return New(store, article.NewRenderer(gw, markup.New(), nil), search)
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_issues":
		result, err = srv.listIssues(ctx, req)
	case "list_category":
		result, err = srv.listCategory(ctx, req)
	case "read_article":
		result, err = srv.readArticle(ctx, req)
	case "search_articles":
		result, err = srv.searchArticles(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestListIssues(t *testing.T) {
	srv := testServer(t, nil)
	var out struct {
		Issues []struct {
			Slug string `json:"slug"`
		} `json:"issues"`
		Latest string `json:"latestIssueSlug"`
	}
	if err := json.Unmarshal([]byte(resultText(callTool(t, srv, "list_issues", nil))), &out); err != nil {
		t.Fatal(err)
	}
	if len(out.Issues) != 2 || out.Latest != "issue-2" {
		t.Fatalf("out = %+v", out)
	}
}

func TestListCategory(t *testing.T) {
	srv := testServer(t, nil)

	var got []listing
	text := resultText(callTool(t, srv, "list_category", map[string]any{"category": "Fikcja"}))
	if err := json.Unmarshal([]byte(text), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Title != "Rzeka" || got[0].Author != "Anna Nowak" {
		t.Fatalf("listing = %+v", got)
	}

	r := callTool(t, srv, "list_category", map[string]any{"category": "fikcja", "issue": "nope"})
	if !r.IsError {
		t.Error("expected error for unknown issue")
	}
	r = callTool(t, srv, "list_category", map[string]any{})
	if !r.IsError {
		t.Error("expected error for missing category")
	}
}

func TestReadArticle(t *testing.T) {
	srv := testServer(t, nil)

	r := callTool(t, srv, "read_article", map[string]any{"issue": "issue-1", "category": "fikcja", "index": 0})
	want := "# Stary most\n\n_Ola_\n\nPierwszy akapit.\n\nDrugi akapit.\n"
	if got := resultText(r); got != want {
		t.Errorf("read result = %q, want %q", got, want)
	}

	r = callTool(t, srv, "read_article", map[string]any{"category": "fikcja", "index": 1})
	if !strings.Contains(resultText(r), "Las szumi.") {
		t.Errorf("fallback body missing: %q", resultText(r))
	}

	r = callTool(t, srv, "read_article", map[string]any{"category": "fikcja", "index": 5})
	if !r.IsError {
		t.Error("expected error for out of range index")
	}
}

func TestSearchArticles(t *testing.T) {
	srv := testServer(t, fakeIndex{results: []index.SearchResult{{Issue: "issue-2", Title: "Rzeka"}}})
	r := callTool(t, srv, "search_articles", map[string]any{"query": "rzeka"})
	if r.IsError || !strings.Contains(resultText(r), `"Rzeka"`) {
		t.Errorf("search result = %q", resultText(r))
	}
}

func TestReadIndexResource(t *testing.T) {
	srv := testServer(t, nil)
	contents, err := srv.readIndexResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatal(err)
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok || tc.URI != indexURI || !strings.Contains(tc.Text, `"issue-2"`) {
		t.Fatalf("contents = %+v", contents)
	}
}
