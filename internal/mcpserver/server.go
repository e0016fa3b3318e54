// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the magazine to LLM clients via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/babilon/internal/article"
	"github.com/starford/babilon/internal/category"
	"github.com/starford/babilon/internal/index"
	"github.com/starford/babilon/internal/issues"
)

const indexURI = "babilon://index"

// Server wraps the MCP server with magazine tools.
type Server struct {
	mcp      *server.MCPServer
	store    *issues.Store
	articles *article.Renderer
	search   index.ArticleIndex
}

// New creates a new MCP server. store must have loaded its index.
// search_articles is only registered when search is non-nil.
func New(store *issues.Store, articles *article.Renderer, search index.ArticleIndex) *Server {
	s := &Server{store: store, articles: articles, search: search}

	s.mcp = server.NewMCPServer(
		"Babilon",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_issues",
		mcp.WithDescription("List all magazine issues, oldest first, and the latest issue slug."),
	), s.listIssues)

	s.mcp.AddTool(mcp.NewTool("list_category",
		mcp.WithDescription("List the articles of one category (fikcja, realia, poezja) in an issue."),
		mcp.WithString("category", mcp.Required(), mcp.Description("Category name, case and diacritics insensitive")),
		mcp.WithString("issue", mcp.Description("Issue slug (defaults to the latest issue)")),
	), s.listCategory)

	s.mcp.AddTool(mcp.NewTool("read_article",
		mcp.WithDescription("Read the text of an article, addressed by issue, category and position in the category listing."),
		mcp.WithString("category", mcp.Required(), mcp.Description("Category name")),
		mcp.WithNumber("index", mcp.Required(), mcp.Description("Zero-based position in the category listing")),
		mcp.WithString("issue", mcp.Description("Issue slug (defaults to the latest issue)")),
	), s.readArticle)

	if search != nil {
		s.mcp.AddTool(mcp.NewTool("search_articles",
			mcp.WithDescription("Full-text search through article titles, authors and bodies."),
			mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		), s.searchArticles)
	}

	s.mcp.AddResource(
		mcp.NewResource(indexURI, "Site index",
			mcp.WithResourceDescription("The magazine index: issues, authors and the support section."),
			mcp.WithMIMEType("application/json"),
		),
		s.readIndexResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

func (s *Server) issueSlug(req mcp.CallToolRequest) (string, error) {
	slug := req.GetString("issue", "")
	if slug == "" {
		slug = s.store.LatestSlug()
	}
	if _, ok := s.store.Issue(slug); !ok {
		return "", fmt.Errorf("unknown issue: %q", slug)
	}
	return slug, nil
}

func (s *Server) listIssues(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(map[string]any{
		"issues":          s.store.Issues(),
		"latestIssueSlug": s.store.LatestSlug(),
	}), nil
}

type listing struct {
	Index  int    `json:"index"`
	Title  string `json:"title"`
	Author string `json:"author,omitempty"`
	File   string `json:"file"`
}

func (s *Server) listCategory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cat, err := req.RequireString("category")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	slug, err := s.issueSlug(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	items := category.Resolve(s.store.IssueMeta(ctx, slug), cat)
	out := make([]listing, 0, len(items))
	for i, a := range items {
		out = append(out, listing{
			Index:  i,
			Title:  a.Title,
			Author: s.store.ResolveAuthorName(a.AuthorRef()),
			File:   a.File,
		})
	}
	return jsonResult(out), nil
}

func (s *Server) readArticle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cat, err := req.RequireString("category")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	idx, err := req.RequireInt("index")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	slug, err := s.issueSlug(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	items := category.Resolve(s.store.IssueMeta(ctx, slug), cat)
	if idx < 0 || idx >= len(items) {
		return mcp.NewToolResultError(fmt.Sprintf("no article %d in %s/%s", idx, slug, category.Canonical(cat))), nil
	}
	a := items[idx]
	r := s.articles.Open(ctx, slug, a)
	if r.BodyMissing {
		return mcp.NewToolResultError(fmt.Sprintf("cannot load article body: %s", a.File)), nil
	}

	var b strings.Builder
	b.WriteString("# " + r.Title + "\n")
	if author := s.store.ResolveAuthorName(a.AuthorRef()); author != "" {
		b.WriteString("\n_" + author + "_\n")
	}
	for _, p := range r.Paragraphs {
		b.WriteString("\n" + p + "\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) searchArticles(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.search.Search(query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(results), nil
}

func (s *Server) readIndexResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	out, err := json.Marshal(s.store.Index())
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      indexURI,
			MIMEType: "application/json",
			Text:     string(out),
		},
	}, nil
}
