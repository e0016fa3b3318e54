// Package testutil provides shared test helpers for content trees and
// gateways.
package testutil

import (
	"context"
	"maps"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/starford/babilon/internal/gateway"
	"github.com/starford/babilon/internal/storage"
)

// ContentTree writes files (slash paths relative to the root) into a
// temporary directory and returns it with a storage.Provider over it.
func ContentTree(t *testing.T, files map[string]string) (string, storage.Provider) {
	t.Helper()
	root := t.TempDir()
	for rel, body := range files {
		WriteFile(t, root, rel, body)
	}
	store, err := storage.NewFS(root)
	if err != nil {
		t.Fatal(err)
	}
	return root, store
}

// WriteFile creates or replaces one file below root.
func WriteFile(t *testing.T, root, rel, body string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

// Gateway is a gateway.Dir over a temporary tree that counts fetches per
// path.
type Gateway struct {
	gateway.Gateway
	Root string

	mu    sync.Mutex
	calls map[string]int
}

// NewGateway builds a counting gateway over files.
func NewGateway(t *testing.T, files map[string]string) *Gateway {
	t.Helper()
	root, store := ContentTree(t, files)
	return &Gateway{Gateway: gateway.NewDir(store), Root: root, calls: make(map[string]int)}
}

// FetchJSON counts and delegates.
func (g *Gateway) FetchJSON(ctx context.Context, path string, v any) error {
	g.count(path)
	return g.Gateway.FetchJSON(ctx, path, v)
}

// FetchText counts and delegates.
func (g *Gateway) FetchText(ctx context.Context, path string) (string, error) {
	g.count(path)
	return g.Gateway.FetchText(ctx, path)
}

// Calls returns how often path was fetched.
func (g *Gateway) Calls(path string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[path]
}

func (g *Gateway) count(path string) {
	g.mu.Lock()
	g.calls[path]++
	g.mu.Unlock()
}

// SampleSite is a two-issue magazine. issue-1 files its articles as a
// flat list and issue-2 keys them by category. "Las" only exists at its
// bare file path.
func SampleSite() map[string]string {
	return maps.Clone(sampleSite)
}

var sampleSite = map[string]string{
	"content/index.json": `{
		"issues": [
			{"slug": "issue-1", "title": "Numer 1", "subtitle": "Wiosna", "date": "2024-03"},
			{"slug": "issue-2", "title": "Numer 2", "subtitle": "Lato", "date": "2024-06"}
		],
		"authors": [
			{"id": 1, "initials": "AN", "fullName": "Anna Nowak", "photo": "./img/an.jpg"},
			{"id": 2, "name": "Jan Kowalski"}
		],
		"support": {
			"title": "Wesprzyj nas",
			"description": "Pismo jest *niezależne*.",
			"goals": ["druk", "honoraria"],
			"buttonText": "wspieram",
			"paypalLink": "https://paypal.example/babilon"
		}
	}`,
	"content/issues/issue-1/meta.json": `{
		"title": "Numer 1",
		"articles": [
			{"title": "Stary most", "author": "Ola", "category": "Fikcja", "file": "most.txt"},
			{"title": "Pieśń", "authorId": 2, "category": "poezja", "file": "piesn.txt"}
		]
	}`,
	"content/issues/issue-1/most.txt":  "Pierwszy akapit.\n\nDrugi akapit.",
	"content/issues/issue-1/piesn.txt": "wers pierwszy\nwers drugi",
	"content/issues/issue-2/meta.json": `{
		"title": "Numer 2",
		"articles": {
			"fikcja": [
				{"title": "Rzeka", "authorId": 1, "file": "rzeka.txt", "headerImage": "img/rzeka.jpg", "headerAlt": "Rzeka nocą"},
				{"title": "Las", "author": "Ewa", "file": "demo/las.txt", "teaserImage": "img/las.jpg"}
			],
			"realia": [
				{"title": "Reportaż", "author": "Piotr", "file": "reportaz.txt"}
			]
		}
	}`,
	"content/issues/issue-2/rzeka.txt":    "Rzeka płynie.\n\nNoc zapada.\n\n",
	"content/issues/issue-2/reportaz.txt": "",
	"demo/las.txt":                        "Las szumi.",
}
