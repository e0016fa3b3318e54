package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/babilon/internal/apperr"
	"github.com/starford/babilon/internal/storage"
)

func contentServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/content/index.json", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"issues":[{"slug":"issue-1"}]}`))
	})
	mux.HandleFunc("/content/issues/issue-1/a.txt", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("one\n\ntwo"))
	})
	mux.HandleFunc("/content/broken.json", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"issues":`))
	})
	mux.HandleFunc("/content/down.json", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTP_FetchJSON(t *testing.T) {
	srv := contentServer(t)
	g := NewHTTP(srv.URL+"/", time.Second)

	var v struct {
		Issues []struct {
			Slug string `json:"slug"`
		} `json:"issues"`
	}
	if err := g.FetchJSON(context.Background(), IndexPath, &v); err != nil {
		t.Fatalf("FetchJSON: %v", err)
	}
	if len(v.Issues) != 1 || v.Issues[0].Slug != "issue-1" {
		t.Errorf("decoded = %+v", v)
	}
}

func TestHTTP_FetchText(t *testing.T) {
	srv := contentServer(t)
	g := NewHTTP(srv.URL, time.Second)

	body, err := g.FetchText(context.Background(), ArticlePath("issue-1", "a.txt"))
	if err != nil {
		t.Fatalf("FetchText: %v", err)
	}
	if body != "one\n\ntwo" {
		t.Errorf("body = %q", body)
	}
}

func TestHTTP_NotFoundCarriesPathAndStatus(t *testing.T) {
	srv := contentServer(t)
	g := NewHTTP(srv.URL, time.Second)

	_, err := g.FetchText(context.Background(), "content/issues/issue-9/x.txt")
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("err = %v, want *FetchError", err)
	}
	if fe.Status != http.StatusNotFound || fe.Path != "content/issues/issue-9/x.txt" {
		t.Errorf("fetch error = %+v", fe)
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Error("404 should match apperr.ErrNotFound")
	}
}

func TestHTTP_ServerErrorIsNotNotFound(t *testing.T) {
	srv := contentServer(t)
	g := NewHTTP(srv.URL, time.Second)

	err := g.FetchJSON(context.Background(), "content/down.json", &struct{}{})
	var fe *FetchError
	if !errors.As(err, &fe) || fe.Status != http.StatusServiceUnavailable {
		t.Fatalf("err = %v", err)
	}
	if errors.Is(err, apperr.ErrNotFound) {
		t.Error("503 must not match ErrNotFound")
	}
}

func TestHTTP_DecodeFailure(t *testing.T) {
	srv := contentServer(t)
	g := NewHTTP(srv.URL, time.Second)

	var fe *FetchError
	if err := g.FetchJSON(context.Background(), "content/broken.json", &struct{}{}); !errors.As(err, &fe) {
		t.Fatalf("err = %v, want *FetchError", err)
	}
}

func TestHTTP_TransportFailure(t *testing.T) {
	srv := contentServer(t)
	url := srv.URL
	srv.Close()

	g := NewHTTP(url, 200*time.Millisecond)
	_, err := g.FetchText(context.Background(), "content/index.json")
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("err = %v, want *FetchError", err)
	}
	if fe.Status != 0 {
		t.Errorf("status = %d, want 0 for transport failure", fe.Status)
	}
}

func TestDir_FetchAndMissing(t *testing.T) {
	root := t.TempDir()
	p := filepath.Join(root, "content", "index.json")
	_ = os.MkdirAll(filepath.Dir(p), 0o755)
	_ = os.WriteFile(p, []byte(`{"issues":[]}`), 0o644)

	store, err := storage.NewFS(root)
	if err != nil {
		t.Fatal(err)
	}
	g := NewDir(store)

	var v map[string]any
	if err := g.FetchJSON(context.Background(), IndexPath, &v); err != nil {
		t.Fatalf("FetchJSON: %v", err)
	}

	_, err = g.FetchText(context.Background(), "content/missing.txt")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing file err = %v, want ErrNotFound", err)
	}
}

func TestPaths(t *testing.T) {
	if got := MetaPath("issue-2"); got != "content/issues/issue-2/meta.json" {
		t.Errorf("MetaPath = %q", got)
	}
	if got := ArticlePath("issue-2", "a.txt"); got != "content/issues/issue-2/a.txt" {
		t.Errorf("ArticlePath = %q", got)
	}
	if got := CoverPath("issue-2"); got != "images/archive/issue-2-cover.jpg" {
		t.Errorf("CoverPath = %q", got)
	}
}
