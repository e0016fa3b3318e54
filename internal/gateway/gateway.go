// Package gateway fetches static content (JSON documents and plain-text
// article bodies) with one uniform failure type.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/starford/babilon/internal/apperr"
)

// Content paths, relative to the site root.
const (
	IndexPath = "content/index.json"
)

// ContentCandidates are tried in order for a content.json carrying authors.
var ContentCandidates = []string{"content/content.json", "content.json"}

// MetaPath returns the metadata path of an issue.
func MetaPath(slug string) string {
	return "content/issues/" + slug + "/meta.json"
}

// ArticlePath returns the canonical text path of an article file.
func ArticlePath(slug, file string) string {
	return "content/issues/" + slug + "/" + file
}

// CoverPath returns the archive cover image of an issue.
func CoverPath(slug string) string {
	return "images/archive/" + slug + "-cover.jpg"
}

// Gateway retrieves content. Nothing is retried or cached here.
type Gateway interface {
	// FetchJSON decodes the document at path into v.
	FetchJSON(ctx context.Context, path string, v any) error
	// FetchText returns the raw body at path.
	FetchText(ctx context.Context, path string) (string, error)
}

// FetchError reports an unsuccessful retrieval. Status is the HTTP
// status, or 0 when the request never produced a response.
type FetchError struct {
	Path   string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.Path, e.Status)
	}
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %v", e.Path, e.Err)
	}
	return "fetch " + e.Path + ": failed"
}

func (e *FetchError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, apperr.ErrNotFound) match 404 responses.
func (e *FetchError) Is(target error) bool {
	return target == apperr.ErrNotFound && e.Status == http.StatusNotFound
}

func decode(path string, data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return &FetchError{Path: path, Status: 0, Err: fmt.Errorf("decode: %w", err)}
	}
	return nil
}
