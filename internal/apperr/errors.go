// Package apperr holds the sentinel errors shared across layers.
package apperr

import "errors"

var (
	ErrNotFound = errors.New("not found")

	// ErrIndexLoad means the site index could not be fetched. Nothing else
	// works without it.
	ErrIndexLoad = errors.New("cannot load content")

	ErrIssueMetaLoad   = errors.New("issue metadata unavailable")
	ErrArticleBodyLoad = errors.New("article body unavailable")
	ErrSectionMissing  = errors.New("optional section data missing")

	ErrUnknownPage = errors.New("unknown page")

	// ErrStale marks a result whose page was left before it resolved.
	ErrStale = errors.New("navigation moved on")
)
