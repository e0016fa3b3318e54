package api

import (
	"github.com/starford/babilon/internal/index"
	"github.com/starford/babilon/internal/models"
	"github.com/starford/babilon/internal/reader"
)

// StateResponse is the navigation state plus the active issue header.
type StateResponse struct {
	reader.State
	Header reader.IssueHeader `json:"header"`
}

// OpenArticleRequest opens either a listed article (category + index)
// or an explicit article summary.
type OpenArticleRequest struct {
	Slug     string                 `json:"slug" example:"issue-2"`
	Category string                 `json:"category,omitempty" example:"fikcja"`
	Index    *int                   `json:"index,omitempty" example:"0"`
	Article  *models.ArticleSummary `json:"article,omitempty"`
}

// StepRequest moves the slideshow.
type StepRequest struct {
	Delta int `json:"delta" example:"-1" validate:"required"`
}

// AuthorsResponse wraps the author list.
type AuthorsResponse struct {
	Authors []models.Author `json:"authors" validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []index.SearchResult `json:"results" validate:"required"`
}
