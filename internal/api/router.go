package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/babilon/internal/index"
	"github.com/starford/babilon/internal/reader"
)

// NewRouter creates a chi router with all API routes mounted.
// search may be nil when the article index is disabled.
// sseHandler, if non-nil, is mounted at GET /events.
func NewRouter(svc *reader.Service, search index.ArticleIndex, sseHandler http.Handler, cookie CookieConfig) chi.Router {
	h := NewHandler(svc, search)

	r := chi.NewRouter()
	r.Use(ReadyMiddleware(svc))

	// Session-free reads.
	r.Get("/site", h.Site)
	r.Get("/authors", h.Authors)
	r.Get("/support", h.Support)
	r.Get("/search", h.Search)
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	// Everything that reads or moves a reader's navigation state.
	r.Group(func(r chi.Router) {
		r.Use(SessionMiddleware(svc, cookie))

		r.Get("/state", h.State)
		r.Post("/pages/{page}", h.ShowPage)
		r.Post("/back", h.Back)

		r.Post("/categories/{category}", h.Category)
		r.Post("/articles/open", h.OpenArticle)
		r.Post("/issues/{slug}/open", h.OpenIssue)

		r.Get("/slides", h.Slides)
		r.Post("/slides/step", h.StepSlide)
		r.Post("/slides/{index}", h.GoToSlide)
		r.Post("/slides/{index}/select", h.SelectSlide)
	})

	return r
}
