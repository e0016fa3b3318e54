package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/babilon/internal/index"
	"github.com/starford/babilon/internal/reader"
)

// Handler holds API route handlers.
type Handler struct {
	svc    *reader.Service
	search index.ArticleIndex
}

// NewHandler creates a new Handler. search may be nil when the article
// index is disabled.
func NewHandler(svc *reader.Service, search index.ArticleIndex) *Handler {
	return &Handler{svc: svc, search: search}
}

func (h *Handler) writeState(w http.ResponseWriter, sess *reader.Session) {
	writeJSON(w, http.StatusOK, StateResponse{State: sess.State(), Header: sess.MainHeader()})
}

// Site handles GET /api/site.
//
//	@Summary		Issues, latest issue and category menu
//	@Tags			site
//	@Produce		json
//	@Success		200	{object}	reader.Site
//	@Failure		503	{object}	errResponse
//	@Router			/site [get]
func (h *Handler) Site(w http.ResponseWriter, r *http.Request) {
	site, err := h.svc.Site()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, site)
}

// State handles GET /api/state.
//
//	@Summary		Current page, history and active issue of the session
//	@Tags			navigation
//	@Produce		json
//	@Success		200	{object}	StateResponse
//	@Router			/state [get]
func (h *Handler) State(w http.ResponseWriter, r *http.Request) {
	h.writeState(w, sessionFrom(r))
}

// ShowPage handles POST /api/pages/{page}.
//
//	@Summary		Activate a page
//	@Tags			navigation
//	@Produce		json
//	@Param			page	path		string	true	"Page id"	Enums(main, category, article, authors, support, archive)
//	@Success		200		{object}	StateResponse
//	@Failure		404		{object}	errResponse
//	@Router			/pages/{page} [post]
func (h *Handler) ShowPage(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	if _, err := sess.Show(chi.URLParam(r, "page")); err != nil {
		writeError(w, r, err)
		return
	}
	h.writeState(w, sess)
}

// Back handles POST /api/back.
//
//	@Summary		Return to the previous page, or main
//	@Tags			navigation
//	@Produce		json
//	@Success		200	{object}	StateResponse
//	@Router			/back [post]
func (h *Handler) Back(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	sess.Back()
	h.writeState(w, sess)
}

// Category handles POST /api/categories/{category}.
//
//	@Summary		List a category of the active (or given) issue and show the category page
//	@Tags			content
//	@Produce		json
//	@Param			category	path		string	true	"Category"
//	@Param			issue		query		string	false	"Issue slug override"
//	@Success		200			{object}	reader.CategoryView
//	@Failure		404			{object}	errResponse
//	@Router			/categories/{category} [post]
func (h *Handler) Category(w http.ResponseWriter, r *http.Request) {
	view, err := sessionFrom(r).ShowCategory(r.Context(), chi.URLParam(r, "category"), r.URL.Query().Get("issue"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// OpenArticle handles POST /api/articles/open.
//
//	@Summary		Render an article and show the article page
//	@Tags			content
//	@Accept			json
//	@Produce		json
//	@Param			body	body		OpenArticleRequest	true	"Listed article or explicit summary"
//	@Success		200		{object}	reader.ArticleView
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Router			/articles/open [post]
func (h *Handler) OpenArticle(w http.ResponseWriter, r *http.Request) {
	var req OpenArticleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	sess := sessionFrom(r)
	switch {
	case req.Article != nil:
		slug := req.Slug
		if slug == "" {
			slug = sess.State().ActiveIssue
		}
		view, err := sess.OpenArticle(r.Context(), slug, *req.Article)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	case req.Index != nil && req.Category != "":
		view, err := sess.OpenListed(r.Context(), req.Slug, req.Category, *req.Index)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	default:
		writeJSON(w, http.StatusBadRequest, errorBody("either article or category and index are required"))
	}
}

// OpenIssue handles POST /api/issues/{slug}/open.
//
//	@Summary		Make an issue active and show the main page
//	@Tags			navigation
//	@Produce		json
//	@Param			slug	path		string	true	"Issue slug"
//	@Success		200		{object}	StateResponse
//	@Failure		404		{object}	errResponse
//	@Router			/issues/{slug}/open [post]
func (h *Handler) OpenIssue(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	if err := sess.OpenIssue(chi.URLParam(r, "slug")); err != nil {
		writeError(w, r, err)
		return
	}
	h.writeState(w, sess)
}

// Slides handles GET /api/slides.
//
//	@Summary		Archive slideshow
//	@Tags			slideshow
//	@Produce		json
//	@Success		200	{object}	reader.SlideView
//	@Router			/slides [get]
func (h *Handler) Slides(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sessionFrom(r).Slideshow())
}

// StepSlide handles POST /api/slides/step.
//
//	@Summary		Move the slideshow by delta, wrapping at both ends
//	@Tags			slideshow
//	@Accept			json
//	@Produce		json
//	@Param			body	body		StepRequest	true	"Delta"
//	@Success		200		{object}	reader.SlideView
//	@Router			/slides/step [post]
func (h *Handler) StepSlide(w http.ResponseWriter, r *http.Request) {
	var req StepRequest
	if !decodeBody(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, sessionFrom(r).ChangeSlide(req.Delta))
}

// GoToSlide handles POST /api/slides/{index}.
//
//	@Summary		Jump to a slide, wrapped into range
//	@Tags			slideshow
//	@Produce		json
//	@Param			index	path		int	true	"Slide index"
//	@Success		200		{object}	reader.SlideView
//	@Failure		400		{object}	errResponse
//	@Router			/slides/{index} [post]
func (h *Handler) GoToSlide(w http.ResponseWriter, r *http.Request) {
	i, ok := slideIndex(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sessionFrom(r).GoToSlide(i))
}

// SelectSlide handles POST /api/slides/{index}/select.
//
//	@Summary		Open the issue of a slide
//	@Tags			slideshow
//	@Produce		json
//	@Param			index	path		int	true	"Slide index"
//	@Success		200		{object}	StateResponse
//	@Failure		404		{object}	errResponse
//	@Router			/slides/{index}/select [post]
func (h *Handler) SelectSlide(w http.ResponseWriter, r *http.Request) {
	i, ok := slideIndex(w, r)
	if !ok {
		return
	}
	sess := sessionFrom(r)
	if _, err := sess.SelectSlide(i); err != nil {
		writeError(w, r, err)
		return
	}
	h.writeState(w, sess)
}

func slideIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	i, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("slide index must be an integer"))
		return 0, false
	}
	return i, true
}

// Authors handles GET /api/authors.
//
//	@Summary		Author list
//	@Tags			sections
//	@Produce		json
//	@Success		200	{object}	AuthorsResponse
//	@Success		204	"No authors published"
//	@Router			/authors [get]
func (h *Handler) Authors(w http.ResponseWriter, r *http.Request) {
	authors, err := h.svc.Authors()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, AuthorsResponse{Authors: authors})
}

// Support handles GET /api/support.
//
//	@Summary		Support section
//	@Tags			sections
//	@Produce		json
//	@Success		200	{object}	markup.Support
//	@Success		204	"No support section published"
//	@Router			/support [get]
func (h *Handler) Support(w http.ResponseWriter, r *http.Request) {
	sup, err := h.svc.Support()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sup)
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across articles
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	if h.search == nil {
		writeJSON(w, http.StatusNotFound, errorBody("search is disabled"))
		return
	}
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.search.Search(q, limit)
	if err != nil {
		slog.Error("search failed", slog.String("query", q), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if results == nil {
		results = []index.SearchResult{}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}
