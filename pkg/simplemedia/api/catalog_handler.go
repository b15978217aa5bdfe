package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/tendant/simple-media/pkg/simplemedia"
)

// CatalogHandler serves published entities to public consumers
type CatalogHandler struct {
	service simplemedia.Service
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(service simplemedia.Service) *CatalogHandler {
	return &CatalogHandler{service: service}
}

// Routes returns the read-only catalog routes
func (h *CatalogHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/founder", h.singleton(simplemedia.KindFounder))
	r.Get("/history", h.singleton(simplemedia.KindHistory))

	r.Get("/{collection}", h.List)
	r.Get("/{collection}/search", h.Search)
	r.Get("/{collection}/{id}", h.Get)

	return r
}

// List lists published entities of a collection
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	kind, err := collectionKind(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	limit, offset := parsePaging(r)
	published := simplemedia.StatusPublished
	entities, err := h.service.List(r.Context(), simplemedia.ListRequest{
		Kind:   kind,
		Status: &published,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.renderList(w, r, entities, limit, offset)
}

// Search runs a text query over published entities of a collection
func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	kind, err := collectionKind(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeMessage(w, r, http.StatusBadRequest, "missing_query", "Missing required 'q' parameter")
		return
	}
	limit, _ := parsePaging(r)

	entities, err := h.service.Search(r.Context(), kind, q, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	published := entities[:0]
	for _, e := range entities {
		if e.Base().Status == simplemedia.StatusPublished {
			published = append(published, e)
		}
	}
	h.renderList(w, r, published, limit, 0)
}

// Get retrieves a published entity by ID
func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	kind, err := collectionKind(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	e, err := h.service.Get(r.Context(), kind, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if e.Base().Status != simplemedia.StatusPublished {
		writeError(w, r, fmt.Errorf("%s %s: %w", kind, id, simplemedia.ErrNotFound))
		return
	}
	h.renderEntity(w, r, e)
}

func (h *CatalogHandler) singleton(kind simplemedia.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, err := h.service.GetSingleton(r.Context(), kind)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if e == nil || e.Base().Status != simplemedia.StatusPublished {
			writeError(w, r, fmt.Errorf("%s: %w", kind, simplemedia.ErrNotFound))
			return
		}
		h.renderEntity(w, r, e)
	}
}

func (h *CatalogHandler) renderEntity(w http.ResponseWriter, r *http.Request, e simplemedia.Entity) {
	view, err := publicView(h.service, e)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, view)
}

func (h *CatalogHandler) renderList(w http.ResponseWriter, r *http.Request, entities []simplemedia.Entity, limit, offset int) {
	items := make([]interface{}, 0, len(entities))
	for _, e := range entities {
		view, err := publicView(h.service, e)
		if err != nil {
			writeError(w, r, err)
			return
		}
		items = append(items, view)
	}
	render.JSON(w, r, ListResponse{Items: items, Limit: limit, Offset: offset})
}
