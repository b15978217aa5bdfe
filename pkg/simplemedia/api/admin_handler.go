package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth"
	"github.com/go-chi/render"
	"github.com/tendant/simple-media/pkg/simplemedia"
	"github.com/tendant/simple-media/pkg/simplemedia/upload"
)

// AdminHandler handles authenticated content management requests
type AdminHandler struct {
	service   simplemedia.Service
	parser    *upload.Parser
	tokenAuth *jwtauth.JWTAuth
}

// NewAdminHandler creates a new admin handler. When tokenAuth is nil the
// routes are not protected and mutations carry no actor.
func NewAdminHandler(service simplemedia.Service, parser *upload.Parser, tokenAuth *jwtauth.JWTAuth) *AdminHandler {
	if parser == nil {
		parser = upload.NewParser()
	}
	return &AdminHandler{
		service:   service,
		parser:    parser,
		tokenAuth: tokenAuth,
	}
}

// Routes returns the routes for admin content management
func (h *AdminHandler) Routes() chi.Router {
	r := chi.NewRouter()

	if h.tokenAuth != nil {
		r.Use(jwtauth.Verifier(h.tokenAuth))
		r.Use(jwtauth.Authenticator)
	}

	// Singleton pages
	r.Get("/founder", h.singletonGet(simplemedia.KindFounder))
	r.Put("/founder", h.singletonSave(simplemedia.KindFounder))
	r.Get("/history", h.singletonGet(simplemedia.KindHistory))
	r.Put("/history", h.singletonSave(simplemedia.KindHistory))

	// Collections
	r.Post("/{collection}", h.Create)
	r.Get("/{collection}", h.List)
	r.Get("/{collection}/{id}", h.Get)
	r.Put("/{collection}/{id}", h.Update)
	r.Delete("/{collection}/{id}", h.Delete)

	return r
}

// actor returns the subject of the verified token, if any.
func actor(r *http.Request) string {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil || claims == nil {
		return ""
	}
	sub, _ := claims["sub"].(string)
	return sub
}

func collectionKind(r *http.Request) (simplemedia.Kind, error) {
	name := chi.URLParam(r, "collection")
	kind, ok := collections[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", simplemedia.ErrInvalidKind, name)
	}
	return kind, nil
}

// Create creates an entity from a JSON body or a multipart form
func (h *AdminHandler) Create(w http.ResponseWriter, r *http.Request) {
	kind, err := collectionKind(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	form, err := h.parser.Parse(w, r, kind)
	if err != nil {
		slog.Warn("Invalid submission", "kind", kind, "error", err)
		writeError(w, r, err)
		return
	}
	defer form.Close()

	result, err := h.service.Create(r.Context(), simplemedia.CreateRequest{
		Kind:    kind,
		Fields:  form.Fields,
		Uploads: form.Uploads,
		Actor:   actor(r),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, mutationResponse(result))
}

// List lists entities of a collection, optionally filtered by status
func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	kind, err := collectionKind(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	limit, offset := parsePaging(r)
	req := simplemedia.ListRequest{Kind: kind, Limit: limit, Offset: offset}
	if s := simplemedia.Status(r.URL.Query().Get("status")); s != "" {
		if !s.IsValid() {
			writeMessage(w, r, http.StatusBadRequest, "invalid_status", fmt.Sprintf("unknown status %q", s))
			return
		}
		req.Status = &s
	}

	entities, err := h.service.List(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	items := make([]interface{}, 0, len(entities))
	for _, e := range entities {
		items = append(items, e)
	}
	render.JSON(w, r, ListResponse{Items: items, Limit: limit, Offset: offset})
}

// Get retrieves an entity by ID
func (h *AdminHandler) Get(w http.ResponseWriter, r *http.Request) {
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
	render.JSON(w, r, e)
}

// Update patches an entity and binds any uploaded media
func (h *AdminHandler) Update(w http.ResponseWriter, r *http.Request) {
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

	form, err := h.parser.Parse(w, r, kind)
	if err != nil {
		slog.Warn("Invalid submission", "kind", kind, "id", id, "error", err)
		writeError(w, r, err)
		return
	}
	defer form.Close()

	result, err := h.service.Update(r.Context(), simplemedia.UpdateRequest{
		Kind:    kind,
		ID:      id,
		Fields:  form.Fields,
		Uploads: form.Uploads,
		Actor:   actor(r),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, mutationResponse(result))
}

// Delete deletes an entity and its media
func (h *AdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

	result, err := h.service.Delete(r.Context(), kind, id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := DeleteResponse{
		Kind:        result.Kind,
		ID:          result.ID.String(),
		Diagnostics: result.Diagnostics,
	}
	if result.Cascade != nil {
		resp.MediaDeleted = len(result.Cascade.Deleted)
	}
	render.JSON(w, r, resp)
}

func (h *AdminHandler) singletonGet(kind simplemedia.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, err := h.service.GetSingleton(r.Context(), kind)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if e == nil {
			writeMessage(w, r, http.StatusNotFound, "not_found", fmt.Sprintf("%s has not been created yet", kind))
			return
		}
		render.JSON(w, r, e)
	}
}

func (h *AdminHandler) singletonSave(kind simplemedia.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form, err := h.parser.Parse(w, r, kind)
		if err != nil {
			slog.Warn("Invalid submission", "kind", kind, "error", err)
			writeError(w, r, err)
			return
		}
		defer form.Close()

		result, err := h.service.SaveSingleton(r.Context(), simplemedia.SingletonRequest{
			Kind:    kind,
			Fields:  form.Fields,
			Uploads: form.Uploads,
			Actor:   actor(r),
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		if result.Created {
			render.Status(r, http.StatusCreated)
		}
		render.JSON(w, r, mutationResponse(result))
	}
}

func mutationResponse(result *simplemedia.MutationResult) MutationResponse {
	return MutationResponse{
		Entity:      result.Entity,
		Created:     result.Created,
		Diagnostics: result.Diagnostics,
	}
}
