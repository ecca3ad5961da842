package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/forgo/odmapi/internal/odm"
	"github.com/forgo/odmapi/internal/service"
)

// EntityService is the service surface used by EntityHandler.
type EntityService interface {
	List(ctx context.Context, model string, p odm.Params) (*service.Page, error)
	Get(ctx context.Context, ref string, p odm.Params) (map[string]any, error)
	Create(ctx context.Context, model string, p odm.Params) (map[string]any, error)
	Update(ctx context.Context, ref string, p odm.Params) (map[string]any, error)
	Delete(ctx context.Context, ref string, p odm.Params) error
	Models() []service.ModelInfo
}

// EntityHandler handles the generic entity endpoints.
type EntityHandler struct {
	svc EntityService
}

// NewEntityHandler creates a new entity handler
func NewEntityHandler(svc EntityService) *EntityHandler {
	return &EntityHandler{svc: svc}
}

// List handles GET /odm/entities/{model} - one page of a collection
func (h *EntityHandler) List(w http.ResponseWriter, r *http.Request) {
	query, err := parseQuery(r.URL.RawQuery)
	if err != nil {
		h.handleError(w, r, "list", err)
		return
	}

	page, err := h.svc.List(r.Context(), r.PathValue("model"), query)
	if err != nil {
		h.handleError(w, r, "list", err)
		return
	}

	w.Header().Set("Link", linkHeader(r, query, page))
	w.Header().Set("X-Total-Count", strconv.Itoa(page.Total))
	WriteJSON(w, http.StatusOK, page.Items)
}

// Get handles GET /odm/entity/{ref} - a single entity
func (h *EntityHandler) Get(w http.ResponseWriter, r *http.Request) {
	params, err := requestParams(w, r)
	if err != nil {
		h.handleError(w, r, "get", err)
		return
	}

	view, err := h.svc.Get(r.Context(), r.PathValue("ref"), params)
	if err != nil {
		h.handleError(w, r, "get", err)
		return
	}
	WriteJSON(w, http.StatusOK, view)
}

// Create handles POST /odm/entity/{model} - create an entity from request fields
func (h *EntityHandler) Create(w http.ResponseWriter, r *http.Request) {
	params, err := requestParams(w, r)
	if err != nil {
		h.handleError(w, r, "create", err)
		return
	}

	view, err := h.svc.Create(r.Context(), r.PathValue("model"), params)
	if err != nil {
		h.handleError(w, r, "create", err)
		return
	}
	if ref, ok := view["_ref"].(string); ok {
		w.Header().Set("Location", "/odm/entity/"+ref)
	}
	WriteJSON(w, http.StatusCreated, view)
}

// Update handles PATCH /odm/entity/{ref} - modify fields of an entity
func (h *EntityHandler) Update(w http.ResponseWriter, r *http.Request) {
	params, err := requestParams(w, r)
	if err != nil {
		h.handleError(w, r, "update", err)
		return
	}

	view, err := h.svc.Update(r.Context(), r.PathValue("ref"), params)
	if err != nil {
		h.handleError(w, r, "update", err)
		return
	}
	WriteJSON(w, http.StatusOK, view)
}

// Delete handles DELETE /odm/entity/{ref} - remove an entity
func (h *EntityHandler) Delete(w http.ResponseWriter, r *http.Request) {
	params, err := requestParams(w, r)
	if err != nil {
		h.handleError(w, r, "delete", err)
		return
	}

	if err := h.svc.Delete(r.Context(), r.PathValue("ref"), params); err != nil {
		h.handleError(w, r, "delete", err)
		return
	}
	WriteJSON(w, http.StatusOK, StatusResponse{Status: true})
}

// Models handles GET /odm/models - the models served by this API
func (h *EntityHandler) Models(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.svc.Models())
}

func (h *EntityHandler) handleError(w http.ResponseWriter, r *http.Request, op string, err error) {
	pd := MapServiceErrorWithContext(err, op)
	if pd.Status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "entity request failed",
			slog.String("op", op),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
	}
	WriteError(w, pd.WithInstance(r.URL.Path))
}
