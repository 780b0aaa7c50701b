package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/storefront/internal/service"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// ListHandler serves either the wishlist or the compare list.
type ListHandler struct {
	service *service.ListService
	logger  *slog.Logger
}

// NewListHandler creates a handler for svc's list.
func NewListHandler(svc *service.ListService, logger *slog.Logger) *ListHandler {
	return &ListHandler{service: svc, logger: logger}
}

func (h *ListHandler) mount(r chi.Router, limit func(http.Handler) http.Handler) {
	r.Get("/", h.Get)
	r.Get("/contains", h.Contains)

	r.Group(func(r chi.Router) {
		r.Use(limit)
		r.Post("/items", h.Add)
		r.Post("/toggle", h.Toggle)
		r.Delete("/items/{productID}", h.Remove)
		r.Delete("/", h.Clear)
	})
}

// Get handles GET /api/v1/{list}
func (h *ListHandler) Get(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.Get(r.Context(), owner(r))
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respond(w, r, http.StatusOK, list)
}

// Add handles POST /api/v1/{list}/items
func (h *ListHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req service.ListInput
	if !decode(w, r, &req) {
		return
	}

	res, err := h.service.Add(r.Context(), owner(r), req.ProductID)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respond(w, r, http.StatusOK, res)
}

// Toggle handles POST /api/v1/{list}/toggle
func (h *ListHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	var req service.ListInput
	if !decode(w, r, &req) {
		return
	}

	res, err := h.service.Toggle(r.Context(), owner(r), req.ProductID)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respond(w, r, http.StatusOK, res)
}

// Remove handles DELETE /api/v1/{list}/items/{productID}
func (h *ListHandler) Remove(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.Remove(r.Context(), owner(r), chi.URLParam(r, "productID"))
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respond(w, r, http.StatusOK, res)
}

// Clear handles DELETE /api/v1/{list}
func (h *ListHandler) Clear(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.Clear(r.Context(), owner(r))
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respond(w, r, http.StatusOK, res)
}

// Contains handles GET /api/v1/{list}/contains?product_id=
func (h *ListHandler) Contains(w http.ResponseWriter, r *http.Request) {
	productID := r.URL.Query().Get("product_id")
	if productID == "" {
		writeError(w, r, apperrors.InvalidInput("product_id is required"), h.logger)
		return
	}

	in, err := h.service.Contains(r.Context(), owner(r), productID)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respond(w, r, http.StatusOK, map[string]bool{"contains": in})
}

// Matrix handles GET /api/v1/compare/matrix
func (h *ListHandler) Matrix(w http.ResponseWriter, r *http.Request) {
	m, err := h.service.Matrix(r.Context(), owner(r))
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respond(w, r, http.StatusOK, m)
}
