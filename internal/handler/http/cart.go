package http

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/storefront/internal/service"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/middleware"
)

// CartHandler handles HTTP requests for cart endpoints.
type CartHandler struct {
	service *service.CartService
	logger  *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler.
func NewCartHandler(svc *service.CartService, logger *slog.Logger) *CartHandler {
	return &CartHandler{service: svc, logger: logger}
}

// GetCart handles GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.service.GetCart(r.Context(), owner(r))
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respond(w, r, http.StatusOK, cart)
}

// AddItem handles POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req service.AddItemInput
	if !decode(w, r, &req) {
		return
	}

	res, err := h.service.AddItem(r.Context(), owner(r), req)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respond(w, r, http.StatusOK, res)
}

// UpdateQuantity handles PATCH /api/v1/cart/items/{key}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateQuantityInput
	if !decode(w, r, &req) {
		return
	}

	res, err := h.service.UpdateQuantity(r.Context(), owner(r), lineKey(r), *req.Quantity)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respond(w, r, http.StatusOK, res)
}

// RemoveItem handles DELETE /api/v1/cart/items/{key}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.RemoveItem(r.Context(), owner(r), lineKey(r))
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respond(w, r, http.StatusOK, res)
}

// ClearCart handles DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.Clear(r.Context(), owner(r))
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respond(w, r, http.StatusOK, res)
}

// Contains handles GET /api/v1/cart/contains?product_id=&variants[color]=
func (h *CartHandler) Contains(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	productID := q.Get("product_id")
	if productID == "" {
		writeError(w, r, apperrors.InvalidInput("product_id is required"), h.logger)
		return
	}

	in, err := h.service.Contains(r.Context(), owner(r), productID, variantParams(q))
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respond(w, r, http.StatusOK, map[string]bool{"contains": in})
}

// Summary handles GET /api/v1/cart/summary?coupon=CODE
func (h *CartHandler) Summary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.service.Summary(r.Context(), owner(r), strings.TrimSpace(r.URL.Query().Get("coupon")))
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respond(w, r, http.StatusOK, sum)
}

// Merge handles POST /api/v1/cart/merge. The caller must be signed in; the
// guest cart of the given session is folded into theirs.
func (h *CartHandler) Merge(w http.ResponseWriter, r *http.Request) {
	var req service.MergeInput
	if !decode(w, r, &req) {
		return
	}

	res, err := h.service.Merge(r.Context(), owner(r), middleware.GuestOwner(req.SessionID))
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respond(w, r, http.StatusOK, res)
}

// variantParams collects variants[name]=value query parameters.
func variantParams(q url.Values) map[string]string {
	var out map[string]string
	for k, vs := range q {
		name, ok := strings.CutPrefix(k, "variants[")
		if !ok || !strings.HasSuffix(name, "]") || len(vs) == 0 {
			continue
		}
		if out == nil {
			out = make(map[string]string)
		}
		out[strings.TrimSuffix(name, "]")] = vs[0]
	}
	return out
}

// lineKey returns the {key} path segment. Cart keys are query-escaped, so
// clients send them percent-encoded once more.
func lineKey(r *http.Request) string {
	raw := chi.URLParam(r, "key")
	if key, err := url.PathUnescape(raw); err == nil {
		return key
	}
	return raw
}
