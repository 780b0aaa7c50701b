package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/filter"
	"github.com/utafrali/storefront/internal/service"
	"github.com/utafrali/storefront/pkg/pagination"
)

// ProductHandler serves the catalog listing.
type ProductHandler struct {
	service *service.CatalogService
	logger  *slog.Logger
}

// NewProductHandler creates a new product HTTP handler.
func NewProductHandler(svc *service.CatalogService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{service: svc, logger: logger}
}

// productListResponse is one listing page with the filter it was computed
// from and links to neighbouring pages.
type productListResponse struct {
	pagination.Result[domain.Product]
	Filter domain.Filter `json:"filter"`
	Links  filter.Links  `json:"links"`
}

// List handles GET /api/v1/products
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	f := filter.Parse(r.URL.Query()).Normalized()

	page, err := h.service.ListProducts(r.Context(), f)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	result := pagination.NewResult(page.Items, page.TotalCount, pagination.New(f.Page, f.Limit))
	respond(w, r, http.StatusOK, productListResponse{
		Result: result,
		Filter: f,
		Links:  filter.PageLinks(r.URL.Path, f, result.TotalPages),
	})
}

// Get handles GET /api/v1/products/{id}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respond(w, r, http.StatusOK, p)
}
