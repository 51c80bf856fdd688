package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/configurator/internal/domain"
	"github.com/utafrali/configurator/internal/service"
	apperrors "github.com/utafrali/configurator/pkg/errors"
	"github.com/utafrali/configurator/pkg/httputil"
	"github.com/utafrali/configurator/pkg/middleware"
	"github.com/utafrali/configurator/pkg/pagination"
)

// selfPartnerID in a partner path resolves to the caller's companyId claim.
const selfPartnerID = "me"

// CatalogHandler handles HTTP requests for partner catalog endpoints.
type CatalogHandler struct {
	service *service.CatalogService
	logger  *slog.Logger
}

// NewCatalogHandler creates a new catalog HTTP handler.
func NewCatalogHandler(svc *service.CatalogService, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{
		service: svc,
		logger:  logger,
	}
}

// partnerID returns the partner path parameter, resolving "me" from the
// bearer token's claims.
func partnerID(r *http.Request) (string, error) {
	id := chi.URLParam(r, "partnerId")
	if id != selfPartnerID {
		return id, nil
	}
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil || claims.CompanyID == "" {
		return "", apperrors.Unauthorized("a bearer token with a companyId claim is required")
	}
	return claims.CompanyID, nil
}

// ListProducts handles GET /api/v1/partners/{partnerId}/products?type=&page=&per_page=
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	id, err := partnerID(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	products, err := h.service.FetchProducts(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	filtered := h.service.FilterProductsByType(r.URL.Query().Get("type"), products)
	if pagination.Requested(r) {
		httputil.WriteData(w, http.StatusOK, pagination.Slice(filtered, pagination.FromRequest(r)))
		return
	}
	httputil.WriteData(w, http.StatusOK, httputil.NewListResponse(filtered))
}

// ListProductTypes handles GET /api/v1/partners/{partnerId}/product-types
func (h *CatalogHandler) ListProductTypes(w http.ResponseWriter, r *http.Request) {
	id, err := partnerID(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	types, err := h.service.FetchProductTypes(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, httputil.NewListResponse(types))
}

// ListColors handles GET /api/v1/partners/{partnerId}/colors
func (h *CatalogHandler) ListColors(w http.ResponseWriter, r *http.Request) {
	id, err := partnerID(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	colors, err := h.service.GetColors(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, httputil.NewListResponse(colors))
}

// ListColorOptions handles GET /api/v1/partners/{partnerId}/color-options
func (h *CatalogHandler) ListColorOptions(w http.ResponseWriter, r *http.Request) {
	id, err := partnerID(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	var state service.ColorState
	err = h.service.FetchColors(r.Context(), id, &state)
	if err != nil && !errors.Is(err, service.ErrNoColors) {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, httputil.NewListResponse[domain.ColorOption](state.Colors()))
}

// GetCatalog handles GET /api/v1/partners/{partnerId}/catalog
func (h *CatalogHandler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	id, err := partnerID(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	overview, err := h.service.Overview(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, overview)
}
