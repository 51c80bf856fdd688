package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/utafrali/configurator/internal/domain"
	"github.com/utafrali/configurator/internal/service"
	"github.com/utafrali/configurator/pkg/httputil"
	"github.com/utafrali/configurator/pkg/middleware"
	"github.com/utafrali/configurator/pkg/validator"
)

// ProductHandler handles HTTP requests for product submission and image
// uploads.
type ProductHandler struct {
	service        *service.CatalogService
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewProductHandler creates a new product HTTP handler.
func NewProductHandler(svc *service.CatalogService, maxUploadBytes int64, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		service:        svc,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// --- Request DTOs ---

// Create2DProductRequest is the JSON request body for creating a 2D product.
type Create2DProductRequest struct {
	ProductCode    string                          `json:"productCode"`
	ProductName    string                          `json:"productName" validate:"required,max=200"`
	ProductType    string                          `json:"productType"`
	ProductPrice   float64                         `json:"productPrice" validate:"gte=0"`
	Description    string                          `json:"description"`
	Brand          string                          `json:"brand"`
	ActiveInactive domain.ActiveFlag               `json:"activeInactive"`
	PartnerID      string                          `json:"partnerId"`
	Configurations []domain.ConfigurationSelection `json:"configurations"`
}

// Create3DProductRequest is the JSON request body for creating a 3D product.
// Configurations are the partner's configuration records; ImageURL and
// GalleryImages are URLs returned by the upload endpoint.
type Create3DProductRequest struct {
	ProductCode    string                 `json:"productCode"`
	ProductName    string                 `json:"productName" validate:"required,max=200"`
	ProductType    string                 `json:"productType"`
	ProductPrice   float64                `json:"productPrice" validate:"gt=0"`
	Description    string                 `json:"description"`
	Brand          string                 `json:"brand"`
	ActiveInactive domain.ActiveFlag      `json:"activeInactive"`
	PartnerID      string                 `json:"partnerId"`
	Configurations []domain.Configuration `json:"configurations"`
	ImageURL       string                 `json:"imageUrl"`
	GalleryImages  []string               `json:"galleryImages" validate:"omitempty,max=20,dive,httpsurl"`
}

// UploadResponse is returned by the upload endpoint.
type UploadResponse struct {
	ImageURL string `json:"imageUrl"`
}

// ownPartner defaults an empty partner id to the caller's companyId claim.
func ownPartner(r *http.Request, partnerID string) string {
	if partnerID != "" {
		return partnerID
	}
	if claims := middleware.ClaimsFromContext(r.Context()); claims != nil {
		return claims.CompanyID
	}
	return ""
}

// --- Handlers ---

// Create2DProduct handles POST /api/v1/products/2d
func (h *ProductHandler) Create2DProduct(w http.ResponseWriter, r *http.Request) {
	var req Create2DProductRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteError(w, r, badRequest(err), h.logger)
		return
	}

	product, err := h.service.Add2DProduct(r.Context(), domain.ProductDraft{
		ProductCode:    req.ProductCode,
		ProductName:    req.ProductName,
		ProductType:    req.ProductType,
		ProductPrice:   req.ProductPrice,
		Description:    req.Description,
		Brand:          req.Brand,
		ActiveInactive: req.ActiveInactive,
		PartnerID:      ownPartner(r, req.PartnerID),
		Configurations: req.Configurations,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, product)
}

// Create3DProduct handles POST /api/v1/products/3d
func (h *ProductHandler) Create3DProduct(w http.ResponseWriter, r *http.Request) {
	var req Create3DProductRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteError(w, r, badRequest(err), h.logger)
		return
	}

	product, err := h.service.Add3DProduct(r.Context(), service.Product3DInput{
		ProductCode:    req.ProductCode,
		ProductName:    req.ProductName,
		ProductType:    req.ProductType,
		ProductPrice:   req.ProductPrice,
		Description:    req.Description,
		Brand:          req.Brand,
		ActiveInactive: req.ActiveInactive,
		PartnerID:      ownPartner(r, req.PartnerID),
		Configurations: req.Configurations,
		ImageURL:       req.ImageURL,
		GalleryImages:  req.GalleryImages,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, product)
}

// UploadImage handles POST /api/v1/uploads with a multipart "image" field.
func (h *ProductHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > h.maxUploadBytes {
		writeTooLarge(w)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	file, header, err := r.FormFile("image")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeTooLarge(w)
			return
		}
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "multipart field 'image' is required"},
		})
		return
	}
	defer file.Close()

	imageURL, err := h.service.UploadImage(r.Context(), header.Filename, file)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, UploadResponse{ImageURL: imageURL})
}

func writeTooLarge(w http.ResponseWriter) {
	httputil.WriteJSON(w, http.StatusRequestEntityTooLarge, httputil.Response{
		Error: &httputil.ErrorResponse{Code: "PAYLOAD_TOO_LARGE", Message: "image exceeds the upload size limit"},
	})
}
