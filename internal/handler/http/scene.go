package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/utafrali/configurator/internal/asset"
	apperrors "github.com/utafrali/configurator/pkg/errors"
	"github.com/utafrali/configurator/pkg/httputil"
	"github.com/utafrali/configurator/pkg/validator"
)

// SceneHandler handles HTTP requests for the model scene.
type SceneHandler struct {
	models *asset.Manager
	logger *slog.Logger
}

// NewSceneHandler creates a new scene HTTP handler.
func NewSceneHandler(models *asset.Manager, logger *slog.Logger) *SceneHandler {
	return &SceneHandler{
		models: models,
		logger: logger,
	}
}

// LoadModelRequest is the JSON request body for loading a model. Only
// remote https sources are accepted over HTTP.
type LoadModelRequest struct {
	Source string `json:"source" validate:"required,httpsurl"`
}

// LoadModel handles POST /api/v1/scene/models
func (h *SceneHandler) LoadModel(w http.ResponseWriter, r *http.Request) {
	var req LoadModelRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteError(w, r, badRequest(err), h.logger)
		return
	}

	obj, err := h.models.Load3DModel(r.Context(), req.Source)
	switch {
	case errors.Is(err, asset.ErrUnsupportedFormat):
		httputil.WriteError(w, r, apperrors.InvalidInput(err.Error()), h.logger)
		return
	case errors.Is(err, asset.ErrSceneFull):
		httputil.WriteError(w, r, apperrors.Conflict("scene is full"), h.logger)
		return
	case errors.Is(err, asset.ErrModelTooLarge):
		httputil.WriteJSON(w, http.StatusRequestEntityTooLarge, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "PAYLOAD_TOO_LARGE", Message: "model exceeds the size limit"},
		})
		return
	case errors.Is(err, asset.ErrSceneNotInitialized):
		httputil.WriteError(w, r, apperrors.ServiceUnavailable(err.Error()), h.logger)
		return
	case err != nil:
		httputil.WriteError(w, r, apperrors.BadGateway("failed to load model", err), h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, obj)
}

// ListObjects handles GET /api/v1/scene
func (h *SceneHandler) ListObjects(w http.ResponseWriter, r *http.Request) {
	httputil.WriteData(w, http.StatusOK, httputil.NewListResponse(h.models.Scene().Objects()))
}
