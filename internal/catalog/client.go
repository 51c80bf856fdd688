package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/utafrali/configurator/internal/auth"
	"github.com/utafrali/configurator/internal/domain"
	apperrors "github.com/utafrali/configurator/pkg/errors"
	"github.com/utafrali/configurator/pkg/httpclient"
)

// ServiceName labels errors, logs and metrics for backend calls.
const ServiceName = "catalog"

// statusSuccess is the JSend status of a successful backend response.
const statusSuccess = "success"

var (
	backendRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_backend_requests_total",
			Help: "Total number of catalog backend calls by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	backendRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_backend_request_duration_seconds",
			Help:    "Catalog backend call duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)

// HTTPDoer executes HTTP requests. Both httpclient.Client and
// httpclient.CircuitBreakerClient satisfy it.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// CircuitOpenFallback answers backend calls while the breaker is open.
func CircuitOpenFallback(_ context.Context, _ error) (*http.Response, error) {
	return nil, apperrors.ServiceUnavailable("catalog backend is temporarily unavailable, please retry after 30 seconds")
}

// Client is a typed client for the catalog REST backend.
type Client struct {
	http      HTTPDoer
	baseURL   string
	uploadURL string
	tokens    auth.TokenSource
	logger    *slog.Logger
}

// NewClient creates a catalog client. baseURL is the API root (for example
// http://localhost:3000/api/v1) and uploadURL the image upload endpoint.
func NewClient(doer HTTPDoer, baseURL, uploadURL string, tokens auth.TokenSource, logger *slog.Logger) *Client {
	if tokens == nil {
		tokens = auth.StaticToken("")
	}
	return &Client{
		http:      doer,
		baseURL:   baseURL,
		uploadURL: uploadURL,
		tokens:    tokens,
		logger:    logger,
	}
}

type partnerEnvelope struct {
	Data struct {
		Partner *domain.Partner `json:"partner"`
	} `json:"data"`
}

type productsEnvelope struct {
	Data struct {
		Products []domain.Product `json:"products"`
	} `json:"data"`
}

type configurationsEnvelope struct {
	Status string                  `json:"status"`
	Data   *[]domain.Configuration `json:"data"`
}

type productEnvelope struct {
	Data struct {
		Product *domain.Product `json:"product"`
	} `json:"data"`
}

type uploadResponse struct {
	ImageURL string `json:"imageUrl"`
}

// GetPartner fetches a partner by id.
func (c *Client) GetPartner(ctx context.Context, partnerID string) (*domain.Partner, error) {
	var env partnerEnvelope
	endpoint := c.baseURL + "/partners/" + url.PathEscape(partnerID)
	if err := c.getJSON(ctx, "get_partner", endpoint, &env); err != nil {
		return nil, err
	}
	if env.Data.Partner == nil {
		return nil, apperrors.NotFound("partner", partnerID)
	}
	return env.Data.Partner, nil
}

// ListProductsByPartnerName lists the products advertised under a partner's
// display name. A response without a product list yields an empty slice.
func (c *Client) ListProductsByPartnerName(ctx context.Context, partnerName string) ([]domain.Product, error) {
	var env productsEnvelope
	endpoint := c.baseURL + "/products?" + url.Values{"partnerName": {partnerName}}.Encode()
	if err := c.getJSON(ctx, "list_products", endpoint, &env); err != nil {
		return nil, err
	}
	if env.Data.Products == nil {
		return []domain.Product{}, nil
	}
	return env.Data.Products, nil
}

// ListPartnerConfigurations fetches the configuration records of a partner.
func (c *Client) ListPartnerConfigurations(ctx context.Context, partnerID string) ([]domain.Configuration, error) {
	var env configurationsEnvelope
	endpoint := c.baseURL + "/partnerConfigurations?" + url.Values{"partnerId": {partnerID}}.Encode()
	if err := c.getJSON(ctx, "list_configurations", endpoint, &env); err != nil {
		return nil, err
	}
	if env.Status != statusSuccess || env.Data == nil {
		return nil, &apperrors.AppError{
			Code:    "NOT_FOUND",
			Message: fmt.Sprintf("no configurations found for partner %s", partnerID),
			Status:  http.StatusNotFound,
			Err:     apperrors.ErrNotFound,
		}
	}
	return *env.Data, nil
}

// CreateProduct POSTs a product draft with the caller's bearer token and
// returns the created product.
func (c *Client) CreateProduct(ctx context.Context, draft domain.ProductDraft) (*domain.Product, error) {
	const op = "create_product"

	body, err := json.Marshal(draft)
	if err != nil {
		return nil, fmt.Errorf("marshal product draft: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/products", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create product request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(ctx, req)

	raw, err := c.do(ctx, op, req)
	if err != nil {
		return nil, err
	}

	var env productEnvelope
	if err := json.Unmarshal(raw, &env); err == nil && env.Data.Product != nil {
		return env.Data.Product, nil
	}
	var product domain.Product
	if err := json.Unmarshal(raw, &product); err != nil {
		return nil, apperrors.BadGateway("catalog: undecodable product response", err)
	}
	return &product, nil
}

// UploadImage sends an image as the multipart field "image" and returns the
// URL the backend stored it under.
func (c *Client) UploadImage(ctx context.Context, filename string, r io.Reader) (string, error) {
	const op = "upload_image"

	name := filepath.Base(filename)
	if name == "." || name == string(filepath.Separator) || name == "" {
		name = uuid.NewString()
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", name)
	if err != nil {
		return "", fmt.Errorf("create image part: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", fmt.Errorf("copy image: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadURL, bytes.NewReader(buf.Bytes()))
	if err != nil {
		return "", fmt.Errorf("create upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	c.authorize(ctx, req)

	raw, err := c.do(ctx, op, req)
	if err != nil {
		return "", err
	}

	var resp uploadResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", apperrors.BadGateway("catalog: undecodable upload response", err)
	}
	if resp.ImageURL == "" {
		return "", apperrors.BadGateway("catalog: upload returned no image url", nil)
	}

	c.logger.InfoContext(ctx, "image uploaded",
		slog.String("filename", name),
		slog.String("image_url", resp.ImageURL),
	)
	return resp.ImageURL, nil
}

func (c *Client) authorize(ctx context.Context, req *http.Request) {
	if token := c.tokens.Token(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func (c *Client) getJSON(ctx context.Context, op, endpoint string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return fmt.Errorf("create %s request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")

	raw, err := c.do(ctx, op, req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return apperrors.BadGateway(fmt.Sprintf("catalog: undecodable %s response", op), err)
	}
	return nil
}

// do executes req and returns the body of a 2xx response. Every other
// outcome is an AppError.
func (c *Client) do(ctx context.Context, op string, req *http.Request) ([]byte, error) {
	start := time.Now()
	outcome := "error"
	defer func() {
		backendRequestsTotal.WithLabelValues(op, outcome).Inc()
		backendRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}()

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		c.logger.ErrorContext(ctx, "catalog backend call failed",
			slog.String("operation", op),
			slog.String("error", err.Error()),
		)
		return nil, httpclient.MapCallError(err, ServiceName)
	}

	if !httpclient.IsSuccess(resp.StatusCode) {
		if httpclient.IsClientError(resp.StatusCode) {
			outcome = "client_error"
		}
		c.logger.WarnContext(ctx, "catalog backend returned error status",
			slog.String("operation", op),
			slog.Int("status", resp.StatusCode),
		)
		return nil, httpclient.ParseResponseError(resp, ServiceName)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.BadGateway("catalog: failed to read response", err)
	}

	outcome = "success"
	return raw, nil
}
