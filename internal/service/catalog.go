package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/utafrali/configurator/internal/domain"
	apperrors "github.com/utafrali/configurator/pkg/errors"
	"github.com/utafrali/configurator/pkg/tracing"
)

const tracerName = "github.com/utafrali/configurator/internal/service"

// ErrNoColors is returned by FetchColors when the partner offers no colors.
var ErrNoColors = &apperrors.AppError{
	Code:    "NOT_FOUND",
	Message: "no colors available for partner",
	Status:  http.StatusNotFound,
	Err:     apperrors.ErrNotFound,
}

// Catalog is the backend the service reads from and writes to.
// *catalog.Client satisfies it.
type Catalog interface {
	GetPartner(ctx context.Context, partnerID string) (*domain.Partner, error)
	ListProductsByPartnerName(ctx context.Context, partnerName string) ([]domain.Product, error)
	ListPartnerConfigurations(ctx context.Context, partnerID string) ([]domain.Configuration, error)
	CreateProduct(ctx context.Context, draft domain.ProductDraft) (*domain.Product, error)
	UploadImage(ctx context.Context, filename string, r io.Reader) (string, error)
}

// CatalogService implements the configurator's catalog operations.
//
// Every operation returns a value and an error. Read paths also return an
// empty, non-nil value when they fail, so callers that only render the value
// degrade to an empty list.
type CatalogService struct {
	catalog Catalog
	logger  *slog.Logger
	tracer  trace.Tracer
	now     func() time.Time
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(catalog Catalog, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		catalog: catalog,
		logger:  logger,
		tracer:  tracing.Tracer(tracerName),
		now:     time.Now,
	}
}

// WithClock returns a copy of s that reads the time from now.
func (s *CatalogService) WithClock(now func() time.Time) *CatalogService {
	cpy := *s
	cpy.now = now
	return &cpy
}

func (s *CatalogService) start(ctx context.Context, name, partnerID string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "CatalogService."+name,
		trace.WithAttributes(attribute.String("partner.id", partnerID)),
	)
}

// FetchPartnerName resolves a partner's display name.
func (s *CatalogService) FetchPartnerName(ctx context.Context, partnerID string) (string, error) {
	ctx, span := s.start(ctx, "FetchPartnerName", partnerID)
	defer span.End()

	name, err := s.partnerName(ctx, partnerID)
	if err != nil {
		tracing.RecordError(span, err)
		return "", err
	}
	return name, nil
}

func (s *CatalogService) partnerName(ctx context.Context, partnerID string) (string, error) {
	if partnerID == "" {
		return "", apperrors.InvalidInput("partner id is required")
	}

	partner, err := s.catalog.GetPartner(ctx, partnerID)
	if err != nil {
		return "", err
	}
	if partner.Name == "" {
		return "", &apperrors.AppError{
			Code:    "NOT_FOUND",
			Message: "partner name not found",
			Status:  http.StatusNotFound,
			Err:     apperrors.ErrNotFound,
		}
	}
	return partner.Name, nil
}

// FetchProducts lists the products advertised under the partner's name.
func (s *CatalogService) FetchProducts(ctx context.Context, partnerID string) ([]domain.Product, error) {
	ctx, span := s.start(ctx, "FetchProducts", partnerID)
	defer span.End()

	products, err := s.products(ctx, partnerID)
	if err != nil {
		tracing.RecordError(span, err)
		s.logger.ErrorContext(ctx, "failed to fetch products",
			slog.String("partner_id", partnerID),
			slog.String("error", err.Error()),
		)
		return []domain.Product{}, err
	}

	span.SetAttributes(attribute.Int("products.count", len(products)))
	return products, nil
}

func (s *CatalogService) products(ctx context.Context, partnerID string) ([]domain.Product, error) {
	name, err := s.partnerName(ctx, partnerID)
	if err != nil {
		return nil, err
	}

	products, err := s.catalog.ListProductsByPartnerName(ctx, name)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []domain.Product{}
	}
	return products, nil
}

// FetchProductTypes returns the distinct product types of the partner's
// products.
func (s *CatalogService) FetchProductTypes(ctx context.Context, partnerID string) ([]string, error) {
	ctx, span := s.start(ctx, "FetchProductTypes", partnerID)
	defer span.End()

	products, err := s.products(ctx, partnerID)
	if err != nil {
		tracing.RecordError(span, err)
		s.logger.ErrorContext(ctx, "failed to fetch product types",
			slog.String("partner_id", partnerID),
			slog.String("error", err.Error()),
		)
		return []string{}, err
	}

	return domain.DistinctProductTypes(products), nil
}

// FilterProductsByType narrows products to selectedType; see
// domain.FilterProductsByType.
func (s *CatalogService) FilterProductsByType(selectedType string, products []domain.Product) []domain.Product {
	return domain.FilterProductsByType(selectedType, products)
}

// GetColors returns the partner's colors, one entry per option id.
func (s *CatalogService) GetColors(ctx context.Context, partnerID string) ([]domain.ColorSelection, error) {
	ctx, span := s.start(ctx, "GetColors", partnerID)
	defer span.End()

	colors, err := s.colors(ctx, partnerID)
	if err != nil {
		tracing.RecordError(span, err)
		s.logger.ErrorContext(ctx, "failed to fetch colors",
			slog.String("partner_id", partnerID),
			slog.String("error", err.Error()),
		)
		return []domain.ColorSelection{}, err
	}

	span.SetAttributes(attribute.Int("colors.count", len(colors)))
	return colors, nil
}

func (s *CatalogService) colors(ctx context.Context, partnerID string) ([]domain.ColorSelection, error) {
	if partnerID == "" {
		return nil, apperrors.InvalidInput("partner id is required")
	}

	configs, err := s.catalog.ListPartnerConfigurations(ctx, partnerID)
	if err != nil {
		return nil, err
	}
	return domain.ExtractColorSelections(configs), nil
}

// FetchColors loads the partner's colors into state. When the partner has
// no colors, state is left untouched and ErrNoColors is returned.
func (s *CatalogService) FetchColors(ctx context.Context, partnerID string, state *ColorState) error {
	selections, err := s.GetColors(ctx, partnerID)
	if err != nil {
		return err
	}
	if len(selections) == 0 {
		s.logger.WarnContext(ctx, "no colors received",
			slog.String("partner_id", partnerID),
		)
		return ErrNoColors
	}

	state.Set(domain.ToColorOptions(selections))
	return nil
}

// CatalogOverview bundles what a configurator page needs for a partner.
type CatalogOverview struct {
	Products []domain.Product        `json:"products"`
	Types    []string                `json:"types"`
	Colors   []domain.ColorSelection `json:"colors"`
}

// Overview fetches the partner's products and colors concurrently. A partner
// without configurations gets an empty color list; any other failure fails
// the overview.
func (s *CatalogService) Overview(ctx context.Context, partnerID string) (*CatalogOverview, error) {
	ctx, span := s.start(ctx, "Overview", partnerID)
	defer span.End()

	overview := &CatalogOverview{
		Products: []domain.Product{},
		Types:    []string{},
		Colors:   []domain.ColorSelection{},
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		products, err := s.products(gctx, partnerID)
		if err != nil {
			return err
		}
		overview.Products = products
		overview.Types = domain.DistinctProductTypes(products)
		return nil
	})
	g.Go(func() error {
		colors, err := s.colors(gctx, partnerID)
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		overview.Colors = colors
		return nil
	})

	if err := g.Wait(); err != nil {
		tracing.RecordError(span, err)
		s.logger.ErrorContext(ctx, "failed to build catalog overview",
			slog.String("partner_id", partnerID),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	return overview, nil
}
