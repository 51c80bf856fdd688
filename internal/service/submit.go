package service

import (
	"context"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/utafrali/configurator/internal/domain"
	apperrors "github.com/utafrali/configurator/pkg/errors"
	"github.com/utafrali/configurator/pkg/tracing"
)

// Product3DInput holds the parameters for creating a 3D product. The
// configurations are the partner's configuration records; ImageURL is the
// uploaded product image and GalleryImages are further uploads attached to
// every selected option after it.
type Product3DInput struct {
	ProductCode    string
	ProductName    string
	ProductType    string
	ProductPrice   float64
	Description    string
	Brand          string
	ActiveInactive domain.ActiveFlag
	PartnerID      string
	Configurations []domain.Configuration
	ImageURL       string
	GalleryImages  []string
}

// Add2DProduct submits draft unchanged.
func (s *CatalogService) Add2DProduct(ctx context.Context, draft domain.ProductDraft) (*domain.Product, error) {
	ctx, span := s.start(ctx, "Add2DProduct", draft.PartnerID)
	defer span.End()

	s.logger.InfoContext(ctx, "adding 2D product",
		slog.String("product_name", draft.ProductName),
		slog.String("product_type", draft.ProductType),
		slog.Int("configurations", len(draft.Configurations)),
	)

	product, err := s.catalog.CreateProduct(ctx, draft)
	if err != nil {
		tracing.RecordError(span, err)
		s.logger.ErrorContext(ctx, "failed to add 2D product",
			slog.String("product_name", draft.ProductName),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	s.logger.InfoContext(ctx, "2D product added", slog.String("product_id", product.ID))
	return product, nil
}

// Add3DProduct derives selected options from the color configurations in
// input and submits the resulting product. Nothing is sent when no
// configuration yields a selected option.
func (s *CatalogService) Add3DProduct(ctx context.Context, input Product3DInput) (*domain.Product, error) {
	ctx, span := s.start(ctx, "Add3DProduct", input.PartnerID)
	defer span.End()

	if input.ProductName == "" || input.ProductPrice <= 0 {
		err := apperrors.InvalidInput("product name and a positive price are required")
		tracing.RecordError(span, err)
		return nil, err
	}
	if len(input.Configurations) == 0 {
		err := apperrors.InvalidInput("no configurations found for the partner")
		tracing.RecordError(span, err)
		return nil, err
	}

	selections := domain.BuildSelectedConfigurations(input.Configurations, input.ImageURL, s.now())
	span.SetAttributes(
		attribute.Int("configurations.in", len(input.Configurations)),
		attribute.Int("configurations.out", len(selections)),
	)
	if len(selections) == 0 {
		err := apperrors.InvalidInput("no valid configurations found")
		tracing.RecordError(span, err)
		s.logger.WarnContext(ctx, "3D product has no usable color configurations",
			slog.String("product_name", input.ProductName),
		)
		return nil, err
	}

	if input.ImageURL != "" && !domain.IsSecureURL(input.ImageURL) {
		s.logger.WarnContext(ctx, "ignoring non-https product image",
			slog.String("image_url", input.ImageURL),
		)
	}
	for _, img := range input.GalleryImages {
		if !domain.IsSecureURL(img) {
			s.logger.WarnContext(ctx, "ignoring non-https gallery image", slog.String("image_url", img))
			continue
		}
		s.AttachImage(ctx, img, selections)
	}

	draft := domain.ProductDraft{
		ProductCode:    input.ProductCode,
		ProductName:    input.ProductName,
		ProductType:    input.ProductType,
		ProductPrice:   input.ProductPrice,
		Description:    input.Description,
		Brand:          input.Brand,
		ActiveInactive: input.ActiveInactive,
		PartnerID:      input.PartnerID,
		Configurations: selections,
	}

	product, err := s.catalog.CreateProduct(ctx, draft)
	if err != nil {
		tracing.RecordError(span, err)
		s.logger.ErrorContext(ctx, "failed to add 3D product",
			slog.String("product_name", input.ProductName),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	s.logger.InfoContext(ctx, "3D product added",
		slog.String("product_id", product.ID),
		slog.Int("configurations", len(selections)),
	)
	return product, nil
}

// UploadImage stores an image with the backend and returns its URL.
func (s *CatalogService) UploadImage(ctx context.Context, filename string, r io.Reader) (string, error) {
	ctx, span := s.start(ctx, "UploadImage", "")
	defer span.End()

	imageURL, err := s.catalog.UploadImage(ctx, filename, r)
	if err != nil {
		tracing.RecordError(span, err)
		s.logger.ErrorContext(ctx, "failed to upload image",
			slog.String("filename", filename),
			slog.String("error", err.Error()),
		)
		return "", err
	}
	return imageURL, nil
}

// AttachImage appends imageURL to every selected option in configs and
// returns the number of options updated.
func (s *CatalogService) AttachImage(ctx context.Context, imageURL string, configs []domain.ConfigurationSelection) int {
	if imageURL == "" {
		s.logger.WarnContext(ctx, "no image url to attach")
		return 0
	}
	return domain.AttachImage(imageURL, configs)
}
