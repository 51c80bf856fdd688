package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/configurator/internal/domain"
	apperrors "github.com/utafrali/configurator/pkg/errors"
)

// --- Add2DProduct ---

func TestAdd2DProduct_PostsDraftVerbatim(t *testing.T) {
	draft := domain.ProductDraft{
		ProductName:    "Poster",
		ProductPrice:   12.5,
		ActiveInactive: true,
		PartnerID:      "p1",
		Configurations: []domain.ConfigurationSelection{{ConfigurationID: "c1"}},
	}

	catalog := new(mockCatalog)
	catalog.On("CreateProduct", mock.Anything, draft).Return(&domain.Product{ID: "new-1"}, nil)

	product, err := newTestService(catalog).Add2DProduct(context.Background(), draft)
	require.NoError(t, err)
	assert.Equal(t, "new-1", product.ID)
	catalog.AssertExpectations(t)
}

func TestAdd2DProduct_PropagatesError(t *testing.T) {
	catalog := new(mockCatalog)
	catalog.On("CreateProduct", mock.Anything, mock.Anything).Return(nil, apperrors.InvalidInput("catalog: productName is required"))

	_, err := newTestService(catalog).Add2DProduct(context.Background(), domain.ProductDraft{})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

// --- Add3DProduct ---

func validInput() Product3DInput {
	return Product3DInput{
		ProductName:  "Sneaker",
		ProductPrice: 99,
		PartnerID:    "p1",
		ImageURL:     "https://cdn.example.com/sneaker.png",
		Configurations: []domain.Configuration{
			colorConfig("c1", option("o1", "Red"), option("o2", "Blue")),
			{
				ConfigurationID: domain.Ref{ID: "c2"},
				Details:         domain.ConfigurationDetails{FieldType: "text", FieldName: "Engraving"},
				Options:         []domain.Option{option("t1", "Name")},
			},
			colorConfig("c3"),
		},
	}
}

func TestAdd3DProduct_BuildsSelectedOptions(t *testing.T) {
	catalog := new(mockCatalog)
	var sent domain.ProductDraft
	catalog.On("CreateProduct", mock.Anything, mock.AnythingOfType("domain.ProductDraft")).
		Run(func(args mock.Arguments) { sent = args.Get(1).(domain.ProductDraft) }).
		Return(&domain.Product{ID: "new-3d"}, nil)

	product, err := newTestService(catalog).Add3DProduct(context.Background(), validInput())
	require.NoError(t, err)
	assert.Equal(t, "new-3d", product.ID)

	require.Len(t, sent.Configurations, 1, "text and empty configurations are dropped")
	cfg := sent.Configurations[0]
	assert.Equal(t, "c1", cfg.ConfigurationID)
	assert.Equal(t, []domain.SelectedOption{
		{ID: "o1-1700000000000", OptionID: "o1", Images: []string{"https://cdn.example.com/sneaker.png"}},
		{ID: "o2-1700000000000", OptionID: "o2", Images: []string{"https://cdn.example.com/sneaker.png"}},
	}, cfg.SelectedOptions)
	assert.Equal(t, "Sneaker", sent.ProductName)
	assert.Equal(t, "p1", sent.PartnerID)
}

func TestAdd3DProduct_InsecureImageDropped(t *testing.T) {
	in := validInput()
	in.ImageURL = "http://cdn.example.com/sneaker.png"

	catalog := new(mockCatalog)
	var sent domain.ProductDraft
	catalog.On("CreateProduct", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { sent = args.Get(1).(domain.ProductDraft) }).
		Return(&domain.Product{ID: "x"}, nil)

	_, err := newTestService(catalog).Add3DProduct(context.Background(), in)
	require.NoError(t, err)
	for _, opt := range sent.Configurations[0].SelectedOptions {
		assert.Equal(t, []string{}, opt.Images)
	}
}

func TestAdd3DProduct_AttachesGalleryImages(t *testing.T) {
	in := validInput()
	in.GalleryImages = []string{"https://cdn.example.com/side.png", "http://cdn.example.com/back.png"}

	catalog := new(mockCatalog)
	var sent domain.ProductDraft
	catalog.On("CreateProduct", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { sent = args.Get(1).(domain.ProductDraft) }).
		Return(&domain.Product{ID: "x"}, nil)

	_, err := newTestService(catalog).Add3DProduct(context.Background(), in)
	require.NoError(t, err)

	require.Len(t, sent.Configurations[0].SelectedOptions, 2)
	for _, opt := range sent.Configurations[0].SelectedOptions {
		assert.Equal(t, []string{"https://cdn.example.com/sneaker.png", "https://cdn.example.com/side.png"}, opt.Images)
	}
}

func TestAdd3DProduct_InvalidInputNeverPosts(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(in *Product3DInput)
	}{
		{"missing name", func(in *Product3DInput) { in.ProductName = "" }},
		{"zero price", func(in *Product3DInput) { in.ProductPrice = 0 }},
		{"negative price", func(in *Product3DInput) { in.ProductPrice = -1 }},
		{"no configurations", func(in *Product3DInput) { in.Configurations = nil }},
		{"no usable configurations", func(in *Product3DInput) {
			in.Configurations = []domain.Configuration{
				colorConfig("c1"),
				colorConfig("c2", option("", "No id")),
				{Details: domain.ConfigurationDetails{FieldType: "text"}, Options: []domain.Option{option("t1", "x")}},
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)

			catalog := new(mockCatalog)
			_, err := newTestService(catalog).Add3DProduct(context.Background(), in)

			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
			catalog.AssertNotCalled(t, "CreateProduct", mock.Anything, mock.Anything)
		})
	}
}

func TestAdd3DProduct_BackendError(t *testing.T) {
	catalog := new(mockCatalog)
	catalog.On("CreateProduct", mock.Anything, mock.Anything).Return(nil, apperrors.Unauthorized("catalog: not logged in"))

	_, err := newTestService(catalog).Add3DProduct(context.Background(), validInput())
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
}

// --- UploadImage / AttachImage ---

func TestUploadImage(t *testing.T) {
	catalog := new(mockCatalog)
	body := strings.NewReader("png")
	catalog.On("UploadImage", mock.Anything, "a.png", body).Return("https://cdn.example.com/a.png", nil)

	url, err := newTestService(catalog).UploadImage(context.Background(), "a.png", body)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/a.png", url)
}

func TestUploadImage_Error(t *testing.T) {
	catalog := new(mockCatalog)
	catalog.On("UploadImage", mock.Anything, "a.png", mock.Anything).Return("", apperrors.BadGateway("catalog: no url", nil))

	url, err := newTestService(catalog).UploadImage(context.Background(), "a.png", strings.NewReader("png"))
	assert.Empty(t, url)
	assert.True(t, errors.Is(err, apperrors.ErrBadGateway))
}

func TestAttachImage(t *testing.T) {
	svc := newTestService(new(mockCatalog))
	configs := []domain.ConfigurationSelection{
		{ConfigurationID: "c1", SelectedOptions: []domain.SelectedOption{{OptionID: "o1"}}},
	}

	assert.Equal(t, 0, svc.AttachImage(context.Background(), "", configs))
	assert.Empty(t, configs[0].SelectedOptions[0].Images)

	assert.Equal(t, 1, svc.AttachImage(context.Background(), "https://a/b.png", configs))
	assert.Equal(t, []string{"https://a/b.png"}, configs[0].SelectedOptions[0].Images)
}
