package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/configurator/internal/domain"
	apperrors "github.com/utafrali/configurator/pkg/errors"
)

// --- Mock Catalog ---

type mockCatalog struct {
	mock.Mock
}

func (m *mockCatalog) GetPartner(ctx context.Context, partnerID string) (*domain.Partner, error) {
	args := m.Called(ctx, partnerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Partner), args.Error(1)
}

func (m *mockCatalog) ListProductsByPartnerName(ctx context.Context, partnerName string) ([]domain.Product, error) {
	args := m.Called(ctx, partnerName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *mockCatalog) ListPartnerConfigurations(ctx context.Context, partnerID string) ([]domain.Configuration, error) {
	args := m.Called(ctx, partnerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Configuration), args.Error(1)
}

func (m *mockCatalog) CreateProduct(ctx context.Context, draft domain.ProductDraft) (*domain.Product, error) {
	args := m.Called(ctx, draft)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockCatalog) UploadImage(ctx context.Context, filename string, r io.Reader) (string, error) {
	args := m.Called(ctx, filename, r)
	return args.String(0), args.Error(1)
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

var fixedNow = time.UnixMilli(1700000000000)

func newTestService(catalog *mockCatalog) *CatalogService {
	return NewCatalogService(catalog, newTestLogger()).WithClock(func() time.Time { return fixedNow })
}

func colorConfig(id string, options ...domain.Option) domain.Configuration {
	return domain.Configuration{
		ConfigurationID: domain.Ref{ID: id},
		Details:         domain.ConfigurationDetails{FieldType: domain.FieldTypeColor, FieldName: "Color"},
		Options:         options,
	}
}

func option(id, name string) domain.Option {
	return domain.Option{OptionID: domain.Ref{ID: id, Name: name}}
}

// --- FetchPartnerName ---

func TestFetchPartnerName(t *testing.T) {
	catalog := new(mockCatalog)
	catalog.On("GetPartner", mock.Anything, "p1").Return(&domain.Partner{ID: "p1", Name: "Acme"}, nil)

	name, err := newTestService(catalog).FetchPartnerName(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "Acme", name)
}

func TestFetchPartnerName_EmptyName(t *testing.T) {
	catalog := new(mockCatalog)
	catalog.On("GetPartner", mock.Anything, "p1").Return(&domain.Partner{ID: "p1"}, nil)

	_, err := newTestService(catalog).FetchPartnerName(context.Background(), "p1")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

// --- FetchProducts ---

func TestFetchProducts(t *testing.T) {
	catalog := new(mockCatalog)
	catalog.On("GetPartner", mock.Anything, "p1").Return(&domain.Partner{ID: "p1", Name: "Acme"}, nil)
	catalog.On("ListProductsByPartnerName", mock.Anything, "Acme").Return([]domain.Product{
		{ID: "1", ProductType: "shoe"},
		{ID: "2", ProductType: "hat"},
	}, nil)

	products, err := newTestService(catalog).FetchProducts(context.Background(), "p1")
	require.NoError(t, err)
	assert.Len(t, products, 2)
	catalog.AssertExpectations(t)
}

func TestFetchProducts_SoftFailures(t *testing.T) {
	tests := []struct {
		name      string
		partnerID string
		setup     func(c *mockCatalog)
		wantErr   error
	}{
		{
			name:      "empty partner id",
			partnerID: "",
			setup:     func(c *mockCatalog) {},
			wantErr:   apperrors.ErrInvalidInput,
		},
		{
			name:      "missing partner name",
			partnerID: "p1",
			setup: func(c *mockCatalog) {
				c.On("GetPartner", mock.Anything, "p1").Return(&domain.Partner{ID: "p1"}, nil)
			},
			wantErr: apperrors.ErrNotFound,
		},
		{
			name:      "backend unavailable",
			partnerID: "p1",
			setup: func(c *mockCatalog) {
				c.On("GetPartner", mock.Anything, "p1").Return(nil, apperrors.ServiceUnavailable("down"))
			},
			wantErr: apperrors.ErrServiceUnavail,
		},
		{
			name:      "product listing fails",
			partnerID: "p1",
			setup: func(c *mockCatalog) {
				c.On("GetPartner", mock.Anything, "p1").Return(&domain.Partner{ID: "p1", Name: "Acme"}, nil)
				c.On("ListProductsByPartnerName", mock.Anything, "Acme").Return(nil, apperrors.BadGateway("catalog: boom", nil))
			},
			wantErr: apperrors.ErrBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			catalog := new(mockCatalog)
			tt.setup(catalog)
			svc := newTestService(catalog)

			products, err := svc.FetchProducts(context.Background(), tt.partnerID)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			assert.NotNil(t, products)
			assert.Empty(t, products)

			types, err := svc.FetchProductTypes(context.Background(), tt.partnerID)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			assert.NotNil(t, types)
			assert.Empty(t, types)
		})
	}
}

func TestFetchProducts_NilListIsEmpty(t *testing.T) {
	catalog := new(mockCatalog)
	catalog.On("GetPartner", mock.Anything, "p1").Return(&domain.Partner{ID: "p1", Name: "Acme"}, nil)
	catalog.On("ListProductsByPartnerName", mock.Anything, "Acme").Return(nil, nil)

	products, err := newTestService(catalog).FetchProducts(context.Background(), "p1")
	require.NoError(t, err)
	assert.NotNil(t, products)
}

// --- FetchProductTypes ---

func TestFetchProductTypes(t *testing.T) {
	catalog := new(mockCatalog)
	catalog.On("GetPartner", mock.Anything, "p1").Return(&domain.Partner{ID: "p1", Name: "Acme"}, nil)
	catalog.On("ListProductsByPartnerName", mock.Anything, "Acme").Return([]domain.Product{
		{ProductType: "shoe"}, {ProductType: "hat"}, {ProductType: "shoe"}, {},
	}, nil)

	types, err := newTestService(catalog).FetchProductTypes(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, []string{"shoe", "hat"}, types)
}

// --- GetColors ---

func TestGetColors_DedupsSharedOption(t *testing.T) {
	catalog := new(mockCatalog)
	catalog.On("ListPartnerConfigurations", mock.Anything, "p1").Return([]domain.Configuration{
		colorConfig("c1", option("o1", "Red")),
		colorConfig("c2", option("o1", "Red")),
	}, nil)

	colors, err := newTestService(catalog).GetColors(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, []domain.ColorSelection{{OptionID: "o1", Color: "Red"}}, colors)
}

func TestGetColors_BackendError(t *testing.T) {
	catalog := new(mockCatalog)
	catalog.On("ListPartnerConfigurations", mock.Anything, "p1").Return(nil, apperrors.NotFound("configurations", "p1"))

	colors, err := newTestService(catalog).GetColors(context.Background(), "p1")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.NotNil(t, colors)
	assert.Empty(t, colors)
}

// --- FetchColors ---

func TestFetchColors(t *testing.T) {
	catalog := new(mockCatalog)
	catalog.On("ListPartnerConfigurations", mock.Anything, "p1").Return([]domain.Configuration{
		colorConfig("c1", option("o1", "Red"), option("o2", "")),
	}, nil)

	var state ColorState
	require.NoError(t, newTestService(catalog).FetchColors(context.Background(), "p1", &state))

	assert.Equal(t, []domain.ColorOption{
		{OptionID: "o1", Name: "Red", Images: []string{}},
		{OptionID: "o2", Name: domain.DefaultColorName, Images: []string{}},
	}, state.Colors())
}

func TestFetchColors_EmptyLeavesStateUntouched(t *testing.T) {
	catalog := new(mockCatalog)
	catalog.On("ListPartnerConfigurations", mock.Anything, "p1").Return([]domain.Configuration{}, nil)

	var state ColorState
	previous := []domain.ColorOption{{OptionID: "keep", Name: "Keep", Images: []string{}}}
	state.Set(previous)

	err := newTestService(catalog).FetchColors(context.Background(), "p1", &state)
	assert.ErrorIs(t, err, ErrNoColors)
	assert.Equal(t, previous, state.Colors())
}

func TestFetchColors_ErrorLeavesStateUntouched(t *testing.T) {
	catalog := new(mockCatalog)
	catalog.On("ListPartnerConfigurations", mock.Anything, "p1").Return(nil, apperrors.ServiceUnavailable("down"))

	var state ColorState
	err := newTestService(catalog).FetchColors(context.Background(), "p1", &state)
	assert.True(t, errors.Is(err, apperrors.ErrServiceUnavail))
	assert.Empty(t, state.Colors())
}

func TestColorState_ConcurrentWriters(t *testing.T) {
	var state ColorState
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			state.Set([]domain.ColorOption{{OptionID: strings.Repeat("o", i+1)}})
			_ = state.Colors()
		}(i)
	}
	wg.Wait()

	assert.Len(t, state.Colors(), 1)
}

func TestColorState_ColorsReturnsCopy(t *testing.T) {
	var state ColorState
	state.Set([]domain.ColorOption{{OptionID: "o1"}})

	got := state.Colors()
	got[0].OptionID = "changed"
	assert.Equal(t, "o1", state.Colors()[0].OptionID)
}

// --- Overview ---

func TestOverview(t *testing.T) {
	catalog := new(mockCatalog)
	catalog.On("GetPartner", mock.Anything, "p1").Return(&domain.Partner{ID: "p1", Name: "Acme"}, nil)
	catalog.On("ListProductsByPartnerName", mock.Anything, "Acme").Return([]domain.Product{
		{ID: "1", ProductType: "shoe"},
	}, nil)
	catalog.On("ListPartnerConfigurations", mock.Anything, "p1").Return([]domain.Configuration{
		colorConfig("c1", option("o1", "Red")),
	}, nil)

	overview, err := newTestService(catalog).Overview(context.Background(), "p1")
	require.NoError(t, err)
	assert.Len(t, overview.Products, 1)
	assert.Equal(t, []string{"shoe"}, overview.Types)
	assert.Equal(t, []domain.ColorSelection{{OptionID: "o1", Color: "Red"}}, overview.Colors)
}

func TestOverview_NoConfigurationsIsNotFatal(t *testing.T) {
	catalog := new(mockCatalog)
	catalog.On("GetPartner", mock.Anything, "p1").Return(&domain.Partner{ID: "p1", Name: "Acme"}, nil)
	catalog.On("ListProductsByPartnerName", mock.Anything, "Acme").Return([]domain.Product{}, nil)
	catalog.On("ListPartnerConfigurations", mock.Anything, "p1").Return(nil, apperrors.NotFound("configurations", "p1"))

	overview, err := newTestService(catalog).Overview(context.Background(), "p1")
	require.NoError(t, err)
	assert.NotNil(t, overview.Colors)
	assert.Empty(t, overview.Colors)
}

func TestOverview_ProductFailureFails(t *testing.T) {
	catalog := new(mockCatalog)
	catalog.On("GetPartner", mock.Anything, "p1").Return(nil, apperrors.ServiceUnavailable("down"))
	catalog.On("ListPartnerConfigurations", mock.Anything, "p1").Return([]domain.Configuration{}, nil).Maybe()

	_, err := newTestService(catalog).Overview(context.Background(), "p1")
	assert.True(t, errors.Is(err, apperrors.ErrServiceUnavail))
}
