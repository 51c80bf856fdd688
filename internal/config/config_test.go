package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8090, cfg.HTTPPort)
	assert.Equal(t, 15*time.Second, cfg.BackendTimeout)
	assert.Equal(t, 2, cfg.BackendMaxRetries)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigin)
	assert.Equal(t, int64(10<<20), cfg.MaxUploadBytes())
	assert.Equal(t, int64(25<<20), cfg.MaxModelBytes())
	assert.Equal(t, 32, cfg.MaxSceneObjects)
	assert.False(t, cfg.OTELEnabled)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("CONFIGURATOR_HTTP_PORT", "9999")
	t.Setenv("CATALOG_API_URL", "https://catalog.internal/api/v1/")
	t.Setenv("CATALOG_TIMEOUT", "3s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com,https://b.example.com")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.HTTPPort)
	assert.Equal(t, "https://catalog.internal/api/v1", cfg.BaseURL())
	assert.Equal(t, 3*time.Second, cfg.HTTPClientConfig().Timeout)
	assert.Len(t, cfg.CORSAllowedOrigin, 2)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
		want string
	}{
		{"port out of range", "CONFIGURATOR_HTTP_PORT", "70000", "invalid HTTP port"},
		{"sample rate", "OTEL_SAMPLE_RATE", "1.5", "OTEL_SAMPLE_RATE"},
		{"negative retries", "CATALOG_MAX_RETRIES", "-1", "CATALOG_MAX_RETRIES"},
		{"upload size", "MAX_UPLOAD_SIZE_MB", "0", "MAX_UPLOAD_SIZE_MB"},
		{"model size", "MAX_MODEL_SIZE_MB", "-5", "MAX_MODEL_SIZE_MB"},
		{"scene objects", "MAX_SCENE_OBJECTS", "0", "MAX_SCENE_OBJECTS"},
		{"bad backend url", "CATALOG_API_URL", "not a url", "CATALOG_API_URL"},
		{"unparsable int", "CONFIGURATOR_HTTP_PORT", "abc", "load configurator config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)

			cfg, err := Load()

			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestBaseURL_ByEnvironment(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"local default", Config{Environment: "development"}, LocalBackendURL},
		{"production default", Config{Environment: "production"}, ProductionBackendURL},
		{"production is case-insensitive", Config{Environment: "Production"}, ProductionBackendURL},
		{"explicit wins", Config{Environment: "production", BackendURL: "http://catalog:3000/api/v1"}, "http://catalog:3000/api/v1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.BaseURL())
		})
	}
}

func TestUploadEndpoint(t *testing.T) {
	assert.Equal(t, "http://localhost:3000/upload-endpoint", (&Config{}).UploadEndpoint())
	assert.Equal(t, "https://rebilt-backend.onrender.com/upload-endpoint",
		(&Config{Environment: "production"}).UploadEndpoint())
	assert.Equal(t, "https://cdn.example.com/upload",
		(&Config{UploadURL: "https://cdn.example.com/upload"}).UploadEndpoint())
}

func TestCircuitBreakerConfig(t *testing.T) {
	cfg := Config{CBMaxRequests: 2, CBInterval: 10, CBTimeout: 5, CBFailureRatio: 0.25, CBMinRequests: 4}

	cb := cfg.CircuitBreakerConfig("catalog")

	assert.Equal(t, "catalog", cb.Name)
	assert.Equal(t, uint32(2), cb.MaxRequests)
	assert.Equal(t, 10*time.Second, cb.Interval)
	assert.Equal(t, 5*time.Second, cb.Timeout)
	assert.Equal(t, 0.25, cb.FailureRatio)
	assert.Equal(t, uint32(4), cb.MinRequests)
}
