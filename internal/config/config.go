package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	pkgconfig "github.com/utafrali/configurator/pkg/config"
	"github.com/utafrali/configurator/pkg/httpclient"
)

const (
	// ProductionBackendURL is used when ENVIRONMENT=production and no
	// CATALOG_API_URL is set.
	ProductionBackendURL = "https://rebilt-backend.onrender.com/api/v1"
	// LocalBackendURL is used outside production when no CATALOG_API_URL is set.
	LocalBackendURL = "http://localhost:3000/api/v1"

	uploadPath = "/upload-endpoint"
)

// Config holds all configuration for the configurator service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort          int           `env:"CONFIGURATOR_HTTP_PORT" envDefault:"8090"`
	ReadTimeout       time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout      time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
	RequestTimeout    time.Duration `env:"HTTP_REQUEST_TIMEOUT" envDefault:"20s"`
	ShutdownTimeout   time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	MaxUploadSizeMB   int64         `env:"MAX_UPLOAD_SIZE_MB" envDefault:"10"`
	CORSAllowedOrigin []string      `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// 3D scene
	MaxModelSizeMB  int64 `env:"MAX_MODEL_SIZE_MB" envDefault:"25"`
	MaxSceneObjects int   `env:"MAX_SCENE_OBJECTS" envDefault:"32"`

	// Catalog backend
	BackendURL string `env:"CATALOG_API_URL"`
	UploadURL  string `env:"CATALOG_UPLOAD_URL"`
	// APIToken is sent on writes when the caller supplied no bearer token.
	APIToken string `env:"CATALOG_API_TOKEN"`

	// Outbound HTTP
	BackendTimeout    time.Duration `env:"CATALOG_TIMEOUT" envDefault:"15s"`
	BackendMaxRetries int           `env:"CATALOG_MAX_RETRIES" envDefault:"2"`

	// Circuit breaker settings for catalog backend calls
	CBMaxRequests  uint32  `env:"CB_MAX_REQUESTS" envDefault:"1"`
	CBInterval     int     `env:"CB_INTERVAL_SECONDS" envDefault:"60"`
	CBTimeout      int     `env:"CB_TIMEOUT_SECONDS" envDefault:"30"`
	CBFailureRatio float64 `env:"CB_FAILURE_RATIO" envDefault:"0.5"`
	CBMinRequests  uint32  `env:"CB_MIN_REQUESTS" envDefault:"5"`

	// Rate limiting
	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"20"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"40"`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELInsecure   bool    `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"true"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// Metrics and pprof endpoints (IP allowlists in CIDR notation)
	MetricsAllowedCIDRs []string `env:"METRICS_ALLOWED_CIDRS" envDefault:"10.0.0.0/8,172.16.0.0/12,192.168.0.0/16,127.0.0.0/8,::1/128" envSeparator:","`
	PprofAllowedCIDRs   []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"10.0.0.0/8,172.16.0.0/12,192.168.0.0/16,127.0.0.0/8,::1/128" envSeparator:","`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load configurator config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate)
	}
	if c.BackendMaxRetries < 0 {
		return fmt.Errorf("CATALOG_MAX_RETRIES must not be negative, got %d", c.BackendMaxRetries)
	}
	if c.MaxUploadSizeMB <= 0 {
		return fmt.Errorf("MAX_UPLOAD_SIZE_MB must be positive, got %d", c.MaxUploadSizeMB)
	}
	if c.MaxModelSizeMB <= 0 {
		return fmt.Errorf("MAX_MODEL_SIZE_MB must be positive, got %d", c.MaxModelSizeMB)
	}
	if c.MaxSceneObjects <= 0 {
		return fmt.Errorf("MAX_SCENE_OBJECTS must be positive, got %d", c.MaxSceneObjects)
	}
	for name, rawURL := range map[string]string{
		"CATALOG_API_URL":    c.BackendURL,
		"CATALOG_UPLOAD_URL": c.UploadURL,
	} {
		if rawURL == "" {
			continue
		}
		if _, err := url.ParseRequestURI(rawURL); err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, rawURL, err)
		}
	}
	return nil
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// BaseURL returns the catalog API root without a trailing slash: the
// explicit CATALOG_API_URL, else the production or local default.
func (c *Config) BaseURL() string {
	base := c.BackendURL
	if base == "" {
		base = LocalBackendURL
		if c.IsProduction() {
			base = ProductionBackendURL
		}
	}
	return strings.TrimRight(base, "/")
}

// UploadEndpoint returns CATALOG_UPLOAD_URL, or the upload endpoint on the
// backend's origin.
func (c *Config) UploadEndpoint() string {
	if c.UploadURL != "" {
		return c.UploadURL
	}
	u, err := url.Parse(c.BaseURL())
	if err != nil {
		return uploadPath
	}
	return (&url.URL{Scheme: u.Scheme, Host: u.Host, Path: uploadPath}).String()
}

// HTTPClientConfig returns the outbound client settings.
func (c *Config) HTTPClientConfig() httpclient.Config {
	cfg := httpclient.DefaultConfig()
	cfg.Timeout = c.BackendTimeout
	cfg.MaxRetries = c.BackendMaxRetries
	return cfg
}

// CircuitBreakerConfig returns breaker settings for the named dependency.
func (c *Config) CircuitBreakerConfig(name string) httpclient.CircuitBreakerConfig {
	return httpclient.CircuitBreakerConfig{
		Name:         name,
		MaxRequests:  c.CBMaxRequests,
		Interval:     time.Duration(c.CBInterval) * time.Second,
		Timeout:      time.Duration(c.CBTimeout) * time.Second,
		FailureRatio: c.CBFailureRatio,
		MinRequests:  c.CBMinRequests,
	}
}

// MaxUploadBytes returns the upload size limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadSizeMB << 20
}

// MaxModelBytes returns the model download size limit in bytes.
func (c *Config) MaxModelBytes() int64 {
	return c.MaxModelSizeMB << 20
}
