package config

import (
	"fmt"
	"net/url"
	"time"

	pkgconfig "github.com/mattparisien/becoming-front/pkg/config"
)

// DevCookieSecret signs cookies outside production when no secret is set.
const DevCookieSecret = "dev-only-cookie-secret-change-me-0000"

// Config holds all configuration for the storefront edge server.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"HTTP_PORT" envDefault:"3000"`

	// Shopify
	ShopifyStoreDomain     string `env:"SHOPIFY_STORE_DOMAIN"`
	ShopifyStorefrontToken string `env:"SHOPIFY_STOREFRONT_ACCESS_TOKEN"`
	ShopifyAdminToken      string `env:"SHOPIFY_ADMIN_ACCESS_TOKEN"`
	ShopifyAPIVersion      string `env:"SHOPIFY_API_VERSION" envDefault:"2024-10"`
	ShopifyTimeoutSeconds  int    `env:"SHOPIFY_TIMEOUT_SECONDS" envDefault:"10"`

	// Buyer context used when the visitor has no saved preference.
	StorefrontCountry  string `env:"STOREFRONT_COUNTRY" envDefault:"CA"`
	StorefrontLanguage string `env:"STOREFRONT_LANGUAGE" envDefault:"EN"`

	// Locale routing
	DefaultCountry    string            `env:"DEFAULT_COUNTRY" envDefault:"us"`
	DefaultLocale     string            `env:"DEFAULT_LOCALE" envDefault:"en"`
	BasePath          string            `env:"BASE_PATH" envDefault:"/shop"`
	BasePathOverrides map[string]string `env:"BASE_PATH_OVERRIDES"`
	MarketsCacheTTL   time.Duration     `env:"MARKETS_CACHE_TTL" envDefault:"1h"`

	// Redis
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"storefront"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"storefront_secret"`
	PostgresDB   string `env:"STOREFRONT_DB_NAME" envDefault:"storefront_db"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Database pool
	DBMaxConns            int32 `env:"DB_MAX_CONNS" envDefault:"10"`
	DBMinConns            int32 `env:"DB_MIN_CONNS" envDefault:"2"`
	DBMaxConnLifetimeMins int   `env:"DB_MAX_CONN_LIFETIME_MINUTES" envDefault:"60"`
	DBMaxConnIdleTimeMins int   `env:"DB_MAX_CONN_IDLE_TIME_MINUTES" envDefault:"30"`

	// Kafka. Without it cart events are dropped and the market cache is only
	// invalidated through the admin endpoint.
	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	KafkaGroupID string   `env:"KAFKA_GROUP_ID" envDefault:"storefront"`

	// Cookies and operator access
	CookieSigningSecret string `env:"COOKIE_SIGNING_SECRET" envDefault:"dev-only-cookie-secret-change-me-0000"`
	AdminToken          string `env:"ADMIN_TOKEN"`

	// Downstream APIs
	PluginAPIURL           string `env:"PLUGIN_API_URL"`
	PluginAPIKey           string `env:"PLUGIN_API_KEY"`
	BecomingAPIURL         string `env:"BECOMING_API_URL" envDefault:"http://localhost:8080"`
	BecomingAPIKey         string `env:"BECOMING_API_KEY"`
	UpstreamTimeoutSeconds int    `env:"UPSTREAM_TIMEOUT_SECONDS" envDefault:"10"`

	// Page renderer that localized page requests are proxied to.
	PagesUpstreamURL string `env:"PAGES_UPSTREAM_URL"`

	// HTTP edge
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:3000" envSeparator:","`
	RateLimitRPS       float64  `env:"RATE_LIMIT_RPS" envDefault:"20"`
	RateLimitBurst     int      `env:"RATE_LIMIT_BURST" envDefault:"40"`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// Pprof debug endpoints (IP allowlist in CIDR notation)
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"10.0.0.0/8,172.16.0.0/12,192.168.0.0/16,127.0.0.0/8,::1/128" envSeparator:","`

	// Slow query logging
	SlowQueryThresholdMs int `env:"LOG_SLOW_QUERY_MS" envDefault:"500"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsProduction reports whether the server runs in production.
func (c *Config) IsProduction() bool {
	return pkgconfig.IsProduction(c.Environment)
}

// ShopifyTimeout is the per-request deadline for Shopify calls.
func (c *Config) ShopifyTimeout() time.Duration {
	return time.Duration(c.ShopifyTimeoutSeconds) * time.Second
}

// UpstreamTimeout is the per-request deadline for plugin and backend API calls.
func (c *Config) UpstreamTimeout() time.Duration {
	return time.Duration(c.UpstreamTimeoutSeconds) * time.Second
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.PostgresHost == "" {
		return fmt.Errorf("POSTGRES_HOST is required")
	}
	if c.PostgresUser == "" {
		return fmt.Errorf("POSTGRES_USER is required")
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when KAFKA_ENABLED is set")
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate)
	}
	if c.MarketsCacheTTL <= 0 {
		return fmt.Errorf("MARKETS_CACHE_TTL must be positive, got %s", c.MarketsCacheTTL)
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst < 1 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	if c.ShopifyTimeoutSeconds < 1 || c.UpstreamTimeoutSeconds < 1 {
		return fmt.Errorf("upstream timeouts must be at least one second")
	}
	if len(c.DefaultCountry) != 2 {
		return fmt.Errorf("DEFAULT_COUNTRY must be a two-letter code, got %q", c.DefaultCountry)
	}
	if c.DefaultLocale == "" {
		return fmt.Errorf("DEFAULT_LOCALE is required")
	}
	if c.CookieSigningSecret == "" {
		return fmt.Errorf("COOKIE_SIGNING_SECRET is required")
	}
	if c.IsProduction() {
		if c.CookieSigningSecret == DevCookieSecret {
			return fmt.Errorf("COOKIE_SIGNING_SECRET must be set in production")
		}
		if len(c.CookieSigningSecret) < 32 {
			return fmt.Errorf("COOKIE_SIGNING_SECRET must be at least 32 characters in production")
		}
	}

	// Optional downstream URLs must parse when set.
	for name, rawURL := range map[string]string{
		"PLUGIN_API_URL":     c.PluginAPIURL,
		"BECOMING_API_URL":   c.BecomingAPIURL,
		"PAGES_UPSTREAM_URL": c.PagesUpstreamURL,
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
