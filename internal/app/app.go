package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/mattparisien/becoming-front/internal/auth"
	"github.com/mattparisien/becoming-front/internal/backend"
	"github.com/mattparisien/becoming-front/internal/config"
	"github.com/mattparisien/becoming-front/internal/event"
	"github.com/mattparisien/becoming-front/internal/guides"
	handler "github.com/mattparisien/becoming-front/internal/handler/http"
	"github.com/mattparisien/becoming-front/internal/locale"
	"github.com/mattparisien/becoming-front/internal/market"
	"github.com/mattparisien/becoming-front/internal/repository/postgres"
	"github.com/mattparisien/becoming-front/internal/repository/postgres/migrations"
	"github.com/mattparisien/becoming-front/internal/service"
	"github.com/mattparisien/becoming-front/internal/shopify"
	"github.com/mattparisien/becoming-front/pkg/database"
	"github.com/mattparisien/becoming-front/pkg/health"
	"github.com/mattparisien/becoming-front/pkg/httpclient"
	pkgkafka "github.com/mattparisien/becoming-front/pkg/kafka"
	"github.com/mattparisien/becoming-front/pkg/tracing"
)

// processedEventTTL bounds how long consumed event ids are remembered.
const processedEventTTL = 24 * time.Hour

// App wires together all dependencies and runs the storefront edge server.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	rdb            *redis.Client
	producer       *pkgkafka.Producer
	dlq            *pkgkafka.DLQProducer
	consumers      []*pkgkafka.Consumer
	httpServer     *http.Server
	tracerShutdown tracing.ShutdownFunc
	stopBackground context.CancelFunc
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.Init(ctx, tracing.Config{
		ServiceName:    "storefront",
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// Initialize PostgreSQL connection pool.
	pgCfg := database.PostgresConfig{
		Host:            cfg.PostgresHost,
		Port:            cfg.PostgresPort,
		User:            cfg.PostgresUser,
		Password:        cfg.PostgresPass,
		DBName:          cfg.PostgresDB,
		SSLMode:         cfg.PostgresSSL,
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
		MaxConnLifetime: time.Duration(cfg.DBMaxConnLifetimeMins) * time.Minute,
		MaxConnIdleTime: time.Duration(cfg.DBMaxConnIdleTimeMins) * time.Minute,
	}

	pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	prometheus.MustRegister(database.NewPoolCollector(pool))

	// Run database migrations.
	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	// Configure slow query logging.
	if cfg.SlowQueryThresholdMs > 0 {
		database.SetSlowQueryLogging(time.Duration(cfg.SlowQueryThresholdMs)*time.Millisecond, logger)
	}

	// Initialize Redis client.
	rdb, err := database.NewRedisClient(ctx, database.RedisConfig{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, logger)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis",
		slog.String("host", cfg.RedisHost),
		slog.Int("db", cfg.RedisDB),
	)

	// Shopify clients.
	shopifyCfg := shopify.Config{
		StoreDomain:     cfg.ShopifyStoreDomain,
		APIVersion:      cfg.ShopifyAPIVersion,
		StorefrontToken: cfg.ShopifyStorefrontToken,
		AdminToken:      cfg.ShopifyAdminToken,
		Timeout:         cfg.ShopifyTimeout(),
	}
	storefrontClient := shopify.NewStorefrontClient(shopifyCfg, logger)
	adminClient := shopify.NewAdminClient(shopifyCfg, logger)
	if !storefrontClient.Configured() {
		logger.Warn("shopify storefront credentials missing, cart requests will fail")
	}
	if !adminClient.Configured() {
		logger.Warn("shopify admin credentials missing, routing uses default markets only")
	}

	// Market configuration cache shared through redis.
	marketCache := market.NewCache(
		shopify.NewMarketAPI(adminClient),
		market.NewRedisStore(rdb, cfg.MarketsCacheTTL),
		cfg.MarketsCacheTTL,
		logger,
		market.WithDefaults(market.Defaults{
			Country:           cfg.DefaultCountry,
			Locale:            cfg.DefaultLocale,
			BasePath:          cfg.BasePath,
			BasePathOverrides: cfg.BasePathOverrides,
		}),
	)

	// Kafka: cart events out, market invalidations in.
	var (
		producer  *pkgkafka.Producer
		dlq       *pkgkafka.DLQProducer
		consumers []*pkgkafka.Consumer
		publisher event.Publisher = event.Discard{}
	)
	if cfg.KafkaEnabled {
		producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		publisher = producer
		dlq = pkgkafka.NewDLQProducer(cfg.KafkaBrokers, logger)

		idempotency := pkgkafka.NewRedisIdempotencyStore(rdb, "storefront:events:", processedEventTTL)
		invalidate := pkgkafka.IdempotentHandler(idempotency, market.InvalidationHandler(marketCache, logger), logger)
		consumer := pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
			Brokers:  cfg.KafkaBrokers,
			GroupID:  cfg.KafkaGroupID,
			Topic:    market.TopicMarketsUpdated,
			MinBytes: 1,
			MaxBytes: 10e6, // 10 MB
		}, invalidate, logger).WithDLQ(dlq)
		consumers = append(consumers, consumer)

		logger.Info("kafka initialized",
			slog.Any("brokers", cfg.KafkaBrokers),
			slog.String("group_id", cfg.KafkaGroupID),
		)
	} else {
		logger.Warn("kafka disabled, cart events are dropped")
	}

	// Build the dependency graph.
	secure := cfg.IsProduction()
	signer := auth.NewCookieSigner(cfg.CookieSigningSecret)
	prefs := locale.NewPreferencesCodec(signer, secure)

	cartService := service.NewCartService(shopify.NewCartAPI(storefrontClient, logger), event.NewProducer(publisher, logger), logger)
	contactService := service.NewContactService(postgres.NewContactRepository(pool), logger)

	// Plugin and backend APIs sit behind their own circuit breakers.
	upstream := httpclient.New(httpclient.UpstreamConfig(cfg.UpstreamTimeout()))
	unavailable := httpclient.UnavailableFallback("Service temporarily unavailable")
	pluginAPI := httpclient.NewBreakerClient(upstream, httpclient.DefaultBreakerConfig("plugin-api"), logger).
		WithFallback(unavailable)
	backendAPI := httpclient.NewBreakerClient(upstream, httpclient.DefaultBreakerConfig("becoming-api"), logger).
		WithFallback(unavailable)

	var pagesTarget *url.URL
	if cfg.PagesUpstreamURL != "" {
		pagesTarget, err = url.Parse(cfg.PagesUpstreamURL)
		if err != nil {
			pool.Close()
			_ = rdb.Close()
			return nil, fmt.Errorf("parse pages upstream: %w", err)
		}
	}

	handlers := handler.Handlers{
		Cart:     handler.NewCartHandler(cartService, handler.NewBuyerResolver(prefs, cfg.StorefrontCountry, cfg.StorefrontLanguage), secure, logger),
		Checkout: handler.NewCheckoutHandler(cartService, logger),
		Guides: handler.NewGuideHandler(
			guides.NewVerifier(pluginAPI, cfg.PluginAPIURL, cfg.PluginAPIKey, logger),
			guides.NewSessions(signer, secure),
			logger,
		),
		Orders:  handler.NewOrderHandler(backend.NewClient(backendAPI, cfg.BecomingAPIURL, cfg.BecomingAPIKey, logger), logger),
		Contact: handler.NewContactHandler(contactService, logger),
		Markets: handler.NewMarketHandler(marketCache, prefs, logger),
		Pages:   handler.NewPageProxy(pagesTarget, logger),
	}

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.Register("redis", func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	if producer != nil {
		healthHandler.RegisterOptional("kafka", producer.Ping)
	}
	healthHandler.RegisterOptional("plugin-api", pluginAPI.Check)
	healthHandler.RegisterOptional("becoming-api", backendAPI.Check)
	healthHandler.RegisterOptional("markets", func(ctx context.Context) error {
		_, err := marketCache.Config(ctx)
		return err
	})

	// HTTP router.
	bgCtx, stopBackground := context.WithCancel(context.Background())
	router := handler.NewRouter(bgCtx, handlers, locale.NewRouter(marketCache, prefs, logger), healthHandler, handler.RouterConfig{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		AdminToken:     cfg.AdminToken,
		PprofCIDRs:     cfg.PprofAllowedCIDRs,
	}, logger)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      35 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		rdb:            rdb,
		producer:       producer,
		dlq:            dlq,
		consumers:      consumers,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
		stopBackground: stopBackground,
	}, nil
}

// Run starts the HTTP server and Kafka consumers, blocking until the context
// is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1+len(a.consumers))

	// Start Kafka consumers in background goroutines.
	for _, c := range a.consumers {
		go func(c *pkgkafka.Consumer) {
			if err := c.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("kafka consumer: %w", err)
			}
		}(c)
	}

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		_ = a.Shutdown()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	// Graceful HTTP server shutdown with a 10-second deadline.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}
	a.stopBackground()

	// Close Kafka consumers.
	for _, c := range a.consumers {
		if err := c.Close(); err != nil {
			a.logger.Error("kafka consumer close error", slog.String("error", err.Error()))
		}
	}
	if a.dlq != nil {
		if err := a.dlq.Close(); err != nil {
			a.logger.Error("kafka dlq close error", slog.String("error", err.Error()))
		}
	}

	// Close Kafka producer.
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		}
	}

	// Close Redis client.
	if err := a.rdb.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
	}

	// Close PostgreSQL pool.
	a.pool.Close()

	if err := a.tracerShutdown(shutdownCtx); err != nil {
		a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
	}

	a.logger.Info("application shutdown complete")
	return nil
}
