package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ogurasousui/employee-sync-adapter/internal/adapters/http/handler"
	"github.com/ogurasousui/employee-sync-adapter/internal/adapters/oauth"
	"github.com/ogurasousui/employee-sync-adapter/internal/adapters/remote"
	"github.com/ogurasousui/employee-sync-adapter/internal/adapters/repository/postgres"
	"github.com/ogurasousui/employee-sync-adapter/internal/adapters/tokencache"
	"github.com/ogurasousui/employee-sync-adapter/internal/core/employee"
	"github.com/ogurasousui/employee-sync-adapter/internal/core/provider"
	"github.com/ogurasousui/employee-sync-adapter/internal/platform/config"
	pg "github.com/ogurasousui/employee-sync-adapter/internal/platform/db/postgres"
	"github.com/ogurasousui/employee-sync-adapter/internal/platform/logging"
	"github.com/ogurasousui/employee-sync-adapter/internal/platform/metrics"
	"github.com/ogurasousui/employee-sync-adapter/internal/platform/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "assets/local.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fallback := zerolog.New(os.Stderr)
		fallback.Fatal().Err(err).Msg("failed to load config")
	}

	logger := logging.New(cfg.Log)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server stopped with error")
	}
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := metrics.New(reg)
	if err != nil {
		return err
	}

	dbPool, err := pg.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer dbPool.Close()

	cache, err := tokencache.New(cfg.TokenCache)
	if err != nil {
		return err
	}
	defer cache.Close()

	httpClient := &http.Client{Timeout: cfg.Remote.Timeout}

	authenticator := oauth.NewAuthenticator(oauth.Config{
		TokenURL:     cfg.Remote.TokenURL,
		ClientID:     cfg.Remote.ClientID,
		ClientSecret: cfg.Remote.ClientSecret,
		Scope:        cfg.Remote.Scope,
		CacheKey:     cfg.TokenCache.Key,
		TTL:          cfg.TokenCache.TTL,
	}, cache,
		oauth.WithHTTPClient(httpClient),
		oauth.WithLogger(logger.With().Str("component", "oauth").Logger()),
		oauth.WithMetrics(m),
	)

	remoteClient := remote.NewClient(cfg.Remote.BaseURL, authenticator,
		remote.WithHTTPClient(httpClient),
		remote.WithLogger(logger.With().Str("component", "remote").Logger()),
		remote.WithMetrics(m),
	)

	repo := postgres.NewEmployeeRepository(dbPool)
	txManager := pg.NewTransactionManager(dbPool)
	svc := employee.NewService(repo, remoteClient, txManager, logger.With().Str("component", "sync").Logger())

	validator := provider.NewValidator()
	employees := handler.NewEmployeeHandler(svc, provider.NewResolver(validator), m, logger.With().Str("component", "http").Logger())
	router := server.NewRouter(server.RouterDeps{
		Employees:    employees,
		Validator:    validator,
		ProviderAuth: cfg.ProviderAuth,
		Gatherer:     reg,
		Metrics:      m,
		Logger:       logger,
	})

	return server.New(cfg.Server, router, logger).Run(ctx)
}
