package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/ogurasousui/employee-sync-adapter/internal/adapters/http/handler"
	apimw "github.com/ogurasousui/employee-sync-adapter/internal/adapters/http/middleware"
	"github.com/ogurasousui/employee-sync-adapter/internal/core/provider"
	"github.com/ogurasousui/employee-sync-adapter/internal/platform/config"
	"github.com/ogurasousui/employee-sync-adapter/internal/platform/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// maxRequestBody はリクエストボディの上限で、超えた場合は 413 を返します。
const maxRequestBody = "1M"

// RouterDeps は HTTP ルーターの構築に必要な依存です。
// Validator が nil の場合は provider.NewValidator を使います。
type RouterDeps struct {
	Employees    *handler.EmployeeHandler
	Validator    echo.Validator
	ProviderAuth config.ProviderAuthConfig
	Gatherer     prometheus.Gatherer
	Metrics      *metrics.Metrics
	Logger       zerolog.Logger
}

// NewRouter は echo のルーターを構築します。
func NewRouter(d RouterDeps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = d.Validator
	if e.Validator == nil {
		e.Validator = provider.NewValidator()
	}

	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(echomw.BodyLimit(maxRequestBody))
	e.Use(apimw.RequestLogger(d.Logger, d.Metrics))
	e.Use(echomw.Recover())

	e.GET("/health", handler.Health)
	if d.Gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	providers := e.Group("/:provider", apimw.ProviderToken(d.ProviderAuth), apimw.EscapeCharacters())
	d.Employees.RegisterRoutes(providers)

	return e
}

// Server は HTTP API とヘルスチェック用 gRPC サーバーのライフサイクルを管理します。
type Server struct {
	httpAddr        string
	healthAddr      string
	shutdownTimeout time.Duration
	httpServer      *http.Server
	grpcServer      *grpc.Server
	health          *health.Server
	logger          zerolog.Logger
}

// New は Server を構築します。health_addr が空の場合 gRPC リスナーは起動しません。
func New(cfg config.ServerConfig, h http.Handler, logger zerolog.Logger, opts ...grpc.ServerOption) *Server {
	s := &Server{
		httpAddr:        cfg.HTTPAddr,
		healthAddr:      cfg.HealthAddr,
		shutdownTimeout: cfg.ShutdownTimeout,
		httpServer: &http.Server{
			Handler:           h,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		health: health.NewServer(),
		logger: logger,
	}
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)

	if s.healthAddr != "" {
		s.grpcServer = grpc.NewServer(opts...)
		healthpb.RegisterHealthServer(s.grpcServer, s.health)
	}
	if s.shutdownTimeout <= 0 {
		s.shutdownTimeout = 10 * time.Second
	}

	return s
}

// Run はサーバーを起動し、コンテキストがキャンセルされるとグレースフルに停止します。
func (s *Server) Run(ctx context.Context) error {
	httpLis, err := net.Listen("tcp", s.httpAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.httpAddr, err)
	}

	var healthLis net.Listener
	if s.grpcServer != nil {
		healthLis, err = net.Listen("tcp", s.healthAddr)
		if err != nil {
			_ = httpLis.Close()
			return fmt.Errorf("listen on %s: %w", s.healthAddr, err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := s.httpServer.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})

	if healthLis != nil {
		g.Go(func() error {
			if err := s.grpcServer.Serve(healthLis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				return fmt.Errorf("serve gRPC health: %w", err)
			}
			return nil
		})
	}

	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.logger.Info().
		Str("http_addr", httpLis.Addr().String()).
		Str("health_addr", s.healthAddr).
		Msg("server started")

	g.Go(func() error {
		<-gctx.Done()
		return s.shutdown()
	})

	return g.Wait()
}

func (s *Server) shutdown() error {
	s.health.Shutdown()
	s.logger.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if s.grpcServer != nil {
		stopped := make(chan struct{})
		go func() {
			s.grpcServer.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-ctx.Done():
			s.grpcServer.Stop()
		}
	}

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown http: %w", err)
	}
	return nil
}
