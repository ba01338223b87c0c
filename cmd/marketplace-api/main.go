package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/brail/marketplace/internal/config"
	sagasqlite "github.com/brail/marketplace/internal/coordinator/sagalog/sqlite"
	"github.com/brail/marketplace/internal/marketplace/core/domain/entity"
	"github.com/brail/marketplace/internal/marketplace/core/ports"
	"github.com/brail/marketplace/internal/marketplace/core/services"
	"github.com/brail/marketplace/internal/marketplace/infra/adapters/payment"
	"github.com/brail/marketplace/internal/marketplace/infra/adapters/receipts"
	"github.com/brail/marketplace/internal/marketplace/infra/adapters/session"
	"github.com/brail/marketplace/internal/marketplace/infra/adapters/sqlstore"
	"github.com/brail/marketplace/internal/marketplace/infra/httpx"
	"github.com/brail/marketplace/internal/pkg/cache"
	"github.com/brail/marketplace/internal/pkg/events"
	"github.com/brail/marketplace/internal/pkg/interceptors"
	"github.com/brail/marketplace/internal/pkg/telemetry"
)

const healthService = "brail.marketplace"

var demoAccounts = []struct {
	reg  entity.Registration
	role entity.Role
}{
	{entity.Registration{Name: "Test User", Email: "test@example.com", Password: "password123", CNPJ: "11222333000181", Phone: "+55 11 90000-0001", EmployeeCount: "1-10", MonthlyRevenue: "0-50k"}, entity.RoleUser},
	{entity.Registration{Name: "Administrator", Email: "admin@example.com", Password: "admin123", CNPJ: "00000000000191", Phone: "+55 11 90000-0002", EmployeeCount: "1-10", MonthlyRevenue: "0-50k"}, entity.RoleAdmin},
	{entity.Registration{Name: "Logistics Origin", Email: "logistics1@example.com", Password: "logistics123", CNPJ: "00000000000272", Phone: "+55 11 90000-0003", EmployeeCount: "1-10", MonthlyRevenue: "0-50k"}, entity.RoleLogistics1},
	{entity.Registration{Name: "Logistics Brazil", Email: "logistics2@example.com", Password: "logistics123", CNPJ: "00000000000353", Phone: "+55 11 90000-0004", EmployeeCount: "1-10", MonthlyRevenue: "0-50k"}, entity.RoleLogistics2},
}

func main() {
	cfg := config.Load()
	telemetry.InitLogger(cfg.OTelServiceName, cfg.LogLevel)

	if err := run(cfg); err != nil {
		slog.Error("marketplace api stopped", "error", err)
		os.Exit(1)
	}
}

// run owns everything that needs cleanup, so main only exits once it returned.
func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.SetupTracer(ctx, cfg.OTelServiceName, cfg.OTelEnabled)
	if err != nil {
		return fmt.Errorf("initialise tracer: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			slog.Error("tracer shutdown error", "error", err)
		}
	}()

	return serve(ctx, cfg)
}

func serve(ctx context.Context, cfg *config.Config) error {
	if cfg.DBDriver != "postgres" {
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
			return err
		}
	}
	store, err := sqlstore.Open(ctx, cfg.DBDriver, cfg.DSN())
	if err != nil {
		return err
	}
	defer store.Close()

	if err := os.MkdirAll(filepath.Dir(cfg.SagaLogPath), 0o755); err != nil {
		return err
	}
	sagaLog, err := sagasqlite.Open(cfg.SagaLogPath)
	if err != nil {
		return err
	}
	defer sagaLog.Close()

	c, err := newCache(ctx, cfg)
	if err != nil {
		return err
	}

	publisher, closePublisher, err := newPublisher(cfg)
	if err != nil {
		return err
	}
	defer closePublisher()

	auth := services.NewAuthService(store, session.NewStore(c), cfg.SessionTTL)
	if cfg.SeedDemoData {
		if err := seed(ctx, store, auth); err != nil {
			return err
		}
	}

	gateway := newGateway(cfg)
	h := httpx.NewHandler(httpx.Services{
		Auth:     auth,
		Catalog:  services.NewCatalogService(store, c, cfg.CatalogCacheTTL),
		Cart:     services.NewCartService(store, decimal.NewFromFloat(cfg.MinInvestment)),
		Orders:   services.NewOrderService(store, publisher, receipts.NewLocalStorage(cfg.ReceiptDir), sagaLog, c),
		Checkout: services.NewCheckoutService(store, publisher, sagaLog, c),
		Payments: services.NewPaymentService(gateway),
		Samples:  services.NewSampleService(store, gateway, publisher),
	})

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpx.NewRouter(h),
		ReadHeaderTimeout: 10 * time.Second,
	}

	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(interceptors.UnaryServerInterceptor(), interceptors.TraceServerInterceptor()),
	)
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(healthService, healthpb.HealthCheckResponse_SERVING)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return err
	}

	errCh := make(chan error, 2)
	go func() {
		slog.Info("marketplace HTTP API running", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	go func() {
		slog.Info("gRPC health server running", "addr", cfg.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- err
		}
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		slog.Info("shutting down")
	case serveErr = <-errCh:
		slog.Error("server failed, shutting down", "error", serveErr)
	}

	healthServer.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown error", "error", err)
	}
	grpcServer.GracefulStop()
	return serveErr
}

func newCache(ctx context.Context, cfg *config.Config) (cache.Cache, error) {
	if cfg.RedisAddr == "" {
		slog.Info("REDIS_ADDR not set, using in-memory cache")
		return cache.NewMemoryCache("marketplace"), nil
	}
	c := cache.NewRedisCache(cfg.RedisAddr, "marketplace")
	if err := cache.Ping(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func newPublisher(cfg *config.Config) (ports.EventPublisher, func(), error) {
	if cfg.RabbitMQURL == "" {
		slog.Info("RABBITMQ_URL not set, order events are dropped")
		return events.NopPublisher{}, func() {}, nil
	}
	pool, err := events.NewChannelPool(cfg.RabbitMQURL, cfg.OrderEventsQueue, cfg.ChannelPoolSize)
	if err != nil {
		return nil, nil, err
	}
	return events.NewAMQPPublisher(pool, cfg.OrderEventsQueue), pool.Close, nil
}

func newGateway(cfg *config.Config) ports.PaymentGateway {
	if cfg.StripeSecretKey == "" {
		slog.Warn("STRIPE_SECRET_KEY not set, using the fake payment gateway")
		return payment.NewFakeGateway()
	}
	return payment.NewStripeGateway(cfg.StripeSecretKey)
}

func seed(ctx context.Context, store *sqlstore.Store, auth *services.AuthService) error {
	if err := store.SeedCatalog(ctx); err != nil {
		return err
	}
	for _, acc := range demoAccounts {
		if _, err := auth.EnsureAccount(ctx, acc.reg, acc.role); err != nil {
			return err
		}
	}
	return nil
}
