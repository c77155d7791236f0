// Package main is the entry point for the tillpoint API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"tillpoint/internal/config"
	"tillpoint/internal/core/tx"
	"tillpoint/internal/core/types"
	"tillpoint/internal/domain/auth"
	"tillpoint/internal/domain/catalogs/customer"
	"tillpoint/internal/domain/catalogs/product"
	"tillpoint/internal/domain/registers/balance"
	"tillpoint/internal/domain/registers/inventory"
	"tillpoint/internal/domain/reports"
	"tillpoint/internal/domain/sale"
	"tillpoint/internal/infrastructure/broker"
	"tillpoint/internal/infrastructure/cache"
	v1 "tillpoint/internal/infrastructure/http/v1"
	"tillpoint/internal/infrastructure/metrics"
	"tillpoint/internal/infrastructure/storage/memory"
	"tillpoint/internal/infrastructure/storage/postgres"
	"tillpoint/internal/infrastructure/storage/postgres/auth_repo"
	"tillpoint/internal/infrastructure/storage/postgres/catalog_repo"
	"tillpoint/internal/infrastructure/storage/postgres/document_repo"
	"tillpoint/internal/infrastructure/storage/postgres/register_repo"
	"tillpoint/internal/infrastructure/storage/postgres/report_repo"
	"tillpoint/pkg/logger"
	"tillpoint/pkg/receiptno"
)

// backendServices holds everything the router needs that depends on the
// selected storage backend.
type backendServices struct {
	products  product.Repository
	customers customer.Repository
	balances  balance.Repository
	stock     inventory.Repository
	sales     sale.Repository
	users     auth.Repository
	reports   reports.Repository
	numbers   sale.NumberSource
	txManager tx.Manager

	events   sale.EventPublisher
	txEvents sale.EventPublisher
	audit    sale.AuditLog

	pinger  *postgres.Pool
	cleanup func()
}

func main() {
	cfg := config.Load()

	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Format != "json",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Infow("starting tillpoint server", "storage", cfg.Storage.Backend)

	svcs, err := buildBackend(ctx, cfg, log)
	if err != nil {
		log.Fatalw("failed to initialize storage backend", "error", err)
	}
	defer svcs.cleanup()

	// --- Optional barcode cache ---
	var productCache product.Cache
	if cfg.Redis.Enabled {
		redisCache := cache.NewProductCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL)
		if err := redisCache.Ping(ctx); err != nil {
			log.Warnw("redis unavailable, barcode cache disabled", "error", err)
		} else {
			productCache = redisCache
			defer redisCache.Close()
			log.Infow("barcode cache enabled", "addr", cfg.Redis.Addr)
		}
	}

	// --- Domain services ---
	productService := product.NewService(svcs.products, productCache)
	customerService := customer.NewService(svcs.customers)
	stockLedger := inventory.NewLedger(svcs.stock)
	balanceLedger := balance.NewLedger(svcs.balances)
	reportsService := reports.NewService(svcs.reports)

	jwtService := auth.NewJWTService(auth.JWTConfig{
		Secret:         cfg.Auth.JWTSecret,
		Issuer:         "tillpoint",
		AccessTokenTTL: cfg.Auth.AccessTokenTTL,
	})
	authService := auth.NewService(svcs.users, jwtService, auth.DefaultServiceConfig())

	// --- Metrics ---
	settlementMetrics := metrics.NewSettlement(prometheus.DefaultRegisterer)

	// --- Settlement engine ---
	settlement := sale.NewSettlement(
		svcs.products,
		svcs.customers,
		stockLedger,
		balanceLedger,
		svcs.sales,
		svcs.numbers,
		svcs.txManager,
		sale.SettlementConfig{Tax: types.MinorUnits(cfg.Settlement.FlatTaxMinorUnits)},
	).WithMetrics(settlementMetrics)

	if svcs.txEvents != nil {
		settlement = settlement.WithTransactionalEvents(svcs.txEvents)
	}
	if svcs.events != nil {
		settlement = settlement.WithEvents(svcs.events)
	}
	if svcs.audit != nil {
		settlement = settlement.WithAudit(svcs.audit)
	}

	// --- Router ---
	routerCfg := v1.RouterConfig{
		Logger:          log,
		JWTValidator:    jwtService,
		AuthService:     authService,
		ProductService:  productService,
		CustomerService: customerService,
		StockLedger:     stockLedger,
		Settlement:      settlement,
		SaleRepo:        svcs.sales,
		ReportsService:  reportsService,
		StorageBackend:  cfg.Storage.Backend,
		MetricsHandler:  metrics.Handler(),
	}
	if svcs.pinger != nil {
		routerCfg.StoragePinger = svcs.pinger
	}
	router := v1.NewRouter(routerCfg)

	// --- HTTP server ---
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

// buildBackend wires repositories for the configured storage backend.
func buildBackend(ctx context.Context, cfg *config.Config, log *logger.Logger) (*backendServices, error) {
	switch cfg.Storage.Backend {
	case config.StoragePostgres:
		return buildPostgresBackend(ctx, cfg, log)
	case config.StorageMemory:
		return buildMemoryBackend(cfg, log)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

func buildPostgresBackend(ctx context.Context, cfg *config.Config, log *logger.Logger) (*backendServices, error) {
	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.Storage.DatabaseURL))
	if err != nil {
		return nil, err
	}
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	auditService, err := postgres.NewAuditService(txManager)
	if err != nil {
		pool.Close()
		return nil, err
	}

	svcs := &backendServices{
		products:  catalog_repo.NewProductRepo(txManager),
		customers: catalog_repo.NewCustomerRepo(txManager),
		balances:  register_repo.NewBalanceRepo(txManager),
		stock:     register_repo.NewInventoryRepo(txManager),
		sales:     document_repo.NewSaleRepo(txManager),
		users:     auth_repo.NewUserRepo(txManager),
		reports:   report_repo.NewReportRepo(txManager),
		numbers: receiptno.New(pool, receiptno.DefaultConfig("S"), receiptno.Options{
			Strategy: receiptno.StrategyStrict,
		}),
		txManager: txManager,
		audit:     auditService,
		pinger:    pool,
		cleanup:   pool.Close,
	}

	// Sale events go through the transactional outbox; the worker
	// process relays them to Kafka.
	if cfg.Kafka.Enabled {
		svcs.txEvents = postgres.NewSaleEventPublisher(postgres.NewOutboxPublisher(txManager))
	}

	return svcs, nil
}

func buildMemoryBackend(cfg *config.Config, log *logger.Logger) (*backendServices, error) {
	products := memory.NewProductRepo()
	customers := memory.NewCustomerRepo()
	sales := memory.NewSaleRepo()

	svcs := &backendServices{
		products:  products,
		customers: customers,
		balances:  customers,
		stock:     memory.NewInventoryRepo(cfg.Storage.LockTimeout),
		sales:     sales,
		users:     memory.NewUserRepo(),
		reports:   memory.NewReportRepo(sales, customers, products),
		numbers:   receiptno.NewMemory(receiptno.DefaultConfig("S")),
		txManager: tx.None{},
		cleanup:   func() {},
	}

	// Without a durable outbox, events publish directly after commit.
	if cfg.Kafka.Enabled {
		producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicSales)
		svcs.events = broker.NewSaleEventPublisher(producer)
		svcs.cleanup = func() {
			if err := producer.Close(); err != nil {
				log.Warnw("kafka producer close failed", "error", err)
			}
		}
	}

	log.Info("in-memory storage initialized")
	return svcs, nil
}
