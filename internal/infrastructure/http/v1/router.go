// Package v1 provides HTTP API version 1.
package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tillpoint/internal/domain/auth"
	"tillpoint/internal/domain/catalogs/customer"
	"tillpoint/internal/domain/catalogs/product"
	"tillpoint/internal/domain/registers/inventory"
	"tillpoint/internal/domain/reports"
	"tillpoint/internal/domain/sale"
	"tillpoint/internal/infrastructure/http/v1/handlers"
	"tillpoint/internal/infrastructure/http/v1/middleware"
	"tillpoint/pkg/logger"
)

// RouterConfig holds the wired services the router exposes.
type RouterConfig struct {
	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	AuthService     *auth.Service
	ProductService  *product.Service
	CustomerService *customer.Service
	StockLedger     *inventory.Ledger
	Settlement      *sale.Settlement
	SaleRepo        sale.Repository
	ReportsService  *reports.Service

	// StoragePinger is nil for the in-memory backend.
	StoragePinger  handlers.Pinger
	StorageBackend string

	// MetricsHandler serves /metrics when set.
	MetricsHandler http.Handler
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	baseHandler := handlers.NewBaseHandler()

	// Health endpoints (no auth)
	healthHandler := handlers.NewHealthHandler(cfg.StoragePinger, cfg.StorageBackend)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	if cfg.MetricsHandler != nil {
		router.GET("/metrics", gin.WrapH(cfg.MetricsHandler))
	}

	// API v1
	apiV1 := router.Group("/api/v1")
	{
		authHandler := handlers.NewAuthHandler(baseHandler, cfg.AuthService)

		// Public auth endpoints
		apiV1.POST("/auth/login", authHandler.Login)

		// Protected endpoints
		protected := apiV1.Group("")
		protected.Use(middleware.Auth(cfg.JWTValidator))

		registerAuthRoutes(protected, authHandler)
		registerCatalogRoutes(protected, baseHandler, cfg)
		registerSaleRoutes(protected, baseHandler, cfg)
		registerStockRoutes(protected, baseHandler, cfg)
		registerReportRoutes(protected, baseHandler, cfg)
	}

	return router
}

func registerAuthRoutes(rg *gin.RouterGroup, handler *handlers.AuthHandler) {
	authGroup := rg.Group("/auth")
	{
		authGroup.GET("/me", handler.Me)
		authGroup.POST("/change-password", handler.ChangePassword)
		authGroup.POST("/users", middleware.RequireRole(auth.RoleAdmin), handler.CreateUser)
		authGroup.GET("/users", middleware.RequireRole(auth.RoleAdmin), handler.ListUsers)
	}
}

func registerCatalogRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	catalogs := rg.Group("/catalog")

	productHandler := handlers.NewProductHandler(base, cfg.ProductService)
	productsGroup := catalogs.Group("/products")
	{
		productsGroup.GET("", productHandler.List)
		productsGroup.GET("/:id", productHandler.Get)
		productsGroup.GET("/barcode/:barcode", productHandler.FindByBarcode)
		productsGroup.POST("", middleware.RequireRole(auth.RoleManager, auth.RoleAdmin), productHandler.Create)
		productsGroup.PUT("/:id", middleware.RequireRole(auth.RoleManager, auth.RoleAdmin), productHandler.Update)
	}

	customerHandler := handlers.NewCustomerHandler(base, cfg.CustomerService)
	customersGroup := catalogs.Group("/customers")
	{
		customersGroup.GET("", customerHandler.List)
		customersGroup.GET("/:id", customerHandler.Get)
		customersGroup.POST("", customerHandler.Create)
	}
}

func registerSaleRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	saleHandler := handlers.NewSaleHandler(base, cfg.Settlement, cfg.SaleRepo)
	salesGroup := rg.Group("/sales")
	{
		salesGroup.POST("", saleHandler.Settle)
		salesGroup.GET("", saleHandler.List)
		salesGroup.GET("/:id", saleHandler.Get)
	}
}

func registerStockRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	stockHandler := handlers.NewStockHandler(base, cfg.StockLedger)
	stockGroup := rg.Group("/registers/stock")
	{
		stockGroup.GET("/:productId", stockHandler.GetLevels)
		stockGroup.PUT("/:productId", middleware.RequireRole(auth.RoleManager, auth.RoleAdmin), stockHandler.SetLevel)
	}
}

func registerReportRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	reportsHandler := handlers.NewReportsHandler(base, cfg.ReportsService)
	reportsGroup := rg.Group("/reports")
	reportsGroup.Use(middleware.RequireRole(auth.RoleManager, auth.RoleAdmin))
	{
		reportsGroup.GET("/sales-summary", reportsHandler.GetSalesSummary)
		reportsGroup.GET("/payment-breakdown", reportsHandler.GetPaymentBreakdown)
		reportsGroup.GET("/top-products", reportsHandler.GetTopProducts)
		reportsGroup.GET("/debtors", reportsHandler.GetDebtors)
	}
}
