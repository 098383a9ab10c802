package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tradehaus/wholesale-api/internal/cache"
	"github.com/tradehaus/wholesale-api/internal/config"
	"github.com/tradehaus/wholesale-api/internal/database"
	"github.com/tradehaus/wholesale-api/internal/handler"
	"github.com/tradehaus/wholesale-api/internal/middleware"
	"github.com/tradehaus/wholesale-api/internal/repository"
	"github.com/tradehaus/wholesale-api/internal/service"
	"github.com/tradehaus/wholesale-api/internal/sse"
	"github.com/tradehaus/wholesale-api/internal/utils"
	"github.com/tradehaus/wholesale-api/internal/worker"
	"github.com/tradehaus/wholesale-api/pkg/mailer"
)

// main is the application entrypoint for the wholesale ordering API.
func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Setup logger
	setupLogger(cfg.Env)
	log.Info().
		Str("env", cfg.Env).
		Str("reservation_policy", string(cfg.Reservation)).
		Msg("starting wholesale api")

	utils.SetJWTSecret(cfg.JWTSecret)

	// 3. Connect database
	db, err := database.Connect(&cfg.DB)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		fmt.Fprintf(os.Stderr, "database connection failed: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	// 3a. Run migrations
	if err := runMigrations(db.DB); err != nil {
		log.Error().Err(err).Msg("migration failed")
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}
	log.Info().Msg("migrations completed successfully")

	// 3b. Connect to Redis
	redisClient, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.Error().Err(err).Msg("redis connection failed")
		fmt.Fprintf(os.Stderr, "redis connection failed: %v\n", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected successfully")

	// 3c. Server-side cart storage
	cartCache := cache.NewCartCache(redisClient, cfg.Cart.TTL)

	// 4. Initialize repositories
	productRepo := repository.NewProductRepository(db)
	reservationRepo := repository.NewReservationRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	adminRepo := repository.NewAdminUserRepository(db)

	// 5. SSE hub for live stock updates
	hub := sse.NewHub()
	notifier := sse.NewHubNotifier(hub)

	// 6. Initialize services
	mailClient := mailer.NewClient(cfg.Mailer.BaseURL, cfg.Mailer.APIKey)
	notificationSvc := service.NewNotificationService(mailClient, cfg.Mailer.FromEmail, cfg.Mailer.AdminEmail)

	catalogSvc := service.NewCatalogService(productRepo)
	cartSvc := service.NewCartService(cartCache, productRepo, reservationRepo, cfg.Reservation, notifier)
	orderSvc := service.NewOrderService(orderRepo, cartCache, productRepo, notificationSvc, notifier, cfg.Reservation)
	importSvc := service.NewImportService(productRepo)
	productMgmtSvc := service.NewProductManagementService(productRepo, notifier)
	adminAuthSvc := service.NewAdminAuthService(adminRepo)

	mediaSvc, err := service.NewMediaService(context.Background(), cfg.S3.Region, cfg.S3.Bucket)
	if err != nil {
		log.Warn().Err(err).Msg("S3 client initialization failed - image upload will be disabled")
		mediaSvc = nil
	}

	// 7. Initialize handlers
	handlers := &Handlers{
		Health:            handler.NewHealthHandler(db, redisClient),
		Catalog:           handler.NewCatalogHandler(catalogSvc),
		Cart:              handler.NewCartHandler(cartSvc),
		Order:             handler.NewOrderHandler(orderSvc),
		SSE:               handler.NewSSEHandler(hub),
		Auth:              handler.NewAuthHandler(adminAuthSvc),
		ProductManagement: handler.NewProductManagementHandler(productMgmtSvc, mediaSvc),
		Import:            handler.NewImportHandler(importSvc),
		Customer:          handler.NewCustomerHandler(customerRepo),
		AdminOrder:        handler.NewAdminOrderHandler(orderSvc),
	}

	// 8. Initialize middleware
	jwtMw := middleware.NewJWTMiddleware()
	loginLimiter := middleware.NewLoginRateLimiter()

	// 9. Setup router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.LoggingMiddleware())
	setupRoutes(router, handlers, jwtMw, loginLimiter)

	// 10. Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 11. Start workers
	if cfg.Reservation == config.ReservationEager {
		go worker.NewReservationSweeper(reservationRepo, cfg.Cart.TTL, cfg.Worker.ReservationSweepInterval).Start(ctx)
	}

	// 12. Start HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// 13. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// 14. Cancel context to stop workers
	cancel()

	// 15. Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

// Handlers groups all HTTP handlers used by the server.
type Handlers struct {
	Health            *handler.HealthHandler
	Catalog           *handler.CatalogHandler
	Cart              *handler.CartHandler
	Order             *handler.OrderHandler
	SSE               *handler.SSEHandler
	Auth              *handler.AuthHandler
	ProductManagement *handler.ProductManagementHandler
	Import            *handler.ImportHandler
	Customer          *handler.CustomerHandler
	AdminOrder        *handler.AdminOrderHandler
}

// setupRoutes registers all routes.
func setupRoutes(router *gin.Engine, handlers *Handlers, jwtMiddleware *middleware.JWTMiddleware, loginLimiter *middleware.LoginRateLimiter) {
	router.GET("/v1/health", handlers.Health.Health)

	// Storefront catalog (public)
	catalog := router.Group("/v1/catalog")
	{
		catalog.GET("/groups", handlers.Catalog.GetGroups)
		catalog.GET("/products", handlers.Catalog.GetProducts)
		catalog.GET("/products/:id", handlers.Catalog.GetProduct)
		catalog.GET("/facets", handlers.Catalog.GetFacets)
	}

	// Storefront cart (public, addressed by opaque token)
	cart := router.Group("/v1/cart")
	{
		cart.POST("", handlers.Cart.CreateCart)
		cart.GET("/:token", handlers.Cart.GetCart)
		cart.DELETE("/:token", handlers.Cart.ClearCart)
		cart.POST("/:token/items", handlers.Cart.AddItem)
		cart.PUT("/:token/items/:productId", handlers.Cart.UpdateItem)
	}

	// Storefront order submission (public)
	router.POST("/v1/orders", handlers.Order.Submit)

	// Live stock stream (public)
	router.GET("/v1/stream", handlers.SSE.Stream)

	// Admin routes
	admin := router.Group("/v1/admin")
	admin.POST("/auth/login", loginLimiter.Handle(), handlers.Auth.Login)
	admin.Use(jwtMiddleware.Handle())
	{
		// Catalog management (reads reuse the storefront handlers)
		admin.GET("/products", handlers.Catalog.GetProducts)
		admin.GET("/products/facets", handlers.Catalog.GetFacets)
		admin.GET("/products/:id", handlers.Catalog.GetProduct)
		admin.POST("/products", handlers.ProductManagement.Create)
		admin.PUT("/products/:id", handlers.ProductManagement.Update)
		admin.DELETE("/products/:id", handlers.ProductManagement.Delete)
		admin.POST("/products/:id/image", handlers.ProductManagement.UploadImage)

		// Bulk import
		admin.POST("/products/import", handlers.Import.Import)

		// Customer directory
		admin.GET("/customers", handlers.Customer.List)

		// Order management
		admin.GET("/orders", handlers.AdminOrder.List)
		admin.GET("/orders/:id", handlers.AdminOrder.Get)
		admin.PUT("/orders/:id/status", handlers.AdminOrder.UpdateStatus)
	}
}

// runMigrations runs database migrations using golang-migrate.
func runMigrations(db *sql.DB) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres", driver)
	if err != nil {
		return fmt.Errorf("could not create migration instance: %w", err)
	}

	// Run migrations
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

func setupLogger(env string) {
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}
