package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Pood16/REST-API-V1/config"
	"github.com/Pood16/REST-API-V1/internal/app/controller"
	"github.com/Pood16/REST-API-V1/internal/app/repository"
	"github.com/Pood16/REST-API-V1/internal/app/service"
	"github.com/Pood16/REST-API-V1/internal/db"
	"github.com/Pood16/REST-API-V1/internal/middleware"
	"github.com/Pood16/REST-API-V1/internal/router"
	"github.com/Pood16/REST-API-V1/internal/scheduler"
	"github.com/Pood16/REST-API-V1/pkg/logger"
	"github.com/Pood16/REST-API-V1/pkg/payment/stripe"
	"github.com/Pood16/REST-API-V1/pkg/redis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	logLevel := "info"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      "console", // Use "json" for production
		EnableColor: true,
	})

	logger.Info("Starting store API server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Redis backs token revocation and the cart merge lock. The server
	// still works without it, with both degraded to no-ops.
	if err := redis.Init(&cfg.Redis); err != nil {
		logger.Warn("Redis unavailable, token blacklist and merge lock disabled", map[string]interface{}{
			"error": err.Error(),
		})
	}
	defer func() {
		if err := redis.Close(); err != nil {
			logger.Error("Failed to close redis connection", err)
		}
	}()

	stripeClient, err := stripe.NewClient(stripe.Config{
		SecretKey: cfg.Payment.Stripe.SecretKey,
		BaseURL:   cfg.Payment.Stripe.BaseURL,
		Currency:  cfg.Payment.Stripe.Currency,
	})
	if err != nil {
		logger.Fatal("Failed to initialize payment client", err)
	}

	// Repositories
	userRepo := repository.NewUserRepository(db.GetDB())
	categoryRepo := repository.NewCategoryRepository(db.GetDB())
	productRepo := repository.NewProductRepository(db.GetDB())
	cartRepo := repository.NewCartRepository(db.GetDB())
	orderRepo := repository.NewOrderRepository(db.GetDB())
	paymentRepo := repository.NewPaymentRepository(db.GetDB())

	// Services
	authService := service.NewAuthService(userRepo, cfg.JWT)
	categoryService := service.NewCategoryService(categoryRepo)
	productService := service.NewProductService(productRepo, categoryRepo)
	cartService := service.NewCartService(cartRepo, productRepo, db.GetDB(), cfg.Cart)
	checkoutService := service.NewCheckoutService(
		orderRepo,
		paymentRepo,
		db.GetDB(),
		stripeClient,
		cfg.Cart,
		cfg.Payment.Stripe.Currency,
	)
	defer cartService.StopCleanupTimers()

	// Controllers
	authController := controller.NewAuthController(authService, cartService)
	categoryController := controller.NewCategoryController(categoryService)
	productController := controller.NewProductController(productService)
	cartController := controller.NewCartController(cartService)
	checkoutController := controller.NewCheckoutController(checkoutService)

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)

	r := router.NewRouter(
		authController,
		categoryController,
		productController,
		cartController,
		checkoutController,
		authMiddleware,
		cfg,
	)
	engine := r.Setup()

	cartScheduler := scheduler.NewCartScheduler(cartService)
	if err := cartScheduler.Start(); err != nil {
		logger.Fatal("Failed to start cart scheduler", err)
	}
	defer cartScheduler.Stop()

	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server started successfully", map[string]interface{}{
			"address": addr,
			"pid":     os.Getpid(),
		})
		if err := engine.Run(addr); err != nil {
			logger.Fatal("Failed to start server", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")
	logger.Info("Server stopped successfully")
}
