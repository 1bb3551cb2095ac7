package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"storefront-api/config"
	"storefront-api/controllers"
	"storefront-api/database"
	"storefront-api/models"
	"storefront-api/repository"
	"storefront-api/routes"
	"storefront-api/sender"
	"storefront-api/services"
)

const guestCartTTL = 7 * 24 * time.Hour

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	db, err := database.ConnectPostgres(cfg, logger,
		&models.Product{},
		&models.CartEntry{},
		&models.Order{},
		&models.OrderItem{},
	)
	if err != nil {
		logger.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer database.Close(db)

	redisClient, err := database.NewRedisClient(cfg.RedisURL)
	if err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close()

	orderRepo := repository.NewGormOrderRepository(db)
	cartRepo := repository.NewGormCartRepository(db)
	productRepo := repository.NewGormProductRepository(db)
	guestCarts := database.NewGuestCartRepository(redisClient, guestCartTTL)

	stripeSvc := services.NewStripeService(cfg.StripeSecretKey, cfg.StripeWebhookSecret, logger)
	cartSvc := services.NewCartService(cartRepo, guestCarts, productRepo, logger)
	checkoutSvc := services.NewCheckoutService(stripeSvc, cfg.FrontendURL, logger)
	orderSvc := services.NewOrderService(orderRepo, cartSvc, logger)

	var smsSender sender.SMSSender
	if cfg.TwilioConfigured() {
		twilio, err := sender.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber)
		if err != nil {
			logger.Fatal("failed to initialize twilio sender", zap.Error(err))
		}
		smsSender = twilio
	} else {
		logger.Warn("twilio credentials not set, SMS endpoint will return 503")
	}
	if !cfg.StripeConfigured() {
		logger.Warn("stripe secret key not set, checkout endpoints will return 503")
	}

	router := routes.RegisterRoutes(cfg, logger, routes.Controllers{
		Checkout:     controllers.NewCheckoutController(checkoutSvc, orderSvc, stripeSvc, logger),
		Cart:         controllers.NewCartController(cartSvc, logger),
		Order:        controllers.NewOrderController(orderSvc, logger),
		Product:      controllers.NewProductController(productRepo, logger),
		Notification: controllers.NewNotificationController(smsSender, logger),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting storefront API",
			zap.String("port", cfg.Port),
			zap.String("environment", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}
