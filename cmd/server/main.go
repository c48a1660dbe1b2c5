package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/printery/storefront/internal/cart"
	"github.com/printery/storefront/internal/checkout"
	"github.com/printery/storefront/internal/config"
	"github.com/printery/storefront/internal/events"
	"github.com/printery/storefront/internal/fulfillment"
	"github.com/printery/storefront/internal/httpserver"
	"github.com/printery/storefront/internal/logging"
	"github.com/printery/storefront/internal/payment"
	"github.com/printery/storefront/internal/search"
	"github.com/printery/storefront/internal/store"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := config.InitDB(initCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	st := store.New(db)
	cartSvc := cart.New(st)

	fulfillmentClient := fulfillment.NewClient(cfg.FulfillmentURL, cfg.FulfillmentAPIKey)
	checkoutSvc := &checkout.Service{
		Carts:       cartSvc,
		Orders:      st,
		Fulfillment: fulfillmentClient,
		Config: checkout.Config{
			TestMode:           cfg.FulfillmentTestMode,
			PlaceholderSKU:     cfg.FulfillmentPlaceholderSKU,
			NeedsCustomization: cfg.FulfillmentNeedsCustomization,
		},
	}

	var publisher events.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		producer := events.NewProducer(cfg.KafkaBrokers)
		defer producer.Close()
		publisher = producer
	} else {
		logger.Warn("KAFKA_ADDRESS not set, domain events disabled")
	}

	var esClient *elasticsearch.Client
	if cfg.ESURL != "" {
		esClient, err = search.NewClient(search.Config{
			URL:      cfg.ESURL,
			User:     cfg.ESUser,
			Password: cfg.ESPassword,
		})
		if err != nil {
			log.Fatalf("elasticsearch init error: %v", err)
		}
	} else {
		logger.Warn("ES_URL not set, product search disabled")
	}

	var paymentClient *payment.Client
	if cfg.StripeAPIURL != "" {
		paymentClient = payment.NewClient(cfg.StripeAPIURL)
	} else {
		logger.Warn("STRIPE_API_URL not set, payment sessions disabled")
	}

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	httpserver.Register(e, &httpserver.Deps{
		Logger:   logger,
		Cart:     &httpserver.CartHTTP{Svc: cartSvc, Events: publisher},
		Checkout: &httpserver.CheckoutHTTP{Svc: checkoutSvc, Carts: cartSvc, Payments: paymentClient, Events: publisher},
		Catalog:  &httpserver.CatalogHTTP{Store: st, ES: esClient},
		Orders:   &httpserver.OrdersHTTP{Store: st},
	})

	go func() {
		logger.Info("starting storefront server", "port", cfg.ServerPort)
		if err := e.Start(":" + cfg.ServerPort); err != nil && err != http.ErrServerClosed {
			log.Fatalf("echo start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("echo shutdown", "error", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}

	logger.Info("server stopped")
}
