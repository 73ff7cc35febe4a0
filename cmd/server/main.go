package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/wasteless/marketplace/internal/config"
	"github.com/wasteless/marketplace/internal/handlers"
	"github.com/wasteless/marketplace/internal/logging"
	"github.com/wasteless/marketplace/internal/notification"
	"github.com/wasteless/marketplace/internal/payment"
	"github.com/wasteless/marketplace/internal/repo"
	"github.com/wasteless/marketplace/internal/scheduler"
	"github.com/wasteless/marketplace/internal/service"
	httpserver "github.com/wasteless/marketplace/internal/transport/http"
)

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(configuration.LOG_LEVEL)

	db, err := config.InitDB(configuration)
	if err != nil {
		log.Fatalf("database init failed: %v", err)
	}

	producer := notification.NewProducer([]string{configuration.KAFKA_ADDRESS})
	gateway := payment.NewSnapClient(configuration.MIDTRANS_BASE_URL, configuration.MIDTRANS_SERVER_KEY)
	r := repo.New(db)

	deps := httpserver.Deps{
		JWTSecret: []byte(configuration.JWT_SECRET),
		CartHandler: &handlers.CartHandler{
			Svc:    &service.CartService{Repo: r},
			Events: producer,
		},
		TransactionHandler: &handlers.TransactionHandler{
			Checkout: &service.CheckoutService{DB: db, Gateway: gateway},
			Orders:   &service.OrderService{DB: db, Repo: r, Notifier: producer},
		},
		SellerHandler: &handlers.SellerHandler{
			Orders:     &service.OrderService{DB: db, Repo: r, Notifier: producer},
			Moderation: &service.ModerationService{Repo: r},
			Repo:       r,
		},
		AdminHandler:   &handlers.AdminHandler{Moderation: &service.ModerationService{Repo: r}},
		CatalogHandler: &handlers.CatalogHandler{Repo: r},
		AddressHandler: &handlers.AddressHandler{Repo: r},
	}

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			l := logger.With("request_id", c.Response().Header().Get(echo.HeaderXRequestID))
			ctx := logging.IntoContext(c.Request().Context(), l)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	})

	httpserver.Register(e, &deps)

	jobCtx, stopJobs := context.WithCancel(logging.IntoContext(context.Background(), logger))
	expiry := &scheduler.ExpiryJob{
		DB:              db,
		CompostCategory: configuration.COMPOST_CATEGORY,
		Interval:        configuration.EXPIRY_INTERVAL,
	}
	go expiry.Run(jobCtx)

	srv := &http.Server{
		Addr:         ":8080",
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")
	stopJobs()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	} else {
		log.Printf("db() error: %v", err)
	}

	if err := producer.Close(); err != nil {
		log.Printf("kafka close error: %v", err)
	}

	log.Println("shutdown complete")
}
