package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/kokoleng91-netizen/shop-backend/internal/config"
	"github.com/kokoleng91-netizen/shop-backend/internal/db"
	"github.com/kokoleng91-netizen/shop-backend/internal/es"
	"github.com/kokoleng91-netizen/shop-backend/internal/httpserver"
	"github.com/kokoleng91-netizen/shop-backend/internal/logging"
	"github.com/kokoleng91-netizen/shop-backend/internal/mykafka"
	"github.com/kokoleng91-netizen/shop-backend/internal/repo"
	"github.com/kokoleng91-netizen/shop-backend/internal/seed"
	"github.com/kokoleng91-netizen/shop-backend/internal/service/auth"
	"github.com/kokoleng91-netizen/shop-backend/internal/service/catalog"
	"github.com/kokoleng91-netizen/shop-backend/internal/service/checkout"
	"github.com/kokoleng91-netizen/shop-backend/internal/service/orders"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustNonEmpty(cfg.JWTSecret, "JWT_SECRET")
	config.MustNonEmpty(cfg.RefreshSecret, "REFRESH_SECRET")

	logger := logging.New(cfg.LogLevel)
	slog.SetDefault(logger)

	ctx := context.Background()

	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db open error: %v", err)
	}
	if err := db.Migrate(database); err != nil {
		log.Fatalf("db migrate error: %v", err)
	}
	if err := seed.Run(ctx, database, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Fatalf("seed error: %v", err)
	}

	prod := mykafka.NewProducer(cfg.KafkaBrokers)

	searchHandler := &httpserver.SearchHTTP{Index: es.ProductIndex}
	catalogSvc := &catalog.Service{
		Repo:     &repo.GormRepo{DB: database},
		Producer: prod,
	}
	if cfg.ESURL != "" {
		client, err := es.NewClient(cfg)
		if err != nil {
			log.Fatalf("elasticsearch error: %v", err)
		}
		searchHandler.ES = client
		catalogSvc.ES = client
	} else {
		logger.Warn("ES_URL not set, search disabled")
	}

	r := &repo.GormRepo{DB: database}
	jwtSecret := []byte(cfg.JWTSecret)

	deps := httpserver.Deps{
		AuthHandler: &httpserver.AuthHTTP{Svc: &auth.Service{
			Repo:          r,
			JWTSecret:     jwtSecret,
			RefreshSecret: []byte(cfg.RefreshSecret),
			Producer:      prod,
		}},
		CatalogHandler: &httpserver.CatalogHTTP{Svc: catalogSvc},
		OrderHandler: &httpserver.OrderHTTP{
			Checkout: &checkout.Service{DB: database, Producer: prod},
			Orders:   &orders.Service{Repo: r, Producer: prod},
		},
		UserHandler:   &httpserver.UserHTTP{Repo: r},
		SearchHandler: searchHandler,
		JWTSecret:     jwtSecret,
	}

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			reqLogger := logger.With("request_id", c.Response().Header().Get(echo.HeaderXRequestID))
			ctx := logging.IntoContext(c.Request().Context(), reqLogger)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	})

	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := database.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	} else {
		log.Printf("db() error: %v", err)
	}

	if err := prod.Close(); err != nil {
		log.Printf("kafka close error: %v", err)
	}

	log.Println("shutdown complete")
}
