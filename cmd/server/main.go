package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"

	"github.com/Skotchmaster/storefront/internal/config"
	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/httpserver"
	"github.com/Skotchmaster/storefront/internal/logging"
	middleware "github.com/Skotchmaster/storefront/internal/middleware/auth"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/search"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/storage"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg := config.Load()
	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustNonEmptyBytes(cfg.SessionSecret, "SESSION_SECRET")

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)

	db, err := config.OpenDB(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	if err := config.Migrate(db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	images, err := storage.NewLocal(cfg.UploadDir)
	if err != nil {
		log.Fatalf("upload dir: %v", err)
	}

	var publisher events.Publisher = events.Nop{}
	var producer *events.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer = events.NewProducer(cfg.KafkaBrokers)
		publisher = producer
	} else {
		logger.Info("kafka disabled: KAFKA_BROKERS is empty")
	}

	r := &repo.GormRepo{DB: db}
	catalog := &service.CatalogService{Repo: r, Images: images, Events: publisher}
	if cfg.ESURL != "" {
		idx, err := search.NewES(search.Config{URL: cfg.ESURL, User: cfg.ESUser, Password: cfg.ESPassword, Index: cfg.ESIndex})
		if err != nil {
			logger.Warn("elasticsearch unavailable, searching the database", "error", err)
		} else {
			catalog.Index = idx
		}
	}

	auth := &service.AuthService{Repo: r, Events: publisher}
	if cfg.AdminEmail != "" {
		if err := auth.EnsureAdmin(ctx, cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			log.Fatalf("ensure admin: %v", err)
		}
	}

	cancel()

	orders := &service.OrderService{Repo: r, Events: publisher}
	e := httpserver.New(logger, &httpserver.Deps{
		DB:        db,
		Auth:      &httpserver.AuthHTTP{Svc: auth, SessionSecret: cfg.SessionSecret, CookieSecure: cfg.CookieSecure},
		Catalog:   &httpserver.CatalogHTTP{Svc: catalog, MaxUploadBytes: cfg.MaxUploadBytes},
		Cart:      &httpserver.CartHTTP{Svc: &service.CartService{Repo: r, Events: publisher}},
		Order:     &httpserver.OrderHTTP{Svc: orders, Reports: &service.ReportService{Repo: r}},
		Session:   middleware.NewSessionMiddleware(cfg.SessionSecret),
		UploadDir: cfg.UploadDir,
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	wait := gfshutdown.GracefulShutdown(context.Background(), shutdownTimeout, map[string]gfshutdown.Operation{
		// One operation so the server drains before its dependencies close.
		"storefront": func(ctx context.Context) error {
			err := srv.Shutdown(ctx)
			if producer != nil {
				err = errors.Join(err, producer.Close())
			}
			if sqlDB, dbErr := db.DB(); dbErr == nil {
				err = errors.Join(err, sqlDB.Close())
			}
			return err
		},
	})

	code := <-wait
	logger.Info("stopped", "code", code)
	os.Exit(code)
}
