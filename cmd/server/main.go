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

	"github.com/nurbakyt/phone_app/internal/config"
	"github.com/nurbakyt/phone_app/internal/es"
	"github.com/nurbakyt/phone_app/internal/handlers"
	"github.com/nurbakyt/phone_app/internal/logging"
	mwauth "github.com/nurbakyt/phone_app/internal/middleware/auth"
	"github.com/nurbakyt/phone_app/internal/mykafka"
	"github.com/nurbakyt/phone_app/internal/predict"
	"github.com/nurbakyt/phone_app/internal/ratelimit"
	"github.com/nurbakyt/phone_app/internal/repo"
	"github.com/nurbakyt/phone_app/internal/service"
	"github.com/nurbakyt/phone_app/internal/tokens"
	httpserver "github.com/nurbakyt/phone_app/internal/transport/http"
)

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(configuration.LogLevel)
	slog.SetDefault(logger)

	db, err := config.InitDB(configuration)
	if err != nil {
		log.Fatalf("database init failed: %v", err)
	}

	model, err := predict.Load(configuration.ModelPath)
	if err != nil {
		log.Fatalf("price model load failed: %v", err)
	}

	prod, err := mykafka.NewProducer([]string{configuration.KAFKA_ADDRESS})
	if err != nil {
		logger.Warn("kafka disabled", "error", err)
		prod = &mykafka.Producer{}
	}

	codec := &tokens.Codec{Secret: []byte(configuration.JWT_SECRET)}
	store := &repo.GormRepo{DB: db}

	authSvc := &service.AuthService{
		Repo:       store,
		Codec:      codec,
		Limiter:    ratelimit.NewSlidingWindow(configuration.LoginRateLimit, configuration.LoginRateWindow),
		AccessTTL:  configuration.AccessTokenTTL,
		RefreshTTL: configuration.RefreshTokenTTL,
		OpTimeout:  configuration.StoreTimeout,
	}

	deps := &httpserver.Deps{
		AuthHandler:  &handlers.AuthHandler{Svc: authSvc, Producer: prod},
		PhoneHandler: &handlers.PhoneHandler{DB: db, Producer: prod, Model: model},
		UserHandler:  &handlers.UserHandler{Repo: store},
		Guard:        &mwauth.Guard{Codec: codec},
	}

	if configuration.ES_URL != "" {
		esClient, err := es.NewClient(configuration)
		if err != nil {
			logger.Warn("elasticsearch disabled", "error", err)
		} else {
			deps.SearchHandler = &handlers.SearchHandler{ES: esClient, Index: "phone"}
		}
	}

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())

	httpserver.Register(e, deps)

	sweepCtx, stopSweep := context.WithCancel(logging.IntoContext(context.Background(), logger))
	go authSvc.RunSweeper(sweepCtx, configuration.SweepPeriod)

	srv := &http.Server{
		Addr:         ":8080",
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	stopSweep()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("db close error", "error", err)
		}
	}

	if err := prod.Close(); err != nil {
		logger.Error("kafka close error", "error", err)
	}

	logger.Info("shutdown complete")
}
