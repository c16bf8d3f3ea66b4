package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/HuskeLuv/SFC-sub003/internal/config"
	"github.com/HuskeLuv/SFC-sub003/internal/database"
	"github.com/HuskeLuv/SFC-sub003/internal/ingest"
	"github.com/HuskeLuv/SFC-sub003/internal/logger"
	"github.com/HuskeLuv/SFC-sub003/internal/router"
	"github.com/HuskeLuv/SFC-sub003/internal/validator"
)

// @title           Financas API
// @version         1.0
// @description     Cash-flow planning, portfolio tracking and consultant tooling for Brazilian investors.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey CookieAuth
// @in cookie
// @name token

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dbManager, err := database.NewManager(database.NewConfig(appConfig))
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer dbManager.Close()

	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	validator.Register()

	db := dbManager.DB()
	deps, err := ingest.NewDeps(appConfig, db)
	if err != nil {
		return err
	}
	defer deps.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if appConfig.CronEnabled {
		scheduler := ingest.NewScheduler(ctx)
		if err := scheduler.Register(deps.Runner, appConfig.CronQuotes, appConfig.CronIndexes); err != nil {
			return fmt.Errorf("failed to schedule ingestion: %w", err)
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	engine := router.New(appConfig, router.NewServices(db, deps.Quotes), deps.Runner)
	srv := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting API server on port %s (quotes: %s)", appConfig.Port, deps.Quotes.Name())
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
