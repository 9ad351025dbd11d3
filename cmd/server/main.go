// Command server runs the fuel depot HTTP API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"fueldepot/internal/domain/catalogs/fueltype"
	"fueldepot/internal/domain/catalogs/supplier"
	"fueldepot/internal/domain/catalogs/tank"
	"fueldepot/internal/domain/delivery"
	"fueldepot/internal/domain/ledger"
	"fueldepot/internal/domain/orders"
	v1 "fueldepot/internal/infrastructure/http/v1"
	"fueldepot/internal/infrastructure/storage/postgres"
	"fueldepot/internal/infrastructure/storage/postgres/catalog_repo"
	"fueldepot/internal/infrastructure/storage/postgres/document_repo"
	"fueldepot/internal/infrastructure/storage/postgres/register_repo"
	"fueldepot/pkg/logger"
)

type config struct {
	DatabaseDSN     string
	ListenAddr      string
	LogLevel        string
	Development     bool
	ShutdownTimeout time.Duration
}

func loadConfig() config {
	cfg := config{
		DatabaseDSN:     envOr("DATABASE_DSN", "postgres://localhost:5432/fueldepot?sslmode=disable"),
		ListenAddr:      envOr("LISTEN_ADDR", ":8080"),
		LogLevel:        envOr("LOG_LEVEL", "info"),
		ShutdownTimeout: 15 * time.Second,
	}

	if dev, err := strconv.ParseBool(os.Getenv("DEVELOPMENT")); err == nil {
		cfg.Development = dev
	}
	if raw := os.Getenv("SHUTDOWN_TIMEOUT"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			cfg.ShutdownTimeout = d
		}
	}

	return cfg
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	cfg := loadConfig()

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.Development,
	})
	if err != nil {
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx := logger.WithLogger(context.Background(), log)

	if err := run(ctx, cfg, log); err != nil {
		log.Errorw("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config, log *logger.Logger) error {
	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.DatabaseDSN))
	if err != nil {
		return err
	}
	defer pool.Close()

	txManager := postgres.NewTxManager(pool)

	audit, err := postgres.NewAuditService(txManager)
	if err != nil {
		return err
	}

	num := postgres.NewNumerator(txManager)

	ledgerRepo := register_repo.NewLedgerRepo(txManager)
	tankRepo := catalog_repo.NewTankRepo(txManager)
	fuelTypeRepo := catalog_repo.NewFuelTypeRepo(txManager)
	supplierRepo := catalog_repo.NewSupplierRepo(txManager)
	orderRepo := document_repo.NewPurchaseOrderRepo(txManager)
	deliveryRepo := document_repo.NewDeliveryRepo(txManager)

	ledgerSvc := ledger.NewService(ledgerRepo)
	tankSvc := tank.NewService(tankRepo, ledgerSvc, txManager)
	fuelTypeSvc := fueltype.NewService(fuelTypeRepo, num)
	supplierSvc := supplier.NewService(supplierRepo, num)
	orderSvc := orders.NewService(orderRepo, num, txManager)
	recorder := delivery.NewRecorder(deliveryRepo, orderSvc, tankSvc, ledgerSvc, num, txManager)

	router := v1.NewRouter(v1.Dependencies{
		Logger:    log,
		Pool:      pool,
		Audit:     audit,
		FuelTypes: fuelTypeSvc,
		Suppliers: supplierSvc,
		Tanks:     tankSvc,
		Orders:    orderSvc,
		Recorder:  recorder,
	})

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infow("server listening", "addr", cfg.ListenAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.Infow("shutdown signal received", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	log.Infow("server stopped")
	return nil
}
