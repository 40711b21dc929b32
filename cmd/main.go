// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Shivanand-hulikatti/ticket-storefront/internal/checkout"
	"github.com/Shivanand-hulikatti/ticket-storefront/internal/config"
	"github.com/Shivanand-hulikatti/ticket-storefront/internal/database"
	"github.com/Shivanand-hulikatti/ticket-storefront/internal/export"
	"github.com/Shivanand-hulikatti/ticket-storefront/internal/handler"
	"github.com/Shivanand-hulikatti/ticket-storefront/internal/logger"
	"github.com/Shivanand-hulikatti/ticket-storefront/internal/repository"
	"github.com/Shivanand-hulikatti/ticket-storefront/internal/service"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.App.LogLevel, cfg.IsProduction())
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("storefront stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── 1. Open the event catalog ─────────────────────────────────────────
	var catalog repository.Catalog
	if cfg.Database.Enabled {
		pool, err := database.NewPool(ctx, cfg.Database, log)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer pool.Close()
		log.Info("connected to PostgreSQL", zap.String("host", cfg.Database.Host))

		if cfg.Database.Migrate {
			if err := database.Migrate(ctx, pool); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
		}
		repo := repository.NewEventRepository(pool)
		n, err := repo.Seed(ctx, repository.SampleEvents())
		if err != nil {
			return fmt.Errorf("seed catalog: %w", err)
		}
		if n > 0 {
			log.Info("seeded sample events", zap.Int("count", n))
		}
		catalog = repo
	} else {
		mem, err := repository.NewMemoryCatalog(repository.SampleEvents())
		if err != nil {
			return fmt.Errorf("sample catalog: %w", err)
		}
		catalog = mem
		log.Info("serving built-in sample catalog")
	}

	// ── 2. Wire up layers ────────────────────────────────────────────────
	storefront := service.NewStorefront(catalog, log, service.Options{
		SessionTTL:    cfg.Session.TTL,
		SweepInterval: cfg.Session.SweepInterval,
		PaymentDelay:  cfg.Payment.Delay,
		Coupons:       checkout.PercentCoupon{Code: cfg.Coupon.Code, Percent: cfg.Coupon.Percent},
		Notifier:      service.LogNotifier{Log: log},
		Export: []export.Option{
			export.WithBranding(export.Branding{
				Name:      cfg.Export.BrandName,
				Site:      cfg.Export.Site,
				Organizer: cfg.Export.Organizer,
				Company:   cfg.Export.Company,
				Tagline:   cfg.Export.Tagline,
			}),
			export.WithCompression(cfg.Export.Compression),
		},
	})
	go storefront.Run(ctx)

	// ── 3. Start server with graceful shutdown ────────────────────────────
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      handler.NewRouter(storefront, log, cfg.Server.AllowedOrigin),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.Int("port", cfg.Server.Port), zap.String("environment", cfg.App.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Block until SIGINT/SIGTERM or a listener failure.
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}
