package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/robfig/cron/v3"

	"go-birthday-card/internal/config"
	"go-birthday-card/internal/database"
	"go-birthday-card/internal/event"
	"go-birthday-card/internal/handler"
	"go-birthday-card/internal/metrics"
	"go-birthday-card/internal/middleware"
	"go-birthday-card/internal/model"
	"go-birthday-card/internal/moderation"
	"go-birthday-card/internal/payment"
	"go-birthday-card/internal/repository"
	"go-birthday-card/internal/repository/postgres"
	"go-birthday-card/internal/repository/sqlite"
	"go-birthday-card/internal/router"
	"go-birthday-card/internal/service"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	cfg          *config.Config
	logger       *slog.Logger
	store        repository.Store
	bus          *event.InMemoryBus
	sweeper      *service.SweepService
	cleanupFuncs []func()
}

// New opens the configured store and brings its schema up to date.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	store, closeStore, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	bus := event.NewBus()
	return &App{
		cfg:          cfg,
		logger:       logger,
		store:        store,
		bus:          bus,
		sweeper:      service.NewSweepService(store, bus, service.SystemClock, cfg.RetentionWindow, cfg.SweepBatchSize),
		cleanupFuncs: []func(){closeStore},
	}, nil
}

// OpenStore connects to the backend named by cfg and runs its migrations.
func OpenStore(ctx context.Context, cfg *config.Config) (repository.Store, func(), error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		slog.Info("connecting to PostgreSQL")
		db, err := database.New(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := database.MigratePostgres(ctx, db); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		slog.Info("database ready", "backend", cfg.StoreBackend)
		return postgres.New(db.Pool), db.Close, nil

	case config.BackendSQLite:
		slog.Info("opening SQLite database", "path", cfg.SQLitePath)
		db, err := database.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open database: %w", err)
		}
		if err := database.MigrateSQLite(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		slog.Info("database ready", "backend", cfg.StoreBackend)
		store := sqlite.New(db)
		return store, func() { _ = store.Close() }, nil
	}

	return nil, nil, fmt.Errorf("unsupported store backend %q", cfg.StoreBackend)
}

// Sweep runs a single retention batch, for external schedulers.
func (a *App) Sweep(ctx context.Context) (model.SweepResult, error) {
	return a.sweeper.Sweep(ctx, time.Time{})
}

func (a *App) Handler() http.Handler {
	cfg := a.cfg
	clock := service.Clock(service.SystemClock)
	filter := moderation.Default()

	lifecycle := service.NewLifecycleService(a.store, a.bus, clock)
	slugs := service.NewSlugAllocator(service.NewSlugGenerator(nil), a.store)
	provider := payment.NewSandbox(cfg.WebhookSecret)
	adminAuth := service.NewAdminAuth(cfg.AdminToken, cfg.AdminTokenHash, cfg.JWTSecret, cfg.AdminSessionTTL, clock)

	cardService := service.NewCardService(a.store, lifecycle, slugs, filter, a.bus, clock, cfg.RetentionWindow)
	checkoutService := service.NewCheckoutService(a.store, provider, lifecycle, slugs, filter, a.bus, clock, service.CheckoutConfig{
		Retention: cfg.RetentionWindow,
		Price:     cfg.CardPrice,
		Currency:  cfg.CardCurrency,
	})
	donationService := service.NewDonationService(a.store, ipHashSalt(cfg.IPHashSalt), clock)
	adminService := service.NewAdminService(a.store, lifecycle)

	return router.New(cfg, middleware.NewAuthMiddleware(adminAuth, cfg.CronSecret), router.DefaultRouteLimits(), router.Handlers{
		Health:   handler.NewHealthHandler(a.store),
		Cards:    handler.NewCardHandler(cardService, cfg.PublicBaseURL),
		Checkout: handler.NewCheckoutHandler(checkoutService, provider.Name(), cfg.PublicBaseURL),
		Donation: handler.NewDonationHandler(donationService),
		Cron:     handler.NewCronHandler(a.sweeper),
		Admin:    handler.NewAdminHandler(adminService, adminAuth),
	})
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	recorderCtx, stopRecorder := context.WithCancel(context.Background())
	defer stopRecorder()
	go metrics.RecordEvents(recorderCtx, a.bus, a.logger)

	scheduler, err := a.startScheduler(ctx)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              ":" + a.cfg.ServerPort,
		Handler:           a.Handler(),
		ReadHeaderTimeout: a.cfg.ServerReadTimeout,
		ReadTimeout:       a.cfg.ServerReadTimeout,
		WriteTimeout:      a.cfg.ServerWriteTimeout,
		IdleTimeout:       a.cfg.ServerIdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", server.Addr, "backend", a.cfg.StoreBackend)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if scheduler != nil {
			<-scheduler.Stop().Done()
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if scheduler != nil {
		<-scheduler.Stop().Done()
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

func (a *App) startScheduler(ctx context.Context) (*cron.Cron, error) {
	if a.cfg.SweepSchedule == "" {
		slog.Info("in-process sweep disabled, use the cron endpoint or the sweep command")
		return nil, nil
	}

	scheduler := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	_, err := scheduler.AddFunc(a.cfg.SweepSchedule, func() {
		if _, err := a.sweeper.Sweep(ctx, time.Time{}); err != nil {
			slog.Error("scheduled sweep failed", "error", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid SWEEP_SCHEDULE %q: %w", a.cfg.SweepSchedule, err)
	}

	scheduler.Start()
	slog.Info("in-process sweep scheduled", "schedule", a.cfg.SweepSchedule)
	return scheduler, nil
}

func (a *App) Close() {
	for _, cleanup := range a.cleanupFuncs {
		cleanup()
	}
}

// ipHashSalt falls back to a per-process random salt, so hashes are only
// comparable within one run unless IP_HASH_SALT is set.
func ipHashSalt(configured string) string {
	if configured != "" {
		return configured
	}
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}
