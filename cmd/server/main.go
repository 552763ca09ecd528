package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SAP-F-2025/school-admin-service/internal/accessors"
	"github.com/SAP-F-2025/school-admin-service/internal/auth"
	"github.com/SAP-F-2025/school-admin-service/internal/cache"
	"github.com/SAP-F-2025/school-admin-service/internal/config"
	"github.com/SAP-F-2025/school-admin-service/internal/handlers"
	"github.com/SAP-F-2025/school-admin-service/internal/kvstore"
	"github.com/SAP-F-2025/school-admin-service/internal/ledger"
	"github.com/SAP-F-2025/school-admin-service/internal/preferences"
	"github.com/SAP-F-2025/school-admin-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/school-admin-service/internal/services"
	"github.com/SAP-F-2025/school-admin-service/internal/utils"
	"github.com/SAP-F-2025/school-admin-service/internal/validator"
	"github.com/SAP-F-2025/school-admin-service/internal/views"
	"github.com/SAP-F-2025/school-admin-service/pkg"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	shutdownTimeout = 15 * time.Second
	activityBuffer  = 50
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	logger := utils.NewLogger(cfg.Environment, cfg.LogLevel)
	if err := run(cfg, logger); err != nil {
		logger.Error("Server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger utils.Logger) error {
	log := logger.Slog()
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		return err
	}
	defer pkg.CloseDatabase(db)
	if err := postgres.AutoMigrate(db); err != nil {
		return err
	}

	var redisClient *redis.Client
	if cfg.KVStore == "redis" {
		if redisClient, err = pkg.NewRedisClient(ctx, cfg); err != nil {
			return err
		}
		defer redisClient.Close()
	}
	store, responseCache := localStores(redisClient, log)

	pubSub, err := pkg.NewChangeFeedPubSub(cfg.ChangeFeed, log)
	if err != nil {
		return err
	}
	defer pubSub.Close()

	feed := postgres.NewChangeFeed(pubSub.Publisher, pubSub.Subscriber, cfg.ChangeFeed.TopicPrefix, log)
	stores := postgres.NewStores(db, feed, log)

	registry, err := accessors.OpenRegistry(ctx, stores, log)
	if err != nil {
		return err
	}
	defer registry.Close()

	studentViews := views.StudentViews(registry.Students, registry.Parents)
	defer studentViews.Close()
	courseViews := views.CourseViews(registry.Courses, registry.Teachers)
	defer courseViews.Close()
	users := views.Users(registry.Teachers, registry.Parents)
	defer users.Close()

	provider, err := newProvider(cfg, db, cache.NewRevocations(responseCache), log)
	if err != nil {
		return err
	}

	publisher, err := pkg.NewEventPublisher(cfg, log)
	if err != nil {
		return err
	}
	activity := services.NewActivityFeed(publisher, activityBuffer)
	defer activity.Close()

	v := validator.New()
	paymentLedger := ledger.New(store, log)
	widgets := preferences.NewWidgets(store, log)

	billing := services.NewBillingService(paymentLedger, stores.Students, responseCache, v, activity, log)
	go paymentLedger.Watch(ctx, registry.Students, billing.OnPruned)

	userService := services.NewUserService(stores.Teachers, stores.Parents, users, provider, v, activity, log)
	if err := bootstrapManager(ctx, cfg.Bootstrap, userService, log); err != nil {
		return err
	}

	svc := handlers.Services{
		Records:   services.NewRecords(stores, v, activity, log),
		Users:     userService,
		Billing:   billing,
		Settings:  services.NewSettingsService(stores.Settings, registry.Settings, v, activity, log),
		Dashboard: services.NewDashboardService(services.SourcesFromRegistry(registry), paymentLedger, widgets, activity, responseCache, log),
	}
	streams := handlers.Streams{
		Students: studentViews,
		Parents:  registry.Parents,
		Teachers: registry.Teachers,
		Courses:  courseViews,
		Users:    users,
		Settings: registry.Settings,
		Widgets:  widgets,
	}

	router := handlers.NewEngine(cfg.AllowedOrigins, logger)
	handlers.NewHandlerManager(svc, streams, provider, cfg.AllowedOrigins, logger).SetupRoutes(router)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// localStores picks the key-value store and response cache. Without redis
// both live in process memory.
func localStores(client *redis.Client, logger *slog.Logger) (kvstore.Store, cache.CacheService) {
	if client == nil {
		logger.Warn("Redis disabled, local state is kept in memory")
		return kvstore.NewMemory(), cache.NewMemoryCache()
	}
	return kvstore.NewRedis(client, "school:kv:", logger), cache.NewRedisCache(client, "school:cache:", logger)
}

func newProvider(cfg *config.Config, db *gorm.DB, revocations *cache.Revocations, logger *slog.Logger) (auth.Provider, error) {
	switch cfg.Auth.Provider {
	case "casdoor":
		return auth.NewCasdoorProvider(cfg.Auth.Casdoor, revocations, logger)
	default:
		return auth.NewLocalProvider(db, cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry, revocations, logger)
	}
}

// bootstrapManager gives a fresh deployment its first Director so somebody
// can sign in and create the other accounts.
func bootstrapManager(ctx context.Context, cfg config.BootstrapConfig, users *services.UserService, logger *slog.Logger) error {
	if !cfg.Enabled() {
		return nil
	}
	created, err := users.EnsureManager(ctx, services.BootstrapManager{
		Email:     cfg.Email,
		Password:  cfg.Password,
		FirstName: cfg.FirstName,
		LastName:  cfg.LastName,
	})
	if err != nil {
		return fmt.Errorf("failed to bootstrap manager account: %w", err)
	}
	if created {
		logger.Info("Bootstrap manager account ready", "email", cfg.Email)
	}
	return nil
}
