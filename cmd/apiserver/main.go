package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/bellalabs/bellaprep/internal/apiserver/database"
	"github.com/bellalabs/bellaprep/internal/apiserver/handler"
	"github.com/bellalabs/bellaprep/internal/apiserver/scheduler"
	"github.com/bellalabs/bellaprep/internal/audit"
	"github.com/bellalabs/bellaprep/internal/auth/jwt"
	"github.com/bellalabs/bellaprep/internal/auth/rbac"
	"github.com/bellalabs/bellaprep/internal/bella"
	"github.com/bellalabs/bellaprep/internal/common/config"
	"github.com/bellalabs/bellaprep/internal/loan"
	"github.com/bellalabs/bellaprep/internal/ratelimit"
	"github.com/bellalabs/bellaprep/pkg/crypto"
	"github.com/bellalabs/bellaprep/pkg/logger"
	"github.com/bellalabs/bellaprep/pkg/metrics"
	"github.com/bellalabs/bellaprep/pkg/version"
)

var (
	configPath string

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of apiserver",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("apiserver version %s\n", version.Get())
		},
	}

	rootCmd = &cobra.Command{
		Use:   "apiserver",
		Short: "BellaPrep API Server",
		Long:  `BellaPrep API Server hosts the multi-tenant mortgage pre-qualification platform`,
		Run: func(cmd *cobra.Command, args []string) {
			run()
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "conf", "configs/apiserver.yaml", "path to configuration file")
	rootCmd.AddCommand(versionCmd)
}

func run() {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zapLogger, err := logger.NewLogger(&cfg.Logger)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = zapLogger.Sync() }()

	db, err := database.NewDatabase(&cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	if err := seedSuperAdmin(context.Background(), db, cfg, zapLogger); err != nil {
		zapLogger.Fatal("Failed to seed super admin", zap.Error(err))
	}

	jwtService, err := jwt.NewService(jwt.Config{
		SecretKey: cfg.JWT.SecretKey,
		Duration:  cfg.JWT.Duration,
	})
	if err != nil {
		zapLogger.Fatal("Failed to initialize JWT service", zap.Error(err))
	}

	sealer, err := crypto.NewSealer(cfg.Crypto.MasterKey)
	if err != nil {
		zapLogger.Fatal("Failed to initialize secret sealer", zap.Error(err))
	}

	sink := audit.NewSink(db, zapLogger)
	loans := loan.NewService(db, sink, zapLogger)
	bellaClient := bella.NewClient(&cfg.Bella, sink, zapLogger)

	limiter := ratelimit.NewLimiter(newRateLimitStore(cfg, zapLogger))
	m := metrics.New()

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	h := handler.New(db, loans, sink, jwtService, bellaClient, sealer, zapLogger)
	h.RegisterRoutes(router, limiter, m, &cfg.RateLimit)

	cleanup := scheduler.New(db, m, cfg.Scheduler, zapLogger)
	cleanup.Start(context.Background())
	defer cleanup.Stop()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		zapLogger.Info("Starting apiserver",
			zap.String("version", version.Get()),
			zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}
}

func newRateLimitStore(cfg *config.APIServerConfig, zapLogger *zap.Logger) ratelimit.Store {
	if cfg.RateLimit.Store == "redis" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RateLimit.Redis.Addr,
			Username: cfg.RateLimit.Redis.Username,
			Password: cfg.RateLimit.Redis.Password,
			DB:       cfg.RateLimit.Redis.DB,
		})
		zapLogger.Info("Rate limiter using redis store", zap.String("addr", cfg.RateLimit.Redis.Addr))
		return ratelimit.NewRedisStore(client, cfg.RateLimit.Redis.Prefix)
	}
	zapLogger.Info("Rate limiter using in-memory store")
	return ratelimit.NewMemoryStore()
}

// seedSuperAdmin provisions the platform tenant and super admin user on
// first boot. Existing rows are left untouched.
func seedSuperAdmin(ctx context.Context, db database.Database, cfg *config.APIServerConfig, zapLogger *zap.Logger) error {
	if cfg.SuperAdmin.Email == "" || cfg.SuperAdmin.Password == "" {
		return nil
	}

	tenant, err := db.GetTenantBySubdomain(ctx, "platform")
	if err != nil {
		tenant = &database.Tenant{
			ID:        uuid.New().String(),
			Name:      "Platform",
			Subdomain: "platform",
			IsActive:  true,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		if err := db.CreateTenant(ctx, tenant); err != nil {
			return err
		}
	}

	if _, err := db.GetUserByEmail(ctx, tenant.ID, cfg.SuperAdmin.Email); err == nil {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.SuperAdmin.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	admin := &database.User{
		ID:           uuid.New().String(),
		TenantID:     tenant.ID,
		Email:        cfg.SuperAdmin.Email,
		PasswordHash: string(hash),
		Role:         string(rbac.RoleSuperAdmin),
		IsActive:     true,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := db.CreateUser(ctx, admin); err != nil {
		return err
	}
	zapLogger.Info("Seeded super admin", zap.String("email", cfg.SuperAdmin.Email))
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
