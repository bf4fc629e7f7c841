package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver for database/sql (migrations)
	"go.uber.org/zap"

	"github.com/skillvault-io/skillvault-registry/pkg/auth"
	"github.com/skillvault-io/skillvault-registry/pkg/config"
	"github.com/skillvault-io/skillvault-registry/pkg/database"
	"github.com/skillvault-io/skillvault-registry/pkg/handlers"
	"github.com/skillvault-io/skillvault-registry/pkg/logging"
	"github.com/skillvault-io/skillvault-registry/pkg/middleware"
	"github.com/skillvault-io/skillvault-registry/pkg/repositories"
	"github.com/skillvault-io/skillvault-registry/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("base_url", cfg.BaseURL),
		zap.Bool("auth_verification", cfg.Auth.EnableVerification),
		zap.String("database", logging.SanitizeConnectionString(cfg.Database.ConnectionString())))

	ctx := context.Background()

	// Migrations run over database/sql (required by golang-migrate).
	sqlDB, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		logger.Fatal("Failed to open migration connection", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, cfg.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	_ = sqlDB.Close()

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := database.NewRedisClient(&cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	if redisClient == nil {
		logger.Info("Redis not configured, leaderboard cache disabled")
	}

	jwksClient, err := auth.NewJWKSClient(&auth.JWKSConfig{
		EnableVerification: cfg.Auth.EnableVerification,
		JWKSEndpoints:      cfg.Auth.JWKSEndpoints,
	})
	if err != nil {
		logger.Fatal("Failed to create JWKS client", zap.Error(err))
	}
	defer jwksClient.Close()

	authService := auth.NewAuthService(jwksClient, logger)
	authMiddleware := auth.NewMiddleware(authService, logger)
	scopeMiddleware := handlers.ScopeMiddleware(database.WithRequestScope(db, logger))

	skillTreeRepo := repositories.NewSkillTreeRepository()
	reputationRepo := repositories.NewReputationRepository()
	learningPathRepo := repositories.NewLearningPathRepository()
	challengeRepo := repositories.NewChallengeRepository()

	leaderboard := services.NewLeaderboardCache(redisClient)
	skillGraphService := services.NewSkillGraphService(skillTreeRepo, logger)
	reputationService := services.NewReputationService(reputationRepo, leaderboard, logger)
	learningPathService := services.NewLearningPathService(learningPathRepo, reputationRepo, leaderboard, logger)
	challengeService := services.NewChallengeService(challengeRepo, reputationRepo, leaderboard, logger)

	mux := http.NewServeMux()

	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewSkillTreesHandler(skillGraphService, logger).RegisterRoutes(mux, authMiddleware, scopeMiddleware)
	handlers.NewReputationHandler(reputationService, &cfg.Leaderboard, logger).RegisterRoutes(mux, authMiddleware, scopeMiddleware)
	handlers.NewLearningPathsHandler(learningPathService, logger).RegisterRoutes(mux, authMiddleware, scopeMiddleware)
	handlers.NewChallengesHandler(challengeService, logger).RegisterRoutes(mux, authMiddleware, scopeMiddleware)

	server := &http.Server{
		Addr:    cfg.BindAddr + ":" + cfg.Port,
		Handler: middleware.RequestLogger(logger)(mux),
	}

	go func() {
		logger.Info("Starting skillvault-registry",
			zap.String("addr", server.Addr),
			zap.String("version", cfg.Version))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown failed", zap.Error(err))
	}
}

// newLogger builds an environment-appropriate zap logger: human-readable in
// local development, JSON elsewhere.
func newLogger(env string) (*zap.Logger, error) {
	if env == "local" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
