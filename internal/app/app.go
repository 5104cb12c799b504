package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/mtpultz/goal-digger/internal/config"
	"github.com/mtpultz/goal-digger/internal/db"
	"github.com/mtpultz/goal-digger/internal/middleware"
	"github.com/mtpultz/goal-digger/internal/repository"
	"github.com/mtpultz/goal-digger/internal/service"
)

type App struct {
	Cfg            *config.Config
	DB             *sqlx.DB
	Redis          *redis.Client
	AuthLimiter    middleware.Limiter
	AuthService    *service.AuthService
	UserService    *service.UserService
	GoalService    *service.GoalService
	CommentService *service.CommentService
	BuddyService   *service.BuddyService
}

func New(cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Run database migrations
	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	emailService := service.NewEmailService(
		cfg.ResendAPIKey,
		cfg.EmailFrom,
		cfg.AppURL,
		cfg.AppName,
		cfg.IsDevelopment(),
	)

	// Rate limiting: shared counters in Redis when configured, otherwise per process
	var (
		redisClient *redis.Client
		limiter     middleware.Limiter
	)
	if cfg.RedisURL != "" {
		redisClient, err = connectRedis(cfg.RedisURL)
		if err != nil {
			database.Close()
			return nil, err
		}
		limiter = middleware.NewRedisRateLimiter(redisClient, cfg.RateLimitAuth, cfg.RateLimitWindow)
		slog.Info("rate limiting backed by redis")
	} else {
		limiter = middleware.NewRateLimiter(cfg.RateLimitAuth, cfg.RateLimitWindow)
	}

	a := Assemble(cfg, database, emailService, limiter)
	a.Redis = redisClient
	return a, nil
}

// Assemble wires repositories and services over an open, migrated database.
func Assemble(cfg *config.Config, database *sqlx.DB, mailer service.Mailer, limiter middleware.Limiter) *App {
	// Repositories
	userRepository := repository.NewUserRepository(database)
	tokenRepository := repository.NewTokenRepository(database)
	goalRepository := repository.NewGoalRepository(database)
	buddyGoalRepository := repository.NewBuddyGoalRepository(database)
	commentRepository := repository.NewCommentRepository(database)
	transactor := repository.NewTransactor(database)

	// Services
	accessService := service.NewAccessService(goalRepository, buddyGoalRepository)
	authService := service.NewAuthService(
		userRepository,
		tokenRepository,
		mailer,
		transactor,
		cfg.JWTSecret,
		cfg.JWTExpiry,
		cfg.TokenEmailVerifyExpiry,
		cfg.TokenPasswordResetExpiry,
	)

	return &App{
		Cfg:            cfg,
		DB:             database,
		AuthLimiter:    limiter,
		AuthService:    authService,
		UserService:    service.NewUserService(userRepository),
		GoalService:    service.NewGoalService(goalRepository, accessService, transactor),
		CommentService: service.NewCommentService(commentRepository, goalRepository, accessService, transactor),
		BuddyService:   service.NewBuddyService(buddyGoalRepository, goalRepository, userRepository, mailer),
	}
}

func connectRedis(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = client.Ping(ctx).Err()
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return client, nil
}

func (a *App) Close() error {
	if stopper, ok := a.AuthLimiter.(interface{ Stop() }); ok {
		stopper.Stop()
	}
	if a.Redis != nil {
		err := a.Redis.Close()
		if err != nil {
			slog.Warn("failed to close redis", "error", err)
		}
	}
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
