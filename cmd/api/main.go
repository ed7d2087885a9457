package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"campus-connect/internal/config"
	"campus-connect/internal/db"
	"campus-connect/internal/email"
	apihttp "campus-connect/internal/http"
	"campus-connect/internal/repository"
	"campus-connect/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := newLogger(cfg)
	defer logger.Sync()

	var (
		stores repository.Stores
		pool   *pgxpool.Pool
	)
	if cfg.UsesMemoryStore() {
		logger.Warn("using in-memory storage, data is lost on restart")
		stores = repository.NewMemoryStores()
	} else {
		pool, err = db.NewPool(ctx, cfg)
		if err != nil {
			logger.Fatal("db connect", zap.Error(err))
		}
		defer pool.Close()
		if err := db.Migrate(ctx, pool); err != nil {
			logger.Fatal("db migrate", zap.Error(err))
		}
		stores = repository.NewPgStores(pool)
	}

	emailSender := email.NewDisabledSender("email sender not configured")
	if cfg.SMTPHost != "" {
		sender, err := email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.SMTPFromName, cfg.SMTPUseSSL)
		if err != nil {
			logger.Warn("smtp sender init failed", zap.Error(err))
		} else {
			emailSender = sender
		}
	}

	otpLimiter := service.NewOTPRateLimiter(cfg.OTPRequestWindow(), cfg.OTPRequestsPerWindow)
	tokenStore := service.NewMemoryAccessTokenStore()
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, using in-process limiter and token store", zap.Error(err))
		} else {
			otpLimiter = service.NewRedisOTPRateLimiter(redisClient, logger, cfg.OTPRequestWindow(), cfg.OTPRequestsPerWindow)
			tokenStore = service.NewRedisAccessTokenStore(redisClient)
		}
		cancel()
	}

	jwtSvc := service.NewJWTService(cfg.JWTSecret, cfg.JWTAccessTTL(), tokenStore)
	if !jwtSvc.Enabled() {
		logger.Warn("jwt secret not configured, only session tokens are accepted")
	}

	authSvc := service.NewAuthService(logger, stores.Users, stores.Codes, stores.Sessions, emailSender, otpLimiter, jwtSvc,
		service.AuthConfig{
			AllowedDomains: cfg.AllowedEmailDomains,
			CodeLength:     cfg.OTPLength,
			CodeTTL:        cfg.OTPExpiry(),
			MaxAttempts:    cfg.OTPMaxAttempts,
			SessionTTL:     cfg.SessionTTL(),
		})
	profileSvc := service.NewProfileService(logger, stores.Users, stores.Posts, stores.Events, stores.Groups,
		service.ProfileConfig{
			UploadDir:      cfg.UploadDir,
			UploadURLPath:  cfg.UploadURLPath,
			MaxUploadBytes: cfg.MaxUploadBytes,
		})
	eventSvc := service.NewEventService(logger, stores.Events)
	groupSvc := service.NewGroupService(logger, stores.Groups)
	postSvc := service.NewPostService(logger, stores.Posts, stores.Users)

	routerCfg := apihttp.RouterConfig{
		CORSOrigins:   cfg.CORSOrigins,
		UploadDir:     cfg.UploadDir,
		UploadURLPath: cfg.UploadURLPath,
	}
	if pool != nil {
		routerCfg.Ready = func(ctx context.Context) error { return db.Ping(ctx, pool) }
	}
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := apihttp.NewRouter(logger, routerCfg, authSvc, apihttp.Handlers{
		Auth:   apihttp.NewAuthHandler(logger, authSvc, profileSvc),
		Events: apihttp.NewEventHandler(logger, eventSvc),
		Groups: apihttp.NewGroupHandler(logger, groupSvc),
		Posts:  apihttp.NewPostHandler(logger, postSvc),
		Users:  apihttp.NewUserHandler(logger, profileSvc, postSvc, eventSvc, groupSvc),
	})

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("port", cfg.HTTPPort), zap.String("storage", cfg.StorageBackend))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if cfg.IsDevelopment() {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	return logger
}
