package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"campus-connect/internal/config"
	"campus-connect/internal/db"
	"campus-connect/internal/email"
	"campus-connect/internal/repository"
	"campus-connect/internal/service"
)

// purge elimina codigos y sesiones vencidas; pensado para correr desde cron.
func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.UsesMemoryStore() {
		log.Print("memory storage has nothing to purge")
		return
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	stores := repository.NewPgStores(pool)
	authSvc := service.NewAuthService(logger, stores.Users, stores.Codes, stores.Sessions,
		email.NewDisabledSender("purge does not send email"),
		service.NewOTPRateLimiter(cfg.OTPRequestWindow(), cfg.OTPRequestsPerWindow),
		service.NewJWTService("", cfg.JWTAccessTTL(), nil),
		service.AuthConfig{})

	rep, err := authSvc.PurgeExpired(ctx)
	if err != nil {
		logger.Fatal("purge", zap.Error(err))
	}
	logger.Info("purge done", zap.Int64("codes", rep.Codes), zap.Int64("sessions", rep.Sessions))
}
