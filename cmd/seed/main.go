package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"campus-connect/internal/config"
	"campus-connect/internal/db"
	"campus-connect/internal/repository"
	"campus-connect/internal/seed"
)

func main() {
	file := flag.String("file", "", "YAML con datos de ejemplo (por defecto el set embebido)")
	flag.Parse()

	ctx := context.Background()
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.UsesMemoryStore() {
		log.Fatal("seed needs STORAGE_BACKEND=postgres; memory data would be lost on exit")
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	data, err := loadData(*file)
	if err != nil {
		logger.Fatal("load seed data", zap.Error(err))
	}

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()
	if err := db.Migrate(ctx, pool); err != nil {
		logger.Fatal("db migrate", zap.Error(err))
	}

	rep, err := seed.NewSeeder(logger, repository.NewPgStores(pool)).Apply(ctx, data)
	if err != nil {
		logger.Fatal("seed", zap.Error(err), zap.Any("partial", rep))
	}
	logger.Info("seed done",
		zap.Int("users", rep.Users),
		zap.Int("events", rep.Events),
		zap.Int("groups", rep.Groups),
		zap.Int("posts", rep.Posts),
		zap.Int("comments", rep.Comments),
		zap.Int("likes", rep.Likes),
	)
}

func loadData(path string) (seed.Data, error) {
	if path == "" {
		return seed.Default()
	}
	f, err := os.Open(path)
	if err != nil {
		return seed.Data{}, err
	}
	defer f.Close()
	return seed.Load(f)
}
