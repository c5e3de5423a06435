package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/sokinpui/nekoai.go/internal/config"
	"github.com/sokinpui/nekoai.go/internal/server"
	"github.com/sokinpui/nekoai.go/internal/vibecache"
	"github.com/sokinpui/nekoai.go/nekoai"
)

func main() {
	log.SetPrefix("server: ")

	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env")
	}

	cfg := config.Load()
	if cfg.Token == "" {
		log.Fatal("NEKOAI_TOKEN is required")
	}

	opts := []nekoai.Option{
		nekoai.WithTimeout(time.Duration(cfg.TimeoutS) * time.Second),
	}
	if cfg.Host != "" {
		opts = append(opts, nekoai.WithHost(cfg.Host))
	}
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		opts = append(opts, nekoai.WithVibeCache(vibecache.New(redisClient, 24*time.Hour)))
		log.Printf("Using Redis vibe cache at %s", cfg.RedisAddr)
	}

	client := nekoai.New(cfg.Token, opts...)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	h := server.NewHTTPServer(client, cfg.StaticDir)
	if err := server.New(h, cfg.Port).Run(ctx); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}
