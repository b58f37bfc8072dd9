package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ignite/phishsim/internal/api"
	"github.com/ignite/phishsim/internal/auth"
	"github.com/ignite/phishsim/internal/config"
	"github.com/ignite/phishsim/internal/export"
	"github.com/ignite/phishsim/internal/notify"
	"github.com/ignite/phishsim/internal/pkg/distlock"
	"github.com/ignite/phishsim/internal/report"
	"github.com/ignite/phishsim/internal/repository/postgres"
	"github.com/ignite/phishsim/internal/service/campaign"
	"github.com/ignite/phishsim/internal/service/ledger"
	"github.com/ignite/phishsim/internal/service/stats"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	defer db.Close()

	// Redis backs the launch lock when available; PostgreSQL advisory
	// locks cover the single-host case.
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Printf("Redis unavailable, falling back to PG advisory locks: %v", err)
			redisClient = nil
		}
	}
	lockFactory := distlock.Factory(func(key string, ttl time.Duration) distlock.DistLock {
		return distlock.NewLock(redisClient, db, key, ttl)
	})

	targetRepo := postgres.NewTargetRepo(db)
	campaignRepo := postgres.NewCampaignRepo(db)
	userRepo := postgres.NewUserRepo(db)

	dispatcher := notify.NewDispatcher(cfg.Webhooks.PlatformURL, cfg.Webhooks.Timeout(), cfg.Webhooks.QueueSize)
	dispatcher.Start()
	defer dispatcher.Stop()

	targetSvc := ledger.NewService(targetRepo)
	campaignSvc := campaign.NewService(campaignRepo, targetSvc, lockFactory, dispatcher)
	statsSvc := stats.NewService(targetRepo)

	broker := export.NewBroker(cfg.Export.TokenTTL())
	broker.StartJanitor()
	defer broker.Stop()

	var archiver api.Archiver
	if cfg.Export.S3Bucket != "" {
		s3arch, err := report.NewS3Archiver(context.Background(),
			cfg.Export.S3Bucket, cfg.Export.S3Prefix, cfg.Export.S3Region)
		if err != nil {
			log.Printf("Export archiving disabled: %v", err)
		} else {
			archiver = s3arch
		}
	}

	var authManager *auth.Manager
	if cfg.Auth.Enabled && cfg.Auth.GoogleClientID != "" {
		baseURL := cfg.Server.BaseURL
		if envURL := os.Getenv("AUTH_BASE_URL"); envURL != "" {
			baseURL = envURL
		}
		authManager = auth.NewManager(&cfg.Auth, baseURL)
		authManager.StartSessionCleanup()
		defer authManager.Stop()
	} else {
		log.Println("WARNING: auth disabled, admin API is open")
	}

	handlers := api.NewHandlers(campaignSvc, statsSvc, targetSvc, userRepo,
		broker, archiver, cfg.Server.BaseURL)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.GetHost(), cfg.Server.Port),
		Handler:      api.SetupRoutes(handlers, authManager),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("admin server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down admin server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	srv.Shutdown(ctx)
}
