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

	"github.com/ignite/phishsim/internal/config"
	"github.com/ignite/phishsim/internal/landing"
	"github.com/ignite/phishsim/internal/notify"
	"github.com/ignite/phishsim/internal/repository/postgres"
	"github.com/ignite/phishsim/internal/service/ledger"
	"github.com/ignite/phishsim/internal/tracking"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// The tracking service runs separately from the admin server: it faces
// campaign recipients directly and scales independently of the console.
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

	dispatcher := notify.NewDispatcher(cfg.Webhooks.PlatformURL, cfg.Webhooks.Timeout(), cfg.Webhooks.QueueSize)
	dispatcher.Start()
	defer dispatcher.Stop()

	targetSvc := ledger.NewService(postgres.NewTargetRepo(db))
	handler := tracking.NewHandler(
		targetSvc,
		postgres.NewCampaignRepo(db),
		postgres.NewUserRepo(db),
		dispatcher,
		landing.NewTemplateService(),
	)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Tracking.Host, cfg.Tracking.Port),
		Handler:      handler.Routes(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("tracking service listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down tracking service...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	srv.Shutdown(ctx)
}
