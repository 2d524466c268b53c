// Command tracking serves only the open-tracking beacon, for deployment on
// the public tracking host. It needs nothing but the database.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"

	"github.com/agentdrop/admin-console/internal/config"
	"github.com/agentdrop/admin-console/internal/pkg/logger"
	"github.com/agentdrop/admin-console/internal/pkg/metrics"
	"github.com/agentdrop/admin-console/internal/repository/postgres"
	"github.com/agentdrop/admin-console/internal/service/approval"
	"github.com/agentdrop/admin-console/internal/tracking"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}
	cfg, err := config.LoadFromEnv(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.Database.URL == "" {
		log.Fatal("DATABASE_URL is required")
	}
	logger.SetLevel(logger.ParseLevel(cfg.Logging.Level))

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)

	m := metrics.New()
	// Only RecordOpen is reachable from here, so no dispatcher or renderer.
	recorder := approval.NewService(postgres.NewWaitlistRepo(db), postgres.NewTrackingRepo(db), nil, nil, approval.Options{Metrics: m})
	handler := tracking.NewHandler(recorder, cfg.Tracking.ProcessTimeout())

	routes := chi.NewRouter()
	routes.Use(m.Middleware)
	routes.Method(http.MethodGet, "/metrics", m.Handler())
	routes.Mount("/", handler.Routes())

	port := cfg.Tracking.Port
	if v := os.Getenv("PORT"); v != "" {
		fmt.Sscanf(v, "%d", &port)
	}
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      routes,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("tracking service listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down tracking service...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
