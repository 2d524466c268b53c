package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"

	"github.com/agentdrop/admin-console/internal/api"
	"github.com/agentdrop/admin-console/internal/auth"
	"github.com/agentdrop/admin-console/internal/config"
	"github.com/agentdrop/admin-console/internal/email"
	"github.com/agentdrop/admin-console/internal/pkg/distlock"
	"github.com/agentdrop/admin-console/internal/pkg/logger"
	"github.com/agentdrop/admin-console/internal/pkg/metrics"
	"github.com/agentdrop/admin-console/internal/repository/postgres"
	"github.com/agentdrop/admin-console/internal/service/analytics"
	"github.com/agentdrop/admin-console/internal/service/approval"
	"github.com/agentdrop/admin-console/internal/service/blog"
	"github.com/agentdrop/admin-console/internal/service/invite"
	"github.com/agentdrop/admin-console/internal/service/users"
	"github.com/agentdrop/admin-console/internal/service/waitlist"
	"github.com/agentdrop/admin-console/internal/storage"
	"github.com/agentdrop/admin-console/internal/template"
	"github.com/agentdrop/admin-console/internal/tracking"
)

func extractHost(dsn string) string {
	at := strings.Index(dsn, "@")
	if at < 0 {
		return "(unknown)"
	}
	rest := dsn[at+1:]
	if slash := strings.Index(rest, "/"); slash >= 0 {
		rest = rest[:slash]
	}
	return rest
}

func main() {
	log.Println("╔════════════════════════════════════════════════════════════╗")
	log.Println("║  Agentdrop Admin Console (cmd/server/main.go)             ║")
	log.Println("║  Beta approvals, invite codes, blog and analytics         ║")
	log.Println("╚════════════════════════════════════════════════════════════╝")

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}
	cfg, err := config.LoadFromEnv(cfgPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}
	logger.SetLevel(logger.ParseLevel(cfg.Logging.Level))
	if cfg.Logging.RedactPII != nil {
		logger.SetRedactPII(*cfg.Logging.RedactPII)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	dsn := cfg.Database.DSN()
	log.Printf("DB URL host portion: ...@%s/...", extractHost(dsn))
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, pingCancel := context.WithTimeout(ctx, 10*time.Second)
	if err := db.PingContext(pingCtx); err != nil {
		pingCancel()
		log.Fatalf("Failed to reach database: %v", err)
	}
	pingCancel()
	log.Println("Connected to PostgreSQL")

	// Redis is optional; without it send locks use Postgres advisory locks.
	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Fatalf("Invalid REDIS_URL: %v", err)
		}
		redisClient = redis.NewClient(opts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Printf("WARNING: Redis unreachable, falling back to advisory locks: %v", err)
			redisClient.Close()
			redisClient = nil
		} else {
			defer redisClient.Close()
			log.Println("Connected to Redis")
		}
	}
	// Without Redis each in-flight send pins a pool connection for its lock;
	// half the pool stays free for the workflow's own queries.
	locks := distlock.NewFactory(redisClient, db, "approval-send", cfg.Redis.LockTTL(), distlock.AdvisorySlots(cfg.Database.MaxOpenConns))

	// Email dispatcher and templates
	dispatcher, err := email.New(ctx, cfg.Email)
	if err != nil {
		log.Fatalf("Failed to initialize email dispatcher: %v", err)
	}
	if !dispatcher.Configured() {
		log.Printf("WARNING: %s has no credentials; sends will fail until configured", dispatcher.Provider())
	}
	log.Printf("Email provider: %s", dispatcher.Provider())

	renderer, err := template.New(cfg.Templates.Dir, template.Engine(cfg.Templates.Engine))
	if err != nil {
		log.Fatalf("Failed to load templates: %v", err)
	}

	// Blog image storage
	var images interface {
		storage.ImageStore
		api.StorageChecker
	}
	if cfg.Storage.LocalDir != "" {
		local, err := storage.NewLocalStore(cfg.Storage.LocalDir, cfg.Storage.PublicBaseURL)
		if err != nil {
			log.Fatalf("Failed to initialize local image store: %v", err)
		}
		images = local
		log.Printf("Blog images stored locally in %s", cfg.Storage.LocalDir)
	} else {
		s3Store, err := storage.NewS3Store(ctx, cfg.Storage)
		if err != nil {
			log.Fatalf("Failed to initialize S3 image store: %v", err)
		}
		images = s3Store
		log.Printf("Blog images stored in s3://%s", cfg.Storage.ImageBucket)
	}

	m := metrics.New()

	// Repositories and services
	waitlistRepo := postgres.NewWaitlistRepo(db)
	trackingRepo := postgres.NewTrackingRepo(db)
	profileRepo := postgres.NewProfileRepo(db)

	approvalSvc := approval.NewService(waitlistRepo, trackingRepo, dispatcher, renderer, approval.Options{
		FromName:         cfg.Email.FromName,
		FromEmail:        cfg.Email.FromEmail,
		ApprovalSubject:  cfg.Email.ApprovalSubject,
		RejectionSubject: cfg.Email.RejectionSubject,
		SignupURL:        cfg.App.SignupURL(),
		DefaultBaseURL:   cfg.App.AdminURL,
		DispatchTimeout:  cfg.Email.DispatchTimeout(),
		Locks:            locks,
		Metrics:          m,
	})

	// Authentication
	var verifier auth.TokenVerifier
	if cfg.Auth.Enabled {
		v, err := auth.NewVerifier(ctx, cfg.Auth, nil)
		if err != nil {
			log.Fatalf("Failed to initialize token verifier: %v", err)
		}
		verifier = v
		log.Printf("Session verification enabled (jwks: %s)", cfg.Auth.JWKSURL)
	} else {
		log.Println("WARNING: Authentication disabled; admin routes will reject every request")
	}
	gate := auth.NewGate(verifier, auth.NewAdminChecker(profileRepo), cfg.Auth.SessionCookie)

	server := api.NewServer(cfg.Server, api.Deps{
		Approval:       approvalSvc,
		Waitlist:       waitlist.NewService(waitlistRepo),
		Analytics:      analytics.NewService(postgres.NewStatsRepo(db), nil),
		Users:          users.NewService(profileRepo, nil),
		Invites:        invite.NewService(postgres.NewInviteRepo(db)),
		Blog:           blog.NewService(postgres.NewBlogRepo(db), images, cfg.Storage.MaxUploadBytes()),
		Gate:           gate,
		Tracking:       tracking.NewHandler(approvalSvc, cfg.Tracking.ProcessTimeout()),
		Health:         api.NewHealthChecker(db, redisClient, images),
		Metrics:        m,
		MaxUploadBytes: cfg.Storage.MaxUploadBytes(),
	})

	// Setup graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Starting server on %s", cfg.Server.Addr())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	log.Println("All services initialized, server is ready")

	<-done
	log.Println("Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
