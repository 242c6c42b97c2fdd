package main

import (
	"context"                          // context package is needed for Redis operations
	"errors"                           // Server close detection
	"net/http"                         // HTTP server
	"os"                               // Signal plumbing
	"os/signal"                        // Graceful shutdown
	"path/filepath"                    // Upload directories
	"rental_system/internal/agreement" // Lease agreement PDFs
	"rental_system/internal/api"       // Custom package for API handlers
	"rental_system/internal/config"    // Custom package for configuration
	"rental_system/internal/db"        // Database bootstrap
	"rental_system/internal/gateway"   // Card payments
	"rental_system/internal/notify"    // Outbound email
	"rental_system/internal/service"   // Rental workflows
	"rental_system/internal/storage"   // Uploaded files
	"syscall"                          // SIGTERM
	"time"                             // Server timeouts

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration

	// Setup logger
	if cfg.IsProd {
		logrus.SetFormatter(&logrus.JSONFormatter{})
		gin.SetMode(gin.ReleaseMode) // Set Mode to Release if in production
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	if cfg.JWTSecret == "" {
		logrus.Fatal("JWT_SECRET must be set")
	}

	// Connect to the database and bring the schema up to date
	gdb, err := db.Open(cfg)
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}
	if err := db.Migrate(gdb); err != nil {
		logrus.Fatalf("failed to migrate DB: %v", err)
	}

	// Redis is optional; listings are served uncached without it
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr, // Redis server address
			Password: cfg.RedisPass, // Redis password
			DB:       cfg.RedisDB,   // Redis database number
		})
		// Test Redis connection
		if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
			logrus.WithError(err).Warn("Redis unavailable, caching disabled")
			_ = redisClient.Close()
			redisClient = nil
		}
	}

	var notifier notify.Notifier = notify.LogNotifier{}
	if cfg.SMTPHost != "" {
		notifier = notify.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom)
	} else {
		logrus.Warn("SMTP_HOST not set, emails are only logged")
	}

	var gw gateway.Gateway = gateway.Disabled{}
	if cfg.StripeKey != "" {
		gw = gateway.NewStripe(cfg.StripeKey, cfg.StripeCurrency)
	} else {
		logrus.Warn("STRIPE_SECRET_KEY not set, card charges are disabled")
	}

	images, err := storage.NewLocal(filepath.Join(cfg.UploadDir, "images"), "/uploads/images")
	if err != nil {
		logrus.Fatalf("failed to prepare image storage: %v", err)
	}
	avatars, err := storage.NewLocal(filepath.Join(cfg.UploadDir, "avatars"), "/uploads/avatars")
	if err != nil {
		logrus.Fatalf("failed to prepare avatar storage: %v", err)
	}
	renderer, err := agreement.NewRenderer(cfg.AgreementDir)
	if err != nil {
		logrus.Fatalf("failed to prepare agreement storage: %v", err)
	}

	svc := service.New(gdb, service.Deps{
		Redis:       redisClient,
		Notifier:    notifier,
		Gateway:     gw,
		Images:      images,
		Avatars:     avatars,
		Agreements:  renderer,
		JWTSecret:   cfg.JWTSecret,
		FrontendURL: cfg.FrontendURL,
	})

	r, err := api.NewRouter(svc, gdb, redisClient, api.RouterConfig{
		JWTSecret:      cfg.JWTSecret,
		UploadDir:      cfg.UploadDir,
		TrustedProxies: cfg.TrustedProxies,
	})
	if err != nil {
		logrus.Fatalf("failed to build router: %v", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logrus.Info("Server running on " + cfg.AppPort) // Log server start
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("server error: %v", err)
		}
	}()

	// Wait for an interrupt, then drain requests and pending emails
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logrus.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("Forced shutdown")
	}
	svc.Wait()
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if sqlDB, err := gdb.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
