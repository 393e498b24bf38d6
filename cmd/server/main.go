package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pos_backoffice/internal/config"
	"pos_backoffice/internal/database"
	"pos_backoffice/internal/notifier"
	"pos_backoffice/internal/repositories"
	"pos_backoffice/internal/router"
	"pos_backoffice/internal/services"
	"pos_backoffice/pkg/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if cfg != nil {
		utils.InitLogger(cfg.LogLevel, cfg.LogFormat)
	} else {
		utils.InitLogger("info", "console")
	}
	if err != nil {
		utils.LogError(err, "Invalid configuration")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, db, err := openStore(ctx, cfg)
	if err != nil {
		utils.LogError(err, "Failed to initialize storage")
		os.Exit(1)
	}
	if db != nil {
		defer db.Close()
	}

	tokens, err := utils.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		utils.LogError(err, "Failed to create token issuer")
		os.Exit(1)
	}

	var statusNotifier services.StatusNotifier
	var webhook *notifier.WebhookNotifier
	if cfg.WebhookURL != "" {
		webhook = notifier.New(notifier.Config{
			URL:         cfg.WebhookURL,
			MaxAttempts: cfg.WebhookMaxAttempts,
			Backoff:     cfg.WebhookBackoff,
		})
		webhook.Start()
		statusNotifier = webhook
	}

	svc := router.NewServices(store, tokens, cfg, statusNotifier)
	if err := svc.Auth.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		utils.LogError(err, "Failed to create the initial admin account")
		os.Exit(1)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(utils.GinLogger())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.AllowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	corsConfig.AllowCredentials = true
	engine.Use(cors.New(corsConfig))

	router.Setup(engine, svc, tokens)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		utils.LogInfo("Server starting", map[string]interface{}{"port": cfg.Port, "storage": cfg.StorageDriver})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.LogError(err, "Server stopped unexpectedly")
			stop()
		}
	}()

	<-ctx.Done()
	utils.LogInfo("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.LogError(err, "Graceful shutdown failed")
	}
	if webhook != nil {
		if err := webhook.Stop(shutdownCtx); err != nil {
			utils.LogWarn("Webhook queue not drained before shutdown", map[string]interface{}{"error": err.Error()})
		}
	}
}

// openStore returns the configured store. The *sql.DB is nil for the memory
// driver.
func openStore(ctx context.Context, cfg *config.Config) (repositories.Store, *sql.DB, error) {
	if cfg.StorageDriver == config.StorageMemory {
		utils.LogWarn("Using in-memory storage; data is lost on restart")
		return repositories.NewMemoryStore(), nil, nil
	}
	db, err := database.Open(ctx, cfg.DB)
	if err != nil {
		return nil, nil, err
	}
	return repositories.NewPostgresStore(db, cfg.TxMaxRetries), db, nil
}
