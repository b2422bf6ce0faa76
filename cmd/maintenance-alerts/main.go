package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/mr1hm/go-maintenance-alerts/internal/alerts"
	"github.com/mr1hm/go-maintenance-alerts/internal/api"
	"github.com/mr1hm/go-maintenance-alerts/internal/config"
	internalgrpc "github.com/mr1hm/go-maintenance-alerts/internal/grpc"
	"github.com/mr1hm/go-maintenance-alerts/internal/logging"
	"github.com/mr1hm/go-maintenance-alerts/internal/models"
	"github.com/mr1hm/go-maintenance-alerts/internal/repository"
	"github.com/mr1hm/go-maintenance-alerts/internal/scheduler"
	"github.com/mr1hm/go-maintenance-alerts/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logFile := logging.Setup(cfg.Logging)
	defer logFile.Close()

	slog.Info("Server starting", "host", cfg.Server.Host, "port", cfg.Server.Port)

	db, err := repository.NewSQLiteDB(cfg.DB.Path)
	if err != nil {
		logging.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	settings, dirty, err := config.ResolveAlertSettings(ctx, cfg.Alerts.SettingsFile, db, time.Now())
	if err != nil {
		logging.Fatalf("Failed to load alert settings: %v", err)
	}
	if dirty {
		if err := db.SaveSettings(ctx, &settings); err != nil {
			logging.Fatalf("Failed to save alert settings: %v", err)
		}
	}

	engine := alerts.NewEngine(settings)
	engine.OnAlert(func(a models.Alert) error {
		slog.Debug("alert created", "alert_id", a.ID, "trigger", a.Trigger, "severity", a.Severity)
		return nil
	})

	alertStore := store.New()

	// Create broadcaster for gRPC streaming
	broadcaster := internalgrpc.NewBroadcaster()

	// Start alert scheduler
	mgr := scheduler.NewManager(cfg, db, engine, alertStore, broadcaster)
	mgr.Start(ctx)

	// Start gRPC server
	grpcServer := internalgrpc.NewServer(alertStore, engine, broadcaster)
	go func() {
		grpcAddr := fmt.Sprintf(":%d", cfg.GRPC.Port)
		if err := grpcServer.Start(grpcAddr); err != nil {
			logging.Fatalf("gRPC server error: %v", err)
		}
	}()

	// Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false, // Set to false when using wildcard origins
	}))
	router.Use(api.RateLimitMiddleware(cfg.Server.RateLimitRPS))

	handler := api.NewHandler(api.Deps{
		Alerts:     alertStore,
		Engine:     engine,
		Checker:    mgr,
		Checklists: db,
		Requests:   db,
		Settings:   db,
	})
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	cancel()
	mgr.Stop()
	broadcaster.Close() // Close all streams gracefully
	grpcServer.Stop()

	slog.Info("shutdown complete", "alerts", alertStore.Len(), "unread", alertStore.UnreadCount())
}
