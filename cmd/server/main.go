package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/route-ledger/internal/app"
	"github.com/smarttransit/route-ledger/internal/config"
	"github.com/smarttransit/route-ledger/internal/handlers"
	"github.com/smarttransit/route-ledger/internal/middleware"
	"github.com/smarttransit/route-ledger/internal/services"
	"github.com/smarttransit/route-ledger/pkg/jwt"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	logger := app.NewLogger(cfg.Server.LogLevel, os.Stdout)
	logger.Info("Starting route ledger server")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Set Gin mode
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	rt, err := app.Build(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize ledger runtime: %v", err)
	}
	defer rt.Close()

	// Scheduled ledger audit
	var cronService *services.CronService
	var scheduler handlers.AuditScheduler
	if cfg.Ledger.AuditSchedule != "" {
		cronService = services.NewCronService(cfg.Ledger.AuditSchedule, rt.Processor.Audit, logger)
		if err := cronService.Start(); err != nil {
			logger.Fatalf("Failed to start cron service: %v", err)
		}
		scheduler = cronService
		logger.WithField("schedule", cfg.Ledger.AuditSchedule).Info("Ledger audit scheduled")
	}

	var jwtService *jwt.Service
	if cfg.JWT.Secret != "" {
		jwtService = jwt.NewService(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry)
	}
	if cfg.Admin.PasswordHash == "" {
		logger.Warn("ADMIN_PASSWORD_HASH is not set, admin endpoints are disabled")
	}

	router := newRouter(cfg, rt, jwtService, scheduler, logger)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	if cronService != nil {
		cronService.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

func newRouter(cfg *config.Config, rt *app.Runtime, jwtService *jwt.Service, scheduler handlers.AuditScheduler, logger *logrus.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.Server.EnableRequestLog {
		router.Use(middleware.RequestLogger(logger))
	}

	corsConfig := cors.Config{
		AllowOrigins:  cfg.CORS.AllowedOrigins,
		AllowMethods:  cfg.CORS.AllowedMethods,
		AllowHeaders:  cfg.CORS.AllowedHeaders,
		ExposeHeaders: []string{"Content-Length", middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if !allowsAnyOrigin(cfg.CORS.AllowedOrigins) {
		corsConfig.AllowCredentials = true
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", handlers.HealthHandler(cfg.Store.Driver, version, rt.HealthCheck))

	adminOnly := func(c *gin.Context) {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "Admin access is not configured"})
	}
	if jwtService != nil {
		adminOnly = middleware.AdminAuth(jwtService, logger)
	}

	handlers.RegisterRoutes(router,
		handlers.NewLedgerHandler(rt.Processor, logger),
		handlers.NewAdminAuthHandler(cfg.Admin.PasswordHash, jwtService, logger),
		adminOnly,
	)
	router.GET("/api/auditStatus", adminOnly, handlers.AuditStatusHandler(scheduler))
	return router
}

func allowsAnyOrigin(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
