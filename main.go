package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"enquiry-admin/internal/auth"
	"enquiry-admin/internal/client"
	"enquiry-admin/internal/config"
	"enquiry-admin/internal/handlers"
	"enquiry-admin/internal/httpx"
	"enquiry-admin/internal/notify"
	"enquiry-admin/internal/session"
	"enquiry-admin/internal/stats"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	logger := logrus.New()
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.JSONFormatter{})

	logger.Info("Starting Enquiry Admin Service")

	httpClient := client.NewHTTPClient(cfg, logger)
	store := client.NewDocumentStore(cfg, httpClient, logger)
	sessions := session.NewManager()
	calculator := stats.NewCalculator()
	authSvc := auth.NewService(cfg, store, logger)
	notifier := notify.New(cfg.WebhookURL, cfg.WebhookSecret, cfg.DashboardURL, httpClient, logger)

	handler := handlers.New(cfg, store, sessions, calculator, authSvc, notifier, logger)
	metrics := httpx.NewHTTPMetrics("enquiry-admin")

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), metrics.Handler())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health and metrics endpoints
	router.GET("/healthz", handler.HealthCheck)
	router.GET("/readyz", handler.ReadinessCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Authentication
	router.POST("/auth/login", handler.Login)

	// Everything below requires a valid session token
	api := router.Group("/", authSvc.Middleware())
	api.POST("/auth/logout", handler.Logout)

	api.POST("/enquiries/load", handler.LoadEnquiries)
	api.GET("/enquiries", handler.ListEnquiries)
	api.GET("/enquiries/stats", handler.GetOverview)
	api.PATCH("/enquiries/filters", handler.UpdateFilters)
	api.POST("/enquiries/filters/clear", handler.ClearFilters)
	api.POST("/enquiries", handler.CreateEnquiry)
	api.PUT("/enquiries/:id", handler.UpdateEnquiry)
	api.DELETE("/enquiries/:id", handler.DeleteEnquiry)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.WithField("port", cfg.Port).Info("Server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Fatal("Server forced to shutdown")
	}

	logger.Info("Server exited")
}
