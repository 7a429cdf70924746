package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/pawpack/backend/internal/config"
	"github.com/pawpack/backend/internal/db"
	"github.com/pawpack/backend/internal/logger"
	"github.com/pawpack/backend/internal/middleware"
	"github.com/pawpack/backend/internal/observability"
	"github.com/pawpack/backend/internal/routes"
	"github.com/pawpack/backend/internal/seed"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

func corsMiddleware(cfg config.ServerConfig) gin.HandlerFunc {
	origins := []string{"http://localhost:5173"}
	if cfg.Env != "local" && cfg.CORSOrigin != "" {
		origins = strings.Split(cfg.CORSOrigin, ",")
	}

	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           24 * time.Hour,
	})
}

func main() {
	// Load environment variables before the logger reads LOG_LEVEL
	envErr := godotenv.Load()
	logger.Initialize()
	if envErr != nil {
		logger.Warn("No .env file found, using environment variables", nil)
	}

	cfg := config.Load()
	if cfg.Server.JWTSecret == "" {
		logger.Fatal("JWT_SECRET must be set", nil)
	}

	shutdownTracing := observability.InitTracing(context.Background(), cfg.Tracing, cfg.Server.Env)

	conn, err := db.Connect(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", map[string]interface{}{"error": err.Error()})
	}
	if err := db.Migrate(conn); err != nil {
		logger.Fatal("Database migration failed", map[string]interface{}{"error": err.Error()})
	}

	if cfg.Server.Env == "development" {
		logger.Info("Seeding database with development data", nil)
		users, err := seed.LoadUsers(seed.DefaultUsersPaths...)
		if err == nil {
			err = seed.Run(conn, users)
		}
		if err != nil {
			logger.Warn("Failed to seed database", map[string]interface{}{"error": err.Error()})
		}
	}

	// Setup graceful shutdown
	stopChan := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		<-sigChan
		logger.Warn("Received shutdown signal, stopping background workers...", nil)
		close(stopChan)
	}()

	if cfg.Server.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false

	r.Use(middleware.CustomLoggerMiddleware())
	r.Use(corsMiddleware(cfg.Server))
	r.Use(gin.Recovery())
	if cfg.Tracing.Enabled {
		r.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	}

	svc := routes.NewServices(conn, cfg)
	if !svc.Client.Configured() {
		logger.Warn("GEMINI_API_KEY not set, AI answers will be unavailable and guidance will use fallbacks", nil)
	}
	routes.SetupRoutes(r, conn, cfg, svc, stopChan)

	// Generation runs inside the request, so writes may take several minutes.
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.GenerationTimeout + 30*time.Second,
	}

	logger.Info("Starting PawPack backend server", map[string]interface{}{
		"port":     cfg.Server.Port,
		"gin_mode": gin.Mode(),
		"ai_model": svc.Client.Model(),
	})

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	<-stopChan
	logger.Info("Shutting down server gracefully...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", map[string]interface{}{
			"error": err.Error(),
		})
	} else {
		logger.Info("Server exited gracefully", nil)
	}

	if err := shutdownTracing(ctx); err != nil {
		logger.Warn("Tracing shutdown failed", map[string]interface{}{"error": err.Error()})
	}
}
