// Package main starts the vgc-scout API server: the analysis worker, the
// maintenance sweeper, and the HTTP API in front of them.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nkashima/vgc-scout/backend/internal/api/handlers"
	"github.com/nkashima/vgc-scout/backend/internal/database"
	"github.com/nkashima/vgc-scout/backend/internal/metrics"
	"github.com/nkashima/vgc-scout/backend/internal/middleware"
	"github.com/nkashima/vgc-scout/backend/internal/services"
)

const shutdownTimeout = 10 * time.Second

func main() {
	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		dbPath = "vgc-scout.db"
	}
	if err := database.Initialize(dbPath); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	db := database.GetDB()
	if err := database.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	fetcher := services.NewArticleFetcherService(envFloat("ARTICLE_FETCH_RPS"), envInt("ARTICLE_FETCH_DAILY_LIMIT"))
	hybrid := services.NewHybridAnalysisService(db)
	teams := services.NewTeamService(db)
	images := services.NewImageStorageService()
	translator := services.NewTranslationService()
	worker := services.NewAnalysisWorker(db, fetcher, hybrid, teams, images, translator)
	maintenance := services.NewMaintenanceWorker(db)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	worker.Start()
	go maintenance.Start(ctx)
	metrics.UpdateAnalysisMetrics(db)

	router := setupRouter(worker, hybrid, teams, maintenance)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		log.Println("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("vgc-scout API listening on :%s", port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server error: %v", err)
	}

	// In-flight requests have drained; let the worker finish its job
	worker.Stop()
	log.Println("Server stopped")
}

func setupRouter(worker *services.AnalysisWorker, hybrid *services.HybridAnalysisService, teams *services.TeamService, maintenance *services.MaintenanceWorker) *gin.Engine {
	router := gin.Default()
	router.Use(metrics.HTTPMetrics())

	corsConfig := cors.DefaultConfig()
	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		corsConfig.AllowOrigins = strings.Split(origins, ",")
	} else {
		// Vite dev server and local preview
		corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://localhost:4173"}
	}
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization", "X-Admin-Key")
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	analysisHandler := handlers.NewAnalysisHandler(worker, hybrid)
	teamHandler := handlers.NewTeamHandler(teams)
	articleHandler := handlers.NewArticleHandler(teams)
	adminHandler := handlers.NewAdminHandler(worker, hybrid, maintenance)

	api := router.Group("/api")
	{
		api.POST("/analyses", analysisHandler.SubmitAnalysis)
		api.GET("/analyses/jobs/:id", analysisHandler.GetAnalysisJob)
		api.POST("/analyses/text", analysisHandler.AnalyzeText)

		api.GET("/teams", teamHandler.ListTeams)
		api.GET("/teams/:id", teamHandler.GetTeam)

		api.GET("/articles", articleHandler.ListArticles)
		api.GET("/articles/:id", articleHandler.GetArticle)

		api.GET("/auth/status", middleware.GetAuthStatus)
		api.POST("/auth/verify", middleware.VerifyAdminKey)

		admin := api.Group("/admin")
		admin.Use(middleware.AdminKeyAuth())
		{
			admin.GET("/status", adminHandler.GetStatus)
			admin.DELETE("/cache", adminHandler.ClearCache)
			admin.POST("/articles/:id/reanalyze", adminHandler.ReanalyzeArticle)
			admin.POST("/maintenance/sweep", adminHandler.RunMaintenance)
			admin.DELETE("/teams/:id", teamHandler.DeleteTeam)
		}
	}

	return router
}

// envFloat reads a float environment variable, zero when unset or invalid.
// The services fall back to their own defaults on zero.
func envFloat(key string) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return 0
}

func envInt(key string) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return 0
}
