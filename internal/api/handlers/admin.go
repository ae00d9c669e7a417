package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nkashima/vgc-scout/backend/internal/database"
	"github.com/nkashima/vgc-scout/backend/internal/models"
	"github.com/nkashima/vgc-scout/backend/internal/services"
)

// reanalysisTimeout bounds a single admin-triggered rerun. Generous because
// a six-image article can need several Gemini round trips.
const reanalysisTimeout = 5 * time.Minute

type AdminHandler struct {
	worker      *services.AnalysisWorker
	hybrid      *services.HybridAnalysisService
	maintenance *services.MaintenanceWorker
}

func NewAdminHandler(worker *services.AnalysisWorker, hybrid *services.HybridAnalysisService, maintenance *services.MaintenanceWorker) *AdminHandler {
	return &AdminHandler{
		worker:      worker,
		hybrid:      hybrid,
		maintenance: maintenance,
	}
}

// GetStatus reports worker, quota, cache, and backend configuration state
// GET /api/admin/status
func (h *AdminHandler) GetStatus(c *gin.Context) {
	entries, hits := h.hybrid.Cache().GetStats()

	c.JSON(http.StatusOK, gin.H{
		"worker":      h.worker.Status(),
		"maintenance": h.maintenance.GetStatus(),
		"cache": gin.H{
			"entries": entries,
			"hits":    hits,
		},
		"gemini_enabled":       h.hybrid.IsGeminiEnabled(),
		"confidence_threshold": h.hybrid.GetConfidenceThreshold(),
	})
}

// ClearCache drops cached extraction results, all of them or one kind.
// Used after extraction logic changes make old cached results stale.
// DELETE /api/admin/cache?kind=article|image
func (h *AdminHandler) ClearCache(c *gin.Context) {
	kind := c.Query("kind")
	if kind != "" && kind != services.CacheKindArticle && kind != services.CacheKindImage {
		c.JSON(http.StatusBadRequest, gin.H{"error": "kind must be 'article' or 'image'"})
		return
	}

	removed, err := h.hybrid.Cache().Clear(kind)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to clear cache"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "cache cleared",
		"removed": removed,
	})
}

// ReanalyzeArticle reruns extraction over a stored article in the background,
// using its saved body text and images. Useful after extraction improvements.
// POST /api/admin/articles/:id/reanalyze
func (h *AdminHandler) ReanalyzeArticle(c *gin.Context) {
	articleID := c.Param("id")
	if articleID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "article id is required"})
		return
	}

	db := database.GetDB()
	var article models.Article
	if err := db.First(&article, "id = ?", articleID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "article not found"})
		return
	}
	if strings.TrimSpace(article.BodyText) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "article has no stored body text to reanalyze"})
		return
	}

	// Run in the background with a fresh context; the request context dies
	// when we return 202
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), reanalysisTimeout)
		defer cancel()
		if _, err := h.worker.ReanalyzeArticle(ctx, articleID); err != nil {
			log.Printf("Reanalysis of article %s failed: %v", articleID, err)
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"message":    "reanalysis started",
		"article_id": articleID,
		"status":     "running",
	})
}

// RunMaintenance triggers an immediate cache and job table sweep
// POST /api/admin/maintenance/sweep
func (h *AdminHandler) RunMaintenance(c *gin.Context) {
	h.maintenance.Sweep()
	c.JSON(http.StatusOK, h.maintenance.GetStatus())
}
