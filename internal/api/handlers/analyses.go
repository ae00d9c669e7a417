package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nkashima/vgc-scout/backend/internal/models"
	"github.com/nkashima/vgc-scout/backend/internal/services"
)

type AnalysisHandler struct {
	worker *services.AnalysisWorker
	hybrid *services.HybridAnalysisService
}

func NewAnalysisHandler(worker *services.AnalysisWorker, hybrid *services.HybridAnalysisService) *AnalysisHandler {
	return &AnalysisHandler{
		worker: worker,
		hybrid: hybrid,
	}
}

// SubmitAnalysis queues an article URL for background analysis
// POST /api/analyses
func (h *AnalysisHandler) SubmitAnalysis(c *gin.Context) {
	var req models.SubmitAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	job, err := h.worker.EnqueueURL(req.URL, req.Force)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// A terminal job means the URL was analyzed before and force was not
	// set, so the caller gets the finished result instead of a new queue slot
	status := http.StatusAccepted
	if job.IsTerminal() {
		status = http.StatusOK
	}
	c.JSON(status, toJobResponse(job))
}

// GetAnalysisJob returns one job, including the stored article and its
// extracted teams once the job has completed
// GET /api/analyses/jobs/:id
func (h *AnalysisHandler) GetAnalysisJob(c *gin.Context) {
	jobID := c.Param("id")
	if jobID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "job id is required"})
		return
	}

	job, err := h.worker.GetJob(jobID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}

	c.JSON(http.StatusOK, job)
}

// AnalyzeText runs the extraction chain synchronously over pasted article
// text. Nothing is stored; this powers the frontend's paste box.
// POST /api/analyses/text
func (h *AnalysisHandler) AnalyzeText(c *gin.Context) {
	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	team, err := h.hybrid.AnalyzeText(c.Request.Context(), req.Text)
	if err != nil {
		if errors.Is(err, services.ErrNoTeamFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, team)
}

func toJobResponse(job *models.AnalysisJob) models.AnalysisJobResponse {
	return models.AnalysisJobResponse{
		ID:           job.ID,
		ArticleURL:   job.ArticleURL,
		ArticleID:    job.ArticleID,
		Status:       job.Status,
		TeamsFound:   job.TeamsFound,
		ErrorCode:    job.ErrorCode,
		ErrorMessage: job.ErrorMessage,
		CreatedAt:    job.CreatedAt,
		CompletedAt:  job.CompletedAt,
	}
}
