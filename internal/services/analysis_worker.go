package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nkashima/vgc-scout/backend/internal/metrics"
	"github.com/nkashima/vgc-scout/backend/internal/models"
)

const (
	// How often the worker polls for pending jobs
	defaultAnalysisWorkerInterval = 10 * time.Second

	// Budget for one job end to end: fetch, images, analysis, storage
	analysisJobTimeout = 3 * time.Minute

	// Transient failures are retried this many times before the job fails
	maxAnalysisAttempts = 3

	// Images downloaded per article; each one can cost a vision call
	maxImagesPerArticle = 3
)

// AnalysisWorker drains the analysis job queue in the background. One job
// covers one article URL: fetch the page, pull its content images, run the
// extraction chain, and store the resulting team. Jobs run strictly one at
// a time so the polite fetch and Gemini rate limits stay meaningful.
type AnalysisWorker struct {
	db         *gorm.DB
	fetcher    *ArticleFetcherService
	hybrid     *HybridAnalysisService
	teams      *TeamService
	images     *ImageStorageService
	translator *TranslationService

	pollInterval time.Duration
	stopCh       chan struct{}
	wg           sync.WaitGroup

	mu            sync.Mutex
	currentJobID  string
	jobsProcessed int
	lastJobTime   time.Time
}

// AnalysisWorkerStatus is the worker state reported on the admin API.
type AnalysisWorkerStatus struct {
	CurrentJobID     string    `json:"current_job_id,omitempty"`
	PendingJobs      int64     `json:"pending_jobs"`
	JobsProcessed    int       `json:"jobs_processed"`
	LastJobTime      time.Time `json:"last_job_time"`
	PollInterval     string    `json:"poll_interval"`
	FetchesRemaining int       `json:"fetches_remaining"`
}

// NewAnalysisWorker creates the worker. ANALYSIS_WORKER_INTERVAL overrides
// the poll interval, mainly so tests and local runs can shorten it.
func NewAnalysisWorker(db *gorm.DB, fetcher *ArticleFetcherService, hybrid *HybridAnalysisService, teams *TeamService, images *ImageStorageService, translator *TranslationService) *AnalysisWorker {
	interval := defaultAnalysisWorkerInterval
	if v := os.Getenv("ANALYSIS_WORKER_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			interval = d
		}
	}

	return &AnalysisWorker{
		db:           db,
		fetcher:      fetcher,
		hybrid:       hybrid,
		teams:        teams,
		images:       images,
		translator:   translator,
		pollInterval: interval,
		stopCh:       make(chan struct{}),
	}
}

// Start begins the background worker
func (w *AnalysisWorker) Start() {
	w.recoverInterruptedJobs()

	w.wg.Add(1)
	go w.processLoop()
}

// Stop gracefully shuts down the worker
func (w *AnalysisWorker) Stop() {
	close(w.stopCh)
	w.wg.Wait()
}

// processLoop continuously looks for pending jobs to process
func (w *AnalysisWorker) processLoop() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.processPendingJobs()
		}
	}
}

// processPendingJobs runs every queued job, oldest first
func (w *AnalysisWorker) processPendingJobs() {
	var jobs []models.AnalysisJob
	w.db.Where("status = ?", models.AnalysisStatusPending).
		Order("created_at ASC").Find(&jobs)

	for _, job := range jobs {
		select {
		case <-w.stopCh:
			return
		default:
			w.processJob(job.ID)
		}
	}
}

// processJob runs a single job under the single-flight guard
func (w *AnalysisWorker) processJob(jobID string) {
	w.mu.Lock()
	if w.currentJobID != "" {
		// Another job is being processed
		w.mu.Unlock()
		return
	}
	w.currentJobID = jobID
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.currentJobID = ""
		w.mu.Unlock()
	}()

	var job models.AnalysisJob
	if err := w.db.First(&job, "id = ?", jobID).Error; err != nil {
		return
	}
	if job.IsTerminal() {
		return
	}

	w.markJobProcessing(&job)

	ctx, cancel := context.WithTimeout(context.Background(), analysisJobTimeout)
	defer cancel()

	w.runAnalysis(ctx, &job)
}

// runAnalysis executes the full pipeline for one job and records the
// outcome on both the job and its article.
func (w *AnalysisWorker) runAnalysis(ctx context.Context, job *models.AnalysisJob) {
	started := time.Now()

	result, err := w.fetcher.Fetch(ctx, job.ArticleURL)
	if err != nil {
		code := models.AnalysisErrorFetchFailed
		if categorizeAnalysisError(err) == models.AnalysisErrorTimeout {
			code = models.AnalysisErrorTimeout
		}
		w.failOrRequeue(job, code, err.Error())
		return
	}

	if strings.TrimSpace(result.BodyText) == "" {
		w.markJobFailed(job, models.AnalysisErrorNoContent, "page contained no extractable text")
		return
	}

	article, err := w.upsertArticle(ctx, result)
	if err != nil {
		w.markJobFailed(job, models.AnalysisErrorInternal, fmt.Sprintf("failed to store article: %v", err))
		return
	}

	images := w.downloadImages(ctx, article, result.Images)

	analyzed, err := w.hybrid.AnalyzeArticle(ctx, article.BodyText, images)
	if err != nil {
		if errors.Is(err, ErrNoTeamFound) {
			w.markArticleEmpty(article)
			w.markJobCompleted(job, article.ID, 0)
			log.Printf("[ANALYSIS] Job %s: no team in %s (%.1fs)",
				job.ID, job.ArticleURL, time.Since(started).Seconds())
			return
		}
		w.failOrRequeue(job, categorizeAnalysisError(err), err.Error())
		return
	}

	if _, err := w.teams.SaveAnalyzedTeam(article, analyzed); err != nil {
		w.markJobFailed(job, models.AnalysisErrorInternal, fmt.Sprintf("failed to store team: %v", err))
		return
	}

	w.finishArticle(article, analyzed)
	w.markJobCompleted(job, article.ID, 1)
	log.Printf("[ANALYSIS] Job %s: %d pokemon from %s via %s (%.1fs)",
		job.ID, len(analyzed.Pokemon), job.ArticleURL, analyzed.Source, time.Since(started).Seconds())
}

// upsertArticle stores the fetched page, reusing the existing row when the
// URL was analyzed before so teams keep a stable article to hang off.
func (w *AnalysisWorker) upsertArticle(ctx context.Context, result *FetchResult) (*models.Article, error) {
	var article models.Article
	err := w.db.First(&article, "url = ?", result.URL).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		article = models.Article{
			ID:     uuid.New().String(),
			URL:    result.URL,
			Source: result.Source,
			Status: models.ArticleStatusPending,
		}
	}

	article.Title = result.Title
	article.TitleEN = w.translateTitle(ctx, result.Title)
	article.Author = result.Author
	article.BodyText = result.BodyText
	article.BodyChars = result.BodyChars

	if err := w.db.Save(&article).Error; err != nil {
		return nil, err
	}
	return &article, nil
}

func (w *AnalysisWorker) translateTitle(ctx context.Context, title string) string {
	if w.translator != nil {
		return w.translator.TranslateTitle(ctx, title)
	}
	return TranslateSpeciesNames(title)
}

// downloadImages pulls the first few content images and stores them beside
// the article so reanalysis can reuse them without refetching. Failures are
// skipped; images are an enrichment, not a requirement.
func (w *AnalysisWorker) downloadImages(ctx context.Context, article *models.Article, urls []string) [][]byte {
	if len(urls) == 0 {
		return nil
	}

	var data [][]byte
	var stored []string
	for _, u := range urls {
		if len(data) == maxImagesPerArticle {
			break
		}
		img, err := w.fetcher.FetchImage(ctx, u)
		if err != nil {
			debugLog("Image download failed: %v", err)
			continue
		}
		data = append(data, img)

		filename, err := w.images.SaveImage(img, u)
		if err != nil {
			debugLog("Image store failed: %v", err)
			continue
		}
		stored = append(stored, filename)
	}

	if len(stored) > 0 {
		if encoded, err := json.Marshal(stored); err == nil {
			article.ImageFiles = string(encoded)
			w.db.Model(&models.Article{}).Where("id = ?", article.ID).
				Update("image_files", article.ImageFiles)
		}
	}
	return data
}

// finishArticle marks the article analyzed, adopting the regulation the
// extraction found when the article itself had none or an older one.
func (w *AnalysisWorker) finishArticle(article *models.Article, analyzed *AnalyzedTeam) {
	now := time.Now()
	updates := map[string]interface{}{
		"status":      models.ArticleStatusAnalyzed,
		"analyzed_at": now,
		"updated_at":  now,
	}
	if analyzed.Regulation != "" {
		updates["regulation"] = analyzed.Regulation
	}
	w.db.Model(&models.Article{}).Where("id = ?", article.ID).Updates(updates)
	metrics.ArticlesAnalyzedTotal.WithLabelValues(string(models.ArticleStatusAnalyzed)).Inc()
}

func (w *AnalysisWorker) markArticleEmpty(article *models.Article) {
	now := time.Now()
	w.db.Model(&models.Article{}).Where("id = ?", article.ID).
		Updates(map[string]interface{}{
			"status":      models.ArticleStatusEmpty,
			"analyzed_at": now,
			"updated_at":  now,
		})
	metrics.ArticlesAnalyzedTotal.WithLabelValues(string(models.ArticleStatusEmpty)).Inc()
}

func (w *AnalysisWorker) markJobProcessing(job *models.AnalysisJob) {
	job.Attempts++
	w.db.Model(&models.AnalysisJob{}).Where("id = ?", job.ID).
		Updates(map[string]interface{}{
			"status":     models.AnalysisStatusProcessing,
			"attempts":   job.Attempts,
			"updated_at": time.Now(),
		})
}

// failOrRequeue sends a transiently failed job back to the queue until its
// attempts run out, then fails it for good.
func (w *AnalysisWorker) failOrRequeue(job *models.AnalysisJob, code models.AnalysisErrorCode, msg string) {
	if transientAnalysisError(code) && job.Attempts < maxAnalysisAttempts {
		log.Printf("[ANALYSIS] Job %s attempt %d failed [%s], will retry: %s", job.ID, job.Attempts, code, msg)
		w.db.Model(&models.AnalysisJob{}).Where("id = ?", job.ID).
			Updates(map[string]interface{}{
				"status":        models.AnalysisStatusPending,
				"error_code":    code,
				"error_message": msg,
				"updated_at":    time.Now(),
			})
		return
	}
	w.markJobFailed(job, code, msg)
}

// markJobFailed marks a job as failed with a categorized error code and message
func (w *AnalysisWorker) markJobFailed(job *models.AnalysisJob, code models.AnalysisErrorCode, msg string) {
	log.Printf("[ANALYSIS] Job %s failed [%s]: %s", job.ID, code, msg)
	now := time.Now()
	w.db.Model(&models.AnalysisJob{}).Where("id = ?", job.ID).
		Updates(map[string]interface{}{
			"status":        models.AnalysisStatusFailed,
			"error_code":    code,
			"error_message": msg,
			"completed_at":  now,
			"updated_at":    now,
		})

	w.noteJobDone()
	metrics.ArticlesAnalyzedTotal.WithLabelValues(string(models.ArticleStatusFailed)).Inc()
	metrics.UpdateAnalysisMetrics(w.db)
}

func (w *AnalysisWorker) markJobCompleted(job *models.AnalysisJob, articleID string, teamsFound int) {
	now := time.Now()
	w.db.Model(&models.AnalysisJob{}).Where("id = ?", job.ID).
		Updates(map[string]interface{}{
			"status":        models.AnalysisStatusCompleted,
			"article_id":    articleID,
			"teams_found":   teamsFound,
			"error_code":    "",
			"error_message": "",
			"completed_at":  now,
			"updated_at":    now,
		})

	w.noteJobDone()
	metrics.UpdateAnalysisMetrics(w.db)
}

func (w *AnalysisWorker) noteJobDone() {
	w.mu.Lock()
	w.jobsProcessed++
	w.lastJobTime = time.Now()
	w.mu.Unlock()
}

// recoverInterruptedJobs requeues jobs left in processing by an unclean
// shutdown. The worker is the only processor, so at startup any processing
// row is stale.
func (w *AnalysisWorker) recoverInterruptedJobs() {
	res := w.db.Model(&models.AnalysisJob{}).
		Where("status = ?", models.AnalysisStatusProcessing).
		Updates(map[string]interface{}{
			"status":     models.AnalysisStatusPending,
			"updated_at": time.Now(),
		})
	if res.RowsAffected > 0 {
		log.Printf("[ANALYSIS] Requeued %d interrupted jobs", res.RowsAffected)
	}
}

// EnqueueURL queues an article URL for analysis. An active job for the same
// URL is returned as is, and without force the most recent completed job is
// too, so resubmitting a known article costs nothing. Callers tell the two
// cases apart by the job status.
func (w *AnalysisWorker) EnqueueURL(articleURL string, force bool) (*models.AnalysisJob, error) {
	parsed, err := url.Parse(articleURL)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, fmt.Errorf("invalid article URL %q", articleURL)
	}

	var existing models.AnalysisJob
	err = w.db.Where("article_url = ? AND status IN ?", articleURL, []string{
		string(models.AnalysisStatusPending),
		string(models.AnalysisStatusProcessing),
	}).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if !force {
		err = w.db.Where("article_url = ? AND status = ?", articleURL, models.AnalysisStatusCompleted).
			Order("created_at DESC").First(&existing).Error
		if err == nil {
			return &existing, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	job := &models.AnalysisJob{
		ID:         uuid.New().String(),
		ArticleURL: articleURL,
		Status:     models.AnalysisStatusPending,
	}
	if err := w.db.Create(job).Error; err != nil {
		return nil, err
	}

	log.Printf("[ANALYSIS] Queued job %s for %s", job.ID, articleURL)
	metrics.UpdateAnalysisMetrics(w.db)
	return job, nil
}

// GetJob retrieves a job, attaching its article and extracted teams once
// analysis has produced them.
func (w *AnalysisWorker) GetJob(jobID string) (*models.AnalysisJob, error) {
	var job models.AnalysisJob
	if err := w.db.First(&job, "id = ?", jobID).Error; err != nil {
		return nil, err
	}

	if job.ArticleID != "" {
		var article models.Article
		if err := w.db.First(&article, "id = ?", job.ArticleID).Error; err == nil {
			job.Article = &article
		}
		if teams, err := w.teams.TeamsByArticle(job.ArticleID); err == nil && len(teams) > 0 {
			job.Teams = teams
		}
	}
	return &job, nil
}

// ReanalyzeArticle reruns the extraction chain over an already stored
// article, using its saved body text and images instead of refetching.
func (w *AnalysisWorker) ReanalyzeArticle(ctx context.Context, articleID string) (*models.Team, error) {
	var article models.Article
	if err := w.db.First(&article, "id = ?", articleID).Error; err != nil {
		return nil, err
	}
	if strings.TrimSpace(article.BodyText) == "" {
		return nil, fmt.Errorf("article %s has no stored body text", articleID)
	}

	analyzed, err := w.hybrid.AnalyzeArticle(ctx, article.BodyText, w.loadStoredImages(&article))
	if err != nil {
		if errors.Is(err, ErrNoTeamFound) {
			w.markArticleEmpty(&article)
		}
		return nil, err
	}

	team, err := w.teams.SaveAnalyzedTeam(&article, analyzed)
	if err != nil {
		return nil, err
	}

	w.finishArticle(&article, analyzed)
	metrics.UpdateAnalysisMetrics(w.db)
	return team, nil
}

func (w *AnalysisWorker) loadStoredImages(article *models.Article) [][]byte {
	if article.ImageFiles == "" {
		return nil
	}
	var filenames []string
	if err := json.Unmarshal([]byte(article.ImageFiles), &filenames); err != nil {
		return nil
	}

	var data [][]byte
	for _, name := range filenames {
		img, err := os.ReadFile(w.images.GetImagePath(name))
		if err != nil {
			continue
		}
		data = append(data, img)
	}
	return data
}

// Status returns the current worker state for the admin API.
func (w *AnalysisWorker) Status() AnalysisWorkerStatus {
	var pending int64
	w.db.Model(&models.AnalysisJob{}).
		Where("status = ?", models.AnalysisStatusPending).Count(&pending)

	w.mu.Lock()
	defer w.mu.Unlock()
	return AnalysisWorkerStatus{
		CurrentJobID:     w.currentJobID,
		PendingJobs:      pending,
		JobsProcessed:    w.jobsProcessed,
		LastJobTime:      w.lastJobTime,
		PollInterval:     w.pollInterval.String(),
		FetchesRemaining: w.fetcher.GetRequestsRemaining(),
	}
}

// transientAnalysisError reports whether a failure is worth retrying.
// Content problems are permanent; network and quota problems pass.
func transientAnalysisError(code models.AnalysisErrorCode) bool {
	switch code {
	case models.AnalysisErrorFetchFailed, models.AnalysisErrorAPIError, models.AnalysisErrorTimeout:
		return true
	}
	return false
}

// categorizeAnalysisError maps an analysis failure to its error code.
// These codes help the frontend display user-friendly messages.
func categorizeAnalysisError(err error) models.AnalysisErrorCode {
	if err == nil {
		return models.AnalysisErrorNone
	}
	msg := err.Error()

	if errors.Is(err, context.DeadlineExceeded) ||
		strings.Contains(msg, "context deadline exceeded") ||
		strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "Timeout") {
		return models.AnalysisErrorTimeout
	}

	if strings.Contains(msg, "API returned status") ||
		strings.Contains(msg, "request failed") ||
		strings.Contains(msg, "429") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "quota") {
		return models.AnalysisErrorAPIError
	}

	if strings.Contains(msg, "not enabled") ||
		strings.Contains(msg, "not configured") {
		return models.AnalysisErrorServiceUnavailable
	}

	return models.AnalysisErrorInternal
}
