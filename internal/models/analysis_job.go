package models

import (
	"time"
)

// AnalysisJobStatus represents the status of an article analysis job
type AnalysisJobStatus string

const (
	AnalysisStatusPending    AnalysisJobStatus = "pending"
	AnalysisStatusProcessing AnalysisJobStatus = "processing"
	AnalysisStatusCompleted  AnalysisJobStatus = "completed"
	AnalysisStatusFailed     AnalysisJobStatus = "failed"
)

// AnalysisErrorCode categorizes why an analysis job failed.
// These codes help the frontend display user-friendly messages.
type AnalysisErrorCode string

const (
	// AnalysisErrorNone - No error (analysis succeeded)
	AnalysisErrorNone AnalysisErrorCode = ""

	// AnalysisErrorFetchFailed - Article could not be downloaded
	AnalysisErrorFetchFailed AnalysisErrorCode = "fetch_failed"

	// AnalysisErrorNoContent - Page downloaded but no article body was found
	AnalysisErrorNoContent AnalysisErrorCode = "no_content"

	// AnalysisErrorAPIError - Gemini API unavailable (rate limit, network error, etc.)
	AnalysisErrorAPIError AnalysisErrorCode = "api_error"

	// AnalysisErrorTimeout - Analysis took too long
	AnalysisErrorTimeout AnalysisErrorCode = "timeout"

	// AnalysisErrorServiceUnavailable - No analysis backend is configured
	AnalysisErrorServiceUnavailable AnalysisErrorCode = "service_unavailable"

	// AnalysisErrorInternal - Unexpected failure storing results
	AnalysisErrorInternal AnalysisErrorCode = "internal_error"
)

// AnalysisJob represents one queued article analysis request. Jobs are
// processed asynchronously by the analysis worker; ArticleID is filled in
// once the fetched page has been stored.
type AnalysisJob struct {
	ID           string            `json:"id" gorm:"primaryKey"`
	ArticleURL   string            `json:"article_url" gorm:"not null;index"`
	ArticleID    string            `json:"article_id,omitempty" gorm:"index"`
	Status       AnalysisJobStatus `json:"status" gorm:"not null;default:'pending';index"`
	Attempts     int               `json:"attempts" gorm:"default:0"`
	TeamsFound   int               `json:"teams_found" gorm:"default:0"`
	ErrorCode    AnalysisErrorCode `json:"error_code,omitempty"`
	ErrorMessage string            `json:"error_message,omitempty"` // Detailed error message for debugging
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
	CompletedAt  *time.Time        `json:"completed_at"`

	// Transient fields (not persisted, populated at runtime)
	Article *Article `json:"article,omitempty" gorm:"-"`
	Teams   []Team   `json:"teams,omitempty" gorm:"-"`
}

// IsTerminal reports whether the job has reached a final state.
func (j *AnalysisJob) IsTerminal() bool {
	return j.Status == AnalysisStatusCompleted || j.Status == AnalysisStatusFailed
}

// AnalysisJobResponse is the API response for job status
type AnalysisJobResponse struct {
	ID           string            `json:"id"`
	ArticleURL   string            `json:"article_url"`
	ArticleID    string            `json:"article_id,omitempty"`
	Status       AnalysisJobStatus `json:"status"`
	TeamsFound   int               `json:"teams_found"`
	ErrorCode    AnalysisErrorCode `json:"error_code,omitempty"`
	ErrorMessage string            `json:"error_message,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	CompletedAt  *time.Time        `json:"completed_at,omitempty"`
}

// SubmitAnalysisRequest is the request to queue an article for analysis
type SubmitAnalysisRequest struct {
	URL   string `json:"url" binding:"required"`
	Force bool   `json:"force"` // Re-analyze even when the URL was already processed
}
