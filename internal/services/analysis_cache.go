package services

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nkashima/vgc-scout/backend/internal/metrics"
	"github.com/nkashima/vgc-scout/backend/internal/models"
)

const (
	// GeminiCacheTTL is the TTL for Gemini extraction results (model may improve)
	GeminiCacheTTL = 30 * 24 * time.Hour // 30 days

	// CacheKindArticle keys cached body-text extractions.
	CacheKindArticle = "article"

	// CacheKindImage keys cached vision-model output for team images.
	CacheKindImage = "image"
)

// AnalysisCacheService handles caching of extraction results in the database
type AnalysisCacheService struct {
	db *gorm.DB
}

// NewAnalysisCacheService creates a new analysis cache service
func NewAnalysisCacheService(db *gorm.DB) *AnalysisCacheService {
	return &AnalysisCacheService{db: db}
}

// Get retrieves a cached extraction result by kind and source text hash.
// Returns the serialized result and true if found. Expired Gemini entries
// are deleted on read.
func (s *AnalysisCacheService) Get(kind, sourceText string) (string, bool) {
	if s.db == nil {
		return "", false
	}

	hash := hashText(kind + ":" + sourceText)

	var cached models.AnalysisCache
	err := s.db.Where("source_hash = ?", hash).First(&cached).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			debugLog("Cache lookup error for hash=%s: %v", hash[:16], err)
		}
		metrics.AnalysisCacheHitsTotal.WithLabelValues("miss").Inc()
		return "", false
	}

	if cached.IsExpired() {
		s.db.Delete(&cached)
		metrics.AnalysisCacheHitsTotal.WithLabelValues("expired").Inc()
		debugLog("Cache entry expired for hash=%s (source=%s)", hash[:16], cached.Source)
		return "", false
	}

	// Increment hit count inline (avoid goroutine-per-hit)
	_ = s.db.Model(&models.AnalysisCache{}).Where("id = ?", cached.ID).UpdateColumn("hit_count", gorm.Expr("hit_count + 1")).Error

	metrics.AnalysisCacheHitsTotal.WithLabelValues("hit").Inc()
	debugLog("Cache hit for hash=%s (source=%s)", hash[:16], cached.Source)
	return cached.ResultJSON, true
}

// Set stores an extraction result. Gemini results expire after 30 days;
// deterministic parser results never expire.
func (s *AnalysisCacheService) Set(kind, sourceText, resultJSON, source, model string) error {
	if s.db == nil {
		return nil
	}

	hash := hashText(kind + ":" + sourceText)

	var expiresAt *time.Time
	if source == "gemini" {
		exp := time.Now().Add(GeminiCacheTTL)
		expiresAt = &exp
	}

	cached := models.AnalysisCache{
		SourceHash: hash,
		Kind:       kind,
		ResultJSON: resultJSON,
		Source:     source,
		Model:      model,
		CreatedAt:  time.Now(),
		ExpiresAt:  expiresAt,
		HitCount:   0,
	}

	// Upsert: update result, source, and expiry if entry exists
	// This allows re-analyzing with a better source (e.g., parser -> gemini)
	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "source_hash"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"result_json", "source", "model", "expires_at",
		}),
	}).Create(&cached).Error
}

// Clear drops cached results, optionally restricted to one kind. Used by
// the admin API after extraction logic changes make old results stale.
func (s *AnalysisCacheService) Clear(kind string) (int64, error) {
	if s.db == nil {
		return 0, nil
	}

	// gorm refuses unconditioned deletes, hence the tautology.
	query := s.db.Where("1 = 1")
	if kind != "" {
		query = s.db.Where("kind = ?", kind)
	}
	res := query.Delete(&models.AnalysisCache{})
	return res.RowsAffected, res.Error
}

// GetStats returns cache statistics
func (s *AnalysisCacheService) GetStats() (totalEntries int64, totalHits int64) {
	if s.db == nil {
		return 0, 0
	}

	s.db.Model(&models.AnalysisCache{}).Count(&totalEntries)

	var result struct {
		TotalHits int64
	}
	s.db.Model(&models.AnalysisCache{}).Select("COALESCE(SUM(hit_count), 0) as total_hits").Scan(&result)
	totalHits = result.TotalHits

	return totalEntries, totalHits
}

// hashText creates a SHA256 hash of the text for efficient lookups
func hashText(text string) string {
	hash := sha256.Sum256([]byte(text))
	return hex.EncodeToString(hash[:])
}
