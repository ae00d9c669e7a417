package models

import "time"

// AnalysisCache stores cached team-extraction results keyed by a hash of
// the analyzed text. Two cache modes:
// 1. Article analysis: SourceHash of body text → extracted teams JSON
// 2. Image analysis: SourceHash of image bytes → vision output text
//
// Gemini results expire after 30 days (model may improve).
// Regex-only extractions never expire; they are deterministic.
type AnalysisCache struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	SourceHash string     `gorm:"uniqueIndex;not null;size:64" json:"source_hash"` // SHA256 hex
	Kind       string     `gorm:"not null;size:20;index" json:"kind"`              // "article" or "image"
	ResultJSON string     `gorm:"not null" json:"result_json"`                     // Serialized extraction result
	Source     string     `gorm:"default:'unknown';size:20;index" json:"source"`   // "gemini", "parser", "hybrid"
	Model      string     `gorm:"size:40" json:"model"`                            // Gemini model version when applicable
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  *time.Time `gorm:"index" json:"expires_at"` // nil = never expires
	HitCount   int        `gorm:"default:0" json:"hit_count"`
}

func (AnalysisCache) TableName() string {
	return "analysis_caches"
}

// IsExpired returns true if the cache entry has expired
func (c *AnalysisCache) IsExpired() bool {
	if c.ExpiresAt == nil {
		return false
	}
	return time.Now().After(*c.ExpiresAt)
}
