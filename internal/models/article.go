package models

import (
	"strings"
	"time"
)

// ArticleSource identifies the publishing platform an article came from.
type ArticleSource string

const (
	SourceNote       ArticleSource = "note"     // note.com
	SourceHatena     ArticleSource = "hatena"   // hatenablog.com
	SourceLivedoor   ArticleSource = "livedoor" // blog.livedoor.jp
	SourceAmeblo     ArticleSource = "ameblo"   // ameblo.jp
	SourceStandalone ArticleSource = "standalone"
)

// ArticleStatus tracks an article through the analysis pipeline.
type ArticleStatus string

const (
	ArticleStatusPending  ArticleStatus = "pending"  // fetched, waiting for analysis
	ArticleStatusAnalyzed ArticleStatus = "analyzed" // at least one team extracted
	ArticleStatusEmpty    ArticleStatus = "empty"    // analyzed, no team found
	ArticleStatusFailed   ArticleStatus = "failed"
)

type Article struct {
	PublishedAt *time.Time    `json:"published_at"`
	AnalyzedAt  *time.Time    `json:"analyzed_at"` // When analysis last completed
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
	ID          string        `json:"id" gorm:"primaryKey"`
	URL         string        `json:"url" gorm:"not null;uniqueIndex"`
	Title       string        `json:"title" gorm:"index"`
	TitleEN     string        `json:"title_en"`
	Author      string        `json:"author"`
	Regulation  string        `json:"regulation"` // VGC regulation letter, e.g. "G"
	Source      ArticleSource `json:"source" gorm:"not null;index"`
	Status      ArticleStatus `json:"status" gorm:"not null;default:'pending';index"`
	BodyText    string        `json:"-" gorm:"type:text"` // Extracted plain text, not served raw
	BodyChars   int           `json:"body_chars"`
	ImageFiles  string        `json:"-" gorm:"type:text"` // JSON array of stored image filenames
	Teams       []Team        `json:"teams,omitempty" gorm:"foreignKey:ArticleID;references:ID"`
}

// DetectSource maps an article URL to its publishing platform.
func DetectSource(url string) ArticleSource {
	switch {
	case containsHost(url, "note.com"):
		return SourceNote
	case containsHost(url, "hatenablog.com"), containsHost(url, "hatenadiary.jp"):
		return SourceHatena
	case containsHost(url, "livedoor.jp"), containsHost(url, "livedoor.blog"):
		return SourceLivedoor
	case containsHost(url, "ameblo.jp"):
		return SourceAmeblo
	default:
		return SourceStandalone
	}
}

func containsHost(url, host string) bool {
	return strings.Contains(strings.ToLower(url), host)
}

type ArticleSearchResult struct {
	Articles   []Article `json:"articles"`
	TotalCount int       `json:"total_count"`
	HasMore    bool      `json:"has_more"`
}
