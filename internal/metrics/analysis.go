package metrics

import (
	"log"

	"gorm.io/gorm"

	"github.com/nkashima/vgc-scout/backend/internal/ev"
	"github.com/nkashima/vgc-scout/backend/internal/models"
)

// UpdateAnalysisMetrics queries the database and updates pipeline-related
// Prometheus gauges. Call this after analyses complete or periodically.
func UpdateAnalysisMetrics(db *gorm.DB) {
	if db == nil {
		return
	}

	var articleCount int64
	if err := db.Model(&models.Article{}).Count(&articleCount).Error; err != nil {
		log.Printf("Metrics: failed to count articles: %v", err)
	} else {
		ArticleDatabaseSize.Set(float64(articleCount))
	}

	var teamCount int64
	if err := db.Model(&models.Team{}).Count(&teamCount).Error; err != nil {
		log.Printf("Metrics: failed to count teams: %v", err)
	} else {
		TeamsStored.Set(float64(teamCount))
	}

	// Slots by provenance tag. Zero out known tags first so gauges for
	// tags that vanished from the table do not keep their stale value.
	type sourceCount struct {
		EVSource string
		Count    int64
	}
	var sourceCounts []sourceCount
	if err := db.Model(&models.TeamPokemon{}).
		Select("ev_source, COUNT(*) as count").
		Group("ev_source").
		Scan(&sourceCounts).Error; err != nil {
		log.Printf("Metrics: failed to count slots by provenance: %v", err)
	} else {
		for _, p := range ev.AllProvenances() {
			TeamPokemonByProvenance.WithLabelValues(string(p)).Set(0)
		}
		for _, sc := range sourceCounts {
			TeamPokemonByProvenance.WithLabelValues(sc.EVSource).Set(float64(sc.Count))
		}
	}

	var pendingJobs int64
	if err := db.Model(&models.AnalysisJob{}).
		Where("status = ?", models.AnalysisStatusPending).
		Count(&pendingJobs).Error; err != nil {
		log.Printf("Metrics: failed to count pending jobs: %v", err)
	} else {
		AnalysisJobsPending.Set(float64(pendingJobs))
	}
}
