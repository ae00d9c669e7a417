package services

import (
	"context"
	"log"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/nkashima/vgc-scout/backend/internal/metrics"
	"github.com/nkashima/vgc-scout/backend/internal/models"
)

const (
	// maintenanceInterval is how often expired state is swept
	maintenanceInterval = 1 * time.Hour

	// completedJobRetention is how long finished jobs stay queryable
	completedJobRetention = 30 * 24 * time.Hour
)

// MaintenanceWorker sweeps expired cache entries and long-finished jobs so
// the sqlite file stays small, and keeps the database gauges fresh.
type MaintenanceWorker struct {
	db       *gorm.DB
	interval time.Duration
	mu       sync.RWMutex

	// Stats
	cacheEntriesPurged int64
	jobsPurged         int64
	lastSweepTime      time.Time
}

type MaintenanceStatus struct {
	LastSweepTime      time.Time `json:"last_sweep_time"`
	NextSweepTime      time.Time `json:"next_sweep_time"`
	CacheEntriesPurged int64     `json:"cache_entries_purged"`
	JobsPurged         int64     `json:"jobs_purged"`
}

func NewMaintenanceWorker(db *gorm.DB) *MaintenanceWorker {
	return &MaintenanceWorker{
		db:       db,
		interval: maintenanceInterval,
	}
}

// Start begins the background maintenance worker
func (w *MaintenanceWorker) Start(ctx context.Context) {
	log.Printf("Maintenance worker started: sweeping every %v", w.interval)

	// Run immediately on startup
	w.Sweep()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Maintenance worker stopping...")
			return
		case <-ticker.C:
			w.Sweep()
		}
	}
}

// Sweep runs one maintenance pass and refreshes the database gauges.
func (w *MaintenanceWorker) Sweep() {
	cachePurged := w.purgeExpiredCache()
	jobsPurged := w.purgeOldJobs()

	metrics.UpdateAnalysisMetrics(w.db)

	w.mu.Lock()
	w.cacheEntriesPurged += cachePurged
	w.jobsPurged += jobsPurged
	w.lastSweepTime = time.Now()
	w.mu.Unlock()

	if cachePurged > 0 || jobsPurged > 0 {
		log.Printf("Maintenance: purged %d expired cache entries, %d old jobs", cachePurged, jobsPurged)
	}
}

// purgeExpiredCache deletes Gemini cache rows past their TTL. Parser rows
// carry no expiry and are never swept.
func (w *MaintenanceWorker) purgeExpiredCache() int64 {
	res := w.db.Where("expires_at IS NOT NULL AND expires_at < ?", time.Now()).
		Delete(&models.AnalysisCache{})
	if res.Error != nil {
		log.Printf("Maintenance: cache purge failed: %v", res.Error)
		return 0
	}
	return res.RowsAffected
}

// purgeOldJobs deletes terminal jobs once their retention runs out. The
// articles and teams they produced are kept.
func (w *MaintenanceWorker) purgeOldJobs() int64 {
	cutoff := time.Now().Add(-completedJobRetention)
	res := w.db.Where("status IN ? AND completed_at < ?", []string{
		string(models.AnalysisStatusCompleted),
		string(models.AnalysisStatusFailed),
	}, cutoff).Delete(&models.AnalysisJob{})
	if res.Error != nil {
		log.Printf("Maintenance: job purge failed: %v", res.Error)
		return 0
	}
	return res.RowsAffected
}

// GetStatus returns the current status
func (w *MaintenanceWorker) GetStatus() MaintenanceStatus {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return MaintenanceStatus{
		LastSweepTime:      w.lastSweepTime,
		NextSweepTime:      w.lastSweepTime.Add(w.interval),
		CacheEntriesPurged: w.cacheEntriesPurged,
		JobsPurged:         w.jobsPurged,
	}
}
