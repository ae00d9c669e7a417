package database

import (
	"fmt"
	"log"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/nkashima/vgc-scout/backend/internal/models"
)

var DB *gorm.DB

// Initialize opens the SQLite database and migrates the schema. The analysis
// worker and the HTTP handlers share the same file, so the connection is
// opened in WAL mode with a busy timeout instead of failing on lock
// contention.
func Initialize(dbPath string) error {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on", dbPath)

	var err error
	DB, err = gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	log.Println("Database connected successfully")

	err = DB.AutoMigrate(
		&models.Article{},
		&models.Team{},
		&models.TeamPokemon{},
		&models.AnalysisJob{},
		&models.AnalysisCache{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	log.Println("Database migration completed")
	return nil
}

func GetDB() *gorm.DB {
	return DB
}
