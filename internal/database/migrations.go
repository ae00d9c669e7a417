package database

import (
	"log"

	"gorm.io/gorm"
)

// RunMigrations runs any custom data migrations after schema changes
func RunMigrations(db *gorm.DB) error {
	if err := migrateEVSourceField(db); err != nil {
		return err
	}
	if err := migrateRegulationField(db); err != nil {
		return err
	}
	return nil
}

// migrateEVSourceField backfills provenance tags written by older versions.
// Early builds stored OCR-derived spreads as 'ocr_extracted' and left the
// column empty when extraction fell through. Safe to run multiple times.
func migrateEVSourceField(db *gorm.DB) error {
	if !db.Migrator().HasColumn("team_pokemon", "ev_source") {
		return nil
	}

	// Legacy OCR tag predates the vision-model pipeline
	result := db.Exec(`
		UPDATE team_pokemon
		SET ev_source = 'image_extracted'
		WHERE ev_source = 'ocr_extracted'
	`)
	if result.Error != nil {
		log.Printf("Warning: failed to migrate legacy ocr_extracted tags: %v", result.Error)
	} else if result.RowsAffected > 0 {
		log.Printf("Migrated %d legacy ocr_extracted rows", result.RowsAffected)
	}

	// Rows written before provenance tracking carry no tag at all
	result = db.Exec(`
		UPDATE team_pokemon
		SET ev_source = 'default_missing'
		WHERE ev_source IS NULL OR ev_source = ''
	`)
	if result.Error != nil {
		log.Printf("Warning: failed to backfill empty ev_source rows: %v", result.Error)
	} else if result.RowsAffected > 0 {
		log.Printf("Backfilled %d rows without an ev_source tag", result.RowsAffected)
	}

	return nil
}

// migrateRegulationField normalizes regulation letters stored by older
// versions, which kept whatever casing the article used ("reg g", "G").
func migrateRegulationField(db *gorm.DB) error {
	for _, table := range []string{"articles", "teams"} {
		if !db.Migrator().HasColumn(table, "regulation") {
			continue
		}
		db.Exec(`UPDATE ` + table + ` SET regulation = UPPER(REPLACE(regulation, 'reg ', '')) WHERE regulation != ''`)
	}

	log.Println("Regulation field migration complete")
	return nil
}
