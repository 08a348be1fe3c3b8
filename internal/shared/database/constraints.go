package database

import (
	"gorm.io/gorm"
)

// MigrateConstraints adds the checks AutoMigrate cannot express
func MigrateConstraints(db *gorm.DB) error {
	// Snapshots are always JSON objects
	var exists bool
	err := db.Raw(`
		SELECT EXISTS (
			SELECT 1 FROM pg_constraint WHERE conname = 'chk_wizard_drafts_payload_object'
		)
	`).Scan(&exists).Error
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	return db.Exec(`
		ALTER TABLE wizard_drafts
		ADD CONSTRAINT chk_wizard_drafts_payload_object
		CHECK (jsonb_typeof(payload) = 'object');
	`).Error
}
