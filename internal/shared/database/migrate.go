package database

import (
	"eventwizard/internal/draftstore"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&draftstore.DraftRecord{},
	)
}
