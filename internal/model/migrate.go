package model

import "gorm.io/gorm"

// AutoMigrate runs GORM auto-migration for all models.
// The unique index on parties.code is the uniqueness authority for ticket
// codes; code generation retries on conflict rather than pre-checking alone.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&Party{})
}
