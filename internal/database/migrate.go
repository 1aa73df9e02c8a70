package database

import (
	"github.com/wellmirror/backend/internal/models"
	"gorm.io/gorm"
)

// RunMigrations creates or updates the three storage tables: profile,
// append-only meal log, append-only generated-answer log.
func RunMigrations(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.UserProfile{},
		&models.MealLog{},
		&models.GeneratedAnswer{},
	)
}
