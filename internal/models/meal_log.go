package models

import (
	"time"
)

// MealLog is one logging event: meal photo, weight, habits and sleep.
// Rows are append-only; they are never updated after insert.
type MealLog struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	UserID       string    `gorm:"type:varchar(64);not null;index:idx_meal_user_created" json:"user_id"`
	MealImageURL *string   `gorm:"size:1024" json:"meal_image_url"`
	WeightKg     *float64  `json:"weight_kg"`
	Habits       *string   `gorm:"type:text" json:"habits"`
	SleepHours   *float64  `json:"sleep_hours"`
	CreatedAt    time.Time `gorm:"index:idx_meal_user_created" json:"created_at"`
}
