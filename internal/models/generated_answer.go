package models

import (
	"time"
)

// GeneratedAnswer is one persisted pipeline result. ScorePercent uses the
// stored scale where higher means more at-risk (100 minus the producer score).
type GeneratedAnswer struct {
	ID             uint      `gorm:"primarykey" json:"id"`
	UserID         string    `gorm:"type:varchar(64);not null;index:idx_answer_user_created" json:"user_id"`
	Answer         string    `gorm:"type:text" json:"answer"`
	ScorePercent   int       `json:"score_percent"`
	Improvement    string    `gorm:"type:text" json:"improvement"`
	FutureImageURL *string   `gorm:"type:text" json:"future_image_url"`
	CreatedAt      time.Time `gorm:"index:idx_answer_user_created" json:"created_at"`
}
