package models

import (
	"time"
)

// UserProfile holds the fixed per-user information used as evaluation context.
// Every save fully overwrites every column it addresses (upsert, last-write-wins).
type UserProfile struct {
	UserID   string   `gorm:"type:varchar(64);primarykey" json:"user_id"`
	Height   *float64 `json:"height"`
	Gender   *string  `gorm:"size:16" json:"gender"`
	Age      *int     `json:"age"`
	PhotoURL *string  `gorm:"size:1024" json:"photo_url"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
