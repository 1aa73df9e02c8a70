package service

import (
	"fmt"
	"time"
)

// WindowSize is the fixed number of slots in a history window
const WindowSize = 7

// ProfileSnapshot is a read-only view of a user's profile. Every field is
// nullable; an unknown user yields a snapshot with all fields nil, not an error.
type ProfileSnapshot struct {
	Height   *float64 `json:"height"`
	Gender   *string  `json:"gender"`
	Age      *int     `json:"age"`
	PhotoURL *string  `json:"photo_url"`
}

// WindowEntry is one slot of a history window. A placeholder slot carries the
// user ID with every other field nil.
type WindowEntry struct {
	UserID       string     `json:"user_id"`
	CreatedAt    *time.Time `json:"created_at"`
	MealImageURL *string    `json:"meal_image_url"`
	WeightKg     *float64   `json:"weight_kg"`
	Habits       *string    `json:"habits"`
	SleepHours   *float64   `json:"sleep_hours"`
}

// HistoryWindow is a fixed-length, newest-first view over a user's log.
// Index 0 is the most recent record. Callers branch on field nullness,
// never on length: the length is always exactly WindowSize.
type HistoryWindow []WindowEntry

// Snapshot serializes the window for the evaluation prompt, keyed
// "0_day_ago" through "6_day_ago" with 0 as the most recent slot.
func (w HistoryWindow) Snapshot() map[string]WindowEntry {
	snap := make(map[string]WindowEntry, len(w))
	for i, entry := range w {
		snap[fmt.Sprintf("%d_day_ago", i)] = entry
	}
	return snap
}

// EvaluationResult is the parsed output of the evaluation producer.
// RawScore uses the producer's native scale: 0-100, higher is healthier.
type EvaluationResult struct {
	Answer      string `json:"answer"`
	RawScore    int    `json:"score_percent"`
	Improvement string `json:"improvement"`
}

// GenerationResult is the persisted, user-facing pipeline artifact.
// ScorePercent is 100 minus the raw score: higher means more at-risk.
type GenerationResult struct {
	UserID         string    `json:"user_id"`
	Answer         string    `json:"answer"`
	ScorePercent   int       `json:"score_percent"`
	Improvement    string    `json:"improvement"`
	FutureImageURL *string   `json:"future_image_url"`
	CreatedAt      time.Time `json:"created_at"`
}
