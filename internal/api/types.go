package api

// UpsertProfileRequest carries the user's fixed information. Omitted optional
// fields are stored as null; every call overwrites every column.
type UpsertProfileRequest struct {
	UserID   string   `json:"user_id" binding:"required"`
	Height   *float64 `json:"height"`
	Gender   *string  `json:"gender"`
	Age      *int     `json:"age"`
	PhotoURL *string  `json:"photo_url"`
}

// AppendLogRequest carries one meal/weight/habits/sleep logging event
type AppendLogRequest struct {
	UserID       string   `json:"user_id" binding:"required"`
	MealImageURL *string  `json:"meal_image_url"`
	WeightKg     *float64 `json:"weight_kg"`
	Habits       *string  `json:"habits"`
	SleepHours   *float64 `json:"sleep_hours"`
}
