package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wellmirror/backend/internal/models"
)

// HistoryService owns the per-user profile, the append-only meal log and the
// append-only generated-answer log.
type HistoryService struct {
	db *gorm.DB
}

// Ensure HistoryService implements IHistoryService
var _ IHistoryService = (*HistoryService)(nil)

// NewHistoryService creates a new HistoryService instance
func NewHistoryService(db *gorm.DB) *HistoryService {
	return &HistoryService{db: db}
}

// UpsertProfile saves a user's fixed information. Every call fully overwrites
// every profile column; there is no partial update at this layer.
func (s *HistoryService) UpsertProfile(ctx context.Context, profile *models.UserProfile) error {
	if profile.UserID == "" {
		return ValidationError{Field: "user_id", Message: "must not be empty"}
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"height", "gender", "age", "photo_url", "updated_at",
		}),
	}).Create(profile).Error
	if err != nil {
		return fmt.Errorf("%w: upsert profile: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// AppendRecord inserts one meal-log row. Rows are never updated.
func (s *HistoryService) AppendRecord(ctx context.Context, record *models.MealLog) error {
	if record.UserID == "" {
		return ValidationError{Field: "user_id", Message: "must not be empty"}
	}

	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("%w: append record: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// ReadProfile returns the user's profile snapshot. An unknown user is not an
// error: the snapshot comes back with every field nil.
func (s *HistoryService) ReadProfile(ctx context.Context, userID string) (*ProfileSnapshot, error) {
	var profile models.UserProfile
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &ProfileSnapshot{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read profile: %v", ErrStorageUnavailable, err)
	}

	return &ProfileSnapshot{
		Height:   profile.Height,
		Gender:   profile.Gender,
		Age:      profile.Age,
		PhotoURL: profile.PhotoURL,
	}, nil
}

// ReadWindow returns the k most recent records, newest first, padded with
// placeholder slots until the window is exactly k entries long.
func (s *HistoryService) ReadWindow(ctx context.Context, userID string, k int) (HistoryWindow, error) {
	var logs []models.MealLog
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(k).
		Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("%w: read window: %v", ErrStorageUnavailable, err)
	}

	window := make(HistoryWindow, k)
	for i := 0; i < k; i++ {
		if i < len(logs) {
			createdAt := logs[i].CreatedAt
			window[i] = WindowEntry{
				UserID:       logs[i].UserID,
				CreatedAt:    &createdAt,
				MealImageURL: logs[i].MealImageURL,
				WeightKg:     logs[i].WeightKg,
				Habits:       logs[i].Habits,
				SleepHours:   logs[i].SleepHours,
			}
		} else {
			// Placeholder slot: same shape, user ID only
			window[i] = WindowEntry{UserID: userID}
		}
	}
	return window, nil
}

// PersistResult appends one generated answer. The user ID is the one
// mandatory field.
func (s *HistoryService) PersistResult(ctx context.Context, result *GenerationResult) error {
	if result.UserID == "" {
		return ValidationError{Field: "user_id", Message: "must not be empty"}
	}

	row := models.GeneratedAnswer{
		UserID:         result.UserID,
		Answer:         result.Answer,
		ScorePercent:   result.ScorePercent,
		Improvement:    result.Improvement,
		FutureImageURL: result.FutureImageURL,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("%w: persist result: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// LatestResult returns the most recently persisted result for the user,
// or gorm.ErrRecordNotFound when none exists.
func (s *HistoryService) LatestResult(ctx context.Context, userID string) (*GenerationResult, error) {
	var row models.GeneratedAnswer
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: latest result: %v", ErrStorageUnavailable, err)
	}

	return &GenerationResult{
		UserID:         row.UserID,
		Answer:         row.Answer,
		ScorePercent:   row.ScorePercent,
		Improvement:    row.Improvement,
		FutureImageURL: row.FutureImageURL,
		CreatedAt:      row.CreatedAt,
	}, nil
}
