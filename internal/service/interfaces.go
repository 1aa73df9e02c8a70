package service

import (
	"context"

	"github.com/wellmirror/backend/internal/models"
)

// IHistoryService defines the interface for profile and history storage
type IHistoryService interface {
	UpsertProfile(ctx context.Context, profile *models.UserProfile) error
	AppendRecord(ctx context.Context, record *models.MealLog) error
	ReadProfile(ctx context.Context, userID string) (*ProfileSnapshot, error)
	ReadWindow(ctx context.Context, userID string, k int) (HistoryWindow, error)
	PersistResult(ctx context.Context, result *GenerationResult) error
	LatestResult(ctx context.Context, userID string) (*GenerationResult, error)
}

// IEvaluationService defines the interface for the multimodal evaluation call
type IEvaluationService interface {
	Evaluate(ctx context.Context, mealImage, faceImage []byte, window HistoryWindow, profile *ProfileSnapshot) (*EvaluationResult, error)
}

// IProjectionService defines the interface for the future-image generation call
type IProjectionService interface {
	Project(ctx context.Context, faceImage []byte, similarityStrength float64) ([]byte, error)
}

// ImageSink stores a generated image and returns an opaque locator for it
type ImageSink interface {
	Store(ctx context.Context, image []byte) (string, error)
}

// ICoachService defines the interface for the generation pipeline
type ICoachService interface {
	Generate(ctx context.Context, mealImage, faceImage []byte, userID string) (*GenerationResult, error)
	Latest(ctx context.Context, userID string) (*GenerationResult, error)
}
