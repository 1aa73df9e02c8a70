package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// defaultSimilarityStrength biases the projection toward identity preservation
const defaultSimilarityStrength = 0.98

// latestResultTTL bounds how long a cached latest result is served
const latestResultTTL = 24 * time.Hour

// CoachService runs the generation pipeline: load history context, evaluate,
// conditionally project, assemble and persist. All collaborators are injected
// at construction and shared read-only across concurrent runs.
type CoachService struct {
	history    IHistoryService
	evaluation IEvaluationService
	projection IProjectionService
	sink       ImageSink
	cache      *redis.Client // optional; nil disables the latest-result cache
	threshold  int
}

// Ensure CoachService implements ICoachService
var _ ICoachService = (*CoachService)(nil)

// NewCoachService creates a new CoachService instance
func NewCoachService(history IHistoryService, evaluation IEvaluationService, projection IProjectionService, sink ImageSink, cache *redis.Client, threshold int) *CoachService {
	return &CoachService{
		history:    history,
		evaluation: evaluation,
		projection: projection,
		sink:       sink,
		cache:      cache,
		threshold:  threshold,
	}
}

// Generate runs one pipeline pass for the user. Only a missing user ID or a
// failed evaluation aborts the run; the projection and the final persistence
// are best-effort and degrade rather than fail.
func (s *CoachService) Generate(ctx context.Context, mealImage, faceImage []byte, userID string) (*GenerationResult, error) {
	if userID == "" {
		return nil, ValidationError{Field: "user_id", Message: "must not be empty"}
	}

	// Mandatory context reads: a storage failure here is fatal.
	window, err := s.history.ReadWindow(ctx, userID, WindowSize)
	if err != nil {
		return nil, fmt.Errorf("failed to read history window: %w", err)
	}
	profile, err := s.history.ReadProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}

	// Evaluation is the one mandatory external call.
	eval, err := s.evaluation.Evaluate(ctx, mealImage, faceImage, window, profile)
	if err != nil {
		return nil, err
	}

	// Threshold gate: only a low raw score triggers the heavy projection
	// step. Its failure, and the sink's, leave the reference null.
	var futureRef *string
	if eval.RawScore < s.threshold {
		if ref := s.projectFuture(ctx, faceImage); ref != "" {
			futureRef = &ref
		}
	}

	// Abandon a cancelled run before persisting partial effects.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &GenerationResult{
		UserID:         userID,
		Answer:         eval.Answer,
		ScorePercent:   100 - eval.RawScore,
		Improvement:    eval.Improvement,
		FutureImageURL: futureRef,
		CreatedAt:      time.Now(),
	}

	// Persistence is not a precondition of a successful response.
	if err := s.history.PersistResult(ctx, result); err != nil {
		log.Printf("[CoachService] Failed to persist result for user %s, returning it anyway: %v", userID, err)
	} else {
		s.cacheLatest(ctx, result)
	}

	return result, nil
}

// projectFuture runs the best-effort projection step. Any failure is logged
// and reported as an empty reference; it never escalates.
func (s *CoachService) projectFuture(ctx context.Context, faceImage []byte) string {
	image, err := s.projection.Project(ctx, faceImage, defaultSimilarityStrength)
	if err != nil {
		log.Printf("[CoachService] Future image generation failed: %v", err)
		return ""
	}

	ref, err := s.sink.Store(ctx, image)
	if err != nil {
		log.Printf("[CoachService] Failed to store future image: %v", err)
		return ""
	}
	return ref
}

// Latest returns the freshest persisted result for the user, served from the
// cache when possible.
func (s *CoachService) Latest(ctx context.Context, userID string) (*GenerationResult, error) {
	if userID == "" {
		return nil, ValidationError{Field: "user_id", Message: "must not be empty"}
	}

	if s.cache != nil {
		if data, err := s.cache.Get(ctx, latestResultKey(userID)).Bytes(); err == nil {
			var result GenerationResult
			if err := json.Unmarshal(data, &result); err == nil {
				return &result, nil
			}
		}
	}

	result, err := s.history.LatestResult(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.cacheLatest(ctx, result)
	return result, nil
}

// cacheLatest refreshes the per-user cache entry; failures are ignored
func (s *CoachService) cacheLatest(ctx context.Context, result *GenerationResult) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, latestResultKey(result.UserID), data, latestResultTTL).Err(); err != nil {
		log.Printf("[CoachService] Failed to cache latest result for user %s: %v", result.UserID, err)
	}
}

func latestResultKey(userID string) string {
	return "coach:latest:" + userID
}
