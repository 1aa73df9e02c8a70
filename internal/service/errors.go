package service

import (
	"errors"
	"fmt"
)

var (
	// ErrStorageUnavailable reports a storage-layer failure. The history
	// service never swallows it; the orchestrator decides what is fatal.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrEvaluationService reports that the mandatory evaluation call failed.
	ErrEvaluationService = errors.New("evaluation service failure")

	// ErrNoImageReturned reports a projection response with no usable image.
	ErrNoImageReturned = errors.New("no image in projection response")
)

// ValidationError reports a missing or invalid mandatory field
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
