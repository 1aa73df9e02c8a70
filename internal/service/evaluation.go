package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/wellmirror/backend/config"
)

const (
	// fallbackAnswer stands in when the producer returned empty text
	fallbackAnswer = "Could not generate an evaluation."
	// fallbackImprovement marks a result built through the fallback path
	fallbackImprovement = "fallback"
	// fallbackScore is the neutral midpoint used when no score could be parsed
	fallbackScore = 50

	evalMaxAttempts = 3
)

const evaluationSystemPrompt = `You are an honest health coach. You never give a medical diagnosis. ` +
	`Return only the following JSON: ` +
	`{"answer":"a 2-4 sentence evaluation","score_percent":an integer from 0 to 100,"improvement":"a 1-2 sentence improvement suggestion"}`

// EvaluationService calls the multimodal evaluation producer
type EvaluationService struct {
	apiKey string
	apiURL string
	model  string
	client *http.Client
}

// Ensure EvaluationService implements IEvaluationService
var _ IEvaluationService = (*EvaluationService)(nil)

// NewEvaluationService creates a new EvaluationService instance
func NewEvaluationService(cfg *config.Config) (*EvaluationService, error) {
	if cfg.EvalAPIURL == "" {
		return nil, fmt.Errorf("EVAL_API_URL must be set")
	}

	return &EvaluationService{
		apiKey: cfg.EvalAPIKey,
		apiURL: cfg.EvalAPIURL,
		model:  cfg.EvalModel,
		client: &http.Client{
			Timeout: time.Duration(cfg.EvalTimeout) * time.Second,
		},
	}, nil
}

// chatMessage is one message in the chat-completions request. Content is
// either a plain string or a list of content parts.
type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type textPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type imagePart struct {
	Type     string   `json:"type"`
	ImageURL imageURL `json:"image_url"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	ResponseFormat map[string]string `json:"response_format"`
	Temperature    float64           `json:"temperature"`
	MaxTokens      int               `json:"max_tokens"`
}

// Evaluate sends both images plus the serialized history window and profile to
// the producer and parses its structured output. A malformed producer output
// degrades to a fallback result; only transport-level failure is an error.
func (s *EvaluationService) Evaluate(ctx context.Context, mealImage, faceImage []byte, window HistoryWindow, profile *ProfileSnapshot) (*EvaluationResult, error) {
	payload, err := s.buildRequest(mealImage, faceImage, window, profile)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEvaluationService, err)
	}

	text, err := s.invoke(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEvaluationService, err)
	}

	return parseEvaluation(text), nil
}

// buildRequest assembles the chat-completions payload: system instruction,
// meal image, context text, face image, face usage note.
func (s *EvaluationService) buildRequest(mealImage, faceImage []byte, window HistoryWindow, profile *ProfileSnapshot) ([]byte, error) {
	profileJSON, err := json.Marshal(profile)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal profile: %w", err)
	}
	windowJSON, err := json.Marshal(window.Snapshot())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal history window: %w", err)
	}

	userText := "Evaluate the healthiness of this meal and the user's future risk from the information below. " +
		"score_percent is 0-100 where lower means higher risk.\n\n[CONTEXT]\n" +
		fmt.Sprintf("Personal info: %s\nPast records: %s\n", profileJSON, windowJSON) +
		"- Do not infer sensitive attributes from the face image\n" +
		"- Do not give a medical diagnosis\n" +
		"- Output only the specified JSON\n"

	req := chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "system", Content: evaluationSystemPrompt},
			{Role: "user", Content: []any{
				imagePart{Type: "image_url", ImageURL: imageURL{URL: dataURL("image/jpeg", mealImage)}},
				textPart{Type: "text", Text: userText},
				imagePart{Type: "image_url", ImageURL: imageURL{URL: dataURL("image/jpeg", faceImage)}},
				textPart{Type: "text", Text: "The face image is identity context only. Do not infer sensitive attributes from it."},
			}},
		},
		ResponseFormat: map[string]string{"type": "json_object"},
		Temperature:    0.3,
		MaxTokens:      800,
	}

	return json.Marshal(req)
}

// invoke posts the payload with bounded retries on transient failure and
// returns the producer's text output.
func (s *EvaluationService) invoke(ctx context.Context, payload []byte) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= evalMaxAttempts; attempt++ {
		text, retryable, err := s.invokeOnce(ctx, payload)
		if err == nil {
			return text, nil
		}
		lastErr = err

		if !retryable || ctx.Err() != nil {
			return "", err
		}
		log.Printf("[EvaluationService] Attempt %d/%d failed: %v", attempt, evalMaxAttempts, err)
		if attempt < evalMaxAttempts {
			select {
			case <-time.After(time.Duration(attempt) * time.Second):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
	}

	return "", fmt.Errorf("evaluation failed after %d attempts: %w", evalMaxAttempts, lastErr)
}

// invokeOnce performs a single upstream call. The second return value reports
// whether the failure is transient.
func (s *EvaluationService) invokeOnce(ctx context.Context, payload []byte) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewReader(payload))
	if err != nil {
		return "", false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", true, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", true, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		retryable := resp.StatusCode >= 500
		return "", retryable, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", false, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", false, fmt.Errorf("no response from API")
	}

	return result.Choices[0].Message.Content, false, nil
}

// parseEvaluation applies the strict parsing contract. Anything that is not a
// JSON object carrying both answer and score_percent degrades to the fallback
// result; this path never fails.
func parseEvaluation(text string) *EvaluationResult {
	var parsed struct {
		Answer       *string `json:"answer"`
		ScorePercent *int    `json:"score_percent"`
		Improvement  string  `json:"improvement"`
	}
	if err := json.Unmarshal([]byte(text), &parsed); err == nil &&
		parsed.Answer != nil && parsed.ScorePercent != nil {
		return &EvaluationResult{
			Answer:      *parsed.Answer,
			RawScore:    *parsed.ScorePercent,
			Improvement: parsed.Improvement,
		}
	}

	answer := text
	if answer == "" {
		answer = fallbackAnswer
	}
	return &EvaluationResult{
		Answer:      answer,
		RawScore:    fallbackScore,
		Improvement: fallbackImprovement,
	}
}

// dataURL inlines image bytes as a base64 data URL
func dataURL(mediaType string, data []byte) string {
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
