package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/wellmirror/backend/config"
)

const projectionPrompt = `Generate one realistic photographic image of a single person.
Keep the same face identity and clothing as the input photo.
Depict the person with an extremely oversized physique: Really fat body and face. a very round and heavy face, extremely full cheeks, a very thick neck, broad shoulders, very thick arms and legs, and an extraordinarily enlarged round belly that dominates the body and stretches the clothing to its limit. The entire figure should appear gigantic, overwhelmingly huge, and excessively expanded in size and volume.
The person should be standing with an exaggeratedly slouched and hunched posture, with a weary, exhausted facial expression, no smile, looking lazy, unmotivated, and drained of energy.`

const projectionNegativePrompt = "two people, multiple people, duplicate person, before and after, split image, side-by-side, collage, " +
	"face replacement, different person, extra body, extra face, twin, cartoon, deformed, low quality"

// Generation settings are fixed for reproducibility
const (
	projectionCfgScale = 6.5
	projectionSeed     = 42
)

// ProjectionService calls the image-variation producer to render the
// future-state depiction. This is the slowest, most failure-prone call in the
// pipeline; it runs once, with no retry, and the caller absorbs its failures.
type ProjectionService struct {
	apiKey string
	apiURL string
	model  string
	client *http.Client
}

// Ensure ProjectionService implements IProjectionService
var _ IProjectionService = (*ProjectionService)(nil)

// NewProjectionService creates a new ProjectionService instance
func NewProjectionService(cfg *config.Config) (*ProjectionService, error) {
	if cfg.ProjectionAPIURL == "" {
		return nil, fmt.Errorf("PROJECTION_API_URL must be set")
	}

	return &ProjectionService{
		apiKey: cfg.ProjectionAPIKey,
		apiURL: cfg.ProjectionAPIURL,
		model:  cfg.ProjectionModel,
		client: &http.Client{
			Timeout: 120 * time.Second,
		},
	}, nil
}

type variationRequest struct {
	Model                string               `json:"model,omitempty"`
	TaskType             string               `json:"taskType"`
	ImageVariationParams imageVariationParams `json:"imageVariationParams"`
	GenerationConfig     generationConfig     `json:"imageGenerationConfig"`
}

type imageVariationParams struct {
	Images             []string `json:"images"`
	Text               string   `json:"text"`
	NegativeText       string   `json:"negativeText"`
	SimilarityStrength float64  `json:"similarityStrength"`
}

type generationConfig struct {
	NumberOfImages int     `json:"numberOfImages"`
	CfgScale       float64 `json:"cfgScale"`
	Seed           int     `json:"seed"`
}

// Project generates the future-state image from a single reference photo.
// similarityStrength is clamped to [0.95, 1.0] to bias toward identity
// preservation over stylistic drift.
func (s *ProjectionService) Project(ctx context.Context, faceImage []byte, similarityStrength float64) ([]byte, error) {
	reqBody := variationRequest{
		Model:    s.model,
		TaskType: "IMAGE_VARIATION",
		ImageVariationParams: imageVariationParams{
			Images:             []string{base64.StdEncoding.EncodeToString(faceImage)},
			Text:               projectionPrompt,
			NegativeText:       projectionNegativePrompt,
			SimilarityStrength: clampSimilarity(similarityStrength),
		},
		GenerationConfig: generationConfig{
			NumberOfImages: 1,
			CfgScale:       projectionCfgScale,
			Seed:           projectionSeed,
		},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	encoded, err := extractImagePayload(body)
	if err != nil {
		return nil, err
	}

	image, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image payload: %w", err)
	}
	return image, nil
}

// extractImagePayload locates the base64 image in the response. Producers
// differ in where they nest the payload, so this is an explicit compatibility
// shim: known shapes are tried in order and the first match wins.
func extractImagePayload(body []byte) (string, error) {
	strategies := []func([]byte) (string, bool){
		extractImagesStrings,
		extractImagesObjects,
		extractDataB64JSON,
	}
	for _, extract := range strategies {
		if encoded, ok := extract(body); ok {
			return encoded, nil
		}
	}
	return "", ErrNoImageReturned
}

// extractImagesStrings handles {"images": ["<b64>", ...]}
func extractImagesStrings(body []byte) (string, bool) {
	var out struct {
		Images []string `json:"images"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", false
	}
	if len(out.Images) == 0 || out.Images[0] == "" {
		return "", false
	}
	return out.Images[0], true
}

// extractImagesObjects handles {"images": [{"b64": ...}]} and the
// base64Data key variant
func extractImagesObjects(body []byte) (string, bool) {
	var out struct {
		Images []struct {
			B64        string `json:"b64"`
			Base64Data string `json:"base64Data"`
		} `json:"images"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", false
	}
	if len(out.Images) == 0 {
		return "", false
	}
	if out.Images[0].B64 != "" {
		return out.Images[0].B64, true
	}
	if out.Images[0].Base64Data != "" {
		return out.Images[0].Base64Data, true
	}
	return "", false
}

// extractDataB64JSON handles {"data": [{"b64_json": ...}]}
func extractDataB64JSON(body []byte) (string, bool) {
	var out struct {
		Data []struct {
			B64JSON string `json:"b64_json"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", false
	}
	if len(out.Data) == 0 || out.Data[0].B64JSON == "" {
		return "", false
	}
	return out.Data[0].B64JSON, true
}

func clampSimilarity(v float64) float64 {
	if v < 0.95 {
		return 0.95
	}
	if v > 1.0 {
		return 1.0
	}
	return v
}
