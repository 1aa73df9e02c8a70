package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wellmirror/backend/config"
)

func newProjectionService(t *testing.T, url string) *ProjectionService {
	t.Helper()
	svc, err := NewProjectionService(&config.Config{
		ProjectionAPIKey: "test-api-key",
		ProjectionAPIURL: url,
		ProjectionModel:  "test-variation-model",
	})
	require.NoError(t, err)
	return svc
}

func TestProjectionService_Project(t *testing.T) {
	ctx := context.Background()
	generated := []byte{0x89, 0x50, 0x4e, 0x47, 0x01, 0x02, 0x03}
	b64 := base64.StdEncoding.EncodeToString(generated)

	// The image payload nests differently across producer versions; every
	// known shape must decode to the same bytes.
	shapes := map[string]string{
		"images as strings": fmt.Sprintf(`{"images":[%q]}`, b64),
		"images as b64 objects": fmt.Sprintf(`{"images":[{"b64":%q}]}`, b64),
		"images as base64Data objects": fmt.Sprintf(`{"images":[{"base64Data":%q}]}`, b64),
		"data with b64_json": fmt.Sprintf(`{"data":[{"b64_json":%q}]}`, b64),
	}
	for name, body := range shapes {
		t.Run(name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(body))
			}))
			defer ts.Close()

			image, err := newProjectionService(t, ts.URL).Project(ctx, []byte("face"), 0.98)
			require.NoError(t, err)
			assert.Equal(t, generated, image)
		})
	}

	t.Run("empty image list fails with no-image error", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"images":[]}`))
		}))
		defer ts.Close()

		_, err := newProjectionService(t, ts.URL).Project(ctx, []byte("face"), 0.98)
		assert.ErrorIs(t, err, ErrNoImageReturned)
	})

	t.Run("absent payload under known keys fails with no-image error", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"status":"done"}`))
		}))
		defer ts.Close()

		_, err := newProjectionService(t, ts.URL).Project(ctx, []byte("face"), 0.98)
		assert.ErrorIs(t, err, ErrNoImageReturned)
	})

	t.Run("request carries clamped similarity and fixed generation config", func(t *testing.T) {
		var captured variationRequest
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			require.NoError(t, json.Unmarshal(body, &captured))
			w.Write([]byte(fmt.Sprintf(`{"images":[%q]}`, b64)))
		}))
		defer ts.Close()

		_, err := newProjectionService(t, ts.URL).Project(ctx, []byte("face"), 0.5)
		require.NoError(t, err)

		assert.Equal(t, "IMAGE_VARIATION", captured.TaskType)
		assert.Equal(t, 0.95, captured.ImageVariationParams.SimilarityStrength)
		assert.Equal(t, 1, captured.GenerationConfig.NumberOfImages)
		assert.Equal(t, 6.5, captured.GenerationConfig.CfgScale)
		assert.Equal(t, 42, captured.GenerationConfig.Seed)
		assert.NotEmpty(t, captured.ImageVariationParams.NegativeText)
		require.Len(t, captured.ImageVariationParams.Images, 1)

		face, err := base64.StdEncoding.DecodeString(captured.ImageVariationParams.Images[0])
		require.NoError(t, err)
		assert.Equal(t, []byte("face"), face)
	})

	t.Run("error status surfaces as a failure", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer ts.Close()

		_, err := newProjectionService(t, ts.URL).Project(ctx, []byte("face"), 0.98)
		assert.Error(t, err)
	})
}

func TestClampSimilarity(t *testing.T) {
	assert.Equal(t, 0.95, clampSimilarity(0.1))
	assert.Equal(t, 0.98, clampSimilarity(0.98))
	assert.Equal(t, 1.0, clampSimilarity(1.5))
}
