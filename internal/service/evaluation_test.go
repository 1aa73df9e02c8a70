package service

import (
	"context"
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

// newEvalService points an EvaluationService at a mock upstream
func newEvalService(t *testing.T, url string) *EvaluationService {
	t.Helper()
	svc, err := NewEvaluationService(&config.Config{
		EvalAPIKey:  "test-api-key",
		EvalAPIURL:  url,
		EvalModel:   "test-model",
		EvalTimeout: 10,
	})
	require.NoError(t, err)
	return svc
}

// chatCompletionBody wraps producer text in the chat-completions envelope
func chatCompletionBody(content string) string {
	body, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	})
	return string(body)
}

func testWindow(userID string) HistoryWindow {
	window := make(HistoryWindow, WindowSize)
	for i := range window {
		window[i] = WindowEntry{UserID: userID}
	}
	return window
}

func TestEvaluationService_Evaluate(t *testing.T) {
	ctx := context.Background()

	t.Run("parses well-formed producer output", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer test-api-key", r.Header.Get("Authorization"))
			w.Write([]byte(chatCompletionBody(`{"answer":"Balanced meal.","score_percent":70,"improvement":"Add more fiber."}`)))
		}))
		defer ts.Close()

		result, err := newEvalService(t, ts.URL).Evaluate(ctx, []byte("meal"), []byte("face"), testWindow("u1"), &ProfileSnapshot{})
		require.NoError(t, err)
		assert.Equal(t, "Balanced meal.", result.Answer)
		assert.Equal(t, 70, result.RawScore)
		assert.Equal(t, "Add more fiber.", result.Improvement)
	})

	t.Run("non-JSON output degrades to the fallback result", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(chatCompletionBody("I cannot comply")))
		}))
		defer ts.Close()

		result, err := newEvalService(t, ts.URL).Evaluate(ctx, []byte("meal"), []byte("face"), testWindow("u1"), &ProfileSnapshot{})
		require.NoError(t, err)
		assert.Equal(t, "I cannot comply", result.Answer)
		assert.Equal(t, fallbackScore, result.RawScore)
		assert.Equal(t, fallbackImprovement, result.Improvement)
	})

	t.Run("missing score key degrades to the fallback result", func(t *testing.T) {
		raw := `{"answer":"Looks fine."}`
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(chatCompletionBody(raw)))
		}))
		defer ts.Close()

		result, err := newEvalService(t, ts.URL).Evaluate(ctx, []byte("meal"), []byte("face"), testWindow("u1"), &ProfileSnapshot{})
		require.NoError(t, err)
		assert.Equal(t, raw, result.Answer)
		assert.Equal(t, fallbackScore, result.RawScore)
	})

	t.Run("request embeds both images and the context snapshot", func(t *testing.T) {
		var captured []byte
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			captured, _ = io.ReadAll(r.Body)
			w.Write([]byte(chatCompletionBody(`{"answer":"ok","score_percent":60,"improvement":"x"}`)))
		}))
		defer ts.Close()

		window := testWindow("u1")
		_, err := newEvalService(t, ts.URL).Evaluate(ctx, []byte("meal"), []byte("face"), window, &ProfileSnapshot{Height: floatPtr(171.2)})
		require.NoError(t, err)

		body := string(captured)
		assert.Contains(t, body, "data:image/jpeg;base64,")
		assert.Contains(t, body, "0_day_ago")
		assert.Contains(t, body, "6_day_ago")
		assert.Contains(t, body, "171.2")
		// Safety constraints travel with every request
		assert.Contains(t, body, "Do not infer sensitive attributes")
		assert.Contains(t, body, "medical diagnosis")
	})

	t.Run("client error status fails without retry", func(t *testing.T) {
		var calls int
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer ts.Close()

		_, err := newEvalService(t, ts.URL).Evaluate(ctx, []byte("meal"), []byte("face"), testWindow("u1"), &ProfileSnapshot{})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrEvaluationService)
		assert.Equal(t, 1, calls)
	})

	t.Run("retries a transient server error", func(t *testing.T) {
		var calls int
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			if calls == 1 {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			w.Write([]byte(chatCompletionBody(`{"answer":"ok","score_percent":55,"improvement":"x"}`)))
		}))
		defer ts.Close()

		result, err := newEvalService(t, ts.URL).Evaluate(ctx, []byte("meal"), []byte("face"), testWindow("u1"), &ProfileSnapshot{})
		require.NoError(t, err)
		assert.Equal(t, 55, result.RawScore)
		assert.Equal(t, 2, calls)
	})

	t.Run("unreachable upstream surfaces an evaluation service error", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		ts.Close() // refuse all connections

		_, err := newEvalService(t, ts.URL).Evaluate(ctx, []byte("meal"), []byte("face"), testWindow("u1"), &ProfileSnapshot{})
		assert.ErrorIs(t, err, ErrEvaluationService)
	})
}

func TestParseEvaluation(t *testing.T) {
	t.Run("empty text uses the placeholder answer", func(t *testing.T) {
		result := parseEvaluation("")
		assert.Equal(t, fallbackAnswer, result.Answer)
		assert.Equal(t, fallbackScore, result.RawScore)
		assert.Equal(t, fallbackImprovement, result.Improvement)
	})

	t.Run("JSON array is not a valid shape", func(t *testing.T) {
		result := parseEvaluation(`["answer","score_percent"]`)
		assert.Equal(t, fallbackScore, result.RawScore)
	})

	t.Run("valid object keeps the producer improvement", func(t *testing.T) {
		result := parseEvaluation(`{"answer":"Good.","score_percent":82,"improvement":"Keep it up."}`)
		assert.Equal(t, 82, result.RawScore)
		assert.Equal(t, "Keep it up.", result.Improvement)
	})
}

func TestHistoryWindowSnapshot(t *testing.T) {
	window := testWindow("u1")
	snap := window.Snapshot()

	assert.Len(t, snap, WindowSize)
	for i := 0; i < WindowSize; i++ {
		entry, ok := snap[fmt.Sprintf("%d_day_ago", i)]
		require.True(t, ok)
		assert.Equal(t, "u1", entry.UserID)
	}
}
