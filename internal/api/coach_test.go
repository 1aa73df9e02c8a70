package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/wellmirror/backend/internal/service"
)

// mockCoach is a canned ICoachService for handler tests
type mockCoach struct {
	result *service.GenerationResult
	err    error

	gotUserID string
	gotMeal   []byte
	gotFace   []byte
}

func (m *mockCoach) Generate(ctx context.Context, mealImage, faceImage []byte, userID string) (*service.GenerationResult, error) {
	m.gotUserID = userID
	m.gotMeal = mealImage
	m.gotFace = faceImage
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func (m *mockCoach) Latest(ctx context.Context, userID string) (*service.GenerationResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func setupCoachRouter(coach service.ICoachService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewCoachHandler(coach).RegisterRoutes(router.Group("/api/v1"))
	return router
}

// generateRequest builds the multipart body the generate endpoint expects
func generateRequest(t *testing.T, userID string, meal, face []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if userID != "" {
		require.NoError(t, writer.WriteField("user_id", userID))
	}
	if meal != nil {
		part, err := writer.CreateFormFile("meal_image", "meal.jpg")
		require.NoError(t, err)
		_, err = part.Write(meal)
		require.NoError(t, err)
	}
	if face != nil {
		part, err := writer.CreateFormFile("face_image", "face.jpg")
		require.NoError(t, err)
		_, err = part.Write(face)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/coach/generate", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestCoachHandler_Generate(t *testing.T) {
	t.Run("returns the assembled result", func(t *testing.T) {
		coach := &mockCoach{result: &service.GenerationResult{
			UserID:       "u1",
			Answer:       "Balanced meal.",
			ScorePercent: 30,
			Improvement:  "Add more fiber.",
		}}
		router := setupCoachRouter(coach)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, generateRequest(t, "u1", []byte("meal"), []byte("face")))

		require.Equal(t, http.StatusOK, w.Code)
		var resp service.GenerationResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "u1", resp.UserID)
		assert.Equal(t, 30, resp.ScorePercent)
		assert.Nil(t, resp.FutureImageURL)

		assert.Equal(t, "u1", coach.gotUserID)
		assert.Equal(t, []byte("meal"), coach.gotMeal)
		assert.Equal(t, []byte("face"), coach.gotFace)
	})

	t.Run("missing meal image is a bad request", func(t *testing.T) {
		router := setupCoachRouter(&mockCoach{})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, generateRequest(t, "u1", nil, []byte("face")))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "meal_image")
	})

	t.Run("empty face image is a bad request", func(t *testing.T) {
		router := setupCoachRouter(&mockCoach{})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, generateRequest(t, "u1", []byte("meal"), []byte{}))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "face_image")
	})

	t.Run("missing user id is a bad request", func(t *testing.T) {
		coach := &mockCoach{err: service.ValidationError{Field: "user_id", Message: "must not be empty"}}
		router := setupCoachRouter(coach)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, generateRequest(t, "", []byte("meal"), []byte("face")))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("evaluation failure is a bad gateway", func(t *testing.T) {
		coach := &mockCoach{err: service.ErrEvaluationService}
		router := setupCoachRouter(coach)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, generateRequest(t, "u1", []byte("meal"), []byte("face")))

		assert.Equal(t, http.StatusBadGateway, w.Code)
	})
}

func TestCoachHandler_Latest(t *testing.T) {
	t.Run("returns the latest result", func(t *testing.T) {
		coach := &mockCoach{result: &service.GenerationResult{UserID: "u1", Answer: "Earlier answer.", ScorePercent: 45}}
		router := setupCoachRouter(coach)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/coach/latest/u1", nil))

		require.Equal(t, http.StatusOK, w.Code)
		var resp service.GenerationResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "Earlier answer.", resp.Answer)
	})

	t.Run("no result is a 404", func(t *testing.T) {
		coach := &mockCoach{err: gorm.ErrRecordNotFound}
		router := setupCoachRouter(coach)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/coach/latest/u1", nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
