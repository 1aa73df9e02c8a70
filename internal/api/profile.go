package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wellmirror/backend/internal/models"
	"github.com/wellmirror/backend/internal/service"
)

// ProfileHandler handles profile upsert and meal-log append requests
type ProfileHandler struct {
	history service.IHistoryService
}

// NewProfileHandler creates a new ProfileHandler instance
func NewProfileHandler(history service.IHistoryService) *ProfileHandler {
	return &ProfileHandler{history: history}
}

// RegisterRoutes registers the profile and log routes
func (h *ProfileHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/profile", h.UpsertProfile)
	router.POST("/logs", h.AppendLog)
}

// UpsertProfile saves the user's fixed information, overwriting prior values
func (h *ProfileHandler) UpsertProfile(c *gin.Context) {
	var req UpsertProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile := &models.UserProfile{
		UserID:   req.UserID,
		Height:   req.Height,
		Gender:   req.Gender,
		Age:      req.Age,
		PhotoURL: req.PhotoURL,
	}
	if err := h.history.UpsertProfile(c.Request.Context(), profile); err != nil {
		respondStorageError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// AppendLog appends one meal/weight/habits/sleep record
func (h *ProfileHandler) AppendLog(c *gin.Context) {
	var req AppendLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record := &models.MealLog{
		UserID:       req.UserID,
		MealImageURL: req.MealImageURL,
		WeightKg:     req.WeightKg,
		Habits:       req.Habits,
		SleepHours:   req.SleepHours,
	}
	if err := h.history.AppendRecord(c.Request.Context(), record); err != nil {
		respondStorageError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func respondStorageError(c *gin.Context, err error) {
	var verr service.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
