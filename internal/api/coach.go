package api

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/wellmirror/backend/internal/service"
)

// CoachHandler handles generation pipeline requests
type CoachHandler struct {
	coach service.ICoachService
}

// NewCoachHandler creates a new CoachHandler instance
func NewCoachHandler(coach service.ICoachService) *CoachHandler {
	return &CoachHandler{coach: coach}
}

// RegisterRoutes registers the coach routes
func (h *CoachHandler) RegisterRoutes(router *gin.RouterGroup) {
	coach := router.Group("/coach")
	{
		coach.POST("/generate", h.Generate)
		coach.GET("/latest/:user_id", h.Latest)
	}
}

// Generate runs the pipeline on the uploaded meal and face photos and returns
// the assembled result
func (h *CoachHandler) Generate(c *gin.Context) {
	userID := c.PostForm("user_id")

	mealImage, err := readFormImage(c, "meal_image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	faceImage, err := readFormImage(c, "face_image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.coach.Generate(c.Request.Context(), mealImage, faceImage, userID)
	if err != nil {
		var verr service.ValidationError
		switch {
		case errors.As(err, &verr):
			c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
		case errors.Is(err, service.ErrEvaluationService):
			c.JSON(http.StatusBadGateway, gin.H{"error": "failed to generate evaluation: " + err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

// Latest returns the most recently persisted result for the user
func (h *CoachHandler) Latest(c *gin.Context) {
	userID := c.Param("user_id")

	result, err := h.coach.Latest(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no result for user"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// readFormImage reads one uploaded image field and rejects empty payloads
func readFormImage(c *gin.Context, field string) ([]byte, error) {
	fileHeader, err := c.FormFile(field)
	if err != nil {
		return nil, errors.New(field + " is required")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, errors.New("failed to open " + field)
	}
	defer func(f multipart.File) { _ = f.Close() }(file)

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, errors.New("failed to read " + field)
	}
	if len(data) == 0 {
		return nil, errors.New(field + " is empty")
	}
	return data, nil
}
