package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/growthml/leadscore/internal/config"
	apperrors "github.com/growthml/leadscore/internal/errors"
	"github.com/growthml/leadscore/internal/model"
	"github.com/growthml/leadscore/internal/models"
	"github.com/growthml/leadscore/internal/scoring"
)

// Handler binds the scoring flow to the HTTP routes.
type Handler struct {
	orchestrator *scoring.Orchestrator
	adapter      *model.Adapter
	configs      *config.Configs
	startTime    time.Time
}

func NewHandler(orchestrator *scoring.Orchestrator, adapter *model.Adapter, configs *config.Configs) *Handler {
	return &Handler{
		orchestrator: orchestrator,
		adapter:      adapter,
		configs:      configs,
		startTime:    time.Now(),
	}
}

// RegisterRoutes registers the scoring and health API routes.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	scoringGroup := router.Group("/scoring")
	{
		scoringGroup.POST("/score", h.handleScore)
		scoringGroup.GET("/model/info", h.handleModelInfo)
	}

	router.GET("/health", h.handleHealth)
	router.GET("/health/ready", h.handleReady)
	router.GET("/health/live", h.handleLive)
}

// handleScore handles POST /scoring/score
func (h *Handler) handleScore(c *gin.Context) {
	var req models.ScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			tooLarge := &apperrors.PayloadTooLargeError{ErrorMsg: "request body exceeds the byte limit"}
			h.writeError(c, statusForError(tooLarge), tooLarge.Error())
			return
		}
		h.writeError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.RequestId == "" {
		req.RequestId = c.GetString("request_id")
	}

	response, err := h.orchestrator.Score(c.Request.Context(), &req)
	if err != nil {
		h.writeError(c, statusForError(err), err.Error())
		return
	}
	c.JSON(http.StatusOK, response)
}

// handleModelInfo handles GET /scoring/model/info
func (h *Handler) handleModelInfo(c *gin.Context) {
	c.JSON(http.StatusOK, h.adapter.Info())
}

// handleHealth handles GET /health. The endpoint stays 200 either way;
// a missing model degrades the reported status instead.
func (h *Handler) handleHealth(c *gin.Context) {
	status := "healthy"
	if !h.adapter.IsLoaded() {
		status = "degraded"
	}
	c.JSON(http.StatusOK, models.HealthCheck{
		Status:        status,
		Timestamp:     time.Now().UTC(),
		Version:       h.configs.ApplicationVersion,
		ModelLoaded:   h.adapter.IsLoaded(),
		UptimeSeconds: time.Since(h.startTime).Seconds(),
	})
}

// handleReady handles GET /health/ready. Readiness requires a loaded model;
// liveness does not.
func (h *Handler) handleReady(c *gin.Context) {
	if !h.adapter.IsLoaded() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "reason": "model is not loaded"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// handleLive handles GET /health/live
func (h *Handler) handleLive(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

func (h *Handler) writeError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{
		"error":      message,
		"request_id": c.GetString("request_id"),
	})
}

// statusForError maps typed scoring errors to HTTP statuses.
func statusForError(err error) int {
	var (
		validationErr     *apperrors.ValidationError
		batchSizeErr      *apperrors.BatchSizeError
		payloadErr        *apperrors.PayloadTooLargeError
		modelNotLoadedErr *apperrors.ModelNotLoadedError
		timeoutErr        *apperrors.TimeoutError
	)
	switch {
	case errors.As(err, &validationErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &batchSizeErr):
		return http.StatusBadRequest
	case errors.As(err, &payloadErr):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &modelNotLoadedErr):
		return http.StatusServiceUnavailable
	case errors.As(err, &timeoutErr):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
