package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/incilens/backend/internal/domain"
	"github.com/incilens/backend/internal/usecase"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// ErrorResponse is the body of every non-2xx API response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	analysisService *usecase.AnalysisService
	logger          *zap.Logger
}

// NewHandler creates a new HTTP handler; a nil service answers 503
func NewHandler(analysisService *usecase.AnalysisService, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		analysisService: analysisService,
		logger:          logger.Named("http"),
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "incilens-backend",
		"version": Version,
	})
}

// AnalyzeINCI handles ingredient list analysis requests
func (h *Handler) AnalyzeINCI(c *gin.Context) {
	if h.analysisService == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error: "Analysis service not configured",
			Code:  "SERVICE_UNAVAILABLE",
		})
		return
	}

	var req domain.AnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request body",
			Code:    "INVALID_INPUT",
			Details: err.Error(),
		})
		return
	}

	result, err := h.analysisService.Analyze(c.Request.Context(), &req)
	if err != nil {
		h.handleAnalysisError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// CatalogStats reports the size of the loaded knowledge base
func (h *Handler) CatalogStats(c *gin.Context) {
	if h.analysisService == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error: "Analysis service not configured",
			Code:  "SERVICE_UNAVAILABLE",
		})
		return
	}
	c.JSON(http.StatusOK, h.analysisService.Stats())
}

// handleAnalysisError maps domain errors to HTTP responses
func (h *Handler) handleAnalysisError(c *gin.Context, err error) {
	_ = c.Error(err)

	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid ingredient list",
			Code:    "INVALID_INPUT",
			Details: err.Error(),
		})
	case errors.Is(err, domain.ErrInternalMatching):
		h.logger.Error("analysis violated result invariants", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "Internal matching error",
			Code:  "INTERNAL_MATCHING_ERROR",
		})
	default:
		h.logger.Error("analysis failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "Internal server error",
			Code:  "INTERNAL_ERROR",
		})
	}
}
