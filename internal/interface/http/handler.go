package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/travel-advisor/internal/domain/advisory"
)

// Handler wires the HTTP transport to domain services.
type Handler struct {
	advisorySvc advisory.Service
	logger      *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(advisorySvc advisory.Service, logger *slog.Logger) *Handler {
	return &Handler{
		advisorySvc: advisorySvc,
		logger:      logger.With("component", "http.handler"),
	}
}

// GetAdvisory resolves the advisory named by query parameters.
func (h *Handler) GetAdvisory(c *gin.Context) {
	var req advisory.Request
	if err := c.ShouldBindQuery(&req); err != nil {
		abortWithError(c, badRequest("malformed advisory request", err))
		return
	}
	h.resolve(c, req)
}

// PostAdvisory resolves the advisory named by a JSON body.
func (h *Handler) PostAdvisory(c *gin.Context) {
	var req advisory.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, badRequest("malformed advisory request", err))
		return
	}
	h.resolve(c, req)
}

func (h *Handler) resolve(c *gin.Context, req advisory.Request) {
	req.CountryCode = strings.TrimSpace(req.CountryCode)
	req.CountryName = strings.TrimSpace(req.CountryName)
	if req.CountryCode == "" && req.CountryName == "" {
		abortWithError(c, badRequest("countryCode or countryName is required", nil))
		return
	}

	// Resolve never fails; degraded results come back as level 0 records.
	record := h.advisorySvc.Resolve(c.Request.Context(), req.CountryCode, req.CountryName)
	c.JSON(http.StatusOK, record)
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
