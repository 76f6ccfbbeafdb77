package handler

import (
	"context"
	"net/http"

	"github.com/ad-tracker/trendmeter/internal/models"
	"github.com/gin-gonic/gin"
)

// QuotaReporter reports today's YouTube API usage.
type QuotaReporter interface {
	Usage(ctx context.Context) (*models.QuotaInfo, error)
}

// QuotaHandler serves quota usage.
type QuotaHandler struct {
	quota QuotaReporter
}

// NewQuotaHandler creates a new QuotaHandler.
func NewQuotaHandler(quota QuotaReporter) *QuotaHandler {
	return &QuotaHandler{quota: quota}
}

// GetQuota returns used, limit and remaining units for the current day.
func (h *QuotaHandler) GetQuota(c *gin.Context) {
	info, err := h.quota.Usage(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, info)
}
