package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/ad-tracker/trendmeter/internal/export"
	"github.com/ad-tracker/trendmeter/internal/models"
	"github.com/ad-tracker/trendmeter/internal/service"
	"github.com/ad-tracker/trendmeter/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RunExecutor is the part of service.RunService the handlers use.
type RunExecutor interface {
	Execute(ctx context.Context, req models.RunRequest, extra ...service.Observer) (*models.RunResult, error)
	Get(ctx context.Context, id uuid.UUID) (*models.RunResult, error)
	List(ctx context.Context, limit int) ([]models.RunSummary, error)
}

// RunHandler serves the JSON run API.
type RunHandler struct {
	runs           RunExecutor
	defaults       models.RunRequest
	exportFilename string
}

// NewRunHandler creates a new RunHandler. defaults fill the zero fields of
// incoming requests.
func NewRunHandler(runs RunExecutor, defaults models.RunRequest, exportFilename string) *RunHandler {
	return &RunHandler{
		runs:           runs,
		defaults:       defaults,
		exportFilename: exportFilename,
	}
}

// CreateRun executes a run synchronously and returns its result.
func (h *RunHandler) CreateRun(c *gin.Context) {
	var dto models.RunRequestDTO

	// An empty body runs with the configured defaults.
	if err := c.ShouldBindJSON(&dto); err != nil && !errors.Is(err, io.EOF) {
		logger.Log.Warn("Invalid request payload",
			zap.Error(err),
			zap.String("path", c.Request.URL.Path),
		)
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Status:    http.StatusBadRequest,
			Error:     "Bad Request",
			Message:   "Invalid request payload: " + err.Error(),
			Timestamp: time.Now(),
			Path:      c.Request.URL.Path,
		})
		return
	}

	result, err := h.runs.Execute(c.Request.Context(), h.merge(dto))
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// merge overlays the non-zero fields of dto on the defaults. Criteria are
// taken as a whole when any threshold is set.
func (h *RunHandler) merge(dto models.RunRequestDTO) models.RunRequest {
	req := h.defaults
	req.Keywords = append([]string(nil), h.defaults.Keywords...)

	if len(dto.Keywords) > 0 {
		req.Keywords = dto.Keywords
	}
	if dto.Days > 0 {
		req.Days = dto.Days
	}
	if dto.MaxResults > 0 {
		req.MaxResults = dto.MaxResults
	}
	req.Criteria = dto.Criteria.Overlay(h.defaults.Criteria)
	if dto.CountryCode != "" {
		req.CountryCode = dto.CountryCode
	}

	return req
}

// ListRuns returns run summaries, newest first.
func (h *RunHandler) ListRuns(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			handleError(c, &service.ValidationError{Message: "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	runs, err := h.runs.List(c.Request.Context(), limit)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"runs":  runs,
		"count": len(runs),
	})
}

// GetRun returns one stored run.
func (h *RunHandler) GetRun(c *gin.Context) {
	run, err := h.lookup(c)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, run)
}

// ExportRunCSV downloads the filtered channels of a run.
func (h *RunHandler) ExportRunCSV(c *gin.Context) {
	run, err := h.lookup(c)
	if err != nil {
		handleError(c, err)
		return
	}

	writeCSV(c, h.exportFilename, run)
}

func (h *RunHandler) lookup(c *gin.Context) (*models.RunResult, error) {
	id, err := parseRunID(c)
	if err != nil {
		return nil, err
	}
	return h.runs.Get(c.Request.Context(), id)
}

func writeCSV(c *gin.Context, filename string, run *models.RunResult) {
	c.Header("Content-Type", export.ContentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Status(http.StatusOK)

	if err := export.WriteCSV(c.Writer, run.Channels); err != nil {
		logger.Log.Error("Failed to write CSV export",
			zap.Error(err),
			zap.String("runId", run.ID.String()),
		)
	}
}
