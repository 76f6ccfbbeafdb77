// Package handler provides HTTP request handlers for the application.
package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/ad-tracker/trendmeter/internal/models"
	"github.com/ad-tracker/trendmeter/internal/repository"
	"github.com/ad-tracker/trendmeter/internal/service"
	"github.com/ad-tracker/trendmeter/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var errInvalidRunID = &service.ValidationError{Message: "invalid run id"}

func parseRunID(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, errInvalidRunID
	}
	return id, nil
}

// classify maps an error to its HTTP status, short label and client message.
func classify(err error) (int, string, string) {
	var validationErr *service.ValidationError
	var processingErr *service.ProcessingError

	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, "Bad Request", validationErr.Message
	case errors.Is(err, repository.ErrRunNotFound):
		return http.StatusNotFound, "Not Found", "Run not found"
	case errors.As(err, &processingErr):
		return http.StatusInternalServerError, "Internal Server Error", "Failed to process run"
	default:
		return http.StatusInternalServerError, "Internal Server Error", "An unexpected error occurred"
	}
}

func logError(c *gin.Context, status int, err error) {
	fields := []zap.Field{
		zap.Error(err),
		zap.String("path", c.Request.URL.Path),
	}
	if status >= http.StatusInternalServerError {
		logger.Log.Error("Request failed", fields...)
		return
	}
	logger.Log.Warn("Request rejected", fields...)
}

func handleError(c *gin.Context, err error) {
	status, label, msg := classify(err)
	logError(c, status, err)

	c.JSON(status, models.ErrorResponse{
		Status:    status,
		Error:     label,
		Message:   msg,
		Timestamp: time.Now(),
		Path:      c.Request.URL.Path,
	})
}
