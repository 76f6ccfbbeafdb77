// Package repository stores finished runs so their results can be viewed and
// exported after the request that produced them.
package repository

import (
	"context"
	"errors"

	"github.com/ad-tracker/trendmeter/internal/models"
	"github.com/google/uuid"
)

// ErrRunNotFound is returned when no run has the requested id.
var ErrRunNotFound = errors.New("run not found")

// ErrInvalidRun is returned when the store rejects a run's contents, such as
// a status it does not know.
var ErrInvalidRun = errors.New("invalid run")

// DefaultListLimit caps List when the caller passes a non-positive limit.
const DefaultListLimit = 20

// RunRepository persists RunResults.
type RunRepository interface {
	Save(ctx context.Context, run *models.RunResult) error
	Get(ctx context.Context, id uuid.UUID) (*models.RunResult, error)
	// List returns summaries, most recent first.
	List(ctx context.Context, limit int) ([]models.RunSummary, error)
	Ping(ctx context.Context) error
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}
