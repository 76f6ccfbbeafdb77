package repository

import (
	"context"
	"sync"

	"github.com/ad-tracker/trendmeter/internal/models"
	"github.com/google/uuid"
)

// DefaultCapacity is the number of runs MemoryRunRepository keeps.
const DefaultCapacity = 50

// MemoryRunRepository keeps the most recent runs in process memory and
// evicts the oldest once capacity is reached.
type MemoryRunRepository struct {
	mu       sync.RWMutex
	capacity int
	order    []uuid.UUID
	runs     map[uuid.UUID]*models.RunResult
}

var _ RunRepository = (*MemoryRunRepository)(nil)

// NewMemoryRunRepository creates a store holding up to capacity runs.
func NewMemoryRunRepository(capacity int) *MemoryRunRepository {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &MemoryRunRepository{
		capacity: capacity,
		runs:     make(map[uuid.UUID]*models.RunResult),
	}
}

// Save stores run, replacing an existing run with the same id.
func (r *MemoryRunRepository) Save(_ context.Context, run *models.RunResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.runs[run.ID]; !exists {
		r.order = append(r.order, run.ID)
	}
	r.runs[run.ID] = run

	for len(r.order) > r.capacity {
		oldest := r.order[0]
		r.order = r.order[1:]
		delete(r.runs, oldest)
	}
	return nil
}

// Get returns the run with id or ErrRunNotFound.
func (r *MemoryRunRepository) Get(_ context.Context, id uuid.UUID) (*models.RunResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	run, ok := r.runs[id]
	if !ok {
		return nil, ErrRunNotFound
	}
	return run, nil
}

// List returns up to limit summaries, newest first.
func (r *MemoryRunRepository) List(_ context.Context, limit int) ([]models.RunSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	limit = normalizeLimit(limit)
	summaries := make([]models.RunSummary, 0, min(limit, len(r.order)))
	for i := len(r.order) - 1; i >= 0 && len(summaries) < limit; i-- {
		summaries = append(summaries, r.runs[r.order[i]].Summary())
	}
	return summaries, nil
}

// Ping always succeeds.
func (r *MemoryRunRepository) Ping(context.Context) error {
	return nil
}
