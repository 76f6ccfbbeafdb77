// Package service runs keyword searches against YouTube and turns the
// results into filtered per-channel statistics.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ad-tracker/trendmeter/internal/models"
	"github.com/ad-tracker/trendmeter/internal/repository"
	"github.com/ad-tracker/trendmeter/internal/validation"
	"github.com/ad-tracker/trendmeter/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RunService executes runs and keeps their results.
type RunService struct {
	pipeline  *FetchPipeline
	repo      repository.RunRepository
	publisher EventPublisher
	validator *validation.Validator
	observers Observers
	now       func() time.Time
}

// NewRunService creates a new RunService. observers receive the events of
// every run; a nil publisher disables events.
func NewRunService(
	source VideoSource,
	repo repository.RunRepository,
	publisher EventPublisher,
	validator *validation.Validator,
	observers ...Observer,
) *RunService {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	if validator == nil {
		validator = validation.New(0)
	}
	return &RunService{
		pipeline:  NewFetchPipeline(source),
		repo:      repo,
		publisher: publisher,
		validator: validator,
		observers: observers,
		now:       time.Now,
	}
}

// Execute validates req, runs fetch, aggregate and filter, stores the result
// and announces it. A fault inside the run marks the result failed instead
// of returning an error; errors are only returned for invalid requests and
// storage failures.
func (s *RunService) Execute(ctx context.Context, req models.RunRequest, extra ...Observer) (*models.RunResult, error) {
	req.Keywords = normalizeKeywords(req.Keywords)
	if err := s.validator.ValidateRunRequest(&req); err != nil {
		logger.Log.Warn("Run request rejected", zap.Error(err))
		return nil, &ValidationError{Message: err.Error()}
	}

	result := &models.RunResult{
		ID:        uuid.New(),
		Status:    models.RunStatusCompleted,
		StartedAt: s.now().UTC(),
		Request:   req,
	}

	notices := &noticeCollector{}
	obs := make(Observers, 0, 1+len(s.observers)+len(extra))
	obs = append(obs, notices)
	obs = append(obs, s.observers...)
	obs = append(obs, extra...)

	obs.OnRunStart(req)
	s.run(ctx, req, result, obs)

	result.Notices = notices.notices
	result.FinishedAt = s.now().UTC()
	obs.OnRunDone(result, result.FinishedAt.Sub(result.StartedAt))

	if err := s.repo.Save(ctx, result); err != nil {
		logger.Log.Error("Failed to save run",
			zap.Error(err),
			zap.String("runId", result.ID.String()),
		)
		return nil, &ProcessingError{Message: "failed to save run", Cause: err}
	}

	if err := s.publisher.PublishRunCompleted(ctx, completedEvent(result)); err != nil {
		logger.Log.Error("Failed to publish run event",
			zap.Error(err),
			zap.String("runId", result.ID.String()),
		)
	}

	return result, nil
}

// run fills result. A panic anywhere in fetch, aggregate or filter is
// recovered into a failed result that keeps the videos fetched so far.
func (s *RunService) run(ctx context.Context, req models.RunRequest, result *models.RunResult, obs Observer) {
	fetched := NewFetchResult()

	defer func() {
		if r := recover(); r != nil {
			result.Status = models.RunStatusFailed
			result.Error = fmt.Sprintf("An error occurred: %v", r)
			result.Videos = fetched.Videos
			result.Channels = nil
		}
	}()

	s.pipeline.Fetch(ctx, req, fetched, obs)
	result.Videos = fetched.Videos

	aggregates := Aggregate(fetched.Videos, fetched.Channels, s.now())
	result.Channels = Filter(req.Criteria, fetched.Videos, aggregates)
}

// Get returns a stored run.
func (s *RunService) Get(ctx context.Context, id uuid.UUID) (*models.RunResult, error) {
	return s.repo.Get(ctx, id)
}

// List returns the most recent runs first.
func (s *RunService) List(ctx context.Context, limit int) ([]models.RunSummary, error) {
	return s.repo.List(ctx, limit)
}

func normalizeKeywords(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if kw = strings.TrimSpace(kw); kw != "" {
			out = append(out, kw)
		}
	}
	return out
}

func completedEvent(r *models.RunResult) *models.RunCompletedEvent {
	ids := make([]string, 0, len(r.Channels))
	for _, ch := range r.Channels {
		ids = append(ids, ch.ChannelID)
	}
	return &models.RunCompletedEvent{
		RunID:        r.ID,
		Status:       r.Status,
		Keywords:     r.Request.Keywords,
		VideoCount:   len(r.Videos),
		ChannelCount: len(r.Channels),
		ChannelIDs:   ids,
		FinishedAt:   r.FinishedAt,
	}
}

// ValidationError represents a rejected run request.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ProcessingError represents an error that occurred after a run finished.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type ProcessingError struct {
	Message string
	Cause   error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

func (e *ProcessingError) Unwrap() error {
	return e.Cause
}
