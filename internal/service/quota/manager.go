// Package quota keeps a daily tally of YouTube Data API quota units. It only
// accounts for usage; calls are never blocked.
package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/ad-tracker/trendmeter/internal/models"
	"github.com/ad-tracker/trendmeter/internal/service/youtube"
	"github.com/ad-tracker/trendmeter/pkg/logger"
	"go.uber.org/zap"
)

// DefaultDailyLimit is the YouTube API v3 default daily allowance.
const DefaultDailyLimit = 10000

// Unit costs per endpoint.
var costs = map[string]int64{
	youtube.EndpointSearch:   100,
	youtube.EndpointVideos:   1,
	youtube.EndpointChannels: 1,
}

// Cost returns the quota units one call to endpoint consumes.
func Cost(endpoint string) int64 {
	if c, ok := costs[endpoint]; ok {
		return c
	}
	return 1
}

// Counter stores per-day usage totals.
type Counter interface {
	// IncrBy adds n units to day's total and returns the new total.
	IncrBy(ctx context.Context, day string, n int64) (int64, error)
	Get(ctx context.Context, day string) (int64, error)
}

// Manager handles YouTube API quota accounting
type Manager struct {
	counter    Counter
	dailyLimit int64
	now        func() time.Time
}

// NewManager creates a new quota manager
func NewManager(counter Counter, dailyLimit int64) *Manager {
	if dailyLimit <= 0 {
		dailyLimit = DefaultDailyLimit
	}
	if counter == nil {
		counter = NewMemoryCounter()
	}

	return &Manager{
		counter:    counter,
		dailyLimit: dailyLimit,
		now:        time.Now,
	}
}

// today is keyed in Pacific time, when the YouTube quota resets.
func (m *Manager) today() string {
	loc, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		loc = time.UTC
	}
	return m.now().In(loc).Format("2006-01-02")
}

// Record adds the cost of one call to endpoint to today's usage.
func (m *Manager) Record(ctx context.Context, endpoint string) error {
	cost := Cost(endpoint)
	used, err := m.counter.IncrBy(ctx, m.today(), cost)
	if err != nil {
		return fmt.Errorf("failed to record quota usage: %w", err)
	}

	logger.Log.Debug("Quota used",
		zap.String("endpoint", endpoint),
		zap.Int64("cost", cost),
		zap.Int64("used", used),
		zap.Int64("limit", m.dailyLimit),
	)
	return nil
}

// Usage returns current quota information
func (m *Manager) Usage(ctx context.Context) (*models.QuotaInfo, error) {
	used, err := m.counter.Get(ctx, m.today())
	if err != nil {
		return nil, fmt.Errorf("failed to get quota info: %w", err)
	}

	remaining := m.dailyLimit - used
	if remaining < 0 {
		remaining = 0
	}

	return &models.QuotaInfo{
		QuotaUsed:      used,
		QuotaLimit:     m.dailyLimit,
		QuotaRemaining: remaining,
	}, nil
}

// CallHook returns a youtube.CallHook that records every call that reached
// the API. Transport failures (status 0) cost nothing.
func (m *Manager) CallHook() youtube.CallHook {
	return func(ctx context.Context, endpoint string, statusCode int, _ time.Duration) {
		if statusCode == 0 {
			return
		}
		if err := m.Record(context.WithoutCancel(ctx), endpoint); err != nil {
			logger.Log.Warn("Failed to record quota usage", zap.String("endpoint", endpoint), zap.Error(err))
		}
	}
}
