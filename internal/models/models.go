// Package models contains the data models and DTOs for the trendmeter service.
package models

import (
	"time"

	"github.com/google/uuid"
)

// DescriptionMaxLen caps VideoRecord.Description, counted in characters.
const DescriptionMaxLen = 300

// MaxDisplaySamples caps the sample videos shown per channel card.
const MaxDisplaySamples = 5

// ShortsMaxAvgSeconds is the exclusive upper bound on a channel's average
// duration for the only-shorts filter.
const ShortsMaxAvgSeconds = 60

// RunStatus represents the terminal state of a run.
type RunStatus string

// RunStatus constants define the possible outcomes of a run.
const (
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// NoticeLevel classifies user-facing run messages.
type NoticeLevel string

// NoticeLevel constants.
const (
	NoticeInfo    NoticeLevel = "info"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// VideoRecord is one video returned for one keyword. ChannelID is empty when
// the API did not report a channel.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type VideoRecord struct {
	Keyword         string     `json:"keyword"`
	VideoID         string     `json:"video_id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	URL             string     `json:"url"`
	Views           int64      `json:"views"`
	Likes           int64      `json:"likes"`
	Comments        int64      `json:"comments"`
	DurationSeconds int        `json:"duration_seconds"`
	ChannelID       string     `json:"channel_id,omitempty"`
	ChannelSubs     *int64     `json:"channel_subs"`
	PublishedAt     *time.Time `json:"published_at"`
}

// ChannelInfo is what the channels endpoint reported for one channel.
type ChannelInfo struct {
	ChannelID   string `json:"channel_id"`
	Subscribers int64  `json:"subscribers"`
	PublishedAt string `json:"published_at"`
}

// ChannelAggregate folds every VideoRecord of one channel.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type ChannelAggregate struct {
	ChannelID        string
	Durations        []int
	Subscribers      *int64
	PublishedAt      *time.Time
	AgeMonths        *int
	SampleVideoCount int
}

// AvgDurationSeconds is the arithmetic mean of Durations, 0 when empty.
func (a *ChannelAggregate) AvgDurationSeconds() float64 {
	if len(a.Durations) == 0 {
		return 0
	}
	total := 0
	for _, d := range a.Durations {
		total += d
	}
	return float64(total) / float64(len(a.Durations))
}

// FilterCriteria holds the user thresholds. Zero disables MinSubs, MaxSubs
// and MinChannelAgeMonths.
type FilterCriteria struct {
	MinViews            int64 `json:"min_views" form:"min_views" binding:"gte=0"`
	MinSubs             int64 `json:"min_subs" form:"min_subs" binding:"gte=0"`
	MaxSubs             int64 `json:"max_subs" form:"max_subs" binding:"gte=0"`
	MinChannelAgeMonths int   `json:"min_channel_age_months" form:"min_channel_age_months" binding:"gte=0"`
	OnlyShorts          bool  `json:"only_shorts" form:"only_shorts"`
}

// SampleVideo is a display exemplar of a filtered channel.
type SampleVideo struct {
	Title           string     `json:"title"`
	URL             string     `json:"url"`
	Views           int64      `json:"views"`
	Duration        string     `json:"duration"`
	DurationSeconds int        `json:"duration_seconds"`
	PublishedAt     *time.Time `json:"published_at"`
}

// FilteredChannelResult is one channel that had at least one passing row.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type FilteredChannelResult struct {
	ChannelID           string        `json:"channel_id"`
	Subscribers         int64         `json:"subs"`
	AvgDurationSeconds  float64       `json:"avg_duration_seconds"`
	AvgDurationReadable string        `json:"avg_duration_readable"`
	SampleVideoCount    int           `json:"video_count_in_sample"`
	SampleVideos        []SampleVideo `json:"sample_videos"`
}

// DisplaySamples returns the first MaxDisplaySamples sample videos.
func (r *FilteredChannelResult) DisplaySamples() []SampleVideo {
	if len(r.SampleVideos) <= MaxDisplaySamples {
		return r.SampleVideos
	}
	return r.SampleVideos[:MaxDisplaySamples]
}

// RunRequest is everything a single fetch-and-filter run needs.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type RunRequest struct {
	Keywords    []string       `json:"keywords"`
	Days        int            `json:"days"`
	MaxResults  int            `json:"max_results"`
	Criteria    FilterCriteria `json:"criteria"`
	CountryCode string         `json:"country_code,omitempty"`
}

// Notice is a user-facing message emitted while a run progresses.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Keyword string      `json:"keyword,omitempty"`
	Message string      `json:"message"`
}

// RunResult is the outcome of one run, successful or not. Videos may be
// partial when Status is failed.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type RunResult struct {
	ID         uuid.UUID               `json:"id"`
	Status     RunStatus               `json:"status"`
	Error      string                  `json:"error,omitempty"`
	StartedAt  time.Time               `json:"started_at"`
	FinishedAt time.Time               `json:"finished_at"`
	Request    RunRequest              `json:"request"`
	Notices    []Notice                `json:"notices"`
	Videos     []VideoRecord           `json:"videos"`
	Channels   []FilteredChannelResult `json:"channels"`
}

// Summary condenses a RunResult for listings.
func (r *RunResult) Summary() RunSummary {
	return RunSummary{
		ID:           r.ID,
		Status:       r.Status,
		Error:        r.Error,
		StartedAt:    r.StartedAt,
		FinishedAt:   r.FinishedAt,
		Keywords:     r.Request.Keywords,
		VideoCount:   len(r.Videos),
		ChannelCount: len(r.Channels),
	}
}

// RunSummary is the list view of a run.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type RunSummary struct {
	ID           uuid.UUID `json:"id"`
	Status       RunStatus `json:"status"`
	Error        string    `json:"error,omitempty"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	Keywords     []string  `json:"keywords"`
	VideoCount   int       `json:"video_count"`
	ChannelCount int       `json:"channel_count"`
}

// RunCompletedEvent is published once per finished run.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type RunCompletedEvent struct {
	RunID        uuid.UUID `json:"runId"`
	Status       RunStatus `json:"status"`
	Keywords     []string  `json:"keywords"`
	VideoCount   int       `json:"videoCount"`
	ChannelCount int       `json:"channelCount"`
	ChannelIDs   []string  `json:"channelIds"`
	FinishedAt   time.Time `json:"finishedAt"`
}

// QuotaInfo reports today's YouTube API quota accounting.
type QuotaInfo struct {
	QuotaUsed      int64 `json:"quota_used"`
	QuotaLimit     int64 `json:"quota_limit"`
	QuotaRemaining int64 `json:"quota_remaining"`
}

// RunRequestDTO is the JSON body of POST /api/v1/runs. Zero-valued search
// fields fall back to configured defaults.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type RunRequestDTO struct {
	Keywords    []string    `json:"keywords" binding:"omitempty,max=50,dive,max=200"`
	Days        int         `json:"days" binding:"omitempty,min=1,max=90"`
	MaxResults  int         `json:"max_results" binding:"omitempty,min=1,max=50"`
	Criteria    CriteriaDTO `json:"criteria"`
	CountryCode string      `json:"country_code" binding:"omitempty,len=2,alpha"`
}

// CriteriaDTO carries the thresholds a JSON request sets. Nil fields were
// absent from the body.
type CriteriaDTO struct {
	MinViews            *int64 `json:"min_views" binding:"omitempty,gte=0"`
	MinSubs             *int64 `json:"min_subs" binding:"omitempty,gte=0"`
	MaxSubs             *int64 `json:"max_subs" binding:"omitempty,gte=0"`
	MinChannelAgeMonths *int   `json:"min_channel_age_months" binding:"omitempty,gte=0"`
	OnlyShorts          *bool  `json:"only_shorts"`
}

// Overlay returns base with every field present in d replaced.
func (d CriteriaDTO) Overlay(base FilterCriteria) FilterCriteria {
	if d.MinViews != nil {
		base.MinViews = *d.MinViews
	}
	if d.MinSubs != nil {
		base.MinSubs = *d.MinSubs
	}
	if d.MaxSubs != nil {
		base.MaxSubs = *d.MaxSubs
	}
	if d.MinChannelAgeMonths != nil {
		base.MinChannelAgeMonths = *d.MinChannelAgeMonths
	}
	if d.OnlyShorts != nil {
		base.OnlyShorts = *d.OnlyShorts
	}
	return base
}

// RunFormDTO is the dashboard form submission.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type RunFormDTO struct {
	Keywords    string `form:"keywords" binding:"required"`
	Days        int    `form:"days" binding:"required,min=1,max=90"`
	MaxResults  int    `form:"max_results" binding:"required,min=1,max=50"`
	CountryCode string `form:"country_code" binding:"omitempty,len=2,alpha"`
	FilterCriteria
}

// ErrorResponse represents an error response.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type ErrorResponse struct {
	Timestamp time.Time `json:"timestamp"`
	Status    int       `json:"status"`
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Path      string    `json:"path"`
}
