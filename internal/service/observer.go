package service

import (
	"fmt"
	"time"

	"github.com/ad-tracker/trendmeter/internal/models"
	"github.com/ad-tracker/trendmeter/pkg/logger"
	"go.uber.org/zap"
)

// Stage names the API call a keyword failed on.
type Stage string

// Stage constants.
const (
	StageSearch   Stage = "search"
	StageVideos   Stage = "videos"
	StageChannels Stage = "channels"
)

// Observer receives pipeline events. The pipeline only emits events; how
// they are shown is up to the caller. Calls arrive from the run's goroutine.
type Observer interface {
	OnRunStart(req models.RunRequest)
	OnKeywordStart(idx, total int, keyword string)
	// OnKeywordFailed is called when search or videos fails; the keyword is skipped.
	OnKeywordFailed(keyword string, stage Stage, status int, err error)
	OnKeywordEmpty(keyword string)
	// OnChannelLookupFailed is not fatal for the keyword.
	OnChannelLookupFailed(keyword string, status int, err error)
	OnKeywordDone(idx, total int, keyword string, videos int)
	OnRunDone(res *models.RunResult, elapsed time.Duration)
}

// NopObserver ignores every event. Embed it to implement a subset.
type NopObserver struct{}

func (NopObserver) OnRunStart(models.RunRequest)               {}
func (NopObserver) OnKeywordStart(int, int, string)            {}
func (NopObserver) OnKeywordFailed(string, Stage, int, error)  {}
func (NopObserver) OnKeywordEmpty(string)                      {}
func (NopObserver) OnChannelLookupFailed(string, int, error)   {}
func (NopObserver) OnKeywordDone(int, int, string, int)        {}
func (NopObserver) OnRunDone(*models.RunResult, time.Duration) {}

// Observers fans every event out, in order.
type Observers []Observer

var _ Observer = Observers(nil)

func (o Observers) OnRunStart(req models.RunRequest) {
	for _, ob := range o {
		ob.OnRunStart(req)
	}
}

func (o Observers) OnKeywordStart(idx, total int, keyword string) {
	for _, ob := range o {
		ob.OnKeywordStart(idx, total, keyword)
	}
}

func (o Observers) OnKeywordFailed(keyword string, stage Stage, status int, err error) {
	for _, ob := range o {
		ob.OnKeywordFailed(keyword, stage, status, err)
	}
}

func (o Observers) OnKeywordEmpty(keyword string) {
	for _, ob := range o {
		ob.OnKeywordEmpty(keyword)
	}
}

func (o Observers) OnChannelLookupFailed(keyword string, status int, err error) {
	for _, ob := range o {
		ob.OnChannelLookupFailed(keyword, status, err)
	}
}

func (o Observers) OnKeywordDone(idx, total int, keyword string, videos int) {
	for _, ob := range o {
		ob.OnKeywordDone(idx, total, keyword, videos)
	}
}

func (o Observers) OnRunDone(res *models.RunResult, elapsed time.Duration) {
	for _, ob := range o {
		ob.OnRunDone(res, elapsed)
	}
}

// noticeCollector turns pipeline events into the user-facing notices kept
// on the RunResult.
type noticeCollector struct {
	NopObserver
	notices []models.Notice
}

func (n *noticeCollector) add(level models.NoticeLevel, keyword, msg string) {
	n.notices = append(n.notices, models.Notice{Level: level, Keyword: keyword, Message: msg})
}

func (n *noticeCollector) OnKeywordFailed(keyword string, stage Stage, status int, err error) {
	label := "Search"
	if stage == StageVideos {
		label = "Videos"
	}
	n.add(models.NoticeError, keyword,
		fmt.Sprintf("%s API failed for '%s' (%s).", label, keyword, describeFailure(status, err)))
}

func (n *noticeCollector) OnKeywordEmpty(keyword string) {
	n.add(models.NoticeInfo, keyword, "No videos for keyword: "+keyword)
}

func (n *noticeCollector) OnChannelLookupFailed(keyword string, status int, err error) {
	if status > 0 {
		n.add(models.NoticeWarning, keyword, fmt.Sprintf("Channels API returned %d for some channels.", status))
		return
	}
	n.add(models.NoticeWarning, keyword, fmt.Sprintf("Channels API failed for some channels (%v).", err))
}

func describeFailure(status int, err error) string {
	if status > 0 {
		return fmt.Sprintf("status %d", status)
	}
	return fmt.Sprintf("error: %v", err)
}

// LogObserver writes pipeline events to the zap logger.
type LogObserver struct{}

var _ Observer = LogObserver{}

func (LogObserver) OnRunStart(req models.RunRequest) {
	logger.Log.Info("Run started",
		zap.Strings("keywords", req.Keywords),
		zap.Int("days", req.Days),
		zap.Int("maxResults", req.MaxResults),
	)
}

func (LogObserver) OnKeywordStart(idx, total int, keyword string) {
	logger.Log.Info(fmt.Sprintf("(%d/%d) Searching: %s", idx, total, keyword))
}

func (LogObserver) OnKeywordFailed(keyword string, stage Stage, status int, err error) {
	logger.Log.Error("Keyword skipped",
		zap.String("keyword", keyword),
		zap.String("stage", string(stage)),
		zap.Int("status", status),
		zap.Error(err),
	)
}

func (LogObserver) OnKeywordEmpty(keyword string) {
	logger.Log.Info("No videos for keyword", zap.String("keyword", keyword))
}

func (LogObserver) OnChannelLookupFailed(keyword string, status int, err error) {
	logger.Log.Warn("Channel lookup failed, continuing without channel data",
		zap.String("keyword", keyword),
		zap.Int("status", status),
		zap.Error(err),
	)
}

func (LogObserver) OnKeywordDone(idx, total int, keyword string, videos int) {
	logger.Log.Debug("Keyword processed",
		zap.String("keyword", keyword),
		zap.Int("index", idx),
		zap.Int("total", total),
		zap.Int("videos", videos),
	)
}

func (LogObserver) OnRunDone(res *models.RunResult, elapsed time.Duration) {
	fields := []zap.Field{
		zap.String("runId", res.ID.String()),
		zap.String("status", string(res.Status)),
		zap.Int("videos", len(res.Videos)),
		zap.Int("channels", len(res.Channels)),
		zap.Duration("elapsed", elapsed),
	}
	if res.Status == models.RunStatusFailed {
		logger.Log.Error("Run failed", append(fields, zap.String("error", res.Error))...)
		return
	}
	logger.Log.Info("Run completed", fields...)
}
