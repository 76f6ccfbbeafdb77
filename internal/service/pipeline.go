package service

import (
	"context"
	"math"
	"time"

	"github.com/ad-tracker/trendmeter/internal/models"
	"github.com/ad-tracker/trendmeter/internal/parser"
	"github.com/ad-tracker/trendmeter/internal/service/youtube"
	ytv3 "google.golang.org/api/youtube/v3"
)

const (
	defaultTitle    = "N/A"
	defaultDuration = "PT0S"
)

// VideoSource is the subset of the YouTube client the pipeline calls.
type VideoSource interface {
	Search(ctx context.Context, p youtube.SearchParams) (*ytv3.SearchListResponse, error)
	ListVideos(ctx context.Context, videoIDs []string) (*ytv3.VideoListResponse, error)
	ListChannels(ctx context.Context, channelIDs []string) (*ytv3.ChannelListResponse, error)
}

// FetchResult accumulates one run's fetched data. Create a fresh value per
// run; Channels doubles as the run's channel memo.
type FetchResult struct {
	Videos   []models.VideoRecord
	Channels map[string]models.ChannelInfo
}

// NewFetchResult returns an empty accumulator.
func NewFetchResult() *FetchResult {
	return &FetchResult{Channels: make(map[string]models.ChannelInfo)}
}

// FetchPipeline runs search -> video details -> channel details per keyword.
type FetchPipeline struct {
	source VideoSource
	now    func() time.Time
}

// NewFetchPipeline creates a new FetchPipeline.
func NewFetchPipeline(source VideoSource) *FetchPipeline {
	return &FetchPipeline{source: source, now: time.Now}
}

// Fetch processes every keyword of req in order and appends to into. API
// failures never abort the loop; they are reported to obs and the keyword
// (or only its channel data) is skipped.
func (p *FetchPipeline) Fetch(ctx context.Context, req models.RunRequest, into *FetchResult, obs Observer) {
	if into.Channels == nil {
		into.Channels = make(map[string]models.ChannelInfo)
	}

	publishedAfter := p.now().UTC().Add(-time.Duration(req.Days) * 24 * time.Hour)
	total := len(req.Keywords)

	for i, keyword := range req.Keywords {
		idx := i + 1
		obs.OnKeywordStart(idx, total, keyword)

		n, ok := p.fetchKeyword(ctx, keyword, publishedAfter, req.MaxResults, into, obs)
		if ok {
			obs.OnKeywordDone(idx, total, keyword, n)
		}
	}
}

func (p *FetchPipeline) fetchKeyword(
	ctx context.Context,
	keyword string,
	publishedAfter time.Time,
	maxResults int,
	into *FetchResult,
	obs Observer,
) (int, bool) {
	// Step 1: search
	search, err := p.source.Search(ctx, youtube.SearchParams{
		Query:          keyword,
		PublishedAfter: publishedAfter,
		MaxResults:     maxResults,
	})
	if err != nil {
		obs.OnKeywordFailed(keyword, StageSearch, youtube.StatusCode(err), err)
		return 0, false
	}
	if len(search.Items) == 0 {
		obs.OnKeywordEmpty(keyword)
		return 0, true
	}

	// Step 2: collect ids
	videoIDs := make([]string, 0, len(search.Items))
	channelIDs := make([]string, 0, len(search.Items))
	for _, item := range search.Items {
		if item.Id == nil || item.Id.VideoId == "" {
			continue
		}
		videoIDs = append(videoIDs, item.Id.VideoId)
		if item.Snippet != nil && item.Snippet.ChannelId != "" {
			channelIDs = append(channelIDs, item.Snippet.ChannelId)
		}
	}
	if len(videoIDs) == 0 {
		return 0, true
	}

	// Step 3: video details
	details, err := p.source.ListVideos(ctx, videoIDs)
	if err != nil {
		obs.OnKeywordFailed(keyword, StageVideos, youtube.StatusCode(err), err)
		return 0, false
	}

	// Step 4: channels not yet resolved in this run
	if pending := unresolvedChannels(channelIDs, into.Channels); len(pending) > 0 {
		channels, err := p.source.ListChannels(ctx, pending)
		if err != nil {
			obs.OnChannelLookupFailed(keyword, youtube.StatusCode(err), err)
		} else {
			for _, ch := range channels.Items {
				into.Channels[ch.Id] = channelInfo(ch)
			}
		}
	}

	// Step 5: records
	for _, v := range details.Items {
		into.Videos = append(into.Videos, buildVideoRecord(keyword, v, into.Channels))
	}

	return len(details.Items), true
}

// unresolvedChannels returns ids missing from resolved, deduplicated, in
// first-seen order.
func unresolvedChannels(ids []string, resolved map[string]models.ChannelInfo) []string {
	seen := make(map[string]struct{}, len(ids))
	pending := make([]string, 0, len(ids))

	for _, id := range ids {
		if _, ok := resolved[id]; ok {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		pending = append(pending, id)
	}

	return pending
}

func channelInfo(ch *ytv3.Channel) models.ChannelInfo {
	info := models.ChannelInfo{ChannelID: ch.Id}
	if ch.Statistics != nil {
		info.Subscribers = count(ch.Statistics.SubscriberCount)
	}
	if ch.Snippet != nil {
		info.PublishedAt = ch.Snippet.PublishedAt
	}
	return info
}

func buildVideoRecord(keyword string, v *ytv3.Video, channels map[string]models.ChannelInfo) models.VideoRecord {
	rec := models.VideoRecord{
		Keyword: keyword,
		VideoID: v.Id,
		Title:   defaultTitle,
		URL:     youtube.WatchURL(v.Id),
	}

	if v.Snippet != nil {
		if v.Snippet.Title != "" {
			rec.Title = v.Snippet.Title
		}
		rec.Description = parser.Truncate(v.Snippet.Description, models.DescriptionMaxLen)
		rec.ChannelID = v.Snippet.ChannelId
		rec.PublishedAt = parser.ParseTimestamp(v.Snippet.PublishedAt)
	}

	duration := defaultDuration
	if v.ContentDetails != nil && v.ContentDetails.Duration != "" {
		duration = v.ContentDetails.Duration
	}
	rec.DurationSeconds = parser.ParseDuration(duration)

	if v.Statistics != nil {
		rec.Views = count(v.Statistics.ViewCount)
		rec.Likes = count(v.Statistics.LikeCount)
		rec.Comments = count(v.Statistics.CommentCount)
	}

	if rec.ChannelID != "" {
		if ch, ok := channels[rec.ChannelID]; ok {
			subs := ch.Subscribers
			rec.ChannelSubs = &subs
		}
	}

	return rec
}

// count narrows an API counter to the signed range the records use.
func count(n uint64) int64 {
	if n > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(n)
}
