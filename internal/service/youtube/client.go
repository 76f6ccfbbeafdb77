// Package youtube wraps the YouTube Data API v3 service for the search,
// videos and channels list calls a run makes.
package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	htransport "google.golang.org/api/transport/http"
	ytv3 "google.golang.org/api/youtube/v3"
)

// DefaultBaseURL is the API root the generated service resolves
// "youtube/v3/<endpoint>" against.
const DefaultBaseURL = "https://youtube.googleapis.com/"

// MaxBatchSize is the most ids a single list call accepts.
const MaxBatchSize = 50

const defaultTimeout = 20 * time.Second

// Endpoint names, also used as metric and quota labels.
const (
	EndpointSearch   = "search"
	EndpointVideos   = "videos"
	EndpointChannels = "channels"
)

var (
	searchParts  = []string{"snippet"}
	videoParts   = []string{"statistics", "contentDetails", "snippet"}
	channelParts = []string{"snippet", "statistics"}
)

// CallHook observes every API call. statusCode is 0 when no response arrived.
type CallHook func(ctx context.Context, endpoint string, statusCode int, elapsed time.Duration)

// Client wraps the YouTube Data API v3 service.
type Client struct {
	service *ytv3.Service
}

type settings struct {
	baseURL   string
	transport http.RoundTripper
	timeout   time.Duration
	hooks     []CallHook
}

// Option configures a Client.
type Option func(*settings)

// WithBaseURL points the client at another API root (tests, proxies).
// An empty value keeps the default.
func WithBaseURL(baseURL string) Option {
	return func(s *settings) {
		if baseURL != "" {
			s.baseURL = strings.TrimRight(baseURL, "/") + "/"
		}
	}
}

// WithTransport replaces the HTTP transport requests are sent through.
func WithTransport(rt http.RoundTripper) Option {
	return func(s *settings) {
		s.transport = rt
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithCallHook registers a hook run after every API call.
func WithCallHook(h CallHook) Option {
	return func(s *settings) {
		s.hooks = append(s.hooks, h)
	}
}

// NewClient creates a new YouTube API client
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("YouTube API key is required")
	}

	s := settings{
		baseURL:   DefaultBaseURL,
		transport: http.DefaultTransport,
		timeout:   defaultTimeout,
	}
	for _, opt := range opts {
		opt(&s)
	}

	ctx := context.Background()

	// option.WithAPIKey is ignored once a custom HTTP client is supplied, so
	// the key goes on the transport instead.
	rt, err := htransport.NewTransport(ctx, &hookTransport{base: s.transport, hooks: s.hooks},
		option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube transport: %w", err)
	}

	service, err := ytv3.NewService(ctx,
		option.WithHTTPClient(&http.Client{Transport: rt, Timeout: s.timeout}),
		option.WithEndpoint(s.baseURL),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}

	return &Client{service: service}, nil
}

// SearchParams narrows a search.list call.
type SearchParams struct {
	Query          string
	PublishedAfter time.Time
	MaxResults     int
}

// Search lists the most viewed videos matching a query published after a
// given instant. Only one page is requested.
func (c *Client) Search(ctx context.Context, p SearchParams) (*ytv3.SearchListResponse, error) {
	if p.MaxResults < 1 || p.MaxResults > MaxBatchSize {
		return nil, fmt.Errorf("maxResults must be between 1 and %d, got %d", MaxBatchSize, p.MaxResults)
	}

	resp, err := c.service.Search.List(searchParts).
		Q(p.Query).
		Type("video").
		Order("viewCount").
		PublishedAfter(p.PublishedAfter.UTC().Format(time.RFC3339)).
		MaxResults(int64(p.MaxResults)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", EndpointSearch, err)
	}
	return resp, nil
}

// ListVideos retrieves statistics, content details and snippet for up to 50
// videos in a single batch.
func (c *Client) ListVideos(ctx context.Context, videoIDs []string) (*ytv3.VideoListResponse, error) {
	if err := checkBatch("video", videoIDs); err != nil {
		return nil, err
	}

	resp, err := c.service.Videos.List(videoParts).Id(videoIDs...).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", EndpointVideos, err)
	}
	return resp, nil
}

// ListChannels retrieves snippet and statistics for up to 50 channels.
func (c *Client) ListChannels(ctx context.Context, channelIDs []string) (*ytv3.ChannelListResponse, error) {
	if err := checkBatch("channel", channelIDs); err != nil {
		return nil, err
	}

	resp, err := c.service.Channels.List(channelParts).Id(channelIDs...).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", EndpointChannels, err)
	}
	return resp, nil
}

// hookTransport reports each round trip to the registered hooks, labelled
// with the last path segment of the request.
type hookTransport struct {
	base  http.RoundTripper
	hooks []CallHook
}

func (t *hookTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.base.RoundTrip(req)

	status := 0
	if err == nil {
		status = resp.StatusCode
	}
	endpoint := path.Base(req.URL.Path)
	for _, h := range t.hooks {
		h(req.Context(), endpoint, status, time.Since(start))
	}

	return resp, err
}

func checkBatch(kind string, ids []string) error {
	if len(ids) == 0 {
		return fmt.Errorf("no %s IDs provided", kind)
	}
	if len(ids) > MaxBatchSize {
		return fmt.Errorf("too many %s IDs (max %d, got %d)", kind, MaxBatchSize, len(ids))
	}
	return nil
}

// StatusCode extracts the HTTP status of a failed API call, 0 if the call
// never got a response.
func StatusCode(err error) int {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return 0
}

// WatchURL returns the public watch page of a video.
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}
