package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/ad-tracker/trendmeter/internal/service/youtube"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	ytv3 "google.golang.org/api/youtube/v3"
)

type mockSource struct {
	mock.Mock
}

func (m *mockSource) Search(ctx context.Context, p youtube.SearchParams) (*ytv3.SearchListResponse, error) {
	args := m.Called(ctx, p)
	resp, _ := args.Get(0).(*ytv3.SearchListResponse)
	return resp, args.Error(1)
}

func (m *mockSource) ListVideos(ctx context.Context, ids []string) (*ytv3.VideoListResponse, error) {
	args := m.Called(ctx, ids)
	resp, _ := args.Get(0).(*ytv3.VideoListResponse)
	return resp, args.Error(1)
}

func (m *mockSource) ListChannels(ctx context.Context, ids []string) (*ytv3.ChannelListResponse, error) {
	args := m.Called(ctx, ids)
	resp, _ := args.Get(0).(*ytv3.ChannelListResponse)
	return resp, args.Error(1)
}

func query(q string) interface{} {
	return mock.MatchedBy(func(p youtube.SearchParams) bool { return p.Query == q })
}

func decode[T any](t *testing.T, js string) *T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(js), &v))
	return &v
}

// searchResp builds a search.list body; each pair is videoID:channelID.
func searchResp(t *testing.T, pairs ...string) *ytv3.SearchListResponse {
	items := make([]string, 0, len(pairs))
	for _, p := range pairs {
		vid, ch, _ := strings.Cut(p, ":")
		items = append(items, fmt.Sprintf(`{"id":{"videoId":%q},"snippet":{"channelId":%q}}`, vid, ch))
	}
	return decode[ytv3.SearchListResponse](t, `{"items":[`+strings.Join(items, ",")+`]}`)
}

func videoJSON(id, channelID string, views int, duration string) string {
	return fmt.Sprintf(`{"id":%q,
		"snippet":{"title":"Video %s","description":"about %s","publishedAt":"2024-05-01T10:00:00Z","channelId":%q},
		"statistics":{"viewCount":"%d","likeCount":"3","commentCount":"1"},
		"contentDetails":{"duration":%q}}`, id, id, id, channelID, views, duration)
}

func videosResp(t *testing.T, items ...string) *ytv3.VideoListResponse {
	return decode[ytv3.VideoListResponse](t, `{"items":[`+strings.Join(items, ",")+`]}`)
}

func channelJSON(id string, subs int, publishedAt string) string {
	return fmt.Sprintf(`{"id":%q,"snippet":{"publishedAt":%q},"statistics":{"subscriberCount":"%d"}}`, id, publishedAt, subs)
}

func channelsResp(t *testing.T, items ...string) *ytv3.ChannelListResponse {
	return decode[ytv3.ChannelListResponse](t, `{"items":[`+strings.Join(items, ",")+`]}`)
}
