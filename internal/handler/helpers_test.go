package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ad-tracker/trendmeter/internal/models"
	"github.com/ad-tracker/trendmeter/internal/repository"
	"github.com/ad-tracker/trendmeter/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testDefaults = models.RunRequest{
	Keywords:   []string{"reddit stories", "motivation"},
	Days:       7,
	MaxResults: 25,
	Criteria: models.FilterCriteria{
		MinViews: 1000,
		MinSubs:  100,
	},
	CountryCode: "US",
}

// fakeRuns is an in-memory RunExecutor. Execute stores a copy of result
// under a fresh id, or returns execErr.
type fakeRuns struct {
	mu        sync.Mutex
	executed  []models.RunRequest
	result    models.RunResult
	execErr   error
	runs      map[uuid.UUID]*models.RunResult
	listErr   error
	lastLimit int
}

func newFakeRuns() *fakeRuns {
	return &fakeRuns{runs: make(map[uuid.UUID]*models.RunResult)}
}

func (f *fakeRuns) Execute(_ context.Context, req models.RunRequest, _ ...service.Observer) (*models.RunResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.executed = append(f.executed, req)
	if f.execErr != nil {
		return nil, f.execErr
	}

	res := f.result
	res.ID = uuid.New()
	res.Request = req
	if res.Status == "" {
		res.Status = models.RunStatusCompleted
	}
	f.runs[res.ID] = &res
	return &res, nil
}

func (f *fakeRuns) Get(_ context.Context, id uuid.UUID) (*models.RunResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	run, ok := f.runs[id]
	if !ok {
		return nil, repository.ErrRunNotFound
	}
	return run, nil
}

func (f *fakeRuns) List(_ context.Context, limit int) ([]models.RunSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.lastLimit = limit
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]models.RunSummary, 0, len(f.runs))
	for _, r := range f.runs {
		out = append(out, r.Summary())
	}
	return out, nil
}

func (f *fakeRuns) store(run *models.RunResult) *models.RunResult {
	f.mu.Lock()
	defer f.mu.Unlock()

	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	f.runs[run.ID] = run
	return run
}

func (f *fakeRuns) lastRequest() models.RunRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.executed[len(f.executed)-1]
}

type fakeQuota struct {
	info *models.QuotaInfo
	err  error
}

func (q fakeQuota) Usage(context.Context) (*models.QuotaInfo, error) {
	return q.info, q.err
}

func newTestRouter(runs *fakeRuns, mutate ...func(*RouterConfig)) *gin.Engine {
	cfg := RouterConfig{
		Runs:           runs,
		Quota:          fakeQuota{info: &models.QuotaInfo{QuotaUsed: 203, QuotaLimit: 10000, QuotaRemaining: 9797}},
		Defaults:       testDefaults,
		ExportFilename: "channels_results.csv",
	}
	for _, m := range mutate {
		m(&cfg)
	}
	return NewRouter(cfg)
}

func doRequest(t *testing.T, r http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

var jsonHeaders = map[string]string{"Content-Type": "application/json"}

var formHeaders = map[string]string{"Content-Type": "application/x-www-form-urlencoded"}

func sampleChannels() []models.FilteredChannelResult {
	published := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	samples := make([]models.SampleVideo, 0, 7)
	for i := 0; i < 7; i++ {
		samples = append(samples, models.SampleVideo{
			Title:           "Story " + string(rune('A'+i)),
			URL:             "https://www.youtube.com/watch?v=v" + string(rune('a'+i)),
			Views:           1500,
			Duration:        "45s",
			DurationSeconds: 45,
			PublishedAt:     &published,
		})
	}

	return []models.FilteredChannelResult{
		{
			ChannelID:           "UCsmall",
			Subscribers:         1200,
			AvgDurationSeconds:  45,
			AvgDurationReadable: "45s",
			SampleVideoCount:    7,
			SampleVideos:        samples,
		},
		{
			ChannelID:           "UCbig",
			Subscribers:         250000,
			AvgDurationSeconds:  600,
			AvgDurationReadable: "10m 0s",
			SampleVideoCount:    1,
			SampleVideos: []models.SampleVideo{
				{Title: "Long one", URL: "https://www.youtube.com/watch?v=long", Views: 2000000, Duration: "10m 0s"},
			},
		},
	}
}
