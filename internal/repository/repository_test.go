package repository

import (
	"context"
	"testing"
	"time"

	"github.com/ad-tracker/trendmeter/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRun(startedAt time.Time, keywords ...string) *models.RunResult {
	return &models.RunResult{
		ID:         uuid.New(),
		Status:     models.RunStatusCompleted,
		StartedAt:  startedAt,
		FinishedAt: startedAt.Add(time.Second),
		Request:    models.RunRequest{Keywords: keywords, Days: 7, MaxResults: 5},
		Videos:     []models.VideoRecord{{VideoID: "v1"}},
	}
}

func TestMemoryRunRepository_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRunRepository(0)

	run := newRun(time.Now(), "go")
	require.NoError(t, repo.Save(ctx, run))

	got, err := repo.Get(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run, got)

	_, err = repo.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrRunNotFound)
	assert.NoError(t, repo.Ping(ctx))
}

func TestMemoryRunRepository_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRunRepository(10)
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		run := newRun(base.Add(time.Duration(i)*time.Minute), "kw")
		ids = append(ids, run.ID)
		require.NoError(t, repo.Save(ctx, run))
	}

	list, err := repo.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, ids[2], list[0].ID)
	assert.Equal(t, ids[1], list[1].ID)
	assert.Equal(t, 1, list[0].VideoCount)

	all, err := repo.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestMemoryRunRepository_EvictsOldest(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRunRepository(2)

	first := newRun(time.Now(), "a")
	second := newRun(time.Now(), "b")
	third := newRun(time.Now(), "c")
	for _, r := range []*models.RunResult{first, second, third} {
		require.NoError(t, repo.Save(ctx, r))
	}

	_, err := repo.Get(ctx, first.ID)
	assert.ErrorIs(t, err, ErrRunNotFound)

	list, err := repo.List(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestMemoryRunRepository_SaveReplaces(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRunRepository(2)

	run := newRun(time.Now(), "a")
	require.NoError(t, repo.Save(ctx, run))
	updated := *run
	updated.Status = models.RunStatusFailed
	require.NoError(t, repo.Save(ctx, &updated))

	list, err := repo.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.RunStatusFailed, list[0].Status)
}
