package service

import (
	"sort"

	"github.com/ad-tracker/trendmeter/internal/models"
	"github.com/ad-tracker/trendmeter/internal/parser"
)

// Filter applies criteria row by row. A channel qualifies when any of its
// rows passes; every passing row becomes one of its sample videos. The
// result is sorted ascending by subscribers, ties keep first-pass order.
func Filter(criteria models.FilterCriteria, videos []models.VideoRecord, aggregates map[string]*models.ChannelAggregate) []models.FilteredChannelResult {
	results := make([]models.FilteredChannelResult, 0)
	index := make(map[string]int)

	for _, row := range videos {
		if row.ChannelID == "" {
			continue
		}
		agg, ok := aggregates[row.ChannelID]
		if !ok {
			continue
		}

		subs := effectiveSubs(agg, row)
		if !rowPasses(criteria, row, agg, subs) {
			continue
		}

		i, ok := index[row.ChannelID]
		if !ok {
			avg := agg.AvgDurationSeconds()
			results = append(results, models.FilteredChannelResult{
				ChannelID:           row.ChannelID,
				Subscribers:         subs,
				AvgDurationSeconds:  avg,
				AvgDurationReadable: parser.FormatSeconds(int(avg)),
				SampleVideoCount:    agg.SampleVideoCount,
			})
			i = len(results) - 1
			index[row.ChannelID] = i
		}

		results[i].SampleVideos = append(results[i].SampleVideos, models.SampleVideo{
			Title:           row.Title,
			URL:             row.URL,
			Views:           row.Views,
			Duration:        parser.FormatSeconds(row.DurationSeconds),
			DurationSeconds: row.DurationSeconds,
			PublishedAt:     row.PublishedAt,
		})
	}

	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Subscribers < results[b].Subscribers
	})

	return results
}

func rowPasses(c models.FilterCriteria, row models.VideoRecord, agg *models.ChannelAggregate, subs int64) bool {
	if row.Views < c.MinViews {
		return false
	}
	if c.MinSubs > 0 && subs < c.MinSubs {
		return false
	}
	if c.MaxSubs > 0 && subs > c.MaxSubs {
		return false
	}
	if c.MinChannelAgeMonths > 0 && (agg.AgeMonths == nil || *agg.AgeMonths < c.MinChannelAgeMonths) {
		return false
	}
	if c.OnlyShorts && agg.AvgDurationSeconds() >= models.ShortsMaxAvgSeconds {
		return false
	}
	return true
}

// effectiveSubs prefers the aggregate, then the row snapshot, then 0. A zero
// count falls through like an unknown one.
func effectiveSubs(agg *models.ChannelAggregate, row models.VideoRecord) int64 {
	if agg.Subscribers != nil && *agg.Subscribers != 0 {
		return *agg.Subscribers
	}
	if row.ChannelSubs != nil && *row.ChannelSubs != 0 {
		return *row.ChannelSubs
	}
	return 0
}
