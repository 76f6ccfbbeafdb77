package service

import (
	"time"

	"github.com/ad-tracker/trendmeter/internal/models"
	"github.com/ad-tracker/trendmeter/internal/parser"
)

// Aggregate folds videos into one ChannelAggregate per non-empty channel id.
// Averages use every fetched row of a channel, whether or not the row later
// passes the filters.
func Aggregate(videos []models.VideoRecord, channels map[string]models.ChannelInfo, now time.Time) map[string]*models.ChannelAggregate {
	aggregates := make(map[string]*models.ChannelAggregate)
	now = now.UTC()

	for _, v := range videos {
		if v.ChannelID == "" {
			continue
		}

		agg, ok := aggregates[v.ChannelID]
		if !ok {
			agg = newAggregate(v.ChannelID, channels, now)
			aggregates[v.ChannelID] = agg
		}
		agg.Durations = append(agg.Durations, v.DurationSeconds)
		agg.SampleVideoCount++
	}

	return aggregates
}

func newAggregate(channelID string, channels map[string]models.ChannelInfo, now time.Time) *models.ChannelAggregate {
	agg := &models.ChannelAggregate{ChannelID: channelID}

	info, ok := channels[channelID]
	if !ok {
		return agg
	}

	subs := info.Subscribers
	agg.Subscribers = &subs

	if published := parser.ParseTimestamp(info.PublishedAt); published != nil {
		agg.PublishedAt = published
		age := AgeInMonths(*published, now)
		agg.AgeMonths = &age
	}

	return agg
}

// AgeInMonths is the calendar-month difference between two instants; the
// day of month is ignored.
func AgeInMonths(published, now time.Time) int {
	return (now.Year()-published.Year())*12 + int(now.Month()-published.Month())
}
