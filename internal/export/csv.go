// Package export renders filtered channels as CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/ad-tracker/trendmeter/internal/models"
)

// ContentType is the MIME type of WriteCSV output.
const ContentType = "text/csv"

// Header lists the exported columns in order.
var Header = []string{
	"channel_id",
	"subs",
	"avg_duration_seconds",
	"avg_duration_readable",
	"video_count_in_sample",
	"sample_video_1_title",
	"sample_video_1_url",
	"sample_video_1_views",
}

// WriteCSV writes the header and one row per channel, in the given order.
func WriteCSV(w io.Writer, channels []models.FilteredChannelResult) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for i := range channels {
		if err := cw.Write(Row(&channels[i])); err != nil {
			return fmt.Errorf("write csv row %s: %w", channels[i].ChannelID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// Row formats one channel. The average is truncated to whole seconds; a
// channel without samples exports an empty title and url and 0 views.
func Row(ch *models.FilteredChannelResult) []string {
	title, url, views := "", "", int64(0)
	if len(ch.SampleVideos) > 0 {
		first := ch.SampleVideos[0]
		title, url, views = first.Title, first.URL, first.Views
	}

	return []string{
		ch.ChannelID,
		strconv.FormatInt(ch.Subscribers, 10),
		strconv.Itoa(int(ch.AvgDurationSeconds)),
		ch.AvgDurationReadable,
		strconv.Itoa(ch.SampleVideoCount),
		title,
		url,
		strconv.FormatInt(views, 10),
	}
}
