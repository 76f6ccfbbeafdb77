package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/ad-tracker/trendmeter/internal/models"
	"github.com/ad-tracker/trendmeter/internal/service"
)

// progressPrinter writes run progress for a human watching the terminal.
type progressPrinter struct {
	service.NopObserver
	w io.Writer
}

var _ service.Observer = (*progressPrinter)(nil)

func (p *progressPrinter) OnKeywordStart(idx, total int, keyword string) {
	fmt.Fprintf(p.w, "(%d/%d) Searching: %s\n", idx, total, keyword)
}

func (p *progressPrinter) OnKeywordFailed(keyword string, stage service.Stage, status int, err error) {
	if status > 0 {
		fmt.Fprintf(p.w, "  ! %s request failed for %q (status %d), skipping\n", stage, keyword, status)
		return
	}
	fmt.Fprintf(p.w, "  ! %s request failed for %q (%v), skipping\n", stage, keyword, err)
}

func (p *progressPrinter) OnKeywordEmpty(keyword string) {
	fmt.Fprintf(p.w, "  no videos for %q\n", keyword)
}

func (p *progressPrinter) OnChannelLookupFailed(keyword string, status int, err error) {
	if status > 0 {
		fmt.Fprintf(p.w, "  ! channel lookup failed for %q (status %d), continuing\n", keyword, status)
		return
	}
	fmt.Fprintf(p.w, "  ! channel lookup failed for %q (%v), continuing\n", keyword, err)
}

func (p *progressPrinter) OnRunDone(res *models.RunResult, elapsed time.Duration) {
	fmt.Fprintf(p.w, "Fetched %d videos in %s\n", len(res.Videos), elapsed.Round(time.Millisecond))
}

// printChannels writes the filtered channels as an aligned table.
func printChannels(w io.Writer, channels []models.FilteredChannelResult) error {
	fmt.Fprintf(w, "Channels found: %d (matching filters)\n", len(channels))
	if len(channels) == 0 {
		fmt.Fprintln(w, "No channels passed the filters. Try widening filters or increase results per keyword.")
		return nil
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CHANNEL\tSUBS\tAVG DURATION\tVIDEOS\tTOP VIDEO\tVIEWS")
	for i := range channels {
		ch := &channels[i]
		title, views := "-", "-"
		if len(ch.SampleVideos) > 0 {
			title = ch.SampleVideos[0].Title
			views = strconv.FormatInt(ch.SampleVideos[0].Views, 10)
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%d\t%s\t%s\n",
			ch.ChannelID, ch.Subscribers, ch.AvgDurationReadable, ch.SampleVideoCount, title, views)
	}
	return tw.Flush()
}
