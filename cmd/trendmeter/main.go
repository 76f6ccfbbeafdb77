// Command trendmeter runs a single keyword search from the terminal and
// prints the channels that pass the filters.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ad-tracker/trendmeter/internal/config"
	"github.com/ad-tracker/trendmeter/internal/export"
	"github.com/ad-tracker/trendmeter/internal/models"
	"github.com/ad-tracker/trendmeter/internal/repository"
	"github.com/ad-tracker/trendmeter/internal/service"
	"github.com/ad-tracker/trendmeter/internal/service/quota"
	"github.com/ad-tracker/trendmeter/internal/service/youtube"
	"github.com/ad-tracker/trendmeter/internal/validation"
	"github.com/ad-tracker/trendmeter/pkg/logger"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("trendmeter", pflag.ContinueOnError)
	fs.String("api-key", "", "YouTube Data API v3 key (or YOUTUBE_API_KEY)")
	fs.StringSlice("keywords", nil, "comma separated search keywords")
	fs.Int("days", 7, "only videos published in the last N days (1-90)")
	fs.Int("max-results", 5, "results per keyword (1-50)")
	fs.Int64("min-views", 0, "minimum views per video")
	fs.Int64("min-subs", 0, "minimum channel subscribers (0 disables)")
	fs.Int64("max-subs", 3000, "maximum channel subscribers (0 disables)")
	fs.Int("min-channel-age-months", 0, "minimum channel age in months (0 disables)")
	fs.Bool("only-shorts", false, "only channels averaging under 60s")
	fs.String("country", "", "two letter region code")
	fs.String("redis-url", "", "Redis URL for quota counters")
	fs.String("log-level", "warn", "log level: debug, info, warn, error")
	fs.String("log-file", "", "also write JSON logs to this file")
	fs.StringP("output", "o", "", "write the channel table as CSV to this file")
	return fs
}

func main() {
	fs := newFlagSet()
	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}

	cfg, err := config.Load(fs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.File); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	output, _ := fs.GetString("output")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := run(ctx, cfg, os.Stdout, os.Stderr, output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if result.Status == models.RunStatusFailed {
		fmt.Fprintln(os.Stderr, result.Error)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, stdout, stderr io.Writer, output string) (*models.RunResult, error) {
	var counter quota.Counter
	if cfg.Redis.URL != "" {
		client, err := quota.NewRedisClient(cfg.Redis.URL)
		if err != nil {
			return nil, err
		}
		defer func() { _ = client.Close() }()
		counter = quota.NewRedisCounter(client)
	}
	quotaManager := quota.NewManager(counter, cfg.Quota.DailyLimit)

	yt, err := youtube.NewClient(cfg.YouTube.APIKey,
		youtube.WithBaseURL(cfg.YouTube.BaseURL),
		youtube.WithTimeout(cfg.YouTube.Timeout),
		youtube.WithCallHook(quotaManager.CallHook()),
	)
	if err != nil {
		return nil, fmt.Errorf("%w (pass --api-key or set YOUTUBE_API_KEY)", err)
	}

	runService := service.NewRunService(yt, repository.NewMemoryRunRepository(1), nil,
		validation.New(validation.MaxKeywords), service.LogObserver{})

	result, err := runService.Execute(ctx, cfg.RunDefaults(), &progressPrinter{w: stderr})
	if err != nil {
		return nil, err
	}

	for _, n := range result.Notices {
		if n.Level != models.NoticeInfo {
			fmt.Fprintf(stderr, "[%s] %s\n", n.Level, n.Message)
		}
	}

	if err := printChannels(stdout, result.Channels); err != nil {
		return nil, fmt.Errorf("failed to print results: %w", err)
	}

	if output != "" {
		if err := writeCSVFile(output, result.Channels); err != nil {
			return nil, err
		}
		fmt.Fprintf(stderr, "CSV written to %s\n", output)
	}

	if usage, err := quotaManager.Usage(ctx); err == nil {
		logger.Log.Info("Quota usage",
			zap.Int64("used", usage.QuotaUsed),
			zap.Int64("remaining", usage.QuotaRemaining),
		)
	}

	return result, nil
}

func writeCSVFile(path string, channels []models.FilteredChannelResult) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if err := export.WriteCSV(f, channels); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
