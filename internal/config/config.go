// Package config provides configuration management for the application.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ad-tracker/trendmeter/internal/models"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// DefaultKeywords are the topics prefilled in the dashboard form.
var DefaultKeywords = []string{
	"Affair Relationship Stories",
	"Reddit Update",
	"Reddit Relationship Advice",
	"Reddit Cheating",
	"AITA Update",
	"Open Relationship",
}

// Config holds all configuration for the application.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type Config struct {
	Server   ServerConfig
	YouTube  YouTubeConfig
	Search   SearchConfig
	Filters  FiltersConfig
	Database DatabaseConfig
	Redis    RedisConfig
	RabbitMQ RabbitMQConfig
	Quota    QuotaConfig
	History  HistoryConfig
	Auth     AuthConfig
	Export   ExportConfig
	Logging  LoggingConfig
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port            int
	ShutdownTimeout time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
}

// YouTubeConfig contains Data API access settings.
type YouTubeConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// SearchConfig holds the default search parameters of a run.
type SearchConfig struct {
	Keywords   []string
	Days       int
	MaxResults int
}

// FiltersConfig holds the default filter thresholds of a run.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type FiltersConfig struct {
	MinViews            int64
	MinSubs             int64
	MaxSubs             int64
	MinChannelAgeMonths int
	OnlyShorts          bool
	CountryCode         string
}

// DatabaseConfig contains database connection configuration. An empty URL
// keeps run history in memory.
type DatabaseConfig struct {
	URL            string
	MaxConnections int
	MinConnections int
	AutoMigrate    bool
}

// RedisConfig contains the quota counter store. An empty URL keeps counts in
// memory.
type RedisConfig struct {
	URL string
}

// RabbitMQConfig contains RabbitMQ connection and queue configuration.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type RabbitMQConfig struct {
	Enabled    bool
	Host       string
	User       string
	Password   string
	Exchange   string
	Queue      string
	RoutingKey string
	Port       int
}

// QuotaConfig contains YouTube quota accounting settings.
type QuotaConfig struct {
	DailyLimit int64
}

// HistoryConfig sizes the in-memory run history.
type HistoryConfig struct {
	Capacity int
}

// AuthConfig lists accepted API keys for /api/v1. Empty leaves the API open.
type AuthConfig struct {
	APIKeys []string
}

// ExportConfig contains CSV export settings.
type ExportConfig struct {
	Filename string
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level string
	File  string
}

// flagKeys maps CLI flag names to config keys.
var flagKeys = map[string]string{
	"port":                   "server.port",
	"api-key":                "youtube.apikey",
	"keywords":               "search.keywords",
	"days":                   "search.days",
	"max-results":            "search.maxresults",
	"min-views":              "filters.minviews",
	"min-subs":               "filters.minsubs",
	"max-subs":               "filters.maxsubs",
	"min-channel-age-months": "filters.minchannelagemonths",
	"only-shorts":            "filters.onlyshorts",
	"country":                "filters.countrycode",
	"database-url":           "database.url",
	"redis-url":              "redis.url",
	"log-level":              "logging.level",
	"log-file":               "logging.file",
}

// legacyEnv are accepted alongside the APP_ prefixed names.
var legacyEnv = map[string]string{
	"youtube.apikey": "YOUTUBE_API_KEY",
	"database.url":   "DATABASE_URL",
	"redis.url":      "REDIS_URL",
}

// Load loads configuration from file, environment variables and, when fs is
// not nil, the flags of fs that were set.
func Load(fs *pflag.FlagSet) (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Set defaults
	setDefaults()

	// Read environment variables
	viper.SetEnvPrefix("APP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	for key, env := range legacyEnv {
		if err := viper.BindEnv(key, "APP_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, fmt.Errorf("failed to bind env %s: %w", env, err)
		}
	}

	if fs != nil {
		if err := bindFlags(fs); err != nil {
			return nil, err
		}
	}

	// Try to read config file
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found, use defaults and env vars
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func bindFlags(fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		flag := fs.Lookup(name)
		if flag == nil {
			continue
		}
		if err := viper.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}
	return nil
}

func setDefaults() {
	// Server
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.shutdowntimeout", 30*time.Second)
	viper.SetDefault("server.readtimeout", 15*time.Second)
	// A run is synchronous; leave room for a full keyword list.
	viper.SetDefault("server.writetimeout", 120*time.Second)

	// YouTube
	viper.SetDefault("youtube.apikey", "")
	viper.SetDefault("youtube.baseurl", "https://youtube.googleapis.com/")
	viper.SetDefault("youtube.timeout", 20*time.Second)

	// Search
	viper.SetDefault("search.keywords", DefaultKeywords)
	viper.SetDefault("search.days", 7)
	viper.SetDefault("search.maxresults", 5)

	// Filters
	viper.SetDefault("filters.minviews", 0)
	viper.SetDefault("filters.minsubs", 0)
	viper.SetDefault("filters.maxsubs", 3000)
	viper.SetDefault("filters.minchannelagemonths", 0)
	viper.SetDefault("filters.onlyshorts", false)
	viper.SetDefault("filters.countrycode", "")

	// Database
	viper.SetDefault("database.url", "")
	viper.SetDefault("database.maxconnections", 10)
	viper.SetDefault("database.minconnections", 1)
	viper.SetDefault("database.automigrate", true)

	// Redis
	viper.SetDefault("redis.url", "")

	// RabbitMQ
	viper.SetDefault("rabbitmq.enabled", false)
	viper.SetDefault("rabbitmq.host", "localhost")
	viper.SetDefault("rabbitmq.port", 5672)
	viper.SetDefault("rabbitmq.user", "guest")
	viper.SetDefault("rabbitmq.password", "guest")
	viper.SetDefault("rabbitmq.exchange", "trendmeter.runs")
	viper.SetDefault("rabbitmq.queue", "trendmeter.runs.completed")
	viper.SetDefault("rabbitmq.routingkey", "run.completed")

	// Quota
	viper.SetDefault("quota.dailylimit", 10000)

	// History
	viper.SetDefault("history.capacity", 50)

	// Auth
	viper.SetDefault("auth.apikeys", []string{})

	// Export
	viper.SetDefault("export.filename", "channels_results.csv")

	// Logging
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.file", "")
}

// RunDefaults builds the run request prefilled from the search and filter
// sections.
func (c *Config) RunDefaults() models.RunRequest {
	keywords := make([]string, len(c.Search.Keywords))
	copy(keywords, c.Search.Keywords)

	return models.RunRequest{
		Keywords:   keywords,
		Days:       c.Search.Days,
		MaxResults: c.Search.MaxResults,
		Criteria: models.FilterCriteria{
			MinViews:            c.Filters.MinViews,
			MinSubs:             c.Filters.MinSubs,
			MaxSubs:             c.Filters.MaxSubs,
			MinChannelAgeMonths: c.Filters.MinChannelAgeMonths,
			OnlyShorts:          c.Filters.OnlyShorts,
		},
		CountryCode: c.Filters.CountryCode,
	}
}
