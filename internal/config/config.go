package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	YouTube    YouTubeConfig
	Gemini     GeminiConfig
	Postgres   PostgresConfig
	Redis      RedisConfig
	Analysis   AnalysisConfig
	Thresholds ThresholdsConfig
	Logging    LoggingConfig
	Watcher    WatcherConfig
}

type YouTubeConfig struct {
	APIKey              string
	MaxVideos           int
	MaxCommentsPerVideo int
	CollectComments     bool
}

type GeminiConfig struct {
	APIKey          string
	Model           string
	EnableSentiment bool
}

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	Enabled  bool
}

type AnalysisConfig struct {
	ComparisonLevel   string
	TrackKeywords     []string
	SeasonalityMethod string // "decomposition" or "day_of_week"
	TrendWindowDays   int
}

type ThresholdsConfig struct {
	File string
}

type LoggingConfig struct {
	Level  string
	Format string // "console" or "json"
	File   string
}

type WatcherConfig struct {
	Channels      []string
	CheckInterval time.Duration
	Daemon        bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		YouTube: YouTubeConfig{
			APIKey:              getEnv("YOUTUBE_API_KEY", ""),
			MaxVideos:           getEnvInt("YOUTUBE_MAX_VIDEOS", 10),
			MaxCommentsPerVideo: getEnvInt("YOUTUBE_MAX_COMMENTS_PER_VIDEO", 100),
			CollectComments:     getEnvBool("YOUTUBE_COLLECT_COMMENTS", true),
		},
		Gemini: GeminiConfig{
			APIKey:          getEnv("GEMINI_API_KEY", ""),
			Model:           getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
			EnableSentiment: getEnvBool("GEMINI_ENABLE_SENTIMENT", false),
		},
		Postgres: PostgresConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnvInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", "channelwatch"),
			Password: getEnv("POSTGRES_PASSWORD", ""),
			Database: getEnv("POSTGRES_DB", "channelwatch"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			Enabled:  getEnvBool("REDIS_ENABLED", true),
		},
		Analysis: AnalysisConfig{
			ComparisonLevel:   getEnv("ANALYSIS_COMPARISON_LEVEL", "standard"),
			TrackKeywords:     parseCommaSeparated(getEnv("ANALYSIS_TRACK_KEYWORDS", "")),
			SeasonalityMethod: getEnv("ANALYSIS_SEASONALITY_METHOD", "decomposition"),
			TrendWindowDays:   getEnvInt("ANALYSIS_TREND_WINDOW_DAYS", 30),
		},
		Thresholds: ThresholdsConfig{
			File: getEnv("THRESHOLDS_FILE", ""),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "console"),
			File:   getEnv("LOG_FILE", ""),
		},
		Watcher: WatcherConfig{
			Channels:      parseCommaSeparated(getEnv("WATCH_CHANNELS", "")),
			CheckInterval: getEnvDuration("WATCH_CHECK_INTERVAL", 12*time.Hour),
			Daemon:        getEnvBool("WATCH_DAEMON", false),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.YouTube.APIKey == "" {
		return fmt.Errorf("YOUTUBE_API_KEY is required")
	}
	if len(c.Watcher.Channels) == 0 {
		return fmt.Errorf("WATCH_CHANNELS is required")
	}
	if c.Gemini.EnableSentiment && c.Gemini.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required when sentiment labeling is enabled")
	}
	switch c.Analysis.SeasonalityMethod {
	case "decomposition", "day_of_week":
	default:
		return fmt.Errorf("ANALYSIS_SEASONALITY_METHOD must be decomposition or day_of_week")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func parseCommaSeparated(value string) []string {
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
