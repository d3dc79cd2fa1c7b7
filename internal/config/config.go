package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DBPath     string
	RawPostDir string
	OutputDir  string

	RolimonsAPIURL       string
	RolimonsRateLimitRPS int
	RolimonsTimeoutMs    int
	RolimonsRefreshMins  int

	MinValueThreshold int64

	GeminiAPIKey string
	GeminiModel  string

	DiscordWebhookURL string

	RedditClientID     string
	RedditClientSecret string
	UserAgent          string

	Subreddits          []string
	MonitorIntervalSec  int
	MonitorFetchMax     int
	MonitorProcessBatch int
	MonitorAutoExport   bool
	MonitorTestMode     bool
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DBPath:     getEnv("DB_PATH", filepath.Join(cwd, "data", "app.db")),
		RawPostDir: getEnv("RAW_POST_DIR", filepath.Join(cwd, "data", "raw")),
		OutputDir:  getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),

		RolimonsAPIURL:       getEnv("ROLIMONS_API_URL", "https://www.rolimons.com/itemapi/itemdetails"),
		RolimonsRateLimitRPS: getEnvInt("ROLIMONS_RATE_LIMIT_RPS", 2),
		RolimonsTimeoutMs:    getEnvInt("ROLIMONS_TIMEOUT_MS", 15000),
		RolimonsRefreshMins:  getEnvInt("ROLIMONS_REFRESH_MINS", 30),

		MinValueThreshold: getEnvInt64("MIN_VALUE_THRESHOLD", 100000),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.0-flash"),

		DiscordWebhookURL: getEnv("DISCORD_WEBHOOK_URL", ""),

		RedditClientID:     getEnv("REDDIT_CLIENT_ID", ""),
		RedditClientSecret: getEnv("REDDIT_CLIENT_SECRET", ""),
		UserAgent:          getEnv("REDDIT_USER_AGENT", "reddih/1.0"),

		Subreddits:          getEnvList("SUBREDDITS", []string{"RobloxTrading", "crosstradingroblox", "RobloxLimiteds"}),
		MonitorIntervalSec:  getEnvInt("MONITOR_INTERVAL_SEC", 45),
		MonitorFetchMax:     getEnvInt("MONITOR_FETCH_MAX", 15),
		MonitorProcessBatch: getEnvInt("MONITOR_PROCESS_BATCH", 20),
		MonitorAutoExport:   getEnvBool("MONITOR_AUTO_EXPORT", false),
		MonitorTestMode:     getEnvBool("MONITOR_TEST_MODE", false),
	}

	return cfg, nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt64(key string, fallback int64) int64 {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if value == "" {
		return fallback
	}
	if value == "1" || value == "true" || value == "yes" || value == "on" {
		return true
	}
	if value == "0" || value == "false" || value == "no" || value == "off" {
		return false
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	value := getEnv(key, "")
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
