package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

var ErrMissingCredential = errors.New("genius API token is required")

type ConfigStruct struct {
	Genius  GeniusConfig
	History HistoryConfig
	Options Options
	Sentry  SentryConfig
}

type GeniusConfig struct {
	APIToken       string
	APIURL         string
	SiteURL        string
	LrclibFallback bool
}

type HistoryConfig struct {
	DBPath string
	Limit  int
}

type SentryConfig struct {
	DSN     string
	Release string
}

type Options struct {
	Port             string
	DefaultSongTitle string
	HTTPTimeout      time.Duration
	LogLevel         log.Level
}

func (h *HistoryConfig) IsEnabled() bool {
	return h.DBPath != ""
}

// HasToken reports whether the credential came from the environment, in which
// case the UI never asks for it.
func (g *GeniusConfig) HasToken() bool {
	return g.APIToken != ""
}

// Credential resolves the token for one interaction. The environment wins over
// whatever the user typed into the prompt.
func (g *GeniusConfig) Credential(prompted string) (string, error) {
	if g.APIToken != "" {
		return g.APIToken, nil
	}
	prompted = strings.TrimSpace(prompted)
	if prompted == "" {
		return "", ErrMissingCredential
	}
	return prompted, nil
}

var Config *ConfigStruct

func NewConfig() {
	Config = Load()
}

// Load reads the environment without touching the package-level Config.
func Load() *ConfigStruct {
	return &ConfigStruct{
		Genius: GeniusConfig{
			APIToken:       strings.TrimSpace(os.Getenv("GENIUS_API_TOKEN")),
			APIURL:         getOrDefault("GENIUS_API_URL", "https://api.genius.com"),
			SiteURL:        getOrDefault("GENIUS_SITE_URL", "https://genius.com"),
			LrclibFallback: os.Getenv("LRCLIB_FALLBACK") == "true",
		},
		History: HistoryConfig{
			DBPath: os.Getenv("HISTORY_DB_PATH"),
			Limit:  getHistoryLimit(),
		},
		Options: Options{
			Port:             getOrDefault("PORT", "8080"),
			DefaultSongTitle: getOrDefault("DEFAULT_SONG_TITLE", "Shake It Off"),
			HTTPTimeout:      getHTTPTimeout(),
			LogLevel:         getLogLevel(),
		},
		Sentry: SentryConfig{
			DSN:     os.Getenv("SENTRY_DSN"),
			Release: os.Getenv("RELEASE"),
		},
	}
}

func getOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return strings.TrimSuffix(v, "/")
	}
	return fallback
}

func getHTTPTimeout() time.Duration {
	secondsStr := os.Getenv("HTTP_TIMEOUT_SECONDS")
	if secondsStr == "" {
		return 10 * time.Second
	}
	seconds, err := strconv.Atoi(secondsStr)
	if err != nil || seconds <= 0 {
		return 10 * time.Second
	}
	if seconds > 60 {
		return 60 * time.Second
	}
	return time.Duration(seconds) * time.Second
}

func getHistoryLimit() int {
	limitStr := os.Getenv("HISTORY_LIMIT")
	if limitStr == "" {
		return 10
	}
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 {
		return 10
	}
	if limit > 50 {
		return 50
	}
	return limit
}

func getLogLevel() log.Level {
	level, err := log.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		return log.InfoLevel
	}
	return level
}
