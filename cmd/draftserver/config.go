package main

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the draftserver configuration, loaded from the environment.
// A .env file in the working directory is honored.
type Config struct {
	// App registration
	ClientID     string
	ClientSecret string
	TenantID     string

	// Redirect flow
	RedirectURI        string
	FrontendSuccessURL string

	// HTTP
	Port        int
	CORSOrigins []string

	// Sync
	CSVPath    string
	CachePath  string
	RateLimit  float64
	MaxRetries int
	RetryDelay time.Duration

	LogLevel string
}

// Load reads configuration from environment variables with defaults matching
// a local development setup (API on :5000, frontend on :3000).
func Load() Config {
	return Config{
		ClientID:           getEnvString("MICROSOFT_CLIENT_ID", ""),
		ClientSecret:       getEnvString("MICROSOFT_CLIENT_SECRET", ""),
		TenantID:           getEnvString("MICROSOFT_TENANT_ID", "common"),
		RedirectURI:        getEnvString("OUTLOOK_REDIRECT_URI", "http://localhost:5000/auth/outlook/callback"),
		FrontendSuccessURL: getEnvString("OUTLOOK_FRONTEND_SUCCESS_URL", "http://localhost:3000"),
		Port:               getEnvInt("OUTLOOK_API_PORT", 5000),
		CORSOrigins:        getEnvList("CORS_ORIGINS", []string{"http://localhost:3000"}),
		CSVPath:            getEnvString("DRAFTSYNCCSV", "data/final/drafts.csv"),
		CachePath:          getEnvString("DRAFTSYNCCACHE", ""),
		RateLimit:          getEnvFloat("DRAFTSYNCRATELIMIT", 0),
		MaxRetries:         getEnvInt("DRAFTSYNCMAXRETRIES", 3),
		RetryDelay:         time.Duration(getEnvInt("DRAFTSYNCRETRYDELAY", 2000)) * time.Millisecond,
		LogLevel:           getEnvString("DRAFTSYNCLOGLEVEL", "INFO"),
	}
}

// oauthConfigured reports whether the app registration is usable.
func (c Config) oauthConfigured() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

func getEnvString(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.Atoi(strings.TrimSpace(value))
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	if value, ok := os.LookupEnv(key); ok {
		var result []string
		for _, item := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(item); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
