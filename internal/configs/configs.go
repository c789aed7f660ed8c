/*
Package configs loads and validates the application's configuration settings.

All values come from environment variables: running environment, port, allowed
origins, Proof-of-Work difficulty, database DSN, optional S3 profile-picture
storage, and the user search result cap.
*/
package configs

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// DefaultSearchLimit caps user:search results when SEARCH_LIMIT is unset.
const DefaultSearchLimit = 20

// AppConfig contains all configuration parameters required for the application to run.
type AppConfig struct {
	// General Server Settings
	Environment   string
	Port          int
	PowDifficulty int
	SearchLimit   int

	// Security Settings
	AllowedOrigins []string

	// S3 Storage Settings, all empty when profile-picture uploads are disabled.
	S3BucketName      string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3PublicBaseURL   string

	// Database Settings. Empty in development selects the in-memory repository.
	DatabaseDSN string
}

// IsDevelopment reports whether the server runs with development defaults.
func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

// StorageEnabled reports whether S3 profile-picture uploads are configured.
func (c *AppConfig) StorageEnabled() bool {
	return c.S3BucketName != ""
}

// LoadConfig reads and parses the application configuration from environment variables.
func LoadConfig() (*AppConfig, error) {
	cfg := &AppConfig{}

	// --- General Server Settings ---
	cfg.Environment = os.Getenv("ENVIRONMENT")
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	port, err := intEnv("PORT", 8080)
	if err != nil {
		return nil, err
	}
	if port < 1024 || port > 65535 {
		return nil, fmt.Errorf("port number %d is outside the recommended range (%d-%d) to avoid privileged ports", port, 1024, 65535)
	}
	cfg.Port = port

	difficulty, err := intEnv("POW_DIFFICULTY", 0)
	if err != nil {
		return nil, err
	}
	if difficulty < 0 || difficulty > 8 {
		return nil, fmt.Errorf("POW_DIFFICULTY must be between 0 and 8, got %d", difficulty)
	}
	cfg.PowDifficulty = difficulty

	searchLimit, err := intEnv("SEARCH_LIMIT", DefaultSearchLimit)
	if err != nil {
		return nil, err
	}
	if searchLimit < 1 {
		return nil, fmt.Errorf("SEARCH_LIMIT must be positive, got %d", searchLimit)
	}
	cfg.SearchLimit = searchLimit

	// --- Security Settings ---
	cfg.AllowedOrigins = []string{}
	for _, origin := range strings.Split(os.Getenv("ALLOWED_ORIGINS"), ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
		}
	}

	// --- S3 Storage Settings ---
	cfg.S3BucketName = os.Getenv("S3_BUCKET_NAME")
	cfg.S3Endpoint = os.Getenv("S3_ENDPOINT")
	cfg.S3AccessKeyID = os.Getenv("S3_ACCESS_KEY_ID")
	cfg.S3SecretAccessKey = os.Getenv("S3_SECRET_ACCESS_KEY")
	cfg.S3PublicBaseURL = strings.TrimRight(os.Getenv("S3_PUBLIC_BASE_URL"), "/")

	s3Values := []string{cfg.S3BucketName, cfg.S3Endpoint, cfg.S3AccessKeyID, cfg.S3SecretAccessKey, cfg.S3PublicBaseURL}
	set := 0
	for _, v := range s3Values {
		if v != "" {
			set++
		}
	}
	if set != 0 && set != len(s3Values) {
		return nil, fmt.Errorf("S3_BUCKET_NAME, S3_ENDPOINT, S3_ACCESS_KEY_ID, S3_SECRET_ACCESS_KEY and S3_PUBLIC_BASE_URL must be set together")
	}

	// --- Database Settings ---
	cfg.DatabaseDSN = os.Getenv("DATABASE_URL")
	if cfg.DatabaseDSN == "" && !cfg.IsDevelopment() {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required in %s environment", cfg.Environment)
	}

	return cfg, nil
}

// intEnv parses the integer environment variable key, returning def when unset.
func intEnv(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}

	return v, nil
}
