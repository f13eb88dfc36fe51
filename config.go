package zhishi

import (
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// Config configures the zhishi client.
type Config struct {
	// APIBaseURL is the chat-completions endpoint of the model service.
	APIBaseURL string

	// APIKey authenticates with the model service. If empty, remote
	// generation fails and the feed serves the built-in fallback cards.
	APIKey string

	// Model is the model identifier sent with every completion request.
	Model string

	// Temperature is the fixed sampling temperature.
	Temperature float64

	// MaxTokens caps the completion output length.
	MaxTokens int

	// LocalPath is the path to the local SQLite cache database.
	LocalPath string

	// CacheTTL is how long the cached card feed stays valid.
	// Defaults to 7 days; eviction happens on the read side.
	CacheTTL time.Duration

	// HTTPTimeout bounds each completion request at the transport layer.
	HTTPTimeout time.Duration

	// Logger receives structured logs and timing measurements.
	// Defaults to a no-op logger.
	Logger *zap.Logger
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		APIBaseURL:  "https://open.bigmodel.cn/api/paas/v4/chat/completions",
		Model:       "glm-4-flash",
		Temperature: 0.7,
		MaxTokens:   1000,
		LocalPath:   filepath.Join("data", "zhishi.db"),
		CacheTTL:    7 * 24 * time.Hour,
		HTTPTimeout: 30 * time.Second,
	}
}

// ConfigFromEnv reads configuration from environment variables.
//
//	ZHISHI_API_URL   → APIBaseURL
//	ZHISHI_API_KEY   → APIKey
//	ZHISHI_MODEL     → Model
//	ZHISHI_DB_PATH   → LocalPath
func ConfigFromEnv() Config {
	return Config{
		APIBaseURL: os.Getenv("ZHISHI_API_URL"),
		APIKey:     os.Getenv("ZHISHI_API_KEY"),
		Model:      os.Getenv("ZHISHI_MODEL"),
		LocalPath:  os.Getenv("ZHISHI_DB_PATH"),
	}
}

// Validate checks the configuration for errors.
// Returns *ValidationError for invalid fields.
func (c *Config) Validate() error {
	if c.LocalPath == "" {
		return &ValidationError{Field: "LocalPath", Message: "required: path to SQLite database"}
	}
	if c.APIBaseURL == "" {
		return &ValidationError{Field: "APIBaseURL", Message: "required: completion endpoint URL"}
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return &ValidationError{Field: "Temperature", Message: "must be within [0, 2]"}
	}
	if c.MaxTokens <= 0 {
		return &ValidationError{Field: "MaxTokens", Message: "must be positive"}
	}
	if c.CacheTTL < 0 {
		return &ValidationError{Field: "CacheTTL", Message: "must be non-negative"}
	}
	return nil
}

// WithDefaults fills in default values for unset fields.
func (c Config) WithDefaults() Config {
	defaults := DefaultConfig()

	if c.APIBaseURL == "" {
		c.APIBaseURL = defaults.APIBaseURL
	}
	if c.Model == "" {
		c.Model = defaults.Model
	}
	if c.Temperature == 0 {
		c.Temperature = defaults.Temperature
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = defaults.MaxTokens
	}
	if c.LocalPath == "" {
		c.LocalPath = defaults.LocalPath
	}
	if c.CacheTTL == 0 {
		c.CacheTTL = defaults.CacheTTL
	}
	if c.HTTPTimeout == 0 {
		c.HTTPTimeout = defaults.HTTPTimeout
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	return c
}
