package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	SearchAPI SearchAPIConfig
	Matching  MatchingConfig
	Fetch     FetchConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// SearchAPIConfig holds unified shopping-search API configuration
type SearchAPIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Engine  string `mapstructure:"engine"`
	Locale  string `mapstructure:"locale"`
}

// MatchingConfig holds relevance scoring configuration.
// The thresholds are empirically chosen; they are surfaced here rather
// than hard-coded so they can be tuned without a rebuild.
type MatchingConfig struct {
	RelevanceThreshold float64 `mapstructure:"relevance_threshold"`
	MaxQueryTokens     int     `mapstructure:"max_query_tokens"`
	MaxModelTokenLen   int     `mapstructure:"max_model_token_len"`
	EnableDebugLogging bool    `mapstructure:"enable_debug_logging"`
}

// FetchConfig holds outbound fetch configuration
type FetchConfig struct {
	Timeout   time.Duration `mapstructure:"timeout"`
	MaxPrice  float64       `mapstructure:"max_price"`
	UserAgent string        `mapstructure:"user_agent"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP            int `mapstructure:"per_ip"`
	SearchAPIPerHour int `mapstructure:"searchapi_per_hour"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/savemate/")

	v.SetEnvPrefix("SAVEMATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional - env vars and defaults cover everything
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"chrome-extension://*"})

	// Search API defaults. The key default is empty but must be
	// registered: viper only resolves env values for keys it knows.
	v.SetDefault("searchapi.api_key", "")
	v.SetDefault("searchapi.base_url", "https://www.searchapi.io")
	v.SetDefault("searchapi.engine", "google_shopping")
	v.SetDefault("searchapi.locale", "en-CA")

	// Matching defaults - empirically chosen, not known optimal
	v.SetDefault("matching.relevance_threshold", 0.55)
	v.SetDefault("matching.max_query_tokens", 6)
	v.SetDefault("matching.max_model_token_len", 12)
	v.SetDefault("matching.enable_debug_logging", false)

	// Fetch defaults
	v.SetDefault("fetch.timeout", "10s")
	v.SetDefault("fetch.max_price", 100000.0)
	v.SetDefault("fetch.user_agent", "Mozilla/5.0 (compatible; SaveMate/1.0)")

	// Cache defaults - comparison records are short-lived
	v.SetDefault("cache.ttl", "24h")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 100)
	v.SetDefault("ratelimit.searchapi_per_hour", 1000)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Matching.RelevanceThreshold < 0 || config.Matching.RelevanceThreshold > 1 {
		return fmt.Errorf("matching.relevance_threshold must be in [0,1], got: %v", config.Matching.RelevanceThreshold)
	}

	if config.Matching.MaxQueryTokens <= 0 {
		return fmt.Errorf("matching.max_query_tokens must be positive, got: %d", config.Matching.MaxQueryTokens)
	}

	if config.Fetch.Timeout <= 0 || config.Fetch.Timeout > 15*time.Second {
		return fmt.Errorf("fetch.timeout must be in (0s, 15s], got: %v", config.Fetch.Timeout)
	}

	if config.Fetch.MaxPrice <= 0 {
		return fmt.Errorf("fetch.max_price must be positive, got: %v", config.Fetch.MaxPrice)
	}

	return nil
}
