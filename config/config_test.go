package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	config, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if config.Server.Port != "8080" {
		t.Errorf("Server.Port = %q, want %q", config.Server.Port, "8080")
	}
	if config.Server.Environment != "development" {
		t.Errorf("Server.Environment = %q, want %q", config.Server.Environment, "development")
	}
	if len(config.Server.AllowedOrigins) == 0 {
		t.Error("Server.AllowedOrigins is empty, want chrome-extension wildcard")
	}
	if config.SearchAPI.BaseURL != "https://www.searchapi.io" {
		t.Errorf("SearchAPI.BaseURL = %q, want default", config.SearchAPI.BaseURL)
	}
	if config.SearchAPI.Engine != "google_shopping" {
		t.Errorf("SearchAPI.Engine = %q, want %q", config.SearchAPI.Engine, "google_shopping")
	}
	if config.Matching.RelevanceThreshold != 0.55 {
		t.Errorf("Matching.RelevanceThreshold = %v, want 0.55", config.Matching.RelevanceThreshold)
	}
	if config.Matching.MaxQueryTokens != 6 {
		t.Errorf("Matching.MaxQueryTokens = %d, want 6", config.Matching.MaxQueryTokens)
	}
	if config.Matching.MaxModelTokenLen != 12 {
		t.Errorf("Matching.MaxModelTokenLen = %d, want 12", config.Matching.MaxModelTokenLen)
	}
	if config.Fetch.Timeout != 10*time.Second {
		t.Errorf("Fetch.Timeout = %v, want 10s", config.Fetch.Timeout)
	}
	if config.Fetch.MaxPrice != 100000.0 {
		t.Errorf("Fetch.MaxPrice = %v, want 100000", config.Fetch.MaxPrice)
	}
	if config.Cache.TTL != 24*time.Hour {
		t.Errorf("Cache.TTL = %v, want 24h", config.Cache.TTL)
	}
	if config.RateLimit.PerIP != 100 {
		t.Errorf("RateLimit.PerIP = %d, want 100", config.RateLimit.PerIP)
	}
	if config.RateLimit.SearchAPIPerHour != 1000 {
		t.Errorf("RateLimit.SearchAPIPerHour = %d, want 1000", config.RateLimit.SearchAPIPerHour)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SAVEMATE_SERVER_PORT", "9090")
	t.Setenv("SAVEMATE_MATCHING_RELEVANCE_THRESHOLD", "0.7")
	t.Setenv("SAVEMATE_SEARCHAPI_API_KEY", "secret")

	config, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if config.Server.Port != "9090" {
		t.Errorf("Server.Port = %q, want %q", config.Server.Port, "9090")
	}
	if config.Matching.RelevanceThreshold != 0.7 {
		t.Errorf("Matching.RelevanceThreshold = %v, want 0.7", config.Matching.RelevanceThreshold)
	}
	if config.SearchAPI.APIKey != "secret" {
		t.Errorf("SearchAPI.APIKey = %q, want %q", config.SearchAPI.APIKey, "secret")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Matching: MatchingConfig{RelevanceThreshold: 0.55, MaxQueryTokens: 6},
			Fetch:    FetchConfig{Timeout: 10 * time.Second, MaxPrice: 100000},
		}
	}

	t.Run("accepts valid config", func(t *testing.T) {
		if err := validate(valid()); err != nil {
			t.Errorf("validate() error = %v, want nil", err)
		}
	})

	t.Run("rejects threshold above 1", func(t *testing.T) {
		config := valid()
		config.Matching.RelevanceThreshold = 1.5
		if err := validate(config); err == nil {
			t.Error("validate() error = nil, want threshold error")
		}
	})

	t.Run("rejects non-positive query token cap", func(t *testing.T) {
		config := valid()
		config.Matching.MaxQueryTokens = 0
		if err := validate(config); err == nil {
			t.Error("validate() error = nil, want token cap error")
		}
	})

	t.Run("rejects timeout above the ceiling", func(t *testing.T) {
		config := valid()
		config.Fetch.Timeout = 30 * time.Second
		if err := validate(config); err == nil {
			t.Error("validate() error = nil, want timeout error")
		}
	})

	t.Run("rejects non-positive max price", func(t *testing.T) {
		config := valid()
		config.Fetch.MaxPrice = 0
		if err := validate(config); err == nil {
			t.Error("validate() error = nil, want max price error")
		}
	})
}
