package application

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/ahmetzturk/yt-summarizer/internal/apperrors"
	"github.com/ahmetzturk/yt-summarizer/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		GoogleAPIKey:        "test-api-key",
		GeminiModel:         "gemini-2.5-flash",
		UpstreamTimeout:     5 * time.Second,
		DefaultLanguage:     "tr",
		TranscriptLanguages: []string{"tr", "en"},
		MaxInputChars:       12000,
		CacheType:           "memory",
		CacheDuration:       1,
	}
}

func TestNew(t *testing.T) {
	app, err := New(context.Background(), testConfig())
	if err != nil {
		t.Fatalf("Failed to create application: %v", err)
	}
	defer app.Close()

	if app.Service == nil {
		t.Error("Expected service to be wired")
	}
	if app.Cache == nil {
		t.Error("Expected memory cache")
	}
	if app.Metrics == nil {
		t.Error("Expected metrics")
	}
}

func TestNewWithoutCache(t *testing.T) {
	cfg := testConfig()
	cfg.CacheType = "none"

	app, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Failed to create application: %v", err)
	}
	if app.Cache != nil {
		t.Error("Expected caching to be disabled")
	}
	if err := app.Close(); err != nil {
		t.Errorf("Unexpected close error: %v", err)
	}
}

func TestNewSQLiteCache(t *testing.T) {
	cfg := testConfig()
	cfg.CacheType = "sqlite"
	cfg.CacheDBPath = filepath.Join(t.TempDir(), "summaries.db")

	app, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Failed to create application: %v", err)
	}
	defer app.Close()

	stats, err := app.Cache.GetStats(context.Background())
	if err != nil {
		t.Fatalf("Failed to get stats: %v", err)
	}
	if stats.Backend != "sqlite" {
		t.Errorf("Expected sqlite backend, got %s", stats.Backend)
	}
}

func TestNewMissingAPIKey(t *testing.T) {
	cfg := testConfig()
	cfg.GoogleAPIKey = ""

	_, err := New(context.Background(), cfg)
	if !apperrors.Is(err, apperrors.Configuration) {
		t.Errorf("Expected configuration error, got %v", err)
	}
}

func TestBreakerConfig(t *testing.T) {
	cfg := testConfig()
	cfg.BreakerFailureThreshold = 0.25
	cfg.BreakerMinRequests = 10
	cfg.BreakerTimeout = 5 * time.Second

	bc := breakerConfig(cfg, "gemini")
	if bc.Name != "gemini" || bc.FailureThreshold != 0.25 || bc.MinRequests != 10 || bc.Timeout != 5*time.Second {
		t.Errorf("Unexpected breaker config: %+v", bc)
	}

	defaults := breakerConfig(testConfig(), "youtube")
	if defaults.FailureThreshold != 0.6 || defaults.MinRequests != 5 {
		t.Errorf("Expected default breaker settings, got %+v", defaults)
	}
}
