package application

import (
	"context"
	"fmt"
	"time"

	"github.com/ahmetzturk/yt-summarizer/internal/breaker"
	"github.com/ahmetzturk/yt-summarizer/internal/cache"
	"github.com/ahmetzturk/yt-summarizer/internal/config"
	"github.com/ahmetzturk/yt-summarizer/internal/gemini"
	"github.com/ahmetzturk/yt-summarizer/internal/metrics"
	"github.com/ahmetzturk/yt-summarizer/internal/summarizer"
	"github.com/ahmetzturk/yt-summarizer/internal/transcript"
)

// Application holds the wired collaborators shared by every entry point
type Application struct {
	Config  *config.Config
	Service *summarizer.Service
	Cache   *cache.Manager // nil when CACHE_TYPE=none
	Metrics *metrics.Metrics
}

// New creates a new application instance with all dependencies
func New(ctx context.Context, cfg *config.Config) (*Application, error) {
	m := metrics.New()

	geminiClient, err := gemini.NewClient(ctx, gemini.Options{
		APIKey:          cfg.GoogleAPIKey,
		Model:           cfg.GeminiModel,
		BaseURL:         cfg.GeminiBaseURL,
		Timeout:         cfg.UpstreamTimeout,
		MaxOutputTokens: cfg.MaxOutputTokens,
		Breaker:         breaker.New(breakerConfig(cfg, "gemini"), gemini.IsProviderFailure),
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	fetcher := transcript.NewFetcher(cfg.UpstreamTimeout,
		breaker.New(breakerConfig(cfg, "youtube"), transcript.IsProviderFailure))

	// Initialize cache manager
	var cacheManager *cache.Manager
	if cfg.CacheType != "none" {
		cacheManager, err = cache.NewManager(ctx, cache.Options{
			Type:     cfg.CacheType,
			Duration: time.Duration(cfg.CacheDuration) * time.Hour,
			Bucket:   cfg.CacheBucket,
			DBPath:   cfg.CacheDBPath,
		})
		if err != nil {
			return nil, fmt.Errorf("creating cache manager: %w", err)
		}
	}

	service := summarizer.New(fetcher, geminiClient, cacheManager, m, summarizer.Options{
		DefaultLanguage:     cfg.DefaultLanguage,
		TranscriptLanguages: cfg.TranscriptLanguages,
		MaxInputChars:       cfg.MaxInputChars,
	})

	return &Application{
		Config:  cfg,
		Service: service,
		Cache:   cacheManager,
		Metrics: m,
	}, nil
}

// Close cleans up application resources
func (a *Application) Close() error {
	if a.Cache != nil {
		return a.Cache.Close()
	}
	return nil
}

func breakerConfig(cfg *config.Config, name string) breaker.Config {
	bc := breaker.DefaultConfig(name)
	if cfg.BreakerFailureThreshold > 0 {
		bc.FailureThreshold = cfg.BreakerFailureThreshold
	}
	if cfg.BreakerMinRequests > 0 {
		bc.MinRequests = uint32(cfg.BreakerMinRequests)
	}
	if cfg.BreakerTimeout > 0 {
		bc.Timeout = cfg.BreakerTimeout
	}
	return bc
}
