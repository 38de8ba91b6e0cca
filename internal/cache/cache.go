package cache

import (
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Cache interface defines cache operations
type Cache interface {
	Get(ctx context.Context, key string) (*CacheEntry, error)
	Set(ctx context.Context, key string, entry *CacheEntry) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Clear(ctx context.Context) error
	GetStats(ctx context.Context) (*Stats, error)
	PurgeExpired(ctx context.Context) (int, error)
	Close() error
}

// CacheEntry represents a cached summary
type CacheEntry struct {
	Key         string    `json:"key"`
	VideoID     string    `json:"video_id"`
	Language    string    `json:"language"`
	Model       string    `json:"model"`
	Summary     string    `json:"summary"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
	AccessedAt  time.Time `json:"accessed_at"`
	AccessCount int       `json:"access_count"`
}

// Stats represents cache statistics
type Stats struct {
	Backend        string        `json:"backend"`
	TotalEntries   int           `json:"total_entries"`
	HitCount       int64         `json:"hit_count"`
	MissCount      int64         `json:"miss_count"`
	HitRate        float64       `json:"hit_rate"`
	MemoryUsage    int64         `json:"memory_usage_bytes"`
	OldestEntry    time.Time     `json:"oldest_entry"`
	AverageAge     time.Duration `json:"average_age"`
	ExpiredEntries int           `json:"expired_entries"`
}

// MemoryCache implements in-memory cache
type MemoryCache struct {
	entries   map[string]*CacheEntry
	mutex     sync.RWMutex
	duration  time.Duration
	hitCount  int64
	missCount int64
}

// NewMemoryCache creates a new in-memory cache. Expired entries are dropped on
// read and by PurgeExpired.
func NewMemoryCache(duration time.Duration) *MemoryCache {
	return &MemoryCache{
		entries:  make(map[string]*CacheEntry),
		duration: duration,
	}
}

// Get retrieves an entry from cache
func (c *MemoryCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, exists := c.entries[key]
	if !exists {
		c.missCount++
		return nil, ErrCacheMiss
	}

	now := time.Now()
	if now.After(entry.ExpiresAt) {
		delete(c.entries, key)
		c.missCount++
		return nil, ErrCacheMiss
	}

	entry.AccessedAt = now
	entry.AccessCount++
	c.hitCount++

	copied := *entry
	return &copied, nil
}

// Set stores an entry in cache
func (c *MemoryCache) Set(ctx context.Context, key string, entry *CacheEntry) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := time.Now()
	stored := *entry
	stored.Key = key
	stored.CreatedAt = now
	stored.ExpiresAt = now.Add(c.duration)
	stored.AccessedAt = now
	stored.AccessCount = 0

	c.entries[key] = &stored
	return nil
}

// Delete removes an entry from cache
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.entries, key)
	return nil
}

// Exists checks if an entry exists in cache
func (c *MemoryCache) Exists(ctx context.Context, key string) (bool, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	entry, exists := c.entries[key]
	if !exists {
		return false, nil
	}

	if time.Now().After(entry.ExpiresAt) {
		return false, nil
	}

	return true, nil
}

// Clear removes all entries from cache
func (c *MemoryCache) Clear(ctx context.Context) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries = make(map[string]*CacheEntry)
	c.hitCount = 0
	c.missCount = 0
	return nil
}

// GetStats returns cache statistics
func (c *MemoryCache) GetStats(ctx context.Context) (*Stats, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	stats := &Stats{
		Backend:      "memory",
		TotalEntries: len(c.entries),
		HitCount:     c.hitCount,
		MissCount:    c.missCount,
	}

	if c.hitCount+c.missCount > 0 {
		stats.HitRate = float64(c.hitCount) / float64(c.hitCount+c.missCount)
	}

	var totalAge time.Duration
	now := time.Now()

	for _, entry := range c.entries {
		stats.MemoryUsage += estimateMemoryUsage(entry)

		if stats.OldestEntry.IsZero() || entry.CreatedAt.Before(stats.OldestEntry) {
			stats.OldestEntry = entry.CreatedAt
		}

		totalAge += now.Sub(entry.CreatedAt)

		if now.After(entry.ExpiresAt) {
			stats.ExpiredEntries++
		}
	}

	if len(c.entries) > 0 {
		stats.AverageAge = totalAge / time.Duration(len(c.entries))
	}

	return stats, nil
}

// PurgeExpired removes expired entries and returns how many were removed
func (c *MemoryCache) PurgeExpired(ctx context.Context) (int, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	removed := 0
	now := time.Now()
	for key, entry := range c.entries {
		if now.After(entry.ExpiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed, nil
}

// Close is a no-op for the memory cache
func (c *MemoryCache) Close() error {
	return nil
}

// Options selects and configures a cache backend
type Options struct {
	Type     string // "memory", "sqlite" or "cloud-storage"
	Duration time.Duration
	Bucket   string
	DBPath   string
}

// Manager handles cache operations with convenience methods
type Manager struct {
	cache   Cache
	backend string
}

// NewManager creates a new cache manager
func NewManager(ctx context.Context, opts Options) (*Manager, error) {
	var cache Cache

	switch opts.Type {
	case "memory":
		cache = NewMemoryCache(opts.Duration)
	case "sqlite":
		var err error
		cache, err = NewSQLiteCache(opts.DBPath, opts.Duration)
		if err != nil {
			return nil, fmt.Errorf("creating sqlite cache: %w", err)
		}
	case "cloud-storage":
		var err error
		cache, err = NewCloudStorageCache(ctx, opts.Bucket, opts.Duration)
		if err != nil {
			return nil, fmt.Errorf("creating cloud storage cache: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", opts.Type)
	}

	return &Manager{cache: cache, backend: opts.Type}, nil
}

// NewManagerWithCache wraps an existing cache
func NewManagerWithCache(cache Cache, backend string) *Manager {
	return &Manager{cache: cache, backend: backend}
}

// GetSummary retrieves a cached summary
func (m *Manager) GetSummary(ctx context.Context, videoID, language, model string) (*CacheEntry, error) {
	return m.cache.Get(ctx, GenerateKey(videoID, language, model))
}

// SetSummary caches a summary
func (m *Manager) SetSummary(ctx context.Context, videoID, language, model, summary string) error {
	entry := &CacheEntry{
		VideoID:  videoID,
		Language: language,
		Model:    model,
		Summary:  summary,
	}
	return m.cache.Set(ctx, GenerateKey(videoID, language, model), entry)
}

// IsCached checks if a summary is already cached
func (m *Manager) IsCached(ctx context.Context, videoID, language, model string) (bool, error) {
	return m.cache.Exists(ctx, GenerateKey(videoID, language, model))
}

// GetStats returns cache statistics
func (m *Manager) GetStats(ctx context.Context) (*Stats, error) {
	stats, err := m.cache.GetStats(ctx)
	if err != nil {
		return nil, err
	}
	if stats.Backend == "" {
		stats.Backend = m.backend
	}
	return stats, nil
}

// Clear clears all cached entries
func (m *Manager) Clear(ctx context.Context) error {
	return m.cache.Clear(ctx)
}

// PurgeExpired removes expired entries from the backend
func (m *Manager) PurgeExpired(ctx context.Context) (int, error) {
	return m.cache.PurgeExpired(ctx)
}

// Close closes the cache
func (m *Manager) Close() error {
	return m.cache.Close()
}

// GenerateKey generates a cache key for a summary. Language is case-insensitive.
func GenerateKey(videoID, language, model string) string {
	identifier := videoID + "|" + strings.ToLower(language) + "|" + model
	hash := md5.Sum([]byte(identifier))
	return fmt.Sprintf("summary:%x", hash)
}

// estimateMemoryUsage estimates memory usage of a cache entry without JSON marshaling
func estimateMemoryUsage(entry *CacheEntry) int64 {
	size := int64(len(entry.Key) + len(entry.VideoID) + len(entry.Language) + len(entry.Model))
	size += int64(len(entry.Summary))

	// rough estimate for time.Time fields and other overhead
	size += 128

	return size
}

// IsMiss reports whether err is a cache miss
func IsMiss(err error) bool {
	return errors.Is(err, ErrCacheMiss)
}

// Common cache errors
var (
	ErrCacheMiss = errors.New("cache miss")
)
