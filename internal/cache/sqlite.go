package cache

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const createSummariesTable = `CREATE TABLE IF NOT EXISTS summaries (
	key          TEXT PRIMARY KEY,
	video_id     TEXT NOT NULL,
	language     TEXT NOT NULL,
	model        TEXT NOT NULL,
	summary      TEXT NOT NULL,
	created_at   INTEGER NOT NULL,
	expires_at   INTEGER NOT NULL,
	accessed_at  INTEGER NOT NULL,
	access_count INTEGER NOT NULL DEFAULT 0
)`

// SQLiteCache persists summaries in a local SQLite database
type SQLiteCache struct {
	db        *sql.DB
	duration  time.Duration
	hitCount  int64
	missCount int64
}

// NewSQLiteCache opens (or creates) the database at dbPath
func NewSQLiteCache(dbPath string, duration time.Duration) (*SQLiteCache, error) {
	logrus.WithField("path", dbPath).Info("Initializing summary cache database")

	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return nil, errors.Wrap(err, "creating directory for database")
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}

	// sqlite serializes writers; one connection avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(30 * time.Minute)

	if _, err := db.Exec(createSummariesTable); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "creating summaries table")
	}
	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_summaries_expires_at ON summaries(expires_at)`); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "creating expiry index")
	}

	return &SQLiteCache{db: db, duration: duration}, nil
}

// Get retrieves an entry, bumping its access information
func (c *SQLiteCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	var entry CacheEntry
	var createdAt, expiresAt, accessedAt int64

	err := c.db.QueryRowContext(ctx,
		`SELECT key, video_id, language, model, summary, created_at, expires_at, accessed_at, access_count
		 FROM summaries WHERE key = ?`, key,
	).Scan(&entry.Key, &entry.VideoID, &entry.Language, &entry.Model, &entry.Summary,
		&createdAt, &expiresAt, &accessedAt, &entry.AccessCount)
	if err != nil {
		if err == sql.ErrNoRows {
			atomic.AddInt64(&c.missCount, 1)
			return nil, ErrCacheMiss
		}
		return nil, errors.Wrap(err, "querying summary")
	}

	entry.CreatedAt = time.Unix(0, createdAt)
	entry.ExpiresAt = time.Unix(0, expiresAt)

	now := time.Now()
	if now.After(entry.ExpiresAt) {
		atomic.AddInt64(&c.missCount, 1)
		if err := c.Delete(ctx, key); err != nil {
			logrus.WithError(err).WithField("key", key).Warn("Failed to delete expired cache entry")
		}
		return nil, ErrCacheMiss
	}

	entry.AccessedAt = now
	entry.AccessCount++
	if _, err := c.db.ExecContext(ctx,
		`UPDATE summaries SET accessed_at = ?, access_count = access_count + 1 WHERE key = ?`,
		now.UnixNano(), key,
	); err != nil {
		return nil, errors.Wrap(err, "updating access information")
	}

	atomic.AddInt64(&c.hitCount, 1)
	return &entry, nil
}

// Set stores an entry, replacing any existing one
func (c *SQLiteCache) Set(ctx context.Context, key string, entry *CacheEntry) error {
	now := time.Now()

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO summaries (key, video_id, language, model, summary, created_at, expires_at, accessed_at, access_count)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0)
		 ON CONFLICT(key) DO UPDATE SET
			summary = excluded.summary,
			created_at = excluded.created_at,
			expires_at = excluded.expires_at,
			accessed_at = excluded.accessed_at,
			access_count = 0`,
		key, entry.VideoID, entry.Language, entry.Model, entry.Summary,
		now.UnixNano(), now.Add(c.duration).UnixNano(), now.UnixNano(),
	)
	if err != nil {
		tx.Rollback()
		return errors.Wrap(err, "upserting summary")
	}

	return errors.Wrap(tx.Commit(), "committing transaction")
}

// Delete removes an entry
func (c *SQLiteCache) Delete(ctx context.Context, key string) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM summaries WHERE key = ?`, key)
	return errors.Wrap(err, "deleting summary")
}

// Exists checks if an unexpired entry exists
func (c *SQLiteCache) Exists(ctx context.Context, key string) (bool, error) {
	var count int
	err := c.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM summaries WHERE key = ? AND expires_at > ?`,
		key, time.Now().UnixNano(),
	).Scan(&count)
	if err != nil {
		return false, errors.Wrap(err, "checking summary")
	}
	return count > 0, nil
}

// Clear removes all entries
func (c *SQLiteCache) Clear(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM summaries`); err != nil {
		return errors.Wrap(err, "clearing summaries")
	}
	atomic.StoreInt64(&c.hitCount, 0)
	atomic.StoreInt64(&c.missCount, 0)
	return nil
}

// GetStats returns cache statistics
func (c *SQLiteCache) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		Backend:   "sqlite",
		HitCount:  atomic.LoadInt64(&c.hitCount),
		MissCount: atomic.LoadInt64(&c.missCount),
	}
	if total := stats.HitCount + stats.MissCount; total > 0 {
		stats.HitRate = float64(stats.HitCount) / float64(total)
	}

	now := time.Now().UnixNano()
	var oldest, avgCreated sql.NullFloat64
	var size sql.NullInt64

	err := c.db.QueryRowContext(ctx,
		`SELECT COUNT(1),
			COALESCE(SUM(CASE WHEN expires_at <= ? THEN 1 ELSE 0 END), 0),
			MIN(created_at), AVG(created_at),
			SUM(LENGTH(summary) + LENGTH(key) + LENGTH(video_id) + LENGTH(language) + LENGTH(model))
		 FROM summaries`, now,
	).Scan(&stats.TotalEntries, &stats.ExpiredEntries, &oldest, &avgCreated, &size)
	if err != nil {
		return nil, errors.Wrap(err, "querying cache stats")
	}

	if oldest.Valid {
		stats.OldestEntry = time.Unix(0, int64(oldest.Float64))
	}
	if avgCreated.Valid {
		stats.AverageAge = time.Duration(float64(now) - avgCreated.Float64)
	}
	if size.Valid {
		stats.MemoryUsage = size.Int64
	}

	return stats, nil
}

// PurgeExpired deletes expired rows
func (c *SQLiteCache) PurgeExpired(ctx context.Context) (int, error) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM summaries WHERE expires_at <= ?`, time.Now().UnixNano())
	if err != nil {
		return 0, errors.Wrap(err, "purging expired summaries")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "counting purged summaries")
	}
	return int(n), nil
}

// Close closes the database
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}
