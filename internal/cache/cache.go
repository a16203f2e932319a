// Package cache provides file-stamp keyed memoization of parse results.
// Each named cache is one SQLite database under the configured cache path;
// an entry stores the file's modification time alongside the value, and is
// returned only while the stamp still matches. Corruption or version
// mismatch degrades to a miss without aborting the build.
package cache

import (
	"database/sql"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/sitegen/internal/logfields"
	"git.home.luguber.info/inful/sitegen/internal/settings"
)

type entry struct {
	mtimeNS int64
	value   []byte
}

// FileStampCache is a key/value store with lazy load (single read on first
// access when the load policy is enabled) and lazy save (single write at
// the end of a phase when the caching policy is enabled). Keys are absolute
// file paths; stamps are modification times.
type FileStampCache struct {
	name   string
	dbPath string
	load   bool
	save   bool

	mu      sync.Mutex
	loaded  bool
	entries map[string]entry
	dirty   bool
	logger  *slog.Logger
}

// New creates the cache named name under the settings cache path. The load
// and save policies follow LOAD_CONTENT_CACHE and CACHE_CONTENT.
func New(s *settings.Settings, name string) *FileStampCache {
	return &FileStampCache{
		name:    name,
		dbPath:  filepath.Join(s.CachePath, name+".db"),
		load:    s.Bool("LOAD_CONTENT_CACHE"),
		save:    s.Bool("CACHE_CONTENT"),
		entries: map[string]entry{},
		logger:  slog.Default(),
	}
}

// GetCachedData returns the stored value for path if the file's current
// modification time matches the stored stamp, else def.
func (c *FileStampCache) GetCachedData(path string, def []byte) []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ensureLoaded()

	e, ok := c.entries[absolute(path)]
	if !ok {
		return def
	}
	stamp, err := fileStamp(path)
	if err != nil || stamp != e.mtimeNS {
		return def
	}
	return e.value
}

// CacheData stores both the current stamp and the value for path.
func (c *FileStampCache) CacheData(path string, value []byte) {
	stamp, err := fileStamp(path)
	if err != nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ensureLoaded()
	c.entries[absolute(path)] = entry{mtimeNS: stamp, value: value}
	c.dirty = true
}

// SaveCache persists the cache in a single write when the caching policy is
// enabled and anything changed.
func (c *FileStampCache) SaveCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.save || !c.dirty {
		return
	}
	if err := os.MkdirAll(filepath.Dir(c.dbPath), 0o750); err != nil {
		c.logger.Warn("failed to create cache directory", logfields.Path(c.dbPath), logfields.Error(err))
		return
	}
	db, err := c.open()
	if err != nil {
		c.logger.Warn("failed to open cache for writing", logfields.Path(c.dbPath), logfields.Error(err))
		return
	}
	defer func() { _ = db.Close() }()

	tx, err := db.Begin()
	if err != nil {
		c.logger.Warn("failed to begin cache transaction", logfields.Path(c.dbPath), logfields.Error(err))
		return
	}
	for key, e := range c.entries {
		if _, err := tx.Exec(
			"INSERT OR REPLACE INTO entries (key, mtime, value) VALUES (?, ?, ?)",
			key, e.mtimeNS, e.value,
		); err != nil {
			_ = tx.Rollback()
			c.logger.Warn("failed to write cache entry", logfields.Path(key), logfields.Error(err))
			return
		}
	}
	if err := tx.Commit(); err != nil {
		c.logger.Warn("failed to commit cache", logfields.Path(c.dbPath), logfields.Error(err))
		return
	}
	c.dirty = false
	c.logger.Debug("cache saved", slog.String("cache", c.name), logfields.Count(len(c.entries)))
}

// ensureLoaded reads the whole database once. Any failure is recovered
// locally: the cache starts empty and the build proceeds.
func (c *FileStampCache) ensureLoaded() {
	if c.loaded {
		return
	}
	c.loaded = true
	if !c.load {
		return
	}
	if _, err := os.Stat(c.dbPath); err != nil {
		return
	}
	db, err := c.open()
	if err != nil {
		c.logger.Debug("unreadable cache, starting empty", slog.String("cache", c.name), logfields.Error(err))
		return
	}
	defer func() { _ = db.Close() }()

	rows, err := db.Query("SELECT key, mtime, value FROM entries")
	if err != nil {
		c.logger.Debug("unreadable cache, starting empty", slog.String("cache", c.name), logfields.Error(err))
		return
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var key string
		var e entry
		if err := rows.Scan(&key, &e.mtimeNS, &e.value); err != nil {
			c.logger.Debug("corrupt cache row skipped", slog.String("cache", c.name), logfields.Error(err))
			continue
		}
		c.entries[key] = e
	}
	if err := rows.Err(); err != nil {
		c.logger.Debug("cache read ended early", slog.String("cache", c.name), logfields.Error(err))
	}
	c.logger.Debug("cache loaded", slog.String("cache", c.name), logfields.Count(len(c.entries)))
}

func (c *FileStampCache) open() (*sql.DB, error) {
	db, err := sql.Open("sqlite", c.dbPath)
	if err != nil {
		return nil, err
	}
	schema := `
	CREATE TABLE IF NOT EXISTS entries (
		key TEXT PRIMARY KEY,
		mtime INTEGER NOT NULL,
		value BLOB NOT NULL
	);
	`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func fileStamp(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.ModTime().UnixNano(), nil
}

func absolute(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}
