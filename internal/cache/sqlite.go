package cache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"HeikinSentinel/internal/model"
)

// SQLiteCache keeps fetched data in a SQLite file so it survives restarts.
type SQLiteCache struct {
	db     *sql.DB
	mu     sync.Mutex
	ttl    TTL
	now    func() time.Time
	logger zerolog.Logger
}

// NewSQLiteCache opens (or creates) the SQLite database and runs migrations.
func NewSQLiteCache(dbPath string, ttl TTL, logger zerolog.Logger) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	c := &SQLiteCache{db: db, ttl: ttl, now: time.Now, logger: logger}
	if err := c.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info().Str("path", dbPath).Msg("sqlite cache opened")
	return c, nil
}

func (c *SQLiteCache) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS universe_cache (
			key        TEXT PRIMARY KEY,
			fetched_at INTEGER NOT NULL,
			symbols    TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS series_cache (
			symbol     TEXT NOT NULL,
			period     TEXT NOT NULL,
			fetched_at INTEGER NOT NULL,
			bars       TEXT NOT NULL,
			PRIMARY KEY (symbol, period)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_series_fetched ON series_cache(fetched_at)`,
	}
	for _, s := range stmts {
		if _, err := c.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (c *SQLiteCache) GetSymbols(key string) ([]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var fetchedAt int64
	var raw string
	err := c.db.QueryRow(`SELECT fetched_at, symbols FROM universe_cache WHERE key = ?`, key).Scan(&fetchedAt, &raw)
	if err != nil {
		if err != sql.ErrNoRows {
			c.logger.Warn().Err(err).Str("key", key).Msg("read universe cache")
		}
		return nil, false
	}
	if !fresh(time.Unix(fetchedAt, 0), c.now(), c.ttl.Symbols) {
		return nil, false
	}
	var symbols []string
	if err := json.Unmarshal([]byte(raw), &symbols); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("decode universe cache")
		return nil, false
	}
	return symbols, true
}

func (c *SQLiteCache) PutSymbols(key string, symbols []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	raw, err := json.Marshal(symbols)
	if err != nil {
		return fmt.Errorf("encode symbols: %w", err)
	}
	_, err = c.db.Exec(`INSERT OR REPLACE INTO universe_cache (key, fetched_at, symbols) VALUES (?,?,?)`,
		key, c.now().Unix(), string(raw))
	return err
}

func (c *SQLiteCache) GetBars(symbol, period string) ([]model.Bar, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var fetchedAt int64
	var raw string
	err := c.db.QueryRow(`SELECT fetched_at, bars FROM series_cache WHERE symbol = ? AND period = ?`,
		symbol, period).Scan(&fetchedAt, &raw)
	if err != nil {
		if err != sql.ErrNoRows {
			c.logger.Warn().Err(err).Str("symbol", symbol).Msg("read series cache")
		}
		return nil, false
	}
	if !fresh(time.Unix(fetchedAt, 0), c.now(), c.ttl.Bars) {
		return nil, false
	}
	var bars []model.Bar
	if err := json.Unmarshal([]byte(raw), &bars); err != nil {
		c.logger.Warn().Err(err).Str("symbol", symbol).Msg("decode series cache")
		return nil, false
	}
	return bars, true
}

func (c *SQLiteCache) PutBars(symbol, period string, bars []model.Bar) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	raw, err := json.Marshal(bars)
	if err != nil {
		return fmt.Errorf("encode bars: %w", err)
	}
	_, err = c.db.Exec(`INSERT OR REPLACE INTO series_cache (symbol, period, fetched_at, bars) VALUES (?,?,?,?)`,
		symbol, period, c.now().Unix(), string(raw))
	return err
}

func (c *SQLiteCache) Close() error {
	c.logger.Info().Msg("closing sqlite cache")
	return c.db.Close()
}
