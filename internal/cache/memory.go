package cache

import (
	"sync"
	"time"

	"HeikinSentinel/internal/model"
)

type symbolsEntry struct {
	symbols   []string
	fetchedAt time.Time
}

type barsEntry struct {
	bars      []model.Bar
	fetchedAt time.Time
}

// MemoryCache is the in-process Cache used when no SQLite path is configured.
type MemoryCache struct {
	mu      sync.Mutex
	ttl     TTL
	now     func() time.Time
	symbols map[string]symbolsEntry
	bars    map[string]barsEntry
}

// NewMemoryCache creates an empty MemoryCache.
func NewMemoryCache(ttl TTL) *MemoryCache {
	return &MemoryCache{
		ttl:     ttl,
		now:     time.Now,
		symbols: make(map[string]symbolsEntry),
		bars:    make(map[string]barsEntry),
	}
}

func (c *MemoryCache) GetSymbols(key string) ([]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.symbols[key]
	if !ok || !fresh(e.fetchedAt, c.now(), c.ttl.Symbols) {
		delete(c.symbols, key)
		return nil, false
	}
	return append([]string(nil), e.symbols...), true
}

func (c *MemoryCache) PutSymbols(key string, symbols []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.symbols[key] = symbolsEntry{symbols: append([]string(nil), symbols...), fetchedAt: c.now()}
	return nil
}

func (c *MemoryCache) GetBars(symbol, period string) ([]model.Bar, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := symbol + "|" + period
	e, ok := c.bars[key]
	if !ok || !fresh(e.fetchedAt, c.now(), c.ttl.Bars) {
		delete(c.bars, key)
		return nil, false
	}
	return append([]model.Bar(nil), e.bars...), true
}

func (c *MemoryCache) PutBars(symbol, period string, bars []model.Bar) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bars[symbol+"|"+period] = barsEntry{bars: append([]model.Bar(nil), bars...), fetchedAt: c.now()}
	return nil
}

func (c *MemoryCache) Close() error { return nil }
