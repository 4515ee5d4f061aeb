// Package cache keeps recently fetched universes and price series so repeated
// scans do not hit the upstream sources again. It never stores scan results.
package cache

import (
	"time"

	"HeikinSentinel/internal/model"
)

// Cache stores fetched data with a time-to-live.
type Cache interface {
	GetSymbols(key string) ([]string, bool)
	PutSymbols(key string, symbols []string) error
	GetBars(symbol, period string) ([]model.Bar, bool)
	PutBars(symbol, period string, bars []model.Bar) error
	Close() error
}

// TTL holds the lifetimes of each kind of entry. Zero disables that kind.
type TTL struct {
	Symbols time.Duration
	Bars    time.Duration
}

func fresh(fetchedAt, now time.Time, ttl time.Duration) bool {
	return ttl > 0 && now.Sub(fetchedAt) < ttl
}
