// Package recent keeps the bounded, most-recent-first list of searched tickers.
package recent

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"StockSentiment/internal/kv"
	"StockSentiment/internal/model"
)

const (
	// DefaultKey is the storage key holding the JSON array of tickers.
	DefaultKey = "recentSearches"
	// MaxEntries bounds the list length.
	MaxEntries = 5
)

// Cache is the recent-search list backed by a kv.Store.
// Add is a locked load-mutate-store so rapid calls keep the list deduplicated and bounded.
type Cache struct {
	mu    sync.Mutex
	store kv.Store
	key   string
}

// New creates a Cache over store. An empty key selects DefaultKey.
func New(store kv.Store, key string) *Cache {
	if key == "" {
		key = DefaultKey
	}
	return &Cache{store: store, key: key}
}

// Load returns the persisted list. Missing or malformed values yield an
// empty list; malformed values are also removed from the store.
func (c *Cache) Load(ctx context.Context) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load(ctx)
}

// Add moves ticker to the front of the list, truncates it to MaxEntries and
// persists it before returning the new list.
func (c *Cache) Add(ctx context.Context, ticker string) ([]string, error) {
	t, err := model.NormalizeTicker(ticker)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	list := Push(c.load(ctx), t)
	data, err := json.Marshal(list)
	if err != nil {
		return nil, fmt.Errorf("marshal recent searches: %w", err)
	}
	if err := c.store.Set(ctx, c.key, data); err != nil {
		return nil, fmt.Errorf("save recent searches: %w", err)
	}
	return list, nil
}

func (c *Cache) load(ctx context.Context) []string {
	data, ok, err := c.store.Get(ctx, c.key)
	if err != nil {
		log.Printf("[WARN] load recent searches: %v", err)
		return []string{}
	}
	if !ok {
		return []string{}
	}

	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		log.Printf("[WARN] discarding malformed recent searches: %v", err)
		if err := c.store.Delete(ctx, c.key); err != nil {
			log.Printf("[ERROR] clear malformed recent searches: %v", err)
		}
		return []string{}
	}
	return sanitize(raw)
}

// Push returns a new list with ticker at the front, any earlier occurrence
// removed, truncated to MaxEntries. The input slice is not modified.
func Push(list []string, ticker string) []string {
	out := make([]string, 0, MaxEntries)
	out = append(out, ticker)
	for _, t := range list {
		if len(out) == MaxEntries {
			break
		}
		if t != ticker {
			out = append(out, t)
		}
	}
	return out
}

// sanitize normalizes persisted entries and re-applies the list invariants,
// in case the value was written by another client.
func sanitize(raw []string) []string {
	out := make([]string, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for _, r := range raw {
		t, err := model.NormalizeTicker(r)
		if err != nil || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
		if len(out) == MaxEntries {
			break
		}
	}
	return out
}
