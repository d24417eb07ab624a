package tonal

import (
	"strings"
	"sync"
)

// ChordCache maps chord symbols to their parsed ChordInfo. Entries are never
// replaced, so every lookup of a symbol returns the same *ChordInfo.
// A ChordCache is safe for concurrent use.
type ChordCache struct {
	mu     sync.RWMutex
	chords map[string]*ChordInfo
}

// NewChordCache creates an empty cache.
func NewChordCache() *ChordCache {
	return &ChordCache{chords: make(map[string]*ChordInfo)}
}

// Get returns the ChordInfo for symbol, parsing and remembering it on first use.
// Surrounding whitespace is ignored. Parse failures are not cached.
func (c *ChordCache) Get(symbol string) (*ChordInfo, error) {
	key := strings.TrimSpace(symbol)

	c.mu.RLock()
	ci, ok := c.chords[key]
	c.mu.RUnlock()
	if ok {
		return ci, nil
	}

	parsed, err := Parse(key)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// another goroutine may have won the race; first parse wins
	if existing, ok := c.chords[key]; ok {
		return existing, nil
	}
	c.chords[key] = parsed
	return parsed, nil
}

// GetAll resolves a list of symbols, stopping at the first failure.
func (c *ChordCache) GetAll(symbols []string) ([]*ChordInfo, error) {
	infos := make([]*ChordInfo, len(symbols))
	for i, symbol := range symbols {
		ci, err := c.Get(symbol)
		if err != nil {
			return nil, err
		}
		infos[i] = ci
	}
	return infos, nil
}

// Len returns the number of cached symbols.
func (c *ChordCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.chords)
}
