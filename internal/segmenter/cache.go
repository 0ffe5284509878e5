package segmenter

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"sync"
)

// KeyPrefixLength bounds the process-name prefix of a cache key, in runes.
const KeyPrefixLength = 40

// Cache stores raw pages by content-addressed key. Implementations must be
// safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) (Page, bool)
	Put(ctx context.Context, key string, page Page)
}

// ContentHash returns the hex md5 digest of the AS-IS text.
func ContentHash(asIs string) string {
	sum := md5.Sum([]byte(asIs))
	return hex.EncodeToString(sum[:])
}

// Key builds "{process[:40]}|{md5(asIs)}|{start}|{pageSize}".
func Key(process, asIs string, start, pageSize int) string {
	return fmt.Sprintf("%s|%s|%d|%d", prefix(process), ContentHash(asIs), start, pageSize)
}

func prefix(s string) string {
	runes := []rune(s)
	if len(runes) > KeyPrefixLength {
		runes = runes[:KeyPrefixLength]
	}
	return string(runes)
}

type memoryCache struct {
	mu    sync.RWMutex
	pages map[string]Page
}

// NewMemoryCache returns an unbounded process-lifetime cache. Entries are
// never evicted; keys are content-addressed, so they never go stale.
func NewMemoryCache() Cache {
	return &memoryCache{pages: make(map[string]Page)}
}

func (c *memoryCache) Get(_ context.Context, key string) (Page, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	page, ok := c.pages[key]
	if !ok {
		return Page{}, false
	}
	return page.clone(), true
}

func (c *memoryCache) Put(_ context.Context, key string, page Page) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pages[key] = page.clone()
}

// clone copies the record maps so callers cannot mutate cached entries.
func (p Page) clone() Page {
	records := make([]Record, len(p.Records))
	for i, r := range p.Records {
		c := make(Record, len(r))
		for k, v := range r {
			c[k] = v
		}
		records[i] = c
	}
	return Page{Records: records, Declared: p.Declared}
}
