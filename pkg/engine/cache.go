package engine

import (
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/bhasha-kb/lipiserve/pkg/suggest"
)

// queryCache memoizes recent suggestion queries. Results are context
// sensitive, so every committed word flushes it wholesale rather than
// hunting for affected keys.
type queryCache struct {
	lru *lru.Cache[string, []suggest.Suggestion]
}

const defaultCacheSize = 100

func newQueryCache(size int) *queryCache {
	c, err := lru.New[string, []suggest.Suggestion](size)
	if err != nil {
		c, _ = lru.New[string, []suggest.Suggestion](defaultCacheSize)
	}
	return &queryCache{lru: c}
}

// cacheKey combines everything a query result depends on besides the
// rolling context, which is handled by flushing on commit.
func cacheKey(typed, layout string, limit int) string {
	return typed + "\x1f" + layout + "\x1f" + strconv.Itoa(limit)
}

func (c *queryCache) get(key string) ([]suggest.Suggestion, bool) {
	return c.lru.Get(key)
}

func (c *queryCache) add(key string, val []suggest.Suggestion) {
	c.lru.Add(key, val)
}

func (c *queryCache) purge() {
	c.lru.Purge()
}

func (c *queryCache) len() int {
	return c.lru.Len()
}
